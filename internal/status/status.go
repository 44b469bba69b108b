// Package status persists the single-slot run record consumed by external
// monitoring. The file is replaced atomically on every agent run; there is
// no history.
package status

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/moby/sys/atomicwriter"

	"dockhand"
)

// Write replaces the record at path.
func Write(path string, st dockhand.RunStatus) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := atomicwriter.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// Read loads the last record from path.
func Read(path string) (dockhand.RunStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dockhand.RunStatus{}, fmt.Errorf("read status: %w", err)
	}
	var st dockhand.RunStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return dockhand.RunStatus{}, fmt.Errorf("parse status: %w", err)
	}
	return st, nil
}
