// Package marker implements the flag-file mailbox that carries the
// renewed-certificate pointer across the container trust boundary.
//
// The mailbox is single-slot: publishing over an unconsumed marker replaces
// its pointer, so only the latest renewal is ever pushed. Presence of the
// file is the sole signal of pending work; the content is one line, the
// lineage directory path as seen from the publisher's namespace. Only the
// hook publishes, only the agent clears.
package marker

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Marker is a handle on the flag file at a fixed path.
type Marker struct {
	path string
}

// New returns a Marker at path. The file need not exist.
func New(path string) Marker {
	return Marker{path: path}
}

// Path returns the marker's location.
func (m Marker) Path() string { return m.path }

// Publish writes pointer as the marker's content, superseding any
// unconsumed pointer. Not retried — the caller treats failure as fatal.
func (m Marker) Publish(pointer string) error {
	if err := os.WriteFile(m.path, []byte(pointer+"\n"), 0o644); err != nil {
		return fmt.Errorf("write flag marker: %w", err)
	}
	return nil
}

// Peek returns the current pointer and whether the marker exists. The
// pointer is whitespace-trimmed; an existing-but-empty marker yields
// ("", true, nil).
func (m Marker) Peek() (string, bool, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read flag marker: %w", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Clear removes the marker. This is the commit point of a successful push:
// it must only be called after the upload is confirmed. Clearing an absent
// marker is an error.
func (m Marker) Clear() error {
	if err := os.Remove(m.path); err != nil {
		return fmt.Errorf("remove flag marker: %w", err)
	}
	return nil
}
