package overlay

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// LayerUsage is the byte total of one candidate layer directory.
type LayerUsage struct {
	Path string
	Size int64
}

// Scan sizes every immediate subdirectory of root and returns them sorted
// descending. Unreadable entries are skipped rather than failing the scan;
// the result is best-effort by design (running unprivileged undercounts).
func Scan(root string) ([]LayerUsage, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read layer root: %w", err)
	}

	var layers []LayerUsage
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		layers = append(layers, LayerUsage{Path: dir, Size: dirSize(dir)})
	}

	slices.SortFunc(layers, func(a, b LayerUsage) int {
		switch {
		case b.Size > a.Size:
			return 1
		case b.Size < a.Size:
			return -1
		default:
			return 0
		}
	})
	return layers, nil
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // permission holes are expected, keep counting
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
