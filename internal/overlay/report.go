package overlay

import (
	"context"
	"path/filepath"
	"strings"
)

// Options filter the report. Zero Top means unlimited.
type Options struct {
	Top     int
	MinSize int64
	Root    string // overrides driver autodetection of the layer root
}

// Row is one displayed layer. Owner is nil for unmatched layers (image
// layers, build cache, dangling data) — those are reported, never dropped
// silently.
type Row struct {
	Layer string
	Size  int64
	Owner *ContainerRef
	Init  bool // containerd <id>-init companion layer
}

// Report is the assembled, filtered usage view.
type Report struct {
	Driver string
	Root   string
	Flavor Flavor

	Rows      []Row
	Unmatched int   // unmatched rows among Rows
	Scanned   int64 // byte total across all candidate layers, pre-filter

	// Backing filesystem usage, zero when unavailable.
	Capacity uint64
	Free     uint64
}

// Build runs the full detect → scan → inventory → join pipeline.
func Build(ctx context.Context, eng Engine, opts Options) (*Report, error) {
	driver, flavor, err := Detect(ctx, eng)
	if err != nil {
		return nil, err
	}
	root, err := ResolveRoot(driver, opts.Root)
	if err != nil {
		return nil, err
	}

	layers, err := Scan(root)
	if err != nil {
		return nil, err
	}

	refs, err := Inventory(ctx, eng)
	if err != nil {
		return nil, err
	}
	var index map[string]ContainerRef
	if flavor == FlavorContainerd {
		index = MapContainerd(refs)
	} else {
		index = MapOverlay2(refs, root)
	}

	rep := &Report{Driver: driver, Root: root, Flavor: flavor}
	capacity, free := fsUsage(root)
	rep.Capacity, rep.Free = capacity, free

	for _, layer := range layers {
		rep.Scanned += layer.Size
		if layer.Size < opts.MinSize {
			continue
		}
		if opts.Top > 0 && len(rep.Rows) >= opts.Top {
			continue
		}

		name := filepath.Base(layer.Path)
		key, init := name, false
		if flavor == FlavorContainerd {
			key = strings.TrimSuffix(name, "-init")
			init = key != name
		}

		row := Row{Layer: name, Size: layer.Size, Init: init}
		if ref, ok := index[key]; ok {
			row.Owner = &ref
		} else {
			rep.Unmatched++
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep, nil
}
