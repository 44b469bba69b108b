package overlay

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/storage"
)

// ContainerRef is the identity a layer directory resolves to.
type ContainerRef struct {
	ID    string
	Name  string
	Image string
	State string
	Graph storage.DriverData
}

// ShortID returns the familiar 12-character container id.
func (c ContainerRef) ShortID() string {
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

// Inventory inspects every container, running or not. Containers that
// vanish between list and inspect are skipped.
func Inventory(ctx context.Context, eng Engine) ([]ContainerRef, error) {
	summaries, err := eng.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	refs := make([]ContainerRef, 0, len(summaries))
	for _, s := range summaries {
		info, err := eng.ContainerInspect(ctx, s.ID)
		if err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("inspect container %s: %w", s.ID, err)
		}

		ref := ContainerRef{
			ID:    s.ID,
			Name:  strings.TrimPrefix(info.Name, "/"),
			Graph: info.GraphDriver,
		}
		if info.Config != nil {
			ref.Image = info.Config.Image
		}
		if info.State != nil {
			ref.State = string(info.State.Status)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// MapOverlay2 indexes containers by the layer ids appearing in their
// GraphDriver directories under root. The shared "l" symlink farm is not
// a layer.
func MapOverlay2(refs []ContainerRef, root string) map[string]ContainerRef {
	index := make(map[string]ContainerRef)
	prefix := root + string(filepath.Separator)

	for _, ref := range refs {
		if ref.Graph.Name != "overlay2" {
			continue
		}
		for _, key := range []string{"UpperDir", "LowerDir", "WorkDir", "MergedDir"} {
			for _, part := range strings.Split(ref.Graph.Data[key], ":") {
				part = strings.TrimSpace(part)
				if !strings.HasPrefix(part, prefix) {
					continue
				}
				rel := strings.TrimPrefix(part, prefix)
				layer, _, _ := strings.Cut(rel, string(filepath.Separator))
				if layer != "" && layer != "l" {
					index[layer] = ref
				}
			}
		}
	}
	return index
}

// MapContainerd indexes containers by full id — under the containerd
// snapshotter the directory name is the container id.
func MapContainerd(refs []ContainerRef) map[string]ContainerRef {
	index := make(map[string]ContainerRef, len(refs))
	for _, ref := range refs {
		index[ref.ID] = ref
	}
	return index
}
