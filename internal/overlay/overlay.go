// Package overlay reports disk usage of the engine's layer storage and
// maps layer directories back to the containers that own them.
//
// Two addressing schemes exist depending on the storage driver:
//
//   - classic overlay2 (/var/lib/docker/overlay2): layer ids appear as
//     path elements inside each container's GraphDriver data
//   - containerd overlayfs (/var/lib/docker/rootfs/overlayfs): the
//     directory name is the full container id, with "-init" companions
//
// Everything here is read-only; nothing in the engine or on disk is
// mutated.
package overlay

import (
	"context"
	"fmt"
	"os"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/system"
)

// Flavor selects the layer-addressing scheme.
type Flavor int

const (
	// FlavorOverlay2 joins layers through GraphDriver directories.
	FlavorOverlay2 Flavor = iota
	// FlavorContainerd joins layers by directory name == container id.
	FlavorContainerd
)

func (f Flavor) String() string {
	if f == FlavorContainerd {
		return "containerd overlayfs"
	}
	return "classic overlay2"
}

// driverRoots are the default storage locations per driver.
var driverRoots = map[string]string{
	"overlay2":  "/var/lib/docker/overlay2",
	"overlayfs": "/var/lib/docker/rootfs/overlayfs",
}

// Engine is the slice of the Docker API client the reporter needs.
type Engine interface {
	Info(ctx context.Context) (system.Info, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// Detect returns the engine's storage driver name and the matching flavor.
func Detect(ctx context.Context, eng Engine) (string, Flavor, error) {
	info, err := eng.Info(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("query engine info: %w", err)
	}
	if info.Driver == "" {
		return "", 0, fmt.Errorf("engine reported no storage driver")
	}
	flavor := FlavorOverlay2
	if info.Driver == "overlayfs" {
		flavor = FlavorContainerd
	}
	return info.Driver, flavor, nil
}

// ResolveRoot picks the layer storage directory: an explicit override wins,
// then the driver's default, then any known default that exists on disk.
func ResolveRoot(driver, override string) (string, error) {
	if override != "" {
		if !isDir(override) {
			return "", fmt.Errorf("override path %s is not a directory", override)
		}
		return override, nil
	}
	if root, ok := driverRoots[driver]; ok && isDir(root) {
		return root, nil
	}
	for _, root := range driverRoots {
		if isDir(root) {
			return root, nil
		}
	}
	return "", fmt.Errorf("cannot find layer storage for driver %q, use --path to specify it", driver)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
