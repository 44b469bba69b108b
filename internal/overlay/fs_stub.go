//go:build !linux

package overlay

// fsUsage is only implemented for Linux hosts; elsewhere the capacity
// summary is simply omitted.
func fsUsage(string) (capacity, free uint64) {
	return 0, 0
}
