//go:build !linux && !windows
// +build !linux,!windows

package fs

// Probe returns the geometry of f as reported by Stat.
func Probe(f File) (Geometry, error) {
	return statGeometry(f)
}
