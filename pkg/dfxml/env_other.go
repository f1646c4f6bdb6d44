//go:build !unix

package dfxml

func kernelInfo() (release, version string) {
	return "unknown", "unknown"
}
