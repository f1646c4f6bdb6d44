package disk

import (
	"path"
	"runtime"
	"strings"
	"unicode"
)

// NormalizeVolumePath maps Windows drive letters such as "c:" or "C:\" to
// the raw volume form \\.\C:. Other paths, and every path on other
// systems, are returned unchanged.
func NormalizeVolumePath(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}
	return normalizeWindowsPath(path)
}

func normalizeWindowsPath(path string) string {
	path = strings.ReplaceAll(strings.TrimSpace(path), "/", `\`)
	upper := strings.ToUpper(path)

	if strings.HasPrefix(upper, `\\.\`) {
		return upper
	}

	if (len(upper) == 2 || (len(upper) == 3 && upper[2] == '\\')) &&
		upper[1] == ':' && unicode.IsLetter(rune(upper[0])) {
		return `\\.\` + upper[:2]
	}
	return path
}

// DeviceName derives the name a medium is published under from its path:
// "/dev/mmcblk0" gives "mmcblk0", "images/sd.img" gives "sd" and
// `\\.\PhysicalDrive1` gives "physicaldrive1".
func DeviceName(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	if base == "." || base == "/" {
		return "disk"
	}

	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}

	base = strings.ToLower(strings.TrimSuffix(base, ":"))
	if base == "" {
		return "disk"
	}
	return base
}
