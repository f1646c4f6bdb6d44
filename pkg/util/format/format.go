package format

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	_  = iota
	KB = 1 << (10 * iota)
	MB
	GB
	TB
)

var units = []struct {
	suffix string
	size   int64
}{
	{"TB", TB},
	{"GB", GB},
	{"MB", MB},
	{"KB", KB},
}

// FormatBytes renders b in binary units, avoiding .00 for whole numbers.
func FormatBytes(b int64) string {
	for _, u := range units {
		if b < u.size {
			continue
		}

		val := float64(b) / float64(u.size)
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f%s", val, u.suffix)
		}
		return fmt.Sprintf("%.2f%s", val, u.suffix)
	}
	return fmt.Sprintf("%dB", b)
}

// ParseBytes parses sizes such as "512", "4KB", "4K" or "1.5MB".
func ParseBytes(s string) (int64, error) {
	str := strings.ToUpper(strings.TrimSpace(s))
	str = strings.TrimSuffix(str, "B")

	mult := int64(1)
	for _, u := range units {
		if strings.HasSuffix(str, u.suffix[:1]) {
			mult = u.size
			str = strings.TrimSuffix(str, u.suffix[:1])
			break
		}
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int64(val * float64(mult)), nil
}
