package utils

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
	TB = 1024 * GB
)

// FormatBytes converts bytes to human-readable IEC format ("2.0 MiB")
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// ParseSize converts a human-readable size ("1MB", "500 KiB", "2048") to bytes.
// Both SI-looking and IEC suffixes are treated as powers of 1024, which matches
// how the size filter has always been expressed in configuration.
func ParseSize(size string) (int64, error) {
	s := strings.TrimSpace(size)
	if s == "" {
		return 0, fmt.Errorf("invalid size format: %q", size)
	}

	var value float64
	var unit string
	n, _ := fmt.Sscanf(s, "%f%s", &value, &unit)
	if n == 0 {
		return 0, fmt.Errorf("invalid size format: %s", size)
	}
	if value < 0 {
		return 0, fmt.Errorf("size must not be negative: %s", size)
	}

	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "", "B":
		return int64(value), nil
	case "K", "KB", "KIB":
		return int64(value * KB), nil
	case "M", "MB", "MIB":
		return int64(value * MB), nil
	case "G", "GB", "GIB":
		return int64(value * GB), nil
	case "T", "TB", "TIB":
		return int64(value * TB), nil
	default:
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}
}
