package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	if exp >= len(suffixes) {
		exp = len(suffixes) - 1
		div = 1
		for i := 0; i <= exp; i++ {
			div *= unit
		}
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// FormatShape renders a tensor shape as "(16, 3, 256, 256)".
func FormatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// TensorBytes returns the size of a float32 tensor of the given shape.
func TensorBytes(shape []int) int64 {
	n := int64(4)
	for _, d := range shape {
		n *= int64(d)
	}
	return n
}

// FormatRate returns a throughput label such as "412.3 frames/s".
func FormatRate(count int64, elapsed time.Duration, what string) string {
	if elapsed <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f %s/s", float64(count)/elapsed.Seconds(), what)
}
