package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Indent prefixes every line of text, used to nest mark notes below their line number.
func Indent(spaces int, text string) string {
	prefix := strings.Repeat(" ", spaces)
	return prefix + strings.ReplaceAll(text, "\n", "\n"+prefix)
}

// Count renders n followed by the fitting noun, e.g. "1 version" or "3 versions".
func Count(n int, singular string, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}

// WritingTime renders tracked writing time in whole units: "45s", "12m 05s" or "2h 05m".
func WritingTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %02ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// HistorySummary is the one-line digest shown below a history and by "id".
// Writing time is left out while less than a second was tracked.
func HistorySummary(versions int, total time.Duration) string {
	summary := Count(versions, "version", "versions")
	if total >= time.Second {
		summary += ", " + WritingTime(total) + " of writing"
	}
	return summary
}

// ContentSize renders the length of restored content.
func ContentSize(length int) string {
	const kib = 1024
	switch {
	case length >= kib*kib:
		return fmt.Sprintf("%.1f MiB", float64(length)/(kib*kib))
	case length >= kib:
		return fmt.Sprintf("%.1f KiB", float64(length)/kib)
	default:
		return Count(length, "byte", "bytes")
	}
}
