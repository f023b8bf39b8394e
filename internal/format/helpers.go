package format

import (
	"fmt"
	"time"
)

// Percent formats a fraction with one decimal, e.g. 0.853 -> "85.3%".
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// Decimal formats a score with two decimals.
func Decimal(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Duration formats d as "Xm Ys", "Ys" or "Nms" for sub-second values.
func Duration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	s := int(d.Seconds())
	if s >= 60 {
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%ds", s)
}

// Truncate shortens s to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
