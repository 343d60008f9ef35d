package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cryptodash/internal/model"
)

// Price formats a USD price. Sub-dollar prices keep more decimals.
func Price(v float64) string {
	switch abs := math.Abs(v); {
	case abs >= 1:
		return "$" + humanize.FormatFloat("#,###.##", v)
	case abs >= 0.01:
		return fmt.Sprintf("$%.4f", v)
	default:
		return fmt.Sprintf("$%.8f", v)
	}
}

// Change formats a percent change with its sign.
func Change(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// Ago renders the age of t relative to now.
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Tray returns the notifications to display: the first of each distinct
// message, in order.
func Tray(items []model.Notification) []model.Notification {
	seen := make(map[string]bool, len(items))
	out := make([]model.Notification, 0, len(items))
	for _, n := range items {
		if seen[n.Message] {
			continue
		}
		seen[n.Message] = true
		out = append(out, n)
	}
	return out
}

func severityTag(s model.Severity) string {
	return "[" + strings.ToUpper(string(s)) + "]"
}
