package health

import (
	"fmt"
	"strings"
	"time"
)

var periods = []struct {
	name    string
	seconds int64
}{
	{"year", 60 * 60 * 24 * 365},
	{"month", 60 * 60 * 24 * 30},
	{"day", 60 * 60 * 24},
	{"hour", 60 * 60},
	{"minute", 60},
	{"second", 1},
}

// FormatDuration renders a duration as a human-readable period list, e.g.
// "2 days, 3 hours, 1 minute". Durations under a second render as "0s".
func FormatDuration(d time.Duration) string {
	seconds := int64(d.Seconds())

	var parts []string
	for _, p := range periods {
		if seconds > p.seconds {
			value := seconds / p.seconds
			seconds %= p.seconds

			plural := "s"
			if value == 1 {
				plural = ""
			}
			parts = append(parts, fmt.Sprintf("%d %s%s", value, p.name, plural))
		}
	}

	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, ", ")
}

// FormatInterval renders a duration using format (a %s verb for the
// human-readable period list) when it is at least a second, and nowMessage
// otherwise.
func FormatInterval(d time.Duration, format, nowMessage string) string {
	if d >= time.Second {
		return fmt.Sprintf(format, FormatDuration(d))
	}
	return nowMessage
}
