package format

import (
	"fmt"
	"time"
)

// Duration renders a cooldown wait for user-facing messages, using the
// largest unit that keeps the number small.
func Duration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= time.Second {
		return "1 second"
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	seconds := (d - minutes*time.Minute) / time.Second

	switch {
	case days >= 1:
		if hours >= 12 {
			days++
		}
		return plural(int(days), "day")
	case hours >= 1:
		if minutes >= 30 {
			hours++
		}
		if hours == 24 {
			return "1 day"
		}
		return plural(int(hours), "hour")
	case minutes >= 1:
		if seconds >= 30 {
			minutes++
		}
		if minutes == 60 {
			return "1 hour"
		}
		return plural(int(minutes), "minute")
	default:
		return plural(int(seconds), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
