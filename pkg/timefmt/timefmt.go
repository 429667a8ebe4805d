// Package timefmt renders cooldown wait times as human-readable strings.
package timefmt

import (
	"fmt"
	"strings"
)

const minutesPerDay = 24 * 60

// Remaining formats a wait of the given whole minutes as "Available in ...".
// Zero (or negative) minutes means the cooldown has elapsed.
//
// Under an hour only minutes are shown; under a day, hours and leftover
// minutes; otherwise days, hours and minutes. Zero-valued units are omitted
// and every unit is pluralized.
func Remaining(minutes int) string {
	if minutes <= 0 {
		return "Available now"
	}
	return "Available in " + span(minutes)
}

func span(minutes int) string {
	days := minutes / minutesPerDay
	hours := (minutes % minutesPerDay) / 60
	mins := minutes % 60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if mins > 0 {
		parts = append(parts, plural(mins, "minute"))
	}

	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
