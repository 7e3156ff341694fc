package merge

import "time"

// FormatDateParts renders [year, month, day] as an RFC 1123 date at
// midnight UTC. The year is required; a missing or zero month or day
// defaults to 1. Returns false when the parts do not form a calendar date.
func FormatDateParts(parts []int) (string, bool) {
	if len(parts) == 0 || parts[0] <= 0 {
		return "", false
	}
	year, month, day := parts[0], 1, 1
	if len(parts) > 1 && parts[1] != 0 {
		month = parts[1]
	}
	if len(parts) > 2 && parts[2] != 0 {
		day = parts[2]
	}
	if month < 1 || month > 12 || day < 1 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow, e.g. Feb 30 becomes Mar 2.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format(time.RFC1123Z), true
}
