package post

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeTimePattern = regexp.MustCompile(`^(\d+)([a-z]+)`)

const day = 24 * time.Hour

// ParseRelativeTime turns tokens such as "20h", "1w •" or
// "3mo Visible to everyone" into now minus the described duration.
// Months count as 30 days and years as 365.
func ParseRelativeTime(token string, now time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(token))
	s = strings.ReplaceAll(s, "•", "")
	s = strings.Join(strings.Fields(s), "")
	s = strings.ReplaceAll(s, "visibletoeveryone", "")

	m := relativeTimePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	var unit time.Duration
	switch m[2] {
	case "h", "hr", "hrs", "hour", "hours":
		unit = time.Hour
	case "d", "day", "days":
		unit = day
	case "w", "wk", "week", "weeks":
		unit = 7 * day
	case "m", "mo", "month", "months":
		unit = 30 * day
	case "y", "yr", "year", "years":
		unit = 365 * day
	default:
		return time.Time{}, false
	}

	if int64(n) > math.MaxInt64/int64(unit) {
		return time.Time{}, false
	}

	return now.Add(-time.Duration(n) * unit), true
}
