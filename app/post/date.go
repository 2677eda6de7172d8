package post

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"time"
)

// TimestampLayout is how every timestamp produced here is rendered (UTC).
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

var (
	zoneSuffix = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)

	dateLayouts = []string{
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// EffectiveDate is the sort key of a post: createdAt, falling back to
// scrapedAt. Unparsable or missing dates resolve to the zero time, which
// sorts after everything else in newest-first order.
func EffectiveDate(p Post) time.Time {
	return ParseTimestamp(cmp.Or(p.CreatedAt, p.ScrapedAt))
}

// ParseTimestamp reads ISO-like date strings. Zone designators are dropped
// and the remainder is read as UTC.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	s = strings.Replace(s, "T", " ", 1)
	if strings.Contains(s, " ") {
		s = zoneSuffix.ReplaceAllString(s, "")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// After orders posts newest first by effective date.
func After(a, b Post) bool {
	return EffectiveDate(a).After(EffectiveDate(b))
}

// SortNewestFirst sorts posts in place by effective date, newest first.
// Posts with equal dates keep their relative order.
func SortNewestFirst(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		return EffectiveDate(b).Compare(EffectiveDate(a))
	})
}
