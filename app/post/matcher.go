package post

import (
	"strings"

	"golang.org/x/text/cases"
)

// MatchKeywords returns the keywords, in the given order, whose case-folded
// form occurs in text or in the serialized record. Blank keywords never match.
func MatchKeywords(keywords []string, text, serialized string) []string {
	fold := cases.Fold()
	text = fold.String(text)
	serialized = fold.String(serialized)

	var matched []string
	for _, kw := range keywords {
		k := fold.String(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(text, k) || strings.Contains(serialized, k) {
			matched = append(matched, kw)
		}
	}
	return matched
}
