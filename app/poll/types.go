package poll

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lysyi3m/post-comb/app/post"
	"github.com/lysyi3m/post-comb/app/provider"
	"github.com/lysyi3m/post-comb/app/record"
)

const defaultDays = 30

var (
	ErrNotAuthenticated = provider.ErrNotAuthenticated
	ErrMissingKeywords  = errors.New("keywords are required")
)

// ProviderError reports a keyword or profile whose provider calls all failed.
// It never aborts a poll.
type ProviderError struct {
	Source string
	Query  string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Source, e.Query, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// TimeRange is a search window such as {3, "months"}.
type TimeRange struct {
	Value int    `json:"value" yaml:"value"`
	Unit  string `json:"unit" yaml:"unit"`
}

// Days converts the range to days, with months as 30 and years as 365
// days. Missing ranges default to 30 days.
func (r *TimeRange) Days() int {
	if r == nil || r.Value <= 0 {
		return defaultDays
	}
	switch strings.ToLower(strings.TrimSpace(r.Unit)) {
	case "months", "month":
		return r.Value * 30
	case "years", "year":
		return r.Value * 365
	default:
		return r.Value
	}
}

type SearchRequest struct {
	Keywords  []string
	TimeRange *TimeRange
	PostsOnly bool
}

type SearchResult struct {
	Posts      []post.Post
	RawResults []record.Record
	Warnings   []string
}

type PollRequest struct {
	Keywords  []string
	People    []string
	Offset    int
	TimeRange *TimeRange
}

type PollResult struct {
	NewPosts          []post.Post
	AllChecked        []record.Record
	Count             int
	TotalStored       int
	DuplicatesSkipped int
	LastPollTimestamp *string
	Warnings          []string
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
