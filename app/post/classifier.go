package post

import (
	"log/slog"
	"strings"

	"github.com/lysyi3m/post-comb/app/record"
)

const universalTemplate = "UNIVERSAL"

type Kind int

const (
	KindOther Kind = iota
	KindPost
	KindJob
)

func (k Kind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindJob:
		return "job"
	default:
		return "other"
	}
}

// Classifier labels assembled records as posts or job postings.
type Classifier struct {
	// JobTemplateHeuristic also treats UNIVERSAL-template records that
	// carry a title as job postings.
	JobTemplateHeuristic bool
}

func (c Classifier) classify(e *extraction) Kind {
	job := strings.Contains(strings.ToLower(e.tracking), "job") ||
		(c.JobTemplateHeuristic && e.template() == universalTemplate && e.title() != "")

	switch {
	case job:
		if e.env.Wrapped() {
			slog.Debug("Record matches both job and update shape, treating as job", "urn", e.tracking)
		}
		return KindJob
	case e.env.Wrapped():
		return KindPost
	default:
		return KindOther
	}
}

// jobText is "title[ at company][ - location]", or "" without a title.
func (e *extraction) jobText() string {
	title := e.title()
	if title == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(title)
	if company := e.primarySubtitle(); company != "" {
		b.WriteString(" at ")
		b.WriteString(company)
	}
	if location := e.secondarySubtitle(); location != "" {
		b.WriteString(" - ")
		b.WriteString(location)
	}
	return b.String()
}

// PostsOnlyFilter drops records that are not member posts: job results,
// and results without any post content. It is applied to raw search
// results in the posts-only search mode and is independent of Classifier.
type PostsOnlyFilter struct {
	// ExcludeTitleOnly drops UNIVERSAL-template records that carry a
	// title but neither commentary nor summary.
	ExcludeTitleOnly bool
}

func (f PostsOnlyFilter) Apply(records []record.Record) []record.Record {
	kept := make([]record.Record, 0, len(records))
	for _, r := range records {
		if f.keep(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

func (f PostsOnlyFilter) keep(r record.Record) bool {
	env, ok := record.Classify(r)
	if !ok {
		return false
	}
	body := env.Body

	tracking := body.Str("trackingUrn")
	if env.Wrapped() {
		tracking = newExtraction(env).tracking
	}
	if strings.Contains(strings.ToLower(tracking), "job") {
		return false
	}

	hasCommentary := present(body, "commentary")
	hasSummary := present(body, "summary")

	if f.ExcludeTitleOnly && body.Str("template") == universalTemplate &&
		body.Text("title") != "" && !hasCommentary && !hasSummary {
		return false
	}

	if hasCommentary || hasSummary ||
		present(body, "text") || present(body, "description") || present(body, "content") {
		return true
	}

	actorNav := body.Map("actorNavigationContext")
	return present(actorNav, "summary") || present(actorNav, "commentary")
}

func present(r record.Record, key string) bool {
	return r.Get(key) != nil
}
