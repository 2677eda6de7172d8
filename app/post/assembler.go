package post

import (
	"cmp"
	"time"

	"github.com/lysyi3m/post-comb/app/record"
)

type Options struct {
	JobTemplateHeuristic bool
}

// Assembler turns raw provider records into Posts.
type Assembler struct {
	classifier Classifier
	now        func() time.Time
}

func NewAssembler(opts Options, now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{
		classifier: Classifier{JobTemplateHeuristic: opts.JobTemplateHeuristic},
		now:        now,
	}
}

// Assemble builds a Post from rec. It reports false when the record cannot
// be read or matches none of the keywords. A non-nil fallback fills author
// fields the record leaves empty.
func (a *Assembler) Assemble(rec record.Record, keywords []string, fallback *Author) (Post, bool) {
	env, ok := record.Classify(rec)
	if !ok {
		return Post{}, false
	}

	e := newExtraction(env)
	kind := a.classifier.classify(e)

	text := e.text()
	if kind == KindJob {
		text = cmp.Or(e.jobText(), text)
	}

	matched := MatchKeywords(keywords, text, e.serialized())
	if len(matched) == 0 {
		return Post{}, false
	}

	now := a.now()
	job := kind == KindJob
	author := e.author(job)
	if fallback != nil {
		author.Name = cmp.Or(author.Name, fallback.Name)
		author.URN = cmp.Or(author.URN, fallback.URN)
		author.ProfileURL = cmp.Or(author.ProfileURL, fallback.ProfileURL)
	}
	likes, comments, shares := e.engagement()
	companyName, companyURN := e.company(job)

	postType := e.postType()
	switch kind {
	case KindJob:
		postType = TypeJobPosting
	case KindPost:
		postType = TypePost
	}

	return Post{
		ID:               e.id(),
		URN:              e.tracking,
		Text:             text,
		TextPreview:      Preview(text),
		Keywords:         matched,
		ScrapedAt:        FormatTimestamp(now),
		AuthorName:       author.Name,
		AuthorURN:        author.URN,
		AuthorProfileURL: author.ProfileURL,
		CreatedAt:        e.createdAt(now, job),
		UpdatedAt:        e.updatedAt(),
		Likes:            likes,
		Comments:         comments,
		Shares:           shares,
		URL:              e.url(),
		PostType:         postType,
		Visibility:       e.visibility(),
		Language:         e.language(),
		EntityURN:        e.entityURN(),
		TrackingID:       e.trackingID(),
		Template:         e.template(),
		CompanyName:      companyName,
		CompanyURN:       companyURN,
		RelativeTime:     e.relativeTime(),
		Media:            e.media(),
	}, true
}
