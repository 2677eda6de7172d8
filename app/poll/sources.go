package poll

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/post-comb/app/post"
	"github.com/lysyi3m/post-comb/app/provider"
	"github.com/lysyi3m/post-comb/app/record"
)

// batch is the outcome of one keyword or profile source.
type batch struct {
	records []record.Record
	author  *post.Author
	err     error
}

// filterChain lists the search variants tried in order: time window,
// content type only, then unfiltered.
func filterChain(days int) []provider.Filters {
	return []provider.Filters{
		{ContentOnly: true, DaysBack: days},
		{ContentOnly: true},
		{},
	}
}

// fetch queries every keyword and person concurrently. Results keep the
// order of the inputs, keywords first.
func (e *Engine) fetch(ctx context.Context, keywords, people []string, offset, days int) ([]batch, error) {
	if len(people) > 0 && e.profiles == nil {
		slog.Warn("Provider does not support profile lookups, ignoring people", "people", len(people))
		people = nil
	}

	batches := make([]batch, len(keywords)+len(people))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i, kw := range keywords {
		g.Go(func() error {
			records, err := e.searchKeyword(gctx, kw, offset, days)
			batches[i] = batch{records: records, err: err}
			return nil
		})
	}
	for j, person := range people {
		g.Go(func() error {
			records, author, err := e.searchProfile(gctx, person, offset, days)
			batches[len(keywords)+j] = batch{records: records, author: author, err: err}
			return nil
		})
	}

	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return batches, nil
}

func (e *Engine) searchKeyword(ctx context.Context, keyword string, offset, days int) ([]record.Record, error) {
	var lastErr error
	for _, filters := range filterChain(days) {
		records, err := e.search.Search(ctx, provider.SearchQuery{
			Keywords: keyword,
			Filters:  filters,
			Limit:    e.opts.SearchLimit,
			Offset:   offset,
		})
		if err == nil {
			slog.Debug("Keyword searched", "keyword", keyword, "results", len(records), "content_only", filters.ContentOnly, "days", filters.DaysBack)
			return records, nil
		}
		if stop(ctx, err) {
			return nil, &ProviderError{Source: "keyword", Query: keyword, Err: err}
		}

		slog.Warn("Search variant failed, loosening filters", "keyword", keyword, "content_only", filters.ContentOnly, "days", filters.DaysBack, "error", err)
		lastErr = err
	}

	return nil, &ProviderError{Source: "keyword", Query: keyword, Err: lastErr}
}

func (e *Engine) searchProfile(ctx context.Context, person string, offset, days int) ([]record.Record, *post.Author, error) {
	identity, err := e.profiles.ResolveIdentity(ctx, person)
	if err != nil {
		if sessionLost(ctx, err) {
			return nil, nil, &ProviderError{Source: "profile", Query: person, Err: err}
		}
		slog.Warn("Failed to resolve profile, using derived name", "person", person, "error", err)
		identity = provider.DeriveIdentity(person)
	}

	author := &post.Author{Name: identity.Name, URN: identity.URN, ProfileURL: identity.ProfileURL}

	var lastErr error
	for _, filters := range filterChain(days) {
		records, err := e.profiles.ProfilePosts(ctx, identity, provider.ProfileQuery{
			Filters: filters,
			Limit:   e.opts.SearchLimit,
			Offset:  offset,
		})
		if err == nil {
			slog.Debug("Profile searched", "person", person, "results", len(records))
			return records, author, nil
		}
		if stop(ctx, err) {
			return nil, author, &ProviderError{Source: "profile", Query: person, Err: err}
		}

		slog.Warn("Profile variant failed, loosening filters", "person", person, "content_only", filters.ContentOnly, "days", filters.DaysBack, "error", err)
		lastErr = err
	}

	return nil, author, &ProviderError{Source: "profile", Query: person, Err: lastErr}
}

// stop reports errors that no looser filter can fix.
func stop(ctx context.Context, err error) bool {
	return sessionLost(ctx, err) || errors.Is(err, provider.ErrProfileNotFound)
}

func sessionLost(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, provider.ErrNotAuthenticated) ||
		errors.Is(err, provider.ErrSessionRejected)
}

// sessionFailure returns the session error when no source could be
// queried at all.
func sessionFailure(batches []batch) error {
	if len(batches) == 0 {
		return nil
	}
	for _, b := range batches {
		if b.err == nil || !(errors.Is(b.err, provider.ErrNotAuthenticated) || errors.Is(b.err, provider.ErrSessionRejected)) {
			return nil
		}
	}
	return batches[0].err
}
