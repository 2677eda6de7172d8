package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lysyi3m/post-comb/app/database"
	"github.com/lysyi3m/post-comb/app/post"
	"github.com/lysyi3m/post-comb/app/provider"
	"github.com/lysyi3m/post-comb/app/record"
)

type Options struct {
	SearchLimit  int
	SeenCapacity int
	Concurrency  int

	JobTemplateHeuristic bool
	ExcludeTitleOnly     bool
}

func (o Options) withDefaults() Options {
	if o.SearchLimit <= 0 {
		o.SearchLimit = 50
	}
	if o.SeenCapacity <= 0 {
		o.SeenCapacity = 100000
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// Engine owns the Post Store and poll state of one provider session.
type Engine struct {
	search   provider.SearchProvider
	profiles provider.ProfileProvider
	session  provider.Session
	store    database.PostRepository

	assembler *post.Assembler
	postsOnly post.PostsOnlyFilter
	now       func() time.Time
	opts      Options

	mu       sync.RWMutex
	seen     *lru.Cache[string, struct{}]
	lastPoll *time.Time
	onClear  []func()
}

// NewEngine wires the engine. Profile lookups are enabled when search
// also implements provider.ProfileProvider.
func NewEngine(search provider.SearchProvider, session provider.Session, store database.PostRepository, opts Options, now func() time.Time) (*Engine, error) {
	opts = opts.withDefaults()
	if now == nil {
		now = time.Now
	}

	seen, err := lru.New[string, struct{}](opts.SeenCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create seen id cache: %w", err)
	}

	e := &Engine{
		search:    search,
		session:   session,
		store:     store,
		assembler: post.NewAssembler(post.Options{JobTemplateHeuristic: opts.JobTemplateHeuristic}, now),
		postsOnly: post.PostsOnlyFilter{ExcludeTitleOnly: opts.ExcludeTitleOnly},
		now:       now,
		opts:      opts,
		seen:      seen,
	}
	if profiles, ok := search.(provider.ProfileProvider); ok {
		e.profiles = profiles
	}

	return e, nil
}

func (e *Engine) IsAuthenticated() bool {
	return e.session.IsAuthenticated()
}

func (e *Engine) Login(ctx context.Context, creds provider.Credentials) (provider.Account, error) {
	return e.session.Login(ctx, creds)
}

func (e *Engine) Logout() {
	e.session.Logout()
}

// OnClear registers fn to run after every Clear.
func (e *Engine) OnClear(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onClear = append(e.onClear, fn)
}

// Search runs a one-off keyword search. It leaves the store untouched.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if !e.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	keywords := nonBlank(req.Keywords)
	if len(keywords) == 0 {
		return nil, ErrMissingKeywords
	}

	batches, err := e.fetch(ctx, keywords, nil, 0, req.TimeRange.Days())
	if err != nil {
		return nil, err
	}
	if err := sessionFailure(batches); err != nil {
		return nil, err
	}

	result := &SearchResult{Posts: []post.Post{}, RawResults: []record.Record{}}
	seen := make(map[string]struct{})
	for _, b := range batches {
		if b.err != nil {
			result.Warnings = append(result.Warnings, b.err.Error())
			continue
		}

		records := b.records
		if req.PostsOnly {
			records = e.postsOnly.Apply(records)
		}
		result.RawResults = append(result.RawResults, records...)

		for _, rec := range records {
			p, ok := e.assembler.Assemble(rec, keywords, b.author)
			if !ok {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			result.Posts = append(result.Posts, p)
		}
	}

	post.SortNewestFirst(result.Posts)

	slog.Info("Search completed", "keywords", len(keywords), "raw", len(result.RawResults), "posts", len(result.Posts))
	return result, nil
}

// Poll performs one incremental pass and merges unseen posts into the
// store. The whole pass holds the write lock.
func (e *Engine) Poll(ctx context.Context, req PollRequest) (*PollResult, error) {
	if !e.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	keywords := nonBlank(req.Keywords)
	if len(keywords) == 0 {
		return nil, ErrMissingKeywords
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stored, err := e.store.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored ids: %w", err)
	}
	excluded := func(id string) bool {
		if _, ok := stored[id]; ok {
			return true
		}
		return e.seen.Contains(id)
	}

	batches, err := e.fetch(ctx, keywords, nonBlank(req.People), req.Offset, req.TimeRange.Days())
	if err != nil {
		return nil, err
	}
	if err := sessionFailure(batches); err != nil {
		return nil, err
	}

	result := &PollResult{NewPosts: []post.Post{}, AllChecked: []record.Record{}}
	var candidates []post.Post
	inPoll := make(map[string]struct{})

	for _, b := range batches {
		if b.err != nil {
			var perr *ProviderError
			if errors.As(b.err, &perr) {
				slog.Warn("Provider call failed, skipping", "source", perr.Source, "query", perr.Query, "error", perr.Err)
			}
			result.Warnings = append(result.Warnings, b.err.Error())
			continue
		}

		result.AllChecked = append(result.AllChecked, b.records...)
		for _, rec := range b.records {
			p, ok := e.assembler.Assemble(rec, keywords, b.author)
			if !ok || excluded(p.ID) {
				continue
			}
			if _, dup := inPoll[p.ID]; dup {
				continue
			}
			inPoll[p.ID] = struct{}{}
			candidates = append(candidates, p)
		}
	}

	for _, p := range candidates {
		if _, ok := stored[p.ID]; ok {
			result.DuplicatesSkipped++
			continue
		}
		result.NewPosts = append(result.NewPosts, p)
	}

	if len(result.NewPosts) > 0 {
		if _, err := e.store.Append(ctx, result.NewPosts); err != nil {
			return nil, fmt.Errorf("failed to store posts: %w", err)
		}
	}

	for _, p := range candidates {
		e.seen.Add(p.ID, struct{}{})
	}

	if len(result.NewPosts) > 0 {
		now := e.now()
		e.lastPoll = &now
	}

	total, err := e.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	post.SortNewestFirst(result.NewPosts)
	result.Count = len(result.NewPosts)
	result.TotalStored = total
	result.LastPollTimestamp = e.lastPollTimestamp()

	slog.Info("Poll completed",
		"keywords", len(keywords),
		"people", len(req.People),
		"offset", req.Offset,
		"checked", len(result.AllChecked),
		"new", result.Count,
		"total", total)

	return result, nil
}

// ListStored returns every stored post, newest first.
func (e *Engine) ListStored(ctx context.Context) ([]post.Post, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.List(ctx)
}

// LastPollTimestamp is the time of the last poll that stored new posts.
func (e *Engine) LastPollTimestamp() *string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastPollTimestamp()
}

func (e *Engine) lastPollTimestamp() *string {
	if e.lastPoll == nil {
		return nil
	}
	s := post.FormatTimestamp(*e.lastPoll)
	return &s
}

// Clear empties the store and forgets every seen id.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	if err := e.store.Clear(ctx); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to clear posts: %w", err)
	}
	e.seen.Purge()
	e.lastPoll = nil
	hooks := append([]func(){}, e.onClear...)
	e.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	slog.Info("Stored posts cleared")
	return nil
}
