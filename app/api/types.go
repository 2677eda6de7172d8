package api

import (
	"context"

	"github.com/lysyi3m/post-comb/app/feed"
	"github.com/lysyi3m/post-comb/app/poll"
	"github.com/lysyi3m/post-comb/app/post"
	"github.com/lysyi3m/post-comb/app/provider"
	"github.com/lysyi3m/post-comb/app/tasks"
	"github.com/lysyi3m/post-comb/app/watch"
)

type GeneratorInterface interface {
	Run(channel feed.Channel, posts []post.Post) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// EngineInterface is the part of the poll engine served over HTTP.
type EngineInterface interface {
	IsAuthenticated() bool
	Login(ctx context.Context, creds provider.Credentials) (provider.Account, error)
	Logout()
	Search(ctx context.Context, req poll.SearchRequest) (*poll.SearchResult, error)
	Poll(ctx context.Context, req poll.PollRequest) (*poll.PollResult, error)
	ListStored(ctx context.Context) ([]post.Post, error)
	LastPollTimestamp() *string
	Clear(ctx context.Context) error
}

var _ EngineInterface = (*poll.Engine)(nil)

type Handler struct {
	engine      EngineInterface
	generator   GeneratorInterface
	configCache *watch.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
}

type searchRequest struct {
	Keywords  []string        `json:"keywords"`
	TimeRange *poll.TimeRange `json:"timeRange"`
	PostsOnly bool            `json:"postsOnly"`
}

type pollRequest struct {
	Keywords  []string        `json:"keywords"`
	People    []string        `json:"people"`
	Offset    *int            `json:"offset"`
	TimeRange *poll.TimeRange `json:"timeRange"`
}
