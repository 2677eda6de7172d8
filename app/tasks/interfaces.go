package tasks

import (
	"context"

	"github.com/lysyi3m/post-comb/app/poll"
	"github.com/lysyi3m/post-comb/app/post"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to manage background watchlist polling.
// Example usage:
//
//	scheduler := NewScheduler(configCache, engine, webhook, interval, workers)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.Trigger("rust")
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	Trigger(watchlist string) error
	ResetOffsets()
	Status() []WatchlistStatus
}

// Poller is the part of the poll engine used by watchlist tasks.
type Poller interface {
	IsAuthenticated() bool
	Poll(ctx context.Context, req poll.PollRequest) (*poll.PollResult, error)
}

// Forwarder delivers newly found posts elsewhere.
type Forwarder interface {
	Forward(ctx context.Context, watchlist string, posts []post.Post) error
}
