package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/post-comb/app/poll"
	"github.com/lysyi3m/post-comb/app/post"
	"github.com/lysyi3m/post-comb/app/watch"
)

// PollWatchlistTask runs one poll of a watchlist. It is not retried: the
// next scheduled poll picks up where this one failed.
type PollWatchlistTask struct {
	Task
	watchlist *watch.Watchlist
	poller    Poller
	tracker   *tracker
	forward   func([]post.Post)
	now       func() time.Time
}

func NewPollWatchlistTask(watchlist *watch.Watchlist, poller Poller, tracker *tracker,
	forward func([]post.Post), now func() time.Time) *PollWatchlistTask {
	if now == nil {
		now = time.Now
	}
	return &PollWatchlistTask{
		Task:      NewTask(TaskTypePollWatchlist, watchlist.Name, 0),
		watchlist: watchlist,
		poller:    poller,
		tracker:   tracker,
		forward:   forward,
		now:       now,
	}
}

func (t *PollWatchlistTask) Execute(ctx context.Context) (err error) {
	var result *poll.PollResult
	defer func() {
		checked, added := 0, 0
		if result != nil {
			checked, added = len(result.AllChecked), len(result.NewPosts)
		}
		t.tracker.finish(t.Watchlist, checked, added, err, t.now())
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.poller.IsAuthenticated() {
		slog.Debug("Not authenticated, skipping watchlist poll", "watchlist", t.Watchlist)
		return nil
	}

	req := poll.PollRequest{
		Keywords:  t.watchlist.Keywords,
		People:    t.watchlist.People,
		Offset:    t.tracker.offset(t.Watchlist),
		TimeRange: t.watchlist.TimeRange,
	}

	result, err = t.poller.Poll(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to poll watchlist: %w", err)
	}

	for _, w := range result.Warnings {
		slog.Warn("Watchlist poll warning", "watchlist", t.Watchlist, "warning", w)
	}

	slog.Info("Watchlist polled", "watchlist", t.Watchlist, "offset", req.Offset, "checked", len(result.AllChecked), "new", len(result.NewPosts), "total", result.TotalStored)

	if len(result.NewPosts) > 0 && t.forward != nil {
		t.forward(result.NewPosts)
	}

	return nil
}
