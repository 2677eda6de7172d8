package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/post-comb/app/post"
	"github.com/lysyi3m/post-comb/app/watch"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

var ErrPollInFlight = errors.New("watchlist poll already in progress")

type Scheduler struct {
	configCache *watch.ConfigCache
	poller      Poller
	forwarder   Forwarder
	tracker     *tracker
	interval    time.Duration
	workerCount int
	now         func() time.Time
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

// NewScheduler builds a scheduler polling every enabled watchlist of
// configCache. forwarder may be nil, in which case forwarding is skipped.
func NewScheduler(configCache *watch.ConfigCache, poller Poller, forwarder Forwarder,
	interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount < 1 {
		workerCount = 1
	}

	return &Scheduler{
		configCache: configCache,
		poller:      poller,
		forwarder:   forwarder,
		tracker:     newTracker(),
		interval:    interval,
		workerCount: workerCount,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// Trigger enqueues an immediate poll of the named watchlist, enabled or not.
func (s *Scheduler) Trigger(name string) error {
	watchlist, err := s.configCache.GetConfig(name)
	if err != nil {
		return err
	}
	if !s.tracker.begin(name) {
		return ErrPollInFlight
	}
	return s.enqueuePoll(watchlist)
}

// ResetOffsets starts every watchlist over from the first page. It is
// registered as a clear hook of the poll engine.
func (s *Scheduler) ResetOffsets() {
	s.tracker.resetOffsets()
}

func (s *Scheduler) Status() []WatchlistStatus {
	watchlists := s.configCache.GetConfigs()
	statuses := make([]WatchlistStatus, 0, len(watchlists))
	for _, w := range watchlists {
		status := s.tracker.status(w.Name)
		status.Enabled = w.Settings.Enabled
		status.Keywords = w.Keywords
		statuses = append(statuses, status)
	}
	return statuses
}

func (s *Scheduler) enqueueTasks() {
	watchlists := s.configCache.GetEnabledConfigs()
	if len(watchlists) == 0 {
		slog.Debug("No enabled watchlists found")
		return
	}

	slog.Debug("Processing enabled watchlists for task scheduling", "count", len(watchlists))

	now := s.now()
	for _, watchlist := range watchlists {
		if !s.tracker.due(watchlist.Name, now) {
			slog.Debug("Watchlist not due for polling yet", "watchlist", watchlist.Name)
			continue
		}
		if !s.tracker.begin(watchlist.Name) {
			slog.Debug("Previous poll still running, skipping", "watchlist", watchlist.Name)
			continue
		}

		if err := s.enqueuePoll(watchlist); err != nil {
			slog.Warn("Failed to enqueue PollWatchlistTask", "watchlist", watchlist.Name, "error", err)
			continue
		}
		s.tracker.schedule(watchlist.Name, now.Add(time.Duration(watchlist.Settings.PollInterval)*time.Second))
	}
}

// enqueuePoll expects the caller to have marked the watchlist in flight.
func (s *Scheduler) enqueuePoll(watchlist *watch.Watchlist) error {
	task := NewPollWatchlistTask(watchlist, s.poller, s.tracker, s.forwardFunc(watchlist), s.now)
	if err := s.EnqueueTask(task); err != nil {
		s.tracker.abort(watchlist.Name)
		return err
	}
	return nil
}

func (s *Scheduler) forwardFunc(watchlist *watch.Watchlist) func([]post.Post) {
	if s.forwarder == nil || !watchlist.Settings.Forward {
		return nil
	}
	return func(posts []post.Post) {
		task := NewForwardPostsTask(watchlist.Name, posts, s.forwarder)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ForwardPostsTask", "watchlist", watchlist.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		slog.Debug("Task completed", "worker_id", workerID, "type", string(task.GetType()), "watchlist", task.GetWatchlist(), "duration", task.GetDuration().String())
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "watchlist", task.GetWatchlist(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		case <-time.After(retryDelay):
		}
		if retryErr := s.EnqueueTask(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
		}
	}()
}
