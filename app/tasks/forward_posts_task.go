package tasks

import (
	"context"
	"fmt"

	"github.com/lysyi3m/post-comb/app/post"
)

type ForwardPostsTask struct {
	Task
	posts     []post.Post
	forwarder Forwarder
}

func NewForwardPostsTask(watchlist string, posts []post.Post, forwarder Forwarder) *ForwardPostsTask {
	return &ForwardPostsTask{
		Task:      NewTask(TaskTypeForwardPosts, watchlist, DefaultMaxRetries),
		posts:     posts,
		forwarder: forwarder,
	}
}

func (t *ForwardPostsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.forwarder.Forward(ctx, t.Watchlist, t.posts); err != nil {
		return fmt.Errorf("failed to forward %d posts: %w", len(t.posts), err)
	}
	return nil
}
