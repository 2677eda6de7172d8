package database

import (
	"context"

	"github.com/lysyi3m/post-comb/app/post"
)

// PostRepository is the Post Store: posts unique by id, read back newest
// first by effective date with ties in insertion order.
type PostRepository interface {
	// Append stores posts whose ids are not yet present and returns how
	// many were added.
	Append(ctx context.Context, posts []post.Post) (int, error)
	List(ctx context.Context) ([]post.Post, error)
	IDs(ctx context.Context) (map[string]struct{}, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
