package database

import (
	"context"
	"slices"

	"github.com/lysyi3m/post-comb/app/post"
)

// MemoryPostRepository keeps posts in a slice that is re-sorted on every append.
type MemoryPostRepository struct {
	posts []post.Post
	ids   map[string]struct{}
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{ids: make(map[string]struct{})}
}

func (r *MemoryPostRepository) Append(_ context.Context, posts []post.Post) (int, error) {
	added := 0
	for _, p := range posts {
		if _, ok := r.ids[p.ID]; ok {
			continue
		}
		r.ids[p.ID] = struct{}{}
		r.posts = append(r.posts, p)
		added++
	}
	if added > 0 {
		post.SortNewestFirst(r.posts)
	}
	return added, nil
}

func (r *MemoryPostRepository) List(_ context.Context) ([]post.Post, error) {
	if r.posts == nil {
		return []post.Post{}, nil
	}
	return slices.Clone(r.posts), nil
}

func (r *MemoryPostRepository) IDs(_ context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{}, len(r.ids))
	for id := range r.ids {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (r *MemoryPostRepository) Count(_ context.Context) (int, error) {
	return len(r.posts), nil
}

func (r *MemoryPostRepository) Clear(_ context.Context) error {
	r.posts = nil
	r.ids = make(map[string]struct{})
	return nil
}
