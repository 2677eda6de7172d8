package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lysyi3m/post-comb/app/post"
)

func repositories(t *testing.T) map[string]PostRepository {
	t.Helper()

	memDB, err := Open(MemoryDSN)
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { memDB.Close() })

	fileDB, err := Open(filepath.Join(t.TempDir(), "posts.db"))
	if err != nil {
		t.Fatalf("Failed to open file database: %v", err)
	}
	t.Cleanup(func() { fileDB.Close() })

	return map[string]PostRepository{
		"memory":        NewMemoryPostRepository(),
		"sqlite-memory": NewPostRepository(memDB),
		"sqlite-file":   NewPostRepository(fileDB),
	}
}

func TestPostRepository_AppendSkipsKnownIDs(t *testing.T) {
	ctx := context.Background()

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			added, err := repo.Append(ctx, []post.Post{
				{ID: "1", Text: "first", CreatedAt: "2024-01-01T00:00:00.000000Z"},
				{ID: "2", Text: "second", CreatedAt: "2024-01-02T00:00:00.000000Z"},
			})
			if err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			if added != 2 {
				t.Errorf("Expected 2 added, got %d", added)
			}

			added, err = repo.Append(ctx, []post.Post{
				{ID: "2", Text: "replacement"},
				{ID: "3", Text: "third", CreatedAt: "2024-01-03T00:00:00.000000Z"},
			})
			if err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			if added != 1 {
				t.Errorf("Expected 1 added, got %d", added)
			}

			posts, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(posts) != 3 {
				t.Fatalf("Expected 3 posts, got %d", len(posts))
			}
			for _, p := range posts {
				if p.ID == "2" && p.Text != "second" {
					t.Errorf("Expected stored post to be kept, got %q", p.Text)
				}
			}

			ids, err := repo.IDs(ctx)
			if err != nil {
				t.Fatalf("IDs failed: %v", err)
			}
			for _, id := range []string{"1", "2", "3"} {
				if _, ok := ids[id]; !ok {
					t.Errorf("Expected id %s in id set", id)
				}
			}
		})
	}
}

func TestPostRepository_ListOrder(t *testing.T) {
	ctx := context.Background()

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Append(ctx, []post.Post{
				{ID: "undated-a", CreatedAt: "garbage"},
				{ID: "old", CreatedAt: "2023-05-01T10:00:00.000000Z"},
				{ID: "tie-a", CreatedAt: "2024-02-01T00:00:00.000000Z"},
				{ID: "tie-b", CreatedAt: "2024-02-01T00:00:00Z"},
			})
			if err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			_, err = repo.Append(ctx, []post.Post{
				{ID: "newest", ScrapedAt: "2024-09-01T00:00:00.000000Z"},
				{ID: "undated-b"},
			})
			if err != nil {
				t.Fatalf("Append failed: %v", err)
			}

			posts, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}

			want := []string{"newest", "tie-a", "tie-b", "old", "undated-a", "undated-b"}
			if len(posts) != len(want) {
				t.Fatalf("Expected %d posts, got %d", len(want), len(posts))
			}
			for i, id := range want {
				if posts[i].ID != id {
					t.Errorf("Expected %s at position %d, got %s", id, i, posts[i].ID)
				}
			}
		})
	}
}

func TestPostRepository_Clear(t *testing.T) {
	ctx := context.Background()

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := repo.Append(ctx, []post.Post{{ID: "1"}, {ID: "2"}}); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			if err := repo.Clear(ctx); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}

			count, err := repo.Count(ctx)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != 0 {
				t.Errorf("Expected empty store, got %d posts", count)
			}

			posts, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if posts == nil || len(posts) != 0 {
				t.Errorf("Expected empty non-nil list, got %v", posts)
			}

			added, _ := repo.Append(ctx, []post.Post{{ID: "1"}})
			if added != 1 {
				t.Errorf("Expected cleared id to be accepted again, got %d added", added)
			}
		})
	}
}

func TestPostRepository_RoundTripsFields(t *testing.T) {
	db, err := Open(MemoryDSN)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := NewPostRepository(db)
	in := post.Post{
		ID:       "42",
		Keywords: []string{"go", "sqlite"},
		Likes:    7,
		Media:    []any{map[string]any{"url": "a"}},
	}
	if _, err := repo.Append(context.Background(), []post.Post{in}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	posts, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	got := posts[0]
	if got.Likes != 7 || len(got.Keywords) != 2 || len(got.Media) != 1 {
		t.Errorf("Unexpected round trip result: %+v", got)
	}
}
