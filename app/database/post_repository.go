package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lysyi3m/post-comb/app/post"
)

// SQLitePostRepository handles database operations for posts
type SQLitePostRepository struct {
	db *DB
}

// NewPostRepository creates a new SQLite backed post repository
func NewPostRepository(db *DB) *SQLitePostRepository {
	return &SQLitePostRepository{db: db}
}

// Append inserts posts, skipping ids already stored
func (r *SQLitePostRepository) Append(ctx context.Context, posts []post.Post) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (id, effective_at, data)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, p := range posts {
		data, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("failed to encode post %s: %w", p.ID, err)
		}

		res, err := stmt.ExecContext(ctx, p.ID, post.FormatTimestamp(post.EffectiveDate(p)), string(data))
		if err != nil {
			return 0, fmt.Errorf("failed to store post %s: %w", p.ID, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit posts: %w", err)
	}

	return added, nil
}

// List returns all posts, newest first
func (r *SQLitePostRepository) List(ctx context.Context) ([]post.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM posts
		ORDER BY effective_at DESC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []post.Post{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		var p post.Post
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to decode post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

func (r *SQLitePostRepository) IDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query post ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan post id: %w", err)
		}
		ids[id] = struct{}{}
	}

	return ids, rows.Err()
}

func (r *SQLitePostRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

func (r *SQLitePostRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("failed to clear posts: %w", err)
	}
	return nil
}
