package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/lysyi3m/post-comb/app/record"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrMissingCookie    = errors.New("li_at session cookie is required")
	ErrSessionRejected  = errors.New("session rejected by provider")
	ErrProfileNotFound  = errors.New("profile not found")
)

// Filters narrows a search. The zero value searches everything.
type Filters struct {
	ContentOnly bool
	// DaysBack limits results to a recent window; 0 disables the window.
	DaysBack int
}

type SearchQuery struct {
	Keywords string
	Filters  Filters
	Limit    int
	Offset   int
}

type ProfileQuery struct {
	Filters Filters
	Limit   int
	Offset  int
}

// Identity is a resolved author.
type Identity struct {
	Name       string
	URN        string
	ProfileURL string
	PublicID   string
}

type Credentials struct {
	Email      string `json:"email"`
	LiAt       string `json:"li_at"`
	JSessionID string `json:"jsessionid"`
}

type Account struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

type SearchProvider interface {
	Search(ctx context.Context, q SearchQuery) ([]record.Record, error)
}

// ProfileProvider is an optional capability of a provider.
type ProfileProvider interface {
	ResolveIdentity(ctx context.Context, person string) (Identity, error)
	ProfilePosts(ctx context.Context, who Identity, q ProfileQuery) ([]record.Record, error)
}

type Session interface {
	IsAuthenticated() bool
	Login(ctx context.Context, creds Credentials) (Account, error)
	Logout()
}

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d for %s", e.StatusCode, e.URL)
}
