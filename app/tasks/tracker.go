package tasks

import (
	"sync"
	"time"
)

// PageSize is how far the offset advances after a poll that returned results.
const PageSize = 50

type WatchlistStatus struct {
	Name       string     `json:"name"`
	Enabled    bool       `json:"enabled"`
	Keywords   []string   `json:"keywords"`
	Offset     int        `json:"offset"`
	InFlight   bool       `json:"inFlight"`
	LastPollAt *time.Time `json:"lastPollAt,omitempty"`
	NextPollAt *time.Time `json:"nextPollAt,omitempty"`
	LastNew    int        `json:"lastNew"`
	LastError  string     `json:"lastError,omitempty"`
}

type watchState struct {
	offset     int
	inFlight   bool
	lastPollAt *time.Time
	nextPollAt time.Time
	lastNew    int
	lastError  string
}

// tracker holds the client-side bookkeeping of every watchlist: its
// pagination offset and whether a poll is running.
type tracker struct {
	mu     sync.Mutex
	states map[string]*watchState
}

func newTracker() *tracker {
	return &tracker{states: make(map[string]*watchState)}
}

func (t *tracker) state(name string) *watchState {
	s, ok := t.states[name]
	if !ok {
		s = &watchState{}
		t.states[name] = s
	}
	return s
}

// begin marks a poll as running unless one already is.
func (t *tracker) begin(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state(name)
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

// due reports whether name should be polled at now.
func (t *tracker) due(name string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !now.Before(t.state(name).nextPollAt)
}

func (t *tracker) schedule(name string, next time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state(name).nextPollAt = next
}

func (t *tracker) offset(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state(name).offset
}

// finish records a completed poll. The offset advances by a page when the
// provider returned anything and starts over otherwise.
func (t *tracker) finish(name string, checked, added int, err error, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state(name)
	s.inFlight = false
	if err != nil {
		s.lastError = err.Error()
		return
	}

	if checked > 0 {
		s.offset += PageSize
	} else {
		s.offset = 0
	}
	s.lastError = ""
	s.lastNew = added
	s.lastPollAt = &at
}

func (t *tracker) abort(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state(name).inFlight = false
}

func (t *tracker) resetOffsets() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.states {
		s.offset = 0
	}
}

func (t *tracker) status(name string) WatchlistStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state(name)
	status := WatchlistStatus{
		Name:       name,
		Offset:     s.offset,
		InFlight:   s.inFlight,
		LastPollAt: s.lastPollAt,
		LastNew:    s.lastNew,
		LastError:  s.lastError,
	}
	if !s.nextPollAt.IsZero() {
		next := s.nextPollAt
		status.NextPollAt = &next
	}
	return status
}
