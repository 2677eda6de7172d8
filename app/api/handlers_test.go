package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/post-comb/app/cfg"
	"github.com/lysyi3m/post-comb/app/database"
	"github.com/lysyi3m/post-comb/app/poll"
	"github.com/lysyi3m/post-comb/app/provider"
	"github.com/lysyi3m/post-comb/app/record"
	"github.com/lysyi3m/post-comb/app/tasks"
	"github.com/lysyi3m/post-comb/app/watch"
)

const testAPIKey = "secret"

type fakeProvider struct {
	mu            sync.Mutex
	authenticated bool
	results       map[string][]record.Record
}

func (f *fakeProvider) Search(ctx context.Context, q provider.SearchQuery) ([]record.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.authenticated {
		return nil, provider.ErrSessionRejected
	}
	return f.results[q.Keywords], nil
}

func (f *fakeProvider) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeProvider) Login(ctx context.Context, creds provider.Credentials) (provider.Account, error) {
	if creds.LiAt == "expired" {
		return provider.Account{}, provider.ErrSessionRejected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authenticated = true
	return provider.Account{Name: "Ada Lovelace", Username: "ada"}, nil
}

func (f *fakeProvider) Logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authenticated = false
}

type testServer struct {
	router    *gin.Engine
	provider  *fakeProvider
	scheduler *tasks.Scheduler
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if _, err := cfg.LoadArgs([]string{"--port", "8080"}); err != nil {
		t.Fatal(err)
	}

	fake := &fakeProvider{results: map[string][]record.Record{
		"rust": {
			{"trackingUrn": "urn:li:activity:1", "commentary": map[string]any{"text": "Learning rust"}, "createdAt": "2024-05-01T00:00:00Z"},
			{"trackingUrn": "urn:li:activity:2", "commentary": map[string]any{"text": "rust in production"}, "createdAt": "2024-05-02T00:00:00Z"},
		},
		"go": {
			{"trackingUrn": "urn:li:activity:3", "commentary": map[string]any{"text": "go generics"}, "createdAt": "2024-05-03T00:00:00Z"},
		},
	}}

	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	engine, err := poll.NewEngine(fake, fake, database.NewMemoryPostRepository(), poll.Options{}, now)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	content := "keywords: [rust]\nsettings:\n  enabled: true\n"
	if err := os.WriteFile(filepath.Join(dir, "rust.yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	configCache := watch.NewConfigCache(dir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	scheduler := tasks.NewScheduler(configCache, engine, nil, time.Hour, 1)
	t.Cleanup(scheduler.Stop)
	engine.OnClear(scheduler.ResetOffsets)

	handler := NewHandler(engine, configCache, scheduler)
	return &testServer{
		router:    NewServer(handler, testAPIKey),
		provider:  fake,
		scheduler: scheduler,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := decode(t, w)
	if body["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %v", body["status"])
	}
	if body["authenticated"] != false {
		t.Errorf("Expected unauthenticated, got %v", body["authenticated"])
	}
	if body["loaded_watchlists"] != float64(1) {
		t.Errorf("Expected 1 loaded watchlist, got %v", body["loaded_watchlists"])
	}
	if v, ok := body["last_poll"]; !ok || v != nil {
		t.Errorf("Expected null last_poll before any poll, got %v", v)
	}
}

func TestLogin(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/login", map[string]string{"email": "ada@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without li_at, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/login", map[string]string{"li_at": "expired"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for rejected session, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/login", map[string]string{"li_at": "cookie", "jsessionid": "ajax:1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decode(t, w)
	profile, _ := body["profile"].(map[string]any)
	if profile["username"] != "ada" {
		t.Errorf("Expected username 'ada', got %v", profile["username"])
	}

	w = s.do(t, http.MethodPost, "/logout", nil)
	if w.Code != http.StatusOK || s.provider.IsAuthenticated() {
		t.Errorf("Expected logout to end the session, got status %d", w.Code)
	}
}

func TestPollPostsRequiresLogin(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/poll_posts", map[string]any{"keywords": []string{"rust"}})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
	if body := decode(t, w); body["success"] != false {
		t.Errorf("Expected success false, got %v", body["success"])
	}
}

func TestPollPostsMissingKeywords(t *testing.T) {
	s := setupTestServer(t)
	s.provider.authenticated = true

	w := s.do(t, http.MethodPost, "/poll_posts", map[string]any{"keywords": []string{" "}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/poll_posts", "not an object")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid body, got %d", w.Code)
	}
}

func TestPollPostsAndStoredPosts(t *testing.T) {
	s := setupTestServer(t)
	s.provider.authenticated = true

	w := s.do(t, http.MethodPost, "/poll_posts", map[string]any{
		"keywords":  []string{"rust", "go"},
		"offset":    nil,
		"timeRange": map[string]any{"value": 2, "unit": "months"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	if body["success"] != true {
		t.Errorf("Expected success true, got %v", body["success"])
	}
	if body["count"] != float64(3) || body["total_scraped"] != float64(3) {
		t.Errorf("Expected 3 new and 3 total posts, got %v and %v", body["count"], body["total_scraped"])
	}
	if checked, _ := body["all_checked_posts"].([]any); len(checked) != 3 {
		t.Errorf("Expected 3 checked records, got %d", len(checked))
	}
	if body["last_poll_timestamp"] != "2024-06-01T12:00:00.000000Z" {
		t.Errorf("Unexpected last poll timestamp: %v", body["last_poll_timestamp"])
	}

	w = s.do(t, http.MethodPost, "/poll_posts", map[string]any{"keywords": []string{"rust"}})
	if body := decode(t, w); body["count"] != float64(0) {
		t.Errorf("Expected repeated poll to add nothing, got %v", body["count"])
	}

	w = s.do(t, http.MethodGet, "/health", nil)
	if body := decode(t, w); body["last_poll"] != "2024-06-01T12:00:00.000000Z" {
		t.Errorf("Expected health to report the last poll, got %v", body["last_poll"])
	}

	w = s.do(t, http.MethodGet, "/get_scraped_posts", nil)
	body = decode(t, w)
	posts, _ := body["posts"].([]any)
	if len(posts) != 3 {
		t.Fatalf("Expected 3 stored posts, got %d", len(posts))
	}
	first, _ := posts[0].(map[string]any)
	if first["id"] != "3" {
		t.Errorf("Expected newest post first, got %v", first["id"])
	}

	w = s.do(t, http.MethodPost, "/clear_posts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	w = s.do(t, http.MethodGet, "/get_scraped_posts", nil)
	if body := decode(t, w); body["count"] != float64(0) {
		t.Errorf("Expected empty store after clear, got %v", body["count"])
	}
}

func TestSearch(t *testing.T) {
	s := setupTestServer(t)
	s.provider.authenticated = true

	w := s.do(t, http.MethodPost, "/search", map[string]any{"keywords": []string{"rust"}, "postsOnly": true})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body := decode(t, w); body["count"] != float64(2) {
		t.Errorf("Expected 2 posts, got %v", body["count"])
	}

	w = s.do(t, http.MethodGet, "/get_scraped_posts", nil)
	if body := decode(t, w); body["count"] != float64(0) {
		t.Errorf("Expected search to leave the store empty, got %v", body["count"])
	}
}

func TestFeeds(t *testing.T) {
	s := setupTestServer(t)
	s.provider.authenticated = true
	s.do(t, http.MethodPost, "/poll_posts", map[string]any{"keywords": []string{"rust", "go"}})

	w := s.do(t, http.MethodGet, "/feed.xml", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/xml") {
		t.Errorf("Unexpected content type: %s", w.Header().Get("Content-Type"))
	}
	if w.Header().Get("X-Feed-Items") != "3" {
		t.Errorf("Expected 3 feed items, got %s", w.Header().Get("X-Feed-Items"))
	}

	w = s.do(t, http.MethodGet, "/feeds/rust", nil)
	if w.Header().Get("X-Feed-Items") != "2" {
		t.Errorf("Expected 2 watchlist feed items, got %s", w.Header().Get("X-Feed-Items"))
	}
	if strings.Contains(w.Body.String(), "go generics") {
		t.Error("Watchlist feed should only contain matching posts")
	}

	w = s.do(t, http.MethodGet, "/feeds/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestWatchlistAPIRequiresKey(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/api/watchlists", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/watchlists", nil, "X-API-Key", "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/watchlists", nil, "Authorization", "Bearer "+testAPIKey)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body := decode(t, w); body["total"] != float64(1) {
		t.Errorf("Expected 1 watchlist, got %v", body["total"])
	}
}

func TestWatchlistTrigger(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/api/watchlists/rust/poll", nil, "X-API-Key", testAPIKey)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/watchlists/rust/poll", nil, "X-API-Key", testAPIKey)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 while in flight, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/watchlists/missing/poll", nil, "X-API-Key", testAPIKey)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodOptions, "/poll_posts", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}
