package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/post-comb/app/cfg"
	"github.com/lysyi3m/post-comb/app/feed"
	"github.com/lysyi3m/post-comb/app/poll"
	"github.com/lysyi3m/post-comb/app/post"
	"github.com/lysyi3m/post-comb/app/provider"
	"github.com/lysyi3m/post-comb/app/tasks"
	"github.com/lysyi3m/post-comb/app/watch"
	"golang.org/x/text/cases"
)

func NewHandler(engine EngineInterface, configCache *watch.ConfigCache,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		engine:      engine,
		generator:   feed.NewGenerator(),
		configCache: configCache,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":        "ok",
		"message":       "Post Comb backend is running",
		"timestamp":     time.Now().In(time.Local).Format(time.RFC3339),
		"version":       cfg.Get().Version,
		"authenticated": h.engine.IsAuthenticated(),
		"last_poll":     h.engine.LastPollTimestamp(),
	}

	if posts, err := h.engine.ListStored(c.Request.Context()); err == nil {
		health["stored_posts"] = len(posts)
	}

	health["loaded_watchlists"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) Login(c *gin.Context) {
	var creds provider.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(creds.LiAt) == "" {
		fail(c, http.StatusBadRequest, provider.ErrMissingCookie.Error())
		return
	}

	account, err := h.engine.Login(c.Request.Context(), creds)
	if err != nil {
		slog.Warn("Login failed", "error", err)
		fail(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully logged in to LinkedIn",
		"profile": account,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	h.engine.Logout()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

func (h *Handler) Search(c *gin.Context) {
	if !h.engine.IsAuthenticated() {
		fail(c, http.StatusUnauthorized, "Not logged in. Please login first.")
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.engine.Search(c.Request.Context(), poll.SearchRequest{
		Keywords:  req.Keywords,
		TimeRange: req.TimeRange,
		PostsOnly: req.PostsOnly,
	})
	if err != nil {
		slog.Error("Search failed", "error", err)
		fail(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"posts":             result.Posts,
		"count":             len(result.Posts),
		"all_checked_posts": result.RawResults,
		"warnings":          warnings(result.Warnings),
	})
}

func (h *Handler) PollPosts(c *gin.Context) {
	if !h.engine.IsAuthenticated() {
		fail(c, http.StatusUnauthorized, "Not logged in. Please login first.")
		return
	}

	var req pollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	offset := 0
	if req.Offset != nil {
		offset = *req.Offset
	}

	result, err := h.engine.Poll(c.Request.Context(), poll.PollRequest{
		Keywords:  req.Keywords,
		People:    req.People,
		Offset:    offset,
		TimeRange: req.TimeRange,
	})
	if err != nil {
		slog.Error("Poll failed", "error", err)
		fail(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"all_checked_posts":   result.AllChecked,
		"scraped_posts":       result.NewPosts,
		"count":               result.Count,
		"total_scraped":       result.TotalStored,
		"duplicates_skipped":  result.DuplicatesSkipped,
		"last_poll_timestamp": result.LastPollTimestamp,
		"warnings":            warnings(result.Warnings),
	})
}

func (h *Handler) GetScrapedPosts(c *gin.Context) {
	posts, err := h.engine.ListStored(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_posts", "error", err)
		fail(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts, "count": len(posts)})
}

func (h *Handler) ClearPosts(c *gin.Context) {
	if err := h.engine.Clear(c.Request.Context()); err != nil {
		slog.Error("Database error", "operation", "clear_posts", "error", err)
		fail(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All scraped posts cleared"})
}

func (h *Handler) GetFeed(c *gin.Context) {
	posts, err := h.engine.ListStored(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_posts", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	h.renderFeed(c, feed.Channel{Path: "/feed.xml", Title: "Post Comb"}, posts)
}

// GetWatchlistFeed serves the stored posts matching any keyword of a watchlist.
func (h *Handler) GetWatchlistFeed(c *gin.Context) {
	name := c.Param("name")

	watchlist, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Watchlist configuration not found", "watchlist", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	posts, err := h.engine.ListStored(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_posts", "watchlist", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	channel := feed.Channel{
		Path:        "/feeds/" + name,
		Title:       "Post Comb: " + name,
		Description: "Posts matching " + strings.Join(watchlist.Keywords, ", "),
	}
	h.renderFeed(c, channel, matchingPosts(posts, watchlist.Keywords))
}

func (h *Handler) renderFeed(c *gin.Context, channel feed.Channel, posts []post.Post) {
	rss, err := h.generator.Run(channel, posts)
	if err != nil {
		slog.Error("RSS generation error", "path", channel.Path, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(posts)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) APIListWatchlists(c *gin.Context) {
	statuses := h.scheduler.Status()
	c.JSON(http.StatusOK, gin.H{
		"watchlists": statuses,
		"total":      len(statuses),
	})
}

func (h *Handler) APIPollWatchlist(c *gin.Context) {
	name := c.Param("name")

	err := h.scheduler.Trigger(name)
	switch {
	case errors.Is(err, tasks.ErrPollInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		if _, cfgErr := h.configCache.GetConfig(name); cfgErr != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist not found"})
			return
		}
		slog.Error("Failed to trigger watchlist poll", "watchlist", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	slog.Info("Watchlist poll triggered", "watchlist", name)
	c.JSON(http.StatusAccepted, gin.H{"message": "Watchlist poll scheduled", "watchlist": name})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, provider.ErrNotAuthenticated), errors.Is(err, provider.ErrSessionRejected):
		return http.StatusUnauthorized
	case errors.Is(err, poll.ErrMissingKeywords), errors.Is(err, provider.ErrMissingCookie):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func warnings(w []string) []string {
	if w == nil {
		return []string{}
	}
	return w
}

func matchingPosts(posts []post.Post, keywords []string) []post.Post {
	fold := cases.Fold()
	wanted := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		wanted[fold.String(strings.TrimSpace(kw))] = struct{}{}
	}

	matched := make([]post.Post, 0, len(posts))
	for _, p := range posts {
		for _, kw := range p.Keywords {
			if _, ok := wanted[fold.String(strings.TrimSpace(kw))]; ok {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}
