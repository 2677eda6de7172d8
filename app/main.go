package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lysyi3m/post-comb/app/api"
	"github.com/lysyi3m/post-comb/app/cfg"
	"github.com/lysyi3m/post-comb/app/database"
	"github.com/lysyi3m/post-comb/app/forward"
	"github.com/lysyi3m/post-comb/app/poll"
	"github.com/lysyi3m/post-comb/app/provider"
	"github.com/lysyi3m/post-comb/app/tasks"
	"github.com/lysyi3m/post-comb/app/watch"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if c == nil {
		return
	}

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Post Comb server", "version", c.Version, "store", c.Store, "timezone", c.Timezone)

	store, closeStore, err := openStore(c)
	if err != nil {
		slog.Error("Failed to open post store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	client := provider.NewVoyagerClient(provider.ClientOptions{
		BaseURL:           c.ProviderURL,
		UserAgent:         c.UserAgent,
		Timeout:           c.ProviderTimeoutDuration(),
		RequestsPerSecond: c.ProviderRate,
	})

	engine, err := poll.NewEngine(client, client, store, poll.Options{
		SearchLimit:          c.SearchLimit,
		SeenCapacity:         c.SeenCapacity,
		Concurrency:          c.SearchConcurrency,
		JobTemplateHeuristic: c.JobTemplateHeuristic,
		ExcludeTitleOnly:     c.ExcludeTitleOnly,
	}, nil)
	if err != nil {
		slog.Error("Failed to create poll engine", "error", err)
		os.Exit(1)
	}

	configCache := watch.NewConfigCache(c.WatchlistsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load watchlists", "dir", c.WatchlistsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Watchlists loaded", "dir", c.WatchlistsDir, "count", configCache.GetConfigCount())

	var forwarder tasks.Forwarder
	if c.WebhookURL != "" {
		forwarder = forward.NewWebhook(c.WebhookURL, c.UserAgent, c.ProviderTimeoutDuration())
		slog.Info("Webhook forwarding enabled")
	}

	scheduler := tasks.NewScheduler(configCache, engine, forwarder,
		time.Duration(c.SchedulerInterval)*time.Second, c.WorkerCount)
	engine.OnClear(scheduler.ResetOffsets)

	slog.Info("Starting background scheduler", "workers", c.WorkerCount, "interval", c.SchedulerInterval)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(engine, configCache, scheduler)
	server := api.NewServer(handler, c.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Post Comb server shutdown complete")
}

func openStore(c *cfg.Cfg) (database.PostRepository, func(), error) {
	if c.Store != "sqlite" {
		return database.NewMemoryPostRepository(), func() {}, nil
	}

	db, err := database.Open(c.DBPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Connected to SQLite store", "path", c.DBPath)

	return database.NewPostRepository(db), func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}, nil
}
