package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notesync/internal/config"
	"notesync/internal/http"
	"notesync/internal/service"
	"notesync/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}
	defer closeStore()

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		slog.Warn("Blob store not reachable at startup", "backend", cfg.StoreBackend, "error", err)
	}
	cancel()

	deps := &http.Deps{
		NotesService:   service.NewNotesService(store),
		ProfileService: service.NewProfileService(store),
		Store:          store,
		Backend:        cfg.StoreBackend,
	}
	router := http.NewRouter(deps)

	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting API server", "addr", srv.Addr, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	slog.Info("API server stopped")
}

// openStore builds the configured blob store and a func releasing it.
func openStore(cfg *config.Config) (storage.BlobStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendGitHub:
		gh := storage.NewGitHubStore(cfg.GitHubAPIURL, cfg.GitHubToken, cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubBranch)
		slog.Info("Using GitHub blob store", "owner", cfg.GitHubOwner, "repo", cfg.GitHubRepo, "branch", cfg.GitHubBranch)
		return gh, func() {}, nil
	default:
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("Database initialized", "path", cfg.DBPath)
		return storage.NewBlobRepo(db), func() { _ = db.Close() }, nil
	}
}
