package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/database"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/logger"
	"github.com/docvault/docvault/internal/mailer"
	"github.com/docvault/docvault/internal/shares"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/transform"
	"github.com/docvault/docvault/internal/trash"
	"github.com/docvault/docvault/internal/versions"
)

type Application struct {
	config *config.Config
	db     *sql.DB
	logger *slog.Logger

	store     storage.System
	documents documents.System
	versions  versions.Manager
	shares    shares.Manager
	trash     trash.Manager
	pipeline  transform.Pipeline
	auditor   audit.System
}

func main() {
	cfg, err := config.Load("config.toml")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(&cfg.Logging)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	app := build(cfg, db, store, log)

	sweeper, err := trash.NewSweeper(app.trash, &cfg.Sweep, log)
	if err != nil {
		log.Error("failed to initialize expiry sweep", "error", err)
		os.Exit(1)
	}
	if sweeper != nil {
		sweeper.Start()
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.routes(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:  cfg.Server.IdleTimeoutDuration(),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	log.Info("starting server", "addr", srv.Addr, "storage", cfg.Storage.Driver)

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	if err := <-shutdownError; err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func build(cfg *config.Config, db *sql.DB, store storage.System, log *slog.Logger) *Application {
	docs := documents.New(db, store, log, cfg.Pagination)
	auditor := audit.New(db, log, cfg.Pagination)
	mail := mailer.New(&cfg.Mailer, log)

	vers := versions.NewManager(docs, store, log)
	shr := shares.NewManager(docs, store, mail, &cfg.Share, cfg.Server.PublicURL, log)
	trsh := trash.NewManager(docs, store, log)
	pipe := transform.NewPipeline(docs, store, &cfg.Transform, log)

	return &Application{
		config:    cfg,
		db:        db,
		logger:    log,
		store:     store,
		documents: docs,
		versions:  vers,
		shares:    shr,
		trash:     trsh,
		pipeline:  pipe,
		auditor:   auditor,
	}
}
