package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/debate-lobby-backend/internal/config"
	"github.com/DoyleJ11/debate-lobby-backend/internal/gateway"
	"github.com/DoyleJ11/debate-lobby-backend/internal/httpapi"
	"github.com/DoyleJ11/debate-lobby-backend/internal/hub"
	"github.com/DoyleJ11/debate-lobby-backend/internal/lobby"
	"github.com/DoyleJ11/debate-lobby-backend/internal/logging"
	"github.com/DoyleJ11/debate-lobby-backend/internal/reaper"
	"github.com/DoyleJ11/debate-lobby-backend/internal/topics"
	"github.com/DoyleJ11/debate-lobby-backend/internal/ws"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources, db := topicSources(cfg, logger)
	pool := topics.Load(ctx, logger.Named("topics"), sources...)

	gw := gateway.New(logger.Named("gateway"), gateway.DefaultBuffer)
	rp := reaper.New(cfg.GraceWindow, logger.Named("reaper"))
	h := hub.NewHub(context.Background(), hub.Deps{Lobby: lobby.Deps{
		Rules:     cfg.Rules(),
		Topics:    pool,
		Broadcast: gw,
		Tracker:   rp,
		Log:       logger.Named("lobby"),
		Tick:      cfg.TickInterval,
	}})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(h, gw, logger.Named("http"), ws.Options{OriginPatterns: cfg.AllowedOrigins}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return rp.Run(gctx, cfg.SweepInterval, h)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		h.Shutdown()
		if db != nil {
			err = multierr.Append(err, db.Close())
		}
		return err
	})

	return g.Wait()
}

// topicSources lists the configured sources, database first. The returned handle is the
// database's connection pool, nil when no database is configured.
func topicSources(cfg config.Config, logger *zap.Logger) ([]topics.Source, *sql.DB) {
	var sources []topics.Source
	var pool *sql.DB
	if cfg.DatabaseURL != "" {
		db, err := topics.OpenDB(cfg.DatabaseURL)
		if err == nil {
			pool, err = db.DB()
		}
		if err != nil {
			logger.Warn("topic database unavailable", zap.Error(err))
		} else {
			sources = append(sources, topics.DBSource{DB: db})
		}
	}
	if cfg.TopicsPath != "" {
		sources = append(sources, topics.FileSource{Path: cfg.TopicsPath})
	}
	return sources, pool
}
