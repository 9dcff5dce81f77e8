package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jaminalder/codex-five-in-a-row/internal/app"
	"github.com/jaminalder/codex-five-in-a-row/internal/roster"
	"github.com/jaminalder/codex-five-in-a-row/internal/settings"
	"github.com/jaminalder/codex-five-in-a-row/internal/web"
)

func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	settingsPath := flag.String("settings", "settings.yaml", "settings file (.yaml/.yml or .json), created when missing")
	rosterPath := flag.String("roster", "players.yaml", "named players and their statistics (.yaml/.yml or .json)")
	width := flag.Int("width", 0, "board width, overrides the settings file")
	height := flag.Int("height", 0, "board height, overrides the settings file")
	players := flag.Int("players", 0, "default number of players, overrides the settings file")
	level := flag.String("log-level", "info", "debug|info|warn|error")
	dev := flag.Bool("dev", false, "human-readable development logging")
	flag.Parse()

	log, err := newLogger(*level, *dev)
	if err != nil {
		os.Stderr.WriteString("invalid -log-level: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	cfg, created, err := settings.LoadOrCreate(*settingsPath)
	if err != nil {
		log.Fatal("load settings", zap.String("path", *settingsPath), zap.Error(err))
	}
	if created {
		log.Info("wrote default settings", zap.String("path", *settingsPath))
	}
	if *width > 0 {
		cfg.Width = *width
	}
	if *height > 0 {
		cfg.Height = *height
	}
	if *players > 0 {
		cfg.PlayerCount = *players
	}
	cfg.Clamp()

	named, err := roster.Open(*rosterPath)
	if err != nil {
		log.Fatal("open roster", zap.String("path", *rosterPath), zap.Error(err))
	}

	svc := app.NewService()
	svc.SetLogger(log.Named("app"))
	handler := web.NewServer(svc,
		web.WithLogger(log.Named("http")),
		web.WithSettings(cfg),
		web.WithSettingsFile(*settingsPath),
		web.WithRoster(named),
	)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("server starting",
		zap.String("addr", *addr),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("patterns", len(cfg.Patterns)),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("server stopped")
}
