package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"
	"github.com/michaelgov-ctrl/countdown/bridge"
	"github.com/michaelgov-ctrl/countdown/internal/models"
	"github.com/michaelgov-ctrl/countdown/internal/notify"
	"github.com/michaelgov-ctrl/countdown/internal/slogloki"
	"github.com/michaelgov-ctrl/countdown/internal/store"
	"github.com/michaelgov-ctrl/countdown/internal/updater"
	"github.com/michaelgov-ctrl/countdown/timer"
	"github.com/prometheus/client_golang/prometheus"
)

var version = "dev"

type application struct {
	config          config
	ctx             context.Context
	cancel          context.CancelFunc
	timers          *timer.Manager
	hub             *bridge.Hub
	notifier        *notify.Service
	store           *store.DB
	presets         *models.PresetModel
	updater         *updater.Updater
	sessionManager  *scs.SessionManager
	templateCache   map[string]*template.Template
	formDecoder     *form.Decoder
	logger          *slog.Logger
	metricsRegistry *prometheus.Registry

	quit     chan struct{}
	quitOnce sync.Once
}

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	if cfg.showVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger, stopLogger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error(err.Error())
		stopLogger()
		os.Exit(1)
	}

	stopLogger()
}

func run(cfg config, logger *slog.Logger) error {
	db, err := store.Open(context.Background(), store.Config{Path: cfg.db})
	if err != nil {
		return err
	}
	defer db.Close()

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		return err
	}

	return app.serve()
}

func newLogger(cfg config) (*slog.Logger, func(), error) {
	if cfg.loki.url != "" {
		return slogloki.NewLokiLogger(cfg.loki.serviceName, cfg.loki.url, logLevel(cfg.logLevel))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.logLevel)}))

	return logger, func() {}, nil
}

func newApplication(cfg config, logger *slog.Logger, db *store.DB) (*application, error) {
	templateCache, err := newTemplateCache()
	if err != nil {
		return nil, err
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = 12 * time.Hour
	sessionManager.Cookie.Secure = cfg.tls.certFile != ""

	registry := prometheus.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())

	app := &application{
		config:          cfg,
		ctx:             ctx,
		cancel:          cancel,
		store:           db,
		presets:         &models.PresetModel{KV: db},
		sessionManager:  sessionManager,
		templateCache:   templateCache,
		formDecoder:     form.NewDecoder(),
		logger:          logger,
		metricsRegistry: registry,
		quit:            make(chan struct{}),
	}

	app.hub = bridge.NewHub(ctx,
		bridge.WithLogger(logger),
		bridge.WithMetricsRegistry(registry),
		bridge.WithAllowedOrigins(cfg.cors.trustedOrigins),
		bridge.WithQuit(app.requestQuit),
	)

	app.notifier = notify.New(app.hub, notify.WithLogger(logger), notify.WithCommand(cfg.notifyCommand))

	app.timers = timer.NewManager(ctx,
		timer.WithLogger(logger),
		timer.WithMetricsRegistry(registry),
		timer.WithEventSink(app.hub),
		timer.WithTickInterval(cfg.timers.tickInterval),
		timer.WithPausedBackoff(cfg.timers.pausedBackoff),
		timer.WithFinishHook(app.timerFinished),
	)

	app.hub.HandleTimers(app.timers)
	app.hub.HandleStore(db, store.ErrNotFound)
	app.hub.HandleNotifications(app.notifier)

	if cfg.updateURL != "" {
		app.updater = updater.New(cfg.updateURL, version, updater.WithLogger(logger))
	}

	return app, nil
}

func (app *application) timerFinished(snap timer.Snapshot) {
	go app.notifier.Send("Time's up", fmt.Sprintf("Timer %s has finished", snap.Key))
}

// requestQuit starts the same graceful shutdown as SIGINT.
func (app *application) requestQuit() {
	app.quitOnce.Do(func() {
		close(app.quit)
	})
}
