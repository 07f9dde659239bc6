// Package app wires the engine's components together and owns their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"mediadex/internal/expiry"
	"mediadex/pkg/config"
	"mediadex/pkg/entitlement"
	"mediadex/pkg/logger"
	"mediadex/pkg/migrate"
	"mediadex/pkg/monitor"
	"mediadex/pkg/search"
	"mediadex/pkg/session"
	"mediadex/pkg/settings"
	"mediadex/pkg/state"
	"mediadex/pkg/store"
	"mediadex/pkg/telemetry"
)

// App encapsulates the engine components and lifecycle.
type App struct {
	eff       config.Effective
	version   string
	commit    string
	buildDate string

	sessions     *session.Cache
	coordinator  *search.Coordinator
	entitlements *entitlement.Service
	settings     *settings.Service
	sweeper      *expiry.Scheduler
	monitor      *monitor.Monitor

	srv *http.Server
}

// logNotifier delivers entitlement notices to the log. The bot layer in
// front of this engine polls entitlement state itself; the engine only has
// to record that a notice became due.
type logNotifier struct{}

func (logNotifier) Notify(_ context.Context, subject, message string) error {
	logger.Info("entitlement_notice", "subject", subject, "message", message)
	return nil
}

// New initializes resources that do not require a running context (DB,
// state dirs, engine services). It does not start the sweeper or the HTTP
// server; call Run to start those and block until shutdown.
func New(eff config.Effective, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := eff.Config.Validate(); err != nil {
		return nil, err
	}

	if err := state.Init(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to prepare state dirs at %s: %w", eff.DBPath, err)
	}
	if err := store.Open(state.PathsVar.Store); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", state.PathsVar.Store, err)
	}
	store.SetCaptionSearch(eff.Config.Search.IndexCaptions)

	if err := migrate.Sync(context.Background()); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	a := &App{eff: eff, version: version, commit: commit, buildDate: buildDate}

	monCfg := monitor.DefaultConfig()
	monCfg.DiskHighBytes = eff.Config.Storage.DiskHighBytes
	monCfg.DiskLowBytes = eff.Config.Storage.DiskLowBytes
	a.monitor = monitor.New(monCfg)

	a.sessions = session.NewCache(eff.Config.Search.SessionCapacity, func(evicted int) {
		telemetry.SessionEvictions.Add(float64(evicted))
		logger.Info("session_table_reset", "evicted", evicted)
	})
	a.coordinator = search.New(a.sessions, eff.Config.Search.PageSize)
	a.entitlements = entitlement.NewService(logNotifier{})

	var err error
	if a.settings, err = settings.NewService(eff.Config.Search.SettingsCache); err != nil {
		return nil, fmt.Errorf("failed to build settings cache: %w", err)
	}

	if eff.Config.Entitlement.Enabled {
		a.sweeper, err = expiry.New(a.entitlements, expiry.Config{
			Interval:   eff.Config.Entitlement.Interval.Duration(),
			RetryDelay: eff.Config.Entitlement.RetryDelay.Duration(),
			Cron:       eff.Config.Entitlement.Cron,
		})
		if err != nil {
			return nil, fmt.Errorf("invalid expiry schedule: %w", err)
		}
	}

	return a, nil
}

// Run starts the expiry sweeper (if enabled) and the HTTP server, and
// blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.sweeper != nil {
		stop := a.sweeper.Start(ctx)
		defer stop()
	}
	stopMonitor := a.monitor.Start(ctx)
	defer stopMonitor()

	a.printBanner()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.stopHTTP()
		if err := store.Close(); err != nil {
			logger.Warn("pebble_close_failed", "error", err)
		}
		return nil
	case err := <-errCh:
		_ = store.Close()
		return err
	}
}
