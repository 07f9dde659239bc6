package app

import (
	"context"
	"net/http"
	"time"

	"mediadex/pkg/api"
	"mediadex/pkg/banner"
	"mediadex/pkg/logger"
	"mediadex/pkg/store"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff, verStr)
}

// handler assembles the full HTTP surface: engine routes from pkg/api plus
// the readiness probe, which needs access to the store handle state.
func (a *App) handler() http.Handler {
	adminKeys := make(map[string]struct{}, len(a.eff.Config.Security.APIKeys.Admin))
	for _, k := range a.eff.Config.Security.APIKeys.Admin {
		adminKeys[k] = struct{}{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/readyz", a.readyzHandler)
	mux.Handle("/", api.Handler(api.Deps{
		Coordinator:  a.coordinator,
		Entitlements: a.entitlements,
		Settings:     a.settings,
		Sessions:     a.sessions,
		Monitor:      a.monitor,
		AdminKeys:    adminKeys,
		RateRPS:      a.eff.Config.Security.RateLimit.RPS,
		RateBurst:    a.eff.Config.Security.RateLimit.Burst,
	}))
	return mux
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !store.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","version":"` + ver + `"}`))
}

// startHTTP starts the HTTP server in a goroutine and returns a channel
// that will contain any server error.
func (a *App) startHTTP() <-chan error {
	a.srv = &http.Server{Addr: a.eff.Addr, Handler: a.handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", a.eff.Addr)
		errCh <- a.srv.ListenAndServe()
	}()
	return errCh
}

// stopHTTP drains in-flight requests with a short deadline.
func (a *App) stopHTTP() {
	if a.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(ctx); err != nil {
		logger.Warn("http_shutdown_failed", "error", err)
	}
}
