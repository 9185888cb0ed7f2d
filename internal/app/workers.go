package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/queuewatch/queuewatch/internal/notify"
	"github.com/queuewatch/queuewatch/internal/state"
)

const (
	resourcePollInterval = 5 * time.Minute
	headlessInterval     = 30 * time.Second
	notesFlushInterval   = time.Second
)

// startWorker runs fn in the background until ctx is cancelled. Errors other
// than cancellation are logged.
func startWorker(ctx context.Context, wg *sync.WaitGroup, log *slog.Logger, name string, fn func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker stopped", "worker", name, "error", err)
		}
	}()
}

// preload fetches the REST-managed entities, then refreshes them at a fixed
// cadence. Conditions and notification targets are never pushed by the
// stream; presets and tasks are, and both paths write the same lists.
func preload(ctx context.Context, svc *Services) {
	pollResources(ctx, svc, resourcePollInterval)
}

func pollResources(ctx context.Context, svc *Services, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		refreshResources(ctx, svc)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func refreshResources(ctx context.Context, svc *Services) {
	if ok, _ := svc.Presets.Load(ctx, 1, 0); ok {
		svc.Log.Debug("presets loaded", "count", svc.Presets.Pagination().Total)
	}
	if ok, _ := svc.Tasks.Load(ctx, 1, 0); ok {
		svc.Log.Debug("tasks loaded", "count", svc.Tasks.Pagination().Total)
	}
	if ok, _ := svc.Conditions.Load(ctx, 1, 0); ok {
		svc.Log.Debug("conditions loaded", "count", svc.Conditions.Pagination().Total)
	}
	if ok, _ := svc.Targets.Load(ctx, 1, 0); ok {
		svc.Log.Debug("notification targets loaded", "count", svc.Targets.Pagination().Total)
	}
}

// serveMetrics exposes the registry on addr until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// runHeadless logs notifications as they arrive plus a periodic status line,
// until ctx is cancelled.
func runHeadless(ctx context.Context, svc *Services, every time.Duration) error {
	log := svc.Log
	svc.Notes.Subscribe(func(n notify.Notification) {
		switch n.Level {
		case notify.LevelError:
			log.Error(n.Message, "source", "notification")
		case notify.LevelWarning:
			log.Warn(n.Message, "source", "notification")
		default:
			log.Info(n.Message, "source", "notification", "level", n.Level.String())
		}
	})

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			logStatus(log, svc.Store.Snapshot(), svc.Server)
		}
	}
}

func logStatus(log *slog.Logger, snap state.Snapshot, server *state.ServerConfig) {
	attrs := []any{
		"connected", snap.Connected,
		"synced", snap.Synced,
		"queue", len(snap.Queue),
		"history", len(snap.History),
		"paused", server.Paused(),
		"presets", server.Presets().Len(),
		"tasks", server.Tasks().Len(),
	}
	if snap.LastError != nil {
		attrs = append(attrs, "last_error", snap.LastError)
	}
	log.Info("status", attrs...)
}
