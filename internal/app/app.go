package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/catalog"
	"github.com/queuewatch/queuewatch/internal/config"
	"github.com/queuewatch/queuewatch/internal/notify"
	"github.com/queuewatch/queuewatch/internal/prefs"
	"github.com/queuewatch/queuewatch/internal/resource"
	"github.com/queuewatch/queuewatch/internal/socket"
	"github.com/queuewatch/queuewatch/internal/state"
	"github.com/queuewatch/queuewatch/internal/ui"
)

// Options configure the application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/queuewatch/prefs.toml
	ServerURL  string // overrides the config file and environment
	Headless   bool
	Stderr     io.Writer
}

// Services is the wired object graph. Every store is created once here and
// handed to its consumers.
type Services struct {
	Config     config.Config
	Log        *slog.Logger
	Notes      *notify.Store
	Store      *state.Store
	Server     *state.ServerConfig
	API        *api.Client
	Socket     *socket.Client
	Registry   *prometheus.Registry
	Tasks      *resource.Tasks
	Presets    *resource.Presets
	Conditions *resource.Conditions
	Targets    *resource.Targets
	Browser    *resource.Browser
}

// Build wires the services for cfg.
func Build(cfg config.Config, log *slog.Logger) (*Services, error) {
	if log == nil {
		log = slog.Default()
	}

	client, err := api.NewClient(cfg.ServerURL, api.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}
	wsURL, err := socket.WebsocketURL(client.BaseURL(), cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("init socket url: %w", err)
	}

	notes := notify.Open(cfg.NotificationsFile)
	presets := catalog.NewPresets()
	tasks := catalog.NewTasks()
	server := state.NewServerConfig(presets, tasks)
	store := state.NewStore()

	registry := prometheus.NewRegistry()
	metrics := socket.NewMetrics(registry)
	dispatcher := socket.NewDispatcher(store, server, notes,
		socket.WithMetrics(metrics),
		socket.WithLogger(log.With("component", "dispatcher")),
	)
	sock := socket.NewClient(wsURL, dispatcher,
		socket.WithBufferLimit(cfg.EventBuffer),
		socket.WithClientMetrics(metrics),
		socket.WithClientLogger(log.With("component", "socket")),
	)

	resOpts := resource.Options{Notifier: notes, Logger: log.With("component", "resource")}
	return &Services{
		Config:     cfg,
		Log:        log,
		Notes:      notes,
		Store:      store,
		Server:     server,
		API:        client,
		Socket:     sock,
		Registry:   registry,
		Tasks:      resource.NewTasks(client, tasks, resOpts),
		Presets:    resource.NewPresets(client, presets, resOpts),
		Conditions: resource.NewConditions(client, nil, resOpts),
		Targets:    resource.NewTargets(client, nil, resOpts),
		Browser:    resource.NewBrowser(client, resOpts),
	}, nil
}

// Run boots the client until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	log, closeLog, err := SetupLogger(cfg, opts.Headless, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	svc, err := Build(cfg, log)
	if err != nil {
		return err
	}
	log.Info("starting", "server", cfg.ServerURL, "headless", opts.Headless)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	startWorker(ctx, &wg, log, "socket", svc.Socket.Run)
	startWorker(ctx, &wg, log, "notes", func(ctx context.Context) error {
		return svc.Notes.Run(ctx, notesFlushInterval)
	})
	if cfg.MetricsAddr != "" {
		startWorker(ctx, &wg, log, "metrics", func(ctx context.Context) error {
			return serveMetrics(ctx, cfg.MetricsAddr, svc.Registry)
		})
	}
	startWorker(ctx, &wg, log, "preload", func(ctx context.Context) error {
		preload(ctx, svc)
		return nil
	})

	if opts.Headless {
		err = runHeadless(ctx, svc, headlessInterval)
	} else {
		userPrefs, _ := prefs.Load(opts.PrefsPath)
		err = ui.Run(ctx, ui.Options{
			Store:     svc.Store,
			Server:    svc.Server,
			Notes:     svc.Notes,
			Emitter:   svc.Socket,
			ServerURL: cfg.ServerURL,
			ThemeName: userPrefs.Theme,
			TabName:   userPrefs.Tab,
			PrefsPath: opts.PrefsPath,
			LogPath:   cfg.LogPath(),
			Logger:    log.With("component", "ui"),
		})
	}

	cancel()
	wg.Wait()
	if saveErr := svc.Notes.Save(); saveErr != nil {
		log.Warn("notification log not saved", "error", saveErr)
	}
	log.Info("stopped")
	return err
}
