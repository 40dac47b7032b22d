package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/liuran001/MusicDesk-Go/server/config"
	"github.com/liuran001/MusicDesk-Go/server/download"
	logpkg "github.com/liuran001/MusicDesk-Go/server/logger"
	"github.com/liuran001/MusicDesk-Go/server/music"
	"github.com/liuran001/MusicDesk-Go/server/music/plugins"
	"github.com/liuran001/MusicDesk-Go/server/music/registry"
	"github.com/liuran001/MusicDesk-Go/server/web"
	"github.com/liuran001/MusicDesk-Go/server/worker"
)

// App wires all application dependencies.
type App struct {
	Config    *config.Config
	Logger    *logpkg.Logger
	Manager   music.Manager
	Pool      *worker.Pool
	Downloads *download.Service
	Server    *http.Server
	Build     BuildInfo

	listener net.Listener
}

// BuildInfo provides build-time metadata.
type BuildInfo struct {
	RuntimeVer string
	BinVersion string
	CommitSHA  string
	BuildTime  string
	BuildArch  string
}

// New builds the application container.
func New(ctx context.Context, configPath string, build BuildInfo) (*App, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logpkg.New(conf.GetString("LogLevel"), conf.GetString("LogFormat"), conf.GetBool("LogSource"))
	if err != nil {
		return nil, err
	}

	manager := music.NewManagerWithRegistry(registry.New(), log)

	providerNames := conf.ProviderNames()
	if len(providerNames) == 0 {
		providerNames = plugins.Names()
	}
	for _, name := range providerNames {
		enabled := true
		if providerCfg, ok := conf.GetProviderConfig(name); ok {
			if _, hasKey := providerCfg["enabled"]; hasKey {
				enabled = conf.GetProviderBool(name, "enabled")
			}
		}
		if !enabled {
			log.Info("provider disabled by config", "provider", name)
			continue
		}

		factory, ok := plugins.Get(name)
		if !ok {
			log.Warn("provider not registered", "provider", name)
			continue
		}

		contrib, err := factory(conf, log)
		if err != nil {
			log.Error("provider init failed", "provider", name, "error", err)
			continue
		}
		if contrib == nil {
			continue
		}

		candidates := contrib.Providers
		if contrib.Provider != nil {
			candidates = append([]music.Provider{contrib.Provider}, candidates...)
		}
		for _, p := range candidates {
			if p == nil {
				continue
			}
			if err := manager.Register(p); err != nil {
				log.Error("provider registration failed", "provider", p.Name(), "error", err)
				continue
			}
			log.Info("provider registered", "provider", p.Name())
		}
	}

	if len(manager.Names()) == 0 {
		return nil, errors.New("app: no providers registered")
	}
	manager.SetDefault(conf.GetString("DefaultProvider"))

	pool := worker.New(conf.GetInt("DownloadConcurrency"))

	downloads := download.NewService(download.Options{
		Timeout:       time.Duration(conf.GetInt("RequestTimeout")) * time.Second,
		Retries:       conf.GetInt("DownloadRetries"),
		RatePerSecond: conf.GetFloat64("DownloadRatePerSecond"),
		RateBurst:     conf.GetInt("DownloadRateBurst"),
		Pool:          pool,
		Logger:        log,
	})

	handler := web.New(manager, downloads, log)
	srv := &http.Server{
		Addr:              conf.GetString("Listen"),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:    conf,
		Logger:    log,
		Manager:   manager,
		Pool:      pool,
		Downloads: downloads,
		Server:    srv,
		Build:     build,
	}, nil
}

// Start binds the listen address and begins serving in the background.
func (a *App) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	a.Logger.Info("server started",
		"addr", ln.Addr().String(),
		"providers", a.Manager.Names(),
		"version", a.Build.BinVersion,
		"runtime", a.Build.RuntimeVer,
		"arch", a.Build.BuildArch,
	)

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

// Shutdown stops the HTTP server and drains the worker pool.
func (a *App) Shutdown(ctx context.Context) error {
	timeout := time.Duration(a.Config.GetInt("ShutdownTimeoutSec")) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a.Logger.Info("shutting down")

	var firstErr error
	if err := a.Server.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := a.Pool.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	_ = a.Logger.Close()
	return firstErr
}
