package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/chainstate-go/internal/core/service"
	"github.com/yndnr/chainstate-go/internal/infra/buildinfo"
	"github.com/yndnr/chainstate-go/internal/infra/confloader"
	"github.com/yndnr/chainstate-go/internal/infra/shutdown"
	"github.com/yndnr/chainstate-go/internal/infra/tlsroots"
	"github.com/yndnr/chainstate-go/internal/registry"
	"github.com/yndnr/chainstate-go/internal/server/config"
	"github.com/yndnr/chainstate-go/internal/server/httpserver"
	"github.com/yndnr/chainstate-go/internal/storage"
	"github.com/yndnr/chainstate-go/internal/telemetry/logger"
	"github.com/yndnr/chainstate-go/internal/telemetry/metric"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		resetState  = flag.Bool("reset-state", false, "Discard persisted overrides before starting")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("chainstate-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting chainstate-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	var metrics *metric.Registry
	if cfg.Metrics.Enabled {
		metrics = metric.NewRegistry()
	}

	kv, err := initStorage(cfg, metrics, slogLogger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	persister := storage.NewPersister(kv, storage.WithKey(cfg.Storage.Key))

	ctx := context.Background()
	if *resetState {
		if err := persister.Clear(ctx); err != nil {
			kv.Close()
			return fmt.Errorf("reset state: %w", err)
		}
		log.Warn("persisted state discarded", "key", persister.Key())
	}

	src, err := registry.Open(config.ToRegistryConfig(cfg), slogLogger)
	if err != nil {
		kv.Close()
		return fmt.Errorf("open registry: %w", err)
	}

	store := service.NewStore(src, storeOptions(cfg, persister, metrics, slogLogger)...)

	rehydrator := service.NewRehydrator(store, persister, slogLogger)
	var (
		rehydrateCtx    context.Context
		cancelRehydrate context.CancelFunc
	)
	if cfg.State.RehydrateTimeout > 0 {
		rehydrateCtx, cancelRehydrate = context.WithTimeout(ctx, cfg.State.RehydrateTimeout)
	} else {
		rehydrateCtx, cancelRehydrate = context.WithCancel(ctx)
	}
	rehydrator.Start(rehydrateCtx)
	go func() {
		defer cancelRehydrate()
		if err := rehydrator.Wait(rehydrateCtx); err != nil {
			log.Warn("rehydration did not commit a handle", "phase", rehydrator.Phase().String(), "error", err)
			return
		}
		log.Info("rehydration finished", "phase", rehydrator.Phase().String())
	}()

	watcher, err := confloader.NewWatcher(
		confloader.WithWatcherLogger(slogLogger),
		confloader.WithDebounce(watchDebounce))
	if err != nil {
		kv.Close()
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watchFiles(watcher, cfg, *configFile, src, store, log); err != nil {
		watcher.Stop()
		kv.Close()
		return err
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Store:       store,
		Phases:      rehydrator,
		Logger:      slogLogger,
		Metrics:     metrics,
		RateLimit:   cfg.Server.HTTP.RateLimit,
		RateBurst:   cfg.Server.HTTP.RateBurst,
		EnableAudit: true,
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)

	var certs *tlsroots.CertReloader
	if cfg.Server.HTTP.TLSCertFile != "" {
		certs, err = tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile, slogLogger)
		if err != nil {
			watcher.Stop()
			kv.Close()
			return fmt.Errorf("load tls certificate: %w", err)
		}
		if err := certs.Watch(watcher); err != nil {
			log.Warn("certificate changes will not be picked up", "error", err)
		}
	}

	watcher.StartAsync()

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, slogLogger)

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown("storage", func(ctx context.Context) error {
		return kv.Close()
	})
	shutdownHandler.OnShutdown("rehydration", func(ctx context.Context) error {
		cancelRehydrate()
		return nil
	})
	shutdownHandler.OnShutdown("file watcher", func(ctx context.Context) error {
		return watcher.Stop()
	})
	shutdownHandler.OnShutdown("http server", func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr, "tls", certs != nil)

		var err error
		if certs != nil {
			err = httpServer.ListenAndServeTLSConfig(certs.ServerConfig())
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger("http server failed")
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers defaults, the optional file and CHAINSTATE_*
// environment variables, then verifies the result.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	if err := loader.LoadMap(config.DefaultMap()); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger creates the redacting logger and installs it as the
// process default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// initStorage opens the KV engine and exposes its statistics.
func initStorage(cfg *config.ServerConfig, metrics *metric.Registry, log *slog.Logger) (storage.KVEngine, error) {
	kv, err := storage.Open(config.ToKVConfig(cfg), log)
	if err != nil {
		return nil, err
	}

	if metrics != nil {
		metrics.Registerer().MustRegister(metric.NewStorageCollector(kv))
		if badger, ok := kv.(*storage.BadgerEngine); ok {
			badger.RegisterMetrics(metrics.Registerer())
		}
	}

	log.Info("storage opened", "engine", cfg.Storage.Engine, "dir", cfg.Storage.Dir)
	return kv, nil
}

func storeOptions(cfg *config.ServerConfig, p *storage.Persister, metrics *metric.Registry, log *slog.Logger) []service.Option {
	opts := []service.Option{
		service.WithPersister(p),
		service.WithLogger(log),
	}
	if metrics != nil {
		opts = append(opts, service.WithObserver(metrics))
	}
	if cfg.State.EditGuard {
		opts = append(opts, service.WithEditGuard())
	}
	return opts
}

// watchFiles registers the file-backed inputs that may change while the
// server runs: the config file (log level only) and a file registry.
func watchFiles(w *confloader.Watcher, cfg *config.ServerConfig, configFile string, src registry.Source, store *service.Store, log logger.Logger) error {
	if configFile != "" {
		watched := filepath.Clean(configFile)
		w.OnChange(func(path string) {
			if path != watched {
				return
			}
			reloadLogLevel(configFile, log)
		})
		if err := w.Watch(configFile); err != nil {
			return fmt.Errorf("watch config file: %w", err)
		}
	}

	file, ok := src.(*registry.File)
	if !cfg.Registry.Watch || !ok {
		return nil
	}
	err := file.Watch(w, func() {
		ctx := logger.WithEditOrigin(context.Background(), logger.OriginRegistryWatch)
		ctx, cancel := context.WithTimeout(ctx, cfg.Registry.Timeout)
		defer cancel()
		if err := store.Rebuild(ctx); err != nil {
			log.Warn("rebuild after registry change failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("watch registry file: %w", err)
	}
	return nil
}

// reloadLogLevel applies log.level from a changed config file. Other
// settings need a restart.
func reloadLogLevel(configFile string, log logger.Logger) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		log.Warn("ignoring config change", "error", err)
		return
	}
	if cfg.Log.Level == logger.GetLevel() {
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Warn("ignoring log level change", "error", err)
		return
	}
	log.Info("log level changed", "level", cfg.Log.Level)
}
