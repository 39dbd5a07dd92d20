package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/app/provider"
	"wallet_adapter/internal/app/walletadapter/bbawallet"
	"wallet_adapter/internal/infrastructure/configloader"
	clientprovider "wallet_adapter/internal/infrastructure/network/client"
	"wallet_adapter/internal/infrastructure/restapi"
	"wallet_adapter/internal/infrastructure/rpcwallet"
	"wallet_adapter/internal/infrastructure/scope"
	"wallet_adapter/internal/infrastructure/storage"
	"wallet_adapter/internal/pkg/logger"
	"wallet_adapter/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wallet provider and its HTTP API",
	Example: `  walletd serve
  walletd serve --config config/config.yml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(parent context.Context, cfg *configloader.Config) error {
	zapLogger := logger.Init(logger.Options{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	defer zapLogger.Sync()

	appLogger := logger.NewSlogAdapter()
	appLogger.Info("walletd starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)

	store, storeCloser, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer storeCloser.Close()

	registry := scope.NewRegistry(scope.Options{
		Headless:     cfg.Scope.Headless,
		Redirectable: cfg.Scope.Redirectable,
		Href:         cfg.Scope.Href,
		Origin:       cfg.Scope.Origin,
		OnNavigate: func(url string) {
			appLogger.Info("Page navigation requested", "url", url)
		},
	})

	adapter := bbawallet.NewAdapter(registry, bbawallet.Config{
		DetectionInterval:    cfg.DetectionInterval(),
		DetectionMaxAttempts: cfg.Detection.MaxAttempts,
		Logger:               logger.Named("bbawallet"),
	})
	defer adapter.Close()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(promRegistry)
	stopObserving := collector.Observe(adapter)
	defer collector.Wait()
	defer stopObserving()

	walletProvider, err := provider.NewWalletProvider(provider.Options{
		Wallets:         []port.Adapter{adapter},
		Store:           store,
		LocalStorageKey: cfg.Provider.LocalStorageKey,
		AutoConnect:     cfg.Provider.AutoConnect,
		OpenURL: func(url string) {
			if err := registry.Navigate(url); err != nil {
				appLogger.Warn("Failed to open wallet url", "url", url, "error", err)
			}
		},
		Logger: logger.Named("provider"),
	})
	if err != nil {
		return fmt.Errorf("failed to create wallet provider: %w", err)
	}
	defer walletProvider.Close()

	connections := clientprovider.NewRPCConnectionProvider(cfg, logger.Named("chain"))
	defer connections.Close()
	network := connections.Definition()
	appLogger.Info("Chain connection configured", "endpoint", cfg.Chain.Endpoint, "cluster", network.Cluster)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := restapi.NewWalletHandler(walletProvider, restapi.WalletHandlerOptions{
		Connections:     connections,
		Network:         network,
		PendingRedirect: registry.LastNavigation,
		ConnectTimer:    collector,
		Logger:          logger.Named("restapi"),
	})
	router := restapi.SetupRouter(handler, restapi.RouterOptions{
		AllowOrigins: cfg.CORS.AllowOrigins,
		Gatherer:     promRegistry,
		Logger:       logger.Named("http"),
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	// Long-lived requests such as the state stream end with the daemon.
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	g.Go(func() error {
		appLogger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		appLogger.Info("Shutting down HTTP server")
		walletProvider.BeforeUnload()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Bridge.URL != "" {
		injector := rpcwallet.NewInjector(registry, rpcwallet.InjectorConfig{
			URL:           cfg.Bridge.URL,
			Path:          cfg.Bridge.InjectPath,
			RetryInterval: time.Duration(cfg.Bridge.RetryIntervalMs) * time.Millisecond,
			Wallet: rpcwallet.Options{
				CallTimeout: time.Duration(cfg.Bridge.CallTimeoutSeconds) * time.Second,
				Logger:      logger.Named("bridge"),
			},
			Logger: logger.Named("injector"),
		})
		g.Go(func() error { return injector.Run(ctx) })
	} else {
		appLogger.Warn("No wallet bridge configured, the wallet will never be detected")
	}

	if err := g.Wait(); err != nil {
		return err
	}
	appLogger.Info("walletd stopped", "connected", walletProvider.State().Connected)
	return nil
}
