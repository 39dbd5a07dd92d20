package rpcwallet

import (
	"context"
	"time"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/pkg/logger"

	"golang.org/x/time/rate"
)

// Target is where an injector places the bridged wallet.
type Target interface {
	Inject(path string, wallet port.InjectedWallet) error
	Remove(path string) bool
}

// InjectorConfig configures an Injector.
type InjectorConfig struct {
	URL           string
	Path          string
	RetryInterval time.Duration
	Wallet        Options
	Logger        port.Logger
}

// Injector keeps a bridged wallet injected into a scope while its bridge is reachable,
// the way a wallet extension injects itself into every page it runs in.
type Injector struct {
	cfg    InjectorConfig
	target Target
	logger port.Logger
}

func NewInjector(target Target, cfg InjectorConfig) *Injector {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	l := cfg.Logger
	if l == nil {
		l = logger.NewNop()
	}
	return &Injector{cfg: cfg, target: target, logger: l}
}

// Run dials the bridge, injects the wallet and redials after the bridge goes away.
// It returns when ctx is done.
func (i *Injector) Run(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(i.cfg.RetryInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		w, err := Dial(ctx, i.cfg.URL, i.cfg.Wallet)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			i.logger.Debug("Wallet bridge not reachable", "url", i.cfg.URL, "error", err)
			continue
		}
		if err := i.target.Inject(i.cfg.Path, w); err != nil {
			w.Close()
			return err
		}
		i.logger.Info("Wallet bridge injected", "url", i.cfg.URL, "path", i.cfg.Path)

		select {
		case <-w.Done():
			i.logger.Warn("Wallet bridge went away", "url", i.cfg.URL)
			i.target.Remove(i.cfg.Path)
			w.Close()
		case <-ctx.Done():
			i.target.Remove(i.cfg.Path)
			w.Close()
			return nil
		}
	}
}
