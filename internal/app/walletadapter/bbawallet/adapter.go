package bbawallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/app/walletadapter"
	"wallet_adapter/internal/domain/entity"
	"wallet_adapter/internal/pkg/logger"
)

const (
	// WalletName is the adapter name the provider selects by.
	WalletName entity.WalletName = "BBA Wallet"
	walletURL                    = "https://wallet.bbachain.com"
)

// injectionPaths are probed in order, both for detection and on connect.
var injectionPaths = []string{"bbawallet.bbachain", "bbachain"}

// Config tunes the adapter. The zero value uses the defaults.
type Config struct {
	DetectionInterval    time.Duration
	DetectionMaxAttempts int
	Logger               port.Logger
}

// Adapter connects an application to the BBA Wallet injected into a scope.
type Adapter struct {
	walletadapter.Emitter

	scope  port.Scope
	logger port.Logger

	mu         sync.Mutex
	readyState entity.WalletReadyState
	connecting bool
	wallet     port.InjectedWallet
	publicKey  *entity.PublicKey
	session    *session

	stopDetection func()
}

var _ port.Adapter = (*Adapter)(nil)

// NewAdapter determines the initial ready state from the scope and, when the wallet
// may still appear, starts polling for it.
func NewAdapter(scope port.Scope, cfg Config) *Adapter {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNop()
	}
	a := &Adapter{
		scope:         scope,
		logger:        l,
		readyState:    entity.ReadyStateUnsupported,
		stopDetection: func() {},
	}
	if scope == nil || !scope.Available() {
		a.logger.Debug("No wallet scope available, adapter unsupported", "wallet", WalletName)
		return a
	}

	a.readyState = entity.ReadyStateNotDetected
	if scope.Redirectable() {
		// Redirect-capable environments open the in-wallet browser instead of waiting for injection.
		a.readyState = entity.ReadyStateLoadable
		a.Emit(entity.ReadyStateChanged(a.readyState))
		return a
	}

	maxAttempts := cfg.DetectionMaxAttempts
	if maxAttempts == 0 {
		maxAttempts = walletadapter.DefaultDetectionMaxAttempts
	}
	a.stopDetection = walletadapter.PollDetection(context.Background(), cfg.DetectionInterval, maxAttempts, a.detect)
	return a
}

func (a *Adapter) detect() bool {
	if _, ok := a.lookup(); !ok {
		return false
	}
	a.mu.Lock()
	a.readyState = entity.ReadyStateInstalled
	a.mu.Unlock()

	a.logger.Info("Wallet detected", "wallet", WalletName)
	a.Emit(entity.ReadyStateChanged(entity.ReadyStateInstalled))
	return true
}

// lookup returns the first injected object whose presence flag is set.
func (a *Adapter) lookup() (port.InjectedWallet, bool) {
	for _, path := range injectionPaths {
		if w, ok := a.scope.Lookup(path); ok && w != nil && w.IsBBAWallet() {
			return w, true
		}
	}
	return nil, false
}

func (a *Adapter) Name() entity.WalletName { return WalletName }
func (a *Adapter) URL() string             { return walletURL }
func (a *Adapter) Icon() string            { return icon }

func (a *Adapter) SupportedTransactionVersions() []entity.TransactionVersion {
	return []entity.TransactionVersion{entity.TransactionVersionLegacy, entity.TransactionVersion0}
}

func (a *Adapter) ReadyState() entity.WalletReadyState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readyState
}

func (a *Adapter) PublicKey() *entity.PublicKey {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.publicKey == nil {
		return nil
	}
	pk := *a.publicKey
	return &pk
}

func (a *Adapter) Connecting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connecting
}

func (a *Adapter) Connected() bool {
	return a.PublicKey() != nil
}

// AutoConnect connects only when the wallet is installed: a Loadable wallet would
// need a redirect, which must not happen without user input.
func (a *Adapter) AutoConnect(ctx context.Context) error {
	if a.ReadyState() == entity.ReadyStateInstalled {
		return a.Connect(ctx)
	}
	return nil
}

// Connect opens a session with the injected wallet. In a redirect-capable scope it
// navigates to the wallet's browse link instead and returns without a session.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.wallet != nil || a.connecting {
		a.mu.Unlock()
		return nil
	}
	state := a.readyState
	if state == entity.ReadyStateLoadable {
		a.mu.Unlock()
		return a.redirect()
	}
	if state != entity.ReadyStateInstalled {
		a.mu.Unlock()
		return a.fail(entity.NewWalletError(entity.KindNotReady, "", nil))
	}
	a.connecting = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.connecting = false
		a.mu.Unlock()
	}()

	pk, err := a.establish(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.logger.Info("Wallet connected", "wallet", WalletName, "public_key", pk.String())
	a.Emit(entity.Connected(pk))
	return nil
}

func (a *Adapter) establish(ctx context.Context) (entity.PublicKey, error) {
	wallet, ok := a.lookup()
	if !ok {
		return entity.PublicKey{}, entity.NewWalletError(entity.KindNotReady, "wallet object disappeared from scope", nil)
	}

	if !wallet.IsConnected() {
		if err := wallet.Connect(ctx); err != nil {
			return entity.PublicKey{}, entity.NewWalletError(entity.KindConnection, err.Error(), err)
		}
	}

	raw := wallet.PublicKey()
	if raw == nil {
		return entity.PublicKey{}, entity.NewWalletError(entity.KindAccount, "", nil)
	}
	pk, err := entity.NewPublicKey(raw)
	if err != nil {
		return entity.PublicKey{}, entity.NewWalletError(entity.KindPublicKey, err.Error(), err)
	}

	s := newSession(wallet)
	a.mu.Lock()
	a.wallet = wallet
	a.publicKey = &pk
	a.session = s
	a.mu.Unlock()
	go a.watch(s)

	return pk, nil
}

func (a *Adapter) redirect() error {
	href, origin := a.scope.Location()
	target := browseURL(href, origin)
	a.logger.Info("Redirecting to wallet browser", "wallet", WalletName, "url", target)
	if err := a.scope.Navigate(target); err != nil {
		return a.fail(entity.NewWalletError(entity.KindConnection, fmt.Sprintf("redirect to %s failed: %v", target, err), err))
	}
	return nil
}

// Disconnect ends the session. Failures of the injected wallet are reported
// through the error event; the disconnect event is always emitted.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	wallet, s := a.wallet, a.session
	a.wallet = nil
	a.publicKey = nil
	a.session = nil
	a.mu.Unlock()

	if wallet != nil {
		if s != nil {
			s.end()
		}
		if err := wallet.Disconnect(ctx); err != nil {
			a.logger.Warn("Wallet disconnect failed", "wallet", WalletName, "error", err)
			a.Emit(entity.Errored(entity.NewWalletError(entity.KindDisconnection, err.Error(), err)))
		}
	}

	a.Emit(entity.Disconnected())
	return nil
}

func (a *Adapter) SendTransaction(
	ctx context.Context,
	tx entity.Transaction,
	conn port.Connection,
	opts entity.SendTransactionOptions,
) (string, error) {
	wallet, pk := a.active()
	if wallet == nil {
		return "", a.fail(entity.NewWalletError(entity.KindNotConnected, "", nil))
	}

	signature, err := func() (string, error) {
		sendOpts := opts.SendOptions
		switch t := tx.(type) {
		case *entity.VersionedTransaction:
			if len(opts.Signers) > 0 {
				if err := t.Sign(opts.Signers...); err != nil {
					return "", err
				}
			}
		case *entity.LegacyTransaction:
			if _, err := walletadapter.PrepareTransaction(ctx, t, conn, pk, sendOpts); err != nil {
				return "", err
			}
			if len(opts.Signers) > 0 {
				if err := t.PartialSign(opts.Signers...); err != nil {
					return "", err
				}
			}
		default:
			return "", fmt.Errorf("unsupported transaction type %T", tx)
		}

		if sendOpts.PreflightCommitment == "" && conn != nil {
			sendOpts.PreflightCommitment = conn.Commitment()
		}
		return wallet.SignAndSendTransaction(ctx, tx, sendOpts)
	}()
	if err != nil {
		return "", a.fail(entity.WrapWalletError(entity.KindSendTransaction, err))
	}
	return signature, nil
}

func (a *Adapter) SignTransaction(ctx context.Context, tx entity.Transaction) (entity.Transaction, error) {
	wallet, _ := a.active()
	if wallet == nil {
		return nil, a.fail(entity.NewWalletError(entity.KindNotConnected, "", nil))
	}
	signed, err := wallet.SignTransaction(ctx, tx)
	if err != nil {
		return nil, a.fail(entity.WrapWalletError(entity.KindSignTransaction, err))
	}
	if signed == nil {
		return tx, nil
	}
	return signed, nil
}

func (a *Adapter) SignAllTransactions(ctx context.Context, txs []entity.Transaction) ([]entity.Transaction, error) {
	wallet, _ := a.active()
	if wallet == nil {
		return nil, a.fail(entity.NewWalletError(entity.KindNotConnected, "", nil))
	}
	signed, err := wallet.SignAllTransactions(ctx, txs)
	if err != nil {
		return nil, a.fail(entity.WrapWalletError(entity.KindSignTransaction, err))
	}
	if signed == nil {
		return txs, nil
	}
	return signed, nil
}

func (a *Adapter) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	wallet, _ := a.active()
	if wallet == nil {
		return nil, a.fail(entity.NewWalletError(entity.KindNotConnected, "", nil))
	}
	signature, err := wallet.SignMessage(ctx, message)
	if err != nil {
		return nil, a.fail(entity.WrapWalletError(entity.KindSignMessage, err))
	}
	return signature, nil
}

// Close stops detection and drops a live session without asking the wallet to disconnect.
func (a *Adapter) Close() {
	a.stopDetection()

	a.mu.Lock()
	s := a.session
	a.wallet = nil
	a.publicKey = nil
	a.session = nil
	a.mu.Unlock()
	if s != nil {
		s.end()
	}
	a.CloseEvents()
}

func (a *Adapter) active() (port.InjectedWallet, *entity.PublicKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.wallet == nil {
		return nil, nil
	}
	pk := *a.publicKey
	return a.wallet, &pk
}

// fail publishes err on the error event and returns it.
func (a *Adapter) fail(err error) error {
	a.Emit(entity.Errored(err))
	return err
}
