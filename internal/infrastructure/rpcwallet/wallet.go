package rpcwallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/domain/entity"
	"wallet_adapter/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
)

// Namespace is the JSON-RPC namespace a wallet bridge serves its methods under.
const Namespace = "bbawallet"

const defaultCallTimeout = 30 * time.Second

// Options tunes a Wallet.
type Options struct {
	CallTimeout time.Duration
	Logger      port.Logger
}

// Wallet is a port.InjectedWallet whose calls are forwarded to a wallet bridge over
// JSON-RPC. Presence, connection and account are cached from the last call or
// notification so the synchronous accessors never block.
type Wallet struct {
	client      *rpc.Client
	callTimeout time.Duration
	logger      port.Logger

	mu        sync.RWMutex
	present   bool
	connected bool
	publicKey []byte

	disconnectFeed event.FeedOf[struct{}]
	accountFeed    event.FeedOf[[]byte]
	scope          event.SubscriptionScope

	quit      chan struct{}
	ended     chan struct{}
	endOnce   sync.Once
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ port.InjectedWallet = (*Wallet)(nil)

type sendResult struct {
	Signature string `json:"signature"`
}

type signMessageResult struct {
	Signature hexutil.Bytes `json:"signature"`
}

// Dial connects to a wallet bridge at rawURL. Notifications need a websocket or IPC endpoint.
func Dial(ctx context.Context, rawURL string, opts Options) (*Wallet, error) {
	client, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet bridge %s: %w", rawURL, err)
	}
	w, err := New(ctx, client, opts)
	if err != nil {
		client.Close()
		return nil, err
	}
	return w, nil
}

// New wraps an RPC client, loads the wallet's current state and subscribes to its notifications.
// The Wallet owns client from here on.
func New(ctx context.Context, client *rpc.Client, opts Options) (*Wallet, error) {
	w := &Wallet{
		client:      client,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
		quit:        make(chan struct{}),
		ended:       make(chan struct{}),
	}
	if w.callTimeout <= 0 {
		w.callTimeout = defaultCallTimeout
	}
	if w.logger == nil {
		w.logger = logger.NewNop()
	}

	if err := w.refresh(ctx); err != nil {
		return nil, err
	}
	if err := w.subscribe(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// refresh loads presence, connection and account in one batch.
func (w *Wallet) refresh(ctx context.Context) error {
	var (
		present   bool
		connected bool
		publicKey hexutil.Bytes
	)
	batch := []rpc.BatchElem{
		{Method: Namespace + "_isBBAWallet", Result: &present},
		{Method: Namespace + "_isConnected", Result: &connected},
		{Method: Namespace + "_publicKey", Result: &publicKey},
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()
	if err := w.client.BatchCallContext(callCtx, batch); err != nil {
		return fmt.Errorf("wallet bridge batch call failed: %w", err)
	}
	for _, elem := range batch {
		if elem.Error != nil {
			return fmt.Errorf("wallet bridge %s failed: %w", elem.Method, elem.Error)
		}
	}

	w.mu.Lock()
	w.present = present
	w.connected = connected
	w.publicKey = nonEmpty(publicKey)
	w.mu.Unlock()
	return nil
}

func (w *Wallet) subscribe(ctx context.Context) error {
	disconnectCh := make(chan struct{}, 4)
	disconnectSub, err := w.client.Subscribe(ctx, Namespace, disconnectCh, "disconnected")
	if errors.Is(err, rpc.ErrNotificationsUnsupported) {
		w.logger.Warn("Wallet bridge transport has no notifications, disconnects and account changes will be missed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to subscribe to wallet disconnects: %w", err)
	}

	accountCh := make(chan hexutil.Bytes, 8)
	accountSub, err := w.client.Subscribe(ctx, Namespace, accountCh, "accountChanged")
	if err != nil {
		disconnectSub.Unsubscribe()
		return fmt.Errorf("failed to subscribe to wallet account changes: %w", err)
	}

	w.wg.Add(1)
	go w.forward(disconnectSub, disconnectCh, accountSub, accountCh)
	return nil
}

// forward keeps the cache current and republishes bridge notifications to local subscribers.
func (w *Wallet) forward(disconnectSub *rpc.ClientSubscription, disconnectCh <-chan struct{}, accountSub *rpc.ClientSubscription, accountCh <-chan hexutil.Bytes) {
	defer w.wg.Done()
	defer w.end()
	defer disconnectSub.Unsubscribe()
	defer accountSub.Unsubscribe()

	for {
		select {
		case <-disconnectCh:
			w.mu.Lock()
			w.connected = false
			w.mu.Unlock()
			w.logger.Debug("Wallet bridge reported disconnect")
			w.disconnectFeed.Send(struct{}{})
		case raw := <-accountCh:
			key := nonEmpty(raw)
			w.mu.Lock()
			w.publicKey = key
			w.mu.Unlock()
			w.logger.Debug("Wallet bridge reported account change")
			w.accountFeed.Send(key)
		case err := <-disconnectSub.Err():
			w.subscriptionEnded(err)
			return
		case err := <-accountSub.Err():
			w.subscriptionEnded(err)
			return
		case <-w.quit:
			return
		}
	}
}

// subscriptionEnded marks the bridge gone. A connected wallet is reported as
// disconnected to local subscribers, the same as a bridge-side disconnect.
func (w *Wallet) subscriptionEnded(err error) {
	if err != nil {
		w.logger.Warn("Wallet bridge subscription ended", "error", err)
	}
	w.mu.Lock()
	wasConnected := w.connected
	w.present = false
	w.connected = false
	w.mu.Unlock()
	if wasConnected {
		w.disconnectFeed.Send(struct{}{})
	}
}

func (w *Wallet) IsBBAWallet() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.present
}

func (w *Wallet) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *Wallet) PublicKey() []byte {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.publicKey == nil {
		return nil
	}
	return append([]byte(nil), w.publicKey...)
}

func (w *Wallet) Connect(ctx context.Context) error {
	if err := w.call(ctx, nil, "connect"); err != nil {
		return err
	}
	var publicKey hexutil.Bytes
	if err := w.call(ctx, &publicKey, "publicKey"); err != nil {
		return err
	}
	w.mu.Lock()
	w.connected = true
	w.publicKey = nonEmpty(publicKey)
	w.mu.Unlock()
	return nil
}

func (w *Wallet) Disconnect(ctx context.Context) error {
	err := w.call(ctx, nil, "disconnect")
	w.mu.Lock()
	w.connected = false
	w.publicKey = nil
	w.mu.Unlock()
	return err
}

func (w *Wallet) SignTransaction(ctx context.Context, tx entity.Transaction) (entity.Transaction, error) {
	env, err := entity.Envelope(tx)
	if err != nil {
		return nil, err
	}
	var signed *entity.TransactionEnvelope
	if err := w.call(ctx, &signed, "signTransaction", env); err != nil {
		return nil, err
	}
	if signed == nil {
		return nil, nil
	}
	return signed.Transaction()
}

func (w *Wallet) SignAllTransactions(ctx context.Context, txs []entity.Transaction) ([]entity.Transaction, error) {
	envs := make([]entity.TransactionEnvelope, 0, len(txs))
	for _, tx := range txs {
		env, err := entity.Envelope(tx)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	var signed []entity.TransactionEnvelope
	if err := w.call(ctx, &signed, "signAllTransactions", envs); err != nil {
		return nil, err
	}
	if signed == nil {
		return nil, nil
	}
	out := make([]entity.Transaction, 0, len(signed))
	for _, env := range signed {
		tx, err := env.Transaction()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (w *Wallet) SignAndSendTransaction(ctx context.Context, tx entity.Transaction, opts entity.SendOptions) (string, error) {
	env, err := entity.Envelope(tx)
	if err != nil {
		return "", err
	}
	var res sendResult
	if err := w.call(ctx, &res, "signAndSendTransaction", env, opts); err != nil {
		return "", err
	}
	return res.Signature, nil
}

func (w *Wallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	var res signMessageResult
	if err := w.call(ctx, &res, "signMessage", hexutil.Bytes(message)); err != nil {
		return nil, err
	}
	return res.Signature, nil
}

func (w *Wallet) SubscribeDisconnect(ch chan<- struct{}) event.Subscription {
	return w.track(w.disconnectFeed.Subscribe(ch))
}

func (w *Wallet) SubscribeAccountChanged(ch chan<- []byte) event.Subscription {
	return w.track(w.accountFeed.Subscribe(ch))
}

func (w *Wallet) track(sub event.Subscription) event.Subscription {
	if tracked := w.scope.Track(sub); tracked != nil {
		return tracked
	}
	sub.Unsubscribe()
	return event.NewSubscription(func(<-chan struct{}) error { return nil })
}

// Done is closed once the bridge notifications stop, e.g. because the bridge went
// away, or when the Wallet is closed.
func (w *Wallet) Done() <-chan struct{} {
	return w.ended
}

func (w *Wallet) end() {
	w.endOnce.Do(func() { close(w.ended) })
}

// Close ends local subscriptions and closes the RPC client.
func (w *Wallet) Close() {
	w.closeOnce.Do(func() {
		close(w.quit)
		w.wg.Wait()
		w.end()
		w.scope.Close()
		w.client.Close()
	})
}

func (w *Wallet) call(ctx context.Context, result any, method string, args ...any) error {
	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()
	if err := w.client.CallContext(callCtx, result, Namespace+"_"+method, args...); err != nil {
		return fmt.Errorf("wallet bridge %s: %w", method, err)
	}
	return nil
}

func nonEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
