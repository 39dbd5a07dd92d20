package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/domain/entity"
	"wallet_adapter/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/event"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultLocalStorageKey is the store key of the selected wallet name.
const DefaultLocalStorageKey = "walletName"

// Options configures a WalletProvider.
type Options struct {
	Wallets []port.Adapter
	Store   port.KeyValueStore
	// LocalStorageKey defaults to DefaultLocalStorageKey.
	LocalStorageKey string
	AutoConnect     bool
	// ShouldAutoConnect, when set, is asked before every auto-connect attempt.
	ShouldAutoConnect func(ctx context.Context, adapter port.Adapter) bool
	// OnError replaces the default error handler, which logs and opens the
	// wallet url on not-ready errors.
	OnError func(err error, adapter port.Adapter)
	OpenURL func(url string)
	Logger  port.Logger
}

// Wallet is a configured adapter with its last known ready state.
type Wallet struct {
	Adapter    port.Adapter
	ReadyState entity.WalletReadyState
}

// State is a snapshot of the provider.
type State struct {
	AutoConnect   bool
	Wallets       []Wallet
	Wallet        *Wallet
	PublicKey     *entity.PublicKey
	Connecting    bool
	Connected     bool
	Disconnecting bool
}

// WalletProvider tracks the selected wallet and its account for the application.
type WalletProvider struct {
	adapters          []port.Adapter
	store             port.KeyValueStore
	storageKey        string
	autoConnect       bool
	shouldAutoConnect func(ctx context.Context, adapter port.Adapter) bool
	onError           func(err error, adapter port.Adapter)
	openURL           func(url string)
	logger            port.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                   sync.Mutex
	readyStates          map[entity.WalletName]entity.WalletReadyState
	name                 *entity.WalletName
	adapter              port.Adapter
	publicKey            *entity.PublicKey
	connected            bool
	connecting           bool
	disconnecting        bool
	userSelected         bool
	attemptedAutoConnect bool
	unloading            bool
	closed               bool
	detach               func()
	offReady             []func()

	persistMu sync.Mutex

	feed  event.FeedOf[State]
	scope event.SubscriptionScope
}

// NewWalletProvider restores the persisted selection and runs the first auto-connect check.
func NewWalletProvider(opts Options) (*WalletProvider, error) {
	if opts.Store == nil {
		return nil, errors.New("wallet provider requires a key-value store")
	}
	l := opts.Logger
	if l == nil {
		l = logger.NewNop()
	}
	p := &WalletProvider{
		adapters:          opts.Wallets,
		store:             opts.Store,
		storageKey:        opts.LocalStorageKey,
		autoConnect:       opts.AutoConnect,
		shouldAutoConnect: opts.ShouldAutoConnect,
		onError:           opts.OnError,
		openURL:           opts.OpenURL,
		logger:            l,
		readyStates:       make(map[entity.WalletName]entity.WalletReadyState, len(opts.Wallets)),
	}
	if p.storageKey == "" {
		p.storageKey = DefaultLocalStorageKey
	}
	if p.openURL == nil {
		p.openURL = func(url string) {
			p.logger.Info("Open wallet url", "url", url)
		}
	}

	seen := make(map[entity.WalletName]struct{}, len(opts.Wallets))
	for _, a := range opts.Wallets {
		if _, dup := seen[a.Name()]; dup {
			return nil, fmt.Errorf("duplicate wallet adapter %q", a.Name())
		}
		seen[a.Name()] = struct{}{}
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	// Listen first so a change between the read and the registration is not lost.
	for _, a := range opts.Wallets {
		adapter := a
		p.offReady = append(p.offReady, adapter.On(func(ev entity.AdapterEvent) {
			if ev.Kind == entity.EventReadyStateChange {
				p.readyStateChanged(adapter, ev.ReadyState)
			}
		}))
	}
	p.mu.Lock()
	for _, a := range opts.Wallets {
		p.readyStates[a.Name()] = a.ReadyState()
	}
	p.mu.Unlock()

	name := p.loadName()
	p.mu.Lock()
	p.setSelectionLocked(name)
	p.mu.Unlock()
	if name != nil {
		p.logger.Debug("Restored selected wallet", "wallet", *name, "found", p.State().Wallet != nil)
	}

	p.maybeAutoConnect()
	return p, nil
}

// State returns a snapshot of the current state.
func (p *WalletProvider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *WalletProvider) stateLocked() State {
	st := State{
		AutoConnect:   p.autoConnect,
		Wallets:       make([]Wallet, 0, len(p.adapters)),
		Connecting:    p.connecting,
		Connected:     p.connected,
		Disconnecting: p.disconnecting,
	}
	for _, a := range p.adapters {
		w := Wallet{Adapter: a, ReadyState: p.readyStates[a.Name()]}
		st.Wallets = append(st.Wallets, w)
		if a == p.adapter {
			selected := w
			st.Wallet = &selected
		}
	}
	if p.publicKey != nil {
		pk := *p.publicKey
		st.PublicKey = &pk
	}
	return st
}

// SubscribeState delivers state snapshots to ch. A subscriber that falls behind
// never stalls the provider: undelivered snapshots are replaced by the newest one.
func (p *WalletProvider) SubscribeState(ch chan<- State) event.Subscription {
	in := make(chan State, 1)
	inner := p.feed.Subscribe(in)
	sub := event.NewSubscription(func(quit <-chan struct{}) error {
		defer inner.Unsubscribe()
		var (
			pending State
			out     chan<- State
		)
		for {
			select {
			case st := <-in:
				pending, out = st, ch
			case out <- pending:
				out = nil
			case err := <-inner.Err():
				return err
			case <-quit:
				return nil
			}
		}
	})
	if tracked := p.scope.Track(sub); tracked != nil {
		return tracked
	}
	sub.Unsubscribe()
	return event.NewSubscription(func(<-chan struct{}) error { return nil })
}

// Select makes name the selected wallet. Selecting the current wallet does nothing;
// otherwise the previous adapter is disconnected.
func (p *WalletProvider) Select(name entity.WalletName) {
	p.selectWallet(&name, true, true)
}

// Deselect clears the selection and disconnects the previous adapter.
func (p *WalletProvider) Deselect() {
	p.selectWallet(nil, true, true)
}

// BeforeUnload marks the page as unloading: disconnects no longer clear the
// persisted wallet and errors are no longer reported.
func (p *WalletProvider) BeforeUnload() {
	p.mu.Lock()
	p.unloading = true
	p.mu.Unlock()
	p.logger.Debug("Page unloading")
}

// Connect connects the selected adapter.
func (p *WalletProvider) Connect(ctx context.Context) error {
	p.mu.Lock()
	adapter := p.adapter
	if p.connecting || p.disconnecting || (adapter != nil && adapter.Connected()) {
		p.mu.Unlock()
		return nil
	}
	if adapter == nil {
		p.mu.Unlock()
		return p.handleError(entity.NewWalletError(entity.KindNotSelected, "", nil), nil)
	}
	if !p.readyStates[adapter.Name()].Usable() {
		p.mu.Unlock()
		p.selectWallet(nil, false, false)
		return p.handleError(entity.NewWalletError(entity.KindNotReady, "", nil), adapter)
	}
	p.connecting = true
	p.mu.Unlock()
	p.publish()

	err := adapter.Connect(ctx)

	p.mu.Lock()
	p.connecting = false
	p.mu.Unlock()
	if err != nil {
		p.logger.Warn("Wallet connect failed", "wallet", adapter.Name(), "error", err)
		p.connectFailed(adapter)
	}
	p.publish()
	return err
}

// Disconnect disconnects the selected adapter.
func (p *WalletProvider) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	adapter := p.adapter
	if p.disconnecting || adapter == nil {
		p.mu.Unlock()
		return nil
	}
	p.disconnecting = true
	p.mu.Unlock()
	p.publish()

	err := adapter.Disconnect(ctx)

	p.mu.Lock()
	p.disconnecting = false
	p.mu.Unlock()
	p.publish()
	return err
}

// SendTransaction signs and submits tx through the connected wallet.
func (p *WalletProvider) SendTransaction(
	ctx context.Context,
	tx entity.Transaction,
	conn port.Connection,
	opts entity.SendTransactionOptions,
) (string, error) {
	adapter, err := p.connectedAdapter()
	if err != nil {
		return "", err
	}
	return adapter.SendTransaction(ctx, tx, conn, opts)
}

func (p *WalletProvider) SignTransaction(ctx context.Context, tx entity.Transaction) (entity.Transaction, error) {
	adapter, err := p.connectedAdapter()
	if err != nil {
		return nil, err
	}
	return adapter.SignTransaction(ctx, tx)
}

func (p *WalletProvider) SignAllTransactions(ctx context.Context, txs []entity.Transaction) ([]entity.Transaction, error) {
	adapter, err := p.connectedAdapter()
	if err != nil {
		return nil, err
	}
	return adapter.SignAllTransactions(ctx, txs)
}

func (p *WalletProvider) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	adapter, err := p.connectedAdapter()
	if err != nil {
		return nil, err
	}
	return adapter.SignMessage(ctx, message)
}

// Close detaches from all adapters and waits for background connects and disconnects.
// The adapters themselves stay open.
func (p *WalletProvider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	detach, offReady := p.detach, p.offReady
	p.detach, p.offReady = nil, nil
	p.mu.Unlock()

	p.cancel()
	if detach != nil {
		detach()
	}
	for _, off := range offReady {
		off()
	}
	p.wg.Wait()
	p.scope.Close()
}

func (p *WalletProvider) connectedAdapter() (port.Adapter, error) {
	p.mu.Lock()
	adapter, connected := p.adapter, p.connected
	p.mu.Unlock()
	if adapter == nil {
		return nil, p.handleError(entity.NewWalletError(entity.KindNotSelected, "", nil), nil)
	}
	if !connected {
		return nil, p.handleError(entity.NewWalletError(entity.KindNotConnected, "", nil), adapter)
	}
	return adapter, nil
}

// selectWallet changes the selection and persists it. With disconnectPrevious the
// previous adapter is disconnected in the background after its listeners are detached.
// byUser marks the selection as user input, which only counts when it changes something.
func (p *WalletProvider) selectWallet(name *entity.WalletName, disconnectPrevious, byUser bool) {
	p.mu.Lock()
	if sameName(p.name, name) {
		p.mu.Unlock()
		return
	}
	if byUser {
		p.userSelected = true
	}
	previous := p.adapter
	p.setSelectionLocked(name)
	p.mu.Unlock()

	if previous != nil && disconnectPrevious {
		p.goTracked(func() {
			if err := previous.Disconnect(p.ctx); err != nil {
				p.logger.Warn("Failed to disconnect previous wallet", "wallet", previous.Name(), "error", err)
			}
		})
	}
	if name != nil {
		p.logger.Info("Wallet selected", "wallet", *name)
	} else {
		p.logger.Info("Wallet selection cleared")
	}

	p.persist()
	p.publish()
	p.maybeAutoConnect()
}

func (p *WalletProvider) setSelectionLocked(name *entity.WalletName) {
	if p.detach != nil {
		p.detach()
		p.detach = nil
	}
	p.name = name
	p.adapter = nil
	p.publicKey = nil
	p.connected = false
	p.attemptedAutoConnect = false
	if name == nil {
		return
	}
	for _, a := range p.adapters {
		if a.Name() == *name {
			p.adapter = a
			break
		}
	}
	if p.adapter != nil {
		p.publicKey = p.adapter.PublicKey()
		p.connected = p.adapter.Connected()
		p.detach = p.attach(p.adapter)
	}
}

func (p *WalletProvider) attach(adapter port.Adapter) func() {
	return adapter.On(func(ev entity.AdapterEvent) {
		switch ev.Kind {
		case entity.EventConnect:
			p.adapterConnected(adapter, ev.PublicKey)
		case entity.EventDisconnect:
			p.adapterDisconnected(adapter)
		case entity.EventError:
			_ = p.handleError(ev.Err, adapter)
		}
	})
}

func (p *WalletProvider) adapterConnected(adapter port.Adapter, pk *entity.PublicKey) {
	p.mu.Lock()
	if p.adapter != adapter {
		p.mu.Unlock()
		return
	}
	if pk != nil {
		key := *pk
		p.publicKey = &key
	}
	p.connected = true
	p.mu.Unlock()
	p.publish()
}

func (p *WalletProvider) adapterDisconnected(adapter port.Adapter) {
	p.mu.Lock()
	if p.adapter != adapter {
		p.mu.Unlock()
		return
	}
	p.publicKey = nil
	p.connected = false
	unloading := p.unloading
	p.mu.Unlock()

	if unloading {
		p.publish()
		return
	}
	p.selectWallet(nil, false, false)
}

func (p *WalletProvider) readyStateChanged(adapter port.Adapter, state entity.WalletReadyState) {
	p.mu.Lock()
	p.readyStates[adapter.Name()] = state
	selected := p.adapter == adapter
	p.mu.Unlock()

	p.logger.Debug("Wallet ready state changed", "wallet", adapter.Name(), "ready_state", state)
	p.publish()
	if selected {
		p.maybeAutoConnect()
	}
}

// maybeAutoConnect attempts one auto-connect per selected adapter once it is usable.
func (p *WalletProvider) maybeAutoConnect() {
	p.mu.Lock()
	adapter := p.adapter
	if !p.autoConnect || p.closed || adapter == nil || p.attemptedAutoConnect ||
		p.connecting || p.connected || !p.readyStates[adapter.Name()].Usable() {
		p.mu.Unlock()
		return
	}
	p.attemptedAutoConnect = true
	p.connecting = true
	userSelected := p.userSelected
	p.wg.Add(1)
	p.mu.Unlock()
	p.publish()

	go func() {
		defer p.wg.Done()
		err := p.requestAutoConnect(adapter, userSelected)

		p.mu.Lock()
		p.connecting = false
		p.mu.Unlock()
		if err != nil {
			p.logger.Warn("Wallet auto-connect failed", "wallet", adapter.Name(), "error", err)
			p.connectFailed(adapter)
		}
		p.publish()
	}()
}

// requestAutoConnect uses Connect after a user selection, since user input is
// already behind it, and AutoConnect for a restored selection.
func (p *WalletProvider) requestAutoConnect(adapter port.Adapter, userSelected bool) error {
	if p.shouldAutoConnect != nil && !p.shouldAutoConnect(p.ctx, adapter) {
		return nil
	}
	if userSelected {
		return adapter.Connect(p.ctx)
	}
	return adapter.AutoConnect(p.ctx)
}

// connectFailed unselects adapter if it is still the selected one.
func (p *WalletProvider) connectFailed(adapter port.Adapter) {
	p.mu.Lock()
	current := p.adapter == adapter
	p.mu.Unlock()
	if current {
		p.selectWallet(nil, true, false)
	}
}

func (p *WalletProvider) handleError(err error, adapter port.Adapter) error {
	p.mu.Lock()
	unloading := p.unloading
	p.mu.Unlock()
	if unloading {
		return err
	}
	if p.onError != nil {
		p.onError(err, adapter)
		return err
	}

	var name entity.WalletName
	if adapter != nil {
		name = adapter.Name()
	}
	p.logger.Error("Wallet error", "wallet", name, "error", err)
	if adapter != nil && errors.Is(err, entity.ErrWalletNotReady) {
		p.openURL(adapter.URL())
	}
	return err
}

func (p *WalletProvider) loadName() *entity.WalletName {
	raw, ok, err := p.store.Get(p.ctx, p.storageKey)
	if err != nil {
		p.logger.Warn("Failed to read stored wallet name", "key", p.storageKey, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var name *entity.WalletName
	if err := json.Unmarshal([]byte(raw), &name); err != nil {
		p.logger.Warn("Ignoring malformed stored wallet name", "key", p.storageKey, "value", raw, "error", err)
		return nil
	}
	return name
}

// persist writes the current selection. Writes are serialized so the store
// always ends up with the latest selection.
func (p *WalletProvider) persist() {
	p.persistMu.Lock()
	defer p.persistMu.Unlock()

	p.mu.Lock()
	name := p.name
	p.mu.Unlock()

	var err error
	if name == nil {
		err = p.store.Remove(p.ctx, p.storageKey)
	} else {
		var data []byte
		data, err = json.Marshal(*name)
		if err == nil {
			err = p.store.Set(p.ctx, p.storageKey, string(data))
		}
	}
	if err != nil {
		p.logger.Error("Failed to persist selected wallet", "key", p.storageKey, "error", err)
	}
}

func (p *WalletProvider) publish() {
	p.feed.Send(p.State())
}

func (p *WalletProvider) goTracked(fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.wg.Done()
		fn()
	}()
}

func sameName(a, b *entity.WalletName) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
