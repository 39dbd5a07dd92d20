package bbawallet

import (
	"context"
	"errors"
	"sync"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/domain/entity"

	"github.com/ethereum/go-ethereum/event"
)

type mockWallet struct {
	mu sync.Mutex

	present   bool
	connected bool
	publicKey []byte

	connectErr    error
	disconnectErr error
	signErr       error
	sendErr       error

	signedTx   entity.Transaction
	signedTxs  []entity.Transaction
	signature  []byte
	sendResult string

	connectCalls    int
	disconnectCalls int
	sentTx          entity.Transaction
	sentOpts        entity.SendOptions

	// connectGate holds Connect until it is closed.
	connectGate chan struct{}

	disconnectFeed event.FeedOf[struct{}]
	accountFeed    event.FeedOf[[]byte]
	subs           *event.SubscriptionScope
}

var _ port.InjectedWallet = (*mockWallet)(nil)

func newMockWallet(pk entity.PublicKey) *mockWallet {
	return &mockWallet{present: true, publicKey: pk.Bytes(), sendResult: "sig-1", subs: new(event.SubscriptionScope)}
}

func (m *mockWallet) IsBBAWallet() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present
}

func (m *mockWallet) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockWallet) PublicKey() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.publicKey
}

func (m *mockWallet) Connect(context.Context) error {
	m.mu.Lock()
	gate := m.connectGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *mockWallet) Disconnect(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectCalls++
	m.connected = false
	return m.disconnectErr
}

func (m *mockWallet) SignTransaction(_ context.Context, _ entity.Transaction) (entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signedTx, m.signErr
}

func (m *mockWallet) SignAllTransactions(_ context.Context, _ []entity.Transaction) ([]entity.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signedTxs, m.signErr
}

func (m *mockWallet) SignAndSendTransaction(_ context.Context, tx entity.Transaction, opts entity.SendOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentTx = tx
	m.sentOpts = opts
	if m.sendErr != nil {
		return "", m.sendErr
	}
	return m.sendResult, nil
}

func (m *mockWallet) SignMessage(_ context.Context, _ []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signature, m.signErr
}

func (m *mockWallet) SubscribeDisconnect(ch chan<- struct{}) event.Subscription {
	return m.scope().Track(m.disconnectFeed.Subscribe(ch))
}

func (m *mockWallet) SubscribeAccountChanged(ch chan<- []byte) event.Subscription {
	return m.scope().Track(m.accountFeed.Subscribe(ch))
}

func (m *mockWallet) scope() *event.SubscriptionScope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs
}

// dropSubscriptions ends every live subscription the way a vanished bridge does.
// Later subscriptions work again.
func (m *mockWallet) dropSubscriptions() {
	m.mu.Lock()
	subs := m.subs
	m.subs = new(event.SubscriptionScope)
	m.mu.Unlock()
	subs.Close()
}

func (m *mockWallet) connects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls
}

func (m *mockWallet) setPublicKey(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publicKey = raw
}

type mockScope struct {
	mu           sync.Mutex
	redirectable bool
	objects      map[string]port.InjectedWallet
	href, origin string
	navigated    []string
	navigateErr  error
}

var _ port.Scope = (*mockScope)(nil)

func newMockScope() *mockScope {
	return &mockScope{
		objects: make(map[string]port.InjectedWallet),
		href:    "https://app.example.com/swap?from=BBA",
		origin:  "https://app.example.com",
	}
}

func (s *mockScope) Available() bool    { return true }
func (s *mockScope) Redirectable() bool { return s.redirectable }

func (s *mockScope) Lookup(path string) (port.InjectedWallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.objects[path]
	return w, ok
}

func (s *mockScope) Location() (string, string) {
	return s.href, s.origin
}

func (s *mockScope) Navigate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.navigateErr != nil {
		return s.navigateErr
	}
	s.navigated = append(s.navigated, url)
	return nil
}

func (s *mockScope) inject(path string, w port.InjectedWallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = w
}

func (s *mockScope) navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

type fakeConnection struct {
	mu         sync.Mutex
	blockhash  string
	commitment entity.Commitment
	calls      int
	lastCommit entity.Commitment
	err        error
}

var _ port.Connection = (*fakeConnection)(nil)

func (c *fakeConnection) Endpoint() string              { return "http://127.0.0.1:8899" }
func (c *fakeConnection) Commitment() entity.Commitment { return c.commitment }

func (c *fakeConnection) GetLatestBlockhash(_ context.Context, commitment entity.Commitment, _ *uint64) (entity.BlockhashWithExpiry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.lastCommit = commitment
	if c.err != nil {
		return entity.BlockhashWithExpiry{}, c.err
	}
	return entity.BlockhashWithExpiry{Blockhash: c.blockhash, LastValidBlockHeight: 100}, nil
}

// recorder collects adapter events through a synchronous listener.
type recorder struct {
	mu     sync.Mutex
	events []entity.AdapterEvent
}

func record(a port.Adapter) *recorder {
	r := &recorder{}
	a.On(func(ev entity.AdapterEvent) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) kinds() []entity.AdapterEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.AdapterEventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recorder) all() []entity.AdapterEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.AdapterEvent(nil), r.events...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

var errBoom = errors.New("boom")
