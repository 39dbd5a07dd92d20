package provider

import (
	"context"
	"errors"
	"sync"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/app/walletadapter"
	"wallet_adapter/internal/domain/entity"
)

type mockAdapter struct {
	walletadapter.Emitter

	name entity.WalletName
	url  string

	mu               sync.Mutex
	readyState       entity.WalletReadyState
	publicKey        *entity.PublicKey
	connected        bool
	connectErr       error
	connectCalls     int
	autoConnectCalls int
	disconnectCalls  int
	sent             entity.Transaction
}

var _ port.Adapter = (*mockAdapter)(nil)

func newMockAdapter(name entity.WalletName, seed byte) *mockAdapter {
	pk := entity.PublicKey{seed}
	return &mockAdapter{
		name:       name,
		url:        "https://" + string(name) + ".example.com",
		readyState: entity.ReadyStateInstalled,
		publicKey:  &pk,
	}
}

func (m *mockAdapter) Name() entity.WalletName { return m.name }
func (m *mockAdapter) URL() string             { return m.url }
func (m *mockAdapter) Icon() string            { return "data:image/png;base64," }

func (m *mockAdapter) ReadyState() entity.WalletReadyState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readyState
}

func (m *mockAdapter) PublicKey() *entity.PublicKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.publicKey
}

func (m *mockAdapter) Connecting() bool { return false }

func (m *mockAdapter) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockAdapter) SupportedTransactionVersions() []entity.TransactionVersion {
	return []entity.TransactionVersion{entity.TransactionVersionLegacy}
}

func (m *mockAdapter) AutoConnect(context.Context) error {
	m.mu.Lock()
	m.autoConnectCalls++
	m.mu.Unlock()
	return m.connect()
}

func (m *mockAdapter) Connect(context.Context) error {
	m.mu.Lock()
	m.connectCalls++
	m.mu.Unlock()
	return m.connect()
}

func (m *mockAdapter) connect() error {
	m.mu.Lock()
	if m.connectErr != nil {
		err := m.connectErr
		m.mu.Unlock()
		m.Emit(entity.Errored(err))
		return err
	}
	m.connected = true
	pk := *m.publicKey
	m.mu.Unlock()
	m.Emit(entity.Connected(pk))
	return nil
}

func (m *mockAdapter) Disconnect(context.Context) error {
	m.mu.Lock()
	m.disconnectCalls++
	m.connected = false
	m.mu.Unlock()
	m.Emit(entity.Disconnected())
	return nil
}

func (m *mockAdapter) SendTransaction(_ context.Context, tx entity.Transaction, _ port.Connection, _ entity.SendTransactionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = tx
	return "sig", nil
}

func (m *mockAdapter) SignTransaction(_ context.Context, tx entity.Transaction) (entity.Transaction, error) {
	return tx, nil
}

func (m *mockAdapter) SignAllTransactions(_ context.Context, txs []entity.Transaction) ([]entity.Transaction, error) {
	return txs, nil
}

func (m *mockAdapter) SignMessage(_ context.Context, message []byte) ([]byte, error) {
	return append([]byte("signed:"), message...), nil
}

func (m *mockAdapter) Close() {
	m.CloseEvents()
}

func (m *mockAdapter) setReadyState(state entity.WalletReadyState) {
	m.mu.Lock()
	m.readyState = state
	m.mu.Unlock()
	m.Emit(entity.ReadyStateChanged(state))
}

func (m *mockAdapter) calls() (connect, autoConnect, disconnect int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls, m.autoConnectCalls, m.disconnectCalls
}

// memStore records writes the way the storage mock of a browser test would.
type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	sets    []string
	removes []string
	getErr  error
}

var _ port.KeyValueStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.sets = append(s.sets, key+"="+value)
	return nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.removes = append(s.removes, key)
	return nil
}

func (s *memStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *memStore) removed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.removes {
		if k == key {
			return true
		}
	}
	return false
}

func (s *memStore) clearCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = nil
	s.removes = nil
}

var errRejected = errors.New("user rejected the request")
