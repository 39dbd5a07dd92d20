package rpcwallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wallet_adapter/internal/app/walletadapter/bbawallet"
	"wallet_adapter/internal/domain/entity"
	"wallet_adapter/internal/infrastructure/scope"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscriber struct {
	notifier *rpc.Notifier
	sub      *rpc.Subscription
}

// walletService is an in-process wallet bridge.
type walletService struct {
	mu            sync.Mutex
	connected     bool
	key           hexutil.Bytes
	rejectConnect bool
	lastOpts      entity.SendOptions
	disconnects   []subscriber
	accounts      []subscriber
}

func (s *walletService) IsBBAWallet() bool { return true }

func (s *walletService) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *walletService) PublicKey() hexutil.Bytes {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	return s.key
}

func (s *walletService) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectConnect {
		return errors.New("User rejected the request.")
	}
	s.connected = true
	return nil
}

func (s *walletService) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *walletService) SignTransaction(env entity.TransactionEnvelope) (*entity.TransactionEnvelope, error) {
	if env.Versioned != nil {
		// versioned transactions come back unchanged
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pk, err := entity.NewPublicKey(s.key)
	if err != nil {
		return nil, err
	}
	env.Legacy.Signatures = append(env.Legacy.Signatures, entity.SignaturePair{PublicKey: pk, Signature: []byte{0xaa}})
	return &env, nil
}

func (s *walletService) SignAllTransactions(envs []entity.TransactionEnvelope) ([]entity.TransactionEnvelope, error) {
	out := make([]entity.TransactionEnvelope, 0, len(envs))
	for _, env := range envs {
		signed, err := s.SignTransaction(env)
		if err != nil {
			return nil, err
		}
		if signed == nil {
			signed = &env
		}
		out = append(out, *signed)
	}
	return out, nil
}

func (s *walletService) SignAndSendTransaction(env entity.TransactionEnvelope, opts entity.SendOptions) (sendResult, error) {
	if _, err := env.Transaction(); err != nil {
		return sendResult{}, err
	}
	s.mu.Lock()
	s.lastOpts = opts
	s.mu.Unlock()
	return sendResult{Signature: "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"}, nil
}

func (s *walletService) SignMessage(msg hexutil.Bytes) (signMessageResult, error) {
	return signMessageResult{Signature: append(hexutil.Bytes{0x01}, msg...)}, nil
}

func (s *walletService) Disconnected(ctx context.Context) (*rpc.Subscription, error) {
	return s.register(ctx, &s.disconnects)
}

func (s *walletService) AccountChanged(ctx context.Context) (*rpc.Subscription, error) {
	return s.register(ctx, &s.accounts)
}

func (s *walletService) register(ctx context.Context, list *[]subscriber) (*rpc.Subscription, error) {
	notifier, ok := rpc.NotifierFromContext(ctx)
	if !ok {
		return nil, rpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	s.mu.Lock()
	*list = append(*list, subscriber{notifier: notifier, sub: sub})
	s.mu.Unlock()
	return sub, nil
}

func (s *walletService) notifyDisconnect() {
	s.mu.Lock()
	s.connected = false
	subs := append([]subscriber(nil), s.disconnects...)
	s.mu.Unlock()
	for _, sb := range subs {
		_ = sb.notifier.Notify(sb.sub.ID, struct{}{})
	}
}

func (s *walletService) notifyAccount(key hexutil.Bytes) {
	s.mu.Lock()
	s.key = key
	subs := append([]subscriber(nil), s.accounts...)
	s.mu.Unlock()
	for _, sb := range subs {
		_ = sb.notifier.Notify(sb.sub.ID, key)
	}
}

func startBridge(t *testing.T) (*walletService, *rpc.Server, *Wallet) {
	t.Helper()
	key := entity.PublicKey{7}
	svc := &walletService{key: key.Bytes()}
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName(Namespace, svc))
	t.Cleanup(server.Stop)

	w, err := New(context.Background(), rpc.DialInProc(server), Options{CallTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return svc, server, w
}

func TestWallet_InitialState(t *testing.T) {
	_, _, w := startBridge(t)

	assert.True(t, w.IsBBAWallet())
	assert.False(t, w.IsConnected())
	assert.Nil(t, w.PublicKey())
}

func TestWallet_ConnectDisconnect(t *testing.T) {
	svc, _, w := startBridge(t)
	ctx := context.Background()

	require.NoError(t, w.Connect(ctx))
	assert.True(t, w.IsConnected())
	assert.Equal(t, []byte(svc.key), w.PublicKey())

	require.NoError(t, w.Disconnect(ctx))
	assert.False(t, w.IsConnected())
	assert.Nil(t, w.PublicKey())
	assert.False(t, svc.IsConnected())
}

func TestWallet_ConnectRejected(t *testing.T) {
	svc, _, w := startBridge(t)
	svc.rejectConnect = true

	err := w.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User rejected the request.")
	var rpcErr rpc.Error
	assert.True(t, errors.As(err, &rpcErr))
	assert.False(t, w.IsConnected())
}

func TestWallet_Signing(t *testing.T) {
	svc, _, w := startBridge(t)
	ctx := context.Background()
	require.NoError(t, w.Connect(ctx))

	payer := entity.PublicKey{7}
	legacy := &entity.LegacyTransaction{FeePayer: &payer, RecentBlockhash: "h"}
	signed, err := w.SignTransaction(ctx, legacy)
	require.NoError(t, err)
	require.IsType(t, &entity.LegacyTransaction{}, signed)
	assert.Len(t, signed.(*entity.LegacyTransaction).Signatures, 1)

	unchanged, err := w.SignTransaction(ctx, &entity.VersionedTransaction{MessageVersion: entity.TransactionVersion0})
	require.NoError(t, err)
	assert.Nil(t, unchanged)

	all, err := w.SignAllTransactions(ctx, []entity.Transaction{legacy, &entity.VersionedTransaction{}})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, entity.IsVersionedTransaction(all[1]))

	sig, err := w.SignMessage(ctx, []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 'h', 'i'}, sig)

	maxRetries := uint(3)
	signature, err := w.SignAndSendTransaction(ctx, legacy, entity.SendOptions{
		PreflightCommitment: entity.CommitmentConfirmed,
		MaxRetries:          &maxRetries,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, signature)
	svc.mu.Lock()
	assert.Equal(t, entity.CommitmentConfirmed, svc.lastOpts.PreflightCommitment)
	require.NotNil(t, svc.lastOpts.MaxRetries)
	assert.Equal(t, uint(3), *svc.lastOpts.MaxRetries)
	svc.mu.Unlock()
}

func TestWallet_Notifications(t *testing.T) {
	svc, _, w := startBridge(t)
	require.NoError(t, w.Connect(context.Background()))

	disconnects := make(chan struct{}, 1)
	accounts := make(chan []byte, 1)
	dsub := w.SubscribeDisconnect(disconnects)
	defer dsub.Unsubscribe()
	asub := w.SubscribeAccountChanged(accounts)
	defer asub.Unsubscribe()

	next := entity.PublicKey{8}
	svc.notifyAccount(next.Bytes())
	select {
	case raw := <-accounts:
		assert.Equal(t, next.Bytes(), raw)
	case <-time.After(time.Second):
		t.Fatal("account change not forwarded")
	}
	assert.Equal(t, next.Bytes(), w.PublicKey())

	svc.notifyDisconnect()
	select {
	case <-disconnects:
	case <-time.After(time.Second):
		t.Fatal("disconnect not forwarded")
	}
	assert.False(t, w.IsConnected())
}

func TestWallet_CloseEndsSubscriptions(t *testing.T) {
	_, _, w := startBridge(t)
	sub := w.SubscribeDisconnect(make(chan struct{}))

	w.Close()

	select {
	case <-sub.Err():
	case <-time.After(time.Second):
		t.Fatal("subscription still open after close")
	}
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
}

func TestWallet_DoneWhenBridgeStops(t *testing.T) {
	_, server, w := startBridge(t)

	server.Stop()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("done not closed after the bridge stopped")
	}
	assert.False(t, w.IsBBAWallet())
}

func TestWallet_BridgeStopReportsDisconnect(t *testing.T) {
	_, server, w := startBridge(t)
	require.NoError(t, w.Connect(context.Background()))
	disconnects := make(chan struct{}, 1)
	sub := w.SubscribeDisconnect(disconnects)
	defer sub.Unsubscribe()

	server.Stop()

	select {
	case <-disconnects:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect not reported after the bridge stopped")
	}
	assert.False(t, w.IsConnected())
}

func TestWallet_AdapterDisconnectsWhenBridgeStops(t *testing.T) {
	_, server, w := startBridge(t)
	registry := scope.NewRegistry(scope.Options{})
	require.NoError(t, registry.Inject("bbachain", w))

	a := bbawallet.NewAdapter(registry, bbawallet.Config{DetectionInterval: 5 * time.Millisecond, DetectionMaxAttempts: 200})
	defer a.Close()
	require.Eventually(t, func() bool {
		return a.ReadyState() == entity.ReadyStateInstalled
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, a.Connect(context.Background()))
	require.True(t, a.Connected())

	events := make(chan entity.AdapterEvent, 8)
	sub := a.SubscribeEvents(events)
	defer sub.Unsubscribe()

	server.Stop()

	var kinds []entity.AdapterEventKind
	timeout := time.After(2 * time.Second)
	for len(kinds) == 0 || kinds[len(kinds)-1] != entity.EventDisconnect {
		select {
		case ev := <-events:
			kinds = append(kinds, ev.Kind)
			if ev.Kind == entity.EventError {
				assert.ErrorIs(t, ev.Err, entity.ErrWalletDisconnected)
			}
		case <-timeout:
			t.Fatalf("adapter still connected after the bridge stopped, events %v", kinds)
		}
	}
	assert.Equal(t, []entity.AdapterEventKind{entity.EventError, entity.EventDisconnect}, kinds)
	assert.False(t, a.Connected())
	assert.Nil(t, a.PublicKey())
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1", Options{})
	assert.Error(t, err)
}
