package bbawallet

import (
	"sync"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/domain/entity"

	"github.com/ethereum/go-ethereum/event"
)

// session owns the subscriptions taken on the injected wallet for one connection.
type session struct {
	wallet        port.InjectedWallet
	disconnectCh  chan struct{}
	accountCh     chan []byte
	disconnectSub event.Subscription
	accountSub    event.Subscription
	quit          chan struct{}
	once          sync.Once
}

func newSession(wallet port.InjectedWallet) *session {
	s := &session{
		wallet:       wallet,
		disconnectCh: make(chan struct{}, 1),
		accountCh:    make(chan []byte, 8),
		quit:         make(chan struct{}),
	}
	s.disconnectSub = wallet.SubscribeDisconnect(s.disconnectCh)
	s.accountSub = wallet.SubscribeAccountChanged(s.accountCh)
	return s
}

// end removes both listeners from the wallet. Safe to call more than once.
func (s *session) end() {
	s.once.Do(func() {
		s.disconnectSub.Unsubscribe()
		s.accountSub.Unsubscribe()
		close(s.quit)
	})
}

// watch handles wallet notifications until the session ends.
func (a *Adapter) watch(s *session) {
	for {
		select {
		case <-s.disconnectCh:
			a.walletDisconnected(s)
		case raw := <-s.accountCh:
			a.accountChanged(s, raw)
		case err := <-s.disconnectSub.Err():
			a.subscriptionEnded(s, "disconnect", err)
			return
		case err := <-s.accountSub.Err():
			a.subscriptionEnded(s, "account", err)
			return
		case <-s.quit:
			return
		}
	}
}

// subscriptionEnded treats a lost wallet subscription of the live session as a
// disconnect, since the wallet can no longer be heard from.
func (a *Adapter) subscriptionEnded(s *session, name string, err error) {
	a.mu.Lock()
	current := a.session == s
	a.mu.Unlock()
	if !current {
		return
	}
	a.logger.Warn("Wallet subscription ended", "wallet", WalletName, "subscription", name, "error", err)
	a.walletDisconnected(s)
}

// walletDisconnected handles a disconnect the wallet initiated on its own.
func (a *Adapter) walletDisconnected(s *session) {
	a.mu.Lock()
	if a.session != s {
		a.mu.Unlock()
		return
	}
	a.wallet = nil
	a.publicKey = nil
	a.session = nil
	a.mu.Unlock()

	s.end()
	a.logger.Info("Wallet disconnected by the wallet", "wallet", WalletName)
	a.Emit(entity.Errored(entity.NewWalletError(entity.KindDisconnected, "", nil)))
	a.Emit(entity.Disconnected())
}

func (a *Adapter) accountChanged(s *session, raw []byte) {
	a.mu.Lock()
	if a.session != s || a.publicKey == nil {
		a.mu.Unlock()
		return
	}
	current := *a.publicKey
	a.mu.Unlock()

	next, err := entity.NewPublicKey(raw)
	if err != nil {
		a.Emit(entity.Errored(entity.NewWalletError(entity.KindPublicKey, err.Error(), err)))
		return
	}
	if next.Equals(current) {
		return
	}

	a.mu.Lock()
	if a.session != s {
		a.mu.Unlock()
		return
	}
	a.publicKey = &next
	a.mu.Unlock()

	a.logger.Info("Wallet account changed", "wallet", WalletName, "public_key", next.String())
	a.Emit(entity.Connected(next))
}
