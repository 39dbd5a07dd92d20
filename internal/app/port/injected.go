package port

import (
	"context"

	"wallet_adapter/internal/domain/entity"

	"github.com/ethereum/go-ethereum/event"
)

// InjectedWallet is the vendor wallet object found in the scope. Its behaviour
// is owned by the wallet vendor; adapters only forward calls to it.
type InjectedWallet interface {
	// IsBBAWallet is the presence flag the wallet sets on itself.
	IsBBAWallet() bool
	IsConnected() bool
	// PublicKey returns the raw key bytes of the active account, nil when there is none.
	PublicKey() []byte

	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// The sign methods may return nil results, meaning "unchanged input".
	SignTransaction(ctx context.Context, tx entity.Transaction) (entity.Transaction, error)
	SignAllTransactions(ctx context.Context, txs []entity.Transaction) ([]entity.Transaction, error)
	SignAndSendTransaction(ctx context.Context, tx entity.Transaction, opts entity.SendOptions) (string, error)
	SignMessage(ctx context.Context, message []byte) ([]byte, error)

	SubscribeDisconnect(ch chan<- struct{}) event.Subscription
	// SubscribeAccountChanged delivers the raw key bytes of the newly active account.
	SubscribeAccountChanged(ch chan<- []byte) event.Subscription
}

// Scope is the global scope wallets inject themselves into.
type Scope interface {
	// Available reports whether there is a scope at all; adapters are unsupported otherwise.
	Available() bool
	// Redirectable reports whether wallets can be opened through a universal-link redirect.
	Redirectable() bool
	// Lookup returns the object injected at a dotted path such as "bbawallet.bbachain".
	Lookup(path string) (InjectedWallet, bool)
	// Location returns the current page URL and origin.
	Location() (href, origin string)
	// Navigate sends the current page to url.
	Navigate(url string) error
}
