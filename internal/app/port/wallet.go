package port

import (
	"context"

	"wallet_adapter/internal/domain/entity"

	"github.com/ethereum/go-ethereum/event"
)

// AdapterListener receives adapter events synchronously, in emission order.
type AdapterListener func(ev entity.AdapterEvent)

// Adapter is a wallet adapter as seen by the wallet provider and the application.
type Adapter interface {
	Name() entity.WalletName
	URL() string
	Icon() string
	ReadyState() entity.WalletReadyState
	// PublicKey returns nil while no account is connected.
	PublicKey() *entity.PublicKey
	Connecting() bool
	Connected() bool
	SupportedTransactionVersions() []entity.TransactionVersion

	// AutoConnect connects only when no user interaction is needed to do so.
	AutoConnect(ctx context.Context) error
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	SendTransaction(ctx context.Context, tx entity.Transaction, conn Connection, opts entity.SendTransactionOptions) (string, error)
	SignTransaction(ctx context.Context, tx entity.Transaction) (entity.Transaction, error)
	SignAllTransactions(ctx context.Context, txs []entity.Transaction) ([]entity.Transaction, error)
	SignMessage(ctx context.Context, message []byte) ([]byte, error)

	// On registers a listener and returns the function that removes it.
	On(listener AdapterListener) (off func())
	// SubscribeEvents delivers events to ch until the subscription is cancelled.
	SubscribeEvents(ch chan<- entity.AdapterEvent) event.Subscription
	// Close stops background detection and releases subscriptions.
	Close()
}
