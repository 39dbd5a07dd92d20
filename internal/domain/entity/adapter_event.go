package entity

// AdapterEventKind names the events an adapter publishes.
type AdapterEventKind string

const (
	EventReadyStateChange AdapterEventKind = "readyStateChange"
	EventConnect          AdapterEventKind = "connect"
	EventDisconnect       AdapterEventKind = "disconnect"
	EventError            AdapterEventKind = "error"
)

// AdapterEvent is published by a wallet adapter. Only the field matching Kind is set:
// ReadyState for readyStateChange, PublicKey for connect, Err for error.
type AdapterEvent struct {
	Kind       AdapterEventKind
	ReadyState WalletReadyState
	PublicKey  *PublicKey
	Err        error
}

// ReadyStateChanged builds a readyStateChange event.
func ReadyStateChanged(state WalletReadyState) AdapterEvent {
	return AdapterEvent{Kind: EventReadyStateChange, ReadyState: state}
}

// Connected builds a connect event.
func Connected(pk PublicKey) AdapterEvent {
	return AdapterEvent{Kind: EventConnect, PublicKey: &pk}
}

// Disconnected builds a disconnect event.
func Disconnected() AdapterEvent {
	return AdapterEvent{Kind: EventDisconnect}
}

// Errored builds an error event.
func Errored(err error) AdapterEvent {
	return AdapterEvent{Kind: EventError, Err: err}
}
