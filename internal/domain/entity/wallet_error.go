package entity

import "errors"

// WalletErrorKind classifies adapter and provider failures.
type WalletErrorKind string

const (
	KindWallet          WalletErrorKind = "WalletError"
	KindNotReady        WalletErrorKind = "WalletNotReadyError"
	KindConnection      WalletErrorKind = "WalletConnectionError"
	KindAccount         WalletErrorKind = "WalletAccountError"
	KindPublicKey       WalletErrorKind = "WalletPublicKeyError"
	KindDisconnection   WalletErrorKind = "WalletDisconnectionError"
	KindDisconnected    WalletErrorKind = "WalletDisconnectedError"
	KindNotConnected    WalletErrorKind = "WalletNotConnectedError"
	KindNotSelected     WalletErrorKind = "WalletNotSelectedError"
	KindSendTransaction WalletErrorKind = "WalletSendTransactionError"
	KindSignTransaction WalletErrorKind = "WalletSignTransactionError"
	KindSignMessage     WalletErrorKind = "WalletSignMessageError"
)

// WalletError is the single error type returned by adapters and the provider.
// Cause holds the original error raised inside the injected wallet, if any.
type WalletError struct {
	Kind    WalletErrorKind
	Message string
	Cause   error
}

// NewWalletError builds a WalletError of the given kind.
func NewWalletError(kind WalletErrorKind, message string, cause error) *WalletError {
	return &WalletError{Kind: kind, Message: message, Cause: cause}
}

func (e *WalletError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *WalletError) Unwrap() error {
	return e.Cause
}

// Is matches any WalletError of the same kind, so the sentinels below work with errors.Is.
func (e *WalletError) Is(target error) bool {
	var other *WalletError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrWalletNotReady        = &WalletError{Kind: KindNotReady}
	ErrWalletConnection      = &WalletError{Kind: KindConnection}
	ErrWalletAccount         = &WalletError{Kind: KindAccount}
	ErrWalletPublicKey       = &WalletError{Kind: KindPublicKey}
	ErrWalletDisconnection   = &WalletError{Kind: KindDisconnection}
	ErrWalletDisconnected    = &WalletError{Kind: KindDisconnected}
	ErrWalletNotConnected    = &WalletError{Kind: KindNotConnected}
	ErrWalletNotSelected     = &WalletError{Kind: KindNotSelected}
	ErrWalletSendTransaction = &WalletError{Kind: KindSendTransaction}
	ErrWalletSignTransaction = &WalletError{Kind: KindSignTransaction}
	ErrWalletSignMessage     = &WalletError{Kind: KindSignMessage}
)

// IsWalletError reports whether err already belongs to the wallet error taxonomy.
func IsWalletError(err error) bool {
	var we *WalletError
	return errors.As(err, &we)
}

// WrapWalletError wraps err into kind unless it is already a WalletError, which is returned unchanged.
func WrapWalletError(kind WalletErrorKind, err error) error {
	if err == nil {
		return nil
	}
	if IsWalletError(err) {
		return err
	}
	return NewWalletError(kind, err.Error(), err)
}
