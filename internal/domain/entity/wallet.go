package entity

import "fmt"

// WalletName identifies a wallet adapter, e.g. "BBA Wallet".
type WalletName string

// WalletReadyState describes whether a wallet can be used in the current environment.
type WalletReadyState int

const (
	// ReadyStateUnsupported means there is no scope the wallet could be injected into.
	ReadyStateUnsupported WalletReadyState = iota
	// ReadyStateNotDetected means the wallet has not (yet) been found in the scope.
	ReadyStateNotDetected
	// ReadyStateLoadable means the wallet is not installed but can be opened by redirect.
	ReadyStateLoadable
	// ReadyStateInstalled means the wallet object was detected in the scope.
	ReadyStateInstalled
)

var readyStateNames = map[WalletReadyState]string{
	ReadyStateUnsupported: "Unsupported",
	ReadyStateNotDetected: "NotDetected",
	ReadyStateLoadable:    "Loadable",
	ReadyStateInstalled:   "Installed",
}

func (s WalletReadyState) String() string {
	if name, ok := readyStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("WalletReadyState(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s WalletReadyState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *WalletReadyState) UnmarshalText(text []byte) error {
	for state, name := range readyStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown wallet ready state %q", string(text))
}

// Usable reports whether a connection attempt makes sense in this state.
func (s WalletReadyState) Usable() bool {
	return s == ReadyStateInstalled || s == ReadyStateLoadable
}
