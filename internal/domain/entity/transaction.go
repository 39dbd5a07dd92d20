package entity

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TransactionVersion is either legacy or a numbered versioned message format.
type TransactionVersion int

const (
	// TransactionVersionLegacy marks a legacy transaction.
	TransactionVersionLegacy TransactionVersion = -1
	// TransactionVersion0 is the first versioned message format.
	TransactionVersion0 TransactionVersion = 0
)

func (v TransactionVersion) String() string {
	if v == TransactionVersionLegacy {
		return "legacy"
	}
	return strconv.Itoa(int(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v TransactionVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *TransactionVersion) UnmarshalText(text []byte) error {
	if string(text) == "legacy" {
		*v = TransactionVersionLegacy
		return nil
	}
	n, err := strconv.Atoi(string(text))
	if err != nil || n < 0 {
		return fmt.Errorf("invalid transaction version %q", string(text))
	}
	*v = TransactionVersion(n)
	return nil
}

// Transaction is anything a wallet can sign: a LegacyTransaction or a VersionedTransaction.
type Transaction interface {
	Version() TransactionVersion
}

// IsVersionedTransaction reports whether tx uses the versioned message format.
func IsVersionedTransaction(tx Transaction) bool {
	_, ok := tx.(*VersionedTransaction)
	return ok
}

// AccountMeta describes an account referenced by an instruction.
type AccountMeta struct {
	PublicKey  PublicKey `json:"pubkey"`
	IsSigner   bool      `json:"isSigner"`
	IsWritable bool      `json:"isWritable"`
}

// Instruction is a single program invocation.
type Instruction struct {
	ProgramID PublicKey     `json:"programId"`
	Keys      []AccountMeta `json:"keys"`
	Data      hexutil.Bytes `json:"data"`
}

// SignaturePair ties a signature to the key that produced it. Signature is empty until signed.
type SignaturePair struct {
	PublicKey PublicKey     `json:"publicKey"`
	Signature hexutil.Bytes `json:"signature,omitempty"`
}

// LegacyTransaction is a transaction whose message is compiled from its instructions.
type LegacyTransaction struct {
	FeePayer        *PublicKey      `json:"feePayer,omitempty"`
	RecentBlockhash string          `json:"recentBlockhash,omitempty"`
	Instructions    []Instruction   `json:"instructions"`
	Signatures      []SignaturePair `json:"signatures,omitempty"`
}

// Version implements Transaction.
func (t *LegacyTransaction) Version() TransactionVersion {
	return TransactionVersionLegacy
}

type legacyMessage struct {
	FeePayer        PublicKey     `json:"feePayer"`
	RecentBlockhash string        `json:"recentBlockhash"`
	Instructions    []Instruction `json:"instructions"`
}

// MessageBytes returns the bytes signers sign over.
func (t *LegacyTransaction) MessageBytes() ([]byte, error) {
	if t.FeePayer == nil {
		return nil, errors.New("transaction fee payer required")
	}
	if t.RecentBlockhash == "" {
		return nil, errors.New("transaction recentBlockhash required")
	}
	return json.Marshal(legacyMessage{
		FeePayer:        *t.FeePayer,
		RecentBlockhash: t.RecentBlockhash,
		Instructions:    t.Instructions,
	})
}

// PartialSign adds signatures from the given signers, replacing earlier ones by the same keys.
func (t *LegacyTransaction) PartialSign(signers ...Keypair) error {
	msg, err := t.MessageBytes()
	if err != nil {
		return err
	}
	for _, signer := range signers {
		pk := signer.PublicKey()
		sig := signer.Sign(msg)
		replaced := false
		for i := range t.Signatures {
			if t.Signatures[i].PublicKey.Equals(pk) {
				t.Signatures[i].Signature = sig
				replaced = true
				break
			}
		}
		if !replaced {
			t.Signatures = append(t.Signatures, SignaturePair{PublicKey: pk, Signature: sig})
		}
	}
	return nil
}

// VersionedTransaction carries an already serialized message and one signature slot per required signer.
type VersionedTransaction struct {
	MessageVersion  TransactionVersion `json:"version"`
	Message         hexutil.Bytes      `json:"message"`
	RequiredSigners []PublicKey        `json:"requiredSigners"`
	Signatures      []hexutil.Bytes    `json:"signatures"`
}

// Version implements Transaction.
func (t *VersionedTransaction) Version() TransactionVersion {
	return t.MessageVersion
}

// Sign fills the signature slots of the given signers. Every signer must be a required signer.
func (t *VersionedTransaction) Sign(signers ...Keypair) error {
	if len(t.Signatures) < len(t.RequiredSigners) {
		sigs := make([]hexutil.Bytes, len(t.RequiredSigners))
		copy(sigs, t.Signatures)
		t.Signatures = sigs
	}
	for _, signer := range signers {
		pk := signer.PublicKey()
		idx := -1
		for i, required := range t.RequiredSigners {
			if required.Equals(pk) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("cannot sign with non signer key %s", pk)
		}
		t.Signatures[idx] = signer.Sign(t.Message)
	}
	return nil
}

// TransactionEnvelope carries a Transaction across JSON boundaries. Exactly one field is set.
type TransactionEnvelope struct {
	Legacy    *LegacyTransaction    `json:"legacy,omitempty"`
	Versioned *VersionedTransaction `json:"versioned,omitempty"`
}

// Envelope wraps tx for encoding.
func Envelope(tx Transaction) (TransactionEnvelope, error) {
	switch t := tx.(type) {
	case *LegacyTransaction:
		return TransactionEnvelope{Legacy: t}, nil
	case *VersionedTransaction:
		return TransactionEnvelope{Versioned: t}, nil
	default:
		return TransactionEnvelope{}, fmt.Errorf("unsupported transaction type %T", tx)
	}
}

// Transaction returns the wrapped transaction.
func (e TransactionEnvelope) Transaction() (Transaction, error) {
	switch {
	case e.Legacy != nil && e.Versioned != nil:
		return nil, errors.New("transaction envelope holds both a legacy and a versioned transaction")
	case e.Legacy != nil:
		return e.Legacy, nil
	case e.Versioned != nil:
		return e.Versioned, nil
	default:
		return nil, errors.New("empty transaction envelope")
	}
}
