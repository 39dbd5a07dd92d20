package entity

// Commitment is the level of finality a chain query or preflight check waits for.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// SendOptions are forwarded to the wallet when it submits a transaction.
type SendOptions struct {
	SkipPreflight       bool       `json:"skipPreflight,omitempty"`
	PreflightCommitment Commitment `json:"preflightCommitment,omitempty"`
	MaxRetries          *uint      `json:"maxRetries,omitempty"`
	MinContextSlot      *uint64    `json:"minContextSlot,omitempty"`
}

// SendTransactionOptions adds local extra signers to SendOptions.
type SendTransactionOptions struct {
	SendOptions
	Signers []Keypair `json:"-"`
}

// BlockhashWithExpiry is the result of a latest-blockhash query.
type BlockhashWithExpiry struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}
