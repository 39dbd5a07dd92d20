package walletadapter

import (
	"context"
	"fmt"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/domain/entity"
)

// PrepareTransaction fills the fee payer and recent blockhash of a legacy transaction
// when the caller left them unset.
func PrepareTransaction(
	ctx context.Context,
	tx *entity.LegacyTransaction,
	conn port.Connection,
	feePayer *entity.PublicKey,
	opts entity.SendOptions,
) (*entity.LegacyTransaction, error) {
	if feePayer == nil {
		return nil, entity.NewWalletError(entity.KindNotConnected, "", nil)
	}
	if tx.FeePayer == nil {
		pk := *feePayer
		tx.FeePayer = &pk
	}
	if tx.RecentBlockhash == "" {
		if conn == nil {
			return nil, fmt.Errorf("no connection to fetch a recent blockhash from")
		}
		latest, err := conn.GetLatestBlockhash(ctx, opts.PreflightCommitment, opts.MinContextSlot)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest blockhash: %w", err)
		}
		tx.RecentBlockhash = latest.Blockhash
	}
	return tx, nil
}
