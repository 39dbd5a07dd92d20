package port

import (
	"context"

	"wallet_adapter/internal/domain/entity"
)

// Connection is the chain RPC connection transactions are prepared against.
type Connection interface {
	Endpoint() string
	// Commitment is the connection's default commitment, used as preflight commitment when none is set.
	Commitment() entity.Commitment
	GetLatestBlockhash(ctx context.Context, commitment entity.Commitment, minContextSlot *uint64) (entity.BlockhashWithExpiry, error)
}

// ConnectionProvider hands out connections per endpoint.
type ConnectionProvider interface {
	GetConnection(ctx context.Context) (Connection, error)
}
