package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/domain/entity"

	"github.com/ethereum/go-ethereum/rpc"
)

// RPCConnection implements port.Connection over the chain's JSON-RPC API.
type RPCConnection struct {
	netDef         entity.NetworkDefinition
	endpoints      []string
	clients        []*rpc.Client
	rpcCallTimeout time.Duration
}

var _ port.Connection = (*RPCConnection)(nil)

type blockhashConfig struct {
	Commitment     entity.Commitment `json:"commitment,omitempty"`
	MinContextSlot *uint64           `json:"minContextSlot,omitempty"`
}

type blockhashResponse struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value entity.BlockhashWithExpiry `json:"value"`
}

// NewRPCConnection dials the primary RPC URL and every fallback. URLs that cannot be
// dialed are skipped; it fails only when none can.
func NewRPCConnection(netDef entity.NetworkDefinition, connectionTimeout, rpcCallTimeout time.Duration) (*RPCConnection, error) {
	c := &RPCConnection{netDef: netDef, rpcCallTimeout: rpcCallTimeout}
	var lastErr error

	for _, rpcURL := range netDef.RPCURLs() {
		if rpcURL == "" {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		client, err := rpc.DialContext(ctx, rpcURL)
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
			continue
		}
		c.endpoints = append(c.endpoints, rpcURL)
		c.clients = append(c.clients, client)
	}

	if len(c.clients) == 0 {
		if lastErr == nil {
			lastErr = errors.New("no RPC URL configured")
		}
		return nil, fmt.Errorf("all RPC connection attempts failed for cluster %s: %w", netDef.Cluster, lastErr)
	}
	return c, nil
}

// Endpoint returns the primary RPC URL.
func (c *RPCConnection) Endpoint() string {
	return c.netDef.PrimaryRPCURL
}

// Commitment returns the connection's default commitment.
func (c *RPCConnection) Commitment() entity.Commitment {
	return c.netDef.Commitment
}

// Definition returns the network definition for this connection.
func (c *RPCConnection) Definition() entity.NetworkDefinition {
	return c.netDef
}

// GetLatestBlockhash queries getLatestBlockhash, moving on to the next URL when a
// call fails at the transport level.
func (c *RPCConnection) GetLatestBlockhash(ctx context.Context, commitment entity.Commitment, minContextSlot *uint64) (entity.BlockhashWithExpiry, error) {
	if commitment == "" {
		commitment = c.netDef.Commitment
	}
	cfg := blockhashConfig{Commitment: commitment, MinContextSlot: minContextSlot}

	var lastErr error
	for i, client := range c.clients {
		var resp blockhashResponse
		err := c.call(ctx, client, &resp, "getLatestBlockhash", cfg)
		if err == nil {
			if resp.Value.Blockhash == "" {
				return entity.BlockhashWithExpiry{}, fmt.Errorf("getLatestBlockhash on %s returned no blockhash", c.endpoints[i])
			}
			return resp.Value, nil
		}
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			// the node answered; another node will not answer differently
			return entity.BlockhashWithExpiry{}, fmt.Errorf("getLatestBlockhash on %s: %w", c.endpoints[i], err)
		}
		if ctx.Err() != nil {
			return entity.BlockhashWithExpiry{}, ctx.Err()
		}
		lastErr = fmt.Errorf("getLatestBlockhash on %s: %w", c.endpoints[i], err)
	}
	return entity.BlockhashWithExpiry{}, lastErr
}

func (c *RPCConnection) call(ctx context.Context, client *rpc.Client, result any, method string, args ...any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	return client.CallContext(callCtx, result, method, args...)
}

// Close closes all underlying RPC clients.
func (c *RPCConnection) Close() {
	for _, client := range c.clients {
		client.Close()
	}
}
