package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/domain/entity"
	networkdefinition "wallet_adapter/internal/infrastructure/network/definition"
)

const (
	defaultProviderConnectionTimeout = 10 * time.Second
)

// rpcConnectionProvider implements port.ConnectionProvider. Connections are
// created on first use and cached per endpoint.
type rpcConnectionProvider struct {
	netDef            entity.NetworkDefinition
	connections       map[string]*RPCConnection
	mu                sync.Mutex
	logger            port.Logger
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
}

// ConnectionProvider is a port.ConnectionProvider that can release its connections.
type ConnectionProvider interface {
	port.ConnectionProvider
	Definition() entity.NetworkDefinition
	Close()
}

// NewRPCConnectionProvider creates a connection provider for the configured chain.
func NewRPCConnectionProvider(cfg port.ConfigProvider, logger port.Logger) ConnectionProvider {
	chain := cfg.GetConfig().Chain
	return &rpcConnectionProvider{
		netDef:            networkdefinition.Define(chain.Endpoint, chain.FallbackURLs, entity.Commitment(chain.Commitment)),
		connections:       make(map[string]*RPCConnection),
		logger:            logger,
		connectionTimeout: defaultProviderConnectionTimeout,
		rpcCallTimeout:    time.Duration(chain.RPCCallTimeoutSeconds) * time.Second,
	}
}

func (p *rpcConnectionProvider) Definition() entity.NetworkDefinition {
	return p.netDef
}

// GetConnection returns the cached connection for the configured endpoint, dialing it on first use.
func (p *rpcConnectionProvider) GetConnection(ctx context.Context) (port.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.netDef.PrimaryRPCURL
	if conn, exists := p.connections[key]; exists {
		return conn, nil
	}

	p.logger.Info("Creating new RPC connection", "cluster", p.netDef.Cluster, "rpc_primary", key)
	conn, err := NewRPCConnection(p.netDef, p.connectionTimeout, p.rpcCallTimeout)
	if err != nil {
		p.logger.Error("Failed to create RPC connection", "cluster", p.netDef.Cluster, "error", err)
		return nil, fmt.Errorf("failed to create RPC connection for %s: %w", key, err)
	}
	p.connections[key] = conn
	return conn, nil
}

// Close closes every cached connection.
func (p *rpcConnectionProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, conn := range p.connections {
		conn.Close()
		delete(p.connections, key)
	}
}
