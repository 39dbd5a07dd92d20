package networkdefinition

import (
	"net/url"
	"strings"

	"wallet_adapter/internal/domain/entity"
)

// InferCluster guesses the cluster an RPC endpoint belongs to from its host name.
// Unknown and empty endpoints are treated as mainnet.
func InferCluster(endpoint string) entity.Cluster {
	if endpoint == "" {
		return entity.ClusterMainnet
	}
	host := strings.ToLower(endpoint)
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = strings.ToLower(u.Hostname())
	}

	switch {
	case host == "localhost" || host == "127.0.0.1" || host == "::1" || host == "0.0.0.0":
		return entity.ClusterLocalnet
	case strings.Contains(host, "devnet"):
		return entity.ClusterDevnet
	case strings.Contains(host, "testnet"):
		return entity.ClusterTestnet
	default:
		return entity.ClusterMainnet
	}
}

// Define builds the network definition for an endpoint and its fallbacks.
func Define(endpoint string, fallbacks []string, commitment entity.Commitment) entity.NetworkDefinition {
	if commitment == "" {
		commitment = entity.CommitmentConfirmed
	}
	return entity.NetworkDefinition{
		Cluster:         InferCluster(endpoint),
		PrimaryRPCURL:   endpoint,
		FallbackRPCURLs: append([]string(nil), fallbacks...),
		Commitment:      commitment,
	}
}
