package entity

// Cluster names a BBA Chain network.
type Cluster string

const (
	ClusterMainnet  Cluster = "mainnet"
	ClusterTestnet  Cluster = "testnet"
	ClusterDevnet   Cluster = "devnet"
	ClusterLocalnet Cluster = "localnet"
)

// NetworkDefinition holds the RPC endpoints of a chain network.
type NetworkDefinition struct {
	Cluster         Cluster    `json:"cluster" yaml:"cluster"`
	PrimaryRPCURL   string     `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs []string   `json:"fallbackRpcUrls" yaml:"fallbackRpcUrls"`
	Commitment      Commitment `json:"commitment" yaml:"commitment"`
}

// RPCURLs returns the primary URL followed by the fallbacks.
func (d NetworkDefinition) RPCURLs() []string {
	return append([]string{d.PrimaryRPCURL}, d.FallbackRPCURLs...)
}
