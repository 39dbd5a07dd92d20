package configloader

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                   string `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdownTimeoutSeconds"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"` // empty logs to stdout
	MaxSizeMB   int    `yaml:"maxSizeMB"`
	MaxBackups  int    `yaml:"maxBackups"`
	MaxAgeDays  int    `yaml:"maxAgeDays"`
}

// StorageConfig selects where the selected wallet name is persisted.
type StorageConfig struct {
	Driver              string `yaml:"driver"` // "memory" or "sqlite"
	Path                string `yaml:"path"`
	CleanupIntervalMins int    `yaml:"cleanupIntervalMinutes"`
}

// ProviderConfig holds wallet provider options.
type ProviderConfig struct {
	LocalStorageKey string `yaml:"localStorageKey"`
	AutoConnect     bool   `yaml:"autoConnect"`
}

// DetectionConfig tunes the wallet detection poll.
type DetectionConfig struct {
	IntervalMillis int `yaml:"intervalMillis"`
	MaxAttempts    int `yaml:"maxAttempts"`
}

// ScopeConfig describes the environment wallets are injected into.
type ScopeConfig struct {
	Headless     bool   `yaml:"headless"`     // no scope at all, adapters are Unsupported
	Redirectable bool   `yaml:"redirectable"` // wallets are opened through the browse link
	Href         string `yaml:"href"`
	Origin       string `yaml:"origin"`
}

// BridgeConfig points at the JSON-RPC endpoint of a wallet that should be injected into the scope.
type BridgeConfig struct {
	URL                string `yaml:"url"` // empty disables the bridge
	InjectPath         string `yaml:"injectPath"`
	RetryIntervalMs    int    `yaml:"retryIntervalMillis"`
	CallTimeoutSeconds int    `yaml:"callTimeoutSeconds"`
}

// ChainConfig holds the chain RPC connection used for transaction preparation.
type ChainConfig struct {
	Endpoint              string   `yaml:"endpoint"`
	FallbackURLs          []string `yaml:"fallbackURLs"`
	Commitment            string   `yaml:"commitment"`
	RPCCallTimeoutSeconds int      `yaml:"rpcCallTimeoutSeconds"`
}

// CORSConfig holds the allowed origins of the HTTP API.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Provider  ProviderConfig  `yaml:"provider"`
	Detection DetectionConfig `yaml:"detection"`
	Scope     ScopeConfig     `yaml:"scope"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Chain     ChainConfig     `yaml:"chain"`
	CORS      CORSConfig      `yaml:"cors"`
}

// GetConfig implements port.ConfigProvider.
func (c *Config) GetConfig() *Config {
	return c
}

// DetectionInterval returns the detection poll interval.
func (c *Config) DetectionInterval() time.Duration {
	return time.Duration(c.Detection.IntervalMillis) * time.Millisecond
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML configuration data and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups <= 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays <= 0 {
		cfg.Logging.MaxAgeDays = 28
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.Driver == "sqlite" && cfg.Storage.Path == "" {
		cfg.Storage.Path = "walletd.db"
	}
	if cfg.Storage.CleanupIntervalMins <= 0 {
		cfg.Storage.CleanupIntervalMins = 10
	}

	if cfg.Provider.LocalStorageKey == "" {
		cfg.Provider.LocalStorageKey = "walletName"
	}

	if cfg.Detection.IntervalMillis <= 0 {
		cfg.Detection.IntervalMillis = 1000
	}
	if cfg.Detection.MaxAttempts <= 0 {
		cfg.Detection.MaxAttempts = 600
	}

	if cfg.Scope.Href == "" {
		cfg.Scope.Href = "http://localhost:" + cfg.Server.Port + "/"
	}
	if cfg.Scope.Origin == "" {
		cfg.Scope.Origin = "http://localhost:" + cfg.Server.Port
	}

	if cfg.Bridge.InjectPath == "" {
		cfg.Bridge.InjectPath = "bbachain"
	}
	if cfg.Bridge.RetryIntervalMs <= 0 {
		cfg.Bridge.RetryIntervalMs = 2000
	}
	if cfg.Bridge.CallTimeoutSeconds <= 0 {
		cfg.Bridge.CallTimeoutSeconds = 30
	}

	if cfg.Chain.Endpoint == "" {
		cfg.Chain.Endpoint = "http://127.0.0.1:8899"
	}
	if cfg.Chain.Commitment == "" {
		cfg.Chain.Commitment = "confirmed"
	}
	if cfg.Chain.RPCCallTimeoutSeconds <= 0 {
		cfg.Chain.RPCCallTimeoutSeconds = 10
	}

	if len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS.AllowOrigins = []string{"*"}
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	switch cfg.Chain.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("unknown chain commitment %q", cfg.Chain.Commitment)
	}
	return nil
}
