package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete ctfscan configuration, assembled from defaults,
// the config file, CTFSCAN_* environment variables, and CLI flags.
type Config struct {
	Chain       ChainConfig       `yaml:"chain" json:"chain"`
	RPC         RPCConfig         `yaml:"rpc" json:"rpc"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// ChainConfig names the chain endpoint and the contract set to scan.
// Defaults cover Polymarket on Polygon mainnet.
type ChainConfig struct {
	RPCURL            string `yaml:"rpc_url" json:"rpc_url"`
	ExchangeAddress   string `yaml:"exchange_address" json:"exchange_address"`
	CTFAddress        string `yaml:"ctf_address" json:"ctf_address"`
	CollateralAddress string `yaml:"collateral_address" json:"collateral_address"`

	// ChunkSize bounds the block span of a single eth_getLogs call;
	// public endpoints reject wide ranges.
	ChunkSize uint64 `yaml:"chunk_size" json:"chunk_size"`
}

// RPCConfig tunes the transport to the RPC endpoint.
type RPCConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int           `yaml:"burst" json:"burst"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff" json:"retry_backoff"`
}

// CacheConfig controls the layered decimals/market cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig sizes the chunk-scanning worker pool.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// LLMConfig configures the optional scan-digest provider.
// The digest never alters scan output.
type LLMConfig struct {
	Provider  string        `yaml:"provider" json:"provider"`
	Model     string        `yaml:"model" json:"model"`
	APIKey    string        `yaml:"-" json:"-"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	MaxTokens int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
	JSON    bool `yaml:"json" json:"json"`
}

// DefaultConfig returns the built-in defaults: Polymarket's contract set
// on Polygon mainnet behind the public RPC endpoint.
func DefaultConfig() *Config {
	cacheDir := ".ctfscan/cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".ctfscan", "cache")
	}

	return &Config{
		Chain: ChainConfig{
			RPCURL:            "https://polygon-rpc.com",
			ExchangeAddress:   "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E",
			CTFAddress:        "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045",
			CollateralAddress: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", // USDC.e
			ChunkSize:         500,
		},
		RPC: RPCConfig{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 4,
			Burst:             4,
			MaxRetries:        3,
			RetryBackoff:      time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 30 * time.Minute,
			// Token decimals and prepared markets are immutable; the disk
			// TTL exists only to bound stale entries from reorged blocks.
			DiskTTL: 30 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "gpt-4o-mini",
			MaxTokens: 600,
			Timeout:   60 * time.Second,
		},
		Output: OutputConfig{},
	}
}
