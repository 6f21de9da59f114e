// Package config loads runtime settings for the ranger client. Sources are
// layered: defaults, then a JSON file, then environment variables, then
// command-line flags, with later sources winning.
package config

import (
	"time"

	"github.com/verdantlab/ranger/internal/ipfs"
)

// StorageBackend selects the content-addressed store implementation.
type StorageBackend string

const (
	StorageIPFS StorageBackend = "ipfs"
	StorageS3   StorageBackend = "s3"
)

// Config holds runtime settings for the ranger client.
type Config struct {
	// DatabaseDSN is the local sqlite file holding the offline queue and
	// journey snapshots.
	DatabaseDSN string

	// IPFSAddURL is the content store's add endpoint; IPFSGatewayURL is the
	// public read gateway referenced from metadata documents.
	IPFSAddURL     string
	IPFSGatewayURL string

	// StorageBackend picks between the IPFS node and an S3-compatible
	// bucket keyed by content hash.
	StorageBackend StorageBackend
	S3             ipfs.S3Config

	// ChainRPCAddr is the registry node's JSON-RPC endpoint; ContractAddr
	// is the tree registry contract.
	ChainRPCAddr string
	ContractAddr string

	// Relay settings for gasless submission. UseRelay picks the default
	// strategy; it can be toggled at runtime.
	RelayURL       string
	RelayAppID     string
	RelayAPISecret string
	UseRelay       bool

	// KeystorePath is the sealed wallet key file.
	KeystorePath string

	// OnlineCheckInterval is how often connectivity is probed.
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "ranger.db"
	c.IPFSAddURL = "http://127.0.0.1:5001/api/v0/add"
	c.IPFSGatewayURL = "http://127.0.0.1:8080/ipfs"
	c.StorageBackend = StorageIPFS
	c.ChainRPCAddr = "http://127.0.0.1:8545"
	c.KeystorePath = "keystore.json"
	c.UseRelay = true
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config from all sources.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
