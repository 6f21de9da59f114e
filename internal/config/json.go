package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/verdantlab/ranger/internal/flagx"
	"github.com/verdantlab/ranger/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written either as strings like "3s" or
// as integer nanoseconds.
type JsonConfig struct {
	DatabaseDSN         string         `json:"database_dsn"`
	IPFSAddURL          string         `json:"ipfs_add_url"`
	IPFSGatewayURL      string         `json:"ipfs_gateway_url"`
	StorageBackend      string         `json:"storage_backend"`
	S3Region            string         `json:"s3_region"`
	S3Bucket            string         `json:"s3_bucket"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
	ChainRPCAddr        string         `json:"chain_rpc_addr"`
	ContractAddr        string         `json:"contract_addr"`
	RelayURL            string         `json:"relay_url"`
	RelayAppID          string         `json:"relay_app_id"`
	RelayAPISecret      string         `json:"relay_api_secret"`
	UseRelay            *bool          `json:"use_relay"`
	KeystorePath        string         `json:"keystore_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays cfg with values from the JSON file named by the -c /
// -config flag, when present. Empty fields in the file leave the current
// value untouched.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIfNotEmpty(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setIfNotEmpty(&cfg.IPFSAddURL, jc.IPFSAddURL)
	setIfNotEmpty(&cfg.IPFSGatewayURL, jc.IPFSGatewayURL)
	if jc.StorageBackend != "" {
		cfg.StorageBackend = StorageBackend(jc.StorageBackend)
	}
	setIfNotEmpty(&cfg.S3.Region, jc.S3Region)
	setIfNotEmpty(&cfg.S3.Bucket, jc.S3Bucket)
	setIfNotEmpty(&cfg.S3.BaseEndpoint, jc.S3BaseEndpoint)
	setIfNotEmpty(&cfg.S3.AccessKey, jc.S3AccessKey)
	setIfNotEmpty(&cfg.S3.SecretKey, jc.S3SecretKey)
	setIfNotEmpty(&cfg.ChainRPCAddr, jc.ChainRPCAddr)
	setIfNotEmpty(&cfg.ContractAddr, jc.ContractAddr)
	setIfNotEmpty(&cfg.RelayURL, jc.RelayURL)
	setIfNotEmpty(&cfg.RelayAppID, jc.RelayAppID)
	setIfNotEmpty(&cfg.RelayAPISecret, jc.RelayAPISecret)
	setIfNotEmpty(&cfg.KeystorePath, jc.KeystorePath)
	if jc.UseRelay != nil {
		cfg.UseRelay = *jc.UseRelay
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// RelayConfigured reports whether the relay can be used at all.
func (c *Config) RelayConfigured() bool {
	return c.RelayURL != ""
}
