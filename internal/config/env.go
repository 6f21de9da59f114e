package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays cfg with RANGER_* environment variables. A .env file in
// the working directory is loaded into the environment by main before this
// runs.
func parseEnv(cfg *Config) {
	envString(&cfg.DatabaseDSN, "RANGER_DATABASE_DSN")
	envString(&cfg.IPFSAddURL, "RANGER_IPFS_ADD_URL")
	envString(&cfg.IPFSGatewayURL, "RANGER_IPFS_GATEWAY_URL")
	if v := os.Getenv("RANGER_STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = StorageBackend(v)
	}
	envString(&cfg.S3.Region, "RANGER_S3_REGION")
	envString(&cfg.S3.Bucket, "RANGER_S3_BUCKET")
	envString(&cfg.S3.BaseEndpoint, "RANGER_S3_BASE_ENDPOINT")
	envString(&cfg.S3.AccessKey, "RANGER_S3_ACCESS_KEY")
	envString(&cfg.S3.SecretKey, "RANGER_S3_SECRET_KEY")
	envString(&cfg.ChainRPCAddr, "RANGER_CHAIN_RPC_ADDR")
	envString(&cfg.ContractAddr, "RANGER_CONTRACT_ADDR")
	envString(&cfg.RelayURL, "RANGER_RELAY_URL")
	envString(&cfg.RelayAppID, "RANGER_RELAY_APP_ID")
	envString(&cfg.RelayAPISecret, "RANGER_RELAY_API_SECRET")
	envString(&cfg.KeystorePath, "RANGER_KEYSTORE_PATH")

	if v := os.Getenv("RANGER_USE_RELAY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UseRelay = b
		}
	}
	if v := os.Getenv("RANGER_ONLINE_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.OnlineCheckInterval = d
		}
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
