// Package config centralizes how VaultIntake reads environment variables and
// exposes them as strongly typed Go values.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents runtime configuration for the API, the worker and the CLI.
// Optional integrations stay disabled while their address is empty.
type Config struct {
	Address        string
	MaxFileSize    int64
	MaxRequestSize int64
	MetadataPrefix []string
	ForkPrefix     []string
	LogLevel       string
	LogFormat      string
	SigningSecret  []byte
	SignedURLTTL   time.Duration
	ProcessingPool int
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Region       string
	S3UseSSL       bool
	ManifestBucket string
}

const (
	defaultAddress        = ":8080"
	defaultMaxFileSize    = 100 << 20 // 100 MiB
	defaultMaxRequestSize = 1 << 30   // 1 GiB
	defaultMetadataPrefix = "__MACOSX/"
	defaultForkPrefix     = "._"
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
	defaultSignedTTL      = 5 * time.Minute
	defaultWorkerCount    = 2
	defaultManifestBucket = "vaultintake-batches"
)

// Load reads configuration from environment variables falling back to
// defaults. Unparseable values are ignored rather than treated as fatal.
func Load() (*Config, error) {
	cfg := &Config{
		Address:        readEnv("VAULTINTAKE_ADDRESS", defaultAddress),
		MaxFileSize:    parseInt64("VAULTINTAKE_MAX_FILE_BYTES", defaultMaxFileSize),
		MaxRequestSize: parseInt64("VAULTINTAKE_MAX_REQUEST_BYTES", defaultMaxRequestSize),
		MetadataPrefix: parseList("VAULTINTAKE_METADATA_PREFIXES", defaultMetadataPrefix),
		ForkPrefix:     parseList("VAULTINTAKE_FORK_PREFIXES", defaultForkPrefix),
		LogLevel:       readEnv("VAULTINTAKE_LOG_LEVEL", defaultLogLevel),
		LogFormat:      readEnv("VAULTINTAKE_LOG_FORMAT", defaultLogFormat),
		SigningSecret:  parseSecret("VAULTINTAKE_SIGNING_SECRET"),
		SignedURLTTL:   parseDuration("VAULTINTAKE_SIGNED_TTL", defaultSignedTTL),
		ProcessingPool: parseInt("VAULTINTAKE_WORKERS", defaultWorkerCount),
		DatabaseURL:    readEnv("VAULTINTAKE_DATABASE_URL", ""),
		RedisAddr:      readEnv("VAULTINTAKE_REDIS_ADDR", ""),
		RedisPassword:  readEnv("VAULTINTAKE_REDIS_PASSWORD", ""),
		RedisDB:        parseInt("VAULTINTAKE_REDIS_DB", 0),
		S3Endpoint:     readEnv("VAULTINTAKE_S3_ENDPOINT", ""),
		S3AccessKey:    readEnv("VAULTINTAKE_S3_ACCESS_KEY", ""),
		S3SecretKey:    readEnv("VAULTINTAKE_S3_SECRET_KEY", ""),
		S3Region:       readEnv("VAULTINTAKE_S3_REGION", "us-east-1"),
		S3UseSSL:       parseBool("VAULTINTAKE_S3_USE_SSL", false),
		ManifestBucket: readEnv("VAULTINTAKE_MANIFEST_BUCKET", defaultManifestBucket),
	}
	if cfg.SigningSecret == nil {
		cfg.SigningSecret = randomSecret()
	}
	if cfg.ProcessingPool <= 0 {
		cfg.ProcessingPool = defaultWorkerCount
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = defaultMaxRequestSize
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = defaultSignedTTL
	}
	return cfg, nil
}

// LedgerEnabled reports whether batch records are written to Postgres.
func (c *Config) LedgerEnabled() bool { return c.DatabaseURL != "" }

// QueueEnabled reports whether persistence goes through asynq/Redis.
func (c *Config) QueueEnabled() bool { return c.RedisAddr != "" }

// ManifestsEnabled reports whether batch manifests are exported to S3.
func (c *Config) ManifestsEnabled() bool { return c.S3Endpoint != "" }

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// parseList splits a comma separated value. Setting the variable to a single
// comma disables every prefix.
func parseList(key, def string) []string {
	val := readEnv(key, def)
	out := make([]string, 0, 2)
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseSecret(key string) []byte {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return []byte(v)
	}
	return nil
}

func randomSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return []byte(hex.EncodeToString([]byte("fallbacksecret")))
	}
	return buf
}
