// Package config centralizes how LinkSeal reads environment variables and
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

// Config represents runtime configuration shared by the server, the worker
// and the CLI. Optional backends (Postgres, Redis, S3) are enabled by setting
// their address; when left empty the in-memory implementations are used.
type Config struct {
	Address      string
	PublicURL    string
	MaxFileSize  int64
	AllowedTypes []string

	// SigningSecrets is ordered: the first secret signs, all of them verify.
	SigningSecrets  []string
	SigningHash     string
	SignedURLTTL    time.Duration
	GeneratedSecret bool

	TrustProxy     bool
	JWTSecret      []byte
	ProcessingPool int
	RateLimit      int
	RateWindow     time.Duration

	LogLevel  string
	LogFormat string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool
	Bucket      string
}

const (
	defaultAddress      = ":8080"
	defaultPublicURL    = "http://localhost:8080"
	defaultMaxFileSize  = 25 << 20 // 25 MiB
	defaultAllowedTypes = "application/pdf,image/png,image/jpeg,text/plain; charset=utf-8"
	defaultHash         = "md5"
	defaultSignedTTL    = 5 * time.Minute
	defaultWorkerCount  = 2
	defaultRateLimit    = 60
	defaultRateWindow   = time.Minute
	defaultBucket       = "linkseal"
	defaultRegion       = "us-east-1"
)

// Load reads configuration from environment variables falling back to defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Address:        readEnv("LINKSEAL_ADDRESS", defaultAddress),
		PublicURL:      strings.TrimSuffix(readEnv("LINKSEAL_PUBLIC_URL", defaultPublicURL), "/"),
		MaxFileSize:    parseInt64("LINKSEAL_MAX_FILE_BYTES", defaultMaxFileSize),
		AllowedTypes:   parseList("LINKSEAL_ALLOWED_TYPES", defaultAllowedTypes),
		SigningSecrets: parseList("LINKSEAL_SECRETS", ""),
		SigningHash:    readEnv("LINKSEAL_HASH", defaultHash),
		SignedURLTTL:   parseDuration("LINKSEAL_SIGNED_TTL", defaultSignedTTL),
		TrustProxy:     parseBool("LINKSEAL_TRUST_PROXY", false),
		JWTSecret:      parseSecret("LINKSEAL_JWT_SECRET"),
		ProcessingPool: parseInt("LINKSEAL_WORKERS", defaultWorkerCount),
		RateLimit:      parseInt("LINKSEAL_RATE_LIMIT", defaultRateLimit),
		RateWindow:     parseDuration("LINKSEAL_RATE_WINDOW", defaultRateWindow),
		LogLevel:       readEnv("LINKSEAL_LOG_LEVEL", "info"),
		LogFormat:      readEnv("LINKSEAL_LOG_FORMAT", "json"),
		DatabaseURL:    readEnv("LINKSEAL_DATABASE_URL", ""),
		RedisAddr:      readEnv("LINKSEAL_REDIS_ADDR", ""),
		RedisPassword:  readEnv("LINKSEAL_REDIS_PASSWORD", ""),
		RedisDB:        parseInt("LINKSEAL_REDIS_DB", 0),
		S3Endpoint:     readEnv("LINKSEAL_S3_ENDPOINT", ""),
		S3AccessKey:    readEnv("LINKSEAL_S3_ACCESS_KEY", ""),
		S3SecretKey:    readEnv("LINKSEAL_S3_SECRET_KEY", ""),
		S3Region:       readEnv("LINKSEAL_S3_REGION", defaultRegion),
		S3UseSSL:       parseBool("LINKSEAL_S3_USE_SSL", false),
		Bucket:         readEnv("LINKSEAL_BUCKET", defaultBucket),
	}
	if len(cfg.SigningSecrets) == 0 {
		// Links signed with a generated secret die with the process, so
		// callers are expected to warn about it.
		cfg.SigningSecrets = []string{randomSecret()}
		cfg.GeneratedSecret = true
	}
	if cfg.JWTSecret == nil {
		cfg.JWTSecret = []byte(randomSecret())
	}
	if cfg.ProcessingPool <= 0 {
		cfg.ProcessingPool = defaultWorkerCount
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.SignedURLTTL < 0 {
		cfg.SignedURLTTL = 0
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = defaultRateWindow
	}
	return cfg, nil
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// parseList splits a comma separated variable, dropping blank entries.
func parseList(key, def string) []string {
	val := readEnv(key, def)
	if val == "" {
		return nil
	}
	var out []string
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
	// time.ParseDuration understands inputs like "5m" or "30s".
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

// RandomSecret returns n random bytes as hex.
func RandomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randomSecret() string {
	s, err := RandomSecret(32)
	if err != nil {
		return hex.EncodeToString([]byte("fallbacksecret"))
	}
	return s
}
