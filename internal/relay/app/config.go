package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wandering-ai/wecom-agent/pkg/httpx"
	"github.com/wandering-ai/wecom-agent/pkg/wecom"
)

// fingerprintLen is the length of cryptox.FingerprintToken output.
const fingerprintLen = 43

type Config struct {
	CorpID          string        // Required: WeCom corp id
	Secret          string        // Required: application secret
	AgentID         int64         // Required: application agent id
	BaseURL         string        // Optional: API root (default: public WeCom endpoint)
	ProactiveWindow time.Duration // Optional: refresh ahead of expiry (default: 5m)
	RefreshBackoff  time.Duration // Optional: minimum gap between token fetches (default: 10s)
	WarmInterval    time.Duration // Optional: how often the warmer checks the token (default: 1m)

	// VendorLimit throttles outbound message/send calls. Disabled unless
	// RATELIMIT_VENDOR_REQUESTS and RATELIMIT_VENDOR_WINDOW_SEC are set.
	VendorLimit httpx.RateLimitConfig

	APIKeys []string // Required: fingerprints of accepted relay keys (wecom keygen)

	DatabaseFile         string        // Optional: path to SQLite ledger (default: ./relay.db)
	DeliveryRetention    time.Duration // Optional: how long deliveries are kept (default: 30 days)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	KafkaBrokers  []string // Optional: enables delivery events when set
	KafkaTopic    string   // Optional: topic for delivery events (default: wecom.deliveries)
	KafkaClientID string   // Optional: client id reported to the brokers

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		CorpID:          os.Getenv("WECOM_CORP_ID"),
		Secret:          os.Getenv("WECOM_SECRET"),
		AgentID:         getEnvInt64OrDefault("WECOM_AGENT_ID", 0),
		BaseURL:         getEnvOrDefault("WECOM_BASE_URL", wecom.DefaultBaseURL),
		ProactiveWindow: getEnvDurationOrDefault("WECOM_PROACTIVE_WINDOW", wecom.DefaultProactiveWindow),
		RefreshBackoff:  getEnvDurationOrDefault("WECOM_REFRESH_BACKOFF", wecom.DefaultBackoff),
		WarmInterval:    getEnvDurationOrDefault("WARM_INTERVAL", time.Minute),
		VendorLimit:     httpx.ParseRateLimitFromEnv("VENDOR", httpx.RateLimitConfig{Burst: 1}),

		APIKeys: getEnvList("RELAY_API_KEYS"),

		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "relay.db"),
		DeliveryRetention:    getEnvDurationOrDefault("DELIVERY_RETENTION", 30*24*time.Hour),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		KafkaBrokers:  getEnvList("KAFKA_BROKERS"),
		KafkaTopic:    getEnvOrDefault("KAFKA_TOPIC", "wecom.deliveries"),
		KafkaClientID: os.Getenv("KAFKA_CLIENT_ID"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports every missing or malformed setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.CorpID == "" {
		errs = append(errs, errors.New("WECOM_CORP_ID is required"))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("WECOM_SECRET is required"))
	}
	if c.AgentID <= 0 {
		errs = append(errs, errors.New("WECOM_AGENT_ID must be a positive integer"))
	}
	if len(c.APIKeys) == 0 {
		errs = append(errs, errors.New("RELAY_API_KEYS must list at least one key fingerprint"))
	}
	for _, fp := range c.APIKeys {
		if len(fp) != fingerprintLen {
			errs = append(errs, fmt.Errorf("RELAY_API_KEYS entry %q is not a key fingerprint", fp))
		}
	}
	if c.RefreshBackoff < 0 {
		errs = append(errs, errors.New("WECOM_REFRESH_BACKOFF must not be negative"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}

	return errors.Join(errs...)
}

// VendorLimitEnabled reports whether outbound sends should be throttled.
func (c Config) VendorLimitEnabled() bool {
	return c.VendorLimit.RequestsPerWindow > 0 && c.VendorLimit.Window > 0
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds, matching the vendor's expires_in unit.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
