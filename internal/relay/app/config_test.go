package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wandering-ai/wecom-agent/pkg/cryptox"
	"github.com/wandering-ai/wecom-agent/pkg/wecom"
)

var (
	testFingerprint  = cryptox.FingerprintToken("wcr_first")
	otherFingerprint = cryptox.FingerprintToken("wcr_second")
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("WECOM_CORP_ID", "ww1234")
	t.Setenv("WECOM_SECRET", "s3cr3t")
	t.Setenv("WECOM_AGENT_ID", "1000002")
	t.Setenv("RELAY_API_KEYS", testFingerprint)

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	require.Equal(t, int64(1000002), cfg.AgentID)
	require.Equal(t, wecom.DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, 5*time.Minute, cfg.ProactiveWindow)
	require.Equal(t, 10*time.Second, cfg.RefreshBackoff)
	require.Equal(t, "relay.db", cfg.DatabaseFile)
	require.Equal(t, 30*24*time.Hour, cfg.DeliveryRetention)
	require.Equal(t, 8080, cfg.Port)
	require.Empty(t, cfg.KafkaBrokers)
	require.False(t, cfg.VendorLimitEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("WECOM_CORP_ID", "ww1234")
	t.Setenv("WECOM_SECRET", "s3cr3t")
	t.Setenv("WECOM_AGENT_ID", "7")
	t.Setenv("WECOM_PROACTIVE_WINDOW", "120")
	t.Setenv("WECOM_REFRESH_BACKOFF", "30s")
	t.Setenv("RELAY_API_KEYS", " "+testFingerprint+" ,,"+otherFingerprint)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("RATELIMIT_VENDOR_REQUESTS", "30")
	t.Setenv("RATELIMIT_VENDOR_WINDOW_SEC", "60")
	t.Setenv("PORT", "9090")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	require.Equal(t, 2*time.Minute, cfg.ProactiveWindow)
	require.Equal(t, 30*time.Second, cfg.RefreshBackoff)
	require.Equal(t, []string{testFingerprint, otherFingerprint}, cfg.APIKeys)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.VendorLimitEnabled())
	require.Equal(t, 1, cfg.VendorLimit.Burst)
	require.Equal(t, 9090, cfg.Port)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		CorpID:  "ww1234",
		Secret:  "s3cr3t",
		AgentID: 1,
		APIKeys: []string{testFingerprint},
		Port:    8080,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing corp", func(c *Config) { c.CorpID = "" }, "WECOM_CORP_ID"},
		{"missing secret", func(c *Config) { c.Secret = "" }, "WECOM_SECRET"},
		{"bad agent", func(c *Config) { c.AgentID = 0 }, "WECOM_AGENT_ID"},
		{"no keys", func(c *Config) { c.APIKeys = nil }, "RELAY_API_KEYS"},
		{"raw key instead of fingerprint", func(c *Config) { c.APIKeys = []string{"wcr_abc"} }, "not a key fingerprint"},
		{"negative backoff", func(c *Config) { c.RefreshBackoff = -time.Second }, "WECOM_REFRESH_BACKOFF"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
