package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 2, cfg.ProviderRetries)
	assert.Equal(t, 4.0, cfg.ProviderRateLimit)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 4096, cfg.CacheSize)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "scored-scenarios", cfg.KafkaSinkTopic)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PROVIDER_TIMEOUT", "30s")
	t.Setenv("PROVIDER_RATE_LIMIT", "0.5")
	t.Setenv("CACHE_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 0.5, cfg.ProviderRateLimit)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}

func TestLoad_KafkaBrokersSplit(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]struct {
		key, value string
	}{
		"zero provider timeout":   {"PROVIDER_TIMEOUT", "0s"},
		"negative retries":        {"PROVIDER_RETRIES", "-1"},
		"zero rate limit":         {"PROVIDER_RATE_LIMIT", "0"},
		"zero cache ttl":          {"CACHE_TTL", "0s"},
		"zero cache size":         {"CACHE_SIZE", "0"},
		"zero shutdown timeout":   {"SHUTDOWN_TIMEOUT", "0s"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_EmptySinkTopicWithBrokersFails(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "")

	_, err := Load()
	require.Error(t, err)
}
