package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RENTAL_DB_NAME", "rental")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "rental", cfg.DBConfig.DBName)
	assert.Equal(t, "localhost:6379", cfg.RedisConfig.Addr)
	assert.Equal(t, "id", cfg.MapsRegion)
	assert.Equal(t, 24*time.Hour, cfg.WizardTTL)
	assert.Equal(t, 5*time.Second, cfg.RoutingTimeout)
	assert.Equal(t, 12*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "Asia/Makassar", cfg.Location.String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RENTAL_SERVICE_PORT", "9090")
	t.Setenv("RENTAL_WIZARD_TTL", "2h")
	t.Setenv("RENTAL_PERSIST_TIMEOUT", "not-a-duration")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("RENTAL_TIMEZONE", "Mars/Olympus")
	t.Setenv("RENTAL_REQUEST_TIMEOUT", "8s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.WizardTTL)
	assert.Equal(t, 10*time.Second, cfg.PersistTimeout)
	assert.Equal(t, 8*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, time.UTC, cfg.Location)
}
