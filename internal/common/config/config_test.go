package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_PrefixedKeyWins(t *testing.T) {
	t.Setenv("RENTAL_SERVICE_PORT", "9090")
	t.Setenv("SERVICE_PORT", "7070")

	v, err := Load("rental")
	require.NoError(t, err)

	assert.Equal(t, ":9090", GetServicePort(v, "SERVICE_PORT"))
}

func TestLoad_FallsBackToSharedKey(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("RENTAL_DB_NAME", "rental")

	v, err := Load("rental")
	require.NoError(t, err)

	db := LoadDatabaseConfig(v, "DB_NAME")
	assert.Equal(t, "db.internal", db.Host)
	assert.Equal(t, "rental", db.DBName)
	assert.Equal(t, "5432", db.Port)
}

func TestLoadKafkaConfig_SplitsBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")

	v, err := Load("rental")
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, LoadKafkaConfig(v).Brokers)
}

func TestGetDuration(t *testing.T) {
	t.Setenv("RENTAL_ROUTING_TIMEOUT", "3s")
	t.Setenv("RENTAL_WIZARD_TTL", "soon")

	v, err := Load("rental")
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, GetDuration(v, "ROUTING_TIMEOUT", time.Second))
	assert.Equal(t, time.Hour, GetDuration(v, "WIZARD_TTL", time.Hour))
	assert.Equal(t, time.Minute, GetDuration(v, "MISSING", time.Minute))
}
