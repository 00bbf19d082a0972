package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("GLOW_STR", "value")
	t.Setenv("GLOW_INT", "42")
	t.Setenv("GLOW_BAD_INT", "forty")

	assert.Equal(t, "value", EnvDefault("GLOW_STR", "def"))
	assert.Equal(t, "def", EnvDefault("GLOW_MISSING", "def"))
	assert.Equal(t, 42, EnvIntDefault("GLOW_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("GLOW_BAD_INT", 1))

	t.Setenv("GLOW_BOOL", "false")
	assert.False(t, EnvBoolDefault("GLOW_BOOL", true))
	assert.True(t, EnvBoolDefault("GLOW_MISSING", true))
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SERVER_PORT", "9090")

	cfg := Load("testdata/does-not-exist.env")

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file::memory:", cfg.DatabaseURL)
	assert.Equal(t, []byte("secret"), cfg.JWTAccessSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "products", cfg.ESIndex)
	assert.EqualValues(t, 5<<20, cfg.UploadMaxBytes)
	assert.True(t, cfg.CSRFEnabled)
}

func TestOneOf(t *testing.T) {
	require.NoError(t, OneOf("sqlite", "DB_DRIVER", "postgres", "sqlite"))
	require.Error(t, OneOf("mysql", "DB_DRIVER", "postgres", "sqlite"))
	require.Error(t, NonEmpty("", "JWT_SECRET"))
}
