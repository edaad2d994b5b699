package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-accounts/pkg/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg := config.FromViper(viper.New())

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.Identity.LocalVerification())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_LeeValoresYListas(t *testing.T) {
	v := viper.New()
	v.Set("IDENTITY_URL", "https://auth.example.com/auth/v1/")
	v.Set("IDENTITY_SERVICE_KEY", "service-key")
	v.Set("IDENTITY_JWT_SECRET", "jwt-secret")
	v.Set("IDENTITY_TIMEOUT", "3s")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	v.Set("DB_PORT", "6543")
	v.Set("ADMIN_RATE_PER_SECOND", "2.5")

	cfg := config.FromViper(v)

	assert.Equal(t, "https://auth.example.com/auth/v1", cfg.Identity.URL, "se recorta la barra final")
	assert.Equal(t, 3*time.Second, cfg.Identity.Timeout)
	assert.True(t, cfg.Identity.LocalVerification())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.InDelta(t, 2.5, cfg.RateLimit.PerSecond, 0.0001)
}

func TestValidate_RequiereIdentityYDB(t *testing.T) {
	cfg := config.FromViper(viper.New())

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDENTITY_URL")
	assert.Contains(t, err.Error(), "IDENTITY_SERVICE_KEY")
	assert.Contains(t, err.Error(), "DB_PASSWORD")

	cfg.Identity.URL = "https://auth.example.com"
	cfg.Identity.ServiceKey = "k"
	cfg.DB.DatabaseURL = "postgres://svc@db/postgres"
	assert.NoError(t, cfg.Validate())
}

func TestDBConfig_ConnectionStringEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "svc", Password: "p@ss/word", DBName: "app", SSLMode: "require"}
	assert.Equal(t, "postgres://svc:p%40ss%2Fword@db:5432/app?sslmode=require", c.ConnectionString())

	c.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", c.ConnectionString())
}
