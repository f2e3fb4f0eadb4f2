package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 3, cfg.Sales.MaxAttempts)
	assert.Equal(t, 25*time.Millisecond, cfg.Sales.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.Redis.StatsTTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_ValoresDesdeEntorno(t *testing.T) {
	v := viper.New()
	v.Set("DB_DRIVER", "SQLite")
	v.Set("SQLITE_PATH", "/tmp/pos.db")
	v.Set("SALES_MAX_ATTEMPTS", "5")
	v.Set("STATS_CACHE_TTL", "2m")
	v.Set("DB_AUTO_MIGRATE", "false")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/pos.db", cfg.DB.SQLitePath)
	assert.Equal(t, 5, cfg.Sales.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Redis.StatsTTL)
	assert.False(t, cfg.DB.AutoMigrate)
}

func TestFromViper_TTLEnSegundos(t *testing.T) {
	v := viper.New()
	v.Set("STATS_CACHE_TTL", "45")
	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Redis.StatsTTL)
}

func TestFromViper_DriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("DB_DRIVER", "mongo")
	_, err := fromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestFromViper_MaxAttemptsInvalido(t *testing.T) {
	v := viper.New()
	v.Set("SALES_MAX_ATTEMPTS", "0")
	_, err := fromViper(v)
	require.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:w/rd", DBName: "tienda", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%3Aw%2Frd@db:5432/tienda?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
