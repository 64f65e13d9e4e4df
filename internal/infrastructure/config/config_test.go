package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Distribution: DistributionConfig{
			TitheOfTithePercent:       10,
			FinanceCommitteePercent:   5,
			PastoralTithePercent:      10,
			PastoralSustenancePercent: 25,
		},
	}
	applyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("accepts a complete development config", func(t *testing.T) {
		assert.NoError(t, validConfig().validate())
	})

	t.Run("rejects idle conns over open conns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 100
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects out-of-range sampling ratio", func(t *testing.T) {
		cfg := validConfig()
		cfg.Telemetry.SamplingRatio = 1.5
		assert.Error(t, cfg.validate())
	})
}

func TestValidateDistribution(t *testing.T) {
	t.Run("rejects an unconfigured table", func(t *testing.T) {
		cfg := validConfig()
		cfg.Distribution = DistributionConfig{}
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "distribution percentages must be configured")
	})

	t.Run("rejects negative shares", func(t *testing.T) {
		cfg := validConfig()
		cfg.Distribution.PastoralTithePercent = -1
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects a table over 100%", func(t *testing.T) {
		cfg := validConfig()
		cfg.Distribution.PastoralSustenancePercent = 90
		assert.Error(t, cfg.validate())
	})

	t.Run("accepts a table at exactly 100%", func(t *testing.T) {
		cfg := validConfig()
		cfg.Distribution = DistributionConfig{
			TitheOfTithePercent:       25,
			FinanceCommitteePercent:   25,
			PastoralTithePercent:      25,
			PastoralSustenancePercent: 25,
		}
		assert.NoError(t, cfg.validate())
	})
}

func TestValidateProduction(t *testing.T) {
	base := func() *Config {
		cfg := validConfig()
		cfg.App.Env = "production"
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		return cfg
	}

	t.Run("accepts hardened production config", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("requires a long jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.JWT.Secret = "short"
		assert.Error(t, cfg.validate())
	})

	t.Run("requires a database password", func(t *testing.T) {
		cfg := base()
		cfg.Database.Password = ""
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects sslmode disable", func(t *testing.T) {
		cfg := base()
		cfg.Database.SSLMode = "disable"
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects wildcard CORS origin", func(t *testing.T) {
		cfg := base()
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		assert.Error(t, cfg.validate())
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "treasury",
		Password: "p@ss/word",
		DBName:   "church_treasury",
		SSLMode:  "require",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss/word", "password must be escaped")
}
