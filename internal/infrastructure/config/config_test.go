package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := fromViper(viper.New())
		require.NoError(t, err)

		assert.Equal(t, "backoffice", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "backoffice", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled())
	})

	t.Run("business defaults", func(t *testing.T) {
		cfg, err := fromViper(viper.New())
		require.NoError(t, err)

		assert.Equal(t, 15, cfg.Business.CustomerPaymentTermsDays)
		assert.Equal(t, 30, cfg.Business.SupplierPaymentTermsDays)
		assert.Equal(t, 24*time.Hour, cfg.Business.IdempotencyTTL)
		assert.Equal(t, 10*time.Second, cfg.Business.LockTTL)
		assert.Equal(t, 500, cfg.Business.MaxPageSize)
		assert.Equal(t, time.Hour, cfg.Scheduler.DebtAgingInterval)
	})

	t.Run("loads values from environment variables with BACKOFFICE prefix", func(t *testing.T) {
		t.Setenv("BACKOFFICE_APP_NAME", "test-app")
		t.Setenv("BACKOFFICE_APP_PORT", "9000")
		t.Setenv("BACKOFFICE_DATABASE_HOST", "testdb.local")
		t.Setenv("BACKOFFICE_DATABASE_PORT", "5433")
		t.Setenv("BACKOFFICE_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("BACKOFFICE_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("BACKOFFICE_REDIS_HOST", "cache.local")
		t.Setenv("BACKOFFICE_BUSINESS_CUSTOMER_PAYMENT_TERMS_DAYS", "7")
		t.Setenv("BACKOFFICE_BUSINESS_LOCK_TTL", "30s")

		cfg, err := fromViper(viper.New())
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, 7, cfg.Business.CustomerPaymentTermsDays)
		assert.Equal(t, 30*time.Second, cfg.Business.LockTTL)
	})

	t.Run("sqlite driver", func(t *testing.T) {
		t.Setenv("BACKOFFICE_DATABASE_DRIVER", "sqlite")
		t.Setenv("BACKOFFICE_DATABASE_SQLITE_PATH", ":memory:")

		cfg, err := fromViper(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, ":memory:", cfg.Database.SQLitePath)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		t.Setenv("BACKOFFICE_DATABASE_DRIVER", "mysql")

		_, err := fromViper(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("BACKOFFICE_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("BACKOFFICE_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := fromViper(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		t.Setenv("BACKOFFICE_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := fromViper(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects negative payment terms", func(t *testing.T) {
		t.Setenv("BACKOFFICE_BUSINESS_SUPPLIER_PAYMENT_TERMS_DAYS", "-5")

		_, err := fromViper(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment terms")
	})

	t.Run("lock ttl must cover the retry timeout", func(t *testing.T) {
		t.Setenv("BACKOFFICE_BUSINESS_LOCK_TTL", "1s")
		t.Setenv("BACKOFFICE_BUSINESS_LOCK_RETRY_TIMEOUT", "5s")

		_, err := fromViper(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock_ttl")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("BACKOFFICE_APP_ENV", "production")
		t.Setenv("BACKOFFICE_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("BACKOFFICE_DATABASE_PASSWORD", "secure-password")
		t.Setenv("BACKOFFICE_DATABASE_SSLMODE", "require")
	}

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "requires jwt.secret",
			env:     map[string]string{"BACKOFFICE_JWT_SECRET": ""},
			wantErr: "jwt.secret is required in production",
		},
		{
			name:    "requires a long jwt.secret",
			env:     map[string]string{"BACKOFFICE_JWT_SECRET": "short-secret"},
			wantErr: "jwt.secret must be at least 32 characters",
		},
		{
			name:    "requires database.password",
			env:     map[string]string{"BACKOFFICE_DATABASE_PASSWORD": ""},
			wantErr: "database.password is required in production",
		},
		{
			name:    "requires SSL",
			env:     map[string]string{"BACKOFFICE_DATABASE_SSLMODE": "disable"},
			wantErr: "database.sslmode cannot be 'disable' in production",
		},
		{
			name:    "requires postgres",
			env:     map[string]string{"BACKOFFICE_DATABASE_DRIVER": "sqlite"},
			wantErr: "database.driver must be postgres in production",
		},
		{
			name:    "rejects wildcard CORS",
			env:     map[string]string{"BACKOFFICE_HTTP_CORS_ALLOW_ORIGINS": "*"},
			wantErr: "cors_allow_origins cannot be '*'",
		},
		{
			name:    "rejects full SQL in traces",
			env:     map[string]string{"BACKOFFICE_TELEMETRY_DB_LOG_FULL_SQL": "true"},
			wantErr: "db_log_full_sql",
		},
		{
			name: "passes with valid production config",
			env:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := fromViper(viper.New())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "production", cfg.App.Env)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
