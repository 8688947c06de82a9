package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

// ─────────────────────────────────────────────────────────────────────────────
// Valores por defecto
// ─────────────────────────────────────────────────────────────────────────────

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "exact", cfg.Ledger.ReversalMode)
	assert.Equal(t, "counter", cfg.Ledger.SequenceMode)
	assert.Equal(t, -5, cfg.Ledger.UTCOffsetHours)
	assert.Equal(t, 3, cfg.Ledger.DueSoonDays)
	assert.Equal(t, "asynq", cfg.Alerts.Mode)
	assert.Equal(t, 5*time.Second, cfg.Alerts.CreditRescanDelay)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "0.0.0.0:9091", cfg.Alerts.WorkerMetricsAddr)
}

// ─────────────────────────────────────────────────────────────────────────────
// Variables de entorno
// ─────────────────────────────────────────────────────────────────────────────

func TestLoad_EnvSobrescribe(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("LEDGER_REVERSAL_MODE", "legacy")
	t.Setenv("BUSINESS_UTC_OFFSET_HOURS", "-3")
	t.Setenv("CREDIT_DUE_SOON_DAYS", "7")
	t.Setenv("ALERTS_MODE", "inline")
	t.Setenv("ALERTS_CREDIT_RESCAN_DELAY_SECONDS", "1")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("ALERTS_WORKER_METRICS_ADDR", "127.0.0.1:9999")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, "legacy", cfg.Ledger.ReversalMode)
	assert.Equal(t, -3, cfg.Ledger.UTCOffsetHours)
	assert.Equal(t, 7, cfg.Ledger.DueSoonDays)
	assert.Equal(t, "inline", cfg.Alerts.Mode)
	assert.Equal(t, time.Second, cfg.Alerts.CreditRescanDelay)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, "127.0.0.1:9999", cfg.Alerts.WorkerMetricsAddr)
}

func TestLoad_EnteroInvalidoUsaDefecto(t *testing.T) {
	t.Setenv("CREDIT_DUE_SOON_DAYS", "tres")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Ledger.DueSoonDays)
}

// ─────────────────────────────────────────────────────────────────────────────
// Validación
// ─────────────────────────────────────────────────────────────────────────────

func TestLoad_Invalidos(t *testing.T) {
	cases := map[string][2]string{
		"driver":   {"DB_DRIVER", "mysql"},
		"reversa":  {"LEDGER_REVERSAL_MODE", "aproximado"},
		"sequence": {"LEDGER_SEQUENCE_MODE", "random"},
		"alertas":  {"ALERTS_MODE", "kafka"},
		"offset":   {"BUSINESS_UTC_OFFSET_HOURS", "20"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), kv[0])
		})
	}
}

func TestConnectionString(t *testing.T) {
	db := config.DBConfig{Host: "db", Port: 5432, User: "ledger", Password: "p@ss:w/rd", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://ledger:p%40ss%3Aw%2Frd@db:5432/inv?sslmode=disable", db.ConnectionString())

	db.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", db.ConnectionString())
}
