package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Redis  RedisConfig
	Ledger LedgerConfig
	Alerts AlertsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	Driver      string // postgres | memory
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig conexión a Redis (asynq y locks).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LedgerConfig reglas del ledger.
type LedgerConfig struct {
	ReversalMode   string // exact | legacy
	SequenceMode   string // counter | legacy
	UTCOffsetHours int
	DueSoonDays    int
}

// AlertsConfig despacho de alertas post-commit.
type AlertsConfig struct {
	Mode              string // asynq | inline
	CreditRescanDelay time.Duration
	PollInterval      time.Duration
	BatchSize         int
	MaxAttempts       int
	WorkerConcurrency int
	WorkerMetricsAddr string // host:port de /metrics del worker; "off" lo desactiva
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, LEDGER_REVERSAL_MODE, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "inventario-ledger"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver:      getString(v, "DB_DRIVER", "postgres"),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "inventario"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "inventario-ledger"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Ledger: LedgerConfig{
			ReversalMode:   getString(v, "LEDGER_REVERSAL_MODE", "exact"),
			SequenceMode:   getString(v, "LEDGER_SEQUENCE_MODE", "counter"),
			UTCOffsetHours: getInt(v, "BUSINESS_UTC_OFFSET_HOURS", -5),
			DueSoonDays:    getInt(v, "CREDIT_DUE_SOON_DAYS", 3),
		},
		Alerts: AlertsConfig{
			Mode:              getString(v, "ALERTS_MODE", "asynq"),
			CreditRescanDelay: time.Duration(getInt(v, "ALERTS_CREDIT_RESCAN_DELAY_SECONDS", 5)) * time.Second,
			PollInterval:      time.Duration(getInt(v, "ALERTS_OUTBOX_POLL_MS", 2000)) * time.Millisecond,
			BatchSize:         getInt(v, "ALERTS_OUTBOX_BATCH_SIZE", 50),
			MaxAttempts:       getInt(v, "ALERTS_OUTBOX_MAX_ATTEMPTS", 8),
			WorkerConcurrency: getInt(v, "ALERTS_WORKER_CONCURRENCY", 5),
			WorkerMetricsAddr: getString(v, "ALERTS_WORKER_METRICS_ADDR", "0.0.0.0:9091"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: DB_DRIVER inválido %q", c.DB.Driver)
	}
	switch c.Ledger.ReversalMode {
	case "exact", "legacy":
	default:
		return fmt.Errorf("config: LEDGER_REVERSAL_MODE inválido %q", c.Ledger.ReversalMode)
	}
	switch c.Ledger.SequenceMode {
	case "counter", "legacy":
	default:
		return fmt.Errorf("config: LEDGER_SEQUENCE_MODE inválido %q", c.Ledger.SequenceMode)
	}
	switch c.Alerts.Mode {
	case "asynq", "inline":
	default:
		return fmt.Errorf("config: ALERTS_MODE inválido %q", c.Alerts.Mode)
	}
	if c.Ledger.UTCOffsetHours < -12 || c.Ledger.UTCOffsetHours > 14 {
		return fmt.Errorf("config: BUSINESS_UTC_OFFSET_HOURS fuera de rango: %d", c.Ledger.UTCOffsetHours)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
