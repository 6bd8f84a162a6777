package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. PRESALE_SERVER_PORT.
const EnvPrefix = "presale"

const (
	defaultJWTSecret = "dev-only-admin-secret-change-me-0000"
	defaultPasscode  = "changeme"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Admin      AdminConfig
	Webhook    WebhookConfig
	Ledger     LedgerConfig
	Presale    PresaleConfig
	Cloudinary CloudinaryConfig
	RateLimit  RateLimitConfig
	LogLevel   string
}

type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type AdminConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
	Issuer      string
	// InitialPasscode seeds the stored passcode hash on first start only.
	InitialPasscode string
}

type WebhookConfig struct {
	Secret string
}

type LedgerConfig struct {
	// PendingTimeout is when a Pending purchase starts being displayed as Failed.
	PendingTimeout time.Duration
	AddressFormat  string // any | ton
	// SettlementOnly limits client submissions to Pending. Completed and
	// Failed then only arrive through the signed settlement webhook.
	SettlementOnly bool
}

// PresaleConfig holds the values the config store is seeded with.
type PresaleConfig struct {
	Season     string
	TokenPrice float64
	Cap        int64
	Active     bool
	EndDate    string // RFC3339, empty for none
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8099")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "presale:presale@tcp(localhost:3306)/presale?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("admin.jwt_secret", defaultJWTSecret)
	v.SetDefault("admin.token_expiry", 12*time.Hour)
	v.SetDefault("admin.issuer", "presale-admin")
	v.SetDefault("admin.initial_passcode", defaultPasscode)

	v.SetDefault("webhook.secret", "")

	v.SetDefault("ledger.pending_timeout", 5*time.Minute)
	v.SetDefault("ledger.address_format", "any")
	v.SetDefault("ledger.settlement_only", false)

	v.SetDefault("presale.season", "Stage 1")
	v.SetDefault("presale.token_price", 0.01)
	v.SetDefault("presale.cap", 0)
	v.SetDefault("presale.active", true)
	v.SetDefault("presale.end_date", "")

	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")
	v.SetDefault("cloudinary.folder", "presale")

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("log.level", "info")
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"port":      "server.port",
	"env":       "server.env",
	"db-driver": "database.driver",
	"db-dsn":    "database.dsn",
	"log-level": "log.level",
}

// Load reads configuration from defaults, .env files, PRESALE_* environment
// variables and, when given, command line flags (highest precedence).
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			Env:             v.GetString("server.env"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			DSN:             v.GetString("database.dsn"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Admin: AdminConfig{
			JWTSecret:       v.GetString("admin.jwt_secret"),
			TokenExpiry:     v.GetDuration("admin.token_expiry"),
			Issuer:          v.GetString("admin.issuer"),
			InitialPasscode: v.GetString("admin.initial_passcode"),
		},
		Webhook: WebhookConfig{
			Secret: v.GetString("webhook.secret"),
		},
		Ledger: LedgerConfig{
			PendingTimeout: v.GetDuration("ledger.pending_timeout"),
			AddressFormat:  strings.ToLower(v.GetString("ledger.address_format")),
			SettlementOnly: v.GetBool("ledger.settlement_only"),
		},
		Presale: PresaleConfig{
			Season:     v.GetString("presale.season"),
			TokenPrice: v.GetFloat64("presale.token_price"),
			Cap:        v.GetInt64("presale.cap"),
			Active:     v.GetBool("presale.active"),
			EndDate:    v.GetString("presale.end_date"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: v.GetString("cloudinary.cloud_name"),
			APIKey:    v.GetString("cloudinary.api_key"),
			APISecret: v.GetString("cloudinary.api_secret"),
			Folder:    v.GetString("cloudinary.folder"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("rate_limit.requests"),
			Window:   v.GetDuration("rate_limit.window"),
		},
		LogLevel: v.GetString("log.level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q (expected mysql, postgres or sqlite)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if len(c.Admin.JWTSecret) < 32 {
		return fmt.Errorf("admin jwt secret must be at least 32 characters")
	}
	if c.Admin.TokenExpiry <= 0 {
		return fmt.Errorf("admin token expiry must be positive")
	}
	if c.Ledger.PendingTimeout <= 0 {
		return fmt.Errorf("ledger pending timeout must be positive")
	}
	switch c.Ledger.AddressFormat {
	case "any", "ton":
	default:
		return fmt.Errorf("unsupported address format %q (expected any or ton)", c.Ledger.AddressFormat)
	}
	if c.Presale.TokenPrice <= 0 {
		return fmt.Errorf("presale token price must be positive")
	}
	if c.Presale.EndDate != "" {
		if _, err := time.Parse(time.RFC3339, c.Presale.EndDate); err != nil {
			return fmt.Errorf("presale end date must be RFC3339: %w", err)
		}
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) ValidateProduction() error {
	if !c.IsProduction() {
		return nil
	}
	if c.Admin.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("admin jwt secret must be changed from default in production")
	}
	if c.Admin.InitialPasscode == defaultPasscode {
		return fmt.Errorf("admin initial passcode must be changed from default in production")
	}
	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook secret must be set in production")
	}
	if c.Database.Driver == "sqlite" {
		return fmt.Errorf("sqlite is not supported in production")
	}
	return nil
}
