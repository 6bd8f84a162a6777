package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8099" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8099")
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "mysql")
	}
	if cfg.Ledger.PendingTimeout != 5*time.Minute {
		t.Errorf("Ledger.PendingTimeout = %v, want 5m", cfg.Ledger.PendingTimeout)
	}
	if !cfg.Presale.Active {
		t.Error("Presale.Active = false, want true")
	}
	if cfg.Ledger.SettlementOnly {
		t.Error("Ledger.SettlementOnly = true, want false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PRESALE_SERVER_PORT", "9000")
	t.Setenv("PRESALE_DATABASE_DRIVER", "postgres")
	t.Setenv("PRESALE_LEDGER_PENDING_TIMEOUT", "90s")
	t.Setenv("PRESALE_LEDGER_ADDRESS_FORMAT", "TON")
	t.Setenv("PRESALE_LEDGER_SETTLEMENT_ONLY", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "9000")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "postgres")
	}
	if cfg.Ledger.PendingTimeout != 90*time.Second {
		t.Errorf("Ledger.PendingTimeout = %v, want 90s", cfg.Ledger.PendingTimeout)
	}
	if cfg.Ledger.AddressFormat != "ton" {
		t.Errorf("Ledger.AddressFormat = %q, want %q", cfg.Ledger.AddressFormat, "ton")
	}
	if !cfg.Ledger.SettlementOnly {
		t.Error("Ledger.SettlementOnly = false, want true")
	}
}

func TestLoad_FlagsTakePrecedence(t *testing.T) {
	t.Setenv("PRESALE_SERVER_PORT", "9000")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("port", "8099", "")
	flags.String("db-driver", "mysql", "")
	if err := flags.Parse([]string{"--port=7000", "--db-driver=sqlite"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "7000")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "sqlite")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "Unknown driver", key: "PRESALE_DATABASE_DRIVER", val: "oracle"},
		{name: "Short JWT secret", key: "PRESALE_ADMIN_JWT_SECRET", val: "short"},
		{name: "Unknown address format", key: "PRESALE_LEDGER_ADDRESS_FORMAT", val: "btc"},
		{name: "Bad end date", key: "PRESALE_PRESALE_END_DATE", val: "tomorrow"},
		{name: "Zero token price", key: "PRESALE_PRESALE_TOKEN_PRICE", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(nil); err == nil {
				t.Errorf("Load() expected error for %s=%s, got nil", tt.key, tt.val)
			}
		})
	}
}

func TestValidateProduction(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Env: "production"},
			Database: DatabaseConfig{Driver: "postgres"},
			Admin: AdminConfig{
				JWTSecret:       "production_secret_key_that_is_long_enough",
				InitialPasscode: "s3cret-passcode",
			},
			Webhook: WebhookConfig{Secret: "whsec"},
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		shouldErr bool
	}{
		{name: "Valid production config", mutate: func(c *Config) {}, shouldErr: false},
		{name: "Development mode - no validation", mutate: func(c *Config) {
			c.Server.Env = "development"
			c.Webhook.Secret = ""
		}, shouldErr: false},
		{name: "Default JWT secret", mutate: func(c *Config) { c.Admin.JWTSecret = defaultJWTSecret }, shouldErr: true},
		{name: "Default passcode", mutate: func(c *Config) { c.Admin.InitialPasscode = defaultPasscode }, shouldErr: true},
		{name: "Missing webhook secret", mutate: func(c *Config) { c.Webhook.Secret = "" }, shouldErr: true},
		{name: "SQLite driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateProduction()
			if tt.shouldErr && err == nil {
				t.Error("ValidateProduction() expected error, got nil")
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("ValidateProduction() unexpected error = %v", err)
			}
		})
	}
}
