package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Store kinds.
const (
	StorePostgres = "postgres"
	StoreXLSX     = "xlsx"
)

// Config holds the service settings read from the environment.
type Config struct {
	HTTPAddr     string        `env:"FASTRACK_HTTP_ADDR" envDefault:":8080" validate:"required"`
	Store        string        `env:"FASTRACK_STORE" envDefault:"postgres" validate:"oneof=postgres xlsx"`
	DatabaseURL  string        `env:"FASTRACK_DATABASE_URL" validate:"required_if=Store postgres"`
	DBSchema     string        `env:"FASTRACK_DB_SCHEMA"`
	ProcessTable string        `env:"FASTRACK_PROCESS_TABLE" envDefault:"proceso"`
	DetailTable  string        `env:"FASTRACK_DETAIL_TABLE" envDefault:"detalle"`
	OrderColumn  string        `env:"FASTRACK_ORDER_COLUMN"`
	WorkbookPath string        `env:"FASTRACK_WORKBOOK" validate:"required_if=Store xlsx"`
	SharedSecret string        `env:"FASTRACK_SHARED_SECRET" validate:"required"`
	JWTSecret    string        `env:"FASTRACK_JWT_SECRET" validate:"required,min=16"`
	SessionTTL   time.Duration `env:"FASTRACK_SESSION_TTL" envDefault:"12h" validate:"gt=0"`
	SecureCookie bool          `env:"FASTRACK_SECURE_COOKIE" envDefault:"false"`
	Timezone     string        `env:"FASTRACK_TIMEZONE" envDefault:"UTC"`
	PolicyFile   string        `env:"FASTRACK_POLICY_FILE"`
}

// Load reads an optional .env file and parses the environment.
func Load(envFiles ...string) (Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings for the selected store.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
			return fmt.Errorf("config: invalid %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// loadDotEnv loads the given files, or ./.env when present. Variables already
// set in the environment are kept.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}
