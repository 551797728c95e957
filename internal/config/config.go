package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"medstock/m/internal/inventory"
)

// Config holds application configuration values.
type Config struct {
	Secret        string        `env:"SECRET" envDefault:"dev_secret"`
	HTTPPort      string        `env:"HTTP_PORT" envDefault:"8080"`
	DataDir       string        `env:"DATA_DIR" envDefault:"."`
	InventoryFile string        `env:"INVENTORY_FILE" envDefault:"inventory.csv"`
	SalesFile     string        `env:"SALES_FILE" envDefault:"sales.csv"`
	UsersFile     string        `env:"USERS_FILE" envDefault:"users.csv"`
	DatabaseDSN   string        `env:"DATABASE_DSN"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin"`
	StaffPassword string `env:"STAFF_PASSWORD" envDefault:"staff"`

	ExpiryWindowDays int `env:"EXPIRY_WINDOW_DAYS" envDefault:"30"`
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads configuration from environment variables with reasonable
// defaults.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}
	if _, err := inventory.ExpiryWindowDays(cfg.ExpiryWindowDays); err != nil {
		log.Printf("invalid EXPIRY_WINDOW_DAYS value %d, defaulting to 30", cfg.ExpiryWindowDays)
		cfg.ExpiryWindowDays = 30
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "file:" + filepath.Join(cfg.DataDir, "pharmacy.db")
	}
	return cfg, nil
}

// InventoryPath is where the inventory CSV lives.
func (c Config) InventoryPath() string {
	return c.resolve(c.InventoryFile)
}

// SalesPath is where the sales CSV lives.
func (c Config) SalesPath() string {
	return c.resolve(c.SalesFile)
}

// UsersPath is the optional CSV of extra accounts.
func (c Config) UsersPath() string {
	return c.resolve(c.UsersFile)
}

// ExpiryWindow is the default look-ahead for expiry alerts.
func (c Config) ExpiryWindow() time.Duration {
	window, err := inventory.ExpiryWindowDays(c.ExpiryWindowDays)
	if err != nil {
		return inventory.DefaultExpiryWindow
	}
	return window
}

func (c Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
