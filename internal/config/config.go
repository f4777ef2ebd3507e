package config

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. AUCTION_LOG_LEVEL
const Prefix = "auction"

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config is the process configuration read from the environment
type Config struct {
	ServeAddress    string        `envconfig:"SERVE_ADDRESS" default:":8080" desc:"HTTP listen address"`
	DatabaseDriver  string        `envconfig:"DATABASE_DRIVER" default:"memory" desc:"memory, postgres or sqlite3"`
	DatabaseDSN     string        `envconfig:"DATABASE_DSN" desc:"connection string for the SQL drivers"`
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"5s" desc:"period of the expiry sweep"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" desc:"logrus level"`
	MaxBidAttempts  int           `envconfig:"MAX_BID_ATTEMPTS" default:"3" desc:"bid retries after a lost version race"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" desc:"grace period for in-flight requests"`
}

// Load reads the configuration from AUCTION_* variables
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("config: %s driver needs AUCTION_DATABASE_DSN", c.DatabaseDriver)
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.DatabaseDriver)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("config: sweep interval must be positive, got %s", c.SweepInterval)
	}
	if c.MaxBidAttempts <= 0 {
		return fmt.Errorf("config: max bid attempts must be positive, got %d", c.MaxBidAttempts)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// Usage writes the supported variables as a table to out
func Usage(out io.Writer) error {
	var cfg Config
	tabs := tabwriter.NewWriter(out, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(Prefix, &cfg, tabs, envconfig.DefaultTableFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return tabs.Flush()
}
