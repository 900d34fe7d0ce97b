package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cbodonnell/planetwars/pkg/log"
)

// EnvPrefix is prepended to every variable read by Load.
const EnvPrefix = "PLANETWARS_"

// Config holds the server settings read from the environment.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseURL selects the results store: postgres:// or postgresql://
	// for Postgres, sqlite:// or a bare path for SQLite.
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://planetwars.db"`

	MapsDir           string `env:"MAPS_DIR" envDefault:"maps"`
	ReplayDir         string `env:"REPLAY_DIR" envDefault:"games"`
	ReplayCompression bool   `env:"REPLAY_COMPRESSION" envDefault:"false"`

	APIPort     int    `env:"API_PORT" envDefault:"8080"`
	WSPort      int    `env:"WS_PORT" envDefault:"9142"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	TurnTimeout      time.Duration `env:"TURN_TIMEOUT" envDefault:"1s"`
	MaxPlayers       int           `env:"MAX_PLAYERS" envDefault:"8"`
	DeliveryInterval time.Duration `env:"DELIVERY_INTERVAL" envDefault:"10ms"`
	InboundRate      float64       `env:"INBOUND_RATE" envDefault:"20"`
	InboundBurst     int           `env:"INBOUND_BURST" envDefault:"40"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := log.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url is required")
	}
	for name, port := range map[string]int{"api port": c.APIPort, "ws port": c.WSPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s out of range: %d", name, port)
		}
	}
	if c.APIPort == c.WSPort {
		return fmt.Errorf("api and ws ports must differ, both are %d", c.APIPort)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("tls cert and key must be set together")
	}
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("turn timeout must be positive, got %s", c.TurnTimeout)
	}
	if c.MaxPlayers < 1 {
		return fmt.Errorf("max players must be at least 1, got %d", c.MaxPlayers)
	}
	if c.DeliveryInterval <= 0 {
		return fmt.Errorf("delivery interval must be positive, got %s", c.DeliveryInterval)
	}
	if c.InboundRate <= 0 {
		return fmt.Errorf("inbound rate must be positive, got %v", c.InboundRate)
	}
	return nil
}

// TLSEnabled reports whether both listeners should serve TLS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}
