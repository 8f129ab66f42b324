package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server   ServerConfig
	Feed     FeedConfig
	Stops    StopsConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type FeedConfig struct {
	// Format selects the upstream feed flavor: gtfsrt, siri-json or siri-xml.
	Format        string        `mapstructure:"format"`
	URL           string        `mapstructure:"url"`
	APIKey        string        `mapstructure:"api_key"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	OverlapGuard  bool          `mapstructure:"overlap_guard"`
}

type StopsConfig struct {
	File          string `mapstructure:"file"`
	ZoomThreshold int    `mapstructure:"zoom_threshold"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// loadConfig initializes configuration from environment variables and an
// optional config file. Every key is overridable via BUSTRACKER_* env vars.
func loadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BUSTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	// Placeholder feed endpoint; the real key comes from the environment.
	v.SetDefault("feed.format", "gtfsrt")
	v.SetDefault("feed.url", "https://otd.delhi.gov.in/api/realtime/VehiclePositions.pb")
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.poll_interval", "1s")
	v.SetDefault("feed.fetch_timeout", "10s")
	v.SetDefault("feed.retry_attempts", 3)
	v.SetDefault("feed.retry_backoff", "2s")
	v.SetDefault("feed.overlap_guard", true)

	v.SetDefault("stops.file", "data/stops.csv")
	v.SetDefault("stops.zoom_threshold", 14)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "bustracker")
	v.SetDefault("database.password", "bustracker")
	v.SetDefault("database.dbname", "bustracker")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.connect_attempts", 15)
	v.SetDefault("database.connect_backoff", "2s")
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive, got %d", cfg.Server.Port)
	}
	if cfg.Feed.URL == "" {
		return fmt.Errorf("feed url is required")
	}
	switch cfg.Feed.Format {
	case "gtfsrt", "siri-json", "siri-xml":
	default:
		return fmt.Errorf("unknown feed format %q", cfg.Feed.Format)
	}
	if cfg.Feed.RetryAttempts < 1 {
		return fmt.Errorf("feed retry_attempts must be at least 1")
	}
	return nil
}
