package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Search  SearchConfig  `mapstructure:"search"`
	Volumes VolumesConfig `mapstructure:"volumes"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// AllowedOrigins lists extra browser origins, such as
	// "http://localhost:5173", that may call the API. The server's own origin
	// is always allowed.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	// Workers is the size of the shared traversal pool. 0 means one per CPU.
	Workers int `mapstructure:"workers"`
	// ChannelCapacity bounds the number of matches buffered between walkers
	// and the aggregation loop.
	ChannelCapacity int `mapstructure:"channel_capacity"`
	// ExcludePaths are path prefixes that are never descended into.
	ExcludePaths []string `mapstructure:"exclude_paths"`
	// DefaultExcludes adds the platform's system directories to ExcludePaths.
	DefaultExcludes bool `mapstructure:"default_excludes"`
	// PruneTopLevel drops hidden and excluded top-level directories before
	// dispatch. Without it each one still costs a pool job, and the walker
	// rejects it on arrival.
	PruneTopLevel bool `mapstructure:"prune_top_level"`
	// StayOnVolume prunes directories that live on a different device than
	// the volume being searched.
	StayOnVolume bool `mapstructure:"stay_on_volume"`
	// Timeout bounds a single API search. 0 disables the limit.
	Timeout time.Duration `mapstructure:"timeout"`
}

// VolumesConfig holds volume monitoring configuration.
type VolumesConfig struct {
	// RefreshCron schedules the volume snapshot broadcast. Empty disables it.
	RefreshCron string `mapstructure:"refresh_cron"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7878,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Search: SearchConfig{
			Workers:         0,
			ChannelCapacity: 4096,
			DefaultExcludes: true,
			PruneTopLevel:   true,
			StayOnVolume:    true,
		},
		Volumes: VolumesConfig{
			RefreshCron: "*/5 * * * *",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables (including a .env file) > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is the common case; any variables it defines only fill
	// in what the real environment leaves unset.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.diskseek")
	}

	v.SetEnvPrefix("DISKSEEK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults mirrors Default so that env-only keys are visible to Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("search.workers", d.Search.Workers)
	v.SetDefault("search.channel_capacity", d.Search.ChannelCapacity)
	v.SetDefault("search.exclude_paths", []string{})
	v.SetDefault("search.default_excludes", d.Search.DefaultExcludes)
	v.SetDefault("search.prune_top_level", d.Search.PruneTopLevel)
	v.SetDefault("search.stay_on_volume", d.Search.StayOnVolume)
	v.SetDefault("search.timeout", d.Search.Timeout)

	v.SetDefault("volumes.refresh_cron", d.Volumes.RefreshCron)
}

// Validate rejects values the rest of the application cannot work with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Search.Workers < 0 {
		return fmt.Errorf("search.workers must not be negative, got %d", c.Search.Workers)
	}
	if c.Search.ChannelCapacity < 0 {
		return fmt.Errorf("search.channel_capacity must not be negative, got %d", c.Search.ChannelCapacity)
	}
	if c.Search.Timeout < 0 {
		return fmt.Errorf("search.timeout must not be negative, got %s", c.Search.Timeout)
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// OriginAllowed reports whether a request carrying the Origin header origin
// and addressed to host may be served. Requests without an Origin come from
// non-browser clients and are allowed.
func (c *ServerConfig) OriginAllowed(origin, host string) bool {
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host != "" && strings.EqualFold(u.Host, host) {
		return true
	}
	return c.OriginListed(origin)
}

// OriginListed reports whether origin is one of AllowedOrigins.
func (c *ServerConfig) OriginListed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// FindAvailablePort returns the first port in [start, start+attempts) that can
// be bound on all interfaces.
func FindAvailablePort(start, attempts int) (int, error) {
	for port := start; port < start+attempts; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no available port in range %d-%d", start, start+attempts-1)
}
