package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cinedeck/cinedeck/internal/endpoint"
)

// Version is set at build time.
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Services ServicesConfig `mapstructure:"services" yaml:"services"`
	Profile  ProfileConfig  `mapstructure:"profile" yaml:"profile"`
	Health   HealthConfig   `mapstructure:"health" yaml:"health"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// RateLimitPerMinute caps API requests per client IP. Zero disables it.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ServicesConfig locates the catalogue services. A service with an empty URL
// is reached through the forwarding origin under its prefix.
type ServicesConfig struct {
	MoviesURL      string        `mapstructure:"movies_url" yaml:"movies_url"`
	PeopleURL      string        `mapstructure:"people_url" yaml:"people_url"`
	UsersURL       string        `mapstructure:"users_url" yaml:"users_url"`
	MoviesPrefix   string        `mapstructure:"movies_prefix" yaml:"movies_prefix"`
	PeoplePrefix   string        `mapstructure:"people_prefix" yaml:"people_prefix"`
	UsersPrefix    string        `mapstructure:"users_prefix" yaml:"users_prefix"`
	ForwardOrigin  string        `mapstructure:"forward_origin" yaml:"forward_origin"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency" yaml:"max_concurrency"`
}

// ProfileConfig selects the profile shown on the profile page.
type ProfileConfig struct {
	UserID string `mapstructure:"user_id" yaml:"user_id"`
}

// HealthConfig schedules the upstream probe.
type HealthConfig struct {
	ProbeCron string `mapstructure:"probe_cron" yaml:"probe_cron"`
}

// Legacy deployment variables, honoured as aliases.
var envAliases = map[string][]string{
	"services.movies_url": {"MOVIES_API_TARGET", "REACT_APP_API_BASE_URL"},
	"services.people_url": {"PEOPLE_API_TARGET", "REACT_APP_PEOPLE_API_BASE_URL"},
	"services.users_url":  {"USERS_API_TARGET", "REACT_APP_USERS_API_BASE_URL"},
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			RateLimitPerMinute: 600,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Services: ServicesConfig{
			MoviesPrefix:  endpoint.DefaultMoviesPrefix,
			PeoplePrefix:  endpoint.DefaultPeoplePrefix,
			UsersPrefix:   endpoint.DefaultUsersPrefix,
			ForwardOrigin: "http://localhost:3000",
		},
		Profile: ProfileConfig{
			UserID: "U000000000001",
		},
		Health: HealthConfig{
			ProbeCron: "*/1 * * * *",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cinedeck")
	}

	v.SetEnvPrefix("CINEDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		envs := append([]string{"CINEDECK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
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

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("services.movies_url", "")
	v.SetDefault("services.people_url", "")
	v.SetDefault("services.users_url", "")
	v.SetDefault("services.movies_prefix", d.Services.MoviesPrefix)
	v.SetDefault("services.people_prefix", d.Services.PeoplePrefix)
	v.SetDefault("services.users_prefix", d.Services.UsersPrefix)
	v.SetDefault("services.forward_origin", d.Services.ForwardOrigin)
	v.SetDefault("services.timeout", d.Services.Timeout)
	v.SetDefault("services.max_concurrency", d.Services.MaxConcurrency)

	v.SetDefault("profile.user_id", d.Profile.UserID)
	v.SetDefault("health.probe_cron", d.Health.ProbeCron)
}

// Validate rejects settings the process cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must not be negative")
	}
	if c.Services.Timeout < 0 {
		return fmt.Errorf("services.timeout must not be negative")
	}
	if c.Services.MaxConcurrency < 0 {
		return fmt.Errorf("services.max_concurrency must not be negative")
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EndpointOptions converts the services section into resolver options.
func (c *ServicesConfig) EndpointOptions() endpoint.Options {
	return endpoint.Options{
		Movies: endpoint.Target{Base: c.MoviesURL, Prefix: c.MoviesPrefix},
		People: endpoint.Target{Base: c.PeopleURL, Prefix: c.PeoplePrefix},
		Users:  endpoint.Target{Base: c.UsersURL, Prefix: c.UsersPrefix},
	}
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
