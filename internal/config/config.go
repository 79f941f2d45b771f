// internal/config/config.go - Configuration management
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"trip-heatmap/internal"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Source   SourceConfig   `mapstructure:"source"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Grid     GridConfig     `mapstructure:"grid"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Poll     PollConfig     `mapstructure:"poll"`
	Color    ColorConfig    `mapstructure:"color"`
	Output   OutputConfig   `mapstructure:"output"`
	Store    StoreConfig    `mapstructure:"store"`
	Listen   ListenConfig   `mapstructure:"listen"`
	Network  NetworkConfig  `mapstructure:"network"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains the query endpoint configuration for HTTP sources
type ServerConfig struct {
	BaseURL    string            `mapstructure:"base_url"`
	APIKey     string            `mapstructure:"api_key"`
	Headers    map[string]string `mapstructure:"headers"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	MaxRetries int               `mapstructure:"max_retries"`
}

// SourceConfig determines the data source type and behavior
type SourceConfig struct {
	Type        string `mapstructure:"type"`
	DefaultType string `mapstructure:"default_type"`
	AutoDetect  bool   `mapstructure:"auto_detect"`

	// Local generator settings, used when no server is queried.
	MaxCount int   `mapstructure:"max_count"`
	Seed     int64 `mapstructure:"seed"`
	Seeded   bool  `mapstructure:"seeded"`
}

// ViewportConfig holds the queried rectangle as two opposite corners. The
// corners may arrive in any order.
type ViewportConfig struct {
	Lat1 float64 `mapstructure:"lat1"`
	Lon1 float64 `mapstructure:"lon1"`
	Lat2 float64 `mapstructure:"lat2"`
	Lon2 float64 `mapstructure:"lon2"`
}

// GridConfig holds the aggregation grid dimensions
type GridConfig struct {
	CountX int    `mapstructure:"count_x"`
	CountY int    `mapstructure:"count_y"`
	Kind   string `mapstructure:"kind"`
}

// FilterConfig holds the optional time filter. Empty strings mean absent.
type FilterConfig struct {
	TimeStart  string `mapstructure:"time_start"`
	TimeEnd    string `mapstructure:"time_end"`
	DateStart  string `mapstructure:"date_start"`
	DateEnd    string `mapstructure:"date_end"`
	DaysOfWeek []int  `mapstructure:"days_of_week"`
}

// PollConfig controls the refresh loop of the watch command
type PollConfig struct {
	IntervalMs int  `mapstructure:"interval_ms"`
	Immediate  bool `mapstructure:"immediate"`
}

// ColorConfig holds the tunable color scale parameters
type ColorConfig struct {
	Epsilon        float64 `mapstructure:"epsilon"`
	NeighborWeight float64 `mapstructure:"neighbor_weight"`
	ThresholdMode  string  `mapstructure:"threshold_mode"`
	AbsoluteCutoff float64 `mapstructure:"absolute_cutoff"`
}

// OutputConfig contains output formatting configuration
type OutputConfig struct {
	Format    string `mapstructure:"format"`
	Directory string `mapstructure:"directory"`
	Filename  string `mapstructure:"filename"`
	Pretty    bool   `mapstructure:"pretty"`
	Stdout    bool   `mapstructure:"stdout"`
}

// StoreConfig contains the serve command's database configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ListenConfig contains the serve command's HTTP listener configuration
type ListenConfig struct {
	Address string `mapstructure:"address"`
}

// NetworkConfig contains network-related configuration
type NetworkConfig struct {
	ProxyURL         string        `mapstructure:"proxy_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	IdleConnTimeout  time.Duration `mapstructure:"idle_conn_timeout"`
	DisableKeepAlive bool          `mapstructure:"disable_keep_alive"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults configures default values for all configuration options
func setDefaults() {
	// Source defaults
	viper.SetDefault("source.type", "auto")
	viper.SetDefault("source.default_type", "local")
	viper.SetDefault("source.auto_detect", true)
	viper.SetDefault("source.max_count", 100)
	viper.SetDefault("source.seeded", false)

	// Server defaults
	viper.SetDefault("server.timeout", 30*time.Second)
	viper.SetDefault("server.max_retries", 3)

	// Grid defaults
	viper.SetDefault("grid.count_x", 10)
	viper.SetDefault("grid.count_y", 10)
	viper.SetDefault("grid.kind", "heatmap")

	// Poll defaults
	viper.SetDefault("poll.interval_ms", 10000)
	viper.SetDefault("poll.immediate", true)

	// Color defaults
	viper.SetDefault("color.epsilon", 1e-3)
	viper.SetDefault("color.neighbor_weight", 0.125)
	viper.SetDefault("color.threshold_mode", "max-relative")
	viper.SetDefault("color.absolute_cutoff", 0.2)

	// Output defaults
	viper.SetDefault("output.format", "geojson")
	viper.SetDefault("output.pretty", true)
	viper.SetDefault("output.stdout", true)

	// Store and listener defaults
	viper.SetDefault("store.path", "trips.db")
	viper.SetDefault("listen.address", ":8080")

	// Network defaults
	viper.SetDefault("network.user_agent", "TripHeatmap/1.0")
	viper.SetDefault("network.max_idle_conns", 100)
	viper.SetDefault("network.idle_conn_timeout", 90*time.Second)
	viper.SetDefault("network.disable_keep_alive", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// ToApplicationConfig converts Config to internal.ApplicationConfig
func (c *Config) ToApplicationConfig() *internal.ApplicationConfig {
	return &internal.ApplicationConfig{
		LogLevel:       c.Logging.Level,
		RequestTimeout: c.Server.Timeout,
		RetryAttempts:  c.Server.MaxRetries,
		RetryDelay:     time.Second,
		SourceType:     c.DetermineSourceType(),
	}
}

// EndpointURL builds the aggregate map endpoint URL serving a map kind, so
// HTTP sources reach the endpoint matching their query instead of a fixed
// path.
func (c *Config) EndpointURL(kind internal.MapKind) string {
	if c.Server.BaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/%s/", c.Server.BaseURL, kind)
}

// DetermineSourceType automatically determines the source type based on
// configuration. With auto-detection a configured base URL selects the HTTP
// source; otherwise the local generator is used.
func (c *Config) DetermineSourceType() internal.SourceType {
	if !c.Source.AutoDetect {
		if c.Source.Type == "http" {
			return internal.SourceTypeHTTP
		}
		return internal.SourceTypeLocal
	}

	if c.Server.BaseURL != "" {
		return internal.SourceTypeHTTP
	}
	return internal.SourceTypeLocal
}

// PollInterval converts the configured cadence to a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMs) * time.Millisecond
}

// MapKind returns the configured aggregate map kind
func (c *Config) MapKind() internal.MapKind {
	return internal.MapKind(c.Grid.Kind)
}
