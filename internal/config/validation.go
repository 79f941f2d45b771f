// internal/config/validation.go - Configuration validation
package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Validate validates the configuration structure and values
func Validate(config *Config) error {
	if err := validateServer(&config.Server, &config.Source); err != nil {
		return fmt.Errorf("server configuration invalid: %w", err)
	}

	if err := validateViewport(&config.Viewport); err != nil {
		return fmt.Errorf("viewport configuration invalid: %w", err)
	}

	if err := validateGrid(&config.Grid); err != nil {
		return fmt.Errorf("grid configuration invalid: %w", err)
	}

	if err := validateFilter(&config.Filter); err != nil {
		return fmt.Errorf("filter configuration invalid: %w", err)
	}

	if err := validateColor(&config.Color); err != nil {
		return fmt.Errorf("color configuration invalid: %w", err)
	}

	if err := validateOutput(&config.Output); err != nil {
		return fmt.Errorf("output configuration invalid: %w", err)
	}

	if err := validateNetwork(&config.Network); err != nil {
		return fmt.Errorf("network configuration invalid: %w", err)
	}

	if err := validateLogging(&config.Logging); err != nil {
		return fmt.Errorf("logging configuration invalid: %w", err)
	}

	return nil
}

// validateServer validates the query endpoint parameters
func validateServer(config *ServerConfig, source *SourceConfig) error {
	if source.Type == "http" && config.BaseURL == "" {
		return fmt.Errorf("base_url is required for the http source")
	}

	if config.BaseURL != "" {
		if _, err := url.Parse(config.BaseURL); err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
	}

	if config.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	validTypes := []string{"auto", "http", "local"}
	if !contains(validTypes, source.Type) {
		return fmt.Errorf("invalid source type: %s, must be one of %v", source.Type, validTypes)
	}

	if source.MaxCount < 0 {
		return fmt.Errorf("max_count must be non-negative")
	}

	return nil
}

// validateViewport validates the queried rectangle corners
func validateViewport(config *ViewportConfig) error {
	for name, v := range map[string]float64{
		"lat1": config.Lat1, "lon1": config.Lon1,
		"lat2": config.Lat2, "lon2": config.Lon2,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite", name)
		}
	}
	return nil
}

// validateGrid validates the aggregation grid parameters
func validateGrid(config *GridConfig) error {
	if config.CountX < 1 {
		return fmt.Errorf("count_x must be at least 1")
	}
	if config.CountY < 1 {
		return fmt.Errorf("count_y must be at least 1")
	}

	validKinds := []string{"heatmap", "trafficmap", "speedmap"}
	if !contains(validKinds, config.Kind) {
		return fmt.Errorf("invalid kind: %s, must be one of %v", config.Kind, validKinds)
	}

	return nil
}

// validateFilter validates the optional time filter parameters
func validateFilter(config *FilterConfig) error {
	if (config.TimeStart == "") != (config.TimeEnd == "") {
		return fmt.Errorf("time_start and time_end must be set together")
	}
	if (config.DateStart == "") != (config.DateEnd == "") {
		return fmt.Errorf("date_start and date_end must be set together")
	}
	for _, d := range config.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("days_of_week entries must be in 0..6, got %d", d)
		}
	}
	return nil
}

// validateColor validates the color scale parameters
func validateColor(config *ColorConfig) error {
	if config.Epsilon < 0 {
		return fmt.Errorf("epsilon must be non-negative")
	}
	if config.NeighborWeight < 0 {
		return fmt.Errorf("neighbor_weight must be non-negative")
	}

	validModes := []string{"max-relative", "absolute"}
	if !contains(validModes, config.ThresholdMode) {
		return fmt.Errorf("invalid threshold_mode: %s, must be one of %v", config.ThresholdMode, validModes)
	}

	return nil
}

// validateOutput validates output configuration parameters
func validateOutput(config *OutputConfig) error {
	validFormats := []string{"geojson", "json"}
	if !contains(validFormats, config.Format) {
		return fmt.Errorf("invalid format: %s, must be one of %v", config.Format, validFormats)
	}

	if !config.Stdout && config.Directory == "" && config.Filename == "" {
		return fmt.Errorf("directory or filename is required when not using stdout")
	}

	return nil
}

// validateNetwork validates network configuration parameters
func validateNetwork(config *NetworkConfig) error {
	if config.ProxyURL != "" {
		if _, err := url.Parse(config.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy_url: %w", err)
		}
	}

	if config.MaxIdleConns < 0 {
		return fmt.Errorf("max_idle_conns must be non-negative")
	}

	if config.UserAgent == "" {
		return fmt.Errorf("user_agent cannot be empty")
	}

	if config.IdleConnTimeout < 0 {
		return fmt.Errorf("idle_conn_timeout must be non-negative")
	}

	return nil
}

// validateLogging validates logging configuration parameters
func validateLogging(config *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, config.Level) {
		return fmt.Errorf("invalid log level: %s, must be one of %v", config.Level, validLevels)
	}

	validFormats := []string{"text", "json"}
	if !contains(validFormats, config.Format) {
		return fmt.Errorf("invalid log format: %s, must be one of %v", config.Format, validFormats)
	}

	return nil
}

// contains checks if a string slice contains a specific string (case-insensitive)
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
