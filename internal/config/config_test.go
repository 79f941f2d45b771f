// internal/config/config_test.go - Unit tests for configuration handling
package config

import (
	"testing"
	"time"

	"trip-heatmap/internal"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Source: SourceConfig{
			Type:       "auto",
			AutoDetect: true,
			MaxCount:   100,
		},
		Grid: GridConfig{CountX: 10, CountY: 10, Kind: "heatmap"},
		Color: ColorConfig{
			Epsilon:        1e-3,
			NeighborWeight: 0.125,
			ThresholdMode:  "max-relative",
			AbsoluteCutoff: 0.2,
		},
		Output:  OutputConfig{Format: "geojson", Stdout: true},
		Network: NetworkConfig{UserAgent: "TripHeatmap/1.0", MaxIdleConns: 100, IdleConnTimeout: time.Minute},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("valid configuration rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"http source without base_url", func(c *Config) {
			c.Source.Type = "http"
			c.Source.AutoDetect = false
		}},
		{"zero count_x", func(c *Config) { c.Grid.CountX = 0 }},
		{"negative count_y", func(c *Config) { c.Grid.CountY = -2 }},
		{"unknown kind", func(c *Config) { c.Grid.Kind = "densitymap" }},
		{"unknown threshold mode", func(c *Config) { c.Color.ThresholdMode = "quantile" }},
		{"negative neighbor weight", func(c *Config) { c.Color.NeighborWeight = -1 }},
		{"unknown output format", func(c *Config) { c.Output.Format = "csv" }},
		{"no output destination", func(c *Config) { c.Output.Stdout = false }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"half-open time filter", func(c *Config) { c.Filter.TimeStart = "08:00" }},
		{"half-open date filter", func(c *Config) { c.Filter.DateEnd = "2024-01-31" }},
		{"day index out of range", func(c *Config) { c.Filter.DaysOfWeek = []int{7} }},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestDetermineSourceType(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		srcType string
		auto    bool
		want    internal.SourceType
	}{
		{"auto with base url", "http://localhost:8080", "auto", true, internal.SourceTypeHTTP},
		{"auto without base url", "", "auto", true, internal.SourceTypeLocal},
		{"explicit local despite base url", "http://localhost:8080", "local", false, internal.SourceTypeLocal},
		{"explicit http", "http://localhost:8080", "http", false, internal.SourceTypeHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.BaseURL = tt.baseURL
			cfg.Source.Type = tt.srcType
			cfg.Source.AutoDetect = tt.auto
			if got := cfg.DetermineSourceType(); got != tt.want {
				t.Errorf("DetermineSourceType() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEndpointURL(t *testing.T) {
	cfg := validConfig()
	if got := cfg.EndpointURL(internal.MapKindHeatmap); got != "" {
		t.Errorf("EndpointURL without base url = %q, want empty", got)
	}

	cfg.Server.BaseURL = "http://localhost:8080"
	tests := []struct {
		kind internal.MapKind
		want string
	}{
		{kind: internal.MapKindHeatmap, want: "http://localhost:8080/api/heatmap/"},
		{kind: internal.MapKindTrafficmap, want: "http://localhost:8080/api/trafficmap/"},
		{kind: internal.MapKindSpeedmap, want: "http://localhost:8080/api/speedmap/"},
	}
	for _, tt := range tests {
		if got := cfg.EndpointURL(tt.kind); got != tt.want {
			t.Errorf("EndpointURL(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPollInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Poll.IntervalMs = 2500
	if got := cfg.PollInterval(); got != 2500*time.Millisecond {
		t.Errorf("PollInterval = %v", got)
	}
}
