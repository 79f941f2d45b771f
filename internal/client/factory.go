// internal/client/factory.go - Tile source factory
package client

import (
	"fmt"

	"trip-heatmap/internal"
	"trip-heatmap/internal/config"
)

// SourceFactory creates appropriate tile sources based on configuration
type SourceFactory struct {
	config *config.Config
}

// NewSourceFactory creates a new tile source factory
func NewSourceFactory(cfg *config.Config) *SourceFactory {
	return &SourceFactory{
		config: cfg,
	}
}

// CreateSource creates the source selected by configuration, after
// auto-detection when enabled.
func (f *SourceFactory) CreateSource() (Source, error) {
	return f.CreateSourceForType(f.config.DetermineSourceType())
}

// CreateSourceForType creates a source for a specific source type
func (f *SourceFactory) CreateSourceForType(sourceType internal.SourceType) (Source, error) {
	switch sourceType {
	case internal.SourceTypeHTTP:
		if f.config.Server.BaseURL == "" {
			return nil, fmt.Errorf("base_url is required for the HTTP source")
		}
		return NewHTTPSource(f.config), nil
	case internal.SourceTypeLocal:
		if f.config.Source.MaxCount < 0 {
			return nil, fmt.Errorf("max_count must be non-negative for the local source")
		}
		return NewLocalSource(f.config), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
