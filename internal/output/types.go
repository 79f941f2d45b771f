// internal/output/types.go - Output handling types
package output

import (
	"fmt"
	"io"
	"time"

	"trip-heatmap/internal/heatmap"
	"trip-heatmap/internal/render"
)

// Format represents different output formats supported by the application
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatJSON    Format = "json"
)

// Frame is the result of one poll iteration: the raw tiles, the rendered
// overlay snapshot, and the query that produced them.
type Frame struct {
	Query    *heatmap.TileQuery
	Tiles    []heatmap.AggregateTile
	Snapshot *render.Snapshot
	At       time.Time
}

// Writer defines the interface for writing frames to various destinations
type Writer interface {
	Write(frame *Frame) error
	Close() error
}

// Formatter defines the interface for serializing frames
type Formatter interface {
	Format(frame *Frame) ([]byte, error)
	ContentType() string
}

// Destination represents an output destination (file, stdout, etc.)
type Destination interface {
	io.WriteCloser
	Name() string
}

// WriterConfig contains configuration for creating writers
type WriterConfig struct {
	Format Format
	Pretty bool

	// Stats adds a summary block to JSON output
	Stats bool
}

// String returns a string representation of the format
func (f Format) String() string {
	return string(f)
}

// IsValid checks if the format is supported
func (f Format) IsValid() bool {
	switch f {
	case FormatGeoJSON, FormatJSON:
		return true
	default:
		return false
	}
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatGeoJSON:
		return ".geojson"
	default:
		return ".json"
	}
}

// ParseFormat converts a configuration string to a Format
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid output format: %s", s)
	}
	return f, nil
}
