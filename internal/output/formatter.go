// internal/output/formatter.go - Frame formatting implementation
package output

import (
	"encoding/json"
	"fmt"
	"time"
)

// GeoJSONFormatter serializes the frame's overlay snapshot as a GeoJSON
// FeatureCollection, ready for any map viewer.
type GeoJSONFormatter struct {
	pretty bool
}

// NewGeoJSONFormatter creates a new GeoJSON formatter
func NewGeoJSONFormatter(pretty bool) *GeoJSONFormatter {
	return &GeoJSONFormatter{pretty: pretty}
}

// Format serializes the frame's feature collection
func (f *GeoJSONFormatter) Format(frame *Frame) ([]byte, error) {
	if frame.Snapshot == nil || frame.Snapshot.Collection == nil {
		return nil, fmt.Errorf("frame carries no overlay snapshot")
	}

	if f.pretty {
		return json.MarshalIndent(frame.Snapshot.Collection, "", "  ")
	}
	return json.Marshal(frame.Snapshot.Collection)
}

// ContentType returns the MIME type for GeoJSON
func (f *GeoJSONFormatter) ContentType() string {
	return "application/geo+json"
}

// JSONFormatter serializes the frame's raw tiles as a structured JSON object
type JSONFormatter struct {
	pretty bool
	stats  bool
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(pretty, stats bool) *JSONFormatter {
	return &JSONFormatter{
		pretty: pretty,
		stats:  stats,
	}
}

// Format serializes the raw tiles, optionally with a summary block
func (f *JSONFormatter) Format(frame *Frame) ([]byte, error) {
	out := map[string]interface{}{
		"tiles": frame.Tiles,
	}
	if frame.Query != nil {
		out["query"] = frame.Query
	}

	if f.stats {
		var maxCount float64
		for _, t := range frame.Tiles {
			if t.Count > maxCount {
				maxCount = t.Count
			}
		}
		at := frame.At
		if at.IsZero() {
			at = time.Now().UTC()
		}
		out["summary"] = map[string]interface{}{
			"tile_count":   len(frame.Tiles),
			"max_count":    maxCount,
			"generated_at": at.UTC(),
		}
	}

	if f.pretty {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// ContentType returns the MIME type for JSON
func (f *JSONFormatter) ContentType() string {
	return "application/json"
}

// NewFormatter creates a formatter based on the specified configuration
func NewFormatter(config *WriterConfig) (Formatter, error) {
	switch config.Format {
	case FormatGeoJSON:
		return NewGeoJSONFormatter(config.Pretty), nil
	case FormatJSON:
		return NewJSONFormatter(config.Pretty, config.Stats), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", config.Format)
	}
}
