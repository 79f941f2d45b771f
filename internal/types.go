// internal/types.go - Common types for internal packages
package internal

import (
	"time"
)

// SourceType represents the type of heatmap data source
type SourceType string

const (
	SourceTypeHTTP  SourceType = "http"
	SourceTypeLocal SourceType = "local"
)

// MapKind identifies which aggregate map a query targets
type MapKind string

const (
	MapKindHeatmap    MapKind = "heatmap"
	MapKindTrafficmap MapKind = "trafficmap"
	MapKindSpeedmap   MapKind = "speedmap"
)

// IsValid reports whether the map kind is one of the supported values
func (k MapKind) IsValid() bool {
	switch k {
	case MapKindHeatmap, MapKindTrafficmap, MapKindSpeedmap:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the map kind
func (k MapKind) String() string {
	return string(k)
}

// ApplicationConfig represents the global application configuration
type ApplicationConfig struct {
	LogLevel       string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	SourceType     SourceType
}

// Error represents application-specific errors
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new application error
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode constants for common error types
const (
	ErrorCodeNetwork    = "NETWORK_ERROR"
	ErrorCodeProcessing = "PROCESSING_ERROR"
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeConfig     = "CONFIG_ERROR"
	ErrorCodeNotFound   = "NOT_FOUND"
	ErrorCodeTimeout    = "TIMEOUT_ERROR"
	ErrorCodeStorage    = "STORAGE_ERROR"
)
