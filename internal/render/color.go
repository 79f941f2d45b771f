// internal/render/color.go - Aggregate value to visual intensity mapping
package render

import (
	"fmt"
	"math"

	"trip-heatmap/internal/heatmap"
)

// ThresholdMode selects how the visibility cutoff of a ColorScale is applied.
type ThresholdMode string

const (
	// ThresholdMaxRelative hides values whose ratio against the tile set
	// maximum falls at or below Epsilon.
	ThresholdMaxRelative ThresholdMode = "max-relative"

	// ThresholdAbsolute hides raw values at or below AbsoluteCutoff,
	// regardless of the tile set maximum.
	ThresholdAbsolute ThresholdMode = "absolute"
)

// Default scale constants. Two historic generator variants disagreed on the
// neighbor weighting and the cutoff mode, so both are named configuration
// rather than hardcoded.
const (
	DefaultEpsilon        = 1e-3
	DefaultNeighborWeight = 0.125
	DefaultAbsoluteCutoff = 0.2
)

// ColorScale holds the tunable parameters of the value-to-color mapping.
// The zero value is not usable; start from DefaultScale.
type ColorScale struct {
	// Epsilon is the max-relative visibility cutoff: tiles whose
	// value/maxValue ratio is at or below it are not rendered.
	Epsilon float64

	// NeighborWeight scales a tile's NeighborCount contribution to its
	// intensity, both for coloring and for the tile set maximum.
	NeighborWeight float64

	// Mode selects the visibility cutoff semantics.
	Mode ThresholdMode

	// AbsoluteCutoff applies only when Mode is ThresholdAbsolute.
	AbsoluteCutoff float64

	// Hue endpoints in degrees, interpolated low to high intensity.
	HueLow, HueHigh float64

	// Opacity endpoints in [0, 1], interpolated low to high intensity.
	OpacityLow, OpacityHigh float64
}

// DefaultScale returns the canonical scale: fractional neighbor weighting,
// max-relative cutoff, green-to-red hue ramp.
func DefaultScale() ColorScale {
	return ColorScale{
		Epsilon:        DefaultEpsilon,
		NeighborWeight: DefaultNeighborWeight,
		Mode:           ThresholdMaxRelative,
		AbsoluteCutoff: DefaultAbsoluteCutoff,
		HueLow:         120,
		HueHigh:        0,
		OpacityLow:     0.25,
		OpacityHigh:    0.85,
	}
}

// Color is a resolved visual intensity. Visible false means the cell is not
// drawn at all.
type Color struct {
	Hue     float64
	Opacity float64
	Visible bool
}

// HSLA renders the color as a CSS hsla() expression
func (c Color) HSLA() string {
	if !c.Visible {
		return "hsla(0, 0%, 0%, 0)"
	}
	return fmt.Sprintf("hsla(%.0f, 100%%, 50%%, %.2f)", c.Hue, c.Opacity)
}

// Intensity computes a tile's scalar intensity: own count plus the weighted
// neighbor contribution.
func (s ColorScale) Intensity(t heatmap.AggregateTile) float64 {
	return t.Count + s.NeighborWeight*t.NeighborCount
}

// MaxIntensity returns the maximum intensity across a tile set, floored at 1
// so a ratio against it is always well defined.
func (s ColorScale) MaxIntensity(tiles []heatmap.AggregateTile) float64 {
	max := 1.0
	for _, t := range tiles {
		if v := s.Intensity(t); v > max {
			max = v
		}
	}
	return max
}

// Color maps a value to a visual intensity against the tile set maximum.
// Values at or below the configured cutoff are fully transparent; everything
// else interpolates hue and opacity linearly in value/maxValue.
func (s ColorScale) Color(value, maxValue float64) Color {
	if maxValue < 1 {
		maxValue = 1
	}
	ratio := value / maxValue
	if math.IsNaN(ratio) || ratio <= 0 {
		return Color{}
	}

	switch s.Mode {
	case ThresholdAbsolute:
		if value <= s.AbsoluteCutoff {
			return Color{}
		}
	default:
		if ratio <= s.Epsilon {
			return Color{}
		}
	}

	if ratio > 1 {
		ratio = 1
	}
	return Color{
		Hue:     s.HueLow + (s.HueHigh-s.HueLow)*ratio,
		Opacity: s.OpacityLow + (s.OpacityHigh-s.OpacityLow)*ratio,
		Visible: true,
	}
}
