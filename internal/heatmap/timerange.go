// internal/heatmap/timerange.go - Time-of-day and day-of-week filtering
package heatmap

import (
	"fmt"
	"time"

	"trip-heatmap/internal"
)

// TimeDomain is the domain a range selection indexes into
type TimeDomain int

const (
	// DomainHours selects step indices over a 24-hour day (0..24)
	DomainHours TimeDomain = iota
	// DomainDaysOfWeek selects step indices over a 7-day week (0..7)
	DomainDaysOfWeek
)

// RangeSelection is a half-open [Left, Right) selection of steps in a time
// domain. The domain is carried explicitly rather than inferred from the
// selector widget that produced it.
type RangeSelection struct {
	Domain TimeDomain
	Left   int
	Right  int
}

// Filter restricts a tile query to a subset of observations. Nil fields mean
// the corresponding filter is absent. A non-nil empty DaysOfWeek means the
// empty-set filter.
type Filter struct {
	TimeStart  *string
	TimeEnd    *string
	DateStart  *time.Time
	DateEnd    *time.Time
	DaysOfWeek []int
}

// FormatHour serializes an hour of day as a zero-padded "HH:00" string
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// Filter converts a range selection into a query filter. Hour selections
// become a time-of-day window; day selections become a day-of-week set
// (0=Sunday .. 6=Saturday) with no hour bound.
func (s RangeSelection) Filter() (*Filter, error) {
	if s.Right < s.Left {
		return nil, internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("range selection inverted: left=%d right=%d", s.Left, s.Right), nil)
	}

	switch s.Domain {
	case DomainHours:
		if s.Left < 0 || s.Right > 24 {
			return nil, internal.NewError(internal.ErrorCodeValidation,
				fmt.Sprintf("hour selection out of range: [%d, %d)", s.Left, s.Right), nil)
		}
		start := FormatHour(s.Left)
		end := FormatHour(s.Right)
		return &Filter{TimeStart: &start, TimeEnd: &end}, nil

	case DomainDaysOfWeek:
		if s.Left < 0 || s.Right > 7 {
			return nil, internal.NewError(internal.ErrorCodeValidation,
				fmt.Sprintf("day selection out of range: [%d, %d)", s.Left, s.Right), nil)
		}
		days := make([]int, 0, s.Right-s.Left)
		for d := s.Left; d < s.Right; d++ {
			days = append(days, d)
		}
		return &Filter{DaysOfWeek: days}, nil

	default:
		return nil, internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("unknown time domain %d", s.Domain), nil)
	}
}
