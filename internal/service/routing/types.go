package routing

import (
	"fmt"
)

// RawRoute is one mode's route as returned by the routing API.
type RawRoute struct {
	Mode            string  `json:"mode"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ModeEstimate is the delivery estimate for one travel mode.
type ModeEstimate struct {
	Mode            string  `json:"mode"`
	DistanceKM      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
}

// Estimate merges the per-mode routes between a vendor and a delivery point.
type Estimate struct {
	StraightLineKM float64        `json:"straight_line_km"`
	Fastest        *ModeEstimate  `json:"fastest,omitempty"`
	Modes          []ModeEstimate `json:"modes"`
	Source         string         `json:"source"`
}

type APIError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("routing api error: %v", e.Errors)
}
