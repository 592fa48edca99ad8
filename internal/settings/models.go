// Package settings holds the vessel's planning and anchoring preferences.
package settings

import (
	"errors"
	"time"

	"github.com/denizrota/denizrota/internal/anchor"
	"github.com/denizrota/denizrota/internal/api/models"
)

// Defaults applied when nothing has been saved yet.
const (
	DefaultAverageSpeedKmh = 15.0
	DefaultFuelRateLph     = 20.0
	DefaultFuelPrice       = 45.0
	DefaultAnchorRadiusM   = anchor.DefaultRadiusM

	MaxAverageSpeedKmh = 100.0
)

// Repository errors.
var (
	ErrSettingsNotFound = errors.New("settings not found")
)

// Settings are the vessel-wide preferences.
type Settings struct {
	AverageSpeedKmh float64   `json:"averageSpeedKmh"`
	FuelRateLph     float64   `json:"fuelRateLph"`
	FuelPrice       float64   `json:"fuelPrice"`
	AnchorRadiusM   float64   `json:"anchorRadiusM"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Default returns the factory settings.
func Default() *Settings {
	return &Settings{
		AverageSpeedKmh: DefaultAverageSpeedKmh,
		FuelRateLph:     DefaultFuelRateLph,
		FuelPrice:       DefaultFuelPrice,
		AnchorRadiusM:   DefaultAnchorRadiusM,
	}
}

// Update is a partial change; nil fields are left alone.
type Update struct {
	AverageSpeedKmh *float64 `json:"averageSpeedKmh,omitempty"`
	FuelRateLph     *float64 `json:"fuelRateLph,omitempty"`
	FuelPrice       *float64 `json:"fuelPrice,omitempty"`
	AnchorRadiusM   *float64 `json:"anchorRadiusM,omitempty"`
}

// ValidationError represents a validation error.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Validate checks every field.
func (s *Settings) Validate() error {
	var errs []models.FieldError

	if !(s.AverageSpeedKmh > 0 && s.AverageSpeedKmh <= MaxAverageSpeedKmh) {
		errs = append(errs, models.FieldError{Field: "averageSpeedKmh", Message: "must be greater than 0 and at most 100"})
	}
	if !(s.FuelRateLph >= 0) {
		errs = append(errs, models.FieldError{Field: "fuelRateLph", Message: "must not be negative"})
	}
	if !(s.FuelPrice >= 0) {
		errs = append(errs, models.FieldError{Field: "fuelPrice", Message: "must not be negative"})
	}
	if !(s.AnchorRadiusM >= anchor.MinRadiusM && s.AnchorRadiusM <= anchor.MaxRadiusM) {
		errs = append(errs, models.FieldError{Field: "anchorRadiusM", Message: "must be between 10 and 500"})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
