package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data sufficiency errors
	ErrInsufficientData = errors.New("insufficient data")

	// Discretization errors
	ErrInvalidWidth = errors.New("invalid interval width")
	ErrOutOfRange   = errors.New("value outside partition range")

	// Model fitting errors
	ErrConvergence   = errors.New("model fit did not converge")
	ErrRankDeficient = errors.New("rank-deficient design matrix")
)

// Error constructors with context
func NewInsufficientDataError(step string, have, need int) error {
	return fmt.Errorf("%w: %s requires at least %d observations, got %d", ErrInsufficientData, step, need, have)
}

func NewInvalidWidthError(width float64) error {
	return fmt.Errorf("%w: width must be > 0, got %g", ErrInvalidWidth, width)
}

func NewOutOfRangeError(value, upper float64) error {
	return fmt.Errorf("%w: value %g exceeds partition ceiling %g", ErrOutOfRange, value, upper)
}

func NewConvergenceError(iterations int, lastDeviance float64) error {
	return fmt.Errorf("%w: %d iterations attempted, deviance %g at stop", ErrConvergence, iterations, lastDeviance)
}

func NewRankDeficiencyError(detail string) error {
	return fmt.Errorf("%w: %s", ErrRankDeficient, detail)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsDiscretizationError(err error) bool {
	return errors.Is(err, ErrInvalidWidth) || errors.Is(err, ErrOutOfRange)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrConvergence) || errors.Is(err, ErrRankDeficient)
}
