package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// User / auth errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Credit errors
	ErrInsufficientCredits = errors.New("insufficient prediction credits")

	// Record errors
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrCrystalNotFound    = errors.New("crystal not found")

	// Payment errors
	ErrPaymentSettled   = errors.New("payment already settled")
	ErrInvalidSignature = errors.New("gateway signature verification failed")
)

// ChartDerivationError reports a birth timestamp that could not be parsed or
// converted. It is fatal to the whole prediction request and consumes no
// credit.
type ChartDerivationError struct {
	Input string
	Err   error
}

func (e *ChartDerivationError) Error() string {
	return fmt.Sprintf("derive chart from %q: %v", e.Input, e.Err)
}

func (e *ChartDerivationError) Unwrap() error { return e.Err }
