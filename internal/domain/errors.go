package domain

import "errors"

// Sentinel errors for the trading pipeline. Callers classify with errors.Is.
var (
	// ErrInsufficientSources means fewer forecast sources responded than the
	// city's tier requires. Recoverable: hold and retry next cycle.
	ErrInsufficientSources = errors.New("insufficient forecast sources")

	// ErrGuardrail means an order placement would break a position or
	// exposure limit. The order is rejected, the cycle continues.
	ErrGuardrail = errors.New("guardrail violation")

	// ErrStaleData means an opportunity no longer qualifies when re-validated
	// against live data just before placement.
	ErrStaleData = errors.New("stale opportunity")

	// ErrUnitMismatch means a Celsius value met a Fahrenheit value in a
	// comparison. This is a programming error, not a market condition, and it
	// is the only error that aborts the whole tick instead of being isolated
	// to one position.
	ErrUnitMismatch = errors.New("temperature unit mismatch")
)
