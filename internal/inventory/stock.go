// Package inventory handles stock movements for products: validating a
// requested quantity change, previewing the resulting level, and persisting
// confirmed movements alongside an audit trail.
package inventory

import "errors"

var (
	// ErrDeltaNotPositive rejects a non-positive quantity on an add movement.
	// Incoming inventory is always a positive count; anything else is a typo
	// or the wrong screen.
	ErrDeltaNotPositive = errors.New("quantity must be greater than zero")
	// ErrDeltaZero rejects a zero quantity on an adjustment. A zero
	// adjustment would record a movement that changes nothing.
	ErrDeltaZero = errors.New("quantity must not be zero")
)

// AdjustMode distinguishes an unconditional stock addition from a
// bidirectional correction.
type AdjustMode string

const (
	// ModeAdd represents incoming inventory; the delta must be positive.
	ModeAdd AdjustMode = "add"
	// ModeAdjust represents a correction in either direction; only a zero
	// delta is rejected.
	ModeAdjust AdjustMode = "adjust"
	// ModeSale records stock consumed by a completed order. Never accepted
	// from the API; the order service issues it with a negative delta.
	ModeSale AdjustMode = "sale"
	// ModeRestock returns stock from a cancelled order.
	ModeRestock AdjustMode = "restock"
)

// ValidateDelta enforces the sign constraints of the requested stock change.
// It inspects only the mode and delta, never the current stock level, and the
// rejection reasons are distinct per mode so forms can render mode-specific
// guidance.
func ValidateDelta(mode AdjustMode, delta int) error {
	switch mode {
	case ModeAdd:
		if delta <= 0 {
			return ErrDeltaNotPositive
		}
	case ModeAdjust:
		if delta == 0 {
			return ErrDeltaZero
		}
	}
	return nil
}

// ProjectStock computes the stock level after applying the delta. Callers
// must validate the delta first; the projection assumes it is acceptable.
// Adjustments floor at zero because physical stock cannot go negative even
// when an operator enters a correction larger than the on-hand quantity.
// The result is a preview only; the confirmed movement is persisted by the
// service layer.
func ProjectStock(mode AdjustMode, current, delta int) int {
	next := current + delta
	if mode == ModeAdjust && next < 0 {
		return 0
	}
	return next
}
