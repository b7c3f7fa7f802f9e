package core

import "errors"

// Domain errors for reactor operations.
var (
	// ErrNilFuelModel indicates a reactor was constructed without a fuel model.
	ErrNilFuelModel = errors.New("core: nil fuel model")

	// ErrNotTripped indicates a trip reset with no trip latched.
	ErrNotTripped = errors.New("core: reactor is not tripped")

	// ErrRodsWithdrawn indicates a trip reset before every bank reached the bottom.
	ErrRodsWithdrawn = errors.New("core: rods not fully inserted")

	// ErrPowerTooHigh indicates a trip reset with flux still above the reset limit.
	ErrPowerTooHigh = errors.New("core: power above reset limit")

	// ErrInvalidPower indicates an equilibrium request outside (0, 1].
	ErrInvalidPower = errors.New("core: power fraction out of range")

	// ErrNoConvergence indicates the critical boron search failed.
	ErrNoConvergence = errors.New("core: critical boron search did not converge")
)

// InitError wraps an error with the initial condition that failed.
type InitError struct {
	Condition string
	Wrapped   error
}

func (e *InitError) Error() string {
	return e.Condition + ": " + e.Wrapped.Error()
}

func (e *InitError) Unwrap() error {
	return e.Wrapped
}
