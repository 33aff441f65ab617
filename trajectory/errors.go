package trajectory

import "github.com/pkg/errors"

var (
	// ErrInvalidLimits is returned when a limit vector is not [acceleration] or
	// [acceleration, jerk] with every entry finite and positive.
	ErrInvalidLimits = errors.New("invalid limits")

	// ErrInvalidVelocityLimit is returned when a move is requested with a velocity limit that is
	// not finite and positive.
	ErrInvalidVelocityLimit = errors.New("velocity limit must be finite and positive")

	// ErrInvalidTarget is returned when a move target is NaN or infinite.
	ErrInvalidTarget = errors.New("target position must be finite")

	// ErrNegativeTimeStep is returned when time is advanced by a negative or non-finite step.
	ErrNegativeTimeStep = errors.New("time step must be finite and nonnegative")

	// ErrSegmentTime is returned when a segment is evaluated outside of its duration.
	ErrSegmentTime = errors.New("time outside of segment")

	// ErrInfeasibleMove is returned when no profile within the limits reaches the target. It
	// signals a planning failure, not a caller error, and the previous plan stays in effect.
	ErrInfeasibleMove = errors.New("move infeasible under current limits")
)

func newInvalidLimitsError(limits []float64) error {
	return errors.Wrapf(ErrInvalidLimits, "expected [max_acc] or [max_acc, max_jerk] with positive values, got %v", limits)
}

func newResidualError(what string, got, want float64) error {
	return errors.Wrapf(ErrInfeasibleMove, "%s ends at %v instead of %v", what, got, want)
}
