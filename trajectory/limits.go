package trajectory

import (
	"fmt"
	"math"
)

// Limits bounds the derivatives a plan may command. A zero Jerk describes an acceleration-limited
// axis, where acceleration may change instantly.
type Limits struct {
	Acceleration float64
	Jerk         float64
}

// NewLimits builds limits from a vector holding the acceleration limit, optionally followed by
// the jerk limit.
func NewLimits(vector []float64) (Limits, error) {
	if len(vector) < 1 || len(vector) > 2 {
		return Limits{}, newInvalidLimitsError(vector)
	}
	for _, v := range vector {
		if !(v > 0) || math.IsInf(v, 0) {
			return Limits{}, newInvalidLimitsError(vector)
		}
	}
	l := Limits{Acceleration: vector[0]}
	if len(vector) == 2 {
		l.Jerk = vector[1]
	}
	return l, nil
}

// JerkLimited reports whether the limits include a jerk bound.
func (l Limits) JerkLimited() bool {
	return l.Jerk > 0
}

// Vector returns the limits in the form accepted by NewLimits.
func (l Limits) Vector() []float64 {
	if l.JerkLimited() {
		return []float64{l.Acceleration, l.Jerk}
	}
	return []float64{l.Acceleration}
}

// Order returns the highest derivative a plan under these limits controls.
func (l Limits) Order() Order {
	if l.JerkLimited() {
		return Jerk
	}
	return Acceleration
}

func (l Limits) String() string {
	if l.JerkLimited() {
		return fmt.Sprintf("max_acc=%g max_jerk=%g", l.Acceleration, l.Jerk)
	}
	return fmt.Sprintf("max_acc=%g", l.Acceleration)
}
