package trajectory

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// A Segment is one phase of a plan during which its top order derivative is held constant. Every
// order above the top one is zero for the whole segment.
type Segment struct {
	start    State
	top      Order
	duration float64
}

// NewSegment returns a segment starting from start that holds derivative top constant for
// duration seconds. Orders of start above top are ignored.
func NewSegment(start State, top Order, duration float64) (Segment, error) {
	if top < Position || int(top) >= numOrders {
		return Segment{}, errors.Errorf("segment order %d out of range", int(top))
	}
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return Segment{}, errors.Errorf("segment duration must be finite and nonnegative, got %v", duration)
	}
	return newSegment(start, top, duration), nil
}

func newSegment(start State, top Order, duration float64) Segment {
	return Segment{start: start.truncate(top), top: top, duration: duration}
}

// Start returns the state at the beginning of the segment.
func (s Segment) Start() State { return s.start }

// Order returns the derivative held constant during the segment.
func (s Segment) Order() Order { return s.top }

// Duration returns the length of the segment in seconds.
func (s Segment) Duration() float64 { return s.duration }

// StateAt returns the state t seconds into the segment. t must lie within [0, Duration()].
func (s Segment) StateAt(t float64) (State, error) {
	if !(t >= 0 && t <= s.duration) {
		return State{}, errors.Wrapf(ErrSegmentTime, "%v not in [0, %v]", t, s.duration)
	}
	return s.at(t), nil
}

// EndState returns the state at the end of the segment.
func (s Segment) EndState() State {
	return s.at(s.duration)
}

// at evaluates the Taylor polynomial of every order from the top one down. terms[i] carries the
// contribution of start[top-i] to the order being evaluated, so each step only rescales the
// running terms by t/degree instead of recomputing powers and factorials.
func (s Segment) at(t float64) State {
	var out State
	var terms [numOrders]float64
	n := 0
	for k := int(s.top); k >= 0; k-- {
		val := 0.0
		for i := 0; i < n; i++ {
			terms[i] *= t / float64(n-i)
			val += terms[i]
		}
		terms[n] = s.start[k]
		n++
		out[k] = val + s.start[k]
	}
	return out
}

func (s Segment) String() string {
	return fmt.Sprintf("%s=%.6g for %.6gs from %v", s.top, s.start[s.top], s.duration, s.start)
}
