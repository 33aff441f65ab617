package trajectory

import "fmt"

// Order indexes a derivative of position.
type Order int

// The derivative orders tracked by a State.
const (
	Position Order = iota
	Velocity
	Acceleration
	Jerk

	numOrders = int(Jerk) + 1
)

func (o Order) String() string {
	switch o {
	case Position:
		return "position"
	case Velocity:
		return "velocity"
	case Acceleration:
		return "acceleration"
	case Jerk:
		return "jerk"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// State holds the instantaneous value of every tracked derivative, indexed by Order. Orders an
// acceleration-limited plan does not control are zero.
type State [numOrders]float64

// Position returns the position component.
func (s State) Position() float64 { return s[Position] }

// Velocity returns the velocity component.
func (s State) Velocity() float64 { return s[Velocity] }

// Acceleration returns the acceleration component.
func (s State) Acceleration() float64 { return s[Acceleration] }

// Jerk returns the jerk component.
func (s State) Jerk() float64 { return s[Jerk] }

// truncate returns s with every order above top cleared.
func (s State) truncate(top Order) State {
	for k := int(top) + 1; k < numOrders; k++ {
		s[k] = 0
	}
	return s
}

// atRest returns a state at position p with every derivative zero.
func atRest(p float64) State {
	return State{Position: p}
}

func (s State) String() string {
	return fmt.Sprintf("(p=%.6g v=%.6g a=%.6g j=%.6g)", s[Position], s[Velocity], s[Acceleration], s[Jerk])
}
