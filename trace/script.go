// Package trace drives a trajectory planner through a script of timed commands on a fixed tick,
// checking its output against the planner's limits and against expected states, and records the
// sampled trajectory for plotting.
package trace

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/trajectory/trajectory"
)

const (
	// DefaultStep is the tick used when a script does not set one.
	DefaultStep = 0.001
	// DefaultToleranceFactor is how far over a limit a numerically differentiated sample may go
	// before it counts as a violation.
	DefaultToleranceFactor = 1.01
	// CloseEnough is the largest difference between a checked value and its expectation.
	CloseEnough = 1e-12
)

// Kind names what an Action does.
type Kind string

// The kinds of Action a script can hold.
const (
	KindMoveTo     Kind = "move_to"
	KindStop       Kind = "stop"
	KindCheckAcc   Kind = "check_acc"
	KindCheckVel   Kind = "check_vel"
	KindCheckPos   Kind = "check_pos"
	KindCheckState Kind = "check_state"
	KindDone       Kind = "done"
)

// An Action happens at a given time of a script. Which of the value fields are used depends on
// Kind.
type Action struct {
	Time          float64 `json:"t"`
	Kind          Kind    `json:"action"`
	Position      float64 `json:"position,omitempty"`
	Velocity      float64 `json:"velocity,omitempty"`
	Acceleration  float64 `json:"acceleration,omitempty"`
	VelocityLimit float64 `json:"velocity_limit,omitempty"`
}

// MoveTo replans toward position with speeds up to vLimit.
func MoveTo(t, position, vLimit float64) Action {
	return Action{Time: t, Kind: KindMoveTo, Position: position, VelocityLimit: vLimit}
}

// Stop stops wherever the axis can.
func Stop(t float64) Action {
	return Action{Time: t, Kind: KindStop}
}

// CheckAcc expects the acceleration to be acc.
func CheckAcc(t, acc float64) Action {
	return Action{Time: t, Kind: KindCheckAcc, Acceleration: acc}
}

// CheckVel expects the velocity to be vel.
func CheckVel(t, vel float64) Action {
	return Action{Time: t, Kind: KindCheckVel, Velocity: vel}
}

// CheckPos expects the position to be pos.
func CheckPos(t, pos float64) Action {
	return Action{Time: t, Kind: KindCheckPos, Position: pos}
}

// CheckState expects the position, velocity and acceleration together.
func CheckState(t, pos, vel, acc float64) Action {
	return Action{Time: t, Kind: KindCheckState, Position: pos, Velocity: vel, Acceleration: acc}
}

// Done ends the script, expecting the planner to be idle.
func Done(t float64) Action {
	return Action{Time: t, Kind: KindDone}
}

func (a Action) String() string {
	switch a.Kind {
	case KindMoveTo:
		return fmt.Sprintf("%.3f: move to %g at up to %g", a.Time, a.Position, a.VelocityLimit)
	case KindCheckAcc:
		return fmt.Sprintf("%.3f: expect acceleration %g", a.Time, a.Acceleration)
	case KindCheckVel:
		return fmt.Sprintf("%.3f: expect velocity %g", a.Time, a.Velocity)
	case KindCheckPos:
		return fmt.Sprintf("%.3f: expect position %g", a.Time, a.Position)
	case KindCheckState:
		return fmt.Sprintf("%.3f: expect state (%g, %g, %g)", a.Time, a.Position, a.Velocity, a.Acceleration)
	default:
		return fmt.Sprintf("%.3f: %s", a.Time, a.Kind)
	}
}

// A Script is a list of actions to run against a planner with the given limits.
type Script struct {
	Name            string    `json:"name,omitempty"`
	Limits          []float64 `json:"limits"`
	Start           float64   `json:"start,omitempty"`
	Step            float64   `json:"dt,omitempty"`
	ToleranceFactor float64   `json:"tolerance_factor,omitempty"`
	Actions         []Action  `json:"actions"`
}

// ReadScript reads a JSON script from a file.
func ReadScript(path string) (*Script, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var script Script
	if err := json.NewDecoder(f).Decode(&script); err != nil {
		return nil, errors.Wrapf(err, "cannot decode script %q", path)
	}
	return &script, nil
}

// Validate ensures the script can be run: its limits are valid, its actions are known and in
// time order, and it ends with a done action.
func (s *Script) Validate() error {
	var errs error
	if _, err := trajectory.NewLimits(s.Limits); err != nil {
		errs = multierr.Append(errs, err)
	}
	if s.Step < 0 || math.IsNaN(s.Step) || math.IsInf(s.Step, 0) {
		errs = multierr.Append(errs, errors.Errorf("dt must be positive, got %v", s.Step))
	}
	if s.ToleranceFactor < 0 || math.IsNaN(s.ToleranceFactor) {
		errs = multierr.Append(errs, errors.Errorf("tolerance_factor must be positive, got %v", s.ToleranceFactor))
	}
	if len(s.Actions) == 0 || s.Actions[len(s.Actions)-1].Kind != KindDone {
		errs = multierr.Append(errs, errors.New("script must end with a done action"))
	}
	last := 0.0
	for i, a := range s.Actions {
		if math.IsNaN(a.Time) || math.IsInf(a.Time, 0) || a.Time < last {
			errs = multierr.Append(errs, errors.Errorf("action %d at %v is out of order", i, a.Time))
		} else {
			last = a.Time
		}
		switch a.Kind {
		case KindMoveTo, KindStop, KindCheckAcc, KindCheckVel, KindCheckPos, KindCheckState:
		case KindDone:
			if i != len(s.Actions)-1 {
				errs = multierr.Append(errs, errors.Errorf("action %d: done must be the last action", i))
			}
		default:
			errs = multierr.Append(errs, errors.Errorf("action %d: unknown action %q", i, a.Kind))
		}
	}
	return errs
}

func (s *Script) step() float64 {
	if s.Step == 0 {
		return DefaultStep
	}
	return s.Step
}

func (s *Script) toleranceFactor() float64 {
	if s.ToleranceFactor == 0 {
		return DefaultToleranceFactor
	}
	return s.ToleranceFactor
}
