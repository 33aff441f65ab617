package trace

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/trajectory"
)

// A Sample is the planner state at one tick, along with the velocity, acceleration and jerk
// obtained by differentiating the sampled positions.
type Sample struct {
	Time  float64
	State trajectory.State

	Velocity     float64
	Acceleration float64
	Jerk         float64
}

// Result is the recorded output of a run.
type Result struct {
	Name    string
	Limits  trajectory.Limits
	Step    float64
	Samples []Sample
	// Replans holds the times of every move and stop command.
	Replans []float64
}

// Run plays the script against a fresh planner. Every tick the numerically differentiated
// acceleration, and jerk when limited, is checked against the planner's limits. Actions take
// effect at their exact time, between ticks if need be.
//
// The run continues to the done action even after a failure, so the returned result always
// holds the full trajectory. The returned error is the first failure encountered.
func Run(script *Script, logger logging.Logger) (*Result, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	planner, err := trajectory.NewPlanner(script.Limits, logger)
	if err != nil {
		return nil, err
	}
	if err := planner.Reset(script.Start); err != nil {
		return nil, err
	}

	dt := script.step()
	tolerance := script.toleranceFactor()
	limits := planner.Limits()
	res := &Result{Name: script.Name, Limits: limits, Step: dt}

	var failure error
	fail := func(err error) {
		if failure == nil && err != nil {
			failure = err
		}
	}

	t := 0.0
	sPrev, vPrev, aPrev := script.Start, 0.0, 0.0
	for idx := 0; idx < len(script.Actions); {
		pos, _, _ := planner.State()
		v := (pos - sPrev) / dt
		a := (v - vPrev) / dt
		j := (a - aPrev) / dt
		res.Samples = append(res.Samples, Sample{Time: t, State: planner.FullState(), Velocity: v, Acceleration: a, Jerk: j})

		if math.Abs(a) > limits.Acceleration*tolerance {
			fail(errors.Errorf("time %.3f: acceleration (%v) over limit (%v)", t, a, limits.Acceleration))
		}
		if limits.JerkLimited() && math.Abs(j) > limits.Jerk*tolerance {
			fail(errors.Errorf("time %.3f: jerk (%v) over limit (%v)", t, j, limits.Jerk))
		}
		sPrev, vPrev, aPrev = pos, v, a

		// Every action falling within this tick takes effect at its own time.
		now := t
		for idx < len(script.Actions) && t+dt >= script.Actions[idx].Time {
			action := script.Actions[idx]
			fail(planner.Update(math.Max(action.Time-now, 0)))
			now = math.Max(action.Time, now)
			if action.Kind == KindDone {
				if planner.IsActive() {
					fail(errors.Errorf("time %.3f: planner still active", action.Time))
				}
				return res, failure
			}
			replanned, err := apply(planner, action)
			if replanned {
				res.Replans = append(res.Replans, action.Time)
			}
			fail(err)
			idx++
		}
		fail(planner.Update(math.Max(t+dt-now, 0)))
		t += dt
	}
	return res, failure
}

// apply performs a non-final action, reporting whether it was a move or stop command.
func apply(planner *trajectory.Planner, action Action) (bool, error) {
	pos, vel, acc := planner.State()
	switch action.Kind {
	case KindMoveTo:
		return true, errors.Wrapf(planner.Replan(action.Position, action.VelocityLimit), "time %.3f", action.Time)
	case KindStop:
		return true, errors.Wrapf(planner.Stop(), "time %.3f", action.Time)
	case KindCheckAcc:
		return false, checkEqual(action.Time, "acceleration", acc, action.Acceleration)
	case KindCheckVel:
		return false, checkEqual(action.Time, "velocity", vel, action.Velocity)
	case KindCheckPos:
		return false, checkEqual(action.Time, "position", pos, action.Position)
	case KindCheckState:
		if !closeEnough(pos, action.Position) || !closeEnough(vel, action.Velocity) || !closeEnough(acc, action.Acceleration) {
			return false, errors.Errorf("time %.3f: state (%v, %v, %v) differs from (%v, %v, %v)",
				action.Time, pos, vel, acc, action.Position, action.Velocity, action.Acceleration)
		}
		return false, nil
	default:
		return false, errors.Errorf("time %.3f: unknown action %q", action.Time, action.Kind)
	}
}

func closeEnough(val, goal float64) bool {
	return math.Abs(val-goal) < CloseEnough
}

func checkEqual(t float64, what string, val, goal float64) error {
	if closeEnough(val, goal) {
		return nil
	}
	return errors.Errorf("time %.3f: %s %v differs from %v", t, what, val, goal)
}
