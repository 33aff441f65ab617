// Package trajectory plans time-optimal single axis moves under acceleration, and optionally
// jerk, limits, and replays them one control tick at a time.
//
// A Planner is driven by its owner's control loop: Replan or Stop replace the current plan with
// one computed from the live state of the axis, and Update advances time through it. A Planner
// does no locking of its own; callers sharing one between goroutines must serialize access.
package trajectory

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/logging"
)

// A Planner tracks the motion of one axis along a plan and replans it on demand.
type Planner struct {
	limits Limits
	logger logging.Logger
	ps     planState
}

// NewPlanner returns an idle planner at position zero. limits holds the acceleration limit,
// optionally followed by the jerk limit.
func NewPlanner(limits []float64, logger logging.Logger) (*Planner, error) {
	lim, err := NewLimits(limits)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("trajectory")
	}
	return &Planner{limits: lim, logger: logger}, nil
}

// Limits returns the limits the planner was built with.
func (p *Planner) Limits() Limits {
	return p.limits
}

// SetLimits replaces the limits used by subsequent calls to Replan and Stop. The plan being
// executed is left as it is.
func (p *Planner) SetLimits(limits []float64) error {
	lim, err := NewLimits(limits)
	if err != nil {
		return err
	}
	if lim != p.limits {
		p.logger.Debugw("limits changed", "from", p.limits, "to", lim)
	}
	p.limits = lim
	return nil
}

// Reset discards any plan and places the axis at rest at position.
func (p *Planner) Reset(position float64) error {
	if math.IsNaN(position) || math.IsInf(position, 0) {
		return errors.Wrapf(ErrInvalidTarget, "got %v", position)
	}
	p.ps = executing(Plan{Target: position})
	return nil
}

// Replan replaces the current plan with a move from the current state to rest at target with
// speeds of at most vLimit. On error the current plan is kept.
func (p *Planner) Replan(target, vLimit float64) error {
	from := p.ps.state
	plan, err := PlanMove(p.limits, from, target, vLimit)
	if err != nil {
		return err
	}
	p.ps = executing(plan)
	p.logger.Debugw("replanned", "from", from, "target", target, "velocity_limit", vLimit, "plan", plan)
	return nil
}

// Stop replaces the current plan with the quickest stop from the current state. The position the
// axis stops at becomes the new target. On error the current plan is kept.
func (p *Planner) Stop() error {
	from := p.ps.state
	plan, err := PlanStop(p.limits, from)
	if err != nil {
		return err
	}
	p.ps = executing(plan)
	p.logger.Debugw("stopping", "from", from, "plan", plan)
	return nil
}

// Update advances the plan by dt seconds.
func (p *Planner) Update(dt float64) error {
	if !(dt >= 0) || math.IsInf(dt, 0) {
		return errors.Wrapf(ErrNegativeTimeStep, "got %v", dt)
	}
	p.ps = p.ps.advanced(dt)
	return nil
}

// State returns the current position, velocity and acceleration.
func (p *Planner) State() (pos, vel, acc float64) {
	s := p.ps.state
	return s[Position], s[Velocity], s[Acceleration]
}

// FullState returns every tracked derivative of the current state.
func (p *Planner) FullState() State {
	return p.ps.state
}

// IsActive reports whether a plan is being executed.
func (p *Planner) IsActive() bool {
	return !p.ps.queue.empty()
}

// Target returns the position the current plan comes to rest at.
func (p *Planner) Target() float64 {
	return p.ps.target
}

// Remaining returns the time left in the current plan.
func (p *Planner) Remaining() float64 {
	return p.ps.remaining()
}

// Segments returns the segments left in the current plan, the one being executed first.
func (p *Planner) Segments() []Segment {
	return p.ps.queue.list()
}
