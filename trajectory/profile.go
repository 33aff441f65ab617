package trajectory

import (
	"math"

	"go.viam.com/trajectory/polynomial"
)

const (
	// closeEnough is the absolute tolerance, per unit of magnitude, for a plan to count as
	// having reached its goal.
	closeEnough = 1e-12
	// Segments shorter than tinyDuration are never emitted.
	tinyDuration = 1e-12
	// maxBisections bounds the peak velocity search of short jerk-limited moves.
	maxBisections = 200
)

func within(got, want, scale float64) bool {
	return math.Abs(got-want) <= closeEnough*math.Max(1, math.Abs(scale))
}

// A chain is a run of segments where each one starts from the end state of the previous one.
type chain struct {
	segs []Segment
	end  State
}

func newChain(from State) *chain {
	return &chain{end: from}
}

// hold appends a segment holding derivative top at value for d seconds.
func (c *chain) hold(top Order, value, d float64) {
	if d < tinyDuration {
		return
	}
	start := c.end
	start[top] = value
	seg := newSegment(start, top, d)
	c.segs = append(c.segs, seg)
	c.end = seg.EndState()
}

// then appends next, which must start where c ends.
func (c *chain) then(next *chain) *chain {
	c.segs = append(c.segs, next.segs...)
	c.end = next.end
	return c
}

// velocityRamp brings velocity to zero at full acceleration. Position ends wherever it ends.
func velocityRamp(from State, maxAcc float64) *chain {
	c := newChain(from)
	v := from[Velocity]
	a := polynomial.Sgn(-v) * maxAcc
	c.hold(Acceleration, a, -v/a)
	return c
}

// rampTo drives derivative base of from to target, arriving with derivative base+1 at zero.
// Derivative base+2 is the control, bounded by ctrl, and derivative base+1 is bounded by limit.
// With base Position this is a trapezoidal position move; with base Velocity it shapes the
// acceleration of a jerk-limited velocity change.
//
// The profile accelerates toward ±limit, cruises, and brakes. When there is no room to cruise
// the two ramps meet at a lower peak instead.
func rampTo(from State, base Order, ctrl, limit, target float64) (*chain, error) {
	x0, v0 := from[base], from[base+1]
	diff := target - x0

	// Head for the side of the target the axis would be on after braking.
	dir := polynomial.Sgn(diff - v0*math.Abs(v0)/(2*ctrl))
	v1 := dir * limit
	a0 := polynomial.Sgn(v1-v0) * ctrl
	t0 := (v1 - v0) / a0
	a2 := -dir * ctrl
	t2 := limit / ctrl
	d0 := (v1*v1 - v0*v0) / (2 * a0)
	d2 := dir * limit * limit / (2 * ctrl)
	t1 := (diff - d0 - d2) / v1

	if t1 < 0 {
		// Solve t0^2 + 2x*t0 + v0*x/(2*a0) - diff/a0 = 0 for the ramp up time. The peak is then
		// v0 + a0*t0 and braking from it takes t0 + x.
		a0 = dir * ctrl
		a2 = -a0
		t1 = 0
		x := v0 / a0
		roots := polynomial.SolveQuadratic(1, 2*x, 0.5*v0*x/a0-diff/a0)
		if len(roots) == 2 {
			t0 = roots[1]
		} else {
			// Rounding pushed a repeated root below zero.
			t0 = -x
		}
		t0 = math.Max(t0, 0)
		t2 = t0 + x
	}

	c := newChain(from)
	c.hold(base+2, a0, t0)
	c.hold(base+1, v1, t1)
	c.hold(base+2, a2, t2)

	if !within(c.end[base], target, math.Max(math.Max(math.Abs(target), math.Abs(x0)), limit)) {
		return nil, newResidualError(base.String(), c.end[base], target)
	}
	if !within(c.end[base+1], 0, math.Max(limit, ctrl)) {
		return nil, newResidualError((base + 1).String(), c.end[base+1], 0)
	}
	return c, nil
}

// sCurve plans a jerk-limited move of from to target at rest, cruising at up to vLimit.
func sCurve(from State, lim Limits, vLimit, target float64) (*chain, error) {
	stop, err := rampTo(from, Velocity, lim.Jerk, lim.Acceleration, 0)
	if err != nil {
		return nil, err
	}
	peak := polynomial.Sgn(target-stop.end[Position]) * vLimit

	up, err := rampTo(from, Velocity, lim.Jerk, lim.Acceleration, peak)
	if err != nil {
		return nil, err
	}
	down, err := rampTo(up.end, Velocity, lim.Jerk, lim.Acceleration, 0)
	if err != nil {
		return nil, err
	}
	cruise := (target - down.end[Position]) / peak
	if cruise < 0 {
		return shortMove(from, lim, stop, peak, target)
	}

	up.hold(Velocity, peak, cruise)
	down, err = rampTo(up.end, Velocity, lim.Jerk, lim.Acceleration, 0)
	if err != nil {
		return nil, err
	}
	c := up.then(down)
	if !within(c.end[Position], target, math.Max(math.Abs(target), math.Abs(from[Position]))) {
		return nil, newResidualError(Position.String(), c.end[Position], target)
	}
	return c, nil
}

// shortMove plans a jerk-limited move too short to reach peak, which is the signed velocity
// limit toward target. The axis ramps to a reduced peak velocity and straight back to rest.
// Moves from rest use the closed form for that peak; any other start searches for it between
// zero, where the plan is the stop plan and falls short, and peak, where it overshoots.
func shortMove(from State, lim Limits, stop *chain, peak, target float64) (*chain, error) {
	scale := math.Max(math.Abs(target), math.Abs(from[Position]))
	through := func(vp float64) (*chain, error) {
		up, err := rampTo(from, Velocity, lim.Jerk, lim.Acceleration, vp)
		if err != nil {
			return nil, err
		}
		down, err := rampTo(up.end, Velocity, lim.Jerk, lim.Acceleration, 0)
		if err != nil {
			return nil, err
		}
		return up.then(down), nil
	}
	miss := func(c *chain) float64 {
		return c.end[Position] - target
	}

	if math.Abs(from[Velocity]) <= closeEnough && math.Abs(from[Acceleration]) <= closeEnough {
		vp := polynomial.Sgn(peak) * restPeak(lim, math.Abs(target-from[Position]))
		if c, err := through(vp); err == nil && within(c.end[Position], target, scale) {
			return c, nil
		}
	}

	lo, loChain := 0.0, stop
	if within(loChain.end[Position], target, scale) {
		return loChain, nil
	}
	hi := peak
	hiChain, err := through(hi)
	if err != nil {
		return nil, err
	}
	if (miss(loChain) < 0) == (miss(hiChain) < 0) {
		return nil, newResidualError("short move", hiChain.end[Position], target)
	}
	for i := 0; i < maxBisections; i++ {
		mid := lo + (hi-lo)/2
		if mid == lo || mid == hi {
			break
		}
		c, err := through(mid)
		if err != nil {
			return nil, err
		}
		m := miss(c)
		if m == 0 {
			return c, nil
		}
		if (m < 0) == (miss(loChain) < 0) {
			lo, loChain = mid, c
		} else {
			hi, hiChain = mid, c
		}
	}

	best := loChain
	if math.Abs(miss(hiChain)) < math.Abs(miss(loChain)) {
		best = hiChain
	}
	if !within(best.end[Position], target, scale) {
		return nil, newResidualError("short move", best.end[Position], target)
	}
	return best, nil
}

// restPeak returns the peak speed of a rest to rest jerk-limited move covering dist without
// cruising.
func restPeak(lim Limits, dist float64) float64 {
	// Below max acceleration each ramp lasts 2u, with u = sqrt(vp/J), and covers vp*u, so
	// dist = 2*J*u^3.
	roots := polynomial.SolveCubic(2*lim.Jerk, 0, 0, -dist)
	u := roots[len(roots)-1]
	if vp := lim.Jerk * u * u; vp <= lim.Acceleration*lim.Acceleration/lim.Jerk {
		return vp
	}
	// Otherwise each ramp lasts vp/A + A/J at an average speed of vp/2.
	roots = polynomial.SolveQuadratic(1/lim.Acceleration, lim.Acceleration/lim.Jerk, -dist)
	return roots[len(roots)-1]
}
