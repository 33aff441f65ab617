package trajectory

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/trajectory/logging"
)

const tol = 1e-12

func newTestPlanner(t *testing.T, limits ...float64) *Planner {
	t.Helper()
	p, err := NewPlanner(limits, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return p
}

func advance(t *testing.T, p *Planner, dt float64) {
	t.Helper()
	test.That(t, p.Update(dt), test.ShouldBeNil)
}

func stateShouldBe(t *testing.T, p *Planner, pos, vel, acc float64) {
	t.Helper()
	gotPos, gotVel, gotAcc := p.State()
	test.That(t, gotPos, test.ShouldAlmostEqual, pos, tol)
	test.That(t, gotVel, test.ShouldAlmostEqual, vel, tol)
	test.That(t, gotAcc, test.ShouldAlmostEqual, acc, tol)
}

func TestNewPlanner(t *testing.T) {
	p, err := NewPlanner([]float64{0.5}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.IsActive(), test.ShouldBeFalse)
	test.That(t, p.Target(), test.ShouldEqual, 0.0)
	test.That(t, p.Remaining(), test.ShouldEqual, 0.0)
	test.That(t, p.Segments(), test.ShouldBeEmpty)
	stateShouldBe(t, p, 0, 0, 0)

	for _, bad := range [][]float64{nil, {0.5, 5, 50}, {-0.5}, {0.5, 0}} {
		_, err := NewPlanner(bad, nil)
		test.That(t, errors.Is(err, ErrInvalidLimits), test.ShouldBeTrue)
	}
}

func TestAccelerationLimitedMove(t *testing.T) {
	p := newTestPlanner(t, 0.5)
	test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
	test.That(t, p.IsActive(), test.ShouldBeTrue)
	test.That(t, p.Target(), test.ShouldEqual, 0.04)
	test.That(t, p.Remaining(), test.ShouldAlmostEqual, 0.6, tol)

	segs := p.Segments()
	test.That(t, segs, test.ShouldHaveLength, 3)
	for i, order := range []Order{Acceleration, Velocity, Acceleration} {
		test.That(t, segs[i].Order(), test.ShouldEqual, order)
		test.That(t, segs[i].Duration(), test.ShouldAlmostEqual, 0.2, tol)
	}

	advance(t, p, 0.1)
	_, _, acc := p.State()
	test.That(t, acc, test.ShouldAlmostEqual, 0.5, tol)
	advance(t, p, 0.2)
	stateShouldBe(t, p, 0.02, 0.1, 0)
	advance(t, p, 0.3)
	stateShouldBe(t, p, 0.04, 0, 0)
	advance(t, p, 0.01)
	test.That(t, p.IsActive(), test.ShouldBeFalse)
	test.That(t, p.FullState(), test.ShouldResemble, State{0.04})
}

func TestJerkLimitedMove(t *testing.T) {
	p := newTestPlanner(t, 0.5, 5)
	test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
	test.That(t, p.Remaining(), test.ShouldAlmostEqual, 0.7, tol)

	segs := p.Segments()
	test.That(t, segs, test.ShouldHaveLength, 7)
	for i, want := range []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1} {
		test.That(t, segs[i].Duration(), test.ShouldAlmostEqual, want, tol)
	}
	test.That(t, segs[3].Order(), test.ShouldEqual, Velocity)

	advance(t, p, 0.15)
	_, _, acc := p.State()
	test.That(t, acc, test.ShouldAlmostEqual, 0.5, tol)
	test.That(t, p.FullState().Jerk(), test.ShouldEqual, 0.0)
	advance(t, p, 0.2)
	stateShouldBe(t, p, 0.02, 0.1, 0)
	advance(t, p, 0.35)
	stateShouldBe(t, p, 0.04, 0, 0)
	test.That(t, p.IsActive(), test.ShouldBeFalse)
}

func TestShortJerkLimitedMove(t *testing.T) {
	t.Run("below max acceleration", func(t *testing.T) {
		p := newTestPlanner(t, 1, 10)
		test.That(t, p.Replan(-0.0025, 0.2), test.ShouldBeNil)
		test.That(t, p.Segments(), test.ShouldHaveLength, 4)
		test.That(t, p.Remaining(), test.ShouldAlmostEqual, 0.2, 1e-9)
		advance(t, p, 0.1)
		stateShouldBe(t, p, -0.00125, -0.025, 0)
		advance(t, p, 0.1)
		stateShouldBe(t, p, -0.0025, 0, 0)
	})

	t.Run("at max acceleration", func(t *testing.T) {
		p := newTestPlanner(t, 1, 10)
		test.That(t, p.Replan(0.1, 0.5), test.ShouldBeNil)
		// Each ramp takes vp/A + A/J with vp^2 + 0.1*vp = 0.1.
		vp := (-0.1 + math.Sqrt(0.01+0.4)) / 2
		test.That(t, p.Remaining(), test.ShouldAlmostEqual, 2*(vp+0.1), 1e-9)
		advance(t, p, vp+0.1)
		_, vel, acc := p.State()
		test.That(t, vel, test.ShouldAlmostEqual, vp, 1e-9)
		test.That(t, acc, test.ShouldAlmostEqual, 0, 1e-9)
		advance(t, p, vp+0.1)
		stateShouldBe(t, p, 0.1, 0, 0)
	})

	t.Run("while moving", func(t *testing.T) {
		p := newTestPlanner(t, 0.5, 5)
		test.That(t, p.Replan(0.05, 0.1), test.ShouldBeNil)
		advance(t, p, 0.3)
		// Braking now would end at 0.03.
		test.That(t, p.Replan(0.025, 0.1), test.ShouldBeNil)
		advance(t, p, p.Remaining()+0.01)
		test.That(t, p.IsActive(), test.ShouldBeFalse)
		stateShouldBe(t, p, 0.025, 0, 0)
	})
}

func TestZeroDistanceMove(t *testing.T) {
	for _, limits := range [][]float64{{0.5}, {0.5, 5}} {
		p := newTestPlanner(t, limits...)
		test.That(t, p.Reset(0.3), test.ShouldBeNil)
		test.That(t, p.Replan(0.3, 0.1), test.ShouldBeNil)
		test.That(t, p.IsActive(), test.ShouldBeFalse)
		test.That(t, p.Segments(), test.ShouldBeEmpty)
		advance(t, p, 0.01)
		stateShouldBe(t, p, 0.3, 0, 0)
	}
}

func TestReversal(t *testing.T) {
	p := newTestPlanner(t, 0.5)
	test.That(t, p.Replan(0.05, 0.1), test.ShouldBeNil)
	advance(t, p, 0.3)
	stateShouldBe(t, p, 0.02, 0.1, 0)

	test.That(t, p.Replan(0.010, 0.05), test.ShouldBeNil)
	test.That(t, p.Remaining(), test.ShouldAlmostEqual, 0.7, tol)
	advance(t, p, 0.4)
	_, vel, _ := p.State()
	test.That(t, vel, test.ShouldAlmostEqual, -0.05, tol)
	advance(t, p, 0.31)
	test.That(t, p.IsActive(), test.ShouldBeFalse)
	stateShouldBe(t, p, 0.010, 0, 0)
}

func TestStop(t *testing.T) {
	for _, limits := range [][]float64{{0.5}, {0.5, 5}} {
		p := newTestPlanner(t, limits...)
		test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
		advance(t, p, 0.15)
		pos, vel, _ := p.State()
		test.That(t, vel, test.ShouldBeGreaterThan, 0)

		test.That(t, p.Stop(), test.ShouldBeNil)
		test.That(t, p.IsActive(), test.ShouldBeTrue)
		target := p.Target()
		test.That(t, target, test.ShouldBeGreaterThan, pos)
		test.That(t, target, test.ShouldBeLessThan, 0.04)

		// Stopping again from the same state changes nothing.
		remaining := p.Remaining()
		test.That(t, p.Stop(), test.ShouldBeNil)
		test.That(t, p.Target(), test.ShouldAlmostEqual, target, tol)
		test.That(t, p.Remaining(), test.ShouldAlmostEqual, remaining, tol)

		advance(t, p, remaining+0.001)
		test.That(t, p.IsActive(), test.ShouldBeFalse)
		stateShouldBe(t, p, target, 0, 0)
	}

	p := newTestPlanner(t, 0.5, 5)
	test.That(t, p.Stop(), test.ShouldBeNil)
	test.That(t, p.IsActive(), test.ShouldBeFalse)
	stateShouldBe(t, p, 0, 0, 0)
}

func TestStopAtMaxAcceleration(t *testing.T) {
	p := newTestPlanner(t, 0.5, 5)
	test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
	advance(t, p, 0.15)
	test.That(t, p.Stop(), test.ShouldBeNil)
	// Jerk down to -max_acc, hold it, and jerk back to zero.
	test.That(t, p.Remaining(), test.ShouldAlmostEqual, 0.35, tol)
	segs := p.Segments()
	test.That(t, segs, test.ShouldHaveLength, 3)
	test.That(t, segs[0].Duration(), test.ShouldAlmostEqual, 0.2, tol)
	test.That(t, segs[1].Duration(), test.ShouldAlmostEqual, 0.05, tol)
	test.That(t, segs[2].Duration(), test.ShouldAlmostEqual, 0.1, tol)
}

func TestContinuity(t *testing.T) {
	p := newTestPlanner(t, 0.5, 5)
	test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
	advance(t, p, 0.15)
	before := p.FullState()

	test.That(t, p.Replan(-0.02, 0.05), test.ShouldBeNil)
	after := p.FullState()
	test.That(t, after.Position(), test.ShouldEqual, before.Position())
	test.That(t, after.Velocity(), test.ShouldEqual, before.Velocity())
	test.That(t, after.Acceleration(), test.ShouldEqual, before.Acceleration())

	// Consecutive segments join without jumps.
	segs := p.Segments()
	for i := 1; i < len(segs); i++ {
		end := segs[i-1].EndState()
		start := segs[i].Start()
		for o := Position; o < segs[i].Order(); o++ {
			test.That(t, start[o], test.ShouldAlmostEqual, end[o], 1e-9)
		}
	}

	advance(t, p, p.Remaining()+0.001)
	stateShouldBe(t, p, -0.02, 0, 0)
}

func TestContinuedMove(t *testing.T) {
	for _, limits := range [][]float64{{0.5}, {0.5, 5}} {
		p := newTestPlanner(t, limits...)
		test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
		advance(t, p, 0.25)
		remaining := p.Remaining()
		want := p.Segments()[0].Start()

		test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
		test.That(t, p.Remaining(), test.ShouldAlmostEqual, remaining, 1e-6)
		test.That(t, p.Segments()[0].Start()[Position], test.ShouldBeGreaterThanOrEqualTo, want[Position])

		advance(t, p, remaining+0.001)
		stateShouldBe(t, p, 0.04, 0, 0)
	}
}

func TestInvalidRequests(t *testing.T) {
	p := newTestPlanner(t, 0.5, 5)
	test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
	advance(t, p, 0.1)
	state := p.FullState()
	segs := p.Segments()

	err := p.Replan(0.08, 0)
	test.That(t, errors.Is(err, ErrInvalidVelocityLimit), test.ShouldBeTrue)
	err = p.Replan(0.08, -1)
	test.That(t, errors.Is(err, ErrInvalidVelocityLimit), test.ShouldBeTrue)
	err = p.Replan(0.08, math.Inf(1))
	test.That(t, errors.Is(err, ErrInvalidVelocityLimit), test.ShouldBeTrue)
	err = p.Replan(math.NaN(), 0.1)
	test.That(t, errors.Is(err, ErrInvalidTarget), test.ShouldBeTrue)
	err = p.Update(-0.001)
	test.That(t, errors.Is(err, ErrNegativeTimeStep), test.ShouldBeTrue)
	err = p.Update(math.NaN())
	test.That(t, errors.Is(err, ErrNegativeTimeStep), test.ShouldBeTrue)
	err = p.Reset(math.Inf(-1))
	test.That(t, errors.Is(err, ErrInvalidTarget), test.ShouldBeTrue)

	// Nothing changed.
	test.That(t, p.FullState(), test.ShouldResemble, state)
	test.That(t, p.Segments(), test.ShouldResemble, segs)
	test.That(t, p.Target(), test.ShouldEqual, 0.04)
}

func TestUpdateWhileIdle(t *testing.T) {
	p := newTestPlanner(t, 0.5)
	test.That(t, p.Reset(-2), test.ShouldBeNil)
	advance(t, p, 0)
	advance(t, p, 10)
	test.That(t, p.IsActive(), test.ShouldBeFalse)
	stateShouldBe(t, p, -2, 0, 0)
}

func TestReplanLogs(t *testing.T) {
	logger, observed := logging.NewObservedTestLogger(t)
	p, err := NewPlanner([]float64{0.5}, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
	advance(t, p, 0.1)
	test.That(t, p.Stop(), test.ShouldBeNil)
	test.That(t, p.Replan(0.04, 0), test.ShouldNotBeNil)

	replans := observed.FilterMessage("replanned").All()
	test.That(t, replans, test.ShouldHaveLength, 1)
	test.That(t, replans[0].ContextMap()["target"], test.ShouldEqual, 0.04)
	test.That(t, replans[0].ContextMap()["velocity_limit"], test.ShouldEqual, 0.1)
	test.That(t, observed.FilterMessage("stopping").Len(), test.ShouldEqual, 1)
	// Update never logs.
	test.That(t, observed.Len(), test.ShouldEqual, 2)
}

func TestSetLimits(t *testing.T) {
	p := newTestPlanner(t, 0.5)
	test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
	test.That(t, p.Remaining(), test.ShouldAlmostEqual, 0.6)

	test.That(t, p.SetLimits([]float64{1}), test.ShouldBeNil)
	test.That(t, p.Limits(), test.ShouldResemble, Limits{Acceleration: 1})
	test.That(t, p.Remaining(), test.ShouldAlmostEqual, 0.6)

	test.That(t, p.Replan(0.04, 0.1), test.ShouldBeNil)
	test.That(t, p.Remaining(), test.ShouldAlmostEqual, 0.5)

	test.That(t, p.SetLimits([]float64{-1}), test.ShouldNotBeNil)
	test.That(t, p.SetLimits(nil), test.ShouldNotBeNil)
	test.That(t, p.Limits(), test.ShouldResemble, Limits{Acceleration: 1})

	test.That(t, p.SetLimits([]float64{1, 10}), test.ShouldBeNil)
	test.That(t, p.Limits().JerkLimited(), test.ShouldBeTrue)
}
