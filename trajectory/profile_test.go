package trajectory

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestRampTo(t *testing.T) {
	t.Run("trapezoid", func(t *testing.T) {
		c, err := rampTo(atRest(1), Position, 2, 1, 3)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.segs, test.ShouldHaveLength, 3)
		test.That(t, c.segs[0].Duration(), test.ShouldAlmostEqual, 0.5)
		test.That(t, c.segs[1].Duration(), test.ShouldAlmostEqual, 1.5)
		test.That(t, c.segs[2].Duration(), test.ShouldAlmostEqual, 0.5)
		test.That(t, c.end[Position], test.ShouldAlmostEqual, 3)
		test.That(t, c.end[Velocity], test.ShouldAlmostEqual, 0)
	})

	t.Run("triangle", func(t *testing.T) {
		c, err := rampTo(atRest(0), Position, 2, 10, -2)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.segs, test.ShouldHaveLength, 2)
		test.That(t, c.segs[0].Start()[Acceleration], test.ShouldEqual, -2.0)
		test.That(t, c.segs[0].Duration(), test.ShouldAlmostEqual, 1)
		test.That(t, c.end[Position], test.ShouldAlmostEqual, -2)
	})

	t.Run("overshoot", func(t *testing.T) {
		// Moving too fast toward the target to stop before it.
		from := State{Position: 0, Velocity: 2}
		c, err := rampTo(from, Position, 1, 2, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.segs[0].Start()[Acceleration], test.ShouldEqual, -1.0)
		test.That(t, c.end[Position], test.ShouldAlmostEqual, 1)
		test.That(t, c.end[Velocity], test.ShouldAlmostEqual, 0)
	})

	t.Run("relabeled axis", func(t *testing.T) {
		from := State{Position: 0, Velocity: 0.05, Acceleration: 0.5}
		c, err := rampTo(from, Velocity, 5, 0.5, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.segs, test.ShouldHaveLength, 3)
		for _, seg := range c.segs {
			test.That(t, math.Abs(seg.Start()[Acceleration]), test.ShouldBeLessThanOrEqualTo, 0.5)
		}
		test.That(t, c.end[Velocity], test.ShouldAlmostEqual, 0)
		test.That(t, c.end[Acceleration], test.ShouldAlmostEqual, 0)
	})
}

func TestVelocityRamp(t *testing.T) {
	c := velocityRamp(State{Position: 1, Velocity: -0.5}, 0.25)
	test.That(t, c.segs, test.ShouldHaveLength, 1)
	test.That(t, c.segs[0].Duration(), test.ShouldEqual, 2.0)
	test.That(t, c.end[Velocity], test.ShouldAlmostEqual, 0)
	test.That(t, c.end[Position], test.ShouldAlmostEqual, 0.5)

	test.That(t, velocityRamp(atRest(4), 1).segs, test.ShouldBeEmpty)
}

func TestRestPeak(t *testing.T) {
	lim := Limits{Acceleration: 1, Jerk: 10}
	test.That(t, restPeak(lim, 0.0025), test.ShouldAlmostEqual, 0.025)
	test.That(t, restPeak(lim, 0.02), test.ShouldAlmostEqual, 0.1)
	test.That(t, restPeak(lim, 0.1), test.ShouldAlmostEqual, (-0.1+math.Sqrt(0.41))/2)
	test.That(t, restPeak(lim, 0), test.ShouldEqual, 0.0)
}

func TestPlanMoveStaysWithinLimits(t *testing.T) {
	lim := Limits{Acceleration: 0.5, Jerk: 5}
	for _, from := range []State{
		{},
		{Position: 0.01, Velocity: 0.1},
		{Position: -0.02, Velocity: 0.05, Acceleration: -0.5},
		{Position: 0.3, Velocity: -0.08, Acceleration: 0.2},
	} {
		for _, target := range []float64{-0.3, -0.01, 0, 0.001, 0.02, 0.5} {
			plan, err := PlanMove(lim, from, target, 0.1)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, len(plan.Segments), test.ShouldBeLessThanOrEqualTo, maxSegments)
			for _, seg := range plan.Segments {
				test.That(t, math.Abs(seg.Start()[Jerk]), test.ShouldBeLessThanOrEqualTo, lim.Jerk)
				for _, s := range []State{seg.Start(), seg.EndState()} {
					test.That(t, math.Abs(s[Acceleration]), test.ShouldBeLessThanOrEqualTo, lim.Acceleration+1e-9)
				}
			}
			if len(plan.Segments) > 0 {
				end := plan.Segments[len(plan.Segments)-1].EndState()
				test.That(t, end[Position], test.ShouldAlmostEqual, target, 1e-9)
				test.That(t, end[Velocity], test.ShouldAlmostEqual, 0, 1e-9)
				test.That(t, end[Acceleration], test.ShouldAlmostEqual, 0, 1e-9)
			}
		}
	}
}

func TestPlanMoveInvalid(t *testing.T) {
	lim := Limits{Acceleration: 1}
	_, err := PlanMove(lim, State{}, math.Inf(1), 1)
	test.That(t, errors.Is(err, ErrInvalidTarget), test.ShouldBeTrue)
	_, err = PlanMove(lim, State{}, 1, math.NaN())
	test.That(t, errors.Is(err, ErrInvalidVelocityLimit), test.ShouldBeTrue)
}

func TestPlanString(t *testing.T) {
	test.That(t, Plan{Target: 2}.String(), test.ShouldEqual, "at rest at 2")
	plan, err := PlanMove(Limits{Acceleration: 2}, State{}, 1, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Duration(), test.ShouldAlmostEqual, 1.5)
	test.That(t, plan.String(), test.ShouldStartWith, "to 1 in 1.5s: [acceleration=2 for 0.5s")
}

func TestSegmentQueue(t *testing.T) {
	var q segmentQueue
	test.That(t, q.empty(), test.ShouldBeTrue)
	for round := 0; round < 3; round++ {
		for i := 0; i < maxSegments; i++ {
			q.push(newSegment(atRest(float64(i)), Velocity, 1))
		}
		test.That(t, q.list(), test.ShouldHaveLength, maxSegments)
		for i := 0; i < maxSegments; i++ {
			test.That(t, q.front().Start()[Position], test.ShouldEqual, float64(i))
			q.pop()
		}
		test.That(t, q.empty(), test.ShouldBeTrue)
		// Leave the head somewhere else for the next round.
		q.push(newSegment(atRest(0), Velocity, 1))
		q.pop()
	}
}
