package trajectory

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// maxSegments is the longest plan the planner ever builds: a jerk-limited ramp up, a cruise and a
// jerk-limited ramp down.
const maxSegments = 7

// A Plan is a sequence of segments that brings an axis to rest at Target.
type Plan struct {
	Segments []Segment
	Target   float64
}

// Duration returns the total duration of the plan in seconds.
func (p Plan) Duration() float64 {
	total := 0.0
	for _, seg := range p.Segments {
		total += seg.duration
	}
	return total
}

func (p Plan) String() string {
	if len(p.Segments) == 0 {
		return fmt.Sprintf("at rest at %.6g", p.Target)
	}
	parts := make([]string, 0, len(p.Segments))
	for _, seg := range p.Segments {
		parts = append(parts, seg.String())
	}
	return fmt.Sprintf("to %.6g in %.6gs: [%s]", p.Target, p.Duration(), strings.Join(parts, "; "))
}

// PlanMove plans a move from the state from to rest at target, never exceeding vLimit in speed
// nor the given limits on higher derivatives.
func PlanMove(lim Limits, from State, target, vLimit float64) (Plan, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return Plan{}, errors.Wrapf(ErrInvalidTarget, "got %v", target)
	}
	if !(vLimit > 0) || math.IsInf(vLimit, 0) {
		return Plan{}, errors.Wrapf(ErrInvalidVelocityLimit, "got %v", vLimit)
	}
	var c *chain
	var err error
	if lim.JerkLimited() {
		c, err = sCurve(from, lim, vLimit, target)
	} else {
		c, err = rampTo(from, Position, lim.Acceleration, vLimit, target)
	}
	if err != nil {
		return Plan{}, err
	}
	return newPlan(c, target)
}

// PlanStop plans the quickest stop from the state from. The plan ends wherever the axis comes to
// rest.
func PlanStop(lim Limits, from State) (Plan, error) {
	var c *chain
	if lim.JerkLimited() {
		var err error
		if c, err = rampTo(from, Velocity, lim.Jerk, lim.Acceleration, 0); err != nil {
			return Plan{}, err
		}
	} else {
		c = velocityRamp(from, lim.Acceleration)
	}
	return newPlan(c, c.end[Position])
}

func newPlan(c *chain, target float64) (Plan, error) {
	if len(c.segs) > maxSegments {
		return Plan{}, errors.Errorf("plan has %d segments, at most %d are supported", len(c.segs), maxSegments)
	}
	return Plan{Segments: c.segs, Target: target}, nil
}

// segmentQueue is a fixed capacity FIFO of segments. Its zero value is empty.
type segmentQueue struct {
	segs [maxSegments]Segment
	head int
	size int
}

func (q *segmentQueue) push(seg Segment) {
	q.segs[(q.head+q.size)%maxSegments] = seg
	q.size++
}

func (q *segmentQueue) pop() {
	q.head = (q.head + 1) % maxSegments
	q.size--
}

func (q *segmentQueue) front() Segment {
	return q.segs[q.head]
}

func (q *segmentQueue) empty() bool {
	return q.size == 0
}

func (q *segmentQueue) list() []Segment {
	out := make([]Segment, 0, q.size)
	for i := 0; i < q.size; i++ {
		out = append(out, q.segs[(q.head+i)%maxSegments])
	}
	return out
}

// planState is everything a planner knows about its axis. Transitions return a new planState
// and leave the receiver untouched.
type planState struct {
	queue   segmentQueue
	elapsed float64
	state   State
	target  float64
}

// executing returns the state of an axis about to execute plan.
func executing(plan Plan) planState {
	next := planState{target: plan.Target}
	for _, seg := range plan.Segments {
		next.queue.push(seg)
	}
	if next.queue.empty() {
		next.state = atRest(plan.Target)
	} else {
		next.state = next.queue.front().start
	}
	return next
}

// advanced moves dt seconds forward, dropping finished segments. A segment with less than
// tinyDuration left counts as finished. Once the last one finishes the axis rests exactly at the
// target.
func (ps planState) advanced(dt float64) planState {
	if ps.queue.empty() {
		return ps
	}
	ps.elapsed += dt
	for !ps.queue.empty() && ps.elapsed > ps.queue.front().duration-tinyDuration {
		ps.elapsed = math.Max(ps.elapsed-ps.queue.front().duration, 0)
		ps.queue.pop()
	}
	if ps.queue.empty() {
		ps.elapsed = 0
		ps.state = atRest(ps.target)
		return ps
	}
	ps.state = ps.queue.front().at(ps.elapsed)
	return ps
}

// remaining returns the time left until the plan completes.
func (ps planState) remaining() float64 {
	total := -ps.elapsed
	for i := 0; i < ps.queue.size; i++ {
		total += ps.queue.segs[(ps.queue.head+i)%maxSegments].duration
	}
	return math.Max(total, 0)
}
