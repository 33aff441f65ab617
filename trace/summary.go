package trace

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/trajectory/trajectory"
)

// A Summary condenses a run into the figures worth comparing against the limits. Velocity,
// acceleration and jerk figures come from the numerically differentiated samples.
type Summary struct {
	Name     string
	Limits   trajectory.Limits
	Duration float64
	Samples  int
	Replans  int
	Final    trajectory.State

	PeakVelocity float64

	PeakAcceleration     float64
	PeakAccelerationTime float64
	MeanAcceleration     float64
	P99Acceleration      float64

	PeakJerk float64
	P99Jerk  float64
}

// Summarize computes the summary of res. Jerk figures are only computed for jerk-limited runs.
func Summarize(res *Result) (*Summary, error) {
	sum := &Summary{
		Name:    res.Name,
		Limits:  res.Limits,
		Samples: len(res.Samples),
		Replans: len(res.Replans),
	}
	if len(res.Samples) == 0 {
		return sum, nil
	}
	last := res.Samples[len(res.Samples)-1]
	sum.Duration = last.Time
	sum.Final = last.State

	vel := make([]float64, len(res.Samples))
	acc := make([]float64, len(res.Samples))
	jerk := make([]float64, len(res.Samples))
	for i, s := range res.Samples {
		vel[i] = math.Abs(s.Velocity)
		acc[i] = math.Abs(s.Acceleration)
		jerk[i] = math.Abs(s.Jerk)
	}

	sum.PeakVelocity = floats.Max(vel)
	peak := floats.MaxIdx(acc)
	sum.PeakAcceleration = acc[peak]
	sum.PeakAccelerationTime = res.Samples[peak].Time

	var err error
	if sum.MeanAcceleration, err = stats.Mean(acc); err != nil {
		return nil, err
	}
	if sum.P99Acceleration, err = stats.Percentile(acc, 99); err != nil {
		return nil, err
	}
	if res.Limits.JerkLimited() {
		if sum.PeakJerk, err = stats.Max(jerk); err != nil {
			return nil, err
		}
		if sum.P99Jerk, err = stats.Percentile(jerk, 99); err != nil {
			return nil, err
		}
	}
	return sum, nil
}

// Table renders the summary as a text table.
func (s *Summary) Table() string {
	t := table.NewWriter()
	t.SetTitle(s.Name)
	t.AppendHeader(table.Row{"Quantity", "Value", "Limit"})
	t.AppendRow(table.Row{"duration (s)", fmt.Sprintf("%.3f", s.Duration), ""})
	t.AppendRow(table.Row{"samples", s.Samples, ""})
	t.AppendRow(table.Row{"replans", s.Replans, ""})
	t.AppendRow(table.Row{"final position", fmt.Sprintf("%.6g", s.Final.Position()), ""})
	t.AppendRow(table.Row{"final velocity", fmt.Sprintf("%.6g", s.Final.Velocity()), ""})
	t.AppendRow(table.Row{"peak |velocity|", fmt.Sprintf("%.6g", s.PeakVelocity), ""})
	t.AppendSeparator()
	acc := fmt.Sprintf("%g", s.Limits.Acceleration)
	t.AppendRow(table.Row{
		"peak |acceleration|",
		fmt.Sprintf("%.6g at %.3fs", s.PeakAcceleration, s.PeakAccelerationTime),
		acc,
	})
	t.AppendRow(table.Row{"mean |acceleration|", fmt.Sprintf("%.6g", s.MeanAcceleration), ""})
	t.AppendRow(table.Row{"p99 |acceleration|", fmt.Sprintf("%.6g", s.P99Acceleration), acc})
	if s.Limits.JerkLimited() {
		jerk := fmt.Sprintf("%g", s.Limits.Jerk)
		t.AppendSeparator()
		t.AppendRow(table.Row{"peak |jerk|", fmt.Sprintf("%.6g", s.PeakJerk), jerk})
		t.AppendRow(table.Row{"p99 |jerk|", fmt.Sprintf("%.6g", s.P99Jerk), jerk})
	}
	return t.Render()
}
