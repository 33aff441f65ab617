package trace

import (
	"bufio"
	"image/color"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"go.viam.com/trajectory/trajectory"
)

const (
	plotWidth     = 8 * vg.Inch
	rowHeight     = 2 * vg.Inch
	plotDPI       = 150
	plotLineWidth = 1.5
)

var replanColor = color.RGBA{R: 200, A: 255}

// NewPlots returns one plot per order the run's limits control, position first, sharing the time
// axis. Replans are marked on every plot.
func NewPlots(res *Result) ([]*plot.Plot, error) {
	if len(res.Samples) == 0 {
		return nil, errors.New("nothing to plot")
	}
	top := res.Limits.Order()
	plots := make([]*plot.Plot, 0, int(top)+1)
	for order := trajectory.Position; order <= top; order++ {
		p := plot.New()
		if order == trajectory.Position {
			p.Title.Text = res.Name
		}
		p.X.Label.Text = "time (s)"
		p.Y.Label.Text = order.String()
		p.Add(plotter.NewGrid())

		pts := make(plotter.XYs, len(res.Samples))
		for i, s := range res.Samples {
			pts[i].X = s.Time
			pts[i].Y = s.State[order]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(plotLineWidth)
		p.Add(line)

		if len(res.Replans) > 0 {
			marks := make(plotter.XYs, len(res.Replans))
			for i, t := range res.Replans {
				marks[i].X = t
				marks[i].Y = valueAt(res.Samples, t, order)
			}
			scatter, err := plotter.NewScatter(marks)
			if err != nil {
				return nil, err
			}
			scatter.GlyphStyle.Color = replanColor
			scatter.GlyphStyle.Shape = draw.CrossGlyph{}
			scatter.GlyphStyle.Radius = vg.Points(4)
			p.Add(scatter)
		}
		plots = append(plots, p)
	}
	return plots, nil
}

// WritePlot renders the plots of res stacked vertically as a PNG image.
func WritePlot(w io.Writer, res *Result) error {
	plots, err := NewPlots(res)
	if err != nil {
		return err
	}
	c := vgimg.NewWith(
		vgimg.UseWH(plotWidth, rowHeight*vg.Length(len(plots))),
		vgimg.UseDPI(plotDPI),
	)
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadY:      vg.Points(4),
	}
	table := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		table[i] = []*plot.Plot{p}
	}
	canvases := plot.Align(table, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}

	bw := bufio.NewWriter(w)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return errors.Wrap(err, "cannot write png")
	}
	return bw.Flush()
}

// WritePlotFile writes the plots of res to path with WritePlot.
func WritePlotFile(path string, res *Result) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "cannot create png")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WritePlot(f, res)
}

// valueAt returns the given order of the last sample at or before t.
func valueAt(samples []Sample, t float64, order trajectory.Order) float64 {
	v := samples[0].State[order]
	for _, s := range samples {
		if s.Time > t {
			break
		}
		v = s.State[order]
	}
	return v
}
