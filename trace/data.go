package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// WriteData writes res in gnuplot's data format: one line per sample holding the time, position,
// velocity, acceleration and jerk, then two blank lines and a single line with the time of every
// replan. Acceleration-limited runs write a zero jerk column so both kinds plot alike.
func WriteData(w io.Writer, res *Result) error {
	bw := bufio.NewWriter(w)
	for _, s := range res.Samples {
		fmt.Fprintf(bw, "%.6f %.6f %.6f %.6f %.6f\n",
			s.Time, s.State.Position(), s.State.Velocity(), s.State.Acceleration(), s.State.Jerk())
	}
	fmt.Fprint(bw, "\n\n")
	for i, t := range res.Replans {
		if i > 0 {
			fmt.Fprint(bw, " ")
		}
		fmt.Fprintf(bw, "%.6f", t)
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

// WriteDataFile writes res to path with WriteData.
func WriteDataFile(path string, res *Result) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "cannot create data file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WriteData(f, res)
}
