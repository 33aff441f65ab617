package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/trace"
	"go.viam.com/trajectory/trajectory"
)

const (
	flagDebug    = "debug"
	flagLogFile  = "log-file"
	flagOut      = "out"
	flagNoPlot   = "no-plot"
	flagLimits   = "limits"
	flagTarget   = "target"
	flagVelocity = "vlimit"
	flagStep     = "dt"
	flagStart    = "start"

	// settle is how long a single move is recorded after the planner says it is done.
	settle = 0.1
)

func newApp(w io.Writer) *cli.App {
	var (
		logger  logging.Logger
		logFile *logging.FileAppender
	)
	outFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    flagOut,
			Aliases: []string{"o"},
			Usage:   "write `PREFIX`.data and PREFIX.png, defaults to the script name",
		},
		&cli.BoolFlag{
			Name:  flagNoPlot,
			Usage: "skip rendering the plot",
		},
	}
	return &cli.App{
		Name:      "trajsim",
		Usage:     "simulate acceleration and jerk limited single axis moves",
		Writer:    w,
		ErrWriter: w,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "log every replan",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated every 10MB",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("trajsim")
			} else {
				logger = logging.NewLogger("trajsim")
			}
			if path := c.String(flagLogFile); path != "" {
				logFile = logging.NewFileAppender(path, 10, 3)
				logger.AddAppender(logFile)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logFile == nil {
				return nil
			}
			return multierr.Combine(logger.Sync(), logFile.Close())
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run a JSON script of timed moves, stops and checks",
				ArgsUsage: "<script.json>",
				Flags:     outFlags,
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("expected exactly one script")
					}
					script, err := trace.ReadScript(c.Args().First())
					if err != nil {
						return err
					}
					if script.Name == "" {
						script.Name = strings.TrimSuffix(filepath.Base(c.Args().First()), filepath.Ext(c.Args().First()))
					}
					return runScript(c, script, logger)
				},
			},
			{
				Name:  "move",
				Usage: "record a single move from rest",
				Flags: append([]cli.Flag{
					&cli.Float64SliceFlag{
						Name:     flagLimits,
						Usage:    "maximum acceleration, optionally followed by maximum jerk",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     flagTarget,
						Usage:    "position to move to",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     flagVelocity,
						Usage:    "maximum velocity",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  flagStart,
						Usage: "position to start from",
					},
					&cli.Float64Flag{
						Name:  flagStep,
						Usage: "sampling period in seconds",
						Value: trace.DefaultStep,
					},
				}, outFlags...),
				Action: func(c *cli.Context) error {
					script, err := moveScript(
						c.Float64Slice(flagLimits),
						c.Float64(flagStart),
						c.Float64(flagTarget),
						c.Float64(flagVelocity),
						c.Float64(flagStep),
					)
					if err != nil {
						return err
					}
					return runScript(c, script, logger)
				},
			},
		},
	}
}

// moveScript builds a script making one move from rest and recording until shortly after it ends.
func moveScript(limits []float64, start, target, vLimit, dt float64) (*trace.Script, error) {
	lim, err := trajectory.NewLimits(limits)
	if err != nil {
		return nil, err
	}
	plan, err := trajectory.PlanMove(lim, trajectory.State{start}, target, vLimit)
	if err != nil {
		return nil, err
	}
	return &trace.Script{
		Name:   fmt.Sprintf("move_%g_to_%g", start, target),
		Limits: limits,
		Start:  start,
		Step:   dt,
		Actions: []trace.Action{
			trace.MoveTo(0, target, vLimit),
			trace.CheckState(plan.Duration()+settle/2, target, 0, 0),
			trace.Done(plan.Duration() + settle),
		},
	}, nil
}

// runScript runs the script, writes its data and plot files, and prints a summary. Files are written
// even when a check fails so the failure can be inspected.
func runScript(c *cli.Context, script *trace.Script, logger logging.Logger) error {
	res, runErr := trace.Run(script, logger)
	if res == nil {
		return runErr
	}
	prefix := c.String(flagOut)
	if prefix == "" {
		prefix = res.Name
	}
	if err := trace.WriteDataFile(prefix+".data", res); err != nil {
		return err
	}
	if !c.Bool(flagNoPlot) {
		if err := trace.WritePlotFile(prefix+".png", res); err != nil {
			return err
		}
	}
	sum, err := trace.Summarize(res)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, sum.Table())
	if runErr != nil {
		return errors.Wrapf(runErr, "script %s failed", res.Name)
	}
	return nil
}
