package control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/trajectory"
)

// trajectoryProfile turns a set point into a smooth reference of position, velocity and
// acceleration. Its first input is the set point, an optional second input is the measured
// position the first move starts from.
type trajectoryProfile struct {
	mu          sync.Mutex
	cfg         BlockConfig
	planner     *trajectory.Planner
	maxVel      float64
	setPoint    float64
	initialized bool
	y           []*Signal
	logger      logging.Logger
}

func newTrajectoryProfile(config BlockConfig, logger logging.Logger) (Block, error) {
	b := &trajectoryProfile{cfg: config, logger: logger}
	if err := b.reset(); err != nil {
		return nil, err
	}
	return b, nil
}

// Next advances the reference by dt and replans whenever the set point moves.
func (b *trajectoryProfile) Next(ctx context.Context, x []*Signal, dt time.Duration) ([]*Signal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(x) != len(b.cfg.DependsOn) {
		return b.y, false
	}
	if !b.initialized {
		start := 0.0
		if len(x) > 1 {
			start = x[1].GetSignalValueAt(0)
		}
		if err := b.planner.Reset(start); err != nil {
			b.logger.Errorw("cannot reset trajectory", "block", b.cfg.Name, "error", err)
			return b.y, false
		}
		b.setPoint = start
		b.initialized = true
	} else if err := b.planner.Update(dt.Seconds()); err != nil {
		b.logger.Errorw("cannot advance trajectory", "block", b.cfg.Name, "error", err)
		return b.y, false
	}
	if sp := x[0].GetSignalValueAt(0); sp != b.setPoint {
		if err := b.planner.Replan(sp, b.maxVel); err != nil {
			b.logger.Errorw("cannot plan trajectory", "block", b.cfg.Name, "set_point", sp, "error", err)
		} else {
			b.setPoint = sp
		}
	}
	pos, vel, acc := b.planner.State()
	b.y[0].SetSignalValueAt(0, pos)
	b.y[0].SetSignalValueAt(1, vel)
	b.y[0].SetSignalValueAt(2, acc)
	return b.y, true
}

// stop brings the reference to rest as quickly as the limits allow. The set point is kept so no
// new move starts until it changes.
func (b *trajectoryProfile) stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil
	}
	return b.planner.Stop()
}

func (b *trajectoryProfile) reset() error {
	if len(b.cfg.DependsOn) < 1 || len(b.cfg.DependsOn) > 2 {
		return errors.Errorf("invalid number of inputs for trajectory block %s expected 1 or 2 got %d",
			b.cfg.Name, len(b.cfg.DependsOn))
	}
	tcfg, err := trajectory.ConfigFromAttributes(b.cfg.Attribute)
	if err != nil {
		return errors.Wrapf(err, "trajectory block %s", b.cfg.Name)
	}
	if err := tcfg.Validate(fmt.Sprintf("blocks.%s", b.cfg.Name)); err != nil {
		return err
	}
	if b.planner == nil {
		b.planner, err = trajectory.NewPlannerFromConfig(tcfg, b.logger)
		if err != nil {
			return err
		}
	} else if err := b.planner.SetLimits(tcfg.Limits()); err != nil {
		return err
	}
	b.maxVel = tcfg.MaxVelocity
	if b.y == nil {
		b.y = []*Signal{makeSignal(b.cfg.Name, b.cfg.Type, 3)}
	}
	return nil
}

// Reset forgets the reference, the next call to Next starts from the measured position again.
func (b *trajectoryProfile) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
	b.y = []*Signal{makeSignal(b.cfg.Name, b.cfg.Type, 3)}
	return b.reset()
}

// UpdateConfig applies new limits to the next move, the one in progress is not replanned.
func (b *trajectoryProfile) UpdateConfig(ctx context.Context, config BlockConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.cfg
	b.cfg = config
	if err := b.reset(); err != nil {
		b.cfg = old
		return err
	}
	return nil
}

func (b *trajectoryProfile) Output(ctx context.Context) []*Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copySignals(b.y)
}

func (b *trajectoryProfile) Config(ctx context.Context) BlockConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}
