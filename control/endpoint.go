package control

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/logging"
)

// Controllable is the physical axis a loop drives. State returns the measured position, optionally
// followed by velocity and acceleration.
type Controllable interface {
	SetState(ctx context.Context, state []*Signal) error
	State(ctx context.Context) ([]float64, error)
}

type endpoint struct {
	mu     sync.Mutex
	ctr    Controllable
	cfg    BlockConfig
	y      []*Signal
	logger logging.Logger
}

func newEndpoint(config BlockConfig, logger logging.Logger, ctr Controllable) (Block, error) {
	e := &endpoint{cfg: config, logger: logger, ctr: ctr}
	if err := e.reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// Next reads the state of the axis when called without inputs and commands it otherwise.
func (e *endpoint) Next(ctx context.Context, x []*Signal, dt time.Duration) ([]*Signal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctr == nil {
		return e.y, false
	}
	if len(x) > 0 {
		if err := e.ctr.SetState(ctx, x); err != nil {
			e.logger.Errorw("failed to set state", "block", e.cfg.Name, "error", err)
			return e.y, false
		}
		return e.y, true
	}
	state, err := e.ctr.State(ctx)
	if err != nil {
		e.logger.Errorw("failed to read state", "block", e.cfg.Name, "error", err)
		return e.y, false
	}
	if len(state) != e.y[0].Dimension() {
		e.y[0] = makeSignal(e.cfg.Name, e.cfg.Type, len(state))
	}
	for i, v := range state {
		e.y[0].SetSignalValueAt(i, v)
	}
	return e.y, true
}

func (e *endpoint) reset() error {
	if len(e.cfg.DependsOn) > 1 {
		return errors.Errorf("invalid number of inputs for endpoint block %s expected at most 1 got %d",
			e.cfg.Name, len(e.cfg.DependsOn))
	}
	e.y = []*Signal{makeSignal(e.cfg.Name, e.cfg.Type, 1)}
	return nil
}

func (e *endpoint) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reset()
}

func (e *endpoint) UpdateConfig(ctx context.Context, config BlockConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = config
	return e.reset()
}

func (e *endpoint) Output(ctx context.Context) []*Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copySignals(e.y)
}

func (e *endpoint) Config(ctx context.Context) BlockConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}
