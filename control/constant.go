package control

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/logging"
)

type constant struct {
	mu       sync.Mutex
	cfg      BlockConfig
	y        []*Signal
	constant float64
	logger   logging.Logger
}

func newConstant(config BlockConfig, logger logging.Logger) (Block, error) {
	c := &constant{cfg: config, logger: logger}
	if err := c.reset(); err != nil {
		return nil, err
	}
	return c, nil
}

func (b *constant) Next(ctx context.Context, x []*Signal, dt time.Duration) ([]*Signal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.y, true
}

func (b *constant) reset() error {
	if !b.cfg.Attribute.Has("constant_val") {
		return errors.Errorf("constant block %s doesn't have a constant_val field", b.cfg.Name)
	}
	if len(b.cfg.DependsOn) > 0 {
		return errors.Errorf("invalid number of inputs for constant block %s expected 0 got %d", b.cfg.Name, len(b.cfg.DependsOn))
	}
	b.constant = b.cfg.Attribute.Float64("constant_val", 0.0)
	b.y = []*Signal{makeSignal(b.cfg.Name, b.cfg.Type, 1)}
	b.y[0].SetSignalValueAt(0, b.constant)
	return nil
}

func (b *constant) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reset()
}

func (b *constant) UpdateConfig(ctx context.Context, config BlockConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = config
	return b.reset()
}

func (b *constant) Output(ctx context.Context) []*Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copySignals(b.y)
}

func (b *constant) Config(ctx context.Context) BlockConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}
