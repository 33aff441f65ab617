package control

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/utils"
)

// basicPID is the standard implementation of a PID controller.
type basicPID struct {
	mu       sync.Mutex
	cfg      BlockConfig
	error    float64
	kI       float64
	kD       float64
	kP       float64
	int      float64
	sat      int
	limUp    float64
	limLo    float64
	intSatLo float64
	intSatUp float64
	y        []*Signal
	logger   logging.Logger
}

func newPID(config BlockConfig, logger logging.Logger) (Block, error) {
	p := &basicPID{cfg: config, logger: logger}
	if err := p.reset(); err != nil {
		return nil, err
	}
	return p, nil
}

// Next computes one discrete step of the controller from the error signal. It returns false when the
// integral is saturated in the direction of the error, in which case the last valid output should be used.
func (p *basicPID) Next(ctx context.Context, x []*Signal, dt time.Duration) ([]*Signal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dtS := dt.Seconds()
	if len(x) != 1 || dtS <= 0 {
		return p.y, false
	}
	err := x[0].GetSignalValueAt(0)
	if (p.sat > 0 && err > 0) || (p.sat < 0 && err < 0) {
		return p.y, false
	}
	p.int += p.kI * err * dtS
	switch {
	case p.int > p.intSatUp:
		p.int = p.intSatUp
		p.sat = 1
	case p.int < p.intSatLo:
		p.int = p.intSatLo
		p.sat = -1
	default:
		p.sat = 0
	}
	deriv := (err - p.error) / dtS
	output := p.kP*err + p.int + p.kD*deriv
	p.error = err
	output = utils.Clamp(output, p.limLo, p.limUp)
	p.y[0].SetSignalValueAt(0, output)
	return p.y, true
}

func (p *basicPID) reset() error {
	p.int = 0
	p.error = 0
	p.sat = 0

	if !p.cfg.Attribute.Has("Ki") &&
		!p.cfg.Attribute.Has("Kd") &&
		!p.cfg.Attribute.Has("Kp") {
		return errors.Errorf("pid block %s should have at least one Ki, Kp or Kd field", p.cfg.Name)
	}
	if len(p.cfg.DependsOn) != 1 {
		return errors.Errorf("pid block %s should have 1 input got %d", p.cfg.Name, len(p.cfg.DependsOn))
	}
	p.kI = p.cfg.Attribute.Float64("Ki", 0.0)
	p.kD = p.cfg.Attribute.Float64("Kd", 0.0)
	p.kP = p.cfg.Attribute.Float64("Kp", 0.0)
	p.limUp = p.cfg.Attribute.Float64("limit_up", 100.0)
	p.limLo = p.cfg.Attribute.Float64("limit_lo", -100.0)
	if p.limLo >= p.limUp {
		return errors.Errorf("pid block %s limit_lo (%g) must be below limit_up (%g)", p.cfg.Name, p.limLo, p.limUp)
	}
	intSat := p.cfg.Attribute.Float64("int_sat_lim", 100.0)
	if intSat < 0 {
		return errors.Errorf("pid block %s int_sat_lim must not be negative", p.cfg.Name)
	}
	p.intSatUp = intSat
	p.intSatLo = -intSat
	p.y = []*Signal{makeSignal(p.cfg.Name, p.cfg.Type, 1)}
	return nil
}

func (p *basicPID) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reset()
}

func (p *basicPID) UpdateConfig(ctx context.Context, config BlockConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = config
	return p.reset()
}

func (p *basicPID) Output(ctx context.Context) []*Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copySignals(p.y)
}

func (p *basicPID) Config(ctx context.Context) BlockConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}
