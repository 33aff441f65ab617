package control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/utils"
)

const maxFrequency = 1000.0

// Config configures a control loop.
type Config struct {
	Blocks    []BlockConfig `json:"blocks"`    // Blocks Control Block Config
	Frequency float64       `json:"frequency"` // Frequency loop Frequency
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var errs error
	if !(cfg.Frequency > 0) || cfg.Frequency > maxFrequency {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			errors.Errorf("loop frequency must be in (0, %g] Hz, got %g", maxFrequency, cfg.Frequency)))
	}
	types := map[string]controlBlockType{}
	for i, b := range cfg.Blocks {
		blockPath := fmt.Sprintf("%s.blocks.%d", path, i)
		if b.Name == "" {
			errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(blockPath, "name"))
			continue
		}
		if _, ok := types[b.Name]; ok {
			errs = multierr.Append(errs, goutils.NewConfigValidationError(blockPath,
				errors.Errorf("duplicate block name %s", b.Name)))
		}
		types[b.Name] = b.Type
		switch b.Type {
		case blockEndpoint, blockTrajectory, blockPID, blockGain, blockSum, blockConstant:
		default:
			errs = multierr.Append(errs, goutils.NewConfigValidationError(blockPath,
				errors.Errorf("unsupported block type %q", b.Type)))
		}
	}
	for i, b := range cfg.Blocks {
		for _, dep := range b.DependsOn {
			if _, ok := types[dep]; !ok {
				errs = multierr.Append(errs, goutils.NewConfigValidationError(fmt.Sprintf("%s.blocks.%d", path, i),
					errors.Errorf("block %s depends on %s but it does not exist", b.Name, dep)))
			}
		}
	}
	if errs != nil {
		return errs
	}
	if _, err := evaluationOrder(cfg.Blocks); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// evaluationOrder sorts the blocks that are not endpoints so every block comes after the blocks
// it depends on. Endpoints are read before and written after everything else, which breaks the
// feedback cycle they close.
func evaluationOrder(blocks []BlockConfig) ([]string, error) {
	isEndpoint := map[string]bool{}
	for _, b := range blocks {
		isEndpoint[b.Name] = b.Type == blockEndpoint
	}
	pending := map[string]int{}
	dependents := map[string][]string{}
	for _, b := range blocks {
		if b.Type == blockEndpoint {
			continue
		}
		pending[b.Name] = 0
		for _, dep := range b.DependsOn {
			if isEndpoint[dep] {
				continue
			}
			pending[b.Name]++
			dependents[dep] = append(dependents[dep], b.Name)
		}
	}
	var order, ready []string
	for _, b := range blocks {
		if n, ok := pending[b.Name]; ok && n == 0 {
			ready = append(ready, b.Name)
		}
	}
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, d := range dependents[name] {
			pending[d]--
			if pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	if len(order) != len(pending) {
		return nil, errors.New("blocks form a cycle that does not go through an endpoint")
	}
	return order, nil
}

// Loop holds the loop config.
type Loop struct {
	stepMu                  sync.Mutex
	mu                      sync.Mutex
	cfg                     Config
	blocks                  map[string]Block
	order                   []string
	endpoints               []string
	logger                  logging.Logger
	clock                   clock.Clock
	dt                      time.Duration
	activeBackgroundWorkers sync.WaitGroup
	cancelCtx               context.Context
	cancel                  context.CancelFunc
	running                 bool
}

// NewLoop construct a new control loop for a specific endpoint.
func NewLoop(logger logging.Logger, cfg Config, m Controllable) (*Loop, error) {
	return createLoop(logger, cfg, m, clock.New())
}

func createLoop(logger logging.Logger, cfg Config, m Controllable, clk clock.Clock) (*Loop, error) {
	if err := cfg.Validate("control"); err != nil {
		return nil, err
	}
	order, err := evaluationOrder(cfg.Blocks)
	if err != nil {
		return nil, err
	}
	l := &Loop{
		logger: logger,
		cfg:    cfg,
		blocks: make(map[string]Block),
		order:  order,
		clock:  clk,
		dt:     time.Duration(float64(time.Second) / cfg.Frequency),
	}
	for _, bcfg := range cfg.Blocks {
		var blk Block
		if bcfg.Type == blockEndpoint {
			blk, err = newEndpoint(bcfg, logger.Sublogger(bcfg.Name), m)
			l.endpoints = append(l.endpoints, bcfg.Name)
		} else {
			blk, err = createBlock(bcfg, logger.Sublogger(bcfg.Name))
		}
		if err != nil {
			return nil, err
		}
		l.blocks[bcfg.Name] = blk
	}
	return l, nil
}

func (l *Loop) inputs(ctx context.Context, name string, outputs map[string][]*Signal) []*Signal {
	var x []*Signal
	for _, dep := range l.blocks[name].Config(ctx).DependsOn {
		x = append(x, outputs[dep]...)
	}
	return x
}

// Step runs one tick of the loop: endpoints are read, every other block is evaluated once, then
// endpoints with inputs are commanded.
func (l *Loop) Step(ctx context.Context) error {
	l.stepMu.Lock()
	defer l.stepMu.Unlock()
	outputs := make(map[string][]*Signal, len(l.blocks))
	for _, name := range l.endpoints {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		y, ok := l.blocks[name].Next(ctx, nil, l.dt)
		if !ok {
			l.logger.CDebugw(ctx, "endpoint not ready", "block", name)
		}
		outputs[name] = y
	}
	for _, name := range l.order {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		y, ok := l.blocks[name].Next(ctx, l.inputs(ctx, name, outputs), l.dt)
		if !ok {
			l.logger.CDebugw(ctx, "block output not updated", "block", name)
		}
		outputs[name] = y
	}
	for _, name := range l.endpoints {
		x := l.inputs(ctx, name, outputs)
		if len(x) == 0 {
			continue
		}
		if _, ok := l.blocks[name].Next(ctx, x, l.dt); !ok {
			l.logger.CDebugw(ctx, "endpoint not commanded", "block", name)
		}
	}
	return nil
}

// OutputAt returns the Signal at the block name, error when the block doesn't exist.
func (l *Loop) OutputAt(ctx context.Context, name string) ([]*Signal, error) {
	blk, ok := l.blocks[name]
	if !ok {
		return []*Signal{}, errors.Errorf("cannot return Signals for non existing block %s", name)
	}
	return blk.Output(ctx), nil
}

// ConfigAt returns the Config at the block name, error when the block doesn't exist.
func (l *Loop) ConfigAt(ctx context.Context, name string) (BlockConfig, error) {
	blk, ok := l.blocks[name]
	if !ok {
		return BlockConfig{}, errors.Errorf("cannot return Config for non existing block %s", name)
	}
	return blk.Config(ctx), nil
}

// SetConfigAt updates the config of the block name, error when the block doesn't exist. The name,
// type and inputs of a block cannot change while the loop exists.
func (l *Loop) SetConfigAt(ctx context.Context, name string, config BlockConfig) error {
	blk, ok := l.blocks[name]
	if !ok {
		return errors.Errorf("cannot set Config for non existing block %s", name)
	}
	old := blk.Config(ctx)
	if config.Name != old.Name || config.Type != old.Type || !sameInputs(config.DependsOn, old.DependsOn) {
		return errors.Errorf("cannot change the name, type or inputs of block %s", name)
	}
	return blk.UpdateConfig(ctx, config)
}

func sameInputs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BlockList returns the names of the blocks in the order they were configured.
func (l *Loop) BlockList(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(l.cfg.Blocks))
	for _, b := range l.cfg.Blocks {
		out = append(out, b.Name)
	}
	return out, nil
}

// Frequency returns the loop's frequency.
func (l *Loop) Frequency(ctx context.Context) (float64, error) {
	return l.cfg.Frequency, nil
}

// Start starts the loop.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("control loop already running")
	}
	l.logger.Infof("running loop at %1.4f Hz, period %v", l.cfg.Frequency, l.dt)
	l.cancelCtx, l.cancel = context.WithCancel(context.Background())
	ticker := l.clock.Ticker(l.dt)
	ctx := l.cancelCtx
	l.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Step(ctx); err != nil {
					return
				}
			}
		}
	}, l.activeBackgroundWorkers.Done)
	l.running = true
	return nil
}

// Stop stops the loop and waits for the last tick to finish.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		l.logger.Debug("closing loop")
		l.cancel()
		l.activeBackgroundWorkers.Wait()
		l.running = false
	}
}

// GetConfig return the control loop config.
func (l *Loop) GetConfig(ctx context.Context) Config {
	return l.cfg
}

// UpdateConstantBlock changes the value of the constant block name.
func UpdateConstantBlock(ctx context.Context, name string, constVal float64, loop *Loop) error {
	cfg, err := loop.ConfigAt(ctx, name)
	if err != nil {
		return err
	}
	if cfg.Type != blockConstant {
		return errors.Errorf("block %s is a %s block not a constant block", name, cfg.Type)
	}
	cfg.Attribute = cfg.Attribute.Copy()
	cfg.Attribute["constant_val"] = constVal
	return loop.SetConfigAt(ctx, name, cfg)
}

// UpdateTrajectoryBlock changes the limits of the trajectory block name. A zero maxJerk plans
// acceleration limited moves. The new limits apply from the next move.
func UpdateTrajectoryBlock(ctx context.Context, name string, maxVel, maxAcc, maxJerk float64, loop *Loop) error {
	cfg, err := loop.ConfigAt(ctx, name)
	if err != nil {
		return err
	}
	if cfg.Type != blockTrajectory {
		return errors.Errorf("block %s is a %s block not a trajectory block", name, cfg.Type)
	}
	cfg.Attribute = cfg.Attribute.Copy()
	cfg.Attribute["max_vel"] = maxVel
	cfg.Attribute["max_acc"] = maxAcc
	if maxJerk == 0 {
		delete(cfg.Attribute, "max_jerk")
	} else {
		cfg.Attribute["max_jerk"] = maxJerk
	}
	return loop.SetConfigAt(ctx, name, cfg)
}

// StopTrajectoryBlock brings the reference of the trajectory block name to rest as quickly as
// its limits allow.
func StopTrajectoryBlock(ctx context.Context, name string, loop *Loop) error {
	blk, ok := loop.blocks[name]
	if !ok {
		return errors.Errorf("cannot stop non existing block %s", name)
	}
	tp, err := utils.AssertType[*trajectoryProfile](blk)
	if err != nil {
		return errors.Wrapf(err, "cannot stop block %s", name)
	}
	return tp.stop()
}
