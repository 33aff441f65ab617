package control

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/utils"
)

type controlBlockType string

const (
	blockEndpoint   controlBlockType = "endpoint"
	blockTrajectory controlBlockType = "trajectory"
	blockPID        controlBlockType = "PID"
	blockGain       controlBlockType = "gain"
	blockSum        controlBlockType = "sum"
	blockConstant   controlBlockType = "constant"
)

// BlockConfig configuration of a given block.
type BlockConfig struct {
	Name      string             `json:"name"`       // Control Block name
	Type      controlBlockType   `json:"type"`       // Control Block type
	Attribute utils.AttributeMap `json:"attributes"` // Internal block configuration
	DependsOn []string           `json:"depends_on"` // List of blocks needed for calling Next
}

// Block interface for a control block.
type Block interface {
	// Reset will reset the control block to initial state. Returns an error on failure
	Reset(ctx context.Context) error

	// Next calculate the next output. Takes an array of float64 , a delta time returns True and the output value on success false otherwise
	Next(ctx context.Context, x []*Signal, dt time.Duration) ([]*Signal, bool)

	// UpdateConfig update the configuration of a pre-existing control block returns an error on failure
	UpdateConfig(ctx context.Context, config BlockConfig) error

	// Output returns the most recent valid value, useful for block aggregating signals
	Output(ctx context.Context) []*Signal

	// Config returns the underlying config for a Block
	Config(ctx context.Context) BlockConfig
}

func createBlock(cfg BlockConfig, logger logging.Logger) (Block, error) {
	switch cfg.Type {
	case blockEndpoint:
		return newEndpoint(cfg, logger, nil)
	case blockSum:
		return newSum(cfg, logger)
	case blockTrajectory:
		return newTrajectoryProfile(cfg, logger)
	case blockGain:
		return newGain(cfg, logger)
	case blockPID:
		return newPID(cfg, logger)
	case blockConstant:
		return newConstant(cfg, logger)
	}
	return nil, errors.Errorf("unsupported block type %s", cfg.Type)
}
