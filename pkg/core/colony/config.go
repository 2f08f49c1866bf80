package colony

import (
	"errors"
	"fmt"

	"github.com/sanonone/spacecol/pkg/core/attractor"
	"github.com/sanonone/spacecol/pkg/core/geom"
)

// ErrInvalidConfig wraps every configuration rejected by New.
var ErrInvalidConfig = errors.New("invalid colony config")

// Config holds the engine parameters and the defaults used by
// InsertDefaultAttractor.
type Config struct {
	// AttractDist is the default influence radius (squared).
	AttractDist geom.SqDist
	// ConnectDist is the default connect radius (squared).
	ConnectDist geom.SqDist
	// Strength is the default attractor strength.
	Strength float64
	// Action is the default connect action.
	Action attractor.ConnectAction

	// MoveDistance is the length of every new segment.
	MoveDistance float64

	// EnforceLimits restricts growth to nodes with Length < MaxLength and
	// Branches < MaxBranches. When false both limits are ignored.
	EnforceLimits bool
	MaxLength     uint32
	MaxBranches   uint32

	// UseLastNodes restricts the nearest node search to the most recently
	// created nodes. 0 searches the whole arena.
	UseLastNodes int
}

// DefaultConfig mirrors the defaults of the command line tool.
//
//   - influence radius 0.25, connect (kill) distance 0.1
//   - move distance 0.05
//   - max length 100, max branches 10, limits enforced
func DefaultConfig() Config {
	return Config{
		AttractDist:   geom.FromDist(0.25),
		ConnectDist:   geom.FromDist(0.1),
		Strength:      1.0,
		Action:        attractor.KillAttractor(),
		MoveDistance:  0.05,
		EnforceLimits: true,
		MaxLength:     100,
		MaxBranches:   10,
	}
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	if c.ConnectDist <= 0 {
		return fmt.Errorf("%w: connect distance must be positive", ErrInvalidConfig)
	}
	if c.ConnectDist > c.AttractDist {
		return fmt.Errorf("%w: connect distance %g exceeds attract distance %g",
			ErrInvalidConfig, c.ConnectDist.Dist(), c.AttractDist.Dist())
	}
	if c.Strength <= 0 {
		return fmt.Errorf("%w: strength must be positive", ErrInvalidConfig)
	}
	if c.MoveDistance <= 0 {
		return fmt.Errorf("%w: move distance must be positive", ErrInvalidConfig)
	}
	if c.Action.Kind != attractor.Kill && c.Action.Kind != attractor.Disable {
		return fmt.Errorf("%w: unknown connect action %d", ErrInvalidConfig, c.Action.Kind)
	}
	if c.EnforceLimits && (c.MaxLength == 0 || c.MaxBranches == 0) {
		return fmt.Errorf("%w: max length and max branches must be positive when limits are enforced", ErrInvalidConfig)
	}
	if c.UseLastNodes < 0 {
		return fmt.Errorf("%w: use-last-nodes must not be negative", ErrInvalidConfig)
	}
	return nil
}
