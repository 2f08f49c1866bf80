// Package attractor holds the attraction points that pull the growing
// structure and their connect lifecycle.
package attractor

import (
	"errors"
	"fmt"
	"iter"

	"github.com/sanonone/spacecol/pkg/core/geom"
)

var (
	// ErrDistanceOrder is returned for an attractor whose connect distance
	// exceeds its attract distance.
	ErrDistanceOrder = errors.New("connect distance greater than attract distance")
	// ErrConnectDistance is returned for a non-positive connect distance.
	ErrConnectDistance = errors.New("connect distance must be positive")
	// ErrStrength is returned for a non-positive strength.
	ErrStrength = errors.New("strength must be positive")
)

// ActionKind selects what happens to an attractor once a node reaches it.
type ActionKind uint8

const (
	// Kill removes the attractor from the pool.
	Kill ActionKind = iota
	// Disable suspends the attractor for a number of iterations.
	Disable
)

func (k ActionKind) String() string {
	switch k {
	case Kill:
		return "kill"
	case Disable:
		return "disable"
	default:
		return "unknown"
	}
}

// ConnectAction is the behavior of an attractor on connect.
type ConnectAction struct {
	Kind       ActionKind
	Iterations uint64 // only meaningful for Disable
}

// KillAttractor returns the action removing the attractor on connect.
func KillAttractor() ConnectAction { return ConnectAction{Kind: Kill} }

// DisableFor returns the action suspending the attractor for n iterations.
func DisableFor(n uint64) ConnectAction { return ConnectAction{Kind: Disable, Iterations: n} }

func (c ConnectAction) String() string {
	if c.Kind == Disable {
		return fmt.Sprintf("disable(%d)", c.Iterations)
	}
	return c.Kind.String()
}

// Attractor is a point exerting growth pull on nearby nodes.
type Attractor[I any] struct {
	Position geom.Vec
	// AttractDist is the soft radius within which the attractor influences
	// its nearest node.
	AttractDist geom.SqDist
	// ConnectDist is the hard radius within which a node reaches the
	// attractor. Always <= AttractDist.
	ConnectDist geom.SqDist
	Strength    float64
	Information I
	Action      ConnectAction
	// ActiveFrom is the first iteration the attractor takes part in.
	ActiveFrom uint64
}

// Validate checks the distance ordering and numeric preconditions.
func (a Attractor[I]) Validate() error {
	if a.ConnectDist <= 0 {
		return fmt.Errorf("%w (got %g)", ErrConnectDistance, float64(a.ConnectDist))
	}
	if a.ConnectDist > a.AttractDist {
		return fmt.Errorf("%w (connect %g > attract %g)", ErrDistanceOrder, a.ConnectDist.Dist(), a.AttractDist.Dist())
	}
	if a.Strength <= 0 {
		return fmt.Errorf("%w (got %g)", ErrStrength, a.Strength)
	}
	return nil
}

// ActiveAt reports whether the attractor participates in the given iteration.
func (a Attractor[I]) ActiveAt(iteration uint64) bool {
	return a.ActiveFrom <= iteration
}

// Pool owns the attractors currently in play.
// Removal reorders the pool; see RemoveUnordered.
type Pool[I any] struct {
	items []Attractor[I]
}

// NewPool creates an empty pool with room for capacity attractors.
func NewPool[I any](capacity int) *Pool[I] {
	return &Pool[I]{items: make([]Attractor[I], 0, capacity)}
}

// Len returns the number of attractors in the pool.
func (p *Pool[I]) Len() int { return len(p.items) }

// Insert appends a after validating it.
func (p *Pool[I]) Insert(a Attractor[I]) error {
	if err := a.Validate(); err != nil {
		return err
	}
	p.items = append(p.items, a)
	return nil
}

// At returns a copy of the attractor at index i.
func (p *Pool[I]) At(i int) Attractor[I] {
	return p.items[p.check(i)]
}

// RemoveUnordered removes the attractor at i by moving the last attractor
// into its slot. A caller scanning by index must look at i again afterwards.
func (p *Pool[I]) RemoveUnordered(i int) {
	last := len(p.items) - 1
	p.items[p.check(i)] = p.items[last]
	var zero Attractor[I]
	p.items[last] = zero
	p.items = p.items[:last]
}

// DisableUntil keeps the attractor at i out of play until iteration.
func (p *Pool[I]) DisableUntil(i int, iteration uint64) {
	p.items[p.check(i)].ActiveFrom = iteration
}

// All yields every attractor in pool order.
func (p *Pool[I]) All() iter.Seq[Attractor[I]] {
	return func(yield func(Attractor[I]) bool) {
		for i := range p.items {
			if !yield(p.items[i]) {
				return
			}
		}
	}
}

// Positions yields the position of every attractor in pool order.
func (p *Pool[I]) Positions() iter.Seq[geom.Vec] {
	return func(yield func(geom.Vec) bool) {
		for i := range p.items {
			if !yield(p.items[i].Position) {
				return
			}
		}
	}
}

func (p *Pool[I]) check(i int) int {
	if i < 0 || i >= len(p.items) {
		panic(fmt.Sprintf("attractor: index %d out of range (len %d)", i, len(p.items)))
	}
	return i
}
