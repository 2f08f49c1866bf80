// Package seed generates the random initial positions of roots and
// attractors.
//
// All coordinates are drawn uniformly from [-1, 1]. Two dimensional samplers
// always return Z = 0.
package seed

import (
	"math/rand/v2"

	"github.com/sanonone/spacecol/pkg/core/geom"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws positions for a given dimensionality.
type Sampler struct {
	dim   geom.Dim
	coord distuv.Uniform
}

// New returns a deterministic sampler for seed.
func New(dim geom.Dim, seed uint64) *Sampler {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Sampler{
		dim:   dim,
		coord: distuv.Uniform{Min: -1, Max: 1, Src: src},
	}
}

// Dim returns the dimensionality of the sampler.
func (s *Sampler) Dim() geom.Dim { return s.dim }

// Point returns a position in the [-1, 1] square or cube.
func (s *Sampler) Point() geom.Vec {
	v := geom.Vec{X: s.coord.Rand(), Y: s.coord.Rand()}
	if s.dim == geom.Dim3 {
		v.Z = s.coord.Rand()
	}
	return v
}

// Around returns a position offset from center by at most dist along every
// axis.
func (s *Sampler) Around(center geom.Vec, dist float64) geom.Vec {
	return geom.Add(center, geom.Scale(dist, s.Point()))
}

// Points returns n positions.
func (s *Sampler) Points(n int) []geom.Vec {
	pts := make([]geom.Vec, n)
	for i := range pts {
		pts[i] = s.Point()
	}
	return pts
}
