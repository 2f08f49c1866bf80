package seed

import (
	"math"
	"testing"

	"github.com/sanonone/spacecol/pkg/core/geom"
	"github.com/stretchr/testify/assert"
)

func TestPointBounds(t *testing.T) {
	for _, dim := range []geom.Dim{geom.Dim2, geom.Dim3} {
		s := New(dim, 7)
		sawZ := false
		for _, p := range s.Points(500) {
			for _, c := range []float64{p.X, p.Y, p.Z} {
				assert.LessOrEqual(t, math.Abs(c), 1.0)
			}
			if p.Z != 0 {
				sawZ = true
			}
		}
		assert.Equal(t, dim == geom.Dim3, sawZ, "dim %d", dim)
	}
}

func TestDeterministic(t *testing.T) {
	a := New(geom.Dim3, 42).Points(10)
	b := New(geom.Dim3, 42).Points(10)
	c := New(geom.Dim3, 43).Points(10)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestAround(t *testing.T) {
	s := New(geom.Dim2, 3)
	center := geom.Vec{X: 0.5, Y: -0.5}
	for i := 0; i < 200; i++ {
		p := s.Around(center, 0.1)
		assert.LessOrEqual(t, math.Abs(p.X-center.X), 0.1+1e-12)
		assert.LessOrEqual(t, math.Abs(p.Y-center.Y), 0.1+1e-12)
		assert.Equal(t, 0.0, p.Z)
	}
}
