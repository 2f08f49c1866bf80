// Package geom provides the vector math used by the growth engine.
//
// Positions live in three dimensional space backed by gonum's r3.Vec. Two
// dimensional simulations keep Z at zero; nothing in the engine depends on the
// dimension, only the seeding and rendering layers care.
//
// All "nearest" comparisons in the engine are made on squared Euclidean
// distances, so radii are configured once as linear distances and stored as
// SqDist values.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a position or direction in simulation space.
type Vec = r3.Vec

// Dim is the dimensionality of a simulation.
type Dim int

const (
	// Dim2 keeps every position on the Z = 0 plane.
	Dim2 Dim = 2
	// Dim3 uses the full space.
	Dim3 Dim = 3
)

// Validate reports whether d is a supported dimensionality.
func (d Dim) Validate() error {
	if d != Dim2 && d != Dim3 {
		return fmt.Errorf("unsupported dimension %d (want 2 or 3)", int(d))
	}
	return nil
}

// Project drops the components that do not exist in d.
func (d Dim) Project(v Vec) Vec {
	if d == Dim2 {
		v.Z = 0
	}
	return v
}

// SqDist is a squared linear distance.
type SqDist float64

// FromDist converts a linear distance into its squared form.
func FromDist(d float64) SqDist {
	return SqDist(d * d)
}

// Dist returns the linear distance represented by s.
func (s SqDist) Dist() float64 {
	return math.Sqrt(float64(s))
}

// SquaredEuclidean returns |a-b|².
func SquaredEuclidean(a, b Vec) float64 {
	return r3.Norm2(r3.Sub(a, b))
}

// Direction returns the unit vector pointing from "from" to "to".
// The boolean is false when the two points coincide and no direction exists.
func Direction(from, to Vec) (Vec, bool) {
	return Unit(r3.Sub(to, from))
}

// Unit normalizes v. The boolean is false for the zero vector, which has no
// direction; callers must not use the returned value in that case.
func Unit(v Vec) (Vec, bool) {
	if r3.Norm2(v) == 0 {
		return Vec{}, false
	}
	return r3.Unit(v), true
}

// Add returns a+b.
func Add(a, b Vec) Vec { return r3.Add(a, b) }

// Scale returns v scaled by f.
func Scale(f float64, v Vec) Vec { return r3.Scale(f, v) }

// Norm returns the length of v.
func Norm(v Vec) float64 { return r3.Norm(v) }
