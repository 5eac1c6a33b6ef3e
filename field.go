package metaball

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// 3D scalar field utility functions.

// ScalarField is the interface to a 3D implicit scalar field. The zero
// level-set of the field is the surface extracted by the renderers.
type ScalarField interface {
	// Sample returns the field value at pos. The value is negative
	// if pos is contained within the surface. userData is passed through
	// untouched by the renderers and may hold any context the field needs.
	Sample(pos ms3.Vec, userData any) float32
}

// BoundedField is a ScalarField that knows the region its surface lies within.
type BoundedField interface {
	ScalarField
	// Bounds returns the bounding box that completely contains
	// the field's zero level-set.
	Bounds() ms3.Box
}

// FieldFunc adapts an ordinary function to the ScalarField interface.
type FieldFunc func(pos ms3.Vec, userData any) float32

// Sample calls f(pos, userData).
func (f FieldFunc) Sample(pos ms3.Vec, userData any) float32 { return f(pos, userData) }

type constant float32

// Constant returns a field that evaluates to v everywhere. A positive
// constant field has no surface.
func Constant(v float32) ScalarField { return constant(v) }

func (c constant) Sample(ms3.Vec, any) float32 { return float32(c) }

type plane struct {
	n      ms3.Vec
	offset float32
}

// Plane returns the signed distance field of the plane dot(p, normal) = offset.
// Points on the side normal points to are outside. normal need not be unit length.
func Plane(normal ms3.Vec, offset float32) (ScalarField, error) {
	l := ms3.Norm(normal)
	if l == 0 || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return nil, errors.New("bad plane normal")
	}
	return &plane{n: ms3.Scale(1/l, normal), offset: offset}, nil
}

func (s *plane) Sample(p ms3.Vec, _ any) float32 {
	return ms3.Dot(p, s.n) - s.offset
}

// Gradient returns the gradient of the field at p, computed by central
// differences inside a box of side 2*eps centered on p. The result is not
// normalized.
func Gradient(f ScalarField, p ms3.Vec, eps float32, userData any) ms3.Vec {
	return ms3.Vec{
		X: f.Sample(ms3.Add(p, ms3.Vec{X: eps}), userData) - f.Sample(ms3.Add(p, ms3.Vec{X: -eps}), userData),
		Y: f.Sample(ms3.Add(p, ms3.Vec{Y: eps}), userData) - f.Sample(ms3.Add(p, ms3.Vec{Y: -eps}), userData),
		Z: f.Sample(ms3.Add(p, ms3.Vec{Z: eps}), userData) - f.Sample(ms3.Add(p, ms3.Vec{Z: -eps}), userData),
	}
}

// Normal returns the unit normal of the field at p (p need not be on the surface).
// A zero vector is returned where the gradient vanishes.
func Normal(f ScalarField, p ms3.Vec, eps float32, userData any) ms3.Vec {
	g := Gradient(f, p, eps, userData)
	if ms3.Norm(g) == 0 {
		return ms3.Vec{}
	}
	return ms3.Unit(g)
}
