package metaball

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

type sphere struct {
	c ms3.Vec
	r float32
}

// Sphere returns the signed distance field of a sphere.
func Sphere(center ms3.Vec, radius float32) (BoundedField, error) {
	if radius <= 0 || math32.IsNaN(radius) || math32.IsInf(radius, 0) {
		return nil, errors.New("invalid sphere radius")
	}
	return &sphere{c: center, r: radius}, nil
}

func (s *sphere) Sample(p ms3.Vec, _ any) float32 {
	return ms3.Norm(ms3.Sub(p, s.c)) - s.r
}

func (s *sphere) Bounds() ms3.Box {
	r := ms3.Vec{X: s.r, Y: s.r, Z: s.r}
	return ms3.Box{Min: ms3.Sub(s.c, r), Max: ms3.Add(s.c, r)}
}

// Ball is a single sphere of a metaball set.
type Ball struct {
	Center ms3.Vec
	Radius float32
}

// Balls is a set of spheres whose distance fields are blended together
// with a MinFunc. Moving the balls between renders animates the surface.
// Balls is safe for concurrent calls to Sample as long as no ball is
// being modified at the same time.
type Balls struct {
	balls []Ball
	min   MinFunc
	bb    ms3.Box
}

// NewBalls returns a metaball field. A nil min selects the hard union Min.
func NewBalls(min MinFunc, balls ...Ball) (*Balls, error) {
	if len(balls) == 0 {
		return nil, errors.New("need at least one ball")
	}
	for i, b := range balls {
		if b.Radius <= 0 || math32.IsNaN(b.Radius) || math32.IsInf(b.Radius, 0) {
			return nil, fmt.Errorf("ball %d: invalid radius %v", i, b.Radius)
		}
	}
	if min == nil {
		min = Min
	}
	s := &Balls{
		balls: append([]Ball(nil), balls...),
		min:   min,
	}
	s.bb = s.bounds()
	return s, nil
}

// Sample returns the blended distance to the ball set.
func (s *Balls) Sample(p ms3.Vec, _ any) float32 {
	d := ms3.Norm(ms3.Sub(p, s.balls[0].Center)) - s.balls[0].Radius
	for _, b := range s.balls[1:] {
		d = s.min(d, ms3.Norm(ms3.Sub(p, b.Center))-b.Radius)
	}
	return d
}

// Bounds returns the box containing all balls. Smooth blending
// may grow the surface slightly past the individual spheres.
func (s *Balls) Bounds() ms3.Box { return s.bb }

// Len returns the number of balls in the set.
func (s *Balls) Len() int { return len(s.balls) }

// Ball returns the i'th ball.
func (s *Balls) Ball(i int) Ball { return s.balls[i] }

// SetCenter moves the i'th ball.
func (s *Balls) SetCenter(i int, c ms3.Vec) {
	s.balls[i].Center = c
	s.bb = s.bounds()
}

func (s *Balls) bounds() ms3.Box {
	var bb ms3.Box
	for i, b := range s.balls {
		r := ms3.Vec{X: b.Radius, Y: b.Radius, Z: b.Radius}
		bball := ms3.Box{Min: ms3.Sub(b.Center, r), Max: ms3.Add(b.Center, r)}
		if i == 0 {
			bb = bball
			continue
		}
		bb = ms3.Box{Min: ms3.MinElem(bb.Min, bball.Min), Max: ms3.MaxElem(bb.Max, bball.Max)}
	}
	return bb
}
