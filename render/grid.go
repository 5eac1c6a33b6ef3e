package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball"
)

// gridStart is the first cube origin on every axis. Starting one unit below
// zero closes surfaces that touch the field's minimum boundary.
const gridStart = -1

// maxAxisCubes bounds the cube count per axis so float32 stepping cannot stall.
const maxAxisCubes = 1 << 20

// maxGridCubes bounds the total cube count so capacity bounds fit in an int.
const maxGridCubes = 1 << 26

// ErrBadGrid is returned for grids that cannot be scanned.
var ErrBadGrid = errors.New("bad grid")

// Grid is a regular lattice of cubes. Cube origins run from -1 up to,
// but excluding, Size on each axis in steps of Scale.
type Grid struct {
	// Size is the exclusive upper bound of the cube origins per axis.
	Size ms3.Vec
	// Scale is the cube edge length.
	Scale float32
}

// Validate checks the grid can be scanned.
func (g Grid) Validate() error {
	if !(g.Scale > 0) || math32.IsInf(g.Scale, 0) {
		return fmt.Errorf("%w: scale %v must be positive and finite", ErrBadGrid, g.Scale)
	}
	total := 1.0
	for _, end := range [3]float32{g.Size.X, g.Size.Y, g.Size.Z} {
		switch {
		case !(end > 0) || math32.IsInf(end, 0):
			return fmt.Errorf("%w: size %v must be positive and finite", ErrBadGrid, g.Size)
		case (end-gridStart)/g.Scale > maxAxisCubes:
			return fmt.Errorf("%w: scale %v too fine for size %v", ErrBadGrid, g.Scale, g.Size)
		}
		total *= math.Ceil(float64(end-gridStart) / float64(g.Scale))
	}
	if total > maxGridCubes {
		return fmt.Errorf("%w: %.0f cubes exceed limit of %d", ErrBadGrid, total, maxGridCubes)
	}
	return nil
}

// Cubes returns the number of cubes along each axis.
func (g Grid) Cubes() (nx, ny, nz int) {
	return len(axisOrigins(g.Size.X, g.Scale)), len(axisOrigins(g.Size.Y, g.Scale)), len(axisOrigins(g.Size.Z, g.Scale))
}

// MaxVertices returns the vertex capacity that can never overflow for this grid.
func (g Grid) MaxVertices() int {
	return g.cubeCount() * mcMaxVertices
}

// MaxIndices returns the index capacity that can never overflow for this grid.
func (g Grid) MaxIndices() int {
	return g.cubeCount() * mcMaxIndices
}

// cubeCount returns the total cube count, saturated at maxGridCubes.
func (g Grid) cubeCount() int {
	nx, ny, nz := g.Cubes()
	return int(min(float64(nx)*float64(ny)*float64(nz), maxGridCubes))
}

// axisOrigins returns the cube origins along one axis. Origins are built by
// repeated addition so that origin[i+1] == origin[i]+scale bit for bit.
func axisOrigins(end, scale float32) []float32 {
	var origins []float32
	for v := float32(gridStart); v < end; {
		origins = append(origins, v)
		next := v + scale
		if next <= v {
			break // Scale below float32 resolution.
		}
		v = next
	}
	return origins
}

// scanner walks a grid sampling cube corners. Along x the four samples of a
// cube's leading face are kept as the trailing face of the next cube, so a
// scan line of n cubes costs 4+4n field evaluations.
type scanner struct {
	field    metaball.ScalarField
	userData any
	scale    float32
	xs, ys   []float32
	zs       []float32
}

func newScanner(field metaball.ScalarField, userData any, g Grid) *scanner {
	return &scanner{
		field:    field,
		userData: userData,
		scale:    g.Scale,
		xs:       axisOrigins(g.Size.X, g.Scale),
		ys:       axisOrigins(g.Size.Y, g.Scale),
		zs:       axisOrigins(g.Size.Z, g.Scale),
	}
}

// cubeFunc receives a cube origin and its corner samples in corner order.
// values is reused between calls.
type cubeFunc func(origin ms3.Vec, values *[8]float32) error

// scan visits every cube with a z origin in zs, z slowest and x fastest.
// It stops at the first error returned by fn.
func (s *scanner) scan(zs []float32, fn cubeFunc) error {
	if len(s.xs) == 0 {
		return nil
	}
	var values [8]float32
	for _, z := range zs {
		Z := z + s.scale
		for _, y := range s.ys {
			Y := y + s.scale
			x0 := s.xs[0]
			values[0] = s.sample(x0, y, z)
			values[2] = s.sample(x0, Y, z)
			values[4] = s.sample(x0, y, Z)
			values[6] = s.sample(x0, Y, Z)
			for _, x := range s.xs {
				X := x + s.scale
				values[1] = s.sample(X, y, z)
				values[3] = s.sample(X, Y, z)
				values[5] = s.sample(X, y, Z)
				values[7] = s.sample(X, Y, Z)
				if err := fn(ms3.Vec{X: x, Y: y, Z: z}, &values); err != nil {
					return err
				}
				values[0], values[2], values[4], values[6] = values[1], values[3], values[5], values[7]
			}
		}
	}
	return nil
}

func (s *scanner) sample(x, y, z float32) float32 {
	return s.field.Sample(ms3.Vec{X: x, Y: y, Z: z}, s.userData)
}
