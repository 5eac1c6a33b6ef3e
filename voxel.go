package metaball

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// VoxelGrid is a discrete scalar field sampled on a regular lattice.
// Values between lattice points are trilinearly interpolated and
// positions outside the lattice clamp to the border values.
type VoxelGrid struct {
	data       []float32
	nx, ny, nz int
	origin     ms3.Vec
	spacing    ms3.Vec
}

// NewVoxelGrid returns a voxel grid of nx*ny*nz values stored x-fastest:
// data[(k*ny+j)*nx+i] is the value at origin + (i,j,k)*spacing.
// data is not copied.
func NewVoxelGrid(data []float32, nx, ny, nz int, origin, spacing ms3.Vec) (*VoxelGrid, error) {
	switch {
	case nx < 2 || ny < 2 || nz < 2:
		return nil, errors.New("voxel grid needs at least 2 points per axis")
	case len(data) != nx*ny*nz:
		return nil, fmt.Errorf("voxel data length %d does not match %dx%dx%d", len(data), nx, ny, nz)
	case spacing.X <= 0 || spacing.Y <= 0 || spacing.Z <= 0:
		return nil, errors.New("voxel spacing must be positive")
	}
	return &VoxelGrid{
		data:    data,
		nx:      nx,
		ny:      ny,
		nz:      nz,
		origin:  origin,
		spacing: spacing,
	}, nil
}

// Voxelize bakes field into a new voxel grid with the given lattice.
func Voxelize(field ScalarField, userData any, nx, ny, nz int, origin, spacing ms3.Vec) (*VoxelGrid, error) {
	if nx < 2 || ny < 2 || nz < 2 {
		return nil, errors.New("voxel grid needs at least 2 points per axis")
	}
	data := make([]float32, nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				p := ms3.Add(origin, ms3.MulElem(spacing, ms3.Vec{X: float32(i), Y: float32(j), Z: float32(k)}))
				data[(k*ny+j)*nx+i] = field.Sample(p, userData)
			}
		}
	}
	return NewVoxelGrid(data, nx, ny, nz, origin, spacing)
}

// Dims returns the number of lattice points per axis.
func (v *VoxelGrid) Dims() (nx, ny, nz int) { return v.nx, v.ny, v.nz }

// At returns the lattice value at (i, j, k).
func (v *VoxelGrid) At(i, j, k int) float32 { return v.data[(k*v.ny+j)*v.nx+i] }

// Set sets the lattice value at (i, j, k).
func (v *VoxelGrid) Set(i, j, k int, val float32) { v.data[(k*v.ny+j)*v.nx+i] = val }

// Sample trilinearly interpolates the lattice at p.
func (v *VoxelGrid) Sample(p ms3.Vec, _ any) float32 {
	d := ms3.Sub(p, v.origin)
	f := ms3.Vec{X: d.X / v.spacing.X, Y: d.Y / v.spacing.Y, Z: d.Z / v.spacing.Z}
	i0, tx := cell(f.X, v.nx)
	j0, ty := cell(f.Y, v.ny)
	k0, tz := cell(f.Z, v.nz)
	c00 := Mix(v.At(i0, j0, k0), v.At(i0+1, j0, k0), tx)
	c10 := Mix(v.At(i0, j0+1, k0), v.At(i0+1, j0+1, k0), tx)
	c01 := Mix(v.At(i0, j0, k0+1), v.At(i0+1, j0, k0+1), tx)
	c11 := Mix(v.At(i0, j0+1, k0+1), v.At(i0+1, j0+1, k0+1), tx)
	return Mix(Mix(c00, c10, ty), Mix(c01, c11, ty), tz)
}

// Bounds returns the box spanned by the lattice.
func (v *VoxelGrid) Bounds() ms3.Box {
	ext := ms3.MulElem(v.spacing, ms3.Vec{X: float32(v.nx - 1), Y: float32(v.ny - 1), Z: float32(v.nz - 1)})
	return ms3.Box{Min: v.origin, Max: ms3.Add(v.origin, ext)}
}

// cell returns the lower lattice index and interpolation parameter of
// fractional coordinate f along an axis with n points.
func cell(f float32, n int) (int, float32) {
	f = Clamp(f, 0, float32(n-1))
	i := min(int(f), n-2)
	return i, f - float32(i)
}
