package metaball

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// Heightmap is a terrain field: negative below the height surface and
// positive above it. Heights are stored row-major over a regular XY grid
// with the first sample at the origin.
type Heightmap struct {
	heights []float32
	nx, ny  int
	spacing ms2.Vec
	zmin    float32
	zmax    float32
}

// NewHeightmap returns a heightmap over nx*ny samples. heights[j*nx+i] is the
// height at (i*spacing.X, j*spacing.Y).
func NewHeightmap(heights []float32, nx, ny int, spacing ms2.Vec) (*Heightmap, error) {
	switch {
	case nx < 2 || ny < 2:
		return nil, errors.New("heightmap needs at least 2x2 samples")
	case len(heights) != nx*ny:
		return nil, fmt.Errorf("heightmap data length %d does not match %dx%d", len(heights), nx, ny)
	case spacing.X <= 0 || spacing.Y <= 0:
		return nil, errors.New("heightmap spacing must be positive")
	}
	h := &Heightmap{
		heights: append([]float32(nil), heights...),
		nx:      nx,
		ny:      ny,
		spacing: spacing,
		zmin:    heights[0],
		zmax:    heights[0],
	}
	for _, z := range heights[1:] {
		h.zmin = math32.Min(h.zmin, z)
		h.zmax = math32.Max(h.zmax, z)
	}
	return h, nil
}

// NewHeightmapFromImage resamples img to nx*ny pixels and uses pixel luminance
// in [0, zScale] as height. Image rows grow downwards so the last image row
// becomes the y=0 row of the heightmap.
func NewHeightmapFromImage(img image.Image, nx, ny int, spacing ms2.Vec, zScale float32) (*Heightmap, error) {
	if img == nil {
		return nil, errors.New("nil heightmap image")
	}
	if nx < 2 || ny < 2 {
		return nil, errors.New("heightmap needs at least 2x2 samples")
	}
	scaled := resize.Resize(uint(nx), uint(ny), img, resize.Bilinear)
	bounds := scaled.Bounds()
	heights := make([]float32, nx*ny)
	for j := 0; j < ny; j++ {
		py := bounds.Max.Y - 1 - j
		for i := 0; i < nx; i++ {
			g := color.Gray16Model.Convert(scaled.At(bounds.Min.X+i, py)).(color.Gray16)
			heights[j*nx+i] = zScale * float32(g.Y) / 0xffff
		}
	}
	return NewHeightmap(heights, nx, ny, spacing)
}

// Height returns the bilinearly interpolated height at (x, y). Points outside
// the sampled area take the height of the nearest border.
func (h *Heightmap) Height(x, y float32) float32 {
	fx := Clamp(x/h.spacing.X, 0, float32(h.nx-1))
	fy := Clamp(y/h.spacing.Y, 0, float32(h.ny-1))
	i0 := min(int(fx), h.nx-2)
	j0 := min(int(fy), h.ny-2)
	tx := fx - float32(i0)
	ty := fy - float32(j0)
	z00 := h.heights[j0*h.nx+i0]
	z10 := h.heights[j0*h.nx+i0+1]
	z01 := h.heights[(j0+1)*h.nx+i0]
	z11 := h.heights[(j0+1)*h.nx+i0+1]
	return Mix(Mix(z00, z10, tx), Mix(z01, z11, tx), ty)
}

// Sample returns the vertical distance of p above the terrain.
func (h *Heightmap) Sample(p ms3.Vec, _ any) float32 {
	return p.Z - h.Height(p.X, p.Y)
}

// Bounds returns the box spanning the sampled area and height range.
func (h *Heightmap) Bounds() ms3.Box {
	return ms3.Box{
		Min: ms3.Vec{Z: h.zmin},
		Max: ms3.Vec{
			X: float32(h.nx-1) * h.spacing.X,
			Y: float32(h.ny-1) * h.spacing.Y,
			Z: h.zmax,
		},
	}
}
