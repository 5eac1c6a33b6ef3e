package metaball

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/geometry/ms3"
)

type sdfxField struct {
	s sdf.SDF3
}

// FromSDFX adapts a github.com/deadsy/sdfx solid to a BoundedField so
// sdfx CAD shapes can be meshed by this module's renderers.
func FromSDFX(s sdf.SDF3) BoundedField {
	if s == nil {
		panic("nil sdfx SDF3 argument")
	}
	return sdfxField{s: s}
}

func (f sdfxField) Sample(p ms3.Vec, _ any) float32 {
	return float32(f.s.Evaluate(v3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}))
}

func (f sdfxField) Bounds() ms3.Box {
	bb := f.s.BoundingBox()
	return ms3.Box{
		Min: ms3.Vec{X: float32(bb.Min.X), Y: float32(bb.Min.Y), Z: float32(bb.Min.Z)},
		Max: ms3.Vec{X: float32(bb.Max.X), Y: float32(bb.Max.Y), Z: float32(bb.Max.Z)},
	}
}
