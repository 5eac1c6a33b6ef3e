package render_test

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/deadsy/sdfx/sdf"
	sdfxrender "github.com/deadsy/sdfx/render"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball"
	"github.com/soypat/metaball/render"
)

const benchCells = 32

// sdfxCenter is off the grid lattice so no sample lands exactly on the surface.
var sdfxCenter = v3.Vec{X: 2.03, Y: 1.98, Z: 2.01}

const sdfxRadius = 1.5

func sdfxSphere(t testing.TB) sdf.SDF3 {
	s, err := sdf.Sphere3D(sdfxRadius)
	if err != nil {
		t.Fatal(err)
	}
	return sdf.Transform3D(s, sdf.Translate3d(sdfxCenter))
}

// TestSDFXAgreement meshes the same sdfx solid with both renderers and
// compares enclosed volume and extents.
func TestSDFXAgreement(t *testing.T) {
	s := sdfxSphere(t)
	field := metaball.FromSDFX(s)
	m := meshOf(t, field, render.Grid{Size: ms3.Vec{X: 4, Y: 4, Z: 4}, Scale: 0.25})
	if m.NumIndices == 0 {
		t.Fatal("empty mesh")
	}
	center := ms3.Vec{X: float32(sdfxCenter.X), Y: float32(sdfxCenter.Y), Z: float32(sdfxCenter.Z)}
	for _, v := range m.VertexData() {
		r := ms3.Norm(ms3.Sub(v.Position, center))
		if math32.Abs(r-sdfxRadius) > 0.02 {
			t.Fatalf("vertex %v at distance %v from center", v.Position, r)
		}
	}
	checkClosed(t, m)

	sdfxTris := sdfxrender.ToTriangles(s, sdfxrender.NewMarchingCubesUniform(benchCells))
	if len(sdfxTris) == 0 {
		t.Fatal("sdfx produced no triangles")
	}
	var sdfxVol float64
	sdfxMin := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	sdfxMax := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, tri := range sdfxTris {
		sdfxVol += tri[0].Dot(tri[1].Cross(tri[2])) / 6
		for _, v := range tri {
			sdfxMin = sdfxMin.Min(v)
			sdfxMax = sdfxMax.Max(v)
		}
	}
	sdfxVol = math.Abs(sdfxVol)

	vol := meshVolume(m, center)
	exact := 4. / 3 * math.Pi * sdfxRadius * sdfxRadius * sdfxRadius
	if math.Abs(vol-exact) > 0.04*exact {
		t.Errorf("mesh volume %v, sphere volume %v", vol, exact)
	}
	if math.Abs(vol-sdfxVol) > 0.04*sdfxVol {
		t.Errorf("mesh volume %v differs from sdfx volume %v", vol, sdfxVol)
	}

	bb := ms3.Box{Min: m.Vertices[0].Position, Max: m.Vertices[0].Position}
	for _, v := range m.VertexData() {
		bb.Min = ms3.MinElem(bb.Min, v.Position)
		bb.Max = ms3.MaxElem(bb.Max, v.Position)
	}
	const boxTol = 0.05
	for _, pair := range [][2]float64{
		{float64(bb.Min.X), sdfxMin.X}, {float64(bb.Min.Y), sdfxMin.Y}, {float64(bb.Min.Z), sdfxMin.Z},
		{float64(bb.Max.X), sdfxMax.X}, {float64(bb.Max.Y), sdfxMax.Y}, {float64(bb.Max.Z), sdfxMax.Z},
	} {
		if math.Abs(pair[0]-pair[1]) > boxTol {
			t.Errorf("mesh bounds %+v differ from sdfx bounds %v %v", bb, sdfxMin, sdfxMax)
			break
		}
	}
}

func BenchmarkSDFXSphere(b *testing.B) {
	s := sdfxSphere(b)
	r := sdfxrender.NewMarchingCubesUniform(benchCells)
	for i := 0; i < b.N; i++ {
		sdfxrender.ToTriangles(s, r)
	}
}

func BenchmarkSphere(b *testing.B) {
	field := metaball.FromSDFX(sdfxSphere(b))
	bb := field.Bounds()
	size := ms3.Sub(bb.Max, bb.Min)
	scale := math32.Max(size.X, math32.Max(size.Y, size.Z)) / benchCells
	g := render.Grid{Size: ms3.Add(bb.Max, ms3.Vec{X: scale, Y: scale, Z: scale}), Scale: scale}
	m := render.NewMeshBuffer(1<<16, 1<<18)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := render.GenerateMeshParallel(m, field, nil, g, 0); err != nil {
			b.Fatal(err)
		}
	}
}
