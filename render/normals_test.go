package render_test

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball"
	"github.com/soypat/metaball/render"
)

func TestFaceNormalsSphere(t *testing.T) {
	m := meshOf(t, newSphere(t), sphereGrid)
	for _, v := range m.VertexData() {
		want := ms3.Unit(ms3.Sub(v.Position, sphereCenter))
		if ms3.Dot(v.Normal, want) < 0.7 {
			t.Errorf("vertex %v: face normal %v far from radial %v", v.Position, v.Normal, want)
		}
	}
}

func TestGradientNormals(t *testing.T) {
	s := newSphere(t)
	m := meshOf(t, s, sphereGrid, render.WithPostProcess(render.GradientNormals{Field: s}))
	for _, v := range m.VertexData() {
		want := ms3.Unit(ms3.Sub(v.Position, sphereCenter))
		if !vecWithin(v.Normal, want, 1e-2) {
			t.Errorf("vertex %v: gradient normal %v, want %v", v.Position, v.Normal, want)
		}
		if math32.Abs(ms3.Norm(v.Normal)-1) > 1e-4 {
			t.Errorf("normal %v not unit length", v.Normal)
		}
	}
	err := render.GradientNormals{}.Process(m.VertexData(), m.IndexData())
	if err == nil {
		t.Error("want error for nil field")
	}
}

func TestTangents(t *testing.T) {
	plane, err := metaball.Plane(ms3.Vec{Z: 1}, 1.3)
	if err != nil {
		t.Fatal(err)
	}
	tangents := &render.Tangents{}
	g := render.Grid{Size: ms3.Vec{X: 4, Y: 4, Z: 4}, Scale: 1}
	m := meshOf(t, plane, g, render.WithPostProcess(render.FaceNormals{}, tangents))
	if len(tangents.Tangents) != m.NumVertices {
		t.Fatalf("got %d tangents for %d vertices", len(tangents.Tangents), m.NumVertices)
	}
	for i, tan := range tangents.Tangents {
		if !vecWithin(tan, ms3.Vec{X: 1}, 1e-4) {
			t.Errorf("vertex %d: tangent %v, want +x", i, tan)
		}
		if d := ms3.Dot(tan, m.Vertices[i].Normal); math32.Abs(d) > 1e-4 {
			t.Errorf("vertex %d: tangent not orthogonal to normal", i)
		}
	}
}

func TestPostProcessBadIndices(t *testing.T) {
	verts := make([]render.Vertex, 3)
	for _, p := range []render.PostProcessor{render.FaceNormals{}, &render.Tangents{}} {
		if err := p.Process(verts, []uint16{0, 1, 3}); err == nil {
			t.Errorf("%T: want error for out of range index", p)
		}
		if err := p.Process(verts, []uint16{0, 1}); err == nil {
			t.Errorf("%T: want error for partial triangle", p)
		}
	}
}
