package render

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball"
)

// PostProcessor runs over a completed mesh. vertices and indices are the
// filled ranges of a MeshBuffer.
type PostProcessor interface {
	Process(vertices []Vertex, indices []uint16) error
}

var (
	_ PostProcessor = FaceNormals{}
	_ PostProcessor = GradientNormals{}
	_ PostProcessor = (*Tangents)(nil)
)

// FaceNormals sets each vertex normal to the normalized, area weighted sum of
// the normals of the triangles using it.
type FaceNormals struct{}

func (FaceNormals) Process(vertices []Vertex, indices []uint16) error {
	if err := checkIndices(len(vertices), indices); err != nil {
		return err
	}
	for i := range vertices {
		vertices[i].Normal = ms3.Vec{}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		pa := vertices[a].Position
		n := ms3.Cross(ms3.Sub(vertices[b].Position, pa), ms3.Sub(vertices[c].Position, pa))
		vertices[a].Normal = ms3.Add(vertices[a].Normal, n)
		vertices[b].Normal = ms3.Add(vertices[b].Normal, n)
		vertices[c].Normal = ms3.Add(vertices[c].Normal, n)
	}
	for i := range vertices {
		if ms3.Norm(vertices[i].Normal) > 0 {
			vertices[i].Normal = ms3.Unit(vertices[i].Normal)
		}
	}
	return nil
}

// GradientNormals sets vertex normals from the field gradient. This gives
// smooth shading on unwelded marching cubes output.
type GradientNormals struct {
	Field    metaball.ScalarField
	UserData any
	// Eps is the central difference step. Zero selects 1e-3.
	Eps float32
}

func (g GradientNormals) Process(vertices []Vertex, _ []uint16) error {
	if g.Field == nil {
		return errors.New("gradient normals: nil field")
	}
	eps := g.Eps
	if eps == 0 {
		eps = 1e-3
	}
	for i := range vertices {
		vertices[i].Normal = metaball.Normal(g.Field, vertices[i].Position, eps, g.UserData)
	}
	return nil
}

// Tangents computes per-vertex tangents from positions and texture
// coordinates, orthogonalized against the vertex normals. Normals must be
// generated first. Results are stored in Tangents, one per vertex.
type Tangents struct {
	Tangents []ms3.Vec
}

func (t *Tangents) Process(vertices []Vertex, indices []uint16) error {
	if err := checkIndices(len(vertices), indices); err != nil {
		return err
	}
	if cap(t.Tangents) < len(vertices) {
		t.Tangents = make([]ms3.Vec, len(vertices))
	}
	t.Tangents = t.Tangents[:len(vertices)]
	for i := range t.Tangents {
		t.Tangents[i] = ms3.Vec{}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		va, vb, vc := &vertices[a], &vertices[b], &vertices[c]
		e1 := ms3.Sub(vb.Position, va.Position)
		e2 := ms3.Sub(vc.Position, va.Position)
		du1, dv1 := vb.TexCoord.X-va.TexCoord.X, vb.TexCoord.Y-va.TexCoord.Y
		du2, dv2 := vc.TexCoord.X-va.TexCoord.X, vc.TexCoord.Y-va.TexCoord.Y
		det := du1*dv2 - du2*dv1
		if det == 0 || math32.IsNaN(det) {
			continue // Degenerate mapping, triangle contributes nothing.
		}
		tan := ms3.Scale(1/det, ms3.Sub(ms3.Scale(dv2, e1), ms3.Scale(dv1, e2)))
		t.Tangents[a] = ms3.Add(t.Tangents[a], tan)
		t.Tangents[b] = ms3.Add(t.Tangents[b], tan)
		t.Tangents[c] = ms3.Add(t.Tangents[c], tan)
	}
	for i, tan := range t.Tangents {
		n := vertices[i].Normal
		// Gram-Schmidt.
		tan = ms3.Sub(tan, ms3.Scale(ms3.Dot(n, tan), n))
		if ms3.Norm(tan) > 0 {
			tan = ms3.Unit(tan)
		}
		t.Tangents[i] = tan
	}
	return nil
}

func checkIndices(nVerts int, indices []uint16) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("index count %d not a multiple of 3", len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= nVerts {
			return fmt.Errorf("index %d at position %d out of range [0, %d)", idx, i, nVerts)
		}
	}
	return nil
}
