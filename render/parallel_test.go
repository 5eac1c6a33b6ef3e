package render_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball"
	"github.com/soypat/metaball/render"
)

func newBalls(t testing.TB) *metaball.Balls {
	balls, err := metaball.NewBalls(metaball.PolyMin(0.4),
		metaball.Ball{Center: ms3.Vec{X: 1.5, Y: 2, Z: 1.5}, Radius: 1},
		metaball.Ball{Center: ms3.Vec{X: 3, Y: 2, Z: 2.5}, Radius: 0.9},
		metaball.Ball{Center: ms3.Vec{X: 2, Y: 3, Z: 3}, Radius: 0.6},
	)
	if err != nil {
		t.Fatal(err)
	}
	return balls
}

func TestGenerateMeshParallel(t *testing.T) {
	balls := newBalls(t)
	g := render.Grid{Size: ms3.Vec{X: 5, Y: 5, Z: 5}, Scale: 0.25}
	serial := meshOf(t, balls, g)
	if serial.NumIndices == 0 {
		t.Fatal("empty mesh")
	}
	for _, workers := range []int{0, 1, 2, 3, 7, 64} {
		m := render.NewMeshBuffer(g.MaxVertices(), g.MaxIndices())
		err := render.GenerateMeshParallel(m, balls, nil, g, workers)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if !slices.Equal(m.VertexData(), serial.VertexData()) || !slices.Equal(m.IndexData(), serial.IndexData()) {
			t.Errorf("workers=%d: parallel mesh differs from serial", workers)
		}
	}
}

func TestGenerateMeshParallelClosed(t *testing.T) {
	g := render.Grid{Size: ms3.Vec{X: 5, Y: 5, Z: 5}, Scale: 0.25}
	m := render.NewMeshBuffer(g.MaxVertices(), g.MaxIndices())
	err := render.GenerateMeshParallel(m, newBalls(t), nil, g, 4)
	if err != nil {
		t.Fatal(err)
	}
	checkClosed(t, m)
}

func TestGenerateMeshParallelCapacity(t *testing.T) {
	balls := newBalls(t)
	g := render.Grid{Size: ms3.Vec{X: 5, Y: 5, Z: 5}, Scale: 0.25}
	m := render.NewMeshBuffer(300, 450)
	err := render.GenerateMeshParallel(m, balls, nil, g, 4)
	if !errors.Is(err, render.ErrCapacity) {
		t.Fatalf("want ErrCapacity, got %v", err)
	}
	if m.NumVertices > 300 || m.NumIndices > 450 {
		t.Fatal("buffer overrun")
	}
	for _, idx := range m.IndexData() {
		if int(idx) >= m.NumVertices {
			t.Fatalf("index %d past %d vertices", idx, m.NumVertices)
		}
	}
}

func TestGenerateMeshParallelErrors(t *testing.T) {
	g := render.Grid{Size: ms3.Vec{X: 5, Y: 5, Z: 5}, Scale: 0.25}
	m := render.NewMeshBuffer(16, 16)
	if err := render.GenerateMeshParallel(nil, newBalls(t), nil, g, 2); err == nil {
		t.Error("want error for nil buffer")
	}
	if err := render.GenerateMeshParallel(m, nil, nil, g, 2); err == nil {
		t.Error("want error for nil field")
	}
	if err := render.GenerateMeshParallel(m, newBalls(t), nil, render.Grid{Size: g.Size, Scale: -1}, 2); !errors.Is(err, render.ErrBadGrid) {
		t.Errorf("want ErrBadGrid, got %v", err)
	}
}

func BenchmarkGenerateMesh(b *testing.B) {
	balls := newBalls(b)
	g := render.Grid{Size: ms3.Vec{X: 5, Y: 5, Z: 5}, Scale: 0.1}
	m := render.NewMeshBuffer(g.MaxVertices()/8, g.MaxIndices()/8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := render.GenerateMesh(m, balls, nil, g); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGenerateMeshParallel(b *testing.B) {
	balls := newBalls(b)
	g := render.Grid{Size: ms3.Vec{X: 5, Y: 5, Z: 5}, Scale: 0.1}
	m := render.NewMeshBuffer(g.MaxVertices()/8, g.MaxIndices()/8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := render.GenerateMeshParallel(m, balls, nil, g, 0); err != nil {
			b.Fatal(err)
		}
	}
}
