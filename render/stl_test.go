package render_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball/render"
)

func TestSTLCreateWriteRead(t *testing.T) {
	m := meshOf(t, newSphere(t), sphereGrid)
	model := m.Triangles()
	filename := filepath.Join(t.TempDir(), "sphere.stl")
	err := render.CreateSTL(filename, m)
	if err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	var nondegenerate []ms3.Triangle
	for _, tri := range model {
		if ms3.Norm(ms3.Cross(ms3.Sub(tri[1], tri[0]), ms3.Sub(tri[2], tri[0]))) > 0 {
			nondegenerate = append(nondegenerate, tri)
		}
	}
	var b bytes.Buffer
	n, err := render.WriteSTL(&b, nondegenerate)
	if err != nil {
		t.Fatal(err)
	}
	if n != 84+50*len(nondegenerate) || n != b.Len() {
		t.Fatalf("WriteSTL reported %d bytes, wrote %d", n, b.Len())
	}
	if !bytes.Equal(b.Bytes(), bfile) {
		t.Fatal("WriteSTL and CreateSTL output mismatch")
	}

	got, err := render.ReadSTL(bytes.NewReader(bfile))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(nondegenerate) {
		t.Fatalf("read %d triangles, wrote %d", len(got), len(nondegenerate))
	}
	for i := range got {
		if got[i] != nondegenerate[i] {
			t.Fatalf("triangle %d: read %v, wrote %v", i, got[i], nondegenerate[i])
		}
	}
}

func TestSTLErrors(t *testing.T) {
	var b bytes.Buffer
	if _, err := render.WriteSTL(&b, nil); err == nil {
		t.Error("want error writing empty model")
	}
	empty := filepath.Join(t.TempDir(), "empty.stl")
	if err := render.CreateSTL(empty, render.NewMeshBuffer(4, 4)); err == nil {
		t.Error("want error creating STL of empty mesh")
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Errorf("empty mesh left a file behind: %v", err)
	}
	if _, err := render.ReadSTL(bytes.NewReader(make([]byte, 10))); err == nil {
		t.Error("want error reading truncated header")
	}
	if _, err := render.ReadSTL(bytes.NewReader(make([]byte, 84))); err == nil {
		t.Error("want error for zero triangle count")
	}
	tri := ms3.Triangle{{}, {X: 1}, {Y: 1}}
	if _, err := render.WriteSTL(&b, []ms3.Triangle{tri, tri}); err != nil {
		t.Fatal(err)
	}
	if _, err := render.ReadSTL(bytes.NewReader(b.Bytes()[:b.Len()-10])); err == nil {
		t.Error("want error for truncated triangle data")
	}
}
