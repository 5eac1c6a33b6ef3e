package scene

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball/render"
)

func TestDefaultScene(t *testing.T) {
	sc := DefaultScene()
	field, err := sc.Field()
	if err != nil {
		t.Fatal(err)
	}
	g := sc.Grid()
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	opts, err := sc.MeshOptions(field)
	if err != nil {
		t.Fatal(err)
	}
	m := render.NewMeshBuffer(1<<16, 3<<16)
	if err := render.GenerateMeshParallel(m, field, nil, g, sc.Output.Workers, opts...); err != nil {
		t.Fatal(err)
	}
	if m.NumIndices == 0 {
		t.Error("default scene meshed to nothing")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scene.yaml")
	want := DefaultScene()
	want.Output.PNG = "preview.png"
	if err := Save(want, path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got.dir = ""
	if !reflect.DeepEqual(got, want) {
		t.Errorf("loaded scene differs:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sphere.yaml")
	const data = `
field:
  kind: sphere
  center: [2, 2, 2]
  radius: 1.5
output:
  normals: gradient
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Grid() != DefaultScene().Grid() {
		t.Errorf("grid not defaulted: %+v", sc.Grid())
	}
	field, err := sc.Field()
	if err != nil {
		t.Fatal(err)
	}
	if got := field.Sample(ms3.Vec{X: 2, Y: 2, Z: 2}, nil); got != -1.5 {
		t.Errorf("sphere center sample %v, want -1.5", got)
	}
	opts, err := sc.MeshOptions(field)
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 2 {
		t.Errorf("want color and gradient normal options, got %d", len(opts))
	}
}

func TestHeightmapScene(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	fp, err := os.Create(filepath.Join(dir, "terrain.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(fp, img); err != nil {
		t.Fatal(err)
	}
	fp.Close()

	scenePath := filepath.Join(dir, "terrain.yaml")
	const data = `
grid: {size: [4, 4, 3], scale: 0.5}
field:
  kind: heightmap
  heightmap: {image: terrain.png, nx: 8, ny: 8, spacing: [0.5, 0.5], zScale: 2}
`
	if err := os.WriteFile(scenePath, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := Load(scenePath)
	if err != nil {
		t.Fatal(err)
	}
	field, err := sc.Field()
	if err != nil {
		t.Fatal(err)
	}
	// Flat gray at about half intensity gives a plateau near z=1.
	if got := field.Sample(ms3.Vec{X: 1, Y: 1, Z: 1}, nil); got < -0.05 || got > 0.05 {
		t.Errorf("plateau sample %v, want about 0", got)
	}
}

func TestSceneErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("want error loading missing file")
	}
	for _, mutate := range []func(*Scene){
		func(sc *Scene) { sc.FieldSpec.Kind = "" },
		func(sc *Scene) { sc.FieldSpec.Kind = "torus" },
		func(sc *Scene) { sc.FieldSpec.Blend.Kind = "smoothest" },
		func(sc *Scene) { sc.FieldSpec.Balls = nil },
		func(sc *Scene) { sc.FieldSpec.Kind = KindHeightmap },
		func(sc *Scene) { sc.FieldSpec.Kind = KindPlane },
	} {
		sc := DefaultScene()
		mutate(sc)
		if _, err := sc.Field(); err == nil {
			t.Errorf("want error for field spec %+v", sc.FieldSpec)
		}
	}
	sc := DefaultScene()
	sc.Output.Normals = "vertex"
	if _, err := sc.MeshOptions(nil); err == nil {
		t.Error("want error for unknown normals")
	}
}
