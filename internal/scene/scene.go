// Package scene loads metaball scenes from YAML: the field to mesh, the
// grid to mesh it over and where to write the results.
package scene

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball"
	"github.com/soypat/metaball/render"
	"gopkg.in/yaml.v3"
)

// Field kinds.
const (
	KindBalls     = "balls"
	KindSphere    = "sphere"
	KindPlane     = "plane"
	KindHeightmap = "heightmap"
	KindConstant  = "constant"
)

// Scene is a meshing job as stored in YAML.
type Scene struct {
	GridSpec  GridSpec  `yaml:"grid"`
	FieldSpec FieldSpec `yaml:"field"`
	Output    Output    `yaml:"output"`

	// dir resolves relative paths inside the scene. Set by Load.
	dir string
}

// GridSpec is the marching cubes lattice.
type GridSpec struct {
	// Size is the exclusive upper bound of cube origins. Origins start at -1.
	Size  [3]float32 `yaml:"size,flow"`
	Scale float32    `yaml:"scale"`
}

// FieldSpec selects and parametrizes the scalar field. Only the parameters
// of Kind are used.
type FieldSpec struct {
	Kind  string `yaml:"kind"`
	Blend Blend  `yaml:"blend,omitempty"`

	Balls []Ball `yaml:"balls,omitempty"`

	// Sphere.
	Center [3]float32 `yaml:"center,flow"`
	Radius float32    `yaml:"radius,omitempty"`

	// Plane dot(p, normal) = offset.
	Normal [3]float32 `yaml:"normal,flow"`
	Offset float32    `yaml:"offset,omitempty"`

	Heightmap Heightmap `yaml:"heightmap,omitempty"`

	// Constant.
	Value float32 `yaml:"value,omitempty"`
}

// Blend is the union operator between balls: min, round, chamfer, exp or poly.
type Blend struct {
	Kind string  `yaml:"kind"`
	K    float32 `yaml:"k"`
}

type Ball struct {
	Center [3]float32 `yaml:"center,flow"`
	Radius float32    `yaml:"radius"`
}

// Heightmap builds a terrain from the luminance of a PNG image.
type Heightmap struct {
	// Image path, relative to the scene file.
	Image   string     `yaml:"image"`
	Nx      int        `yaml:"nx"`
	Ny      int        `yaml:"ny"`
	Spacing [2]float32 `yaml:"spacing,flow"`
	ZScale  float32    `yaml:"zScale"`
}

// Output configures what is written after meshing.
type Output struct {
	STL string `yaml:"stl,omitempty"`
	PNG string `yaml:"png,omitempty"`
	// Workers meshing in parallel. 0 uses every CPU, 1 meshes serially.
	Workers int `yaml:"workers"`
	// Normals is "face" or "gradient".
	Normals string     `yaml:"normals"`
	Color   [3]float32 `yaml:"color,flow"`
}

// DefaultScene returns three blended metaballs.
func DefaultScene() *Scene {
	sc := &Scene{}
	sc.GridSpec.Size = [3]float32{5, 5, 5}
	sc.GridSpec.Scale = 0.1

	sc.FieldSpec.Kind = KindBalls
	sc.FieldSpec.Blend = Blend{Kind: "poly", K: 0.5}
	sc.FieldSpec.Balls = []Ball{
		{Center: [3]float32{1.5, 2, 2}, Radius: 1},
		{Center: [3]float32{3, 2, 2.3}, Radius: 0.8},
		{Center: [3]float32{2.2, 3, 1.8}, Radius: 0.6},
	}

	sc.Output.STL = "metaballs.stl"
	sc.Output.Workers = 0
	sc.Output.Normals = "face"
	sc.Output.Color = [3]float32{1, 1, 1}
	return sc
}

// Load reads a scene from a YAML file. Missing keys keep their DefaultScene
// values.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scene file: %w", err)
	}
	sc := DefaultScene()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("error parsing scene file: %w", err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// Save writes the scene to a YAML file, creating its directory if needed.
func Save(sc *Scene, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating scene directory: %w", err)
	}
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("error marshaling scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing scene file: %w", err)
	}
	return nil
}

// Grid returns the meshing lattice.
func (sc *Scene) Grid() render.Grid {
	return render.Grid{Size: vec(sc.GridSpec.Size), Scale: sc.GridSpec.Scale}
}

// Field builds the scalar field described by the scene.
func (sc *Scene) Field() (metaball.ScalarField, error) {
	f := &sc.FieldSpec
	switch f.Kind {
	case KindBalls:
		blend, err := f.Blend.minFunc()
		if err != nil {
			return nil, err
		}
		balls := make([]metaball.Ball, len(f.Balls))
		for i, b := range f.Balls {
			balls[i] = metaball.Ball{Center: vec(b.Center), Radius: b.Radius}
		}
		s, err := metaball.NewBalls(blend, balls...)
		if err != nil {
			return nil, fmt.Errorf("scene: %w", err)
		}
		return s, nil
	case KindSphere:
		return metaball.Sphere(vec(f.Center), f.Radius)
	case KindPlane:
		return metaball.Plane(vec(f.Normal), f.Offset)
	case KindHeightmap:
		h, err := sc.heightmap()
		if err != nil {
			return nil, err
		}
		return h, nil
	case KindConstant:
		return metaball.Constant(f.Value), nil
	case "":
		return nil, errors.New("scene: missing field kind")
	}
	return nil, fmt.Errorf("scene: unknown field kind %q", f.Kind)
}

// MeshOptions returns the mesh generation options for field.
func (sc *Scene) MeshOptions(field metaball.ScalarField) ([]render.Option, error) {
	opts := []render.Option{render.WithColor(vec(sc.Output.Color))}
	switch sc.Output.Normals {
	case "", "face":
	case "gradient":
		opts = append(opts, render.WithPostProcess(render.GradientNormals{Field: field}))
	default:
		return nil, fmt.Errorf("scene: unknown normals %q", sc.Output.Normals)
	}
	return opts, nil
}

func (sc *Scene) heightmap() (*metaball.Heightmap, error) {
	h := &sc.FieldSpec.Heightmap
	if h.Image == "" {
		return nil, errors.New("scene: heightmap needs an image")
	}
	path := h.Image
	if !filepath.IsAbs(path) {
		path = filepath.Join(sc.dir, path)
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	img, err := png.Decode(fp)
	if err != nil {
		return nil, fmt.Errorf("scene: decoding heightmap %s: %w", path, err)
	}
	return metaball.NewHeightmapFromImage(img, h.Nx, h.Ny, ms2.Vec{X: h.Spacing[0], Y: h.Spacing[1]}, h.ZScale)
}

func (b Blend) minFunc() (metaball.MinFunc, error) {
	switch b.Kind {
	case "", "min":
		return metaball.Min, nil
	case "round":
		return metaball.RoundMin(b.K), nil
	case "chamfer":
		return metaball.ChamferMin(b.K), nil
	case "exp":
		return metaball.ExpMin(b.K), nil
	case "poly":
		return metaball.PolyMin(b.K), nil
	}
	return nil, fmt.Errorf("scene: unknown blend %q", b.Kind)
}

func vec(a [3]float32) ms3.Vec {
	return ms3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
