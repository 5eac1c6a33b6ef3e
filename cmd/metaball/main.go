// Command metaball meshes a scalar field scene with marching cubes and
// writes the surface as STL and an optional PNG preview.
package main

import (
	"errors"
	"flag"
	"log"
	"time"

	"github.com/soypat/metaball/internal/scene"
	"github.com/soypat/metaball/render"
)

// Index buffers hold at most three indices per addressable vertex.
const (
	maxVertices = 1 << 16
	maxIndices  = 3 * maxVertices
)

func main() {
	scenePath := flag.String("scene", "", "Scene YAML file (default: built-in metaballs)")
	stlPath := flag.String("stl", "", "Output STL file, overrides the scene")
	pngPath := flag.String("png", "", "Output PNG preview, overrides the scene")
	workers := flag.Int("workers", -1, "Meshing workers, 0 uses all CPUs (default: scene value)")
	initPath := flag.String("init", "", "Write the default scene to this file and exit")
	flag.Parse()

	if *initPath != "" {
		if err := scene.Save(scene.DefaultScene(), *initPath); err != nil {
			log.Fatalf("Failed to write scene: %v", err)
		}
		log.Printf("Default scene written to %s", *initPath)
		return
	}

	sc := scene.DefaultScene()
	if *scenePath != "" {
		var err error
		sc, err = scene.Load(*scenePath)
		if err != nil {
			log.Fatalf("Failed to load scene: %v", err)
		}
	}
	if *stlPath != "" {
		sc.Output.STL = *stlPath
	}
	if *pngPath != "" {
		sc.Output.PNG = *pngPath
	}
	if *workers >= 0 {
		sc.Output.Workers = *workers
	}

	field, err := sc.Field()
	if err != nil {
		log.Fatalf("Bad field: %v", err)
	}
	opts, err := sc.MeshOptions(field)
	if err != nil {
		log.Fatalf("Bad output options: %v", err)
	}
	grid := sc.Grid()
	if err := grid.Validate(); err != nil {
		log.Fatalf("Bad grid: %v", err)
	}
	m := render.NewMeshBuffer(min(grid.MaxVertices(), maxVertices), min(grid.MaxIndices(), maxIndices))

	start := time.Now()
	err = render.GenerateMeshParallel(m, field, nil, grid, sc.Output.Workers, opts...)
	switch {
	case errors.Is(err, render.ErrCapacity):
		log.Printf("Warning: mesh truncated: %v", err)
	case err != nil:
		log.Fatalf("Meshing failed: %v", err)
	}
	nx, ny, nz := grid.Cubes()
	log.Printf("Meshed %dx%dx%d cubes into %d vertices and %d triangles in %v",
		nx, ny, nz, m.NumVertices, m.NumIndices/3, time.Since(start))
	if m.NumIndices == 0 {
		log.Fatal("Empty mesh, nothing to write")
	}

	if sc.Output.STL != "" {
		if err := render.CreateSTL(sc.Output.STL, m); err != nil {
			log.Fatalf("Failed to write STL: %v", err)
		}
		log.Printf("STL saved to %s", sc.Output.STL)
	}
	if sc.Output.PNG != "" {
		if err := render.RenderPNG(sc.Output.PNG, m, render.DefaultView); err != nil {
			log.Fatalf("Failed to render preview: %v", err)
		}
		log.Printf("Preview saved to %s", sc.Output.PNG)
	}
}
