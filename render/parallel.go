package render

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball"
)

// GenerateMeshParallel is GenerateMesh with the grid split into z slabs that
// are extracted concurrently. field must be safe for concurrent Sample calls.
// Slabs are merged in z order so the output is identical to GenerateMesh.
// workers <= 0 uses one worker per CPU.
//
// On overflow whole slabs are kept, so fewer cubes may be written than
// GenerateMesh would have written into the same buffer.
func GenerateMeshParallel(dst *MeshBuffer, field metaball.ScalarField, userData any, grid Grid, workers int, opts ...Option) error {
	if dst == nil {
		return errors.New("nil mesh buffer")
	} else if field == nil {
		return errors.New("nil scalar field")
	}
	if err := grid.Validate(); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sc := newScanner(field, userData, grid)
	workers = min(workers, len(sc.zs))
	if workers <= 1 {
		return GenerateMesh(dst, field, userData, grid, opts...)
	}
	cfg := newConfig(opts)
	dst.Reset()

	slabs := splitSlabs(sc.zs, workers)
	parts := make([]MeshBuffer, len(slabs))
	errs := make([]error, len(slabs))
	var wg sync.WaitGroup
	for i := range slabs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			part := &parts[i]
			part.growable = true
			errs[i] = sc.scan(slabs[i], func(origin ms3.Vec, values *[8]float32) error {
				return part.appendCube(origin, grid.Scale, values, cfg)
			})
		}(i)
	}
	wg.Wait()

	var mergeErr error
	for i := range parts {
		if errs[i] != nil {
			mergeErr = fmt.Errorf("slab %d: %w", i, errs[i])
			break
		}
		if err := dst.appendMesh(&parts[i]); err != nil {
			mergeErr = err
			break
		}
	}
	if mergeErr != nil && !errors.Is(mergeErr, ErrCapacity) {
		return mergeErr
	}
	if err := cfg.postProcess(dst); err != nil {
		return err
	}
	return mergeErr
}

// appendMesh copies src to the end of m, offsetting src's indices by the
// vertices already in m.
func (m *MeshBuffer) appendMesh(src *MeshBuffer) error {
	if err := m.reserve(src.NumVertices, src.NumIndices); err != nil {
		return err
	}
	base := m.NumVertices
	copy(m.Vertices[base:], src.VertexData())
	for k, idx := range src.IndexData() {
		m.Indices[m.NumIndices+k] = uint16(base + int(idx))
	}
	m.NumVertices += src.NumVertices
	m.NumIndices += src.NumIndices
	return nil
}

// splitSlabs divides zs into n contiguous, nearly equal runs.
func splitSlabs(zs []float32, n int) [][]float32 {
	slabs := make([][]float32, 0, n)
	size, rem := len(zs)/n, len(zs)%n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rem {
			end++
		}
		slabs = append(slabs, zs[start:end])
		start = end
	}
	return slabs
}
