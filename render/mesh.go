package render

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball"
)

// ErrCapacity is returned when a mesh buffer cannot hold the extracted surface.
// The buffer then holds every cube that fit before the overflow.
var ErrCapacity = errors.New("mesh buffer capacity exceeded")

// maxIndexedVertices is the vertex count addressable with 16 bit indices.
const maxIndexedVertices = math.MaxUint16 + 1

// Vertex is the interchange vertex format handed to rendering pipelines.
type Vertex struct {
	Position ms3.Vec
	Normal   ms3.Vec
	Color    ms3.Vec
	// TexCoord is the world XY position of the vertex. It is a placeholder,
	// callers needing a real unwrap must compute their own coordinates.
	TexCoord ms2.Vec
}

// MeshBuffer holds caller-owned, fixed capacity vertex and index storage.
// The lengths of Vertices and Indices are the capacities; NumVertices and
// NumIndices count the elements in use. Triangles are not welded: cubes
// never share vertices, even where they coincide.
type MeshBuffer struct {
	Vertices    []Vertex
	Indices     []uint16
	NumVertices int
	NumIndices  int

	// growable buffers extend instead of failing. Used by parallel slabs.
	growable bool
}

// NewMeshBuffer allocates a mesh buffer with the given capacities.
// Grid.MaxVertices and Grid.MaxIndices give capacities that never overflow.
func NewMeshBuffer(vertexCap, indexCap int) *MeshBuffer {
	return &MeshBuffer{
		Vertices: make([]Vertex, vertexCap),
		Indices:  make([]uint16, indexCap),
	}
}

// Reset empties the buffer without releasing storage.
func (m *MeshBuffer) Reset() {
	m.NumVertices = 0
	m.NumIndices = 0
}

// VertexData returns the vertices in use.
func (m *MeshBuffer) VertexData() []Vertex { return m.Vertices[:m.NumVertices] }

// IndexData returns the indices in use.
func (m *MeshBuffer) IndexData() []uint16 { return m.Indices[:m.NumIndices] }

// Triangles expands the indexed mesh into a triangle list.
func (m *MeshBuffer) Triangles() []ms3.Triangle {
	idx := m.IndexData()
	tris := make([]ms3.Triangle, 0, len(idx)/3)
	for i := 0; i+2 < len(idx); i += 3 {
		tris = append(tris, ms3.Triangle{
			m.Vertices[idx[i]].Position,
			m.Vertices[idx[i+1]].Position,
			m.Vertices[idx[i+2]].Position,
		})
	}
	return tris
}

// appendCube emits the surface patch of one cube. Either the whole cube is
// written or, on overflow, nothing is and ErrCapacity is returned.
func (m *MeshBuffer) appendCube(origin ms3.Vec, scale float32, values *[8]float32, cfg *config) error {
	caseID := caseIndex(values)
	if caseID == 0 || caseID == 255 {
		return nil
	}
	entry := &mcCaseTable[caseID]
	if entry.nVerts == 0 {
		cfg.logger.Printf("metaball/render: case %#02x at %v produced no vertices", caseID, origin)
		return nil
	}
	nv, ni := int(entry.nVerts), int(entry.nIndices)
	if err := m.reserve(nv, ni); err != nil {
		return err
	}
	base := m.NumVertices
	for i, e := range entry.edges[:nv] {
		pos := ms3.Add(origin, ms3.Scale(scale, interpolateEdge(e, values)))
		m.Vertices[base+i] = Vertex{
			Position: pos,
			Color:    cfg.color,
			TexCoord: ms2.Vec{X: pos.X, Y: pos.Y},
		}
	}
	for k, local := range entry.indices[:ni] {
		m.Indices[m.NumIndices+k] = uint16(base + int(local))
	}
	m.NumVertices += nv
	m.NumIndices += ni
	return nil
}

func (m *MeshBuffer) reserve(nv, ni int) error {
	needV, needI := m.NumVertices+nv, m.NumIndices+ni
	if needV > maxIndexedVertices {
		return fmt.Errorf("%w: %d vertices exceed 16 bit index range", ErrCapacity, needV)
	}
	if m.growable {
		for len(m.Vertices) < needV {
			m.Vertices = append(m.Vertices, Vertex{})
		}
		for len(m.Indices) < needI {
			m.Indices = append(m.Indices, 0)
		}
		return nil
	}
	if needV > len(m.Vertices) || needI > len(m.Indices) {
		return fmt.Errorf("%w: need %d vertices and %d indices, capacity is %d and %d",
			ErrCapacity, needV, needI, len(m.Vertices), len(m.Indices))
	}
	return nil
}

// interpolateEdge returns the unit cube position of the iso crossing on
// directed edge e. Equal end values put the vertex at the edge midpoint.
func interpolateEdge(e uint8, values *[8]float32) ms3.Vec {
	c0, c1 := mcEdges[e][0], mcEdges[e][1]
	v0, v1 := values[c0], values[c1]
	t := float32(0.5)
	if d := v1 - v0; d != 0 {
		t = metaball.Clamp((isoLevel-v0)/d, 0, 1)
	}
	p0, p1 := mcCorners[c0], mcCorners[c1]
	return ms3.Add(p0, ms3.Scale(t, ms3.Sub(p1, p0)))
}

// Option configures mesh generation.
type Option func(*config)

type config struct {
	post   []PostProcessor
	color  ms3.Vec
	logger *log.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		post:   []PostProcessor{FaceNormals{}},
		color:  ms3.Vec{X: 1, Y: 1, Z: 1},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithPostProcess replaces the default post-processing (FaceNormals).
// Processors run in order. Calling it with no arguments disables post-processing.
func WithPostProcess(p ...PostProcessor) Option {
	return func(c *config) { c.post = p }
}

// WithColor sets the color written to every vertex. The default is white.
func WithColor(color ms3.Vec) Option {
	return func(c *config) { c.color = color }
}

// WithLogger sets the logger for diagnostics. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// GenerateMesh extracts the zero level-set of field over grid into dst and
// runs post-processing over the result. dst is reset first. userData is
// passed to every field evaluation.
//
// If dst runs out of room ErrCapacity is returned; the cubes written before
// the overflow are kept and post-processed.
func GenerateMesh(dst *MeshBuffer, field metaball.ScalarField, userData any, grid Grid, opts ...Option) error {
	if dst == nil {
		return errors.New("nil mesh buffer")
	} else if field == nil {
		return errors.New("nil scalar field")
	}
	if err := grid.Validate(); err != nil {
		return err
	}
	cfg := newConfig(opts)
	dst.Reset()
	sc := newScanner(field, userData, grid)
	scanErr := sc.scan(sc.zs, func(origin ms3.Vec, values *[8]float32) error {
		return dst.appendCube(origin, grid.Scale, values, cfg)
	})
	if scanErr != nil && !errors.Is(scanErr, ErrCapacity) {
		return scanErr
	}
	if err := cfg.postProcess(dst); err != nil {
		return err
	}
	return scanErr
}

func (cfg *config) postProcess(m *MeshBuffer) error {
	for _, p := range cfg.post {
		if err := p.Process(m.VertexData(), m.IndexData()); err != nil {
			return fmt.Errorf("post-processing: %w", err)
		}
	}
	return nil
}
