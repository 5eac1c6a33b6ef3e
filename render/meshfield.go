package render

import (
	"math"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/metaball"
	"github.com/soypat/metaball/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ metaball.BoundedField = (*MeshField)(nil)
	_ kdtree.Interface      = kdTriangles{}
	_ kdtree.Bounder        = kdTriangles{}
)

// meshFieldCandidates is the number of nearest centroids whose triangles are
// searched for the closest surface point.
const meshFieldCandidates = 8

// MeshField is an approximate signed distance field of a closed triangle mesh,
// negative inside. Triangles are indexed by centroid in a k-d tree; the
// sign comes from the normal of the closest triangle.
type MeshField struct {
	tree kdtree.Tree
	bb   ms3.Box
}

// NewMeshField indexes the non-degenerate triangles of tris. Windings must be
// counter-clockwise seen from outside, as produced by GenerateMesh.
// It returns nil if no triangle has area.
func NewMeshField(tris []ms3.Triangle) *MeshField {
	mykd := make(kdTriangles, 0, len(tris))
	bb := d3.EmptyBox()
	for _, t := range tris {
		tri := d3.Triangle{d3.FromMS3(t[0]), d3.FromMS3(t[1]), d3.FromMS3(t[2])}
		n := tri.Normal()
		if n == (r3.Vec{}) {
			continue
		}
		mykd = append(mykd, kdTriangle{tri: tri, n: n, c: tri.Centroid()})
		bb = bb.Extend(tri.Bounds())
	}
	if len(mykd) == 0 {
		return nil
	}
	tree := kdtree.New(mykd, false)
	return &MeshField{tree: *tree, bb: bb.MS3()}
}

// Sample returns the signed distance from pos to the mesh. userData is unused.
func (s *MeshField) Sample(pos ms3.Vec, _ any) float32 {
	p := d3.FromMS3(pos)
	keep := kdtree.NewNKeeper(meshFieldCandidates)
	s.tree.NearestSet(keep, kdTriangle{c: p})
	minDist := math.Inf(1)
	var sign float64 = 1
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue // Sentinel.
		}
		tri := cd.Comparable.(kdTriangle)
		closest := tri.tri.Closest(p)
		dir := r3.Sub(p, closest)
		dist := r3.Norm(dir)
		if dist < minDist {
			minDist = dist
			sign = math.Copysign(1, r3.Dot(dir, tri.n))
		}
	}
	return float32(sign * minDist)
}

// Bounds returns the bounding box of the mesh.
func (s *MeshField) Bounds() ms3.Box { return s.bb }

// kdTriangle is a triangle keyed by its centroid.
type kdTriangle struct {
	tri d3.Triangle
	n   r3.Vec
	c   r3.Vec
}

type kdTriangles []kdTriangle

func (k kdTriangles) Index(i int) kdtree.Comparable { return k[i] }

// Len returns the length of the list.
func (k kdTriangles) Len() int { return len(k) }

// Pivot partitions the list based on the dimension specified.
func (k kdTriangles) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: int(d), triangles: k}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (k kdTriangles) Slice(start, end int) kdtree.Interface { return k[start:end] }

func (k kdTriangles) Bounds() *kdtree.Bounding {
	bb := d3.EmptyBox()
	for _, tri := range k {
		bb = bb.Include(tri.c)
	}
	return &kdtree.Bounding{
		Min: kdTriangle{c: bb.Min},
		Max: kdTriangle{c: bb.Max},
	}
}

// Compare returns the signed distance of a's centroid from the plane passing
// through b's centroid and perpendicular to the dimension d.
func (a kdTriangle) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return kdComp(a, b.(kdTriangle), int(d))
}

// Dims returns the number of dimensions described in the Comparable.
func (a kdTriangle) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between centroids.
func (a kdTriangle) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.c, b.(kdTriangle).c))
}

// c = a.dim - b.dim
func kdComp(a, b kdTriangle, dim int) (c float64) {
	switch dim {
	case 0:
		c = a.c.X - b.c.X
	case 1:
		c = a.c.Y - b.c.Y
	case 2:
		c = a.c.Z - b.c.Z
	}
	return c
}

type kdPlane struct {
	dim       int
	triangles kdTriangles
}

func (p kdPlane) Less(i, j int) bool {
	return kdComp(p.triangles[i], p.triangles[j], p.dim) < 0
}
func (p kdPlane) Swap(i, j int) {
	p.triangles[i], p.triangles[j] = p.triangles[j], p.triangles[i]
}
func (p kdPlane) Len() int {
	return len(p.triangles)
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.triangles = p.triangles[start:end]
	return p
}
