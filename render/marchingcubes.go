package render

import (
	"slices"

	"github.com/soypat/geometry/ms3"
)

// Marching cubes case table.
//
// Corner i of a cube sits at unit offset (i&1, i>>1&1, i>>2&1) from the
// cube's minimum corner and owns bit 1<<i of the case index. A corner is
// inside the surface when its sample is below the iso level.

const (
	isoLevel = 0

	mcMaxVertices = 12
	mcMaxIndices  = 30
	// marchingCubesMaxTriangles is the most triangles a single cube can emit.
	marchingCubesMaxTriangles = mcMaxIndices / 3
)

var mcCorners = [8]ms3.Vec{
	{X: 0, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 1, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: 1},
	{X: 1, Y: 0, Z: 1},
	{X: 0, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: 1},
}

// mcEdges holds the 12 cube edges as corner pairs followed by the same
// 12 edges reversed. Edge e and edge e+12 are the same segment.
var mcEdges = [24][2]uint8{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // x aligned
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // y aligned
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // z aligned
	{1, 0}, {3, 2}, {5, 4}, {7, 6},
	{2, 0}, {3, 1}, {6, 4}, {7, 5},
	{4, 0}, {5, 1}, {6, 2}, {7, 3},
}

// mcFaces lists each face's corners counter-clockwise as seen from outside the cube.
var mcFaces = [6][4]uint8{
	{0, 4, 6, 2}, // x=0
	{1, 3, 7, 5}, // x=1
	{0, 1, 5, 4}, // y=0
	{2, 6, 7, 3}, // y=1
	{0, 2, 3, 1}, // z=0
	{4, 5, 7, 6}, // z=1
}

// caseEntry describes the surface patch of one corner configuration.
// Vertex i lies on directed edge edges[i], which always runs from an inside
// corner to an outside corner. indices hold triangles as local vertex numbers.
type caseEntry struct {
	nVerts   uint8
	nIndices uint8
	edges    [mcMaxVertices]uint8
	indices  [mcMaxIndices]uint8
}

var mcCaseTable = buildCaseTable()

// caseIndex classifies the 8 corner samples of a cube.
func caseIndex(values *[8]float32) uint8 {
	var c uint8
	for i, v := range values {
		if v < isoLevel {
			c |= 1 << i
		}
	}
	return c
}

// IsAmbiguous reports whether the corner configuration has a face whose two
// inside corners lie on a diagonal. Such faces admit two triangulations; this
// table always keeps the inside corners separated so adjacent cubes agree.
func IsAmbiguous(caseID uint8) bool {
	for _, face := range mcFaces {
		if len(faceCrossings(caseID, face)) == 4 {
			return true
		}
	}
	return false
}

func buildCaseTable() (table [256]caseEntry) {
	for c := 1; c < 255; c++ {
		table[c] = triangulateCase(uint8(c))
	}
	return table
}

type crossing struct {
	edge     uint8 // undirected edge, 0..11
	entering bool  // traversal goes from an outside to an inside corner.
}

// faceCrossings returns the sign changes met walking the face counter-clockwise.
func faceCrossings(caseID uint8, face [4]uint8) []crossing {
	var buf [4]crossing
	n := 0
	for k := range face {
		a, b := face[k], face[(k+1)%4]
		ina, inb := cornerInside(caseID, a), cornerInside(caseID, b)
		if ina == inb {
			continue
		}
		buf[n] = crossing{edge: edgeID(a, b) % 12, entering: inb}
		n++
	}
	return buf[:n]
}

// triangulateCase links the crossings of every face into segments running
// from an entering crossing to the next crossing counter-clockwise. Every
// crossed edge is entered on one of its two faces and left on the other,
// so the segments chain into closed polygons which are then triangulated.
func triangulateCase(caseID uint8) (entry caseEntry) {
	var next [12]int8
	for i := range next {
		next[i] = -1
	}
	for _, face := range mcFaces {
		xs := faceCrossings(caseID, face)
		for k, x := range xs {
			if x.entering {
				next[x.edge] = int8(xs[(k+1)%len(xs)].edge)
			}
		}
	}
	var visited [12]bool
	for start := uint8(0); start < 12; start++ {
		if next[start] < 0 || visited[start] {
			continue
		}
		first := entry.nVerts
		for e := start; !visited[e]; e = uint8(next[e]) {
			visited[e] = true
			a, b := mcEdges[e][0], mcEdges[e][1]
			if !cornerInside(caseID, a) {
				a, b = b, a
			}
			entry.edges[entry.nVerts] = edgeID(a, b)
			entry.nVerts++
		}
		poly := entry.edges[first:entry.nVerts]
		tris, ok := triangulatePolygon(poly, 0, len(poly)-1)
		if !ok {
			panic("marching cubes polygon has no triangulation off the cube faces")
		}
		for _, tri := range tris {
			for k, v := range tri {
				entry.indices[int(entry.nIndices)+k] = first + v
			}
			entry.nIndices += 3
		}
	}
	return entry
}

// triangulatePolygon splits the polygon poly[lo..hi] into triangles of local
// vertex numbers. A polygon crossing an ambiguous face twice has non-adjacent
// vertices on that face; diagonals between them would lie in the face, where
// the neighbouring cube emits the same triangle reversed, so they are never used.
func triangulatePolygon(poly []uint8, lo, hi int) ([][3]uint8, bool) {
	if hi-lo < 2 {
		return nil, true
	}
	for k := lo + 1; k < hi; k++ {
		if !polygonDiagonal(poly, lo, k) || !polygonDiagonal(poly, k, hi) {
			continue
		}
		left, ok := triangulatePolygon(poly, lo, k)
		if !ok {
			continue
		}
		right, ok := triangulatePolygon(poly, k, hi)
		if !ok {
			continue
		}
		tris := append(left, [3]uint8{uint8(lo), uint8(k), uint8(hi)})
		return append(tris, right...), true
	}
	return nil, false
}

// polygonDiagonal reports whether vertices i < j of poly may be joined.
func polygonDiagonal(poly []uint8, i, j int) bool {
	if j-i == 1 || (i == 0 && j == len(poly)-1) {
		return true // Polygon side.
	}
	return !edgesShareFace(poly[i], poly[j])
}

// edgesShareFace reports whether directed edges e1 and e2 lie on a common cube face.
func edgesShareFace(e1, e2 uint8) bool {
	for _, face := range mcFaces {
		if edgeOnFace(e1, face) && edgeOnFace(e2, face) {
			return true
		}
	}
	return false
}

func edgeOnFace(e uint8, face [4]uint8) bool {
	a, b := mcEdges[e][0], mcEdges[e][1]
	return slices.Contains(face[:], a) && slices.Contains(face[:], b)
}

func cornerInside(caseID, corner uint8) bool {
	return caseID&(1<<corner) != 0
}

// edgeID returns the index of directed edge a->b in mcEdges.
func edgeID(a, b uint8) uint8 {
	for i, e := range mcEdges {
		if e[0] == a && e[1] == b {
			return uint8(i)
		}
	}
	panic("corners do not share a cube edge")
}
