package render

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Binary STL layout: an 80 byte comment, a little endian uint32 facet count,
// then one fixed size record per facet.
const (
	stlHeaderSize    = 84
	stlRecordSize    = 50
	// stlMaxMismatches is the number of facets whose stored normal may
	// disagree with their winding before ReadSTL gives up.
	stlMaxMismatches = 10_000
)

var errNormalMismatch = errors.New("stored STL normal disagrees with facet winding")

// CreateSTL writes the mesh in m to a binary STL file at path.
// Degenerate triangles are skipped. No file is created for an empty mesh.
func CreateSTL(path string, m *MeshBuffer) error {
	tris := m.Triangles()
	model := tris[:0]
	for _, t := range tris {
		if !isDegenerate(t) {
			model = append(model, t)
		}
	}
	if len(model) == 0 {
		return errors.New("mesh has no triangles to write")
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	_, err = WriteSTL(w, model)
	if err == nil {
		err = w.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteSTL writes model to w as binary STL and returns the bytes written.
// Facet normals are computed from the winding.
func WriteSTL(w io.Writer, model []ms3.Triangle) (int, error) {
	if len(model) == 0 {
		return 0, errors.New("empty triangle slice")
	} else if int64(len(model)) > math.MaxUint32 {
		return 0, fmt.Errorf("%d triangles exceed the STL facet count field", len(model))
	}
	var header [stlHeaderSize]byte
	binary.LittleEndian.PutUint32(header[80:], uint32(len(model)))
	n, err := writeFull(w, header[:])
	if err != nil {
		return n, err
	}
	var rec stlRecord
	for _, t := range model {
		rec.encode(t)
		nw, err := writeFull(w, rec[:])
		n += nw
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadSTL reads a binary STL stream. Facets whose stored normal disagrees
// with their winding are still returned, together with an error wrapping
// errNormalMismatch.
func ReadSTL(r io.Reader) ([]ms3.Triangle, error) {
	var header [stlHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("reading STL header: %w", err)
	}
	count := binary.LittleEndian.Uint32(header[80:])
	if count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}
	var (
		rec        stlRecord
		mismatches int
	)
	model := make([]ms3.Triangle, 0, min(count, 1<<20))
	for i := 0; i < int(count); i++ {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, fmt.Errorf("reading STL facet %d/%d: %w", i+1, count, err)
		}
		t := rec.triangle()
		switch err := checkFacet(rec.normal(), t); {
		case errors.Is(err, errNormalMismatch):
			mismatches++
			if mismatches > stlMaxMismatches {
				return model, fmt.Errorf("%w: %d facets", err, mismatches)
			}
		case err != nil:
			return nil, fmt.Errorf("STL facet %d/%d: %w", i+1, count, err)
		}
		model = append(model, t)
	}
	if mismatches > 0 {
		return model, fmt.Errorf("%w: %d facets", errNormalMismatch, mismatches)
	}
	return model, nil
}

// checkFacet rejects non-finite or degenerate facets and reports normals that
// match neither orientation of the winding.
func checkFacet(normal ms3.Vec, t ms3.Triangle) error {
	const normTol = 5e-2
	if !finiteVec(normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	for _, v := range t {
		if !finiteVec(v) {
			return errors.New("inf/NaN STL triangle vertex")
		}
	}
	if isDegenerate(t) {
		return errors.New("triangle is degenerate")
	}
	calc := triangleNormal(t)
	if !vecWithin(calc, normal, normTol) && !vecWithin(ms3.Scale(-1, calc), normal, normTol) {
		return errNormalMismatch
	}
	return nil
}

// stlRecord is one facet: normal, three vertices and a zero attribute count.
type stlRecord [stlRecordSize]byte

func (rec *stlRecord) encode(t ms3.Triangle) {
	putVec(rec[0:], triangleNormal(t))
	for i, v := range t {
		putVec(rec[12+12*i:], v)
	}
	binary.LittleEndian.PutUint16(rec[48:], 0)
}

func (rec *stlRecord) normal() ms3.Vec { return getVec(rec[0:]) }

func (rec *stlRecord) triangle() ms3.Triangle {
	return ms3.Triangle{getVec(rec[12:]), getVec(rec[24:]), getVec(rec[36:])}
}

func putVec(b []byte, v ms3.Vec) {
	_ = b[11]
	binary.LittleEndian.PutUint32(b, math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
}

func getVec(b []byte) ms3.Vec {
	_ = b[11]
	return ms3.Vec{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b)),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

func writeFull(w io.Writer, b []byte) (int, error) {
	n, err := w.Write(b)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	return n, err
}

func finiteVec(v ms3.Vec) bool {
	return !math32.IsNaN(v.X) && !math32.IsInf(v.X, 0) &&
		!math32.IsNaN(v.Y) && !math32.IsInf(v.Y, 0) &&
		!math32.IsNaN(v.Z) && !math32.IsInf(v.Z, 0)
}

// vecWithin reports whether every component of a and b differs by at most tol.
func vecWithin(a, b ms3.Vec, tol float32) bool {
	d := ms3.Sub(a, b)
	return math32.Abs(d.X) <= tol && math32.Abs(d.Y) <= tol && math32.Abs(d.Z) <= tol
}

// triangleNormal returns the unit normal given by the winding of t,
// or the zero vector for degenerate triangles.
func triangleNormal(t ms3.Triangle) ms3.Vec {
	n := ms3.Cross(ms3.Sub(t[1], t[0]), ms3.Sub(t[2], t[0]))
	if ms3.Norm(n) == 0 {
		return ms3.Vec{}
	}
	return ms3.Unit(n)
}

func isDegenerate(t ms3.Triangle) bool {
	return ms3.Norm(ms3.Cross(ms3.Sub(t[1], t[0]), ms3.Sub(t[2], t[0]))) == 0
}
