package render

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/geometry/ms3"
)

// View configures preview rendering. The mesh is fitted into a bi-unit
// cube centered at the origin before drawing.
type View struct {
	// where the camera/eye located at (point)
	Eye ms3.Vec
	// what position (point) to look at
	LookAt ms3.Vec
	// which way is up (direction)
	Up        ms3.Vec
	Near, Far float64
	// Width and Height of the output image in pixels.
	Width, Height int
	// Supersample renders at this multiple of the output size and
	// downsamples for antialiasing. Values below 1 select 1.
	Supersample int
	// Object color as hex, i.e: "#468966". Empty selects the default.
	Color string
}

// DefaultView is an isometric view from the positive octant.
var DefaultView = View{
	Eye:         ms3.Vec{X: 2.4, Y: 2.4, Z: 2.4},
	Up:          ms3.Vec{Z: 1},
	Near:        1,
	Far:         10,
	Width:       640,
	Height:      480,
	Supersample: 2,
}

// RenderImage draws the mesh in m with a phong shader.
func RenderImage(m *MeshBuffer, view View) (image.Image, error) {
	if view.Width <= 0 || view.Height <= 0 {
		return nil, errors.New("preview: non-positive image size")
	}
	var tris []*fauxgl.Triangle
	for _, t := range m.Triangles() {
		if isDegenerate(t) {
			continue
		}
		tris = append(tris, fauxgl.NewTriangleForPoints(fauxV(t[0]), fauxV(t[1]), fauxV(t[2])))
	}
	if len(tris) == 0 {
		return nil, errors.New("preview: empty mesh")
	}
	mesh := fauxgl.NewTriangleMesh(tris)

	const fovy = 30 // vertical field of view in degrees
	scale := max(view.Supersample, 1)
	objColor := "#468966"
	if view.Color != "" {
		objColor = view.Color
	}
	var (
		eye    = fauxV(view.Eye)
		center = fauxV(view.LookAt)
		up     = fauxV(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)

	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	context := fauxgl.NewContext(view.Width*scale, view.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(objColor)
	context.Shader = shader
	context.DrawMesh(mesh)

	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear)
	}
	return img, nil
}

// RenderPNG renders the mesh in m and saves it as a PNG file at path.
func RenderPNG(path string, m *MeshBuffer, view View) error {
	img, err := RenderImage(m, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

func fauxV(v ms3.Vec) fauxgl.Vector {
	return fauxgl.V(float64(v.X), float64(v.Y), float64(v.Z))
}
