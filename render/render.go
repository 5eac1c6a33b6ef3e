// Package render extracts triangle meshes from scalar fields with marching
// cubes over a regular grid.
//
// Meshes are written into caller-owned MeshBuffers of fixed capacity and are
// not welded: every cube emits its own vertices. Post-processors run over
// the finished mesh to compute normals or tangents. The package also reads
// and writes binary STL, builds signed distance fields from triangle meshes
// and renders PNG previews.
package render
