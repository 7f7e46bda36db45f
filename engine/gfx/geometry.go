package gfx

import (
	"fmt"
	"math"
)

// Geometry owns the shared vertex templates primitives are instanced
// against. Each template is computed once, registered with the device
// once, and reused by every instance of that primitive kind; per-call work
// is limited to producing one Instance record. This is what keeps
// hundreds of thousands of rects per frame cheap on the CPU.
type Geometry struct {
	dev     Device
	quad    MeshID
	circles map[int]MeshID // segment count -> mesh
}

// NewGeometry registers the unit quad template and prepares the n-gon
// cache.
func NewGeometry(dev Device) (*Geometry, error) {
	quad, err := dev.RegisterMesh(quadVerts(), quadIndices())
	if err != nil {
		return nil, fmt.Errorf("register quad mesh: %w", err)
	}
	return &Geometry{
		dev:     dev,
		quad:    quad,
		circles: make(map[int]MeshID, 8),
	}, nil
}

// QuadMesh returns the unit square template used by rects, textured quads
// and glyph quads.
func (g *Geometry) QuadMesh() MeshID { return g.quad }

// CircleMesh returns the unit n-gon template for the given wedge count,
// registering it on first use. Fewer than 3 segments cannot form an area
// and fails with ErrInvalidPrimitiveParameter; no silent clamping.
func (g *Geometry) CircleMesh(segments int) (MeshID, error) {
	if segments < 3 {
		return 0, fmt.Errorf("%w: circle needs >= 3 segments, got %d", ErrInvalidPrimitiveParameter, segments)
	}
	if id, ok := g.circles[segments]; ok {
		return id, nil
	}
	verts, indices := ngon(segments)
	id, err := g.dev.RegisterMesh(verts, indices)
	if err != nil {
		return 0, fmt.Errorf("register %d-gon mesh: %w", segments, err)
	}
	g.circles[segments] = id
	return id, nil
}

// quadVerts is the unit square centered at origin, corners TL, TR, BL, BR.
// Positive Y goes down to match the 2D projection, so the top edge is at
// -0.5.
func quadVerts() []Vertex {
	return []Vertex{
		{Pos: [2]float32{-0.5, -0.5}, UV: [2]float32{0, 0}},
		{Pos: [2]float32{0.5, -0.5}, UV: [2]float32{1, 0}},
		{Pos: [2]float32{-0.5, 0.5}, UV: [2]float32{0, 1}},
		{Pos: [2]float32{0.5, 0.5}, UV: [2]float32{1, 1}},
	}
}

func quadIndices() []uint16 {
	return []uint16{0, 2, 1, 1, 2, 3}
}

// ngon triangulates a unit circle into segments equal wedges around a
// center vertex: segments+1 vertices, 3*segments indices. Template UVs map
// the circle's bounding square onto [0,1].
func ngon(segments int) ([]Vertex, []uint16) {
	verts := make([]Vertex, 0, segments+1)
	verts = append(verts, Vertex{Pos: [2]float32{0, 0}, UV: [2]float32{0.5, 0.5}})
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		x := float32(math.Cos(a)) * 0.5
		y := float32(math.Sin(a)) * 0.5
		verts = append(verts, Vertex{
			Pos: [2]float32{x, y},
			UV:  [2]float32{x + 0.5, y + 0.5},
		})
	}

	indices := make([]uint16, 0, 3*segments)
	for i := 0; i < segments; i++ {
		next := i + 1
		if next == segments {
			next = 0
		}
		indices = append(indices, 0, uint16(1+i), uint16(1+next))
	}
	return verts, indices
}
