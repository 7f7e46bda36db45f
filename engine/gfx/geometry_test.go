package gfx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember2d/ember/engine/gfx"
	"github.com/ember2d/ember/engine/gfx/gfxtest"
)

func TestGeometryQuadTemplate(t *testing.T) {
	dev := gfxtest.New()
	geo, err := gfx.NewGeometry(dev)
	require.NoError(t, err)

	require.Len(t, dev.Meshes, 1)
	quad := dev.Meshes[geo.QuadMesh()]
	assert.Len(t, quad.Verts, 4)
	assert.Len(t, quad.Indices, 6)

	// Unit square centered at origin, Y-down: the top-left corner is
	// (-0.5, -0.5) and carries UV (0, 0).
	assert.Equal(t, [2]float32{-0.5, -0.5}, quad.Verts[0].Pos)
	assert.Equal(t, [2]float32{0, 0}, quad.Verts[0].UV)
	assert.Equal(t, [2]float32{0.5, 0.5}, quad.Verts[3].Pos)
	assert.Equal(t, [2]float32{1, 1}, quad.Verts[3].UV)
}

func TestGeometryCircleTessellation(t *testing.T) {
	dev := gfxtest.New()
	geo, err := gfx.NewGeometry(dev)
	require.NoError(t, err)

	cases := []struct{ segments, verts, indices int }{
		{3, 4, 9},
		{6, 7, 18},
		{32, 33, 96},
	}
	for _, tc := range cases {
		id, err := geo.CircleMesh(tc.segments)
		require.NoError(t, err)
		mesh := dev.Meshes[id]
		assert.Len(t, mesh.Verts, tc.verts)
		assert.Len(t, mesh.Indices, tc.indices)

		// Center vertex first; every wedge fans from it.
		assert.Equal(t, [2]float32{0, 0}, mesh.Verts[0].Pos)
		for i := 0; i < len(mesh.Indices); i += 3 {
			assert.Equal(t, uint16(0), mesh.Indices[i])
		}
	}
}

func TestGeometryCircleMeshCached(t *testing.T) {
	dev := gfxtest.New()
	geo, err := gfx.NewGeometry(dev)
	require.NoError(t, err)

	a, err := geo.CircleMesh(24)
	require.NoError(t, err)
	b, err := geo.CircleMesh(24)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, dev.Meshes, 2, "quad + one 24-gon; the cache hit must not re-register")

	c, err := geo.CircleMesh(25)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
	assert.Len(t, dev.Meshes, 3)
}

func TestGeometryCircleRejectsDegenerateSegments(t *testing.T) {
	dev := gfxtest.New()
	geo, err := gfx.NewGeometry(dev)
	require.NoError(t, err)

	for _, segments := range []int{-1, 0, 1, 2} {
		_, err := geo.CircleMesh(segments)
		assert.ErrorIs(t, err, gfx.ErrInvalidPrimitiveParameter)
	}
	assert.Len(t, dev.Meshes, 1, "rejected parameters must not register meshes")
}
