package gfx

// Vertex is one corner of a shared mesh template. Templates live in local
// space (unit quad, unit n-gon); per-occurrence placement, tint and UV
// window come from the Instance stream.
type Vertex struct {
	Pos [2]float32 // local space, centered at origin
	UV  [2]float32 // normalized template UVs, remapped by Instance.UV
}

// VertexStride is the byte size of one Vertex as uploaded to the GPU.
const VertexStride = 4 * 4

// Vertex attribute locations shared by every pipeline. The instanced
// attributes (2..5) advance once per instance.
const (
	AttribPos = 0 // vec2 template position
	AttribUV  = 1 // vec2 template uv

	AttribModelA = 2 // vec4: affine columns (a, b, c, d)
	AttribModelB = 3 // vec4: translation (tx, ty) + padding
	AttribColor  = 4 // vec4 instance tint
	AttribUVRect = 5 // vec4 (u0, v0, u1, v1)
)
