package gfx

import "github.com/ember2d/ember/engine/colors"

// MeshID names a static vertex/index template registered with a Device.
type MeshID int

// TextureID names a registered texture. Ids are monotonically increasing
// and never reused within a session, so a stale id can be detected rather
// than aliasing a newer texture. Id 0 is reserved for the 1x1 white
// default texture every Device creates at init.
type TextureID int

// WhiteTexture is the built-in 1x1 white texture bound for untextured
// primitives, so solid shapes share the texture batch key.
const WhiteTexture TextureID = 0

// PipelineID names a compiled shader program plus fixed state. Id 0 is the
// default alpha-blended primitive pipeline every Device creates at init.
type PipelineID int

// DefaultPipeline renders the fixed instanced attribute layout with alpha
// blending and a single bound texture.
const DefaultPipeline PipelineID = 0

// Caps reports what the selected backend can do. Queried once at startup;
// the frame driver picks its draw strategy from it instead of branching on
// platform strings per call.
type Caps struct {
	Instancing     bool
	MaxTextureSize int
}

// PipelineDesc describes a custom shader program. Sources are opaque to
// the core; the only contract is the fixed vertex-attribute layout
// (AttribPos..AttribUVRect) and a single texture + camera binding.
type PipelineDesc struct {
	// VertexSource / FragmentSource hold backend shader text: GLSL for the
	// GL device, WGSL (both stages in VertexSource) for the WebGPU device.
	VertexSource   string
	FragmentSource string
	Blend          bool
}

// DrawCall is one batch: Count instances starting at First within the
// frame's uploaded instance arena, drawn with a single mesh/texture/
// pipeline binding.
type DrawCall struct {
	Mesh     MeshID
	Texture  TextureID
	Pipeline PipelineID
	First    int
	Count    int
}

// Device is the backend abstraction the render core drives. Exactly one
// Device exists per window; it is the explicit render context threaded
// through every core operation (no ambient globals).
//
// Calls are not safe for concurrent use: the engine runs a single-threaded
// frame loop on a locked OS thread. BeginFrame and EndFrame are the only
// operations that may block (surface acquire, submit/present).
//
// Using a Device after Shutdown is a contract violation and panics.
type Device interface {
	Caps() Caps

	// RegisterMesh uploads a static vertex/index template. Meshes are
	// immutable after registration and shared by all instances drawn
	// against them.
	RegisterMesh(verts []Vertex, indices []uint16) (MeshID, error)

	// RegisterTexture uploads tightly packed RGBA8 pixels and returns a
	// stable id. ReleaseTexture defers GPU destruction until no in-flight
	// frame can still reference the id; the id itself is never reused.
	RegisterTexture(pixels []byte, width, height int) (TextureID, error)
	ReleaseTexture(id TextureID)

	// CreatePipeline compiles a custom shader program against the fixed
	// attribute layout.
	CreatePipeline(desc PipelineDesc) (PipelineID, error)

	// SetCamera uploads the view-projection matrix (column-major) used by
	// every draw of the current frame.
	SetCamera(viewProj [16]float32)

	// Resize reconfigures the surface to the new drawable size. Called at
	// frame boundaries only, never mid-frame.
	Resize(width, height int)

	// BeginFrame acquires the surface target for this frame. Returns
	// ErrSurfaceUnavailable when acquisition fails; the caller skips the
	// frame and retries next tick.
	BeginFrame() error

	// Clear fills the acquired target. Must precede any Draw of the frame.
	Clear(c colors.Color)

	// UploadInstances copies the frame's whole instance arena into
	// GPU-visible memory. The backend double-buffers the destination so
	// the previous frame's in-flight reads are never clobbered. Returns
	// ErrBufferAllocationFailed if the backing buffer cannot grow.
	UploadInstances(instances []Instance) error

	// Draw issues one batch against the arena uploaded this frame.
	// A Count of 1 must work without hardware instancing (the driver's
	// fallback path relies on it). Returns ErrTextureNotFound for stale
	// texture ids.
	Draw(call DrawCall) error

	// EndFrame submits the recorded commands and presents.
	EndFrame() error

	// AbortFrame discards a begun frame without presenting. The surface
	// target is released and the device returns to its idle state.
	AbortFrame()

	Shutdown()
}
