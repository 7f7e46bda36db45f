package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidCameraState flags camera parameters that cannot form a valid
// projection (zoom <= 0, empty viewport).
var ErrInvalidCameraState = errors.New("scene: invalid camera state")

// Camera2D is an orthographic camera defined by a world-space center
// position, a zoom factor and the viewport size in pixels. Screen space is
// Y-down with the origin at the top-left corner; world space is Y-down as
// well, matching the renderer's quad winding.
//
// The view-projection matrix is a pure function of (position, zoom,
// viewport) and is recomputed whenever any of them changes. It is read
// once per frame at scene begin, so a resize applied at a frame boundary
// affects exactly the frames after it.
type Camera2D struct {
	X, Y float32
	zoom float32
	w, h int

	vp    mgl32.Mat4
	inv   mgl32.Mat4
	dirty bool
}

// NewCamera2D creates a camera centered on the origin with zoom 1.
func NewCamera2D(viewportW, viewportH int) *Camera2D {
	c := &Camera2D{zoom: 1, w: viewportW, h: viewportH, dirty: true}
	return c
}

// SetPosition moves the camera center to (x, y) in world space.
func (c *Camera2D) SetPosition(x, y float32) {
	c.X, c.Y = x, y
	c.dirty = true
}

// Move shifts the camera center by (dx, dy).
func (c *Camera2D) Move(dx, dy float32) {
	c.X += dx
	c.Y += dy
	c.dirty = true
}

// Zoom returns the current zoom factor.
func (c *Camera2D) Zoom() float32 { return c.zoom }

// SetZoom sets the zoom factor. Values <= 0 cannot form a projection and
// fail with ErrInvalidCameraState; the previous zoom is kept.
func (c *Camera2D) SetZoom(z float32) error {
	if z <= 0 {
		return fmt.Errorf("%w: zoom %v must be > 0", ErrInvalidCameraState, z)
	}
	c.zoom = z
	c.dirty = true
	return nil
}

// SetViewport updates the drawable size in pixels. Called when the window
// resize is applied at a frame boundary; the matrix is never left stale.
func (c *Camera2D) SetViewport(w, h int) {
	if w < 1 || h < 1 {
		return
	}
	c.w, c.h = w, h
	c.dirty = true
}

// Viewport returns the current drawable size in pixels.
func (c *Camera2D) Viewport() (int, int) { return c.w, c.h }

// ViewProjection returns the column-major view-projection matrix mapping
// world space to normalized device coordinates.
func (c *Camera2D) ViewProjection() [16]float32 {
	c.recalculate()
	var out [16]float32
	copy(out[:], c.vp[:])
	return out
}

// WorldToScreen maps a world-space point to pixel coordinates (origin
// top-left, Y-down).
func (c *Camera2D) WorldToScreen(wx, wy float32) (float32, float32) {
	c.recalculate()
	ndc := c.vp.Mul4x1(mgl32.Vec4{wx, wy, 0, 1})
	sx := (ndc.X() + 1) * 0.5 * float32(c.w)
	sy := (1 - ndc.Y()) * 0.5 * float32(c.h)
	return sx, sy
}

// ScreenToWorld is the exact inverse of WorldToScreen for the current
// camera state.
func (c *Camera2D) ScreenToWorld(sx, sy float32) (float32, float32) {
	c.recalculate()
	nx := sx/float32(c.w)*2 - 1
	ny := 1 - sy/float32(c.h)*2
	world := c.inv.Mul4x1(mgl32.Vec4{nx, ny, 0, 1})
	return world.X(), world.Y()
}

// recalculate rebuilds the matrix pair when position, zoom or viewport
// changed. Half extents shrink as zoom grows, so zoom > 1 magnifies.
func (c *Camera2D) recalculate() {
	if !c.dirty {
		return
	}
	halfW := float32(c.w) * 0.5 / c.zoom
	halfH := float32(c.h) * 0.5 / c.zoom

	// Y-down: world +Y maps to screen-down, so bottom/top are swapped
	// relative to the GL convention.
	proj := mgl32.Ortho(
		c.X-halfW, c.X+halfW,
		c.Y+halfH, c.Y-halfH,
		-1, 1,
	)
	c.vp = proj
	c.inv = proj.Inv()
	c.dirty = false
}
