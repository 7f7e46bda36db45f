package renderer2d

import (
	"fmt"

	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/gfx"
	"github.com/ember2d/ember/engine/scene"
)

// Renderer2D is the immediate-mode drawing surface applications use. Every
// Draw* call produces exactly one instance against a shared vertex
// template; the frame driver batches, uploads and replays them at
// EndScene. Geometry for a frame is never known in advance — submissions
// stream in between BeginScene and EndScene.
type Renderer2D struct {
	driver   *gfx.Driver
	geo      *gfx.Geometry
	pipeline gfx.PipelineID
}

// New builds the shared vertex templates on the driver's device.
func New(driver *gfx.Driver) (*Renderer2D, error) {
	geo, err := gfx.NewGeometry(driver.Device())
	if err != nil {
		return nil, fmt.Errorf("renderer2d: %w", err)
	}
	return &Renderer2D{driver: driver, geo: geo, pipeline: gfx.DefaultPipeline}, nil
}

// BeginScene starts the frame with the camera's current view-projection
// and a clear color. On gfx.ErrSurfaceUnavailable the caller skips the
// frame and retries next tick.
func (rd *Renderer2D) BeginScene(cam *scene.Camera2D, clear colors.Color) error {
	return rd.driver.Begin(cam.ViewProjection(), clear)
}

// EndScene flushes the frame: batches are finalized, instances uploaded,
// ordered draw calls issued, and the frame presented.
func (rd *Renderer2D) EndScene() error { return rd.driver.End() }

// AbandonScene drops a begun frame without presenting.
func (rd *Renderer2D) AbandonScene() { rd.driver.Abandon() }

// Stats returns the most recently completed frame's counters.
func (rd *Renderer2D) Stats() gfx.FrameStats { return rd.driver.Stats() }

// SetPipeline routes subsequent submissions through a custom pipeline.
// Pass gfx.DefaultPipeline to restore the built-in one. Pipeline changes
// interleave with submissions in order, so they batch like any other
// state change.
func (rd *Renderer2D) SetPipeline(id gfx.PipelineID) { rd.pipeline = id }

// DrawQuad submits a solid color quad centered at (x, y), rotated by
// rot radians.
func (rd *Renderer2D) DrawQuad(x, y, w, h float32, color colors.Color, rot float32) {
	rd.submitQuad(x, y, w, h, rot, color, gfx.WhiteTexture, 0, 0, 1, 1)
}

// DrawTexturedQuad submits a textured quad with a tint covering the full
// texture.
func (rd *Renderer2D) DrawTexturedQuad(x, y, w, h float32, tex gfx.TextureID, tint colors.Color, rot float32) {
	rd.submitQuad(x, y, w, h, rot, tint, tex, 0, 0, 1, 1)
}

// DrawTexturedQuadUV submits a textured quad sampling the UV sub-rect
// (u0,v0)-(u1,v1).
func (rd *Renderer2D) DrawTexturedQuadUV(x, y, w, h float32, tex gfx.TextureID, tint colors.Color, rot float32, u0, v0, u1, v1 float32) {
	rd.submitQuad(x, y, w, h, rot, tint, tex, u0, v0, u1, v1)
}

// DrawSubTexQuad submits a quad sampling a SubTexture2D region.
func (rd *Renderer2D) DrawSubTexQuad(x, y, w, h float32, sub SubTexture2D, tint colors.Color, rot float32) {
	rd.submitQuad(x, y, w, h, rot, tint, sub.Texture, sub.U0, sub.V0, sub.U1, sub.V1)
}

// DrawCircle submits a filled circle triangulated into segments equal
// wedges. Fewer than 3 segments fails with
// gfx.ErrInvalidPrimitiveParameter.
func (rd *Renderer2D) DrawCircle(x, y, radius float32, segments int, color colors.Color) error {
	mesh, err := rd.geo.CircleMesh(segments)
	if err != nil {
		return err
	}
	d := radius * 2
	rd.driver.Submit(
		gfx.NewInstance(x, y, d, d, 0, color, 0, 0, 1, 1),
		mesh, gfx.WhiteTexture, rd.pipeline,
	)
	return nil
}

func (rd *Renderer2D) submitQuad(x, y, w, h, rot float32, color colors.Color, tex gfx.TextureID, u0, v0, u1, v1 float32) {
	rd.driver.Submit(
		gfx.NewInstance(x, y, w, h, rot, color, u0, v0, u1, v1),
		rd.geo.QuadMesh(), tex, rd.pipeline,
	)
}
