package scene

import "github.com/ember2d/ember/engine/core"

// Controller2D: WASD pans, Z/X zooms out/in. Pan speed is expressed in
// world units per second at zoom 1 and scaled so on-screen speed stays
// constant while zoomed.
type Controller2D struct {
	MoveSpeed float32
	ZoomRate  float32 // multiplicative per second
	Camera    *Camera2D
}

func NewController2D(cam *Camera2D) *Controller2D {
	return &Controller2D{
		MoveSpeed: 300,
		ZoomRate:  1.5,
		Camera:    cam,
	}
}

func (cc *Controller2D) Update(e *core.Engine, dt float32) {
	in := e.Input
	speed := cc.MoveSpeed * dt / cc.Camera.Zoom()

	if in.IsKeyDown(core.KeyW) {
		cc.Camera.Move(0, -speed)
	}
	if in.IsKeyDown(core.KeyS) {
		cc.Camera.Move(0, speed)
	}
	if in.IsKeyDown(core.KeyA) {
		cc.Camera.Move(-speed, 0)
	}
	if in.IsKeyDown(core.KeyD) {
		cc.Camera.Move(speed, 0)
	}

	zoomStep := 1 + (cc.ZoomRate-1)*dt
	if in.IsKeyDown(core.KeyZ) {
		// Zoom bounds keep the value strictly positive; SetZoom rejects
		// anything else, so the error can only be a programming mistake.
		_ = cc.Camera.SetZoom(cc.Camera.Zoom() / zoomStep)
	}
	if in.IsKeyDown(core.KeyX) {
		_ = cc.Camera.SetZoom(cc.Camera.Zoom() * zoomStep)
	}
}
