package main

import (
	"github.com/ember2d/ember/engine/assets"
	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/core"
	"github.com/ember2d/ember/engine/gfx"
	"github.com/ember2d/ember/engine/gfx/renderer2d"
	"github.com/ember2d/ember/engine/scene"
)

// Layer2D is the demo scene: a camera with WASD/zoom controls, a sprite,
// some primitives, and a stress grid toggled with Space.
type Layer2D struct {
	cam    *scene.Camera2D
	ctrl   *scene.Controller2D
	r2d    *renderer2d.Renderer2D
	tex    gfx.TextureID
	sprite renderer2d.SubTexture2D
	t      float32
	stress bool
}

func (l *Layer2D) OnAttach(e *core.Engine) {
	w, h := e.Window.FramebufferSize()
	l.cam = scene.NewCamera2D(w, h)
	l.ctrl = scene.NewController2D(l.cam)

	tex, tw, th, err := assets.LoadTexture(e.Device, "player.png")
	if err != nil {
		// No asset dir next to the binary; a generated checkerboard keeps
		// the textured paths exercised.
		tex, tw, th = checkerboard(e.Device, 64)
	}
	l.tex = tex
	l.sprite = renderer2d.FromPixels(l.tex, 0, 0, tw, th, tw, th)
}

func (l *Layer2D) OnDetach(e *core.Engine) {
	e.Device.ReleaseTexture(l.tex)
}

func (l *Layer2D) OnUpdate(e *core.Engine, dt float64) {
	l.ctrl.Update(e, float32(dt))
	l.t += float32(dt)

	if e.Input.IsKeyDown(core.KeyEscape) {
		e.Window.RequestClose()
	}
	w, h := e.Window.FramebufferSize()
	l.cam.SetViewport(w, h)
}

func (l *Layer2D) OnRender(e *core.Engine, alpha float64) {
	// Spinning sprite at the origin.
	l.r2d.DrawSubTexQuad(0, 0, 128, 128, l.sprite, colors.White, l.t)

	// Builder-style submissions.
	l.r2d.Rect().
		At(-240, 0).
		Size(96, 96).
		Color(colors.Cyan.WithAlpha(0.8)).
		Rotate(-l.t * 0.5).
		Submit()
	l.r2d.Rect().
		At(240, -48).
		Size(96, 96).
		Anchor(renderer2d.AnchorTopLeft).
		Texture(l.tex).
		Submit()

	if err := l.r2d.Circle().At(0, -200).Radius(48).Segments(48).Color(colors.Orange).Submit(); err != nil {
		panic(err)
	}
	if err := l.r2d.DrawCircle(0, 200, 32, 6, colors.Magenta); err != nil {
		panic(err)
	}

	if l.stress {
		for y := 0; y < 100; y++ {
			for x := 0; x < 100; x++ {
				px := float32(x)*12 - 600
				py := float32(y)*12 - 600
				c := colors.Color{float32(x) / 100, float32(y) / 100, 0.8, 1}
				l.r2d.DrawQuad(px, py, 10, 10, c, l.t)
			}
		}
	}
}

func (l *Layer2D) OnEvent(e *core.Engine, ev core.Event) bool {
	if k, ok := ev.(core.EventKey); ok && k.Down && k.Key == core.KeySpace {
		l.stress = !l.stress
		return true
	}
	return false
}

// checkerboard registers a size x size two-tone test texture.
func checkerboard(dev gfx.Device, size int) (gfx.TextureID, int, int) {
	pixels := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := (y*size + x) * 4
			if (x/8+y/8)%2 == 0 {
				pixels[i], pixels[i+1], pixels[i+2] = 0xe0, 0xe0, 0xe0
			} else {
				pixels[i], pixels[i+1], pixels[i+2] = 0x60, 0x30, 0x90
			}
			pixels[i+3] = 0xff
		}
	}
	id, err := dev.RegisterTexture(pixels, size, size)
	if err != nil {
		panic(err)
	}
	return id, size, size
}
