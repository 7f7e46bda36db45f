package main

import (
	"fmt"

	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/core"
	"github.com/ember2d/ember/engine/gfx/renderer2d"
	"github.com/ember2d/ember/engine/text"
)

// LayerDebug overlays the previous frame's counters in the top-left
// corner. It draws in the world layer's frame, so the overlay position is
// anchored by converting screen coordinates through the world camera.
type LayerDebug struct {
	r2d           *renderer2d.Renderer2D
	font          *text.Font
	world         *Layer2D
	frameDuration float32
	tick          int
}

func (l *LayerDebug) OnAttach(e *core.Engine)             {}
func (l *LayerDebug) OnDetach(e *core.Engine)             {}
func (l *LayerDebug) OnUpdate(e *core.Engine, dt float64) {}

func (l *LayerDebug) OnRender(e *core.Engine, alpha float64) {
	if l.font == nil {
		return
	}
	stats := l.r2d.Stats()

	fps := float32(0)
	if l.frameDuration > 0 {
		fps = 1000.0 / l.frameDuration
	}
	overlay := fmt.Sprintf(
		"frame %d  %.2f ms (%.0f fps)\ninstances %d\nbatches %d\ndraw calls %d",
		l.tick, l.frameDuration, fps,
		stats.Instances, stats.Batches, stats.DrawCalls,
	)

	x, y := l.world.cam.ScreenToWorld(16, 16)
	text.Draw(l.r2d, l.font, x, y, overlay, colors.Yellow)
}

func (l *LayerDebug) OnEvent(e *core.Engine, ev core.Event) bool { return false }
