package core

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/ember2d/ember/engine/gfx"
)

// Run wires the platform window + device and executes the main loop.
//
// The loop is single-threaded and cooperative: one tick drives submission,
// batching, upload, draw and present in order. The only blocking points
// are inside the device's BeginFrame (surface acquire) and EndFrame
// (submit/present).
func Run(app App, cfg Config, newWindow func(Config) (Window, error), newDevice func(Window, Config) (gfx.Device, error)) error {
	// Graphics contexts require the main OS thread.
	runtime.LockOSThread()

	win, err := newWindow(cfg)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}

	dev, err := newDevice(win, cfg)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	defer dev.Shutdown()

	eng := &Engine{
		Window: win,
		Device: dev,
		Driver: gfx.NewDriver(dev),
		Input:  NewInput(),
		start:  time.Now(),
	}

	w, h := win.FramebufferSize()
	eng.Driver.QueueResize(w, h)

	win.SetEventCallback(func(ev Event) {
		eng.Input.Handle(ev)
		if rz, ok := ev.(EventResize); ok {
			// Applied at the next frame boundary, never mid-frame.
			eng.Driver.QueueResize(rz.W, rz.H)
		}
		app.OnEvent(eng, ev)
		eng.Layers.ForEachReverse(func(l Layer) bool {
			return l.OnEvent(eng, ev)
		})
	})

	app.OnStart(eng)

	// Fixed-timestep (60 Hz) with interpolation.
	const tick = time.Second / 60
	var (
		accum   time.Duration
		prev    = time.Now()
		maxStep = 10 // prevent spiral of death
	)

	for !win.ShouldClose() {
		now := time.Now()
		accum += now.Sub(prev)
		prev = now

		win.PollEvents()

		steps := 0
		for accum >= tick && steps < maxStep {
			dt := float64(tick) / float64(time.Second)
			app.OnUpdate(eng, dt)
			eng.Layers.ForEach(func(l Layer) { l.OnUpdate(eng, dt) })
			accum -= tick
			steps++
		}
		alpha := float64(accum) / float64(tick)

		// The app brackets the frame (scene begin/end) and drives its
		// layers' rendering inside it; a lost surface skips the tick.
		app.OnRender(eng, alpha)
	}

	app.OnShutdown(eng)
	log.Println("engine exit")
	return nil
}

// SkipFrame reports whether a frame error is the recoverable
// surface-unavailable case that callers handle by waiting for next tick.
func SkipFrame(err error) bool {
	return errors.Is(err, gfx.ErrSurfaceUnavailable)
}
