package main

import (
	"flag"
	"log"
	"time"

	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/core"
	"github.com/ember2d/ember/engine/gfx"
	glbackend "github.com/ember2d/ember/engine/gfx/gl"
	"github.com/ember2d/ember/engine/gfx/renderer2d"
	"github.com/ember2d/ember/engine/gfx/webgpu"
	"github.com/ember2d/ember/engine/platform"
	"github.com/ember2d/ember/engine/text"
)

var (
	backendFlag = flag.String("backend", "gl", "rendering backend: gl or webgpu")
	noInstFlag  = flag.Bool("no-instancing", false, "force the one-draw-per-instance fallback")
)

type App struct {
	r2d        *renderer2d.Renderer2D
	font       *text.Font
	layer      *Layer2D
	debugLayer *LayerDebug
	clear      colors.Color
	lastFrame  time.Time
	tick       int
}

func (a *App) OnStart(e *core.Engine) {
	var err error
	a.r2d, err = renderer2d.New(e.Driver)
	if err != nil {
		panic(err)
	}

	// Font is optional in the sandbox; the debug overlay degrades to bare
	// quads without it.
	a.font, err = text.LoadTTF(e.Device, "RobotoMono.ttf", 32)
	if err != nil {
		log.Printf("font unavailable, overlay text disabled: %v", err)
	}

	a.layer = &Layer2D{r2d: a.r2d}
	e.PushLayer(a.layer)

	a.debugLayer = &LayerDebug{r2d: a.r2d, font: a.font, world: a.layer}
	e.PushLayer(a.debugLayer)
}

func (a *App) OnUpdate(e *core.Engine, dt float64) {
	a.tick++
	now := time.Now()
	if !a.lastFrame.IsZero() {
		a.debugLayer.frameDuration = float32(now.Sub(a.lastFrame).Seconds() * 1000.0)
		a.debugLayer.tick = a.tick
	}
	a.lastFrame = now
}

func (a *App) OnRender(e *core.Engine, alpha float64) {
	if err := a.r2d.BeginScene(a.layer.cam, a.clear); err != nil {
		if core.SkipFrame(err) {
			return
		}
		log.Printf("begin frame: %v", err)
		return
	}
	e.Layers.ForEach(func(l core.Layer) { l.OnRender(e, alpha) })
	if err := a.r2d.EndScene(); err != nil {
		log.Printf("end frame: %v", err)
	}
}

func (a *App) OnEvent(e *core.Engine, ev core.Event) {}

func (a *App) OnShutdown(e *core.Engine) {
	if a.font != nil {
		a.font.Release()
	}
}

func main() {
	flag.Parse()

	cfg := core.Config{
		Title:             "Ember Sandbox",
		Width:             1280,
		Height:            720,
		VSync:             true,
		ClearColor:        colors.DarkGray,
		Backend:           *backendFlag,
		DisableInstancing: *noInstFlag,
	}
	app := &App{clear: cfg.ClearColor}

	var win *platform.GLFWWindow
	newWindow := func(cfg core.Config) (core.Window, error) {
		var err error
		if cfg.Backend == "webgpu" {
			win, err = platform.NewWGPUWindow(cfg)
		} else {
			win, err = platform.NewGLWindow(cfg)
		}
		return win, err
	}
	newDevice := func(_ core.Window, cfg core.Config) (gfx.Device, error) {
		if cfg.Backend == "webgpu" {
			w, h := win.FramebufferSize()
			return webgpu.New(win.Handle(), w, h, cfg.VSync, cfg.DisableInstancing)
		}
		return glbackend.New(win, cfg.DisableInstancing)
	}

	if err := core.Run(app, cfg, newWindow, newDevice); err != nil {
		log.Fatal(err)
	}
}
