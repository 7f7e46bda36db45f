// Package gfxtest provides an in-memory gfx.Device for exercising the
// render core without a window or GPU.
package gfxtest

import (
	"fmt"

	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/gfx"
)

// Mesh is a registered template kept for assertions.
type Mesh struct {
	Verts   []gfx.Vertex
	Indices []uint16
}

// Device records every call made against it. Failure injection fields may
// be set between frames; the zero value (plus New) behaves like a healthy
// instancing backend.
type Device struct {
	CapsVal gfx.Caps

	// Failure injection.
	BeginErr  error // returned once by BeginFrame, then cleared
	UploadErr error // returned once by UploadInstances, then cleared

	Meshes    []Mesh
	Textures  map[gfx.TextureID]bool
	Pipelines []gfx.PipelineDesc

	Draws    []gfx.DrawCall
	Uploaded []gfx.Instance // copy of the last non-empty upload
	Camera   [16]float32
	Cleared  []colors.Color
	Resizes  [][2]int

	Begins    int
	Ends      int
	Aborts    int
	Open      bool
	Shutdowns int

	nextTex gfx.TextureID
}

// New returns a device with instancing on and the standard built-ins
// registered: white texture 0 and default pipeline 0.
func New() *Device {
	d := &Device{
		CapsVal:  gfx.Caps{Instancing: true, MaxTextureSize: 4096},
		Textures: make(map[gfx.TextureID]bool),
	}
	d.Pipelines = append(d.Pipelines, gfx.PipelineDesc{})
	d.Textures[d.nextTex] = true
	d.nextTex++
	return d
}

func (d *Device) Caps() gfx.Caps { return d.CapsVal }

func (d *Device) RegisterMesh(verts []gfx.Vertex, indices []uint16) (gfx.MeshID, error) {
	d.Meshes = append(d.Meshes, Mesh{Verts: verts, Indices: indices})
	return gfx.MeshID(len(d.Meshes) - 1), nil
}

func (d *Device) RegisterTexture(pixels []byte, w, h int) (gfx.TextureID, error) {
	if len(pixels) != w*h*4 {
		return 0, fmt.Errorf("texture %dx%d: pixel data size %d", w, h, len(pixels))
	}
	id := d.nextTex
	d.nextTex++
	d.Textures[id] = true
	return id, nil
}

func (d *Device) ReleaseTexture(id gfx.TextureID) { delete(d.Textures, id) }

func (d *Device) CreatePipeline(desc gfx.PipelineDesc) (gfx.PipelineID, error) {
	d.Pipelines = append(d.Pipelines, desc)
	return gfx.PipelineID(len(d.Pipelines) - 1), nil
}

func (d *Device) SetCamera(viewProj [16]float32) { d.Camera = viewProj }

func (d *Device) Resize(w, h int) { d.Resizes = append(d.Resizes, [2]int{w, h}) }

func (d *Device) BeginFrame() error {
	if d.BeginErr != nil {
		err := d.BeginErr
		d.BeginErr = nil
		return err
	}
	d.Begins++
	d.Open = true
	return nil
}

func (d *Device) Clear(c colors.Color) { d.Cleared = append(d.Cleared, c) }

func (d *Device) UploadInstances(instances []gfx.Instance) error {
	if d.UploadErr != nil {
		err := d.UploadErr
		d.UploadErr = nil
		return err
	}
	if len(instances) > 0 {
		d.Uploaded = append(d.Uploaded[:0], instances...)
	}
	return nil
}

func (d *Device) Draw(call gfx.DrawCall) error {
	if !d.Textures[call.Texture] {
		return fmt.Errorf("texture %d: %w", call.Texture, gfx.ErrTextureNotFound)
	}
	d.Draws = append(d.Draws, call)
	return nil
}

func (d *Device) EndFrame() error {
	d.Ends++
	d.Open = false
	return nil
}

func (d *Device) AbortFrame() {
	d.Aborts++
	d.Open = false
}

func (d *Device) Shutdown() { d.Shutdowns++ }
