package gfx

import (
	"errors"
	"fmt"
	"log"

	"github.com/ember2d/ember/engine/colors"
)

// framePhase tracks where the driver is inside one frame. The submission
// phase (Recording) and the replay inside End never overlap for a frame:
// submissions are CPU-side appends, and the device only sees them after
// the batcher is finalized.
type framePhase int

const (
	phaseIdle framePhase = iota
	phaseAcquired
	phaseCleared
	phaseRecording
	phaseSubmitted
)

// Driver owns the per-frame lifecycle: acquire the surface, clear, record
// submissions into the batcher, then replay the ordered batch list as draw
// calls and present.
//
// Surface loss at Begin is recoverable (the frame is skipped); calling the
// lifecycle out of order is a programming error and panics.
type Driver struct {
	dev     Device
	batcher *Batcher
	phase   framePhase

	// resize observed between frames, applied at the next Begin.
	pendingResize bool
	resizeW       int
	resizeH       int

	stats FrameStats
}

// FrameStats counts the work of the most recently completed frame.
type FrameStats struct {
	Instances int
	Batches   int
	DrawCalls int
}

// NewDriver wires a device to a fresh batcher.
func NewDriver(dev Device) *Driver {
	return &Driver{dev: dev, batcher: NewBatcher(1024)}
}

// Device returns the underlying render context.
func (d *Driver) Device() Device { return d.dev }

// QueueResize records a new drawable size. It is applied at the start of
// the next frame, never mid-frame, so a resize arriving while a frame is
// recording cannot retroactively change that frame's output.
func (d *Driver) QueueResize(w, h int) {
	if w < 1 || h < 1 {
		return
	}
	d.pendingResize = true
	d.resizeW, d.resizeH = w, h
}

// Begin starts a frame: applies any pending resize, resets the batcher,
// acquires the surface, clears it and uploads the view-projection matrix.
// Returns ErrSurfaceUnavailable (possibly wrapped) when the surface cannot
// be acquired; the caller skips this tick and retries.
func (d *Driver) Begin(viewProj [16]float32, clear colors.Color) error {
	if d.phase != phaseIdle {
		panic("gfx: Begin called while a frame is in flight")
	}
	if d.pendingResize {
		d.dev.Resize(d.resizeW, d.resizeH)
		d.pendingResize = false
	}
	d.batcher.Reset()

	if err := d.dev.BeginFrame(); err != nil {
		if errors.Is(err, ErrSurfaceUnavailable) {
			return err
		}
		return fmt.Errorf("begin frame: %w", err)
	}
	d.phase = phaseAcquired

	d.dev.Clear(clear)
	d.phase = phaseCleared

	d.dev.SetCamera(viewProj)
	d.phase = phaseRecording
	return nil
}

// Submit records one instance for the current frame. Only legal between
// Begin and End.
func (d *Driver) Submit(inst Instance, mesh MeshID, texture TextureID, pipeline PipelineID) {
	if d.phase != phaseRecording {
		panic("gfx: Submit outside of a recording frame")
	}
	d.batcher.Submit(inst, mesh, texture, pipeline)
}

// End finalizes the batch list, uploads the instance arena once, replays
// the batches in submission order and presents.
//
// A stale texture id skips that batch with a log line and the frame
// continues. An upload failure aborts the frame's remaining draws cleanly.
func (d *Driver) End() error {
	if d.phase != phaseRecording {
		panic("gfx: End without a recording frame")
	}

	batches := d.batcher.Batches()
	d.stats = FrameStats{Instances: d.batcher.Len(), Batches: len(batches)}

	if err := d.dev.UploadInstances(d.batcher.Instances()); err != nil {
		d.dev.AbortFrame()
		d.phase = phaseIdle
		return fmt.Errorf("upload instances: %w", err)
	}

	instanced := d.dev.Caps().Instancing
	for _, batch := range batches {
		if err := d.drawBatch(batch, instanced); err != nil {
			if errors.Is(err, ErrTextureNotFound) {
				log.Printf("gfx: skipping batch, texture %d not found", batch.Texture)
				continue
			}
			d.dev.AbortFrame()
			d.phase = phaseIdle
			return fmt.Errorf("draw batch: %w", err)
		}
	}
	d.phase = phaseSubmitted

	if err := d.dev.EndFrame(); err != nil {
		d.phase = phaseIdle
		return fmt.Errorf("end frame: %w", err)
	}
	d.phase = phaseIdle
	return nil
}

// drawBatch issues one batch, or — when the backend cannot instance — one
// draw call per instance with state bound once up front. The fallback is a
// capability decision, not an error path, and produces identical pixels.
func (d *Driver) drawBatch(batch Batch, instanced bool) error {
	if instanced {
		d.stats.DrawCalls++
		return d.dev.Draw(DrawCall{
			Mesh:     batch.Mesh,
			Texture:  batch.Texture,
			Pipeline: batch.Pipeline,
			First:    batch.First,
			Count:    batch.Count,
		})
	}
	for i := 0; i < batch.Count; i++ {
		d.stats.DrawCalls++
		err := d.dev.Draw(DrawCall{
			Mesh:     batch.Mesh,
			Texture:  batch.Texture,
			Pipeline: batch.Pipeline,
			First:    batch.First + i,
			Count:    1,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Abandon discards a begun frame without presenting: recorded submissions
// are dropped and the device releases its surface target. The driver is
// back in its idle state afterwards; the next Begin starts a clean frame.
func (d *Driver) Abandon() {
	if d.phase == phaseIdle {
		return
	}
	d.dev.AbortFrame()
	d.batcher.Reset()
	d.phase = phaseIdle
}

// Stats returns the counters of the last completed frame.
func (d *Driver) Stats() FrameStats { return d.stats }

// InstanceCap exposes the arena capacity, useful for asserting the
// grow-only buffer policy.
func (d *Driver) InstanceCap() int { return d.batcher.Cap() }
