package gfx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/gfx"
	"github.com/ember2d/ember/engine/gfx/gfxtest"
)

var identity = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

func beginFrame(t *testing.T, d *gfx.Driver) {
	t.Helper()
	require.NoError(t, d.Begin(identity, colors.Black))
}

func TestDriverFrameLifecycle(t *testing.T) {
	dev := gfxtest.New()
	d := gfx.NewDriver(dev)

	beginFrame(t, d)
	d.Submit(gfx.Instance{}, 0, gfx.WhiteTexture, gfx.DefaultPipeline)
	d.Submit(gfx.Instance{}, 0, gfx.WhiteTexture, gfx.DefaultPipeline)
	require.NoError(t, d.End())

	assert.Equal(t, 1, dev.Begins)
	assert.Equal(t, 1, dev.Ends)
	assert.Equal(t, identity, dev.Camera)
	assert.Equal(t, []colors.Color{colors.Black}, dev.Cleared)
	require.Len(t, dev.Draws, 1)
	assert.Equal(t, gfx.DrawCall{Mesh: 0, Texture: gfx.WhiteTexture, First: 0, Count: 2}, dev.Draws[0])

	stats := d.Stats()
	assert.Equal(t, gfx.FrameStats{Instances: 2, Batches: 1, DrawCalls: 1}, stats)
}

func TestDriverEmptyFrame(t *testing.T) {
	// Begin immediately followed by End is valid: the frame presents with
	// only the clear.
	dev := gfxtest.New()
	d := gfx.NewDriver(dev)

	beginFrame(t, d)
	require.NoError(t, d.End())

	assert.Empty(t, dev.Draws)
	assert.Equal(t, 1, dev.Ends)
	assert.Equal(t, gfx.FrameStats{}, d.Stats())
}

func TestDriverSurfaceLossSkipsFrame(t *testing.T) {
	dev := gfxtest.New()
	dev.BeginErr = gfx.ErrSurfaceUnavailable
	d := gfx.NewDriver(dev)

	err := d.Begin(identity, colors.Black)
	require.ErrorIs(t, err, gfx.ErrSurfaceUnavailable)

	// The next tick recovers without any reset ceremony.
	beginFrame(t, d)
	require.NoError(t, d.End())
	assert.Equal(t, 1, dev.Ends)
}

func TestDriverUploadFailureAbortsFrame(t *testing.T) {
	dev := gfxtest.New()
	d := gfx.NewDriver(dev)

	beginFrame(t, d)
	d.Submit(gfx.Instance{}, 0, gfx.WhiteTexture, gfx.DefaultPipeline)
	dev.UploadErr = gfx.ErrBufferAllocationFailed
	err := d.End()
	require.ErrorIs(t, err, gfx.ErrBufferAllocationFailed)

	assert.Equal(t, 1, dev.Aborts)
	assert.Equal(t, 0, dev.Ends)
	assert.Empty(t, dev.Draws)

	// Driver is idle again.
	beginFrame(t, d)
	require.NoError(t, d.End())
}

func TestDriverStaleTextureSkipsBatchAndContinues(t *testing.T) {
	dev := gfxtest.New()
	d := gfx.NewDriver(dev)
	tex, err := dev.RegisterTexture(make([]byte, 4), 1, 1)
	require.NoError(t, err)
	dev.ReleaseTexture(tex)

	beginFrame(t, d)
	d.Submit(gfx.Instance{}, 0, gfx.WhiteTexture, gfx.DefaultPipeline)
	d.Submit(gfx.Instance{}, 0, tex, gfx.DefaultPipeline)
	d.Submit(gfx.Instance{}, 0, gfx.WhiteTexture, gfx.DefaultPipeline)
	require.NoError(t, d.End())

	// The stale middle batch is dropped; its neighbors still draw, still
	// as separate batches.
	require.Len(t, dev.Draws, 2)
	assert.Equal(t, gfx.WhiteTexture, dev.Draws[0].Texture)
	assert.Equal(t, gfx.WhiteTexture, dev.Draws[1].Texture)
	assert.Equal(t, 1, dev.Ends)
}

func TestDriverAbandonDiscardsFrame(t *testing.T) {
	dev := gfxtest.New()
	d := gfx.NewDriver(dev)

	beginFrame(t, d)
	d.Submit(gfx.Instance{}, 0, gfx.WhiteTexture, gfx.DefaultPipeline)
	d.Abandon()

	assert.Equal(t, 1, dev.Aborts)
	assert.Equal(t, 0, dev.Ends)
	assert.Empty(t, dev.Draws)

	// Abandon on an idle driver is a no-op.
	d.Abandon()
	assert.Equal(t, 1, dev.Aborts)

	beginFrame(t, d)
	require.NoError(t, d.End())
	assert.Equal(t, gfx.FrameStats{}, d.Stats(), "abandoned submissions must not leak into the next frame")
}

func TestDriverFallbackDrawsPerInstance(t *testing.T) {
	dev := gfxtest.New()
	dev.CapsVal.Instancing = false
	d := gfx.NewDriver(dev)

	beginFrame(t, d)
	for i := 0; i < 3; i++ {
		d.Submit(gfx.Instance{}, 0, gfx.WhiteTexture, gfx.DefaultPipeline)
	}
	d.Submit(gfx.Instance{}, 0, 0, 1)
	require.NoError(t, d.End())

	// 3+1 instances become 4 single-instance draws covering the same
	// ranges in the same order.
	require.Len(t, dev.Draws, 4)
	for i, call := range dev.Draws {
		assert.Equal(t, 1, call.Count)
		assert.Equal(t, i, call.First)
	}
	assert.Equal(t, gfx.FrameStats{Instances: 4, Batches: 2, DrawCalls: 4}, d.Stats())
}

func TestDriverResizeAppliedAtNextBegin(t *testing.T) {
	dev := gfxtest.New()
	d := gfx.NewDriver(dev)

	d.QueueResize(800, 600)
	d.QueueResize(1024, 768) // latest wins
	assert.Empty(t, dev.Resizes)

	beginFrame(t, d)
	require.Equal(t, [][2]int{{1024, 768}}, dev.Resizes)
	require.NoError(t, d.End())

	// Consumed: the next frame does not re-apply it.
	beginFrame(t, d)
	assert.Len(t, dev.Resizes, 1)
	require.NoError(t, d.End())

	// Degenerate sizes are ignored.
	d.QueueResize(0, 600)
	beginFrame(t, d)
	assert.Len(t, dev.Resizes, 1)
	require.NoError(t, d.End())
}

func TestDriverLifecyclePanics(t *testing.T) {
	dev := gfxtest.New()
	d := gfx.NewDriver(dev)

	assert.Panics(t, func() { d.Submit(gfx.Instance{}, 0, 0, 0) })
	assert.Panics(t, func() { _ = d.End() })

	beginFrame(t, d)
	assert.Panics(t, func() { _ = d.Begin(identity, colors.Black) })
	require.NoError(t, d.End())
}

func TestDriverUploadsWholeArenaOnce(t *testing.T) {
	dev := gfxtest.New()
	d := gfx.NewDriver(dev)

	beginFrame(t, d)
	for i := 0; i < 5; i++ {
		d.Submit(gfx.NewInstance(float32(i), 0, 1, 1, 0, colors.White, 0, 0, 1, 1), 0, gfx.WhiteTexture, gfx.DefaultPipeline)
	}
	d.Submit(gfx.Instance{}, 0, 0, 1)
	require.NoError(t, d.End())

	require.Len(t, dev.Uploaded, 6)
	assert.Equal(t, float32(3), dev.Uploaded[3].Model[4], "arena preserves submission order")
}
