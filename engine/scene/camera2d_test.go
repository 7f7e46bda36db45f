package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCameraDefaultMapsOriginToViewCenter(t *testing.T) {
	c := NewCamera2D(800, 600)

	sx, sy := c.WorldToScreen(0, 0)
	assert.InDelta(t, 400, sx, 1e-3)
	assert.InDelta(t, 300, sy, 1e-3)

	// Y-down: a world point below the center lands lower on screen.
	sx, sy = c.WorldToScreen(10, 10)
	assert.InDelta(t, 410, sx, 1e-3)
	assert.InDelta(t, 310, sy, 1e-3)
}

func TestCameraPanFollowsPosition(t *testing.T) {
	c := NewCamera2D(800, 600)
	c.SetPosition(100, -50)

	sx, sy := c.WorldToScreen(100, -50)
	assert.InDelta(t, 400, sx, 1e-3)
	assert.InDelta(t, 300, sy, 1e-3)

	c.Move(-100, 50)
	sx, sy = c.WorldToScreen(0, 0)
	assert.InDelta(t, 400, sx, 1e-3)
	assert.InDelta(t, 300, sy, 1e-3)
}

func TestCameraZoomMagnifiesAboutCenter(t *testing.T) {
	c := NewCamera2D(800, 600)
	require.NoError(t, c.SetZoom(2))

	// At zoom 2 a world offset of 10 covers 20 pixels.
	sx, sy := c.WorldToScreen(10, 10)
	assert.InDelta(t, 420, sx, 1e-3)
	assert.InDelta(t, 320, sy, 1e-3)

	// The camera center stays fixed under zoom changes.
	sx, sy = c.WorldToScreen(0, 0)
	assert.InDelta(t, 400, sx, 1e-3)
	assert.InDelta(t, 300, sy, 1e-3)
}

func TestCameraRejectsNonPositiveZoom(t *testing.T) {
	c := NewCamera2D(800, 600)
	require.NoError(t, c.SetZoom(4))

	assert.ErrorIs(t, c.SetZoom(0), ErrInvalidCameraState)
	assert.ErrorIs(t, c.SetZoom(-1), ErrInvalidCameraState)
	assert.Equal(t, float32(4), c.Zoom(), "failed SetZoom must keep the previous value")
}

func TestCameraScreenWorldRoundTrip(t *testing.T) {
	c := NewCamera2D(1280, 720)
	c.SetPosition(37.5, -81.25)
	require.NoError(t, c.SetZoom(2.5))

	points := [][2]float32{{0, 0}, {640, 360}, {1280, 720}, {13, 699}}
	for _, p := range points {
		wx, wy := c.ScreenToWorld(p[0], p[1])
		sx, sy := c.WorldToScreen(wx, wy)
		assert.InDelta(t, p[0], sx, 1e-2)
		assert.InDelta(t, p[1], sy, 1e-2)
	}
}

func TestCameraViewportChangeTakesEffect(t *testing.T) {
	c := NewCamera2D(800, 600)
	before := c.ViewProjection()

	c.SetViewport(1024, 768)
	after := c.ViewProjection()
	assert.NotEqual(t, before, after)

	sx, sy := c.WorldToScreen(0, 0)
	assert.InDelta(t, 512, sx, 1e-3)
	assert.InDelta(t, 384, sy, 1e-3)

	// Degenerate sizes are ignored, matching minimized windows.
	c.SetViewport(0, 0)
	w, h := c.Viewport()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
}

func TestCameraViewProjectionIsPureFunctionOfState(t *testing.T) {
	a := NewCamera2D(800, 600)
	b := NewCamera2D(800, 600)
	a.SetPosition(5, 6)
	require.NoError(t, a.SetZoom(3))
	b.SetPosition(5, 6)
	require.NoError(t, b.SetZoom(3))

	assert.Equal(t, a.ViewProjection(), b.ViewProjection())
	assert.Equal(t, a.ViewProjection(), a.ViewProjection(), "repeated reads must not drift")
}
