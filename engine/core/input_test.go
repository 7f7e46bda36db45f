package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputKeyState(t *testing.T) {
	in := NewInput()
	assert.False(t, in.IsKeyDown(KeyW))

	in.Handle(EventKey{Key: KeyW, Down: true})
	assert.True(t, in.IsKeyDown(KeyW))
	assert.False(t, in.IsKeyDown(KeyA))

	in.Handle(EventKey{Key: KeyW, Down: false})
	assert.False(t, in.IsKeyDown(KeyW))
}

func TestInputMouseState(t *testing.T) {
	in := NewInput()

	in.Handle(EventMouseMove{X: 12.5, Y: 48})
	x, y := in.Mouse()
	assert.Equal(t, 12.5, x)
	assert.Equal(t, 48.0, y)

	in.Handle(EventMouseButton{Button: 0, Down: true})
	assert.True(t, in.IsButtonDown(0))
	in.Handle(EventMouseButton{Button: 0, Down: false})
	assert.False(t, in.IsButtonDown(0))
}
