package gfx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ember2d/ember/engine/colors"
)

func TestTransformIdentityPlacement(t *testing.T) {
	m := Transform(10, 20, 1, 1, 0)
	assert.Equal(t, [8]float32{1, 0, 0, 1, 10, 20, 0, 0}, m)
}

func TestTransformScale(t *testing.T) {
	m := Transform(0, 0, 4, 2, 0)
	assert.Equal(t, float32(4), m[0])
	assert.Equal(t, float32(2), m[3])
	assert.Zero(t, m[1])
	assert.Zero(t, m[2])
}

func TestTransformQuarterTurn(t *testing.T) {
	// Rotating the local +X axis by 90 degrees lands on +Y (Y-down world:
	// visually clockwise).
	m := Transform(0, 0, 1, 1, math.Pi/2)

	x := m[0]*1 + m[2]*0 + m[4]
	y := m[1]*1 + m[3]*0 + m[5]
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 1, y, 1e-6)
}

func TestNewInstanceCarriesTintAndUVRect(t *testing.T) {
	in := NewInstance(1, 2, 3, 4, 0, colors.Red, 0.25, 0.5, 0.75, 1)
	assert.Equal(t, [4]float32(colors.Red), in.Color)
	assert.Equal(t, [4]float32{0.25, 0.5, 0.75, 1}, in.UV)
	assert.Equal(t, float32(1), in.Model[4])
	assert.Equal(t, float32(2), in.Model[5])
}
