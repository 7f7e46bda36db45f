package gfx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ember2d/ember/engine/colors"
)

func submitN(b *Batcher, n int, mesh MeshID, tex TextureID) {
	for i := 0; i < n; i++ {
		b.Submit(NewInstance(float32(i), 0, 1, 1, 0, colors.White, 0, 0, 1, 1), mesh, tex, DefaultPipeline)
	}
}

func TestBatcherCoalescesAdjacentSameKey(t *testing.T) {
	b := NewBatcher(16)
	submitN(b, 5, 0, WhiteTexture)

	batches := b.Batches()
	assert.Len(t, batches, 1)
	assert.Equal(t, 0, batches[0].First)
	assert.Equal(t, 5, batches[0].Count)
	assert.Equal(t, 5, b.Len())
}

func TestBatcherPreservesSubmissionOrder(t *testing.T) {
	// A, A, A, B, A, A: the trailing A run must not merge into the first,
	// since B is ordered between them.
	b := NewBatcher(16)
	submitN(b, 3, 0, WhiteTexture)
	submitN(b, 1, 0, 1)
	submitN(b, 2, 0, WhiteTexture)

	batches := b.Batches()
	assert.Len(t, batches, 3)

	assert.Equal(t, Batch{Mesh: 0, Texture: WhiteTexture, First: 0, Count: 3}, batches[0])
	assert.Equal(t, Batch{Mesh: 0, Texture: 1, First: 3, Count: 1}, batches[1])
	assert.Equal(t, Batch{Mesh: 0, Texture: WhiteTexture, First: 4, Count: 2}, batches[2])

	// Concatenated ranges reproduce the arena exactly, in order.
	covered := 0
	for _, batch := range batches {
		assert.Equal(t, covered, batch.First)
		covered += batch.Count
	}
	assert.Equal(t, b.Len(), covered)
}

func TestBatcherSplitsOnEveryKeyComponent(t *testing.T) {
	b := NewBatcher(16)
	b.Submit(Instance{}, 0, 0, 0)
	b.Submit(Instance{}, 1, 0, 0) // mesh change
	b.Submit(Instance{}, 1, 1, 0) // texture change
	b.Submit(Instance{}, 1, 1, 1) // pipeline change

	assert.Len(t, b.Batches(), 4)
}

func TestBatcherSingleBatchForLargeUniformFrame(t *testing.T) {
	b := NewBatcher(16)
	submitN(b, 100_000, 0, WhiteTexture)

	batches := b.Batches()
	assert.Len(t, batches, 1)
	assert.Equal(t, 100_000, batches[0].Count)
}

func TestBatcherResetKeepsCapacity(t *testing.T) {
	b := NewBatcher(8)
	submitN(b, 5000, 0, WhiteTexture)
	grown := b.Cap()
	assert.GreaterOrEqual(t, grown, 5000)

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Batches())
	assert.Equal(t, grown, b.Cap(), "reset must truncate, not reallocate")

	// Capacity never shrinks across frames.
	submitN(b, 10, 0, WhiteTexture)
	assert.Equal(t, grown, b.Cap())
}

func TestBatcherInterleavedPattern(t *testing.T) {
	// Alternating keys produce one batch per submission: order preservation
	// admits no merging at all.
	b := NewBatcher(16)
	for i := 0; i < 10; i++ {
		b.Submit(Instance{}, 0, TextureID(i%2), 0)
	}
	assert.Len(t, b.Batches(), 10)
}
