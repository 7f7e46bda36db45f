package gfx

// batchKey is the GPU state an instanced draw call binds once: the vertex
// template, the sampled texture and the shader pipeline. Instances drawn
// in one call must share all three.
type batchKey struct {
	mesh     MeshID
	texture  TextureID
	pipeline PipelineID
}

// Batch is a maximal contiguous run of same-key instances inside the
// frame arena.
type Batch struct {
	Mesh     MeshID
	Texture  TextureID
	Pipeline PipelineID
	First    int // index of the run's first instance in the arena
	Count    int
}

// Batcher accumulates one frame of instances and partitions them into
// draw-call batches. Submission order is preserved across batches: overlap
// with alpha blending makes draw order part of the visual result, so runs
// with the same key that are separated by a different key stay separate
// batches. Runs are tracked incrementally, keeping Submit O(1) amortized.
//
// The instance arena is reset by truncation at the start of the next
// frame; capacity is retained and only ever grows.
type Batcher struct {
	instances []Instance
	runs      []Batch
	openKey   batchKey
}

// NewBatcher pre-sizes the arena for capacity instances.
func NewBatcher(capacity int) *Batcher {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Batcher{
		instances: make([]Instance, 0, capacity),
		runs:      make([]Batch, 0, 64),
	}
}

// Submit appends one instance for the current frame.
func (b *Batcher) Submit(inst Instance, mesh MeshID, texture TextureID, pipeline PipelineID) {
	key := batchKey{mesh: mesh, texture: texture, pipeline: pipeline}
	if n := len(b.runs); n > 0 && b.openKey == key {
		b.runs[n-1].Count++
	} else {
		b.runs = append(b.runs, Batch{
			Mesh:     mesh,
			Texture:  texture,
			Pipeline: pipeline,
			First:    len(b.instances),
			Count:    1,
		})
		b.openKey = key
	}
	b.instances = append(b.instances, inst)
}

// Batches returns the ordered run list for the frame. Concatenating the
// runs' ranges in order reproduces the exact submission order, and no two
// adjacent runs share a key. The slice is valid until Reset.
func (b *Batcher) Batches() []Batch { return b.runs }

// Instances exposes the frame arena for upload. Read-only during the draw
// phase; valid until Reset.
func (b *Batcher) Instances() []Instance { return b.instances }

// Len reports the number of instances submitted this frame.
func (b *Batcher) Len() int { return len(b.instances) }

// Cap reports the arena capacity. Monotonically non-decreasing.
func (b *Batcher) Cap() int { return cap(b.instances) }

// Reset truncates the arena and run list for the next frame, keeping
// allocations. Skipping this each frame is the classic unbounded-growth
// bug; the frame driver calls it from Begin.
func (b *Batcher) Reset() {
	b.instances = b.instances[:0]
	b.runs = b.runs[:0]
}
