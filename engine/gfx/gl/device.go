package glbackend

import (
	"fmt"
	"log"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/gfx"
)

// Surface is the slice of the window the device needs: a framebuffer to
// measure and a back buffer to flip. The GLFW window satisfies it.
type Surface interface {
	SwapBuffers()
	FramebufferSize() (int, int)
}

const frameRing = 2

// minInstanceCap is the smallest per-frame instance buffer, in instances.
const minInstanceCap = 1024

type glMesh struct {
	vao        uint32
	vbo        uint32
	ibo        uint32
	indexCount int32
}

type glPipeline struct {
	prog  uint32
	vpLoc int32
}

type pendingDelete struct {
	tex   uint32
	frame uint64
}

// Device is the OpenGL 3.3 implementation of gfx.Device. All calls must
// happen on the thread that owns the GL context.
type Device struct {
	surface Surface

	meshes    []glMesh
	pipelines []glPipeline
	textures  map[gfx.TextureID]uint32
	nextTex   gfx.TextureID
	pending   []pendingDelete

	// Per-frame instance buffers, alternated so the driver can stage the
	// next frame while the previous one may still be in flight.
	instanceVBO [frameRing]uint32
	instanceCap [frameRing]int

	frame  uint64
	begun  bool
	dead   bool
	staged []gfx.Instance

	camera      [16]float32
	cameraDirty bool
	boundProg   uint32
	boundTex    uint32

	caps gfx.Caps
}

// New creates the device on the calling thread. The GL context of the
// surface must already be current; instancing can be forced off for
// debugging the one-draw-per-instance path.
func New(surface Surface, disableInstancing bool) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}

	d := &Device{
		surface:  surface,
		textures: make(map[gfx.TextureID]uint32),
	}

	var maxTex int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTex)
	d.caps = gfx.Caps{
		Instancing:     !disableInstancing,
		MaxTextureSize: int(maxTex),
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)

	gl.GenBuffers(frameRing, &d.instanceVBO[0])
	for i := range d.instanceVBO {
		gl.BindBuffer(gl.ARRAY_BUFFER, d.instanceVBO[i])
		gl.BufferData(gl.ARRAY_BUFFER, minInstanceCap*gfx.InstanceStride, nil, gl.STREAM_DRAW)
		d.instanceCap[i] = minInstanceCap
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	// Pipeline 0 is the built-in primitive shader.
	if _, err := d.CreatePipeline(gfx.PipelineDesc{
		VertexSource:   vertexSource,
		FragmentSource: fragmentSource,
	}); err != nil {
		return nil, err
	}

	// Texture 0 is the 1x1 opaque white texture so untextured quads run
	// through the same shader.
	if _, err := d.RegisterTexture([]byte{0xff, 0xff, 0xff, 0xff}, 1, 1); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) Caps() gfx.Caps { return d.caps }

func (d *Device) RegisterMesh(verts []gfx.Vertex, indices []uint16) (gfx.MeshID, error) {
	d.checkAlive()
	var m glMesh
	m.indexCount = int32(len(indices))

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*gfx.VertexStride, gl.Ptr(verts), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(gfx.AttribPos)
	gl.VertexAttribPointer(gfx.AttribPos, 2, gl.FLOAT, false, gfx.VertexStride, unsafe.Pointer(uintptr(0)))
	gl.EnableVertexAttribArray(gfx.AttribUV)
	gl.VertexAttribPointer(gfx.AttribUV, 2, gl.FLOAT, false, gfx.VertexStride, unsafe.Pointer(uintptr(2*4)))

	if d.caps.Instancing {
		// Instance attributes are enabled in the VAO; their pointers are
		// rebound per draw to address the batch's offset in the frame
		// buffer.
		for loc := uint32(gfx.AttribModelA); loc <= gfx.AttribUVRect; loc++ {
			gl.EnableVertexAttribArray(loc)
			gl.VertexAttribDivisor(loc, 1)
		}
	}

	gl.GenBuffers(1, &m.ibo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ibo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*2, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	if glErr := gl.GetError(); glErr == gl.OUT_OF_MEMORY {
		return 0, fmt.Errorf("mesh upload: %w", gfx.ErrBufferAllocationFailed)
	}
	d.meshes = append(d.meshes, m)
	return gfx.MeshID(len(d.meshes) - 1), nil
}

func (d *Device) RegisterTexture(pixels []byte, w, h int) (gfx.TextureID, error) {
	d.checkAlive()
	if w <= 0 || h <= 0 || len(pixels) != w*h*4 {
		return 0, fmt.Errorf("texture %dx%d: pixel data size %d", w, h, len(pixels))
	}
	if w > d.caps.MaxTextureSize || h > d.caps.MaxTextureSize {
		return 0, fmt.Errorf("texture %dx%d exceeds device limit %d", w, h, d.caps.MaxTextureSize)
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	d.boundTex = 0

	if glErr := gl.GetError(); glErr == gl.OUT_OF_MEMORY {
		gl.DeleteTextures(1, &tex)
		return 0, fmt.Errorf("texture upload: %w", gfx.ErrBufferAllocationFailed)
	}

	id := d.nextTex
	d.nextTex++
	d.textures[id] = tex
	return id, nil
}

// ReleaseTexture retires the id immediately but keeps the GL object alive
// until every frame that may reference it has been presented.
func (d *Device) ReleaseTexture(id gfx.TextureID) {
	d.checkAlive()
	tex, ok := d.textures[id]
	if !ok {
		return
	}
	delete(d.textures, id)
	d.pending = append(d.pending, pendingDelete{tex: tex, frame: d.frame})
}

func (d *Device) CreatePipeline(desc gfx.PipelineDesc) (gfx.PipelineID, error) {
	d.checkAlive()
	prog, err := makeProgram(terminate(desc.VertexSource), terminate(desc.FragmentSource))
	if err != nil {
		return 0, err
	}
	vpLoc := gl.GetUniformLocation(prog, gl.Str("uVP\x00"))
	d.pipelines = append(d.pipelines, glPipeline{prog: prog, vpLoc: vpLoc})
	return gfx.PipelineID(len(d.pipelines) - 1), nil
}

func (d *Device) SetCamera(viewProj [16]float32) {
	d.checkAlive()
	d.camera = viewProj
	d.cameraDirty = true
}

func (d *Device) Resize(w, h int) {
	d.checkAlive()
	if w > 0 && h > 0 {
		gl.Viewport(0, 0, int32(w), int32(h))
	}
}

func (d *Device) BeginFrame() error {
	d.checkAlive()
	if d.begun {
		panic("gl: BeginFrame while a frame is already open")
	}
	if w, h := d.surface.FramebufferSize(); w == 0 || h == 0 {
		// Minimized: there is nothing to draw into this frame.
		return gfx.ErrSurfaceUnavailable
	}
	d.begun = true
	d.boundProg = 0
	d.boundTex = 0
	d.cameraDirty = true
	d.staged = nil
	return nil
}

func (d *Device) Clear(c colors.Color) {
	d.mustBeOpen()
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) UploadInstances(instances []gfx.Instance) error {
	d.mustBeOpen()
	d.staged = instances
	if len(instances) == 0 {
		return nil
	}
	slot := int(d.frame % frameRing)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.instanceVBO[slot])
	if len(instances) > d.instanceCap[slot] {
		grown := nextPow2(len(instances))
		gl.BufferData(gl.ARRAY_BUFFER, grown*gfx.InstanceStride, nil, gl.STREAM_DRAW)
		if glErr := gl.GetError(); glErr == gl.OUT_OF_MEMORY {
			gl.BindBuffer(gl.ARRAY_BUFFER, 0)
			return fmt.Errorf("instance buffer grow to %d: %w", grown, gfx.ErrBufferAllocationFailed)
		}
		d.instanceCap[slot] = grown
	} else {
		// Orphan the previous contents so the upload never stalls on a
		// buffer the GPU is still reading.
		gl.BufferData(gl.ARRAY_BUFFER, d.instanceCap[slot]*gfx.InstanceStride, nil, gl.STREAM_DRAW)
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(instances)*gfx.InstanceStride, gl.Ptr(instances))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return nil
}

func (d *Device) Draw(call gfx.DrawCall) error {
	d.mustBeOpen()
	if call.Count <= 0 {
		return nil
	}
	if int(call.Mesh) >= len(d.meshes) {
		return fmt.Errorf("draw: unknown mesh %d", call.Mesh)
	}
	if int(call.Pipeline) >= len(d.pipelines) {
		return fmt.Errorf("draw: unknown pipeline %d", call.Pipeline)
	}
	tex, ok := d.textures[call.Texture]
	if !ok {
		return fmt.Errorf("draw: texture %d: %w", call.Texture, gfx.ErrTextureNotFound)
	}

	mesh := d.meshes[call.Mesh]
	pipe := d.pipelines[call.Pipeline]

	if pipe.prog != d.boundProg {
		gl.UseProgram(pipe.prog)
		d.boundProg = pipe.prog
		d.cameraDirty = true
	}
	if d.cameraDirty {
		gl.UniformMatrix4fv(pipe.vpLoc, 1, false, &d.camera[0])
		d.cameraDirty = false
	}
	if tex != d.boundTex {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		d.boundTex = tex
	}

	gl.BindVertexArray(mesh.vao)
	if d.caps.Instancing {
		d.drawInstanced(mesh, call)
	} else {
		d.drawFlat(mesh, call)
	}
	gl.BindVertexArray(0)
	return nil
}

// drawInstanced addresses the batch's slice of the frame buffer by
// rebinding the instance attribute pointers at a byte offset. GL 3.3 has
// no base-instance draw, so the offset stands in for firstInstance.
func (d *Device) drawInstanced(mesh glMesh, call gfx.DrawCall) {
	slot := int(d.frame % frameRing)
	base := uintptr(call.First * gfx.InstanceStride)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.instanceVBO[slot])
	gl.VertexAttribPointer(gfx.AttribModelA, 4, gl.FLOAT, false, gfx.InstanceStride, unsafe.Pointer(base))
	gl.VertexAttribPointer(gfx.AttribModelB, 4, gl.FLOAT, false, gfx.InstanceStride, unsafe.Pointer(base+16))
	gl.VertexAttribPointer(gfx.AttribColor, 4, gl.FLOAT, false, gfx.InstanceStride, unsafe.Pointer(base+32))
	gl.VertexAttribPointer(gfx.AttribUVRect, 4, gl.FLOAT, false, gfx.InstanceStride, unsafe.Pointer(base+48))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.DrawElementsInstanced(gl.TRIANGLES, mesh.indexCount, gl.UNSIGNED_SHORT, unsafe.Pointer(uintptr(0)), int32(call.Count))
}

// drawFlat services draws without hardware instancing by feeding each
// instance through the constant generic vertex attributes.
func (d *Device) drawFlat(mesh glMesh, call gfx.DrawCall) {
	for i := 0; i < call.Count; i++ {
		idx := call.First + i
		if idx >= len(d.staged) {
			break
		}
		in := &d.staged[idx]
		gl.VertexAttrib4f(gfx.AttribModelA, in.Model[0], in.Model[1], in.Model[2], in.Model[3])
		gl.VertexAttrib4f(gfx.AttribModelB, in.Model[4], in.Model[5], in.Model[6], in.Model[7])
		gl.VertexAttrib4f(gfx.AttribColor, in.Color[0], in.Color[1], in.Color[2], in.Color[3])
		gl.VertexAttrib4f(gfx.AttribUVRect, in.UV[0], in.UV[1], in.UV[2], in.UV[3])
		gl.DrawElements(gl.TRIANGLES, mesh.indexCount, gl.UNSIGNED_SHORT, unsafe.Pointer(uintptr(0)))
	}
}

func (d *Device) EndFrame() error {
	d.mustBeOpen()
	d.surface.SwapBuffers()
	d.finishFrame()
	return nil
}

func (d *Device) AbortFrame() {
	d.mustBeOpen()
	// Nothing to release in GL; the cleared back buffer is simply never
	// flipped.
	d.finishFrame()
}

func (d *Device) finishFrame() {
	d.begun = false
	d.staged = nil
	d.frame++
	d.reapTextures()
}

// reapTextures deletes released textures once frameRing frames have
// completed since the release, at which point no in-flight draw can still
// reference them.
func (d *Device) reapTextures() {
	kept := d.pending[:0]
	for _, p := range d.pending {
		if d.frame >= p.frame+frameRing {
			gl.DeleteTextures(1, &p.tex)
		} else {
			kept = append(kept, p)
		}
	}
	d.pending = kept
}

func (d *Device) Shutdown() {
	if d.dead {
		return
	}
	if d.begun {
		log.Println("gl: shutdown with an open frame, aborting it")
		d.AbortFrame()
	}
	for _, p := range d.pending {
		gl.DeleteTextures(1, &p.tex)
	}
	d.pending = nil
	for _, tex := range d.textures {
		t := tex
		gl.DeleteTextures(1, &t)
	}
	for _, m := range d.meshes {
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ibo)
		gl.DeleteVertexArrays(1, &m.vao)
	}
	for _, p := range d.pipelines {
		gl.DeleteProgram(p.prog)
	}
	gl.DeleteBuffers(frameRing, &d.instanceVBO[0])
	d.dead = true
}

func (d *Device) checkAlive() {
	if d.dead {
		panic("gl: device used after Shutdown")
	}
}

func (d *Device) mustBeOpen() {
	d.checkAlive()
	if !d.begun {
		panic("gl: call outside BeginFrame/EndFrame")
	}
}

func nextPow2(n int) int {
	p := minInstanceCap
	for p < n {
		p <<= 1
	}
	return p
}
