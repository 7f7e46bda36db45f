package webgpu

import (
	"fmt"
	"log"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/gfx"
)

const frameRing = 2

// minInstanceCap is the smallest per-frame instance buffer, in instances.
const minInstanceCap = 1024

type gpuMesh struct {
	vtx        *wgpu.Buffer
	idx        *wgpu.Buffer
	indexCount uint32
}

type gpuTexture struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
	bind *wgpu.BindGroup
}

type pendingDelete struct {
	tex   gpuTexture
	frame uint64
}

type instanceBuffer struct {
	buf *wgpu.Buffer
	cap int
}

// Device is the WebGPU implementation of gfx.Device, built on wgpu-native.
// The window must be created with glfw.ClientAPI set to glfw.NoAPI; the
// surface is configured from the framebuffer size and reconfigured on
// Resize.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	dev      *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface
	config   wgpu.SurfaceConfiguration

	camLayout  *wgpu.BindGroupLayout
	texLayout  *wgpu.BindGroupLayout
	sampler    *wgpu.Sampler
	cameraBuf  *wgpu.Buffer
	cameraBind *wgpu.BindGroup

	meshes    []gpuMesh
	pipelines []*wgpu.RenderPipeline
	textures  map[gfx.TextureID]gpuTexture
	nextTex   gfx.TextureID
	pending   []pendingDelete

	instanceBufs [frameRing]instanceBuffer

	// Open-frame state. All nil between frames.
	frameTex  *wgpu.Texture
	frameView *wgpu.TextureView
	encoder   *wgpu.CommandEncoder
	pass      *wgpu.RenderPassEncoder

	frame uint64
	dead  bool

	caps gfx.Caps
}

// New creates the device and configures the surface at the given drawable
// size. VSync selects fifo presentation; instancing can be forced off for
// debugging the one-draw-per-instance path.
func New(win *glfw.Window, width, height int, vsync, disableInstancing bool) (*Device, error) {
	d := &Device{
		instance: wgpu.CreateInstance(nil),
		textures: make(map[gfx.TextureID]gpuTexture),
	}
	d.surface = d.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu adapter: %w", err)
	}
	d.adapter = adapter

	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu device: %w", err)
	}
	d.dev = dev
	d.queue = dev.GetQueue()

	limits := wgpu.DefaultLimits()
	d.caps = gfx.Caps{
		Instancing:     !disableInstancing,
		MaxTextureSize: int(limits.MaxTextureDimension2D),
	}

	caps := d.surface.GetCapabilities(adapter)
	presentMode := wgpu.PresentModeImmediate
	if vsync {
		presentMode = wgpu.PresentModeFifo
	}
	d.config = wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   caps.AlphaModes[0],
	}
	d.surface.Configure(adapter, dev, &d.config)

	if err := d.initShared(); err != nil {
		return nil, err
	}

	for i := range d.instanceBufs {
		buf, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "instance ring",
			Size:  uint64(minInstanceCap * gfx.InstanceStride),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("instance buffer: %w", err)
		}
		d.instanceBufs[i] = instanceBuffer{buf: buf, cap: minInstanceCap}
	}

	// Pipeline 0 is the built-in primitive shader, texture 0 the 1x1
	// opaque white texture.
	if _, err := d.CreatePipeline(gfx.PipelineDesc{VertexSource: primitiveWGSL, Blend: true}); err != nil {
		return nil, err
	}
	if _, err := d.RegisterTexture([]byte{0xff, 0xff, 0xff, 0xff}, 1, 1); err != nil {
		return nil, err
	}
	return d, nil
}

// initShared builds the bind group layouts, the shared sampler and the
// camera uniform every pipeline binds at group 0.
func (d *Device) initShared() error {
	var err error
	d.camLayout, err = d.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "camera layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: 64,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("camera layout: %w", err)
	}

	d.texLayout, err = d.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "texture layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("texture layout: %w", err)
	}

	d.sampler, err = d.dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "primitive sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("sampler: %w", err)
	}

	d.cameraBuf, err = d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "camera uniform",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("camera buffer: %w", err)
	}
	d.cameraBind, err = d.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "camera bind",
		Layout: d.camLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  d.cameraBuf,
			Size:    wgpu.WholeSize,
		}},
	})
	if err != nil {
		return fmt.Errorf("camera bind group: %w", err)
	}
	return nil
}

func (d *Device) Caps() gfx.Caps { return d.caps }

func (d *Device) RegisterMesh(verts []gfx.Vertex, indices []uint16) (gfx.MeshID, error) {
	d.checkAlive()
	vtx, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "mesh vertices",
		Size:  uint64(len(verts) * gfx.VertexStride),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("vertex buffer: %w", gfx.ErrBufferAllocationFailed)
	}
	d.queue.WriteBuffer(vtx, 0, vertexBytes(verts))

	// Index buffer sizes must be 4-byte aligned; pad odd uint16 counts.
	idxData := indices
	if len(idxData)%2 != 0 {
		idxData = append(append([]uint16(nil), idxData...), 0)
	}
	idx, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "mesh indices",
		Size:  uint64(len(idxData) * 2),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vtx.Release()
		return 0, fmt.Errorf("index buffer: %w", gfx.ErrBufferAllocationFailed)
	}
	d.queue.WriteBuffer(idx, 0, indexBytes(idxData))

	d.meshes = append(d.meshes, gpuMesh{vtx: vtx, idx: idx, indexCount: uint32(len(indices))})
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

	tex, err := d.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "texture",
		Size: wgpu.Extent3D{
			Width:              uint32(w),
			Height:             uint32(h),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("texture create: %w", gfx.ErrBufferAllocationFailed)
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture: tex,
			Aspect:  wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			BytesPerRow:  uint32(w * 4),
			RowsPerImage: uint32(h),
		},
		&wgpu.Extent3D{
			Width:              uint32(w),
			Height:             uint32(h),
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return 0, fmt.Errorf("texture view: %w", err)
	}
	bind, err := d.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "texture bind",
		Layout: d.texLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: d.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return 0, fmt.Errorf("texture bind group: %w", err)
	}

	id := d.nextTex
	d.nextTex++
	d.textures[id] = gpuTexture{tex: tex, view: view, bind: bind}
	return id, nil
}

// ReleaseTexture retires the id immediately but keeps the GPU resources
// alive until every frame that may reference them has been presented.
func (d *Device) ReleaseTexture(id gfx.TextureID) {
	d.checkAlive()
	t, ok := d.textures[id]
	if !ok {
		return
	}
	delete(d.textures, id)
	d.pending = append(d.pending, pendingDelete{tex: t, frame: d.frame})
}

func (d *Device) CreatePipeline(desc gfx.PipelineDesc) (gfx.PipelineID, error) {
	d.checkAlive()
	src := desc.VertexSource
	if desc.FragmentSource != "" {
		src += "\n" + desc.FragmentSource
	}
	pipe, err := d.buildPipeline(src, desc.Blend)
	if err != nil {
		return 0, err
	}
	d.pipelines = append(d.pipelines, pipe)
	return gfx.PipelineID(len(d.pipelines) - 1), nil
}

func (d *Device) buildPipeline(wgsl string, blend bool) (*wgpu.RenderPipeline, error) {
	module, err := d.dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "primitive shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: wgsl,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("shader module: %w", err)
	}
	defer module.Release()

	layout, err := d.dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "primitive layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{d.camLayout, d.texLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline layout: %w", err)
	}

	target := wgpu.ColorTargetState{
		Format:    d.config.Format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if blend {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}

	return d.dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "primitive pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(gfx.VertexStride),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: gfx.AttribPos},
						{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: gfx.AttribUV},
					},
				},
				{
					ArrayStride: uint64(gfx.InstanceStride),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: gfx.AttribModelA},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: gfx.AttribModelB},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: gfx.AttribColor},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: gfx.AttribUVRect},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}

func (d *Device) SetCamera(viewProj [16]float32) {
	d.checkAlive()
	d.queue.WriteBuffer(d.cameraBuf, 0, matrixBytes(&viewProj))
}

func (d *Device) Resize(w, h int) {
	d.checkAlive()
	if w <= 0 || h <= 0 {
		return
	}
	d.config.Width = uint32(w)
	d.config.Height = uint32(h)
	d.surface.Configure(d.adapter, d.dev, &d.config)
}

func (d *Device) BeginFrame() error {
	d.checkAlive()
	if d.frameTex != nil {
		panic("webgpu: BeginFrame while a frame is already open")
	}
	tex, err := d.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("surface acquire: %w", gfx.ErrSurfaceUnavailable)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("surface view: %w", gfx.ErrSurfaceUnavailable)
	}
	encoder, err := d.dev.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("command encoder: %w", gfx.ErrSurfaceUnavailable)
	}
	d.frameTex = tex
	d.frameView = view
	d.encoder = encoder
	return nil
}

// Clear begins the frame's render pass with a clear load. WebGPU clears at
// pass begin, so the pass is opened here rather than in BeginFrame.
func (d *Device) Clear(c colors.Color) {
	d.mustBeOpen()
	if d.pass != nil {
		panic("webgpu: Clear called twice in one frame")
	}
	d.pass = d.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    d.frameView,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(c[0]),
				G: float64(c[1]),
				B: float64(c[2]),
				A: float64(c[3]),
			},
		}},
	})
}

func (d *Device) UploadInstances(instances []gfx.Instance) error {
	d.mustBeOpen()
	if len(instances) == 0 {
		return nil
	}
	slot := &d.instanceBufs[d.frame%frameRing]
	if len(instances) > slot.cap {
		grown := nextPow2(len(instances))
		buf, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "instance ring",
			Size:  uint64(grown * gfx.InstanceStride),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("instance buffer grow to %d: %w", grown, gfx.ErrBufferAllocationFailed)
		}
		// The old buffer last served frameRing frames ago; any reads of it
		// have completed.
		slot.buf.Release()
		slot.buf = buf
		slot.cap = grown
	}
	d.queue.WriteBuffer(slot.buf, 0, instanceBytes(instances))
	return nil
}

func (d *Device) Draw(call gfx.DrawCall) error {
	d.mustBeOpen()
	if d.pass == nil {
		panic("webgpu: Draw before Clear")
	}
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
	slot := &d.instanceBufs[d.frame%frameRing]

	d.pass.SetPipeline(d.pipelines[call.Pipeline])
	d.pass.SetBindGroup(0, d.cameraBind, nil)
	d.pass.SetBindGroup(1, tex.bind, nil)
	d.pass.SetVertexBuffer(0, mesh.vtx, 0, wgpu.WholeSize)
	d.pass.SetVertexBuffer(1, slot.buf, 0, wgpu.WholeSize)
	d.pass.SetIndexBuffer(mesh.idx, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	d.pass.DrawIndexed(mesh.indexCount, uint32(call.Count), 0, 0, uint32(call.First))
	return nil
}

func (d *Device) EndFrame() error {
	d.mustBeOpen()
	if d.pass != nil {
		d.pass.End()
		d.pass.Release()
		d.pass = nil
	}
	cmd, err := d.encoder.Finish(nil)
	if err != nil {
		d.releaseFrame()
		return fmt.Errorf("encoder finish: %w", err)
	}
	d.queue.Submit(cmd)
	cmd.Release()
	d.surface.Present()
	d.releaseFrame()
	return nil
}

// AbortFrame drops the recorded commands without submitting; the acquired
// surface texture is released unpresented.
func (d *Device) AbortFrame() {
	d.mustBeOpen()
	if d.pass != nil {
		d.pass.End()
		d.pass.Release()
		d.pass = nil
	}
	d.releaseFrame()
}

func (d *Device) releaseFrame() {
	d.encoder.Release()
	d.frameView.Release()
	d.frameTex.Release()
	d.encoder = nil
	d.frameView = nil
	d.frameTex = nil
	d.frame++
	d.reapTextures()
}

// reapTextures destroys released textures once frameRing frames have
// completed since the release, at which point no in-flight draw can still
// reference them.
func (d *Device) reapTextures() {
	kept := d.pending[:0]
	for _, p := range d.pending {
		if d.frame >= p.frame+frameRing {
			p.tex.bind.Release()
			p.tex.view.Release()
			p.tex.tex.Release()
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
	if d.frameTex != nil {
		log.Println("webgpu: shutdown with an open frame, aborting it")
		d.AbortFrame()
	}
	for _, p := range d.pending {
		p.tex.bind.Release()
		p.tex.view.Release()
		p.tex.tex.Release()
	}
	d.pending = nil
	for _, t := range d.textures {
		t.bind.Release()
		t.view.Release()
		t.tex.Release()
	}
	for _, m := range d.meshes {
		m.vtx.Release()
		m.idx.Release()
	}
	for _, p := range d.pipelines {
		p.Release()
	}
	for i := range d.instanceBufs {
		d.instanceBufs[i].buf.Release()
	}
	d.cameraBind.Release()
	d.cameraBuf.Release()
	d.sampler.Release()
	d.texLayout.Release()
	d.camLayout.Release()
	d.dev.Release()
	d.adapter.Release()
	d.surface.Release()
	d.instance.Release()
	d.dead = true
}

func (d *Device) checkAlive() {
	if d.dead {
		panic("webgpu: device used after Shutdown")
	}
}

func (d *Device) mustBeOpen() {
	d.checkAlive()
	if d.frameTex == nil {
		panic("webgpu: call outside BeginFrame/EndFrame")
	}
}

func nextPow2(n int) int {
	p := minInstanceCap
	for p < n {
		p <<= 1
	}
	return p
}

func instanceBytes(in []gfx.Instance) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&in[0])), len(in)*gfx.InstanceStride)
}

func vertexBytes(v []gfx.Vertex) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*gfx.VertexStride)
}

func indexBytes(idx []uint16) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&idx[0])), len(idx)*2)
}

func matrixBytes(m *[16]float32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&m[0])), 64)
}
