package webgpu

// Built-in primitive shader. Mirrors the GL program: the instance stream
// carries a 2x3 affine packed into two vec4 attributes, a tint and a UV
// sub-rectangle; the fragment stage samples the bound texture and
// multiplies by the tint.
const primitiveWGSL = `
struct Camera {
    vp: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> camera: Camera;
@group(1) @binding(0) var tex: texture_2d<f32>;
@group(1) @binding(1) var samp: sampler;

struct VSIn {
    @location(0) pos: vec2<f32>,
    @location(1) uv: vec2<f32>,
    @location(2) model_a: vec4<f32>,
    @location(3) model_b: vec4<f32>,
    @location(4) color: vec4<f32>,
    @location(5) uv_rect: vec4<f32>,
};

struct VSOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) color: vec4<f32>,
    @location(1) uv: vec2<f32>,
};

@vertex
fn vs_main(in: VSIn) -> VSOut {
    let m = mat2x2<f32>(in.model_a.xy, in.model_a.zw);
    let world = m * in.pos + in.model_b.xy;
    var out: VSOut;
    out.pos = camera.vp * vec4<f32>(world, 0.0, 1.0);
    out.color = in.color;
    out.uv = mix(in.uv_rect.xy, in.uv_rect.zw, in.uv);
    return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
    return textureSample(tex, samp, in.uv) * in.color;
}
`
