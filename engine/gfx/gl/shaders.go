package glbackend

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
)

// Built-in primitive shader. The vertex stage consumes the fixed template
// attributes (0, 1) plus the per-instance transform/color/uv-rect
// attributes (2..5); the fragment stage samples the bound texture and
// multiplies by the instance color.
const vertexSource = `
#version 330 core
layout(location=0) in vec2 aPos;
layout(location=1) in vec2 aUV;
layout(location=2) in vec4 aModelA;
layout(location=3) in vec4 aModelB;
layout(location=4) in vec4 aColor;
layout(location=5) in vec4 aUVRect;
uniform mat4 uVP;
out vec4 vColor;
out vec2 vUV;
void main() {
    mat2 m = mat2(aModelA.xy, aModelA.zw);
    vec2 world = m * aPos + aModelB.xy;
    vColor = aColor;
    vUV = mix(aUVRect.xy, aUVRect.zw, aUV);
    gl_Position = uVP * vec4(world, 0.0, 1.0);
}
` + "\x00"

const fragmentSource = `
#version 330 core
uniform sampler2D uTex;
in vec4 vColor;
in vec2 vUV;
out vec4 FragColor;
void main() {
    FragColor = texture(uTex, vUV) * vColor;
}
` + "\x00"

func makeShader(src string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		info := strings.Repeat("\x00", int(logLen))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(info))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("shader compile error: %s", info)
	}
	return sh, nil
}

func makeProgram(vsSrc, fsSrc string) (uint32, error) {
	vs, err := makeShader(vsSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(fsSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		info := strings.Repeat("\x00", int(logLen))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(info))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("program link error: %s", info)
	}
	return prog, nil
}

// terminate ensures null termination for gl.Strs.
func terminate(src string) string {
	if len(src) == 0 || src[len(src)-1] != 0 {
		return src + "\x00"
	}
	return src
}
