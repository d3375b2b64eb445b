package opengl

import (
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"cardgame/internal/shader"
)

// Driver implements shader.Driver on the current OpenGL context.
type Driver struct{}

var _ shader.Driver = Driver{}

func stageEnum(s shader.Stage) uint32 {
	if s == shader.Fragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func (Driver) CreateShader(stage shader.Stage) uint32 {
	return gl.CreateShader(stageEnum(stage))
}

func (Driver) ShaderSource(sh uint32, src string) {
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
}

func (Driver) CompileShader(sh uint32) { gl.CompileShader(sh) }

func (Driver) ShaderCompiled(sh uint32) bool {
	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

func (Driver) ShaderInfoLog(sh uint32) string {
	var logLen int32
	gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
	if logLen == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLen+1))
	gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00\n")
}

func (Driver) DeleteShader(sh uint32) { gl.DeleteShader(sh) }

func (Driver) CreateProgram() uint32 { return gl.CreateProgram() }

func (Driver) AttachShader(prog, sh uint32) { gl.AttachShader(prog, sh) }

func (Driver) DetachShader(prog, sh uint32) { gl.DetachShader(prog, sh) }

func (Driver) LinkProgram(prog uint32) { gl.LinkProgram(prog) }

func (Driver) ProgramLinked(prog uint32) bool {
	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

func (Driver) ValidateProgram(prog uint32) bool {
	gl.ValidateProgram(prog)
	var status int32
	gl.GetProgramiv(prog, gl.VALIDATE_STATUS, &status)
	return status != gl.FALSE
}

func (Driver) ProgramInfoLog(prog uint32) string {
	var logLen int32
	gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
	if logLen == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLen+1))
	gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00\n")
}

func (Driver) DeleteProgram(prog uint32) { gl.DeleteProgram(prog) }

func (Driver) UseProgram(prog uint32) { gl.UseProgram(prog) }

func (Driver) UniformLocation(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
}

func (Driver) Uniform1i(loc int32, v int32) { gl.Uniform1i(loc, v) }
func (Driver) Uniform1f(loc int32, v float32) { gl.Uniform1f(loc, v) }
func (Driver) Uniform2f(loc int32, x, y float32) { gl.Uniform2f(loc, x, y) }
func (Driver) Uniform3f(loc int32, x, y, z float32) {
	gl.Uniform3f(loc, x, y, z)
}

func (Driver) Uniform4f(loc int32, x, y, z, w float32) {
	gl.Uniform4f(loc, x, y, z, w)
}

func (Driver) UniformMatrix4fv(loc int32, m *[16]float32) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}
