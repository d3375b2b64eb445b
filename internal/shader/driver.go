package shader

// Stage identifies one shader stage.
type Stage int

const (
	Vertex Stage = iota
	Fragment
)

func (s Stage) String() string {
	switch s {
	case Vertex:
		return "vertex"
	case Fragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Driver is the slice of the graphics API a Program needs. All calls must
// happen on the thread that owns the current context.
//
// Handles are GL object names; 0 is never a valid handle. Uniform locations
// follow GL: -1 means the name is not an active uniform, and uploads to -1
// are ignored.
type Driver interface {
	CreateShader(stage Stage) uint32
	ShaderSource(shader uint32, src string)
	CompileShader(shader uint32)
	ShaderCompiled(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32)
	ProgramLinked(program uint32) bool
	ValidateProgram(program uint32) bool
	ProgramInfoLog(program uint32) string
	DeleteProgram(program uint32)
	UseProgram(program uint32)

	UniformLocation(program uint32, name string) int32
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	Uniform3f(loc int32, x, y, z float32)
	Uniform4f(loc int32, x, y, z, w float32)
	UniformMatrix4fv(loc int32, m *[16]float32)
}

// Context owns the single "currently active program" slot of a graphics
// context. It is not safe for concurrent use.
type Context struct {
	drv    Driver
	active *Program
}

func NewContext(d Driver) *Context {
	return &Context{drv: d}
}

func (c *Context) Driver() Driver { return c.drv }

// Active returns the program last activated through this context, or nil.
func (c *Context) Active() *Program { return c.active }

// Unbind makes no program current.
func (c *Context) Unbind() {
	c.drv.UseProgram(0)
	c.active = nil
}
