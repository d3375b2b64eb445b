// Package shader builds GLSL shader programs from a vertex and a fragment
// stage and gives typed access to their uniforms.
//
// A Program is compiled and linked when it is constructed and never changes
// afterwards. Compile and link failures do not abort anything: they are
// logged, stored on the Program (see Err) and leave it in the Failed state,
// where Use returns ErrNotReady and uniform setters do nothing. To recover,
// build a new Program from corrected source.
//
// Every call must be made on the thread that owns the graphics context.
package shader

import (
	"log/slog"
)

// Status is the lifecycle state of a Program.
type Status int

const (
	Ready Status = iota
	Failed
	Released
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// Program owns one linked GPU program object.
//
// Uniform setters auto-activate: if another program (or none) is current on
// the Context, the setter makes this one current before uploading. Callers
// drawing with several programs must therefore call Use on the program they
// draw with after setting uniforms on any other one.
//
// A Program must not be copied; use Move to hand ownership to a new value.
type Program struct {
	noCopy noCopy

	ctx      *Context
	name     string
	log      *slog.Logger
	handle   uint32
	status   Status
	err      error
	uniforms *uniformCache

	vertex   Source
	fragment Source
}

// noCopy makes go vet's copylocks check report copies of a Program, which
// would delete the same GPU program twice.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Option configures a Program.
type Option func(*Program)

// WithName sets the name used in log lines.
func WithName(name string) Option {
	return func(p *Program) { p.name = name }
}

// WithLogger sets the diagnostic sink. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Program) { p.log = l }
}

func newProgram(ctx *Context, opts []Option) *Program {
	p := &Program{
		ctx:      ctx,
		name:     "unnamed",
		log:      slog.Default(),
		uniforms: newUniformCache(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// New compiles vertex and fragment and links them. It always returns a
// Program; check Status or Err to find out whether it is usable.
func New(ctx *Context, vertex, fragment Source, opts ...Option) *Program {
	p := newProgram(ctx, opts)
	vertex.Stage, fragment.Stage = Vertex, Fragment
	p.vertex, p.fragment = vertex, fragment
	p.build()
	return p
}

// NewFromFiles reads both stages from disk and builds them with New. A file
// that cannot be read fails the program with a StageCompileError for that
// stage.
func NewFromFiles(ctx *Context, vertexPath, fragmentPath string, opts ...Option) *Program {
	vs, err := LoadSource(Vertex, vertexPath)
	if err != nil {
		p := newProgram(ctx, opts)
		p.vertex = Source{Stage: Vertex, Path: vertexPath}
		p.fragment = Source{Stage: Fragment, Path: fragmentPath}
		p.fail(&StageCompileError{Stage: Vertex, Log: err.Error()}, p.vertex)
		return p
	}
	fs, err := LoadSource(Fragment, fragmentPath)
	if err != nil {
		p := newProgram(ctx, opts)
		p.vertex, p.fragment = vs, Source{Stage: Fragment, Path: fragmentPath}
		p.fail(&StageCompileError{Stage: Fragment, Log: err.Error()}, p.fragment)
		return p
	}
	return New(ctx, vs, fs, opts...)
}

type compileResult struct {
	ok  bool
	log string
}

func compileStage(drv Driver, src Source) (uint32, compileResult) {
	sh := drv.CreateShader(src.Stage)
	drv.ShaderSource(sh, src.Text)
	drv.CompileShader(sh)
	if !drv.ShaderCompiled(sh) {
		res := compileResult{log: infoLog(drv.ShaderInfoLog(sh))}
		drv.DeleteShader(sh)
		return 0, res
	}
	return sh, compileResult{ok: true}
}

func infoLog(s string) string {
	if s == "" {
		return "no info log"
	}
	return s
}

func (p *Program) build() {
	drv := p.ctx.drv

	vert, res := compileStage(drv, p.vertex)
	if !res.ok {
		p.fail(&StageCompileError{Stage: Vertex, Log: res.log}, p.vertex)
		return
	}
	defer drv.DeleteShader(vert)

	frag, res := compileStage(drv, p.fragment)
	if !res.ok {
		p.fail(&StageCompileError{Stage: Fragment, Log: res.log}, p.fragment)
		return
	}
	defer drv.DeleteShader(frag)

	prog := drv.CreateProgram()
	drv.AttachShader(prog, vert)
	drv.AttachShader(prog, frag)
	drv.LinkProgram(prog)
	if !drv.ProgramLinked(prog) {
		log := infoLog(drv.ProgramInfoLog(prog))
		drv.DeleteProgram(prog)
		p.fail(&LinkError{Log: log}, Source{})
		return
	}

	// No longer need the stage objects with a fully linked program.
	drv.DetachShader(prog, vert)
	drv.DetachShader(prog, frag)

	p.handle = prog
	p.status = Ready
	p.log.Debug("shader program linked", "program", p.name, "handle", prog)
}

func (p *Program) fail(err error, src Source) {
	p.status = Failed
	p.err = err
	attrs := []any{"program", p.name, "err", err}
	if src != (Source{}) {
		attrs = append(attrs, "source", src.String())
	}
	p.log.Error("shader program build failed", attrs...)
}

func (p *Program) Name() string   { return p.name }
func (p *Program) Status() Status { return p.status }

// Err returns the StageCompileError or LinkError that failed the program.
func (p *Program) Err() error { return p.err }

// Handle returns the GL program name, or 0 if the program holds none.
func (p *Program) Handle() uint32 { return p.handle }

// Sources returns the stage sources the program was built from.
func (p *Program) Sources() (vertex, fragment Source) {
	return p.vertex, p.fragment
}

// Use makes p the current program of its context.
func (p *Program) Use() error {
	if p.status != Ready {
		return ErrNotReady
	}
	p.ctx.drv.UseProgram(p.handle)
	p.ctx.active = p
	return nil
}

// Active reports whether p is the current program of its context.
func (p *Program) Active() bool {
	return p.status == Ready && p.ctx.active == p
}

// Validate asks the driver whether p can execute in the current pipeline
// state. It does not change p's status.
func (p *Program) Validate() error {
	if p.status != Ready {
		return ErrNotReady
	}
	if !p.ctx.drv.ValidateProgram(p.handle) {
		return &ValidationError{Log: infoLog(p.ctx.drv.ProgramInfoLog(p.handle))}
	}
	return nil
}

// Delete releases the GPU program. Calling it again, or on a program whose
// handle was moved out, does nothing.
func (p *Program) Delete() {
	if p.handle == 0 {
		return
	}
	p.ctx.drv.DeleteProgram(p.handle)
	if p.ctx.active == p {
		p.ctx.active = nil
	}
	p.handle = 0
	p.uniforms.clear()
	if p.status == Ready {
		p.status = Released
	}
}

// Move transfers ownership of the GPU program to a new Program and leaves p
// released with no handle.
func (p *Program) Move() *Program {
	q := &Program{
		ctx:      p.ctx,
		name:     p.name,
		log:      p.log,
		handle:   p.handle,
		status:   p.status,
		err:      p.err,
		uniforms: p.uniforms,
		vertex:   p.vertex,
		fragment: p.fragment,
	}
	if p.ctx.active == p {
		p.ctx.active = q
	}
	p.handle = 0
	p.uniforms = newUniformCache()
	if p.status == Ready {
		p.status = Released
	}
	return q
}
