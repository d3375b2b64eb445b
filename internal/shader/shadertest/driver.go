// Package shadertest provides an in-memory shader.Driver for tests.
//
// The fake compiler is deliberately small: a stage compiles when it starts
// with a #version directive, declares main and has balanced brackets. Link
// checks that every fragment input is written by the vertex stage with the
// same type. Uniform declarations of the form "uniform T name;" become
// active uniforms with locations assigned in name order.
package shadertest

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"cardgame/internal/shader"
)

var (
	uniformRe = regexp.MustCompile(`(?m)^\s*uniform\s+(\w+)\s+(\w+)\s*;`)
	varyingRe = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?(in|out)\s+(\w+)\s+(\w+)\s*;`)
)

type fakeShader struct {
	stage    shader.Stage
	src      string
	compiled bool
	log      string
}

type fakeProgram struct {
	attached []uint32
	linked   bool
	log      string
	uniforms map[string]int32
	values   map[int32]any
}

// Driver records every object and upload. The zero value is not usable;
// call New.
type Driver struct {
	// FailValidate makes ValidateProgram report failure.
	FailValidate bool

	next     uint32
	shaders  map[uint32]*fakeShader
	programs map[uint32]*fakeProgram
	current  uint32

	// Deletes counts DeleteProgram calls per handle.
	Deletes map[uint32]int
	// Errors collects misuse a real driver would flag, such as uploading
	// with no program current or deleting an unknown object.
	Errors []error
	// Calls counts driver calls by method name.
	Calls map[string]int
}

var _ shader.Driver = (*Driver)(nil)

func New() *Driver {
	return &Driver{
		shaders:  make(map[uint32]*fakeShader),
		programs: make(map[uint32]*fakeProgram),
		Deletes:  make(map[uint32]int),
		Calls:    make(map[string]int),
	}
}

func (d *Driver) handle() uint32 {
	d.next++
	return d.next
}

func (d *Driver) errorf(format string, args ...any) {
	d.Errors = append(d.Errors, fmt.Errorf(format, args...))
}

func (d *Driver) CreateShader(stage shader.Stage) uint32 {
	d.Calls["CreateShader"]++
	h := d.handle()
	d.shaders[h] = &fakeShader{stage: stage}
	return h
}

func (d *Driver) ShaderSource(sh uint32, src string) {
	if s, ok := d.shaders[sh]; ok {
		s.src = src
		return
	}
	d.errorf("ShaderSource: unknown shader %d", sh)
}

func (d *Driver) CompileShader(sh uint32) {
	d.Calls["CompileShader"]++
	s, ok := d.shaders[sh]
	if !ok {
		d.errorf("CompileShader: unknown shader %d", sh)
		return
	}
	if err := check(s.src); err != nil {
		s.compiled = false
		s.log = "0:1(1): error: " + err.Error()
		return
	}
	s.compiled = true
	s.log = ""
}

func check(src string) error {
	trimmed := strings.TrimSpace(src)
	if !strings.HasPrefix(trimmed, "#version") {
		return errors.New("missing #version directive")
	}
	if !strings.Contains(src, "void main") {
		return errors.New("no definition of main()")
	}
	var stack []rune
	pairs := map[rune]rune{')': '(', '}': '{', ']': '['}
	for _, r := range src {
		switch r {
		case '(', '{', '[':
			stack = append(stack, r)
		case ')', '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return fmt.Errorf("syntax error, unexpected '%c'", r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return errors.New("syntax error, unexpected end of file")
	}
	return nil
}

func (d *Driver) ShaderCompiled(sh uint32) bool {
	s, ok := d.shaders[sh]
	return ok && s.compiled
}

func (d *Driver) ShaderInfoLog(sh uint32) string {
	if s, ok := d.shaders[sh]; ok {
		return s.log
	}
	return ""
}

func (d *Driver) DeleteShader(sh uint32) {
	d.Calls["DeleteShader"]++
	if _, ok := d.shaders[sh]; !ok {
		d.errorf("DeleteShader: unknown shader %d", sh)
		return
	}
	delete(d.shaders, sh)
}

func (d *Driver) CreateProgram() uint32 {
	d.Calls["CreateProgram"]++
	h := d.handle()
	d.programs[h] = &fakeProgram{}
	return h
}

func (d *Driver) AttachShader(prog, sh uint32) {
	p, ok := d.programs[prog]
	if !ok {
		d.errorf("AttachShader: unknown program %d", prog)
		return
	}
	if _, ok := d.shaders[sh]; !ok {
		d.errorf("AttachShader: unknown shader %d", sh)
		return
	}
	p.attached = append(p.attached, sh)
}

func (d *Driver) DetachShader(prog, sh uint32) {
	p, ok := d.programs[prog]
	if !ok {
		d.errorf("DetachShader: unknown program %d", prog)
		return
	}
	i := slices.Index(p.attached, sh)
	if i < 0 {
		d.errorf("DetachShader: shader %d not attached to %d", sh, prog)
		return
	}
	p.attached = slices.Delete(p.attached, i, i+1)
}

type varying struct{ typ, name string }

func declarations(src, qualifier string) []varying {
	var out []varying
	for _, m := range varyingRe.FindAllStringSubmatch(src, -1) {
		if m[1] == qualifier {
			out = append(out, varying{typ: m[2], name: m[3]})
		}
	}
	return out
}

func (d *Driver) LinkProgram(prog uint32) {
	d.Calls["LinkProgram"]++
	p, ok := d.programs[prog]
	if !ok {
		d.errorf("LinkProgram: unknown program %d", prog)
		return
	}
	p.linked = false
	var vs, fs *fakeShader
	for _, h := range p.attached {
		s := d.shaders[h]
		if s == nil || !s.compiled {
			p.log = "error: linking with uncompiled shader"
			return
		}
		if s.stage == shader.Vertex {
			vs = s
		} else {
			fs = s
		}
	}
	if vs == nil || fs == nil {
		p.log = "error: program needs a vertex and a fragment shader"
		return
	}

	outs := make(map[string]string)
	for _, v := range declarations(vs.src, "out") {
		outs[v.name] = v.typ
	}
	for _, in := range declarations(fs.src, "in") {
		typ, ok := outs[in.name]
		if !ok {
			p.log = fmt.Sprintf("error: fragment shader input `%s' has no matching vertex output", in.name)
			return
		}
		if typ != in.typ {
			p.log = fmt.Sprintf("error: `%s' declared as type `%s' but output from vertex shader has type `%s'", in.name, in.typ, typ)
			return
		}
	}

	types := make(map[string]string)
	for _, s := range []*fakeShader{vs, fs} {
		for _, m := range uniformRe.FindAllStringSubmatch(s.src, -1) {
			types[m[2]] = m[1]
		}
	}
	p.uniforms = make(map[string]int32)
	for i, name := range slices.Sorted(maps.Keys(types)) {
		p.uniforms[name] = int32(i)
	}
	p.values = make(map[int32]any)
	p.linked = true
	p.log = ""
}

func (d *Driver) ProgramLinked(prog uint32) bool {
	p, ok := d.programs[prog]
	return ok && p.linked
}

func (d *Driver) ValidateProgram(prog uint32) bool {
	d.Calls["ValidateProgram"]++
	p, ok := d.programs[prog]
	if !ok || !p.linked {
		return false
	}
	if d.FailValidate {
		p.log = "validation failed: no vertex array object bound"
		return false
	}
	return true
}

func (d *Driver) ProgramInfoLog(prog uint32) string {
	if p, ok := d.programs[prog]; ok {
		return p.log
	}
	return ""
}

func (d *Driver) DeleteProgram(prog uint32) {
	d.Calls["DeleteProgram"]++
	d.Deletes[prog]++
	if _, ok := d.programs[prog]; !ok {
		d.errorf("DeleteProgram: unknown program %d", prog)
		return
	}
	delete(d.programs, prog)
	if d.current == prog {
		d.current = 0
	}
}

func (d *Driver) UseProgram(prog uint32) {
	d.Calls["UseProgram"]++
	if prog == 0 {
		d.current = 0
		return
	}
	p, ok := d.programs[prog]
	if !ok || !p.linked {
		d.errorf("UseProgram: program %d is not a linked program", prog)
		return
	}
	d.current = prog
}

func (d *Driver) UniformLocation(prog uint32, name string) int32 {
	d.Calls["UniformLocation"]++
	p, ok := d.programs[prog]
	if !ok || !p.linked {
		d.errorf("UniformLocation: program %d is not linked", prog)
		return -1
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return -1
}

func (d *Driver) upload(method string, loc int32, v any) {
	d.Calls[method]++
	if loc == -1 {
		return
	}
	p, ok := d.programs[d.current]
	if d.current == 0 || !ok {
		d.errorf("%s: no program current", method)
		return
	}
	p.values[loc] = v
}

func (d *Driver) Uniform1i(loc int32, v int32) { d.upload("Uniform1i", loc, v) }
func (d *Driver) Uniform1f(loc int32, v float32) { d.upload("Uniform1f", loc, v) }
func (d *Driver) Uniform2f(loc int32, x, y float32) { d.upload("Uniform2f", loc, [2]float32{x, y}) }
func (d *Driver) Uniform3f(loc int32, x, y, z float32) { d.upload("Uniform3f", loc, [3]float32{x, y, z}) }
func (d *Driver) Uniform4f(loc int32, x, y, z, w float32) {
	d.upload("Uniform4f", loc, [4]float32{x, y, z, w})
}

func (d *Driver) UniformMatrix4fv(loc int32, m *[16]float32) {
	d.upload("UniformMatrix4fv", loc, *m)
}

// Current returns the program made current by the last UseProgram call.
func (d *Driver) Current() uint32 { return d.current }

// Uniform returns the last value uploaded to name on prog.
func (d *Driver) Uniform(prog uint32, name string) (any, bool) {
	p, ok := d.programs[prog]
	if !ok || !p.linked {
		return nil, false
	}
	loc, ok := p.uniforms[name]
	if !ok {
		return nil, false
	}
	v, ok := p.values[loc]
	return v, ok
}

// DrawCall is what a draw with the current program would see.
type DrawCall struct {
	Program  uint32
	Uniforms map[string]any
}

// Draw snapshots the current program and its uniform values. Uniforms that
// were never set are absent.
func (d *Driver) Draw() (DrawCall, error) {
	d.Calls["Draw"]++
	p, ok := d.programs[d.current]
	if d.current == 0 || !ok {
		return DrawCall{}, errors.New("draw with no program current")
	}
	dc := DrawCall{Program: d.current, Uniforms: make(map[string]any)}
	for name, loc := range p.uniforms {
		if v, ok := p.values[loc]; ok {
			dc.Uniforms[name] = v
		}
	}
	return dc, nil
}

// LiveShaders is the number of stage objects not yet deleted.
func (d *Driver) LiveShaders() int { return len(d.shaders) }

// LivePrograms is the number of program objects not yet deleted.
func (d *Driver) LivePrograms() int { return len(d.programs) }
