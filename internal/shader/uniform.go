package shader

import (
	"reflect"

	"cardgame/math"
)

// Location resolves a uniform name, caching the result. ok is false when the
// program is not ready or the name is not an active uniform.
func (p *Program) Location(name string) (loc int32, ok bool) {
	if p.status != Ready {
		return -1, false
	}
	loc, cached := p.uniforms.lookup(name, func(n string) int32 {
		return p.ctx.drv.UniformLocation(p.handle, n)
	})
	if loc < 0 {
		if !cached {
			p.log.Warn("unresolved uniform", "program", p.name, "uniform", name)
		}
		return -1, false
	}
	return loc, true
}

// target resolves name and makes p current so the upload lands on it.
func (p *Program) target(name string) (int32, bool) {
	loc, ok := p.Location(name)
	if !ok {
		return -1, false
	}
	if p.ctx.active != p {
		p.log.Debug("activating program for uniform upload", "program", p.name, "uniform", name)
		p.ctx.drv.UseProgram(p.handle)
		p.ctx.active = p
	}
	return loc, true
}

// SetBool uploads v as 0 or 1, the way GLSL bool uniforms are set.
func (p *Program) SetBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	p.SetInt(name, i)
}

func (p *Program) SetInt(name string, v int32) {
	if loc, ok := p.target(name); ok {
		p.ctx.drv.Uniform1i(loc, v)
	}
}

func (p *Program) SetFloat(name string, v float32) {
	if loc, ok := p.target(name); ok {
		p.ctx.drv.Uniform1f(loc, v)
	}
}

func (p *Program) SetVec2(name string, v math.Vec2) {
	if loc, ok := p.target(name); ok {
		p.ctx.drv.Uniform2f(loc, v.X, v.Y)
	}
}

func (p *Program) SetVec3(name string, v math.Vec3) {
	if loc, ok := p.target(name); ok {
		p.ctx.drv.Uniform3f(loc, v.X, v.Y, v.Z)
	}
}

func (p *Program) SetVec4(name string, v math.Vec4) {
	if loc, ok := p.target(name); ok {
		p.ctx.drv.Uniform4f(loc, v.X, v.Y, v.Z, v.W)
	}
}

func (p *Program) SetMat4(name string, m math.Mat4) {
	if loc, ok := p.target(name); ok {
		arr := m.Array()
		p.ctx.drv.UniformMatrix4fv(loc, &arr)
	}
}

// SetUniform uploads v with the setter matching its Go type. Unsupported
// types are logged and ignored.
func (p *Program) SetUniform(name string, v any) {
	switch v := v.(type) {
	case bool:
		p.SetBool(name, v)
	case int:
		p.SetInt(name, int32(v))
	case int32:
		p.SetInt(name, v)
	case float32:
		p.SetFloat(name, v)
	case float64:
		p.SetFloat(name, float32(v))
	case math.Vec2:
		p.SetVec2(name, v)
	case math.Vec3:
		p.SetVec3(name, v)
	case math.Vec4:
		p.SetVec4(name, v)
	case math.Mat4:
		p.SetMat4(name, v)
	case [16]float32:
		if loc, ok := p.target(name); ok {
			p.ctx.drv.UniformMatrix4fv(loc, &v)
		}
	default:
		p.log.Warn("unsupported uniform type", "program", p.name, "uniform", name, "type", reflect.TypeOf(v))
	}
}

// SetUniforms takes struct fields with a "uniform" tag and assigns their
// values to the uniforms of that name. Untagged exported embedded structs
// are searched too. Unexported fields are skipped.
//
//	type frame struct {
//		Time float32   `uniform:"uTime"`
//		Tint math.Vec4 `uniform:"uTint"`
//	}
func (p *Program) SetUniforms(data any) {
	val := reflect.ValueOf(data)
	if !val.IsValid() {
		return
	}
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		p.log.Warn("SetUniforms needs a struct", "program", p.name, "type", val.Type())
		return
	}
	p.setStructUniforms(val)
}

func (p *Program) setStructUniforms(val reflect.Value) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name := f.Tag.Get("uniform")
		if name == "" {
			if f.Anonymous && f.IsExported() && f.Type.Kind() == reflect.Struct {
				p.setStructUniforms(val.Field(i))
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		p.SetUniform(name, val.Field(i).Interface())
	}
}
