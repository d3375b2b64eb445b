package shader_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardgame/internal/shader"
	"cardgame/internal/shader/shadertest"
	"cardgame/math"
)

const triangleVert = `#version 330 core
layout (location = 0) in vec3 aPos;
uniform mat4 uTransform;
out vec3 vPos;
void main()
{
    vPos = aPos;
    gl_Position = uTransform * vec4(aPos, 1.0);
}
`

const tintFrag = `#version 330 core
in vec3 vPos;
uniform vec4 uTint;
uniform float uTime;
uniform bool uFlip;
uniform int uMode;
out vec4 FragColor;
void main()
{
    FragColor = uTint;
}
`

const lightFrag = `#version 330 core
in vec3 vPos;
uniform vec2 uResolution;
uniform vec3 uLightDir;
out vec4 FragColor;
void main()
{
    FragColor = vec4(uLightDir * gl_FragCoord.x / uResolution.x, 1.0);
}
`

// missing closing brace
const brokenVert = `#version 330 core
layout (location = 0) in vec3 aPos;
void main()
{
    gl_Position = vec4(aPos, 1.0);
`

const brokenFrag = `#version 330 core
out vec4 FragColor;
void main()
{
    FragColor = vec4(1.0, 0.5, 0.2, 1.0;
}
`

// compiles, but vPos does not match the vertex output type
const mismatchedFrag = `#version 330 core
in vec4 vPos;
out vec4 FragColor;
void main()
{
    FragColor = vPos;
}
`

type fixture struct {
	drv *shadertest.Driver
	ctx *shader.Context
	log *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	drv := shadertest.New()
	return &fixture{drv: drv, ctx: shader.NewContext(drv), log: &bytes.Buffer{}}
}

func (f *fixture) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(f.log, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (f *fixture) build(name, vert, frag string) *shader.Program {
	return shader.New(f.ctx,
		shader.VertexSource(vert),
		shader.FragmentSource(frag),
		shader.WithName(name),
		shader.WithLogger(f.logger()))
}

func TestNewReady(t *testing.T) {
	f := newFixture(t)
	p := f.build("tint", triangleVert, tintFrag)

	require.Equal(t, shader.Ready, p.Status())
	assert.NoError(t, p.Err())
	assert.NotZero(t, p.Handle())
	assert.Equal(t, "tint", p.Name())

	assert.Equal(t, 0, f.drv.LiveShaders(), "stage objects are released after link")
	assert.Equal(t, 1, f.drv.LivePrograms())
	assert.Empty(t, f.drv.Errors)
	assert.NotContains(t, f.log.String(), "level=ERROR")

	require.NoError(t, p.Use())
	assert.True(t, p.Active())
	_, err := f.drv.Draw()
	assert.NoError(t, err)
}

func TestVertexCompileError(t *testing.T) {
	f := newFixture(t)
	p := f.build("broken", brokenVert, tintFrag)

	require.Equal(t, shader.Failed, p.Status())
	var serr *shader.StageCompileError
	require.ErrorAs(t, p.Err(), &serr)
	assert.Equal(t, shader.Vertex, serr.Stage)
	assert.NotEmpty(t, serr.Log)
	assert.Contains(t, p.Err().Error(), "vertex")
	assert.Contains(t, f.log.String(), "level=ERROR")

	assert.Zero(t, p.Handle())
	assert.Equal(t, 0, f.drv.LiveShaders())
	assert.Equal(t, 0, f.drv.LivePrograms())
	assert.Zero(t, f.drv.Calls["CreateProgram"])

	assert.ErrorIs(t, p.Use(), shader.ErrNotReady)
	assert.Zero(t, f.drv.Calls["UseProgram"])
	assert.False(t, p.Active())
}

func TestFragmentCompileError(t *testing.T) {
	f := newFixture(t)
	p := f.build("broken", triangleVert, brokenFrag)

	require.Equal(t, shader.Failed, p.Status())
	var serr *shader.StageCompileError
	require.ErrorAs(t, p.Err(), &serr)
	assert.Equal(t, shader.Fragment, serr.Stage)
	assert.NotEmpty(t, serr.Log)
	assert.Contains(t, p.Err().Error(), "fragment")

	assert.Equal(t, 0, f.drv.LiveShaders(), "the compiled vertex stage is released too")
	assert.Equal(t, 0, f.drv.LivePrograms())
	assert.ErrorIs(t, p.Use(), shader.ErrNotReady)
	assert.Empty(t, f.drv.Errors)
}

func TestLinkError(t *testing.T) {
	f := newFixture(t)
	p := f.build("mismatch", triangleVert, mismatchedFrag)

	require.Equal(t, shader.Failed, p.Status())
	var lerr *shader.LinkError
	require.ErrorAs(t, p.Err(), &lerr)
	assert.Contains(t, lerr.Log, "vPos")

	assert.Equal(t, 0, f.drv.LiveShaders())
	assert.Equal(t, 0, f.drv.LivePrograms())
	assert.ErrorIs(t, p.Use(), shader.ErrNotReady)
}

func TestUnresolvedUniformIsNoop(t *testing.T) {
	f := newFixture(t)
	p := f.build("tint", triangleVert, tintFrag)
	require.NoError(t, p.Use())

	p.SetFloat("uTime", 2)
	p.SetFloat("nonexistent", 1)
	p.SetFloat("nonexistent", 1)

	dc, err := f.drv.Draw()
	require.NoError(t, err)
	assert.Equal(t, float32(2), dc.Uniforms["uTime"])
	assert.Len(t, dc.Uniforms, 1)
	assert.Empty(t, f.drv.Errors)

	assert.Equal(t, 2, f.drv.Calls["UniformLocation"], "misses are cached")
	assert.Equal(t, 1, strings.Count(f.log.String(), "unresolved uniform"), "warned once per name")

	_, ok := p.Location("nonexistent")
	assert.False(t, ok)
}

func TestSetUniformsVisibleAtDraw(t *testing.T) {
	f := newFixture(t)
	p := f.build("tint", triangleVert, tintFrag)
	require.NoError(t, p.Use())

	transform := math.Mat4Translation(math.NewVec3(0.5, 0, 0))
	p.SetVec4("uTint", math.NewVec4(1, 0.5, 0.2, 1))
	p.SetMat4("uTransform", transform)
	p.SetBool("uFlip", true)
	p.SetInt("uMode", 3)

	dc, err := f.drv.Draw()
	require.NoError(t, err)
	assert.Equal(t, p.Handle(), dc.Program)
	assert.Equal(t, [4]float32{1, 0.5, 0.2, 1}, dc.Uniforms["uTint"])
	assert.Equal(t, transform.Array(), dc.Uniforms["uTransform"])
	assert.Equal(t, int32(1), dc.Uniforms["uFlip"])
	assert.Equal(t, int32(3), dc.Uniforms["uMode"])
}

func TestVectorSettersVisibleAtDraw(t *testing.T) {
	f := newFixture(t)
	p := f.build("light", triangleVert, lightFrag)
	require.Equal(t, shader.Ready, p.Status())

	p.SetVec2("uResolution", math.NewVec2(800, 600))
	p.SetVec3("uLightDir", math.NewVec3(0, 1, 0))

	dc, err := f.drv.Draw()
	require.NoError(t, err)
	assert.Equal(t, [2]float32{800, 600}, dc.Uniforms["uResolution"])
	assert.Equal(t, [3]float32{0, 1, 0}, dc.Uniforms["uLightDir"])
	assert.Equal(t, 1, f.drv.Calls["Uniform2f"])
	assert.Equal(t, 1, f.drv.Calls["Uniform3f"])

	p.SetUniform("uResolution", math.NewVec2(1024, 768))
	p.SetUniform("uLightDir", math.NewVec3(0.5, 0, -1))

	dc, err = f.drv.Draw()
	require.NoError(t, err)
	assert.Equal(t, [2]float32{1024, 768}, dc.Uniforms["uResolution"])
	assert.Equal(t, [3]float32{0.5, 0, -1}, dc.Uniforms["uLightDir"])
	assert.Empty(t, f.drv.Errors)
}

func TestSettersActivateProgram(t *testing.T) {
	f := newFixture(t)
	a := f.build("a", triangleVert, tintFrag)
	b := f.build("b", triangleVert, tintFrag)

	require.NoError(t, a.Use())
	b.SetFloat("uTime", 1)

	assert.Equal(t, b.Handle(), f.drv.Current())
	assert.Same(t, b, f.ctx.Active())
	assert.False(t, a.Active())

	v, ok := f.drv.Uniform(b.Handle(), "uTime")
	require.True(t, ok)
	assert.Equal(t, float32(1), v)
	_, ok = f.drv.Uniform(a.Handle(), "uTime")
	assert.False(t, ok)
}

func TestFailedProgramSettersAreNoops(t *testing.T) {
	f := newFixture(t)
	p := f.build("broken", brokenVert, tintFrag)

	p.SetFloat("uTime", 1)
	p.SetMat4("uTransform", math.Mat4Identity())
	p.SetUniforms(struct {
		Time float32 `uniform:"uTime"`
	}{1})

	assert.Zero(t, f.drv.Calls["UniformLocation"])
	assert.Zero(t, f.drv.Calls["UseProgram"])
	assert.ErrorIs(t, p.Validate(), shader.ErrNotReady)
}

func TestDeleteReleasesOnce(t *testing.T) {
	f := newFixture(t)
	p := f.build("tint", triangleVert, tintFrag)
	h := p.Handle()
	require.NoError(t, p.Use())

	p.Delete()
	p.Delete()

	assert.Equal(t, 1, f.drv.Deletes[h])
	assert.Equal(t, shader.Released, p.Status())
	assert.Zero(t, p.Handle())
	assert.Nil(t, f.ctx.Active())
	assert.ErrorIs(t, p.Use(), shader.ErrNotReady)

	p.SetFloat("uTime", 1)
	assert.Empty(t, f.drv.Errors)
}

func TestDeleteFailedProgram(t *testing.T) {
	f := newFixture(t)
	p := f.build("broken", brokenVert, tintFrag)
	p.Delete()

	assert.Zero(t, f.drv.Calls["DeleteProgram"])
	assert.Equal(t, shader.Failed, p.Status())
}

func TestMoveTransfersOwnership(t *testing.T) {
	f := newFixture(t)
	p := f.build("tint", triangleVert, tintFrag)
	h := p.Handle()
	require.NoError(t, p.Use())
	p.SetFloat("uTime", 1)
	lookups := f.drv.Calls["UniformLocation"]

	q := p.Move()
	assert.Equal(t, shader.Released, p.Status())
	assert.Zero(t, p.Handle())
	assert.Equal(t, shader.Ready, q.Status())
	assert.Equal(t, h, q.Handle())
	assert.True(t, q.Active(), "the active slot follows the handle")

	q.SetFloat("uTime", 2)
	assert.Equal(t, lookups, f.drv.Calls["UniformLocation"], "the location cache moves too")

	p.Delete()
	assert.Zero(t, f.drv.Deletes[h])
	q.Delete()
	q.Delete()
	assert.Equal(t, 1, f.drv.Deletes[h])
	assert.Empty(t, f.drv.Errors)
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	p := f.build("tint", triangleVert, tintFrag)
	assert.NoError(t, p.Validate())

	f.drv.FailValidate = true
	var verr *shader.ValidationError
	require.ErrorAs(t, p.Validate(), &verr)
	assert.NotEmpty(t, verr.Log)
	assert.Equal(t, shader.Ready, p.Status())
}

func TestSetUniformDispatch(t *testing.T) {
	f := newFixture(t)
	p := f.build("tint", triangleVert, tintFrag)

	p.SetUniform("uTime", 0.5)
	p.SetUniform("uMode", 7)
	p.SetUniform("uFlip", false)
	p.SetUniform("uTint", math.NewVec4(1, 2, 3, 1))
	p.SetUniform("uTransform", [16]float32{15: 1})
	p.SetUniform("uTime", "not a number")

	dc, err := f.drv.Draw()
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), dc.Uniforms["uTime"])
	assert.Equal(t, int32(7), dc.Uniforms["uMode"])
	assert.Equal(t, int32(0), dc.Uniforms["uFlip"])
	assert.Equal(t, [4]float32{1, 2, 3, 1}, dc.Uniforms["uTint"])
	assert.Equal(t, [16]float32{15: 1}, dc.Uniforms["uTransform"])
	assert.Contains(t, f.log.String(), "unsupported uniform type")
}

type Frame struct {
	Time float32 `uniform:"uTime"`
}

type drawUniforms struct {
	Frame
	Tint      math.Vec4 `uniform:"uTint"`
	Transform math.Mat4 `uniform:"uTransform"`
	Mode      int32     `uniform:"uMode"`
	note      string    `uniform:"uNote"`
	Untagged  float32
}

func TestSetUniformsFromStruct(t *testing.T) {
	f := newFixture(t)
	p := f.build("tint", triangleVert, tintFrag)

	p.SetUniforms(&drawUniforms{
		Frame:     Frame{Time: 4},
		Tint:      math.NewVec4(0, 1, 0, 1),
		Transform: math.Mat4Identity(),
		Mode:      2,
		note:      "ignored",
	})

	dc, err := f.drv.Draw()
	require.NoError(t, err)
	assert.Equal(t, float32(4), dc.Uniforms["uTime"])
	assert.Equal(t, [4]float32{0, 1, 0, 1}, dc.Uniforms["uTint"])
	assert.Equal(t, math.Mat4Identity().Array(), dc.Uniforms["uTransform"])
	assert.Equal(t, int32(2), dc.Uniforms["uMode"])
	assert.NotContains(t, f.log.String(), "uNote")
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "triangle.vert")
	frag := filepath.Join(dir, "tint.frag")
	require.NoError(t, os.WriteFile(vert, []byte(triangleVert), 0o644))
	require.NoError(t, os.WriteFile(frag, []byte(tintFrag), 0o644))

	f := newFixture(t)
	p := shader.NewFromFiles(f.ctx, vert, frag, shader.WithLogger(f.logger()))
	require.Equal(t, shader.Ready, p.Status())
	vs, fs := p.Sources()
	assert.Equal(t, vert, vs.Path)
	assert.Equal(t, frag, fs.Path)
	assert.Equal(t, shader.Fragment, fs.Stage)
}

func TestNewFromFilesMissingSource(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "triangle.vert")
	require.NoError(t, os.WriteFile(vert, []byte(triangleVert), 0o644))
	missing := filepath.Join(dir, "missing.frag")

	f := newFixture(t)
	p := shader.NewFromFiles(f.ctx, vert, missing, shader.WithLogger(f.logger()))

	require.Equal(t, shader.Failed, p.Status())
	var serr *shader.StageCompileError
	require.True(t, errors.As(p.Err(), &serr))
	assert.Equal(t, shader.Fragment, serr.Stage)
	assert.Contains(t, serr.Log, "missing.frag")
	assert.Zero(t, f.drv.Calls["CreateShader"], "nothing reaches the driver")
}

func TestContextUnbind(t *testing.T) {
	f := newFixture(t)
	p := f.build("tint", triangleVert, tintFrag)
	require.NoError(t, p.Use())

	f.ctx.Unbind()
	assert.Nil(t, f.ctx.Active())
	assert.Zero(t, f.drv.Current())
	_, err := f.drv.Draw()
	assert.Error(t, err)
}
