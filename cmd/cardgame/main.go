// Command cardgame opens a window and draws two triangles, each with its own
// shader program. Shader sources are listed in a TOML config and are rebuilt
// when edited.
//
// Keys: Escape quits, V validates every program against its mesh, W toggles
// wireframe.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	stdmath "math"
	"os"
	"strings"

	"cardgame/config"
	"cardgame/core"
	"cardgame/internal/opengl"
	"cardgame/internal/shader"
	"cardgame/math"
)

const (
	orangeProgram = "orange"
	tintProgram   = "tint"
)

var (
	leftTriangle = []float32{
		-0.9, -0.5, 0.0,
		-0.1, -0.5, 0.0,
		-0.5, 0.5, 0.0,
	}
	rightTriangle = []float32{
		0.1, -0.5, 0.0,
		0.9, -0.5, 0.0,
		0.5, 0.5, 0.0,
	}
	rightCenter = math.NewVec3(0.5, -1.0/6.0, 0)
)

// tintUniforms is uploaded with SetUniforms every frame.
type tintUniforms struct {
	Time       float32   `uniform:"uTime"`
	Resolution math.Vec2 `uniform:"uResolution"`
	Tint       math.Vec4 `uniform:"uTint"`
	Transform  math.Mat4 `uniform:"uTransform"`
}

func main() {
	configPath := flag.String("config", "cardgame.toml", "path to the TOML config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	wcfg := windowConfig(cfg.Window)
	window, err := core.NewWindow(wcfg)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	if err := opengl.Init(log); err != nil {
		return err
	}
	opengl.SetViewport(window.GetFramebufferSize())
	window.OnResize(opengl.SetViewport)

	ctx := shader.NewContext(opengl.Driver{})
	lib := shader.NewLibrary(ctx, log)
	defer lib.Close()
	for _, p := range cfg.Programs {
		lib.LoadFiles(p.Name, p.Vertex, p.Fragment)
	}

	left, err := opengl.NewMesh(leftTriangle)
	if err != nil {
		return fmt.Errorf("left triangle: %w", err)
	}
	defer left.Delete()
	right, err := opengl.NewMesh(rightTriangle)
	if err != nil {
		return fmt.Errorf("right triangle: %w", err)
	}
	defer right.Delete()

	var watcher *shader.Watcher
	if cfg.Watch {
		watcher, err = shader.NewWatcher(lib)
		if err != nil {
			log.Warn("shader hot reload disabled", "err", err)
		} else {
			defer watcher.Close()
		}
	}

	clearColor := core.Color{R: cfg.ClearColor[0], G: cfg.ClearColor[1], B: cfg.ClearColor[2], A: cfg.ClearColor[3]}
	validateWasDown, wireframeWasDown := false, false
	wireframe := false

	for !window.ShouldClose() {
		if window.IsKeyPressed(core.KeyEscape) {
			window.SetShouldClose(true)
		}
		validateDown := window.IsKeyPressed(core.KeyV)
		if validateDown && !validateWasDown {
			validate(log, lib, map[string]*opengl.Mesh{orangeProgram: left, tintProgram: right})
		}
		validateWasDown = validateDown
		wireframeDown := window.IsKeyPressed(core.KeyW)
		if wireframeDown && !wireframeWasDown {
			wireframe = !wireframe
			opengl.SetWireframe(wireframe)
		}
		wireframeWasDown = wireframeDown

		if watcher != nil {
			if rebuilt := watcher.Apply(); len(rebuilt) > 0 {
				window.SetTitle(fmt.Sprintf("%s (reloaded %s)", wcfg.Title, strings.Join(rebuilt, ", ")))
			}
		}

		opengl.Clear(clearColor)
		draw(lib.Get(orangeProgram), left, nil)
		width, height := window.GetFramebufferSize()
		draw(lib.Get(tintProgram), right, frameUniforms(float32(core.Time()), width, height))

		window.SwapBuffers()
		window.PollEvents()
	}
	return nil
}

// windowConfig applies the config file's overrides to the window defaults.
func windowConfig(w config.Window) core.WindowConfig {
	wc := core.DefaultWindowConfig()
	if w.Width > 0 {
		wc.Width = w.Width
	}
	if w.Height > 0 {
		wc.Height = w.Height
	}
	if w.Title != "" {
		wc.Title = w.Title
	}
	if w.VSync != nil {
		wc.VSync = *w.VSync
	}
	if w.GLMajor > 0 {
		wc.GLMajor, wc.GLMinor = w.GLMajor, w.GLMinor
	}
	return wc
}

// frameUniforms spins the right triangle about its centre. The rotation
// happens in a space stretched to the framebuffer's aspect ratio so the
// triangle keeps its shape on a non-square window; at t=0 the transform is
// the identity on screen.
func frameUniforms(t float32, width, height int) *tintUniforms {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	center := math.NewVec3(rightCenter.X*aspect, rightCenter.Y, 0)
	transform := math.Mat4Scale(math.NewVec3(aspect, 1, 1)).
		Mul(math.Mat4Translation(center.Mul(-1))).
		Mul(math.Mat4RotationZ(t * 0.5)).
		Mul(math.Mat4Translation(center)).
		Mul(math.Mat4Orthographic(-aspect, aspect, -1, 1, -1, 1))

	s := float32(0.5 + 0.5*stdmath.Sin(float64(t)))
	return &tintUniforms{
		Time:       t,
		Resolution: math.NewVec2(float32(width), float32(height)),
		Tint:       core.ColorOrange.Vec4().Lerp(core.ColorWhite.Vec4(), s),
		Transform:  transform,
	}
}

// draw is a no-op when p is nil, i.e. when even the fallback program failed.
func draw(p *shader.Program, mesh *opengl.Mesh, uniforms any) {
	if p == nil {
		return
	}
	if err := p.Use(); err != nil {
		return
	}
	if uniforms != nil {
		p.SetUniforms(uniforms)
	}
	mesh.Draw()
}

// storedProgram returns the program stored under name, or the error that
// failed it.
func storedProgram(lib *shader.Library, name string) (*shader.Program, error) {
	p, ok := lib.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no program %q", name)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// validate checks every stored program, not the fallback that Get would
// substitute for a failed one.
func validate(log *slog.Logger, lib *shader.Library, meshes map[string]*opengl.Mesh) {
	for _, name := range lib.Names() {
		p, err := storedProgram(lib, name)
		if err != nil {
			log.Warn("program failed to build", "program", name, "err", err)
			continue
		}
		mesh, ok := meshes[name]
		if !ok {
			continue
		}
		mesh.Bind()
		if err := p.Use(); err != nil {
			log.Warn("program not usable", "program", name, "err", err)
			continue
		}
		if err := p.Validate(); err != nil {
			log.Warn("program validation failed", "program", name, "err", err)
			continue
		}
		log.Info("program valid", "program", name, "handle", p.Handle())
	}
}
