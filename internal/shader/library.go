package shader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
)

// Fallback sources draw everything in solid magenta. Library.Get hands out
// the fallback program in place of one that failed to build.
const (
	FallbackVertexSource = `#version 330 core
layout (location = 0) in vec3 aPos;
void main()
{
    gl_Position = vec4(aPos, 1.0);
}
`
	FallbackFragmentSource = `#version 330 core
out vec4 FragColor;
void main()
{
    FragColor = vec4(1.0, 0.0, 1.0, 1.0);
}
`
)

const fallbackName = "fallback"

// Library keeps named programs. Replacing a program deletes the old one,
// except when the replacement failed to build, in which case the old one
// stays in service.
type Library struct {
	ctx      *Context
	log      *slog.Logger
	programs map[string]*Program
	fallback *Program
}

func NewLibrary(ctx *Context, log *slog.Logger) *Library {
	if log == nil {
		log = slog.Default()
	}
	return &Library{
		ctx:      ctx,
		log:      log,
		programs: make(map[string]*Program),
	}
}

func (l *Library) opts(name string) []Option {
	return []Option{WithName(name), WithLogger(l.log)}
}

// Load builds a program from inline or preloaded sources and stores it
// under name. The returned program is the one just built, whether or not it
// replaced the stored one.
func (l *Library) Load(name string, vertex, fragment Source) *Program {
	p := New(l.ctx, vertex, fragment, l.opts(name)...)
	l.install(name, p)
	return p
}

// LoadFiles is Load with both stages read from disk.
func (l *Library) LoadFiles(name, vertexPath, fragmentPath string) *Program {
	p := NewFromFiles(l.ctx, vertexPath, fragmentPath, l.opts(name)...)
	l.install(name, p)
	return p
}

// Reload rebuilds a file-backed program from its paths.
func (l *Library) Reload(name string) (*Program, error) {
	old, ok := l.programs[name]
	if !ok {
		return nil, fmt.Errorf("reload %q: no such program", name)
	}
	vs, fs := old.Sources()
	if vs.Path == "" || fs.Path == "" {
		return nil, fmt.Errorf("reload %q: program was not loaded from files", name)
	}
	p := l.LoadFiles(name, vs.Path, fs.Path)
	if err := p.Err(); err != nil {
		return p, fmt.Errorf("reload %q: %w", name, err)
	}
	l.log.Info("shader program reloaded", "program", name)
	return p, nil
}

func (l *Library) install(name string, p *Program) {
	old, ok := l.programs[name]
	if p.Status() != Ready && ok && old.Status() == Ready {
		l.log.Warn("keeping previous shader program", "program", name, "err", p.Err())
		return
	}
	if ok && old != p {
		old.Delete()
	}
	l.programs[name] = p
}

// Lookup returns the stored program for name, whatever its status.
func (l *Library) Lookup(name string) (*Program, bool) {
	p, ok := l.programs[name]
	return p, ok
}

// Get returns the ready program for name, or the fallback program when the
// name is unknown or failed to build. It returns nil only if the fallback
// itself cannot be built.
func (l *Library) Get(name string) *Program {
	if p, ok := l.programs[name]; ok && p.Status() == Ready {
		return p
	}
	return l.Fallback()
}

// Fallback builds the fallback program on first use.
func (l *Library) Fallback() *Program {
	if l.fallback == nil {
		l.fallback = New(l.ctx,
			VertexSource(FallbackVertexSource),
			FragmentSource(FallbackFragmentSource),
			l.opts(fallbackName)...)
	}
	if l.fallback.Status() != Ready {
		return nil
	}
	return l.fallback
}

// Names returns the stored program names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.programs))
	for name := range l.programs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// namesUsing returns the programs built from the file at path.
func (l *Library) namesUsing(path string) []string {
	path = filepath.Clean(path)
	var names []string
	for _, name := range l.Names() {
		vs, fs := l.programs[name].Sources()
		if (vs.Path != "" && filepath.Clean(vs.Path) == path) ||
			(fs.Path != "" && filepath.Clean(fs.Path) == path) {
			names = append(names, name)
		}
	}
	return names
}

// paths returns every source file referenced by a stored program.
func (l *Library) paths() []string {
	var paths []string
	for _, p := range l.programs {
		vs, fs := p.Sources()
		for _, s := range []Source{vs, fs} {
			if s.Path != "" && !slices.Contains(paths, filepath.Clean(s.Path)) {
				paths = append(paths, filepath.Clean(s.Path))
			}
		}
	}
	slices.Sort(paths)
	return paths
}

// Close deletes every program, the fallback included.
func (l *Library) Close() {
	for name, p := range l.programs {
		p.Delete()
		delete(l.programs, name)
	}
	if l.fallback != nil {
		l.fallback.Delete()
		l.fallback = nil
	}
}
