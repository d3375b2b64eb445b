// Package config reads the TOML file that describes the window and the
// shader programs to build.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Window     Window     `toml:"window"`
	ClearColor [4]float32 `toml:"clear_color"`
	LogLevel   string     `toml:"log_level"`
	// Watch rebuilds programs when their source files change.
	Watch    bool      `toml:"watch"`
	Programs []Program `toml:"programs"`
}

// Window overrides the window defaults. Zero fields, and a nil VSync, keep
// the default.
type Window struct {
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Title   string `toml:"title"`
	VSync   *bool  `toml:"vsync"`
	GLMajor int    `toml:"gl_major"`
	GLMinor int    `toml:"gl_minor"`
}

// Program names a vertex/fragment source pair. Relative paths are resolved
// against the directory of the config file.
type Program struct {
	Name     string `toml:"name"`
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
}

func Default() Config {
	return Config{
		ClearColor: [4]float32{0.2, 0.3, 0.4, 1},
		LogLevel:   "info",
	}
}

// Load reads path over the defaults. Unknown keys are an error so typos do
// not silently fall back to defaults.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result. Paths are
// left as written.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Config{}, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolve(dir string) {
	for i := range c.Programs {
		p := &c.Programs[i]
		if p.Vertex != "" && !filepath.IsAbs(p.Vertex) {
			p.Vertex = filepath.Join(dir, p.Vertex)
		}
		if p.Fragment != "" && !filepath.IsAbs(p.Fragment) {
			p.Fragment = filepath.Join(dir, p.Fragment)
		}
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Window.Width < 0 || c.Window.Height < 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must not be negative", c.Window.Width, c.Window.Height))
	}
	if c.Window.GLMajor != 0 && (c.Window.GLMajor < 3 || (c.Window.GLMajor == 3 && c.Window.GLMinor < 3)) {
		errs = append(errs, fmt.Errorf("OpenGL %d.%d is older than 3.3 core", c.Window.GLMajor, c.Window.GLMinor))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]bool)
	for i, p := range c.Programs {
		switch {
		case p.Name == "":
			errs = append(errs, fmt.Errorf("programs[%d]: missing name", i))
		case seen[p.Name]:
			errs = append(errs, fmt.Errorf("programs[%d]: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true
		if p.Vertex == "" || p.Fragment == "" {
			errs = append(errs, fmt.Errorf("programs[%d] %q: vertex and fragment are both required", i, p.Name))
		}
	}
	return errors.Join(errs...)
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
