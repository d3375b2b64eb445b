package shader

import (
	"fmt"
	"os"
)

// Source is the text of one stage, either inline or read from Path.
type Source struct {
	Stage Stage
	Text  string
	Path  string // empty for inline sources
}

func VertexSource(text string) Source {
	return Source{Stage: Vertex, Text: text}
}

func FragmentSource(text string) Source {
	return Source{Stage: Fragment, Text: text}
}

// LoadSource reads a stage's source from disk.
func LoadSource(stage Stage, path string) (Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("load %s shader %q: %w", stage, path, err)
	}
	return Source{Stage: stage, Text: string(b), Path: path}, nil
}

func (s Source) String() string {
	if s.Path != "" {
		return s.Path
	}
	return "<inline " + s.Stage.String() + ">"
}
