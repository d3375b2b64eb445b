package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Mesh holds the OpenGL buffer objects for a list of triangles whose
// vertices are vec3 positions bound to attribute location 0.
type Mesh struct {
	VAO         uint32
	VBO         uint32
	VertexCount int32
}

// NewMesh uploads positions (x, y, z triples) to a new VAO/VBO pair.
func NewMesh(positions []float32) (*Mesh, error) {
	if len(positions) == 0 || len(positions)%9 != 0 {
		return nil, fmt.Errorf("mesh needs whole triangles of xyz positions, got %d floats", len(positions))
	}
	m := &Mesh{VertexCount: int32(len(positions) / 3)}

	gl.GenVertexArrays(1, &m.VAO)
	gl.GenBuffers(1, &m.VBO)
	gl.BindVertexArray(m.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(positions)*4, gl.Ptr(positions), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, gl.PtrOffset(0))

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return m, nil
}

// Bind makes the mesh's vertex array current, e.g. before validating a
// program against it.
func (m *Mesh) Bind() {
	gl.BindVertexArray(m.VAO)
}

// Draw issues one glDrawArrays call with whatever program is current.
func (m *Mesh) Draw() {
	gl.BindVertexArray(m.VAO)
	gl.DrawArrays(gl.TRIANGLES, 0, m.VertexCount)
	gl.BindVertexArray(0)
}

// Delete frees the GPU buffers. Calling it twice is harmless.
func (m *Mesh) Delete() {
	if m.VAO != 0 {
		gl.DeleteVertexArrays(1, &m.VAO)
		m.VAO = 0
	}
	if m.VBO != 0 {
		gl.DeleteBuffers(1, &m.VBO)
		m.VBO = 0
	}
}
