package core

import (
	"cardgame/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite  = Color{1, 1, 1, 1}
	ColorOrange = Color{1, 0.5, 0.2, 1}
)

// Vec4 returns the colour as an RGBA vector for vec4 uniforms.
func (c Color) Vec4() math.Vec4 {
	return math.Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A}
}
