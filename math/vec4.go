package math

// Vec4 doubles as an RGBA colour when uploaded to a vec4 uniform.
type Vec4 struct {
	X, Y, Z, W float32
}

func NewVec4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// Lerp interpolates each component; t=0 gives v, t=1 gives other.
func (v Vec4) Lerp(other Vec4, t float32) Vec4 {
	return Vec4{
		X: v.X + (other.X-v.X)*t,
		Y: v.Y + (other.Y-v.Y)*t,
		Z: v.Z + (other.Z-v.Z)*t,
		W: v.W + (other.W-v.W)*t,
	}
}
