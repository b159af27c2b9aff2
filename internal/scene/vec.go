package scene

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Vec3 is a point or direction in world space (Y up).
type Vec3 struct {
	X, Y, Z float64
}

var (
	Origin  = Vec3{}
	WorldUp = Vec3{Y: 1}
	// Forward used by cameras that were never oriented
	DefaultForward = Vec3{Z: 1}
)

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector of v, or the zero vector if v has no length.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// UnmarshalYAML accepts the compact [x, y, z] form used in scene and run files.
func (v *Vec3) UnmarshalYAML(n *yaml.Node) error {
	var xs []float64
	if err := n.Decode(&xs); err != nil {
		return fmt.Errorf("vector must be a list of 3 numbers: %w", err)
	}
	if len(xs) != 3 {
		return fmt.Errorf("vector must have 3 components, got %d (line %d)", len(xs), n.Line)
	}
	*v = Vec3{xs[0], xs[1], xs[2]}
	return nil
}

func (v Vec3) MarshalYAML() (interface{}, error) {
	return []float64{v.X, v.Y, v.Z}, nil
}

// RGB is a linear colour with components in [0, 1].
type RGB [3]float64

var White = RGB{1, 1, 1}

func (c RGB) Mul(o RGB) RGB { return RGB{c[0] * o[0], c[1] * o[1], c[2] * o[2]} }
func (c RGB) Add(o RGB) RGB { return RGB{c[0] + o[0], c[1] + o[1], c[2] + o[2]} }
func (c RGB) Scale(k float64) RGB {
	return RGB{c[0] * k, c[1] * k, c[2] * k}
}

// Byte converts a component to 8 bits, clamping overexposure.
func (c RGB) Byte(i int) uint8 {
	x := c[i]
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 255
	}
	return uint8(x*255 + 0.5)
}
