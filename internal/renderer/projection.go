package renderer

import (
	"math"

	"github.com/ivlev/shotmaker/internal/scene"
)

const nearPlane = 0.05

// view is a camera basis plus the pixel-space projection for one frame size.
type view struct {
	pos, right, up, fwd scene.Vec3
	focal               float64 // pixels per world unit at depth 1
	cx, cy              float64
}

func newView(c *scene.Camera, width, height int) view {
	fwd := c.Forward.Normalize()
	if fwd == (scene.Vec3{}) {
		fwd = scene.DefaultForward
	}
	right := scene.WorldUp.Cross(fwd).Normalize()
	if right == (scene.Vec3{}) {
		// looking straight up or down
		right = scene.Vec3{X: 1}
	}
	up := fwd.Cross(right)

	fov := c.FOV
	if fov <= 0 || fov >= 180 {
		fov = 60
	}
	half := fov * math.Pi / 360

	return view{
		pos:   c.Position,
		right: right,
		up:    up,
		fwd:   fwd,
		focal: float64(height) / 2 / math.Tan(half),
		cx:    float64(width) / 2,
		cy:    float64(height) / 2,
	}
}

// project maps a world point to pixel coordinates. ok is false for points
// behind the near plane.
func (v view) project(p scene.Vec3) (x, y, depth float64, ok bool) {
	rel := p.Sub(v.pos)
	depth = rel.Dot(v.fwd)
	if depth < nearPlane {
		return 0, 0, depth, false
	}
	x = v.cx + rel.Dot(v.right)*v.focal/depth
	y = v.cy - rel.Dot(v.up)*v.focal/depth
	return x, y, depth, true
}
