package render

import (
	"math"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
)

// Camera is a pinhole at the origin looking down -Z. The field of view is
// horizontal; the vertical extent follows from the aspect ratio.
type Camera struct {
	width      int
	height     int
	halfExtent float64 // tan(fov/2)
}

// NewCamera builds a camera for the given image size and horizontal field of
// view in degrees
func NewCamera(width, height int, fovDegrees float64) Camera {
	return Camera{
		width:      width,
		height:     height,
		halfExtent: math.Tan(fovDegrees * math.Pi / 360),
	}
}

// GenerateRay maps a pixel coordinate plus sub-pixel jitter to a primary
// ray. Jitter components are offsets in pixel units around the pixel centre.
func (c Camera) GenerateRay(u, v int, jitter core.Vec2) core.Ray {
	px := (2*(float64(u)+0.5+jitter.X)/float64(c.width) - 1) * c.halfExtent
	aspect := float64(c.height) / float64(c.width)
	py := (1 - 2*(float64(v)+0.5+jitter.Y)/float64(c.height)) * c.halfExtent * aspect
	return core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(px, py, -1))
}
