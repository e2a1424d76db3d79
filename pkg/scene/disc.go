package scene

import (
	"math"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
)

// Disc represents a circular disc in 3D space
type Disc struct {
	Center core.Vec3 // Center of the disc
	Normal core.Vec3 // Unit normal (pointing "up" from the disc)
	Radius float64   // Radius of the disc
	Mat    Material
}

// NewDisc creates a new disc
func NewDisc(center, normal core.Vec3, radius float64, mat Material) *Disc {
	return &Disc{
		Center: center,
		Normal: normal.Normalize(),
		Radius: radius,
		Mat:    mat,
	}
}

// Intersect tests if a ray intersects the disc within (tMin, tMax)
func (d *Disc) Intersect(ray core.Ray, tMin, tMax float64) (float64, bool) {
	// Intersect with the disc's plane first
	denom := ray.Direction.Dot(d.Normal)
	if math.Abs(denom) < 1e-12 {
		return 0, false // Ray is parallel to the plane
	}

	t := d.Center.Subtract(ray.Origin).Dot(d.Normal) / denom
	if t < tMin || t > tMax {
		return 0, false
	}

	// Check the hit point is within the disc radius
	hitPoint := ray.At(t)
	offset := hitPoint.Subtract(d.Center)
	if offset.LengthSquared() > d.Radius*d.Radius {
		return 0, false
	}

	return t, true
}

// NormalAt returns the disc normal (discs are flat, so it is constant)
func (d *Disc) NormalAt(core.Vec3) core.Vec3 {
	return d.Normal
}

// Surface returns the disc's material
func (d *Disc) Surface() Material {
	return d.Mat
}
