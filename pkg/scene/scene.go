// Package scene provides the immutable primitive collection rendered by the
// path tracer. A scene is built once before rendering starts and is only ever
// read concurrently, so it carries no synchronization.
package scene

import "github.com/mglow/go-tile-pathtracer/pkg/core"

// Primitive is a geometric shape tagged with a material
type Primitive interface {
	// Intersect returns the smallest ray parameter in (tMin, tMax) at which
	// the ray hits the primitive
	Intersect(ray core.Ray, tMin, tMax float64) (float64, bool)
	// NormalAt returns the outward surface normal at a point on the surface
	NormalAt(p core.Vec3) core.Vec3
	// Surface returns the primitive's material
	Surface() Material
}

// Hit describes the nearest intersection found along a ray
type Hit struct {
	T      float64
	Point  core.Vec3
	Normal core.Vec3 // Outward normal (not flipped toward the ray)
	Mat    Material
}

// Scene is a fixed collection of primitives
type Scene struct {
	Primitives      []Primitive
	RefractiveIndex float64 // Shared index of refraction for refractive surfaces
}

const (
	// Intersections closer than this are ignored to avoid surface acne
	tMinEpsilon = 1e-4
	tMaxLimit   = 1e6
)

// Intersect finds the nearest primitive hit along the ray, if any
func (s *Scene) Intersect(ray core.Ray) (Hit, bool) {
	var nearest Primitive
	closestSoFar := float64(tMaxLimit)

	for _, p := range s.Primitives {
		if t, ok := p.Intersect(ray, tMinEpsilon, closestSoFar); ok {
			closestSoFar = t
			nearest = p
		}
	}

	if nearest == nil {
		return Hit{}, false
	}

	point := ray.At(closestSoFar)
	return Hit{
		T:      closestSoFar,
		Point:  point,
		Normal: nearest.NormalAt(point),
		Mat:    nearest.Surface(),
	}, true
}
