package trace

import (
	"math"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
	"github.com/mglow/go-tile-pathtracer/pkg/scene"
)

// Params holds the per-path termination and material controls
type Params struct {
	RouletteDepth   int     // Bounce depth at which Russian roulette begins
	StopProb        float64 // Per-bounce termination probability once roulette is active
	RefractiveIndex float64 // Index of refraction for refractive surfaces
}

// TracePath follows one primary ray through the scene, pushing one
// contribution per bounce onto the stack until the path terminates. Every
// completed stack ends in a terminal entry: Emit at an emitter, Escaped when
// the ray leaves the scene (the entry's color holds the outgoing direction
// for a deferred environment lookup), or End when the path is absorbed,
// killed by roulette, or truncated at stack capacity.
func TracePath(ray core.Ray, sc *scene.Scene, sampler core.Sampler, stack *Stack, p Params) {
	stack.Clear()
	survivalWeight := 1.0 / (1.0 - p.StopProb)

	for depth := 0; ; depth++ {
		// Truncation: a full stack of non-terminal bounces loses its last
		// bounce to an End marker so the terminal invariant holds.
		if stack.Full() {
			stack.ReplaceTop(Contribution{Type: End})
			return
		}

		weight := 1.0
		if depth >= p.RouletteDepth && p.StopProb > 0 {
			if sampler.Get1D() <= p.StopProb {
				stack.Push(Contribution{Weight: 1, Type: End})
				return
			}
			weight = survivalWeight
		}

		hit, ok := sc.Intersect(ray)
		if !ok {
			stack.Push(Contribution{Color: ray.Direction, Weight: weight, Type: Escaped})
			return
		}

		mat := hit.Mat
		if mat.Emissive() {
			stack.Push(Contribution{Color: mat.Emission, Weight: weight, Type: Emit})
			return
		}

		outward := hit.Normal
		frontFace := ray.Direction.Dot(outward) < 0
		shading := outward
		if !frontFace {
			shading = outward.Negate()
		}

		switch mat.Kind {
		case scene.Diffuse:
			next := core.SampleCosineHemisphere(shading, sampler.Get2D())
			stack.Push(Contribution{Color: mat.Albedo, Weight: weight, Type: Diffuse})
			ray = core.NewRay(hit.Point, next)

		case scene.Specular:
			next := ray.Direction.Reflect(shading)
			if mat.Fuzz > 0 {
				fuzz := core.SamplePointInUnitSphere(sampler.Get3D()).Multiply(mat.Fuzz)
				next = next.Add(fuzz)
			}
			// Fuzz can push the reflection below the surface; the ray is
			// absorbed rather than re-sampled.
			if next.Dot(shading) <= 0 {
				stack.Push(Contribution{Weight: weight, Type: End})
				return
			}
			stack.Push(Contribution{Weight: weight, Type: Specular})
			ray = core.NewRay(hit.Point, next)

		case scene.Refractive:
			next, tir := refractDirection(ray.Direction, shading, frontFace, p.RefractiveIndex)
			color := core.NewVec3(1, 1, 1)
			if !tir {
				// Only transmission through the medium picks up its tint.
				color = mat.Albedo
			}
			stack.Push(Contribution{Color: color, Weight: weight, Type: Refract})
			ray = core.NewRay(hit.Point, next)
		}
	}
}

// refractDirection bends a unit incident direction through a surface with the
// given outward-facing shading normal using Snell's law. When the angle is
// too shallow to transmit it reflects instead and reports total internal
// reflection.
func refractDirection(unitDir, normal core.Vec3, entering bool, index float64) (core.Vec3, bool) {
	ratio := 1.0 / index
	if !entering {
		ratio = index
	}

	cosTheta := math.Min(unitDir.Negate().Dot(normal), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)
	if ratio*sinTheta > 1.0 {
		return unitDir.Reflect(normal), true
	}

	perp := unitDir.Add(normal.Multiply(cosTheta)).Multiply(ratio)
	parallel := normal.Multiply(-math.Sqrt(math.Abs(1.0 - perp.LengthSquared())))
	return perp.Add(parallel), false
}
