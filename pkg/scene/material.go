package scene

import "github.com/mglow/go-tile-pathtracer/pkg/core"

// Kind selects the scattering behavior of a material
type Kind int

const (
	// Diffuse scatters with a cosine-weighted hemisphere distribution
	Diffuse Kind = iota
	// Specular reflects like a mirror, optionally perturbed by Fuzz
	Specular
	// Refractive transmits through the surface, reflecting internally past
	// the critical angle
	Refractive
)

// String returns a human readable material kind name
func (k Kind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Specular:
		return "specular"
	case Refractive:
		return "refractive"
	}
	return "unknown"
}

// Material describes how a primitive's surface interacts with light.
// A non-zero Emission makes the surface a light source: paths stop there
// and report the emitted radiance.
type Material struct {
	Kind     Kind
	Albedo   core.Vec3 // Surface color for diffuse/refractive tinting
	Emission core.Vec3 // Emitted radiance; zero for non-emitters
	Fuzz     float64   // Specular only: 0 = perfect mirror, 1 = very rough
}

// Emissive reports whether the material emits light
func (m Material) Emissive() bool {
	return !m.Emission.IsZero()
}
