package core

import (
	"math"
	"math/rand"
)

// Sampler provides uniform [0,1) samples for Monte-Carlo estimation.
// Can be swapped out for deterministic testing or precomputed noise buffers
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// BufferedSampler consumes samples sequentially from a precomputed noise
// slice. Each tracing worker owns a disjoint slice, so no synchronization is
// needed. The cursor wraps around if a degenerate path exhausts the buffer.
type BufferedSampler struct {
	noise []float64
	next  int
}

// NewBufferedSampler creates a sampler over a caller-owned noise slice
func NewBufferedSampler(noise []float64) *BufferedSampler {
	return &BufferedSampler{noise: noise}
}

// Reset repositions the cursor over a refilled noise slice
func (b *BufferedSampler) Reset(noise []float64) {
	b.noise = noise
	b.next = 0
}

// Get1D returns the next buffered sample
func (b *BufferedSampler) Get1D() float64 {
	if b.next >= len(b.noise) {
		b.next = 0
	}
	v := b.noise[b.next]
	b.next++
	return v
}

// Get2D returns the next two buffered samples
func (b *BufferedSampler) Get2D() Vec2 {
	return NewVec2(b.Get1D(), b.Get1D())
}

// Get3D returns the next three buffered samples
func (b *BufferedSampler) Get3D() Vec3 {
	return NewVec3(b.Get1D(), b.Get1D(), b.Get1D())
}

// SampleCosineHemisphere generates a cosine-weighted random direction in hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	// Generate point in unit disk using uniform random sampling
	a := 2.0 * math.Pi * sample.X
	z := sample.Y
	r := math.Sqrt(z)

	x := r * math.Cos(a)
	y := r * math.Sin(a)
	zCoord := math.Sqrt(1.0 - z)

	// Create local coordinate system around normal
	// Find a vector perpendicular to normal
	var nt Vec3
	if math.Abs(normal.X) > 0.1 {
		nt = NewVec3(0, 1, 0)
	} else {
		nt = NewVec3(1, 0, 0)
	}

	// Create orthonormal basis
	tangent := nt.Cross(normal).Normalize()
	bitangent := normal.Cross(tangent)

	// Transform to world space
	return tangent.Multiply(x).Add(bitangent.Multiply(y)).Add(normal.Multiply(zCoord))
}

// SamplePointInUnitSphere generates a random point inside a unit sphere using spherical coordinates
// This avoids rejection sampling by using the inverse CDF method, which keeps
// the per-bounce sample consumption bounded
func SamplePointInUnitSphere(sample Vec3) Vec3 {
	// For uniform distribution inside sphere:
	// r = ∛(u₁) to account for volume scaling
	// φ = 2π * u₂ (azimuthal angle)
	// cos(θ) = 2 * u₃ - 1 (polar angle, uniform on [-1,1])

	r := math.Pow(sample.X, 1.0/3.0)
	phi := 2 * math.Pi * sample.Y
	cosTheta := 2*sample.Z - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)

	// Convert spherical to Cartesian coordinates
	x := r * sinTheta * math.Cos(phi)
	y := r * sinTheta * math.Sin(phi)
	z := r * cosTheta

	return NewVec3(x, y, z)
}
