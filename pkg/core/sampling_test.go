package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestSampleCosineHemisphere(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	sampler := NewRandomSampler(random)

	normals := []struct {
		name   string
		normal Vec3
	}{
		{name: "Up", normal: NewVec3(0, 1, 0)},
		{name: "Down", normal: NewVec3(0, -1, 0)},
		{name: "X axis", normal: NewVec3(1, 0, 0)},
		{name: "Diagonal", normal: NewVec3(1, 1, 1).Normalize()},
	}

	for _, tt := range normals {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 1000; i++ {
				dir := SampleCosineHemisphere(tt.normal, sampler.Get2D())

				// Sampled directions must be unit length
				if math.Abs(dir.Length()-1.0) > 1e-9 {
					t.Fatalf("Direction not normalized: length %f", dir.Length())
				}

				// Sampled directions must lie in the hemisphere around the normal
				if dir.Dot(tt.normal) < 0 {
					t.Fatalf("Direction %v below hemisphere for normal %v", dir, tt.normal)
				}
			}
		})
	}
}

func TestSampleCosineHemisphere_MeanDirection(t *testing.T) {
	// The mean of cosine-weighted directions converges toward the normal
	random := rand.New(rand.NewSource(7))
	sampler := NewRandomSampler(random)
	normal := NewVec3(0, 1, 0)

	sum := Vec3{}
	const n = 20000
	for i := 0; i < n; i++ {
		sum = sum.Add(SampleCosineHemisphere(normal, sampler.Get2D()))
	}
	mean := sum.Multiply(1.0 / n).Normalize()

	if mean.Dot(normal) < 0.99 {
		t.Errorf("Mean direction %v too far from normal %v", mean, normal)
	}
}

func TestSamplePointInUnitSphere(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	sampler := NewRandomSampler(random)

	for i := 0; i < 1000; i++ {
		p := SamplePointInUnitSphere(sampler.Get3D())
		if p.Length() > 1.0+1e-9 {
			t.Fatalf("Point %v outside unit sphere (length %f)", p, p.Length())
		}
	}
}

func TestBufferedSampler(t *testing.T) {
	noise := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	sampler := NewBufferedSampler(noise)

	if got := sampler.Get1D(); got != 0.1 {
		t.Errorf("First sample: got %f, expected 0.1", got)
	}

	v := sampler.Get2D()
	if v.X != 0.2 || v.Y != 0.3 {
		t.Errorf("Get2D: got %v, expected {0.2 0.3}", v)
	}

	// Exhaust the buffer; the cursor wraps instead of panicking
	sampler.Get1D()
	sampler.Get1D()
	if got := sampler.Get1D(); got != 0.1 {
		t.Errorf("Wrapped sample: got %f, expected 0.1", got)
	}

	// Reset starts from the beginning of a refilled slice
	sampler.Reset([]float64{0.9})
	if got := sampler.Get1D(); got != 0.9 {
		t.Errorf("After reset: got %f, expected 0.9", got)
	}
}
