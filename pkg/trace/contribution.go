// Package trace implements the per-ray Monte-Carlo path tracing kernel: the
// bounce loop that fills a fixed-capacity stack of per-bounce contributions,
// and the reverse walk that composes a stack into a final radiance value.
// Everything in this package is pure computation over caller-owned buffers.
package trace

import "github.com/mglow/go-tile-pathtracer/pkg/core"

// ContributionType tags one bounce's entry in a contribution stack
type ContributionType uint8

const (
	// Diffuse modulates the running total by the surface color
	Diffuse ContributionType = iota
	// Specular carries the running total, scaled by weight only
	Specular
	// Refract modulates like Diffuse; untinted on total internal reflection
	Refract
	// Emit terminates the path at an emitter, injecting its radiance
	Emit
	// Escaped terminates the path outside the scene; its color holds the ray
	// direction until the environment lookup resolves it to radiance
	Escaped
	// Debug replaces the composed total outright (visualization aid)
	Debug
	// End terminates the path carrying no light
	End
	// Skip marks storage beyond the terminal entry as invalid
	Skip
)

// Terminal reports whether the type ends a path
func (t ContributionType) Terminal() bool {
	return t == Emit || t == Escaped || t == Debug || t == End
}

// Luminous reports whether the type injects light into a path
func (t ContributionType) Luminous() bool {
	return t == Emit || t == Escaped || t == Debug
}

// String returns the type name
func (t ContributionType) String() string {
	switch t {
	case Diffuse:
		return "diffuse"
	case Specular:
		return "specular"
	case Refract:
		return "refract"
	case Emit:
		return "emit"
	case Escaped:
		return "escaped"
	case Debug:
		return "debug"
	case End:
		return "end"
	case Skip:
		return "skip"
	}
	return "unknown"
}

// Contribution records the lighting effect of one bounce along a ray path
type Contribution struct {
	Color  core.Vec3 // Color/weight vector; ray direction for Escaped entries
	Weight float64   // Scalar importance weight (Russian roulette compensation)
	Type   ContributionType
}

// Stack is a fixed-capacity append/pop-from-end buffer of contributions built
// over a caller-owned slice. It is filled forward during tracing and consumed
// backward during accumulation. There is no dynamic growth: a path longer
// than the capacity is truncated by the tracer.
type Stack struct {
	entries []Contribution
	next    int
}

// NewStack wraps a caller-owned slice as an empty contribution stack
func NewStack(entries []Contribution) *Stack {
	return &Stack{entries: entries}
}

// Capacity returns the fixed capacity of the stack
func (s *Stack) Capacity() int { return len(s.entries) }

// Len returns the number of contributions currently on the stack
func (s *Stack) Len() int { return s.next }

// Full reports whether no more contributions can be pushed
func (s *Stack) Full() bool { return s.next == len(s.entries) }

// Empty reports whether the stack holds no contributions
func (s *Stack) Empty() bool { return s.next == 0 }

// Push appends a contribution. Callers must check Full first; pushing onto a
// full stack panics, as it indicates a tracer bug rather than a runtime
// condition.
func (s *Stack) Push(c Contribution) {
	s.entries[s.next] = c
	s.next++
}

// Pop removes the most recently pushed contribution
func (s *Stack) Pop() {
	s.next--
}

// Top returns the most recently pushed contribution
func (s *Stack) Top() Contribution {
	return s.entries[s.next-1]
}

// ReplaceTop overwrites the most recently pushed contribution. Used by the
// tracer's truncation policy and by the environment lookup when it resolves
// an escaped ray to radiance.
func (s *Stack) ReplaceTop(c Contribution) {
	s.entries[s.next-1] = c
}

// Clear resets the stack to empty without zeroing storage; stale entries
// beyond the new end are treated as Skip/undefined
func (s *Stack) Clear() {
	s.next = 0
}
