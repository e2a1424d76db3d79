package trace

import "github.com/mglow/go-tile-pathtracer/pkg/core"

// ResolveEscaped substitutes the deferred environment radiance into a stack
// whose terminal entry is an escaped ray. Stacks with any other terminal are
// left untouched.
func ResolveEscaped(stack *Stack, radiance core.Vec3) {
	if stack.Empty() {
		return
	}
	top := stack.Top()
	if top.Type != Escaped {
		return
	}
	top.Color = radiance
	stack.ReplaceTop(top)
}

// Accumulate consumes a completed contribution stack from its terminal entry
// backward and returns the composed path radiance along with the path length
// in bounces. The walk starts from zero light: multiplicative bounce entries
// scale the running total, luminous terminals inject their radiance, and a
// path whose terminal carries no light composes to black. The stack is empty
// on return.
func Accumulate(stack *Stack) (core.Vec3, int) {
	depth := stack.Len()
	total := core.NewVec3(0, 0, 0)

	for !stack.Empty() {
		c := stack.Top()
		stack.Pop()

		switch c.Type {
		case Diffuse, Refract:
			total = total.MultiplyVec(c.Color).Multiply(c.Weight)
		case Specular:
			total = total.Multiply(c.Weight)
		case Emit, Escaped:
			total = total.Add(c.Color.Multiply(c.Weight))
		case Debug:
			stack.Clear()
			return c.Color, depth
		case End, Skip:
			// carries no light
		}
	}

	return total, depth
}
