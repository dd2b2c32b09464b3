// Package tarai implements the Takeuchi "tarai" function used as a fixed CPU load.
package tarai

// Fixed arguments for a single benchmark evaluation.
const (
	DefaultX = 12
	DefaultY = 6
	DefaultZ = 0
)

// Tarai evaluates the double-recursive Takeuchi function. Results are never
// memoized; the recursion itself is the workload.
func Tarai(x, y, z int) int {
	if x <= y {
		return y
	}

	return Tarai(
		Tarai(x-1, y, z),
		Tarai(y-1, z, x),
		Tarai(z-1, x, y),
	)
}

// Run performs one benchmark evaluation at the fixed arguments.
func Run() int {
	return Tarai(DefaultX, DefaultY, DefaultZ)
}
