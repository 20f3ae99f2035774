package mathx

import "golang.org/x/exp/constraints"

// RoundDiv returns a/b rounded half away from zero for non-negative operands.
// b == 0 yields 0.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// AlignUp rounds v up to the next multiple of the power-of-two n.
func AlignUp[T constraints.Integer](v, n T) T {
	return (v + n - 1) &^ (n - 1)
}
