package mathx

import "golang.org/x/exp/constraints"

// SatSub subtracts b from a, floored at zero. Used for remaining_ml accounting.
func SatSub[T constraints.Unsigned](a, b T) T {
	if b >= a {
		return 0
	}
	return a - b
}
