package mathx

import "golang.org/x/exp/constraints"

// Clamp pins v into [lo, hi]; swapped bounds are accepted.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// Between reports whether v lies in the closed range spanned by lo and hi.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo <= v && v <= hi
}

// Max is used as a floor: Max(d, 1) keeps a tick count non-zero.
func Max[T constraints.Ordered](a, b T) T {
	if b > a {
		return b
	}
	return a
}
