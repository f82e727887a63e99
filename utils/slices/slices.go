package slices

// Find searches for a given element in a slice of elements of the same type.
// It relaxes comparison between primitives with underlying types.
func Find[E ~[]T, T any](l E, pred func(T) bool) (T, bool) {
	for _, x := range l {
		if pred(x) {
			return x, true
		}
	}
	var x T
	return x, false
}

func OneOf[T comparable](x T, xs ...T) bool {
	for _, x2 := range xs {
		if x == x2 {
			return true
		}
	}

	return false
}

// Map applies f to every element of l and returns the results in order.
func Map[E ~[]T, T, U any](l E, f func(T) U) []U {
	res := make([]U, len(l))
	for i, x := range l {
		res[i] = f(x)
	}
	return res
}

// Dedup removes consecutive and non-consecutive duplicates, keeping the
// first occurrence, using eq for comparison. O(n^2) - only fit for small
// slices such as a call site's return-site or callee lists.
func Dedup[E ~[]T, T any](l E, eq func(a, b T) bool) E {
	res := l[:0:0]
	for _, x := range l {
		dup := false
		for _, y := range res {
			if eq(x, y) {
				dup = true
				break
			}
		}
		if !dup {
			res = append(res, x)
		}
	}
	return res
}
