// Package set implements a small generic hash-set, in the same style as
// utils/hmap's hash-map: keyed via a caller-supplied Hasher rather than
// requiring Go's built-in `comparable`, so it also works for facts/nodes
// that are only equipped with a structural Equal/Hash pair (pointers,
// SSA values, or ad-hoc structs).
package set

import (
	"github.com/cs-au-dk/ide-solver/utils"
	"github.com/cs-au-dk/ide-solver/utils/hmap"
)

type Set[T any] struct {
	m *hmap.Map[T, struct{}]
}

// Empty constructs an empty set whose elements are hashed/compared via hasher.
func Empty[T any](hasher utils.Hasher[T]) Set[T] {
	return Set[T]{hmap.NewMap[struct{}](hasher)}
}

// From builds a set containing every element of xs.
func From[T any](hasher utils.Hasher[T], xs ...T) Set[T] {
	s := Empty[T](hasher)
	for _, x := range xs {
		s.Add(x)
	}
	return s
}

func (s Set[T]) Add(x T) {
	s.m.Set(x, struct{}{})
}

func (s Set[T]) Remove(x T) {
	s.m.Delete(x)
}

func (s Set[T]) Contains(x T) bool {
	_, ok := s.m.GetOk(x)
	return ok
}

func (s Set[T]) Size() int {
	return s.m.Len()
}

func (s Set[T]) ForEach(f func(T)) {
	s.m.ForEach(func(x T, _ struct{}) { f(x) })
}

// Slice materializes the set's elements in unspecified order.
func (s Set[T]) Slice() []T {
	res := make([]T, 0, s.Size())
	s.ForEach(func(x T) { res = append(res, x) })
	return res
}
