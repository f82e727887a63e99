package utils

import (
	"fmt"
	"hash/fnv"
	"reflect"

	"github.com/benbjohnson/immutable"
)

// Hasher is the capability the tabulation solver and its tables assume of
// their N, D, and M type parameters: a stable hash paired with a total
// equality. Kept as an alias so client code never has to import
// benbjohnson/immutable directly to implement one.
type Hasher[T any] = immutable.Hasher[T]

type (
	// Hashable is implemented by all hashable types.
	Hashable interface {
		Hash() uint32
	}
	// HashableEq is implemented by all hashable types that can be compared for equality.
	HashableEq[T any] interface {
		Hashable
		Equal(T) bool
	}

	// hashableHasher is a hasher for hashable and equality comparable entities.
	hashableHasher[T HashableEq[T]] struct{}
)

// Equal checks that two hashable entities a and b are equal.
func (hashableHasher[T]) Equal(a, b T) bool { return a.Equal(b) }

// Hash computes the uint32 hash of hashable entity a.
func (hashableHasher[T]) Hash(a T) uint32 { return a.Hash() }

// HashableHasher is a generic hasher factory of hashable and equality comparable entities.
func HashableHasher[T HashableEq[T]]() immutable.Hasher[T] { return hashableHasher[T]{} }

// NewImmMap creates an immutable map where the keys must be hashable and equality comparable.
func NewImmMap[K HashableEq[K], V any]() *immutable.Map[K, V] {
	return immutable.NewMap[K, V](HashableHasher[K]())
}

// PointerHasher is a generic hasher for pointer-like values.
type PointerHasher[T any] struct{}

// Hash computes the uint32 hash of hashable pointer v.
func (PointerHasher[T]) Hash(v T) uint32 {
	// Use reflection to get a uintptr value
	p := reflect.ValueOf(v).Pointer()
	return uint32(p ^ (p >> 32))
}

// Equal checks equality between two hashable pointers.
func (PointerHasher[T]) Equal(a, b T) bool {
	return any(a) == any(b)
}

var _ immutable.Hasher[any] = PointerHasher[any]{}

// ComparableHasher is a generic hasher for types that already satisfy Go's
// built-in comparable constraint, for use where a table is keyed by plain
// values (strings, ints, small structs of such) rather than by a type that
// implements HashableEq itself.
type ComparableHasher[T comparable] struct{}

func (ComparableHasher[T]) Equal(a, b T) bool { return a == b }

func (ComparableHasher[T]) Hash(v T) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%v", v)
	return h.Sum32()
}

var _ immutable.Hasher[int] = ComparableHasher[int]{}

// Pair is a generic two-component key. The tabulation tables are routinely
// keyed by pairs such as a method-entry node plus a dataflow fact, or a
// call site plus a caller fact.
type Pair[A, B any] struct {
	First  A
	Second B
}

// PairHasher combines two component hashers into a hasher over composite
// Pair[A, B] keys.
type PairHasher[A, B any] struct {
	First  Hasher[A]
	Second Hasher[B]
}

func (h PairHasher[A, B]) Hash(p Pair[A, B]) uint32 {
	return HashCombine(h.First.Hash(p.First), h.Second.Hash(p.Second))
}

func (h PairHasher[A, B]) Equal(a, b Pair[A, B]) bool {
	return h.First.Equal(a.First, b.First) && h.Second.Equal(a.Second, b.Second)
}

// HashCombine uses the C++ boost algorithm for combining multiple hash values.
func HashCombine(hs ...uint32) (seed uint32) {
	for _, v := range hs {
		seed ^= v + 0x9e3779b9 + (seed << 6) + (seed >> 2)
	}

	return
}
