// Package icfgssa provides a concrete ide.ICFG and ide.Problem over real Go
// programs loaded via golang.org/x/tools/go/{packages,ssa,ssautil} and a
// CHA call graph, demonstrating the solver end-to-end on a small
// interprocedural "reaching affine constants" client analysis.
package icfgssa

import "fmt"

// kind discriminates FlatInt's three members.
type kind int8

const (
	bottomKind kind = iota
	constKind
	topKind
)

// FlatInt is the flat lattice of 64-bit integer constants: Bottom below
// every concrete value, every concrete value incomparable with every other,
// and Top above all of them. It is the value lattice Problem computes over,
// directly analogous to the flat-constants lattices used in §8's S1/S3/S6
// scenarios, lifted onto real SSA register values instead of a synthetic
// two-statement or diamond CFG.
type FlatInt struct {
	k kind
	c int64
}

// Bottom is the lattice's least element: "not yet computed".
var Bottom = FlatInt{k: bottomKind}

// Top is the lattice's greatest element: "not a known constant".
var Top = FlatInt{k: topKind}

// Const constructs the flat-lattice element for a known constant value.
func Const(c int64) FlatInt { return FlatInt{k: constKind, c: c} }

// IsConst reports whether v is a concrete constant, returning its value.
func (v FlatInt) IsConst() (int64, bool) {
	if v.k == constKind {
		return v.c, true
	}
	return 0, false
}

func (v FlatInt) String() string {
	switch v.k {
	case bottomKind:
		return "⊥"
	case topKind:
		return "⊤"
	default:
		return fmt.Sprintf("%d", v.c)
	}
}

// Join is the flat lattice's join: bottom is absorbed by anything, two
// distinct constants join to top, anything joined with top is top.
func Join(a, b FlatInt) FlatInt {
	switch {
	case a.k == bottomKind:
		return b
	case b.k == bottomKind:
		return a
	case a.k == topKind || b.k == topKind:
		return Top
	case a.c == b.c:
		return a
	default:
		return Top
	}
}
