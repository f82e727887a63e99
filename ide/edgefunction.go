package ide

// EdgeFunction is an element of the composable algebra attached to a jump
// function: f: V -> V, plus the operations needed to build the exploded
// supergraph's edge labels. Client problems implement this interface
// directly for their own "opaque" edge functions (e.g. constant-propagation
// transfer functions); the solver never needs to know their concrete type.
//
// This is a tagged sum type in spirit (Identity | AllTop | Client(opaque) |
// Composed(f, g) | Joined(f, g)) rather than a class hierarchy: Identity and
// AllTop are provided by EdgeFunctionAlgebra, Composed/Joined are built by
// Algebra.Compose/Algebra.Join, and any other EdgeFunction implementation is
// the "client" case.
type EdgeFunction[V any] interface {
	ComputeTarget(v V) V
	ComposeWith(secondFunction EdgeFunction[V]) EdgeFunction[V]
	JoinWith(otherFunction EdgeFunction[V]) EdgeFunction[V]
	Equal(otherFunction EdgeFunction[V]) bool
}

// EdgeFunctionAlgebra is the factory clients and the solver use to build
// Identity/AllTop edge functions and to compose/join arbitrary ones. It
// closes over the host lattice's join operator and top element, which
// Composed/Joined results need at ComputeTarget time.
type EdgeFunctionAlgebra[V any] struct {
	join func(a, b V) V
	top  V
}

// NewEdgeFunctionAlgebra builds the algebra for a lattice with the given
// join operator and top element.
func NewEdgeFunctionAlgebra[V any](join func(a, b V) V, top V) EdgeFunctionAlgebra[V] {
	return EdgeFunctionAlgebra[V]{join: join, top: top}
}

// Identity returns the edge function that passes its argument through
// unchanged; composing with it is a no-op.
func (alg EdgeFunctionAlgebra[V]) Identity() EdgeFunction[V] {
	return identityFn[V]{alg: alg}
}

// AllTop returns the edge function that always computes top; it is the
// implicit value of unset jump-table/end-summary entries.
func (alg EdgeFunctionAlgebra[V]) AllTop() EdgeFunction[V] {
	return allTopFn[V]{alg: alg}
}

// Compose returns the edge function "first f, then g": Compose(f, g) applied
// to v computes g.ComputeTarget(f.ComputeTarget(v)). This is the algebra's
// right composition, written f ∘ g in the design notes.
func (alg EdgeFunctionAlgebra[V]) Compose(f, g EdgeFunction[V]) EdgeFunction[V] {
	switch {
	case isIdentity(f):
		return g
	case isIdentity(g):
		return f
	case isAllTop(f):
		// An edge function that already always yields top keeps yielding
		// top regardless of what runs after it, so long as g maps top to
		// top — the standard assumption made of IDE edge functions.
		return f
	}
	return composedFn[V]{alg: alg, f: f, g: g}
}

// Join returns the pointwise lattice join of f and g.
func (alg EdgeFunctionAlgebra[V]) Join(f, g EdgeFunction[V]) EdgeFunction[V] {
	switch {
	case isAllTop(f):
		return g
	case isAllTop(g):
		return f
	case f.Equal(g):
		return f
	}
	return joinedFn[V]{alg: alg, f: f, g: g}
}

func isIdentity[V any](f EdgeFunction[V]) bool {
	_, ok := f.(identityFn[V])
	return ok
}

func isAllTop[V any](f EdgeFunction[V]) bool {
	_, ok := f.(allTopFn[V])
	return ok
}

type identityFn[V any] struct{ alg EdgeFunctionAlgebra[V] }

func (f identityFn[V]) ComputeTarget(v V) V { return v }
func (f identityFn[V]) ComposeWith(g EdgeFunction[V]) EdgeFunction[V] {
	return f.alg.Compose(f, g)
}
func (f identityFn[V]) JoinWith(g EdgeFunction[V]) EdgeFunction[V] { return f.alg.Join(f, g) }
func (f identityFn[V]) Equal(g EdgeFunction[V]) bool               { return isIdentity(g) }

type allTopFn[V any] struct{ alg EdgeFunctionAlgebra[V] }

func (f allTopFn[V]) ComputeTarget(V) V                          { return f.alg.top }
func (f allTopFn[V]) ComposeWith(g EdgeFunction[V]) EdgeFunction[V] { return f }
func (f allTopFn[V]) JoinWith(g EdgeFunction[V]) EdgeFunction[V]    { return f.alg.Join(f, g) }
func (f allTopFn[V]) Equal(g EdgeFunction[V]) bool                  { return isAllTop(g) }

type composedFn[V any] struct {
	alg  EdgeFunctionAlgebra[V]
	f, g EdgeFunction[V]
}

func (c composedFn[V]) ComputeTarget(v V) V { return c.g.ComputeTarget(c.f.ComputeTarget(v)) }
func (c composedFn[V]) ComposeWith(h EdgeFunction[V]) EdgeFunction[V] {
	return c.alg.Compose(c, h)
}
func (c composedFn[V]) JoinWith(g EdgeFunction[V]) EdgeFunction[V] { return c.alg.Join(c, g) }
func (c composedFn[V]) Equal(g EdgeFunction[V]) bool {
	o, ok := g.(composedFn[V])
	return ok && c.f.Equal(o.f) && c.g.Equal(o.g)
}

type joinedFn[V any] struct {
	alg  EdgeFunctionAlgebra[V]
	f, g EdgeFunction[V]
}

func (j joinedFn[V]) ComputeTarget(v V) V {
	return j.alg.join(j.f.ComputeTarget(v), j.g.ComputeTarget(v))
}
func (j joinedFn[V]) ComposeWith(h EdgeFunction[V]) EdgeFunction[V] { return j.alg.Compose(j, h) }
func (j joinedFn[V]) JoinWith(g EdgeFunction[V]) EdgeFunction[V]   { return j.alg.Join(j, g) }
func (j joinedFn[V]) Equal(g EdgeFunction[V]) bool {
	o, ok := g.(joinedFn[V])
	return ok && j.f.Equal(o.f) && j.g.Equal(o.g)
}
