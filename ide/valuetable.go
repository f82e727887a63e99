package ide

import (
	"github.com/cs-au-dk/ide-solver/utils"
	"github.com/cs-au-dk/ide-solver/utils/hmap"
)

// ValueTable is the sparse (node, fact) -> value mapping phase II writes and
// clients read through ResultQuery. Absence means top; storing top removes
// the entry rather than keeping it explicit (§3, §4.2 "top is never
// stored").
type ValueTable[N, D, V any] struct {
	top   V
	isTop func(V) bool
	m     *hmap.Map[utils.Pair[N, D], V]
}

// NewValueTable constructs an empty table. isTop must agree with the
// lattice's top element: it is used to decide when Set should remove an
// entry instead of storing it.
func NewValueTable[N, D, V any](nodeHasher utils.Hasher[N], factHasher utils.Hasher[D], top V, isTop func(V) bool) *ValueTable[N, D, V] {
	h := utils.PairHasher[N, D]{First: nodeHasher, Second: factHasher}
	return &ValueTable[N, D, V]{
		top:   top,
		isTop: isTop,
		m:     hmap.NewMap[V](h),
	}
}

// Get returns val(n, d), defaulting to top when absent.
func (t *ValueTable[N, D, V]) Get(n N, d D) V {
	if v, ok := t.m.GetOk(utils.Pair[N, D]{First: n, Second: d}); ok {
		return v
	}
	return t.top
}

// GetOk is like Get but also reports whether an explicit (non-top) entry
// was stored.
func (t *ValueTable[N, D, V]) GetOk(n N, d D) (V, bool) {
	return t.m.GetOk(utils.Pair[N, D]{First: n, Second: d})
}

// Set stores v at (n, d), or removes the entry if v is top.
func (t *ValueTable[N, D, V]) Set(n N, d D, v V) {
	key := utils.Pair[N, D]{First: n, Second: d}
	if t.isTop(v) {
		t.m.Delete(key)
		return
	}
	t.m.Set(key, v)
}

// ForEach calls f once for every explicitly stored (non-top) entry.
func (t *ValueTable[N, D, V]) ForEach(f func(n N, d D, v V)) {
	t.m.ForEach(func(p utils.Pair[N, D], v V) { f(p.First, p.Second, v) })
}
