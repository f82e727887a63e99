package ide

import (
	"github.com/cs-au-dk/ide-solver/utils"
	"github.com/cs-au-dk/ide-solver/utils/hmap"
)

// JumpFunctionTable is the two-keyed store of edge functions indexed by
// (source fact, target node, target fact), keeping both a forward view
// (source fact, target node) -> {(target fact, fn)} and a reverse view
// (target node, target fact) -> {(source fact, fn)} over the same entries.
// Unset entries denote AllTop implicitly: Lookup reports them as absent
// (ok == false), and callers that need the AllTop default, such as
// propagate, substitute it themselves.
type JumpFunctionTable[N, D, V any] struct {
	factHasher utils.Hasher[D]

	// forward[target][source][targetVal] = fn
	forward *hmap.Map[N, *hmap.Map[D, *hmap.Map[D, EdgeFunction[V]]]]
	// reverse[target][targetVal][source] = fn
	reverse *hmap.Map[N, *hmap.Map[D, *hmap.Map[D, EdgeFunction[V]]]]
}

// NewJumpFunctionTable constructs an empty table.
func NewJumpFunctionTable[N, D, V any](nodeHasher utils.Hasher[N], factHasher utils.Hasher[D]) *JumpFunctionTable[N, D, V] {
	return &JumpFunctionTable[N, D, V]{
		factHasher: factHasher,
		forward:    hmap.NewMap[*hmap.Map[D, *hmap.Map[D, EdgeFunction[V]]]](nodeHasher),
		reverse:    hmap.NewMap[*hmap.Map[D, *hmap.Map[D, EdgeFunction[V]]]](nodeHasher),
	}
}

// JumpEntry is one (fact, edge function) pair returned by Forward/Reverse.
type JumpEntry[D, V any] struct {
	Fact D
	Fn   EdgeFunction[V]
}

// Lookup returns the edge function stored for (source, target, targetVal),
// if any.
func (t *JumpFunctionTable[N, D, V]) Lookup(source D, target N, targetVal D) (EdgeFunction[V], bool) {
	byTarget := t.forward.Get(target)
	if byTarget == nil {
		return nil, false
	}
	inner := byTarget.Get(source)
	if inner == nil {
		return nil, false
	}
	return inner.GetOk(targetVal)
}

// Set records the edge function for (source, target, targetVal), overwriting
// any previous entry. Callers are responsible for only ever storing a
// strengthened (joined) function; the table itself does not enforce
// monotonicity (that is propagate's job, see phase1.go).
func (t *JumpFunctionTable[N, D, V]) Set(source D, target N, targetVal D, fn EdgeFunction[V]) {
	fwdByTarget := t.forward.Get(target)
	if fwdByTarget == nil {
		fwdByTarget = hmap.NewMap[*hmap.Map[D, EdgeFunction[V]]](t.factHasher)
		t.forward.Set(target, fwdByTarget)
	}
	fwdInner := fwdByTarget.Get(source)
	if fwdInner == nil {
		fwdInner = hmap.NewMap[EdgeFunction[V]](t.factHasher)
		fwdByTarget.Set(source, fwdInner)
	}
	fwdInner.Set(targetVal, fn)

	revByTarget := t.reverse.Get(target)
	if revByTarget == nil {
		revByTarget = hmap.NewMap[*hmap.Map[D, EdgeFunction[V]]](t.factHasher)
		t.reverse.Set(target, revByTarget)
	}
	revInner := revByTarget.Get(targetVal)
	if revInner == nil {
		revInner = hmap.NewMap[EdgeFunction[V]](t.factHasher)
		revByTarget.Set(targetVal, revInner)
	}
	revInner.Set(source, fn)
}

// Forward enumerates every (targetVal, fn) stored for (source, target).
func (t *JumpFunctionTable[N, D, V]) Forward(source D, target N) []JumpEntry[D, V] {
	byTarget := t.forward.Get(target)
	if byTarget == nil {
		return nil
	}
	inner := byTarget.Get(source)
	if inner == nil {
		return nil
	}
	res := make([]JumpEntry[D, V], 0, inner.Len())
	inner.ForEach(func(d D, fn EdgeFunction[V]) {
		res = append(res, JumpEntry[D, V]{Fact: d, Fn: fn})
	})
	return res
}

// Reverse enumerates every (source, fn) stored for (target, targetVal).
func (t *JumpFunctionTable[N, D, V]) Reverse(target N, targetVal D) []JumpEntry[D, V] {
	byTarget := t.reverse.Get(target)
	if byTarget == nil {
		return nil
	}
	inner := byTarget.Get(targetVal)
	if inner == nil {
		return nil
	}
	res := make([]JumpEntry[D, V], 0, inner.Len())
	inner.ForEach(func(d D, fn EdgeFunction[V]) {
		res = append(res, JumpEntry[D, V]{Fact: d, Fn: fn})
	})
	return res
}

// ForEachTarget calls f once for every target node that has at least one
// stored entry, used by phase II(ii) to enumerate non-call-start nodes that
// actually received jump functions.
func (t *JumpFunctionTable[N, D, V]) ForEachTarget(f func(target N)) {
	t.forward.ForEach(func(n N, _ *hmap.Map[D, *hmap.Map[D, EdgeFunction[V]]]) {
		f(n)
	})
}

// ForEachAtTarget calls f once for every (source, targetVal, fn) triple
// stored for target, regardless of source fact. Phase II(ii) uses this to
// enumerate every jump function ending at a non-call-start node without
// having to already know which source facts reached it.
func (t *JumpFunctionTable[N, D, V]) ForEachAtTarget(target N, f func(source, targetVal D, fn EdgeFunction[V])) {
	byTarget := t.forward.Get(target)
	if byTarget == nil {
		return
	}
	byTarget.ForEach(func(source D, inner *hmap.Map[D, EdgeFunction[V]]) {
		inner.ForEach(func(targetVal D, fn EdgeFunction[V]) {
			f(source, targetVal, fn)
		})
	})
}
