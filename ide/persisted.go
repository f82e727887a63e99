package ide

import (
	"github.com/cs-au-dk/ide-solver/utils"
	"github.com/cs-au-dk/ide-solver/utils/hmap"
)

// PersistedSummaries restores the phasar original's persisted-summary table
// (original_source/src/analysis/ifds_ide/solver/IDESolver.h:
// Table<N, N, EdgeFunctionPtr> PersistedSummaries): for every (call site,
// return site) pair observed during phase I, the joined edge function of
// every end-summary entry that fed a propagation back to that return site.
// Filled in directly at the two places in phase1.go that compose such a
// summary (standard callee expansion and caller-patching on exit), when
// SolverConfig.ComputePersistedSummaries is set. There is no export or
// cross-run persistence (still out of scope) — this is only the in-memory
// table §6's flag implies must exist.
type PersistedSummaries[N, V any] struct {
	nodeHasher utils.Hasher[N]
	entries    *hmap.Map[utils.Pair[N, N], EdgeFunction[V]]
}

func newPersistedSummaries[N, V any](nodeHasher utils.Hasher[N]) *PersistedSummaries[N, V] {
	return &PersistedSummaries[N, V]{
		nodeHasher: nodeHasher,
		entries:    hmap.NewMap[EdgeFunction[V]](utils.PairHasher[N, N]{First: nodeHasher, Second: nodeHasher}),
	}
}

func (p *PersistedSummaries[N, V]) join(alg EdgeFunctionAlgebra[V], callSite, returnSite N, fn EdgeFunction[V]) {
	key := utils.Pair[N, N]{First: callSite, Second: returnSite}
	if prev, ok := p.entries.GetOk(key); ok {
		fn = alg.Join(prev, fn)
	}
	p.entries.Set(key, fn)
}

// Lookup returns the persisted summary edge function for (callSite,
// returnSite), if any was recorded.
func (p *PersistedSummaries[N, V]) Lookup(callSite, returnSite N) (EdgeFunction[V], bool) {
	return p.entries.GetOk(utils.Pair[N, N]{First: callSite, Second: returnSite})
}

// ForEach calls f once for every (callSite, returnSite) pair with a
// persisted summary.
func (p *PersistedSummaries[N, V]) ForEach(f func(callSite, returnSite N, fn EdgeFunction[V])) {
	p.entries.ForEach(func(key utils.Pair[N, N], fn EdgeFunction[V]) {
		f(key.First, key.Second, fn)
	})
}
