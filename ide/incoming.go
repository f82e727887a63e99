package ide

import (
	"fmt"

	"github.com/cs-au-dk/ide-solver/utils"
	"github.com/cs-au-dk/ide-solver/utils/hmap"
	"github.com/cs-au-dk/ide-solver/utils/tree"
)

// IncomingEdgeTable is, for every (callee start, entry fact) pair, a map
// from call site to the set of caller facts responsible for introducing
// that entry. Rows are persistent trees of persistent trees for the same
// reason as EndSummaryTable: processExit takes a Snapshot before iterating,
// and must not observe inserts made by propagation triggered from within
// that same iteration.
type IncomingEdgeTable[N, D any] struct {
	nodeHasher utils.Hasher[N]
	factHasher utils.Hasher[D]

	rows *hmap.Map[utils.Pair[N, D], tree.Tree[N, tree.Tree[D, struct{}]]]
}

// NewIncomingEdgeTable constructs an empty table.
func NewIncomingEdgeTable[N, D any](nodeHasher utils.Hasher[N], factHasher utils.Hasher[D]) *IncomingEdgeTable[N, D] {
	entryHasher := utils.PairHasher[N, D]{First: nodeHasher, Second: factHasher}
	return &IncomingEdgeTable[N, D]{
		nodeHasher: nodeHasher,
		factHasher: factHasher,
		rows:       hmap.NewMap[tree.Tree[N, tree.Tree[D, struct{}]]](entryHasher),
	}
}

// Add records that callSite/callerFact is responsible for the (start,
// entryFact) method entry.
func (t *IncomingEdgeTable[N, D]) Add(start N, entryFact D, callSite N, callerFact D) {
	key := utils.Pair[N, D]{First: start, Second: entryFact}
	row, ok := t.rows.GetOk(key)
	if !ok {
		row = tree.NewTree[N, tree.Tree[D, struct{}]](t.nodeHasher)
	}

	facts, ok := row.Lookup(callSite)
	if !ok {
		facts = tree.NewTree[D, struct{}](t.factHasher)
	}
	facts = facts.Insert(callerFact, struct{}{})
	row = row.Insert(callSite, facts)

	t.rows.Set(key, row)
}

// Snapshot returns the current row for (start, entryFact) as an O(1) value
// copy.
func (t *IncomingEdgeTable[N, D]) Snapshot(start N, entryFact D) tree.Tree[N, tree.Tree[D, struct{}]] {
	key := utils.Pair[N, D]{First: start, Second: entryFact}
	row, _ := t.rows.GetOk(key)
	return row
}

// Dump renders every (start, entryFact) row via the underlying tree's own
// String, for -v debug output of the tables a solve run accumulated.
func (t *IncomingEdgeTable[N, D]) Dump() string {
	var out string
	t.rows.ForEach(func(key utils.Pair[N, D], row tree.Tree[N, tree.Tree[D, struct{}]]) {
		out += fmt.Sprintf("(%v, %v) -> %s\n", key.First, key.Second, row.String())
	})
	return out
}
