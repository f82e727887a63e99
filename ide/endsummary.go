package ide

import (
	"fmt"

	"github.com/cs-au-dk/ide-solver/utils"
	"github.com/cs-au-dk/ide-solver/utils/hmap"
	"github.com/cs-au-dk/ide-solver/utils/tree"
)

// EndSummaryEntry is one observed exit of a callee entered at some (start,
// entryFact) pair: the exit node/fact, together with the edge function from
// the entry to that exit.
type EndSummaryEntry[N, D, V any] struct {
	ExitNode N
	ExitFact D
	Fn       EdgeFunction[V]
}

// EndSummaryTable is, for every (callee start, entry fact) pair, the set of
// exit triples observed for it so far. Rows are persistent trees keyed by
// insertion order: taking a Snapshot is an O(1) value copy, immune to
// concurrent inserts into the same row triggered by re-entrant exit
// processing during the snapshot's iteration (§5's snapshotting
// discipline).
type EndSummaryTable[N, D, V any] struct {
	entryHasher utils.Hasher[utils.Pair[N, D]]
	rows        *hmap.Map[utils.Pair[N, D], tree.Tree[uint64, EndSummaryEntry[N, D, V]]]
	seq         *hmap.Map[utils.Pair[N, D], uint64]
}

// NewEndSummaryTable constructs an empty table.
func NewEndSummaryTable[N, D, V any](nodeHasher utils.Hasher[N], factHasher utils.Hasher[D]) *EndSummaryTable[N, D, V] {
	entryHasher := utils.PairHasher[N, D]{First: nodeHasher, Second: factHasher}
	return &EndSummaryTable[N, D, V]{
		entryHasher: entryHasher,
		rows:        hmap.NewMap[tree.Tree[uint64, EndSummaryEntry[N, D, V]]](entryHasher),
		seq:         hmap.NewMap[uint64](entryHasher),
	}
}

// Add records a newly observed exit for (start, entryFact).
func (t *EndSummaryTable[N, D, V]) Add(start N, entryFact D, exitNode N, exitFact D, fn EdgeFunction[V]) {
	key := utils.Pair[N, D]{First: start, Second: entryFact}
	row, ok := t.rows.GetOk(key)
	if !ok {
		row = tree.NewTree[uint64, EndSummaryEntry[N, D, V]](utils.ComparableHasher[uint64]{})
	}
	n := t.seq.Get(key)
	row = row.Insert(n, EndSummaryEntry[N, D, V]{ExitNode: exitNode, ExitFact: exitFact, Fn: fn})
	t.seq.Set(key, n+1)
	t.rows.Set(key, row)
}

// Snapshot returns the current row for (start, entryFact) as an O(1) value
// copy: Adds to the same row after Snapshot returns are invisible through
// the returned value. The zero Tree (no entries) is returned for a row that
// was never populated.
func (t *EndSummaryTable[N, D, V]) Snapshot(start N, entryFact D) tree.Tree[uint64, EndSummaryEntry[N, D, V]] {
	key := utils.Pair[N, D]{First: start, Second: entryFact}
	row, _ := t.rows.GetOk(key)
	return row
}

// Dump renders every (start, entryFact) row via the underlying tree's own
// String, for -v debug output of the tables a solve run accumulated.
func (t *EndSummaryTable[N, D, V]) Dump() string {
	var out string
	t.rows.ForEach(func(key utils.Pair[N, D], row tree.Tree[uint64, EndSummaryEntry[N, D, V]]) {
		out += fmt.Sprintf("(%v, %v) -> %s\n", key.First, key.Second, row.String())
	})
	return out
}
