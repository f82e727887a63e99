package ide

import (
	"github.com/cs-au-dk/ide-solver/utils"
	"github.com/cs-au-dk/ide-solver/utils/hmap"
	"github.com/spakin/disjoint"
)

// edgeRecorder is one of the two tables named in §3 "Recorded edges":
// (n_src, n_dst) -> (d_src -> set of d_dst).
type edgeRecorder[N, D any] struct {
	nodeHasher utils.Hasher[N]
	factHasher utils.Hasher[D]
	edges      *hmap.Map[utils.Pair[N, N], *hmap.Map[D, *hmap.Map[D, struct{}]]]
}

func newEdgeRecorder[N, D any](nodeHasher utils.Hasher[N], factHasher utils.Hasher[D]) *edgeRecorder[N, D] {
	return &edgeRecorder[N, D]{
		nodeHasher: nodeHasher,
		factHasher: factHasher,
		edges:      hmap.NewMap[*hmap.Map[D, *hmap.Map[D, struct{}]]](utils.PairHasher[N, N]{First: nodeHasher, Second: nodeHasher}),
	}
}

func (r *edgeRecorder[N, D]) record(nSrc, nDst N, dSrc, dDst D) {
	key := utils.Pair[N, N]{First: nSrc, Second: nDst}
	byDSrc := r.edges.Get(key)
	if byDSrc == nil {
		byDSrc = hmap.NewMap[*hmap.Map[D, struct{}]](r.factHasher)
		r.edges.Set(key, byDSrc)
	}
	dsts := byDSrc.Get(dSrc)
	if dsts == nil {
		dsts = hmap.NewMap[struct{}](r.factHasher)
		byDSrc.Set(dSrc, dsts)
	}
	dsts.Set(dDst, struct{}{})
}

// ForEach calls f once for every recorded (nSrc, nDst, dSrc, dDst) edge.
func (r *edgeRecorder[N, D]) ForEach(f func(nSrc, nDst N, dSrc, dDst D)) {
	r.edges.ForEach(func(key utils.Pair[N, N], byDSrc *hmap.Map[D, *hmap.Map[D, struct{}]]) {
		byDSrc.ForEach(func(dSrc D, dsts *hmap.Map[D, struct{}]) {
			dsts.ForEach(func(dDst D, _ struct{}) {
				f(key.First, key.Second, dSrc, dDst)
			})
		})
	})
}

// recursionClusters is a union-find over methods, merging two methods the
// first time a 2-cycle of calls between them is observed (or a method calls
// itself). It is the diagnostic PathEdgeRecorder exposes on top of
// recording: which methods are mutually recursive, as opposed to simply
// connected in the call graph.
type recursionClusters[M any] struct {
	methodHasher utils.Hasher[M]
	elements     *hmap.Map[M, *disjoint.Element]
	seenEdges    *hmap.Map[utils.Pair[M, M], struct{}]
}

func newRecursionClusters[M any](methodHasher utils.Hasher[M]) *recursionClusters[M] {
	return &recursionClusters[M]{
		methodHasher: methodHasher,
		elements:     hmap.NewMap[*disjoint.Element](methodHasher),
		seenEdges:    hmap.NewMap[struct{}](utils.PairHasher[M, M]{First: methodHasher, Second: methodHasher}),
	}
}

func (rc *recursionClusters[M]) elementOf(m M) *disjoint.Element {
	if e := rc.elements.Get(m); e != nil {
		return e
	}
	e := disjoint.NewElement()
	e.Data = m
	rc.elements.Set(m, e)
	return e
}

// observeCall records a call edge from caller to callee, merging the two
// methods into the same cluster if the reverse edge was already observed
// (a 2-cycle) or caller == callee (direct recursion).
func (rc *recursionClusters[M]) observeCall(caller, callee M) {
	callerEl := rc.elementOf(caller)
	calleeEl := rc.elementOf(callee)

	rc.seenEdges.Set(utils.Pair[M, M]{First: caller, Second: callee}, struct{}{})

	if rc.methodHasher.Equal(caller, callee) {
		return
	}

	rev := utils.Pair[M, M]{First: callee, Second: caller}
	if _, ok := rc.seenEdges.GetOk(rev); ok {
		disjoint.Union(callerEl, calleeEl)
	}
}

// Clusters returns every recursion cluster (size > 1 component) discovered
// so far. Methods that never participated in an observed cycle are omitted.
func (rc *recursionClusters[M]) Clusters() [][]M {
	groups := make(map[*disjoint.Element][]M)
	rc.elements.ForEach(func(m M, e *disjoint.Element) {
		root := e.Find()
		groups[root] = append(groups[root], m)
	})
	res := make([][]M, 0, len(groups))
	for _, g := range groups {
		if len(g) > 1 {
			res = append(res, g)
		}
	}
	return res
}

// PathEdgeRecorder optionally records every propagated intra- and
// inter-procedural edge of the exploded supergraph, plus a recursion-
// cluster diagnostic derived from the call edges seen along the way. Left
// nil on a Solver when SolverConfig.RecordEdges is false.
type PathEdgeRecorder[N, D, M any] struct {
	Intra *edgeRecorder[N, D]
	Inter *edgeRecorder[N, D]

	clusters *recursionClusters[M]
}

func newPathEdgeRecorder[N, D, M any](nodeHasher utils.Hasher[N], factHasher utils.Hasher[D], methodHasher utils.Hasher[M]) *PathEdgeRecorder[N, D, M] {
	return &PathEdgeRecorder[N, D, M]{
		Intra:    newEdgeRecorder[N, D](nodeHasher, factHasher),
		Inter:    newEdgeRecorder[N, D](nodeHasher, factHasher),
		clusters: newRecursionClusters[M](methodHasher),
	}
}

// RecursionClusters returns every cluster of methods found to participate in
// mutual recursion while recording was enabled.
func (r *PathEdgeRecorder[N, D, M]) RecursionClusters() [][]M {
	return r.clusters.Clusters()
}
