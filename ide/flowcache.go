package ide

// FlowEdgeFunctionCache is the external memoization collaborator the solver
// consults instead of querying Problem directly, when one is configured on
// Solver. Each method is handed a get thunk that computes the
// uncached result by calling through to Problem; an implementation decides
// whether to call it and whether to remember the result. A nil cache means
// the solver calls through to Problem for every query.
//
// This interface itself places no constraint on N, D, or M (it is part of
// the core, which only assumes a Hasher of each); the golang-lru-backed
// implementation in ide/cache additionally requires them to be comparable,
// since that's what the underlying LRU needs for its map keys.
type FlowEdgeFunctionCache[N, D, M, V any] interface {
	NormalFlow(curr, succ N, get func() FlowFunction[D]) FlowFunction[D]
	CallFlow(callSite N, callee M, get func() FlowFunction[D]) FlowFunction[D]
	ReturnFlow(callSite N, callee M, exitStmt, returnSite N, get func() FlowFunction[D]) FlowFunction[D]
	CallToReturnFlow(callSite, returnSite N, get func() FlowFunction[D]) FlowFunction[D]
	SummaryFlow(callSite N, callee M, get func() FlowFunction[D]) FlowFunction[D]

	NormalEdge(curr N, currVal D, succ N, succVal D, get func() EdgeFunction[V]) EdgeFunction[V]
	CallEdge(callSite N, srcVal D, callee M, destVal D, get func() EdgeFunction[V]) EdgeFunction[V]
	ReturnEdge(callSite N, callee M, exitStmt N, exitVal D, returnSite N, retVal D, get func() EdgeFunction[V]) EdgeFunction[V]
	CallToReturnEdge(callSite N, srcVal D, returnSite N, destVal D, get func() EdgeFunction[V]) EdgeFunction[V]
	SummaryEdge(callSite N, srcVal D, returnSite N, destVal D, get func() EdgeFunction[V]) EdgeFunction[V]
}
