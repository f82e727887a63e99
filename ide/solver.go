package ide

import (
	"github.com/cs-au-dk/ide-solver/utils"
	"github.com/cs-au-dk/ide-solver/utils/set"
	"github.com/cs-au-dk/ide-solver/utils/worklist"
)

// Solver is the two-phase IDE tabulation engine. Construct one with New and
// call Solve; read results back out through ResultAt/ResultsAt.
type Solver[N any, D any, M any, V any, I ICFG[N, M]] struct {
	problem Problem[N, D, M, V, I]
	icfg    I
	config  SolverConfig

	nodeHasher   utils.Hasher[N]
	factHasher   utils.Hasher[D]
	methodHasher utils.Hasher[M]

	alg EdgeFunctionAlgebra[V]

	jumpFn     *JumpFunctionTable[N, D, V]
	endSummary *EndSummaryTable[N, D, V]
	incoming   *IncomingEdgeTable[N, D]
	valueTable *ValueTable[N, D, V]

	recorder   *PathEdgeRecorder[N, D, M]
	persisted  *PersistedSummaries[N, V]
	stats      Stats
	cache      FlowEdgeFunctionCache[N, D, M, V]
	restorer   ContextRestorer[N, D]

	unbalancedReturnSites set.Set[N]

	wl worklist.Worklist[pathEdgeItem[N, D, V]]
}

// New constructs a Solver for problem over the given configuration. cache
// may be nil (no memoization), stats may be nil (NoopStats), restorer may
// be nil (IdentityContextRestorer).
func New[N any, D any, M any, V any, I ICFG[N, M]](
	problem Problem[N, D, M, V, I],
	config SolverConfig,
	cache FlowEdgeFunctionCache[N, D, M, V],
	stats Stats,
	restorer ContextRestorer[N, D],
) *Solver[N, D, M, V, I] {
	nodeHasher := problem.NodeHasher()
	factHasher := problem.FactHasher()
	methodHasher := problem.MethodHasher()

	if stats == nil {
		stats = NoopStats{}
	}
	if restorer == nil {
		restorer = IdentityContextRestorer[N, D]{}
	}

	s := &Solver[N, D, M, V, I]{
		problem:      problem,
		icfg:         problem.InterproceduralCFG(),
		config:       config,
		nodeHasher:   nodeHasher,
		factHasher:   factHasher,
		methodHasher: methodHasher,
		alg:          NewEdgeFunctionAlgebra(problem.Join, problem.TopElement()),
		jumpFn:       NewJumpFunctionTable[N, D, V](nodeHasher, factHasher),
		endSummary:   NewEndSummaryTable[N, D, V](nodeHasher, factHasher),
		incoming:     NewIncomingEdgeTable[N, D](nodeHasher, factHasher),
		valueTable: NewValueTable[N, D, V](nodeHasher, factHasher, problem.TopElement(), func(v V) bool {
			return problem.ValueEqual(v, problem.TopElement())
		}),
		stats:                 stats,
		cache:                 cache,
		restorer:              restorer,
		unbalancedReturnSites: set.Empty[N](nodeHasher),
	}

	if config.RecordEdges {
		s.recorder = newPathEdgeRecorder[N, D, M](nodeHasher, factHasher, methodHasher)
	}
	if config.ComputePersistedSummaries {
		s.persisted = newPersistedSummaries[N, V](nodeHasher)
	}

	return s
}

// Recorder returns the optional edge recorder, or nil if
// SolverConfig.RecordEdges was false.
func (s *Solver[N, D, M, V, I]) Recorder() *PathEdgeRecorder[N, D, M] { return s.recorder }

// PersistedSummaries returns the optional persisted-summary table, or nil
// if SolverConfig.ComputePersistedSummaries was false.
func (s *Solver[N, D, M, V, I]) PersistedSummaries() *PersistedSummaries[N, V] { return s.persisted }

// DumpTables renders the end-summary and incoming-edge tables accumulated
// during phase I, for -v debug output.
func (s *Solver[N, D, M, V, I]) DumpTables() string {
	return "end summaries:\n" + s.endSummary.Dump() + "incoming edges:\n" + s.incoming.Dump()
}

// UnbalancedReturnSites returns the set of return sites that received an
// unbalanced-return propagation during phase I (§4.1.3 step 3, S4/S8).
func (s *Solver[N, D, M, V, I]) UnbalancedReturnSites() []N {
	return s.unbalancedReturnSites.Slice()
}

// --- collaborator access, routed through the cache when configured ---

func (s *Solver[N, D, M, V, I]) normalFlow(curr, succ N) FlowFunction[D] {
	if s.cache != nil {
		return s.cache.NormalFlow(curr, succ, func() FlowFunction[D] { return s.problem.NormalFlow(curr, succ) })
	}
	return s.problem.NormalFlow(curr, succ)
}

func (s *Solver[N, D, M, V, I]) callFlow(callSite N, callee M) FlowFunction[D] {
	if s.cache != nil {
		return s.cache.CallFlow(callSite, callee, func() FlowFunction[D] { return s.problem.CallFlow(callSite, callee) })
	}
	return s.problem.CallFlow(callSite, callee)
}

func (s *Solver[N, D, M, V, I]) returnFlow(callSite N, callee M, exitStmt, returnSite N) FlowFunction[D] {
	if s.cache != nil {
		return s.cache.ReturnFlow(callSite, callee, exitStmt, returnSite, func() FlowFunction[D] {
			return s.problem.ReturnFlow(callSite, callee, exitStmt, returnSite)
		})
	}
	return s.problem.ReturnFlow(callSite, callee, exitStmt, returnSite)
}

func (s *Solver[N, D, M, V, I]) callToRetFlow(callSite, returnSite N) FlowFunction[D] {
	if s.cache != nil {
		return s.cache.CallToReturnFlow(callSite, returnSite, func() FlowFunction[D] {
			return s.problem.CallToReturnFlow(callSite, returnSite)
		})
	}
	return s.problem.CallToReturnFlow(callSite, returnSite)
}

func (s *Solver[N, D, M, V, I]) summaryFlow(callSite N, callee M) FlowFunction[D] {
	if s.cache != nil {
		return s.cache.SummaryFlow(callSite, callee, func() FlowFunction[D] { return s.problem.SummaryFlow(callSite, callee) })
	}
	return s.problem.SummaryFlow(callSite, callee)
}

func (s *Solver[N, D, M, V, I]) normalEdge(curr N, currVal D, succ N, succVal D) EdgeFunction[V] {
	if s.cache != nil {
		return s.cache.NormalEdge(curr, currVal, succ, succVal, func() EdgeFunction[V] {
			return s.problem.NormalEdge(curr, currVal, succ, succVal)
		})
	}
	return s.problem.NormalEdge(curr, currVal, succ, succVal)
}

func (s *Solver[N, D, M, V, I]) callEdge(callSite N, srcVal D, callee M, destVal D) EdgeFunction[V] {
	if s.cache != nil {
		return s.cache.CallEdge(callSite, srcVal, callee, destVal, func() EdgeFunction[V] {
			return s.problem.CallEdge(callSite, srcVal, callee, destVal)
		})
	}
	return s.problem.CallEdge(callSite, srcVal, callee, destVal)
}

func (s *Solver[N, D, M, V, I]) returnEdge(callSite N, callee M, exitStmt N, exitVal D, returnSite N, retVal D) EdgeFunction[V] {
	if s.cache != nil {
		return s.cache.ReturnEdge(callSite, callee, exitStmt, exitVal, returnSite, retVal, func() EdgeFunction[V] {
			return s.problem.ReturnEdge(callSite, callee, exitStmt, exitVal, returnSite, retVal)
		})
	}
	return s.problem.ReturnEdge(callSite, callee, exitStmt, exitVal, returnSite, retVal)
}

func (s *Solver[N, D, M, V, I]) callToRetEdge(callSite N, srcVal D, returnSite N, destVal D) EdgeFunction[V] {
	if s.cache != nil {
		return s.cache.CallToReturnEdge(callSite, srcVal, returnSite, destVal, func() EdgeFunction[V] {
			return s.problem.CallToReturnEdge(callSite, srcVal, returnSite, destVal)
		})
	}
	return s.problem.CallToReturnEdge(callSite, srcVal, returnSite, destVal)
}

func (s *Solver[N, D, M, V, I]) summaryEdge(callSite N, srcVal D, returnSite N, destVal D) EdgeFunction[V] {
	if s.cache != nil {
		return s.cache.SummaryEdge(callSite, srcVal, returnSite, destVal, func() EdgeFunction[V] {
			return s.problem.SummaryEdge(callSite, srcVal, returnSite, destVal)
		})
	}
	return s.problem.SummaryEdge(callSite, srcVal, returnSite, destVal)
}

// Solve runs phase I (exploded-supergraph construction) and, if
// SolverConfig.ComputeValues is set, phase II (value computation). It is
// the single entry point named in §4.1's "Public contract".
func (s *Solver[N, D, M, V, I]) Solve() {
	s.submitInitialSeeds()
	s.runWorklist()

	if s.config.ComputeValues {
		s.computeValues()
	}
}

// submitInitialSeeds seeds the worklist: for each (startPoint, d) in the
// seed map, propagate (zero -> startPoint -> d) with the identity edge
// function, and register the self-loop jump (zero -> startPoint -> zero) =
// Identity.
func (s *Solver[N, D, M, V, I]) submitInitialSeeds() {
	zero := s.problem.ZeroFact()
	id := s.alg.Identity()

	if s.config.AutoAddZero {
		for _, startPoint := range s.icfg.AllStartPoints() {
			s.propagate(zero, startPoint, zero, id)
		}
	}

	for _, seed := range s.problem.InitialSeeds() {
		// The self-loop is a direct jump-table registration, not a
		// dispatched path edge (matching the original's addFunction call,
		// which bypasses propagate/pathEdgeProcessingTask) — it must not
		// force-dispatch the zero fact forward when AutoAddZero is off.
		s.jumpFn.Set(zero, seed.StartNode, zero, id)
		for _, d := range seed.Facts {
			s.propagate(zero, seed.StartNode, d, id)
		}
	}
}
