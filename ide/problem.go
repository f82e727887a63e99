// Package ide implements the core of an interprocedural, finite,
// distributive-subset (IDE) dataflow tabulation solver, following
// Sagiv-Horwitz-Reps with the Naeem-Lhotak-Rodriguez extensions for
// on-demand summarization. The solver itself is polymorphic in the client's
// program representation: it is handed a Problem and an ICFG and computes,
// for every program point, a mapping from dataflow facts to lattice values.
package ide

import "github.com/cs-au-dk/ide-solver/utils"

// FlowFunction computes the dataflow facts reachable from a single fact
// across one program-point transition.
type FlowFunction[D any] interface {
	ComputeTargets(d D) []D
}

// FlowFunctionFunc adapts a plain function to a FlowFunction.
type FlowFunctionFunc[D any] func(d D) []D

func (f FlowFunctionFunc[D]) ComputeTargets(d D) []D { return f(d) }

// EmptyFlowFunction is the FlowFunction that produces no facts, used by
// Problem implementations that have no callees for a particular call site.
func EmptyFlowFunction[D any]() FlowFunction[D] {
	return FlowFunctionFunc[D](func(D) []D { return nil })
}

// IdentityFlowFunction passes its input fact through unchanged. It is the
// common case for callToRetFlow.
func IdentityFlowFunction[D any]() FlowFunction[D] {
	return FlowFunctionFunc[D](func(d D) []D { return []D{d} })
}

// Seed is one (startNode, facts) pair InitialSeeds contributes.
type Seed[N, D any] struct {
	StartNode N
	Facts     []D
}

// ICFG is the interprocedural control-flow graph capability set the solver
// requires of the client's program representation. N is a program point, M
// a method/procedure identity.
type ICFG[N, M any] interface {
	SuccsOf(n N) []N
	StartPointsOf(m M) []N
	MethodOf(n N) M
	CalleesOfCallAt(n N) []M
	ReturnSitesOfCallAt(n N) []N
	CallsFromWithin(m M) []N
	CallersOf(m M) []N
	IsCallStmt(n N) bool
	IsExitStmt(n N) bool
	IsStartPoint(n N) bool
	// AllStartPoints returns every start point of every method known to the
	// ICFG, used by SolverConfig.AutoAddZero to seed the zero fact at each
	// one (§4.1's "register a self-loop jump" extended to every method,
	// not only seeded ones).
	AllStartPoints() []N
}

// Problem is the capability set a client IDE analysis exposes to the
// solver: flow functions and edge functions over dataflow facts, plus the
// join-semilattice of values those edge functions compute over. I is the
// client's ICFG handle; it must itself satisfy ICFG[N, M].
type Problem[N any, D any, M any, V any, I ICFG[N, M]] interface {
	// NodeHasher, FactHasher, and MethodHasher supply the total
	// equality/stable hash the solver's tables need of N, D, and M. Neither
	// type is required to satisfy Go's built-in comparable.
	NodeHasher() utils.Hasher[N]
	FactHasher() utils.Hasher[D]
	MethodHasher() utils.Hasher[M]

	// ZeroFact is the distinguished fact that is "always reachable";
	// carries seeds and unbalanced returns.
	ZeroFact() D
	IsZeroFact(d D) bool

	TopElement() V
	BottomElement() V
	Join(a, b V) V
	// ValueEqual reports whether two lattice values are equal. Needed by
	// phase II's monotone join-and-recheck step; not itself part of the
	// join-semilattice signature, but required by any total order over V.
	ValueEqual(a, b V) bool

	InterproceduralCFG() I

	// InitialSeeds drives both phases: the set of (startNode, facts)
	// pairs the analysis begins from. A slice rather than a map[N][]D
	// because N is not required to satisfy Go's built-in comparable.
	InitialSeeds() []Seed[N, D]

	NormalFlow(curr, succ N) FlowFunction[D]
	CallFlow(callSite N, callee M) FlowFunction[D]
	ReturnFlow(callSite N, callee M, exitStmt, returnSite N) FlowFunction[D]
	CallToReturnFlow(callSite, returnSite N) FlowFunction[D]
	// SummaryFlow lets the client special-case a call site entirely,
	// short-circuiting callee expansion (§4.1.2(a)). Returning nil (or a
	// FlowFunction that always computes no targets) means "no special
	// summary for this call site", and the solver falls back to standard
	// expansion.
	SummaryFlow(callSite N, callee M) FlowFunction[D]

	NormalEdge(curr N, currVal D, succ N, succVal D) EdgeFunction[V]
	CallEdge(callSite N, srcVal D, callee M, destVal D) EdgeFunction[V]
	ReturnEdge(callSite N, callee M, exitStmt N, exitVal D, returnSite N, retVal D) EdgeFunction[V]
	CallToReturnEdge(callSite N, srcVal D, returnSite N, destVal D) EdgeFunction[V]
	SummaryEdge(callSite N, srcVal D, returnSite N, destVal D) EdgeFunction[V]

	// Formatting helpers, used only for diagnostics.
	NodeToString(n N) string
	FactToString(d D) string
	MethodToString(m M) string
	ValueToString(v V) string
}

// ContextRestorer is the extension point named in the design notes as
// restoreContextOnReturnedFact: a hook that may rewrite a fact flowing back
// across a return edge with information about the caller's context. The
// default implementation (Identity) is the stub the algorithm assumes when
// no client override is configured: it returns its third argument
// unchanged.
type ContextRestorer[N, D any] interface {
	RestoreContext(callSite N, callerFact D, returnedFact D) D
}

// IdentityContextRestorer is the default ContextRestorer: it never rewrites
// the returned fact.
type IdentityContextRestorer[N, D any] struct{}

func (IdentityContextRestorer[N, D]) RestoreContext(_ N, _ D, returnedFact D) D {
	return returnedFact
}
