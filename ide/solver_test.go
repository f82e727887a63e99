package ide_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cs-au-dk/ide-solver/ide"
	"github.com/cs-au-dk/ide-solver/utils"
)

// --- a tiny intraprocedural problem: a 4-node linear chain that generates a
// second fact at node 1 and tags values with an additive edge function. ---

type linearICFG struct {
	start, exit int
	succs       map[int][]int
}

func (g *linearICFG) SuccsOf(n int) []int          { return g.succs[n] }
func (g *linearICFG) StartPointsOf(string) []int   { return []int{g.start} }
func (g *linearICFG) MethodOf(int) string          { return "m" }
func (g *linearICFG) CalleesOfCallAt(int) []string { return nil }
func (g *linearICFG) ReturnSitesOfCallAt(int) []int{ return nil }
func (g *linearICFG) CallsFromWithin(string) []int { return nil }
func (g *linearICFG) CallersOf(string) []int       { return nil }
func (g *linearICFG) IsCallStmt(int) bool          { return false }
func (g *linearICFG) IsExitStmt(n int) bool        { return n == g.exit }
func (g *linearICFG) IsStartPoint(n int) bool      { return n == g.start }
func (g *linearICFG) AllStartPoints() []int  { return []int{g.start} }

// addConst is a client-opaque EdgeFunction[int]: it adds a constant to
// whatever value flows through. It special-cases composition/join with its
// own kind and otherwise falls back to the algebra's generic wrappers, the
// shape any real IDE client transformer (e.g. linear constant propagation)
// takes.
type addConst struct {
	alg ide.EdgeFunctionAlgebra[int]
	k   int
}

func (f addConst) ComputeTarget(v int) int { return v + f.k }

func (f addConst) ComposeWith(g ide.EdgeFunction[int]) ide.EdgeFunction[int] {
	if o, ok := g.(addConst); ok {
		return addConst{alg: f.alg, k: f.k + o.k}
	}
	return f.alg.Compose(f, g)
}

func (f addConst) JoinWith(g ide.EdgeFunction[int]) ide.EdgeFunction[int] {
	if o, ok := g.(addConst); ok && o.k == f.k {
		return f
	}
	return f.alg.Join(f, g)
}

func (f addConst) Equal(g ide.EdgeFunction[int]) bool {
	o, ok := g.(addConst)
	return ok && o.k == f.k
}

type linearProblem struct {
	icfg *linearICFG
	alg  ide.EdgeFunctionAlgebra[int]
}

func newLinearProblem() *linearProblem {
	icfg := &linearICFG{
		start: 0, exit: 3,
		succs: map[int][]int{0: {1}, 1: {2}, 2: {3}},
	}
	return &linearProblem{
		icfg: icfg,
		alg:  ide.NewEdgeFunctionAlgebra(func(a, b int) int { return max(a, b) }, 1<<30),
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (p *linearProblem) NodeHasher() utils.Hasher[int]      { return utils.ComparableHasher[int]{} }
func (p *linearProblem) FactHasher() utils.Hasher[string]   { return utils.ComparableHasher[string]{} }
func (p *linearProblem) MethodHasher() utils.Hasher[string] { return utils.ComparableHasher[string]{} }

func (p *linearProblem) ZeroFact() string         { return "<zero>" }
func (p *linearProblem) IsZeroFact(d string) bool { return d == "<zero>" }

func (p *linearProblem) TopElement() int          { return 1 << 30 }
func (p *linearProblem) BottomElement() int       { return 0 }
func (p *linearProblem) Join(a, b int) int        { return max(a, b) }
func (p *linearProblem) ValueEqual(a, b int) bool { return a == b }

func (p *linearProblem) InterproceduralCFG() *linearICFG { return p.icfg }

func (p *linearProblem) InitialSeeds() []ide.Seed[int, string] {
	return []ide.Seed[int, string]{{StartNode: p.icfg.start, Facts: []string{"x"}}}
}

func (p *linearProblem) NormalFlow(curr, succ int) ide.FlowFunction[string] {
	if curr == 1 {
		return ide.FlowFunctionFunc[string](func(d string) []string {
			if d == "x" {
				return []string{"x", "y"}
			}
			return []string{d}
		})
	}
	return ide.IdentityFlowFunction[string]()
}

func (p *linearProblem) CallFlow(int, string) ide.FlowFunction[string]               { return ide.EmptyFlowFunction[string]() }
func (p *linearProblem) ReturnFlow(int, string, int, int) ide.FlowFunction[string]   { return ide.EmptyFlowFunction[string]() }
func (p *linearProblem) CallToReturnFlow(int, int) ide.FlowFunction[string]          { return ide.IdentityFlowFunction[string]() }
func (p *linearProblem) SummaryFlow(int, string) ide.FlowFunction[string]            { return nil }

func (p *linearProblem) NormalEdge(curr int, _ string, _ int, _ string) ide.EdgeFunction[int] {
	if curr == 1 {
		return addConst{alg: p.alg, k: 1}
	}
	return p.alg.Identity()
}
func (p *linearProblem) CallEdge(int, string, string, string) ide.EdgeFunction[int]          { return p.alg.AllTop() }
func (p *linearProblem) ReturnEdge(int, string, int, string, int, string) ide.EdgeFunction[int] { return p.alg.AllTop() }
func (p *linearProblem) CallToReturnEdge(int, string, int, string) ide.EdgeFunction[int]      { return p.alg.Identity() }
func (p *linearProblem) SummaryEdge(int, string, int, string) ide.EdgeFunction[int]           { return p.alg.AllTop() }

func (p *linearProblem) NodeToString(n int) string      { return "" }
func (p *linearProblem) FactToString(d string) string   { return d }
func (p *linearProblem) MethodToString(m string) string { return m }
func (p *linearProblem) ValueToString(v int) string     { return "" }

var _ ide.Problem[int, string, string, int, *linearICFG] = (*linearProblem)(nil)

func TestLinearChainGeneratesFactAndPropagatesValue(t *testing.T) {
	p := newLinearProblem()
	cfg := ide.DefaultSolverConfig()
	s := ide.New[int, string, string, int, *linearICFG](p, cfg, nil, nil, nil)
	s.Solve()

	v, ok := s.ResultAt(3, "x")
	if !ok {
		t.Fatalf("expected an explicit value for (exit, x)")
	}
	if v != 1 {
		t.Errorf("expected val(3, x) == 1 (node 1's normal edge is the only +1 step on the x path), got %d", v)
	}

	if _, ok := s.ResultAt(3, "y"); !ok {
		t.Errorf("expected fact y, generated at node 1, to reach the exit node")
	}
}

func TestLinearChainAutoAddZeroSeedsEveryStart(t *testing.T) {
	p := newLinearProblem()
	cfg := ide.DefaultSolverConfig()
	cfg.AutoAddZero = true
	cfg.RecordEdges = true
	s := ide.New[int, string, string, int, *linearICFG](p, cfg, nil, nil, nil)
	s.Solve()

	reachedExit := false
	s.Recorder().Intra.ForEach(func(_, nDst int, _, dDst string) {
		if nDst == 3 && dDst == "<zero>" {
			reachedExit = true
		}
	})
	if !reachedExit {
		t.Errorf("expected the zero fact's exploded-supergraph edges to reach the exit node when AutoAddZero is set")
	}
}

// --- a two-method call/return problem exercising standard callee
// expansion, the end-summary/incoming-edge patching in processExit, and
// phase II's call/exit value steps with distinct tags per edge crossed. ---

const (
	callerStart = 0
	callNode    = 1
	returnSite  = 2
	callerExit  = 3
	calleeStart = 10
	calleeExit  = 11
)

type callICFG struct{}

func (callICFG) SuccsOf(n int) []int {
	switch n {
	case callerStart:
		return []int{callNode}
	case returnSite:
		return []int{callerExit}
	case calleeStart:
		return []int{calleeExit}
	}
	return nil
}
func (callICFG) StartPointsOf(m string) []int {
	if m == "callee" {
		return []int{calleeStart}
	}
	return []int{callerStart}
}
func (callICFG) MethodOf(n int) string {
	if n >= calleeStart {
		return "callee"
	}
	return "main"
}
func (callICFG) CalleesOfCallAt(n int) []string {
	if n == callNode {
		return []string{"callee"}
	}
	return nil
}
func (callICFG) ReturnSitesOfCallAt(n int) []int {
	if n == callNode {
		return []int{returnSite}
	}
	return nil
}
func (callICFG) CallsFromWithin(m string) []int {
	if m == "main" {
		return []int{callNode}
	}
	return nil
}
func (callICFG) CallersOf(m string) []int {
	if m == "callee" {
		return []int{callNode}
	}
	return nil
}
func (callICFG) IsCallStmt(n int) bool         { return n == callNode }
func (callICFG) IsExitStmt(n int) bool         { return n == callerExit || n == calleeExit }
func (callICFG) IsStartPoint(n int) bool       { return n == callerStart || n == calleeStart }
func (callICFG) AllStartPoints() []int   { return []int{callerStart, calleeStart} }

type callProblem struct {
	alg ide.EdgeFunctionAlgebra[int]
}

func newCallProblem() *callProblem {
	return &callProblem{alg: ide.NewEdgeFunctionAlgebra(func(a, b int) int { return max(a, b) }, 1<<30)}
}

func (p *callProblem) NodeHasher() utils.Hasher[int]      { return utils.ComparableHasher[int]{} }
func (p *callProblem) FactHasher() utils.Hasher[string]   { return utils.ComparableHasher[string]{} }
func (p *callProblem) MethodHasher() utils.Hasher[string] { return utils.ComparableHasher[string]{} }

func (p *callProblem) ZeroFact() string         { return "<zero>" }
func (p *callProblem) IsZeroFact(d string) bool { return d == "<zero>" }

func (p *callProblem) TopElement() int          { return 1 << 30 }
func (p *callProblem) BottomElement() int       { return 0 }
func (p *callProblem) Join(a, b int) int        { return max(a, b) }
func (p *callProblem) ValueEqual(a, b int) bool { return a == b }

func (p *callProblem) InterproceduralCFG() callICFG { return callICFG{} }

func (p *callProblem) InitialSeeds() []ide.Seed[int, string] {
	return []ide.Seed[int, string]{{StartNode: callerStart, Facts: []string{"x"}}}
}

func (p *callProblem) NormalFlow(curr, succ int) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *callProblem) CallFlow(int, string) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *callProblem) ReturnFlow(int, string, int, int) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}

// CallToReturnFlow kills "x" locally, so it can only reach the return site
// by actually going through the callee; the zero fact passes straight
// through, the common case for a call site's "everything else" flow.
func (p *callProblem) CallToReturnFlow(int, int) ide.FlowFunction[string] {
	return ide.FlowFunctionFunc[string](func(d string) []string {
		if d == "x" {
			return nil
		}
		return []string{d}
	})
}
func (p *callProblem) SummaryFlow(int, string) ide.FlowFunction[string] { return nil }

func (p *callProblem) NormalEdge(int, string, int, string) ide.EdgeFunction[int] { return p.alg.Identity() }
func (p *callProblem) CallEdge(int, string, string, string) ide.EdgeFunction[int] {
	return addConst{alg: p.alg, k: 10}
}
func (p *callProblem) ReturnEdge(int, string, int, string, int, string) ide.EdgeFunction[int] {
	return addConst{alg: p.alg, k: 100}
}
func (p *callProblem) CallToReturnEdge(int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.Identity()
}
func (p *callProblem) SummaryEdge(int, string, int, string) ide.EdgeFunction[int] { return p.alg.AllTop() }

func (p *callProblem) NodeToString(int) string      { return "" }
func (p *callProblem) FactToString(d string) string { return d }
func (p *callProblem) MethodToString(m string) string { return m }
func (p *callProblem) ValueToString(int) string     { return "" }

var _ ide.Problem[int, string, string, int, callICFG] = (*callProblem)(nil)

func TestCallReturnPropagatesThroughCallee(t *testing.T) {
	p := newCallProblem()
	cfg := ide.DefaultSolverConfig()
	cfg.RecordEdges = true
	cfg.ComputePersistedSummaries = true
	s := ide.New[int, string, string, int, callICFG](p, cfg, nil, nil, nil)
	s.Solve()

	v, ok := s.ResultAt(callerExit, "x")
	if !ok {
		t.Fatalf("expected an explicit value for (callerExit, x)")
	}
	if v != 110 {
		t.Errorf("expected val(callerExit, x) == 110 (callEdge +10 then returnEdge +100), got %d", v)
	}

	if _, ok := s.PersistedSummaries().Lookup(callNode, returnSite); !ok {
		t.Errorf("expected a persisted summary for (callNode, returnSite)")
	}

	sawInterEdge := false
	s.Recorder().Inter.ForEach(func(nSrc, nDst int, dSrc, dDst string) {
		if nSrc == callNode && nDst == returnSite && dSrc == "x" {
			sawInterEdge = true
		}
	})
	if !sawInterEdge {
		t.Errorf("expected an inter-procedural edge recorded from the call site to the return site for fact x")
	}

	dump := s.DumpTables()
	if !strings.Contains(dump, "end summaries:") || !strings.Contains(dump, "incoming edges:") {
		t.Errorf("expected DumpTables to render both tables, got %q", dump)
	}
	if !strings.Contains(dump, fmt.Sprint(calleeStart)) {
		t.Errorf("expected DumpTables to mention the callee's start point, got %q", dump)
	}
}

// --- S2: two call sites to the same identity callee, each tagging the
// argument with a different constant before the call; the end summary
// computed once for the callee's (start, entry fact) is reused at both
// call sites rather than recomputed. ---

const (
	s2CallerStart = 0
	s2Call1       = 1
	s2Ret1        = 2
	s2Call2       = 3
	s2Ret2        = 4
	s2CalleeStart = 10
	s2CalleeExit  = 11
)

type idICFG struct{}

func (idICFG) SuccsOf(n int) []int {
	switch n {
	case s2CallerStart:
		// Two independent call sites reachable directly from the start
		// node (not chained one after the other), so each call's
		// contribution to the value at its own return site can be
		// checked in isolation.
		return []int{s2Call1, s2Call2}
	case s2CalleeStart:
		return []int{s2CalleeExit}
	}
	return nil
}
func (idICFG) StartPointsOf(m string) []int {
	if m == "id" {
		return []int{s2CalleeStart}
	}
	return []int{s2CallerStart}
}
func (idICFG) MethodOf(n int) string {
	if n >= s2CalleeStart {
		return "id"
	}
	return "main"
}
func (idICFG) CalleesOfCallAt(n int) []string {
	if n == s2Call1 || n == s2Call2 {
		return []string{"id"}
	}
	return nil
}
func (idICFG) ReturnSitesOfCallAt(n int) []int {
	switch n {
	case s2Call1:
		return []int{s2Ret1}
	case s2Call2:
		return []int{s2Ret2}
	}
	return nil
}
func (idICFG) CallsFromWithin(m string) []int {
	if m == "main" {
		return []int{s2Call1, s2Call2}
	}
	return nil
}
func (idICFG) CallersOf(m string) []int {
	if m == "id" {
		return []int{s2Call1, s2Call2}
	}
	return nil
}
func (idICFG) IsCallStmt(n int) bool       { return n == s2Call1 || n == s2Call2 }
func (idICFG) IsExitStmt(n int) bool       { return n == s2CalleeExit }
func (idICFG) IsStartPoint(n int) bool     { return n == s2CallerStart || n == s2CalleeStart }
func (idICFG) AllStartPoints() []int { return []int{s2CallerStart, s2CalleeStart} }

type idProblem struct {
	alg ide.EdgeFunctionAlgebra[int]
}

func newIDProblem() *idProblem {
	return &idProblem{alg: ide.NewEdgeFunctionAlgebra(func(a, b int) int { return max(a, b) }, 1<<30)}
}

func (p *idProblem) NodeHasher() utils.Hasher[int]      { return utils.ComparableHasher[int]{} }
func (p *idProblem) FactHasher() utils.Hasher[string]   { return utils.ComparableHasher[string]{} }
func (p *idProblem) MethodHasher() utils.Hasher[string] { return utils.ComparableHasher[string]{} }

func (p *idProblem) ZeroFact() string         { return "<zero>" }
func (p *idProblem) IsZeroFact(d string) bool { return d == "<zero>" }

func (p *idProblem) TopElement() int          { return 1 << 30 }
func (p *idProblem) BottomElement() int       { return 0 }
func (p *idProblem) Join(a, b int) int        { return max(a, b) }
func (p *idProblem) ValueEqual(a, b int) bool { return a == b }

func (p *idProblem) InterproceduralCFG() idICFG { return idICFG{} }

func (p *idProblem) InitialSeeds() []ide.Seed[int, string] {
	return []ide.Seed[int, string]{{StartNode: s2CallerStart, Facts: []string{"a"}}}
}

func (p *idProblem) NormalFlow(int, int) ide.FlowFunction[string] { return ide.IdentityFlowFunction[string]() }
func (p *idProblem) CallFlow(int, string) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *idProblem) ReturnFlow(int, string, int, int) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *idProblem) CallToReturnFlow(int, int) ide.FlowFunction[string] {
	return ide.FlowFunctionFunc[string](func(d string) []string {
		if d == "a" {
			return nil
		}
		return []string{d}
	})
}
func (p *idProblem) SummaryFlow(int, string) ide.FlowFunction[string] { return nil }

func (p *idProblem) NormalEdge(int, string, int, string) ide.EdgeFunction[int] { return p.alg.Identity() }
func (p *idProblem) CallEdge(callSite int, _ string, _ string, _ string) ide.EdgeFunction[int] {
	if callSite == s2Call1 {
		return addConst{alg: p.alg, k: 1}
	}
	return addConst{alg: p.alg, k: 2}
}
func (p *idProblem) ReturnEdge(int, string, int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.Identity()
}
func (p *idProblem) CallToReturnEdge(int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.Identity()
}
func (p *idProblem) SummaryEdge(int, string, int, string) ide.EdgeFunction[int] { return p.alg.AllTop() }

func (p *idProblem) NodeToString(int) string        { return "" }
func (p *idProblem) FactToString(d string) string   { return d }
func (p *idProblem) MethodToString(m string) string { return m }
func (p *idProblem) ValueToString(int) string       { return "" }

var _ ide.Problem[int, string, string, int, idICFG] = (*idProblem)(nil)

func TestCalleeSummaryReusedAcrossCallSites(t *testing.T) {
	p := newIDProblem()
	cfg := ide.DefaultSolverConfig()
	cfg.ComputePersistedSummaries = true
	s := ide.New[int, string, string, int, idICFG](p, cfg, nil, nil, nil)
	s.Solve()

	// The callee's end summary for (calleeStart, "a") is computed exactly
	// once regardless of which call site triggers it first; each call site
	// still sees its own call/return-edge contribution applied around that
	// single shared summary (the end-to-end observable effect of reuse,
	// independent of which of the two documented mechanisms — a direct
	// snapshot read in processCall, or processExit's retroactive patching
	// of every already-known caller — happened to apply it for either
	// particular call site).
	v1, ok := s.ResultAt(s2Ret1, "a")
	if !ok || v1 != 1 {
		t.Errorf("expected val(ret1, a) == 1, got %v (ok=%v)", v1, ok)
	}
	v2, ok := s.ResultAt(s2Ret2, "a")
	if !ok || v2 != 2 {
		t.Errorf("expected val(ret2, a) == 2, got %v (ok=%v)", v2, ok)
	}

	if _, ok := s.PersistedSummaries().Lookup(s2Call1, s2Ret1); !ok {
		t.Errorf("expected a persisted summary for (call1, ret1)")
	}
	if _, ok := s.PersistedSummaries().Lookup(s2Call2, s2Ret2); !ok {
		t.Errorf("expected a persisted summary for (call2, ret2)")
	}
}

// --- S4: a method reached only by a seed planted inside it (simulating an
// on-demand analysis that starts partway through the call graph), whose
// only statically known caller is never itself explored by the solver.
// With FollowReturnsPastSeeds on, the exit's effect still propagates past
// that caller's return sites as an unbalanced return. ---

const (
	s4Caller    = 100
	s4Return    = 101
	s4CalleeStart = 200
	s4CalleeExit  = 201
)

type unbalancedICFG struct{}

func (unbalancedICFG) SuccsOf(n int) []int {
	if n == s4CalleeStart {
		return []int{s4CalleeExit}
	}
	return nil
}
func (unbalancedICFG) StartPointsOf(m string) []int {
	if m == "callee" {
		return []int{s4CalleeStart}
	}
	return nil
}
func (unbalancedICFG) MethodOf(n int) string {
	if n == s4CalleeStart || n == s4CalleeExit {
		return "callee"
	}
	return "caller"
}
func (unbalancedICFG) CalleesOfCallAt(n int) []string {
	if n == s4Caller {
		return []string{"callee"}
	}
	return nil
}
func (unbalancedICFG) ReturnSitesOfCallAt(n int) []int {
	if n == s4Caller {
		return []int{s4Return}
	}
	return nil
}
func (unbalancedICFG) CallsFromWithin(m string) []int {
	if m == "caller" {
		return []int{s4Caller}
	}
	return nil
}
func (unbalancedICFG) CallersOf(m string) []int {
	if m == "callee" {
		return []int{s4Caller}
	}
	return nil
}
func (unbalancedICFG) IsCallStmt(n int) bool   { return n == s4Caller }
func (unbalancedICFG) IsExitStmt(n int) bool   { return n == s4CalleeExit }
func (unbalancedICFG) IsStartPoint(n int) bool { return n == s4CalleeStart }
func (unbalancedICFG) AllStartPoints() []int { return []int{s4CalleeStart} }

type unbalancedProblem struct {
	alg ide.EdgeFunctionAlgebra[int]
}

func (p *unbalancedProblem) NodeHasher() utils.Hasher[int]      { return utils.ComparableHasher[int]{} }
func (p *unbalancedProblem) FactHasher() utils.Hasher[string]   { return utils.ComparableHasher[string]{} }
func (p *unbalancedProblem) MethodHasher() utils.Hasher[string] { return utils.ComparableHasher[string]{} }

func (p *unbalancedProblem) ZeroFact() string         { return "<zero>" }
func (p *unbalancedProblem) IsZeroFact(d string) bool { return d == "<zero>" }

func (p *unbalancedProblem) TopElement() int          { return 1 << 30 }
func (p *unbalancedProblem) BottomElement() int       { return 0 }
func (p *unbalancedProblem) Join(a, b int) int        { return max(a, b) }
func (p *unbalancedProblem) ValueEqual(a, b int) bool { return a == b }

func (p *unbalancedProblem) InterproceduralCFG() unbalancedICFG { return unbalancedICFG{} }

func (p *unbalancedProblem) InitialSeeds() []ide.Seed[int, string] { return nil }

func (p *unbalancedProblem) NormalFlow(int, int) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *unbalancedProblem) CallFlow(int, string) ide.FlowFunction[string] {
	return ide.EmptyFlowFunction[string]()
}
func (p *unbalancedProblem) ReturnFlow(int, string, int, int) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *unbalancedProblem) CallToReturnFlow(int, int) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *unbalancedProblem) SummaryFlow(int, string) ide.FlowFunction[string] { return nil }

func (p *unbalancedProblem) NormalEdge(int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.Identity()
}
func (p *unbalancedProblem) CallEdge(int, string, string, string) ide.EdgeFunction[int] {
	return p.alg.AllTop()
}
func (p *unbalancedProblem) ReturnEdge(int, string, int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.Identity()
}
func (p *unbalancedProblem) CallToReturnEdge(int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.Identity()
}
func (p *unbalancedProblem) SummaryEdge(int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.AllTop()
}

func (p *unbalancedProblem) NodeToString(int) string        { return "" }
func (p *unbalancedProblem) FactToString(d string) string   { return d }
func (p *unbalancedProblem) MethodToString(m string) string { return m }
func (p *unbalancedProblem) ValueToString(int) string       { return "" }

var _ ide.Problem[int, string, string, int, unbalancedICFG] = (*unbalancedProblem)(nil)

func TestUnbalancedReturnPastUnexploredCaller(t *testing.T) {
	p := &unbalancedProblem{alg: ide.NewEdgeFunctionAlgebra(func(a, b int) int { return max(a, b) }, 1<<30)}
	cfg := ide.DefaultSolverConfig()
	cfg.AutoAddZero = true
	cfg.FollowReturnsPastSeeds = true
	stats := &ide.CountingStats{}
	s := ide.New[int, string, string, int, unbalancedICFG](p, cfg, nil, stats, nil)
	s.Solve()

	sites := s.UnbalancedReturnSites()
	found := false
	for _, n := range sites {
		if n == s4Return {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %d to be recorded as an unbalanced-return site, got %v", s4Return, sites)
	}
	if stats.UnbalancedReturns == 0 {
		t.Errorf("expected at least one unbalanced-return propagation to be counted")
	}
}

// --- S5: a call site where the client provides a non-empty SummaryFlow.
// Standard callee expansion (CallFlow/ReturnFlow) must never run for that
// call site; only SummaryFlow/SummaryEdge are queried. ---

const (
	s5Start = 0
	s5Call  = 1
	s5Ret   = 2
)

type specialICFG struct{}

func (specialICFG) SuccsOf(n int) []int {
	if n == s5Start {
		return []int{s5Call}
	}
	return nil
}
func (specialICFG) StartPointsOf(string) []int       { return []int{s5Start} }
func (specialICFG) MethodOf(int) string              { return "main" }
func (specialICFG) CalleesOfCallAt(n int) []string {
	if n == s5Call {
		return []string{"q"}
	}
	return nil
}
func (specialICFG) ReturnSitesOfCallAt(n int) []int {
	if n == s5Call {
		return []int{s5Ret}
	}
	return nil
}
func (specialICFG) CallsFromWithin(string) []int { return []int{s5Call} }
func (specialICFG) CallersOf(string) []int       { return nil }
func (specialICFG) IsCallStmt(n int) bool        { return n == s5Call }
func (specialICFG) IsExitStmt(int) bool          { return false }
func (specialICFG) IsStartPoint(n int) bool      { return n == s5Start }
func (specialICFG) AllStartPoints() []int  { return []int{s5Start} }

type specialProblem struct {
	alg                        ide.EdgeFunctionAlgebra[int]
	callFlowCalled, retFlowCalled bool
}

func (p *specialProblem) NodeHasher() utils.Hasher[int]      { return utils.ComparableHasher[int]{} }
func (p *specialProblem) FactHasher() utils.Hasher[string]   { return utils.ComparableHasher[string]{} }
func (p *specialProblem) MethodHasher() utils.Hasher[string] { return utils.ComparableHasher[string]{} }

func (p *specialProblem) ZeroFact() string         { return "<zero>" }
func (p *specialProblem) IsZeroFact(d string) bool { return d == "<zero>" }

func (p *specialProblem) TopElement() int          { return 1 << 30 }
func (p *specialProblem) BottomElement() int       { return 0 }
func (p *specialProblem) Join(a, b int) int        { return max(a, b) }
func (p *specialProblem) ValueEqual(a, b int) bool { return a == b }

func (p *specialProblem) InterproceduralCFG() specialICFG { return specialICFG{} }

func (p *specialProblem) InitialSeeds() []ide.Seed[int, string] {
	return []ide.Seed[int, string]{{StartNode: s5Start, Facts: []string{"a"}}}
}

func (p *specialProblem) NormalFlow(int, int) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *specialProblem) CallFlow(int, string) ide.FlowFunction[string] {
	p.callFlowCalled = true
	return ide.IdentityFlowFunction[string]()
}
func (p *specialProblem) ReturnFlow(int, string, int, int) ide.FlowFunction[string] {
	p.retFlowCalled = true
	return ide.IdentityFlowFunction[string]()
}
func (p *specialProblem) CallToReturnFlow(int, int) ide.FlowFunction[string] {
	return ide.EmptyFlowFunction[string]()
}
func (p *specialProblem) SummaryFlow(int, string) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}

func (p *specialProblem) NormalEdge(int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.Identity()
}
func (p *specialProblem) CallEdge(int, string, string, string) ide.EdgeFunction[int] {
	return p.alg.AllTop()
}
func (p *specialProblem) ReturnEdge(int, string, int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.AllTop()
}
func (p *specialProblem) CallToReturnEdge(int, string, int, string) ide.EdgeFunction[int] {
	return p.alg.Identity()
}
func (p *specialProblem) SummaryEdge(int, string, int, string) ide.EdgeFunction[int] {
	return addConst{alg: p.alg, k: 7}
}

func (p *specialProblem) NodeToString(int) string        { return "" }
func (p *specialProblem) FactToString(d string) string   { return d }
func (p *specialProblem) MethodToString(m string) string { return m }
func (p *specialProblem) ValueToString(int) string       { return "" }

var _ ide.Problem[int, string, string, int, specialICFG] = (*specialProblem)(nil)

func TestSpecialSummaryShortCircuitsCalleeExpansion(t *testing.T) {
	p := &specialProblem{alg: ide.NewEdgeFunctionAlgebra(func(a, b int) int { return max(a, b) }, 1<<30)}
	cfg := ide.DefaultSolverConfig()
	s := ide.New[int, string, string, int, specialICFG](p, cfg, nil, nil, nil)
	s.Solve()

	if p.callFlowCalled {
		t.Errorf("expected CallFlow to never be queried once SummaryFlow short-circuits the call site")
	}
	if p.retFlowCalled {
		t.Errorf("expected ReturnFlow to never be queried once SummaryFlow short-circuits the call site")
	}

	v, ok := s.ResultAt(s5Ret, "a")
	if !ok || v != 7 {
		t.Errorf("expected val(ret, a) == 7 via summaryEdge, got %v (ok=%v)", v, ok)
	}
}

// --- S6: a diamond CFG where two branches assign a different constant to
// the same fact before rejoining; under a flat constants lattice the
// merge point's value is top, which ResultAt reports as absence rather
// than an explicit value (§4.3: top values are never returned). ---

type flatVal int

const (
	flatBottom flatVal = -1 << 30
	flatTop    flatVal = 1 << 30
)

func joinFlat(a, b flatVal) flatVal {
	switch {
	case a == flatBottom:
		return b
	case b == flatBottom:
		return a
	case a == flatTop || b == flatTop:
		return flatTop
	case a == b:
		return a
	default:
		return flatTop
	}
}

const (
	diamondStart  = 0
	diamondLeft   = 1
	diamondRight  = 2
	diamondMerge  = 3
)

type diamondICFG struct{}

func (diamondICFG) SuccsOf(n int) []int {
	switch n {
	case diamondStart:
		return []int{diamondLeft, diamondRight}
	case diamondLeft, diamondRight:
		return []int{diamondMerge}
	}
	return nil
}
func (diamondICFG) StartPointsOf(string) []int       { return []int{diamondStart} }
func (diamondICFG) MethodOf(int) string              { return "m" }
func (diamondICFG) CalleesOfCallAt(int) []string     { return nil }
func (diamondICFG) ReturnSitesOfCallAt(int) []int    { return nil }
func (diamondICFG) CallsFromWithin(string) []int     { return nil }
func (diamondICFG) CallersOf(string) []int           { return nil }
func (diamondICFG) IsCallStmt(int) bool              { return false }
func (diamondICFG) IsExitStmt(n int) bool            { return n == diamondMerge }
func (diamondICFG) IsStartPoint(n int) bool          { return n == diamondStart }
func (diamondICFG) AllStartPoints() []int      { return []int{diamondStart} }

// constFn overwrites the incoming value with a fixed constant, the edge
// function shape an assignment like "x := 1" takes; joining two of them
// computes the flat-lattice join of the two constants directly rather than
// falling back to the generic pointwise Joined wrapper.
type constFn struct {
	alg ide.EdgeFunctionAlgebra[flatVal]
	c   flatVal
}

func (f constFn) ComputeTarget(flatVal) flatVal { return f.c }
func (f constFn) ComposeWith(g ide.EdgeFunction[flatVal]) ide.EdgeFunction[flatVal] {
	if _, ok := g.(constFn); ok {
		return g
	}
	return f.alg.Compose(f, g)
}
func (f constFn) JoinWith(g ide.EdgeFunction[flatVal]) ide.EdgeFunction[flatVal] {
	if o, ok := g.(constFn); ok {
		return constFn{alg: f.alg, c: joinFlat(f.c, o.c)}
	}
	return f.alg.Join(f, g)
}
func (f constFn) Equal(g ide.EdgeFunction[flatVal]) bool {
	o, ok := g.(constFn)
	return ok && o.c == f.c
}

type diamondProblem struct {
	alg ide.EdgeFunctionAlgebra[flatVal]
}

func (p *diamondProblem) NodeHasher() utils.Hasher[int]      { return utils.ComparableHasher[int]{} }
func (p *diamondProblem) FactHasher() utils.Hasher[string]   { return utils.ComparableHasher[string]{} }
func (p *diamondProblem) MethodHasher() utils.Hasher[string] { return utils.ComparableHasher[string]{} }

func (p *diamondProblem) ZeroFact() string         { return "<zero>" }
func (p *diamondProblem) IsZeroFact(d string) bool { return d == "<zero>" }

func (p *diamondProblem) TopElement() flatVal          { return flatTop }
func (p *diamondProblem) BottomElement() flatVal       { return flatBottom }
func (p *diamondProblem) Join(a, b flatVal) flatVal    { return joinFlat(a, b) }
func (p *diamondProblem) ValueEqual(a, b flatVal) bool { return a == b }

func (p *diamondProblem) InterproceduralCFG() diamondICFG { return diamondICFG{} }

func (p *diamondProblem) InitialSeeds() []ide.Seed[int, string] {
	return []ide.Seed[int, string]{{StartNode: diamondStart, Facts: []string{"x"}}}
}

func (p *diamondProblem) NormalFlow(int, int) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *diamondProblem) CallFlow(int, string) ide.FlowFunction[string] {
	return ide.EmptyFlowFunction[string]()
}
func (p *diamondProblem) ReturnFlow(int, string, int, int) ide.FlowFunction[string] {
	return ide.EmptyFlowFunction[string]()
}
func (p *diamondProblem) CallToReturnFlow(int, int) ide.FlowFunction[string] {
	return ide.IdentityFlowFunction[string]()
}
func (p *diamondProblem) SummaryFlow(int, string) ide.FlowFunction[string] { return nil }

func (p *diamondProblem) NormalEdge(curr int, _ string, _ int, _ string) ide.EdgeFunction[flatVal] {
	switch curr {
	case diamondLeft:
		return constFn{alg: p.alg, c: 1}
	case diamondRight:
		return constFn{alg: p.alg, c: 2}
	default:
		return p.alg.Identity()
	}
}
func (p *diamondProblem) CallEdge(int, string, string, string) ide.EdgeFunction[flatVal] {
	return p.alg.AllTop()
}
func (p *diamondProblem) ReturnEdge(int, string, int, string, int, string) ide.EdgeFunction[flatVal] {
	return p.alg.AllTop()
}
func (p *diamondProblem) CallToReturnEdge(int, string, int, string) ide.EdgeFunction[flatVal] {
	return p.alg.Identity()
}
func (p *diamondProblem) SummaryEdge(int, string, int, string) ide.EdgeFunction[flatVal] {
	return p.alg.AllTop()
}

func (p *diamondProblem) NodeToString(int) string        { return "" }
func (p *diamondProblem) FactToString(d string) string   { return d }
func (p *diamondProblem) MethodToString(m string) string { return m }
func (p *diamondProblem) ValueToString(flatVal) string   { return "" }

var _ ide.Problem[int, string, string, flatVal, diamondICFG] = (*diamondProblem)(nil)

func TestDiamondMergeJoinsToTop(t *testing.T) {
	p := &diamondProblem{alg: ide.NewEdgeFunctionAlgebra(joinFlat, flatTop)}
	cfg := ide.DefaultSolverConfig()
	s := ide.New[int, string, string, flatVal, diamondICFG](p, cfg, nil, nil, nil)
	s.Solve()

	if _, ok := s.ResultAt(diamondMerge, "x"); ok {
		t.Errorf("expected ResultAt(merge, x) to report absence (top), not an explicit value")
	}
}
