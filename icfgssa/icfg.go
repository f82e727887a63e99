package icfgssa

import (
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"

	"github.com/cs-au-dk/ide-solver/ide"
	"github.com/cs-au-dk/ide-solver/utils/slices"
)

// ICFG is an ide.ICFG[ssa.Instruction, *ssa.Function] over an already-built
// ssa.Program, using a precomputed callgraph.Graph (typically CHA, per
// golang.org/x/tools/go/callgraph/cha) to resolve callees of indirect and
// interface-method call sites. Nodes are individual SSA instructions: every
// basic block statement, not just calls, is a program point the solver can
// see.
type ICFG struct {
	Prog *ssa.Program
	CG   *callgraph.Graph
}

// New builds an ICFG from a built ssa.Program and a call graph over it.
func New(prog *ssa.Program, cg *callgraph.Graph) *ICFG {
	return &ICFG{Prog: prog, CG: cg}
}

var _ ide.ICFG[ssa.Instruction, *ssa.Function] = (*ICFG)(nil)

// instrIndex returns the index of n within its own basic block, or -1 if n
// is not found (which should not happen for a well-formed ssa.Instruction).
func instrIndex(n ssa.Instruction) int {
	blk := n.Block()
	if blk == nil {
		return -1
	}
	for i, instr := range blk.Instrs {
		if instr == n {
			return i
		}
	}
	return -1
}

// SuccsOf returns the next instruction in n's own block, or, if n is the
// block's last instruction, the first instruction of each successor block.
// Empty successor blocks (a degenerate block with no instructions, which
// the ssa builder does not normally produce) are skipped.
func (g *ICFG) SuccsOf(n ssa.Instruction) []ssa.Instruction {
	blk := n.Block()
	if blk == nil {
		return nil
	}
	i := instrIndex(n)
	if i >= 0 && i+1 < len(blk.Instrs) {
		return []ssa.Instruction{blk.Instrs[i+1]}
	}

	succs := make([]ssa.Instruction, 0, len(blk.Succs))
	for _, s := range blk.Succs {
		if len(s.Instrs) > 0 {
			succs = append(succs, s.Instrs[0])
		}
	}
	return succs
}

// StartPointsOf returns m's single entry instruction: the first instruction
// of its entry block. A function with no body (an external/intrinsic
// function with no Blocks) has no start points.
func (g *ICFG) StartPointsOf(m *ssa.Function) []ssa.Instruction {
	if len(m.Blocks) == 0 || len(m.Blocks[0].Instrs) == 0 {
		return nil
	}
	return []ssa.Instruction{m.Blocks[0].Instrs[0]}
}

func (g *ICFG) MethodOf(n ssa.Instruction) *ssa.Function { return n.Parent() }

// CalleesOfCallAt resolves a call site's targets: the statically known
// callee if the call is direct, otherwise every callgraph edge whose Site
// matches n (the call graph carries the result of whatever points-to or
// class-hierarchy analysis built it).
func (g *ICFG) CalleesOfCallAt(n ssa.Instruction) []*ssa.Function {
	call, ok := n.(ssa.CallInstruction)
	if !ok {
		return nil
	}
	if callee := call.Common().StaticCallee(); callee != nil {
		return []*ssa.Function{callee}
	}

	node := g.CG.Nodes[n.Parent()]
	if node == nil {
		return nil
	}

	var callees []*ssa.Function
	for _, edge := range node.Out {
		if edge.Site == call && edge.Callee != nil && edge.Callee.Func != nil {
			callees = append(callees, edge.Callee.Func)
		}
	}
	return slices.Dedup(callees, func(a, b *ssa.Function) bool { return a == b })
}

// ReturnSitesOfCallAt is the instruction the call returns control to: the
// next instruction in the call's own block. Every SSA block ends with a
// terminator (Jump/If/Return/Panic), so a call is never a block's last
// instruction and this is always exactly one node.
func (g *ICFG) ReturnSitesOfCallAt(n ssa.Instruction) []ssa.Instruction {
	return g.SuccsOf(n)
}

func (g *ICFG) CallsFromWithin(m *ssa.Function) []ssa.Instruction {
	var calls []ssa.Instruction
	for _, b := range m.Blocks {
		for _, instr := range b.Instrs {
			if g.IsCallStmt(instr) {
				calls = append(calls, instr)
			}
		}
	}
	return calls
}

// CallersOf returns every call-site instruction with a callgraph edge into
// m, per the ICFG capability's getCallersOf(m) returning call sites (N),
// not methods.
func (g *ICFG) CallersOf(m *ssa.Function) []ssa.Instruction {
	node := g.CG.Nodes[m]
	if node == nil {
		return nil
	}
	var sites []ssa.Instruction
	for _, edge := range node.In {
		if site, ok := edge.Site.(ssa.Instruction); ok {
			sites = append(sites, site)
		}
	}
	return sites
}

// IsCallStmt treats every synchronous or asynchronous call form (Call, Go,
// Defer) as a call node; ReturnFlow/ReturnEdge below only produce a fact
// for the ones that actually yield a result value (plain Call).
func (g *ICFG) IsCallStmt(n ssa.Instruction) bool {
	_, ok := n.(ssa.CallInstruction)
	return ok
}

func (g *ICFG) IsExitStmt(n ssa.Instruction) bool {
	_, ok := n.(*ssa.Return)
	return ok
}

func (g *ICFG) IsStartPoint(n ssa.Instruction) bool {
	starts := g.StartPointsOf(n.Parent())
	return len(starts) == 1 && starts[0] == n
}

// AllStartPoints returns the entry instruction of every function known to
// the call graph. Used by SolverConfig.AutoAddZero to seed the zero fact
// everywhere.
func (g *ICFG) AllStartPoints() []ssa.Instruction {
	var res []ssa.Instruction
	for fn := range g.CG.Nodes {
		if fn == nil {
			// The call graph's synthetic root node has no function.
			continue
		}
		if starts := g.StartPointsOf(fn); len(starts) == 1 {
			res = append(res, starts[0])
		}
	}
	return res
}
