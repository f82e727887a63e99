package icfgssa

import (
	"go/constant"
	"go/token"

	"golang.org/x/tools/go/ssa"

	"github.com/cs-au-dk/ide-solver/ide"
	"github.com/cs-au-dk/ide-solver/utils"
)

// Fact is a dataflow fact over SSA register values: Reg == nil is the zero
// fact, otherwise the fact asserts "the value of this SSA register is
// known". Facts are never killed once generated, matching SSA's
// single-assignment property: a register's defining instruction runs
// exactly once, so any fact about it holds for the rest of its live range.
type Fact struct {
	Reg ssa.Value
}

func (f Fact) Hash() uint32 {
	if f.Reg == nil {
		return 0
	}
	return utils.PointerHasher[ssa.Value]{}.Hash(f.Reg)
}

func (f Fact) Equal(o Fact) bool { return f.Reg == o.Reg }

var _ utils.HashableEq[Fact] = Fact{}

// affine is the client-opaque edge function this problem builds: v -> a*v+b
// over FlatInt, with AllTop/bottom absorbed. It mirrors the addConst
// edge function shape used in ide's own tests, generalized from a pure
// additive shift to a full affine transform so it can represent both "+k"
// (n-1 at a recursive call site) and "*k" (a literal scaling) steps built
// from a single BinOp with one constant operand.
type affine struct {
	alg  ide.EdgeFunctionAlgebra[FlatInt]
	a, b int64
}

func (f affine) ComputeTarget(v FlatInt) FlatInt {
	c, ok := v.IsConst()
	if !ok {
		return v // bottom stays bottom, top stays top
	}
	return Const(f.a*c + f.b)
}

func (f affine) ComposeWith(g ide.EdgeFunction[FlatInt]) ide.EdgeFunction[FlatInt] {
	if o, ok := g.(affine); ok {
		// "first f, then g": g(f(v)) = o.a*(f.a*v+f.b)+o.b.
		return affine{alg: f.alg, a: f.a * o.a, b: f.b*o.a + o.b}
	}
	return f.alg.Compose(f, g)
}

func (f affine) JoinWith(g ide.EdgeFunction[FlatInt]) ide.EdgeFunction[FlatInt] {
	if o, ok := g.(affine); ok && o.a == f.a && o.b == f.b {
		return f
	}
	return f.alg.Join(f, g)
}

func (f affine) Equal(g ide.EdgeFunction[FlatInt]) bool {
	o, ok := g.(affine)
	return ok && o.a == f.a && o.b == f.b
}

// decomposeAffine recognizes a *ssa.BinOp with at most one non-constant
// operand and a +, -, or * operator, returning the transform "variable ->
// a*variable+b" it computes. variable == nil (with ok == true) means the
// expression is fully constant (both operands literals): the caller should
// treat it as "always b", independent of any fact's value. Anything else
// (a different instruction kind, two non-constant operands, or an
// unsupported operator) reports ok == false.
func decomposeAffine(v ssa.Value) (variable ssa.Value, a, b int64, ok bool) {
	bin, isBin := v.(*ssa.BinOp)
	if !isBin {
		return nil, 0, 0, false
	}
	xc, xIsConst := bin.X.(*ssa.Const)
	yc, yIsConst := bin.Y.(*ssa.Const)

	switch {
	case xIsConst && yIsConst:
		switch bin.Op {
		case token.ADD:
			return nil, 0, constInt(xc) + constInt(yc), true
		case token.SUB:
			return nil, 0, constInt(xc) - constInt(yc), true
		case token.MUL:
			return nil, 0, constInt(xc) * constInt(yc), true
		}
		return nil, 0, 0, false

	case yIsConst:
		k := constInt(yc)
		switch bin.Op {
		case token.ADD:
			return bin.X, 1, k, true
		case token.SUB:
			return bin.X, 1, -k, true
		case token.MUL:
			return bin.X, k, 0, true
		}
		return nil, 0, 0, false

	case xIsConst:
		k := constInt(xc)
		switch bin.Op {
		case token.ADD:
			return bin.Y, 1, k, true
		case token.SUB:
			return bin.Y, -1, k, true
		case token.MUL:
			return bin.Y, k, 0, true
		}
		return nil, 0, 0, false

	default:
		return nil, 0, 0, false
	}
}

func constInt(c *ssa.Const) int64 {
	if c.Value == nil {
		return 0
	}
	if iv, exact := constant.Int64Val(c.Value); exact {
		return iv
	}
	return 0
}

// callResultOf returns the SSA value a call instruction produces, or nil
// for call forms with no result (Go, Defer).
func callResultOf(call ssa.CallInstruction) ssa.Value {
	if c, ok := call.(*ssa.Call); ok {
		return c
	}
	return nil
}

// Problem is a small interprocedural "reaching affine constants" IDE
// client: it tracks, starting from a configured set of root functions, how
// far a chain of additions/subtractions/multiplications-by-literal carries
// a value from a literal constant argument through calls, returns, and
// intraprocedural arithmetic. It is intentionally narrow — it only follows
// the first parameter/argument and the first result of a call/return, and
// only recognizes BinOp steps with exactly one constant operand — chosen to
// demonstrate the solver's call/return/summary machinery end-to-end on real
// SSA without reimplementing a full constant-propagation lattice.
type Problem struct {
	icfg  *ICFG
	alg   ide.EdgeFunctionAlgebra[FlatInt]
	roots []*ssa.Function
}

// NewProblem builds a Problem over icfg, seeding the zero fact at the entry
// of every function in roots.
func NewProblem(icfg *ICFG, roots []*ssa.Function) *Problem {
	return &Problem{
		icfg:  icfg,
		alg:   ide.NewEdgeFunctionAlgebra(Join, Top),
		roots: roots,
	}
}

var _ ide.Problem[ssa.Instruction, Fact, *ssa.Function, FlatInt, *ICFG] = (*Problem)(nil)

func (p *Problem) NodeHasher() utils.Hasher[ssa.Instruction] { return utils.PointerHasher[ssa.Instruction]{} }
func (p *Problem) FactHasher() utils.Hasher[Fact]            { return utils.HashableHasher[Fact]() }
func (p *Problem) MethodHasher() utils.Hasher[*ssa.Function] { return utils.PointerHasher[*ssa.Function]{} }

func (p *Problem) ZeroFact() Fact         { return Fact{} }
func (p *Problem) IsZeroFact(d Fact) bool { return d.Reg == nil }

func (p *Problem) TopElement() FlatInt          { return Top }
func (p *Problem) BottomElement() FlatInt       { return Bottom }
func (p *Problem) Join(a, b FlatInt) FlatInt    { return Join(a, b) }
func (p *Problem) ValueEqual(a, b FlatInt) bool { return a == b }

func (p *Problem) InterproceduralCFG() *ICFG { return p.icfg }

func (p *Problem) InitialSeeds() []ide.Seed[ssa.Instruction, Fact] {
	var seeds []ide.Seed[ssa.Instruction, Fact]
	for _, fn := range p.roots {
		starts := p.icfg.StartPointsOf(fn)
		if len(starts) == 0 {
			continue
		}
		seeds = append(seeds, ide.Seed[ssa.Instruction, Fact]{StartNode: starts[0], Facts: []Fact{{}}})
	}
	return seeds
}

// NormalFlow passes every live fact through unchanged (SSA registers are
// never redefined) and, when the zero fact or the tracked variable operand
// of a BinOp is live at curr, additionally generates a fact for curr's own
// result register.
func (p *Problem) NormalFlow(curr, _ ssa.Instruction) ide.FlowFunction[Fact] {
	v, isVal := curr.(ssa.Value)
	variable, _, _, ok := decomposeAffine(valueOrNil(v, isVal))

	return ide.FlowFunctionFunc[Fact](func(d Fact) []Fact {
		out := []Fact{d}
		if isVal && ok && (d.Reg == nil || d.Reg == variable) {
			out = append(out, Fact{Reg: v})
		}
		return out
	})
}

func valueOrNil(v ssa.Value, isVal bool) ssa.Value {
	if !isVal {
		return nil
	}
	return v
}

func (p *Problem) NormalEdge(curr ssa.Instruction, currVal Fact, _ ssa.Instruction, succVal Fact) ide.EdgeFunction[FlatInt] {
	v, isVal := curr.(ssa.Value)
	if !isVal || succVal.Reg != v {
		return p.alg.Identity() // the pass-through pair (succVal == currVal)
	}

	variable, a, b, ok := decomposeAffine(v)
	if !ok {
		return p.alg.AllTop()
	}
	if variable == nil {
		if currVal.Reg != nil {
			return p.alg.AllTop()
		}
		return affine{alg: p.alg, a: 0, b: b}
	}
	if currVal.Reg != variable {
		return p.alg.AllTop()
	}
	return affine{alg: p.alg, a: a, b: b}
}

// CallFlow lets the zero fact, and any live fact that is exactly (or an
// affine function of) the call's first actual argument, cross into the
// callee's first formal parameter.
func (p *Problem) CallFlow(callSite ssa.Instruction, callee *ssa.Function) ide.FlowFunction[Fact] {
	call, _ := callSite.(ssa.CallInstruction)

	return ide.FlowFunctionFunc[Fact](func(d Fact) []Fact {
		if len(callee.Params) == 0 {
			if d.Reg == nil {
				return []Fact{d}
			}
			return nil
		}
		param := Fact{Reg: callee.Params[0]}

		if d.Reg == nil {
			return []Fact{d, param}
		}
		if call == nil || len(call.Common().Args) == 0 {
			return nil
		}
		arg := call.Common().Args[0]
		if arg == d.Reg {
			return []Fact{param}
		}
		if variable, _, _, ok := decomposeAffine(arg); ok && variable == d.Reg {
			return []Fact{param}
		}
		return nil
	})
}

func (p *Problem) CallEdge(callSite ssa.Instruction, srcVal Fact, callee *ssa.Function, destVal Fact) ide.EdgeFunction[FlatInt] {
	if destVal.Reg == nil {
		return p.alg.Identity()
	}
	call, ok := callSite.(ssa.CallInstruction)
	if !ok || len(call.Common().Args) == 0 {
		return p.alg.AllTop()
	}
	arg := call.Common().Args[0]

	if srcVal.Reg == nil {
		if c, ok := arg.(*ssa.Const); ok {
			return affine{alg: p.alg, a: 0, b: constInt(c)}
		}
		return p.alg.AllTop()
	}
	if arg == srcVal.Reg {
		return p.alg.Identity()
	}
	if variable, a, b, ok := decomposeAffine(arg); ok && variable == srcVal.Reg {
		return affine{alg: p.alg, a: a, b: b}
	}
	return p.alg.AllTop()
}

// ReturnFlow lets the zero fact, and any live fact that is exactly (or an
// affine function of) the returned expression, cross back to the call's
// own result register at the return site.
func (p *Problem) ReturnFlow(callSite ssa.Instruction, _ *ssa.Function, exitStmt, _ ssa.Instruction) ide.FlowFunction[Fact] {
	call, _ := callSite.(ssa.CallInstruction)
	var resultReg ssa.Value
	if call != nil {
		resultReg = callResultOf(call)
	}
	ret, isRet := exitStmt.(*ssa.Return)

	return ide.FlowFunctionFunc[Fact](func(d Fact) []Fact {
		if !isRet || len(ret.Results) == 0 || resultReg == nil {
			if d.Reg == nil {
				return []Fact{d}
			}
			return nil
		}
		result := ret.Results[0]

		if d.Reg == nil {
			out := []Fact{d}
			if _, isConst := result.(*ssa.Const); isConst {
				out = append(out, Fact{Reg: resultReg})
			}
			return out
		}
		if result == d.Reg {
			return []Fact{{Reg: resultReg}}
		}
		if variable, _, _, ok := decomposeAffine(result); ok && variable == d.Reg {
			return []Fact{{Reg: resultReg}}
		}
		return nil
	})
}

func (p *Problem) ReturnEdge(_ ssa.Instruction, _ *ssa.Function, exitStmt ssa.Instruction, exitVal Fact, _ ssa.Instruction, _ Fact) ide.EdgeFunction[FlatInt] {
	ret, ok := exitStmt.(*ssa.Return)
	if !ok || len(ret.Results) == 0 {
		return p.alg.Identity()
	}
	result := ret.Results[0]

	if exitVal.Reg == nil {
		if c, ok := result.(*ssa.Const); ok {
			return affine{alg: p.alg, a: 0, b: constInt(c)}
		}
		return p.alg.Identity()
	}
	if result == exitVal.Reg {
		return p.alg.Identity()
	}
	if variable, a, b, ok := decomposeAffine(result); ok && variable == exitVal.Reg {
		return affine{alg: p.alg, a: a, b: b}
	}
	return p.alg.AllTop()
}

// CallToReturnFlow passes every fact through except the call's own result
// register: that fact is only ever produced by ReturnFlow, matching the
// standard IFDS/IDE call-to-return convention of modeling "everything the
// call doesn't touch" while leaving the call's actual effect to the
// call/return pair.
func (p *Problem) CallToReturnFlow(callSite, _ ssa.Instruction) ide.FlowFunction[Fact] {
	call, _ := callSite.(ssa.CallInstruction)
	var resultReg ssa.Value
	if call != nil {
		resultReg = callResultOf(call)
	}
	return ide.FlowFunctionFunc[Fact](func(d Fact) []Fact {
		if resultReg != nil && d.Reg == resultReg {
			return nil
		}
		return []Fact{d}
	})
}

func (p *Problem) CallToReturnEdge(ssa.Instruction, Fact, ssa.Instruction, Fact) ide.EdgeFunction[FlatInt] {
	return p.alg.Identity()
}

// SummaryFlow/SummaryEdge never special-case a call site in this problem:
// every call is expanded through CallFlow/CallEdge/ReturnFlow/ReturnEdge.
func (p *Problem) SummaryFlow(ssa.Instruction, *ssa.Function) ide.FlowFunction[Fact] { return nil }

func (p *Problem) SummaryEdge(ssa.Instruction, Fact, ssa.Instruction, Fact) ide.EdgeFunction[FlatInt] {
	return p.alg.AllTop()
}

func (p *Problem) NodeToString(n ssa.Instruction) string { return n.String() }

func (p *Problem) FactToString(d Fact) string {
	if d.Reg == nil {
		return "<zero>"
	}
	return d.Reg.Name()
}

func (p *Problem) MethodToString(m *ssa.Function) string { return m.String() }
func (p *Problem) ValueToString(v FlatInt) string         { return v.String() }
