package icfgssa

import (
	"testing"

	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/cs-au-dk/ide-solver/ide"
	"github.com/cs-au-dk/ide-solver/pkgutil"
)

// buildProgram loads source as a single synthetic main package, builds SSA
// for it, and computes a CHA call graph — the same pipeline cmd/idesolve
// drives against a real on-disk package.
func buildProgram(t *testing.T, source string) (*ssa.Program, *ssa.Package) {
	t.Helper()

	pkgs, err := pkgutil.LoadPackagesFromSource(source)
	if err != nil {
		t.Fatal(err)
	}
	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions)
	prog.Build()

	if len(ssaPkgs) == 0 || ssaPkgs[0] == nil {
		t.Fatal("expected exactly one SSA package")
	}
	return prog, ssaPkgs[0]
}

// TestShiftIsStructurallyIdentity builds a recursive shift(n) that
// decrements n on every recursive call and increments the result by 1 on
// every return, and checks the solver discovers that shift(3) reaches the
// call site in main carrying the known constant 3 — a property only
// visible by propagating an affine transform through the full recursion via
// summaries, not by looking at any single stack frame.
func TestShiftIsStructurallyIdentity(t *testing.T) {
	prog, pkg := buildProgram(t, `package main

func shift(n int) int {
	if n <= 0 {
		return n
	}
	return shift(n-1) + 1
}

func main() {
	_ = shift(3)
}
`)

	mainFn := pkg.Func("main")
	shiftFn := pkg.Func("shift")
	if mainFn == nil || shiftFn == nil {
		t.Fatal("expected main and shift functions in built SSA")
	}

	cg := cha.CallGraph(prog)
	icfg := New(prog, cg)
	problem := NewProblem(icfg, []*ssa.Function{mainFn})

	solver := ide.New[ssa.Instruction, Fact, *ssa.Function, FlatInt, *ICFG](
		problem, ide.DefaultSolverConfig(), nil, nil, nil)
	solver.Solve()

	var callSite ssa.Instruction
	for _, b := range mainFn.Blocks {
		for _, instr := range b.Instrs {
			if call, ok := instr.(ssa.CallInstruction); ok {
				if call.Common().StaticCallee() == shiftFn {
					callSite = instr
				}
			}
		}
	}
	if callSite == nil {
		t.Fatal("expected to find main's call to shift")
	}

	// The net effect across the whole recursion (n-1 going down, +1 coming
	// back up) is the identity, so the call in main should see its result
	// register as "shift(3) == 3" at the call's return site.
	result := callResultOf(callSite.(ssa.CallInstruction))
	if result == nil {
		t.Fatal("expected main's call to have a result register")
	}
	returnSites := icfg.ReturnSitesOfCallAt(callSite)
	if len(returnSites) != 1 {
		t.Fatalf("expected one return site for main's call, got %d", len(returnSites))
	}

	got, ok := solver.ResultAt(returnSites[0], Fact{Reg: result})
	if !ok {
		t.Fatal("expected an explicit value for main's call result at its return site")
	}
	if c, isConst := got.IsConst(); !isConst || c != 3 {
		t.Errorf("value of shift(3) in main = %v, want Const(3)", got)
	}
}
