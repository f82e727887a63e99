package ide

// Stats is the optional instrumentation-counters collaborator (§1: "optional
// instrumentation counters/timers" is external to the core). Solve updates
// a caller-supplied implementation as it runs; the default is NoopStats,
// which discards every call.
//
// Grounded in the original phasar IDESolver's own propagationCount/summary-
// reuse counters (original_source/src/analysis/ifds_ide/solver/IDESolver.h),
// exposed here as a pluggable interface instead of hard-wired fields so a
// client can route them into whatever metrics system it already has.
type Stats interface {
	// PropagationCount is incremented once per call to propagate,
	// regardless of whether it strengthens the jump function.
	PropagationCount()
	// SummaryReuseCount is incremented once per snapshot entry read back
	// out of the EndSummaryTable in processCall (§4.1.2(b)) — a summary
	// computed once and reused at another call site.
	SummaryReuseCount()
	// UnbalancedReturnCount is incremented once per unbalanced return
	// propagated in processExit's step 3.
	UnbalancedReturnCount()
}

// NoopStats discards every counter update. It is the Solver's default when
// New is given a nil stats argument.
type NoopStats struct{}

func (NoopStats) PropagationCount()      {}
func (NoopStats) SummaryReuseCount()     {}
func (NoopStats) UnbalancedReturnCount() {}

// CountingStats is a ready-to-use Stats implementation that just tallies
// the three counters, for callers that want numbers without wiring their
// own metrics backend.
type CountingStats struct {
	Propagations     int
	SummaryReuses    int
	UnbalancedReturns int
}

func (s *CountingStats) PropagationCount()      { s.Propagations++ }
func (s *CountingStats) SummaryReuseCount()     { s.SummaryReuses++ }
func (s *CountingStats) UnbalancedReturnCount() { s.UnbalancedReturns++ }
