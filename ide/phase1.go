package ide

import (
	"github.com/sirupsen/logrus"

	"github.com/cs-au-dk/ide-solver/utils/tree"
)

// runWorklist drains the phase I worklist until fixpoint, dispatching each
// path edge to the matching sub-protocol.
func (s *Solver[N, D, M, V, I]) runWorklist() {
	for !s.wl.IsEmpty() {
		item := s.wl.GetNext()
		s.dispatch(item.edge, item.fn)
	}
}

// enqueue schedules a (re)strengthened path edge according to the
// configured drain order.
func (s *Solver[N, D, M, V, I]) enqueue(item pathEdgeItem[N, D, V]) {
	if s.config.Worklist == LIFO {
		s.wl.Push(item)
	} else {
		s.wl.Add(item)
	}
}

// dispatch classifies the edge's target node and runs the matching handler.
// An exit node that also has successors (a method with unreachable code
// past its return, or a single-statement body that is both entry and exit)
// runs both processExit and processNormalFlow.
func (s *Solver[N, D, M, V, I]) dispatch(edge PathEdge[N, D], f EdgeFunction[V]) {
	n := edge.Target
	succs := s.icfg.SuccsOf(n)

	switch {
	case s.icfg.IsCallStmt(n):
		s.processCall(edge, f)
	case s.icfg.IsExitStmt(n):
		s.processExit(edge, f)
		if len(succs) > 0 {
			s.processNormalFlow(edge, f, succs)
		}
	default:
		if len(succs) > 0 {
			s.processNormalFlow(edge, f, succs)
		}
	}
}

// propagate is phase I's monotone update primitive (§4.1.4 in the design
// notes): it joins f into whatever edge function is already stored for
// (sourceVal, target, targetVal), and only stores and (re)schedules the
// path edge if that join is a genuine strengthening.
func (s *Solver[N, D, M, V, I]) propagate(sourceVal D, target N, targetVal D, f EdgeFunction[V]) {
	s.stats.PropagationCount()

	jumpFnE, ok := s.jumpFn.Lookup(sourceVal, target, targetVal)
	if !ok {
		jumpFnE = s.alg.AllTop()
	}

	fPrime := jumpFnE.JoinWith(f)
	if fPrime.Equal(jumpFnE) {
		return
	}

	s.jumpFn.Set(sourceVal, target, targetVal, fPrime)
	s.enqueue(pathEdgeItem[N, D, V]{
		edge: PathEdge[N, D]{SourceVal: sourceVal, Target: target, TargetVal: targetVal},
		fn:   fPrime,
	})
}

// processNormalFlow handles an intraprocedural step n -> m for every
// successor m of the (non-call, non-exit, or exit-with-fallthrough) node n.
func (s *Solver[N, D, M, V, I]) processNormalFlow(edge PathEdge[N, D], f EdgeFunction[V], succs []N) {
	n := edge.Target
	d1, d2 := edge.SourceVal, edge.TargetVal

	for _, m := range succs {
		for _, d3 := range s.normalFlow(n, m).ComputeTargets(d2) {
			g := s.normalEdge(n, d2, m, d3)
			if s.recorder != nil {
				s.recorder.Intra.record(n, m, d2, d3)
			}
			s.propagate(d1, m, d3, f.ComposeWith(g))
		}
	}
}

// processCall handles a call node: for every callee, either the special-
// summary short-circuit (a) or the standard callee-expansion (b), plus the
// call-to-return flow (c), which runs unconditionally.
func (s *Solver[N, D, M, V, I]) processCall(edge PathEdge[N, D], f EdgeFunction[V]) {
	n := edge.Target
	d1, d2 := edge.SourceVal, edge.TargetVal
	returnSites := s.icfg.ReturnSitesOfCallAt(n)

	for _, q := range s.icfg.CalleesOfCallAt(n) {
		sf := s.summaryFlow(n, q)
		var summaryTargets []D
		if sf != nil {
			summaryTargets = sf.ComputeTargets(d2)
		}

		if len(summaryTargets) > 0 {
			// (a) special-summary short-circuit: treat the call like a
			// normal flow step and never enter the callee.
			for _, r := range returnSites {
				for _, d3 := range summaryTargets {
					g := s.summaryEdge(n, d2, r, d3)
					if s.recorder != nil {
						s.recorder.Intra.record(n, r, d2, d3)
					}
					s.propagate(d1, r, d3, f.ComposeWith(g))
				}
			}
			continue
		}

		// (b) standard expansion.
		s.processCallStandardExpansion(n, d1, d2, f, q, returnSites)
	}

	// (c) call-to-return flow: always runs, independent of (a)/(b) and of
	// whether any callee was resolved at all.
	for _, r := range returnSites {
		for _, d3 := range s.callToRetFlow(n, r).ComputeTargets(d2) {
			g := s.callToRetEdge(n, d2, r, d3)
			if s.recorder != nil {
				s.recorder.Intra.record(n, r, d2, d3)
			}
			s.propagate(d1, r, d3, f.ComposeWith(g))
		}
	}
}

// processCallStandardExpansion is §4.1.2(b): register the callee's
// self-loop, record the incoming edge, and retroactively apply every
// end-summary already computed for the callee's (start, entry fact) pair,
// then keep doing so for every future one via processExit's own patching.
func (s *Solver[N, D, M, V, I]) processCallStandardExpansion(n N, d1, d2 D, f EdgeFunction[V], q M, returnSites []N) {
	starts := s.icfg.StartPointsOf(q)
	if len(starts) == 0 {
		log.WithField("method", s.problem.MethodToString(q)).
			Debug("ide: callee has no start points, call site left unexpanded")
		return
	}

	if s.recorder != nil {
		s.recorder.clusters.observeCall(s.icfg.MethodOf(n), q)
	}

	id := s.alg.Identity()
	for _, sP := range starts {
		for _, d3 := range s.callFlow(n, q).ComputeTargets(d2) {
			s.propagate(d3, sP, d3, id)
			// Per §3's invariant, the zero fact is never stored explicitly
			// in the incoming table when AutoAddZero is on: it already
			// flows to every start point via that mechanism, so it needs
			// no incoming-edge bookkeeping of its own.
			if !(s.config.AutoAddZero && s.problem.IsZeroFact(d3)) {
				s.incoming.Add(sP, d3, n, d2)
			}

			snapshot := s.endSummary.Snapshot(sP, d3)
			snapshot.ForEach(func(_ uint64, entry EndSummaryEntry[N, D, V]) {
				s.stats.SummaryReuseCount()
				log.WithField("method", s.problem.MethodToString(q)).
					Debug("ide: reusing end summary computed for an earlier call site")
				eP, d4, fSummary := entry.ExitNode, entry.ExitFact, entry.Fn

				for _, r := range returnSites {
					for _, d5 := range s.returnFlow(n, q, eP, r).ComputeTargets(d4) {
						f4 := s.callEdge(n, d2, q, d3)
						f5 := s.returnEdge(n, q, eP, d4, r, d5)
						fPrime := f4.ComposeWith(fSummary).ComposeWith(f5)

						d5Prime := s.restorer.RestoreContext(n, d2, d5)
						if s.recorder != nil {
							s.recorder.Inter.record(n, r, d2, d5Prime)
						}
						if s.persisted != nil {
							s.persisted.join(s.alg, n, r, fPrime)
						}
						s.propagate(d1, r, d5Prime, f.ComposeWith(fPrime))
					}
				}
			})
		}
	}
}

// processExit handles an exit node: record its end-summary entry, replay it
// against every caller recorded so far (§4.1.3 step 2), and, if the method
// was entered with only the zero fact and has no real callers, optionally
// propagate past the method boundary as an unbalanced return (step 3).
func (s *Solver[N, D, M, V, I]) processExit(edge PathEdge[N, D], f EdgeFunction[V]) {
	n := edge.Target
	d1, d2 := edge.SourceVal, edge.TargetVal
	p := s.icfg.MethodOf(n)

	for _, sP := range s.icfg.StartPointsOf(p) {
		// Same invariant as processCallStandardExpansion's incoming.Add:
		// the zero fact is never stored explicitly in the end-summary
		// table when AutoAddZero is on.
		if !(s.config.AutoAddZero && s.problem.IsZeroFact(d1)) {
			s.endSummary.Add(sP, d1, n, d2, f)
		}

		inc := s.incoming.Snapshot(sP, d1)
		inc.ForEach(func(c N, callerFacts tree.Tree[D, struct{}]) {
			returnSites := s.icfg.ReturnSitesOfCallAt(c)
			callerFacts.ForEach(func(d4 D, _ struct{}) {
				for _, r := range returnSites {
					for _, d5 := range s.returnFlow(c, p, n, r).ComputeTargets(d2) {
						f4 := s.callEdge(c, d4, p, d1)
						f5 := s.returnEdge(c, p, n, d2, r, d5)
						fPrime := f4.ComposeWith(f).ComposeWith(f5)

						for _, rev := range s.jumpFn.Reverse(c, d4) {
							d3, f3 := rev.Fact, rev.Fn
							d5Prime := s.restorer.RestoreContext(c, d4, d5)
							if s.recorder != nil {
								s.recorder.Inter.record(c, r, d4, d5Prime)
							}
							if s.persisted != nil {
								s.persisted.join(s.alg, c, r, fPrime)
							}
							s.propagate(d3, r, d5Prime, f3.ComposeWith(fPrime))
						}
					}
				}
			})
		})

		if s.config.FollowReturnsPastSeeds && inc.Size() == 0 && s.problem.IsZeroFact(d1) {
			s.processUnbalancedReturn(p, n, d2, f)
		}
	}
}

// processUnbalancedReturn is §4.1.3 step 3: a method entered only via the
// zero fact, with no recorded callers, still has its exit's effect
// propagated past every statically-known call site of the method so a
// client analysis that starts partway through a call graph doesn't lose
// flow across that boundary. If the method genuinely has no callers at
// all (it's a true program entry point, or call-graph construction missed
// every caller), retFlow is still invoked once with a zero-valued sentinel
// node so a client relying on the side effect of that call still sees it.
func (s *Solver[N, D, M, V, I]) processUnbalancedReturn(p M, exitNode N, exitVal D, f EdgeFunction[V]) {
	zero := s.problem.ZeroFact()
	callers := s.icfg.CallersOf(p)

	if len(callers) == 0 {
		log.WithField("method", s.problem.MethodToString(p)).
			Debug("ide: unbalanced return past a method with no known callers")
		var sentinel N
		s.returnFlow(sentinel, p, exitNode, sentinel).ComputeTargets(exitVal)
		return
	}

	for _, c := range callers {
		for _, r := range s.icfg.ReturnSitesOfCallAt(c) {
			for _, d5 := range s.returnFlow(c, p, exitNode, r).ComputeTargets(exitVal) {
				g := s.returnEdge(c, p, exitNode, exitVal, r, d5)

				s.unbalancedReturnSites.Add(r)
				s.stats.UnbalancedReturnCount()
				log.WithFields(logrus.Fields{"method": s.problem.MethodToString(p), "return_site": s.problem.NodeToString(r)}).
					Debug("ide: propagating past an unbalanced return")
				if s.recorder != nil {
					s.recorder.Inter.record(c, r, zero, d5)
				}
				s.propagate(zero, r, d5, f.ComposeWith(g))
			}
		}
	}
}
