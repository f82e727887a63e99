package ide

// computeValues is phase II: seed every initial seed and unbalanced return
// site at bottom, flood those values outward along the exact flow/edge
// steps phase I already discovered the shape of (II(i)), then, for every
// node that is neither a call site nor a method start but still received
// jump functions, join in the value composed along each of those jump
// functions from its owning start point (II(ii) — the case phase I's own
// worklist never directly visits, since jump functions are symbolic and
// only path edges, not value-bearing nodes, drive the phase I worklist).
func (s *Solver[N, D, M, V, I]) computeValues() {
	bottom := s.problem.BottomElement()

	seed := func(n N, d D) {
		if _, ok := s.valueTable.GetOk(n, d); ok {
			return
		}
		s.valueTable.Set(n, d, bottom)
		s.valuePropagationTask(n, d)
	}

	for _, sd := range s.problem.InitialSeeds() {
		for _, d := range sd.Facts {
			seed(sd.StartNode, d)
		}
	}

	zero := s.problem.ZeroFact()
	for _, r := range s.unbalancedReturnSites.Slice() {
		seed(r, zero)
	}

	s.jumpFn.ForEachTarget(func(n N) {
		if s.icfg.IsCallStmt(n) || s.icfg.IsStartPoint(n) {
			return
		}

		starts := s.icfg.StartPointsOf(s.icfg.MethodOf(n))
		s.jumpFn.ForEachAtTarget(n, func(dPrime, d D, fPrime EdgeFunction[V]) {
			// Per spec §4.2/II(ii) and the original's valueComputationTask:
			// join each start's contribution in separately after applying
			// fPrime, not the inputs before applying it — fPrime need not
			// be distributive over V's join.
			for _, sP := range starts {
				sv := s.valueTable.Get(sP, dPrime)
				s.propagateValue(n, d, fPrime.ComputeTarget(sv))
			}
		})
	})
}

// propagateValue joins v into val(n, d) and, if that strictly strengthens
// the stored value, re-runs valuePropagationTask to flood the change
// onward.
func (s *Solver[N, D, M, V, I]) propagateValue(n N, d D, v V) {
	cur := s.valueTable.Get(n, d)
	joined := s.problem.Join(cur, v)
	if s.problem.ValueEqual(joined, cur) {
		return
	}
	s.valueTable.Set(n, d, joined)
	s.valuePropagationTask(n, d)
}

// valuePropagationTask walks every outgoing step of (n, d) — the same
// normal/call/exit classification phase I's dispatch uses — applying each
// step's edge function to val(n, d) and joining the result into the
// destination's value.
func (s *Solver[N, D, M, V, I]) valuePropagationTask(n N, d D) {
	v := s.valueTable.Get(n, d)
	succs := s.icfg.SuccsOf(n)

	switch {
	case s.icfg.IsCallStmt(n):
		s.valuePropagateCall(n, d, v)
	case s.icfg.IsExitStmt(n):
		s.valuePropagateExit(n, d, v)
		if len(succs) > 0 {
			s.valuePropagateNormal(n, d, v, succs)
		}
	default:
		if len(succs) > 0 {
			s.valuePropagateNormal(n, d, v, succs)
		}
	}
}

func (s *Solver[N, D, M, V, I]) valuePropagateNormal(n N, d D, v V, succs []N) {
	for _, m := range succs {
		for _, d3 := range s.normalFlow(n, m).ComputeTargets(d) {
			g := s.normalEdge(n, d, m, d3)
			s.propagateValue(m, d3, g.ComputeTarget(v))
		}
	}
}

func (s *Solver[N, D, M, V, I]) valuePropagateCall(n N, d D, v V) {
	returnSites := s.icfg.ReturnSitesOfCallAt(n)

	for _, q := range s.icfg.CalleesOfCallAt(n) {
		sf := s.summaryFlow(n, q)
		var summaryTargets []D
		if sf != nil {
			summaryTargets = sf.ComputeTargets(d)
		}

		if len(summaryTargets) > 0 {
			for _, r := range returnSites {
				for _, d3 := range summaryTargets {
					g := s.summaryEdge(n, d, r, d3)
					s.propagateValue(r, d3, g.ComputeTarget(v))
				}
			}
			continue
		}

		for _, d3 := range s.callFlow(n, q).ComputeTargets(d) {
			g := s.callEdge(n, d, q, d3)
			for _, sP := range s.icfg.StartPointsOf(q) {
				s.propagateValue(sP, d3, g.ComputeTarget(v))
			}
		}
	}

	for _, r := range returnSites {
		for _, d3 := range s.callToRetFlow(n, r).ComputeTargets(d) {
			g := s.callToRetEdge(n, d, r, d3)
			s.propagateValue(r, d3, g.ComputeTarget(v))
		}
	}
}

func (s *Solver[N, D, M, V, I]) valuePropagateExit(n N, d D, v V) {
	p := s.icfg.MethodOf(n)
	for _, c := range s.icfg.CallersOf(p) {
		for _, r := range s.icfg.ReturnSitesOfCallAt(c) {
			for _, d5 := range s.returnFlow(c, p, n, r).ComputeTargets(d) {
				g := s.returnEdge(c, p, n, d, r, d5)
				s.propagateValue(r, d5, g.ComputeTarget(v))
			}
		}
	}
}
