package ide

// ResultAt returns val(n, d) and true, or the zero V and false if no
// explicit (non-top) value was ever stored — either because phase II never
// ran, or because (n, d) is genuinely unreachable.
func (s *Solver[N, D, M, V, I]) ResultAt(n N, d D) (V, bool) {
	return s.valueTable.GetOk(n, d)
}

// FactValue is one (fact, value) pair returned by ResultsAt. D is not
// required to satisfy Go's built-in comparable, so results can't be handed
// back as a map[D]V.
type FactValue[D, V any] struct {
	Fact  D
	Value V
}

// ResultsAt returns every fact with an explicit value at n. stripZero omits
// the zero fact's entry, which is usually not meaningful to a client
// reading out per-fact values.
func (s *Solver[N, D, M, V, I]) ResultsAt(n N, stripZero bool) []FactValue[D, V] {
	var res []FactValue[D, V]
	s.valueTable.ForEach(func(vn N, d D, v V) {
		if !s.nodeHasher.Equal(vn, n) {
			return
		}
		if stripZero && s.problem.IsZeroFact(d) {
			return
		}
		res = append(res, FactValue[D, V]{Fact: d, Value: v})
	})
	return res
}
