// Package cache provides a concrete, LRU-backed ide.FlowEdgeFunctionCache.
//
// The core solver only requires a Hasher[T] for N, D, and M; this
// implementation additionally requires them to be comparable, since
// hashicorp/golang-lru keys its cache on a plain map internally.
package cache

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/cs-au-dk/ide-solver/ide"
)

// Config controls the per-kind LRU capacities. Zero means "use the default".
type Config struct {
	FlowSize int
	EdgeSize int
}

// DefaultConfig allows ten thousand entries per table; small enough to
// bound memory, large enough that a typical analysis run doesn't thrash.
func DefaultConfig() Config {
	return Config{FlowSize: 10000, EdgeSize: 10000}
}

// Cache is a FlowEdgeFunctionCache backed by ten independent LRUs, one per
// query shape, matching phasar's FlowEdgeFunctionCache having a distinct
// cache table per flow/edge function kind rather than one shared map.
type Cache[N, D, M comparable, V any] struct {
	normalFlow    *lru.Cache
	callFlow      *lru.Cache
	returnFlow    *lru.Cache
	callToRetFlow *lru.Cache
	summaryFlow   *lru.Cache
	normalEdge    *lru.Cache
	callEdge      *lru.Cache
	returnEdge    *lru.Cache
	callToRetEdge *lru.Cache
	summaryEdge   *lru.Cache
}

var _ ide.FlowEdgeFunctionCache[int, int, int, int] = (*Cache[int, int, int, int])(nil)

// New constructs a Cache with the given capacities. Panics on an invalid
// (negative) size, mirroring lru.New's own contract.
func New[N, D, M comparable, V any](cfg Config) *Cache[N, D, M, V] {
	def := DefaultConfig()
	if cfg.FlowSize == 0 {
		cfg.FlowSize = def.FlowSize
	}
	if cfg.EdgeSize == 0 {
		cfg.EdgeSize = def.EdgeSize
	}

	mustNew := func(size int) *lru.Cache {
		c, err := lru.New(size)
		if err != nil {
			panic(err)
		}
		return c
	}

	return &Cache[N, D, M, V]{
		normalFlow:    mustNew(cfg.FlowSize),
		callFlow:      mustNew(cfg.FlowSize),
		returnFlow:    mustNew(cfg.FlowSize),
		callToRetFlow: mustNew(cfg.FlowSize),
		summaryFlow:   mustNew(cfg.FlowSize),
		normalEdge:    mustNew(cfg.EdgeSize),
		callEdge:      mustNew(cfg.EdgeSize),
		returnEdge:    mustNew(cfg.EdgeSize),
		callToRetEdge: mustNew(cfg.EdgeSize),
		summaryEdge:   mustNew(cfg.EdgeSize),
	}
}

func getOrCompute[K any, T any](c *lru.Cache, key K, get func() T) T {
	if v, ok := c.Get(key); ok {
		return v.(T)
	}
	v := get()
	c.Add(key, v)
	return v
}

func (c *Cache[N, D, M, V]) NormalFlow(curr, succ N, get func() ide.FlowFunction[D]) ide.FlowFunction[D] {
	type key struct{ curr, succ N }
	return getOrCompute(c.normalFlow, key{curr, succ}, get)
}

func (c *Cache[N, D, M, V]) CallFlow(callSite N, callee M, get func() ide.FlowFunction[D]) ide.FlowFunction[D] {
	type key struct {
		callSite N
		callee   M
	}
	return getOrCompute(c.callFlow, key{callSite, callee}, get)
}

func (c *Cache[N, D, M, V]) ReturnFlow(callSite N, callee M, exitStmt, returnSite N, get func() ide.FlowFunction[D]) ide.FlowFunction[D] {
	type key struct {
		callSite, exitStmt, returnSite N
		callee                         M
	}
	return getOrCompute(c.returnFlow, key{callSite, exitStmt, returnSite, callee}, get)
}

func (c *Cache[N, D, M, V]) CallToReturnFlow(callSite, returnSite N, get func() ide.FlowFunction[D]) ide.FlowFunction[D] {
	type key struct{ callSite, returnSite N }
	return getOrCompute(c.callToRetFlow, key{callSite, returnSite}, get)
}

func (c *Cache[N, D, M, V]) SummaryFlow(callSite N, callee M, get func() ide.FlowFunction[D]) ide.FlowFunction[D] {
	type key struct {
		callSite N
		callee   M
	}
	return getOrCompute(c.summaryFlow, key{callSite, callee}, get)
}

func (c *Cache[N, D, M, V]) NormalEdge(curr N, currVal D, succ N, succVal D, get func() ide.EdgeFunction[V]) ide.EdgeFunction[V] {
	type key struct {
		curr, succ       N
		currVal, succVal D
	}
	return getOrCompute(c.normalEdge, key{curr, succ, currVal, succVal}, get)
}

func (c *Cache[N, D, M, V]) CallEdge(callSite N, srcVal D, callee M, destVal D, get func() ide.EdgeFunction[V]) ide.EdgeFunction[V] {
	type key struct {
		callSite         N
		srcVal, destVal  D
		callee           M
	}
	return getOrCompute(c.callEdge, key{callSite, srcVal, destVal, callee}, get)
}

func (c *Cache[N, D, M, V]) ReturnEdge(callSite N, callee M, exitStmt N, exitVal D, returnSite N, retVal D, get func() ide.EdgeFunction[V]) ide.EdgeFunction[V] {
	type key struct {
		callSite, exitStmt, returnSite N
		callee                         M
		exitVal, retVal                D
	}
	return getOrCompute(c.returnEdge, key{callSite, exitStmt, returnSite, callee, exitVal, retVal}, get)
}

func (c *Cache[N, D, M, V]) CallToReturnEdge(callSite N, srcVal D, returnSite N, destVal D, get func() ide.EdgeFunction[V]) ide.EdgeFunction[V] {
	type key struct {
		callSite, returnSite N
		srcVal, destVal      D
	}
	return getOrCompute(c.callToRetEdge, key{callSite, returnSite, srcVal, destVal}, get)
}

func (c *Cache[N, D, M, V]) SummaryEdge(callSite N, srcVal D, returnSite N, destVal D, get func() ide.EdgeFunction[V]) ide.EdgeFunction[V] {
	type key struct {
		callSite, returnSite N
		srcVal, destVal      D
	}
	return getOrCompute(c.summaryEdge, key{callSite, returnSite, srcVal, destVal}, get)
}

// Stats reports the current entry counts of each underlying LRU, useful for
// tuning Config against a real workload.
type Stats struct {
	NormalFlow, CallFlow, ReturnFlow, CallToReturnFlow, SummaryFlow int
	NormalEdge, CallEdge, ReturnEdge, CallToReturnEdge, SummaryEdge int
}

func (c *Cache[N, D, M, V]) Stats() Stats {
	return Stats{
		NormalFlow:       c.normalFlow.Len(),
		CallFlow:         c.callFlow.Len(),
		ReturnFlow:       c.returnFlow.Len(),
		CallToReturnFlow: c.callToRetFlow.Len(),
		SummaryFlow:      c.summaryFlow.Len(),
		NormalEdge:       c.normalEdge.Len(),
		CallEdge:         c.callEdge.Len(),
		ReturnEdge:       c.returnEdge.Len(),
		CallToReturnEdge: c.callToRetEdge.Len(),
		SummaryEdge:      c.summaryEdge.Len(),
	}
}

