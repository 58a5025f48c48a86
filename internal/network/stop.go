// Package network holds the per-node runtime state mutated by the
// simulation core: waiting passenger groups, each serving itinerary's
// upcoming arrival times, and the per-origin route cache (§3, §4.6).
// Nothing in this package runs the tick loop or the router search —
// those live in engine and router respectively — this package only
// owns the data those algorithms read and mutate.
package network

import (
	"sort"

	"transitsim/internal/graph"
)

// TokenKind distinguishes the two halves of a consumable plan token, a
// tagged sum rather than string comparisons on the hot path (§9 design
// note "Plan as a consumable sequence of tokens").
type TokenKind int

const (
	TokenBoard TokenKind = iota
	TokenAlight
)

// PlanToken is one step of a passenger group's remaining route: either
// "board this itinerary" or "alight at this node".
type PlanToken struct {
	Kind         TokenKind
	ItineraryIdx int // valid when Kind == TokenBoard
	Node         graph.NodeID // valid when Kind == TokenAlight
}

// Plan is a consumable, alternating Board/Alight token sequence with a
// cursor, per §3 and §9.
type Plan struct {
	Tokens []PlanToken
	Cursor int
}

// Next returns the next unconsumed token, if any.
func (p *Plan) Next() (PlanToken, bool) {
	if p.Cursor >= len(p.Tokens) {
		return PlanToken{}, false
	}
	return p.Tokens[p.Cursor], true
}

// Advance consumes one token.
func (p *Plan) Advance() { p.Cursor++ }

// Done reports whether every token has been consumed.
func (p *Plan) Done() bool { return p.Cursor >= len(p.Tokens) }

// Clone returns an independent copy with its own copy of the tokens
// and its own cursor; used when a group splits on boarding (§4.7
// step 7) so the splinter inherits a copy of the origin plan.
func (p Plan) Clone() Plan {
	toks := make([]PlanToken, len(p.Tokens))
	copy(toks, p.Tokens)
	return Plan{Tokens: toks, Cursor: p.Cursor}
}

// Group is a bundle of identical-itinerary passengers treated as one
// scheduling unit (§3).
type Group struct {
	Origin, Destination graph.NodeID
	Created             int
	Count               int
	Plan                Plan
}

// RouteCache is the per-origin Dijkstra frontier: tentative earliest
// arrival labels and back-pointer plans, persisted across ticks and
// reset lazily when Dirty (§4.6, §9).
type RouteCache struct {
	Labels  map[graph.NodeID]int
	Plans   map[graph.NodeID]Plan
	Settled map[graph.NodeID]bool
	Dirty   bool
}

// NewRouteCache returns a cache starting in the dirty state, so the
// first routing call performs a full search.
func NewRouteCache() *RouteCache {
	return &RouteCache{
		Labels:  make(map[graph.NodeID]int),
		Plans:   make(map[graph.NodeID]Plan),
		Settled: make(map[graph.NodeID]bool),
		Dirty:   true,
	}
}

// Reset clears the cache for a fresh search and clears the dirty flag.
// Called lazily by the router on the next query after a stop goes
// dirty (§4.6: "the dirty flag causes a full reset of the cached
// search on the stop's next routing call").
func (c *RouteCache) Reset() {
	for k := range c.Labels {
		delete(c.Labels, k)
	}
	for k := range c.Plans {
		delete(c.Plans, k)
	}
	for k := range c.Settled {
		delete(c.Settled, k)
	}
	c.Dirty = false
}

// ItinArrivals is a sorted list of absolute vehicle-arrival minutes at
// one stop for one itinerary occurrence, i.e. one ServiceKey (§3 "upcoming arrivals... as absolute
// times"). Built once from the itinerary's full dispatch schedule (the
// simulation has no stochastic travel time, so dispatch_time + offset
// is exact), and trimmed as the clock advances.
type ItinArrivals struct {
	Times []int
}

// DropBefore removes all entries strictly before t (§4.7 step 3:
// "drop any dispatch arrivals < t"). Returns true if the head entry
// changed, which the caller uses to mark the stop dirty.
func (a *ItinArrivals) DropBefore(t int) bool {
	changed := false
	i := 0
	for i < len(a.Times) && a.Times[i] < t {
		i++
		changed = true
	}
	if i > 0 {
		a.Times = a.Times[i:]
	}
	return changed
}

// Head returns the earliest remaining arrival time.
func (a *ItinArrivals) Head() (int, bool) {
	if len(a.Times) == 0 {
		return 0, false
	}
	return a.Times[0], true
}

// EarliestAtOrAfter returns the earliest arrival >= tau without
// mutating the queue (the router probes arbitrary future instants
// while DropBefore only ever advances with the simulation clock).
func (a *ItinArrivals) EarliestAtOrAfter(tau int) (int, bool) {
	lo, hi := 0, len(a.Times)
	for lo < hi {
		mid := (lo + hi) / 2
		if a.Times[mid] < tau {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo >= len(a.Times) {
		return 0, false
	}
	return a.Times[lo], true
}

// ServiceKey identifies one (itinerary, sequence position) occurrence
// serving a stop. A loop itinerary visits its origin node at two
// distinct sequence positions with different downstream offsets, so
// arrivals are tracked per occurrence rather than merged per itinerary.
type ServiceKey struct {
	ItinIdx int
	SeqIdx  int
}

// Stop is one node's runtime state.
type Stop struct {
	Node     graph.NodeID
	Name     string
	Waiting  []*Group
	Arrivals map[ServiceKey]*ItinArrivals
	Cache    *RouteCache
}

// NewStop constructs an empty stop for node.
func NewStop(node graph.NodeID, name string) *Stop {
	return &Stop{
		Node:     node,
		Name:     name,
		Arrivals: make(map[ServiceKey]*ItinArrivals),
		Cache:    NewRouteCache(),
	}
}

// AddArrival records that itinerary itinIdx, at its seqIdx-th stop,
// serves this stop at absolute minute t; used at construction time to
// seed the full schedule of future arrivals.
func (s *Stop) AddArrival(itinIdx, seqIdx, t int) {
	key := ServiceKey{ItinIdx: itinIdx, SeqIdx: seqIdx}
	a, ok := s.Arrivals[key]
	if !ok {
		a = &ItinArrivals{}
		s.Arrivals[key] = a
	}
	a.Times = append(a.Times, t)
}

// SortArrivals sorts every itinerary's arrival list; call once after
// all AddArrival calls for construction.
func (s *Stop) SortArrivals() {
	for _, a := range s.Arrivals {
		sort.Ints(a.Times)
	}
}

// MarkDirty invalidates the stop's route cache.
func (s *Stop) MarkDirty() { s.Cache.Dirty = true }

// Network is the collection of all stops, indexed by node id.
type Network struct {
	Stops []*Stop
}

// NewNetwork allocates one nil stop slot for every node id in [0, n);
// BuildNetwork fills the slots.
func NewNetwork(n int) *Network {
	net := &Network{Stops: make([]*Stop, n)}
	return net
}
