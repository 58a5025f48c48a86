// Package router implements the time-dependent earliest-arrival search
// (§4.6): Dijkstra over a (node, time) product state, relaxed via
// "board the next service of itinerary S, alight at downstream node
// n_k". Results are cached per origin in the owning network.Stop and
// only recomputed when that stop's cache is marked dirty.
package router

import (
	"container/heap"

	"transitsim/internal/graph"
	"transitsim/internal/itinerary"
	"transitsim/internal/network"
)

// Router holds the static per-node service index: which (itinerary,
// sequence position) pairs stop at each node. Built once from the
// configured itineraries and reused for every search.
type Router struct {
	templates []*itinerary.Template
	servesAt  [][]network.ServiceKey // indexed by node id
}

// New builds the per-node service index for templates.
func New(numNodes int, templates []*itinerary.Template) *Router {
	r := &Router{
		templates: templates,
		servesAt:  make([][]network.ServiceKey, numNodes),
	}
	for itinIdx, t := range templates {
		for seqIdx, node := range t.Nodes {
			// The terminal occurrence of a loop itinerary has no
			// downstream stops and never relaxes anything; keeping it
			// in the index is harmless since search skips it.
			r.servesAt[node] = append(r.servesAt[node], network.ServiceKey{ItinIdx: itinIdx, SeqIdx: seqIdx})
		}
	}
	return r
}

// frontierItem is one entry of the Dijkstra priority queue.
type frontierItem struct {
	node  graph.NodeID
	label int
	index int
}

type frontier []*frontierItem

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].label < f[j].label }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i]; f[i].index = i; f[j].index = j }
func (f *frontier) Push(x interface{}) {
	it := x.(*frontierItem)
	it.index = len(*f)
	*f = append(*f, it)
}
func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return it
}

// Route returns the earliest-arrival labels and boarding plans from
// origin for a passenger departing at minute t0, resetting and
// recomputing the origin stop's cache first if it is dirty (§4.6).
// Unreachable destinations are simply absent from the returned maps.
func (r *Router) Route(net *network.Network, origin graph.NodeID, t0 int) (map[graph.NodeID]int, map[graph.NodeID]network.Plan) {
	stop := net.Stops[origin]
	cache := stop.Cache
	if cache.Dirty {
		cache.Reset()
		r.search(net, origin, t0, cache)
	}
	return cache.Labels, cache.Plans
}

// search runs one full Dijkstra pass rooted at (origin, t0), writing
// settled labels and plans into cache.
func (r *Router) search(net *network.Network, origin graph.NodeID, t0 int, cache *network.RouteCache) {
	cache.Labels[origin] = t0
	cache.Plans[origin] = network.Plan{}

	fr := &frontier{}
	heap.Init(fr)
	heap.Push(fr, &frontierItem{node: origin, label: t0})

	for fr.Len() > 0 {
		cur := heap.Pop(fr).(*frontierItem)
		u := cur.node
		tau := cur.label
		if cache.Settled[u] {
			continue
		}
		if lbl, ok := cache.Labels[u]; ok && lbl < tau {
			continue // stale entry, a better label already settled
		}
		cache.Settled[u] = true

		for _, sk := range r.servesAt[u] {
			t := r.templates[sk.ItinIdx]
			down := t.StopsAfter(sk.SeqIdx)
			if len(down) == 0 {
				continue
			}
			arrivals := net.Stops[u].Arrivals[sk]
			if arrivals == nil {
				continue
			}
			tauBoard, ok := arrivals.EarliestAtOrAfter(tau)
			if !ok {
				continue
			}
			for _, downIdx := range down {
				v := t.NodeAt(downIdx)
				cand := tauBoard + t.InVehicleTime(sk.SeqIdx, downIdx)
				if existing, ok := cache.Labels[v]; ok && existing <= cand {
					continue
				}
				cache.Labels[v] = cand
				cache.Plans[v] = extendPlan(cache.Plans[u], sk.ItinIdx, v)
				if !cache.Settled[v] {
					heap.Push(fr, &frontierItem{node: v, label: cand})
				}
			}
		}
	}
}

// extendPlan appends a Board(itinIdx)/Alight(v) pair to a copy of
// base, used when relaxation finds a strictly better label.
func extendPlan(base network.Plan, itinIdx int, v graph.NodeID) network.Plan {
	toks := make([]network.PlanToken, len(base.Tokens), len(base.Tokens)+2)
	copy(toks, base.Tokens)
	toks = append(toks,
		network.PlanToken{Kind: network.TokenBoard, ItineraryIdx: itinIdx},
		network.PlanToken{Kind: network.TokenAlight, Node: v},
	)
	return network.Plan{Tokens: toks}
}
