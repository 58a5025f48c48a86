package network

import (
	"transitsim/internal/graph"
	"transitsim/internal/itinerary"
)

// BuildNetwork allocates one Stop per graph node and seeds every
// stop's arrival schedule from the full (bounded) dispatch queue of
// each itinerary that serves it. The simulation has no stochastic
// travel time, so dispatch_time + cumulative offset is the exact
// arrival minute for the lifetime of the run; seeding it once at
// construction avoids recomputing it every tick.
func BuildNetwork(g *graph.Graph, templates []*itinerary.Template, dispatchers []*itinerary.Dispatcher) *Network {
	net := NewNetwork(g.NumNodes())
	for _, n := range g.Nodes() {
		net.Stops[n.ID] = NewStop(n.ID, n.Name)
	}
	for itinIdx, t := range templates {
		d := dispatchers[itinIdx]
		times := d.AllTimes()
		for seqIdx, node := range t.Nodes {
			stop := net.Stops[node]
			offset := t.Offsets[seqIdx]
			for _, dispatchTime := range times {
				stop.AddArrival(itinIdx, seqIdx, dispatchTime+offset)
			}
		}
	}
	for _, s := range net.Stops {
		s.SortArrivals()
	}
	return net
}
