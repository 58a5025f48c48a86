// Package itinerary implements the schedule template (§3, §4.3) and the
// dispatcher that turns {offset, headway, last-departure} into a sorted
// dispatch queue (§4.4).
package itinerary

import (
	"transitsim/internal/graph"
	"transitsim/internal/simerr"
)

// Template is an ordered sequence of nodes and edges with cumulative
// arrival offsets relative to dispatch. Its route fields (Nodes, Edges,
// Offsets) are not changed after construction (§3); HeadwayMinutes is
// rewritten by Dispatcher.SetHeadway.
type Template struct {
	Name         string
	Nodes        []graph.NodeID
	Edges        []graph.Edge // len(Nodes)-1
	Offsets      []int        // cumulative minutes from dispatch, Offsets[0] == 0
	VehicleClass string       // optional (§12); "" uses the eval table's scalar Vehicle Cost, else looked up in evaluator.Costs.VehicleCostPerHourByClass

	FirstOffset    int // first dispatch minute
	HeadwayMinutes int // minutes between dispatches (may be overridden by headway optimiser)
	LastDeparture  int // last allowed dispatch minute
}

// Build constructs a Template from an ordered node-name sequence, using
// g to resolve node names and edge travel times. Fails with
// ConfigError if any edge is missing from g, or the resulting
// itinerary has fewer than two nodes (zero-length itinerary).
func Build(name string, nodeNames []string, firstOffset, headway, lastDeparture int, g *graph.Graph, vehicleClass string) (*Template, error) {
	if len(nodeNames) < 2 {
		return nil, simerr.NewConfigError(simerr.KindZeroLengthItin, "itinerary %q has fewer than 2 stops", name)
	}
	nodes := make([]graph.NodeID, len(nodeNames))
	for i, nm := range nodeNames {
		id, err := g.NodeByName(nm)
		if err != nil {
			return nil, err
		}
		nodes[i] = id
	}
	edges := make([]graph.Edge, 0, len(nodes)-1)
	offsets := make([]int, len(nodes))
	offsets[0] = 0
	for i := 0; i+1 < len(nodes); i++ {
		e, ok := g.EdgeBetween(nodes[i], nodes[i+1])
		if !ok {
			return nil, simerr.NewConfigError(simerr.KindUnknownNode, "itinerary %q: no edge from %s to %s", name, nodeNames[i], nodeNames[i+1])
		}
		edges = append(edges, e)
		offsets[i+1] = offsets[i] + e.TravelTime
	}
	return &Template{
		Name: name, Nodes: nodes, Edges: edges, Offsets: offsets,
		VehicleClass:   vehicleClass,
		FirstOffset:    firstOffset,
		HeadwayMinutes: headway,
		LastDeparture:  lastDeparture,
	}, nil
}

// BuildFromSegments assembles a complex-schedule itinerary by
// concatenating named segments. segmentNodeLists[i] is the node-name
// sequence of the i-th segment; consecutive segments must share a
// junction node (segment i's last node == segment i+1's first node),
// else this is a fatal ConfigError naming the offending pair (§6, §7).
func BuildFromSegments(name string, segmentNodeLists [][]string, firstOffset, headway, lastDeparture int, g *graph.Graph, vehicleClass string) (*Template, error) {
	if len(segmentNodeLists) == 0 {
		return nil, simerr.NewConfigError(simerr.KindZeroLengthItin, "itinerary %q has no schedule segments", name)
	}
	combined := append([]string(nil), segmentNodeLists[0]...)
	for i := 1; i < len(segmentNodeLists); i++ {
		prevLast := combined[len(combined)-1]
		seg := segmentNodeLists[i]
		if len(seg) == 0 {
			return nil, simerr.NewConfigError(simerr.KindBadSegmentChain, "itinerary %q: segment %d is empty", name, i)
		}
		if seg[0] != prevLast {
			return nil, simerr.NewConfigError(simerr.KindBadSegmentChain, "itinerary %q: segment %d starts at %q, previous segment ended at %q", name, i, seg[0], prevLast)
		}
		combined = append(combined, seg[1:]...)
	}
	return Build(name, combined, firstOffset, headway, lastDeparture, g, vehicleClass)
}

// FirstNode and LastNode are convenience accessors.
func (t *Template) FirstNode() graph.NodeID { return t.Nodes[0] }
func (t *Template) LastNode() graph.NodeID  { return t.Nodes[len(t.Nodes)-1] }

// NumStops returns the number of stops served by the itinerary.
func (t *Template) NumStops() int { return len(t.Nodes) }

// TripDurationMinutes returns the end-to-end travel time.
func (t *Template) TripDurationMinutes() int { return t.Offsets[len(t.Offsets)-1] }

// NodeAt returns the node visited at sequence index idx.
func (t *Template) NodeAt(idx int) graph.NodeID { return t.Nodes[idx] }

// StopsAfter returns the sequence indices downstream of idx (exclusive),
// used by the router to enumerate "itinerary S, downstream stop n_k".
func (t *Template) StopsAfter(idx int) []int {
	out := make([]int, 0, len(t.Nodes)-idx-1)
	for i := idx + 1; i < len(t.Nodes); i++ {
		out = append(out, i)
	}
	return out
}

// InVehicleTime returns the in-vehicle travel time from sequence index
// fromIdx to toIdx (toIdx > fromIdx), i.e. Δ_k in spec §4.6.
func (t *Template) InVehicleTime(fromIdx, toIdx int) int {
	return t.Offsets[toIdx] - t.Offsets[fromIdx]
}

// IndexOf returns the first sequence index at which node appears, or -1.
// A loop itinerary revisits its origin at its terminus; IndexOf always
// returns the earliest occurrence.
func (t *Template) IndexOf(node graph.NodeID) int {
	for i, n := range t.Nodes {
		if n == node {
			return i
		}
	}
	return -1
}
