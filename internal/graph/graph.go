// Package graph implements the immutable directed multigraph of stops
// and travel edges, and the all-pairs ideal (uncongested) shortest-path
// computation used to seed the gravity model and the time-dependent
// router's in-vehicle time lookups.
package graph

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"transitsim/internal/simerr"
)

// NodeID is the zero-based index of a node, equal to its position in
// the input node list.
type NodeID int64

// Node is a stop in the network: identity, geographic position, and
// daily passenger volume. Runtime state (waiting groups, route cache)
// lives in package network, not here — the graph is immutable after
// Build.
type Node struct {
	ID              NodeID
	Name            string
	Latitude        float64
	Longitude       float64
	DailyPassengers float64
}

// Edge is a directed, one-minute-granularity link between two stops.
type Edge struct {
	Name       string
	From, To   NodeID
	TravelTime int // minutes, positive
}

// NodeSpec and EdgeSpec are the inputs to Build, parsed from the nodes
// and edges configuration tables (§6). Bidirectional edge rows are
// expected to already be expanded into two EdgeSpec entries by the
// caller (internal/config) before Build is called.
type NodeSpec struct {
	Name            string
	Latitude        float64
	Longitude       float64
	DailyPassengers float64
}

type EdgeSpec struct {
	Start, End string
	TravelTime int
}

// Graph is the immutable directed multigraph. At most one edge may
// exist between a given ordered pair of nodes (duplicates are a fatal
// ConfigError at Build time — see DESIGN.md open-question decision).
type Graph struct {
	nodes    []Node
	nameToID map[string]NodeID
	edges    []Edge
	// neighbors[u] lists outgoing edges from u, in input order, as
	// returned by Neighbors.
	neighbors [][]Edge
	byPair    map[[2]NodeID]Edge

	wg *simple.WeightedDirectedGraph
}

// Build constructs a Graph from parsed node and edge rows.
func Build(nodeSpecs []NodeSpec, edgeSpecs []EdgeSpec) (*Graph, error) {
	g := &Graph{
		nameToID: make(map[string]NodeID, len(nodeSpecs)),
		byPair:   make(map[[2]NodeID]Edge),
	}
	g.nodes = make([]Node, len(nodeSpecs))
	for i, ns := range nodeSpecs {
		if _, dup := g.nameToID[ns.Name]; dup {
			return nil, simerr.NewConfigError(simerr.KindBadValue, "duplicate node name %q", ns.Name)
		}
		id := NodeID(i)
		g.nameToID[ns.Name] = id
		g.nodes[i] = Node{ID: id, Name: ns.Name, Latitude: ns.Latitude, Longitude: ns.Longitude, DailyPassengers: ns.DailyPassengers}
	}
	g.neighbors = make([][]Edge, len(g.nodes))

	g.wg = simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for i := range g.nodes {
		g.wg.AddNode(simple.Node(i))
	}

	for _, es := range edgeSpecs {
		fromID, ok := g.nameToID[es.Start]
		if !ok {
			return nil, simerr.NewConfigError(simerr.KindUnknownNode, "edge references unknown start node %q", es.Start)
		}
		toID, ok := g.nameToID[es.End]
		if !ok {
			return nil, simerr.NewConfigError(simerr.KindUnknownNode, "edge references unknown end node %q", es.End)
		}
		if es.TravelTime <= 0 {
			return nil, simerr.NewConfigError(simerr.KindBadValue, "edge %s to %s has non-positive travel time %d", es.Start, es.End, es.TravelTime)
		}
		key := [2]NodeID{fromID, toID}
		if _, dup := g.byPair[key]; dup {
			return nil, simerr.NewConfigError(simerr.KindDuplicateEdge, "duplicate edge between %s and %s (parallel edges are unsupported)", es.Start, es.End)
		}
		e := Edge{Name: fmt.Sprintf("%s to %s", es.Start, es.End), From: fromID, To: toID, TravelTime: es.TravelTime}
		g.byPair[key] = e
		g.edges = append(g.edges, e)
		g.neighbors[fromID] = append(g.neighbors[fromID], e)
		g.wg.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(fromID), T: simple.Node(toID), W: float64(es.TravelTime)})
	}
	return g, nil
}

// NodeByName resolves a node name to its id, failing with UnknownNode
// if absent.
func (g *Graph) NodeByName(name string) (NodeID, error) {
	id, ok := g.nameToID[name]
	if !ok {
		return 0, simerr.NewConfigError(simerr.KindUnknownNode, "unknown node %q", name)
	}
	return id, nil
}

// Node returns the node record for id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Nodes returns all nodes in id order.
func (g *Graph) Nodes() []Node { return g.nodes }

// Neighbors returns the outgoing edges of u in input order.
func (g *Graph) Neighbors(u NodeID) []Edge { return g.neighbors[u] }

// EdgeBetween returns the single edge from u to v, if any.
func (g *Graph) EdgeBetween(u, v NodeID) (Edge, bool) {
	e, ok := g.byPair[[2]NodeID{u, v}]
	return e, ok
}

// AllPairsShortest computes the ideal (uncongested) shortest travel
// time between every ordered pair of nodes, together with the
// edge-name path, via Dijkstra from each node (gonum's
// path.DijkstraAllPaths runs the all-pairs search directly over the
// weighted directed graph built in Build).
func (g *Graph) AllPairsShortest() (dist [][]float64, edgePaths [][][]string, err error) {
	n := len(g.nodes)
	allShortest := path.DijkstraAllPaths(g.wg)

	dist = make([][]float64, n)
	edgePaths = make([][][]string, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		edgePaths[i] = make([][]string, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			w, _ := allShortest.Weight(int64(i), int64(j))
			if math.IsInf(w, 1) {
				dist[i][j] = math.Inf(1)
				continue
			}
			dist[i][j] = w
			nodes, _, _ := allShortest.Between(int64(i), int64(j))
			edgePaths[i][j] = g.edgeNamesAlong(nodes)
		}
	}
	return dist, edgePaths, nil
}

func (g *Graph) edgeNamesAlong(nodes []graph.Node) []string {
	if len(nodes) < 2 {
		return nil
	}
	names := make([]string, 0, len(nodes)-1)
	for i := 0; i+1 < len(nodes); i++ {
		u := NodeID(nodes[i].ID())
		v := NodeID(nodes[i+1].ID())
		if e, ok := g.byPair[[2]NodeID{u, v}]; ok {
			names = append(names, e.Name)
		}
	}
	return names
}

// SortedNodeNames returns node names sorted alphabetically, useful for
// deterministic iteration in reporting paths that don't care about id
// order.
func (g *Graph) SortedNodeNames() []string {
	names := make([]string, len(g.nodes))
	for i, nd := range g.nodes {
		names[i] = nd.Name
	}
	sort.Strings(names)
	return names
}
