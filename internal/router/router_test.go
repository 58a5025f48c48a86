package router_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"transitsim/internal/graph"
	"transitsim/internal/itinerary"
	"transitsim/internal/network"
	"transitsim/internal/router"
)

// buildABCNetwork wires three single-trip itineraries over a 3-node
// graph: a direct A-C route dispatching late, and a two-leg A-B / B-C
// pair dispatching so that transferring beats riding direct (§8
// Scenario S5 - time-dependent preference).
func buildABCNetwork(t *testing.T) (*graph.Graph, *network.Network, []*itinerary.Template) {
	t.Helper()
	g, err := graph.Build(
		[]graph.NodeSpec{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		[]graph.EdgeSpec{
			{Start: "A", End: "B", TravelTime: 10},
			{Start: "B", End: "C", TravelTime: 15},
			{Start: "A", End: "C", TravelTime: 30},
		},
	)
	require.NoError(t, err)

	tplAB, err := itinerary.Build("AB", []string{"A", "B"}, 0, 30, 0, g, "")
	require.NoError(t, err)
	tplBC, err := itinerary.Build("BC", []string{"B", "C"}, 12, 30, 12, g, "")
	require.NoError(t, err)
	tplDirect, err := itinerary.Build("Direct", []string{"A", "C"}, 20, 30, 20, g, "")
	require.NoError(t, err)

	templates := []*itinerary.Template{tplAB, tplBC, tplDirect}
	dispatchers := make([]*itinerary.Dispatcher, len(templates))
	for i, tpl := range templates {
		dispatchers[i] = itinerary.NewDispatcher(tpl)
	}
	net := network.BuildNetwork(g, templates, dispatchers)
	return g, net, templates
}

func TestRoute_PrefersTransferOverSlowerDirect(t *testing.T) {
	g, net, templates := buildABCNetwork(t)
	r := router.New(g.NumNodes(), templates)

	a, _ := g.NodeByName("A")
	b, _ := g.NodeByName("B")
	c, _ := g.NodeByName("C")

	labels, plans := r.Route(net, a, 0)

	require.Equal(t, 10, labels[b])
	require.Equal(t, 27, labels[c], "via-B transfer (27) beats the direct trip (50)")

	plan := plans[c]
	require.Equal(t, []network.PlanToken{
		{Kind: network.TokenBoard, ItineraryIdx: 0},
		{Kind: network.TokenAlight, Node: b},
		{Kind: network.TokenBoard, ItineraryIdx: 1},
		{Kind: network.TokenAlight, Node: c},
	}, plan.Tokens)
}

func TestRoute_CachesUntilMarkedDirty(t *testing.T) {
	g, net, templates := buildABCNetwork(t)
	r := router.New(g.NumNodes(), templates)
	a, _ := g.NodeByName("A")

	labels1, _ := r.Route(net, a, 0)
	require.False(t, net.Stops[a].Cache.Dirty)

	// A second call without marking dirty must reuse the same cache
	// instead of recomputing.
	labels2, _ := r.Route(net, a, 0)
	require.Equal(t, labels1, labels2)

	net.Stops[a].MarkDirty()
	require.True(t, net.Stops[a].Cache.Dirty)
	labels3, _ := r.Route(net, a, 0)
	require.Equal(t, labels1, labels3)
	require.False(t, net.Stops[a].Cache.Dirty, "routing clears the dirty flag after recomputing")
}

func TestRoute_UnreachableDestinationIsAbsentFromLabels(t *testing.T) {
	g, err := graph.Build(
		[]graph.NodeSpec{{Name: "A"}, {Name: "B"}, {Name: "Island"}},
		[]graph.EdgeSpec{{Start: "A", End: "B", TravelTime: 5}},
	)
	require.NoError(t, err)
	tpl, err := itinerary.Build("AB", []string{"A", "B"}, 0, 30, 0, g, "")
	require.NoError(t, err)
	templates := []*itinerary.Template{tpl}
	d := itinerary.NewDispatcher(tpl)
	net := network.BuildNetwork(g, templates, []*itinerary.Dispatcher{d})

	r := router.New(g.NumNodes(), templates)
	a, _ := g.NodeByName("A")
	island, _ := g.NodeByName("Island")

	labels, _ := r.Route(net, a, 0)
	_, reachable := labels[island]
	require.False(t, reachable, "an island node with no serving itinerary must be silently absent, not an error")
}
