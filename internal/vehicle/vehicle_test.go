package vehicle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"transitsim/internal/graph"
	"transitsim/internal/itinerary"
	"transitsim/internal/network"
	"transitsim/internal/vehicle"
)

func buildTemplate(t *testing.T, edgeTimes ...int) (*graph.Graph, *itinerary.Template) {
	t.Helper()
	names := []string{"A", "B", "C", "D"}
	nodes := make([]graph.NodeSpec, len(edgeTimes)+1)
	for i := range nodes {
		nodes[i] = graph.NodeSpec{Name: names[i]}
	}
	edges := make([]graph.EdgeSpec, len(edgeTimes))
	for i, tt := range edgeTimes {
		edges[i] = graph.EdgeSpec{Start: names[i], End: names[i+1], TravelTime: tt}
	}
	g, err := graph.Build(nodes, edges)
	require.NoError(t, err)
	tpl, err := itinerary.Build("T", names[:len(edgeTimes)+1], 0, 30, 120, g, "")
	require.NoError(t, err)
	return g, tpl
}

func TestVehicle_MovingStateMachine(t *testing.T) {
	_, tpl := buildTemplate(t, 3)
	v := vehicle.New(1, tpl, 0, 0, 50, 50)
	require.Equal(t, vehicle.AtStop, v.State)

	v.Advance() // AtStop -> Moving (edge length 3)
	require.Equal(t, vehicle.Moving, v.State)
	require.Equal(t, 1, v.MoveTimer)

	v.Advance() // Moving, timer 1 -> 2 (edgeLength-1 == 2)
	require.Equal(t, vehicle.Moving, v.State)
	require.Equal(t, 2, v.MoveTimer)

	v.Advance() // timer == edgeLength-1 -> AtStop, advance previous_stop
	require.Equal(t, vehicle.AtStop, v.State)
	require.Equal(t, 1, v.PrevIdx)
}

func TestVehicle_DegenerateEdgeTeleportsWithoutMoving(t *testing.T) {
	_, tpl := buildTemplate(t, 1, 10)
	v := vehicle.New(1, tpl, 0, 0, 50, 50)
	v.Advance() // edge length 1: teleport, stay AtStop
	require.Equal(t, vehicle.AtStop, v.State)
	require.Equal(t, 1, v.PrevIdx)
	require.False(t, v.FreshlySpawned)
}

func TestVehicle_LoopRouteDoesNotTerminateOnFreshSpawn(t *testing.T) {
	g, err := graph.Build(
		[]graph.NodeSpec{{Name: "A"}, {Name: "B"}},
		[]graph.EdgeSpec{{Start: "A", End: "B", TravelTime: 5}, {Start: "B", End: "A", TravelTime: 5}},
	)
	require.NoError(t, err)
	tpl, err := itinerary.Build("Loop", []string{"A", "B", "A"}, 0, 30, 120, g, "")
	require.NoError(t, err)

	v := vehicle.New(1, tpl, 0, 0, 50, 50)
	require.True(t, v.FreshlySpawned)
	require.False(t, v.ShouldTerminate(), "a freshly spawned vehicle at its loop origin must not terminate immediately")
}

func TestVehicle_TerminatesOneTickAfterReachingTerminus(t *testing.T) {
	_, tpl := buildTemplate(t, 5)
	v := vehicle.New(1, tpl, 0, 0, 50, 50)
	v.Advance() // Moving, timer=1
	v.Advance() // timer=2
	v.Advance() // timer=3
	v.Advance() // timer=4
	v.Advance() // timer==edgeLength-1(4) -> AtStop at B (final node)
	require.Equal(t, vehicle.AtStop, v.State)
	require.True(t, v.AtTerminus())
	require.True(t, v.ShouldTerminate(), "no longer freshly spawned, already stopped at terminus")
}

func TestVehicle_CapacitySplitOnBoard(t *testing.T) {
	// Scenario S3: vehicle capacity 10, waiting group of 25.
	_, tpl := buildTemplate(t, 5)
	v := vehicle.New(1, tpl, 0, 0, 0, 10)

	grp := &network.Group{
		Origin: 0, Destination: 1, Count: 25,
		Plan: network.Plan{Tokens: []network.PlanToken{
			{Kind: network.TokenBoard, ItineraryIdx: 0},
			{Kind: network.TokenAlight, Node: 1},
		}},
	}
	originalTokens := append([]network.PlanToken(nil), grp.Plan.Tokens...)

	boarded := v.Board(grp)
	require.NotNil(t, boarded)
	require.Equal(t, 10, boarded.Count)
	require.Equal(t, 10, v.PassengersAboard())
	require.Equal(t, 15, grp.Count, "node retains a group of 15")
	require.Equal(t, originalTokens, grp.Plan.Tokens, "remaining group's plan is untouched")
	require.Equal(t, 0, grp.Plan.Cursor, "remaining group has not consumed its board token")
	require.Equal(t, 1, boarded.Plan.Cursor, "boarded splinter has consumed its board token")
}

func TestVehicle_BoardRejectsWhenFull(t *testing.T) {
	_, tpl := buildTemplate(t, 5)
	v := vehicle.New(1, tpl, 0, 0, 0, 5)
	full := &network.Group{Count: 5, Plan: network.Plan{Tokens: []network.PlanToken{{Kind: network.TokenBoard}}}}
	v.Board(full)
	require.Equal(t, 0, v.Residual())

	grp := &network.Group{Count: 3, Plan: network.Plan{Tokens: []network.PlanToken{{Kind: network.TokenBoard}}}}
	boarded := v.Board(grp)
	require.Nil(t, boarded)
	require.Equal(t, 3, grp.Count, "group unchanged when residual is zero")
	require.Equal(t, 0, grp.Plan.Cursor)
}

func TestVehicle_AlightRemovesFinishedAndReboundingGroups(t *testing.T) {
	_, tpl := buildTemplate(t, 5, 5)
	v := vehicle.New(1, tpl, 0, 0, 50, 50)
	finished := &network.Group{Count: 4, Plan: network.Plan{Tokens: []network.PlanToken{{Kind: network.TokenAlight, Node: 0}}}}
	continuing := &network.Group{Count: 2, Plan: network.Plan{Tokens: []network.PlanToken{
		{Kind: network.TokenAlight, Node: 0},
		{Kind: network.TokenBoard, ItineraryIdx: 1},
	}}}
	staying := &network.Group{Count: 9, Plan: network.Plan{Tokens: []network.PlanToken{{Kind: network.TokenAlight, Node: 1}}}}
	v.Groups = []*network.Group{finished, continuing, staying}

	out := v.Alight(0)
	require.Len(t, out, 2)
	require.Len(t, v.Groups, 1)
	require.Same(t, staying, v.Groups[0])

	for _, a := range out {
		if a.Group == finished {
			require.True(t, a.Finished)
		} else {
			require.False(t, a.Finished)
		}
	}
}
