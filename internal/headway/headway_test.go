package headway_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"transitsim/internal/graph"
	"transitsim/internal/headway"
	"transitsim/internal/itinerary"
)

func buildLoop(t *testing.T, daily float64) (*graph.Graph, *itinerary.Template) {
	t.Helper()
	g, err := graph.Build(
		[]graph.NodeSpec{
			{Name: "A", DailyPassengers: daily},
			{Name: "B", DailyPassengers: daily},
		},
		[]graph.EdgeSpec{
			{Start: "A", End: "B", TravelTime: 10},
			{Start: "B", End: "A", TravelTime: 10},
		},
	)
	require.NoError(t, err)
	tpl, err := itinerary.Build("Loop", []string{"A", "B", "A"}, 0, 30, 120, g, "")
	require.NoError(t, err)
	return g, tpl
}

func TestOptimise_FixedFromTableKeepsTableHeadway(t *testing.T) {
	_, tpl := buildLoop(t, 1440)
	h := headway.Optimise(headway.FixedFromTable, tpl, 999, headway.Costs{VehicleCostPerHour: 50, AgentCostWaitingPerHour: 10})
	require.Equal(t, tpl.HeadwayMinutes, h)
}

func TestOptimise_SquareRootMatchesClosedForm(t *testing.T) {
	_, tpl := buildLoop(t, 1440)
	const weightedDemand = 40.0 // passengers/hour
	costs := headway.Costs{VehicleCostPerHour: 50, AgentCostWaitingPerHour: 10}

	h := headway.Optimise(headway.SquareRoot, tpl, weightedDemand, costs)

	routeLength := float64(tpl.TripDurationMinutes())
	operatingCostPerHour := routeLength / 60.0 * costs.VehicleCostPerHour
	want := int(math.Round(60.0 * math.Sqrt(2*operatingCostPerHour/(weightedDemand*costs.AgentCostWaitingPerHour))))
	require.Equal(t, want, h)
	require.Greater(t, h, 0)
}

func TestOptimise_ZeroDemandFallsBackToTableHeadway(t *testing.T) {
	_, tpl := buildLoop(t, 1440)
	h := headway.Optimise(headway.SquareRoot, tpl, 0, headway.Costs{VehicleCostPerHour: 50, AgentCostWaitingPerHour: 10})
	require.Equal(t, tpl.HeadwayMinutes, h)
}

func TestWeightedDemand_EvenSplitAcrossServingItineraries(t *testing.T) {
	g, tpl := buildLoop(t, 2400)
	a, _ := g.NodeByName("A")
	b, _ := g.NodeByName("B")
	serving := map[graph.NodeID]int{a: 2, b: 1}

	w := headway.WeightedDemand(tpl, g, serving, 1.0)

	// A's daily total is split across 2 itineraries, B's across 1;
	// both converted from daily to hourly (/24).
	want := (2400.0/2 + 2400.0/1) / 24.0
	require.InDelta(t, want, w, 1e-9)
}
