package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"transitsim/internal/config"
	"transitsim/internal/graph"
)

func TestParseNodes_ThousandsSeparatorAndCoordinates(t *testing.T) {
	csv := "Name,Location,Daily Passengers\n" +
		"A,\"40.7128, -74.0060\",\"1,440\"\n" +
		"B,\"40.7306, -73.9352\",250\n"

	specs, err := config.ParseNodes(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, specs, 2)
	require.Equal(t, "A", specs[0].Name)
	require.InDelta(t, 40.7128, specs[0].Latitude, 1e-9)
	require.InDelta(t, -74.0060, specs[0].Longitude, 1e-9)
	require.Equal(t, 1440.0, specs[0].DailyPassengers)
	require.Equal(t, 250.0, specs[1].DailyPassengers)
}

func TestParseNodes_BadLocationIsConfigError(t *testing.T) {
	csv := "Name,Location,Daily Passengers\nA,not-a-coordinate,100\n"
	_, err := config.ParseNodes(strings.NewReader(csv))
	require.Error(t, err)
}

func TestParseEdges_BidirectionalExpandsToTwoSpecs(t *testing.T) {
	csv := "Start,End,Time,Bidirectional\n" +
		"A,B,10,Yes\n" +
		"B,C,5,No\n"

	specs, err := config.ParseEdges(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, []graph.EdgeSpec{
		{Start: "A", End: "B", TravelTime: 10},
		{Start: "B", End: "A", TravelTime: 10},
		{Start: "B", End: "C", TravelTime: 5},
	}, specs)
}

func TestParseScheduleSimple_SplitsCommaList(t *testing.T) {
	csv := "Name,Gap,Offset,Finish,Schedule\nLoop,30,0,120,\"A, B, A\"\n"
	rows, err := config.ParseScheduleSimple(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Loop", rows[0].Name)
	require.Equal(t, 30, rows[0].Gap)
	require.Equal(t, []string{"A", "B", "A"}, rows[0].Nodes)
}

func TestParseSegments_AutoGeneratesReverseSegment(t *testing.T) {
	csv := "Route,Modifier,Schedule\nA-B,,\"A, X, B\"\n"
	segs, err := config.ParseSegments(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, []string{"A", "X", "B"}, segs["A-B"])
	require.Equal(t, []string{"B", "X", "A"}, segs["B-A"])
}

func TestParseSegments_ModifierQualifiesTheKey(t *testing.T) {
	csv := "Route,Modifier,Schedule\nA-B,express,\"A, B\"\n"
	segs, err := config.ParseSegments(strings.NewReader(csv))
	require.NoError(t, err)
	require.Contains(t, segs, "A-B express")
	require.Contains(t, segs, "B-A express")
}

func TestParseSegments_DuplicateRouteIsConfigError(t *testing.T) {
	csv := "Route,Modifier,Schedule\nA-B,,\"A, B\"\nA-B,,\"A, B\"\n"
	_, err := config.ParseSegments(strings.NewReader(csv))
	require.Error(t, err)
}

func TestBuildItineraries_ComplexJoinsSegmentsByName(t *testing.T) {
	g, err := graph.Build(
		[]graph.NodeSpec{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		[]graph.EdgeSpec{
			{Start: "A", End: "B", TravelTime: 10},
			{Start: "B", End: "C", TravelTime: 15},
		},
	)
	require.NoError(t, err)

	segs := map[string][]string{
		"A-B": {"A", "B"},
		"B-C": {"B", "C"},
	}
	rows := []config.ItineraryRow{
		{Name: "Joined", Gap: 30, Offset: 0, Finish: 120, SegmentNames: []string{"A-B", "B-C"}},
	}

	templates, err := config.BuildItineraries(g, "complex", rows, segs)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	require.Equal(t, []int{0, 10, 25}, templates[0].Offsets)
}

func TestBuildItineraries_UnknownSegmentReferenceIsConfigError(t *testing.T) {
	g, err := graph.Build(
		[]graph.NodeSpec{{Name: "A"}, {Name: "B"}},
		[]graph.EdgeSpec{{Start: "A", End: "B", TravelTime: 10}},
	)
	require.NoError(t, err)

	rows := []config.ItineraryRow{
		{Name: "Bad", Gap: 30, Offset: 0, Finish: 120, SegmentNames: []string{"Z-Y"}},
	}
	_, err = config.BuildItineraries(g, "complex", rows, map[string][]string{})
	require.Error(t, err)
}

func TestParseParameters_RejectsStandingBelowSeated(t *testing.T) {
	csv := "Vehicle Max Seated,Vehicle Max Standing,Traffic Time Gap\n40,20,60\n"
	_, err := config.ParseParameters(strings.NewReader(csv))
	require.Error(t, err)
}

func TestParseParameters_ParsesCapacitiesAndGap(t *testing.T) {
	csv := "Vehicle Max Seated,Vehicle Max Standing,Traffic Time Gap\n40,60,60\n"
	p, err := config.ParseParameters(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 40, p.SeatedCapacity)
	require.Equal(t, 60, p.StandingCapacity)
	require.Equal(t, 60, p.TrafficTimeGap)
}

func TestParseEval_MapsColumnsToCosts(t *testing.T) {
	csv := "Vehicle Cost,Agent Cost Seated,Agent Cost Standing,Agent Cost Waiting,Unfinished Penalty\n" +
		"50,10,6,3,100\n"
	costs, err := config.ParseEval(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 50.0, costs.VehicleCostPerHour)
	require.Equal(t, 10.0, costs.AgentCostSeated)
	require.Equal(t, 6.0, costs.AgentCostStanding)
	require.Equal(t, 3.0, costs.AgentCostWaitingPerHour)
	require.Equal(t, 100.0, costs.UnfinishedPenalty)
}

func TestParseScenario_SkipsBlankRows(t *testing.T) {
	csv := "Traffic Multiplier\n1.0\n\n1.5\n0.8\n"
	mults, err := config.ParseScenario(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, []float64{1.0, 1.5, 0.8}, mults)
}
