// Package headway implements the wait-time optimiser (§4.3) that
// chooses a per-itinerary headway from operating cost and expected
// demand. It is a configuration-time collaborator of the dispatcher,
// not a runtime component.
package headway

import (
	"math"

	"transitsim/internal/graph"
	"transitsim/internal/itinerary"
)

// Mode selects how a headway is determined for an itinerary.
type Mode string

const (
	// FixedFromTable uses the headway already present in the schedule
	// input table, unchanged.
	FixedFromTable Mode = "hardcoded"
	// SquareRoot computes h* from the standard square-root formula
	// minimising operating + waiting cost (§4.3). Named henry_convex in
	// the external configuration contract (§6).
	SquareRoot Mode = "henry_convex"
)

// Costs are the per-hour rates needed by the SquareRoot formula.
type Costs struct {
	VehicleCostPerHour        float64
	AgentCostWaitingPerHour   float64
}

// WeightedDemand computes W for one itinerary: for each served node,
// its daily total scaled by the mean traffic multiplier, divided
// evenly among the itineraries that serve that node, summed over the
// itinerary's stops, then converted from trips/day to passengers/hour
// (§4.3).
func WeightedDemand(t *itinerary.Template, g *graph.Graph, servingCount map[graph.NodeID]int, meanTrafficMultiplier float64) float64 {
	var total float64
	seen := make(map[graph.NodeID]bool, len(t.Nodes))
	for _, nodeID := range t.Nodes {
		if seen[nodeID] {
			continue
		}
		seen[nodeID] = true
		n := servingCount[nodeID]
		if n <= 0 {
			n = 1
		}
		daily := g.Node(nodeID).DailyPassengers * meanTrafficMultiplier
		total += daily / float64(n)
	}
	// daily passengers -> passengers/hour, assuming a 24h day.
	return total / 24.0
}

// Optimise returns the headway (minutes) to install on t's dispatcher,
// per the configured mode.
func Optimise(mode Mode, t *itinerary.Template, weightedDemand float64, costs Costs) int {
	if mode != SquareRoot {
		return t.HeadwayMinutes
	}
	if weightedDemand <= 0 || costs.AgentCostWaitingPerHour <= 0 {
		return t.HeadwayMinutes
	}
	routeLengthMinutes := float64(t.TripDurationMinutes())
	operatingCostPerHour := routeLengthMinutes / 60.0 * costs.VehicleCostPerHour
	hStar := 60.0 * math.Sqrt(2*operatingCostPerHour/(weightedDemand*costs.AgentCostWaitingPerHour))
	h := int(math.Round(hStar))
	if h < 1 {
		h = 1
	}
	return h
}
