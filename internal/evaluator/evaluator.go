// Package evaluator reduces the simulation core's per-tick snapshots
// to the cost and utilisation metrics of §4.8. It implements
// engine.Observer so it can be registered alongside the logger without
// either package depending on the other.
package evaluator

import "transitsim/internal/engine"

// Costs are the per-hour rates and the one-off penalty from the eval
// configuration table (§6).
type Costs struct {
	VehicleCostPerHour        float64
	VehicleCostPerHourByClass map[string]float64 // optional, §12 per-class override keyed by Template.VehicleClass; a class absent here falls back to VehicleCostPerHour
	AgentCostSeated           float64
	AgentCostStanding         float64
	AgentCostWaitingPerHour   float64
	UnfinishedPenalty         float64
}

// vehicleCostPerHour returns the configured rate for class, falling
// back to the table-wide scalar when the class has no override.
func (c Costs) vehicleCostPerHour(class string) float64 {
	if rate, ok := c.VehicleCostPerHourByClass[class]; ok {
		return rate
	}
	return c.VehicleCostPerHour
}

// Evaluator accumulates passenger-minutes and vehicle-minutes across
// every observed tick.
type Evaluator struct {
	costs          Costs
	seatedCapacity int

	seatedPassengerMinutes   float64
	standingPassengerMinutes float64
	waitingPassengerMinutes  float64
	vehicleMinutes           float64
	vehicleMinutesByClass    map[string]float64

	maxConcurrentVehicles   int
	maxConcurrentPassengers int

	successfulAgents int
	failedAgents     int
	ticks            int
}

// New returns an Evaluator that charges standing fares once aboard
// count exceeds seatedCapacity on a given vehicle.
func New(costs Costs, seatedCapacity int) *Evaluator {
	return &Evaluator{costs: costs, seatedCapacity: seatedCapacity, vehicleMinutesByClass: make(map[string]float64)}
}

// Observe folds one tick's snapshot into the running totals.
func (e *Evaluator) Observe(s engine.TickSnapshot) {
	var aboardTotal int
	for _, aboard := range s.VehicleAboard {
		seated := aboard
		if seated > e.seatedCapacity {
			seated = e.seatedCapacity
		}
		standing := aboard - e.seatedCapacity
		if standing < 0 {
			standing = 0
		}
		e.seatedPassengerMinutes += float64(seated)
		e.standingPassengerMinutes += float64(standing)
		aboardTotal += aboard
	}

	var waitingTotal int
	for _, w := range s.NodeWaiting {
		waitingTotal += w
	}
	e.waitingPassengerMinutes += float64(waitingTotal)
	e.vehicleMinutes += float64(s.ActiveVehicles)
	for _, vd := range s.VehicleDetails {
		e.vehicleMinutesByClass[vd.Class]++
	}

	if s.ActiveVehicles > e.maxConcurrentVehicles {
		e.maxConcurrentVehicles = s.ActiveVehicles
	}
	if concurrent := aboardTotal + waitingTotal; concurrent > e.maxConcurrentPassengers {
		e.maxConcurrentPassengers = concurrent
	}

	e.successfulAgents += s.FinishedThisTick
	e.failedAgents += s.FailedThisTick
	e.ticks++
}

// Result is the terminal summary computed from everything observed so far.
type Result struct {
	SeatedPassengerMinutes   float64
	StandingPassengerMinutes float64
	WaitingPassengerMinutes  float64
	VehicleHours             float64
	TotalCost                float64
	AverageCostPerAgent      float64
	SuccessfulAgents         int
	FailedAgents             int
	MaxConcurrentVehicles    int
	MaxConcurrentPassengers  int
	Ticks                    int
}

// Result computes the cost aggregate (§4.8):
//
//	cost = seated-$ + standing-$ + waiting-$ + failures*penalty + vehicle-hours*vehicle_cost
//
// The vehicle-hours term is summed per vehicle class (§12), so an
// itinerary's declared VehicleClass only affects output when the eval
// table's VehicleCostPerHourByClass actually overrides its rate.
func (e *Evaluator) Result() Result {
	vehicleHours := e.vehicleMinutes / 60.0
	var vehicleCost float64
	for class, minutes := range e.vehicleMinutesByClass {
		vehicleCost += minutes / 60.0 * e.costs.vehicleCostPerHour(class)
	}
	cost := e.seatedPassengerMinutes/60.0*e.costs.AgentCostSeated +
		e.standingPassengerMinutes/60.0*e.costs.AgentCostStanding +
		e.waitingPassengerMinutes/60.0*e.costs.AgentCostWaitingPerHour +
		float64(e.failedAgents)*e.costs.UnfinishedPenalty +
		vehicleCost

	total := e.successfulAgents + e.failedAgents
	var avg float64
	if total > 0 {
		avg = cost / float64(total)
	}

	return Result{
		SeatedPassengerMinutes:   e.seatedPassengerMinutes,
		StandingPassengerMinutes: e.standingPassengerMinutes,
		WaitingPassengerMinutes:  e.waitingPassengerMinutes,
		VehicleHours:             vehicleHours,
		TotalCost:                cost,
		AverageCostPerAgent:      avg,
		SuccessfulAgents:         e.successfulAgents,
		FailedAgents:             e.failedAgents,
		MaxConcurrentVehicles:    e.maxConcurrentVehicles,
		MaxConcurrentPassengers:  e.maxConcurrentPassengers,
		Ticks:                    e.ticks,
	}
}
