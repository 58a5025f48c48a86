// Package engine implements the simulation core (§4.7): the strict
// eight-phase per-minute tick that orchestrates the graph, demand
// matrix, itineraries, dispatchers, network, router and vehicles.
package engine

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"transitsim/internal/graph"
	"transitsim/internal/itinerary"
	"transitsim/internal/network"
	"transitsim/internal/router"
	"transitsim/internal/vehicle"
)

// VehicleDetail is one active vehicle's reportable state for a tick,
// matching the output contract's "vehicle lat/lon/name/passenger-count
// lists" (§6).
type VehicleDetail struct {
	ID            int64
	ItineraryName string
	Class         string // Template.VehicleClass, "" when unset (§12 per-class vehicle cost)
	Lat, Lon      float64
	Aboard        int
}

// NodeDetail is one node's reportable waiting count for a tick.
type NodeDetail struct {
	Name    string
	Waiting int
}

// TickSnapshot is what the simulation core reports to its observers
// once per tick, after all eight phases have run (§4.8 "per-tick logs").
type TickSnapshot struct {
	Minute           int
	VehicleAboard    []int // passengers aboard, one entry per currently active vehicle
	NodeWaiting      []int // waiting passenger count, indexed by graph.NodeID
	VehicleDetails   []VehicleDetail
	NodeDetails      []NodeDetail
	ActiveVehicles   int
	Boarded          int
	FinishedThisTick int // passengers that completed their journey this tick
	FailedThisTick   int // passengers that failed to spawn this tick (unreachable destination)
}

// Observer receives one TickSnapshot per tick. Both the evaluator and
// the logger implement it; the engine itself depends on neither.
type Observer interface {
	Observe(TickSnapshot)
}

// Config bundles the scenario-level parameters that are not already
// captured by the graph, itineraries or OD matrix.
type Config struct {
	TrafficMultiplier []float64 // breakpoint k applies at minute k*TrafficTimeGap
	TrafficTimeGap    int
	SeatedCapacity    int
	StandingCapacity  int
	Seed              int64
}

// Engine owns all mutable simulation state for one run.
type Engine struct {
	g           *graph.Graph
	net         *network.Network
	templates   []*itinerary.Template
	dispatchers []*itinerary.Dispatcher
	rtr         *router.Router
	od          *mat.Dense
	cfg         Config

	rng *rand.Rand

	clock    int
	stopTime int

	vehicles      []*vehicle.Vehicle
	nextVehicleID int64

	successCount int
	failureCount int
}

// New constructs an Engine ready to run from minute 0.
func New(g *graph.Graph, net *network.Network, templates []*itinerary.Template, dispatchers []*itinerary.Dispatcher, rtr *router.Router, od *mat.Dense, cfg Config) *Engine {
	stopTime := 0
	if n := len(cfg.TrafficMultiplier); n > 1 {
		stopTime = (n - 1) * cfg.TrafficTimeGap
	}
	return &Engine{
		g: g, net: net, templates: templates, dispatchers: dispatchers,
		rtr: rtr, od: od, cfg: cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		stopTime: stopTime,
	}
}

// Clock returns the current simulation minute.
func (e *Engine) Clock() int { return e.clock }

// SuccessCount and FailureCount return the running totals of passengers
// that completed their journey and passengers that failed to spawn.
func (e *Engine) SuccessCount() int { return e.successCount }
func (e *Engine) FailureCount() int { return e.failureCount }

// Run advances the simulation from minute 0 to stop_time inclusive,
// notifying observers once per tick.
func (e *Engine) Run(observers ...Observer) {
	for e.clock <= e.stopTime {
		snap := e.step()
		for _, o := range observers {
			o.Observe(snap)
		}
		e.clock++
	}
}

// step runs the eight phases of §4.7 for the current minute and
// returns the resulting snapshot. The clock itself is advanced by Run.
func (e *Engine) step() TickSnapshot {
	t := e.clock
	var snap TickSnapshot
	snap.Minute = t

	// 1. Update demand multiplier.
	demandMult := e.demandMultiplier(t)

	// 2. Advance vehicles; remove terminating ones.
	kept := e.vehicles[:0]
	for _, v := range e.vehicles {
		if v.ShouldTerminate() {
			continue
		}
		v.Advance()
		kept = append(kept, v)
	}
	e.vehicles = kept

	// 3. Refresh per-stop next-service times.
	for _, stop := range e.net.Stops {
		for _, arr := range stop.Arrivals {
			if arr.DropBefore(t) {
				stop.MarkDirty()
			}
		}
	}

	// 4. Alight.
	for _, v := range e.vehicles {
		if v.State != vehicle.AtStop {
			continue
		}
		node := v.CurrentNode()
		stop := e.net.Stops[node]
		for _, a := range v.Alight(node) {
			if a.Finished {
				e.successCount += a.Group.Count
				snap.FinishedThisTick += a.Group.Count
				continue
			}
			stop.Waiting = append(stop.Waiting, a.Group)
		}
	}

	// 5. Dispatch.
	for idx, t0 := range e.templates {
		due := e.dispatchers[idx].PopDue(t)
		for range due {
			e.vehicles = append(e.vehicles, vehicle.New(e.nextVehicleID, t0, idx, t, e.cfg.SeatedCapacity, e.cfg.StandingCapacity))
			e.nextVehicleID++
		}
	}

	// 6. Spawn passengers.
	e.spawnPassengers(t, demandMult, &snap)

	// 7. Board.
	for _, v := range e.vehicles {
		if v.State != vehicle.AtStop {
			continue
		}
		node := v.CurrentNode()
		stop := e.net.Stops[node]
		remaining := stop.Waiting[:0]
		for _, grp := range stop.Waiting {
			tok, ok := grp.Plan.Next()
			if !ok || tok.Kind != network.TokenBoard || tok.ItineraryIdx != v.ItinIdx {
				remaining = append(remaining, grp)
				continue
			}
			boarded := v.Board(grp)
			if boarded == nil {
				remaining = append(remaining, grp)
				continue
			}
			snap.Boarded += boarded.Count
			if boarded != grp {
				// partial board: splinter boarded, grp keeps the residue
				remaining = append(remaining, grp)
			}
			stop.MarkDirty()
		}
		stop.Waiting = remaining
	}

	// Snapshot aggregates.
	snap.ActiveVehicles = len(e.vehicles)
	snap.VehicleAboard = make([]int, len(e.vehicles))
	snap.VehicleDetails = make([]VehicleDetail, len(e.vehicles))
	for i, v := range e.vehicles {
		aboard := v.PassengersAboard()
		snap.VehicleAboard[i] = aboard
		lat, lon := v.Position(e.g)
		snap.VehicleDetails[i] = VehicleDetail{
			ID:            v.ID,
			ItineraryName: v.Template.Name,
			Class:         v.Template.VehicleClass,
			Lat:           lat,
			Lon:           lon,
			Aboard:        aboard,
		}
	}
	snap.NodeWaiting = make([]int, e.g.NumNodes())
	snap.NodeDetails = make([]NodeDetail, e.g.NumNodes())
	for _, stop := range e.net.Stops {
		var n int
		for _, grp := range stop.Waiting {
			n += grp.Count
		}
		snap.NodeWaiting[stop.Node] = n
		snap.NodeDetails[stop.Node] = NodeDetail{Name: stop.Name, Waiting: n}
	}
	return snap
}

// demandMultiplier linearly interpolates between scenario breakpoints
// (§4.7 step 1, §6).
func (e *Engine) demandMultiplier(t int) float64 {
	bp := e.cfg.TrafficMultiplier
	if len(bp) == 0 {
		return 1
	}
	if len(bp) == 1 || e.cfg.TrafficTimeGap <= 0 {
		return bp[0]
	}
	pos := float64(t) / float64(e.cfg.TrafficTimeGap)
	k := int(math.Floor(pos))
	if k < 0 {
		k = 0
	}
	if k >= len(bp)-1 {
		return bp[len(bp)-1]
	}
	frac := pos - float64(k)
	return bp[k] + frac*(bp[k+1]-bp[k])
}

// spawnPassengers implements §4.7 step 6: for each origin, aggregate
// expected counts per destination, draw floor(expected)+Bernoulli(frac)
// groups, route once per origin, and emit a waiting group per reachable
// destination (or count a failure per unreachable one).
func (e *Engine) spawnPassengers(t int, demandMult float64, snap *TickSnapshot) {
	n := e.g.NumNodes()
	for i := 0; i < n; i++ {
		// dests/wants are parallel slices in ascending destination-id
		// order, not a map: iteration order must be deterministic for
		// the spawn-then-board sequence to replay bit-identically (§8).
		var dests []graph.NodeID
		var wants []int
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			expected := e.od.At(i, j) * demandMult / 60.0
			if expected <= 0 {
				continue
			}
			whole := math.Floor(expected)
			frac := expected - whole
			count := int(whole)
			if frac > 0 {
				b := distuv.Bernoulli{P: frac, Src: e.rng}
				count += int(b.Rand())
			}
			if count > 0 {
				dests = append(dests, graph.NodeID(j))
				wants = append(wants, count)
			}
		}
		if len(dests) == 0 {
			continue
		}
		origin := graph.NodeID(i)
		labels, plans := e.rtr.Route(e.net, origin, t)
		stop := e.net.Stops[origin]
		for k, dest := range dests {
			count := wants[k]
			if _, ok := labels[dest]; !ok {
				e.failureCount += count
				snap.FailedThisTick += count
				continue
			}
			plan := plans[dest].Clone()
			grp := &network.Group{
				Origin:      origin,
				Destination: dest,
				Created:     t,
				Count:       count,
				Plan:        plan,
			}
			stop.Waiting = append(stop.Waiting, grp)
		}
	}
}
