// Package vehicle implements the per-instance vehicle state machine
// (§4.5): AtStop/Moving transitions, capacity-aware boarding with
// group splitting, and alighting. The itinerary template is shared and
// immutable; only the cursor (state, previous_stop, move_timer) is
// copied per instance (§9 "shallow-copy of itinerary state").
package vehicle

import (
	"transitsim/internal/graph"
	"transitsim/internal/itinerary"
	"transitsim/internal/network"
)

// State is one of the two vehicle states.
type State int

const (
	AtStop State = iota
	Moving
)

// Vehicle is one dispatched instance of an itinerary template.
type Vehicle struct {
	ID           int64
	Template     *itinerary.Template
	ItinIdx      int // index of Template within the simulation's itinerary list
	DispatchTime int

	State     State
	PrevIdx   int // sequence index of previous_stop
	MoveTimer int
	EdgeLength int

	// FreshlySpawned suppresses termination at the origin node until
	// the vehicle has left it at least once, required for loop
	// itineraries whose terminus equals their origin.
	FreshlySpawned bool

	SeatedCapacity   int
	StandingCapacity int // total capacity T >= SeatedCapacity

	Groups []*network.Group
}

// New creates a freshly dispatched vehicle parked at its itinerary's
// first node.
func New(id int64, t *itinerary.Template, itinIdx, dispatchTime, seated, standing int) *Vehicle {
	return &Vehicle{
		ID:               id,
		Template:         t,
		ItinIdx:          itinIdx,
		DispatchTime:     dispatchTime,
		State:            AtStop,
		FreshlySpawned:   true,
		SeatedCapacity:   seated,
		StandingCapacity: standing,
	}
}

// CurrentNode returns previous_stop, the vehicle's AtStop location or
// the Moving segment's origin.
func (v *Vehicle) CurrentNode() graph.NodeID { return v.Template.NodeAt(v.PrevIdx) }

// AtTerminus reports whether previous_stop is the itinerary's final node.
func (v *Vehicle) AtTerminus() bool { return v.PrevIdx == len(v.Template.Nodes)-1 }

// ShouldTerminate reports whether the simulation core should remove
// this vehicle this tick instead of advancing it: it has already
// stopped at its terminus (on a prior tick, giving one alight
// opportunity) and is not still the freshly-spawned loop-origin case.
func (v *Vehicle) ShouldTerminate() bool {
	return v.State == AtStop && v.AtTerminus() && !v.FreshlySpawned
}

// PassengersAboard sums the counts of all groups currently aboard.
func (v *Vehicle) PassengersAboard() int {
	var n int
	for _, g := range v.Groups {
		n += g.Count
	}
	return n
}

// Residual returns how many more passengers can board.
func (v *Vehicle) Residual() int {
	r := v.StandingCapacity - v.PassengersAboard()
	if r < 0 {
		return 0
	}
	return r
}

// Advance runs one tick of the AtStop/Moving state machine (§4.5). It
// is a no-op once the vehicle has reached its terminus; the
// simulation core is expected to call ShouldTerminate first and skip
// Advance for terminated vehicles.
func (v *Vehicle) Advance() {
	switch v.State {
	case AtStop:
		if v.PrevIdx >= len(v.Template.Edges) {
			return
		}
		edge := v.Template.Edges[v.PrevIdx]
		if edge.TravelTime == 1 {
			// Degenerate edge: teleport, remain AtStop this tick.
			v.PrevIdx++
			v.FreshlySpawned = false
			return
		}
		v.EdgeLength = edge.TravelTime
		v.MoveTimer = 1
		v.State = Moving
		v.FreshlySpawned = false
	case Moving:
		if v.MoveTimer == v.EdgeLength-1 {
			v.PrevIdx++
			v.State = AtStop
			v.MoveTimer = 0
			v.EdgeLength = 0
		} else {
			v.MoveTimer++
		}
	}
}

// Board adds as much of g as residual capacity allows. If the whole
// group fits, it returns g unchanged as boarded. If only part fits, g
// is split: the boarded splinter (count == residual) inherits a clone
// of g's plan and is appended aboard, g's count is reduced by the
// same amount and stays waiting at the stop (§3 "groups split only on
// boarding... splinter inherits the origin plan").
func (v *Vehicle) Board(g *network.Group) (boarded *network.Group) {
	residual := v.Residual()
	if residual <= 0 {
		return nil
	}
	if g.Count <= residual {
		g.Plan.Advance()
		v.Groups = append(v.Groups, g)
		return g
	}
	part := &network.Group{
		Origin:      g.Origin,
		Destination: g.Destination,
		Created:     g.Created,
		Count:       residual,
		Plan:        g.Plan.Clone(),
	}
	part.Plan.Advance()
	v.Groups = append(v.Groups, part)
	g.Count -= residual
	return part
}

// Alighted pairs a group that left the vehicle at the current stop
// with whether it has reached the end of its plan (journey complete)
// or still has a later leg to board.
type Alighted struct {
	Group    *network.Group
	Finished bool
}

// Alight removes every group whose next plan token is "alight at
// node" and returns them, compacting the retained groups in place
// (§9 "mark-and-sweep" retain pattern, avoiding pops while iterating).
func (v *Vehicle) Alight(node graph.NodeID) []Alighted {
	var out []Alighted
	keep := v.Groups[:0]
	for _, g := range v.Groups {
		tok, ok := g.Plan.Next()
		if ok && tok.Kind == network.TokenAlight && tok.Node == node {
			g.Plan.Advance()
			out = append(out, Alighted{Group: g, Finished: g.Plan.Done()})
			continue
		}
		keep = append(keep, g)
	}
	v.Groups = keep
	return out
}

// Position returns the vehicle's current geographic coordinates: the
// previous stop's position while AtStop, or the linear interpolation
// toward the next node while Moving (§4.5).
func (v *Vehicle) Position(g *graph.Graph) (lat, lon float64) {
	from := g.Node(v.CurrentNode())
	if v.State == AtStop || v.EdgeLength == 0 {
		return from.Latitude, from.Longitude
	}
	to := g.Node(v.Template.NodeAt(v.PrevIdx + 1))
	frac := float64(v.MoveTimer) / float64(v.EdgeLength)
	return from.Latitude + frac*(to.Latitude-from.Latitude),
		from.Longitude + frac*(to.Longitude-from.Longitude)
}
