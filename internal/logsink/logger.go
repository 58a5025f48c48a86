// Package logsink captures per-tick snapshots for an external
// renderer, grounded on the teacher's tagged Event union (sim/events.go)
// but re-emitted through structured logging instead of an SSE stream —
// the real-time transport is explicitly out of scope (see DESIGN.md).
package logsink

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"transitsim/internal/engine"
)

// Verbosity selects how much per-tick detail is logged (§6 verbose flag).
type Verbosity int

const (
	Quiet   Verbosity = 0 // one summary line per tick, at Debug level
	Normal  Verbosity = 1 // Info summary line plus the total waiting count
	Verbose Verbosity = 2 // as Normal, plus Trace lines per waiting node and per vehicle
)

// Logger implements engine.Observer, tagging every entry with a run
// correlation id so multiple runs' logs can be told apart downstream.
type Logger struct {
	log       *logrus.Entry
	verbosity Verbosity
}

// New returns a Logger writing through base (nil uses logrus's
// standard logger) tagged with a fresh run id.
func New(base *logrus.Logger, verbosity Verbosity) *Logger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	runID := uuid.New()
	return &Logger{
		log:       base.WithField("run_id", runID.String()),
		verbosity: verbosity,
	}
}

// Observe logs one tick's snapshot at the configured verbosity.
func (l *Logger) Observe(s engine.TickSnapshot) {
	entry := l.log.WithFields(logrus.Fields{
		"minute":          s.Minute,
		"active_vehicles": s.ActiveVehicles,
		"boarded":         s.Boarded,
		"finished":        s.FinishedThisTick,
		"failed":          s.FailedThisTick,
	})
	if l.verbosity == Quiet {
		entry.Debug("tick")
		return
	}

	var waitingTotal int
	for _, w := range s.NodeWaiting {
		waitingTotal += w
	}
	entry = entry.WithField("waiting_total", waitingTotal)

	if l.verbosity == Normal {
		entry.Info("tick")
		return
	}

	for _, nd := range s.NodeDetails {
		if nd.Waiting > 0 {
			entry.WithFields(logrus.Fields{"node": nd.Name, "waiting": nd.Waiting}).Trace("node waiting")
		}
	}
	for _, vd := range s.VehicleDetails {
		entry.WithFields(logrus.Fields{
			"vehicle_id": vd.ID,
			"itinerary":  vd.ItineraryName,
			"lat":        vd.Lat,
			"lon":        vd.Lon,
			"aboard":     vd.Aboard,
		}).Trace("vehicle position")
	}
	entry.Info("tick")
}
