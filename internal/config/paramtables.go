package config

import (
	"io"
	"strings"

	"transitsim/internal/evaluator"
	"transitsim/internal/simerr"
)

// vehicleCostClassPrefix marks an optional eval-table column that
// overrides the vehicle cost for one VehicleClass (§12): a column
// named "Vehicle Cost: express" overrides the rate for itineraries
// declaring VehicleClass "express"; absent classes fall back to the
// table-wide "Vehicle Cost" column.
const vehicleCostClassPrefix = "Vehicle Cost: "

// Parameters holds the parameters table (§6): Vehicle Max Seated,
// Vehicle Max Standing (total incl. seated), Traffic Time Gap.
type Parameters struct {
	SeatedCapacity   int
	StandingCapacity int
	TrafficTimeGap   int
}

// ParseParameters reads the parameters table.
func ParseParameters(r io.Reader) (Parameters, error) {
	t, err := readTable(r, "parameters")
	if err != nil {
		return Parameters{}, err
	}
	if len(t.rows) == 0 {
		return Parameters{}, simerr.NewConfigError(simerr.KindBadValue, "parameters: no data row")
	}
	row := t.rows[0]
	seated, err := intCol(t, row, "Vehicle Max Seated")
	if err != nil {
		return Parameters{}, err
	}
	standing, err := intCol(t, row, "Vehicle Max Standing")
	if err != nil {
		return Parameters{}, err
	}
	if standing < seated {
		return Parameters{}, simerr.NewConfigError(simerr.KindBadValue, "Vehicle Max Standing (%d) must be >= Vehicle Max Seated (%d)", standing, seated)
	}
	gap, err := intCol(t, row, "Traffic Time Gap")
	if err != nil {
		return Parameters{}, err
	}
	return Parameters{SeatedCapacity: seated, StandingCapacity: standing, TrafficTimeGap: gap}, nil
}

// ParseEval reads the eval table (§6) into evaluator.Costs: Vehicle
// Cost, Agent Cost Seated, Agent Cost Standing, Agent Cost Waiting,
// Unfinished Penalty, plus any optional "Vehicle Cost: <class>"
// per-class override columns (§12).
func ParseEval(r io.Reader) (evaluator.Costs, error) {
	t, err := readTable(r, "eval")
	if err != nil {
		return evaluator.Costs{}, err
	}
	if len(t.rows) == 0 {
		return evaluator.Costs{}, simerr.NewConfigError(simerr.KindBadValue, "eval: no data row")
	}
	row := t.rows[0]
	vehicleCost, err := floatCol(t, row, "Vehicle Cost")
	if err != nil {
		return evaluator.Costs{}, err
	}
	seated, err := floatCol(t, row, "Agent Cost Seated")
	if err != nil {
		return evaluator.Costs{}, err
	}
	standing, err := floatCol(t, row, "Agent Cost Standing")
	if err != nil {
		return evaluator.Costs{}, err
	}
	waiting, err := floatCol(t, row, "Agent Cost Waiting")
	if err != nil {
		return evaluator.Costs{}, err
	}
	penalty, err := floatCol(t, row, "Unfinished Penalty")
	if err != nil {
		return evaluator.Costs{}, err
	}
	byClass, err := vehicleCostByClass(t, row)
	if err != nil {
		return evaluator.Costs{}, err
	}
	return evaluator.Costs{
		VehicleCostPerHour:        vehicleCost,
		VehicleCostPerHourByClass: byClass,
		AgentCostSeated:           seated,
		AgentCostStanding:         standing,
		AgentCostWaitingPerHour:   waiting,
		UnfinishedPenalty:         penalty,
	}, nil
}

// vehicleCostByClass scans the eval table's header for optional
// "Vehicle Cost: <class>" columns and returns the per-class override
// map, or nil if none are declared.
func vehicleCostByClass(t *table, row []string) (map[string]float64, error) {
	var out map[string]float64
	for col, idx := range t.header {
		if !strings.HasPrefix(col, vehicleCostClassPrefix) {
			continue
		}
		class := strings.TrimSpace(strings.TrimPrefix(col, vehicleCostClassPrefix))
		if class == "" || idx >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[idx])
		if raw == "" {
			continue
		}
		v, err := parseFloat(raw)
		if err != nil {
			return nil, simerr.NewConfigError(simerr.KindBadValue, "eval: bad %s: %v", col, err)
		}
		if out == nil {
			out = make(map[string]float64)
		}
		out[class] = v
	}
	return out, nil
}

// ParseScenario reads the scenario table (§6): one "Traffic Multiplier"
// float per row; the k-th value applies at minute k*TrafficTimeGap.
func ParseScenario(r io.Reader) ([]float64, error) {
	t, err := readTable(r, "scenario")
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		raw, err := t.col(row, "Traffic Multiplier")
		if err != nil {
			return nil, err
		}
		if raw == "" {
			continue
		}
		v, err := parseFloat(raw)
		if err != nil {
			return nil, simerr.NewConfigError(simerr.KindBadValue, "scenario: bad Traffic Multiplier: %v", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func intCol(t *table, row []string, name string) (int, error) {
	raw, err := t.col(row, name)
	if err != nil {
		return 0, err
	}
	v, err := parseIntThousands(raw)
	if err != nil {
		return 0, simerr.NewConfigError(simerr.KindBadValue, "%s: bad %s: %v", t.name, name, err)
	}
	return v, nil
}

func floatCol(t *table, row []string, name string) (float64, error) {
	raw, err := t.col(row, name)
	if err != nil {
		return 0, err
	}
	v, err := parseFloat(raw)
	if err != nil {
		return 0, simerr.NewConfigError(simerr.KindBadValue, "%s: bad %s: %v", t.name, name, err)
	}
	return v, nil
}
