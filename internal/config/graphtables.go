package config

import (
	"io"

	"transitsim/internal/graph"
	"transitsim/internal/simerr"
)

// ParseNodes reads the nodes table (§6): Name, Location ("lat, lon"),
// Daily Passengers.
func ParseNodes(r io.Reader) ([]graph.NodeSpec, error) {
	t, err := readTable(r, "nodes")
	if err != nil {
		return nil, err
	}
	specs := make([]graph.NodeSpec, 0, len(t.rows))
	for _, row := range t.rows {
		name, err := t.col(row, "Name")
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}
		loc, err := t.col(row, "Location")
		if err != nil {
			return nil, err
		}
		lat, lon, err := parseCoordinate(loc)
		if err != nil {
			return nil, err
		}
		dpRaw, err := t.col(row, "Daily Passengers")
		if err != nil {
			return nil, err
		}
		dp, err := parseIntThousands(dpRaw)
		if err != nil {
			return nil, simerr.NewConfigError(simerr.KindBadValue, "node %q: bad Daily Passengers: %v", name, err)
		}
		specs = append(specs, graph.NodeSpec{
			Name:            name,
			Latitude:        lat,
			Longitude:       lon,
			DailyPassengers: float64(dp),
		})
	}
	return specs, nil
}

// ParseEdges reads the edges table (§6): Start, End, Time,
// Bidirectional. A "Yes" bidirectional row expands to two EdgeSpecs
// (§3 "bidirectional input rows expand to two directed edges").
func ParseEdges(r io.Reader) ([]graph.EdgeSpec, error) {
	t, err := readTable(r, "edges")
	if err != nil {
		return nil, err
	}
	specs := make([]graph.EdgeSpec, 0, len(t.rows))
	for _, row := range t.rows {
		start, err := t.col(row, "Start")
		if err != nil {
			return nil, err
		}
		end, err := t.col(row, "End")
		if err != nil {
			return nil, err
		}
		if start == "" && end == "" {
			continue
		}
		timeRaw, err := t.col(row, "Time")
		if err != nil {
			return nil, err
		}
		minutes, err := strconvAtoiOrConfigError(timeRaw, start, end)
		if err != nil {
			return nil, err
		}
		biRaw, err := t.col(row, "Bidirectional")
		if err != nil {
			return nil, err
		}
		specs = append(specs, graph.EdgeSpec{Start: start, End: end, TravelTime: minutes})
		if parseYesNo(biRaw) {
			specs = append(specs, graph.EdgeSpec{Start: end, End: start, TravelTime: minutes})
		}
	}
	return specs, nil
}

func strconvAtoiOrConfigError(raw, start, end string) (int, error) {
	v, err := parseIntThousands(raw)
	if err != nil {
		return 0, simerr.NewConfigError(simerr.KindBadValue, "edge %s to %s: bad Time: %v", start, end, err)
	}
	return v, nil
}
