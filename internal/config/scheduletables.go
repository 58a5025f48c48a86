package config

import (
	"io"
	"strings"

	"transitsim/internal/graph"
	"transitsim/internal/itinerary"
	"transitsim/internal/simerr"
)

// ItineraryRow is one row of the schedule table (simple or complex
// form), before it has been resolved into an itinerary.Template — that
// resolution needs the built graph (simple form) or the segment table
// (complex form), both of which are only available after ParseNodes/
// ParseEdges/graph.Build have run.
type ItineraryRow struct {
	Name         string
	Gap          int // headway minutes
	Offset       int // first dispatch minute
	Finish       int // last allowed dispatch minute
	Nodes        []string // populated for schedule_type=simple
	SegmentNames []string // populated for schedule_type=complex
	VehicleClass string   // optional (§12); threaded into itinerary.Template.VehicleClass, consulted by evaluator.Costs.VehicleCostPerHourByClass
}

func parseScheduleCommon(t *table, row []string) (ItineraryRow, error) {
	name, err := t.col(row, "Name")
	if err != nil {
		return ItineraryRow{}, err
	}
	gapRaw, err := t.col(row, "Gap")
	if err != nil {
		return ItineraryRow{}, err
	}
	offsetRaw, err := t.col(row, "Offset")
	if err != nil {
		return ItineraryRow{}, err
	}
	finishRaw, err := t.col(row, "Finish")
	if err != nil {
		return ItineraryRow{}, err
	}
	gap, err := parseIntThousands(gapRaw)
	if err != nil {
		return ItineraryRow{}, simerr.NewConfigError(simerr.KindBadValue, "schedule %q: bad Gap: %v", name, err)
	}
	offset, err := parseIntThousands(offsetRaw)
	if err != nil {
		return ItineraryRow{}, simerr.NewConfigError(simerr.KindBadValue, "schedule %q: bad Offset: %v", name, err)
	}
	finish, err := parseIntThousands(finishRaw)
	if err != nil {
		return ItineraryRow{}, simerr.NewConfigError(simerr.KindBadValue, "schedule %q: bad Finish: %v", name, err)
	}
	ir := ItineraryRow{Name: name, Gap: gap, Offset: offset, Finish: finish}
	if cls, ok := t.optCol(row, "Vehicle Class"); ok {
		ir.VehicleClass = cls
	}
	return ir, nil
}

// ParseScheduleSimple reads the simple schedule table (§6): Name, Gap,
// Offset, Finish, Schedule (comma-separated node names).
func ParseScheduleSimple(r io.Reader) ([]ItineraryRow, error) {
	t, err := readTable(r, "schedule")
	if err != nil {
		return nil, err
	}
	out := make([]ItineraryRow, 0, len(t.rows))
	for _, row := range t.rows {
		ir, err := parseScheduleCommon(t, row)
		if err != nil {
			return nil, err
		}
		if ir.Name == "" {
			continue
		}
		sched, err := t.col(row, "Schedule")
		if err != nil {
			return nil, err
		}
		ir.Nodes = splitList(sched)
		out = append(out, ir)
	}
	return out, nil
}

// ParseScheduleComplex reads the complex schedule table (§6): as
// above, but "Schedule Segments" names segments (resolved against the
// segments table by ParseSegments/BuildItineraries) instead of nodes
// directly.
func ParseScheduleComplex(r io.Reader) ([]ItineraryRow, error) {
	t, err := readTable(r, "schedule")
	if err != nil {
		return nil, err
	}
	out := make([]ItineraryRow, 0, len(t.rows))
	for _, row := range t.rows {
		ir, err := parseScheduleCommon(t, row)
		if err != nil {
			return nil, err
		}
		if ir.Name == "" {
			continue
		}
		segs, err := t.col(row, "Schedule Segments")
		if err != nil {
			return nil, err
		}
		ir.SegmentNames = splitList(segs)
		out = append(out, ir)
	}
	return out, nil
}

// ParseSegments reads the segments table (§6): Route ("A-B"), optional
// Modifier, Schedule (comma-separated node names). Every row also
// auto-generates a reverse segment "B-A" with the reversed node list
// and the same Modifier verbatim (§6, §9 open question — reverse
// uniqueness is the caller's responsibility and is enforced here as a
// ConfigError on collision).
func ParseSegments(r io.Reader) (map[string][]string, error) {
	t, err := readTable(r, "segments")
	if err != nil {
		return nil, err
	}
	segs := make(map[string][]string, len(t.rows)*2)
	for _, row := range t.rows {
		route, err := t.col(row, "Route")
		if err != nil {
			return nil, err
		}
		if route == "" {
			continue
		}
		modifier, _ := t.optCol(row, "Modifier")
		schedRaw, err := t.col(row, "Schedule")
		if err != nil {
			return nil, err
		}
		nodes := splitList(schedRaw)
		if len(nodes) == 0 {
			return nil, simerr.NewConfigError(simerr.KindZeroLengthItin, "segment %q has no stops", route)
		}

		fwdKey := segmentKey(route, modifier)
		if _, dup := segs[fwdKey]; dup {
			return nil, simerr.NewConfigError(simerr.KindDuplicateSegment, "duplicate segment name %q", fwdKey)
		}
		segs[fwdKey] = nodes

		revRoute, err := reverseRouteName(route)
		if err != nil {
			return nil, err
		}
		revKey := segmentKey(revRoute, modifier)
		if _, dup := segs[revKey]; dup {
			return nil, simerr.NewConfigError(simerr.KindDuplicateSegment, "auto-generated reverse segment %q collides with an existing segment", revKey)
		}
		segs[revKey] = reverseStrings(nodes)
	}
	return segs, nil
}

func segmentKey(route, modifier string) string {
	if modifier == "" {
		return route
	}
	return route + " " + modifier
}

func reverseRouteName(route string) (string, error) {
	parts := strings.SplitN(route, "-", 2)
	if len(parts) != 2 {
		return "", simerr.NewConfigError(simerr.KindBadValue, "segment route %q is not in \"A-B\" form", route)
	}
	return parts[1] + "-" + parts[0], nil
}

func reverseStrings(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// BuildItineraries resolves every ItineraryRow into an itinerary.Template
// against the already-built graph, dispatching on scheduleType
// ("simple" uses row.Nodes directly; "complex" joins row.SegmentNames
// via segments, failing with KindUnknownSegment if a name is
// undeclared).
func BuildItineraries(g *graph.Graph, scheduleType string, rows []ItineraryRow, segments map[string][]string) ([]*itinerary.Template, error) {
	out := make([]*itinerary.Template, 0, len(rows))
	for _, row := range rows {
		var (
			t   *itinerary.Template
			err error
		)
		if scheduleType == "complex" {
			nodeLists := make([][]string, len(row.SegmentNames))
			for i, name := range row.SegmentNames {
				nodes, ok := segments[name]
				if !ok {
					return nil, simerr.NewConfigError(simerr.KindUnknownSegment, "schedule %q references unknown segment %q", row.Name, name)
				}
				nodeLists[i] = nodes
			}
			t, err = itinerary.BuildFromSegments(row.Name, nodeLists, row.Offset, row.Gap, row.Finish, g, row.VehicleClass)
		} else {
			t, err = itinerary.Build(row.Name, row.Nodes, row.Offset, row.Gap, row.Finish, g, row.VehicleClass)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
