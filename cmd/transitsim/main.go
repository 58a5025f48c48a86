// Command transitsim runs the discrete-time public-transport network
// simulator end to end: loads the seven CSV contract tables (§6),
// builds the graph and gravity-model OD matrix, assembles itinerary
// templates (simple or complex schedules), optimises headways, and
// runs the per-minute tick loop for one or more traffic scenarios,
// printing an evaluator summary for each — following the teacher's
// flag-driven main.go (one flag.X per tunable, parsed once in main)
// minus its HTTP/SSE half (real-time networking is a spec non-goal).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"transitsim/internal/config"
	"transitsim/internal/demand"
	"transitsim/internal/engine"
	"transitsim/internal/evaluator"
	"transitsim/internal/graph"
	"transitsim/internal/headway"
	"transitsim/internal/itinerary"
	"transitsim/internal/logsink"
	"transitsim/internal/network"
	"transitsim/internal/report"
	"transitsim/internal/router"
	"transitsim/internal/simerr"
)

func main() {
	nodesPath := flag.String("nodes", "data/nodes.csv", "path to the nodes CSV table")
	edgesPath := flag.String("edges", "data/edges.csv", "path to the edges CSV table")
	schedulePath := flag.String("schedule", "data/schedule.csv", "path to the schedule CSV table")
	segmentsPath := flag.String("segments", "", "path to the segments CSV table (required when schedule_type=complex)")
	parametersPath := flag.String("parameters", "data/parameters.csv", "path to the parameters CSV table")
	evalPath := flag.String("eval", "data/eval.csv", "path to the eval CSV table")
	scenarioPaths := flag.String("scenario", "data/scenario.csv", "comma-separated paths to one or more scenario CSV tables")
	scheduleType := flag.String("schedule_type", "simple", "schedule assembly path: simple|complex")
	optimiserFlag := flag.String("optimiser", "hardcoded", "headway source: hardcoded|henry_convex")
	verbose := flag.Int("verbose", 0, "diagnostic detail: 0|1|2")
	seed := flag.Int64("seed", 30699, "PRNG seed (§5 reference value)")
	alpha := flag.Float64("alpha", 2.0, "gravity model distance exponent")
	beta := flag.Float64("beta", 0.0, "gravity model flat distance (minutes)")
	reportPath := flag.String("report", "", "if set, write a CSV report to this file or directory (timestamp appended)")
	flag.Parse()

	logrus.SetLevel(logrusLevelFor(*verbose))

	g, od, templates, params, costs, err := setup(setupArgs{
		nodesPath:      *nodesPath,
		edgesPath:      *edgesPath,
		schedulePath:   *schedulePath,
		segmentsPath:   *segmentsPath,
		parametersPath: *parametersPath,
		evalPath:       *evalPath,
		scheduleType:   *scheduleType,
		alpha:          *alpha,
		beta:           *beta,
	})
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"nodes":       g.NumNodes(),
		"itineraries": len(templates),
	}).Info("network built")

	servingCount := computeServingCount(templates)
	optMode := headway.Mode(*optimiserFlag)
	verbosity := verbosityFor(*verbose)

	scenarios := strings.Split(*scenarioPaths, ",")
	results := make(map[string]evaluator.Result, len(scenarios))
	for _, sp := range scenarios {
		sp = strings.TrimSpace(sp)
		if sp == "" {
			continue
		}
		r, err := runScenario(g, templates, params, costs, servingCount, optMode, sp, *seed, verbosity, od)
		if err != nil {
			log.Fatalf("scenario %s: %v", sp, err)
		}
		results[sp] = r
		report.PrintConsole(sp, r)
	}

	if *reportPath != "" {
		if _, err := report.WriteCSV(*reportPath, results); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}
}

type setupArgs struct {
	nodesPath, edgesPath, schedulePath, segmentsPath, parametersPath, evalPath, scheduleType string
	alpha, beta                                                                              float64
}

// setup loads the static, scenario-independent configuration: the
// graph, the gravity-model OD matrix, and the itinerary templates.
func setup(a setupArgs) (*graph.Graph, *mat.Dense, []*itinerary.Template, config.Parameters, evaluator.Costs, error) {
	var zeroParams config.Parameters
	var zeroCosts evaluator.Costs

	nodeSpecs, err := parseFile(a.nodesPath, config.ParseNodes)
	if err != nil {
		return nil, nil, nil, zeroParams, zeroCosts, err
	}
	edgeSpecs, err := parseFile(a.edgesPath, config.ParseEdges)
	if err != nil {
		return nil, nil, nil, zeroParams, zeroCosts, err
	}
	g, err := graph.Build(nodeSpecs, edgeSpecs)
	if err != nil {
		return nil, nil, nil, zeroParams, zeroCosts, err
	}

	dist, _, err := g.AllPairsShortest()
	if err != nil {
		return nil, nil, nil, zeroParams, zeroCosts, err
	}
	totals := make([]float64, g.NumNodes())
	for _, n := range g.Nodes() {
		totals[n.ID] = n.DailyPassengers
	}
	od, assignErr := demand.Assign(totals, totals, dist, demand.DefaultParams(a.alpha, a.beta))
	if assignErr != nil {
		var nonConv *simerr.NonConvergenceWarning
		if !errors.As(assignErr, &nonConv) {
			return nil, nil, nil, zeroParams, zeroCosts, assignErr
		}
		logrus.Warn(nonConv.Error())
	}

	var rows []config.ItineraryRow
	var segments map[string][]string
	if a.scheduleType == "complex" {
		if a.segmentsPath == "" {
			return nil, nil, nil, zeroParams, zeroCosts, fmt.Errorf("schedule_type=complex requires -segments")
		}
		segments, err = parseFile(a.segmentsPath, config.ParseSegments)
		if err != nil {
			return nil, nil, nil, zeroParams, zeroCosts, err
		}
		rows, err = parseFile(a.schedulePath, config.ParseScheduleComplex)
	} else {
		rows, err = parseFile(a.schedulePath, config.ParseScheduleSimple)
	}
	if err != nil {
		return nil, nil, nil, zeroParams, zeroCosts, err
	}
	templates, err := config.BuildItineraries(g, a.scheduleType, rows, segments)
	if err != nil {
		return nil, nil, nil, zeroParams, zeroCosts, err
	}

	params, err := parseFile(a.parametersPath, config.ParseParameters)
	if err != nil {
		return nil, nil, nil, zeroParams, zeroCosts, err
	}
	costs, err := parseFile(a.evalPath, config.ParseEval)
	if err != nil {
		return nil, nil, nil, zeroParams, zeroCosts, err
	}

	return g, od, templates, params, costs, nil
}

// runScenario builds a fresh dispatcher/network/router/engine for one
// scenario file and runs it to completion, returning the evaluator
// summary. Templates are shared across scenarios (immutable shape),
// but HeadwayMinutes may be rewritten per scenario by the headway
// optimiser, whose weighted-demand input depends on that scenario's
// mean traffic multiplier (§4.3, §12 multi-scenario batch).
func runScenario(g *graph.Graph, templates []*itinerary.Template, params config.Parameters, costs evaluator.Costs,
	servingCount map[graph.NodeID]int, optMode headway.Mode, scenarioPath string, seed int64, verbosity logsink.Verbosity,
	od *mat.Dense) (evaluator.Result, error) {

	multipliers, err := parseFile(scenarioPath, config.ParseScenario)
	if err != nil {
		return evaluator.Result{}, err
	}
	meanMult := meanOf(multipliers)

	dispatchers := make([]*itinerary.Dispatcher, len(templates))
	for i, t := range templates {
		h := t.HeadwayMinutes
		if optMode == headway.SquareRoot {
			w := headway.WeightedDemand(t, g, servingCount, meanMult)
			h = headway.Optimise(headway.SquareRoot, t, w, headway.Costs{
				VehicleCostPerHour:      costs.VehicleCostPerHour,
				AgentCostWaitingPerHour: costs.AgentCostWaitingPerHour,
			})
		}
		d := itinerary.NewDispatcher(t)
		d.SetHeadway(h)
		dispatchers[i] = d
	}

	net := network.BuildNetwork(g, templates, dispatchers)
	rtr := router.New(g.NumNodes(), templates)

	cfg := engine.Config{
		TrafficMultiplier: multipliers,
		TrafficTimeGap:    params.TrafficTimeGap,
		SeatedCapacity:    params.SeatedCapacity,
		StandingCapacity:  params.StandingCapacity,
		Seed:              seed,
	}
	eng := engine.New(g, net, templates, dispatchers, rtr, od, cfg)
	ev := evaluator.New(costs, params.SeatedCapacity)
	lg := logsink.New(nil, verbosity)
	eng.Run(ev, lg)
	return ev.Result(), nil
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 1
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// computeServingCount counts, for each node, how many distinct
// itineraries serve it — the "even split" denominator in the headway
// optimiser's weighted-demand formula (§4.3).
func computeServingCount(templates []*itinerary.Template) map[graph.NodeID]int {
	out := make(map[graph.NodeID]int)
	for _, t := range templates {
		seen := make(map[graph.NodeID]bool, len(t.Nodes))
		for _, n := range t.Nodes {
			if seen[n] {
				continue
			}
			seen[n] = true
			out[n]++
		}
	}
	return out
}

func parseFile[T any](path string, parse func(r io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f)
}

func verbosityFor(v int) logsink.Verbosity {
	switch {
	case v >= 2:
		return logsink.Verbose
	case v == 1:
		return logsink.Normal
	default:
		return logsink.Quiet
	}
}

func logrusLevelFor(v int) logrus.Level {
	switch {
	case v >= 2:
		return logrus.TraceLevel
	case v == 1:
		return logrus.InfoLevel
	default:
		return logrus.WarnLevel
	}
}
