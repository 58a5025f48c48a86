// Package report renders evaluator.Result summaries to the console and,
// optionally, a timestamped CSV file — grounded on the teacher's
// sim.WriteCSVReport/PrintConsoleReport (per-bus distance/cost rows),
// generalized to the per-scenario seated/standing/waiting cost
// aggregates of spec §4.8.
package report

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"transitsim/internal/evaluator"
)

// round2 rounds to 2 decimal places for nicer display, matching the
// teacher's own rounding helper.
func round2(x float64) float64 { return math.Round(x*100) / 100 }

// PrintConsole prints a human-readable terminal summary for one
// scenario run (§6 "terminal summary string from the evaluator").
func PrintConsole(scenarioName string, r evaluator.Result) {
	fmt.Println("=== Simulation Report ===")
	if scenarioName != "" {
		fmt.Printf("Scenario: %s\n", scenarioName)
	}
	fmt.Printf("Ticks run: %d\n", r.Ticks)
	fmt.Printf("Passengers completed: %d\n", r.SuccessfulAgents)
	fmt.Printf("Passengers failed (unreachable destination): %d\n", r.FailedAgents)
	fmt.Printf("Seated passenger-minutes: %.1f\n", r.SeatedPassengerMinutes)
	fmt.Printf("Standing passenger-minutes: %.1f\n", r.StandingPassengerMinutes)
	fmt.Printf("Waiting passenger-minutes: %.1f\n", r.WaitingPassengerMinutes)
	fmt.Printf("Vehicle-hours: %.2f\n", r.VehicleHours)
	fmt.Printf("Max concurrent vehicles: %d\n", r.MaxConcurrentVehicles)
	fmt.Printf("Max concurrent passengers: %d\n", r.MaxConcurrentPassengers)
	fmt.Printf("Total cost: %.2f\n", round2(r.TotalCost))
	fmt.Printf("Average cost per agent: %.4f\n", r.AverageCostPerAgent)
}

// WriteCSV writes a new CSV report with a header row and one row per
// scenario, and returns the path written. If path is a
// directory, a timestamped file is created inside it; if it names a
// file, a timestamp is suffixed before the extension — mirroring the
// teacher's WriteCSVReport path handling exactly.
func WriteCSV(path string, results map[string]evaluator.Result) (string, error) {
	if path == "" {
		return "", nil
	}
	ts := time.Now().Format("20060102-150405")
	outPath := path
	if fi, err := os.Stat(outPath); err == nil && fi.IsDir() {
		outPath = filepath.Join(outPath, fmt.Sprintf("report-%s.csv", ts))
	} else {
		ext := filepath.Ext(outPath)
		base := outPath[:len(outPath)-len(ext)]
		outPath = fmt.Sprintf("%s-%s%s", base, ts, ext)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fmt.Fprintln(f, "scenario,ticks,successful_agents,failed_agents,seated_pax_min,standing_pax_min,waiting_pax_min,vehicle_hours,max_concurrent_vehicles,max_concurrent_passengers,total_cost,avg_cost_per_agent,timestamp")
	for name, r := range results {
		fmt.Fprintf(f, "%s,%d,%d,%d,%.1f,%.1f,%.1f,%.2f,%d,%d,%.2f,%.4f,%s\n",
			name, r.Ticks, r.SuccessfulAgents, r.FailedAgents,
			round2(r.SeatedPassengerMinutes), round2(r.StandingPassengerMinutes), round2(r.WaitingPassengerMinutes),
			round2(r.VehicleHours), r.MaxConcurrentVehicles, r.MaxConcurrentPassengers,
			round2(r.TotalCost), r.AverageCostPerAgent, ts)
	}
	log.Printf("CSV report written to %s", outPath)
	return outPath, nil
}
