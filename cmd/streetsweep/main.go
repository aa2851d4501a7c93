// Command streetsweep turns an OSM extract into a street-sweeping GPX
// route: parse, build graph, pick the largest connected component,
// eulerize, solve an Eulerian circuit, and emit a GPX track plus a
// Markdown report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/azybler/streetsweep/pkg/pipeline"
)

func main() {
	input := flag.String("input", "", "Path to .osm or .osm.pbf extract")
	outGPX := flag.String("out-gpx", "route.gpx", "Output GPX track path")
	outReport := flag.String("out-report", "report.md", "Output Markdown report path")
	highwayInclude := flag.String("highway-include", "", "Comma-separated highway tag values to include (default: the built-in driveable set)")
	ignoreOneway := flag.Bool("ignore-oneway", true, "Treat all ways as bidirectional, ignoring oneway tags")
	preferRightTurns := flag.Bool("prefer-right-turns", true, "Prefer right turns when the circuit walk has a choice of edges")
	startNode := flag.Int("start-node", -1, "Force the circuit to start at this node index (-1 = auto-select)")
	avgSpeedKmh := flag.Float64("avg-speed-kmh", 30, "Average driving speed, for the estimated drive time")
	trackName := flag.String("track-name", "street-sweeping route", "GPX track name")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: streetsweep --input <file.osm[.pbf]> [--out-gpx route.gpx] [--out-report report.md]")
		os.Exit(1)
	}

	cfg := pipeline.DefaultConfig()
	cfg.IgnoreOneway = *ignoreOneway
	cfg.PreferRightTurns = *preferRightTurns
	cfg.StartNode = *startNode
	cfg.AverageSpeedKmh = *avgSpeedKmh
	cfg.TrackName = *trackName

	if *highwayInclude != "" {
		include := make(map[string]bool)
		for _, hw := range strings.Split(*highwayInclude, ",") {
			hw = strings.TrimSpace(hw)
			if hw != "" {
				include[hw] = true
			}
		}
		cfg.HighwayInclude = include
	}

	start := time.Now()
	sink := func(stage string, pct int, msg string, stats map[string]any) {
		log.Printf("[%3d%%] %s: %s (%s elapsed)", pct, stage, msg, time.Since(start).Round(time.Millisecond))
	}

	result, err := pipeline.Run(context.Background(), *input, cfg, *outGPX, *outReport, sink)
	if err != nil {
		log.Fatalf("streetsweep: %v", err)
	}

	log.Printf("Done in %s. GPX: %s, report: %s", time.Since(start).Round(time.Millisecond), result.GPXPath, result.ReportPath)
	log.Printf("Circuit: %d edges added, %d dead-end splices, start node %d",
		result.EdgesAdded, result.DeadEndSplices, result.StartNode)
}
