// Package pipeline orchestrates the six-stage route engine as a single
// synchronous operation: parse, build, select component, eulerize,
// solve, emit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/azybler/streetsweep/pkg/emit"
	"github.com/azybler/streetsweep/pkg/eulerize"
	"github.com/azybler/streetsweep/pkg/graph"
	"github.com/azybler/streetsweep/pkg/hierholzer"
	osmparser "github.com/azybler/streetsweep/pkg/osm"
)

// Config enumerates the six external options of spec §6.
type Config struct {
	HighwayInclude     map[string]bool
	ExcludedConditions []osmparser.TagValue
	IgnoreOneway       bool
	PreferRightTurns   bool
	StartNode          int // -1 means auto-select
	AverageSpeedKmh    float64

	TrackName string
}

// DefaultConfig returns the spec §6 default configuration.
func DefaultConfig() Config {
	osmCfg := osmparser.DefaultConfig()
	return Config{
		HighwayInclude:   osmCfg.HighwayInclude,
		IgnoreOneway:     true,
		PreferRightTurns: true,
		StartNode:        -1,
		AverageSpeedKmh:  30,
		TrackName:        "street-sweeping route",
	}
}

// InputError wraps a fatal I/O or structural-parse failure (spec §7).
type InputError struct{ Err error }

func (e *InputError) Error() string { return fmt.Sprintf("input error: %v", e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// ConfigError signals contradictory or out-of-domain configuration.
type ConfigError struct{ Reason string }

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %s", e.Reason) }

// ErrEmptyGraph is returned when no driveable ways were extracted, or
// the largest component has fewer than 2 nodes.
var ErrEmptyGraph = errors.New("pipeline: empty graph (no driveable ways, or largest component too small)")

// ErrCancelled is returned when the caller's context is cancelled
// between stages.
var ErrCancelled = errors.New("pipeline: cancelled")

// ProgressSink receives stage-completion callbacks. stats may be nil.
type ProgressSink func(stageTag string, percent int, message string, stats map[string]any)

// Result is the pipeline's return value: artifact paths plus the
// summary counts named in spec §6.
type Result struct {
	GPXPath    string
	ReportPath string

	Components  graph.ComponentsReport
	Diagnostics osmparser.Diagnostics
	Stats       emit.Stats
	EdgesAdded  int
	StartNode   uint32

	DeadEndSplices int
}

func report(sink ProgressSink, stage string, pct int, msg string, stats map[string]any) {
	log.Printf("pipeline: [%3d%%] %s: %s", pct, stage, msg)
	if sink != nil {
		sink(stage, pct, msg, stats)
	}
}

func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}

// Run executes the full pipeline against the OSM extract at path,
// writing the GPX track to gpxPath and the text report to reportPath.
func Run(ctx context.Context, path string, cfg Config, gpxPath, reportPath string, sink ProgressSink) (*Result, error) {
	if cfg.StartNode < -1 {
		return nil, &ConfigError{Reason: "start_node must be -1 (auto) or a non-negative node index"}
	}
	if len(cfg.HighwayInclude) == 0 {
		return nil, &ConfigError{Reason: "highway_include must not be empty"}
	}

	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	report(sink, "parsing", 10, "opening "+path, nil)

	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Err: err}
	}
	defer f.Close()

	osmCfg := osmparser.Config{
		HighwayInclude:     cfg.HighwayInclude,
		ExcludedConditions: cfg.ExcludedConditions,
	}
	result, err := osmparser.Extract(ctx, f, path, osmCfg)
	if err != nil {
		var unsupported *osmparser.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			return nil, err
		}
		return nil, &InputError{Err: err}
	}
	if len(result.Segments) == 0 {
		return nil, ErrEmptyGraph
	}
	if d := result.Diagnostics; d.SkippedWaysNotDriveable > 0 || d.SkippedWaysTooShort > 0 || d.SkippedNodesMissing > 0 {
		log.Printf("pipeline: diagnostics: %d ways not driveable, %d ways too short, %d segment endpoints missing coordinates",
			d.SkippedWaysNotDriveable, d.SkippedWaysTooShort, d.SkippedNodesMissing)
	}
	report(sink, "parsing", 20, fmt.Sprintf("extracted %d segments", len(result.Segments)), map[string]any{
		"segments":              len(result.Segments),
		"skipped_not_driveable": result.Diagnostics.SkippedWaysNotDriveable,
		"skipped_too_short":     result.Diagnostics.SkippedWaysTooShort,
		"skipped_nodes_missing": result.Diagnostics.SkippedNodesMissing,
	})

	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	buildCfg := graph.BuildConfig{IgnoreOneway: cfg.IgnoreOneway}
	g := graph.Build(result, buildCfg)
	report(sink, "graph_built", 40, fmt.Sprintf("%d nodes, %d edges", g.NumNodes, g.EdgeCount()), nil)

	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	componentsReport := graph.AnalyzeComponents(g)
	largest := graph.LargestComponent(g)
	if len(largest) < 2 {
		return nil, ErrEmptyGraph
	}
	g = graph.FilterToComponent(g, largest)
	report(sink, "components_analyzed", 60, fmt.Sprintf("largest component: %d nodes", g.NumNodes), map[string]any{
		"total_components": componentsReport.TotalComponents,
	})

	if cfg.StartNode >= 0 && uint32(cfg.StartNode) >= g.NumNodes {
		return nil, &ConfigError{Reason: "start_node is not a node of the largest component"}
	}

	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	eulerizeReport := eulerize.Eulerize(g)
	if err := eulerize.Verify(g); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	report(sink, "eulerized", 80, fmt.Sprintf("%d edges added", eulerizeReport.EdgesAdded), map[string]any{
		"edges_added": eulerizeReport.EdgesAdded,
	})

	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	hCfg := hierholzer.Config{StartNode: cfg.StartNode, PreferRightTurns: cfg.PreferRightTurns}
	circuit, err := hierholzer.Solve(g, hCfg)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	report(sink, "traversed", 90, fmt.Sprintf("circuit of %d edges", len(circuit.EdgeSeq)), nil)

	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	stats := emit.ComputeStats(g, circuit, cfg.AverageSpeedKmh)
	gpxData := emit.BuildGPX(g, circuit, cfg.TrackName)
	if err := emit.WriteAtomic(gpxPath, gpxData); err != nil {
		return nil, fmt.Errorf("pipeline: write gpx: %w", err)
	}

	excludedConds := make([]string, len(cfg.ExcludedConditions))
	for i, c := range cfg.ExcludedConditions {
		excludedConds[i] = fmt.Sprintf("%s=%s", c.Tag, c.Value)
	}
	includedHighways := make([]string, 0, len(cfg.HighwayInclude))
	for hw := range cfg.HighwayInclude {
		includedHighways = append(includedHighways, hw)
	}

	reportText := emit.BuildReport(emit.ReportInput{
		SourcePath:       path,
		OutputGPXPath:    gpxPath,
		IncludedHighways: includedHighways,
		ExcludedConds:    excludedConds,
		Components:       componentsReport,
		Diagnostics:      result.Diagnostics,
		Stats:            stats,
		EdgesAdded:       eulerizeReport.EdgesAdded,
		StartNode:        circuit.StartNode,
		StartNodeForced:  cfg.StartNode >= 0,
		IgnoreOneway:     cfg.IgnoreOneway,
	})
	if err := emit.WriteAtomic(reportPath, []byte(reportText)); err != nil {
		return nil, fmt.Errorf("pipeline: write report: %w", err)
	}

	report(sink, "done", 100, "pipeline complete", nil)

	return &Result{
		GPXPath:        gpxPath,
		ReportPath:     reportPath,
		Components:     componentsReport,
		Diagnostics:    result.Diagnostics,
		Stats:          stats,
		EdgesAdded:     eulerizeReport.EdgesAdded,
		StartNode:      circuit.StartNode,
		DeadEndSplices: circuit.DeadEndSplices,
	}, nil
}
