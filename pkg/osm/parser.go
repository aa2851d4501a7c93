// Package osm implements stage 1 of the pipeline: extracting driveable
// ways and their node coordinates from an OSM XML or PBF extract.
package osm

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

// Node is a geographic point, immutable once extracted.
type Node struct {
	ID  osm.NodeID
	Lat float64
	Lon float64
}

// Way is a source-level polyline: an ordered node reference list plus its
// tag map, retained only if it passed the driveability predicate.
type Way struct {
	ID      osm.WayID
	NodeIDs []osm.NodeID
	Tags    osm.Tags
}

// Segment is a single consecutive (node, node) pair from a driveable way,
// carrying its parent way's oneway tag value verbatim. Direction
// resolution is deferred to the Graph Builder (package graph).
type Segment struct {
	From   osm.NodeID
	To     osm.NodeID
	Oneway string
}

// Diagnostics counts recoverable per-element problems encountered during
// extraction. None of these are fatal; they are surfaced to the caller
// for reporting.
type Diagnostics struct {
	SkippedWaysNotDriveable int
	SkippedWaysTooShort     int
	SkippedNodesMissing     int
}

// Result is the output of stage 1.
type Result struct {
	Nodes       map[osm.NodeID]Node
	Ways        map[osm.WayID]Way
	Segments    []Segment
	Diagnostics Diagnostics
}

// Config configures the driveability predicate (spec §4.1).
type Config struct {
	// HighwayInclude is the set of `highway` tag values retained.
	HighwayInclude map[string]bool
	// ExcludedConditions are additional "tag=value" pairs that exclude a
	// way outright, checked in addition to the built-in access/service
	// rules below.
	ExcludedConditions []TagValue
}

// TagValue is a single "tag=value" exclusion condition.
type TagValue struct {
	Tag   string
	Value string
}

// nonDriveable is the fixed set of highway values that are never
// driveable, regardless of HighwayInclude (spec §4.1).
var nonDriveable = map[string]bool{
	"footway":    true,
	"cycleway":   true,
	"steps":      true,
	"path":       true,
	"track":      true,
	"pedestrian": true,
}

// DefaultConfig returns the spec §6 default driveability configuration.
func DefaultConfig() Config {
	return Config{
		HighwayInclude: map[string]bool{
			"residential":  true,
			"unclassified": true,
			"service":      true,
			"tertiary":     true,
			"secondary":    true,
		},
	}
}

// driveable implements the spec §4.1 predicate.
func driveable(tags osm.Tags, cfg Config) bool {
	hw := tags.Find("highway")
	if hw == "" || !cfg.HighwayInclude[hw] {
		return false
	}
	if nonDriveable[hw] {
		return false
	}

	if svc := tags.Find("service"); svc == "parking_aisle" || svc == "parking" {
		return false
	}

	if access := tags.Find("access"); access == "private" || access == "no" || access == "restricted" {
		return false
	}

	for _, cond := range cfg.ExcludedConditions {
		if tags.Find(cond.Tag) == cond.Value {
			return false
		}
	}

	return true
}

// Extract reads an OSM extract and returns the driveable ways, their node
// coordinates, and derived segments. The format is selected by the file
// extension: ".osm"/".xml" for OSM XML, ".pbf" for OSM PBF. rs is
// consumed twice (rewound for a second pass), so it must be a seekable
// reader.
func Extract(ctx context.Context, rs io.ReadSeeker, path string, cfg Config) (*Result, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".osm", ".xml":
		return extract(ctx, rs, cfg, func(ctx context.Context, r io.Reader) osm.Scanner {
			return osmxml.New(ctx, r)
		})
	case ".pbf":
		return extract(ctx, rs, cfg, func(ctx context.Context, r io.Reader) osm.Scanner {
			return osmpbf.New(ctx, r, 1)
		})
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}
}

// UnsupportedFormatError is returned when the input's extension does not
// map to a supported OSM format (.osm, .xml or .pbf). The PBF reader is
// compiled in, so a ".pbf" input never produces this error.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("osm: unsupported input format %q", e.Ext)
}

// extract runs the shared two-pass scan (ways, then nodes) against a
// scanner built by newScanner, which differs only in XML vs PBF framing.
func extract(ctx context.Context, rs io.ReadSeeker, cfg Config, newScanner func(context.Context, io.Reader) osm.Scanner) (*Result, error) {
	var diag Diagnostics

	// Pass 1: scan ways, keep driveable ones, collect referenced node IDs.
	referenced := make(map[osm.NodeID]struct{})
	ways := make(map[osm.WayID]Way)

	scanner := newScanner(ctx, rs)
	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !driveable(w.Tags, cfg) {
			diag.SkippedWaysNotDriveable++
			continue
		}
		if len(w.Nodes) < 2 {
			diag.SkippedWaysTooShort++
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referenced[wn.ID] = struct{}{}
		}
		ways[w.ID] = Way{ID: w.ID, NodeIDs: nodeIDs, Tags: w.Tags}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()
	log.Printf("osm: pass 1 complete: %d driveable ways, %d referenced nodes", len(ways), len(referenced))

	// Pass 2: scan nodes, keep coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodes := make(map[osm.NodeID]Node, len(referenced))
	scanner = newScanner(ctx, rs)
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; !needed {
			continue
		}
		nodes[n.ID] = Node{ID: n.ID, Lat: n.Lat, Lon: n.Lon}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()
	log.Printf("osm: pass 2 complete: %d node coordinates collected", len(nodes))

	// Build segments, skipping any whose endpoints lack coordinates
	// (malformed/truncated extract — recovered, not fatal).
	var segments []Segment
	for _, w := range ways {
		oneway := w.Tags.Find("oneway")
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			from, to := w.NodeIDs[i], w.NodeIDs[i+1]
			if _, ok := nodes[from]; !ok {
				diag.SkippedNodesMissing++
				continue
			}
			if _, ok := nodes[to]; !ok {
				diag.SkippedNodesMissing++
				continue
			}
			segments = append(segments, Segment{From: from, To: to, Oneway: oneway})
		}
	}
	if diag.SkippedNodesMissing > 0 {
		log.Printf("osm: warning: skipped %d segment endpoints with missing coordinates", diag.SkippedNodesMissing)
	}
	log.Printf("osm: built %d segments from %d ways", len(segments), len(ways))

	return &Result{Nodes: nodes, Ways: ways, Segments: segments, Diagnostics: diag}, nil
}
