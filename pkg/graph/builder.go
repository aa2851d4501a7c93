package graph

import (
	"github.com/paulmach/osm"

	"github.com/azybler/streetsweep/pkg/geo"
	osmparser "github.com/azybler/streetsweep/pkg/osm"
)

// BuildConfig configures stage 2's direction-resolution policy (spec §4.2).
type BuildConfig struct {
	// IgnoreOneway, when true (the default, "Option A"), adds both
	// directions for every segment regardless of its oneway tag, because
	// sanitation vehicles are allowed to travel against traffic. When
	// false ("Option B"), the oneway tag is honored.
	IgnoreOneway bool
}

// DefaultBuildConfig returns the spec §6 default (ignore_oneway=true).
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{IgnoreOneway: true}
}

// forwardOnlyTags are oneway values that suppress the reverse edge under
// Option B. reverseOnlyTag inverts the forward edge instead of adding a
// second one. The original implementation this system was distilled from
// also checked a `-true` value; that was almost certainly a typo and is
// not replicated here (spec §9 open question, resolved).
var forwardOnlyTags = map[string]bool{"yes": true, "1": true, "true": true}

const reverseOnlyTag = "-1"

// Build constructs a RoadGraph from stage 1's segments, applying the
// edge-construction rule of spec §4.2.
func Build(result *osmparser.Result, cfg BuildConfig) *RoadGraph {
	if len(result.Segments) == 0 {
		return NewRoadGraph(0, nil, nil, nil)
	}

	nodeIdx := make(map[osm.NodeID]uint32)
	var origID []osm.NodeID

	index := func(id osm.NodeID) uint32 {
		if idx, ok := nodeIdx[id]; ok {
			return idx
		}
		idx := uint32(len(origID))
		nodeIdx[id] = idx
		origID = append(origID, id)
		return idx
	}

	for _, seg := range result.Segments {
		index(seg.From)
		index(seg.To)
	}

	numNodes := uint32(len(origID))
	lat := make([]float64, numNodes)
	lon := make([]float64, numNodes)
	for id, idx := range nodeIdx {
		n := result.Nodes[id]
		lat[idx] = n.Lat
		lon[idx] = n.Lon
	}

	g := NewRoadGraph(numNodes, origID, lat, lon)

	for _, seg := range result.Segments {
		a := nodeIdx[seg.From]
		b := nodeIdx[seg.To]

		aLat, aLon := lat[a], lon[a]
		bLat, bLon := lat[b], lon[b]
		length := geo.Haversine(aLat, aLon, bLat, bLon)

		reverseOnly := !cfg.IgnoreOneway && seg.Oneway == reverseOnlyTag
		forwardOnly := !cfg.IgnoreOneway && forwardOnlyTags[seg.Oneway]

		if reverseOnly {
			// The forward edge's direction is inverted: add B->A only.
			g.AddEdge(b, a, length, geo.Bearing(bLat, bLon, aLat, aLon), ProvenanceOriginal)
			continue
		}

		g.AddEdge(a, b, length, geo.Bearing(aLat, aLon, bLat, bLon), ProvenanceOriginal)
		if !forwardOnly {
			g.AddEdge(b, a, length, geo.Bearing(bLat, bLon, aLat, aLon), ProvenanceOriginal)
		}
	}

	return g
}
