// Package graph implements stages 2-3 of the pipeline: turning parsed OSM
// segments into a directed multigraph and selecting its largest weakly
// connected component. Stage 4 (package eulerize) augments the graph
// through AddEdge.
package graph

import "github.com/paulmach/osm"

// Duplicate edge provenance (spec §3, DirectedEdge.provenance).
const (
	ProvenanceOriginal = iota
	ProvenanceDuplicate
)

// RoadGraph is the pipeline's native directed multigraph. Node ids are
// dense 0..NumNodes-1 indices (spec §9); parallel edges between the same
// (from, to) pair are legal and semantically distinct. Edges may be
// appended (never removed or mutated) after stage 2, via AddEdge, which
// is how stage 4 augments the graph. The adjacency index (Out) is an
// intrusive, index-based list so the Hierholzer traversal in stage 5
// never needs a hash-map lookup in its hot loop.
type RoadGraph struct {
	NumNodes uint32

	// OrigID maps a dense node index back to its source OSM node id, and
	// NodeLat/NodeLon hold its coordinates. Both are immutable after
	// construction.
	OrigID  []osm.NodeID
	NodeLat []float64
	NodeLon []float64

	// Parallel edge arrays, indexed by edge id.
	From       []uint32
	To         []uint32
	LengthKm   []float64
	BearingDeg []float64
	Provenance []int

	// Out[u] lists the edge ids of edges originating at node u, in the
	// order they were added.
	Out [][]uint32
}

// NewRoadGraph allocates an empty graph sized for numNodes.
func NewRoadGraph(numNodes uint32, origID []osm.NodeID, lat, lon []float64) *RoadGraph {
	return &RoadGraph{
		NumNodes: numNodes,
		OrigID:   origID,
		NodeLat:  lat,
		NodeLon:  lon,
		Out:      make([][]uint32, numNodes),
	}
}

// EdgeCount returns the number of edges currently in the graph.
func (g *RoadGraph) EdgeCount() int {
	return len(g.From)
}

// AddEdge appends a new directed edge u->v and returns its edge id.
func (g *RoadGraph) AddEdge(u, v uint32, lengthKm, bearingDeg float64, provenance int) uint32 {
	id := uint32(len(g.From))
	g.From = append(g.From, u)
	g.To = append(g.To, v)
	g.LengthKm = append(g.LengthKm, lengthKm)
	g.BearingDeg = append(g.BearingDeg, bearingDeg)
	g.Provenance = append(g.Provenance, provenance)
	g.Out[u] = append(g.Out[u], id)
	return id
}

// OutDegree returns the number of edges originating at node u.
func (g *RoadGraph) OutDegree(u uint32) int {
	return len(g.Out[u])
}

// InDegree computes the number of edges terminating at node u. Callers
// doing this for every node should use Degrees instead, which is O(|E|)
// total rather than O(|V|*|E|).
func (g *RoadGraph) InDegree(u uint32) int {
	n := 0
	for _, v := range g.To {
		if v == u {
			n++
		}
	}
	return n
}

// Degrees returns in-degree and out-degree for every node in one O(|V|+|E|)
// pass.
func (g *RoadGraph) Degrees() (inDeg, outDeg []int) {
	inDeg = make([]int, g.NumNodes)
	outDeg = make([]int, g.NumNodes)
	for u := uint32(0); u < g.NumNodes; u++ {
		outDeg[u] = len(g.Out[u])
	}
	for _, v := range g.To {
		inDeg[v]++
	}
	return inDeg, outDeg
}
