package graph

import (
	"testing"

	"github.com/paulmach/osm"
)

// twoComponentGraph builds a 5-node graph: nodes 0-2 form a connected
// triangle-ish component, nodes 3-4 form a disconnected pair.
func twoComponentGraph() *RoadGraph {
	origID := []osm.NodeID{1, 2, 3, 4, 5}
	lat := []float64{1.30, 1.31, 1.32, 2.00, 2.01}
	lon := []float64{103.80, 103.80, 103.80, 104.50, 104.50}
	g := NewRoadGraph(5, origID, lat, lon)

	g.AddEdge(0, 1, 1.0, 0, ProvenanceOriginal)
	g.AddEdge(1, 0, 1.0, 180, ProvenanceOriginal)
	g.AddEdge(1, 2, 1.0, 0, ProvenanceOriginal)
	g.AddEdge(2, 1, 1.0, 180, ProvenanceOriginal)

	g.AddEdge(3, 4, 1.0, 0, ProvenanceOriginal)
	g.AddEdge(4, 3, 1.0, 180, ProvenanceOriginal)

	return g
}

func TestUnionFindBasic(t *testing.T) {
	uf := NewUnionFind(5)
	uf.Union(0, 1)
	uf.Union(1, 2)
	uf.Union(3, 4)

	if uf.Find(0) != uf.Find(2) {
		t.Error("0 and 2 should be in the same set")
	}
	if uf.Find(0) == uf.Find(3) {
		t.Error("0 and 3 should be in different sets")
	}
}

func TestLargestComponent(t *testing.T) {
	g := twoComponentGraph()
	largest := LargestComponent(g)
	if len(largest) != 3 {
		t.Fatalf("largest component size = %d, want 3", len(largest))
	}
}

func TestLargestComponentTieBreak(t *testing.T) {
	// Two equal-size components: {0,1} and {2,3}. The one containing the
	// smallest node index (0) must win.
	origID := []osm.NodeID{10, 11, 12, 13}
	lat := []float64{1.0, 1.01, 2.0, 2.01}
	lon := []float64{103.0, 103.0, 104.0, 104.0}
	g := NewRoadGraph(4, origID, lat, lon)
	g.AddEdge(0, 1, 1.0, 0, ProvenanceOriginal)
	g.AddEdge(1, 0, 1.0, 180, ProvenanceOriginal)
	g.AddEdge(2, 3, 1.0, 0, ProvenanceOriginal)
	g.AddEdge(3, 2, 1.0, 180, ProvenanceOriginal)

	largest := LargestComponent(g)
	foundZero := false
	for _, n := range largest {
		if n == 0 {
			foundZero = true
		}
	}
	if !foundZero {
		t.Error("expected the component containing node 0 to win the tie")
	}
}

func TestAnalyzeComponents(t *testing.T) {
	g := twoComponentGraph()
	report := AnalyzeComponents(g)

	if report.TotalComponents != 2 {
		t.Errorf("TotalComponents = %d, want 2", report.TotalComponents)
	}
	if report.LargestSize != 3 {
		t.Errorf("LargestSize = %d, want 3", report.LargestSize)
	}
	if report.ExcludedNodeCount != 2 {
		t.Errorf("ExcludedNodeCount = %d, want 2", report.ExcludedNodeCount)
	}
	if report.NearestExcludedNodeKm < 0 {
		t.Error("expected a non-negative nearest-excluded distance with 2 components")
	}
}

func TestAnalyzeComponentsSingleComponent(t *testing.T) {
	origID := []osm.NodeID{1, 2}
	lat := []float64{1.0, 1.01}
	lon := []float64{103.0, 103.0}
	g := NewRoadGraph(2, origID, lat, lon)
	g.AddEdge(0, 1, 1.0, 0, ProvenanceOriginal)
	g.AddEdge(1, 0, 1.0, 180, ProvenanceOriginal)

	report := AnalyzeComponents(g)
	if report.TotalComponents != 1 {
		t.Errorf("TotalComponents = %d, want 1", report.TotalComponents)
	}
	if report.NearestExcludedNodeKm != -1 {
		t.Errorf("NearestExcludedNodeKm = %v, want -1 for a single component", report.NearestExcludedNodeKm)
	}
}

func TestFilterToComponent(t *testing.T) {
	g := twoComponentGraph()
	largest := LargestComponent(g)
	filtered := FilterToComponent(g, largest)

	if filtered.NumNodes != 3 {
		t.Fatalf("filtered NumNodes = %d, want 3", filtered.NumNodes)
	}
	if filtered.EdgeCount() != 4 {
		t.Fatalf("filtered EdgeCount = %d, want 4", filtered.EdgeCount())
	}
	for _, id := range filtered.OrigID {
		if id == 4 || id == 5 {
			t.Errorf("excluded node %d leaked into filtered graph", id)
		}
	}
}
