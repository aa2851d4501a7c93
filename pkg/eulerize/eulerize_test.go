package eulerize

import (
	"testing"

	"github.com/paulmach/osm"

	"github.com/azybler/streetsweep/pkg/graph"
)

// pathGraph builds a simple directed path 0->1->2->3 (no return edges),
// which is maximally imbalanced: node 0 has a deficit of incoming
// (out=1,in=0... actually out>in), node 3 has a deficit of outgoing.
func pathGraph() *graph.RoadGraph {
	origID := []osm.NodeID{1, 2, 3, 4}
	lat := []float64{1.30, 1.31, 1.32, 1.33}
	lon := []float64{103.80, 103.80, 103.80, 103.80}
	g := graph.NewRoadGraph(4, origID, lat, lon)
	g.AddEdge(0, 1, 1.0, 0, graph.ProvenanceOriginal)
	g.AddEdge(1, 2, 1.0, 0, graph.ProvenanceOriginal)
	g.AddEdge(2, 3, 1.0, 0, graph.ProvenanceOriginal)
	return g
}

func TestEulerizeBalancesPathGraph(t *testing.T) {
	g := pathGraph()
	report := Eulerize(g)

	if report.EdgesAdded == 0 {
		t.Fatal("expected edges to be added to balance the path graph")
	}
	if err := Verify(g); err != nil {
		t.Errorf("graph still imbalanced after eulerize: %v", err)
	}
}

func TestEulerizeDuplicatesMatchTraversalDirection(t *testing.T) {
	// Path 0->1->2->3: the deficit node is 3, the surplus node is 0, so
	// the augmenting path walks 3->2->1->0, against every edge's stored
	// direction. The duplicates must be added 3->2, 2->1, 1->0, not
	// 0->1, 1->2, 2->3 (which would double the imbalance instead of
	// fixing it).
	g := pathGraph()
	Eulerize(g)

	want := map[[2]uint32]int{{3, 2}: 1, {2, 1}: 1, {1, 0}: 1}
	for e := range g.From {
		if g.Provenance[e] != graph.ProvenanceDuplicate {
			continue
		}
		key := [2]uint32{g.From[e], g.To[e]}
		if _, ok := want[key]; !ok {
			t.Errorf("unexpected duplicate edge %d->%d", key[0], key[1])
			continue
		}
		want[key]--
	}
	for key, remaining := range want {
		if remaining != 0 {
			t.Errorf("expected duplicate edge %d->%d, missing", key[0], key[1])
		}
	}
}

func TestEulerizeAlreadyBalancedIsNoop(t *testing.T) {
	origID := []osm.NodeID{1, 2}
	lat := []float64{1.0, 1.01}
	lon := []float64{103.0, 103.0}
	g := graph.NewRoadGraph(2, origID, lat, lon)
	g.AddEdge(0, 1, 1.0, 0, graph.ProvenanceOriginal)
	g.AddEdge(1, 0, 1.0, 180, graph.ProvenanceOriginal)

	before := g.EdgeCount()
	report := Eulerize(g)
	if report.EdgesAdded != 0 {
		t.Errorf("expected no edges added for an already-balanced graph, got %d", report.EdgesAdded)
	}
	if g.EdgeCount() != before {
		t.Errorf("edge count changed on an already-balanced graph: %d -> %d", before, g.EdgeCount())
	}
}

func TestEulerizeDisconnectedReportsUnmatched(t *testing.T) {
	// Two disjoint components: 0->1 and 2->3<-4. Node 3 lacks two
	// outgoing edges, so the descending sort puts it first and the first
	// pairing tries to route from node 3 to node 0, across the gap where
	// no path exists.
	origID := []osm.NodeID{1, 2, 3, 4, 5}
	lat := []float64{1.0, 1.01, 2.0, 2.01, 2.02}
	lon := []float64{103.0, 103.0, 104.0, 104.0, 104.0}
	g := graph.NewRoadGraph(5, origID, lat, lon)
	g.AddEdge(0, 1, 1.0, 0, graph.ProvenanceOriginal)
	g.AddEdge(2, 3, 1.0, 0, graph.ProvenanceOriginal)
	g.AddEdge(4, 3, 1.0, 180, graph.ProvenanceOriginal)

	report := Eulerize(g)
	if report.UnmatchedPairs == 0 {
		t.Error("expected unmatched pairs to be reported for a disconnected graph")
	}
}

func TestVerifyDetectsImbalance(t *testing.T) {
	g := pathGraph()
	if err := Verify(g); err == nil {
		t.Error("expected Verify to report imbalance before eulerization")
	}
}
