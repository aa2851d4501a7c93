package hierholzer

import (
	"testing"

	"github.com/paulmach/osm"

	"github.com/azybler/streetsweep/pkg/graph"
)

func newGraph(numNodes uint32) *graph.RoadGraph {
	origID := make([]osm.NodeID, numNodes)
	lat := make([]float64, numNodes)
	lon := make([]float64, numNodes)
	for i := range origID {
		origID[i] = osm.NodeID(i + 1)
	}
	return graph.NewRoadGraph(numNodes, origID, lat, lon)
}

// TestChooseEdgePrefersRightTurn verifies property P7: given a choice of
// candidate edges, the walk prefers the lower-turn-cost (more
// right-hand) option.
func TestChooseEdgePrefersRightTurn(t *testing.T) {
	g := newGraph(3)
	right := g.AddEdge(0, 1, 1.0, 90, graph.ProvenanceOriginal)  // +90 from prevBearing 0: right turn
	left := g.AddEdge(0, 2, 1.0, 270, graph.ProvenanceOriginal) // -90 from prevBearing 0: left turn

	w := &walker{g: g, cfg: Config{PreferRightTurns: true}}
	w.remaining = [][]uint32{{right, left}, nil, nil}

	idx := w.chooseEdge(0, 0 /* prevBearing: due north */, true)
	if w.remaining[0][idx] != right {
		t.Errorf("chose edge %d, want the right-turn edge %d", w.remaining[0][idx], right)
	}
}

func TestChooseEdgeTieBreakLength(t *testing.T) {
	g := newGraph(3)
	// Equal turn cost (both straight ahead), differing length.
	shorter := g.AddEdge(0, 1, 1.0, 0, graph.ProvenanceOriginal)
	longer := g.AddEdge(0, 2, 5.0, 0, graph.ProvenanceOriginal)

	w := &walker{g: g, cfg: Config{PreferRightTurns: true}}
	w.remaining = [][]uint32{{longer, shorter}, nil, nil}

	idx := w.chooseEdge(0, 0, true)
	if w.remaining[0][idx] != shorter {
		t.Errorf("chose edge %d, want the shorter edge %d", w.remaining[0][idx], shorter)
	}
}

func TestChooseEdgeTieBreakTargetID(t *testing.T) {
	g := newGraph(4)
	toHigh := g.AddEdge(0, 3, 1.0, 0, graph.ProvenanceOriginal)
	toLow := g.AddEdge(0, 1, 1.0, 0, graph.ProvenanceOriginal)

	w := &walker{g: g, cfg: Config{PreferRightTurns: true}}
	w.remaining = [][]uint32{{toHigh, toLow}, nil, nil, nil}

	idx := w.chooseEdge(0, 0, true)
	if w.remaining[0][idx] != toLow {
		t.Errorf("chose edge %d, want the edge to the smaller target node %d", w.remaining[0][idx], toLow)
	}
}

func TestSolveSimpleCycle(t *testing.T) {
	g := newGraph(3)
	g.AddEdge(0, 1, 1.0, 90, graph.ProvenanceOriginal)
	g.AddEdge(1, 2, 1.0, 90, graph.ProvenanceOriginal)
	g.AddEdge(2, 0, 1.0, 90, graph.ProvenanceOriginal)

	circuit, err := Solve(g, Config{StartNode: 0, PreferRightTurns: true})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if len(circuit.EdgeSeq) != 3 {
		t.Fatalf("EdgeSeq length = %d, want 3", len(circuit.EdgeSeq))
	}
	if circuit.NodeSeq[0] != circuit.NodeSeq[len(circuit.NodeSeq)-1] {
		t.Error("circuit does not return to its start node")
	}
}

// TestSolveDeadEndSplice builds a graph where a greedy walk forced by a
// deterministic tie-break (no turn-cost bias) closes back to the start
// before consuming an entire side loop attached partway through,
// requiring exactly one dead-end splice.
func TestSolveDeadEndSplice(t *testing.T) {
	// X(0) -> S(1) -> A(2) -> X(0)   (outer loop)
	//         S(1) -> B(3) -> S(1)   (inner loop through S)
	g := newGraph(4)
	g.AddEdge(0, 1, 1.0, 0, graph.ProvenanceOriginal) // X->S
	g.AddEdge(1, 2, 1.0, 0, graph.ProvenanceOriginal) // S->A
	g.AddEdge(2, 0, 1.0, 0, graph.ProvenanceOriginal) // A->X
	g.AddEdge(1, 3, 1.0, 0, graph.ProvenanceOriginal) // S->B
	g.AddEdge(3, 1, 1.0, 0, graph.ProvenanceOriginal) // B->S

	circuit, err := Solve(g, Config{StartNode: 0, PreferRightTurns: false})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if len(circuit.EdgeSeq) != 5 {
		t.Fatalf("EdgeSeq length = %d, want 5", len(circuit.EdgeSeq))
	}
	if circuit.DeadEndSplices != 1 {
		t.Errorf("DeadEndSplices = %d, want 1", circuit.DeadEndSplices)
	}
	if circuit.NodeSeq[0] != circuit.NodeSeq[len(circuit.NodeSeq)-1] {
		t.Error("circuit does not return to its start node")
	}

	seen := make(map[uint32]bool)
	for _, e := range circuit.EdgeSeq {
		if seen[e] {
			t.Errorf("edge %d used more than once", e)
		}
		seen[e] = true
	}
	if len(seen) != 5 {
		t.Errorf("used %d distinct edges, want 5", len(seen))
	}
}

func TestSolveEmptyGraph(t *testing.T) {
	g := newGraph(0)
	circuit, err := Solve(g, DefaultConfig())
	if err != nil {
		t.Fatalf("Solve on empty graph returned error: %v", err)
	}
	if len(circuit.EdgeSeq) != 0 {
		t.Errorf("expected empty circuit, got %d edges", len(circuit.EdgeSeq))
	}
}

func TestPickStartNodeTieBreak(t *testing.T) {
	// Three nodes with equal in+out degree; smallest index must win.
	inDeg := []int{1, 1, 1}
	outDeg := []int{1, 1, 1}
	if got := pickStartNode(inDeg, outDeg); got != 0 {
		t.Errorf("pickStartNode = %d, want 0", got)
	}
}

func TestPickStartNodeHighestDegree(t *testing.T) {
	inDeg := []int{1, 3, 1}
	outDeg := []int{1, 3, 1}
	if got := pickStartNode(inDeg, outDeg); got != 1 {
		t.Errorf("pickStartNode = %d, want 1", got)
	}
}
