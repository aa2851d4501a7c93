// Package eulerize implements stage 4 of the pipeline: augmenting a
// directed multigraph with duplicate edges until every node's in-degree
// equals its out-degree, the precondition for an Eulerian circuit.
package eulerize

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/azybler/streetsweep/pkg/geo"
	"github.com/azybler/streetsweep/pkg/graph"
)

// Report summarizes the edges added during eulerization.
type Report struct {
	EdgesAdded      int
	DistanceAddedKm float64
	UnmatchedPairs  int
}

// neighbor is one undirected-projection adjacency entry: traversing it
// means using edge Edge, which may be walked against its stored
// direction (g.From[Edge], g.To[Edge]). The caller must track which way
// a hop was actually taken, since that is the direction the duplicate
// needs to face.
type neighbor struct {
	To   uint32
	Edge uint32
	Dist float64
}

// undirectedAdjacency builds a symmetric adjacency list over g's edges:
// each directed edge contributes a traversable link in both directions,
// since the shortest-path search in this stage ignores direction (spec
// §4.4). The direction actually walked is recovered separately by
// shortestPath, because the duplicate must be oriented the way the path
// traversed it, not the way the underlying edge happens to be stored.
func undirectedAdjacency(g *graph.RoadGraph) [][]neighbor {
	adj := make([][]neighbor, g.NumNodes)
	for e := range g.From {
		u, v := g.From[e], g.To[e]
		d := g.LengthKm[e]
		adj[u] = append(adj[u], neighbor{To: v, Edge: uint32(e), Dist: d})
		adj[v] = append(adj[v], neighbor{To: u, Edge: uint32(e), Dist: d})
	}
	return adj
}

// pqItem is a priority queue entry for the shortest-path search.
type pqItem struct {
	Node uint32
	Dist float64
}

// pathHeap is a concrete-typed min-heap, the same shape as the teacher's
// routing.MinHeap, adapted from uint32 to float64 distances.
type pathHeap struct {
	items []pqItem
}

func (h *pathHeap) Len() int { return len(h.items) }

func (h *pathHeap) Push(node uint32, dist float64) {
	h.items = append(h.items, pqItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *pathHeap) Pop() pqItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *pathHeap) Reset() {
	h.items = h.items[:0]
}

func (h *pathHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Dist >= h.items[parent].Dist {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *pathHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].Dist < h.items[smallest].Dist {
			smallest = left
		}
		if right < n && h.items[right].Dist < h.items[smallest].Dist {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// searchState holds reusable per-query state, reset via its touched
// list rather than a full re-zero, the same pattern as the teacher's
// routing.QueryState.
type searchState struct {
	Dist     []float64
	PredEdge []uint32 // edge used to reach this node; noEdge if none
	PredNode []uint32
	Touched  []uint32
	PQ       pathHeap
}

const noEdge = ^uint32(0)

func newSearchState(n uint32) *searchState {
	dist := make([]float64, n)
	predEdge := make([]uint32, n)
	predNode := make([]uint32, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		predEdge[i] = noEdge
		predNode[i] = noEdge
	}
	return &searchState{
		Dist:     dist,
		PredEdge: predEdge,
		PredNode: predNode,
		Touched:  make([]uint32, 0, 256),
	}
}

func (s *searchState) reset() {
	for _, n := range s.Touched {
		s.Dist[n] = math.Inf(1)
		s.PredEdge[n] = noEdge
		s.PredNode[n] = noEdge
	}
	s.Touched = s.Touched[:0]
	s.PQ.Reset()
}

// hop is one step of a reconstructed path: walking it means traversing
// Edge in the direction From->To, which may be the reverse of Edge's own
// stored (g.From[Edge], g.To[Edge]) orientation.
type hop struct {
	From, To uint32
	Edge     uint32
}

// shortestPath runs Dijkstra from `from` to `to` over the undirected
// projection, returning the sequence of hops to duplicate, each carrying
// the direction it was actually walked in. ok is false if no path
// exists.
func shortestPath(adj [][]neighbor, state *searchState, from, to uint32) ([]hop, bool) {
	state.reset()
	state.Dist[from] = 0
	state.Touched = append(state.Touched, from)
	state.PQ.Push(from, 0)

	for state.PQ.Len() > 0 {
		cur := state.PQ.Pop()
		if cur.Dist > state.Dist[cur.Node] {
			continue
		}
		if cur.Node == to {
			break
		}
		for _, nb := range adj[cur.Node] {
			nd := cur.Dist + nb.Dist
			if nd < state.Dist[nb.To] {
				if math.IsInf(state.Dist[nb.To], 1) {
					state.Touched = append(state.Touched, nb.To)
				}
				state.Dist[nb.To] = nd
				state.PredEdge[nb.To] = nb.Edge
				state.PredNode[nb.To] = cur.Node
				state.PQ.Push(nb.To, nd)
			}
		}
	}

	if math.IsInf(state.Dist[to], 1) {
		return nil, false
	}

	var hops []hop
	for n := to; n != from; {
		p := state.PredNode[n]
		hops = append(hops, hop{From: p, To: n, Edge: state.PredEdge[n]})
		n = p
	}
	// Reverse into from->to order.
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}
	return hops, true
}

// imbalance is one node's degree mismatch, used for the greedy
// surplus/deficit matching below.
type imbalance struct {
	Node      uint32
	Magnitude int
}

// Eulerize augments g in place (via graph.RoadGraph.AddEdge) until every
// node's in-degree equals its out-degree, following the greedy
// deficit/surplus matching of spec §4.4: sort both imbalance lists
// descending by magnitude, then peel k = min(need, have) duplicate
// shortest paths per pair.
func Eulerize(g *graph.RoadGraph) Report {
	inDeg, outDeg := g.Degrees()

	var needIncoming []imbalance // out > in: node needs more incoming edges
	var needOutgoing []imbalance // in > out: node needs more outgoing edges

	for v := uint32(0); v < g.NumNodes; v++ {
		d := outDeg[v] - inDeg[v]
		switch {
		case d > 0:
			needIncoming = append(needIncoming, imbalance{Node: v, Magnitude: d})
		case d < 0:
			needOutgoing = append(needOutgoing, imbalance{Node: v, Magnitude: -d})
		}
	}

	sort.Slice(needIncoming, func(i, j int) bool { return needIncoming[i].Magnitude > needIncoming[j].Magnitude })
	sort.Slice(needOutgoing, func(i, j int) bool { return needOutgoing[i].Magnitude > needOutgoing[j].Magnitude })

	adj := undirectedAdjacency(g)
	state := newSearchState(g.NumNodes)

	var report Report
	i, j := 0, 0
	for i < len(needIncoming) && j < len(needOutgoing) {
		surplus := &needIncoming[i] // wants incoming, i.e. a path ending here
		deficit := &needOutgoing[j] // wants outgoing, i.e. a path starting here

		k := surplus.Magnitude
		if deficit.Magnitude < k {
			k = deficit.Magnitude
		}

		hops, ok := shortestPath(adj, state, deficit.Node, surplus.Node)
		if !ok {
			log.Printf("eulerize: no path from node %d to node %d, skipping deficit pairing", deficit.Node, surplus.Node)
			report.UnmatchedPairs++
			j++
			continue
		}

		for rep := 0; rep < k; rep++ {
			for _, h := range hops {
				length := g.LengthKm[h.Edge]
				bearing := g.BearingDeg[h.Edge]
				if h.From != g.From[h.Edge] || h.To != g.To[h.Edge] {
					// Walked against the edge's stored orientation:
					// duplicate facing the way the path actually went,
					// recomputing the bearing for that direction.
					bearing = geo.Bearing(g.NodeLat[h.From], g.NodeLon[h.From], g.NodeLat[h.To], g.NodeLon[h.To])
				}
				g.AddEdge(h.From, h.To, length, bearing, graph.ProvenanceDuplicate)
				report.EdgesAdded++
				report.DistanceAddedKm += length
			}
		}

		surplus.Magnitude -= k
		deficit.Magnitude -= k
		if surplus.Magnitude == 0 {
			i++
		}
		if deficit.Magnitude == 0 {
			j++
		}
	}

	return report
}

// ErrNoCircuit is returned by callers that discover, after eulerization,
// that the graph still has imbalanced nodes (only possible if every
// remaining pairing attempt failed to find a path).
type ErrNoCircuit struct {
	ImbalancedNodes int
}

func (e *ErrNoCircuit) Error() string {
	return fmt.Sprintf("eulerize: %d nodes remain imbalanced after matching", e.ImbalancedNodes)
}

// Verify checks that g is now balanced at every node (in-degree equals
// out-degree), returning ErrNoCircuit if not.
func Verify(g *graph.RoadGraph) error {
	inDeg, outDeg := g.Degrees()
	bad := 0
	for v := uint32(0); v < g.NumNodes; v++ {
		if inDeg[v] != outDeg[v] {
			bad++
		}
	}
	if bad > 0 {
		return &ErrNoCircuit{ImbalancedNodes: bad}
	}
	return nil
}
