// Package hierholzer implements stage 5 of the pipeline: walking a
// balanced (Eulerized) directed multigraph into a single circuit that
// traverses every edge exactly once, preferring right turns at each
// junction (spec §4.5).
package hierholzer

import (
	"fmt"

	"github.com/azybler/streetsweep/pkg/geo"
	"github.com/azybler/streetsweep/pkg/graph"
)

// InternalError signals that the walk exceeded its safety bound of
// 2*|E| steps without completing — a sign of a bug in edge bookkeeping,
// since a correctly Eulerized, connected graph always admits a circuit
// in at most |E| steps.
type InternalError struct {
	Steps int
	Edges int
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("hierholzer: exceeded safety bound (%d steps for %d edges)", e.Steps, e.Edges)
}

// Circuit is the traversal order produced by Solve: NodeSeq has one more
// entry than EdgeSeq, and NodeSeq[0] == NodeSeq[len(NodeSeq)-1].
type Circuit struct {
	NodeSeq        []uint32
	EdgeSeq        []uint32
	StartNode      uint32
	DeadEndSplices int
}

// Config controls start-node selection and turn preference.
type Config struct {
	// StartNode, if non-negative, forces the walk to begin there.
	// Otherwise the node with the highest in+out degree is chosen,
	// ties broken by smallest node index.
	StartNode int

	// PreferRightTurns enables the turn-cost-aware edge selection of
	// spec §4.5. When false, edge choice at each junction falls back to
	// the tie-break rule alone (shorter length, then smaller target
	// id), with no turn-angle bias.
	PreferRightTurns bool
}

// DefaultConfig returns the spec §6 default (no forced start node,
// right-turn preference enabled).
func DefaultConfig() Config {
	return Config{StartNode: -1, PreferRightTurns: true}
}

// pickStartNode returns the node with the highest in+out degree,
// ties broken by the smallest node index (ascending scan keeps the
// first node seen at a given score, since ties only update on strict
// improvement).
func pickStartNode(inDeg, outDeg []int) uint32 {
	best := uint32(0)
	bestScore := -1
	for v := 0; v < len(inDeg); v++ {
		score := inDeg[v] + outDeg[v]
		if score > bestScore {
			bestScore = score
			best = uint32(v)
		}
	}
	return best
}

// walker holds the mutable consumption state shared across the main
// walk and every splice sub-walk.
type walker struct {
	g                *graph.RoadGraph
	remaining        [][]uint32 // remaining[u]: unused out-edge ids at u
	cfg              Config
	steps            int
	maxSteps         int
	totalEdges       int
}

// chooseEdge scans u's remaining out-edges and returns the index (into
// remaining[u]) of the best one: lowest turn cost from prevBearing
// (if hasPrev and PreferRightTurns), ties broken by shorter length then
// smaller target node id.
func (w *walker) chooseEdge(u uint32, prevBearing float64, hasPrev bool) int {
	candidates := w.remaining[u]
	best := 0
	bestCost := 0.0
	bestLen := w.g.LengthKm[candidates[0]]
	bestTo := w.g.To[candidates[0]]
	if hasPrev && w.cfg.PreferRightTurns {
		bestCost = geo.TurnCost(geo.TurnAngle(prevBearing, w.g.BearingDeg[candidates[0]]))
	}

	for i := 1; i < len(candidates); i++ {
		e := candidates[i]
		cost := 0.0
		if hasPrev && w.cfg.PreferRightTurns {
			cost = geo.TurnCost(geo.TurnAngle(prevBearing, w.g.BearingDeg[e]))
		}
		length := w.g.LengthKm[e]
		to := w.g.To[e]

		switch {
		case cost < bestCost:
			best, bestCost, bestLen, bestTo = i, cost, length, to
		case cost == bestCost && length < bestLen:
			best, bestCost, bestLen, bestTo = i, cost, length, to
		case cost == bestCost && length == bestLen && to < bestTo:
			best, bestCost, bestLen, bestTo = i, cost, length, to
		}
	}
	return best
}

// consumeBest picks and removes the best remaining edge at u (swap with
// the last element for O(1) removal, per spec §9's index-stack
// guidance) and returns its id.
func (w *walker) consumeBest(u uint32, prevBearing float64, hasPrev bool) uint32 {
	idx := w.chooseEdge(u, prevBearing, hasPrev)
	edges := w.remaining[u]
	e := edges[idx]
	last := len(edges) - 1
	edges[idx] = edges[last]
	w.remaining[u] = edges[:last]
	return e
}

// walk performs a greedy turn-aware walk starting at `from`, consuming
// edges until `from` has no remaining out-edges. In a graph where every
// node's in-degree equals its out-degree, such a walk can only get
// stuck back at its own starting node (the classic Hierholzer
// invariant), never anywhere else.
func (w *walker) walk(from uint32) (nodes []uint32, edges []uint32, err error) {
	cur := from
	nodes = append(nodes, cur)
	hasPrev := false
	var prevBearing float64

	for len(w.remaining[cur]) > 0 {
		w.steps++
		if w.steps > w.maxSteps {
			return nil, nil, &InternalError{Steps: w.steps, Edges: w.totalEdges}
		}

		e := w.consumeBest(cur, prevBearing, hasPrev)
		next := w.g.To[e]
		prevBearing = w.g.BearingDeg[e]
		hasPrev = true

		edges = append(edges, e)
		nodes = append(nodes, next)
		cur = next
	}
	return nodes, edges, nil
}

// Solve computes the Eulerian circuit of g, which must already be
// balanced (see package eulerize).
func Solve(g *graph.RoadGraph, cfg Config) (*Circuit, error) {
	totalEdges := g.EdgeCount()
	if totalEdges == 0 {
		return &Circuit{}, nil
	}

	inDeg, outDeg := g.Degrees()

	var start uint32
	if cfg.StartNode >= 0 {
		start = uint32(cfg.StartNode)
	} else {
		start = pickStartNode(inDeg, outDeg)
	}

	remaining := make([][]uint32, g.NumNodes)
	for u := range g.Out {
		remaining[u] = append([]uint32(nil), g.Out[u]...)
	}

	w := &walker{
		g:          g,
		remaining:  remaining,
		cfg:        cfg,
		maxSteps:   2 * totalEdges,
		totalEdges: totalEdges,
	}

	nodes, edges, err := w.walk(start)
	if err != nil {
		return nil, err
	}

	circuit := &Circuit{NodeSeq: nodes, EdgeSeq: edges, StartNode: start}

	for len(circuit.EdgeSeq) < totalEdges {
		splice := -1
		for _, n := range circuit.NodeSeq {
			if len(w.remaining[n]) > 0 {
				splice = int(n)
				break
			}
		}
		if splice == -1 {
			return nil, &InternalError{Steps: w.steps, Edges: totalEdges}
		}

		subNodes, subEdges, err := w.walk(uint32(splice))
		if err != nil {
			return nil, err
		}

		circuit.NodeSeq, circuit.EdgeSeq = spliceIn(circuit.NodeSeq, circuit.EdgeSeq, uint32(splice), subNodes, subEdges)
		circuit.DeadEndSplices++
	}

	return circuit, nil
}

// spliceIn inserts a sub-circuit (subNodes/subEdges, which starts and
// ends at spliceNode) into the main circuit at spliceNode's first
// occurrence.
func spliceIn(nodes, edges []uint32, spliceNode uint32, subNodes, subEdges []uint32) ([]uint32, []uint32) {
	pos := -1
	for i, n := range nodes {
		if n == spliceNode {
			pos = i
			break
		}
	}

	newNodes := make([]uint32, 0, len(nodes)+len(subNodes)-1)
	newNodes = append(newNodes, nodes[:pos+1]...)
	newNodes = append(newNodes, subNodes[1:]...)
	newNodes = append(newNodes, nodes[pos+1:]...)

	newEdges := make([]uint32, 0, len(edges)+len(subEdges))
	newEdges = append(newEdges, edges[:pos]...)
	newEdges = append(newEdges, subEdges...)
	newEdges = append(newEdges, edges[pos:]...)

	return newNodes, newEdges
}
