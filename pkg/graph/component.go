package graph

import (
	"sort"

	"github.com/paulmach/osm"
	"github.com/tidwall/rtree"

	"github.com/azybler/streetsweep/pkg/geo"
)

// UnionFind is a disjoint-set structure over dense node indices, using
// path halving and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []uint8
}

// NewUnionFind allocates a UnionFind over n singleton sets.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	for i := range parent {
		parent[i] = uint32(i)
	}
	return &UnionFind{parent: parent, rank: make([]uint8, n)}
}

// Find returns x's representative, halving the path as it walks up.
func (u *UnionFind) Find(x uint32) uint32 {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// Union merges the sets containing x and y.
func (u *UnionFind) Union(x, y uint32) {
	rx, ry := u.Find(x), u.Find(y)
	if rx == ry {
		return
	}
	if u.rank[rx] < u.rank[ry] {
		rx, ry = ry, rx
	}
	u.parent[ry] = rx
	if u.rank[rx] == u.rank[ry] {
		u.rank[rx]++
	}
}

// ComponentsReport summarizes the weakly connected component analysis of
// spec §4.3.
type ComponentsReport struct {
	TotalComponents     int
	Sizes               []int
	LargestSize         int
	ExcludedNodeCount   int
	TotalUniqueSegments int

	// NearestExcludedNodeKm is the distance from the chosen (largest)
	// component to the nearest node of any excluded component, or -1 if
	// there is only one component.
	NearestExcludedNodeKm float64
}

// componentsOf runs the union-find pass and groups node indices by
// component representative.
func componentsOf(g *RoadGraph) map[uint32][]uint32 {
	uf := NewUnionFind(g.NumNodes)
	for i := range g.From {
		uf.Union(g.From[i], g.To[i])
	}
	groups := make(map[uint32][]uint32)
	for v := uint32(0); v < g.NumNodes; v++ {
		r := uf.Find(v)
		groups[r] = append(groups[r], v)
	}
	return groups
}

// LargestComponent returns the node indices of the largest weakly
// connected component. Ties are broken by the smallest minimum node
// index in the component (the teacher breaks ties by size only, with no
// documented rule for equal sizes; this repo's rule is deterministic).
func LargestComponent(g *RoadGraph) []uint32 {
	groups := componentsOf(g)
	return pickLargest(groups)
}

func pickLargest(groups map[uint32][]uint32) []uint32 {
	var best []uint32
	bestMinID := ^uint32(0)
	for _, nodes := range groups {
		minID := nodes[0]
		for _, n := range nodes {
			if n < minID {
				minID = n
			}
		}
		switch {
		case best == nil:
			best, bestMinID = nodes, minID
		case len(nodes) > len(best):
			best, bestMinID = nodes, minID
		case len(nodes) == len(best) && minID < bestMinID:
			best, bestMinID = nodes, minID
		}
	}
	return best
}

// AnalyzeComponents computes the full ComponentsReport for g, including
// the nearest-excluded-component detail backed by tidwall/rtree.
func AnalyzeComponents(g *RoadGraph) ComponentsReport {
	groups := componentsOf(g)

	sizes := make([]int, 0, len(groups))
	for _, nodes := range groups {
		sizes = append(sizes, len(nodes))
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))

	largest := pickLargest(groups)
	largestRep := uint32(0)
	for rep, nodes := range groups {
		if len(nodes) == len(largest) && nodes[0] == largest[0] {
			largestRep = rep
			break
		}
	}

	excludedNodes := 0
	for rep, nodes := range groups {
		if rep != largestRep {
			excludedNodes += len(nodes)
		}
	}

	totalUniqueSegments := len(g.From) / 2

	report := ComponentsReport{
		TotalComponents:       len(groups),
		Sizes:                 sizes,
		LargestSize:           len(largest),
		ExcludedNodeCount:     excludedNodes,
		TotalUniqueSegments:   totalUniqueSegments,
		NearestExcludedNodeKm: -1,
	}

	if len(groups) > 1 {
		report.NearestExcludedNodeKm = nearestExcludedDistance(g, groups, largestRep)
	}

	return report
}

// nearestExcludedDistance indexes every excluded component's nodes as
// points in an R-tree, then, for each node of the chosen component,
// grows a lon/lat search box in 0.01 degree steps (up to 0.5 degrees)
// until it contains an excluded node. If no excluded node lies within
// that range of any chosen node, every chosen/excluded pair is compared
// directly.
func nearestExcludedDistance(g *RoadGraph, groups map[uint32][]uint32, largestRep uint32) float64 {
	var tr rtree.RTreeG[uint32]

	for rep, nodes := range groups {
		if rep == largestRep {
			continue
		}
		for _, n := range nodes {
			p := [2]float64{g.NodeLon[n], g.NodeLat[n]}
			tr.Insert(p, p, n)
		}
	}

	chosen := groups[largestRep]

	best := -1.0
	const stepDeg = 0.01
	const maxSteps = 50

	for _, cn := range chosen {
		clat, clon := g.NodeLat[cn], g.NodeLon[cn]

		for step := 1; step <= maxSteps; step++ {
			radius := stepDeg * float64(step)
			min := [2]float64{clon - radius, clat - radius}
			max := [2]float64{clon + radius, clat + radius}

			found := false
			tr.Search(min, max, func(_, _ [2]float64, n uint32) bool {
				found = true
				d := geo.Haversine(clat, clon, g.NodeLat[n], g.NodeLon[n])
				if best < 0 || d < best {
					best = d
				}
				return true
			})
			if found {
				break
			}
		}
	}

	if best < 0 {
		for rep, nodes := range groups {
			if rep == largestRep {
				continue
			}
			for _, n := range nodes {
				for _, cn := range chosen {
					d := geo.Haversine(g.NodeLat[cn], g.NodeLon[cn], g.NodeLat[n], g.NodeLon[n])
					if best < 0 || d < best {
						best = d
					}
				}
			}
		}
	}

	return best
}

// FilterToComponent rebuilds a RoadGraph containing only the given node
// indices and the edges between them, with nodes renumbered densely in
// their original relative order.
func FilterToComponent(g *RoadGraph, nodes []uint32) *RoadGraph {
	keep := make(map[uint32]bool, len(nodes))
	for _, n := range nodes {
		keep[n] = true
	}

	sorted := append([]uint32(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	remap := make(map[uint32]uint32, len(sorted))
	origID := make([]osm.NodeID, len(sorted))
	lat := make([]float64, len(sorted))
	lon := make([]float64, len(sorted))
	for newIdx, oldIdx := range sorted {
		remap[oldIdx] = uint32(newIdx)
		lat[newIdx] = g.NodeLat[oldIdx]
		lon[newIdx] = g.NodeLon[oldIdx]
		origID[newIdx] = g.OrigID[oldIdx]
	}

	out := NewRoadGraph(uint32(len(sorted)), origID, lat, lon)

	for i := range g.From {
		u, v := g.From[i], g.To[i]
		if !keep[u] || !keep[v] {
			continue
		}
		out.AddEdge(remap[u], remap[v], g.LengthKm[i], g.BearingDeg[i], g.Provenance[i])
	}

	return out
}
