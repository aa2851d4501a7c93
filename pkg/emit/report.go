package emit

import (
	"fmt"
	"strings"

	"github.com/azybler/streetsweep/pkg/graph"
	osmparser "github.com/azybler/streetsweep/pkg/osm"
)

// ReportInput bundles everything the report needs from earlier pipeline
// stages. It does not hold a time of generation — that is the caller's
// responsibility to stamp, keeping this package free of wall-clock
// reads.
type ReportInput struct {
	SourcePath       string
	OutputGPXPath    string
	IncludedHighways []string
	ExcludedConds    []string

	Components  graph.ComponentsReport
	Diagnostics osmparser.Diagnostics

	Stats Stats

	EdgesAdded int

	StartNode       uint32
	StartNodeForced bool

	IgnoreOneway bool
}

// BuildReport renders the six-section plain-text report of spec §6,
// grounded on the section order of the original report generator:
// guarantees, included/excluded, route stats, turn analysis,
// eulerization additions, start-node method.
func BuildReport(in ReportInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Route report for %s\n\n", in.SourcePath)
	fmt.Fprintf(&b, "Output GPX: %s\n\n", in.OutputGPXPath)

	b.WriteString("## 1. What the GPX route guarantees\n\n")
	b.WriteString("- Single continuous track: YES — one <trk> with one <trkseg>, produced by a single\n")
	b.WriteString("  Eulerian circuit where the start node equals the end node.\n")
	b.WriteString("- Right-side curb coverage: each road segment was added to the graph as a forward/\n")
	b.WriteString("  reverse edge pair, and the circuit traverses both directions exactly once, so every\n")
	b.WriteString("  curb is passed with the truck on its right during one of the two passes.\n")
	b.WriteString("- Reduced left turns: at each junction with more than one remaining edge, the walk\n")
	b.WriteString("  picks the lowest turn-cost edge (right turns 0.5-1.0, straight 1.0, left turns 2.0-3.0,\n")
	b.WriteString("  U-turns 3.0+), so left turns and U-turns are taken only when no better edge remains.\n\n")

	b.WriteString("## 2. What was included / excluded\n\n")
	fmt.Fprintf(&b, "- Included highway tags: %s\n", strings.Join(in.IncludedHighways, ", "))
	b.WriteString("- Excluded conditions:\n")
	for _, cond := range in.ExcludedConds {
		fmt.Fprintf(&b, "  - %s\n", cond)
	}
	fmt.Fprintf(&b, "\n- Connected components found: %d\n", in.Components.TotalComponents)
	fmt.Fprintf(&b, "- Component chosen: largest component (%d nodes)\n", in.Components.LargestSize)
	fmt.Fprintf(&b, "- Unique segments total (all components): %d\n", in.Components.TotalUniqueSegments)
	fmt.Fprintf(&b, "- Nodes excluded (disconnected components): %d\n", in.Components.ExcludedNodeCount)
	if in.Components.NearestExcludedNodeKm >= 0 {
		fmt.Fprintf(&b, "- Nearest excluded component: %.3f km from the chosen component\n", in.Components.NearestExcludedNodeKm)
	}
	fmt.Fprintf(&b, "- Ways skipped (not driveable): %d\n", in.Diagnostics.SkippedWaysNotDriveable)
	fmt.Fprintf(&b, "- Ways skipped (fewer than 2 nodes): %d\n", in.Diagnostics.SkippedWaysTooShort)
	fmt.Fprintf(&b, "- Segment endpoints skipped (missing node coordinates): %d\n", in.Diagnostics.SkippedNodesMissing)
	b.WriteString("\n")

	b.WriteString("## 3. Route statistics\n\n")
	fmt.Fprintf(&b, "- Total distance: %.3f km\n", in.Stats.TotalDistanceKm)
	fmt.Fprintf(&b, "- Original road distance: %.3f km\n", in.Stats.OriginalDistanceKm)
	fmt.Fprintf(&b, "- Added (deadhead) distance: %.3f km\n", in.Stats.AddedDistanceKm)
	fmt.Fprintf(&b, "- Deadhead ratio: %.4f (added / original)\n", in.Stats.DeadheadRatio)
	if in.Stats.DriveTimeHours > 0 {
		fmt.Fprintf(&b, "- Estimated drive time: %.1f minutes (%.2f hours)\n", in.Stats.DriveTimeHours*60, in.Stats.DriveTimeHours)
	}
	b.WriteString("\n")

	b.WriteString("### Turn analysis\n\n")
	fmt.Fprintf(&b, "- Right turns: %d\n", in.Stats.Turns.Right)
	fmt.Fprintf(&b, "- Straight: %d\n", in.Stats.Turns.Straight)
	fmt.Fprintf(&b, "- Left turns: %d\n", in.Stats.Turns.Left)
	fmt.Fprintf(&b, "- U-turns: %d\n\n", in.Stats.Turns.UTurn)

	if in.EdgesAdded > 0 {
		b.WriteString("### Eulerian circuit construction\n\n")
		fmt.Fprintf(&b, "- Edges added for the Eulerian property: %d\n\n", in.EdgesAdded)
	}

	b.WriteString("### Start point selection\n\n")
	if in.StartNodeForced {
		fmt.Fprintf(&b, "- Start point: user-specified node %d\n\n", in.StartNode)
	} else {
		fmt.Fprintf(&b, "- Start point: node %d (highest total degree)\n\n", in.StartNode)
	}

	b.WriteString("## Notes\n\n")
	if in.IgnoreOneway {
		b.WriteString("- One-way restrictions ignored (Option A): both directions of every segment are\n")
		b.WriteString("  driven, preserving the twice-traversal rule for right-side collection.\n")
	} else {
		b.WriteString("- One-way restrictions honored (Option B): reverse edges were suppressed or\n")
		b.WriteString("  inverted per each segment's oneway tag.\n")
	}
	fmt.Fprintf(&b, "- Output saved to: %s\n", in.OutputGPXPath)

	return b.String()
}
