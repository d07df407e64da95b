package layout

import (
	"slices"

	"github.com/stepgraph/stepgraph/pkg/graph"
)

// Cluster improves vertical alignment by nudging each node toward the mean
// y-position of its positioned parents, divided by squeeze so the move is
// partial rather than a snap.
//
// The pass is a single breadth-first sweep starting at the head's
// grandchildren (the head and its direct children stay anchored); each node
// is visited once, reading whatever parent positions are current when it is
// reached. Parents with no point in the map are stale references left by
// earlier node deletions - they are pruned from the graph as they are found
// rather than treated as errors.
//
// Nodes missing their own point are skipped and reported in the returned
// slice so the caller can log the inconsistency; the pass itself never
// fails on a partial snapshot.
func Cluster(g *graph.Graph, head string, points map[string]*Point, squeeze int) []string {
	if squeeze < 1 {
		squeeze = DefaultSqueeze
	}

	var missing []string
	visited := make(map[string]struct{})

	var wave []string
	for _, c := range g.Children(head) {
		for _, gc := range g.Children(c) {
			if !slices.Contains(wave, gc) {
				wave = append(wave, gc)
			}
		}
	}

	for len(wave) > 0 {
		var next []string
		for _, id := range wave {
			if _, done := visited[id]; done {
				continue
			}
			visited[id] = struct{}{}

			pt, ok := points[id]
			if !ok {
				missing = append(missing, id)
				continue
			}

			var stale []string
			sampleSize, totalParentY := 0, 0
			for _, parent := range g.Parents(id) {
				pp, ok := points[parent]
				if !ok {
					stale = append(stale, parent)
					continue
				}
				if !pp.Pos().Fixed() {
					continue // not yet positioned; leave the edge alone
				}
				sampleSize++
				totalParentY += pp.Pos().Y
			}
			for _, parent := range stale {
				g.RemoveEdge(parent, id)
			}

			if sampleSize > 0 && pt.Pos().Fixed() {
				pt.nudgeY((totalParentY/sampleSize - pt.Pos().Y) / squeeze)
			}

			for _, c := range g.Children(id) {
				if !slices.Contains(next, c) {
					next = append(next, c)
				}
			}
		}
		wave = next
	}

	return missing
}
