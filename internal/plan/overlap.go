package plan

import "sort"

// OverlapPair records that nodes I and J declare intersecting write sets
// with no dependency edge between them, suggesting a blockedBy edge from
// J to I. J > I always holds.
type OverlapPair struct {
	I     int      `json:"i"`
	J     int      `json:"j"`
	Files []string `json:"files"`
}

// OverlapMatrix computes pairwise write-set intersections. Only pairs
// with j strictly greater than i are considered: wiring suggested edges
// in both directions would create a two-node cycle, so the ordering is a
// correctness invariant, not an optimization. Pairs already connected by
// a direct dependency edge in either direction are skipped because the
// edge already serializes them.
func OverlapMatrix(nodes []Node) []OverlapPair {
	writes := make([]map[string]bool, len(nodes))
	for i := range nodes {
		writes[i] = make(map[string]bool)
		for _, p := range nodes[i].WriteSet() {
			writes[i][p] = true
		}
	}

	var pairs []OverlapPair
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if hasEdge(nodes, i, j) || hasEdge(nodes, j, i) {
				continue
			}
			var shared []string
			for p := range writes[i] {
				if writes[j][p] {
					shared = append(shared, p)
				}
			}
			if len(shared) > 0 {
				sort.Strings(shared)
				pairs = append(pairs, OverlapPair{I: i, J: j, Files: shared})
			}
		}
	}
	return pairs
}

// hasEdge reports whether node from lists node to in its blockedBy set.
func hasEdge(nodes []Node, from, to int) bool {
	for _, dep := range nodes[from].BlockedBy {
		if dep == to {
			return true
		}
	}
	return false
}
