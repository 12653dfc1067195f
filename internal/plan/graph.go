package plan

import (
	"fmt"
	"sort"
)

// CycleError reports a dependency cycle. Members are the node indices
// that could not be ordered, sorted ascending.
type CycleError struct {
	Members []int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among nodes %v", e.Members)
}

// Waves computes each node's wave number via Kahn's algorithm: wave 1 for
// nodes with no dependencies, otherwise 1 + the maximum wave among
// blockedBy. Returns a CycleError naming the unresolvable nodes if the
// blockedBy relation is cyclic. Out-of-range indices are ignored rather
// than treated as edges.
func Waves(nodes []Node) ([]int, error) {
	n := len(nodes)
	indegree := make([]int, n)
	dependents := make([][]int, n)

	for i := range nodes {
		for _, dep := range nodes[i].BlockedBy {
			if dep < 0 || dep >= n || dep == i {
				continue
			}
			indegree[i]++
			dependents[dep] = append(dependents[dep], i)
		}
	}

	waves := make([]int, n)
	var queue []int
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			waves[i] = 1
			queue = append(queue, i)
		}
	}

	resolved := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		resolved++
		for _, next := range dependents[cur] {
			if waves[cur]+1 > waves[next] {
				waves[next] = waves[cur] + 1
			}
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if resolved < n {
		var members []int
		for i := 0; i < n; i++ {
			if indegree[i] > 0 {
				members = append(members, i)
			}
		}
		sort.Ints(members)
		return nil, &CycleError{Members: members}
	}
	return waves, nil
}

// MaxWave returns the deepest wave in the slice, or 0 for an empty plan.
func MaxWave(waves []int) int {
	max := 0
	for _, w := range waves {
		if w > max {
			max = w
		}
	}
	return max
}

// ReadySet returns the indices of all pending nodes whose every in-range
// blockedBy dependency is completed, ascending. This is the batch unit of
// dispatch.
func ReadySet(doc *Document) []int {
	var ready []int
	for i := range doc.Nodes {
		if doc.Nodes[i].Status != StatusPending {
			continue
		}
		ok := true
		for _, dep := range doc.Nodes[i].BlockedBy {
			if dep < 0 || dep >= len(doc.Nodes) || dep == i {
				continue
			}
			if doc.Nodes[dep].Status != StatusCompleted {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, i)
		}
	}
	return ready
}

// TransitiveDependents returns every node reachable from seed by
// following blockedBy edges in reverse (nodes that depend, directly or
// transitively, on seed). BFS over a prebuilt reverse adjacency.
func TransitiveDependents(nodes []Node, seed int) []int {
	n := len(nodes)
	dependents := make([][]int, n)
	for i := range nodes {
		for _, dep := range nodes[i].BlockedBy {
			if dep >= 0 && dep < n && dep != i {
				dependents[dep] = append(dependents[dep], i)
			}
		}
	}

	seen := make(map[int]bool)
	queue := []int{seed}
	var out []int
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range dependents[cur] {
			if !seen[next] {
				seen[next] = true
				out = append(out, next)
				queue = append(queue, next)
			}
		}
	}
	sort.Ints(out)
	return out
}
