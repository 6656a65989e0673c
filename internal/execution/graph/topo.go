package graph

import (
	"fmt"

	"github.com/animus-labs/rungraph/internal/execution/taskid"
)

// Topological returns the tasks in an execution order that respects every
// dependency. Ties are broken by emission order so the result is deterministic.
func Topological(g Graph) ([]taskid.ID, error) {
	rank := make(map[taskid.ID]int, len(g.Order))
	for i, id := range g.Order {
		rank[id] = i
	}

	inDegree := make(map[taskid.ID]int, len(g.Order))
	adj := make(map[taskid.ID][]taskid.ID, len(g.Order))
	for _, dep := range g.Dependencies {
		if _, ok := rank[dep.Parent]; !ok {
			return nil, fmt.Errorf("dependency parent %s is not a task", dep.Parent)
		}
		if _, ok := rank[dep.Child]; !ok {
			return nil, fmt.Errorf("dependency child %s is not a task", dep.Child)
		}
		adj[dep.Parent] = append(adj[dep.Parent], dep.Child)
		inDegree[dep.Child]++
	}

	ready := make([]taskid.ID, 0, len(g.Order))
	for _, id := range g.Order {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	ordered := make([]taskid.ID, 0, len(g.Order))
	for len(ready) > 0 {
		next := 0
		for i := range ready {
			if rank[ready[i]] < rank[ready[next]] {
				next = i
			}
		}
		id := ready[next]
		ready = append(ready[:next], ready[next+1:]...)
		ordered = append(ordered, id)
		for _, child := range adj[id] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(ordered) != len(g.Order) {
		return nil, fmt.Errorf("dependency graph contains a cycle")
	}
	return ordered, nil
}
