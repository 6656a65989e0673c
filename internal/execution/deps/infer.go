package deps

import (
	"github.com/animus-labs/rungraph/internal/execution/taskid"
	"github.com/animus-labs/rungraph/internal/execution/tasks"
)

// Dependency means Parent must complete before Child may start.
type Dependency struct {
	Parent taskid.ID
	Child  taskid.ID
}

// Chains groups task ids by the container they touch, keeping the order of all.
// The second result lists containers in the order they were first touched.
func Chains(all []tasks.Task) (map[string][]taskid.ID, []string) {
	chains := make(map[string][]taskid.ID)
	order := make([]string, 0)
	for _, task := range all {
		for _, ref := range task.Resources() {
			if _, seen := chains[ref]; !seen {
				order = append(order, ref)
			}
			chains[ref] = append(chains[ref], task.TaskID())
		}
	}
	return chains, order
}

// Infer links every consecutive pair of tasks touching the same container. A
// container touched N times yields N-1 edges. Tasks sharing several containers
// are linked once.
func Infer(all []tasks.Task) []Dependency {
	chains, order := Chains(all)

	seen := make(map[Dependency]struct{})
	out := make([]Dependency, 0, len(all))
	for _, ref := range order {
		chain := chains[ref]
		for i := 1; i < len(chain); i++ {
			dep := Dependency{Parent: chain[i-1], Child: chain[i]}
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			out = append(out, dep)
		}
	}
	return out
}
