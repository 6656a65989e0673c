package graph

import (
	"errors"
	"fmt"

	"github.com/animus-labs/rungraph/internal/domain"
	"github.com/animus-labs/rungraph/internal/execution/deps"
	"github.com/animus-labs/rungraph/internal/execution/runspec"
	"github.com/animus-labs/rungraph/internal/execution/taskid"
	"github.com/animus-labs/rungraph/internal/execution/tasks"
	"github.com/animus-labs/rungraph/internal/execution/timing"
)

// ErrTimeConstraint wraps every failure to translate a run's time constraints.
var ErrTimeConstraint = errors.New("translate time constraints")

// Graph is the task graph of one run. It is built once and never modified.
type Graph struct {
	RunID           string
	Tasks           map[taskid.ID]tasks.Task
	Order           []taskid.ID
	Dependencies    []deps.Dependency
	TimeConstraints []timing.Constraint
}

// Build derives the task graph of a run. The result depends only on run, so
// building the same run twice yields deeply equal graphs.
func Build(run domain.Run) (Graph, error) {
	if err := runspec.Validate(run); err != nil {
		return Graph{}, err
	}

	set, err := tasks.Build(run)
	if err != nil {
		return Graph{}, fmt.Errorf("build tasks: %w", err)
	}

	constraints, err := timing.Translate(run.TimeConstraints, set)
	if err != nil {
		return Graph{}, fmt.Errorf("%w: %w", ErrTimeConstraint, err)
	}

	byID := make(map[taskid.ID]tasks.Task, len(set.All))
	order := make([]taskid.ID, 0, len(set.All))
	for _, task := range set.All {
		byID[task.TaskID()] = task
		order = append(order, task.TaskID())
	}

	return Graph{
		RunID:           run.ID,
		Tasks:           byID,
		Order:           order,
		Dependencies:    deps.Infer(set.All),
		TimeConstraints: constraints,
	}, nil
}

// Ordered returns the tasks in emission order.
func (g Graph) Ordered() []tasks.Task {
	out := make([]tasks.Task, 0, len(g.Order))
	for _, id := range g.Order {
		out = append(out, g.Tasks[id])
	}
	return out
}

// Parents returns the direct predecessors of id.
func (g Graph) Parents(id taskid.ID) []taskid.ID {
	out := make([]taskid.ID, 0)
	for _, dep := range g.Dependencies {
		if dep.Child == id {
			out = append(out, dep.Parent)
		}
	}
	return out
}
