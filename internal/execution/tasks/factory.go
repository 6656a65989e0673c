package tasks

import (
	"fmt"

	"github.com/animus-labs/rungraph/internal/domain"
	"github.com/animus-labs/rungraph/internal/execution/refs"
	"github.com/animus-labs/rungraph/internal/execution/taskid"
)

// Set is every task of a run plus the lookups the timing translator needs.
type Set struct {
	// All holds the tasks in emission order: fetch/supply tasks by ref name,
	// instruction tasks by position, then destiny tasks by ref name.
	All          []Task
	Provisioning map[string]Task
	Instructions map[int]InstructionTask
	Destinies    map[string]DestinyTask
}

// Build creates the tasks of a run.
func Build(run domain.Run) (Set, error) {
	names := run.RefNames()
	set := Set{
		All:          make([]Task, 0, 2*len(names)+len(run.Instructions)),
		Provisioning: make(map[string]Task, len(names)),
		Instructions: make(map[int]InstructionTask, len(run.Instructions)),
		Destinies:    make(map[string]DestinyTask, len(names)),
	}

	for _, name := range names {
		task := provisioningTask(run.ID, name, run.Refs[name])
		set.Provisioning[name] = task
		set.All = append(set.All, task)
	}

	for i, ins := range run.Instructions {
		required, err := refs.Extract(ins)
		if err != nil {
			return Set{}, fmt.Errorf("instruction %d: %w", i, err)
		}
		task := InstructionTask{
			ID:        taskid.ForInstruction(run.ID, i),
			Position:  i,
			Op:        ins.Op,
			Requires:  required,
			Operation: ins.Operation,
		}
		set.Instructions[i] = task
		set.All = append(set.All, task)
	}

	for _, name := range names {
		ref := run.Refs[name]
		task := DestinyTask{
			ID:      taskid.ForRef(run.ID, taskid.KindDestiny, name),
			Ref:     name,
			Discard: ref.Discard,
			Store:   ref.Store,
		}
		set.Destinies[name] = task
		set.All = append(set.All, task)
	}

	return set, nil
}

func provisioningTask(runID, name string, ref domain.Ref) Task {
	if ref.Fetched() {
		return FetchTask{
			ID:          taskid.ForRef(runID, taskid.KindFetch, name),
			Ref:         name,
			ContainerID: ref.ID,
		}
	}
	return SupplyTask{
		ID:            taskid.ForRef(runID, taskid.KindSupply, name),
		Ref:           name,
		ContainerType: ref.New,
	}
}
