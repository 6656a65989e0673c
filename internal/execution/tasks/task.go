package tasks

import (
	"encoding/json"

	"github.com/animus-labs/rungraph/internal/domain"
	"github.com/animus-labs/rungraph/internal/execution/taskid"
)

// Task is one node of a run graph. Implementations are value types and are never
// modified after Build returns them.
type Task interface {
	TaskID() taskid.ID
	// Resources lists the containers the task touches, in sorted order.
	Resources() []string
}

type InstructionTask struct {
	ID        taskid.ID
	Position  int
	Op        string
	Requires  []string
	Operation json.RawMessage
}

func (t InstructionTask) TaskID() taskid.ID   { return t.ID }
func (t InstructionTask) Resources() []string { return t.Requires }

// FetchTask retrieves an existing container from inventory.
type FetchTask struct {
	ID          taskid.ID
	Ref         string
	ContainerID string
}

func (t FetchTask) TaskID() taskid.ID   { return t.ID }
func (t FetchTask) Resources() []string { return []string{t.Ref} }

// SupplyTask provides a new container of ContainerType.
type SupplyTask struct {
	ID            taskid.ID
	Ref           string
	ContainerType string
}

func (t SupplyTask) TaskID() taskid.ID   { return t.ID }
func (t SupplyTask) Resources() []string { return []string{t.Ref} }

// DestinyTask ends a container's life in the run: it is discarded or stored.
type DestinyTask struct {
	ID      taskid.ID
	Ref     string
	Discard bool
	Store   *domain.Storage
}

func (t DestinyTask) TaskID() taskid.ID   { return t.ID }
func (t DestinyTask) Resources() []string { return []string{t.Ref} }
