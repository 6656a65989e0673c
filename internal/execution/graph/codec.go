package graph

import (
	"encoding/json"
	"fmt"

	"github.com/animus-labs/rungraph/internal/execution/tasks"
	"github.com/animus-labs/rungraph/internal/execution/timing"
)

// Marshal serializes a graph with stable field names. Tasks appear in emission
// order and task ids in their "<run>|<kind>|<key>" form.
func Marshal(g Graph) ([]byte, error) {
	payload := graphPayload{
		RunID:           g.RunID,
		Tasks:           make([]taskPayload, 0, len(g.Order)),
		Dependencies:    make([]dependencyPayload, 0, len(g.Dependencies)),
		TimeConstraints: make([]constraintPayload, 0, len(g.TimeConstraints)),
	}
	for _, task := range g.Ordered() {
		p, err := taskPayloadFrom(task)
		if err != nil {
			return nil, err
		}
		payload.Tasks = append(payload.Tasks, p)
	}
	for _, dep := range g.Dependencies {
		payload.Dependencies = append(payload.Dependencies, dependencyPayload{
			Parent: dep.Parent.String(),
			Child:  dep.Child.String(),
		})
	}
	for _, c := range g.TimeConstraints {
		payload.TimeConstraints = append(payload.TimeConstraints, constraintPayloadFrom(c))
	}
	return json.Marshal(payload)
}

type graphPayload struct {
	RunID           string              `json:"run_id"`
	Tasks           []taskPayload       `json:"tasks"`
	Dependencies    []dependencyPayload `json:"dependencies"`
	TimeConstraints []constraintPayload `json:"time_constraints"`
}

type taskPayload struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	Ref           string          `json:"ref,omitempty"`
	Position      *int            `json:"position,omitempty"`
	Op            string          `json:"op,omitempty"`
	Requires      []string        `json:"requires,omitempty"`
	Operation     json.RawMessage `json:"operation,omitempty"`
	ContainerID   string          `json:"container_id,omitempty"`
	ContainerType string          `json:"container_type,omitempty"`
	Discard       *bool           `json:"discard,omitempty"`
	StoreWhere    string          `json:"store_where,omitempty"`
}

type dependencyPayload struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

type pointPayload struct {
	Edge string `json:"edge"`
	Task string `json:"task"`
}

type durationPayload struct {
	Raw     string  `json:"raw"`
	Seconds float64 `json:"seconds"`
}

type constraintPayload struct {
	From      pointPayload     `json:"from"`
	To        pointPayload     `json:"to"`
	LessThan  *durationPayload `json:"less_than,omitempty"`
	MoreThan  *durationPayload `json:"more_than,omitempty"`
	Ideal     *durationPayload `json:"ideal,omitempty"`
	IdealCost string           `json:"ideal_cost,omitempty"`
}

func taskPayloadFrom(task tasks.Task) (taskPayload, error) {
	id := task.TaskID()
	p := taskPayload{ID: id.String(), Kind: string(id.Kind)}
	switch t := task.(type) {
	case tasks.InstructionTask:
		pos := t.Position
		p.Position = &pos
		p.Op = t.Op
		p.Requires = t.Requires
		p.Operation = t.Operation
	case tasks.FetchTask:
		p.Ref = t.Ref
		p.ContainerID = t.ContainerID
	case tasks.SupplyTask:
		p.Ref = t.Ref
		p.ContainerType = t.ContainerType
	case tasks.DestinyTask:
		discard := t.Discard
		p.Ref = t.Ref
		p.Discard = &discard
		if t.Store != nil {
			p.StoreWhere = t.Store.Where
		}
	default:
		return taskPayload{}, fmt.Errorf("unsupported task type %T", task)
	}
	return p, nil
}

func constraintPayloadFrom(c timing.Constraint) constraintPayload {
	p := constraintPayload{
		From:     pointPayload{Edge: string(c.From.Edge), Task: c.From.Task.String()},
		To:       pointPayload{Edge: string(c.To.Edge), Task: c.To.Task.String()},
		LessThan: durationPayloadFrom(c.LessThan),
		MoreThan: durationPayloadFrom(c.MoreThan),
	}
	if c.Ideal != nil {
		p.Ideal = durationPayloadFrom(&c.Ideal.Value)
		p.IdealCost = c.Ideal.Cost
	}
	return p
}

func durationPayloadFrom(d *timing.Duration) *durationPayload {
	if d == nil {
		return nil
	}
	return &durationPayload{Raw: d.Raw, Seconds: d.Value.Seconds()}
}
