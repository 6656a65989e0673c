package timing

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/animus-labs/rungraph/internal/domain"
	"github.com/animus-labs/rungraph/internal/execution/taskid"
	"github.com/animus-labs/rungraph/internal/execution/tasks"
)

var (
	// ErrUnsupportedTimingPoint is returned for a point type other than
	// instruction_start, instruction_end, ref_start or ref_end.
	ErrUnsupportedTimingPoint = errors.New("unsupported timing point")
	// ErrDanglingTimingConstraint is returned when a point names an instruction
	// or ref that has no task in the graph.
	ErrDanglingTimingConstraint = errors.New("dangling timing constraint")
)

type Edge string

const (
	StartOf Edge = "startOf"
	EndOf   Edge = "endOf"
)

// Point is the start or end of one graph task.
type Point struct {
	Edge Edge
	Task taskid.ID
}

type Constraint struct {
	From     Point
	To       Point
	LessThan *Duration
	MoreThan *Duration
	Ideal    *Ideal
}

type Ideal struct {
	Value Duration
	Cost  string
}

// Translate rewrites the run's constraints onto task ids. Any unsupported point
// type or dangling reference aborts the whole translation.
func Translate(constraints []domain.TimeConstraint, set tasks.Set) ([]Constraint, error) {
	out := make([]Constraint, 0, len(constraints))
	for i, tc := range constraints {
		c, err := translateOne(tc, set)
		if err != nil {
			return nil, fmt.Errorf("time constraint %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func translateOne(tc domain.TimeConstraint, set tasks.Set) (Constraint, error) {
	from, err := resolve(tc.From, set)
	if err != nil {
		return Constraint{}, fmt.Errorf("from: %w", err)
	}
	to, err := resolve(tc.To, set)
	if err != nil {
		return Constraint{}, fmt.Errorf("to: %w", err)
	}

	lessThan, err := parseOptional(tc.LessThan)
	if err != nil {
		return Constraint{}, fmt.Errorf("less_than: %w", err)
	}
	moreThan, err := parseOptional(tc.MoreThan)
	if err != nil {
		return Constraint{}, fmt.Errorf("more_than: %w", err)
	}
	var ideal *Ideal
	if tc.Ideal != nil {
		value, err := ParseDuration(tc.Ideal.Value)
		if err != nil {
			return Constraint{}, fmt.Errorf("ideal: %w", err)
		}
		ideal = &Ideal{Value: value, Cost: tc.Ideal.Cost}
	}
	if lessThan == nil && moreThan == nil && ideal == nil {
		return Constraint{}, errors.New("one of less_than, more_than or ideal is required")
	}

	return Constraint{
		From:     from,
		To:       to,
		LessThan: lessThan,
		MoreThan: moreThan,
		Ideal:    ideal,
	}, nil
}

func resolve(p domain.TimingPoint, set tasks.Set) (Point, error) {
	switch p.Type {
	case domain.PointInstructionStart:
		id, err := instructionTask(p, set)
		return Point{Edge: StartOf, Task: id}, err
	case domain.PointInstructionEnd:
		id, err := instructionTask(p, set)
		return Point{Edge: EndOf, Task: id}, err
	case domain.PointRefStart:
		id, err := provisioningTask(p, set)
		return Point{Edge: StartOf, Task: id}, err
	case domain.PointRefEnd:
		// A ref's lifetime is the span of its fetch/supply task.
		id, err := provisioningTask(p, set)
		return Point{Edge: EndOf, Task: id}, err
	default:
		return Point{}, fmt.Errorf("%w: %q", ErrUnsupportedTimingPoint, p.Type)
	}
}

func instructionTask(p domain.TimingPoint, set tasks.Set) (taskid.ID, error) {
	pos, err := strconv.Atoi(p.Key)
	if err != nil {
		return taskid.ID{}, fmt.Errorf("%w: %s %q is not an instruction sequence number", ErrDanglingTimingConstraint, p.Type, p.Key)
	}
	task, ok := set.Instructions[pos]
	if !ok {
		return taskid.ID{}, fmt.Errorf("%w: %s %d has no instruction", ErrDanglingTimingConstraint, p.Type, pos)
	}
	return task.ID, nil
}

func provisioningTask(p domain.TimingPoint, set tasks.Set) (taskid.ID, error) {
	task, ok := set.Provisioning[p.Key]
	if !ok {
		return taskid.ID{}, fmt.Errorf("%w: %s %q is not a declared ref", ErrDanglingTimingConstraint, p.Type, p.Key)
	}
	return task.TaskID(), nil
}

func (p Point) String() string {
	return string(p.Edge) + "(" + p.Task.String() + ")"
}
