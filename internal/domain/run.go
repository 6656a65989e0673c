package domain

import (
	"encoding/json"
	"sort"
)

// Run is one protocol instance: ordered instructions, the containers they touch and the
// timing constraints declared between them. The core never mutates a Run.
type Run struct {
	ID              string
	Instructions    []Instruction
	Refs            map[string]Ref
	TimeConstraints []TimeConstraint
}

// Instruction is one protocol step. Op selects the reference rule; Operation keeps the
// raw operation object so each rule decodes only the fields it needs.
type Instruction struct {
	Position   int
	SequenceNo *int
	Op         string
	Operation  json.RawMessage
}

// Ref declares a named container. A non-empty ID means the container already exists
// and has to be fetched; otherwise it is supplied as a new container of type New.
type Ref struct {
	Name    string
	ID      string
	New     string
	Store   *Storage
	Discard bool
}

type Storage struct {
	Where   string
	Shaking bool
}

// Fetched reports whether the container is backed by an existing inventory id.
func (r Ref) Fetched() bool {
	return r.ID != ""
}

type TimeConstraint struct {
	From     TimingPoint
	To       TimingPoint
	LessThan string
	MoreThan string
	Ideal    *IdealTime
}

// TimingPoint is the single-key point object of a time constraint, e.g.
// {"instruction_start": 3} or {"ref_end": "plate"}. Numeric values are kept in
// decimal form in Key.
type TimingPoint struct {
	Type string
	Key  string
}

type IdealTime struct {
	Value string
	Cost  string
}

const (
	PointInstructionStart = "instruction_start"
	PointInstructionEnd   = "instruction_end"
	PointRefStart         = "ref_start"
	PointRefEnd           = "ref_end"
)

// RefNames returns the declared ref names in sorted order.
func (r Run) RefNames() []string {
	names := make([]string, 0, len(r.Refs))
	for name := range r.Refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
