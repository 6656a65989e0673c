package runspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/animus-labs/rungraph/internal/domain"
)

type runPayload struct {
	ID              string                  `json:"id"`
	Refs            map[string]refPayload   `json:"refs"`
	Instructions    []json.RawMessage       `json:"instructions"`
	TimeConstraints []timeConstraintPayload `json:"time_constraints"`
}

type refPayload struct {
	ID      string          `json:"id"`
	New     string          `json:"new"`
	Store   *storagePayload `json:"store"`
	Discard bool            `json:"discard"`
}

type storagePayload struct {
	Where   string `json:"where"`
	Shaking bool   `json:"shaking"`
}

type instructionPayload struct {
	SequenceNo *int            `json:"sequence_no"`
	Operation  json.RawMessage `json:"operation"`
}

type timeConstraintPayload struct {
	From     map[string]json.RawMessage `json:"from"`
	To       map[string]json.RawMessage `json:"to"`
	LessThan string                     `json:"less_than"`
	MoreThan string                     `json:"more_than"`
	Ideal    *struct {
		Value            string `json:"value"`
		OptimizationCost string `json:"optimization_cost"`
	} `json:"ideal"`
}

// ParseJSON decodes a run. Instructions may be given either wrapped as
// {"sequence_no": n, "operation": {...}} or as bare operation objects.
func ParseJSON(raw []byte) (domain.Run, error) {
	var payload runPayload
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return domain.Run{}, fmt.Errorf("decode run: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.Run{}, errors.New("decode run: unexpected data after the run object")
	}

	run := domain.Run{
		ID:              strings.TrimSpace(payload.ID),
		Instructions:    make([]domain.Instruction, 0, len(payload.Instructions)),
		Refs:            make(map[string]domain.Ref, len(payload.Refs)),
		TimeConstraints: make([]domain.TimeConstraint, 0, len(payload.TimeConstraints)),
	}

	for name, ref := range payload.Refs {
		r := domain.Ref{Name: name, ID: strings.TrimSpace(ref.ID), New: ref.New, Discard: ref.Discard}
		if ref.Store != nil {
			r.Store = &domain.Storage{Where: ref.Store.Where, Shaking: ref.Store.Shaking}
		}
		run.Refs[name] = r
	}

	for i, rawIns := range payload.Instructions {
		ins, err := parseInstruction(i, rawIns)
		if err != nil {
			return domain.Run{}, err
		}
		run.Instructions = append(run.Instructions, ins)
	}

	for i, tc := range payload.TimeConstraints {
		from, err := parsePoint(tc.From)
		if err != nil {
			return domain.Run{}, fmt.Errorf("time_constraints[%d].from: %w", i, err)
		}
		to, err := parsePoint(tc.To)
		if err != nil {
			return domain.Run{}, fmt.Errorf("time_constraints[%d].to: %w", i, err)
		}
		c := domain.TimeConstraint{From: from, To: to, LessThan: tc.LessThan, MoreThan: tc.MoreThan}
		if tc.Ideal != nil {
			c.Ideal = &domain.IdealTime{Value: tc.Ideal.Value, Cost: tc.Ideal.OptimizationCost}
		}
		run.TimeConstraints = append(run.TimeConstraints, c)
	}

	return run, nil
}

// ParseYAML decodes a run written as YAML with the same field names as JSON.
func ParseYAML(raw []byte) (domain.Run, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return domain.Run{}, fmt.Errorf("decode run: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return domain.Run{}, fmt.Errorf("convert run: %w", err)
	}
	return ParseJSON(asJSON)
}

// Parse dispatches on format, which is "json" or "yaml".
func Parse(raw []byte, format string) (domain.Run, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return ParseJSON(raw)
	case "yaml", "yml":
		return ParseYAML(raw)
	default:
		return domain.Run{}, fmt.Errorf("unsupported run format %q", format)
	}
}

// Canonical re-encodes a run as compact JSON with sorted keys and without its
// top-level id. Runs that differ only in layout, key order, format or the
// presence of the id encode identically.
func Canonical(raw []byte, format string) ([]byte, error) {
	var doc any
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported run format %q", format)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("decode run: run must be an object")
	}
	delete(obj, "id")
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode run: %w", err)
	}
	return out, nil
}

func parseInstruction(i int, raw json.RawMessage) (domain.Instruction, error) {
	var wrapped instructionPayload
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return domain.Instruction{}, fmt.Errorf("instructions[%d]: %w", i, err)
	}
	operation := wrapped.Operation
	if len(operation) == 0 {
		operation = raw
	}

	var head struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(operation, &head); err != nil {
		return domain.Instruction{}, fmt.Errorf("instructions[%d].operation: %w", i, err)
	}
	return domain.Instruction{
		Position:   i,
		SequenceNo: wrapped.SequenceNo,
		Op:         strings.TrimSpace(head.Op),
		Operation:  operation,
	}, nil
}

func parsePoint(point map[string]json.RawMessage) (domain.TimingPoint, error) {
	if len(point) != 1 {
		return domain.TimingPoint{}, fmt.Errorf("timing point must have exactly one key, got %d", len(point))
	}
	for typ, raw := range point {
		var value any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&value); err != nil {
			return domain.TimingPoint{}, fmt.Errorf("%s: %w", typ, err)
		}
		switch v := value.(type) {
		case json.Number:
			return domain.TimingPoint{Type: typ, Key: v.String()}, nil
		case string:
			return domain.TimingPoint{Type: typ, Key: v}, nil
		default:
			return domain.TimingPoint{}, fmt.Errorf("%s: value must be a sequence number or ref name", typ)
		}
	}
	return domain.TimingPoint{}, errors.New("unreachable")
}
