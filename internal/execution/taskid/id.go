package taskid

import (
	"strconv"
	"strings"
)

// Separator joins the three components of a serialized ID.
const Separator = "|"

type Kind string

const (
	KindInstruction Kind = "instruction"
	KindFetch       Kind = "fetch"
	KindSupply      Kind = "supply"
	KindDestiny     Kind = "destiny"
)

// Valid reports whether k is one of the known task kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInstruction, KindFetch, KindSupply, KindDestiny:
		return true
	}
	return false
}

type ID struct {
	RunID string
	Kind  Kind
	Key   string
}

// ForInstruction identifies the task wrapping the instruction at position.
func ForInstruction(runID string, position int) ID {
	return ID{RunID: runID, Kind: KindInstruction, Key: strconv.Itoa(position)}
}

// ForRef identifies a fetch, supply or destiny task of a named ref.
func ForRef(runID string, kind Kind, name string) ID {
	return ID{RunID: runID, Kind: kind, Key: name}
}

// Position returns the instruction position of an instruction task ID.
func (id ID) Position() (int, bool) {
	if id.Kind != KindInstruction {
		return 0, false
	}
	n, err := strconv.Atoi(id.Key)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (id ID) String() string {
	return Encode(id.RunID, id.Kind, id.Key)
}

func (id ID) IsZero() bool {
	return id == ID{}
}

// Encode serializes the components. The run id must not contain Separator for
// the result to decode back to the same components; kind and key may.
func Encode(runID string, kind Kind, key string) string {
	var sb strings.Builder
	sb.Grow(len(runID) + len(kind) + len(key) + 2*len(Separator))
	sb.WriteString(runID)
	sb.WriteString(Separator)
	sb.WriteString(string(kind))
	sb.WriteString(Separator)
	sb.WriteString(key)
	return sb.String()
}
