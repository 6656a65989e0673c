package taskid

import (
	"fmt"
	"strings"
)

// Decode parses the serialized form produced by Encode.
func Decode(raw string) (ID, error) {
	if raw == "" {
		return ID{}, fmt.Errorf("task id cannot be empty")
	}
	parts := strings.SplitN(raw, Separator, 3)
	if len(parts) != 3 {
		return ID{}, fmt.Errorf("task id %q: expected run%skind%skey", raw, Separator, Separator)
	}
	if parts[0] == "" {
		return ID{}, fmt.Errorf("task id %q: empty run id", raw)
	}
	kind := Kind(parts[1])
	if !kind.Valid() {
		return ID{}, fmt.Errorf("task id %q: unknown kind %q", raw, parts[1])
	}
	if parts[2] == "" {
		return ID{}, fmt.Errorf("task id %q: empty key", raw)
	}
	return ID{RunID: parts[0], Kind: kind, Key: parts[2]}, nil
}
