package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// WellRef is a parsed "<container>/<index>" reference.
type WellRef struct {
	Container string
	Index     string
}

// ParseWellRef splits a well reference. The index may be numeric ("0") or a
// human readable coordinate ("A1").
func ParseWellRef(raw string) (WellRef, error) {
	raw = strings.TrimSpace(raw)
	i := strings.LastIndex(raw, "/")
	if i <= 0 || i == len(raw)-1 {
		return WellRef{}, fmt.Errorf("invalid well reference %q", raw)
	}
	return WellRef{Container: raw[:i], Index: raw[i+1:]}, nil
}

func (w WellRef) String() string {
	return w.Container + "/" + w.Index
}

// NumericIndex returns the index as an integer when it is one.
func (w WellRef) NumericIndex() (int, bool) {
	n, err := strconv.Atoi(w.Index)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ContainerOf strips a trailing "/<index>" suffix. A bare container name is
// returned unchanged.
func ContainerOf(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, "/"); i > 0 {
		return ref[:i]
	}
	return ref
}
