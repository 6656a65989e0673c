package domain

import "testing"

func TestContainerOf(t *testing.T) {
	cases := map[string]string{
		"plate/0":    "plate",
		"plate/A1":   "plate",
		"plate":      "plate",
		" stock/11 ": "stock",
		"my/plate/3": "my/plate",
		"":           "",
		"/0":         "/0",
	}
	for in, want := range cases {
		if got := ContainerOf(in); got != want {
			t.Fatalf("ContainerOf(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestParseWellRef(t *testing.T) {
	w, err := ParseWellRef("plate/12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Container != "plate" || w.Index != "12" {
		t.Fatalf("unexpected well ref: %+v", w)
	}
	if n, ok := w.NumericIndex(); !ok || n != 12 {
		t.Fatalf("NumericIndex()=%d,%v want 12,true", n, ok)
	}
	if w.String() != "plate/12" {
		t.Fatalf("String()=%q", w.String())
	}

	for _, bad := range []string{"plate", "/3", "plate/", ""} {
		if _, err := ParseWellRef(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRunRefNamesSorted(t *testing.T) {
	run := Run{Refs: map[string]Ref{"b": {}, "a": {}, "c": {ID: "ct1"}}}
	got := run.RefNames()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("RefNames()=%v", got)
	}
	if !run.Refs["c"].Fetched() || run.Refs["a"].Fetched() {
		t.Fatalf("unexpected Fetched() results")
	}
}
