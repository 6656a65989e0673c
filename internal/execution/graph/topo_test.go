package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/animus-labs/rungraph/internal/execution/deps"
	"github.com/animus-labs/rungraph/internal/execution/taskid"
)

func TestTopologicalFollowsEmissionOrder(t *testing.T) {
	g, err := Build(sampleRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Topological(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(g.Order, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestTopologicalRespectsEdgesOverEmission(t *testing.T) {
	a, b, c := id(taskid.KindInstruction, "0"), id(taskid.KindInstruction, "1"), id(taskid.KindInstruction, "2")
	g := Graph{
		RunID:        "r1",
		Order:        []taskid.ID{a, b, c},
		Dependencies: []deps.Dependency{{Parent: c, Child: a}},
	}
	got, err := Topological(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []taskid.ID{b, c, a}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestTopologicalDetectsCycle(t *testing.T) {
	a, b := id(taskid.KindInstruction, "0"), id(taskid.KindInstruction, "1")
	g := Graph{
		Order:        []taskid.ID{a, b},
		Dependencies: []deps.Dependency{{Parent: a, Child: b}, {Parent: b, Child: a}},
	}
	if _, err := Topological(g); err == nil {
		t.Fatalf("expected cycle error")
	}
}

func TestTopologicalUnknownTask(t *testing.T) {
	a := id(taskid.KindInstruction, "0")
	g := Graph{
		Order:        []taskid.ID{a},
		Dependencies: []deps.Dependency{{Parent: a, Child: id(taskid.KindDestiny, "ghost")}},
	}
	if _, err := Topological(g); err == nil {
		t.Fatalf("expected unknown task error")
	}
}
