package deps

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/animus-labs/rungraph/internal/execution/taskid"
	"github.com/animus-labs/rungraph/internal/execution/tasks"
)

func instr(pos int, refs ...string) tasks.InstructionTask {
	return tasks.InstructionTask{ID: taskid.ForInstruction("r", pos), Position: pos, Requires: refs}
}

func TestInferChainsConsecutivePairsOnly(t *testing.T) {
	t1, t2, t3 := instr(0, "plate"), instr(1, "plate"), instr(2, "plate")
	got := Infer([]tasks.Task{t1, t2, t3})

	want := []Dependency{
		{Parent: t1.ID, Child: t2.ID},
		{Parent: t2.ID, Child: t3.ID},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestInferIgnoresUnrelatedTasks(t *testing.T) {
	a, b, c := instr(0, "plate"), instr(1, "tube"), instr(2, "plate")
	got := Infer([]tasks.Task{a, b, c})

	want := []Dependency{{Parent: a.ID, Child: c.ID}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestInferDeduplicatesSharedContainers(t *testing.T) {
	a, b := instr(0, "plate", "tube"), instr(1, "plate", "tube")
	got := Infer([]tasks.Task{a, b})
	if len(got) != 1 {
		t.Fatalf("expected a single edge, got %v", got)
	}
}

func TestInferFullLifecycle(t *testing.T) {
	fetch := tasks.FetchTask{ID: taskid.ForRef("r", taskid.KindFetch, "stock"), Ref: "stock", ContainerID: "ct1"}
	use := instr(0, "stock")
	destiny := tasks.DestinyTask{ID: taskid.ForRef("r", taskid.KindDestiny, "stock"), Ref: "stock"}

	got := Infer([]tasks.Task{fetch, use, destiny})
	want := []Dependency{
		{Parent: fetch.ID, Child: use.ID},
		{Parent: use.ID, Child: destiny.ID},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestInferInstructionWithoutRefs(t *testing.T) {
	got := Infer([]tasks.Task{instr(0), instr(1)})
	if len(got) != 0 {
		t.Fatalf("expected no edges, got %v", got)
	}
}

func TestChainsOrder(t *testing.T) {
	chains, order := Chains([]tasks.Task{instr(0, "b"), instr(1, "a", "b")})
	if diff := cmp.Diff([]string{"b", "a"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if len(chains["b"]) != 2 || len(chains["a"]) != 1 {
		t.Fatalf("unexpected chains: %v", chains)
	}
}
