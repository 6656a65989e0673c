package runspec

import (
	"fmt"
	"strings"

	"github.com/animus-labs/rungraph/internal/domain"
	"github.com/animus-labs/rungraph/internal/execution/refs"
	"github.com/animus-labs/rungraph/internal/execution/taskid"
)

// Validate performs strict structural validation of a run before graph
// construction. Time constraints are checked during translation.
func Validate(run domain.Run) error {
	issues := &ValidationError{}

	runID := strings.TrimSpace(run.ID)
	if runID == "" {
		issues.Add("run id is required")
	} else if strings.Contains(runID, taskid.Separator) {
		issues.Add(fmt.Sprintf("run id %q must not contain %q", runID, taskid.Separator))
	}

	for _, name := range run.RefNames() {
		if strings.TrimSpace(name) == "" {
			issues.Add("ref name is required")
			continue
		}
		if strings.Contains(name, "/") {
			issues.Add(fmt.Sprintf("ref %q must not contain '/'", name))
		}
	}

	for i, ins := range run.Instructions {
		if ins.Position != i {
			issues.Add(fmt.Sprintf("instruction[%d] has position %d", i, ins.Position))
		}
		if ins.SequenceNo != nil && *ins.SequenceNo != i {
			issues.Add(fmt.Sprintf("instruction[%d] sequence_no %d does not match its position", i, *ins.SequenceNo))
		}
		if ins.Op == "" {
			issues.Add(fmt.Sprintf("instruction[%d] op is required", i))
			continue
		}
		touched, err := refs.Extract(ins)
		if err != nil {
			issues.Add(fmt.Sprintf("instruction[%d] %v", i, err))
			continue
		}
		for _, container := range touched {
			if _, ok := run.Refs[container]; !ok {
				issues.Add(fmt.Sprintf("instruction[%d] %s references undeclared container %q", i, ins.Op, container))
			}
		}
	}

	return issues.OrNil()
}

// Unsupported lists instruction kinds in the run that have no reference rule.
// Their tasks get no inferred dependencies.
func Unsupported(run domain.Run) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, ins := range run.Instructions {
		if ins.Op == "" || refs.Supported(ins.Op) {
			continue
		}
		if _, ok := seen[ins.Op]; ok {
			continue
		}
		seen[ins.Op] = struct{}{}
		out = append(out, ins.Op)
	}
	return out
}
