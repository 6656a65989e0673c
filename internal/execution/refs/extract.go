package refs

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/animus-labs/rungraph/internal/domain"
)

// rule records every container an operation of one kind touches.
type rule func(raw json.RawMessage, s set) error

// ruleFor builds a rule that decodes only the fields described by T.
func ruleFor[T any](collect func(op T, s set)) rule {
	return func(raw json.RawMessage, s set) error {
		var op T
		if err := json.Unmarshal(raw, &op); err != nil {
			return err
		}
		collect(op, s)
		return nil
	}
}

var rules = map[string]rule{
	// liquid handling
	"pipette":           ruleFor(collectPipette),
	"acoustic_transfer": ruleFor(collectTransferGroups),
	"stamp":             ruleFor(collectTransferGroups),
	"liquid_handle":     ruleFor(collectLiquidHandle),
	"provision":         ruleFor(collectProvision),
	"dispense":          singleObject,
	"spread":            ruleFor(collectSpread),
	"autopick":          ruleFor(collectAutopick),
	"oligosynthesize":   ruleFor(collectOligos),
	"magnetic_transfer": ruleFor(collectMagneticTransfer),

	// measurement and analysis
	"flow_analyze":          ruleFor(collectFlowAnalyze),
	"gel_separate":          ruleFor(collectGelSeparate),
	"gel_purify":            ruleFor(collectGelPurify),
	"illumina_sequence":     ruleFor(collectIllumina),
	"sanger_sequence":       singleObject,
	"absorbance":            singleObject,
	"fluorescence":          singleObject,
	"luminescence":          singleObject,
	"measure_concentration": objectList,
	"measure_volume":        objectList,
	"measure_mass":          singleObject,
	"count_cells":           wellList,
	"sonicate":              wellList,
	"spectrophotometry":     singleObject,

	// single container handling
	"agitate":      singleObject,
	"thermocycle":  singleObject,
	"incubate":     singleObject,
	"seal":         singleObject,
	"unseal":       singleObject,
	"cover":        singleObject,
	"uncover":      singleObject,
	"spin":         singleObject,
	"image_plate":  singleObject,
	"image":        singleObject,
	"flash_freeze": singleObject,
	"evaporate":    singleObject,

	"generic_task": ruleFor(collectGenericTask),
}

// Extract returns the sorted set of container names an instruction reads or writes.
// Instructions of an unsupported kind yield an empty set; dependency inference then
// simply has less to work with. A supported kind whose operation does not match the
// expected layout is an error.
func Extract(ins domain.Instruction) ([]string, error) {
	r, ok := rules[ins.Op]
	if !ok || len(ins.Operation) == 0 {
		return []string{}, nil
	}
	s := set{}
	if err := r(ins.Operation, s); err != nil {
		return nil, fmt.Errorf("%s: decode operation: %w", ins.Op, err)
	}
	return s.sorted(), nil
}

// Supported reports whether op has an extraction rule.
func Supported(op string) bool {
	_, ok := rules[op]
	return ok
}

// Kinds lists every instruction kind with an extraction rule.
func Kinds() []string {
	out := make([]string, 0, len(rules))
	for op := range rules {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

type set map[string]struct{}

func (s set) add(refs ...string) {
	for _, ref := range refs {
		if c := domain.ContainerOf(ref); c != "" {
			s[c] = struct{}{}
		}
	}
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
