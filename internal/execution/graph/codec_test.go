package graph

import (
	"encoding/json"
	"testing"
)

func TestMarshalShape(t *testing.T) {
	g, err := Build(sampleRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		RunID string `json:"run_id"`
		Tasks []struct {
			ID          string   `json:"id"`
			Kind        string   `json:"kind"`
			Requires    []string `json:"requires"`
			ContainerID string   `json:"container_id"`
			Discard     *bool    `json:"discard"`
			StoreWhere  string   `json:"store_where"`
		} `json:"tasks"`
		Dependencies []struct {
			Parent string `json:"parent"`
			Child  string `json:"child"`
		} `json:"dependencies"`
		TimeConstraints []struct {
			From struct {
				Edge string `json:"edge"`
				Task string `json:"task"`
			} `json:"from"`
			LessThan *struct {
				Raw     string  `json:"raw"`
				Seconds float64 `json:"seconds"`
			} `json:"less_than"`
		} `json:"time_constraints"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.RunID != "r1" || len(decoded.Tasks) != 6 {
		t.Fatalf("unexpected payload: %s", raw)
	}
	if decoded.Tasks[0].ID != "r1|supply|plate" || decoded.Tasks[1].ContainerID != "ct1abc" {
		t.Fatalf("unexpected provisioning tasks: %s", raw)
	}
	if decoded.Tasks[2].Kind != "instruction" || len(decoded.Tasks[2].Requires) != 2 {
		t.Fatalf("unexpected instruction task: %+v", decoded.Tasks[2])
	}
	if d := decoded.Tasks[5]; d.ID != "r1|destiny|stock" || d.Discard == nil || *d.Discard || d.StoreWhere != "cold_4" {
		t.Fatalf("unexpected destiny task: %+v", d)
	}
	if len(decoded.Dependencies) != 5 || decoded.Dependencies[0].Parent != "r1|supply|plate" {
		t.Fatalf("unexpected dependencies: %+v", decoded.Dependencies)
	}
	tc := decoded.TimeConstraints[0]
	if tc.From.Edge != "startOf" || tc.From.Task != "r1|fetch|stock" || tc.LessThan == nil || tc.LessThan.Seconds != 60 {
		t.Fatalf("unexpected constraint: %+v", tc)
	}
}
