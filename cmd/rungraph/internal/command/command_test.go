package command_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animus-labs/rungraph/cmd/rungraph/internal/command"
)

const sampleRun = `{
  "id": "r1",
  "refs": {
    "stock": {"id": "ct1abc", "store": {"where": "cold_4"}},
    "plate": {"new": "96-flat", "discard": true}
  },
  "instructions": [
    {"op": "pipette", "groups": [{"transfer": [{"from": "stock/0", "to": "plate/0", "volume": "5:microliter"}]}]},
    {"op": "cover", "object": "plate"}
  ],
  "time_constraints": [
    {"from": {"ref_start": "stock"}, "to": {"instruction_start": 1}, "less_than": "1:minute"}
  ]
}`

const anonymousRunYAML = `
refs:
  plate:
    new: 96-pcr
    store:
      where: cold_20
instructions:
  - op: seal
    object: plate
  - op: teleport
    object: plate
  - op: thermocycle
    object: plate
`

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	root := command.NewRootCommand()
	command.AddCommands(root, command.NewCLI(out, errOut))
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestBuild_JSONOutput(t *testing.T) {
	path := writeFile(t, "run.json", sampleRun)

	out, _, err := execute(t, "build", "-f", path, "-o", "json")
	require.NoError(t, err)

	var doc struct {
		RunID        string            `json:"run_id"`
		Tasks        []json.RawMessage `json:"tasks"`
		Dependencies []struct {
			Parent string `json:"parent"`
			Child  string `json:"child"`
		} `json:"dependencies"`
		TimeConstraints []json.RawMessage `json:"time_constraints"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "r1", doc.RunID)
	assert.Len(t, doc.Tasks, 6)
	assert.Len(t, doc.Dependencies, 5)
	assert.Len(t, doc.TimeConstraints, 1)
	assert.Equal(t, "r1|supply|plate", doc.Dependencies[0].Parent)
	assert.Equal(t, "r1|instruction|0", doc.Dependencies[0].Child)
}

func TestBuild_TextOutputListsParents(t *testing.T) {
	path := writeFile(t, "run.json", sampleRun)

	out, _, err := execute(t, "build", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "run r1")
	assert.Contains(t, out, "tasks (6)")
	assert.Contains(t, out, "r1|instruction|1 <- r1|instruction|0")
	assert.Contains(t, out, "time constraints (1)")
}

func TestBuild_YAMLWithRunIDFlag(t *testing.T) {
	path := writeFile(t, "run.yaml", anonymousRunYAML)

	out, errOut, err := execute(t, "build", "-f", path, "--run-id", "r9", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"run_id": "r9"`)
	assert.Contains(t, errOut, "teleport")
}

func TestBuild_ReadsStdin(t *testing.T) {
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	root := command.NewRootCommand()
	command.AddCommands(root, command.NewCLI(out, errOut))
	root.SetArgs([]string{"build", "-f", "-", "-o", "json"})
	root.SetIn(strings.NewReader(sampleRun))

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"run_id": "r1"`)
}

func TestBuild_RunIDMismatch(t *testing.T) {
	path := writeFile(t, "run.json", sampleRun)

	_, _, err := execute(t, "build", "-f", path, "--run-id", "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestBuild_MissingRunID(t *testing.T) {
	path := writeFile(t, "run.yaml", anonymousRunYAML)

	_, _, err := execute(t, "build", "-f", path)
	require.Error(t, err)
}

func TestBuild_RequiresFile(t *testing.T) {
	_, _, err := execute(t, "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}

func TestRoot_RejectsUnknownOutput(t *testing.T) {
	path := writeFile(t, "run.json", sampleRun)

	_, _, err := execute(t, "build", "-f", path, "-o", "table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output")
}

func TestRefs_JSONOutput(t *testing.T) {
	path := writeFile(t, "run.yaml", anonymousRunYAML)

	out, _, err := execute(t, "refs", "-f", path, "-o", "json")
	require.NoError(t, err)

	var got []struct {
		Position   int      `json:"position"`
		Op         string   `json:"op"`
		Supported  bool     `json:"supported"`
		Containers []string `json:"containers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, []string{"plate"}, got[0].Containers)
	assert.False(t, got[1].Supported)
	assert.Empty(t, got[1].Containers)
	assert.Equal(t, 2, got[2].Position)
}

func TestChains_TextOutput(t *testing.T) {
	path := writeFile(t, "run.json", sampleRun)

	out, _, err := execute(t, "chains", "-f", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "plate: r1|supply|plate -> r1|instruction|0 -> r1|instruction|1 -> r1|destiny|plate", lines[0])
	assert.Equal(t, "stock: r1|fetch|stock -> r1|instruction|0 -> r1|destiny|stock", lines[1])
}

func TestOrder_RespectsDependencies(t *testing.T) {
	path := writeFile(t, "run.json", sampleRun)

	out, _, err := execute(t, "order", "-f", path, "-o", "json")
	require.NoError(t, err)

	var order []string
	require.NoError(t, json.Unmarshal([]byte(out), &order))
	require.Len(t, order, 6)
	before := func(a, b string) bool {
		return slices.Index(order, a) < slices.Index(order, b)
	}
	assert.True(t, before("r1|fetch|stock", "r1|instruction|0"))
	assert.True(t, before("r1|instruction|0", "r1|instruction|1"))
	assert.True(t, before("r1|instruction|1", "r1|destiny|plate"))
}

func TestDecodeID(t *testing.T) {
	out, _, err := execute(t, "decode-id", "r1|instruction|3", "r1|destiny|a|b")
	require.NoError(t, err)
	assert.Equal(t, "run=r1 kind=instruction key=3\nrun=r1 kind=destiny key=a|b\n", out)

	_, _, err = execute(t, "decode-id", "r1|bogus|3")
	require.Error(t, err)

	_, _, err = execute(t, "decode-id")
	require.Error(t, err)
}

func TestSubmit_UsesClientCredentials(t *testing.T) {
	var (
		gotAuth        string
		gotContentType string
		gotBody        string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("POST /runs/{run_id}/graph", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "r1", r.PathValue("run_id"))
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"run_id":"r1","digest":"abc","created":true,"tasks":6,"dependencies":5,"graph":{}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	path := writeFile(t, "run.json", sampleRun)
	out, _, err := execute(t, "submit", "-f", path,
		"--server", srv.URL,
		"--token-url", srv.URL+"/token",
		"--client-id", "cli",
		"--client-secret", "secret",
	)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, sampleRun, gotBody)
	assert.Contains(t, out, "run r1 created (digest abc)")
	assert.Contains(t, out, "tasks=6 dependencies=5")
}

func TestSubmit_WithoutTokenURL(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = io.WriteString(w, `{"run_id":"r9","digest":"d","created":false,"cached":true}`)
	}))
	defer srv.Close()

	path := writeFile(t, "run.yaml", anonymousRunYAML)
	out, _, err := execute(t, "submit", "-f", path, "--run-id", "r9", "--server", srv.URL, "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "application/yaml", gotContentType)
	assert.Contains(t, out, `"cached":true`)
}

func TestSubmit_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"invalid_time_constraint"}`)
	}))
	defer srv.Close()

	path := writeFile(t, "run.json", sampleRun)
	_, _, err := execute(t, "submit", "-f", path, "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "invalid_time_constraint")
}

func TestSubmit_RejectsInvalidRunLocally(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	cases := map[string]string{
		"undeclared ref": `{"id":"r1","refs":{},"instructions":[{"op":"seal","object":"ghost"}]}`,
		"bad timing":     `{"id":"r1","refs":{"plate":{"new":"96-pcr"}},"instructions":[{"op":"seal","object":"plate"}],"time_constraints":[{"from":{"ref_start":"plate"},"to":{"instruction_start":9},"less_than":"1:minute"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "run.json", body)
			_, _, err := execute(t, "submit", "-f", path, "--server", srv.URL)
			require.Error(t, err)
		})
	}
	assert.False(t, hit, "invalid runs must not be sent")
}

func TestSubmit_ValidatesFlags(t *testing.T) {
	path := writeFile(t, "run.json", sampleRun)

	_, _, err := execute(t, "submit", "-f", path, "--server", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--server is required")

	_, _, err = execute(t, "submit", "-f", path, "--server", "graphs.local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute URL")

	_, _, err = execute(t, "submit", "-f", path, "--server", "http://graphs.local", "--token-url", "http://idp/token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--client-id")
}
