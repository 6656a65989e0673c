package command

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/animus-labs/rungraph/internal/domain"
	"github.com/animus-labs/rungraph/internal/execution/runspec"
)

// RunOptions selects the run file every graph command reads.
type RunOptions struct {
	Path   string
	Format string
	RunID  string
}

func (o *RunOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Path, "file", "f", "", "Path to the run file, or - for stdin")
	cmd.Flags().StringVar(&o.Format, "format", "", "Run format (json | yaml). Inferred from the file extension when empty")
	cmd.Flags().StringVar(&o.RunID, "run-id", "", "Run id to use when the file does not carry one")
	_ = cmd.MarkFlagRequired("file")
}

func (o RunOptions) readPayload(stdin io.Reader) ([]byte, string, error) {
	var (
		raw []byte
		err error
	)
	if o.Path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(o.Path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read run: %w", err)
	}
	return raw, o.format(), nil
}

func (o RunOptions) format() string {
	if o.Format != "" {
		return strings.ToLower(o.Format)
	}
	switch strings.ToLower(filepath.Ext(o.Path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// load parses and identifies the run. An explicit --run-id must agree with
// the id in the file.
func (o RunOptions) load(stdin io.Reader) (domain.Run, error) {
	raw, format, err := o.readPayload(stdin)
	if err != nil {
		return domain.Run{}, err
	}
	run, err := runspec.Parse(raw, format)
	if err != nil {
		return domain.Run{}, err
	}
	switch {
	case run.ID == "":
		run.ID = o.RunID
	case o.RunID != "" && o.RunID != run.ID:
		return domain.Run{}, fmt.Errorf("--run-id %q does not match run id %q in %s", o.RunID, run.ID, o.Path)
	}
	return run, nil
}

func validateOutput(output string) error {
	switch output {
	case OutputText, OutputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output %q: must be one of text, json", output)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
