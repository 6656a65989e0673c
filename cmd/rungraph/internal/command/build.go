package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/animus-labs/rungraph/internal/execution/graph"
	"github.com/animus-labs/rungraph/internal/execution/runspec"
)

type BuildOptions struct {
	RunOptions
}

func NewBuildCommand(cli *CLI) *cobra.Command {
	opts := &BuildOptions{}
	cmd := &cobra.Command{
		Use:   "build -f <run>",
		Short: "Build the task graph of a run",
		Long: Highlight("rungraph build -f run.json") + "\n\n" +
			"Prints the task graph. With -o json the output is the document the\n" +
			"graph-service stores, indented.\n",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, cli, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runBuild(cmd *cobra.Command, cli *CLI, opts *BuildOptions) error {
	run, err := opts.load(cmd.InOrStdin())
	if err != nil {
		return err
	}
	g, err := graph.Build(run)
	if err != nil {
		return err
	}
	cli.Logger.Debug("graph built", "run_id", g.RunID, "tasks", len(g.Order), "dependencies", len(g.Dependencies))
	if unsupported := runspec.Unsupported(run); len(unsupported) > 0 {
		fmt.Fprintf(cli.Err, "warning: no container rule for %s; those instructions get no inferred dependencies\n",
			strings.Join(unsupported, ", "))
	}

	if cli.Output == OutputJSON {
		body, err := graph.Marshal(g)
		if err != nil {
			return err
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cli.Out, pretty.String())
		return err
	}

	fmt.Fprintf(cli.Out, "%s %s\n", Highlight("run"), g.RunID)
	fmt.Fprintf(cli.Out, "%s (%d)\n", Highlight("tasks"), len(g.Order))
	for _, id := range g.Order {
		line := "  " + id.String()
		if parents := g.Parents(id); len(parents) > 0 {
			names := make([]string, len(parents))
			for i, p := range parents {
				names[i] = p.String()
			}
			line += " <- " + strings.Join(names, ", ")
		}
		fmt.Fprintln(cli.Out, line)
	}
	fmt.Fprintf(cli.Out, "%s (%d)\n", Highlight("time constraints"), len(g.TimeConstraints))
	for _, c := range g.TimeConstraints {
		fmt.Fprintf(cli.Out, "  %s %s -> %s %s\n", c.From.Edge, c.From.Task, c.To.Edge, c.To.Task)
	}
	return nil
}
