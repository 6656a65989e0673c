package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/animus-labs/rungraph/internal/execution/deps"
	"github.com/animus-labs/rungraph/internal/execution/graph"
	"github.com/animus-labs/rungraph/internal/execution/refs"
	"github.com/animus-labs/rungraph/internal/execution/taskid"
	"github.com/animus-labs/rungraph/internal/execution/tasks"
)

type instructionRefs struct {
	Position   int      `json:"position"`
	Op         string   `json:"op"`
	Supported  bool     `json:"supported"`
	Containers []string `json:"containers"`
}

func NewRefsCommand(cli *CLI) *cobra.Command {
	opts := &RunOptions{}
	cmd := &cobra.Command{
		Use:   "refs -f <run>",
		Short: "List the containers each instruction touches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := opts.load(cmd.InOrStdin())
			if err != nil {
				return err
			}
			out := make([]instructionRefs, 0, len(run.Instructions))
			for _, ins := range run.Instructions {
				containers, err := refs.Extract(ins)
				if err != nil {
					return fmt.Errorf("instruction %d: %w", ins.Position, err)
				}
				out = append(out, instructionRefs{
					Position:   ins.Position,
					Op:         ins.Op,
					Supported:  refs.Supported(ins.Op),
					Containers: containers,
				})
			}
			if cli.Output == OutputJSON {
				return writeJSON(cli.Out, out)
			}
			for _, r := range out {
				note := ""
				if !r.Supported {
					note = " (no rule)"
				}
				fmt.Fprintf(cli.Out, "%d %s%s: %s\n", r.Position, Highlight(r.Op), note, strings.Join(r.Containers, ", "))
			}
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

type containerChain struct {
	Container string   `json:"container"`
	Tasks     []string `json:"tasks"`
}

func NewChainsCommand(cli *CLI) *cobra.Command {
	opts := &RunOptions{}
	cmd := &cobra.Command{
		Use:   "chains -f <run>",
		Short: "Show the ordered tasks touching each container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := opts.load(cmd.InOrStdin())
			if err != nil {
				return err
			}
			set, err := tasks.Build(run)
			if err != nil {
				return err
			}
			chains, order := deps.Chains(set.All)
			out := make([]containerChain, 0, len(order))
			for _, container := range order {
				out = append(out, containerChain{Container: container, Tasks: idStrings(chains[container])})
			}
			if cli.Output == OutputJSON {
				return writeJSON(cli.Out, out)
			}
			for _, c := range out {
				fmt.Fprintf(cli.Out, "%s: %s\n", Highlight(c.Container), strings.Join(c.Tasks, " -> "))
			}
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

func NewOrderCommand(cli *CLI) *cobra.Command {
	opts := &RunOptions{}
	cmd := &cobra.Command{
		Use:   "order -f <run>",
		Short: "Print an execution order that respects every dependency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := opts.load(cmd.InOrStdin())
			if err != nil {
				return err
			}
			g, err := graph.Build(run)
			if err != nil {
				return err
			}
			order, err := graph.Topological(g)
			if err != nil {
				return err
			}
			if cli.Output == OutputJSON {
				return writeJSON(cli.Out, idStrings(order))
			}
			for i, id := range order {
				fmt.Fprintf(cli.Out, "%d %s\n", i, id)
			}
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

type decodedID struct {
	RunID string `json:"run_id"`
	Kind  string `json:"kind"`
	Key   string `json:"key"`
}

func NewDecodeIDCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "decode-id <task-id>...",
		Short: "Split serialized task ids into run id, kind and key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]decodedID, 0, len(args))
			for _, raw := range args {
				id, err := taskid.Decode(raw)
				if err != nil {
					return err
				}
				out = append(out, decodedID{RunID: id.RunID, Kind: string(id.Kind), Key: id.Key})
			}
			if cli.Output == OutputJSON {
				return writeJSON(cli.Out, out)
			}
			for _, id := range out {
				fmt.Fprintf(cli.Out, "run=%s kind=%s key=%s\n", id.RunID, id.Kind, id.Key)
			}
			return nil
		},
	}
}

func idStrings(ids []taskid.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
