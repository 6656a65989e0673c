package command

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

// CLI carries the streams and global options shared by every subcommand.
type CLI struct {
	Out    io.Writer
	Err    io.Writer
	Logger *slog.Logger

	Output string
	Debug  bool
}

func NewCLI(out, errOut io.Writer) *CLI {
	return &CLI{
		Out:    out,
		Err:    errOut,
		Logger: slog.New(slog.NewJSONHandler(errOut, &slog.HandlerOptions{Level: slog.LevelWarn})),
		Output: OutputText,
	}
}

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rungraph",
		Short: "Turn protocol runs into task dependency graphs",
		Long: Highlight("rungraph <command> -f <run>") + "\n\n" +
			"rungraph reads a protocol run (JSON or YAML), derives the containers each\n" +
			"instruction touches and prints the resulting task graph, its per-container\n" +
			"chains or an execution order. It can also submit runs to a graph-service.\n",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

// AddCommands registers every subcommand and the global flags on root.
func AddCommands(root *cobra.Command, cli *CLI) {
	root.PersistentFlags().StringVarP(&cli.Output, "output", "o", OutputText, "Output format. One of: (text | json)")
	root.PersistentFlags().BoolVar(&cli.Debug, "debug", false, "Log at debug level")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cli.Debug {
			cli.Logger = slog.New(slog.NewJSONHandler(cli.Err, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		return validateOutput(cli.Output)
	}

	root.AddCommand(
		NewBuildCommand(cli),
		NewRefsCommand(cli),
		NewChainsCommand(cli),
		NewOrderCommand(cli),
		NewDecodeIDCommand(cli),
		NewSubmitCommand(cli),
	)
}

func Highlight(s string) string {
	return color.New(color.FgCyan, color.Bold).Sprint(s)
}
