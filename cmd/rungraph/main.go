package main

import (
	"fmt"
	"os"

	"github.com/animus-labs/rungraph/cmd/rungraph/internal/command"
)

func main() {
	root := command.NewRootCommand()
	command.AddCommands(root, command.NewCLI(os.Stdout, os.Stderr))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
