// Package main is ordercli, an offline companion to the ordercore server.
// It prices lines, prints the lifecycle graph and issues development tokens.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "ordercli",
		Short: "ordercli - pricing and lifecycle tools for ordercore",
		Long: `ordercli runs the ordercore pricing engine and lifecycle rules locally.

Nothing is stored: every command works on its flags and prints JSON.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(newComputeCmd())
	root.AddCommand(newTransitionsCmd())
	root.AddCommand(newTokenCmd())
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
