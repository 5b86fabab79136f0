package main

import (
	"github.com/spf13/cobra"

	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/infrastructure/http/v1/dto"
)

func newTransitionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Print the lifecycle graph with labels for a document kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("kind")
			kind, err := commercial.ParseKind(raw)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.FromTransitionTable(kind))
		},
	}
	cmd.Flags().String("kind", string(commercial.KindSalesOrder), "Document kind")
	return cmd
}
