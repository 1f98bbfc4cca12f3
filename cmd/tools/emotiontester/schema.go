package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the model artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(analysis.ArtifactSchema())
		},
	}
}
