package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/expansion-cli/internal/export"
)

var (
	exportOut   string
	exportLimit int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached suggestions to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		suggestions, err := env.Store.ListSuggestions(ctx, exportLimit)
		if err != nil {
			return eris.Wrap(err, "list suggestions")
		}
		if len(suggestions) == 0 {
			return eris.New("no cached suggestions to export; run score or batch first")
		}

		if err := export.WriteXLSX(exportOut, suggestions); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d suggestions to %s\n", len(suggestions), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "suggestions.xlsx", "output workbook path")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 500, "maximum suggestions to export")
	rootCmd.AddCommand(exportCmd)
}
