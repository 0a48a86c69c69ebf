package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/expansion-cli/internal/export"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache contents and prune expired entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		pruned, err := env.Store.DeleteExpired(ctx)
		if err != nil {
			return err
		}

		suggestions, err := env.Store.ListSuggestions(ctx, statusLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "expired cache entries pruned: %d\n", pruned)
		fmt.Fprintf(out, "cached suggestions: %d\n", len(suggestions))
		for _, s := range suggestions {
			fmt.Fprintln(out, export.SummaryLine(s))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "maximum suggestions to list")
	rootCmd.AddCommand(statusCmd)
}
