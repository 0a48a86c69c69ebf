package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/export"
	"github.com/sells-group/expansion-cli/internal/importer"
	"github.com/sells-group/expansion-cli/internal/model"
)

var (
	batchCandidates string
	batchStores     string
	batchRegion     string
	batchOut        string
	batchGeoJSON    string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score a batch of candidate locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		cells, err := importer.LoadCandidatesCSV(batchCandidates)
		if err != nil {
			return err
		}
		if len(cells) == 0 {
			return eris.Errorf("no candidates in %s", batchCandidates)
		}

		stores, err := loadStores(batchStores)
		if err != nil {
			return err
		}

		ec := expansionContext(stores, batchRegion)
		result := env.Processor.ProcessBatch(ctx, cells, ec)
		for _, s := range result.Suggestions {
			env.Monitor.Record(s)
		}

		zap.L().Info("batch complete",
			zap.Int("processed", result.TotalProcessed),
			zap.Int("errors", result.ErrorCount),
			zap.Float64("success_rate", result.SuccessRate),
			zap.Duration("avg_processing_time", result.AvgProcessingTime),
		)

		if batchGeoJSON != "" {
			if err := export.WriteGeoJSON(batchGeoJSON, cells, result.Suggestions); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d features to %s\n", len(cells), batchGeoJSON)
		}

		if batchOut != "" {
			flat := make([]model.StrategicSuggestion, len(result.Suggestions))
			for i, s := range result.Suggestions {
				flat[i] = *s
			}
			if err := export.WriteXLSX(batchOut, flat); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d suggestions to %s\n", len(flat), batchOut)
			return nil
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal batch result")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCandidates, "candidates", "", "candidate cells CSV (id,lat,lng[,gap_score])")
	batchCmd.Flags().StringVar(&batchStores, "stores", "stores.csv", "store network file (.csv or .shp)")
	batchCmd.Flags().StringVar(&batchRegion, "region", "", "region filter")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write suggestions to an xlsx workbook")
	batchCmd.Flags().StringVar(&batchGeoJSON, "geojson", "", "write candidate features to a GeoJSON file")
	_ = batchCmd.MarkFlagRequired("candidates")
	rootCmd.AddCommand(batchCmd)
}
