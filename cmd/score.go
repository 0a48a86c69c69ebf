package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/model"
	"github.com/sells-group/expansion-cli/pkg/geocode"
	"github.com/sells-group/expansion-cli/pkg/rationale"
)

var (
	scoreLat       float64
	scoreLng       float64
	scorePlace     string
	scoreStores    string
	scoreRegion    string
	scoreGap       float64
	scoreNarrative bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one candidate location",
	RunE: func(cmd *cobra.Command, args []string) error {
		if scorePlace == "" && scoreLat == 0 && scoreLng == 0 {
			return eris.New("either --place or --lat/--lng is required")
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lat, lng := scoreLat, scoreLng
		if scorePlace != "" {
			gc := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.Token)
			res, err := gc.Forward(ctx, scorePlace)
			if err != nil {
				return eris.Wrap(err, "geocode place")
			}
			if !res.Matched {
				return eris.Errorf("no geocoding match for %q", scorePlace)
			}
			lat, lng = res.Lat, res.Lng
			zap.L().Info("place geocoded",
				zap.String("place", res.PlaceName),
				zap.Float64("lat", lat),
				zap.Float64("lng", lng),
			)
		}

		stores, err := loadStores(scoreStores)
		if err != nil {
			return err
		}

		cell := model.ScoredCell{ID: uuid.New().String(), Lat: lat, Lng: lng}
		if cmd.Flags().Changed("gap-score") {
			cell.GapScore = &scoreGap
		}

		ec := expansionContext(stores, scoreRegion)
		suggestion, ok := env.Processor.ProcessCandidate(ctx, cell, ec)
		if !ok {
			return eris.New("candidate scoring timed out or failed")
		}
		env.Monitor.Record(suggestion)

		if scoreNarrative {
			suggestion.Summary = narrate(cmd, env, suggestion)
		}

		out, err := json.MarshalIndent(suggestion, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal suggestion")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// narrate swaps the template summary for an LLM narrative, falling back to
// the deterministic template when the API is unavailable.
func narrate(cmd *cobra.Command, env *scoringEnv, s *model.StrategicSuggestion) string {
	if env.Rationale == nil {
		return rationale.FallbackNarrative(s)
	}
	text, err := env.Rationale.Narrative(cmd.Context(), s)
	if err != nil {
		zap.L().Warn("narrative generation failed, using fallback", zap.Error(err))
		return rationale.FallbackNarrative(s)
	}
	return text
}

func init() {
	scoreCmd.Flags().Float64Var(&scoreLat, "lat", 0, "candidate latitude")
	scoreCmd.Flags().Float64Var(&scoreLng, "lng", 0, "candidate longitude")
	scoreCmd.Flags().StringVar(&scorePlace, "place", "", "place name to geocode instead of coordinates")
	scoreCmd.Flags().StringVar(&scoreStores, "stores", "stores.csv", "store network file (.csv or .shp)")
	scoreCmd.Flags().StringVar(&scoreRegion, "region", "", "region filter")
	scoreCmd.Flags().Float64Var(&scoreGap, "gap-score", 0, "prior coverage-gap score in [0,1]")
	scoreCmd.Flags().BoolVar(&scoreNarrative, "narrative", false, "generate an LLM narrative summary")
	rootCmd.AddCommand(scoreCmd)
}
