package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/expansion-cli/internal/model"
)

var (
	clustersStores  string
	clustersRegion  string
	clustersRefresh bool
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Identify performance clusters in the store network",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		stores, err := loadStores(clustersStores)
		if err != nil {
			return err
		}

		ec := expansionContext(stores, clustersRegion)

		var clusters []model.PerformanceCluster
		if clustersRefresh {
			// Bypass the cache and recompute from the live network.
			clusters = env.Analyzer.Identify(ec.RegionStores())
		} else {
			clusters, err = env.Analyzer.ForRegion(ctx, ec)
			if err != nil {
				return err
			}
		}

		if len(clusters) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no performance clusters identified")
			return nil
		}

		out, err := json.MarshalIndent(clusters, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal clusters")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	clustersCmd.Flags().StringVar(&clustersStores, "stores", "stores.csv", "store network file (.csv or .shp)")
	clustersCmd.Flags().StringVar(&clustersRegion, "region", "", "region filter")
	clustersCmd.Flags().BoolVar(&clustersRefresh, "refresh", false, "recompute instead of reading the cache")
	rootCmd.AddCommand(clustersCmd)
}
