package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/expansion-cli/internal/model"
)

var (
	importCSV       string
	importShapefile string
	importOut       string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a store network and write it as normalized CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		switch {
		case importCSV != "" && importShapefile != "":
			return eris.New("--csv and --shapefile are mutually exclusive")
		case importCSV != "":
			path = importCSV
		case importShapefile != "":
			path = importShapefile
		default:
			return eris.New("either --csv or --shapefile is required")
		}

		stores, err := loadStores(path)
		if err != nil {
			return err
		}
		if len(stores) == 0 {
			return eris.Errorf("no stores found in %s", path)
		}

		if err := writeStoresCSV(importOut, stores); err != nil {
			return err
		}

		placed := 0
		for _, s := range stores {
			if s.Placed() {
				placed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d stores (%d placed) to %s\n",
			len(stores), placed, importOut)
		return nil
	},
}

func writeStoresCSV(path string, stores []model.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "name", "lat", "lng", "annual_turnover", "city_size", "status", "country", "region"}); err != nil {
		return eris.Wrap(err, "write csv header")
	}

	fmtFloat := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}

	for _, s := range stores {
		citySize := ""
		if s.CitySize != nil {
			citySize = string(*s.CitySize)
		}
		record := []string{
			s.ID, s.Name,
			fmtFloat(s.Lat), fmtFloat(s.Lng), fmtFloat(s.AnnualTurnover),
			citySize, s.Status, s.Country, s.Region,
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "write csv record")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "flush csv")
}

func init() {
	importCmd.Flags().StringVar(&importCSV, "csv", "", "store network CSV to import")
	importCmd.Flags().StringVar(&importShapefile, "shapefile", "", "point shapefile to import")
	importCmd.Flags().StringVar(&importOut, "out", "stores.csv", "normalized output CSV path")
	rootCmd.AddCommand(importCmd)
}
