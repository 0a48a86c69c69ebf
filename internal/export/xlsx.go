// Package export renders strategic suggestions to spreadsheet files for
// review by expansion planners.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/model"
)

var headerRow = []string{
	"Cell ID", "Lat", "Lng", "Confidence", "Weighted Total",
	"Dominant Strategy", "Classification",
	"White-Space", "Economic", "Anchor", "Cluster",
	"Data Completeness", "Summary", "Highlights", "Risk Factors",
	"Generated At",
}

// WriteXLSX writes suggestions to an xlsx workbook with one row per
// candidate, sorted as given.
func WriteXLSX(path string, suggestions []model.StrategicSuggestion) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Suggestions")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range headerRow {
		hr.AddCell().SetString(h)
	}

	for _, s := range suggestions {
		b := s.Breakdown
		row := sheet.AddRow()
		row.AddCell().SetString(s.CellID)
		row.AddCell().SetFloat(s.Lat)
		row.AddCell().SetFloat(s.Lng)
		row.AddCell().SetString(string(s.Confidence))
		row.AddCell().SetFloat(round3(b.WeightedTotal))
		row.AddCell().SetString(string(b.DominantStrategy))
		row.AddCell().SetString(b.Classification)
		row.AddCell().SetFloat(round3(b.WhiteSpaceScore))
		row.AddCell().SetFloat(round3(b.EconomicScore))
		row.AddCell().SetFloat(round3(b.AnchorScore))
		row.AddCell().SetFloat(round3(b.ClusterScore))
		row.AddCell().SetFloat(round3(s.DataCompleteness))
		row.AddCell().SetString(s.Summary)
		row.AddCell().SetString(strings.Join(s.Highlights, "; "))
		row.AddCell().SetString(strings.Join(s.RiskFactors, "; "))
		row.AddCell().SetString(s.GeneratedAt.Format("2006-01-02 15:04:05"))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}

	zap.L().Info("suggestions exported",
		zap.String("path", path), zap.Int("rows", len(suggestions)))
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// SummaryLine renders one suggestion as a terminal-friendly line.
func SummaryLine(s model.StrategicSuggestion) string {
	return fmt.Sprintf("%-12s %8.4f,%8.4f  %-18s total=%.2f dominant=%s",
		s.CellID, s.Lat, s.Lng, s.Confidence, s.Breakdown.WeightedTotal, s.Breakdown.DominantStrategy)
}
