// Package importer loads the store network from CSV and shapefile sources.
package importer

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/model"
)

// csvColumns maps header names to their meaning. Header matching is
// case-insensitive; unknown columns are ignored.
var csvColumns = []string{"id", "name", "lat", "lng", "annual_turnover", "city_size", "status", "country", "region"}

// LoadCSV reads stores from a CSV file with a header row. Rows with a
// missing ID are skipped with a warning; optional numeric fields left
// empty stay unset.
func LoadCSV(path string) ([]model.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "importer: read csv header")
	}
	idx := headerIndex(header)
	if _, ok := idx["id"]; !ok {
		return nil, eris.New("importer: csv missing required id column")
	}

	var stores []model.Store
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "importer: read csv line %d", line)
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		id := field("id")
		if id == "" {
			zap.L().Warn("importer: skipping csv row without id", zap.Int("line", line))
			continue
		}

		s := model.Store{
			ID:      id,
			Name:    field("name"),
			Status:  field("status"),
			Country: field("country"),
			Region:  field("region"),
		}
		s.Lat = parseFloat(field("lat"))
		s.Lng = parseFloat(field("lng"))
		s.AnnualTurnover = parseFloat(field("annual_turnover"))
		if cs := citySize(field("city_size")); cs != nil {
			s.CitySize = cs
		}

		stores = append(stores, s)
	}

	zap.L().Info("store network loaded from csv",
		zap.String("path", path), zap.Int("stores", len(stores)))
	return stores, nil
}

// LoadShapefile reads stores from a point shapefile. Attribute fields ID,
// NAME, TURNOVER, STATUS, COUNTRY, REGION and CITYSIZE are matched
// case-insensitively; coordinates come from the point geometry.
func LoadShapefile(path string) ([]model.Store, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, "ID")
	if idIdx < 0 {
		return nil, eris.New("importer: shapefile missing required ID field")
	}
	nameIdx := fieldIndex(reader, "NAME")
	turnoverIdx := fieldIndex(reader, "TURNOVER")
	statusIdx := fieldIndex(reader, "STATUS")
	countryIdx := fieldIndex(reader, "COUNTRY")
	regionIdx := fieldIndex(reader, "REGION")
	citySizeIdx := fieldIndex(reader, "CITYSIZE")

	attr := func(i int) string {
		if i < 0 {
			return ""
		}
		return strings.TrimSpace(reader.Attribute(i))
	}

	var stores []model.Store
	for reader.Next() {
		_, shape := reader.Shape()
		point, ok := shape.(*shp.Point)
		if !ok {
			zap.L().Warn("importer: skipping non-point shapefile record")
			continue
		}

		id := attr(idIdx)
		if id == "" {
			continue
		}

		lat, lng := point.Y, point.X
		s := model.Store{
			ID:      id,
			Name:    attr(nameIdx),
			Lat:     &lat,
			Lng:     &lng,
			Status:  attr(statusIdx),
			Country: attr(countryIdx),
			Region:  attr(regionIdx),
		}
		s.AnnualTurnover = parseFloat(attr(turnoverIdx))
		s.CitySize = citySize(attr(citySizeIdx))

		stores = append(stores, s)
	}

	zap.L().Info("store network loaded from shapefile",
		zap.String("path", path), zap.Int("stores", len(stores)))
	return stores, nil
}

// LoadCandidatesCSV reads candidate cells from a CSV file with columns
// id, lat, lng and optional gap_score.
func LoadCandidatesCSV(path string) ([]model.ScoredCell, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open candidates csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "importer: read candidates header")
	}
	idx := headerIndex(header)
	for _, required := range []string{"id", "lat", "lng"} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("importer: candidates csv missing %s column", required)
		}
	}

	var cells []model.ScoredCell
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "importer: read candidates line %d", line)
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		lat := parseFloat(field("lat"))
		lng := parseFloat(field("lng"))
		if field("id") == "" || lat == nil || lng == nil {
			zap.L().Warn("importer: skipping malformed candidate row", zap.Int("line", line))
			continue
		}

		cell := model.ScoredCell{ID: field("id"), Lat: *lat, Lng: *lng}
		cell.GapScore = parseFloat(field("gap_score"))
		cells = append(cells, cell)
	}

	return cells, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func citySize(s string) *model.CitySize {
	switch strings.ToLower(s) {
	case "small":
		cs := model.CitySmall
		return &cs
	case "medium":
		cs := model.CityMedium
		return &cs
	case "large":
		cs := model.CityLarge
		return &cs
	}
	return nil
}

func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
