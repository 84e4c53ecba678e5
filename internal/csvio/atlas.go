package csvio

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

// ReadAtlas parses a table previously produced by WriteAtlas. Empty
// statistic fields come back as NaN, empty metadata fields as null.
func ReadAtlas(r io.Reader) ([]models.AtlasRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, required := range []string{"station", "period", "n"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	dirCols := DirColumns()

	var rows []models.AtlasRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		var row models.AtlasRow
		row.StationID = field(record, cols, "station")
		row.Period = field(record, cols, "period")
		row.N, _ = strconv.Atoi(field(record, cols, "n"))
		row.MeanSpeed = floatOrNaN(field(record, cols, "mean"))
		row.P50Speed = floatOrNaN(field(record, cols, "p50"))
		row.P90Speed = floatOrNaN(field(record, cols, "p90"))
		row.WeibullK = floatOrNaN(field(record, cols, "weibull_k"))
		row.WeibullC = floatOrNaN(field(record, cols, "weibull_c"))
		row.PowerDensity = floatOrNaN(field(record, cols, "power_density"))
		for i, name := range dirCols {
			if f := floatOrNaN(field(record, cols, name)); !math.IsNaN(f) {
				row.DirFreq[i] = f
			}
		}

		if name := field(record, cols, "name"); name != "" {
			row.Name = sql.NullString{String: name, Valid: true}
		}
		row.Latitude = parseNullFloat(field(record, cols, "latitude"))
		row.Longitude = parseNullFloat(field(record, cols, "longitude"))
		row.Elevation = parseNullFloat(field(record, cols, "elevation"))

		rows = append(rows, row)
	}
	return rows, nil
}

// ReadAtlasFile loads an atlas table from disk.
func ReadAtlasFile(path string) ([]models.AtlasRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open atlas: %w", err)
	}
	defer f.Close()
	return ReadAtlas(f)
}

func floatOrNaN(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
