package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

// DirColumns are the headers of the 16 directional-frequency columns, named
// by the truncated lower-bound degree of each 22.5° sector.
func DirColumns() []string {
	cols := make([]string, models.DirBins)
	for i := range cols {
		cols[i] = fmt.Sprintf("dir_%d", int(float64(i)*22.5))
	}
	return cols
}

// WriteAtlas writes the atlas rows to w. Undefined statistics (NaN) become
// empty fields. Metadata columns are appended on the right when any row
// carries joined station metadata.
func WriteAtlas(w io.Writer, rows []models.AtlasRow) error {
	withMeta := false
	for _, row := range rows {
		if row.Latitude.Valid || row.Name.Valid {
			withMeta = true
			break
		}
	}

	cw := csv.NewWriter(w)

	header := []string{"station", "period", "n", "mean", "p50", "p90", "weibull_k", "weibull_c", "power_density"}
	header = append(header, DirColumns()...)
	if withMeta {
		header = append(header, "name", "latitude", "longitude", "elevation")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.StationID,
			row.Period,
			strconv.Itoa(row.N),
			formatFloat(row.MeanSpeed),
			formatFloat(row.P50Speed),
			formatFloat(row.P90Speed),
			formatFloat(row.WeibullK),
			formatFloat(row.WeibullC),
			formatFloat(row.PowerDensity),
		}
		for _, f := range row.DirFreq {
			record = append(record, formatFloat(f))
		}
		if withMeta {
			record = append(record,
				nullString(row.Name.String, row.Name.Valid),
				nullFloat(row.Latitude.Float64, row.Latitude.Valid),
				nullFloat(row.Longitude.Float64, row.Longitude.Valid),
				nullFloat(row.Elevation.Float64, row.Elevation.Valid),
			)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAtlasFile writes the atlas to path via a temp file and rename, so a
// failed run never leaves a partial artifact behind.
func WriteAtlasFile(path string, rows []models.AtlasRow) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteAtlas(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// WriteObservations writes a merged observation table in the same shape
// ReadObservations accepts, sorted order left to the caller.
func WriteObservations(w io.Writer, observations []models.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"station", "datetime", "wdir", "wspd", "wpgt"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, obs := range observations {
		record := []string{
			obs.StationID,
			obs.ObservedAt.UTC().Format("2006-01-02 15:04:05"),
			nullFloat(obs.WindDir.Float64, obs.WindDir.Valid),
			nullFloat(obs.WindSpeed.Float64, obs.WindSpeed.Valid),
			nullFloat(obs.WindGust.Float64, obs.WindGust.Valid),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func nullFloat(v float64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func nullString(s string, valid bool) string {
	if !valid {
		return ""
	}
	return s
}
