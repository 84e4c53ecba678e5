// Package csvio reads observation and station tables and writes the atlas
// artifact. Readers are lenient about per-record problems: rows with an
// unparseable timestamp are skipped and counted, empty cells become absent
// values.
package csvio

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

// timeLayouts are the accepted datetime formats, tried in order. All values
// are interpreted as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ReadObservations parses a wind observation table with header columns
// station, datetime, wdir, wspd and optionally wpgt. It returns the parsed
// observations and the number of rows skipped for a missing or unparseable
// timestamp.
func ReadObservations(r io.Reader) ([]models.Observation, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, required := range []string{"station", "datetime"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("missing required column %q", required)
		}
	}

	var observations []models.Observation
	skipped := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		ts, ok := parseTime(field(record, cols, "datetime"))
		if !ok {
			skipped++
			continue
		}

		observations = append(observations, models.Observation{
			StationID:  field(record, cols, "station"),
			ObservedAt: ts,
			WindDir:    parseNullFloat(field(record, cols, "wdir")),
			WindSpeed:  parseNullFloat(field(record, cols, "wspd")),
			WindGust:   parseNullFloat(field(record, cols, "wpgt")),
		})
	}
	return observations, skipped, nil
}

// ReadStations parses a station metadata table with header columns
// station, latitude, longitude and optionally elevation and name.
func ReadStations(r io.Reader) ([]models.Station, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, required := range []string{"station", "latitude", "longitude"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var stations []models.Station
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		st := models.Station{
			StationID: field(record, cols, "station"),
			Name:      field(record, cols, "name"),
			Country:   field(record, cols, "country"),
		}
		st.Latitude, _ = strconv.ParseFloat(field(record, cols, "latitude"), 64)
		st.Longitude, _ = strconv.ParseFloat(field(record, cols, "longitude"), 64)
		st.Elevation, _ = strconv.ParseFloat(field(record, cols, "elevation"), 64)
		stations = append(stations, st)
	}
	return stations, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseNullFloat(s string) sql.NullFloat64 {
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
