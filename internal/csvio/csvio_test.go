package csvio

import (
	"bytes"
	"database/sql"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

func TestReadObservations(t *testing.T) {
	input := strings.Join([]string{
		"station,datetime,wdir,wspd,wpgt",
		"47108,2024-06-01 00:00:00,180,3.5,6.1",
		"47108,2024-06-01 01:00:00,,4.0,",
		"47108,not-a-timestamp,90,2.0,3.0",
		"47185,2024-06-01T02:00:00Z,270,,",
		"47185,,120,1.0,2.0",
	}, "\n")

	observations, skipped, err := ReadObservations(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadObservations: %v", err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2 (bad timestamp + empty timestamp)", skipped)
	}
	if len(observations) != 3 {
		t.Fatalf("len(observations) = %d, want 3", len(observations))
	}

	first := observations[0]
	if first.StationID != "47108" {
		t.Errorf("StationID = %q, want 47108", first.StationID)
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !first.ObservedAt.Equal(want) {
		t.Errorf("ObservedAt = %v, want %v", first.ObservedAt, want)
	}
	if !first.WindDir.Valid || first.WindDir.Float64 != 180 {
		t.Errorf("WindDir = %+v, want 180", first.WindDir)
	}
	if !first.WindGust.Valid || first.WindGust.Float64 != 6.1 {
		t.Errorf("WindGust = %+v, want 6.1", first.WindGust)
	}

	// empty cells are absent, not zero
	second := observations[1]
	if second.WindDir.Valid {
		t.Errorf("empty wdir should be absent, got %+v", second.WindDir)
	}
	if !second.WindSpeed.Valid || second.WindSpeed.Float64 != 4.0 {
		t.Errorf("WindSpeed = %+v, want 4.0", second.WindSpeed)
	}

	// RFC3339 timestamps are accepted too
	third := observations[2]
	if third.WindSpeed.Valid {
		t.Errorf("empty wspd should be absent, got %+v", third.WindSpeed)
	}
	if third.ObservedAt.Hour() != 2 {
		t.Errorf("ObservedAt = %v, want hour 2", third.ObservedAt)
	}
}

func TestReadObservationsMissingColumn(t *testing.T) {
	input := "station,wdir,wspd\n47108,180,3.5\n"
	_, _, err := ReadObservations(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for missing datetime column")
	}
}

func TestReadStations(t *testing.T) {
	input := strings.Join([]string{
		"station,name,latitude,longitude,elevation",
		"47108,Seoul,37.57,126.97,86",
		"47185,Jeju,33.51,126.53,20.5",
	}, "\n")

	stations, err := ReadStations(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadStations: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("len(stations) = %d, want 2", len(stations))
	}
	if stations[0].Name != "Seoul" || stations[0].Latitude != 37.57 {
		t.Errorf("stations[0] = %+v", stations[0])
	}
	if stations[1].Elevation != 20.5 {
		t.Errorf("Elevation = %v, want 20.5", stations[1].Elevation)
	}
}

func TestDirColumns(t *testing.T) {
	cols := DirColumns()
	if len(cols) != 16 {
		t.Fatalf("len(cols) = %d, want 16", len(cols))
	}
	wantFirst := []string{"dir_0", "dir_22", "dir_45", "dir_67", "dir_90"}
	for i, want := range wantFirst {
		if cols[i] != want {
			t.Errorf("cols[%d] = %q, want %q", i, cols[i], want)
		}
	}
	if cols[15] != "dir_337" {
		t.Errorf("cols[15] = %q, want dir_337", cols[15])
	}
}

func atlasRow(station, period string) models.AtlasRow {
	row := models.AtlasRow{}
	row.StationID = station
	row.Period = period
	row.N = 25
	row.MeanSpeed = 4.2
	row.P50Speed = 4.0
	row.P90Speed = 7.1
	row.WeibullK = 2.1
	row.WeibullC = 4.8
	row.PowerDensity = 123.4
	row.DirFreq[0] = 0.5
	row.DirFreq[15] = 0.5
	return row
}

func TestWriteAtlasRoundTrip(t *testing.T) {
	withMeta := atlasRow("47108", "2024")
	withMeta.Name = sql.NullString{String: "Seoul", Valid: true}
	withMeta.Latitude = sql.NullFloat64{Float64: 37.57, Valid: true}
	withMeta.Longitude = sql.NullFloat64{Float64: 126.97, Valid: true}
	withMeta.Elevation = sql.NullFloat64{Float64: 86, Valid: true}

	undefined := atlasRow("47185", "2024")
	undefined.N = 0
	undefined.MeanSpeed = math.NaN()
	undefined.P50Speed = math.NaN()
	undefined.P90Speed = math.NaN()
	undefined.WeibullK = math.NaN()
	undefined.WeibullC = math.NaN()
	undefined.PowerDensity = math.NaN()

	var buf bytes.Buffer
	if err := WriteAtlas(&buf, []models.AtlasRow{withMeta, undefined}); err != nil {
		t.Fatalf("WriteAtlas: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "station,period,n,mean,p50,p90,weibull_k,weibull_c,power_density,dir_0,dir_22") {
		t.Errorf("unexpected header in output:\n%s", out)
	}
	// NaN statistics serialize as empty fields
	if !strings.Contains(out, "47185,2024,0,,,,,,") {
		t.Errorf("undefined row not serialized with empty fields:\n%s", out)
	}

	rows, err := ReadAtlas(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ReadAtlas: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Name.String != "Seoul" || !rows[0].Latitude.Valid {
		t.Errorf("metadata lost in round trip: %+v", rows[0])
	}
	if rows[0].DirFreq[15] != 0.5 {
		t.Errorf("DirFreq[15] = %v, want 0.5", rows[0].DirFreq[15])
	}
	if !math.IsNaN(rows[1].WeibullK) {
		t.Errorf("WeibullK = %v, want NaN after round trip", rows[1].WeibullK)
	}
	if rows[1].Name.Valid {
		t.Errorf("metadata should be null for unmatched station")
	}
}

func TestWriteAtlasWithoutMetadataOmitsColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAtlas(&buf, []models.AtlasRow{atlasRow("47108", "2024")}); err != nil {
		t.Fatalf("WriteAtlas: %v", err)
	}
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	if strings.Contains(header, "latitude") {
		t.Errorf("metadata columns present without metadata:\n%s", header)
	}
}

func TestWriteAtlasFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/wind_atlas_annual.csv"

	if err := WriteAtlasFile(path, []models.AtlasRow{atlasRow("47108", "2024")}); err != nil {
		t.Fatalf("WriteAtlasFile: %v", err)
	}
	rows, err := ReadAtlasFile(path)
	if err != nil {
		t.Fatalf("ReadAtlasFile: %v", err)
	}
	if len(rows) != 1 || rows[0].StationID != "47108" {
		t.Errorf("rows = %+v", rows)
	}
}
