package ingest

import (
	"bytes"
	"testing"
	"time"
)

func TestParseISDLite(t *testing.T) {
	// year month day hour temp dewpt pressure wdir wspd sky p1 p6
	data := "2024 06 01 00   215   180 10120  180    35    3 -9999 -9999\n" +
		"2024 06 01 01   210 -9999 10122 -9999    40    3 -9999 -9999\n" +
		"2024 06 01 02   208   175 10124   90 -9999    3 -9999 -9999\n" +
		"garbage line\n"

	observations, skipped, err := ParseISDLite("471080-99999", bytes.NewReader(gzipBytes(t, data)))
	if err != nil {
		t.Fatalf("ParseISDLite: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(observations) != 3 {
		t.Fatalf("len(observations) = %d, want 3", len(observations))
	}

	first := observations[0]
	if first.StationID != "471080-99999" {
		t.Errorf("StationID = %q", first.StationID)
	}
	wantAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !first.ObservedAt.Equal(wantAt) {
		t.Errorf("ObservedAt = %v, want %v", first.ObservedAt, wantAt)
	}
	if !first.WindDir.Valid || first.WindDir.Float64 != 180 {
		t.Errorf("WindDir = %+v, want 180", first.WindDir)
	}
	// archive speeds are scaled by ten
	if !first.WindSpeed.Valid || first.WindSpeed.Float64 != 3.5 {
		t.Errorf("WindSpeed = %+v, want 3.5", first.WindSpeed)
	}

	// -9999 direction is absent, speed still present
	second := observations[1]
	if second.WindDir.Valid {
		t.Errorf("missing direction came back valid: %+v", second.WindDir)
	}
	if !second.WindSpeed.Valid || second.WindSpeed.Float64 != 4.0 {
		t.Errorf("WindSpeed = %+v, want 4.0", second.WindSpeed)
	}

	// -9999 speed is absent, direction still present
	third := observations[2]
	if third.WindSpeed.Valid {
		t.Errorf("missing speed came back valid: %+v", third.WindSpeed)
	}
	if !third.WindDir.Valid || third.WindDir.Float64 != 90 {
		t.Errorf("WindDir = %+v, want 90", third.WindDir)
	}
}

func TestParseISDLiteRejectsBadGzip(t *testing.T) {
	_, _, err := ParseISDLite("x", bytes.NewReader([]byte("not gzip")))
	if err == nil {
		t.Fatal("expected error for non-gzip input")
	}
}
