package models

import (
	"database/sql"
	"time"
)

type Station struct {
	StationID string
	Name      string
	Country   string
	Latitude  float64
	Longitude float64
	Elevation float64
}

// Observation is a single wind reading at a station. Direction, speed and
// gust are independently optional; an absent field never contributes to
// aggregates.
type Observation struct {
	StationID  string
	ObservedAt time.Time
	WindDir    sql.NullFloat64 // degrees, [0,360)
	WindSpeed  sql.NullFloat64 // m/s
	WindGust   sql.NullFloat64 // m/s
}

// DirBins is the number of compass sectors in the direction histogram.
const DirBins = 16

// Summary holds the wind statistics for one (station, period) group.
// WeibullK, WeibullC and the speed statistics are NaN when undefined
// (empty speed sample, or fewer than 20 positive speeds for the fit).
type Summary struct {
	StationID    string
	Period       string // "2006" or "2006-01"
	N            int    // count of non-absent speed values
	MeanSpeed    float64
	P50Speed     float64
	P90Speed     float64
	WeibullK     float64
	WeibullC     float64
	PowerDensity float64 // W/m²
	DirFreq      [DirBins]float64
}

// AtlasRow is a Summary left-joined with station metadata. Geo fields are
// null when the station has no catalog entry.
type AtlasRow struct {
	Summary
	Name      sql.NullString
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	Elevation sql.NullFloat64
}
