package atlas

import (
	"errors"
	"sort"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

// ErrNoObservations aborts a build before any output is produced. Per-record
// problems degrade locally; an entirely empty input is structural and fatal.
var ErrNoObservations = errors.New("atlas: no observations to aggregate")

// Options configures a build run.
type Options struct {
	Freq Freq
	Rho  float64 // air density kg/m³, DefaultRho when zero
}

// Report summarizes what a build run did.
type Report struct {
	Observations int
	Groups       int
	Rows         int
	MetadataHits int
}

// Summarize computes the full statistics record for one group.
func Summarize(key PeriodKey, observations []models.Observation, rho float64) models.Summary {
	speeds := Speeds(observations)
	k, c := FitWeibull(speeds)

	return models.Summary{
		StationID:    key.StationID,
		Period:       key.Period,
		N:            len(speeds),
		MeanSpeed:    Mean(speeds),
		P50Speed:     Percentile(speeds, 50),
		P90Speed:     Percentile(speeds, 90),
		WeibullK:     k,
		WeibullC:     c,
		PowerDensity: PowerDensity(speeds, rho),
		DirFreq:      DirectionFreq(Directions(observations)),
	}
}

// Build runs the aggregation pipeline: group observations by station and
// period, summarize each group, left-join station metadata, and return the
// rows sorted by station then period. Stations absent from the catalog keep
// null geo fields. Returns ErrNoObservations when there is nothing to do.
func Build(observations []models.Observation, stations []models.Station, opts Options) ([]models.AtlasRow, Report, error) {
	if len(observations) == 0 {
		return nil, Report{}, ErrNoObservations
	}
	rho := opts.Rho
	if rho == 0 {
		rho = DefaultRho
	}
	freq := opts.Freq
	if freq == "" {
		freq = FreqAnnual
	}

	meta := make(map[string]models.Station, len(stations))
	for _, st := range stations {
		meta[st.StationID] = st
	}

	groups := GroupByPeriod(observations, freq)
	report := Report{Observations: len(observations), Groups: len(groups)}

	rows := make([]models.AtlasRow, 0, len(groups))
	for key, group := range groups {
		row := models.AtlasRow{Summary: Summarize(key, group, rho)}
		if st, ok := meta[key.StationID]; ok {
			row.Name.String, row.Name.Valid = st.Name, st.Name != ""
			row.Latitude.Float64, row.Latitude.Valid = st.Latitude, true
			row.Longitude.Float64, row.Longitude.Valid = st.Longitude, true
			row.Elevation.Float64, row.Elevation.Valid = st.Elevation, true
			report.MetadataHits++
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StationID != rows[j].StationID {
			return rows[i].StationID < rows[j].StationID
		}
		return rows[i].Period < rows[j].Period
	})

	report.Rows = len(rows)
	return rows, report, nil
}
