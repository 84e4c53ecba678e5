package api

import (
	"fmt"
	"math"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

// undefinedStat is how an undefined statistic renders on the page.
const undefinedStat = "–"

// StationOption is one entry of the station/period selector.
type StationOption struct {
	StationID string
	Name      string
	Periods   []string
}

// SummaryView is the JSON shape of one atlas row. Undefined statistics are
// null rather than NaN, which JSON cannot carry.
type SummaryView struct {
	Station      string    `json:"station"`
	Period       string    `json:"period"`
	N            int       `json:"n"`
	Mean         *float64  `json:"mean"`
	P50          *float64  `json:"p50"`
	P90          *float64  `json:"p90"`
	WeibullK     *float64  `json:"weibull_k"`
	WeibullC     *float64  `json:"weibull_c"`
	PowerDensity *float64  `json:"power_density"`
	DirFreq      []float64 `json:"dir_freq"`
	Name         *string   `json:"name"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Elevation    *float64  `json:"elevation"`
}

func newSummaryView(row models.AtlasRow) SummaryView {
	view := SummaryView{
		Station:      row.StationID,
		Period:       row.Period,
		N:            row.N,
		Mean:         finitePtr(row.MeanSpeed),
		P50:          finitePtr(row.P50Speed),
		P90:          finitePtr(row.P90Speed),
		WeibullK:     finitePtr(row.WeibullK),
		WeibullC:     finitePtr(row.WeibullC),
		PowerDensity: finitePtr(row.PowerDensity),
		DirFreq:      append([]float64(nil), row.DirFreq[:]...),
	}
	if row.Name.Valid {
		view.Name = &row.Name.String
	}
	if row.Latitude.Valid {
		view.Latitude = &row.Latitude.Float64
	}
	if row.Longitude.Valid {
		view.Longitude = &row.Longitude.Float64
	}
	if row.Elevation.Valid {
		view.Elevation = &row.Elevation.Float64
	}
	return view
}

// IndexData renders the explorer page for one selected row.
type IndexData struct {
	Stations []StationOption
	Selected models.AtlasRow
	HasRow   bool
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// formatStat renders a statistic for the metric cards, with the undefined
// sentinel for NaN.
func formatStat(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return undefinedStat
	}
	return fmt.Sprintf("%.*f", decimals, v)
}
