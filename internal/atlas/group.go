package atlas

import (
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

// Freq selects the calendar bucket observations are grouped into.
type Freq string

const (
	FreqAnnual  Freq = "annual"
	FreqMonthly Freq = "monthly"
)

// PeriodKey identifies one aggregation group.
type PeriodKey struct {
	StationID string
	Period    string
}

// PeriodLabel derives the calendar bucket for an observation timestamp.
// Labels are "2006" for annual and "2006-01" for monthly, always in UTC.
func PeriodLabel(obs models.Observation, freq Freq) string {
	t := obs.ObservedAt.UTC()
	if freq == FreqMonthly {
		return t.Format("2006-01")
	}
	return t.Format("2006")
}

// GroupByPeriod buckets observations by station and calendar period.
// Two observations land in the same group iff they share a station and a
// calendar bucket. Only non-empty groups exist in the result.
func GroupByPeriod(observations []models.Observation, freq Freq) map[PeriodKey][]models.Observation {
	groups := make(map[PeriodKey][]models.Observation)
	for _, obs := range observations {
		key := PeriodKey{StationID: obs.StationID, Period: PeriodLabel(obs, freq)}
		groups[key] = append(groups[key], obs)
	}
	return groups
}
