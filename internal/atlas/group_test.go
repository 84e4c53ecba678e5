package atlas

import (
	"database/sql"
	"testing"
	"time"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

func obsAt(station string, t time.Time, speed float64) models.Observation {
	return models.Observation{
		StationID:  station,
		ObservedAt: t,
		WindSpeed:  sql.NullFloat64{Float64: speed, Valid: true},
	}
}

func TestPeriodLabel(t *testing.T) {
	ts := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		freq Freq
		want string
	}{
		{"annual", FreqAnnual, "2024"},
		{"monthly", FreqMonthly, "2024-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeriodLabel(models.Observation{ObservedAt: ts}, tt.freq)
			if got != tt.want {
				t.Errorf("PeriodLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPeriodLabelNormalizesToUTC(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	// 2024-01-01 03:00 KST is still 2023-12-31 18:00 UTC
	ts := time.Date(2024, 1, 1, 3, 0, 0, 0, kst)

	got := PeriodLabel(models.Observation{ObservedAt: ts}, FreqMonthly)
	if got != "2023-12" {
		t.Errorf("PeriodLabel = %q, want 2023-12 (UTC bucket)", got)
	}
}

func TestGroupByPeriod(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	observations := []models.Observation{
		obsAt("47108", jan, 3),
		obsAt("47108", jan.Add(time.Hour), 4),
		obsAt("47108", feb, 5),
		obsAt("47185", jan, 6),
	}

	groups := GroupByPeriod(observations, FreqMonthly)
	if len(groups) != 3 {
		t.Fatalf("len(groups) = %d, want 3", len(groups))
	}
	if n := len(groups[PeriodKey{"47108", "2024-01"}]); n != 2 {
		t.Errorf("47108/2024-01 has %d observations, want 2", n)
	}
	if n := len(groups[PeriodKey{"47108", "2024-02"}]); n != 1 {
		t.Errorf("47108/2024-02 has %d observations, want 1", n)
	}
	if n := len(groups[PeriodKey{"47185", "2024-01"}]); n != 1 {
		t.Errorf("47185/2024-01 has %d observations, want 1", n)
	}

	// annual grouping collapses the months
	groups = GroupByPeriod(observations, FreqAnnual)
	if len(groups) != 2 {
		t.Fatalf("annual len(groups) = %d, want 2", len(groups))
	}
	if n := len(groups[PeriodKey{"47108", "2024"}]); n != 3 {
		t.Errorf("47108/2024 has %d observations, want 3", n)
	}
}

func TestGroupByPeriodEmptyInput(t *testing.T) {
	groups := GroupByPeriod(nil, FreqMonthly)
	if len(groups) != 0 {
		t.Errorf("len(groups) = %d, want 0", len(groups))
	}
}
