package atlas

import (
	"math"
	"sort"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

const (
	// DefaultRho is the sea-level standard air density in kg/m³.
	DefaultRho = 1.225

	binWidth = 360.0 / models.DirBins
)

// Speeds extracts the non-absent wind speeds from a group.
func Speeds(observations []models.Observation) []float64 {
	var speeds []float64
	for _, obs := range observations {
		if obs.WindSpeed.Valid {
			speeds = append(speeds, obs.WindSpeed.Float64)
		}
	}
	return speeds
}

// Directions extracts the non-absent wind directions from a group.
func Directions(observations []models.Observation) []float64 {
	var dirs []float64
	for _, obs := range observations {
		if obs.WindDir.Valid {
			dirs = append(dirs, obs.WindDir.Float64)
		}
	}
	return dirs
}

// Mean returns the arithmetic mean, or NaN for an empty sample.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Percentile computes the p-th percentile with linear interpolation between
// order statistics. Returns NaN for an empty sample.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// PowerDensity is the mean available wind power per unit area,
// 0.5·rho·mean(v³) in W/m². NaN for an empty sample.
func PowerDensity(speeds []float64, rho float64) float64 {
	if len(speeds) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range speeds {
		sum += v * v * v
	}
	return 0.5 * rho * sum / float64(len(speeds))
}

// DirBin maps a direction in degrees to its compass sector,
// floor((d mod 360) / 22.5). Negative inputs wrap into [0,360) first.
func DirBin(deg float64) int {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	bin := int(math.Floor(d / binWidth))
	if bin >= models.DirBins {
		// d just under 360 can round up through the division
		bin = models.DirBins - 1
	}
	return bin
}

// DirectionFreq bins directions into 16 equal sectors and normalizes the
// counts to frequencies summing to 1. All zeros when no valid direction
// exists.
func DirectionFreq(dirs []float64) [models.DirBins]float64 {
	var freq [models.DirBins]float64
	if len(dirs) == 0 {
		return freq
	}
	for _, d := range dirs {
		freq[DirBin(d)]++
	}
	total := float64(len(dirs))
	for i := range freq {
		freq[i] /= total
	}
	return freq
}
