package paystats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Hour is the number of seconds hourly pay is scaled to.
const Hour = 3600.0

// Band is the closed-form mean ± 2σ interval over a duration sample.
type Band struct {
	Low  float64
	High float64
}

// OutlierBand computes mean ± 2 population standard deviations.
func OutlierBand(durations []float64) (Band, error) {
	if len(durations) == 0 {
		return Band{}, ErrNoSamples
	}
	mean, std := stat.PopMeanStdDev(durations, nil)
	return Band{Low: mean - 2*std, High: mean + 2*std}, nil
}

// Filter keeps durations strictly inside the band, in order. A zero-width band keeps everything.
func (b Band) Filter(durations []float64) []float64 {
	if b.Low == b.High {
		return append([]float64(nil), durations...)
	}
	out := make([]float64, 0, len(durations))
	for _, d := range durations {
		if d > b.Low && d < b.High {
			out = append(out, d)
		}
	}
	return out
}

// RemoveOutliers computes the band once and filters once; it does not iterate.
func RemoveOutliers(durations []float64) ([]float64, error) {
	band, err := OutlierBand(durations)
	if err != nil {
		return nil, err
	}
	return band.Filter(durations), nil
}

// Summary holds descriptive statistics over durations in seconds.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
	Band   Band
}

// Summarize computes min, max, mean, median and population standard deviation.
func Summarize(durations []float64) (Summary, error) {
	if len(durations) == 0 {
		return Summary{}, ErrNoSamples
	}
	mean, std := stat.PopMeanStdDev(durations, nil)
	return Summary{
		Count:  len(durations),
		Min:    floats.Min(durations),
		Max:    floats.Max(durations),
		Mean:   mean,
		Median: median(durations),
		StdDev: std,
		Band:   Band{Low: mean - 2*std, High: mean + 2*std},
	}, nil
}

// HourlyPay is the implied hourly rate for each summary duration.
// The slowest time gives the minimum rate and the fastest the maximum.
type HourlyPay struct {
	Min    float64
	Mean   float64
	Median float64
	Max    float64
}

// Hourly converts durations to hourly pay at a flat rate per assignment.
func (s Summary) Hourly(pay float64) HourlyPay {
	return HourlyPay{
		Min:    hourlyRate(s.Max, pay),
		Mean:   hourlyRate(s.Mean, pay),
		Median: hourlyRate(s.Median, pay),
		Max:    hourlyRate(s.Min, pay),
	}
}

func hourlyRate(seconds, pay float64) float64 {
	return (Hour / seconds) * pay
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
