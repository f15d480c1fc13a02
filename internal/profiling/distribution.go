package profiling

import (
	"math"

	"chartcraft/domain/grid"

	"github.com/montanaflynn/stats"
)

// SeriesSummary describes the values of one chart series.
type SeriesSummary struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Sum      float64 `json:"sum"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	StdDev   float64 `json:"std_dev"`
	Skewness float64 `json:"skewness"`
}

// DistributionAnalyzer summarizes chart datasets
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// SummarizeDataset returns one summary per series, in series order.
func (da *DistributionAnalyzer) SummarizeDataset(ds grid.Dataset) ([]SeriesSummary, error) {
	out := make([]SeriesSummary, 0, len(ds.Series))
	for _, s := range ds.Series {
		summary, err := da.Summarize(s.Name, s.Values)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// Summarize computes summary statistics. An empty series has a zero
// summary rather than an error.
func (da *DistributionAnalyzer) Summarize(name string, data []float64) (SeriesSummary, error) {
	summary := SeriesSummary{Name: name, Count: len(data)}
	if len(data) == 0 {
		return summary, nil
	}

	var err error
	if summary.Sum, err = stats.Sum(data); err != nil {
		return summary, err
	}
	if summary.Mean, err = stats.Mean(data); err != nil {
		return summary, err
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return summary, err
	}
	if summary.Min, err = stats.Min(data); err != nil {
		return summary, err
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return summary, err
	}
	// a single value has no sample deviation; the library answers NaN
	if summary.StdDev, err = stats.StandardDeviationSample(data); err != nil || math.IsNaN(summary.StdDev) {
		summary.StdDev = 0
	}
	summary.Skewness = calculateSkewness(data, summary.Mean, summary.StdDev)
	return summary, nil
}

// calculateSkewness computes the adjusted Fisher-Pearson coefficient G1
// (the value spreadsheet SKEW reports) from the sample standard deviation:
// G1 = n / ((n-1)(n-2)) * sum(((x - mean) / s)^3).
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 || math.IsNaN(stdDev) {
		return 0
	}

	n := float64(len(data))
	sumCubed := 0.0
	for _, x := range data {
		z := (x - mean) / stdDev
		sumCubed += z * z * z
	}
	return n / ((n - 1) * (n - 2)) * sumCubed
}
