// Package dashboard derives summary statistics from saved calculations.
//
// All functions are pure and safe for concurrent use. Records are always
// ordered newest first, by period start; see SortNewestFirst.
package dashboard

import (
	"sort"
	"time"

	"github.com/ecotrace/ecotrace/internal/emission"
)

// DefaultSeriesLength is the number of entries in the monthly chart.
const DefaultSeriesLength = 6

// TargetRatio is the reduction target applied to each series entry.
const TargetRatio = 0.9

// Record is the part of a saved calculation the dashboard reads.
type Record struct {
	Results emission.Result
	Days    int
	// From is the first day of the measured period.
	From      time.Time
	CreatedAt time.Time
}

// SortNewestFirst orders records by period start, latest first. Records for
// the same start keep the most recently saved one first.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.From.Equal(b.From) {
			return a.From.After(b.From)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// Trend compares the two newest records.
type Trend struct {
	// Delta is the percentage change of the newest total against the previous
	// one. Nil means there is not enough data to compare.
	Delta *float64 `json:"delta"`
}

// HasData reports whether Delta is set.
func (t Trend) HasData() bool {
	return t.Delta != nil
}

// Summary is the dashboard header.
type Summary struct {
	LatestEmission    float64                       `json:"latestEmission"`
	PerPersonEmission float64                       `json:"perPersonEmission"`
	MonthlyAverage    float64                       `json:"monthlyAverage"`
	CategoryShares    map[emission.Category]float64 `json:"categoryShares"`
	Trend             Trend                         `json:"trend"`
	Count             int                           `json:"count"`
}

// Summarize aggregates records. An empty slice yields zeros and no trend.
func Summarize(records []Record) Summary {
	s := Summary{
		CategoryShares: make(map[emission.Category]float64, len(emission.Categories)),
		Count:          len(records),
	}
	for _, c := range emission.Categories {
		s.CategoryShares[c] = 0
	}
	if len(records) == 0 {
		return s
	}

	s.LatestEmission = records[0].Results.Total
	s.PerPersonEmission = records[0].Results.PerPerson
	s.MonthlyAverage = monthlyAverage(records)
	s.Trend = trend(records)

	totals := make(map[emission.Category]float64, len(emission.Categories))
	var cumulative float64
	for _, r := range records {
		for _, c := range emission.Categories {
			v := r.Results.ByCategory(c)
			totals[c] += v
			cumulative += v
		}
	}
	if cumulative > 0 {
		for _, c := range emission.Categories {
			s.CategoryShares[c] = totals[c] / cumulative * 100
		}
	}

	return s
}

// monthlyAverage is the unweighted mean of each record's total normalized to
// 30 days. Records without days count as 0 but still take part in the mean.
func monthlyAverage(records []Record) float64 {
	var sum float64
	for _, r := range records {
		if r.Days <= 0 {
			continue
		}
		sum += r.Results.Total / (float64(r.Days) / 30)
	}
	return sum / float64(len(records))
}

func trend(records []Record) Trend {
	if len(records) < 2 {
		return Trend{}
	}
	prev := records[1].Results.Total
	if prev == 0 {
		return Trend{}
	}
	delta := (records[0].Results.Total - prev) / prev * 100
	return Trend{Delta: &delta}
}

// Point is one bar of the monthly chart, labelled with the month the
// period starts in.
type Point struct {
	Label     string    `json:"month"`
	Emissions float64   `json:"emissions"`
	Target    float64   `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
}

// MonthlySeries returns up to n of the newest records as chart points,
// newest first. A non-positive n uses DefaultSeriesLength.
func MonthlySeries(records []Record, n int) []Point {
	if n <= 0 {
		n = DefaultSeriesLength
	}
	if len(records) < n {
		n = len(records)
	}

	points := make([]Point, 0, n)
	for _, r := range records[:n] {
		points = append(points, Point{
			Label:     r.From.Format("Jan"),
			Emissions: r.Results.Total,
			Target:    r.Results.Total * TargetRatio,
			CreatedAt: r.CreatedAt,
		})
	}
	return points
}
