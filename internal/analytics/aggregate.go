package analytics

import (
	"math"

	"github.com/cognify-app/cognify-backend/internal/bloom"
)

// Aggregate computes metrics over an activity stream. It is pure and
// order-independent: the same set of activities always yields the same
// metrics. Bloom levels with no activity are absent from PerBloom rather
// than reported as zero.
func Aggregate(activities []Activity) Metrics {
	m := Metrics{
		TotalActivities: len(activities),
		PerBloom:        map[bloom.Level]float64{},
	}
	if len(activities) == 0 {
		return m
	}

	total := 0.0
	sums := map[bloom.Level]float64{}
	counts := map[bloom.Level]int{}
	for _, a := range activities {
		total += a.Score
		m.TimeSpentSec += a.DurationSec
		if a.Bloom.Valid() {
			sums[a.Bloom] += a.Score
			counts[a.Bloom]++
		}
	}

	m.OverallScore = round2(total / float64(len(activities)))
	for level, sum := range sums {
		m.PerBloom[level] = round2(sum / float64(counts[level]))
	}
	return m
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
