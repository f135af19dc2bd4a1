// Package analytics aggregates learning activity into performance metrics,
// pass predictions, and cached student reports.
package analytics

import (
	"time"

	"github.com/cognify-app/cognify-backend/internal/bloom"
)

// Activity is one scored learning event: a quiz attempt, a flashcard
// session, a completed exercise. The stream is append-only; metrics are
// always recomputed from it, never mutated in place.
type Activity struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	SubjectID   string      `json:"subject_id"`
	Topic       string      `json:"topic"`
	Bloom       bloom.Level `json:"bloom_level"`
	Score       float64     `json:"score"` // 0..100
	DurationSec int         `json:"duration_sec"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Metrics is the aggregate view over a user's activities.
type Metrics struct {
	TotalActivities int                     `json:"total_activities"`
	OverallScore    float64                 `json:"overall_score"`
	PerBloom        map[bloom.Level]float64 `json:"performance_by_bloom"`
	TimeSpentSec    int                     `json:"time_spent_sec"`
}

// Prediction is the pass-likelihood estimate derived from metrics.
type Prediction struct {
	PredictedToPass bool    `json:"predicted_to_pass"`
	PassProbability float64 `json:"pass_probability"` // 0..100
}
