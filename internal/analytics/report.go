package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cognify-app/cognify-backend/internal/bloom"
	"github.com/cognify-app/cognify-backend/internal/platform/cache"
)

const (
	// DefaultReportTTL bounds how stale a cached report may be.
	DefaultReportTTL = 5 * time.Minute

	strengthThreshold = 80.0
	weaknessThreshold = 70.0
)

// ReportSummary is the headline numbers of a student report.
type ReportSummary struct {
	TotalActivities int     `json:"total_activities"`
	OverallScore    float64 `json:"overall_score"`
	TimeSpentSec    int     `json:"time_spent_sec"`
}

// Report is the full analytics view for one student.
type Report struct {
	StudentID   string                  `json:"student_id"`
	Summary     ReportSummary           `json:"summary"`
	PerBloom    map[bloom.Level]float64 `json:"performance_by_bloom"`
	Strengths   []bloom.Level           `json:"strengths"`
	Weaknesses  []bloom.Level           `json:"weaknesses"`
	Prediction  Prediction              `json:"prediction"`
	LastUpdated time.Time               `json:"last_updated"`
}

// ReportCache is the slice of the cache the reporter needs. Satisfied by
// *cache.Cache.
type ReportCache interface {
	GetJSON(ctx context.Context, key string, out any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ReporterConfig holds dependencies for the reporter.
type ReporterConfig struct {
	Store     Store
	Predictor *Predictor
	Cache     ReportCache   // nil disables memoization
	TTL       time.Duration // staleness window for cached reports (default 5m)
}

// Reporter builds student reports on demand, memoizing them in the cache for
// the staleness window. Reports are a computed view: the activity stream
// stays the source of truth and a cold cache just recomputes.
type Reporter struct {
	store     Store
	predictor *Predictor
	cache     ReportCache
	ttl       time.Duration
}

func NewReporter(cfg ReporterConfig) *Reporter {
	predictor := cfg.Predictor
	if predictor == nil {
		predictor = NewPredictor(PredictorConfig{})
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultReportTTL
	}
	return &Reporter{
		store:     cfg.Store,
		predictor: predictor,
		cache:     cfg.Cache,
		ttl:       ttl,
	}
}

// StudentReport returns the report for a user, from cache when fresh. Cache
// failures are logged and absorbed: the report is recomputed instead.
func (r *Reporter) StudentReport(ctx context.Context, userID string) (*Report, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	key := reportKey(userID)
	if r.cache != nil {
		var cached Report
		err := r.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("report cache read failed", "user_id", userID, "error", err)
		}
	}

	activities, err := r.store.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	report := r.build(userID, activities)

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, key, report, r.ttl); err != nil {
			slog.Warn("report cache write failed", "user_id", userID, "error", err)
		}
	}
	return report, nil
}

func (r *Reporter) build(userID string, activities []Activity) *Report {
	metrics := Aggregate(activities)

	report := &Report{
		StudentID: userID,
		Summary: ReportSummary{
			TotalActivities: metrics.TotalActivities,
			OverallScore:    metrics.OverallScore,
			TimeSpentSec:    metrics.TimeSpentSec,
		},
		PerBloom:    metrics.PerBloom,
		Strengths:   []bloom.Level{},
		Weaknesses:  []bloom.Level{},
		Prediction:  r.predictor.Predict(metrics),
		LastUpdated: time.Now(),
	}

	// Taxonomy order keeps the lists stable across recomputes.
	for _, level := range bloom.Levels() {
		score, ok := metrics.PerBloom[level]
		if !ok {
			continue
		}
		if score >= strengthThreshold {
			report.Strengths = append(report.Strengths, level)
		}
		if score < weaknessThreshold {
			report.Weaknesses = append(report.Weaknesses, level)
		}
	}
	return report
}

func reportKey(userID string) string {
	return "report:student:" + userID
}
