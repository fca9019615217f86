package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edupulse/gradebook-api/internal/dto"
	"github.com/edupulse/gradebook-api/internal/grading"
	"github.com/edupulse/gradebook-api/internal/models"
	appErrors "github.com/edupulse/gradebook-api/pkg/errors"
)

type statisticsGradeStore interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error)
	UpdateStatus(ctx context.Context, id string, status models.GradeStatus, flagReason *string) error
	StudentAverages(ctx context.Context, classID, excludeAssessmentID string) (map[string]int, error)
}

type statisticsClassStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// StatisticsService computes cohort statistics over grade entries and runs
// anomaly scans. Computed statistics are cached per class scope.
type StatisticsService struct {
	grades  statisticsGradeStore
	classes statisticsClassStore
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewStatisticsService constructs a statistics service.
func NewStatisticsService(grades statisticsGradeStore, classes statisticsClassStore, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatisticsService{
		grades:  grades,
		classes: classes,
		cache:   cache,
		metrics: metrics,
		ttl:     ttl,
		logger:  logger,
	}
}

// ClassStatistics computes statistics for a class, optionally narrowed to a
// single assessment. Pending entries count toward the totals but not the
// aggregates.
func (s *StatisticsService) ClassStatistics(ctx context.Context, classID, assessmentID string) (*models.GradeStatistics, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	cacheKey := statisticsCacheKey(classID, assessmentID)
	var cached models.GradeStatistics
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	start := time.Now()
	entries, err := s.grades.List(ctx, models.GradeFilter{ClassID: classID, AssessmentID: assessmentID})
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("grade_entries_by_class", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade entries")
	}

	stats := grading.Compute(entries)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, s.ttl); err != nil {
			s.logger.Warn("failed to cache statistics", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return &stats, nil
}

// AnomalyScan flags suspicious entries of one assessment against the cohort
// and each student's history. The scan is idempotent: already-flagged entries
// keep their flag and contribute to the cohort like any scored entry.
func (s *StatisticsService) AnomalyScan(ctx context.Context, classID, assessmentID string) (*dto.AnomalyScanResult, error) {
	if assessmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assessmentId is required")
	}
	entries, err := s.grades.List(ctx, models.GradeFilter{ClassID: classID, AssessmentID: assessmentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade entries")
	}
	averages, err := s.grades.StudentAverages(ctx, classID, assessmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student averages")
	}

	flagged := grading.FlagAnomalies(entries, averages)
	result := &dto.AnomalyScanResult{Scanned: len(entries), Flagged: []models.GradeEntry{}}
	previous := make(map[string]models.GradeEntry, len(entries))
	for _, entry := range entries {
		previous[entry.ID] = entry
	}
	for _, entry := range flagged {
		if entry.Status != models.GradeStatusFlagged {
			continue
		}
		result.Flagged = append(result.Flagged, entry)
		before := previous[entry.ID]
		if before.Status == models.GradeStatusFlagged && equalReason(before.FlagReason, entry.FlagReason) {
			continue
		}
		if err := s.grades.UpdateStatus(ctx, entry.ID, models.GradeStatusFlagged, entry.FlagReason); err != nil {
			s.logger.Warn("failed to persist anomaly flag", zap.String("grade_id", entry.ID), zap.Error(err))
		}
	}

	if s.cache != nil && len(result.Flagged) > 0 {
		if err := s.cache.Invalidate(ctx, "stats:class:"+classID+":*"); err != nil {
			s.logger.Warn("failed to invalidate statistics cache", zap.String("class_id", classID), zap.Error(err))
		}
	}
	return result, nil
}

func statisticsCacheKey(classID, assessmentID string) string {
	if assessmentID == "" {
		assessmentID = "all"
	}
	return "stats:class:" + classID + ":" + assessmentID
}

func equalReason(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
