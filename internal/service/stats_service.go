package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/fees"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
)

const statsCacheKey = "stats:institute"

type statsInquiryRepository interface {
	CountByStatus(ctx context.Context) (map[models.InquiryStatus]int, error)
}

type statsCourseRepository interface {
	CountActive(ctx context.Context) (int, error)
}

type statsEnrollmentRepository interface {
	CountActive(ctx context.Context) (int, error)
	ListFeeRows(ctx context.Context) ([]models.EnrollmentFeeRow, error)
}

// StatsService derives the institute dashboard from the payment ledger. The
// payload is cached; every write path that affects fees invalidates it.
type StatsService struct {
	inquiries   statsInquiryRepository
	courses     statsCourseRepository
	enrollments statsEnrollmentRepository
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	ttl         time.Duration
	graceDays   int
}

// NewStatsService constructs the stats service.
func NewStatsService(inquiries statsInquiryRepository, courses statsCourseRepository, enrollments statsEnrollmentRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, ttl time.Duration, graceDays int) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if graceDays <= 0 {
		graceDays = fees.DefaultGraceDays
	}
	return &StatsService{
		inquiries:   inquiries,
		courses:     courses,
		enrollments: enrollments,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		ttl:         ttl,
		graceDays:   graceDays,
	}
}

// InstituteStats returns the dashboard payload, from cache when possible.
func (s *StatsService) InstituteStats(ctx context.Context) (*models.InstituteStats, error) {
	var cached models.InstituteStats
	if hit, err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stats, err := s.computeStats(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, statsCacheKey, stats, s.ttl); err != nil {
		s.logger.Warn("failed to cache institute stats", zap.Error(err))
	}
	return stats, nil
}

// Invalidate drops the cached dashboard payload.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, statsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

// SystemMetrics returns a runtime metrics snapshot.
func (s *StatsService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

func (s *StatsService) computeStats(ctx context.Context) (*models.InstituteStats, error) {
	inquiryCounts, err := s.inquiries.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count inquiries")
	}
	totalInquiries := 0
	for _, count := range inquiryCounts {
		totalInquiries += count
	}

	activeCourses, err := s.courses.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}

	activeEnrollments, err := s.enrollments.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}

	rows, err := s.enrollments.ListFeeRows(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee rows")
	}

	now := time.Now().UTC()
	totalFees := decimal.Zero
	totalCollected := decimal.Zero
	var breakdown models.FeeStatusBreakdown
	for _, row := range rows {
		summary := fees.Summarize(row.TotalFee, []decimal.Decimal{row.PaidAmount}, row.StartDate, now, fees.WithGraceDays(s.graceDays))
		totalFees = totalFees.Add(row.TotalFee)
		totalCollected = totalCollected.Add(row.PaidAmount)
		switch summary.Status {
		case fees.StatusPaid:
			breakdown.Paid++
		case fees.StatusPartial:
			breakdown.Partial++
		case fees.StatusPending:
			breakdown.Pending++
		case fees.StatusOverdue:
			breakdown.Overdue++
		}
	}

	return &models.InstituteStats{
		TotalInquiries:    totalInquiries,
		InquiriesByStatus: inquiryCounts,
		ActiveCourses:     activeCourses,
		ActiveEnrollments: activeEnrollments,
		TotalFees:         totalFees,
		TotalCollected:    totalCollected,
		TotalOutstanding:  totalFees.Sub(totalCollected),
		FeeStatus:         breakdown,
		GeneratedAt:       now,
	}, nil
}
