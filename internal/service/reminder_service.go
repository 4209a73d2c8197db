package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/fees"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/jobs"
	"github.com/noah-isme/institute-api/pkg/sms"
)

type reminderEnrollmentRepository interface {
	ListFeeRows(ctx context.Context) ([]models.EnrollmentFeeRow, error)
}

// ReminderDispatch reports how many reminders were queued by a sweep.
type ReminderDispatch struct {
	Matched int `json:"matched"`
	Queued  int `json:"queued"`
}

type reminderPayload struct {
	EnrollmentID string
	To           string
	Body         string
}

// ReminderService sweeps the ledger for enrollments with outstanding fees
// and dispatches SMS reminders through a background worker queue.
type ReminderService struct {
	enrollments reminderEnrollmentRepository
	provider    sms.Provider
	metrics     *MetricsService
	logger      *zap.Logger
	graceDays   int
	queue       *jobs.Queue
}

// NewReminderService constructs the reminder service and its queue.
func NewReminderService(enrollments reminderEnrollmentRepository, provider sms.Provider, metrics *MetricsService, logger *zap.Logger, graceDays, workers, maxRetries int, retryDelay time.Duration) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider == nil {
		provider = sms.NewConsoleProvider(logger)
	}
	if graceDays <= 0 {
		graceDays = fees.DefaultGraceDays
	}
	s := &ReminderService{
		enrollments: enrollments,
		provider:    provider,
		metrics:     metrics,
		logger:      logger,
		graceDays:   graceDays,
	}
	s.queue = jobs.NewQueue("fee-reminders", s.handleJob, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		Logger:     logger,
	})
	return s
}

// Start begins background reminder workers.
func (s *ReminderService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the reminder workers.
func (s *ReminderService) Stop() {
	s.queue.Stop()
}

// DispatchOverdue sweeps all active enrollments and queues one reminder per
// enrollment whose derived status is overdue.
func (s *ReminderService) DispatchOverdue(ctx context.Context) (*ReminderDispatch, error) {
	rows, err := s.enrollments.ListFeeRows(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee rows")
	}

	now := time.Now().UTC()
	dispatch := &ReminderDispatch{}
	for _, row := range rows {
		summary := fees.Summarize(row.TotalFee, []decimal.Decimal{row.PaidAmount}, row.StartDate, now, fees.WithGraceDays(s.graceDays))
		if summary.Status != fees.StatusOverdue {
			continue
		}
		dispatch.Matched++
		if row.ContactNo == "" {
			s.logger.Warn("skipping reminder for enrollment without contact number",
				zap.String("enrollment_id", row.EnrollmentID))
			continue
		}
		payload := reminderPayload{
			EnrollmentID: row.EnrollmentID,
			To:           row.ContactNo,
			Body: fmt.Sprintf("Dear %s, your fee balance of %s for %s is overdue. Kindly pay at the earliest.",
				row.StudentName, summary.Balance.StringFixed(2), row.CourseName),
		}
		if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "fee-reminder", Payload: payload}); err != nil {
			s.logger.Warn("failed to enqueue reminder", zap.String("enrollment_id", row.EnrollmentID), zap.Error(err))
			continue
		}
		dispatch.Queued++
	}
	return dispatch, nil
}

func (s *ReminderService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(reminderPayload)
	if !ok {
		return fmt.Errorf("unexpected reminder payload %T", job.Payload)
	}
	err := s.provider.Send(ctx, sms.Message{To: payload.To, Body: payload.Body})
	if s.metrics != nil {
		s.metrics.RecordReminder(err == nil)
	}
	if err != nil {
		return fmt.Errorf("send reminder for enrollment %s: %w", payload.EnrollmentID, err)
	}
	s.logger.Info("fee reminder sent",
		zap.String("enrollment_id", payload.EnrollmentID),
		zap.String("provider", s.provider.Name()))
	return nil
}
