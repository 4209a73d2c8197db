package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/pkg/sms"
)

type recordingProvider struct {
	mu       sync.Mutex
	messages []sms.Message
	fail     bool
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Send(_ context.Context, msg sms.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("provider unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingProvider) sent() []sms.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]sms.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

func reminderRows(now time.Time) []models.EnrollmentFeeRow {
	return []models.EnrollmentFeeRow{
		{
			EnrollmentID: "enr-paid",
			StudentName:  "Ravi Kumar",
			ContactNo:    "9000000000",
			CourseName:   "Tally Prime",
			StartDate:    now.AddDate(0, 0, -90),
			TotalFee:     decimal.RequireFromString("8000"),
			PaidAmount:   decimal.RequireFromString("8000"),
		},
		{
			EnrollmentID: "enr-overdue",
			StudentName:  "Asha Patel",
			ContactNo:    "9876543210",
			CourseName:   "Diploma in Computer Applications",
			StartDate:    now.AddDate(0, 0, -90),
			TotalFee:     decimal.RequireFromString("15000"),
			PaidAmount:   decimal.Zero,
		},
		{
			EnrollmentID: "enr-pending",
			StudentName:  "Meera Shah",
			ContactNo:    "9111111111",
			CourseName:   "Web Design",
			StartDate:    now,
			TotalFee:     decimal.RequireFromString("10000"),
			PaidAmount:   decimal.Zero,
		},
	}
}

func TestReminderServiceDispatchOverdue(t *testing.T) {
	now := time.Now().UTC()
	provider := &recordingProvider{}
	svc := NewReminderService(
		&mockExportEnrollmentRepo{rows: reminderRows(now)},
		provider, nil, zap.NewNop(), 30, 1, 1, time.Millisecond,
	)
	svc.Start(context.Background())
	defer svc.Stop()

	dispatch, err := svc.DispatchOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dispatch.Matched)
	assert.Equal(t, 1, dispatch.Queued)

	require.Eventually(t, func() bool {
		return len(provider.sent()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	msg := provider.sent()[0]
	assert.Equal(t, "9876543210", msg.To)
	assert.Contains(t, msg.Body, "Asha Patel")
	assert.Contains(t, msg.Body, "15000.00")
}

func TestReminderServiceDispatchSkipsMissingContact(t *testing.T) {
	now := time.Now().UTC()
	rows := reminderRows(now)
	rows[1].ContactNo = ""
	provider := &recordingProvider{}
	svc := NewReminderService(
		&mockExportEnrollmentRepo{rows: rows},
		provider, nil, zap.NewNop(), 30, 1, 1, time.Millisecond,
	)
	svc.Start(context.Background())
	defer svc.Stop()

	dispatch, err := svc.DispatchOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dispatch.Matched)
	assert.Equal(t, 0, dispatch.Queued)
}

func TestReminderServiceDispatchRequiresStartedQueue(t *testing.T) {
	now := time.Now().UTC()
	svc := NewReminderService(
		&mockExportEnrollmentRepo{rows: reminderRows(now)},
		&recordingProvider{}, nil, zap.NewNop(), 30, 1, 1, time.Millisecond,
	)

	dispatch, err := svc.DispatchOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dispatch.Matched)
	assert.Equal(t, 0, dispatch.Queued)
}
