package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/models"
)

type mockPaymentRepo struct {
	payments map[string]models.Payment
	amounts  map[string][]decimal.Decimal
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.Payment)
	}
	if payment.ID == "" {
		payment.ID = "generated"
	}
	m.payments[payment.ID] = *payment
	return nil
}

func (m *mockPaymentRepo) FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	if p, ok := m.payments[id]; ok {
		return &models.PaymentDetail{Payment: p}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	out := make([]models.PaymentDetail, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, models.PaymentDetail{Payment: p})
	}
	return out, len(out), nil
}

func (m *mockPaymentRepo) ListAmountsByEnrollment(ctx context.Context, enrollmentID string) ([]decimal.Decimal, error) {
	return m.amounts[enrollmentID], nil
}

type mockEnrollmentFinder struct {
	enrollments map[string]models.Enrollment
}

func (m *mockEnrollmentFinder) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func newPaymentService(repo *mockPaymentRepo, enrollments *mockEnrollmentFinder) *PaymentService {
	return NewPaymentService(repo, enrollments, validator.New(), zap.NewNop(), 30)
}

func activeEnrollment() models.Enrollment {
	return models.Enrollment{
		ID:        "enr-1",
		StartDate: time.Now().UTC(),
		FeePlan:   models.FeePlanFull,
		TotalFee:  decimal.RequireFromString("15000"),
	}
}

func TestPaymentServiceRecord(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newPaymentService(repo, &mockEnrollmentFinder{enrollments: map[string]models.Enrollment{"enr-1": activeEnrollment()}})

	payment, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.RequireFromString("5000"),
		PaymentMode:  models.PaymentModeUPI,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, payment.ID)
	assert.False(t, payment.PaymentDate.IsZero())
	assert.Equal(t, 1, len(repo.payments))
}

func TestPaymentServiceRecordRejectsNonPositiveAmount(t *testing.T) {
	svc := newPaymentService(&mockPaymentRepo{}, &mockEnrollmentFinder{enrollments: map[string]models.Enrollment{"enr-1": activeEnrollment()}})

	for _, amount := range []string{"0", "-100"} {
		_, err := svc.Record(context.Background(), RecordPaymentRequest{
			EnrollmentID: "enr-1",
			Amount:       decimal.RequireFromString(amount),
			PaymentMode:  models.PaymentModeCash,
		})
		require.Error(t, err, amount)
	}
}

func TestPaymentServiceRecordRejectsCancelledEnrollment(t *testing.T) {
	enrollment := activeEnrollment()
	enrollment.Cancelled = true
	svc := newPaymentService(&mockPaymentRepo{}, &mockEnrollmentFinder{enrollments: map[string]models.Enrollment{"enr-1": enrollment}})

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.RequireFromString("5000"),
		PaymentMode:  models.PaymentModeCash,
	})
	require.Error(t, err)
}

func TestPaymentServiceRecordRejectsUnknownMode(t *testing.T) {
	svc := newPaymentService(&mockPaymentRepo{}, &mockEnrollmentFinder{enrollments: map[string]models.Enrollment{"enr-1": activeEnrollment()}})

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.RequireFromString("5000"),
		PaymentMode:  "crypto",
	})
	require.Error(t, err)
}

func TestPaymentServiceRecordAllowsOverpayment(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newPaymentService(repo, &mockEnrollmentFinder{enrollments: map[string]models.Enrollment{"enr-1": activeEnrollment()}})

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.RequireFromString("20000"),
		PaymentMode:  models.PaymentModeBankTransfer,
	})
	require.NoError(t, err)
}

func TestPaymentServiceSummary(t *testing.T) {
	repo := &mockPaymentRepo{amounts: map[string][]decimal.Decimal{"enr-1": {
		decimal.RequireFromString("5000"),
		decimal.RequireFromString("4000"),
	}}}
	svc := newPaymentService(repo, &mockEnrollmentFinder{enrollments: map[string]models.Enrollment{"enr-1": activeEnrollment()}})

	summary, err := svc.Summary(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.True(t, summary.PaidAmount.Equal(decimal.RequireFromString("9000")))
	assert.True(t, summary.Balance.Equal(decimal.RequireFromString("6000")))
	assert.Equal(t, "partial", string(summary.Status))
}
