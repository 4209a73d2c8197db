package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/models"
)

type mockExportEnrollmentRepo struct {
	rows []models.EnrollmentFeeRow
}

func (m *mockExportEnrollmentRepo) ListFeeRows(ctx context.Context) ([]models.EnrollmentFeeRow, error) {
	return m.rows, nil
}

func TestExportServiceFeeReportCSV(t *testing.T) {
	now := time.Now().UTC()
	enrollments := &mockExportEnrollmentRepo{rows: []models.EnrollmentFeeRow{
		{
			EnrollmentID: "enr-1",
			StudentName:  "Asha Patel",
			ContactNo:    "9876543210",
			CourseName:   "Diploma in Computer Applications",
			FeePlan:      models.FeePlanFull,
			StartDate:    now,
			TotalFee:     decimal.RequireFromString("15000"),
			PaidAmount:   decimal.RequireFromString("5000"),
		},
	}}
	svc := NewExportService(enrollments, &mockPaymentRepo{}, nil, nil, zap.NewNop(), 30)

	file, err := svc.FeeReportCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, file.FileName, ".csv")
	assert.True(t, bytes.Contains(file.Content, []byte("Asha Patel")))
	assert.True(t, bytes.Contains(file.Content, []byte("10000.00")))
	assert.True(t, bytes.Contains(file.Content, []byte("partial")))
}

func TestExportServiceFeeReportPDF(t *testing.T) {
	svc := NewExportService(&mockExportEnrollmentRepo{}, &mockPaymentRepo{}, nil, nil, zap.NewNop(), 30)

	file, err := svc.FeeReportPDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestExportServicePaymentReceiptPDF(t *testing.T) {
	payments := &mockPaymentRepo{payments: map[string]models.Payment{"pay-1": {
		ID:           "pay-1",
		EnrollmentID: "enr-1",
		Amount:       decimal.RequireFromString("5000"),
		PaymentDate:  time.Now().UTC(),
		PaymentMode:  models.PaymentModeCash,
	}}}
	svc := NewExportService(&mockExportEnrollmentRepo{}, payments, nil, nil, zap.NewNop(), 30)

	file, err := svc.PaymentReceiptPDF(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "receipt-pay-1.pdf", file.FileName)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestExportServicePaymentReceiptPDFNotFound(t *testing.T) {
	svc := NewExportService(&mockExportEnrollmentRepo{}, &mockPaymentRepo{}, nil, nil, zap.NewNop(), 30)

	_, err := svc.PaymentReceiptPDF(context.Background(), "missing")
	require.Error(t, err)
}
