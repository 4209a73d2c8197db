package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/institute-api/internal/fees"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/service"
)

type fakePaymentRepo struct {
	amounts  map[string][]decimal.Decimal
	recorded []*models.Payment
}

func (f *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	payment.ID = "pay-new"
	f.recorded = append(f.recorded, payment)
	return nil
}

func (f *fakePaymentRepo) FindDetailByID(context.Context, string) (*models.PaymentDetail, error) {
	return nil, sql.ErrNoRows
}

func (f *fakePaymentRepo) List(context.Context, models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	return nil, 0, nil
}

func (f *fakePaymentRepo) ListAmountsByEnrollment(_ context.Context, enrollmentID string) ([]decimal.Decimal, error) {
	return f.amounts[enrollmentID], nil
}

type fakePaymentEnrollments struct {
	enrollments map[string]*models.Enrollment
}

func (f *fakePaymentEnrollments) FindByID(_ context.Context, id string) (*models.Enrollment, error) {
	enrollment, ok := f.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return enrollment, nil
}

func newPaymentHandlerForTest(repo *fakePaymentRepo, enrollments *fakePaymentEnrollments) *PaymentHandler {
	svc := service.NewPaymentService(repo, enrollments, nil, nil, 0)
	return NewPaymentHandler(svc, nil)
}

func activeEnrollment(id string) *models.Enrollment {
	return &models.Enrollment{
		ID:        id,
		TotalFee:  decimal.RequireFromString("15000"),
		StartDate: time.Now().AddDate(0, -2, 0),
	}
}

func TestPaymentHandlerRecordSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakePaymentRepo{amounts: map[string][]decimal.Decimal{}}
	handler := newPaymentHandlerForTest(repo, &fakePaymentEnrollments{
		enrollments: map[string]*models.Enrollment{"enr-1": activeEnrollment("enr-1")},
	})

	payload := `{"enrollment_id":"enr-1","amount":"5000","payment_mode":"cash"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Record(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	if assert.Len(t, repo.recorded, 1) {
		assert.Equal(t, "enr-1", repo.recorded[0].EnrollmentID)
		assert.False(t, repo.recorded[0].PaymentDate.IsZero())
	}
}

func TestPaymentHandlerRecordUnknownEnrollment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakePaymentRepo{amounts: map[string][]decimal.Decimal{}}
	handler := newPaymentHandlerForTest(repo, &fakePaymentEnrollments{enrollments: map[string]*models.Enrollment{}})

	payload := `{"enrollment_id":"ghost","amount":"5000","payment_mode":"cash"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Record(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, repo.recorded)
}

func TestPaymentHandlerRecordZeroAmount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakePaymentRepo{amounts: map[string][]decimal.Decimal{}}
	handler := newPaymentHandlerForTest(repo, &fakePaymentEnrollments{
		enrollments: map[string]*models.Enrollment{"enr-1": activeEnrollment("enr-1")},
	})

	payload := `{"enrollment_id":"enr-1","amount":"0","payment_mode":"cash"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Record(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.recorded)
}

func TestPaymentHandlerSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakePaymentRepo{amounts: map[string][]decimal.Decimal{
		"enr-1": {decimal.RequireFromString("5000"), decimal.RequireFromString("4000")},
	}}
	handler := newPaymentHandlerForTest(repo, &fakePaymentEnrollments{
		enrollments: map[string]*models.Enrollment{"enr-1": activeEnrollment("enr-1")},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrollments/enr-1/payments/summary", nil)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "9000", envelope.Data["paid_amount"])
	assert.Equal(t, "6000", envelope.Data["balance"])
	assert.Equal(t, string(fees.StatusPartial), envelope.Data["status"])
}
