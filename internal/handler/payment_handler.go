package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/service"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/response"
)

// PaymentHandler exposes the append-only payment endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
	stats    *service.StatsService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, stats *service.StatsService) *PaymentHandler {
	return &PaymentHandler{payments: payments, stats: stats}
}

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Param enrollmentId query string false "Filter by enrollment"
// @Param mode query string false "Filter by payment mode"
// @Param from query string false "Payments on or after this date (RFC 3339)"
// @Param to query string false "Payments on or before this date (RFC 3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter models.PaymentFilter
	filter.EnrollmentID = c.Query("enrollmentId")
	filter.Mode = models.PaymentMode(c.Query("mode"))
	if from := c.Query("from"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &ts
		}
	}
	if to := c.Query("to"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &ts
		}
	}
	filter.Page, filter.PageSize = queryPage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	payments, pagination, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Get godoc
// @Summary Get payment detail
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Record godoc
// @Summary Record payment
// @Description Appends a payment to the ledger; recorded payments are never edited or removed
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	response.Created(c, payment)
}

// ListByEnrollment godoc
// @Summary List payments for one enrollment
// @Tags Payments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/payments [get]
func (h *PaymentHandler) ListByEnrollment(c *gin.Context) {
	var filter models.PaymentFilter
	filter.EnrollmentID = c.Param("id")
	filter.Page, filter.PageSize = queryPage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	payments, pagination, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Summary godoc
// @Summary Payment summary for an enrollment
// @Description Recomputes paid amount, balance and status from the full ledger
// @Tags Payments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/payments/summary [get]
func (h *PaymentHandler) Summary(c *gin.Context) {
	summary, err := h.payments.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
