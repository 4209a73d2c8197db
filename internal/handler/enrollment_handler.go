package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/service"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	stats       *service.StatsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, stats *service.StatsService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, stats: stats}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param search query string false "Search by student name or contact"
// @Param courseId query string false "Filter by course"
// @Param batchId query string false "Filter by batch"
// @Param cancelled query bool false "Filter by cancelled state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.CourseID = c.Query("courseId")
	filter.BatchID = c.Query("batchId")
	filter.Cancelled = queryBool(c, "cancelled")
	filter.Page, filter.PageSize = queryPage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get godoc
// @Summary Get enrollment detail
// @Description Returns the enrollment with its derived balance and fee status
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Convert godoc
// @Summary Convert inquiry into enrollment
// @Description Resolves the effective fee, freezes it onto the enrollment and flips the inquiry to enrolled
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.ConvertInquiryRequest true "Conversion payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Convert(c *gin.Context) {
	var req service.ConvertInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.ConvertInquiry(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	response.Created(c, enrollment)
}

// Update godoc
// @Summary Update enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	var req service.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Cancel godoc
// @Summary Cancel enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 204 {object} response.Envelope
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	if err := h.enrollments.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	response.NoContent(c)
}
