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

// InquiryHandler exposes inquiry endpoints.
type InquiryHandler struct {
	inquiries *service.InquiryService
	stats     *service.StatsService
}

// NewInquiryHandler constructs InquiryHandler.
func NewInquiryHandler(inquiries *service.InquiryService, stats *service.StatsService) *InquiryHandler {
	return &InquiryHandler{inquiries: inquiries, stats: stats}
}

// List godoc
// @Summary List inquiries
// @Tags Inquiries
// @Produce json
// @Param search query string false "Search by student name or contact"
// @Param courseId query string false "Filter by course"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inquiries [get]
func (h *InquiryHandler) List(c *gin.Context) {
	var filter models.InquiryFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.CourseID = c.Query("courseId")
	filter.Status = models.InquiryStatus(c.Query("status"))
	filter.Page, filter.PageSize = queryPage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	inquiries, pagination, err := h.inquiries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiries, pagination)
}

// Get godoc
// @Summary Get inquiry detail
// @Tags Inquiries
// @Produce json
// @Param id path string true "Inquiry ID"
// @Success 200 {object} response.Envelope
// @Router /inquiries/{id} [get]
func (h *InquiryHandler) Get(c *gin.Context) {
	inquiry, err := h.inquiries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// Create godoc
// @Summary Register inquiry
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param payload body service.CreateInquiryRequest true "Inquiry payload"
// @Success 201 {object} response.Envelope
// @Router /inquiries [post]
func (h *InquiryHandler) Create(c *gin.Context) {
	var req service.CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	inquiry, err := h.inquiries.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	response.Created(c, inquiry)
}

// Update godoc
// @Summary Update inquiry
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param id path string true "Inquiry ID"
// @Param payload body service.UpdateInquiryRequest true "Inquiry payload"
// @Success 200 {object} response.Envelope
// @Router /inquiries/{id} [put]
func (h *InquiryHandler) Update(c *gin.Context) {
	var req service.UpdateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	inquiry, err := h.inquiries.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// UpdateStatus godoc
// @Summary Update inquiry status
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param id path string true "Inquiry ID"
// @Param payload body map[string]string true "New status"
// @Success 200 {object} response.Envelope
// @Router /inquiries/{id}/status [patch]
func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status models.InquiryStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}
	inquiry, err := h.inquiries.UpdateStatus(c.Request.Context(), c.Param("id"), payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// Delete godoc
// @Summary Delete inquiry
// @Description Removes the inquiry together with its enrollment and payments
// @Tags Inquiries
// @Produce json
// @Param id path string true "Inquiry ID"
// @Success 204 {object} response.Envelope
// @Router /inquiries/{id} [delete]
func (h *InquiryHandler) Delete(c *gin.Context) {
	if err := h.inquiries.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	response.NoContent(c)
}
