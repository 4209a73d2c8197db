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

// CustomFeeHandler exposes custom fee override endpoints.
type CustomFeeHandler struct {
	customFees *service.CustomFeeService
	stats      *service.StatsService
}

// NewCustomFeeHandler constructs CustomFeeHandler.
func NewCustomFeeHandler(customFees *service.CustomFeeService, stats *service.StatsService) *CustomFeeHandler {
	return &CustomFeeHandler{customFees: customFees, stats: stats}
}

// List godoc
// @Summary List custom fees
// @Tags CustomFees
// @Produce json
// @Param search query string false "Search by student name or contact"
// @Param courseId query string false "Filter by course"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /custom-fees [get]
func (h *CustomFeeHandler) List(c *gin.Context) {
	var filter models.CustomFeeFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.CourseID = c.Query("courseId")
	filter.Active = queryBool(c, "active")
	filter.Page, filter.PageSize = queryPage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	customFees, pagination, err := h.customFees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customFees, pagination)
}

// Get godoc
// @Summary Get custom fee detail
// @Tags CustomFees
// @Produce json
// @Param id path string true "Custom fee ID"
// @Success 200 {object} response.Envelope
// @Router /custom-fees/{id} [get]
func (h *CustomFeeHandler) Get(c *gin.Context) {
	customFee, err := h.customFees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customFee, nil)
}

// Check godoc
// @Summary Check for an active custom fee
// @Description Used by enrollment surfaces before fee resolution
// @Tags CustomFees
// @Produce json
// @Param studentName query string true "Student name"
// @Param contactNo query string true "Contact number"
// @Param courseId query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /custom-fees/check [get]
func (h *CustomFeeHandler) Check(c *gin.Context) {
	check, err := h.customFees.Check(c.Request.Context(),
		strings.TrimSpace(c.Query("studentName")),
		strings.TrimSpace(c.Query("contactNo")),
		c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}

// Create godoc
// @Summary Create custom fee
// @Description Registers an override and re-syncs matching enrollment totals
// @Tags CustomFees
// @Accept json
// @Produce json
// @Param payload body service.CreateCustomFeeRequest true "Custom fee payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /custom-fees [post]
func (h *CustomFeeHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateCustomFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	customFee, report, err := h.customFees.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusCreated, customFee, nil, map[string]interface{}{"resync": report})
}

// Update godoc
// @Summary Update custom fee
// @Tags CustomFees
// @Accept json
// @Produce json
// @Param id path string true "Custom fee ID"
// @Param payload body service.UpdateCustomFeeRequest true "Custom fee payload"
// @Success 200 {object} response.Envelope
// @Router /custom-fees/{id} [put]
func (h *CustomFeeHandler) Update(c *gin.Context) {
	var req service.UpdateCustomFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	customFee, report, err := h.customFees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats.Invalidate(c.Request.Context())
	meta := map[string]interface{}{}
	if report != nil {
		meta["resync"] = report
	}
	response.JSON(c, http.StatusOK, customFee, nil, meta)
}

// Delete godoc
// @Summary Deactivate custom fee
// @Description Frozen enrollment totals are not reverted
// @Tags CustomFees
// @Produce json
// @Param id path string true "Custom fee ID"
// @Success 204 {object} response.Envelope
// @Router /custom-fees/{id} [delete]
func (h *CustomFeeHandler) Delete(c *gin.Context) {
	if err := h.customFees.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
