package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/service"
	"github.com/noah-isme/institute-api/pkg/response"
)

// StatsHandler exposes dashboard endpoints.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Institute godoc
// @Summary Institute dashboard
// @Description Inquiry, enrollment and fee aggregates derived from the ledger
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Institute(c *gin.Context) {
	stats, err := h.stats.InstituteStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// System godoc
// @Summary Runtime metrics snapshot
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats/system [get]
func (h *StatsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.stats.SystemMetrics(), nil)
}
