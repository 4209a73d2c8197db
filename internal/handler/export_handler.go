package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/service"
	"github.com/noah-isme/institute-api/pkg/response"
)

// ExportHandler serves fee report and receipt downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// FeeReportCSV godoc
// @Summary Download fee report as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} binary
// @Router /exports/fee-report.csv [get]
func (h *ExportHandler) FeeReportCSV(c *gin.Context) {
	file, err := h.exports.FeeReportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// FeeReportPDF godoc
// @Summary Download fee report as PDF
// @Tags Exports
// @Produce application/pdf
// @Success 200 {file} binary
// @Router /exports/fee-report.pdf [get]
func (h *ExportHandler) FeeReportPDF(c *gin.Context) {
	file, err := h.exports.FeeReportPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// PaymentReceipt godoc
// @Summary Download payment receipt
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {file} binary
// @Router /payments/{id}/receipt [get]
func (h *ExportHandler) PaymentReceipt(c *gin.Context) {
	file, err := h.exports.PaymentReceiptPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
