package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slp-tools/caseload-api/internal/service"
	"github.com/slp-tools/caseload-api/pkg/response"
)

// ReportHandler exposes report export endpoints. Reports render inline and
// stream back as attachments.
type ReportHandler struct {
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(exports *service.ExportService) *ReportHandler {
	return &ReportHandler{exports: exports}
}

// Progress godoc
// @Summary Download a student's progress report
// @Tags Reports
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Student ID"
// @Param format query string false "csv, pdf or xlsx (default csv)"
// @Success 200 {file} file
// @Router /students/{id}/reports/progress [get]
func (h *ReportHandler) Progress(c *gin.Context) {
	format, err := service.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.StudentProgressReport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeAttachment(c, result)
}

// SOAPHistory godoc
// @Summary Download a student's SOAP note history
// @Tags Reports
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Student ID"
// @Param format query string false "csv, pdf or xlsx (default csv)"
// @Success 200 {file} file
// @Router /students/{id}/reports/soap [get]
func (h *ReportHandler) SOAPHistory(c *gin.Context) {
	format, err := service.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.SOAPHistoryReport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeAttachment(c, result)
}

func writeAttachment(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
