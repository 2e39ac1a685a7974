package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillcompass/skillcompass/internal/report"
)

// ReportHandler handles career analysis report endpoints
type ReportHandler struct {
	reports *report.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Get handles GET /assessments/:id/report. The first request for a
// completed assessment generates the report; later requests return the
// stored one.
func (h *ReportHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := assessmentID(c)
	if !ok {
		return
	}

	r, err := h.reports.Get(c.Request.Context(), userID, id)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, r)
}

// PDF handles GET /assessments/:id/report/pdf.
func (h *ReportHandler) PDF(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := assessmentID(c)
	if !ok {
		return
	}

	data, err := h.reports.PDF(c.Request.Context(), userID, id)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="career-report-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", data)
}
