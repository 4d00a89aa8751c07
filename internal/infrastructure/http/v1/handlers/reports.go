package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/reportcache"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/export"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves report generation and retrieval.
type ReportsHandler struct {
	*BaseHandler
	reports  *reports.Service
	exporter *export.ExcelExporter
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(reportsService *reports.Service, exporter *export.ExcelExporter) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: NewBaseHandler(),
		reports:     reportsService,
		exporter:    exporter,
	}
}

// Generate runs the valuation pipeline and returns the snapshot id.
func (h *ReportsHandler) Generate(c *gin.Context) {
	var req dto.GenerateReportRequest
	if !h.BindJSON(c, &req) {
		return
	}

	params := reports.Params{
		Period:    reports.Period(req.Period),
		Month:     req.Month,
		WeekRange: req.WeekRange,
		Year:      req.Year,
		Quarter:   req.Quarter,
	}
	if req.CategoryID != "" {
		categoryID, err := id.Parse(req.CategoryID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid category id"))
			return
		}
		params.CategoryID = &categoryID
	}
	if req.ItemID != "" {
		itemID, err := id.Parse(req.ItemID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid item id"))
			return
		}
		params.ItemID = &itemID
	}

	snapshotID, err := h.reports.Generate(c.Request.Context(), params)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, snapshotID.String())
}

// Get returns a stored report snapshot.
func (h *ReportsHandler) Get(c *gin.Context) {
	snapshot, err := h.loadSnapshot(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, snapshot)
}

// Excel streams a stored report snapshot as an xlsx workbook.
func (h *ReportsHandler) Excel(c *gin.Context) {
	snapshot, err := h.loadSnapshot(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+h.exporter.Filename(snapshot)+`"`)
	c.Status(http.StatusOK)
	if err := h.exporter.Write(c.Writer, snapshot); err != nil {
		h.Error(c, apperror.NewInternal(err))
	}
}

// PurgeExpired removes expired snapshots. Admin only; cleanup also runs on a
// background schedule, this just forces it.
func (h *ReportsHandler) PurgeExpired(c *gin.Context) {
	removed, err := h.reports.PurgeExpired(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"removed": removed})
}

func (h *ReportsHandler) loadSnapshot(c *gin.Context) (*reportcache.Snapshot, error) {
	snapshotID, err := id.Parse(c.Param("id"))
	if err != nil {
		return nil, apperror.NewValidation("invalid report id")
	}
	return h.reports.Get(c.Request.Context(), snapshotID)
}
