package api

import (
	"fmt"
	"net/http"

	"alcyxob/gym-admin/internal/calendar"
	"alcyxob/gym-admin/internal/export"
	"alcyxob/gym-admin/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportHandler serves progress comparisons and the spreadsheet export.
type ReportHandler struct {
	comparisonService service.ComparisonService
	exportService     service.ExportService
	today             TodayFunc
}

func NewReportHandler(comparisonService service.ComparisonService, exportService service.ExportService, today TodayFunc) *ReportHandler {
	return &ReportHandler{comparisonService: comparisonService, exportService: exportService, today: today}
}

// Compare godoc
// @Summary Compare two measurement snapshots of the same client
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param start query string true "Earlier snapshot's ObjectID Hex"
// @Param end query string true "Later snapshot's ObjectID Hex"
// @Success 200 {object} service.ComparisonReport
// @Failure 400 {object} gin.H "Snapshots belong to different clients"
// @Failure 404 {object} gin.H "Snapshot not found"
// @Router /comparisons [get]
func (h *ReportHandler) Compare(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	startID, errStart := primitive.ObjectIDFromHex(c.Query("start"))
	endID, errEnd := primitive.ObjectIDFromHex(c.Query("end"))
	if errStart != nil || errEnd != nil {
		abortWithError(c, http.StatusBadRequest, "start and end must be measurement ids.")
		return
	}

	report, err := h.comparisonService.Compare(c.Request.Context(), trainerID, startID, endID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Export streams every client, measurement, assignment and photo link of the
// trainer as an xlsx workbook.
func (h *ReportHandler) Export(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	today := h.today()

	ds, err := h.exportService.Collect(c.Request.Context(), trainerID, today)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="gym-admin-%s.xlsx"`, calendar.FormatLocalDate(today)))
	c.Header("Content-Type", export.ContentType)
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, *ds); err != nil {
		// headers are already out, the client sees a truncated file
		log.Errorf("export for trainer %s: %s", trainerID.Hex(), err)
	}
}
