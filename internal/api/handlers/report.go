package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/report"
	"github.com/superbmd/superbmd/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// rowsOrEmpty keeps empty reports serialized as [] rather than null
func rowsOrEmpty[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

type ReportHandler struct {
	svc    *service.ReportService
	limits query.Limits
}

func NewReportHandler(svc *service.ReportService, limits query.Limits) *ReportHandler {
	return &ReportHandler{svc: svc, limits: limits}
}

// reportInput resolves the principal and filter shared by every report endpoint.
func reportInput(c *gin.Context) (*models.User, query.ReportFilter, bool) {
	user := currentUser(c)
	if user == nil {
		return nil, query.ReportFilter{}, false
	}
	filter, err := query.ParseReportFilter(c.Request.URL.Query())
	if err != nil {
		handleServiceError(c, err)
		return nil, query.ReportFilter{}, false
	}
	return user, filter, true
}

// writeWorkbook streams t as an .xlsx attachment named after the report and today's date.
func writeWorkbook(c *gin.Context, name string, t report.Table) {
	var buf bytes.Buffer
	if err := t.WriteXLSX(&buf); err != nil {
		handleServiceError(c, err)
		return
	}
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetDashboard godoc
// @Summary Dashboard summary
// @Description Total assets and locations plus asset counts by condition and by location, scoped to the caller.
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} report.Dashboard
// @Failure 401 {object} ErrorResponse
// @Router /dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	d, err := h.svc.Dashboard(c.Request.Context(), user)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// AssetsByLocation godoc
// @Summary Asset counts per location
// @Description Every location appears, including those with no matching assets. Ordered by location name.
// @Tags report
// @Security BearerAuth
// @Produce json
// @Param location_id query int false "Location ID"
// @Param condition query string false "good, light_damage or heavy_damage"
// @Param start_date query string false "Intake date lower bound (YYYY-MM-DD)"
// @Param end_date query string false "Intake date upper bound, inclusive (YYYY-MM-DD)"
// @Success 200 {array} report.LocationRow
// @Failure 400 {object} ErrorResponse
// @Router /report/assets-by-location [get]
func (h *ReportHandler) AssetsByLocation(c *gin.Context) {
	user, filter, ok := reportInput(c)
	if !ok {
		return
	}
	rows, err := h.svc.ByLocation(c.Request.Context(), user, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rowsOrEmpty(rows))
}

// AssetsByCondition godoc
// @Summary Asset counts per condition
// @Description All three conditions appear in order good, light_damage, heavy_damage.
// @Tags report
// @Security BearerAuth
// @Produce json
// @Param location_id query int false "Location ID"
// @Param condition query string false "good, light_damage or heavy_damage"
// @Param start_date query string false "Intake date lower bound (YYYY-MM-DD)"
// @Param end_date query string false "Intake date upper bound, inclusive (YYYY-MM-DD)"
// @Success 200 {array} report.ConditionRow
// @Failure 400 {object} ErrorResponse
// @Router /report/assets-by-condition [get]
func (h *ReportHandler) AssetsByCondition(c *gin.Context) {
	user, filter, ok := reportInput(c)
	if !ok {
		return
	}
	rows, err := h.svc.ByCondition(c.Request.Context(), user, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rowsOrEmpty(rows))
}

// AssetsInOut godoc
// @Summary Asset intake and update activity
// @Description IN rows are dated by tanggal_masuk, UPDATE rows by tanggal_pembaruan; kondisi_lama is always null.
// @Tags report
// @Security BearerAuth
// @Produce json
// @Param location_id query int false "Location ID"
// @Param condition query string false "good, light_damage or heavy_damage"
// @Param start_date query string false "Event date lower bound (YYYY-MM-DD)"
// @Param end_date query string false "Event date upper bound, inclusive (YYYY-MM-DD)"
// @Success 200 {array} report.InOutRow
// @Failure 400 {object} ErrorResponse
// @Router /report/assets-in-out [get]
func (h *ReportHandler) AssetsInOut(c *gin.Context) {
	user, filter, ok := reportInput(c)
	if !ok {
		return
	}
	rows, err := h.svc.InOut(c.Request.Context(), user, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rowsOrEmpty(rows))
}

// ExportAssetsByLocation godoc
// @Summary Export asset counts per location as .xlsx
// @Tags report
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param location_id query int false "Location ID"
// @Param condition query string false "good, light_damage or heavy_damage"
// @Param start_date query string false "Intake date lower bound (YYYY-MM-DD)"
// @Param end_date query string false "Intake date upper bound, inclusive (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /report/assets-by-location/export [get]
func (h *ReportHandler) ExportAssetsByLocation(c *gin.Context) {
	user, filter, ok := reportInput(c)
	if !ok {
		return
	}
	rows, err := h.svc.ByLocation(c.Request.Context(), user, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	writeWorkbook(c, "laporan-aset-per-lokasi", report.LocationTable(rows))
}

// ExportAssetsByCondition godoc
// @Summary Export asset counts per condition as .xlsx
// @Tags report
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param location_id query int false "Location ID"
// @Param condition query string false "good, light_damage or heavy_damage"
// @Param start_date query string false "Intake date lower bound (YYYY-MM-DD)"
// @Param end_date query string false "Intake date upper bound, inclusive (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /report/assets-by-condition/export [get]
func (h *ReportHandler) ExportAssetsByCondition(c *gin.Context) {
	user, filter, ok := reportInput(c)
	if !ok {
		return
	}
	rows, err := h.svc.ByCondition(c.Request.Context(), user, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	writeWorkbook(c, "laporan-aset-per-kondisi", report.ConditionTable(rows))
}

// ExportAssetsInOut godoc
// @Summary Export asset activity as .xlsx
// @Tags report
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param location_id query int false "Location ID"
// @Param condition query string false "good, light_damage or heavy_damage"
// @Param start_date query string false "Event date lower bound (YYYY-MM-DD)"
// @Param end_date query string false "Event date upper bound, inclusive (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /report/assets-in-out/export [get]
func (h *ReportHandler) ExportAssetsInOut(c *gin.Context) {
	user, filter, ok := reportInput(c)
	if !ok {
		return
	}
	rows, err := h.svc.InOut(c.Request.Context(), user, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	writeWorkbook(c, "laporan-aset-masuk-keluar", report.InOutTable(rows))
}

// ListAuditLogs godoc
// @Summary List audit logs (admin only)
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(100)
// @Param action query string false "Filter by action, e.g. create_asset"
// @Param username query string false "Filter by acting username"
// @Success 200 {object} query.Result[models.AuditLog]
// @Failure 403 {object} ErrorResponse
// @Router /audit-logs [get]
func (h *ReportHandler) ListAuditLogs(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	params := c.Request.URL.Query()
	page, err := query.ParsePage(params, query.Limits{Default: h.limits.Max, Max: h.limits.Max})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	res, err := h.svc.AuditLogs(c.Request.Context(), user,
		strings.TrimSpace(params.Get("action")), strings.TrimSpace(params.Get("username")), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
