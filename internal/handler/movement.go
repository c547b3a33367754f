package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetpool/api/internal/model"
	"fleetpool/api/internal/service"
)

// MovementHandler 出入记录管理（管理端查询、坐标回填、导出）
type MovementHandler struct {
	fleetService  *service.FleetService
	reportService *service.ReportService
	db            *gorm.DB
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(fleetService *service.FleetService, reportService *service.ReportService, db *gorm.DB) *MovementHandler {
	return &MovementHandler{fleetService: fleetService, reportService: reportService, db: db}
}

// RegisterRoutes 注册管理端路由
func (h *MovementHandler) RegisterRoutes(r *gin.RouterGroup) {
	movements := r.Group("/movements")
	{
		movements.GET("", h.List)
		movements.GET("/export", h.Export)
	}
}

// RegisterUserRoutes 注册普通用户路由，坐标回填由记录创建者自助完成
func (h *MovementHandler) RegisterUserRoutes(r *gin.RouterGroup) {
	r.PUT("/movements/:id/coordinates", h.UpdateCoordinates)
}

// List 分页查询出入记录
// @Summary List movements
// @Tags Movements
// @Produce json
// @Security BearerAuth
// @Param vehicle_code query string false "Vehicle code"
// @Param emp_id query int false "Employee id"
// @Param op query string false "pickup or return"
// @Success 200 {object} map[string]interface{}
// @Router /movements [get]
func (h *MovementHandler) List(c *gin.Context) {
	var query model.MovementListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.Model(&model.Movement{})
	if query.VehicleCode != "" {
		db = db.Where("vehicle_code = ?", query.VehicleCode)
	}
	if query.EmpID > 0 {
		db = db.Where("emp_id = ?", query.EmpID)
	}
	if query.Op != "" {
		db = db.Where("op = ?", query.Op)
	}
	if query.StartTime != "" {
		if t, err := time.Parse(time.RFC3339, query.StartTime); err == nil {
			db = db.Where(`"timestamp" >= ?`, t)
		}
	}
	if query.EndTime != "" {
		if t, err := time.Parse(time.RFC3339, query.EndTime); err == nil {
			db = db.Where(`"timestamp" <= ?`, t)
		}
	}

	var total int64
	db.Count(&total)

	var movements []model.Movement
	offset := (query.Page - 1) * query.PageSize
	if err := db.Order(`"timestamp" DESC, id DESC`).Offset(offset).Limit(query.PageSize).Find(&movements).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"list":  movements,
		"total": total,
		"page":  query.Page,
	})
}

// UpdateCoordinates 回填出入记录的 GPS 坐标
// @Summary Back-fill movement coordinates
// @Description Sets lat/lng on an existing movement; allowed for the performer or a view_all admin
// @Tags Movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Movement id"
// @Param body body model.CoordinatesRequest true "Coordinates"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /movements/{id}/coordinates [put]
func (h *MovementHandler) UpdateCoordinates(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movement id"})
		return
	}

	var req model.CoordinatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := getUserIDFromContext(c)
	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	if err := h.fleetService.BackfillCoordinates(c.Request.Context(), user.Context(), id, req.Lat, req.Lng); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "coordinates updated"})
}

// Export 导出出入记录为 Excel
// @Summary Export movements as XLSX
// @Tags Movements
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param vehicle_code query string false "Vehicle code"
// @Param emp_id query int false "Employee id"
// @Param start_time query string false "RFC3339 window start"
// @Param end_time query string false "RFC3339 window end"
// @Success 200 {file} binary
// @Router /movements/export [get]
func (h *MovementHandler) Export(c *gin.Context) {
	query := service.MovementReportQuery{
		VehicleCode: c.Query("vehicle_code"),
	}
	if s := c.Query("emp_id"); s != "" {
		if id, err := strconv.Atoi(s); err == nil {
			query.EmpID = id
		}
	}
	if s := c.Query("start_time"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			query.StartTime = t
		}
	}
	if s := c.Query("end_time"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			query.EndTime = t
		}
	}

	f, err := h.reportService.ExportMovements(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("movements_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write workbook"})
	}
}
