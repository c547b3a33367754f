package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetpool/api/internal/model"
)

// MaintenanceHandler 车辆维保记录管理
type MaintenanceHandler struct {
	db *gorm.DB
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(db *gorm.DB) *MaintenanceHandler {
	return &MaintenanceHandler{db: db}
}

// RegisterRoutes 注册路由
func (h *MaintenanceHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/vehicles/:code/maintenance", h.List)
	r.POST("/vehicles/:code/maintenance", h.Create)
	r.DELETE("/maintenance/:id", h.Delete)
}

// List 查询车辆维保记录
func (h *MaintenanceHandler) List(c *gin.Context) {
	var records []model.MaintenanceRecord
	if err := h.db.Where("vehicle_code = ?", c.Param("code")).
		Order("performed_at DESC").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": records, "total": len(records)})
}

// Create 登记维保记录
func (h *MaintenanceHandler) Create(c *gin.Context) {
	code := c.Param("code")
	var count int64
	h.db.Model(&model.Vehicle{}).Where("code = ?", code).Count(&count)
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}

	var req model.CreateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	performedAt := time.Now()
	if req.PerformedAt != nil {
		performedAt = *req.PerformedAt
	}

	record := model.MaintenanceRecord{
		VehicleCode: code,
		Type:        req.Type,
		Description: req.Description,
		Cost:        req.Cost,
		PerformedAt: performedAt,
		CreatedBy:   getUserIDFromContext(c),
	}
	if err := h.db.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create maintenance record"})
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Delete 删除维保记录
func (h *MaintenanceHandler) Delete(c *gin.Context) {
	result := h.db.Delete(&model.MaintenanceRecord{}, c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete maintenance record"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "maintenance record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "maintenance record deleted"})
}
