package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetpool/api/internal/model"
)

// VehicleHandler 车辆档案管理
type VehicleHandler struct {
	db *gorm.DB
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(db *gorm.DB) *VehicleHandler {
	return &VehicleHandler{db: db}
}

// RegisterRoutes 注册路由
func (h *VehicleHandler) RegisterRoutes(r *gin.RouterGroup) {
	vehicles := r.Group("/vehicles")
	{
		vehicles.GET("", h.List)
		vehicles.GET("/:code", h.Get)
		vehicles.POST("", h.Create)
		vehicles.PUT("/:code", h.Update)
		vehicles.DELETE("/:code", h.Delete)
	}
}

// List 分页查询车辆
func (h *VehicleHandler) List(c *gin.Context) {
	var query model.VehicleListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.Model(&model.Vehicle{})
	if query.Code != "" {
		db = db.Where("code LIKE ?", "%"+query.Code+"%")
	}
	if query.Mode != "" {
		db = db.Where("mode = ?", query.Mode)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.SectionID > 0 {
		db = db.Where("section_id = ?", query.SectionID)
	}

	var total int64
	db.Count(&total)

	var vehicles []model.Vehicle
	offset := (query.Page - 1) * query.PageSize
	if err := db.Order("code").Offset(offset).Limit(query.PageSize).Find(&vehicles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"list":  vehicles,
		"total": total,
		"page":  query.Page,
	})
}

// Get 查询单台车辆
func (h *VehicleHandler) Get(c *gin.Context) {
	var vehicle model.Vehicle
	if err := h.db.Where("code = ?", c.Param("code")).First(&vehicle).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// Create 创建车辆
func (h *VehicleHandler) Create(c *gin.Context) {
	var req model.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = model.ModeShift
	}
	if mode != model.ModeShift && mode != model.ModePrivate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}
	if mode == model.ModePrivate && req.EmpID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "private vehicle requires emp_id"})
		return
	}

	status := req.Status
	if status == "" {
		status = model.StatusOperational
	}

	vehicle := model.Vehicle{
		Code:         req.Code,
		Mode:         mode,
		Status:       status,
		DepartmentID: req.DepartmentID,
		SectionID:    req.SectionID,
		DivisionID:   req.DivisionID,
		EmpID:        req.EmpID,
		PlateNumber:  req.PlateNumber,
		Brand:        req.Brand,
		VehicleModel: req.VehicleModel,
		DriverName:   req.DriverName,
		DriverPhone:  req.DriverPhone,
		Remark:       req.Remark,
	}
	if err := h.db.Create(&vehicle).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create vehicle"})
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// Update 更新车辆
func (h *VehicleHandler) Update(c *gin.Context) {
	var vehicle model.Vehicle
	if err := h.db.Where("code = ?", c.Param("code")).First(&vehicle).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}

	var req model.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Mode != "" {
		if req.Mode != model.ModeShift && req.Mode != model.ModePrivate {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
			return
		}
		vehicle.Mode = req.Mode
	}
	if req.Status != "" {
		vehicle.Status = req.Status
	}
	if req.DepartmentID != nil {
		vehicle.DepartmentID = req.DepartmentID
	}
	if req.SectionID != nil {
		vehicle.SectionID = req.SectionID
	}
	if req.DivisionID != nil {
		vehicle.DivisionID = req.DivisionID
	}
	if req.EmpID != nil {
		vehicle.EmpID = req.EmpID
	}
	if req.PlateNumber != "" {
		vehicle.PlateNumber = req.PlateNumber
	}
	if req.Brand != "" {
		vehicle.Brand = req.Brand
	}
	if req.VehicleModel != "" {
		vehicle.VehicleModel = req.VehicleModel
	}
	if req.DriverName != "" {
		vehicle.DriverName = req.DriverName
	}
	if req.DriverPhone != "" {
		vehicle.DriverPhone = req.DriverPhone
	}
	if req.Remark != "" {
		vehicle.Remark = req.Remark
	}

	if vehicle.Mode == model.ModePrivate && vehicle.EmpID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "private vehicle requires emp_id"})
		return
	}

	if err := h.db.Save(&vehicle).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update vehicle"})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// Delete 删除车辆（台账保留）
func (h *VehicleHandler) Delete(c *gin.Context) {
	result := h.db.Where("code = ?", c.Param("code")).Delete(&model.Vehicle{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete vehicle"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "vehicle deleted"})
}
