package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetpool/api/internal/model"
)

// OrgUnitHandler 组织架构管理（部门/班组/分队）
type OrgUnitHandler struct {
	db *gorm.DB
}

// NewOrgUnitHandler creates a new org unit handler
func NewOrgUnitHandler(db *gorm.DB) *OrgUnitHandler {
	return &OrgUnitHandler{db: db}
}

// RegisterRoutes 注册路由
func (h *OrgUnitHandler) RegisterRoutes(r *gin.RouterGroup) {
	departments := r.Group("/departments")
	{
		departments.GET("", h.ListDepartments)
		departments.POST("", h.CreateDepartment)
		departments.PUT("/:id", h.UpdateDepartment)
		departments.DELETE("/:id", h.DeleteDepartment)
	}
	sections := r.Group("/sections")
	{
		sections.GET("", h.ListSections)
		sections.POST("", h.CreateSection)
		sections.PUT("/:id", h.UpdateSection)
		sections.DELETE("/:id", h.DeleteSection)
	}
	divisions := r.Group("/divisions")
	{
		divisions.GET("", h.ListDivisions)
		divisions.POST("", h.CreateDivision)
		divisions.PUT("/:id", h.UpdateDivision)
		divisions.DELETE("/:id", h.DeleteDivision)
	}
}

// ListDepartments 查询部门列表
func (h *OrgUnitHandler) ListDepartments(c *gin.Context) {
	var departments []model.Department
	if err := h.db.Order("id").Find(&departments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": departments, "total": len(departments)})
}

// CreateDepartment 创建部门
func (h *OrgUnitHandler) CreateDepartment(c *gin.Context) {
	var department model.Department
	if err := c.ShouldBindJSON(&department); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if department.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.db.Create(&department).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create department"})
		return
	}
	c.JSON(http.StatusCreated, department)
}

// UpdateDepartment 更新部门
func (h *OrgUnitHandler) UpdateDepartment(c *gin.Context) {
	var department model.Department
	if err := h.db.First(&department, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "department not found"})
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	department.Name = req.Name
	if err := h.db.Save(&department).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update department"})
		return
	}
	c.JSON(http.StatusOK, department)
}

// DeleteDepartment 删除部门
func (h *OrgUnitHandler) DeleteDepartment(c *gin.Context) {
	var count int64
	h.db.Model(&model.Section{}).Where("department_id = ?", c.Param("id")).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "department still has sections"})
		return
	}
	result := h.db.Delete(&model.Department{}, c.Param("id"))
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "department not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "department deleted"})
}

// ListSections 查询班组列表
func (h *OrgUnitHandler) ListSections(c *gin.Context) {
	db := h.db.Model(&model.Section{})
	if departmentID := c.Query("department_id"); departmentID != "" {
		db = db.Where("department_id = ?", departmentID)
	}
	var sections []model.Section
	if err := db.Order("id").Find(&sections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": sections, "total": len(sections)})
}

// CreateSection 创建班组
func (h *OrgUnitHandler) CreateSection(c *gin.Context) {
	var section model.Section
	if err := c.ShouldBindJSON(&section); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if section.Name == "" || section.DepartmentID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and department_id are required"})
		return
	}
	if err := h.db.Create(&section).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create section"})
		return
	}
	c.JSON(http.StatusCreated, section)
}

// UpdateSection 更新班组
func (h *OrgUnitHandler) UpdateSection(c *gin.Context) {
	var section model.Section
	if err := h.db.First(&section, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "section not found"})
		return
	}
	var req struct {
		Name         string `json:"name"`
		DepartmentID int    `json:"department_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != "" {
		section.Name = req.Name
	}
	if req.DepartmentID != 0 {
		section.DepartmentID = req.DepartmentID
	}
	if err := h.db.Save(&section).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update section"})
		return
	}
	c.JSON(http.StatusOK, section)
}

// DeleteSection 删除班组
func (h *OrgUnitHandler) DeleteSection(c *gin.Context) {
	var count int64
	h.db.Model(&model.Division{}).Where("section_id = ?", c.Param("id")).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "section still has divisions"})
		return
	}
	result := h.db.Delete(&model.Section{}, c.Param("id"))
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "section not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "section deleted"})
}

// ListDivisions 查询分队列表
func (h *OrgUnitHandler) ListDivisions(c *gin.Context) {
	db := h.db.Model(&model.Division{})
	if sectionID := c.Query("section_id"); sectionID != "" {
		db = db.Where("section_id = ?", sectionID)
	}
	var divisions []model.Division
	if err := db.Order("id").Find(&divisions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": divisions, "total": len(divisions)})
}

// CreateDivision 创建分队
func (h *OrgUnitHandler) CreateDivision(c *gin.Context) {
	var division model.Division
	if err := c.ShouldBindJSON(&division); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if division.Name == "" || division.SectionID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and section_id are required"})
		return
	}
	if err := h.db.Create(&division).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create division"})
		return
	}
	c.JSON(http.StatusCreated, division)
}

// UpdateDivision 更新分队
func (h *OrgUnitHandler) UpdateDivision(c *gin.Context) {
	var division model.Division
	if err := h.db.First(&division, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "division not found"})
		return
	}
	var req struct {
		Name      string `json:"name"`
		SectionID int    `json:"section_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != "" {
		division.Name = req.Name
	}
	if req.SectionID != 0 {
		division.SectionID = req.SectionID
	}
	if err := h.db.Save(&division).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update division"})
		return
	}
	c.JSON(http.StatusOK, division)
}

// DeleteDivision 删除分队
func (h *OrgUnitHandler) DeleteDivision(c *gin.Context) {
	result := h.db.Delete(&model.Division{}, c.Param("id"))
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "division not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "division deleted"})
}
