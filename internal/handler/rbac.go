package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetpool/api/internal/model"
	"fleetpool/api/internal/service"
)

// UserHandler 用户管理（管理端）
type UserHandler struct {
	authService *service.AuthService
	db          *gorm.DB
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *service.AuthService, db *gorm.DB) *UserHandler {
	return &UserHandler{authService: authService, db: db}
}

// RegisterRoutes 注册路由
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.List)
		users.GET("/:id", h.Get)
		users.POST("", h.Create)
		users.PUT("/:id", h.Update)
		users.DELETE("/:id", h.Delete)
	}
}

// List 分页查询用户
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	db := h.db.Model(&model.User{})
	if username := c.Query("username"); username != "" {
		db = db.Where("username LIKE ?", "%"+username+"%")
	}
	if sectionID := c.Query("section_id"); sectionID != "" {
		db = db.Where("section_id = ?", sectionID)
	}

	var total int64
	db.Count(&total)

	var users []model.User
	if err := db.Order("id").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"list":  users,
		"total": total,
		"page":  page,
	})
}

// Get 查询单个用户
func (h *UserHandler) Get(c *gin.Context) {
	var user model.User
	if err := h.db.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create 创建用户
func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	h.db.Model(&model.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
		return
	}

	user := model.User{
		Username:     req.Username,
		Password:     req.Password,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		RoleID:       req.RoleID,
		DepartmentID: req.DepartmentID,
		SectionID:    req.SectionID,
		DivisionID:   req.DivisionID,
		Status:       1,
	}
	if err := h.authService.CreateUser(c.Request.Context(), &user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Update 更新用户
func (h *UserHandler) Update(c *gin.Context) {
	var user model.User
	if err := h.db.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.RoleID != nil {
		user.RoleID = req.RoleID
	}
	if req.DepartmentID != nil {
		user.DepartmentID = req.DepartmentID
	}
	if req.SectionID != nil {
		user.SectionID = req.SectionID
	}
	if req.DivisionID != nil {
		user.DivisionID = req.DivisionID
	}
	if req.Status != nil {
		user.Status = *req.Status
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete 删除用户（软删除）
func (h *UserHandler) Delete(c *gin.Context) {
	result := h.db.Delete(&model.User{}, c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// RoleHandler 角色管理（管理端）
type RoleHandler struct {
	db *gorm.DB
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(db *gorm.DB) *RoleHandler {
	return &RoleHandler{db: db}
}

// RegisterRoutes 注册路由
func (h *RoleHandler) RegisterRoutes(r *gin.RouterGroup) {
	roles := r.Group("/roles")
	{
		roles.GET("", h.List)
		roles.GET("/:id", h.Get)
		roles.POST("", h.Create)
		roles.PUT("/:id", h.Update)
		roles.DELETE("/:id", h.Delete)
	}
}

// List 查询全部角色
func (h *RoleHandler) List(c *gin.Context) {
	var roles []model.Role
	if err := h.db.Order("id").Find(&roles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": roles, "total": len(roles)})
}

// Get 查询单个角色
func (h *RoleHandler) Get(c *gin.Context) {
	var role model.Role
	if err := h.db.First(&role, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
		return
	}
	c.JSON(http.StatusOK, role)
}

// Create 创建角色
func (h *RoleHandler) Create(c *gin.Context) {
	var req model.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := model.Role{
		Name:               req.Name,
		Description:        req.Description,
		ViewAll:            req.ViewAll,
		ViewDepartment:     req.ViewDepartment,
		Assign:             req.Assign,
		Receive:            req.Receive,
		SelfAssign:         req.SelfAssign,
		OverrideDepartment: req.OverrideDepartment,
		AllowRegistration:  req.AllowRegistration,
		OverrideSections:   req.OverrideSections,
	}
	if err := h.db.Create(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create role"})
		return
	}
	c.JSON(http.StatusCreated, role)
}

// Update 更新角色
func (h *RoleHandler) Update(c *gin.Context) {
	var role model.Role
	if err := h.db.First(&role, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
		return
	}
	if role.IsSystem {
		c.JSON(http.StatusForbidden, gin.H{"error": "system role cannot be modified"})
		return
	}

	var req model.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.ViewAll != nil {
		role.ViewAll = *req.ViewAll
	}
	if req.ViewDepartment != nil {
		role.ViewDepartment = *req.ViewDepartment
	}
	if req.Assign != nil {
		role.Assign = *req.Assign
	}
	if req.Receive != nil {
		role.Receive = *req.Receive
	}
	if req.SelfAssign != nil {
		role.SelfAssign = *req.SelfAssign
	}
	if req.OverrideDepartment != nil {
		role.OverrideDepartment = *req.OverrideDepartment
	}
	if req.AllowRegistration != nil {
		role.AllowRegistration = *req.AllowRegistration
	}
	if req.OverrideSections != nil {
		role.OverrideSections = *req.OverrideSections
	}

	if err := h.db.Save(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
		return
	}
	c.JSON(http.StatusOK, role)
}

// Delete 删除角色
func (h *RoleHandler) Delete(c *gin.Context) {
	var role model.Role
	if err := h.db.First(&role, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
		return
	}
	if role.IsSystem {
		c.JSON(http.StatusForbidden, gin.H{"error": "system role cannot be deleted"})
		return
	}

	var count int64
	h.db.Model(&model.User{}).Where("role_id = ?", role.ID).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role still assigned to users"})
		return
	}

	if err := h.db.Delete(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete role"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role deleted"})
}
