package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetpool/api/internal/model"
)

// CapabilityMiddleware 能力开关权限中间件，角色能力为布尔列
type CapabilityMiddleware struct {
	db *gorm.DB
}

// NewCapabilityMiddleware 创建能力中间件
func NewCapabilityMiddleware(db *gorm.DB) *CapabilityMiddleware {
	return &CapabilityMiddleware{db: db}
}

// permissions 加载当前请求用户的能力集，无角色时为空集
func (m *CapabilityMiddleware) permissions(c *gin.Context) (model.PermissionSet, bool) {
	userID := c.GetInt("userID")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		c.Abort()
		return model.PermissionSet{}, false
	}

	var user model.User
	if err := m.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		c.Abort()
		return model.PermissionSet{}, false
	}

	if user.RoleID == nil {
		return model.PermissionSet{}, true
	}

	var role model.Role
	if err := m.db.First(&role, *user.RoleID).Error; err != nil {
		// 角色被删：按空能力集处理，拒绝而不是报错
		return model.PermissionSet{}, true
	}
	return role.Permissions(), true
}

// Require 检查能力选择函数，拒绝时返回403
func (m *CapabilityMiddleware) Require(check func(model.PermissionSet) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, ok := m.permissions(c)
		if !ok {
			return
		}
		if !check(perms) {
			c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireViewAll 仅限全局可见角色（管理端）
func (m *CapabilityMiddleware) RequireViewAll() gin.HandlerFunc {
	return m.Require(func(p model.PermissionSet) bool { return p.ViewAll })
}

// RequireAssign 仅限可分配角色
func (m *CapabilityMiddleware) RequireAssign() gin.HandlerFunc {
	return m.Require(func(p model.PermissionSet) bool { return p.Assign })
}
