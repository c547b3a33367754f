package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a system user; the user id doubles as the employee id
// referenced by vehicles and movements.
type User struct {
	ID           int            `json:"id" gorm:"primaryKey"`
	Username     string         `json:"username" gorm:"uniqueIndex;size:50"`
	Password     string         `json:"-" gorm:"size:255"` // hashed password
	Name         string         `json:"name" gorm:"size:100"`
	Email        string         `json:"email,omitempty" gorm:"size:100"`
	Phone        string         `json:"phone,omitempty" gorm:"size:20"`
	RoleID       *int           `json:"role_id,omitempty" gorm:"column:role_id;index"`
	DepartmentID *int           `json:"department_id,omitempty" gorm:"column:department_id"`
	SectionID    *int           `json:"section_id,omitempty" gorm:"column:section_id;index"`
	DivisionID   *int           `json:"division_id,omitempty" gorm:"column:division_id"`
	Status       int            `json:"status" gorm:"default:1"` // 0: inactive, 1: active
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// Context builds the per-request user context handed to the fleet core.
func (u *User) Context() UserContext {
	ctx := UserContext{
		EmpID:        u.ID,
		DepartmentID: u.DepartmentID,
		SectionID:    u.SectionID,
		DivisionID:   u.DivisionID,
	}
	if u.RoleID != nil {
		ctx.RoleID = *u.RoleID
	}
	return ctx
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterRequest 自助注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
}

// CreateUserRequest 创建用户请求（管理端）
type CreateUserRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required,min=6"`
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	RoleID       *int   `json:"role_id"`
	DepartmentID *int   `json:"department_id"`
	SectionID    *int   `json:"section_id"`
	DivisionID   *int   `json:"division_id"`
}

// UpdateUserRequest 更新用户请求（管理端）
type UpdateUserRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	RoleID       *int    `json:"role_id"`
	DepartmentID *int    `json:"department_id"`
	SectionID    *int    `json:"section_id"`
	DivisionID   *int    `json:"division_id"`
	Status       *int    `json:"status"`
}
