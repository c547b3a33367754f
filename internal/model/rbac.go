package model

import (
	"strconv"
	"strings"
	"time"
)

// Role 角色，能力以布尔开关表示
type Role struct {
	ID                int       `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"type:varchar(50);not null;unique"`
	Description       string    `json:"description,omitempty" gorm:"type:varchar(200)"`
	ViewAll           bool      `json:"view_all" gorm:"column:view_all;not null;default:false"`
	ViewDepartment    bool      `json:"view_department" gorm:"column:view_department;not null;default:false"`
	Assign            bool      `json:"assign" gorm:"not null;default:false"`
	Receive           bool      `json:"receive" gorm:"not null;default:false"`
	SelfAssign        bool      `json:"self_assign" gorm:"column:self_assign;not null;default:false"`
	OverrideDepartment bool     `json:"override_department" gorm:"column:override_department;not null;default:false"`
	AllowRegistration bool      `json:"allow_registration" gorm:"column:allow_registration;not null;default:false"`
	// OverrideSections 跨部门班组授权，历史格式："5+12+7"
	OverrideSections string    `json:"override_sections,omitempty" gorm:"column:override_sections;type:varchar(200)"`
	IsSystem         bool      `json:"is_system" gorm:"column:is_system;not null;default:false"`
	CreatedAt        time.Time `json:"created_at" gorm:"not null;default:now()"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"not null;default:now()"`
}

func (Role) TableName() string {
	return "roles"
}

// PermissionSet 角色能力集，override 描述串在此边界解析完毕，核心逻辑不再碰字符串
type PermissionSet struct {
	ViewAll            bool
	ViewDepartment     bool
	Assign             bool
	Receive            bool
	SelfAssign         bool
	OverrideDepartment bool
	AllowRegistration  bool
	OverrideSectionIDs []int
}

// Permissions 由角色记录构造能力集
func (r *Role) Permissions() PermissionSet {
	p := PermissionSet{
		ViewAll:            r.ViewAll,
		ViewDepartment:     r.ViewDepartment,
		Assign:             r.Assign,
		Receive:            r.Receive,
		SelfAssign:         r.SelfAssign,
		OverrideDepartment: r.OverrideDepartment,
		AllowRegistration:  r.AllowRegistration,
	}
	// override 班组列表只在开关开启时生效
	if r.OverrideDepartment {
		p.OverrideSectionIDs = ParseOverrideSections(r.OverrideSections)
	}
	return p
}

// ParseOverrideSections 解析 "5+12+7" 形式的班组列表，非法项静默丢弃
func ParseOverrideSections(s string) []int {
	if s == "" {
		return nil
	}
	var ids []int
	for _, token := range strings.Split(s, "+") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		id, err := strconv.Atoi(token)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// HasOverrideSection 班组是否在跨部门授权内
func (p PermissionSet) HasOverrideSection(sectionID int) bool {
	if !p.OverrideDepartment {
		return false
	}
	for _, id := range p.OverrideSectionIDs {
		if id == sectionID {
			return true
		}
	}
	return false
}

// UserContext 请求内的用户身份，由认证层构造后显式传入核心逻辑
type UserContext struct {
	EmpID        int
	RoleID       int
	DepartmentID *int
	SectionID    *int
	DivisionID   *int
}

// CreateRoleRequest 创建角色请求
type CreateRoleRequest struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	ViewAll            bool   `json:"view_all"`
	ViewDepartment     bool   `json:"view_department"`
	Assign             bool   `json:"assign"`
	Receive            bool   `json:"receive"`
	SelfAssign         bool   `json:"self_assign"`
	OverrideDepartment bool   `json:"override_department"`
	AllowRegistration  bool   `json:"allow_registration"`
	OverrideSections   string `json:"override_sections"`
}

// UpdateRoleRequest 更新角色请求
type UpdateRoleRequest struct {
	Name               *string `json:"name"`
	Description        *string `json:"description"`
	ViewAll            *bool   `json:"view_all"`
	ViewDepartment     *bool   `json:"view_department"`
	Assign             *bool   `json:"assign"`
	Receive            *bool   `json:"receive"`
	SelfAssign         *bool   `json:"self_assign"`
	OverrideDepartment *bool   `json:"override_department"`
	AllowRegistration  *bool   `json:"allow_registration"`
	OverrideSections   *string `json:"override_sections"`
}
