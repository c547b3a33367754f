package model

import (
	"time"
)

// 车辆运行模式
const (
	ModeShift   = "shift"   // 班车：按班组/抽签流转
	ModePrivate = "private" // 专车：固定绑定一名员工
)

// 车辆生命周期状态
const (
	StatusOperational  = "operational"
	StatusMaintenance  = "maintenance"
	StatusOutOfService = "out_of_service"
)

// 车辆可用性（派生字段，按请求用户计算）
const (
	AvailabilityAvailable          = "available"
	AvailabilityCheckedOutByMe     = "checked_out_by_me"
	AvailabilityCheckedOutByOther  = "checked_out_by_other"
	AvailabilityPrivate            = "private"
	AvailabilityPrivateUnavailable = "private_unavailable"
)

// Vehicle 车辆信息
type Vehicle struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Code         string    `json:"code" gorm:"type:varchar(30);not null;uniqueIndex"`
	Mode         string    `json:"mode" gorm:"type:varchar(10);not null;default:'shift'"`
	Status       string    `json:"status" gorm:"type:varchar(20);not null;default:'operational'"`
	DepartmentID *int      `json:"department_id,omitempty" gorm:"column:department_id;index"`
	SectionID    *int      `json:"section_id,omitempty" gorm:"column:section_id;index"`
	DivisionID   *int      `json:"division_id,omitempty" gorm:"column:division_id"`
	EmpID        *int      `json:"emp_id,omitempty" gorm:"column:emp_id;index"` // 仅 private 模式有效
	PlateNumber  string    `json:"plate_number,omitempty" gorm:"column:plate_number;type:varchar(20)"`
	Brand        string    `json:"brand,omitempty" gorm:"type:varchar(50)"`
	VehicleModel string    `json:"model,omitempty" gorm:"column:model;type:varchar(50)"`
	DriverName   string    `json:"driver_name,omitempty" gorm:"column:driver_name;type:varchar(100)"`
	DriverPhone  string    `json:"driver_phone,omitempty" gorm:"column:driver_phone;type:varchar(20)"`
	Remark       string    `json:"remark,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null;default:now()"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

// IsOperational 是否可运行
func (v *Vehicle) IsOperational() bool {
	return v.Status == StatusOperational
}

// VehicleView 带派生可用性信息的车辆（按请求用户计算）
type VehicleView struct {
	Vehicle
	AvailabilityStatus string     `json:"availability_status"`
	HeldBy             *int       `json:"held_by,omitempty"`
	HeldSince          *time.Time `json:"held_since,omitempty"`
	CanPickup          bool       `json:"can_pickup"`
	CanReturn          bool       `json:"can_return"`
}

// CreateVehicleRequest 创建车辆请求
type CreateVehicleRequest struct {
	Code         string `json:"code" binding:"required"`
	Mode         string `json:"mode"`
	Status       string `json:"status"`
	DepartmentID *int   `json:"department_id"`
	SectionID    *int   `json:"section_id"`
	DivisionID   *int   `json:"division_id"`
	EmpID        *int   `json:"emp_id"`
	PlateNumber  string `json:"plate_number"`
	Brand        string `json:"brand"`
	VehicleModel string `json:"model"`
	DriverName   string `json:"driver_name"`
	DriverPhone  string `json:"driver_phone"`
	Remark       string `json:"remark"`
}

// UpdateVehicleRequest 更新车辆请求
type UpdateVehicleRequest struct {
	Mode         string `json:"mode"`
	Status       string `json:"status"`
	DepartmentID *int   `json:"department_id"`
	SectionID    *int   `json:"section_id"`
	DivisionID   *int   `json:"division_id"`
	EmpID        *int   `json:"emp_id"`
	PlateNumber  string `json:"plate_number"`
	Brand        string `json:"brand"`
	VehicleModel string `json:"model"`
	DriverName   string `json:"driver_name"`
	DriverPhone  string `json:"driver_phone"`
	Remark       string `json:"remark"`
}

// VehicleListQuery 车辆列表查询
type VehicleListQuery struct {
	Code      string `form:"code"`
	Mode      string `form:"mode"`
	Status    string `form:"status"`
	SectionID int    `form:"section_id"`
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
}
