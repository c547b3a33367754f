package model

import (
	"time"
)

// 出车记录操作类型
const (
	OpPickup = "pickup"
	OpReturn = "return"
)

// Movement 车辆出入台账记录（只追加，坐标回填是唯一允许的修改）
type Movement struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	VehicleCode string    `json:"vehicle_code" gorm:"column:vehicle_code;type:varchar(30);not null;index:idx_movements_vehicle"`
	Op          string    `json:"op" gorm:"type:varchar(10);not null"`
	EmpID       int       `json:"emp_id" gorm:"column:emp_id;not null;index"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;index:idx_movements_vehicle"` // 服务端写入时刻
	Notes       string    `json:"notes,omitempty" gorm:"type:text"`
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	CreatedBy   int       `json:"created_by" gorm:"column:created_by;not null"`
	UpdatedBy   *int      `json:"updated_by,omitempty" gorm:"column:updated_by"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:now()"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:now()"`
}

func (Movement) TableName() string {
	return "movements"
}

// IsPickup 是否取车记录
func (m *Movement) IsPickup() bool {
	return m.Op == OpPickup
}

// After 按 (timestamp, id) 判断是否晚于 other，时间相同按插入序号
func (m *Movement) After(other *Movement) bool {
	if m.Timestamp.Equal(other.Timestamp) {
		return m.ID > other.ID
	}
	return m.Timestamp.After(other.Timestamp)
}

// HolderState 车辆当前持有状态（派生，不落库）
type HolderState struct {
	CheckedOut bool       `json:"checked_out"`
	HeldBy     *int       `json:"held_by,omitempty"`
	Since      *time.Time `json:"since,omitempty"`
}

// HeldByEmp 是否由指定员工持有
func (h HolderState) HeldByEmp(empID int) bool {
	return h.CheckedOut && h.HeldBy != nil && *h.HeldBy == empID
}

// MovementEvent 发布到 NATS 的出入事件
type MovementEvent struct {
	MovementID  int64     `json:"movement_id"`
	VehicleCode string    `json:"vehicle_code"`
	Op          string    `json:"op"`
	EmpID       int       `json:"emp_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// PickupRequest 取车/还车请求体
type PickupRequest struct {
	Notes string   `json:"notes"`
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
}

// RandomAssignRequest 随机分配请求
type RandomAssignRequest struct {
	SectionID *int   `json:"section_id"`
	Notes     string `json:"notes"`
}

// CoordinatesRequest 坐标回填请求
type CoordinatesRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lng float64 `json:"lng" binding:"required"`
}

// MovementListQuery 出入记录查询
type MovementListQuery struct {
	VehicleCode string `form:"vehicle_code"`
	EmpID       int    `form:"emp_id"`
	Op          string `form:"op"`
	StartTime   string `form:"start_time"`
	EndTime     string `form:"end_time"`
	Page        int    `form:"page,default=1"`
	PageSize    int    `form:"page_size,default=20"`
}
