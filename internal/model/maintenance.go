package model

import (
	"time"
)

// MaintenanceRecord 车辆维修保养记录
type MaintenanceRecord struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	VehicleCode string    `json:"vehicle_code" gorm:"column:vehicle_code;type:varchar(30);not null;index"`
	Type        string    `json:"type" gorm:"type:varchar(30);not null"` // repair, inspection, service
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Cost        float64   `json:"cost" gorm:"default:0"`
	PerformedAt time.Time `json:"performed_at" gorm:"column:performed_at;not null"`
	CreatedBy   int       `json:"created_by" gorm:"column:created_by;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:now()"`
}

func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}

// CreateMaintenanceRequest 创建维保记录请求
type CreateMaintenanceRequest struct {
	Type        string     `json:"type" binding:"required"`
	Description string     `json:"description"`
	Cost        float64    `json:"cost"`
	PerformedAt *time.Time `json:"performed_at"`
}
