package model

import (
	"time"
)

// LoginLog 登录日志
type LoginLog struct {
	ID         int       `json:"id" gorm:"primaryKey"`
	UserID     int       `json:"user_id" gorm:"column:user_id"`
	Username   string    `json:"username" gorm:"type:varchar(50)"`
	IP         string    `json:"ip" gorm:"type:varchar(50)"`
	Success    bool      `json:"success" gorm:"not null;default:true"`
	FailReason string    `json:"fail_reason,omitempty" gorm:"column:fail_reason;type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;default:now()"`
}

func (LoginLog) TableName() string {
	return "login_logs"
}
