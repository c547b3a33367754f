package model

import "errors"

// 核心错误类型，handler 层统一映射为 HTTP 状态码
var (
	// ErrNotAuthenticated 未登录
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden 无权限
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput 输入不合法
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict 并发取车冲突
	ErrConflict = errors.New("conflict")
	// ErrInvalidState 车辆状态不允许该操作
	ErrInvalidState = errors.New("invalid state")
	// ErrNoneAvailable 没有可分配车辆
	ErrNoneAvailable = errors.New("no vehicle available")
	// ErrAlreadyHolding 已持有未归还车辆
	ErrAlreadyHolding = errors.New("already holding a vehicle")
	// ErrHasPrivateVehicle 已有专车，不参与抽签
	ErrHasPrivateVehicle = errors.New("employee has a private vehicle")
	// ErrServer 存储或超时错误
	ErrServer = errors.New("server error")
)
