package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fleetpool/api/internal/model"
)

// VehicleRegistry is the read side of the vehicle catalog the fleet core
// queries. CRUD lives in the handlers; the core only ever reads.
type VehicleRegistry interface {
	List(ctx context.Context) ([]model.Vehicle, error)
	GetByCode(ctx context.Context, code string) (*model.Vehicle, error)
	// PrivateVehicleFor returns the operational private vehicle assigned
	// to an employee, or nil.
	PrivateVehicleFor(ctx context.Context, empID int) (*model.Vehicle, error)
}

// RoleStore supplies permission sets by role id. The override-section
// descriptor string is parsed here, at the boundary; the core never sees
// the raw string.
type RoleStore interface {
	PermissionSet(ctx context.Context, roleID int) (model.PermissionSet, error)
}

// GormVehicleRegistry is the gorm-backed vehicle registry
type GormVehicleRegistry struct {
	db *gorm.DB
}

// NewVehicleRegistry creates a new vehicle registry
func NewVehicleRegistry(db *gorm.DB) *GormVehicleRegistry {
	return &GormVehicleRegistry{db: db}
}

// List returns the full vehicle catalog
func (r *GormVehicleRegistry) List(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return vehicles, nil
}

// GetByCode returns a vehicle by its code
func (r *GormVehicleRegistry) GetByCode(ctx context.Context, code string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return &vehicle, nil
}

// PrivateVehicleFor returns the operational private vehicle bound to an employee
func (r *GormVehicleRegistry) PrivateVehicleFor(ctx context.Context, empID int) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := r.db.WithContext(ctx).
		Where("mode = ? AND emp_id = ? AND status = ?", model.ModePrivate, empID, model.StatusOperational).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return &vehicle, nil
}

// GormRoleStore is the gorm-backed role store
type GormRoleStore struct {
	db *gorm.DB
}

// NewRoleStore creates a new role store
func NewRoleStore(db *gorm.DB) *GormRoleStore {
	return &GormRoleStore{db: db}
}

// PermissionSet loads a role and builds its parsed permission set. An
// unknown role yields an empty set, not an error - a user with a dangling
// role simply sees nothing.
func (s *GormRoleStore) PermissionSet(ctx context.Context, roleID int) (model.PermissionSet, error) {
	var role model.Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.PermissionSet{}, nil
		}
		return model.PermissionSet{}, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return role.Permissions(), nil
}
