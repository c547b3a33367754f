package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleetpool/api/internal/model"
)

// Ledger is the movement log the fleet core reads and writes. Pickup and
// return events are appended, never rewritten; the only permitted mutation
// is the coordinate back-fill.
type Ledger interface {
	// Append records a pickup or return. Timestamps are assigned here, at
	// write time. A pickup on a vehicle with an open pickup fails with
	// model.ErrConflict; a return with no open pickup fails with
	// model.ErrInvalidState.
	Append(ctx context.Context, vehicleCode, op string, performer int, notes string, lat, lng *float64) (*model.Movement, error)
	// Latest returns the most recent movement for a vehicle, or nil when
	// the vehicle has no movements at all.
	Latest(ctx context.Context, vehicleCode string) (*model.Movement, error)
	// History returns movements for a vehicle inside [start, end], ordered
	// oldest first. limit <= 0 means no limit.
	History(ctx context.Context, vehicleCode string, start, end time.Time, limit int) ([]model.Movement, error)
	// GetMovement returns a single movement by id.
	GetMovement(ctx context.Context, id int64) (*model.Movement, error)
	// OpenPickups returns every currently open pickup, one per vehicle.
	OpenPickups(ctx context.Context) ([]model.Movement, error)
	// OpenPickupByEmp returns the open pickup held by an employee, or nil.
	OpenPickupByEmp(ctx context.Context, empID int) (*model.Movement, error)
	// RecentMovements returns all movements since the given time, ordered
	// oldest first. Used for cooldown evaluation across many vehicles.
	RecentMovements(ctx context.Context, since time.Time) ([]model.Movement, error)
	// UpdateCoordinates back-fills GPS coordinates on an existing movement.
	UpdateCoordinates(ctx context.Context, id int64, lat, lng float64, updatedBy int) error
}

// openPickupCond matches pickup rows with no later movement for the same
// vehicle. Ties on timestamp are broken by insertion id.
const openPickupCond = `movements.op = 'pickup' AND NOT EXISTS (
	SELECT 1 FROM movements later
	WHERE later.vehicle_code = movements.vehicle_code
	AND (later."timestamp" > movements."timestamp"
		OR (later."timestamp" = movements."timestamp" AND later.id > movements.id)))`

// MovementLedger is the gorm-backed Ledger implementation.
type MovementLedger struct {
	db *gorm.DB
}

// NewMovementLedger creates a new movement ledger
func NewMovementLedger(db *gorm.DB) *MovementLedger {
	return &MovementLedger{db: db}
}

// Append records a movement inside a transaction. The vehicle row is locked
// first so concurrent pickups for the same code serialize; the loser of the
// race sees the winner's open pickup and gets ErrConflict.
func (l *MovementLedger) Append(ctx context.Context, vehicleCode, op string, performer int, notes string, lat, lng *float64) (*model.Movement, error) {
	if op != model.OpPickup && op != model.OpReturn {
		return nil, fmt.Errorf("%w: unknown op %q", model.ErrInvalidInput, op)
	}
	if vehicleCode == "" {
		return nil, fmt.Errorf("%w: missing vehicle code", model.ErrInvalidInput)
	}

	movement := &model.Movement{
		VehicleCode: vehicleCode,
		Op:          op,
		EmpID:       performer,
		Notes:       notes,
		Lat:         lat,
		Lng:         lng,
		CreatedBy:   performer,
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vehicle model.Vehicle
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", vehicleCode).First(&vehicle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrNotFound
			}
			return fmt.Errorf("%w: %v", model.ErrServer, err)
		}

		var latest model.Movement
		err := tx.Where("vehicle_code = ?", vehicleCode).
			Order(`"timestamp" DESC, id DESC`).
			First(&latest).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %v", model.ErrServer, err)
		}
		openPickup := err == nil && latest.Op == model.OpPickup

		switch op {
		case model.OpPickup:
			if openPickup {
				return model.ErrConflict
			}
		case model.OpReturn:
			if !openPickup {
				return model.ErrInvalidState
			}
		}

		movement.Timestamp = time.Now()
		if err := tx.Create(movement).Error; err != nil {
			return fmt.Errorf("%w: %v", model.ErrServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// Latest returns the most recent movement for a vehicle
func (l *MovementLedger) Latest(ctx context.Context, vehicleCode string) (*model.Movement, error) {
	var movement model.Movement
	err := l.db.WithContext(ctx).
		Where("vehicle_code = ?", vehicleCode).
		Order(`"timestamp" DESC, id DESC`).
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return &movement, nil
}

// History returns movements for a vehicle within a time window
func (l *MovementLedger) History(ctx context.Context, vehicleCode string, start, end time.Time, limit int) ([]model.Movement, error) {
	var movements []model.Movement
	query := l.db.WithContext(ctx).
		Where(`vehicle_code = ? AND "timestamp" >= ? AND "timestamp" <= ?`, vehicleCode, start, end).
		Order(`"timestamp" ASC, id ASC`)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return movements, nil
}

// GetMovement returns a movement by id
func (l *MovementLedger) GetMovement(ctx context.Context, id int64) (*model.Movement, error) {
	var movement model.Movement
	if err := l.db.WithContext(ctx).First(&movement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return &movement, nil
}

// OpenPickups returns the open pickup for every checked-out vehicle
func (l *MovementLedger) OpenPickups(ctx context.Context) ([]model.Movement, error) {
	var movements []model.Movement
	if err := l.db.WithContext(ctx).
		Where(openPickupCond).
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return movements, nil
}

// OpenPickupByEmp returns the open pickup held by an employee, if any
func (l *MovementLedger) OpenPickupByEmp(ctx context.Context, empID int) (*model.Movement, error) {
	var movement model.Movement
	err := l.db.WithContext(ctx).
		Where("emp_id = ?", empID).
		Where(openPickupCond).
		Order(`"timestamp" DESC, id DESC`).
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return &movement, nil
}

// RecentMovements returns all movements since the given time
func (l *MovementLedger) RecentMovements(ctx context.Context, since time.Time) ([]model.Movement, error) {
	var movements []model.Movement
	if err := l.db.WithContext(ctx).
		Where(`"timestamp" >= ?`, since).
		Order(`"timestamp" ASC, id ASC`).
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrServer, err)
	}
	return movements, nil
}

// UpdateCoordinates back-fills lat/lng on a movement. The authorization
// decision (original performer or admin) belongs to the caller.
func (l *MovementLedger) UpdateCoordinates(ctx context.Context, id int64, lat, lng float64, updatedBy int) error {
	result := l.db.WithContext(ctx).Model(&model.Movement{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"lat":        lat,
			"lng":        lng,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %v", model.ErrServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
