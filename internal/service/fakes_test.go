package service

import (
	"context"
	"sync"
	"time"

	"fleetpool/api/internal/model"
)

func intPtr(v int) *int { return &v }

// memLedger is an in-memory Ledger with the same append semantics as the
// gorm implementation.
type memLedger struct {
	mu        sync.Mutex
	movements []model.Movement
	nextID    int64
	// failAppends makes the next n Append calls return ErrConflict,
	// simulating lost races against concurrent writers.
	failAppends int
}

func newMemLedger() *memLedger {
	return &memLedger{nextID: 1}
}

func (l *memLedger) latestLocked(vehicleCode string) *model.Movement {
	var latest *model.Movement
	for i := range l.movements {
		m := &l.movements[i]
		if m.VehicleCode != vehicleCode {
			continue
		}
		if latest == nil || m.After(latest) {
			latest = m
		}
	}
	return latest
}

func (l *memLedger) Append(ctx context.Context, vehicleCode, op string, performer int, notes string, lat, lng *float64) (*model.Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failAppends > 0 {
		l.failAppends--
		return nil, model.ErrConflict
	}

	latest := l.latestLocked(vehicleCode)
	openPickup := latest != nil && latest.Op == model.OpPickup
	switch op {
	case model.OpPickup:
		if openPickup {
			return nil, model.ErrConflict
		}
	case model.OpReturn:
		if !openPickup {
			return nil, model.ErrInvalidState
		}
	}

	m := model.Movement{
		ID:          l.nextID,
		VehicleCode: vehicleCode,
		Op:          op,
		EmpID:       performer,
		Timestamp:   time.Now(),
		Notes:       notes,
		Lat:         lat,
		Lng:         lng,
		CreatedBy:   performer,
	}
	l.nextID++
	l.movements = append(l.movements, m)
	return &m, nil
}

// seed inserts a movement with an explicit timestamp, bypassing checks.
func (l *memLedger) seed(vehicleCode, op string, empID int, ts time.Time) model.Movement {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := model.Movement{
		ID:          l.nextID,
		VehicleCode: vehicleCode,
		Op:          op,
		EmpID:       empID,
		Timestamp:   ts,
		CreatedBy:   empID,
	}
	l.nextID++
	l.movements = append(l.movements, m)
	return m
}

func (l *memLedger) Latest(ctx context.Context, vehicleCode string) (*model.Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	latest := l.latestLocked(vehicleCode)
	if latest == nil {
		return nil, nil
	}
	m := *latest
	return &m, nil
}

func (l *memLedger) History(ctx context.Context, vehicleCode string, start, end time.Time, limit int) ([]model.Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Movement
	for _, m := range l.movements {
		if m.VehicleCode != vehicleCode || m.Timestamp.Before(start) || m.Timestamp.After(end) {
			continue
		}
		out = append(out, m)
	}
	sortMovementsAsc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *memLedger) GetMovement(ctx context.Context, id int64) (*model.Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.movements {
		if m.ID == id {
			out := m
			return &out, nil
		}
	}
	return nil, model.ErrNotFound
}

func (l *memLedger) OpenPickups(ctx context.Context) ([]model.Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]bool)
	var out []model.Movement
	for i := range l.movements {
		code := l.movements[i].VehicleCode
		if seen[code] {
			continue
		}
		seen[code] = true
		if latest := l.latestLocked(code); latest != nil && latest.Op == model.OpPickup {
			out = append(out, *latest)
		}
	}
	return out, nil
}

func (l *memLedger) OpenPickupByEmp(ctx context.Context, empID int) (*model.Movement, error) {
	open, _ := l.OpenPickups(ctx)
	for _, m := range open {
		if m.EmpID == empID {
			out := m
			return &out, nil
		}
	}
	return nil, nil
}

func (l *memLedger) RecentMovements(ctx context.Context, since time.Time) ([]model.Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Movement
	for _, m := range l.movements {
		if !m.Timestamp.Before(since) {
			out = append(out, m)
		}
	}
	sortMovementsAsc(out)
	return out, nil
}

func (l *memLedger) UpdateCoordinates(ctx context.Context, id int64, lat, lng float64, updatedBy int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.movements {
		if l.movements[i].ID == id {
			l.movements[i].Lat = &lat
			l.movements[i].Lng = &lng
			l.movements[i].UpdatedBy = &updatedBy
			return nil
		}
	}
	return model.ErrNotFound
}

func sortMovementsAsc(movements []model.Movement) {
	for i := 1; i < len(movements); i++ {
		for j := i; j > 0 && movements[j-1].After(&movements[j]); j-- {
			movements[j-1], movements[j] = movements[j], movements[j-1]
		}
	}
}

// memRegistry is an in-memory VehicleRegistry.
type memRegistry struct {
	vehicles []model.Vehicle
}

func (r *memRegistry) List(ctx context.Context) ([]model.Vehicle, error) {
	out := make([]model.Vehicle, len(r.vehicles))
	copy(out, r.vehicles)
	return out, nil
}

func (r *memRegistry) GetByCode(ctx context.Context, code string) (*model.Vehicle, error) {
	for i := range r.vehicles {
		if r.vehicles[i].Code == code {
			v := r.vehicles[i]
			return &v, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *memRegistry) PrivateVehicleFor(ctx context.Context, empID int) (*model.Vehicle, error) {
	for i := range r.vehicles {
		v := r.vehicles[i]
		if v.Mode == model.ModePrivate && v.IsOperational() && v.EmpID != nil && *v.EmpID == empID {
			return &v, nil
		}
	}
	return nil, nil
}

// memRoleStore maps role ids to permission sets; unknown roles yield an
// empty set like the gorm-backed store.
type memRoleStore struct {
	roles map[int]model.PermissionSet
}

func (s *memRoleStore) PermissionSet(ctx context.Context, roleID int) (model.PermissionSet, error) {
	return s.roles[roleID], nil
}
