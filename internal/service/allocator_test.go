package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpool/api/internal/model"
)

func newTestAllocator(ledger *memLedger, registry *memRegistry) *Allocator {
	return NewAllocator(ledger, registry, NewAuthorizer())
}

func TestAssignRandomPicksFromCandidates(t *testing.T) {
	ledger := newMemLedger()
	registry := &memRegistry{vehicles: []model.Vehicle{
		shiftVehicle("V1", 1, 5),
		shiftVehicle("V2", 1, 5),
		shiftVehicle("V3", 1, 9), // other section, not visible
	}}
	allocator := newTestAllocator(ledger, registry)
	allocator.randIntn = func(n int) int { return 0 }

	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	perms := model.PermissionSet{SelfAssign: true}

	vehicle, movement, err := allocator.AssignRandom(context.Background(), user, perms, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "V1", vehicle.Code)
	assert.Equal(t, model.OpPickup, movement.Op)
	assert.Equal(t, 7, movement.EmpID)

	// The pickup is on the ledger: the vehicle is now held.
	state, err := NewHolderResolver(ledger).Resolve(context.Background(), "V1")
	require.NoError(t, err)
	assert.True(t, state.HeldByEmp(7))
}

func TestAssignRandomExcludesCheckedOutAndNonShift(t *testing.T) {
	ledger := newMemLedger()
	busy := shiftVehicle("V1", 1, 5)
	maintenance := shiftVehicle("V2", 1, 5)
	maintenance.Status = model.StatusMaintenance
	registry := &memRegistry{vehicles: []model.Vehicle{
		busy,
		maintenance,
		privateVehicle("PV1", 7),
		shiftVehicle("V3", 1, 5),
	}}
	ledger.seed("V1", model.OpPickup, 8, time.Now())

	allocator := newTestAllocator(ledger, registry)
	user := model.UserContext{EmpID: 9, SectionID: intPtr(5)}
	perms := model.PermissionSet{SelfAssign: true}

	vehicle, _, err := allocator.AssignRandom(context.Background(), user, perms, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "V3", vehicle.Code)
}

func TestAssignRandomAlreadyHolding(t *testing.T) {
	ledger := newMemLedger()
	registry := &memRegistry{vehicles: []model.Vehicle{shiftVehicle("V1", 1, 5)}}
	ledger.seed("V9", model.OpPickup, 7, time.Now())

	allocator := newTestAllocator(ledger, registry)
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}

	_, _, err := allocator.AssignRandom(context.Background(), user, model.PermissionSet{SelfAssign: true}, nil, "")
	assert.ErrorIs(t, err, model.ErrAlreadyHolding)
}

func TestAssignRandomPrivateVehicleOwner(t *testing.T) {
	ledger := newMemLedger()
	registry := &memRegistry{vehicles: []model.Vehicle{
		privateVehicle("PV1", 7),
		shiftVehicle("V1", 1, 5),
	}}

	allocator := newTestAllocator(ledger, registry)
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}

	_, _, err := allocator.AssignRandom(context.Background(), user, model.PermissionSet{SelfAssign: true}, nil, "")
	assert.ErrorIs(t, err, model.ErrHasPrivateVehicle)
}

func TestAssignRandomNoneAvailable(t *testing.T) {
	ledger := newMemLedger()
	registry := &memRegistry{vehicles: []model.Vehicle{shiftVehicle("V1", 1, 9)}}

	allocator := newTestAllocator(ledger, registry)
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}

	_, _, err := allocator.AssignRandom(context.Background(), user, model.PermissionSet{SelfAssign: true}, nil, "")
	assert.ErrorIs(t, err, model.ErrNoneAvailable)
}

func TestAssignRandomSectionFilter(t *testing.T) {
	ledger := newMemLedger()
	registry := &memRegistry{vehicles: []model.Vehicle{
		shiftVehicle("V1", 1, 5),
		shiftVehicle("V2", 1, 6),
	}}

	allocator := newTestAllocator(ledger, registry)
	allocator.randIntn = func(n int) int { return 0 }
	// view_all so both sections are visible; the filter narrows the draw.
	user := model.UserContext{EmpID: 7}
	perms := model.PermissionSet{ViewAll: true, SelfAssign: true}

	vehicle, _, err := allocator.AssignRandom(context.Background(), user, perms, intPtr(6), "")
	require.NoError(t, err)
	assert.Equal(t, "V2", vehicle.Code)
}

func TestAssignRandomRedrawsOnConflict(t *testing.T) {
	ledger := newMemLedger()
	registry := &memRegistry{vehicles: []model.Vehicle{
		shiftVehicle("V1", 1, 5),
		shiftVehicle("V2", 1, 5),
	}}

	allocator := newTestAllocator(ledger, registry)
	allocator.randIntn = func(n int) int { return 0 }
	// First append loses a simulated race; the allocator must exclude the
	// loser and land on the other candidate.
	ledger.failAppends = 1

	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	vehicle, _, err := allocator.AssignRandom(context.Background(), user, model.PermissionSet{SelfAssign: true}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "V2", vehicle.Code)
}

func TestAssignRandomBoundedRetries(t *testing.T) {
	ledger := newMemLedger()
	registry := &memRegistry{vehicles: []model.Vehicle{
		shiftVehicle("V1", 1, 5),
		shiftVehicle("V2", 1, 5),
	}}

	allocator := newTestAllocator(ledger, registry)
	// Every append conflicts: both candidates get excluded, then the pool
	// runs dry well inside the retry bound.
	ledger.failAppends = maxDraws

	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	_, _, err := allocator.AssignRandom(context.Background(), user, model.PermissionSet{SelfAssign: true}, nil, "")
	assert.ErrorIs(t, err, model.ErrNoneAvailable)
}

func TestAssignRandomSurfacesCooldown(t *testing.T) {
	ledger := newMemLedger()
	registry := &memRegistry{vehicles: []model.Vehicle{shiftVehicle("V1", 1, 5)}}
	now := time.Now()
	ledger.seed("V1", model.OpPickup, 7, now.Add(-2*time.Hour))
	ledger.seed("V1", model.OpReturn, 7, now.Add(-1*time.Hour))

	allocator := newTestAllocator(ledger, registry)
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	// Assign roles hit the cooldown on recheck; that is surfaced, not
	// silently redrawn.
	_, _, err := allocator.AssignRandom(context.Background(), user, model.PermissionSet{Assign: true}, nil, "")
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestAssignRandomDefaultNotes(t *testing.T) {
	ledger := newMemLedger()
	registry := &memRegistry{vehicles: []model.Vehicle{shiftVehicle("V1", 1, 5)}}

	allocator := newTestAllocator(ledger, registry)
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}

	_, movement, err := allocator.AssignRandom(context.Background(), user, model.PermissionSet{SelfAssign: true}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "random assignment by 7", movement.Notes)
}
