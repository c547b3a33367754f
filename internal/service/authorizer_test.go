package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fleetpool/api/internal/model"
)

func heldBy(empID int, since time.Time) model.HolderState {
	return model.HolderState{CheckedOut: true, HeldBy: &empID, Since: &since}
}

func TestCanPickupSelfAssign(t *testing.T) {
	a := NewAuthorizer()
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	perms := model.PermissionSet{SelfAssign: true}
	// Self-assign works across sections and ignores cooldown.
	vehicle := shiftVehicle("V1", 2, 9)

	now := time.Now()
	history := []model.Movement{
		{Op: model.OpPickup, EmpID: 7, Timestamp: now.Add(-2 * time.Hour)},
		{Op: model.OpReturn, EmpID: 7, Timestamp: now.Add(-1 * time.Hour)},
	}
	err := a.CanPickup(user, perms, &vehicle, PickupState{History: history}, now)
	assert.NoError(t, err)
}

func TestCanPickupAssignRequiresSectionMatch(t *testing.T) {
	a := NewAuthorizer()
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	perms := model.PermissionSet{Assign: true}

	inSection := shiftVehicle("V1", 1, 5)
	assert.NoError(t, a.CanPickup(user, perms, &inSection, PickupState{}, time.Now()))

	outOfSection := shiftVehicle("V2", 1, 6)
	err := a.CanPickup(user, perms, &outOfSection, PickupState{}, time.Now())
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestCanPickupAssignCooldown(t *testing.T) {
	a := NewAuthorizer()
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	perms := model.PermissionSet{Assign: true}
	vehicle := shiftVehicle("V1", 1, 5)
	now := time.Now()

	// Picked up and returned by the same user inside the window: blocked.
	history := []model.Movement{
		{Op: model.OpPickup, EmpID: 7, Timestamp: now.Add(-3 * time.Hour)},
		{Op: model.OpReturn, EmpID: 7, Timestamp: now.Add(-2 * time.Hour)},
	}
	err := a.CanPickup(user, perms, &vehicle, PickupState{History: history}, now)
	assert.ErrorIs(t, err, model.ErrForbidden)

	// A later return credited to someone else clears the cooldown.
	cleared := append(history, model.Movement{Op: model.OpPickup, EmpID: 8, Timestamp: now.Add(-90 * time.Minute)},
		model.Movement{Op: model.OpReturn, EmpID: 8, Timestamp: now.Add(-1 * time.Hour)})
	assert.NoError(t, a.CanPickup(user, perms, &vehicle, PickupState{History: cleared}, now))

	// Outside the window the old pickup no longer counts.
	old := []model.Movement{
		{Op: model.OpPickup, EmpID: 7, Timestamp: now.Add(-26 * time.Hour)},
		{Op: model.OpReturn, EmpID: 7, Timestamp: now.Add(-25 * time.Hour)},
	}
	assert.NoError(t, a.CanPickup(user, perms, &vehicle, PickupState{History: old}, now))
}

func TestCanPickupCheckedOut(t *testing.T) {
	a := NewAuthorizer()
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	perms := model.PermissionSet{SelfAssign: true}
	vehicle := shiftVehicle("V1", 1, 5)

	state := PickupState{Holder: heldBy(8, time.Now())}
	err := a.CanPickup(user, perms, &vehicle, state, time.Now())
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestCanPickupPrivateVehicle(t *testing.T) {
	a := NewAuthorizer()
	vehicle := privateVehicle("PV1", 7)

	// Even the owner cannot acquire a private vehicle through pickup.
	owner := model.UserContext{EmpID: 7}
	err := a.CanPickup(owner, model.PermissionSet{SelfAssign: true}, &vehicle, PickupState{}, time.Now())
	assert.ErrorIs(t, err, model.ErrForbidden)

	// A view_all admin may, including reclaiming it while checked out.
	admin := model.UserContext{EmpID: 1}
	adminPerms := model.PermissionSet{ViewAll: true, SelfAssign: true}
	assert.NoError(t, a.CanPickup(admin, adminPerms, &vehicle, PickupState{}, time.Now()))

	state := PickupState{Holder: heldBy(7, time.Now())}
	assert.NoError(t, a.CanPickup(admin, adminPerms, &vehicle, state, time.Now()))
}

func TestCanPickupAlreadyHolding(t *testing.T) {
	a := NewAuthorizer()
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	vehicle := shiftVehicle("V1", 1, 5)
	state := PickupState{AlreadyHolding: true}

	err := a.CanPickup(user, model.PermissionSet{SelfAssign: true}, &vehicle, state, time.Now())
	assert.ErrorIs(t, err, model.ErrAlreadyHolding)

	// Roles with assign bypass the one-vehicle limit.
	assert.NoError(t, a.CanPickup(user, model.PermissionSet{Assign: true}, &vehicle, state, time.Now()))
}

func TestCanPickupNoCapability(t *testing.T) {
	a := NewAuthorizer()
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	vehicle := shiftVehicle("V1", 1, 5)

	err := a.CanPickup(user, model.PermissionSet{Receive: true}, &vehicle, PickupState{}, time.Now())
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestCanReturn(t *testing.T) {
	a := NewAuthorizer()
	vehicle := shiftVehicle("V1", 1, 5)
	holder := heldBy(7, time.Now())

	// The holder may always return, regardless of capabilities.
	assert.NoError(t, a.CanReturn(model.UserContext{EmpID: 7}, model.PermissionSet{}, &vehicle, holder))

	// Someone else needs view_all.
	other := model.UserContext{EmpID: 8}
	err := a.CanReturn(other, model.PermissionSet{Assign: true}, &vehicle, holder)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.NoError(t, a.CanReturn(other, model.PermissionSet{ViewAll: true}, &vehicle, holder))

	// No open pickup means nothing to return.
	err = a.CanReturn(model.UserContext{EmpID: 7}, model.PermissionSet{ViewAll: true}, &vehicle, model.HolderState{})
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestInCooldownOwnReturnDoesNotClear(t *testing.T) {
	a := NewAuthorizer()
	user := model.UserContext{EmpID: 7}
	now := time.Now()

	history := []model.Movement{
		{Op: model.OpPickup, EmpID: 7, Timestamp: now.Add(-5 * time.Hour)},
		{Op: model.OpReturn, EmpID: 7, Timestamp: now.Add(-4 * time.Hour)},
		{Op: model.OpPickup, EmpID: 7, Timestamp: now.Add(-3 * time.Hour)},
		{Op: model.OpReturn, EmpID: 7, Timestamp: now.Add(-2 * time.Hour)},
	}
	assert.True(t, a.InCooldown(user, history, now))
}
