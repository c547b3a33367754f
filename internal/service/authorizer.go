package service

import (
	"fmt"
	"time"

	"fleetpool/api/internal/model"
)

// CooldownWindow is how long an assign-only user is blocked from reclaiming
// a vehicle they just released.
const CooldownWindow = 24 * time.Hour

// PickupState bundles the ledger-derived facts CanPickup needs. Callers
// gather it from the ledger; the authorizer itself never touches storage.
type PickupState struct {
	// Holder is the vehicle's current holder state.
	Holder model.HolderState
	// AlreadyHolding reports whether the user holds an open pickup on any
	// vehicle.
	AlreadyHolding bool
	// History holds the vehicle's movements inside the trailing cooldown
	// window, oldest first.
	History []model.Movement
}

// Authorizer decides whether a pickup or return is permitted. All methods
// are pure over the supplied state and safe for concurrent use.
type Authorizer struct {
	cooldown time.Duration
}

// NewAuthorizer creates an authorizer with the standard cooldown window
func NewAuthorizer() *Authorizer {
	return &Authorizer{cooldown: CooldownWindow}
}

// CanPickup returns nil when the user may pick up the vehicle, or a typed
// error naming the reason. Visibility is the caller's concern; this only
// rules on capability, holder state, ownership and cooldown.
func (a *Authorizer) CanPickup(user model.UserContext, perms model.PermissionSet, vehicle *model.Vehicle, state PickupState, now time.Time) error {
	// Private vehicles are not acquired through this path; only view_all
	// admins may take one (reclaim).
	if vehicle.Mode == model.ModePrivate && !perms.ViewAll {
		return fmt.Errorf("%w: private vehicle", model.ErrForbidden)
	}

	if state.Holder.CheckedOut {
		if !(vehicle.Mode == model.ModePrivate && perms.ViewAll) {
			return fmt.Errorf("%w: vehicle already checked out", model.ErrInvalidState)
		}
	}

	// Holding one vehicle blocks acquiring another, except for roles with
	// assign set. The bypass mirrors longstanding behavior; see DESIGN.md.
	if state.AlreadyHolding && !perms.Assign {
		return model.ErrAlreadyHolding
	}

	if perms.SelfAssign {
		return nil
	}

	if perms.Assign {
		if user.SectionID == nil || vehicle.SectionID == nil || *vehicle.SectionID != *user.SectionID {
			return fmt.Errorf("%w: vehicle outside your section", model.ErrForbidden)
		}
		if a.InCooldown(user, state.History, now) {
			return fmt.Errorf("%w: cannot reclaim the same vehicle within 24h", model.ErrForbidden)
		}
		return nil
	}

	return fmt.Errorf("%w: no pickup capability", model.ErrForbidden)
}

// CanReturn returns nil when the user may return the vehicle. The current
// holder may always return; anyone else needs view_all.
func (a *Authorizer) CanReturn(user model.UserContext, perms model.PermissionSet, vehicle *model.Vehicle, holder model.HolderState) error {
	if !holder.CheckedOut {
		return fmt.Errorf("%w: no open pickup to close", model.ErrInvalidState)
	}
	if holder.HeldByEmp(user.EmpID) {
		return nil
	}
	if perms.ViewAll {
		return nil
	}
	return fmt.Errorf("%w: not the current holder", model.ErrForbidden)
}

// InCooldown walks a vehicle's recent history, oldest first: a pickup by
// the user inside the window starts a cooldown, a later return credited to
// someone else clears it. The user's own return does not clear it - that is
// the whole point of the rule.
func (a *Authorizer) InCooldown(user model.UserContext, history []model.Movement, now time.Time) bool {
	cutoff := now.Add(-a.cooldown)
	inCooldown := false
	for i := range history {
		m := &history[i]
		switch m.Op {
		case model.OpPickup:
			if m.EmpID == user.EmpID && !m.Timestamp.Before(cutoff) {
				inCooldown = true
			}
		case model.OpReturn:
			if inCooldown && m.EmpID != user.EmpID {
				inCooldown = false
			}
		}
	}
	return inCooldown
}
