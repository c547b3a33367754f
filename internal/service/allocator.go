package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"fleetpool/api/internal/model"
)

// maxDraws bounds the allocator's redraw loop. Each conflict excludes the
// losing candidate, so the loop always terminates even without the bound;
// the bound just caps ledger round-trips under heavy contention.
const maxDraws = 5

// Allocator hands out shared-pool vehicles by uniform random draw over the
// visible, available, operational shift set, then records the pickup. A
// concurrent pickup on the drawn vehicle is a "pick again" condition, not
// an error, up to maxDraws attempts.
type Allocator struct {
	ledger     Ledger
	registry   VehicleRegistry
	authorizer *Authorizer
	randIntn   func(n int) int
}

// NewAllocator creates a new random assignment allocator
func NewAllocator(ledger Ledger, registry VehicleRegistry, authorizer *Authorizer) *Allocator {
	return &Allocator{
		ledger:     ledger,
		registry:   registry,
		authorizer: authorizer,
		randIntn:   rand.Intn,
	}
}

// AssignRandom draws one vehicle for the user and appends the pickup.
// Preconditions are checked in order, each with its own error: the user
// must not already hold a vehicle (assign roles bypass this), must not
// have a private vehicle, and the candidate set must be non-empty.
func (a *Allocator) AssignRandom(ctx context.Context, user model.UserContext, perms model.PermissionSet, sectionFilter *int, notes string) (*model.Vehicle, *model.Movement, error) {
	open, err := a.ledger.OpenPickupByEmp(ctx, user.EmpID)
	if err != nil {
		return nil, nil, err
	}
	if open != nil && !perms.Assign {
		return nil, nil, model.ErrAlreadyHolding
	}

	private, err := a.registry.PrivateVehicleFor(ctx, user.EmpID)
	if err != nil {
		return nil, nil, err
	}
	if private != nil {
		return nil, nil, model.ErrHasPrivateVehicle
	}

	vehicles, err := a.registry.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	openPickups, err := a.ledger.OpenPickups(ctx)
	if err != nil {
		return nil, nil, err
	}
	holders := HolderMap(openPickups)

	candidates := lotteryCandidates(user, perms, vehicles, holders, sectionFilter)
	if len(candidates) == 0 {
		return nil, nil, model.ErrNoneAvailable
	}

	if notes == "" {
		notes = fmt.Sprintf("random assignment by %d", user.EmpID)
	}

	excluded := make(map[string]bool)
	for draws := 0; draws < maxDraws; draws++ {
		candidate := a.draw(candidates, excluded)
		if candidate == nil {
			return nil, nil, model.ErrNoneAvailable
		}

		// Re-check against current ledger state. A cooldown or section
		// violation is surfaced, never silently redrawn; only a concurrent
		// pickup conflict triggers another draw.
		if err := a.recheck(ctx, user, perms, candidate); err != nil {
			if errors.Is(err, model.ErrConflict) {
				excluded[candidate.Code] = true
				continue
			}
			return nil, nil, err
		}

		movement, err := a.ledger.Append(ctx, candidate.Code, model.OpPickup, user.EmpID, notes, nil, nil)
		if err != nil {
			if errors.Is(err, model.ErrConflict) {
				excluded[candidate.Code] = true
				continue
			}
			return nil, nil, err
		}
		return candidate, movement, nil
	}

	return nil, nil, model.ErrNoneAvailable
}

// lotteryCandidates restricts the user's visible set to operational shift
// vehicles that are not checked out, optionally limited to one section.
func lotteryCandidates(user model.UserContext, perms model.PermissionSet, vehicles []model.Vehicle, holders map[string]model.HolderState, sectionFilter *int) []model.Vehicle {
	visible := VisibleVehicles(user, perms, vehicles)
	candidates := make([]model.Vehicle, 0, len(visible))
	for _, v := range visible {
		if v.Mode != model.ModeShift || !v.IsOperational() {
			continue
		}
		if holders[v.Code].CheckedOut {
			continue
		}
		if sectionFilter != nil && (v.SectionID == nil || *v.SectionID != *sectionFilter) {
			continue
		}
		candidates = append(candidates, v)
	}
	return candidates
}

// draw picks uniformly among candidates not yet excluded
func (a *Allocator) draw(candidates []model.Vehicle, excluded map[string]bool) *model.Vehicle {
	pool := make([]*model.Vehicle, 0, len(candidates))
	for i := range candidates {
		if !excluded[candidates[i].Code] {
			pool = append(pool, &candidates[i])
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return pool[a.randIntn(len(pool))]
}

func (a *Allocator) recheck(ctx context.Context, user model.UserContext, perms model.PermissionSet, vehicle *model.Vehicle) error {
	now := time.Now()
	latest, err := a.ledger.Latest(ctx, vehicle.Code)
	if err != nil {
		return err
	}
	history, err := a.ledger.History(ctx, vehicle.Code, now.Add(-CooldownWindow), now, 0)
	if err != nil {
		return err
	}
	state := PickupState{
		Holder:  HolderFromLatest(latest),
		History: history,
	}
	if state.Holder.CheckedOut {
		// Lost the race between candidate filtering and the draw; treat it
		// like an append conflict so the caller-facing semantics stay the
		// same either way.
		return model.ErrConflict
	}
	return a.authorizer.CanPickup(user, perms, vehicle, state, now)
}
