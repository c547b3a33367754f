package service

import (
	"context"

	"fleetpool/api/internal/model"
)

// HolderResolver derives the current holder of a vehicle from the ledger.
// It is a pure function of the ledger contents; nothing is cached between
// requests because concurrent writers can change the answer at any time.
type HolderResolver struct {
	ledger Ledger
}

// NewHolderResolver creates a new holder resolver
func NewHolderResolver(ledger Ledger) *HolderResolver {
	return &HolderResolver{ledger: ledger}
}

// Resolve reports whether a vehicle is checked out and by whom. A vehicle
// with no movements is simply not checked out; absence is never an error.
func (r *HolderResolver) Resolve(ctx context.Context, vehicleCode string) (model.HolderState, error) {
	latest, err := r.ledger.Latest(ctx, vehicleCode)
	if err != nil {
		return model.HolderState{}, err
	}
	return HolderFromLatest(latest), nil
}

// HolderFromLatest derives holder state from the most recent movement.
// The vehicle is checked out iff that movement is a pickup.
func HolderFromLatest(latest *model.Movement) model.HolderState {
	if latest == nil || latest.Op != model.OpPickup {
		return model.HolderState{}
	}
	empID := latest.EmpID
	since := latest.Timestamp
	return model.HolderState{
		CheckedOut: true,
		HeldBy:     &empID,
		Since:      &since,
	}
}

// LatestOf picks the most recent movement from a slice, ordering by
// timestamp with insertion id as the tiebreak. Returns nil for an empty
// slice.
func LatestOf(movements []model.Movement) *model.Movement {
	var latest *model.Movement
	for i := range movements {
		m := &movements[i]
		if latest == nil || m.After(latest) {
			latest = m
		}
	}
	return latest
}

// HolderMap builds a per-vehicle holder state map from the set of open
// pickups. Vehicles absent from the map are not checked out.
func HolderMap(openPickups []model.Movement) map[string]model.HolderState {
	holders := make(map[string]model.HolderState, len(openPickups))
	for i := range openPickups {
		m := openPickups[i]
		holders[m.VehicleCode] = HolderFromLatest(&m)
	}
	return holders
}
