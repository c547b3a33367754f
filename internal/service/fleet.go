package service

import (
	"context"
	"fmt"
	"time"

	"fleetpool/api/internal/model"
)

// FleetService is the outward face of the fleet core: the visible-vehicle
// listing, pickup, return, random assignment and coordinate back-fill
// operations the handlers call. Identity arrives as an explicit
// model.UserContext; the service never reads ambient state.
type FleetService struct {
	ledger     Ledger
	registry   VehicleRegistry
	roles      RoleStore
	resolver   *HolderResolver
	authorizer *Authorizer
	allocator  *Allocator
	events     *EventPublisher
}

// NewFleetService creates a new fleet service
func NewFleetService(ledger Ledger, registry VehicleRegistry, roles RoleStore, events *EventPublisher) *FleetService {
	authorizer := NewAuthorizer()
	return &FleetService{
		ledger:     ledger,
		registry:   registry,
		roles:      roles,
		resolver:   NewHolderResolver(ledger),
		authorizer: authorizer,
		allocator:  NewAllocator(ledger, registry, authorizer),
		events:     events,
	}
}

// ListVisibleVehicles returns the user's visible set with per-vehicle
// availability and action flags. Two calls with no intervening ledger
// writes return the same result.
func (s *FleetService) ListVisibleVehicles(ctx context.Context, user model.UserContext) ([]model.VehicleView, error) {
	perms, err := s.roles.PermissionSet(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	openPickups, err := s.ledger.OpenPickups(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	recent, err := s.ledger.RecentMovements(ctx, now.Add(-CooldownWindow))
	if err != nil {
		return nil, err
	}

	visible := VisibleVehicles(user, perms, vehicles)
	holders := HolderMap(openPickups)
	alreadyHolding := false
	for _, m := range openPickups {
		if m.EmpID == user.EmpID {
			alreadyHolding = true
			break
		}
	}

	return s.buildViews(user, perms, visible, holders, alreadyHolding, groupByVehicle(recent), now), nil
}

// Pickup records a pickup for the user on the given vehicle
func (s *FleetService) Pickup(ctx context.Context, user model.UserContext, vehicleCode string, req model.PickupRequest) (*model.Movement, error) {
	if vehicleCode == "" {
		return nil, fmt.Errorf("%w: missing vehicle code", model.ErrInvalidInput)
	}
	if err := validateCoords(req.Lat, req.Lng); err != nil {
		return nil, err
	}

	perms, err := s.roles.PermissionSet(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.registry.GetByCode(ctx, vehicleCode)
	if err != nil {
		return nil, err
	}
	if !IsVisible(user, perms, vehicle) {
		return nil, fmt.Errorf("%w: vehicle not visible", model.ErrForbidden)
	}

	state, err := s.pickupState(ctx, user, vehicleCode)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanPickup(user, perms, vehicle, state, time.Now()); err != nil {
		return nil, err
	}

	movement, err := s.ledger.Append(ctx, vehicleCode, model.OpPickup, user.EmpID, req.Notes, req.Lat, req.Lng)
	if err != nil {
		return nil, err
	}
	s.events.PublishMovement(movement)
	return movement, nil
}

// Return records a return for the user on the given vehicle
func (s *FleetService) Return(ctx context.Context, user model.UserContext, vehicleCode string, req model.PickupRequest) (*model.Movement, error) {
	if vehicleCode == "" {
		return nil, fmt.Errorf("%w: missing vehicle code", model.ErrInvalidInput)
	}
	if err := validateCoords(req.Lat, req.Lng); err != nil {
		return nil, err
	}

	perms, err := s.roles.PermissionSet(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.registry.GetByCode(ctx, vehicleCode)
	if err != nil {
		return nil, err
	}

	holder, err := s.resolver.Resolve(ctx, vehicleCode)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanReturn(user, perms, vehicle, holder); err != nil {
		return nil, err
	}

	movement, err := s.ledger.Append(ctx, vehicleCode, model.OpReturn, user.EmpID, req.Notes, req.Lat, req.Lng)
	if err != nil {
		return nil, err
	}
	s.events.PublishMovement(movement)
	return movement, nil
}

// AssignRandom draws a random available vehicle for the user and records
// the pickup.
func (s *FleetService) AssignRandom(ctx context.Context, user model.UserContext, sectionFilter *int, notes string) (*model.Vehicle, *model.Movement, error) {
	perms, err := s.roles.PermissionSet(ctx, user.RoleID)
	if err != nil {
		return nil, nil, err
	}

	vehicle, movement, err := s.allocator.AssignRandom(ctx, user, perms, sectionFilter, notes)
	if err != nil {
		return nil, nil, err
	}
	s.events.PublishMovement(movement)
	return vehicle, movement, nil
}

// History returns a vehicle's movement history inside a window, restricted
// to vehicles the user can see.
func (s *FleetService) History(ctx context.Context, user model.UserContext, vehicleCode string, start, end time.Time, limit int) ([]model.Movement, error) {
	perms, err := s.roles.PermissionSet(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.registry.GetByCode(ctx, vehicleCode)
	if err != nil {
		return nil, err
	}
	if !IsVisible(user, perms, vehicle) {
		return nil, fmt.Errorf("%w: vehicle not visible", model.ErrForbidden)
	}
	return s.ledger.History(ctx, vehicleCode, start, end, limit)
}

// BackfillCoordinates sets GPS coordinates on an existing movement. Only
// the original performer or a view_all admin may do this; it is the single
// permitted mutation of a ledger entry.
func (s *FleetService) BackfillCoordinates(ctx context.Context, user model.UserContext, movementID int64, lat, lng float64) error {
	if err := validateCoords(&lat, &lng); err != nil {
		return err
	}

	movement, err := s.ledger.GetMovement(ctx, movementID)
	if err != nil {
		return err
	}
	if movement.EmpID != user.EmpID {
		perms, err := s.roles.PermissionSet(ctx, user.RoleID)
		if err != nil {
			return err
		}
		if !perms.ViewAll {
			return fmt.Errorf("%w: not the movement performer", model.ErrForbidden)
		}
	}
	return s.ledger.UpdateCoordinates(ctx, movementID, lat, lng, user.EmpID)
}

// pickupState gathers the ledger-derived facts the authorizer needs
func (s *FleetService) pickupState(ctx context.Context, user model.UserContext, vehicleCode string) (PickupState, error) {
	now := time.Now()
	holder, err := s.resolver.Resolve(ctx, vehicleCode)
	if err != nil {
		return PickupState{}, err
	}
	open, err := s.ledger.OpenPickupByEmp(ctx, user.EmpID)
	if err != nil {
		return PickupState{}, err
	}
	history, err := s.ledger.History(ctx, vehicleCode, now.Add(-CooldownWindow), now, 0)
	if err != nil {
		return PickupState{}, err
	}
	return PickupState{
		Holder:         holder,
		AlreadyHolding: open != nil,
		History:        history,
	}, nil
}

// buildViews assembles VehicleView rows for an already-filtered visible set
func (s *FleetService) buildViews(user model.UserContext, perms model.PermissionSet, visible []model.Vehicle, holders map[string]model.HolderState, alreadyHolding bool, recentByCode map[string][]model.Movement, now time.Time) []model.VehicleView {
	views := make([]model.VehicleView, 0, len(visible))
	for i := range visible {
		v := visible[i]
		holder := holders[v.Code]

		view := model.VehicleView{
			Vehicle:            v,
			AvailabilityStatus: availabilityStatus(user, &v, holder),
		}
		if holder.CheckedOut {
			view.HeldBy = holder.HeldBy
			view.HeldSince = holder.Since
		}

		state := PickupState{
			Holder:         holder,
			AlreadyHolding: alreadyHolding,
			History:        recentByCode[v.Code],
		}
		view.CanPickup = s.authorizer.CanPickup(user, perms, &v, state, now) == nil
		view.CanReturn = s.authorizer.CanReturn(user, perms, &v, holder) == nil
		views = append(views, view)
	}
	return views
}

func availabilityStatus(user model.UserContext, v *model.Vehicle, holder model.HolderState) string {
	if v.Mode == model.ModePrivate {
		if v.EmpID != nil && *v.EmpID == user.EmpID {
			return model.AvailabilityPrivate
		}
		return model.AvailabilityPrivateUnavailable
	}
	if holder.CheckedOut {
		if holder.HeldByEmp(user.EmpID) {
			return model.AvailabilityCheckedOutByMe
		}
		return model.AvailabilityCheckedOutByOther
	}
	return model.AvailabilityAvailable
}

func groupByVehicle(movements []model.Movement) map[string][]model.Movement {
	grouped := make(map[string][]model.Movement)
	for _, m := range movements {
		grouped[m.VehicleCode] = append(grouped[m.VehicleCode], m)
	}
	return grouped
}

func validateCoords(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return fmt.Errorf("%w: lat and lng must be supplied together", model.ErrInvalidInput)
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("%w: latitude out of range", model.ErrInvalidInput)
	}
	if *lng < -180 || *lng > 180 {
		return fmt.Errorf("%w: longitude out of range", model.ErrInvalidInput)
	}
	return nil
}
