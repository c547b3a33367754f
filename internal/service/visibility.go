package service

import (
	"fleetpool/api/internal/model"
)

// VisibleVehicles computes the set of vehicles a user may see. The clauses
// are OR'd, not first-match-wins:
//
//  1. view_all sees everything, regardless of status or mode.
//  2. Everyone else only sees operational vehicles.
//  3. Shift vehicles of the user's own section.
//  4. view_department adds shift vehicles of the user's department.
//  5. override_department adds shift vehicles of the role's override
//     sections.
//  6. Private vehicles are visible only to their assigned employee (or
//     view_all), never through 3-5.
//
// A user with no section and no elevated grant sees nothing; that
// deny-by-default is deliberate.
func VisibleVehicles(user model.UserContext, perms model.PermissionSet, vehicles []model.Vehicle) []model.Vehicle {
	if perms.ViewAll {
		return vehicles
	}

	visible := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if vehicleVisible(user, perms, &v) {
			visible = append(visible, v)
		}
	}
	return visible
}

// IsVisible reports whether a single vehicle is in the user's visible set.
func IsVisible(user model.UserContext, perms model.PermissionSet, vehicle *model.Vehicle) bool {
	if perms.ViewAll {
		return true
	}
	return vehicleVisible(user, perms, vehicle)
}

func vehicleVisible(user model.UserContext, perms model.PermissionSet, v *model.Vehicle) bool {
	if !v.IsOperational() {
		return false
	}

	if v.Mode == model.ModePrivate {
		return v.EmpID != nil && *v.EmpID == user.EmpID
	}

	if v.Mode != model.ModeShift {
		return false
	}

	if user.SectionID != nil && v.SectionID != nil && *v.SectionID == *user.SectionID {
		return true
	}
	if perms.ViewDepartment && user.DepartmentID != nil && v.DepartmentID != nil &&
		*v.DepartmentID == *user.DepartmentID {
		return true
	}
	if v.SectionID != nil && perms.HasOverrideSection(*v.SectionID) {
		return true
	}
	return false
}
