package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleetpool/api/internal/model"
)

func shiftVehicle(code string, deptID, sectionID int) model.Vehicle {
	return model.Vehicle{
		Code:         code,
		Mode:         model.ModeShift,
		Status:       model.StatusOperational,
		DepartmentID: intPtr(deptID),
		SectionID:    intPtr(sectionID),
	}
}

func privateVehicle(code string, empID int) model.Vehicle {
	return model.Vehicle{
		Code:   code,
		Mode:   model.ModePrivate,
		Status: model.StatusOperational,
		EmpID:  intPtr(empID),
	}
}

func TestVisibleVehiclesDenyByDefault(t *testing.T) {
	// No section, no grants: the visible set is empty even though the pool
	// is not.
	user := model.UserContext{EmpID: 7}
	vehicles := []model.Vehicle{
		shiftVehicle("V1", 1, 5),
		shiftVehicle("V2", 2, 9),
		privateVehicle("PV1", 99),
	}

	visible := VisibleVehicles(user, model.PermissionSet{}, vehicles)
	assert.Empty(t, visible)
}

func TestVisibleVehiclesOwnSection(t *testing.T) {
	user := model.UserContext{EmpID: 7, DepartmentID: intPtr(1), SectionID: intPtr(5)}
	vehicles := []model.Vehicle{
		shiftVehicle("V1", 1, 5),
		shiftVehicle("V2", 1, 6),
		shiftVehicle("V3", 2, 5),
	}

	visible := VisibleVehicles(user, model.PermissionSet{}, vehicles)
	codes := vehicleCodes(visible)
	// Section match is on section id alone; V3 shares section 5 even though
	// it hangs off another department.
	assert.Equal(t, []string{"V1", "V3"}, codes)
}

func TestVisibleVehiclesViewDepartment(t *testing.T) {
	user := model.UserContext{EmpID: 7, DepartmentID: intPtr(1), SectionID: intPtr(5)}
	perms := model.PermissionSet{ViewDepartment: true}
	vehicles := []model.Vehicle{
		shiftVehicle("V1", 1, 5),
		shiftVehicle("V2", 1, 6), // same department, other section
		shiftVehicle("V3", 2, 9),
	}

	visible := VisibleVehicles(user, perms, vehicles)
	assert.Equal(t, []string{"V1", "V2"}, vehicleCodes(visible))
}

func TestVisibleVehiclesOverrideSections(t *testing.T) {
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	perms := model.PermissionSet{
		OverrideDepartment: true,
		OverrideSectionIDs: []int{12},
	}
	vehicles := []model.Vehicle{
		shiftVehicle("V1", 1, 5),
		shiftVehicle("V2", 3, 12), // granted via override
		shiftVehicle("V3", 3, 13),
	}

	visible := VisibleVehicles(user, perms, vehicles)
	assert.Equal(t, []string{"V1", "V2"}, vehicleCodes(visible))
}

func TestVisibleVehiclesPrivateOnlyOwner(t *testing.T) {
	owner := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	other := model.UserContext{EmpID: 8, SectionID: intPtr(5)}
	vehicles := []model.Vehicle{privateVehicle("PV1", 7)}

	assert.Equal(t, []string{"PV1"}, vehicleCodes(VisibleVehicles(owner, model.PermissionSet{}, vehicles)))
	assert.Empty(t, VisibleVehicles(other, model.PermissionSet{}, vehicles))

	// Private vehicles never leak through section or department clauses.
	perms := model.PermissionSet{ViewDepartment: true}
	assert.Empty(t, VisibleVehicles(other, perms, vehicles))
}

func TestVisibleVehiclesNonOperationalHidden(t *testing.T) {
	user := model.UserContext{EmpID: 7, SectionID: intPtr(5)}
	broken := shiftVehicle("V1", 1, 5)
	broken.Status = model.StatusMaintenance
	vehicles := []model.Vehicle{broken, shiftVehicle("V2", 1, 5)}

	visible := VisibleVehicles(user, model.PermissionSet{}, vehicles)
	assert.Equal(t, []string{"V2"}, vehicleCodes(visible))
}

func TestVisibleVehiclesViewAllSeesEverything(t *testing.T) {
	user := model.UserContext{EmpID: 7}
	broken := shiftVehicle("V1", 1, 5)
	broken.Status = model.StatusOutOfService
	vehicles := []model.Vehicle{
		broken,
		privateVehicle("PV1", 99),
		shiftVehicle("V2", 2, 9),
	}

	visible := VisibleVehicles(user, model.PermissionSet{ViewAll: true}, vehicles)
	assert.Len(t, visible, 3)
}

func vehicleCodes(vehicles []model.Vehicle) []string {
	codes := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		codes = append(codes, v.Code)
	}
	return codes
}
