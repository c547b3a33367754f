package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOverrideSections(t *testing.T) {
	assert.Nil(t, ParseOverrideSections(""))
	assert.Equal(t, []int{5, 12, 7}, ParseOverrideSections("5+12+7"))
	assert.Equal(t, []int{5}, ParseOverrideSections("5"))

	// Malformed items are dropped silently, the rest survive.
	assert.Equal(t, []int{5, 7}, ParseOverrideSections("5+abc+7"))
	assert.Equal(t, []int{3}, ParseOverrideSections("+3+"))
	assert.Equal(t, []int{9}, ParseOverrideSections("0+-2+9"))
	assert.Nil(t, ParseOverrideSections("abc"))
}

func TestRolePermissionsOverrideGate(t *testing.T) {
	role := Role{
		Assign:           true,
		OverrideSections: "5+12",
	}

	// The section list is inert without the override flag.
	perms := role.Permissions()
	assert.True(t, perms.Assign)
	assert.Nil(t, perms.OverrideSectionIDs)
	assert.False(t, perms.HasOverrideSection(5))

	role.OverrideDepartment = true
	perms = role.Permissions()
	assert.Equal(t, []int{5, 12}, perms.OverrideSectionIDs)
	assert.True(t, perms.HasOverrideSection(5))
	assert.False(t, perms.HasOverrideSection(6))
}

func TestUserContext(t *testing.T) {
	roleID := 3
	sectionID := 5
	user := User{ID: 7, RoleID: &roleID, SectionID: &sectionID}

	ctx := user.Context()
	assert.Equal(t, 7, ctx.EmpID)
	assert.Equal(t, 3, ctx.RoleID)
	assert.Equal(t, 5, *ctx.SectionID)

	// No role leaves RoleID zero; the role store maps that to an empty
	// permission set.
	ctx = (&User{ID: 8}).Context()
	assert.Equal(t, 0, ctx.RoleID)
}

func TestMovementAfterTiebreak(t *testing.T) {
	a := Movement{ID: 1}
	b := Movement{ID: 2}
	b.Timestamp = a.Timestamp

	assert.True(t, b.After(&a))
	assert.False(t, a.After(&b))
}
