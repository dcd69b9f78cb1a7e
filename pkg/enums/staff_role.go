package enums

import "fmt"

// StaffRole scopes what a staff member may do.
type StaffRole string

const (
	StaffRoleManager      StaffRole = "manager"
	StaffRoleFrontDesk    StaffRole = "front_desk"
	StaffRoleHousekeeping StaffRole = "housekeeping"
)

var validStaffRoles = []StaffRole{
	StaffRoleManager,
	StaffRoleFrontDesk,
	StaffRoleHousekeeping,
}

// String implements fmt.Stringer.
func (v StaffRole) String() string {
	return string(v)
}

// IsValid reports whether the value is a known StaffRole.
func (v StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseStaffRole converts raw input into a StaffRole.
func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
