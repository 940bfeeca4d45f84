package authorization

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RolePreparer    Role = "PPMP_PREPARER"
	RoleApprover    Role = "PPMP_APPROVER"
	RoleFinanceHead Role = "FINANCE_HEAD"
	RoleMayor       Role = "MAYOR"
	// RoleUnknown is assigned to any role string that is not recognized.
	RoleUnknown Role = "UNKNOWN"
)

// ParseRole never fails; unrecognized values become RoleUnknown.
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RolePreparer:
		return RolePreparer
	case RoleApprover:
		return RoleApprover
	case RoleFinanceHead:
		return RoleFinanceHead
	case RoleMayor:
		return RoleMayor
	default:
		return RoleUnknown
	}
}

// IsReviewer reports whether the role belongs to the approval chain.
func (r Role) IsReviewer() bool {
	return r == RoleApprover || r == RoleFinanceHead || r == RoleMayor
}

func (r Role) subject() string {
	return "role:" + strings.ToLower(string(r))
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID       snowflake.ID
	Name         string
	Email        string
	Role         Role
	DepartmentID *snowflake.ID
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// InDepartment reports whether the actor is assigned to the given department.
func (a Actor) InDepartment(departmentID snowflake.ID) bool {
	return a.DepartmentID != nil && *a.DepartmentID != 0 && *a.DepartmentID == departmentID
}
