package auth

type Role string

const (
	RoleRecruiter Role = "recruiter" // Issues offers and boards candidates
	RoleApprover  Role = "approver"  // Decides approval requests
	RoleAdmin     Role = "admin"     // Everything, including reassignment
)

func (r Role) IsValid() bool {
	switch r {
	case RoleRecruiter, RoleApprover, RoleAdmin:
		return true
	}
	return false
}

type Permission string

const (
	PermissionBoardingView   Permission = "boarding.view"
	PermissionBoardingManage Permission = "boarding.manage"

	PermissionApprovalDecide Permission = "approval.decide"
	PermissionApprovalManage Permission = "approval.manage"

	PermissionAuditView Permission = "audit.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionBoardingView,
		PermissionBoardingManage,
		PermissionApprovalDecide,
		PermissionApprovalManage,
		PermissionAuditView,
	},
	RoleRecruiter: {
		PermissionBoardingView,
		PermissionBoardingManage,
		PermissionAuditView,
	},
	RoleApprover: {
		PermissionBoardingView,
		PermissionApprovalDecide,
		PermissionAuditView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
