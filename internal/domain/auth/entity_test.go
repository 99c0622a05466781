package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleAdmin, PermissionApprovalManage, true},
		{RoleRecruiter, PermissionBoardingManage, true},
		{RoleRecruiter, PermissionApprovalDecide, false},
		{RoleApprover, PermissionApprovalDecide, true},
		{RoleApprover, PermissionBoardingManage, false},
		{Role("ghost"), PermissionBoardingView, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.permission), func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.permission))
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleApprover.IsValid())
	assert.False(t, Role("owner").IsValid())
}
