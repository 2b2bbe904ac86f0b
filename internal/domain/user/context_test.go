package user

import (
	"context"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenContext(t *testing.T, claims map[string]interface{}) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(claims)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func TestActorFromContext_Claims(t *testing.T) {
	ctx := tokenContext(t, map[string]interface{}{
		"user_id":    "u-1",
		"company_id": "c-1",
		"role":       "manager",
	})

	actor, err := ActorFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, Actor{UserID: "u-1", CompanyID: "c-1", Role: RoleManager}, actor)
	assert.True(t, actor.CanManageAttendance())
}

func TestActorFromContext_MissingCompany(t *testing.T) {
	ctx := tokenContext(t, map[string]interface{}{"user_id": "u-1", "role": "owner"})

	_, err := ActorFromContext(ctx)
	assert.ErrorIs(t, err, ErrCompanyIDRequired)
}

func TestActorFromContext_Injected(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{CompanyID: "c-1", Role: RoleSystem})

	actor, err := ManagerFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, RoleSystem, actor.Role)
}

func TestManagerFromContext_EmployeeRejected(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{CompanyID: "c-1", Role: RoleEmployee})

	_, err := ManagerFromContext(ctx)
	assert.ErrorIs(t, err, ErrAttendanceManageRequired)

	_, err = ViewerFromContext(ctx)
	assert.ErrorIs(t, err, ErrInsufficientPermissions)
}

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleOwner, PermissionAttendanceManage))
	assert.True(t, HasPermission(RoleManager, PermissionAttendanceManage))
	assert.False(t, HasPermission(RoleEmployee, PermissionAttendanceManage))
	assert.False(t, HasPermission(RolePending, PermissionAttendanceViewOwn))
	assert.False(t, HasPermission(Role("unknown"), PermissionAttendanceViewOwn))
}
