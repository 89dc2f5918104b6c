package rbac

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGrantRepo struct {
	grants map[string]Role
}

func grantKey(userID int64, appCode string) string {
	return fmt.Sprintf("%s:%d", appCode, userID)
}

func (r *fakeGrantRepo) Get(ctx context.Context, userID int64, appCode string) (Role, bool, error) {
	role, ok := r.grants[grantKey(userID, appCode)]
	if !ok {
		return RoleNone, false, nil
	}
	return role, true, nil
}

func (r *fakeGrantRepo) Upsert(ctx context.Context, userID int64, appCode string, role Role) error {
	if r.grants == nil {
		r.grants = map[string]Role{}
	}
	r.grants[grantKey(userID, appCode)] = role
	return nil
}

func (r *fakeGrantRepo) ListForUser(ctx context.Context, userID int64) ([]Grant, error) {
	return nil, nil
}

func TestRoleRanking(t *testing.T) {
	require.True(t, RoleAdmin.AtLeast(RoleManager))
	require.True(t, RoleManager.AtLeast(RoleEmployee))
	require.True(t, RoleEmployee.AtLeast(RoleNone))
	require.True(t, RoleEmployee.AtLeast(RoleEmployee))

	require.False(t, RoleEmployee.AtLeast(RoleManager))
	require.False(t, RoleNone.AtLeast(RoleEmployee))

	// Unknown roles never pass a check, not even against none.
	require.False(t, Role("owner").AtLeast(RoleNone))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("manager")
	require.NoError(t, err)
	require.Equal(t, RoleManager, role)

	_, err = ParseRole("superuser")
	require.Error(t, err)
	_, err = ParseRole("")
	require.Error(t, err)
}

func TestServiceRoleForDefaultsToNone(t *testing.T) {
	svc := NewService(&fakeGrantRepo{})
	ctx := context.Background()

	role, err := svc.RoleFor(ctx, 1, "finance")
	require.NoError(t, err)
	require.Equal(t, RoleNone, role)

	allowed, err := svc.Allowed(ctx, 1, "finance", RoleEmployee)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestServiceAssignReplacesGrant(t *testing.T) {
	repo := &fakeGrantRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Assign(ctx, 1, "finance", RoleEmployee))
	allowed, err := svc.Allowed(ctx, 1, "finance", RoleManager)
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, svc.Assign(ctx, 1, "finance", RoleManager))
	allowed, err = svc.Allowed(ctx, 1, "finance", RoleManager)
	require.NoError(t, err)
	require.True(t, allowed)

	// A grant in one app says nothing about another.
	allowed, err = svc.Allowed(ctx, 1, "crm", RoleEmployee)
	require.NoError(t, err)
	require.False(t, allowed)
}
