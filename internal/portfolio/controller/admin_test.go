package controller

import (
	"context"
	"fmt"
	"testing"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestListUsersExcludesStaff(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ev.member(t, fmt.Sprintf("member%d@example.com", i), true)
	}
	ev.requestContext(t, true)

	page, err := ev.admin.ListUsers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.NumPages)
	for _, u := range page.Items {
		assert.False(t, u.IsStaff)
	}
}

func TestAdminUserLifecycle(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	group, err := ev.admin.CreateGroup(ctx, models.GroupInput{Name: "Analysts", Permissions: []string{"view_company"}})
	require.NoError(t, err)

	in := models.UserInput{
		Email: "Ada@Example.COM", FirstName: "Ada", LastName: "Lovelace",
		Password: "Secret123", Phone: "07123456789", IsActive: true, GroupID: group.ID,
	}
	u, err := ev.admin.CreateUser(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Ada@example.com", u.Email)

	_, err = ev.admin.CreateUser(ctx, in)
	v, ok := e.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "User with this Email already exists.", v.Fields["email"])

	_, err = ev.admin.CreateUser(ctx, models.UserInput{Email: "x@example.com", FirstName: "X", LastName: "Y", Password: "p", Phone: "1", GroupID: 999})
	v, ok = e.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, invalidChoice, v.Fields["group"])

	edit := u.Input()
	edit.LastName = "King"
	edit.GroupID = 0
	updated, err := ev.admin.UpdateUser(ctx, u.ID, edit)
	require.NoError(t, err, "keeping the own email is allowed")
	assert.Equal(t, "King", updated.LastName)

	require.NoError(t, ev.admin.ResetPassword(ctx, u.ID))
	_, err = ev.accounts.Login(ctx, LoginInput{Email: u.Email, Password: models.DefaultResetPassword})
	require.NoError(t, err)

	require.NoError(t, ev.admin.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, ev.admin.DeleteUser(ctx, u.ID), e.ErrNotFound)
}

func TestAdminCannotTouchStaff(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	staff := ev.requestContext(t, true).User

	_, err := ev.admin.GetUser(ctx, staff.ID)
	assert.ErrorIs(t, err, e.ErrForbidden)
	_, err = ev.admin.UpdateUser(ctx, staff.ID, staff.Input())
	assert.ErrorIs(t, err, e.ErrForbidden)
	assert.ErrorIs(t, ev.admin.ResetPassword(ctx, staff.ID), e.ErrForbidden)
	assert.ErrorIs(t, ev.admin.DeleteUser(ctx, staff.ID), e.ErrForbidden)
}

func TestCreateSuperuser(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()

	u, err := ev.admin.CreateSuperuser(ctx, models.UserInput{
		Email: "root@example.com", FirstName: "Root", LastName: "User", Password: "Secret123", Phone: "07123456789",
	})
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsActive)

	_, err = ev.admin.CreateSuperuser(ctx, models.UserInput{Email: "root@example.com"})
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestGroups(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()

	g, err := ev.admin.CreateGroup(ctx, models.GroupInput{Name: "Analysts", Permissions: []string{"view_company", "view_individual"}})
	require.NoError(t, err)

	_, err = ev.admin.CreateGroup(ctx, models.GroupInput{Name: "Analysts", Permissions: []string{"view_company"}})
	v, ok := e.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Group already exists", v.Fields["name"])

	_, err = ev.admin.CreateGroup(ctx, models.GroupInput{Name: "Bad", Permissions: []string{"launch_rocket"}})
	v, ok = e.AsValidation(err)
	require.True(t, ok)
	assert.True(t, v.Has("permissions"))

	updated, err := ev.admin.UpdateGroup(ctx, g.ID, models.GroupInput{Name: "Analysts", Permissions: []string{"change_company"}})
	require.NoError(t, err)
	got, err := ev.admin.GetGroup(ctx, updated.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"change_company"}, got.Input().Permissions)

	page, err := ev.admin.ListGroups(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	require.NoError(t, ev.admin.DeleteGroup(ctx, g.ID))
	assert.ErrorIs(t, ev.admin.DeleteGroup(ctx, g.ID), e.ErrNotFound)
	assert.Len(t, PermissionChoices(), 16)
}

func TestAdminPageSizeDefaultsToTen(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		ev.member(t, fmt.Sprintf("user%02d@example.com", i), true)
	}
	ev.requestContext(t, true)

	admin := NewAdminService(ev.repo, ev.producer, zaptest.NewLogger(t), 0)
	page, err := admin.ListUsers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Size)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 2, page.NumPages)
}
