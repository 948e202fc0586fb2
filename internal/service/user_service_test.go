package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/apperror"
	"reviewhub/internal/dto"
	"reviewhub/internal/models"
)

func seedUser(t *testing.T, users *fakeUserRepo, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     models.RoleUser,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestAdminCreateUserWithRole(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	created, err := svc.Create(context.Background(), dto.AdminCreateUserRequest{
		Username: "mod",
		Email:    "mod@example.com",
		Role:     "moderator",
	})
	require.NoError(t, err)
	assert.Equal(t, "moderator", created.Role)
}

func TestAdminCreateUserRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.Create(context.Background(), dto.AdminCreateUserRequest{
		Username: "weird",
		Email:    "weird@example.com",
		Role:     "overlord",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAdminUpdateCanChangeRole(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users)
	seedUser(t, users, "reader")

	role := "moderator"
	updated, err := svc.UpdateByUsername(context.Background(), "reader", dto.UpdateUserRequest{
		Role: &role,
	})
	require.NoError(t, err)
	assert.Equal(t, "moderator", updated.Role)
}

func TestSelfUpdateIgnoresRole(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users)
	user := seedUser(t, users, "reader")

	role := "admin"
	bio := "just a reader"
	updated, err := svc.UpdateSelf(context.Background(), user.ID, dto.UpdateUserRequest{
		Role: &role,
		Bio:  &bio,
	})
	require.NoError(t, err)
	// the bio lands, the promotion does not
	assert.Equal(t, "just a reader", updated.Bio)
	assert.Equal(t, "user", updated.Role)
}

func TestAdminUpdateCanRenameUser(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users)
	seedUser(t, users, "reader")

	name := "bookworm"
	updated, err := svc.UpdateByUsername(context.Background(), "reader", dto.UpdateUserRequest{
		Username: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, "bookworm", updated.Username)

	_, err = svc.GetByUsername(context.Background(), "reader")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSelfUpdateCanRename(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users)
	user := seedUser(t, users, "reader")

	name := "bookworm"
	updated, err := svc.UpdateSelf(context.Background(), user.ID, dto.UpdateUserRequest{
		Username: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, "bookworm", updated.Username)

	bad := "me"
	_, err = svc.UpdateSelf(context.Background(), user.ID, dto.UpdateUserRequest{
		Username: &bad,
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSelfUpdateValidatesEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users)
	user := seedUser(t, users, "reader")

	bad := "nope"
	_, err := svc.UpdateSelf(context.Background(), user.ID, dto.UpdateUserRequest{
		Email: &bad,
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGetUnknownUser(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.GetSelf(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users)
	seedUser(t, users, "reader")

	require.NoError(t, svc.DeleteByUsername(context.Background(), "reader"))
	assert.ErrorIs(t, svc.DeleteByUsername(context.Background(), "reader"), apperror.ErrNotFound)
}
