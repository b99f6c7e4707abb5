package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/pagination"
)

func TestUpdateProfile_KeepsRoleAndStatus(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	alice := v.register(t, "alice", "Password123")

	p, err := v.userSvc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{
		Username: "alice2",
		Email:    "alice2@example.com",
		Phone:    "+447400123456",
		Password: "Changed123",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice2", p.Username)
	assert.Equal(t, domain.RoleUser, p.Role)
	assert.Equal(t, domain.StatusActive, p.Status)
	stored, _ := v.users.GetByID(ctx, alice.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Changed123")))
}

func TestUpdateProfile_DuplicateEmail(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	alice := v.register(t, "alice", "Password123")
	v.register(t, "bob", "Password123")

	_, err := v.userSvc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{
		Username: "alice",
		Email:    "bob@example.com",
		Phone:    alice.Phone,
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestUploadProfilePicture(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	alice := v.register(t, "alice", "Password123")

	p, err := v.userSvc.UploadProfilePicture(ctx, alice.ID, PictureUpload{
		ContentType: "image/png",
		Size:        4,
		Data:        bytes.NewReader([]byte("\x89PNG")),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ProfilePictureURL, "http://vault.test/media/profile-pictures/"+alice.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(p.ProfilePictureURL, ".png"))
	first := p.ProfilePictureKey

	p, err = v.userSvc.UploadProfilePicture(ctx, alice.ID, PictureUpload{
		ContentType: "image/jpeg",
		Size:        3,
		Data:        bytes.NewReader([]byte("jpg")),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, p.ProfilePictureKey)
	_, _, err = v.storage.Open(first)
	assert.Error(t, err, "previous picture is removed")

	me, err := v.userSvc.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ProfilePictureURL, me.ProfilePictureURL)
	assert.Contains(t, v.audit.actions(), "profile picture updated: alice")
}

func TestUploadProfilePicture_Rejections(t *testing.T) {
	v := newVault(t)
	alice := v.register(t, "alice", "Password123")

	tests := []struct {
		name   string
		upload PictureUpload
	}{
		{"not an image", PictureUpload{ContentType: "application/pdf", Size: 10, Data: strings.NewReader("pdf")}},
		{"too large", PictureUpload{ContentType: "image/png", Size: MaxProfilePictureSize + 1, Data: strings.NewReader("x")}},
		{"empty", PictureUpload{ContentType: "image/png", Size: 0, Data: strings.NewReader("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.userSvc.UploadProfilePicture(context.Background(), alice.ID, tt.upload)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestAdminUsers_CreateListUpdateDelete(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	v.register(t, "alice", "Password123")

	admin, err := v.userSvc.CreateUser(ctx, "root", AdminUserInput{
		Username: "carol",
		Password: "Password123",
		Email:    "carol@example.com",
		Phone:    "+12015550177",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, admin.Status)
	assert.True(t, admin.IsAdmin())

	page, err := v.userSvc.ListUsers(ctx, pagination.Params{Page: 1, PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.HasNext)

	_, err = v.userSvc.UpdateUser(ctx, "root", admin.ID, AdminUserInput{
		Username: "carol", Email: "carol@example.com", Phone: "+12015550177", Role: "SUPERUSER",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = v.userSvc.UpdateUser(ctx, "root", admin.ID, AdminUserInput{
		Username: "carol", Email: "carol@example.com", Phone: "+12015550177", Status: domain.StatusFrozen,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "nothing transitions into FROZEN")

	require.NoError(t, v.userSvc.DeleteUser(ctx, "root", admin.ID))
	_, err = v.users.GetByID(ctx, admin.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, v.audit.actions(), "user deleted: carol")
}

func TestAdminUpdate_InactiveClearsFreeze(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	alice := v.register(t, "alice", "Password123")
	require.NoError(t, v.lifecycle.Freeze(ctx, alice.ID))

	u, err := v.userSvc.UpdateUser(ctx, "root", alice.ID, AdminUserInput{
		Username: alice.Username, Email: alice.Email, Phone: alice.Phone, Status: domain.StatusInactive,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, u.Status)
	assert.Nil(t, u.FrozenAt)

	_, err = v.auth.Login(ctx, LoginInput{Username: "alice", Password: "Password123"})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestAdminUpdate_OmittedRoleAndStatusAreKept(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()

	admin, err := v.userSvc.CreateUser(ctx, "root", AdminUserInput{
		Username: "carol",
		Password: "Password123",
		Email:    "carol@example.com",
		Phone:    "+12015550177",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)

	u, err := v.userSvc.UpdateUser(ctx, "root", admin.ID, AdminUserInput{
		Username: "carol", Email: "carol2@example.com", Phone: "+12015550177",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, domain.StatusActive, u.Status)
	assert.Equal(t, "carol2@example.com", u.Email)

	alice := v.register(t, "alice", "Password123")
	require.NoError(t, v.lifecycle.Freeze(ctx, alice.ID))
	frozen, err := v.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, frozen.FrozenAt)
	frozenAt := *frozen.FrozenAt

	u, err = v.userSvc.UpdateUser(ctx, "root", alice.ID, AdminUserInput{
		Username: "alice", Email: "alice2@example.com", Phone: alice.Phone,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, u.Status)
	assert.Equal(t, domain.RoleUser, u.Role)
	require.NotNil(t, u.FrozenAt, "freeze countdown survives an email-only edit")
	assert.True(t, frozenAt.Equal(*u.FrozenAt))

	stored, err := v.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, stored.Status)
	require.NotNil(t, stored.FrozenAt)
}
