package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/models"
	"github.com/comphility/backend/internal/repository"
)

func newUserAdminFixture(t *testing.T) (*UserAdminService, *AuthService) {
	t.Helper()
	repo := repository.NewGormUserRepository(newTestDB(t))
	return NewUserAdminService(repo), NewAuthService(repo, testSecret, time.Hour, nil)
}

func seedUser(t *testing.T, auth *AuthService, name, email string) *models.User {
	t.Helper()
	res, err := auth.Register(context.Background(), RegisterInput{
		Name: name, Email: email, Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return res.User
}

func TestUserAdminListFilters(t *testing.T) {
	admin, auth := newUserAdminFixture(t)
	ctx := context.Background()

	ana := seedUser(t, auth, "Ana", "ana@x.com")
	seedUser(t, auth, "Bob", "bob@x.com")
	_, err := admin.Update(ctx, ana.ID, "Ana", "ana@x.com", models.RoleAdmin)
	require.NoError(t, err)

	page, err := admin.List(ctx, "", "", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)

	page, err = admin.List(ctx, "", models.RoleAdmin, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	require.Equal(t, "Ana", page.Items[0].Name)

	page, err = admin.List(ctx, "bob", "", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	require.Equal(t, "bob@x.com", page.Items[0].Email)
}

func TestUserAdminUpdateRole(t *testing.T) {
	admin, auth := newUserAdminFixture(t)
	ctx := context.Background()

	ana := seedUser(t, auth, "Ana", "ana@x.com")

	updated, err := admin.Update(ctx, ana.ID, "Ana", "ana@x.com", models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, updated.Role)

	_, err = admin.Update(ctx, ana.ID, "Ana", "ana@x.com", "superuser")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUserAdminUpdateEmailConflict(t *testing.T) {
	admin, auth := newUserAdminFixture(t)
	ctx := context.Background()

	seedUser(t, auth, "Ana", "ana@x.com")
	bob := seedUser(t, auth, "Bob", "bob@x.com")

	_, err := admin.Update(ctx, bob.ID, "Bob", "ana@x.com", models.RoleCustomer)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUserAdminGetAndDelete(t *testing.T) {
	admin, auth := newUserAdminFixture(t)
	ctx := context.Background()

	ana := seedUser(t, auth, "Ana", "ana@x.com")

	got, err := admin.Get(ctx, ana.ID)
	require.NoError(t, err)
	require.Equal(t, "ana@x.com", got.Email)

	require.NoError(t, admin.Delete(ctx, ana.ID))

	_, err = admin.Get(ctx, ana.ID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.Equal(t, apperr.KindNotFound, apperr.KindOf(admin.Delete(ctx, ana.ID)))
}
