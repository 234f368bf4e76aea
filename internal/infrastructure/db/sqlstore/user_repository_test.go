package sqlstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidcar/user-service/internal/core/domain"
)

func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return NewUserRepository(db)
}

func newUser(email string) *domain.User {
	return &domain.User{
		Email:        email,
		FirstName:    "Jane",
		LastName:     "Doe",
		PasswordHash: "$2a$10$hash",
		Roles:        []string{domain.RoleUser},
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("a@b.com"))
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", byID.Email)
	assert.Equal(t, []string{domain.RoleUser}, byID.Roles)
	assert.Equal(t, "$2a$10$hash", byID.PasswordHash)

	byEmail, err := repo.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("a@b.com"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newUser("a@b.com"))
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestUserRepository_Create_IgnoresCallerID(t *testing.T) {
	repo := newTestRepo(t)

	u := newUser("a@b.com")
	u.ID = "chosen-by-caller"
	created, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.NotEqual(t, "chosen-by-caller", created.ID)
}

func TestUserRepository_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("a@b.com"))
	require.NoError(t, err)

	created.Email = "new@b.com"
	created.FirstName = "Janet"
	created.Roles = []string{domain.RoleUser, domain.RoleAdmin}
	created.PasswordHash = "$2a$10$other"
	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@b.com", got.Email)
	assert.Equal(t, "Janet", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.Equal(t, []string{domain.RoleUser, domain.RoleAdmin}, got.Roles)
	assert.Equal(t, "$2a$10$other", got.PasswordHash)
	assert.Equal(t, created.ID, got.ID)
}

func TestUserRepository_Update_Errors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	missing := newUser("ghost@b.com")
	missing.ID = "00000000-0000-0000-0000-000000000000"
	assert.ErrorIs(t, repo.Update(ctx, missing), domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.Update(ctx, newUser("noid@b.com")), domain.ErrUserNotFound)

	_, err := repo.Create(ctx, newUser("taken@b.com"))
	require.NoError(t, err)
	other, err := repo.Create(ctx, newUser("other@b.com"))
	require.NoError(t, err)

	other.Email = "taken@b.com"
	assert.ErrorIs(t, repo.Update(ctx, other), domain.ErrUserExists)
}

func TestUserRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("a@b.com"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), domain.ErrUserNotFound)
}

func TestUserRepository_FindPage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		u, err := repo.Create(ctx, newUser(fmt.Sprintf("u%d@b.com", i)))
		require.NoError(t, err)
		ids = append(ids, u.ID)
		time.Sleep(2 * time.Millisecond)
	}

	page1, total, err := repo.FindPage(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, ids[0], page1[0].ID)
	assert.Equal(t, ids[1], page1[1].ID)

	page3, _, err := repo.FindPage(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, ids[4], page3[0].ID)

	beyond, total, err := repo.FindPage(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
	assert.EqualValues(t, 5, total)
}

func TestUserRepository_FindPage_HugePage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, email := range []string{"a@b.com", "c@d.com"} {
		_, err := repo.Create(ctx, newUser(email))
		require.NoError(t, err)
	}

	users, total, err := repo.FindPage(ctx, (1<<62)+1, 10)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.EqualValues(t, 2, total)
}

func TestUserRepository_FindPage_EmptyTable(t *testing.T) {
	repo := newTestRepo(t)

	users, total, err := repo.FindPage(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Zero(t, total)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, zerolog.Nop())
	assert.Error(t, err)
}
