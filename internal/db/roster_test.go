package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/kyefa/internal/db"
	"github.com/Spok95/kyefa/internal/models"
)

func openCache(t *testing.T) *db.Cache {
	t.Helper()
	c, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRoster_SaveLoad(t *testing.T) {
	ctx := context.Background()
	c := openCache(t)

	got, err := c.LoadRoster(ctx, "admin")
	require.NoError(t, err)
	assert.Nil(t, got)
	_, ok, err := c.SavedAt(ctx, "admin")
	require.NoError(t, err)
	assert.False(t, ok)

	other := "Kwame"
	list := []models.Student{
		{ID: uuid.New(), Name: models.PersonName{FirstName: "Esi", Surname: "Adjei"},
			Gender: models.Female, ClassLevel: models.IGCSE2, IsActive: true, FeeAmount: 500, PaymentStatus: models.Paid},
		{ID: uuid.New(), Name: models.PersonName{FirstName: "Kofi", Surname: "Owusu", OtherNames: &other},
			Gender: models.Male, ClassLevel: models.WASSCE1, FeeAmount: 450.5, PaymentStatus: models.NotPaid},
	}
	require.NoError(t, c.SaveRoster(ctx, "admin", list))

	got, err = c.LoadRoster(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, list, got)
	_, ok, err = c.SavedAt(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, ok)

	// снимок заменяется целиком
	require.NoError(t, c.SaveRoster(ctx, "admin", list[1:]))
	got, err = c.LoadRoster(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, list[1:], got)

	// у другого пользователя свой снимок
	got, err = c.LoadRoster(ctx, "esi")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := db.Open(ctx, path)
	require.NoError(t, err)
	st := models.Student{ID: uuid.New(), Name: models.PersonName{FirstName: "Ama", Surname: "Owusu"},
		Gender: models.Female, ClassLevel: models.ALevel1, IsActive: true, PaymentStatus: models.Exempt}
	require.NoError(t, c.SaveRoster(ctx, "admin", []models.Student{st}))
	require.NoError(t, c.Close())

	c, err = db.Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	require.NoError(t, c.PingContext(ctx))
	got, err := c.LoadRoster(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, []models.Student{st}, got)
}
