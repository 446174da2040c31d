package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"trading-journal/apperr"
	"trading-journal/config"
	"trading-journal/database"
	"trading-journal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DBConfig{Driver: config.DriverSQLite, DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func reminders(db *gorm.DB) *Scoped[models.Reminder, *models.Reminder] {
	return &Scoped[models.Reminder, *models.Reminder]{DB: db, Order: "id asc"}
}

func TestCreateForcesOwnerAndID(t *testing.T) {
	repo := reminders(newTestDB(t))
	ctx := context.Background()

	fixed := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	r := &models.Reminder{Text: "wait for the retest"}
	r.ID = fixed
	r.OwnerID = 2

	require.NoError(t, repo.Create(ctx, 1, r))
	assert.NotEqual(t, fixed, r.ID)
	assert.Equal(t, uint(1), r.OwnerID)

	got, err := repo.Get(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "wait for the retest", got.Text)
	assert.Equal(t, uint(1), got.OwnerID)
}

func TestListIsScopedAndInsertionOrdered(t *testing.T) {
	repo := reminders(newTestDB(t))
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, 1, &models.Reminder{Text: text}))
	}
	require.NoError(t, repo.Create(ctx, 2, &models.Reminder{Text: "someone else"}))

	mine, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "one", mine[0].Text)
	assert.Equal(t, "three", mine[2].Text)

	empty, err := repo.List(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestForeignRecordsLookMissing(t *testing.T) {
	repo := reminders(newTestDB(t))
	ctx := context.Background()

	r := &models.Reminder{Text: "mine"}
	require.NoError(t, repo.Create(ctx, 1, r))

	_, err := repo.Get(ctx, 2, r.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = repo.Update(ctx, 2, r.ID, func(m *models.Reminder) error {
		m.Text = "hijacked"
		return nil
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, 2, r.ID), apperr.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 1, models.NewID()), apperr.ErrNotFound)

	got, err := repo.Get(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Text)
}

func TestUpdateKeepsIdentity(t *testing.T) {
	repo := reminders(newTestDB(t))
	ctx := context.Background()

	r := &models.Reminder{Text: "before"}
	require.NoError(t, repo.Create(ctx, 1, r))

	updated, err := repo.Update(ctx, 1, r.ID, func(m *models.Reminder) error {
		m.Text = "after"
		m.OwnerID = 2
		m.ID = models.NewID()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, r.ID, updated.ID)
	assert.Equal(t, uint(1), updated.OwnerID)
	assert.Equal(t, "after", updated.Text)

	_, err = repo.Get(ctx, 2, r.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateApplyErrorRollsBack(t *testing.T) {
	repo := reminders(newTestDB(t))
	ctx := context.Background()

	r := &models.Reminder{Text: "keep"}
	require.NoError(t, repo.Create(ctx, 1, r))

	_, err := repo.Update(ctx, 1, r.ID, func(m *models.Reminder) error {
		m.Text = "discard"
		return apperr.Invalid("text", "nope")
	})
	_, isValidation := apperr.AsValidation(err)
	assert.True(t, isValidation)

	got, err := repo.Get(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Text)
}

func TestBeforeHooks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var deleted []uuid.UUID
	repo := &Scoped[models.MarketBias, *models.MarketBias]{
		DB: db,
		BeforeSave: func(tx *gorm.DB, item *models.MarketBias, prior *models.MarketBias) error {
			return EnsureUnique(tx, &models.MarketBias{}, item.OwnerID, item.ID, "instrument", item.Instrument, "instrument")
		},
		BeforeDelete: func(tx *gorm.DB, item *models.MarketBias) error {
			deleted = append(deleted, item.ID)
			return nil
		},
	}

	first := &models.MarketBias{Instrument: "DAX", Bias: models.BiasBullish}
	require.NoError(t, repo.Create(ctx, 1, first))

	err := repo.Create(ctx, 1, &models.MarketBias{Instrument: "DAX", Bias: models.BiasBearish})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "instrument")

	require.NoError(t, repo.Create(ctx, 2, &models.MarketBias{Instrument: "DAX", Bias: models.BiasBearish}))

	_, err = repo.Update(ctx, 1, first.ID, func(b *models.MarketBias) error {
		b.Bias = models.BiasRange
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, 1, first.ID))
	assert.Equal(t, []uuid.UUID{first.ID}, deleted)
}

func TestTranslateDuplicate(t *testing.T) {
	err := TranslateDuplicate(gorm.ErrDuplicatedKey, "date")
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "date")

	assert.Equal(t, gorm.ErrInvalidData, TranslateDuplicate(gorm.ErrInvalidData, "date"))
}
