package borrowings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

func setupBorrowingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:borrowings_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Lab{}, &models.Item{}, &models.Borrowing{}))
	return db
}

func seedItemWithUser(t *testing.T, db *gorm.DB) (*models.Item, *models.User) {
	t.Helper()

	user := &models.User{
		Email:        "borrower_" + uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		FullName:     "Borrower",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)

	lab := &models.Lab{Name: "Optics Lab", OwnerID: user.ID}
	require.NoError(t, db.Create(lab).Error)

	item := &models.Item{LabID: lab.ID, Name: "Laser Diode Driver", Quantity: 1}
	require.NoError(t, db.Create(item).Error)
	return item, user
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupBorrowingsTestDB(t)
	repo := NewRepository(db)
	item, user := seedItemWithUser(t, db)

	bench := "bench-1"
	created, err := repo.Create(context.Background(), &models.Borrowing{
		ItemID:     item.ID,
		UserID:     user.ID,
		BorrowedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		BenchName:  &bench,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ItemID)
	assert.Nil(t, found.ReturnedAt)
	require.NotNil(t, found.BenchName)
	assert.Equal(t, "bench-1", *found.BenchName)
}

func TestRepositoryListByItemNewestFirst(t *testing.T) {
	db := setupBorrowingsTestDB(t)
	repo := NewRepository(db)
	item, user := seedItemWithUser(t, db)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		end := base.Add(time.Duration(i)*48*time.Hour + 24*time.Hour)
		_, err := repo.Create(context.Background(), &models.Borrowing{
			ItemID:     item.ID,
			UserID:     user.ID,
			BorrowedAt: base.Add(time.Duration(i) * 48 * time.Hour),
			ReturnedAt: &end,
		})
		require.NoError(t, err)
	}

	list, total, err := repo.ListByItem(context.Background(), item.ID, pagination.Params{Skip: 0, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 2)
	assert.True(t, list[0].BorrowedAt.After(list[1].BorrowedAt), "expected newest first")
}

func TestRepositoryListOpenByItem(t *testing.T) {
	db := setupBorrowingsTestDB(t)
	repo := NewRepository(db)
	item, user := seedItemWithUser(t, db)

	returned := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	_, err := repo.Create(context.Background(), &models.Borrowing{
		ItemID:     item.ID,
		UserID:     user.ID,
		BorrowedAt: returned.Add(-24 * time.Hour),
		ReturnedAt: &returned,
	})
	require.NoError(t, err)

	open, err := repo.Create(context.Background(), &models.Borrowing{
		ItemID:     item.ID,
		UserID:     user.ID,
		BorrowedAt: returned,
	})
	require.NoError(t, err)

	list, err := repo.ListOpenByItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, open.ID, list[0].ID)
}

func TestRepositoryUpdateClosesLoan(t *testing.T) {
	db := setupBorrowingsTestDB(t)
	repo := NewRepository(db)
	item, user := seedItemWithUser(t, db)

	created, err := repo.Create(context.Background(), &models.Borrowing{
		ItemID:     item.ID,
		UserID:     user.ID,
		BorrowedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	end := created.BorrowedAt.Add(6 * time.Hour)
	created.ReturnedAt = &end
	require.NoError(t, repo.Update(context.Background(), created))

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.ReturnedAt)
	assert.False(t, found.Open())

	list, err := repo.ListOpenByItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRepositoryDeleteMissing(t *testing.T) {
	db := setupBorrowingsTestDB(t)
	repo := NewRepository(db)

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
