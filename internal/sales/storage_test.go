package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func sampleSale(owner string, date time.Time, status Status) *Sale {
	s := &Sale{
		SaleDate:      date,
		OwnerID:       owner,
		Items:         []SaleItem{lineItem(1, "Widget", "9.99", 2), lineItem(2, "Gadget", "5.50", 1)},
		Status:        status,
		PaymentMethod: PaymentCash,
	}
	if err := s.Finalize(); err != nil {
		panic(err)
	}
	return s
}

// storageContract runs the same behaviour checks against every Storage.
func storageContract(t *testing.T, newStorage func(t *testing.T) Storage) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("insert assigns identity and timestamps", func(t *testing.T) {
		st := newStorage(t)
		sale := sampleSale("S1", base, StatusCompleted)
		require.NoError(t, st.Insert(ctx, sale))

		_, err := uuid.Parse(sale.ID)
		assert.NoError(t, err)
		assert.False(t, sale.CreatedAt.IsZero())
		assert.False(t, sale.UpdatedAt.IsZero())

		got, err := st.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "S1", got.OwnerID)
		assert.Equal(t, "25.48", got.TotalAmount.String())
		require.Len(t, got.Items, 2)
		assert.Equal(t, "Widget", got.Items[0].Name)
		assert.Equal(t, "9.99", got.Items[0].PriceAtSale.String())
		assert.Equal(t, 2, got.Items[0].Quantity)
		assert.Equal(t, "Gadget", got.Items[1].Name)
		assert.True(t, got.SaleDate.Equal(base))
	})

	t.Run("find by id missing", func(t *testing.T) {
		st := newStorage(t)
		_, err := st.FindByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find filters and sorts newest first", func(t *testing.T) {
		st := newStorage(t)
		require.NoError(t, st.Insert(ctx, sampleSale("S1", base, StatusCompleted)))
		require.NoError(t, st.Insert(ctx, sampleSale("S1", base.Add(2*time.Hour), StatusCancelled)))
		require.NoError(t, st.Insert(ctx, sampleSale("S1", base.Add(time.Hour), StatusCompleted)))
		require.NoError(t, st.Insert(ctx, sampleSale("S2", base.Add(3*time.Hour), StatusCompleted)))

		all, err := st.Find(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "S2", all[0].OwnerID)

		mine, err := st.Find(ctx, Filter{OwnerID: "S1"})
		require.NoError(t, err)
		require.Len(t, mine, 3)
		assert.True(t, mine[0].SaleDate.Equal(base.Add(2*time.Hour)))
		assert.True(t, mine[1].SaleDate.Equal(base.Add(time.Hour)))
		assert.True(t, mine[2].SaleDate.Equal(base))

		completed, err := st.Find(ctx, Filter{OwnerID: "S1", Status: StatusCompleted})
		require.NoError(t, err)
		assert.Len(t, completed, 2)
	})

	t.Run("update replaces items and keeps created_at", func(t *testing.T) {
		st := newStorage(t)
		sale := sampleSale("S1", base, StatusCompleted)
		require.NoError(t, st.Insert(ctx, sale))
		created := sale.CreatedAt

		sale.Items = []SaleItem{lineItem(3, "Part", "1.01", 3)}
		sale.Status = StatusCancelled
		require.NoError(t, sale.Finalize())
		require.NoError(t, st.Update(ctx, sale))

		got, err := st.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "Part", got.Items[0].Name)
		assert.Equal(t, "3.03", got.TotalAmount.String())
		assert.Equal(t, StatusCancelled, got.Status)
		assert.WithinDuration(t, created, got.CreatedAt, time.Second)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	})

	t.Run("update missing", func(t *testing.T) {
		st := newStorage(t)
		sale := sampleSale("S1", base, StatusCompleted)
		sale.ID = uuid.NewString()
		assert.ErrorIs(t, st.Update(ctx, sale), ErrNotFound)

		sale.ID = ""
		assert.ErrorIs(t, st.Update(ctx, sale), ErrEmptyID)
	})
}

func TestLocalStorage(t *testing.T) {
	storageContract(t, func(t *testing.T) Storage { return NewLocalStorage() })
}

func TestGormStorage(t *testing.T) {
	storageContract(t, func(t *testing.T) Storage { return NewGormStorage(newSQLiteDB(t)) })
}

func TestLocalStorage_ReturnsCopies(t *testing.T) {
	st := NewLocalStorage()
	sale := sampleSale("S1", time.Now(), StatusCompleted)
	require.NoError(t, st.Insert(context.Background(), sale))

	got, err := st.FindByID(context.Background(), sale.ID)
	require.NoError(t, err)
	got.Items[0].Name = "Mutated"
	got.OwnerID = "S9"

	again, err := st.FindByID(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", again.Items[0].Name)
	assert.Equal(t, "S1", again.OwnerID)
}
