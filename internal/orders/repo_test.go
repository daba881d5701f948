package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  factory TEXT NOT NULL DEFAULT '',
  quantity INTEGER,
  unit TEXT NOT NULL DEFAULT '',
  delivery_date DATETIME,
  status TEXT NOT NULL DEFAULT 'waiting',
  is_urgent INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  user_id TEXT NOT NULL,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	return db
}

func seedOrder(t *testing.T, repo Repository, name string, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:        uuid.New(),
		Name:      name,
		Factory:   "Xưởng A",
		Status:    enums.OrderStatusWaiting,
		UserID:    uuid.New(),
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestRepositoryListOrdersByCreation(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	second := seedOrder(t, repo, "second", base.Add(time.Hour))
	first := seedOrder(t, repo, "first", base)

	listed, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)
}

func TestRepositoryUpdatesClearNullableColumns(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	delivery := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	order := seedOrder(t, repo, "with-date", time.Now().UTC())

	require.NoError(t, repo.Updates(context.Background(), order.ID, map[string]any{
		"delivery_date": delivery,
	}))
	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.DeliveryDate)

	require.NoError(t, repo.Updates(context.Background(), order.ID, map[string]any{
		"delivery_date": nil,
	}))
	loaded, err = repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.DeliveryDate)
}

func TestRepositoryDeleteReportsExistence(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	order := seedOrder(t, repo, "to-delete", time.Now().UTC())

	found, err := repo.Delete(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, found)

	// second delete is a clean no-op
	found, err = repo.Delete(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = repo.FindByID(context.Background(), order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
