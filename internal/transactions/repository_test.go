package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/glowdesk/glowdesk-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTransactionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	transactionsTable := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  booking_id TEXT,
  customer_id TEXT,
  staff_name TEXT,
  method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'completed',
  sort_index INTEGER NOT NULL DEFAULT 1,
  subtotal NUMERIC NOT NULL,
  tax NUMERIC NOT NULL DEFAULT 0,
  tip NUMERIC NOT NULL DEFAULT 0,
  total_paid NUMERIC NOT NULL,
  service_names TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	itemsTable := `
CREATE TABLE IF NOT EXISTS transaction_items (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL,
  service_id TEXT,
  service_name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  staff_name TEXT,
  staff_tip_split NUMERIC NOT NULL DEFAULT 0,
  staff_tip_collected INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(transactionsTable).Error)
	require.NoError(t, db.Exec(itemsTable).Error)
	return db
}

func createTxn(t *testing.T, db *gorm.DB, id string, bookingID *string, sortIndex int, created time.Time) {
	t.Helper()

	record := models.Transaction{
		ID:        id,
		BookingID: bookingID,
		Method:    "card",
		Status:    "completed",
		SortIndex: sortIndex,
		Subtotal:  dec("100"),
		Tax:       dec("12"),
		Tip:       dec("18"),
		TotalPaid: dec("130"),
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Omit("Items").Create(&record).Error)
}

func TestRepositoryCreateAndFindPreloadsItems(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateBatch(ctx, []models.Transaction{
		{ID: "find-1", Method: "card", Status: "completed", SortIndex: 1, Subtotal: dec("80"), TotalPaid: dec("80")},
		{ID: "find-1-2", Method: "cash", Status: "completed", SortIndex: 2, Subtotal: dec("20"), TotalPaid: dec("20")},
	}))
	require.NoError(t, repo.CreateItemBatch(ctx, []models.TransactionItem{
		{ID: "find-item-1", TransactionID: "find-1", ServiceName: "Haircut", Price: dec("100")},
	}))

	record, err := repo.FindByID(ctx, "find-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "card", record.Method)
	require.Len(t, record.Items, 1)
	assert.Equal(t, "Haircut", record.Items[0].ServiceName)
	assert.True(t, record.Items[0].Price.Equal(dec("100")))

	missing, err := repo.FindByID(ctx, "find-nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryListFiltersAndOrdersSiblings(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	bookingA := "list-bk-a"
	bookingB := "list-bk-b"
	now := time.Now().UTC().Truncate(time.Second)

	createTxn(t, db, "list-2", &bookingA, 2, now)
	createTxn(t, db, "list-1", &bookingA, 1, now)
	createTxn(t, db, "list-old", &bookingA, 1, now.Add(-time.Hour))
	createTxn(t, db, "list-other", &bookingB, 1, now)

	records, err := repo.List(ctx, ListFilter{BookingID: bookingA})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "list-1", records[0].ID)
	assert.Equal(t, "list-2", records[1].ID)
	assert.Equal(t, "list-old", records[2].ID)

	limited, err := repo.List(ctx, ListFilter{BookingID: bookingA, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "list-1", limited[0].ID)
}

func TestRepositoryDeleteRemovesRecordAndItems(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	createTxn(t, db, "del-1", nil, 1, time.Now().UTC())
	require.NoError(t, repo.CreateItemBatch(ctx, []models.TransactionItem{
		{ID: "del-item-1", TransactionID: "del-1", ServiceName: "Color", Price: dec("60")},
		{ID: "del-item-2", TransactionID: "del-1", ServiceName: "Blowout", Price: dec("40")},
	}))

	require.NoError(t, repo.DeleteItemsByTransactionID(ctx, "del-1"))
	require.NoError(t, repo.DeleteByID(ctx, "del-1"))

	record, err := repo.FindByID(ctx, "del-1")
	require.NoError(t, err)
	assert.Nil(t, record)

	var itemCount int64
	require.NoError(t, db.Model(&models.TransactionItem{}).Where("transaction_id = ?", "del-1").Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}
