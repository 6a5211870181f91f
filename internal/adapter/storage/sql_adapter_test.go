package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

func newSQLiteAdapter(t *testing.T) *SQLAdapter {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	adapter := NewSQLAdapter(db)
	require.NoError(t, adapter.Migrate(context.Background()))
	return adapter
}

func TestSQLAdapter_ImportAndLoadCatalog(t *testing.T) {
	adapter := newSQLiteAdapter(t)
	ctx := context.Background()

	items := []domain.CatalogItem{
		{Key: "coffee", Name: "Coffee", Description: "Hot coffee", Price: 2.5, Stock: 3},
		{Key: "apple", Name: "Apple", Description: "Fresh red apple", Price: 1.1, Stock: 5},
	}
	require.NoError(t, adapter.ImportCatalog(ctx, items))

	got, err := adapter.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, got)

	// a second import replaces the first
	require.NoError(t, adapter.ImportCatalog(ctx, items[1:]))
	got, err = adapter.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, items[1:], got)
}

func TestSQLAdapter_CheckpointRoundTrip(t *testing.T) {
	adapter := newSQLiteAdapter(t)
	ctx := context.Background()

	saved := time.Date(2026, 7, 4, 9, 15, 0, 123, time.UTC)
	require.NoError(t, adapter.SaveCheckpoint(ctx, domain.Checkpoint{
		SessionID: "till-1",
		Revision:  "rev-1",
		Cart:      map[string]int{"apple": 2, "kiwi": 1},
		Stock:     map[string]int{"apple": 3, "kiwi": 4},
		SavedAt:   saved,
	}))
	require.NoError(t, adapter.SaveCheckpoint(ctx, domain.Checkpoint{
		SessionID: "till-1",
		Revision:  "rev-2",
		Cart:      map[string]int{"kiwi": 1},
		Stock:     map[string]int{"apple": 5, "kiwi": 4},
		SavedAt:   saved.Add(time.Second),
	}))
	require.NoError(t, adapter.SaveCheckpoint(ctx, domain.Checkpoint{
		SessionID: "till-2",
		Revision:  "other",
		Cart:      map[string]int{"apple": 9},
	}))

	cp, err := adapter.LoadCheckpoint(ctx, "till-1")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "rev-2", cp.Revision)
	assert.Equal(t, map[string]int{"kiwi": 1}, cp.Cart)
	assert.Equal(t, map[string]int{"apple": 5, "kiwi": 4}, cp.Stock)
	assert.True(t, cp.SavedAt.Equal(saved.Add(time.Second)))
}

func TestSQLAdapter_LoadCheckpointMissing(t *testing.T) {
	adapter := newSQLiteAdapter(t)

	cp, err := adapter.LoadCheckpoint(context.Background(), "nobody")

	assert.NoError(t, err)
	assert.Nil(t, cp)
}

func TestSQLAdapter_SaveCheckpointRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("deadlock")
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM checkpoints").WithArgs("till-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cart_lines").WithArgs("till-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM stock_levels").WithArgs("till-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO checkpoints").WillReturnError(boom)
	mock.ExpectRollback()

	err = NewSQLAdapter(db).SaveCheckpoint(context.Background(), domain.Checkpoint{
		SessionID: "till-1",
		Revision:  "rev-1",
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAdapter_SaveCheckpointCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	saved := time.Unix(1700000000, 0).UTC()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM checkpoints").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM cart_lines").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM stock_levels").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO checkpoints").
		WithArgs("till-1", "rev-1", saved.UnixNano()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO cart_lines").
		WithArgs("till-1", "apple", 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO stock_levels").
		WithArgs("till-1", "apple", 3).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = NewSQLAdapter(db).SaveCheckpoint(context.Background(), domain.Checkpoint{
		SessionID: "till-1",
		Revision:  "rev-1",
		Cart:      map[string]int{"apple": 2},
		Stock:     map[string]int{"apple": 3},
		SavedAt:   saved,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAdapter_BeginFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err = NewSQLAdapter(db).SaveCheckpoint(context.Background(), domain.Checkpoint{SessionID: "till-1"})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAdapter_LoadCheckpointQueryFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT revision, saved_at FROM checkpoints").
		WithArgs("till-1").
		WillReturnError(errors.New("connection reset"))

	cp, err := NewSQLAdapter(db).LoadCheckpoint(context.Background(), "till-1")

	assert.Error(t, err)
	assert.Nil(t, cp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAdapter_LoadCatalogScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"sku", "name", "description", "price", "stock"}).
		AddRow("apple", "Apple", "Fresh", "not-a-price", 5)
	mock.ExpectQuery("SELECT sku, name, description, price, stock").WillReturnRows(rows)

	_, err = NewSQLAdapter(db).LoadCatalog(context.Background())

	assert.Error(t, err)
}

func TestSQLAdapter_MigrateFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS catalog_items").WillReturnError(errors.New("access denied"))

	assert.Error(t, NewSQLAdapter(db).Migrate(context.Background()))
}
