package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iurnickita/abcretail/internal/model"
	"github.com/iurnickita/abcretail/internal/store/config"
)

// Тесты против живой базы, DSN из TEST_DATABASE_URI.
func newTestPostgresStore(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}
	store, err := NewStore(context.Background(), config.Config{Backend: config.BackendPostgres, DBDsn: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOrder(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureTable(ctx, model.OrdersTable))

	order := model.Order{
		OrderID:     "test-O1",
		CustomerID:  "C1",
		OrderDate:   model.NewDate(time.Now().UTC()),
		TotalAmount: decimal.RequireFromString("42.50"),
	}
	require.NoError(t, store.PutEntity(ctx, model.OrdersTable, order.Entity()))

	entity, err := store.GetEntity(ctx, model.OrdersTable, model.OrderPartition, "test-O1")
	require.NoError(t, err)
	require.Equal(t, "C1", entity.Properties["CustomerId"])
	require.Equal(t, "42.5", entity.Properties["TotalAmount"])

	// перезапись
	order.CustomerID = "C2"
	require.NoError(t, store.PutEntity(ctx, model.OrdersTable, order.Entity()))
	entity, err = store.GetEntity(ctx, model.OrdersTable, model.OrderPartition, "test-O1")
	require.NoError(t, err)
	require.Equal(t, "C2", entity.Properties["CustomerId"])

	_, err = store.GetEntity(ctx, model.OrdersTable, model.OrderPartition, "test-missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreTableNotFound(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	err := store.PutEntity(ctx, "NeverCreated", model.Entity{PartitionKey: "p", RowKey: "r"})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestNewStoreUnknownBackend(t *testing.T) {
	_, err := NewStore(context.Background(), config.Config{Backend: "cosmos"})
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestValidateTable(t *testing.T) {
	require.NoError(t, validateTable("Orders"))
	require.NoError(t, validateTable("CustomerProfiles"))
	require.ErrorIs(t, validateTable("Or"), ErrInvalidTableName)
	require.ErrorIs(t, validateTable("orders; DROP TABLE x"), ErrInvalidTableName)
	require.ErrorIs(t, validateTable("1orders"), ErrInvalidTableName)
}
