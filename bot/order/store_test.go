package order

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
)

func sampleOrder(i int) contractx.ConfirmedOrder {
	items := []contractx.MenuItem{
		{ID: 1, Name: "Bolo de Cenoura com Chocolate", Price: 2500},
		{ID: 2, Name: "Bolo de Chocolate Caseiro", Price: 2800},
	}
	return contractx.ConfirmedOrder{
		ID:         fmt.Sprintf("PD%d", 1700000000000+i),
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, i, 0, time.UTC),
		CustomerID: "5511999990000@s.whatsapp.net",
		Items:      items,
		Total:      5300,
		Status:     contractx.OrderConfirmed,
	}
}

func TestFileStoreAppendKeepsOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "pedidos.json"))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, sampleOrder(i)))
	}

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, o := range list {
		assert.Equal(t, sampleOrder(i), o)
	}
}

func TestFileStoreConcurrentAppends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "pedidos.json"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, sampleOrder(i)))
		}(i)
	}
	wg.Wait()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestFileStoreCorruptFileIsNotOverwritten(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pedidos.json")
	require.NoError(t, os.WriteFile(path, []byte("[{broken"), 0o644))

	err := NewFileStore(path).Append(context.Background(), sampleOrder(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, contractx.ErrStorageWriteFailed)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[{broken", string(raw))
}

func TestFileStoreRejectsInvalidOrders(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "pedidos.json"))

	noItems := sampleOrder(1)
	noItems.Items = nil
	noItems.Total = 0

	badTotal := sampleOrder(2)
	badTotal.Total = 100

	noCustomer := sampleOrder(3)
	noCustomer.CustomerID = ""

	for _, o := range []contractx.ConfirmedOrder{noItems, badTotal, noCustomer} {
		err := store.Append(context.Background(), o)
		if !errors.Is(err, contractx.ErrStorageWriteFailed) {
			t.Fatalf("Append(%s) error = %v, want ErrStorageWriteFailed", o.ID, err)
		}
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "pedidos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, sampleOrder(i)))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, o := range list {
		assert.Equal(t, sampleOrder(i), o)
	}

	err = store.Append(ctx, sampleOrder(0))
	assert.ErrorIs(t, err, contractx.ErrStorageWriteFailed, "duplicate id must fail")
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("ORDER_STORE_TEST_DSN")
	if dsn == "" {
		t.Skip("ORDER_STORE_TEST_DSN not set")
	}

	ctx := context.Background()
	store, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	o := sampleOrder(int(time.Now().UnixNano() % 1_000_000))
	require.NoError(t, store.Append(ctx, o))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, o.ID, list[len(list)-1].ID)
}

func TestOpenSelectsDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Config{Driver: "file", Path: filepath.Join(dir, "a.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, Config{Driver: "SQLite", Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: "postgres"})
	assert.ErrorIs(t, err, contractx.ErrValidation)

	_, err = Open(ctx, Config{Driver: "mongo"})
	assert.ErrorIs(t, err, contractx.ErrValidation)
}

func TestIDGeneratorIsStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	fixed := time.UnixMilli(1700000000000)
	gen := NewIDGenerator(func() time.Time { return fixed })

	if got := gen.Next(); got != "PD1700000000000" {
		t.Fatalf("Next() = %q, want PD1700000000000", got)
	}
	if got := gen.Next(); got != "PD1700000000001" {
		t.Fatalf("Next() = %q, want PD1700000000001", got)
	}

	fixed = fixed.Add(-time.Second)
	if got := gen.Next(); got != "PD1700000000002" {
		t.Fatalf("Next() after clock step back = %q, want PD1700000000002", got)
	}
}
