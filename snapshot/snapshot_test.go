package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kariqs/artcorner-api/apiclient"
	"github.com/Kariqs/artcorner-api/snapshot"
	"github.com/Kariqs/artcorner-api/stock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder(sessionID string, quantity int) snapshot.PendingOrder {
	return snapshot.PendingOrder{
		UserID: "u1",
		Items: []apiclient.CartItem{{
			ID:       "1",
			Product:  &apiclient.Product{ID: "a", Name: "Night Garden", Price: 120.5, Quantity: 3},
			Quantity: quantity,
			ItemType: stock.ItemProduct,
		}},
		TotalAmount:    120.5 * float64(quantity),
		PaymentMethod:  "online",
		DeliveryMethod: "delivery",
		FullName:       "Ada Lovelace",
		City:           "London",
		SessionID:      sessionID,
		CreatedAt:      time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

func runRepositoryContract(t *testing.T, repo snapshot.Repository) {
	ctx := context.Background()

	_, err := repo.Load(ctx, "u1")
	require.ErrorIs(t, err, snapshot.ErrNotFound)
	require.NoError(t, repo.Clear(ctx, "u1"), "clearing nothing succeeds")

	first := pendingOrder("", 1)
	require.NoError(t, repo.Save(ctx, "u1", first))
	loaded, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	second := pendingOrder("cs_2", 2)
	require.NoError(t, repo.Save(ctx, "u1", second))
	loaded, err = repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second, loaded, "a new checkout overwrites the stale snapshot")

	require.NoError(t, repo.Save(ctx, "u2", first))

	require.NoError(t, repo.Clear(ctx, "u1"))
	_, err = repo.Load(ctx, "u1")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)

	loaded, err = repo.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, first, loaded, "keys are independent")
}

func TestFileRepository(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkout")
	repo, err := snapshot.NewFileRepository(dir)
	require.NoError(t, err)

	runRepositoryContract(t, repo)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "one file per key and no temporary files left")
	assert.Equal(t, "pending-u2.json", entries[0].Name())
}

func TestFileRepositoryEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	repo, err := snapshot.NewFileRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), "../outside", pendingOrder("", 1)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pending-..%2Foutside.json", entries[0].Name())
}

func TestFileRepositoryHonoursContext(t *testing.T) {
	repo, err := snapshot.NewFileRepository(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, repo.Save(ctx, "u1", pendingOrder("", 1)), context.Canceled)
}

func TestRedisRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	runRepositoryContract(t, snapshot.NewRedisRepository(client, time.Hour))

	assert.True(t, mr.Exists("checkout:pending:u2"))
	assert.False(t, mr.Exists("checkout:pending:u1"))
}

func TestRedisRepositoryExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := snapshot.NewRedisRepository(client, 0)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "u1", pendingOrder("cs_1", 1)))
	assert.Equal(t, snapshot.DefaultTTL, mr.TTL("checkout:pending:u1"))

	mr.FastForward(snapshot.DefaultTTL + time.Minute)
	_, err := repo.Load(ctx, "u1")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}
