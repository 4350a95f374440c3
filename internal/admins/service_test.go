package admins_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/promobot/internal/admins"
	"github.com/m3rciful/promobot/internal/storage/memory"
)

func TestAddAndList(t *testing.T) {
	store := memory.NewAdminStore()
	svc := admins.NewService(store, admins.NewCache(store, 0, time.Hour))
	ctx := context.Background()

	added, err := svc.Add(ctx, 7, 1)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = svc.Add(ctx, 7, 1)
	require.NoError(t, err)
	assert.False(t, added, "re-adding an admin is a no-op")

	roster, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, int64(7), roster[0].UserID)
	assert.Equal(t, int64(1), roster[0].AddedBy)
}

func TestAddRejectsNonPositiveID(t *testing.T) {
	store := memory.NewAdminStore()
	svc := admins.NewService(store, admins.NewCache(store, 0, time.Hour))
	ctx := context.Background()

	_, err := svc.Add(ctx, 0, 1)
	assert.Error(t, err)
	_, err = svc.Add(ctx, -5, 1)
	assert.Error(t, err)
}

func TestWritesRefreshCacheImmediately(t *testing.T) {
	store := memory.NewAdminStore()
	cache := admins.NewCache(store, 0, time.Hour)
	svc := admins.NewService(store, cache)
	ctx := context.Background()

	ok, err := cache.IsAdmin(ctx, 7)
	require.NoError(t, err)
	require.False(t, ok)

	// The hour-long TTL must not delay visibility of a roster write.
	_, err = svc.Add(ctx, 7, 1)
	require.NoError(t, err)

	ok, err = cache.IsAdmin(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	existed, err := svc.Remove(ctx, 7)
	require.NoError(t, err)
	assert.True(t, existed)

	ok, err = cache.IsAdmin(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveMissing(t *testing.T) {
	store := memory.NewAdminStore()
	svc := admins.NewService(store, admins.NewCache(store, 0, time.Hour))

	existed, err := svc.Remove(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestReload(t *testing.T) {
	store := memory.NewAdminStore()
	cache := admins.NewCache(store, 0, time.Hour)
	svc := admins.NewService(store, cache)
	ctx := context.Background()

	_, err := cache.IsAdmin(ctx, 7)
	require.NoError(t, err)

	// A write that bypasses the service stays invisible until a reload.
	added, err := store.Add(ctx, 7, 1)
	require.NoError(t, err)
	require.True(t, added)

	ok, err := cache.IsAdmin(ctx, 7)
	require.NoError(t, err)
	require.False(t, ok)

	n, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err = cache.IsAdmin(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}
