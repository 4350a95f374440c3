package media_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/promobot/internal/media"
	"github.com/m3rciful/promobot/internal/storage/memory"
)

func TestAddValidatesInput(t *testing.T) {
	svc := media.NewService(memory.NewMediaStore())
	ctx := context.Background()

	tests := []struct {
		name  string
		url   string
		title string
	}{
		{name: "bad link", url: "not a link", title: "cat video"},
		{name: "wrong scheme", url: "ftp://example.com/cat.mp4", title: "cat video"},
		{name: "empty title", url: "https://example.com/cat.mp4", title: "   "},
		{name: "title too long", url: "https://example.com/cat.mp4", title: strings.Repeat("x", media.MaxTitleLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, 1, tt.url, tt.title)
			assert.Error(t, err)
		})
	}

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddStoresItem(t *testing.T) {
	svc := media.NewService(memory.NewMediaStore())
	ctx := context.Background()

	item, err := svc.Add(ctx, 7, "  https://example.com/cat.mp4  ", "  cat video  ")
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "https://example.com/cat.mp4", item.URL)
	assert.Equal(t, "cat video", item.Title)
	assert.Equal(t, int64(7), item.AddedBy)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLatestOrder(t *testing.T) {
	store := memory.NewMediaStore()
	svc := media.NewService(store)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, media.Item{ID: "b", URL: "https://example.com/b", Title: "b", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, store.Insert(ctx, media.Item{ID: "a", URL: "https://example.com/a", Title: "a", CreatedAt: base}))
	require.NoError(t, store.Insert(ctx, media.Item{ID: "c", URL: "https://example.com/c", Title: "c", CreatedAt: base.Add(2 * time.Minute)}))

	items, err := svc.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
}

func TestLatestDefaultLimit(t *testing.T) {
	svc := media.NewService(memory.NewMediaStore())
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.Add(ctx, 1, "https://example.com/v", "video")
		require.NoError(t, err)
	}

	items, err := svc.Latest(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestRandomFromPool(t *testing.T) {
	svc := media.NewService(memory.NewMediaStore())
	ctx := context.Background()

	_, err := svc.Random(ctx)
	assert.ErrorIs(t, err, media.ErrEmpty)

	a, err := svc.Add(ctx, 1, "https://example.com/a", "a")
	require.NoError(t, err)
	b, err := svc.Add(ctx, 1, "https://example.com/b", "b")
	require.NoError(t, err)

	got, err := svc.Random(ctx)
	require.NoError(t, err)
	assert.Contains(t, []string{a.ID, b.ID}, got.ID)
}

func TestRemove(t *testing.T) {
	svc := media.NewService(memory.NewMediaStore())
	ctx := context.Background()

	item, err := svc.Add(ctx, 1, "https://example.com/cat.mp4", "cat video")
	require.NoError(t, err)

	existed, err := svc.Remove(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = svc.Remove(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = svc.Remove(ctx, "  ")
	assert.Error(t, err)
}
