package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/promobot/internal/catalog"
	"github.com/m3rciful/promobot/internal/storage/memory"
)

func newService(t *testing.T, pageSize int) *catalog.Service {
	t.Helper()
	return catalog.NewService(memory.NewCatalogStore(), pageSize)
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: "SUMMER25", want: "SUMMER25"},
		{name: "lowercased and padded", raw: "  promo-1  ", want: "PROMO-1"},
		{name: "underscore", raw: "black_friday", want: "BLACK_FRIDAY"},
		{name: "too short", raw: "a", wantErr: true},
		{name: "too long", raw: "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456", wantErr: true},
		{name: "inner space", raw: "SUMMER 25", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "unicode", raw: "ЛЕТО25", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.NormalizeCode(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "https", raw: "https://example.com/doc.pdf", want: "https://example.com/doc.pdf"},
		{name: "http with padding", raw: "  http://example.com  ", want: "http://example.com"},
		{name: "no scheme", raw: "example.com/doc.pdf", wantErr: true},
		{name: "wrong scheme", raw: "ftp://example.com/doc.pdf", wantErr: true},
		{name: "missing host", raw: "https://", wantErr: true},
		{name: "free text", raw: "see the attached file", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.ValidateURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddAndLookup(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	e, created, err := svc.Add(ctx, 99, " summer25 ", "https://example.com/doc.pdf", "https://shop.example.com/buy")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "SUMMER25", e.Code)
	assert.Equal(t, int64(99), e.AddedBy)

	got, err := svc.Lookup(ctx, "summer25")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/doc.pdf", got.DocURL)
	assert.Equal(t, "https://shop.example.com/buy", got.AffiliateURL)
}

func TestAddReplacesExisting(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	_, created, err := svc.Add(ctx, 1, "PROMO-1", "https://example.com/v1.pdf", "https://shop.example.com/a")
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = svc.Add(ctx, 2, "promo-1", "https://example.com/v2.pdf", "https://shop.example.com/b")
	require.NoError(t, err)
	assert.False(t, created)

	got, err := svc.Lookup(ctx, "PROMO-1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v2.pdf", got.DocURL)
	assert.Equal(t, "https://shop.example.com/b", got.AffiliateURL)
}

func TestAddRejectsBadInput(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	tests := []struct {
		name string
		code string
		doc  string
		aff  string
	}{
		{name: "bad code", code: "x", doc: "https://example.com/doc.pdf", aff: "https://shop.example.com"},
		{name: "bad doc link", code: "PROMO-1", doc: "not a link", aff: "https://shop.example.com"},
		{name: "missing affiliate", code: "PROMO-1", doc: "https://example.com/doc.pdf", aff: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Add(ctx, 1, tt.code, tt.doc, tt.aff)
			assert.Error(t, err)
		})
	}

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLookupMiss(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "NOSUCH")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	// Free chat text is a miss, not a validation error.
	_, err = svc.Lookup(ctx, "when does the sale start?")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRemove(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	_, _, err := svc.Add(ctx, 1, "PROMO-1", "https://example.com/doc.pdf", "https://shop.example.com")
	require.NoError(t, err)

	existed, err := svc.Remove(ctx, "promo-1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = svc.Remove(ctx, "promo-1")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = svc.Remove(ctx, "!!!")
	assert.Error(t, err)
}

func TestPage(t *testing.T) {
	svc := newService(t, 3)
	ctx := context.Background()

	codes := []string{"CODE-1", "CODE-2", "CODE-3", "CODE-4", "CODE-5", "CODE-6", "CODE-7"}
	for _, code := range codes {
		_, _, err := svc.Add(ctx, 1, code, "https://example.com/"+code, "https://shop.example.com/"+code)
		require.NoError(t, err)
	}

	page1, total, err := svc.Page(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, page1, 3)
	assert.Equal(t, "CODE-1", page1[0].Code)
	assert.Equal(t, "CODE-3", page1[2].Code)

	page3, total, err := svc.Page(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, page3, 1)
	assert.Equal(t, "CODE-7", page3[0].Code)

	past, total, err := svc.Page(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Empty(t, past)

	first, _, err := svc.Page(ctx, 0)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "CODE-1", first[0].Code)
}
