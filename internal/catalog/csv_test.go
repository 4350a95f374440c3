package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/promobot/internal/catalog"
	"github.com/m3rciful/promobot/internal/storage/memory"
)

func TestImportCSV(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	data := strings.Join([]string{
		"code,doc_url,affiliate_url",
		"summer25,https://example.com/summer.pdf,https://shop.example.com/summer",
		"winter25,https://example.com/winter.pdf,",
		"x,https://example.com/short.pdf,",
		"SPRING25,not-a-link,",
	}, "\n")

	rep, err := svc.ImportCSV(ctx, 42, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Imported)
	assert.Equal(t, 2, rep.Skipped)
	assert.Len(t, rep.Problems, 2)

	got, err := svc.Lookup(ctx, "SUMMER25")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.AddedBy)
	assert.Equal(t, "https://shop.example.com/summer", got.AffiliateURL)

	// The affiliate column may be empty on import.
	got, err = svc.Lookup(ctx, "WINTER25")
	require.NoError(t, err)
	assert.Empty(t, got.AffiliateURL)
}

func TestImportCSVHeaderRequired(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	tests := []struct {
		name string
		data string
	}{
		{name: "empty file", data: ""},
		{name: "wrong columns", data: "promo,link,ref\nSUMMER25,https://example.com/doc.pdf,"},
		{name: "data without header", data: "SUMMER25,https://example.com/doc.pdf,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportCSV(ctx, 1, strings.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestImportCSVHeaderCaseInsensitive(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	data := "Code, Doc_URL, Affiliate_URL\nsummer25,https://example.com/doc.pdf,\n"
	rep, err := svc.ImportCSV(ctx, 1, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Imported)
}

func TestImportCSVShortRowContinues(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	data := strings.Join([]string{
		"code,doc_url,affiliate_url",
		"summer25,https://example.com/doc.pdf",
		"winter25,https://example.com/winter.pdf,",
	}, "\n")

	rep, err := svc.ImportCSV(ctx, 1, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Imported)
	assert.Equal(t, 1, rep.Skipped)

	_, err = svc.Lookup(ctx, "WINTER25")
	assert.NoError(t, err)
}

func TestImportCSVReplacesExisting(t *testing.T) {
	store := memory.NewCatalogStore()
	svc := catalog.NewService(store, 10)
	ctx := context.Background()

	_, _, err := svc.Add(ctx, 1, "SUMMER25", "https://example.com/v1.pdf", "https://shop.example.com")
	require.NoError(t, err)

	data := "code,doc_url,affiliate_url\nsummer25,https://example.com/v2.pdf,\n"
	rep, err := svc.ImportCSV(ctx, 2, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Imported)

	got, err := svc.Lookup(ctx, "SUMMER25")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v2.pdf", got.DocURL)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportCSVProblemListCapped(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	var sb strings.Builder
	sb.WriteString("code,doc_url,affiliate_url\n")
	for i := 0; i < 15; i++ {
		sb.WriteString("x,https://example.com/doc.pdf,\n")
	}

	rep, err := svc.ImportCSV(ctx, 1, strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, 15, rep.Skipped)
	assert.Len(t, rep.Problems, 10)
}
