package feed_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/core/catalogclient"
	"github.com/retailsync/catalog-sync/internal/core/feed"
	"github.com/retailsync/catalog-sync/internal/core/mapper"
	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/replication"
	"github.com/retailsync/catalog-sync/internal/core/sourceclient"
)

func openTestStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEngine(t *testing.T, store *cache.Store) *replication.Engine {
	t.Helper()
	source, err := sourceclient.New(sourceclient.Config{BaseURL: "https://unused.example", ConsumerKey: "k", ConsumerSecret: "s"})
	require.NoError(t, err)
	catalog, err := catalogclient.New(catalogclient.Config{BaseURL: "https://unused.example", CatalogID: "cat", Token: "t"})
	require.NoError(t, err)
	return replication.New(source, catalog, store, replication.Config{
		Mapper: mapper.Config{Brand: "Acme", CurrencySuffix: "USD", ImageBaseURL: "https://img.example.com/render"},
	}, zerolog.Nop())
}

func TestFast_EmitsSimpleAndVariableWithInStockVariations(t *testing.T) {
	store := openTestStore(t)
	engine := testEngine(t, store)
	ctx := context.Background()

	simple := product.Product{ID: 1, Kind: product.KindSimple, Name: "Simple", StockStatus: product.StockInStock, RegularPrice: decimal.NewFromInt(10)}
	require.NoError(t, store.UpsertProducts(ctx, []product.Product{simple}))

	parent := product.Product{ID: 2, Kind: product.KindVariable, Name: "Parent", StockStatus: product.StockInStock, RegularPrice: decimal.Zero}
	require.NoError(t, store.UpsertProducts(ctx, []product.Product{parent}))

	inStockQty, oosQty := 3, 0
	v1 := product.Product{ID: 201, ParentID: 2, Kind: product.KindVariation, Name: "V1", StockStatus: product.StockInStock, StockQuantity: &inStockQty, RegularPrice: decimal.NewFromInt(12)}
	v2 := product.Product{ID: 202, ParentID: 2, Kind: product.KindVariation, Name: "V2", StockStatus: product.StockOutOfStock, StockQuantity: &oosQty, RegularPrice: decimal.NewFromInt(12)}
	require.NoError(t, store.UpsertVariations(ctx, []product.Product{v1, v2}))

	gen := feed.New(store, engine, mapper.Config{Brand: "Acme", CurrencySuffix: "USD", ImageBaseURL: "https://img.example.com/render"}, zerolog.Nop())

	rows, err := gen.Rows(ctx, "standard", false)
	require.NoError(t, err)
	require.Equal(t, mapper.CSVColumns, rows[0])

	var ids []string
	for _, r := range rows[1:] {
		ids = append(ids, r[0])
	}
	require.ElementsMatch(t, []string{"wc_1", "wc_2_main", "wc_201"}, ids, "out-of-stock variation 202 is excluded, its parent still appears")
}

func TestFast_SkipsVariableWithNoInStockVariations(t *testing.T) {
	store := openTestStore(t)
	engine := testEngine(t, store)
	ctx := context.Background()

	parent := product.Product{ID: 5, Kind: product.KindVariable, Name: "AllOut", StockStatus: product.StockInStock, RegularPrice: decimal.Zero}
	require.NoError(t, store.UpsertProducts(ctx, []product.Product{parent}))
	qty := 0
	v := product.Product{ID: 501, ParentID: 5, Kind: product.KindVariation, Name: "V", StockStatus: product.StockOutOfStock, StockQuantity: &qty, RegularPrice: decimal.NewFromInt(1)}
	require.NoError(t, store.UpsertVariations(ctx, []product.Product{v}))

	gen := feed.New(store, engine, mapper.Config{Brand: "Acme", CurrencySuffix: "USD", ImageBaseURL: "https://img.example.com/render"}, zerolog.Nop())
	rows, err := gen.Rows(ctx, "standard", false)
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only: no in-stock products at all")
}

func TestWriteCSV_QuotesEveryField(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, feed.WriteCSV(&buf, [][]string{{"a", `b"c`, ""}}))
	require.Equal(t, "\"a\",\"b\"\"c\",\"\"\r\n", buf.String())
}

// TestFast_MatchesGoldenFile pins the full CSV output byte-for-byte: the
// column order is a hard external contract, and a silent reorder or
// re-quote breaks downstream ingestion without failing any unit assertion.
func TestFast_MatchesGoldenFile(t *testing.T) {
	store := openTestStore(t)
	engine := testEngine(t, store)
	ctx := context.Background()

	qty := 7
	simple := product.Product{
		ID:            42,
		Kind:          product.KindSimple,
		Name:          "Shirt",
		Permalink:     "https://x/shirt",
		RegularPrice:  decimal.RequireFromString("10.00"),
		StockStatus:   product.StockInStock,
		StockQuantity: &qty,
		Description:   "<p>Soft &amp; light</p>",
		Images:        []product.Image{{Src: "https://x/s.jpg"}},
		Attributes:    []product.Attribute{{Name: "Color", Option: "Blue"}},
		Categories:    []string{"Apparel", "Tops"},
	}
	require.NoError(t, store.UpsertProducts(ctx, []product.Product{simple}))

	parent := product.Product{
		ID:           100,
		Kind:         product.KindVariable,
		Name:         "Hat",
		Permalink:    "https://x/hat",
		RegularPrice: decimal.Zero,
		StockStatus:  product.StockInStock,
		Images:       []product.Image{{Src: "https://x/h.jpg"}},
		Attributes:   []product.Attribute{{Name: "Size", Options: []string{"S", "M"}}},
		Categories:   []string{"Accessories"},
	}
	require.NoError(t, store.UpsertProducts(ctx, []product.Product{parent}))

	vqty := 3
	sale := decimal.RequireFromString("8.00")
	variation := product.Product{
		ID:            201,
		ParentID:      100,
		Kind:          product.KindVariation,
		RegularPrice:  decimal.RequireFromString("9.00"),
		SalePrice:     &sale,
		StockStatus:   product.StockInStock,
		StockQuantity: &vqty,
		Attributes:    []product.Attribute{{Name: "Size", Option: "M"}},
	}
	require.NoError(t, store.UpsertVariations(ctx, []product.Product{variation}))

	gen := feed.New(store, engine, mapper.Config{Brand: "Acme", CurrencySuffix: "USD", ImageBaseURL: "https://img.example.com/render"}, zerolog.Nop())
	rows, err := gen.Rows(ctx, "standard", false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, feed.WriteCSV(&buf, rows))

	golden, err := os.ReadFile(filepath.Join("testdata", "standard.golden.csv"))
	require.NoError(t, err)
	require.Equal(t, string(golden), buf.String())
}
