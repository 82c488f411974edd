package mapper_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/retailsync/catalog-sync/internal/core/mapper"
	"github.com/retailsync/catalog-sync/internal/core/product"
)

func testConfig() mapper.Config {
	return mapper.Config{
		Brand:          "Acme",
		CurrencySuffix: "BAM",
		ImageBaseURL:   "https://images.example.com/render",
	}
}

func TestMap_SimpleProduct(t *testing.T) {
	qty := 7
	p := product.Product{
		ID:            42,
		Kind:          product.KindSimple,
		Name:          "Shirt",
		Permalink:     "https://x/shirt",
		RegularPrice:  decimal.RequireFromString("10.00"),
		StockStatus:   product.StockInStock,
		StockQuantity: &qty,
		Images:        []product.Image{{Src: "https://x/s.jpg"}},
	}

	item := mapper.Map(p, nil, "standard", testConfig())

	require.Equal(t, "wc_42", item.ID)
	require.Equal(t, "10.00 BAM", item.Price)
	require.Equal(t, "in stock", item.Availability)
	require.Len(t, item.Images, 3)
	require.Equal(t, []string{"ASPECT_RATIO_4_5_PREFERRED"}, item.Images[1].Tags)
	require.Equal(t, item.Images[0].URL, item.ImageLink)
	require.Equal(t, 7, *item.Inventory)
}

func TestMap_VariationInheritsParentLinkAndCategories(t *testing.T) {
	parent := product.Product{
		ID:         100,
		Kind:       product.KindVariable,
		Name:       "Hat",
		Permalink:  "https://x/hat",
		Categories: []string{"Accessories", "Hats"},
		Attributes: []product.Attribute{{Name: "Color", Options: []string{"Red"}}},
	}
	sale := decimal.RequireFromString("8.00")
	variation := product.Product{
		ID:           201,
		ParentID:     100,
		Kind:         product.KindVariation,
		RegularPrice: decimal.RequireFromString("9.00"),
		SalePrice:    &sale,
		StockStatus:  product.StockInStock,
		Attributes:   []product.Attribute{{Name: "Size", Option: "L"}},
	}

	item := mapper.Map(variation, &parent, "standard", testConfig())

	require.Equal(t, "wc_201", item.ID)
	require.Equal(t, "wc_100", item.ItemGroupID)
	require.Equal(t, "8.00 BAM", item.SalePrice)
	require.True(t, item.HasSalePrice)
	require.Equal(t, "https://x/hat", item.Link)
	require.Equal(t, "Accessories/Hats", item.ProductType)
	require.Equal(t, "Red", item.Color)
	require.Equal(t, "L", item.Size)
}

func TestMap_OutOfStockAlwaysZeroInventory(t *testing.T) {
	p := product.Product{
		ID:           1,
		Kind:         product.KindSimple,
		RegularPrice: decimal.RequireFromString("5.00"),
		StockStatus:  product.StockOutOfStock,
	}
	item := mapper.Map(p, nil, "standard", testConfig())
	require.NotNil(t, item.Inventory)
	require.Equal(t, 0, *item.Inventory)
	require.Equal(t, "out of stock", item.Availability)
}

func TestMap_DescriptionStripAndTruncate(t *testing.T) {
	raw := "<p>Hello&nbsp;World</p><p>" + strings.Repeat("x", 6000) + "</p>"
	p := product.Product{ID: 1, Kind: product.KindSimple, Description: raw, RegularPrice: decimal.Zero}

	item := mapper.Map(p, nil, "standard", testConfig())

	require.True(t, strings.HasPrefix(item.Description, "Hello World"))
	require.Len(t, item.Description, 5000)
	require.Greater(t, len(item.RichTextDescription), 5000)
}

func TestItem_CSVRow_ColumnCountAndOrder(t *testing.T) {
	qty := 3
	p := product.Product{
		ID:            7,
		Kind:          product.KindSimple,
		Name:          "Widget",
		RegularPrice:  decimal.RequireFromString("2.50"),
		StockStatus:   product.StockInStock,
		StockQuantity: &qty,
		Images:        []product.Image{{Src: "https://x/w.jpg"}},
	}
	item := mapper.Map(p, nil, "standard", testConfig())
	row := item.CSVRow()

	require.Len(t, row, len(mapper.CSVColumns))
	require.Equal(t, "wc_7", row[0])
	require.Equal(t, "3", row[len(row)-1])
	require.Equal(t, "ASPECT_RATIO_4_5_PREFERRED", row[13])
}

func TestMap_Deterministic(t *testing.T) {
	p := product.Product{
		ID:           55,
		Kind:         product.KindSimple,
		Name:         "Deterministic",
		RegularPrice: decimal.RequireFromString("1.23"),
		StockStatus:  product.StockInStock,
		Images:       []product.Image{{Src: "https://x/a.jpg"}},
	}
	cfg := testConfig()
	first := mapper.Map(p, nil, "christmas", cfg)
	second := mapper.Map(p, nil, "christmas", cfg)
	require.Equal(t, first, second)
}
