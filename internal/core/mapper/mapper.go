// Package mapper turns a source product (optionally with its variable
// parent, plus a CSV/image style tag) into the ad-catalog item shape and
// the CSV row shape. Both Map and Item.CSVRow are pure: the same
// input always produces byte-identical output, which is what lets the
// replication engine, the event processor, and the feed generator all
// share one implementation.
package mapper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/retailsync/catalog-sync/internal/core/imageurl"
	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/retailerid"
)

const descriptionMaxLen = 5000

// Config carries the handful of deployment constants the mapper needs:
// the configured brand string, the currency suffix appended to every
// price, and the image-render service base URL.
type Config struct {
	Brand          string
	CurrencySuffix string
	ImageBaseURL   string
}

// Item is the ad-catalog item shape, one field per catalog attribute
// plus the three rendered images.
type Item struct {
	ID                   string
	Title                string
	Description          string
	RichTextDescription  string
	Availability         string
	Condition            string
	Price                string
	SalePrice            string
	HasSalePrice         bool
	Link                 string
	Brand                string
	AgeGroup             string
	Color                string
	Gender               string
	Size                 string
	ItemGroupID          string
	ProductType          string
	Inventory            *int
	Images               []imageurl.Rendered
	ImageLink            string
}

// Map is the canonical entry point used by the replication engine, the
// event processor, and the feed generator.
func Map(p product.Product, parent *product.Product, style string, cfg Config) Item {
	return mapCommon(p, parent, style, cfg)
}

// CSVColumns is the fixed feed column order, a hard external contract:
// reordering it silently breaks downstream ingestion, so it is defined
// once, here, next to the Item it is derived from.
var CSVColumns = []string{
	"id", "title", "description", "rich_text_description", "availability",
	"condition", "price", "link", "image_link", "brand",
	"image[0].url", "image[0].tag[0]",
	"image[1].url", "image[1].tag[0]",
	"image[2].url", "image[2].tag[0]", "image[2].tag[1]",
	"age_group", "color", "gender", "item_group_id",
	"google_product_category", "product_type", "sale_price",
	"sale_price_effective_date", "size", "status", "inventory",
}

// CSVRow renders the item into the column order CSVColumns defines. Empty
// strings stand in for absent columns.
func (it Item) CSVRow() []string {
	img := func(i int) imageurl.Rendered {
		if i < len(it.Images) {
			return it.Images[i]
		}
		return imageurl.Rendered{}
	}
	tag := func(r imageurl.Rendered, i int) string {
		if i < len(r.Tags) {
			return r.Tags[i]
		}
		return ""
	}
	img0, img1, img2 := img(0), img(1), img(2)

	inventory := ""
	if it.Inventory != nil {
		inventory = strconv.Itoa(*it.Inventory)
	}

	return []string{
		it.ID,
		it.Title,
		it.Description,
		it.RichTextDescription,
		it.Availability,
		it.Condition,
		it.Price,
		it.Link,
		it.ImageLink,
		it.Brand,
		img0.URL, tag(img0, 0),
		img1.URL, tag(img1, 0),
		img2.URL, tag(img2, 0), tag(img2, 1),
		it.AgeGroup,
		it.Color,
		it.Gender,
		it.ItemGroupID,
		"", // google_product_category: not sourced from the source store
		it.ProductType,
		it.SalePrice,
		"", // sale_price_effective_date: no scheduling concept in the source store
		it.Size,
		"active", // status: feed-publish status, distinct from the availability column
		inventory,
	}
}

func mapCommon(p product.Product, parent *product.Product, style string, cfg Config) Item {
	style = imageurl.Style(style)

	titleSource := p
	if parent != nil {
		titleSource = *parent
	}

	rawDescription := titleSource.Description
	stripped := stripMarkup(rawDescription)

	item := Item{
		ID:                  retailerid.ForProduct(p),
		Title:               titleSource.Name,
		Description:         truncate(stripped, descriptionMaxLen),
		RichTextDescription: stripped,
		Availability:        retailerid.Availability(p.StockStatus),
		Condition:           "new",
		Brand:               cfg.Brand,
		Link:                effectiveLink(p, parent),
		ItemGroupID:         retailerid.GroupFor(p),
		ProductType:         productType(p, parent),
		Inventory:           p.Inventory(),
	}

	item.Price = formatMoney(p.RegularPrice, cfg.CurrencySuffix)
	if p.SalePrice != nil {
		item.SalePrice = formatMoney(*p.SalePrice, cfg.CurrencySuffix)
		item.HasSalePrice = true
	}

	attrs := mergedAttributes(p, parent)
	item.Color = attrs["color"]
	item.Size = attrs["size"]
	item.Gender = attrs["gender"]
	item.AgeGroup = attrs["age"]

	composer := imageurl.NewComposer(cfg.ImageBaseURL)
	if src, ok := imageurl.FirstImageURL(p, parent); ok {
		item.Images = composer.Render(src, p.RegularPrice, p.SalePrice, item.Title, style, cfg.CurrencySuffix)
		if len(item.Images) > 0 {
			item.ImageLink = item.Images[0].URL
		}
	}

	return item
}

func formatMoney(amount decimal.Decimal, currencySuffix string) string {
	return amount.StringFixed(2) + " " + currencySuffix
}

// effectiveLink prefers the row's own permalink, falling back to the
// parent's when the row (typically a variation) has none of its own.
func effectiveLink(p product.Product, parent *product.Product) string {
	if p.Permalink != "" {
		return p.Permalink
	}
	if parent != nil {
		return parent.Permalink
	}
	return ""
}

// productType joins category names with "/", using the parent's
// categories for a variation and the row's own otherwise.
func productType(p product.Product, parent *product.Product) string {
	cats := p.Categories
	if p.Kind == product.KindVariation && parent != nil {
		cats = parent.Categories
	}
	return strings.Join(cats, "/")
}

// mergedAttributes merges the parent's and the product's own attributes
// (product wins on key collision, since variation-level attributes are
// the more specific ones), then extracts the four recognized keys.
func mergedAttributes(p product.Product, parent *product.Product) map[string]string {
	byName := map[string]product.Attribute{}
	if parent != nil {
		for _, a := range parent.Attributes {
			byName[strings.ToLower(a.Name)] = a
		}
	}
	for _, a := range p.Attributes {
		byName[strings.ToLower(a.Name)] = a
	}

	out := map[string]string{}
	for _, key := range []string{"color", "size", "gender", "age"} {
		if a, ok := byName[key]; ok {
			out[key] = a.FirstOption()
		}
	}
	return out
}

var (
	blockCloseTags = regexp.MustCompile(`(?i)</(p|div|li|br|h[1-6])\s*/?>`)
	anyTag         = regexp.MustCompile(`<[^>]*>`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

var entities = map[string]string{
	"&nbsp;": " ",
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&#39;":  "'",
}

// stripMarkup removes HTML markup from a source description: block-close
// tags become newlines (preserving paragraph breaks as whitespace), all
// other tags are dropped, a small set of entities is decoded, and runs of
// whitespace collapse to a single space.
func stripMarkup(raw string) string {
	s := blockCloseTags.ReplaceAllString(raw, "\n")
	s = anyTag.ReplaceAllString(s, "")
	for entity, replacement := range entities {
		s = strings.ReplaceAll(s, entity, replacement)
	}
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
