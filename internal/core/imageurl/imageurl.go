// Package imageurl composes rendered-image URLs against the external
// image-render service. It never fetches or decodes image bytes itself;
// the service is an opaque collaborator and this package only builds
// query strings against it.
package imageurl

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/retailsync/catalog-sync/internal/core/product"
)

// Rendered is one composed image entry in the ad-catalog's image array
// shape: {url, tag: [string]}.
type Rendered struct {
	URL  string
	Tags []string
}

// variant describes one of the three fixed render slots.
type variant struct {
	aspectRatio string
	tags        []string
}

var variants = []variant{
	{aspectRatio: "1:1", tags: nil},
	{aspectRatio: "4:5", tags: []string{"ASPECT_RATIO_4_5_PREFERRED"}},
	{aspectRatio: "9:16", tags: []string{"STORY_PREFERRED", "REELS_PREFERRED"}},
}

// Composer builds render URLs against one configured base URL; the brand
// style is passed per call. It holds no state beyond configuration, so one Composer is safe
// to share across goroutines (mapper calls it concurrently from the feed
// generator's worker pool).
type Composer struct {
	BaseURL string
}

// NewComposer returns a Composer pointed at the given image-render base URL.
func NewComposer(baseURL string) Composer {
	return Composer{BaseURL: baseURL}
}

// Render composes the three rendered-image URLs for one source image.
// The slot order and tag sets are a wire contract with the ad catalog and
// must not be reordered. style is "standard" or "christmas";
// currencySuffix is appended to price/discount_price (e.g. "KM"); name is
// the product title.
func (c Composer) Render(originalImageURL string, price decimal.Decimal, salePrice *decimal.Decimal, name, style, currencySuffix string) []Rendered {
	out := make([]Rendered, 0, len(variants))
	for _, v := range variants {
		out = append(out, Rendered{
			URL:  c.url(originalImageURL, v.aspectRatio, price, salePrice, name, style, currencySuffix),
			Tags: v.tags,
		})
	}
	return out
}

func (c Composer) url(originalImageURL, aspectRatio string, price decimal.Decimal, salePrice *decimal.Decimal, name, style, currencySuffix string) string {
	q := url.Values{}
	q.Set("price", fmt.Sprintf("%s %s", price.StringFixed(2), currencySuffix))
	if salePrice != nil {
		q.Set("discount_price", fmt.Sprintf("%s %s", salePrice.StringFixed(2), currencySuffix))
	}
	q.Set("name", name)
	q.Set("img", base64.URLEncoding.EncodeToString([]byte(originalImageURL)))
	q.Set("style", style)
	q.Set("aspect_ratio", aspectRatio)

	return fmt.Sprintf("%s?%s", c.BaseURL, q.Encode())
}

// Style validates/normalizes a style tag, defaulting to "standard".
func Style(raw string) string {
	if raw == "christmas" {
		return "christmas"
	}
	return "standard"
}

// FirstImageURL returns the source URL of the first image on a product,
// falling back to the parent's first image when the product itself has
// none (used when a variation inherits its parent's gallery).
func FirstImageURL(p product.Product, parent *product.Product) (string, bool) {
	if len(p.Images) > 0 {
		return p.Images[0].Src, true
	}
	if parent != nil && len(parent.Images) > 0 {
		return parent.Images[0].Src, true
	}
	return "", false
}
