package sourceclient

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/retailsync/catalog-sync/internal/core/product"
)

// ParseProductPayload decodes a single product resource in the source
// store's wire shape. The event processor uses this to interpret a webhook
// body, which carries the same product representation as the REST API.
func ParseProductPayload(body []byte) (product.Product, error) {
	var raw rawProduct
	if err := json.Unmarshal(body, &raw); err != nil {
		return product.Product{}, fmt.Errorf("sourceclient: decode webhook payload: %w", err)
	}
	return raw.toProduct(), nil
}

// parseMoney parses a source-store price string, defaulting to zero for
// blank or malformed values rather than failing the whole fetch over one
// bad field.
func parseMoney(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// rawProduct is the wire shape returned by the source store's product
// endpoints. Only the fields the mapper and engine need are declared;
// everything else the source sends is silently ignored by
// encoding/json.
type rawProduct struct {
	ID            int64       `json:"id"`
	ParentID      int64       `json:"parent_id"`
	Type          string      `json:"type"`
	Name          string      `json:"name"`
	SKU           string      `json:"sku"`
	Permalink     string      `json:"permalink"`
	Price         string      `json:"price"`
	RegularPrice  string      `json:"regular_price"`
	SalePrice     string      `json:"sale_price"`
	StockStatus   string      `json:"stock_status"`
	StockQuantity *int        `json:"stock_quantity"`
	Description   string      `json:"description"`
	Images        []rawImage  `json:"images"`
	Attributes    []rawAttr   `json:"attributes"`
	Categories    []rawTerm   `json:"categories"`
	Variations    []int64     `json:"variations"`
}

type rawImage struct {
	Src string `json:"src"`
}

type rawAttr struct {
	Name    string   `json:"name"`
	Option  string   `json:"option"`
	Options []string `json:"options"`
}

type rawTerm struct {
	Name string `json:"name"`
}

func (r rawProduct) toProduct() product.Product {
	// Some source rows carry only the current "price" and leave
	// regular_price blank; the current price stands in for it then.
	regular := r.RegularPrice
	if regular == "" {
		regular = r.Price
	}

	p := product.Product{
		ID:            r.ID,
		ParentID:      r.ParentID,
		Kind:          kindFromType(r.Type, r.ParentID),
		Name:          r.Name,
		SKU:           r.SKU,
		Permalink:     r.Permalink,
		RegularPrice:  parseMoney(regular),
		StockStatus:   product.StockStatus(r.StockStatus),
		StockQuantity: r.StockQuantity,
		Description:   r.Description,
	}
	if r.SalePrice != "" {
		sp := parseMoney(r.SalePrice)
		p.SalePrice = &sp
	}
	for _, img := range r.Images {
		p.Images = append(p.Images, product.Image{Src: img.Src})
	}
	for _, a := range r.Attributes {
		p.Attributes = append(p.Attributes, product.Attribute{Name: a.Name, Option: a.Option, Options: a.Options})
	}
	for _, c := range r.Categories {
		p.Categories = append(p.Categories, c.Name)
	}
	p.VariationIDs = append(p.VariationIDs, r.Variations...)
	return p
}

func kindFromType(sourceType string, parentID int64) product.Kind {
	switch sourceType {
	case "variable":
		return product.KindVariable
	case "variation":
		return product.KindVariation
	default:
		if parentID > 0 {
			return product.KindVariation
		}
		return product.KindSimple
	}
}
