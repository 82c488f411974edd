// Package product defines the shared in-memory shape of a source-store
// product or variation, independent of how it was fetched (bulk read,
// webhook payload) or where it will go next (cache row, ad-catalog item,
// CSV row).
package product

import "github.com/shopspring/decimal"

// Kind tags which of the three product shapes a row represents. There is
// no inherited base type: each kind carries only the fields that make
// sense for it, matched explicitly by callers.
type Kind string

const (
	KindSimple    Kind = "simple"
	KindVariable  Kind = "variable"
	KindVariation Kind = "variation"
)

// StockStatus mirrors the source store's tri-state stock field.
type StockStatus string

const (
	StockInStock    StockStatus = "instock"
	StockOutOfStock StockStatus = "outofstock"
	StockBackorder  StockStatus = "onbackorder"
)

// Attribute is a named set of option values, e.g. {Name: "Color", Options: ["Red","Blue"]}.
type Attribute struct {
	Name    string   `json:"name"`
	Option  string   `json:"option,omitempty"`
	Options []string `json:"options,omitempty"`
}

// FirstOption returns Option if set, else the first entry of Options, else "".
func (a Attribute) FirstOption() string {
	if a.Option != "" {
		return a.Option
	}
	if len(a.Options) > 0 {
		return a.Options[0]
	}
	return ""
}

// Image is one ordered source image.
type Image struct {
	Src string `json:"src"`
}

// Product is a source-store row: a simple product, a variable parent, or
// a variation. ParentID is 0 for top-level rows.
type Product struct {
	ID              int64
	ParentID        int64
	Kind            Kind
	Name            string
	SKU             string
	Permalink       string
	RegularPrice    decimal.Decimal
	SalePrice       *decimal.Decimal
	StockStatus     StockStatus
	StockQuantity   *int
	Description     string
	Images          []Image
	Attributes      []Attribute
	Categories      []string
	VariationIDs    []int64
}

// InStock reports whether the row belongs to the replicable in-stock
// subset. Backorders count: they map to "preorder" downstream.
func (p Product) InStock() bool {
	return p.StockStatus == StockInStock || p.StockStatus == StockBackorder
}

// Inventory returns the stock-quantity to report: 0 when out of stock,
// otherwise StockQuantity (nil when the source never reported one).
func (p Product) Inventory() *int {
	if p.StockStatus == StockOutOfStock {
		zero := 0
		return &zero
	}
	return p.StockQuantity
}
