// Package retailerid is the single source of truth for the ids that tie a
// source-store product or variation to its ad-catalog counterpart. Both the
// replication engine and the event processor call into this package so a
// variation reached via either code path hashes to the same ad-catalog row.
package retailerid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/retailsync/catalog-sync/internal/core/product"
)

// ForProduct computes the stable external id for a source row:
//
//	simple product  -> wc_<id>
//	variable parent -> wc_<id>_main
//	variation       -> wc_<id>
func ForProduct(p product.Product) string {
	switch p.Kind {
	case product.KindVariable:
		return fmt.Sprintf("wc_%d_main", p.ID)
	default:
		return fmt.Sprintf("wc_%d", p.ID)
	}
}

// GroupFor computes the item-group-id used to tie sibling variations
// together in the ad catalog:
//
//	variation      -> wc_<parent-id>
//	variable parent -> wc_<id>   (deliberately not "_main"-suffixed)
//	simple          -> "" (no grouping)
func GroupFor(p product.Product) string {
	switch p.Kind {
	case product.KindVariation:
		return fmt.Sprintf("wc_%d", p.ParentID)
	case product.KindVariable:
		return fmt.Sprintf("wc_%d", p.ID)
	default:
		return ""
	}
}

// Availability maps a source stock-status to the ad catalog's tri-state
// availability vocabulary: in-stock to "in stock", on-backorder to
// "preorder", and every other status (out-of-stock or unrecognized) to
// "out of stock". Only the status is consulted, not the quantity: a row
// whose status is in-stock but whose stock-quantity is 0 maps to
// "in stock", and product.Product.Inventory() reports 0 for it.
func Availability(status product.StockStatus) string {
	switch status {
	case product.StockInStock:
		return "in stock"
	case product.StockBackorder:
		return "preorder"
	default:
		return "out of stock"
	}
}

// ParseProductID recovers the numeric source id from a retailer-id
// produced by ForProduct, stripping the "wc_" prefix and an optional
// "_main" suffix. Returns 0 for anything that doesn't match the shape
// (callers use this for bookkeeping, not for authoritative lookups).
func ParseProductID(retailerID string) int64 {
	s := strings.TrimPrefix(retailerID, "wc_")
	s = strings.TrimSuffix(s, "_main")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
