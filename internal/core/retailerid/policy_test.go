package retailerid_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/retailerid"
)

func TestForProduct(t *testing.T) {
	cases := []struct {
		name string
		p    product.Product
		want string
	}{
		{"simple", product.Product{ID: 42, Kind: product.KindSimple}, "wc_42"},
		{"variable parent", product.Product{ID: 100, Kind: product.KindVariable}, "wc_100_main"},
		{"variation", product.Product{ID: 201, ParentID: 100, Kind: product.KindVariation}, "wc_201"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, retailerid.ForProduct(tc.p))
		})
	}
}

func TestGroupFor(t *testing.T) {
	cases := []struct {
		name string
		p    product.Product
		want string
	}{
		{"simple has no group", product.Product{ID: 42, Kind: product.KindSimple}, ""},
		{"variable groups under its own id", product.Product{ID: 100, Kind: product.KindVariable}, "wc_100"},
		{"variation groups under parent", product.Product{ID: 201, ParentID: 100, Kind: product.KindVariation}, "wc_100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, retailerid.GroupFor(tc.p))
		})
	}
}

// TestVariationIDStableAcrossPaths regenerates ids for a large sample of
// variations the way both the bulk and event code paths would. Both
// "paths" are just two call sites into the same pure function; the test
// exists to pin that no call site ever grows its own copy of the
// formatting rule.
func TestVariationIDStableAcrossPaths(t *testing.T) {
	for id := int64(1); id < 2000; id += 7 {
		for parent := int64(1); parent < 50; parent += 11 {
			v := product.Product{ID: id, ParentID: parent, Kind: product.KindVariation}

			bulkPathID := retailerid.ForProduct(v)
			eventPathID := retailerid.ForProduct(v) // simulated second call site

			require.Equal(t, bulkPathID, eventPathID)
			require.Equal(t, fmt.Sprintf("wc_%d", id), bulkPathID)
			require.Equal(t, fmt.Sprintf("wc_%d", parent), retailerid.GroupFor(v))
		}
	}
}

func TestAvailability(t *testing.T) {
	require.Equal(t, "in stock", retailerid.Availability(product.StockInStock))
	require.Equal(t, "preorder", retailerid.Availability(product.StockBackorder))
	require.Equal(t, "out of stock", retailerid.Availability(product.StockOutOfStock))
	require.Equal(t, "out of stock", retailerid.Availability("unknown-status"))
}
