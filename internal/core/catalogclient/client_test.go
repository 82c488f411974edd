package catalogclient_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailsync/catalog-sync/internal/core/catalogclient"
)

func TestEnumerate_FollowsPagingCursor(t *testing.T) {
	var authHeaders []string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		calls++
		if calls == 1 {
			require.Equal(t, "", r.URL.Query().Get("after"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data":   []map[string]interface{}{{"retailer_id": "wc_1", "availability": "in stock"}},
				"paging": map[string]interface{}{"next": "cat123/products?limit=1&after=cursor2"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data":   []map[string]interface{}{{"retailer_id": "wc_2", "availability": "out of stock"}},
			"paging": map[string]interface{}{},
		})
	}))
	defer srv.Close()

	c, err := catalogclient.New(catalogclient.Config{BaseURL: srv.URL, CatalogID: "cat123", Token: "tok"})
	require.NoError(t, err)

	got, err := c.Enumerate(t.Context(), catalogclient.DefaultFields, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "wc_1", got[0].RetailerID)
	require.Equal(t, "wc_2", got[1].RetailerID)
	for _, h := range authHeaders {
		require.Equal(t, "Bearer tok", h)
	}
}

func TestLookupByRetailerID_NotFoundReturnsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []map[string]interface{}{}})
	}))
	defer srv.Close()

	c, err := catalogclient.New(catalogclient.Config{BaseURL: srv.URL, CatalogID: "cat123", Token: "tok"})
	require.NoError(t, err)

	row, found, err := c.LookupByRetailerID(t.Context(), "wc_99")
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, catalogclient.RemoteRow{}, row)
}

func TestLookupByRetailerID_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Query().Get("filter"), "wc_42")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"retailer_id": "wc_42", "availability": "in stock"}},
		})
	}))
	defer srv.Close()

	c, err := catalogclient.New(catalogclient.Config{BaseURL: srv.URL, CatalogID: "cat123", Token: "tok"})
	require.NoError(t, err)

	row, found, err := c.LookupByRetailerID(t.Context(), "wc_42")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "wc_42", row.RetailerID)
}

func TestBatchUpsert_SetsItemTypeAndEchoesID(t *testing.T) {
	var received catalogclient.BatchEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"handles": []string{"h1"},
		})
	}))
	defer srv.Close()

	c, err := catalogclient.New(catalogclient.Config{BaseURL: srv.URL, CatalogID: "cat123", Token: "tok"})
	require.NoError(t, err)

	items := []catalogclient.BatchRequestItem{
		{Method: catalogclient.MethodUpdate, RetailerID: "wc_7", Data: catalogclient.ItemData{ID: "wc_7", Availability: "in stock"}},
	}
	resp, err := c.BatchUpsert(t.Context(), items)
	require.NoError(t, err)
	require.Equal(t, []string{"h1"}, resp.Handles)

	require.Equal(t, "PRODUCT_ITEM", received.ItemType)
	require.Len(t, received.Requests, 1)
	require.Equal(t, "wc_7", received.Requests[0].RetailerID)
	require.Equal(t, "wc_7", received.Requests[0].Data.ID)
}

func TestBatchUpsert_RejectsOversizedBatch(t *testing.T) {
	c, err := catalogclient.New(catalogclient.Config{BaseURL: "https://x", CatalogID: "cat123", Token: "tok"})
	require.NoError(t, err)

	items := make([]catalogclient.BatchRequestItem, 1001)
	_, err = c.BatchUpsert(t.Context(), items)
	require.Error(t, err)
}

func TestUpdateStock_BuildsSingleItemUpdate(t *testing.T) {
	var received catalogclient.BatchEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{})
	}))
	defer srv.Close()

	c, err := catalogclient.New(catalogclient.Config{BaseURL: srv.URL, CatalogID: "cat123", Token: "tok"})
	require.NoError(t, err)

	zero := 0
	_, err = c.UpdateStock(t.Context(), "wc_5", "out of stock", &zero)
	require.NoError(t, err)

	require.Len(t, received.Requests, 1)
	require.Equal(t, catalogclient.MethodUpdate, received.Requests[0].Method)
	require.Equal(t, "out of stock", received.Requests[0].Data.Availability)
	require.Equal(t, 0, *received.Requests[0].Data.Inventory)
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := catalogclient.New(catalogclient.Config{BaseURL: "https://x"})
	require.Error(t, err)
}

func TestPollHandle_ReadsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/h_abc123", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "finished", "progress": 100})
	}))
	defer srv.Close()

	c, err := catalogclient.New(catalogclient.Config{BaseURL: srv.URL, CatalogID: "cat123", Token: "tok"})
	require.NoError(t, err)

	st, err := c.PollHandle(t.Context(), "h_abc123")
	require.NoError(t, err)
	require.Equal(t, "finished", st.Status)
	require.Equal(t, 100, st.Progress)
}

func TestFetchMetadata_RequestsCatalogFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cat123", r.URL.Path)
		require.Equal(t, "id,name,product_count", r.URL.Query().Get("fields"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "cat123", "name": "Main Catalog", "product_count": 7})
	}))
	defer srv.Close()

	c, err := catalogclient.New(catalogclient.Config{BaseURL: srv.URL, CatalogID: "cat123", Token: "tok"})
	require.NoError(t, err)

	meta, err := c.FetchMetadata(t.Context())
	require.NoError(t, err)
	require.Equal(t, "Main Catalog", meta.Name)
	require.Equal(t, 7, meta.ProductCount)
}
