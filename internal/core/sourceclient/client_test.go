package sourceclient_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/sourceclient"
)

func TestFetchAllProducts_PaginatesUntilShortPage(t *testing.T) {
	var requestedPages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPages = append(requestedPages, r.URL.Query().Get("page"))
		page := r.URL.Query().Get("page")

		var rows []map[string]interface{}
		if page == "1" {
			for i := 0; i < 100; i++ {
				rows = append(rows, map[string]interface{}{"id": i + 1, "type": "simple"})
			}
		} else {
			rows = append(rows, map[string]interface{}{"id": 1000, "type": "simple"})
		}
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	c, err := sourceclient.New(sourceclient.Config{BaseURL: srv.URL, ConsumerKey: "k", ConsumerSecret: "s"})
	require.NoError(t, err)

	got, err := c.FetchAllProducts(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, got, 101)
	require.Equal(t, []string{"1", "2"}, requestedPages)
}

func TestFetchOne_NonOKBubblesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}))
	defer srv.Close()

	c, err := sourceclient.New(sourceclient.Config{BaseURL: srv.URL, ConsumerKey: "k", ConsumerSecret: "s"})
	require.NoError(t, err)

	_, err = c.FetchOne(t.Context(), 42)
	require.Error(t, err)

	var upstreamErr *sourceclient.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, http.StatusNotFound, upstreamErr.StatusCode)
}

func TestFetchVariations_SetsParentAndKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, fmt.Sprintf("/products/100/variations"), r.URL.Path)
		rows := []map[string]interface{}{{"id": 201}, {"id": 202}}
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	c, err := sourceclient.New(sourceclient.Config{BaseURL: srv.URL, ConsumerKey: "k", ConsumerSecret: "s"})
	require.NoError(t, err)

	got, err := c.FetchVariations(t.Context(), 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, v := range got {
		require.Equal(t, int64(100), v.ParentID)
		require.Equal(t, product.KindVariation, v.Kind)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := sourceclient.New(sourceclient.Config{BaseURL: "https://x"})
	require.Error(t, err)
}
