package events_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/core/catalogclient"
	"github.com/retailsync/catalog-sync/internal/core/events"
	"github.com/retailsync/catalog-sync/internal/core/mapper"
	"github.com/retailsync/catalog-sync/internal/core/replication"
	"github.com/retailsync/catalog-sync/internal/core/sourceclient"
)

const (
	testSecret   = "shared-secret"
	testHostname = "source.example.com"
	testCatID    = "cat123"
)

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newTestProcessor(t *testing.T, submitted *[][]catalogclient.BatchRequestItem) (*events.Processor, *cache.Store) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/"+testCatID+"/products", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []catalogclient.RemoteRow{}, "paging": map[string]string{}})
	})
	mux.HandleFunc("/"+testCatID+"/items_batch", func(w http.ResponseWriter, r *http.Request) {
		var envelope catalogclient.BatchEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		*submitted = append(*submitted, envelope.Requests)
		handles := make([]string, len(envelope.Requests))
		for i := range envelope.Requests {
			handles[i] = "handle-" + envelope.Requests[i].RetailerID
		}
		_ = json.NewEncoder(w).Encode(catalogclient.BatchResponse{Handles: handles})
	})
	catalogSrv := httptest.NewServer(mux)
	t.Cleanup(catalogSrv.Close)

	source, err := sourceclient.New(sourceclient.Config{BaseURL: "https://unused.example", ConsumerKey: "k", ConsumerSecret: "s"})
	require.NoError(t, err)
	catalog, err := catalogclient.New(catalogclient.Config{BaseURL: catalogSrv.URL, CatalogID: testCatID, Token: "t"})
	require.NoError(t, err)

	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := replication.New(source, catalog, store, replication.Config{
		Mapper: mapper.Config{Brand: "Acme", CurrencySuffix: "USD", ImageBaseURL: "https://img.example.com/render"},
	}, zerolog.Nop())

	cfg := events.Config{Secret: testSecret, SourceHostname: testHostname}
	return events.New(store, source, catalog, engine, cfg, zerolog.Nop()), store
}

func TestValidate_MissingTopicRejects400(t *testing.T) {
	p, _ := newTestProcessor(t, &[][]catalogclient.BatchRequestItem{})
	body := []byte(`{"id":1}`)
	err := p.Validate(events.Headers{SourceURL: "https://" + testHostname}, body)
	require.NotNil(t, err)
	require.Equal(t, 400, err.Status)
}

func TestValidate_HostnameMismatchRejects403(t *testing.T) {
	p, _ := newTestProcessor(t, &[][]catalogclient.BatchRequestItem{})
	body := []byte(`{"id":1}`)
	err := p.Validate(events.Headers{Topic: "product.updated", SourceURL: "https://evil.example"}, body)
	require.NotNil(t, err)
	require.Equal(t, 403, err.Status)
}

func TestValidate_BadSignatureRejects401(t *testing.T) {
	p, _ := newTestProcessor(t, &[][]catalogclient.BatchRequestItem{})
	body := []byte(`{"id":1}`)
	h := events.Headers{Topic: "product.updated", SourceURL: "https://" + testHostname, Signature: "bm90LXRoZS1yaWdodC1zaWc="}
	err := p.Validate(h, body)
	require.NotNil(t, err)
	require.Equal(t, 401, err.Status)
}

func TestValidate_InvalidJSONRejects400(t *testing.T) {
	p, _ := newTestProcessor(t, &[][]catalogclient.BatchRequestItem{})
	body := []byte(`not json`)
	h := events.Headers{Topic: "product.updated", SourceURL: "https://" + testHostname, Signature: sign(body)}
	err := p.Validate(h, body)
	require.NotNil(t, err)
	require.Equal(t, 400, err.Status)
}

func TestValidate_AcceptsWellFormedDelivery(t *testing.T) {
	p, _ := newTestProcessor(t, &[][]catalogclient.BatchRequestItem{})
	body := []byte(`{"id":1,"type":"simple","stock_status":"instock","regular_price":"9.99"}`)
	h := events.Headers{Topic: "product.created", SourceURL: "https://" + testHostname, Signature: sign(body)}
	require.Nil(t, p.Validate(h, body))
}

func TestReceiveAndDispatch_CreatedInStockSimpleSubmitsBatch(t *testing.T) {
	var submitted [][]catalogclient.BatchRequestItem
	p, store := newTestProcessor(t, &submitted)

	body := []byte(`{"id":55,"type":"simple","name":"Widget","stock_status":"instock","stock_quantity":4,"regular_price":"19.99"}`)
	h := events.Headers{Topic: "product.created", DeliveryID: "d1", SourceURL: "https://" + testHostname, Signature: sign(body)}
	require.Nil(t, p.Validate(h, body))

	id, err := p.Receive(t.Context(), h, body)
	require.NoError(t, err)
	require.Positive(t, id)

	ev, ok, err := store.GetEvent(t.Context(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, ev.Processed)
	require.Equal(t, "created", ev.Action)
	require.Equal(t, "instock", ev.NewStockStatus)

	require.NoError(t, p.Dispatch(t.Context(), id))

	ev, ok, err = store.GetEvent(t.Context(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, ev.Processed)

	require.Len(t, submitted, 1)
	require.Equal(t, "wc_55", submitted[0][0].RetailerID)

	cached, found, err := store.GetProduct(t.Context(), 55)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Widget", cached.Name)
}

func TestReceiveAndDispatch_UpdatedStockUnchangedIsNoopButProcessed(t *testing.T) {
	var submitted [][]catalogclient.BatchRequestItem
	p, store := newTestProcessor(t, &submitted)

	body := []byte(`{"id":56,"type":"simple","name":"Gadget","stock_status":"instock","stock_quantity":2,"regular_price":"5.00"}`)
	h := events.Headers{Topic: "product.created", SourceURL: "https://" + testHostname, Signature: sign(body)}
	require.Nil(t, p.Validate(h, body))
	id, err := p.Receive(t.Context(), h, body)
	require.NoError(t, err)
	require.NoError(t, p.Dispatch(t.Context(), id))
	require.Len(t, submitted, 1)

	h2 := events.Headers{Topic: "product.updated", SourceURL: "https://" + testHostname, Signature: sign(body)}
	id2, err := p.Receive(t.Context(), h2, body)
	require.NoError(t, err)

	ev, _, err := store.GetEvent(t.Context(), id2)
	require.NoError(t, err)
	require.Equal(t, "instock", ev.OldStockStatus)
	require.Equal(t, "instock", ev.NewStockStatus)

	require.NoError(t, p.Dispatch(t.Context(), id2))
	require.Len(t, submitted, 1, "unchanged stock should not trigger a second batch submission")

	ev, ok, err := store.GetEvent(t.Context(), id2)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, ev.Processed)
}

func TestReceiveAndDispatch_DeletedRetractsAndRemovesRows(t *testing.T) {
	var submitted [][]catalogclient.BatchRequestItem
	p, store := newTestProcessor(t, &submitted)

	body := []byte(`{"id":42,"type":"simple","name":"Shirt","stock_status":"instock","stock_quantity":7,"regular_price":"10.00"}`)
	h := events.Headers{Topic: "product.created", SourceURL: "https://" + testHostname, Signature: sign(body)}
	id, err := p.Receive(t.Context(), h, body)
	require.NoError(t, err)
	require.NoError(t, p.Dispatch(t.Context(), id))
	require.Len(t, submitted, 1)

	st, ok, err := store.GetSyncStatus(t.Context(), "wc_42")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, st.ExistsRemote)

	hDel := events.Headers{Topic: "product.deleted", SourceURL: "https://" + testHostname, Signature: sign(body)}
	idDel, err := p.Receive(t.Context(), hDel, body)
	require.NoError(t, err)
	require.NoError(t, p.Dispatch(t.Context(), idDel))

	require.Len(t, submitted, 2)
	retract := submitted[1][0]
	require.Equal(t, catalogclient.MethodUpdate, retract.Method)
	require.Equal(t, "wc_42", retract.RetailerID)
	require.Equal(t, "out of stock", retract.Data.Availability)
	require.Equal(t, 0, *retract.Data.Inventory)

	_, found, err := store.GetProduct(t.Context(), 42)
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = store.GetSyncStatus(t.Context(), "wc_42")
	require.NoError(t, err)
	require.False(t, found, "sync-status cascades away with its product")
}

func TestReceiveAndDispatch_DeletedNeverSyncedIsSilent(t *testing.T) {
	var submitted [][]catalogclient.BatchRequestItem
	p, store := newTestProcessor(t, &submitted)

	body := []byte(`{"id":77,"type":"simple","name":"Ghost","stock_status":"outofstock","regular_price":"1.00"}`)
	h := events.Headers{Topic: "product.deleted", SourceURL: "https://" + testHostname, Signature: sign(body)}
	id, err := p.Receive(t.Context(), h, body)
	require.NoError(t, err)
	require.NoError(t, p.Dispatch(t.Context(), id))

	require.Empty(t, submitted, "nothing to retract for a product the catalog never saw")

	ev, ok, err := store.GetEvent(t.Context(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, ev.Processed)
	require.NotNil(t, ev.ProcessedAt)
	require.Equal(t, "wc_77", ev.RetailerID)
	require.Equal(t, "simple", ev.Kind)
}
