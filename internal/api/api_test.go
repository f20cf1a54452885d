// ABOUTME: Tests for the inventory HTTP API handlers
// ABOUTME: Verifies routing, status codes, idempotent creates, auth and the SSE change stream

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/store-inventory/internal/auth"
	"github.com/2389/store-inventory/internal/contract"
	"github.com/2389/store-inventory/internal/inventory"
	"github.com/2389/store-inventory/internal/store"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *inventory.Store) {
	t.Helper()

	sqlStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	inv := inventory.New(sqlStore)
	srv := New(inv, cfg, nil)
	t.Cleanup(func() { srv.idempotency.Close() })
	return srv, inv
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func seed(t *testing.T, inv *inventory.Store, name string, quantity, price int64) int64 {
	t.Helper()
	id, err := inv.Insert(context.Background(), contract.Collection(), inventory.Values{
		Name:     store.String(name),
		Quantity: store.Int(quantity),
		Price:    store.Int(price),
	})
	require.NoError(t, err)
	return id
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMCPMounted(t *testing.T) {
	srv, _ := newTestServer(t, Config{Version: "test"})

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Mcp-Session-Id"))
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestItemsLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/items", map[string]any{"name": "Widget", "quantity": 5, "price": 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/items/1", rec.Header().Get("Location"))
	assert.Equal(t, int64(1), decode[map[string]int64](t, rec)["id"])

	rec = doRequest(t, h, http.MethodGet, "/api/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contract.ContentListType, rec.Header().Get(ResourceTypeHeader))
	assert.JSONEq(t, `{"items":[{"id":1,"name":"Widget","description":"","quantity":5,"price":10}]}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodPatch, "/api/items/1", map[string]any{"quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"updated":1}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/items/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contract.ContentItemType, rec.Header().Get(ResourceTypeHeader))
	item := decode[ItemResponse](t, rec)
	assert.Equal(t, int64(4), item.Quantity)

	rec = doRequest(t, h, http.MethodDelete, "/api/items/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/items", nil)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestCreateItem_Validation(t *testing.T) {
	srv, inv := newTestServer(t, Config{})
	h := srv.Handler()

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing name", map[string]any{"quantity": 1}, "name required"},
		{"blank name", map[string]any{"name": "   "}, "name required"},
		{"negative quantity", map[string]any{"name": "x", "quantity": -1}, "invalid quantity"},
		{"negative price", map[string]any{"name": "x", "price": -1}, "invalid price"},
		{"unknown field", map[string]any{"name": "x", "color": "red"}, "invalid JSON body"},
		{"malformed", "{", "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/items", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode[map[string]string](t, rec)["error"])
		})
	}

	n, err := inv.Count(context.Background(), contract.Collection(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCreateItem_IdempotencyKey(t *testing.T) {
	srv, inv := newTestServer(t, Config{})
	h := srv.Handler()

	body := map[string]any{"name": "Widget"}
	first := doRequest(t, h, http.MethodPost, "/api/items", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	second := doRequest(t, h, http.MethodPost, "/api/items", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	third := doRequest(t, h, http.MethodPost, "/api/items", body, "Idempotency-Key", "other")
	require.Equal(t, http.StatusCreated, third.Code)

	n, err := inv.Count(context.Background(), contract.Collection(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestListItems_Query(t *testing.T) {
	srv, inv := newTestServer(t, Config{})
	h := srv.Handler()

	seed(t, inv, "Widget", 5, 10)
	seed(t, inv, "Gadget", 0, 25)
	seed(t, inv, "Wide Sprocket", 12, 3)

	rec := doRequest(t, h, http.MethodGet, "/api/items?name=wid&order=-quantity&fields=name,quantity", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"items":[
		{"name":"Wide Sprocket","quantity":12},
		{"name":"Widget","quantity":5}
	]}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/items?min_quantity=1&order=price&fields=id&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"items":[{"id":3}]}`, rec.Body.String())
}

func TestListItems_BadQuery(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	h := srv.Handler()

	for _, query := range []string{
		"min_quantity=lots",
		"order=color",
		"fields=color",
		"limit=0",
	} {
		rec := doRequest(t, h, http.MethodGet, "/api/items?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestItemRoutes_Errors(t *testing.T) {
	srv, inv := newTestServer(t, Config{})
	h := srv.Handler()
	seed(t, inv, "Widget", 0, 1)

	tests := []struct {
		method string
		path   string
		body   any
		status int
	}{
		{http.MethodGet, "/api/items/abc", nil, http.StatusBadRequest},
		{http.MethodGet, "/api/items/-1", nil, http.StatusBadRequest},
		{http.MethodGet, "/api/items/1/extra", nil, http.StatusNotFound},
		{http.MethodGet, "/api/items/99", nil, http.StatusNotFound},
		{http.MethodPatch, "/api/items/99", map[string]any{"name": "x"}, http.StatusNotFound},
		{http.MethodPatch, "/api/items/1", map[string]any{}, http.StatusBadRequest},
		{http.MethodPatch, "/api/items/1", map[string]any{"price": -2}, http.StatusBadRequest},
		{http.MethodDelete, "/api/items/99", nil, http.StatusNotFound},
		{http.MethodPost, "/api/items/1", map[string]any{"name": "x"}, http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/items", nil, http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/items/1/sale", nil, http.StatusConflict},
		{http.MethodPost, "/api/items/99/sale", nil, http.StatusNotFound},
		{http.MethodGet, "/api/items/1/sale", nil, http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/items/sale", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		rec := doRequest(t, h, tt.method, tt.path, tt.body)
		assert.Equal(t, tt.status, rec.Code, "%s %s: %s", tt.method, tt.path, rec.Body.String())
	}
}

func TestSale(t *testing.T) {
	srv, inv := newTestServer(t, Config{})
	h := srv.Handler()
	id := seed(t, inv, "Widget", 2, 10)

	rec := doRequest(t, h, http.MethodPost, "/api/items/1/sale", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[ItemResponse](t, rec)
	assert.Equal(t, id, item.ID)
	assert.Equal(t, int64(1), item.Quantity)

	doRequest(t, h, http.MethodPost, "/api/items/1/sale", nil)
	rec = doRequest(t, h, http.MethodPost, "/api/items/1/sale", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not sufficient quantity", decode[map[string]string](t, rec)["error"])
}

func TestClearItems(t *testing.T) {
	srv, inv := newTestServer(t, Config{})
	h := srv.Handler()
	seed(t, inv, "a", 1, 1)
	seed(t, inv, "b", 1, 1)

	rec := doRequest(t, h, http.MethodDelete, "/api/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())

	// Clearing an empty inventory is not an error
	rec = doRequest(t, h, http.MethodDelete, "/api/items", nil)
	assert.JSONEq(t, `{"deleted":0}`, rec.Body.String())
}

func TestDescription(t *testing.T) {
	srv, inv := newTestServer(t, Config{})
	h := srv.Handler()

	seed(t, inv, "Plain", 1, 1)
	_, err := inv.Insert(context.Background(), contract.Collection(), inventory.Values{
		Name:        store.String("Rich"),
		Description: store.String("**bold** <script>alert(1)</script>"),
	})
	require.NoError(t, err)

	rec := doRequest(t, h, http.MethodGet, "/api/items/1/description", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), contract.DescriptionPlaceholder)

	rec = doRequest(t, h, http.MethodGet, "/api/items/2/description", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>bold</strong>")
	assert.NotContains(t, rec.Body.String(), "<script>")

	rec = doRequest(t, h, http.MethodGet, "/api/items/3/description", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteAuth(t *testing.T) {
	verifier, err := auth.NewJWTVerifier([]byte("api-test-secret"))
	require.NoError(t, err)
	srv, inv := newTestServer(t, Config{Verifier: verifier})
	h := srv.Handler()
	seed(t, inv, "Widget", 1, 1)

	// Reads stay open
	rec := doRequest(t, h, http.MethodGet, "/api/items", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/items", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doRequest(t, h, http.MethodDelete, "/api/items", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := verifier.Generate("tester", time.Hour)
	require.NoError(t, err)
	rec = doRequest(t, h, http.MethodPost, "/api/items", map[string]any{"name": "x"}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestEvents_InvalidResource(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/events?resource=orders", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// readEvent reads one SSE event and returns its name and data.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEvents_Stream(t *testing.T) {
	srv, inv := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events?resource=items/1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	event, data := readEvent(t, reader)
	require.Equal(t, "ready", event)
	assert.Contains(t, data, `"resource":"items/1"`)

	// Item 2 is outside the subscription; the collection insert of item 1
	// overlaps it.
	seed(t, inv, "first", 1, 1)
	_, err = inv.Update(context.Background(), contract.Item(1), inventory.Values{Price: store.Int(5)}, nil)
	require.NoError(t, err)

	event, data = readEvent(t, reader)
	require.Equal(t, "change", event)
	var change ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(data), &change))
	assert.Equal(t, ChangeEvent{Resource: "items", Kind: "insert", ID: 1, Rows: 1}, change)

	event, data = readEvent(t, reader)
	require.Equal(t, "change", event)
	require.NoError(t, json.Unmarshal([]byte(data), &change))
	assert.Equal(t, ChangeEvent{Resource: "items/1", Kind: "update", Rows: 1}, change)
}

func TestFormatSSEEvent(t *testing.T) {
	assert.Equal(t, "event: change\ndata: {}\n\n", formatSSEEvent("change", "{}"))
}

func TestServe_Shutdown(t *testing.T) {
	srv, _ := newTestServer(t, Config{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
