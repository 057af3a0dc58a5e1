package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront/api/middleware"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/angelmondragon/storefront/pkg/types"
)

type envelope struct {
	Data          dto.CartView         `json:"data"`
	Error         *types.APIError      `json:"error"`
	Notifications []types.Notification `json:"notifications"`
}

type brokenStorage struct {
	storage.Store
}

func (brokenStorage) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (brokenStorage) Put(context.Context, string, string, []byte) error {
	return errors.New("disk full")
}

func newRouter(t *testing.T, store storage.Store) http.Handler {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	reg := cartsvc.NewRegistry(store, nil, nil)

	r := chi.NewRouter()
	r.Get("/cart", Fetch(reg, nil))
	r.Post("/cart/items", AddItem(reg, cat, nil))
	r.Get("/cart/items/{productId}", Quantity(reg, nil))
	r.Post("/cart/items/{productId}/decrease", Decrease(reg, nil))
	r.Delete("/cart/items/{productId}", Remove(reg, nil))
	r.Delete("/cart", Clear(reg, nil))
	r.Post("/cart/open", Open(reg, nil))
	r.Post("/cart/close", Close(reg, nil))
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := notify.WithBuffer(req.Context(), notify.NewBuffer())
	ctx = middleware.WithSessionID(ctx, "browser-1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))

	var env envelope
	if strings.HasPrefix(target, "/cart/items/") && method == http.MethodGet {
		return rec, env
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestAddItemUsesCatalogData(t *testing.T) {
	h := newRouter(t, storage.NewMemory())

	rec, env := do(t, h, http.MethodPost, "/cart/items", `{"product_id":"1","name":"Free Watch","price":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	rec, env = do(t, h, http.MethodPost, "/cart/items", `{"product_id":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, "Modern Minimalist Watch", env.Data.Items[0].Name)
	assert.True(t, env.Data.Items[0].Price.Equal(decimal.RequireFromString("249.99")))
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Added to cart", env.Notifications[0].Title)

	rec, env = do(t, h, http.MethodPost, "/cart/items", `{"product_id":"1","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, env.Data.TotalQuantity)
	assert.True(t, env.Data.TotalPrice.Equal(decimal.RequireFromString("749.97")))
	assert.True(t, env.Data.Items[0].Subtotal.Equal(decimal.RequireFromString("749.97")))
}

func TestAddItemUnknownProduct(t *testing.T) {
	h := newRouter(t, storage.NewMemory())
	rec, env := do(t, h, http.MethodPost, "/cart/items", `{"product_id":"nope"}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	h := newRouter(t, storage.NewMemory())
	rec, _ := do(t, h, http.MethodPost, "/cart/items", `{"product_id":"1","quantity":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecreaseRemoveAndClear(t *testing.T) {
	h := newRouter(t, storage.NewMemory())
	do(t, h, http.MethodPost, "/cart/items", `{"product_id":"1","quantity":2}`)
	do(t, h, http.MethodPost, "/cart/items", `{"product_id":"2"}`)

	_, env := do(t, h, http.MethodPost, "/cart/items/1/decrease", "")
	assert.Equal(t, 2, env.Data.TotalQuantity)

	_, env = do(t, h, http.MethodPost, "/cart/items/missing/decrease", "")
	assert.Equal(t, 2, env.Data.TotalQuantity)
	assert.Empty(t, env.Notifications)

	_, env = do(t, h, http.MethodDelete, "/cart/items/2", "")
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, "1", env.Data.Items[0].ID)

	_, env = do(t, h, http.MethodDelete, "/cart", "")
	assert.Empty(t, env.Data.Items)
	assert.True(t, env.Data.TotalPrice.IsZero())
}

func TestQuantity(t *testing.T) {
	h := newRouter(t, storage.NewMemory())
	do(t, h, http.MethodPost, "/cart/items", `{"product_id":"3","quantity":4}`)

	rec, _ := do(t, h, http.MethodGet, "/cart/items/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data dto.QuantityView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, dto.QuantityView{ProductID: "3", Quantity: 4}, body.Data)
}

func TestOpenAndClose(t *testing.T) {
	h := newRouter(t, storage.NewMemory())

	_, env := do(t, h, http.MethodPost, "/cart/open", "")
	assert.True(t, env.Data.Open)
	_, env = do(t, h, http.MethodGet, "/cart", "")
	assert.True(t, env.Data.Open)
	_, env = do(t, h, http.MethodPost, "/cart/close", "")
	assert.False(t, env.Data.Open)
}

func TestFailedWriteLeavesCartUnchanged(t *testing.T) {
	h := newRouter(t, brokenStorage{})

	rec, env := do(t, h, http.MethodPost, "/cart/items", `{"product_id":"1"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DEPENDENCY_ERROR", env.Error.Code)

	_, env = do(t, h, http.MethodGet, "/cart", "")
	assert.Empty(t, env.Data.Items)
}
