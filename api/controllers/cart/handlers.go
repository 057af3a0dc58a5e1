// Package cart exposes the session cart over HTTP.
package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Registry resolves the cart of a browser session. Peek serves reads and may
// return a cart that is not kept.
type Registry interface {
	Get(ctx context.Context, sessionID string) (*cartsvc.Store, error)
	Peek(ctx context.Context, sessionID string) (*cartsvc.Store, error)
}

// Products looks up catalog entries by id.
type Products interface {
	Find(id string) (catalog.Product, bool)
}

func Fetch(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(r, reg.Peek)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(r.Context(), w, dto.FromState(store.Snapshot()))
	}
}

// Quantity returns how many units of one product are in the cart.
func Quantity(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(r, reg.Peek)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id := chi.URLParam(r, "productId")
		responses.WriteSuccess(r.Context(), w, dto.QuantityView{ProductID: id, Quantity: store.QuantityOf(id)})
	}
}

// AddItem resolves the product in the catalog and adds it. Name, price and
// image always come from the catalog.
func AddItem(reg Registry, products Products, logg *logger.Logger) http.HandlerFunc {
	return withStore(reg, logg, func(r *http.Request, store *cartsvc.Store) error {
		var req dto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return err
		}
		product, ok := products.Find(req.ProductID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		return store.AddQuantity(r.Context(), cartsvc.ItemInput{
			ID:    product.ID,
			Name:  product.Name,
			Price: product.Price,
			Image: product.Image,
		}, quantity)
	})
}

func Decrease(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return withStore(reg, logg, func(r *http.Request, store *cartsvc.Store) error {
		return store.Decrease(r.Context(), chi.URLParam(r, "productId"))
	})
}

func Remove(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return withStore(reg, logg, func(r *http.Request, store *cartsvc.Store) error {
		return store.Remove(r.Context(), chi.URLParam(r, "productId"))
	})
}

func Clear(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return withStore(reg, logg, func(r *http.Request, store *cartsvc.Store) error {
		return store.Clear(r.Context())
	})
}

func Open(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return withStore(reg, logg, func(r *http.Request, store *cartsvc.Store) error {
		store.Open()
		return nil
	})
}

func Close(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return withStore(reg, logg, func(r *http.Request, store *cartsvc.Store) error {
		store.Close()
		return nil
	})
}

// withStore runs fn against the session cart and responds with the
// resulting snapshot.
func withStore(reg Registry, logg *logger.Logger, fn func(*http.Request, *cartsvc.Store) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(r, reg.Get)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := fn(r, store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(r.Context(), w, dto.FromState(store.Snapshot()))
	}
}

func storeFor(r *http.Request, resolve func(context.Context, string) (*cartsvc.Store, error)) (*cartsvc.Store, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "browser session missing from context")
	}
	return resolve(r.Context(), sessionID)
}
