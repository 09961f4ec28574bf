package cart

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/quotecart/api/middleware"
	"github.com/angelmondragon/quotecart/api/responses"
	"github.com/angelmondragon/quotecart/api/validators"
	"github.com/angelmondragon/quotecart/internal/quotecart"
	"github.com/angelmondragon/quotecart/internal/submission"
	pkgerrors "github.com/angelmondragon/quotecart/pkg/errors"
	"github.com/angelmondragon/quotecart/pkg/logger"
)

// Carts resolves the store backing a cart session; *quotecart.Registry implements it.
type Carts interface {
	Get(ctx context.Context, sessionID string) (*quotecart.Store, error)
}

// Products resolves catalog products for add-to-cart.
type Products interface {
	Lookup(ctx context.Context, slug string) (quotecart.Product, error)
}

// CartFetch returns the session's cart with derived totals.
func CartFetch(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.Items()))
	}
}

// CartAddItem adds a product option to the cart, merging with an existing line
// for the same option.
func CartAddItem(carts Carts, products Products, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := sessionStore(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.Lookup(r.Context(), strings.TrimSpace(payload.Slug))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		option := strings.TrimSpace(payload.Option)
		if opt, ok := findOption(product, option); ok && !opt.Available {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "option is not available").
				WithDetails(map[string]string{"slug": product.Slug, "option": opt.Label}))
			return
		}

		quantity := 0
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		line, ok := store.AddSelection(r.Context(), product, option, quantity)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "product has no purchasable options").
				WithDetails(map[string]string{"slug": product.Slug}))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, itemResponse{
			Item: line,
			Cart: newCartResponse(store.Items()),
		})
	}
}

// CartUpdateItem sets a line's quantity; values below the line minimum are raised to it.
func CartUpdateItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := sessionStore(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, ok := store.UpdateQuantity(r.Context(), chi.URLParam(r, "itemID"), *payload.Quantity)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found"))
			return
		}

		responses.WriteSuccess(w, itemResponse{
			Item: line,
			Cart: newCartResponse(store.Items()),
		})
	}
}

// CartRemoveItem drops a line. Removing an unknown line is not an error.
func CartRemoveItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.RemoveItem(r.Context(), chi.URLParam(r, "itemID"))
		responses.WriteSuccess(w, newCartResponse(store.Items()))
	}
}

// CartClear empties the session's cart.
func CartClear(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.Clear(r.Context())
		responses.WriteSuccess(w, newCartResponse(store.Items()))
	}
}

// CartSubmit turns the cart into an order or quote request.
func CartSubmit(carts Carts, svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submission service unavailable"))
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, ok := submission.ParseKind(payload.Kind)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "kind must be order or quote"))
			return
		}

		store, err := sessionStore(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), store, kind, payload.Contact)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, submitResponse{
			Submission: result,
			Cart:       newCartResponse(store.Items()),
		})
	}
}

// sessionStore loads the request's cart. Loading is detached from request
// cancellation so an aborted request cannot cache a half-loaded cart.
func sessionStore(r *http.Request, carts Carts) (*quotecart.Store, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart registry unavailable")
	}
	session := middleware.CartSessionFromContext(r.Context())
	store, err := carts.Get(context.WithoutCancel(r.Context()), session)
	if err != nil {
		if errors.Is(err, quotecart.ErrSessionRequired) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart session is required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open cart")
	}
	return store, nil
}

func findOption(product quotecart.Product, label string) (quotecart.Option, bool) {
	if label == "" {
		return quotecart.Option{}, false
	}
	for _, opt := range product.Options {
		if opt.Label == label {
			return opt, true
		}
	}
	return quotecart.Option{}, false
}
