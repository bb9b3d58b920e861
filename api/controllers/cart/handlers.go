package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/uistate"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// StateRegistry resolves the drawer state of a user.
type StateRegistry interface {
	Get(ctx context.Context, userID string) (*uistate.Store, error)
}

// CartFetch returns the user's cart with items, or null when none exists yet.
func CartFetch(svc cartsvc.Service, states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCart(w, r, svc, states, logg, userID, http.StatusOK)
	}
}

// CartAddItem adds a product line or bumps the quantity of an existing one.
func CartAddItem(svc cartsvc.Service, states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.AddItem(r.Context(), userID, payload.toInput()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCart(w, r, svc, states, logg, userID, http.StatusCreated)
	}
}

// CartUpdateItem changes the quantity of one line.
func CartUpdateItem(svc cartsvc.Service, states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.UpdateItem(r.Context(), userID, itemID, cartsvc.UpdateItemInput{Quantity: payload.Quantity}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCart(w, r, svc, states, logg, userID, http.StatusOK)
	}
}

// CartDeleteItem removes one line.
func CartDeleteItem(svc cartsvc.Service, states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCart(w, r, svc, states, logg, userID, http.StatusOK)
	}
}

// CartClear removes every product line but keeps the drawer's service items.
func CartClear(svc cartsvc.Service, states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearCart(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCart(w, r, svc, states, logg, userID, http.StatusOK)
	}
}

// writeCart reads the fresh cart, mirrors its item count into the drawer and
// renders it.
func writeCart(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, states StateRegistry, logg *logger.Logger, userID uuid.UUID, status int) {
	ctx := r.Context()
	record, err := svc.GetCartWithItems(ctx, userID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	syncItemCount(ctx, states, logg, userID, cartsvc.ItemCount(record))
	responses.WriteSuccessStatus(w, status, cartsvc.NewCartDTO(record))
}

func syncItemCount(ctx context.Context, states StateRegistry, logg *logger.Logger, userID uuid.UUID, count int) {
	if states == nil {
		return
	}
	store, err := states.Get(ctx, userID.String())
	if err == nil {
		err = store.SetItemCount(count)
	}
	if err != nil && logg != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart.item_count_sync_failed")
	}
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
