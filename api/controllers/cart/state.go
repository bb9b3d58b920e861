package cart

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/uistate"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxServiceItemIDLength = 128

type stateMutation func(r *http.Request, store *uistate.Store) error

// stateHandler resolves the caller's drawer, applies mutate and renders the
// resulting snapshot.
func stateHandler(states StateRegistry, logg *logger.Logger, mutate stateMutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if states == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart state unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := states.Get(r.Context(), userID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if mutate != nil {
			if err := mutate(r, store); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, store.Snapshot())
	}
}

// StateFetch returns the drawer snapshot.
func StateFetch(states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return stateHandler(states, logg, nil)
}

func StateOpen(states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return stateHandler(states, logg, func(_ *http.Request, store *uistate.Store) error {
		store.OpenCart()
		return nil
	})
}

func StateClose(states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return stateHandler(states, logg, func(_ *http.Request, store *uistate.Store) error {
		store.CloseCart()
		return nil
	})
}

func StateToggle(states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return stateHandler(states, logg, func(_ *http.Request, store *uistate.Store) error {
		store.ToggleCart()
		return nil
	})
}

// StateSetItemCount overwrites the badge count.
func StateSetItemCount(states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return stateHandler(states, logg, func(r *http.Request, store *uistate.Store) error {
		var payload itemCountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		return store.SetItemCount(payload.Count)
	})
}

// ServiceItemAdd puts a plan or package in the drawer.
func ServiceItemAdd(states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return stateHandler(states, logg, func(r *http.Request, store *uistate.Store) error {
		var payload serviceItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		return store.AddServiceItem(r.Context(), payload.toItem())
	})
}

func ServiceItemRemove(states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return stateHandler(states, logg, func(r *http.Request, store *uistate.Store) error {
		id, err := validators.RequiredParam(r, "itemId", maxServiceItemIDLength)
		if err != nil {
			return err
		}
		return store.RemoveServiceItem(r.Context(), id)
	})
}

func ServiceItemsClear(states StateRegistry, logg *logger.Logger) http.HandlerFunc {
	return stateHandler(states, logg, func(r *http.Request, store *uistate.Store) error {
		return store.ClearServiceItems(r.Context())
	})
}
