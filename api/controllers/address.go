package controllers

import (
	"net/http"

	"github.com/angelmondragon/southside-backend/api/responses"
	"github.com/angelmondragon/southside-backend/api/validators"
	"github.com/angelmondragon/southside-backend/internal/address"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/angelmondragon/southside-backend/pkg/logger"
)

type resolveAddressPayload struct {
	PlaceID      string `json:"placeId" validate:"required,max=512"`
	SessionToken string `json:"sessionToken,omitempty" validate:"omitempty,max=128"`
}

// AddressSuggest returns autocomplete suggestions for the booking form.
func AddressSuggest(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "address lookup is not enabled"))
			return
		}

		resp, err := svc.Suggest(ctx, address.SuggestRequest{
			Query:        validators.QueryString(r, "query", 200),
			Country:      validators.QueryString(r, "country", 2),
			SessionToken: validators.QueryString(r, "sessionToken", 128),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"suggestions": resp})
	}
}

// AddressResolve turns a place ID into the address record stored on bookings.
func AddressResolve(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "address lookup is not enabled"))
			return
		}

		var payload resolveAddressPayload
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		addr, err := svc.Resolve(ctx, address.ResolveRequest{
			PlaceID:      payload.PlaceID,
			SessionToken: payload.SessionToken,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, addr)
	}
}
