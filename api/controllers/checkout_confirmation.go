package controllers

import (
	"net/http"

	"github.com/angelmondragon/southside-backend/api/responses"
	"github.com/angelmondragon/southside-backend/api/validators"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/angelmondragon/southside-backend/pkg/logger"
)

const confirmationStatusProcessing = "processing"

type checkoutConfirmationResponse struct {
	SessionID      string `json:"sessionId,omitempty"`
	BookingID      string `json:"bookingId,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Confirmed      bool   `json:"confirmed"`
	Status         string `json:"status"`
}

// CheckoutConfirmation backs the success page. It echoes the identifiers from
// the redirect and never reads payment state; the webhook is the only source
// of truth for whether a booking is paid.
func CheckoutConfirmation(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := checkoutConfirmationResponse{
			SessionID:      validators.QueryString(r, "session_id", 255),
			BookingID:      validators.QueryString(r, "bookingId", 128),
			SubscriptionID: validators.QueryString(r, "subscriptionId", 128),
			Status:         confirmationStatusProcessing,
		}
		if out.SessionID == "" && out.BookingID == "" && out.SubscriptionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session_id, bookingId or subscriptionId is required"))
			return
		}
		responses.WriteSuccess(w, out)
	}
}
