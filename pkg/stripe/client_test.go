package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/southside-backend/pkg/config"
)

func TestNewClientValidatesKeyAgainstEnv(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{"test key", config.StripeConfig{APIKey: "sk_test_123", Env: "test"}, false},
		{"live key", config.StripeConfig{APIKey: "sk_live_123", Env: "live"}, false},
		{"missing key", config.StripeConfig{Env: "test"}, true},
		{"live key in test", config.StripeConfig{APIKey: "sk_live_123", Env: "test"}, true},
		{"bad env", config.StripeConfig{APIKey: "sk_test_123", Env: "staging"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(context.Background(), tc.cfg, nil)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestVerifyEvent(t *testing.T) {
	payload, err := json.Marshal(stripe.Event{ID: "evt_1", Object: "event", Type: "checkout.session.completed", APIVersion: stripe.APIVersion})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	header := fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	event, err := VerifyEvent(payload, header, "whsec_test")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.ID != "evt_1" {
		t.Fatalf("unexpected event id %q", event.ID)
	}

	if _, err := VerifyEvent(payload, header, "whsec_other"); err == nil {
		t.Fatal("expected signature mismatch")
	}
	if _, err := VerifyEvent(payload, header, ""); !errors.Is(err, ErrWebhookSecretMissing) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestSessionParamsPaymentMode(t *testing.T) {
	meta := map[string]string{"bookingId": "bk_1"}
	params := sessionParams(CheckoutSessionRequest{
		Mode:            SessionModePayment,
		PriceID:         "price_2",
		SuccessURL:      "https://example.com/success",
		CancelURL:       "https://example.com/cancel",
		CustomerEmail:   "a@example.com",
		Metadata:        meta,
		PromotionCodeID: "promo_1",
	})

	if *params.Mode != "payment" || len(params.LineItems) != 1 || *params.LineItems[0].Price != "price_2" || *params.LineItems[0].Quantity != 1 {
		t.Fatalf("unexpected line items %+v", params.LineItems)
	}
	if params.PaymentIntentData == nil || params.PaymentIntentData.Metadata["bookingId"] != "bk_1" {
		t.Fatal("payment intent metadata missing")
	}
	if params.SubscriptionData != nil {
		t.Fatal("payment mode must not carry subscription data")
	}
	if len(params.Discounts) != 1 || *params.Discounts[0].PromotionCode != "promo_1" {
		t.Fatalf("unexpected discounts %+v", params.Discounts)
	}
	if len(params.PaymentMethodTypes) != 1 || *params.PaymentMethodTypes[0] != "card" {
		t.Fatal("expected card payment method")
	}
}

func TestSessionParamsSubscriptionMode(t *testing.T) {
	params := sessionParams(CheckoutSessionRequest{
		Mode:          SessionModeSubscription,
		PriceID:       "price_weekly",
		Metadata:      map[string]string{"subscriptionId": "sub_rec", "plan": "weekly"},
		ChildMetadata: map[string]string{"subscriptionId": "sub_rec"},
	})
	if params.SubscriptionData == nil || params.SubscriptionData.Metadata["subscriptionId"] != "sub_rec" {
		t.Fatal("subscription metadata missing")
	}
	if _, ok := params.SubscriptionData.Metadata["plan"]; ok {
		t.Fatal("child metadata should override session metadata")
	}
	if params.PaymentIntentData != nil || params.Discounts != nil || params.CustomerEmail != nil {
		t.Fatal("unexpected optional params")
	}
}

func TestPromotionFromStripe(t *testing.T) {
	pc := &stripe.PromotionCode{
		ID:             "promo_1",
		Code:           "SPRING",
		Active:         true,
		MaxRedemptions: 10,
		TimesRedeemed:  3,
		Promotion: &stripe.PromotionCodePromotion{
			Coupon: &stripe.Coupon{ID: "co_1", Valid: true, PercentOff: 20},
		},
	}
	promo := promotionFromStripe(pc)
	if promo.ID != "promo_1" || promo.Coupon == nil || promo.Coupon.PercentOff != 20 {
		t.Fatalf("unexpected promotion %+v", promo)
	}

	promo = promotionFromStripe(&stripe.PromotionCode{ID: "promo_2"})
	if promo.Coupon != nil {
		t.Fatal("expected nil coupon when promotion is not expanded")
	}
}
