package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
)

// SessionMode selects a one-time payment or a recurring subscription.
type SessionMode string

const (
	SessionModePayment      SessionMode = "payment"
	SessionModeSubscription SessionMode = "subscription"
)

// CheckoutSessionRequest is everything needed to open a hosted Checkout page
// for a single price.
type CheckoutSessionRequest struct {
	Mode          SessionMode
	PriceID       string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	// Metadata is written to the session and to the payment intent (payment
	// mode) or the subscription (subscription mode).
	Metadata map[string]string
	// ChildMetadata overrides Metadata on the payment intent or subscription.
	ChildMetadata   map[string]string
	PromotionCodeID string
}

// CheckoutSession is the part of a created session callers need.
type CheckoutSession struct {
	ID  string
	URL string
}

// Coupon mirrors the discount fields of a Stripe coupon.
type Coupon struct {
	ID             string
	Valid          bool
	PercentOff     float64
	AmountOff      int64
	MaxRedemptions int64
	TimesRedeemed  int64
}

// Promotion is a customer-facing promotion code and the coupon it wraps.
type Promotion struct {
	ID             string
	Code           string
	Active         bool
	MaxRedemptions int64
	TimesRedeemed  int64
	Coupon         *Coupon
}

var errClientNotConfigured = errors.New("stripe client not configured")

// CreateCheckoutSession opens a Checkout session with a single line item.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	if c == nil || c.api == nil {
		return CheckoutSession{}, errClientNotConfigured
	}
	sess, err := c.api.V1CheckoutSessions.Create(ctx, sessionParams(req))
	if err != nil {
		return CheckoutSession{}, err
	}
	return CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// FindActivePromotionCode returns the active promotion code matching code
// exactly, or nil when there is none.
func (c *Client) FindActivePromotionCode(ctx context.Context, code string) (*Promotion, error) {
	if c == nil || c.api == nil {
		return nil, errClientNotConfigured
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	params := &stripe.PromotionCodeListParams{
		Code:   stripe.String(code),
		Active: stripe.Bool(true),
	}
	params.Limit = stripe.Int64(1)
	params.AddExpand("data.promotion.coupon")

	for pc, err := range c.api.V1PromotionCodes.List(ctx, params) {
		if err != nil {
			return nil, err
		}
		return promotionFromStripe(pc), nil
	}
	return nil, nil
}

// RetrievePrice returns the price's unit amount in cents.
func (c *Client) RetrievePrice(ctx context.Context, priceID string) (int64, error) {
	if c == nil || c.api == nil {
		return 0, errClientNotConfigured
	}
	price, err := c.api.V1Prices.Retrieve(ctx, priceID, nil)
	if err != nil {
		return 0, err
	}
	return price.UnitAmount, nil
}

func sessionParams(req CheckoutSessionRequest) *stripe.CheckoutSessionCreateParams {
	child := req.ChildMetadata
	if child == nil {
		child = req.Metadata
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(req.Mode)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata:   req.Metadata,
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	switch req.Mode {
	case SessionModeSubscription:
		params.SubscriptionData = &stripe.CheckoutSessionCreateSubscriptionDataParams{Metadata: child}
	default:
		params.PaymentMethodTypes = stripe.StringSlice([]string{"card"})
		params.PaymentIntentData = &stripe.CheckoutSessionCreatePaymentIntentDataParams{Metadata: child}
	}

	if req.PromotionCodeID != "" {
		params.Discounts = []*stripe.CheckoutSessionCreateDiscountParams{
			{PromotionCode: stripe.String(req.PromotionCodeID)},
		}
	}
	return params
}

func promotionFromStripe(pc *stripe.PromotionCode) *Promotion {
	if pc == nil {
		return nil
	}
	promo := &Promotion{
		ID:             pc.ID,
		Code:           pc.Code,
		Active:         pc.Active,
		MaxRedemptions: pc.MaxRedemptions,
		TimesRedeemed:  pc.TimesRedeemed,
	}
	if pc.Promotion != nil && pc.Promotion.Coupon != nil {
		cp := pc.Promotion.Coupon
		promo.Coupon = &Coupon{
			ID:             cp.ID,
			Valid:          cp.Valid,
			PercentOff:     cp.PercentOff,
			AmountOff:      cp.AmountOff,
			MaxRedemptions: cp.MaxRedemptions,
			TimesRedeemed:  cp.TimesRedeemed,
		}
	}
	return promo
}
