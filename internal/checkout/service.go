package checkout

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/southside-backend/internal/pricing"
	"github.com/angelmondragon/southside-backend/internal/servicedates"
	"github.com/angelmondragon/southside-backend/pkg/db/models"
	"github.com/angelmondragon/southside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/angelmondragon/southside-backend/pkg/logger"
	"github.com/angelmondragon/southside-backend/pkg/stripe"
)

type priceIDs interface {
	PriceID(sel pricing.Selection) (string, bool)
}

type recordStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) (string, error)
	CreateSubscriptionIntent(ctx context.Context, intent *models.SubscriptionIntent) (string, error)
}

type payments interface {
	CreateCheckoutSession(ctx context.Context, req stripe.CheckoutSessionRequest) (stripe.CheckoutSession, error)
	FindActivePromotionCode(ctx context.Context, code string) (*stripe.Promotion, error)
}

type metricsRecorder interface {
	ObserveCheckout(kind string, ok bool, duration time.Duration)
}

// Service creates a pending record and the Stripe Checkout session that
// references it.
type Service interface {
	StartOneTime(ctx context.Context, in OneTimeInput) (Session, error)
	StartSubscription(ctx context.Context, in SubscriptionInput) (Session, error)
}

type ServiceParams struct {
	Prices         priceIDs
	Store          recordStore
	Payments       payments
	Metrics        metricsRecorder
	Logger         *logger.Logger
	SiteURL        string
	AllowedOrigins []string
	Location       *time.Location
	Now            func() time.Time
}

type service struct {
	prices   priceIDs
	store    recordStore
	payments payments
	metrics  metricsRecorder
	logg     *logger.Logger
	siteURL  string
	origins  map[string]struct{}
	loc      *time.Location
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Prices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "price resolver required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record store required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments client required")
	}
	siteURL := strings.TrimRight(strings.TrimSpace(params.SiteURL), "/")
	if siteURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "site url required")
	}

	origins := make(map[string]struct{}, len(params.AllowedOrigins))
	for _, o := range params.AllowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = struct{}{}
		}
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		prices:   params.Prices,
		store:    params.Store,
		payments: params.Payments,
		metrics:  params.Metrics,
		logg:     params.Logger,
		siteURL:  siteURL,
		origins:  origins,
		loc:      loc,
		now:      now,
	}, nil
}

func (s *service) StartOneTime(ctx context.Context, in OneTimeInput) (sess Session, err error) {
	start := s.now()
	defer func() { s.observe(enums.RecordKindBooking, err, start) }()

	sel := pricing.ForBins(in.Bins)
	if err := sel.Validate(); err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	priceID, ok := s.prices.PriceID(sel)
	if !ok {
		return Session{}, pkgerrors.New(pkgerrors.CodeConfiguration, "price is not configured for the selected number of bins")
	}

	formatted, iso := servicedates.Describe(in.ServiceDate, s.loc)
	booking := &models.Booking{
		Name:                 in.Name,
		Email:                in.Email,
		Phone:                in.Phone,
		Address:              in.Address,
		AddressDetails:       in.AddressDetails,
		Notes:                in.Notes,
		WaterAccess:          in.WaterAccess,
		PowerAccess:          in.PowerAccess,
		Bins:                 in.Bins,
		ServiceDate:          in.ServiceDate.UTC(),
		ServiceDateFormatted: formatted,
		ServiceDateISO:       iso,
		DiscountCode:         optional(in.DiscountCode),
		PaymentStatus:        enums.PaymentStatusPending,
		ServiceStatus:        enums.ServiceStatusAwaitingPayment,
		CreatedAt:            s.now().UTC(),
	}
	id, err := s.store.CreateBooking(ctx, booking)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create booking")
	}
	ctx = s.withBooking(ctx, id)

	meta := bookingMetadata(id, in)
	child := bookingMetadata(id, in)
	delete(child, "discountCode")

	base := s.redirectBase(in.Origin)
	req := stripe.CheckoutSessionRequest{
		Mode:          stripe.SessionModePayment,
		PriceID:       priceID,
		SuccessURL:    successURL(base, "bookingId", id),
		CancelURL:     base + "/cancel",
		CustomerEmail: in.Email,
		Metadata:      meta,
		ChildMetadata: child,
	}
	req.PromotionCodeID = s.lookupPromotion(ctx, in.DiscountCode)

	created, err := s.payments.CreateCheckoutSession(ctx, req)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create checkout session")
	}
	s.logInfo(ctx, "checkout.session_created")

	return Session{Kind: enums.RecordKindBooking, RecordID: id, SessionID: created.ID, URL: created.URL}, nil
}

func (s *service) StartSubscription(ctx context.Context, in SubscriptionInput) (sess Session, err error) {
	start := s.now()
	defer func() { s.observe(enums.RecordKindSubscription, err, start) }()

	sel := pricing.ForPlan(in.Plan)
	if err := sel.Validate(); err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	priceID, ok := s.prices.PriceID(sel)
	if !ok {
		return Session{}, pkgerrors.New(pkgerrors.CodeConfiguration, "subscription price is not configured")
	}

	var startISO *string
	if in.StartDate != nil {
		_, iso := servicedates.Describe(*in.StartDate, s.loc)
		startISO = &iso
	}
	intent := &models.SubscriptionIntent{
		Name:               in.Name,
		Email:              in.Email,
		Phone:              in.Phone,
		Address:            in.Address,
		AddressDetails:     in.AddressDetails,
		Notes:              in.Notes,
		Plan:               in.Plan,
		Bins:               models.SubscriptionIntentBins,
		Cadence:            string(in.Plan),
		StartDateISO:       startISO,
		DiscountCode:       optional(in.DiscountCode),
		PaymentStatus:      enums.PaymentStatusPending,
		SubscriptionStatus: enums.SubscriptionStatusAwaitingCheckout,
		CreatedAt:          s.now().UTC(),
	}
	id, err := s.store.CreateSubscriptionIntent(ctx, intent)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscription intent")
	}
	ctx = s.withBooking(ctx, id)

	meta := map[string]string{
		"subscriptionId": id,
		"customerName":   in.Name,
		"customerPhone":  in.Phone,
		"plan":           string(in.Plan),
		"bins":           strconv.Itoa(models.SubscriptionIntentBins),
	}

	base := s.redirectBase(in.Origin)
	req := stripe.CheckoutSessionRequest{
		Mode:          stripe.SessionModeSubscription,
		PriceID:       priceID,
		SuccessURL:    successURL(base, "subscriptionId", id),
		CancelURL:     base + "/cancel",
		CustomerEmail: in.Email,
		Metadata:      meta,
	}
	req.PromotionCodeID = s.lookupPromotion(ctx, in.DiscountCode)

	created, err := s.payments.CreateCheckoutSession(ctx, req)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscription checkout session")
	}
	s.logInfo(ctx, "checkout.subscription_session_created")

	return Session{Kind: enums.RecordKindSubscription, RecordID: id, SessionID: created.ID, URL: created.URL}, nil
}

// lookupPromotion returns the promotion code ID to attach, or "" when the code
// is empty, unknown or the lookup failed.
func (s *service) lookupPromotion(ctx context.Context, code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	promo, err := s.payments.FindActivePromotionCode(ctx, code)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "discount_code", code), "checkout.discount_lookup_failed", err)
		}
		return ""
	}
	if promo == nil {
		return ""
	}
	return promo.ID
}

// redirectBase picks the caller's origin when it is allow-listed and the
// configured site URL otherwise.
func (s *service) redirectBase(origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if _, ok := s.origins[origin]; ok {
		return origin
	}
	return s.siteURL
}

func successURL(base, idParam, id string) string {
	// {CHECKOUT_SESSION_ID} is substituted by Stripe and must stay unescaped.
	return base + "/success?session_id={CHECKOUT_SESSION_ID}&" + idParam + "=" + url.QueryEscape(id)
}

func bookingMetadata(id string, in OneTimeInput) map[string]string {
	meta := map[string]string{
		"bookingId":     id,
		"customerName":  in.Name,
		"customerPhone": in.Phone,
		"bins":          strconv.Itoa(in.Bins),
		"discountCode":  strings.TrimSpace(in.DiscountCode),
		"address":       in.Address,
		"placeId":       "",
		"postalCode":    "",
	}
	if d := in.AddressDetails; d != nil {
		meta["placeId"] = d.PlaceID
		meta["postalCode"] = d.Components.PostalCode
	}
	return meta
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func (s *service) observe(kind enums.RecordKind, err error, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(string(kind), err == nil, s.now().Sub(start))
	}
}

func (s *service) withBooking(ctx context.Context, id string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithBookingID(ctx, id)
}

func (s *service) logInfo(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}
