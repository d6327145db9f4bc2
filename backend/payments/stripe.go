package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"coursemarket/backend/models"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	FrontendURL   string
}

// StripeGateway uses its own client.API rather than the package-level stripe.Key.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	frontendURL   string
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	return &StripeGateway{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		frontendURL:   cfg.FrontendURL,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, order Order) (*Payment, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(order.MinorUnits()),
		Currency: stripe.String(order.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(order.CourseTitle),
	}
	params.Context = ctx
	for k, v := range order.Metadata() {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Payment{Ref: pi.ID, ClientSecret: pi.ClientSecret, Status: intentStatus(pi.Status)}, nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, ref string) (*Payment, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(ref, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", ref, err)
	}
	return &Payment{Ref: pi.ID, Status: intentStatus(pi.Status)}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, order Order) (*Payment, error) {
	courseID := url.QueryEscape(order.CourseID.String())
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(order.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(order.CourseTitle),
					},
					UnitAmount: stripe.Int64(order.MinorUnits()),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(g.frontendURL + "/purchase/success?session_id={CHECKOUT_SESSION_ID}&course_id=" + courseID),
		CancelURL:         stripe.String(g.frontendURL + "/course/" + courseID),
		ClientReferenceID: stripe.String(order.UserID.String()),
	}
	params.Context = ctx
	for k, v := range order.Metadata() {
		params.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Payment{Ref: s.ID, CheckoutURL: s.URL, Status: sessionStatus(s.Status, s.PaymentStatus)}, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, ref string) (*Payment, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(ref, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", ref, err)
	}
	return &Payment{Ref: s.ID, CheckoutURL: s.URL, Status: sessionStatus(s.Status, s.PaymentStatus)}, nil
}

func (g *StripeGateway) CancelIntent(ctx context.Context, ref string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx
	if _, err := g.api.PaymentIntents.Cancel(ref, params); err != nil {
		return fmt.Errorf("cancel payment intent %s: %w", ref, err)
	}
	return nil
}

func (g *StripeGateway) ExpireSession(ctx context.Context, ref string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := g.api.CheckoutSessions.Expire(ref, params); err != nil {
		return fmt.Errorf("expire checkout session %s: %w", ref, err)
	}
	return nil
}

func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(evt)
}

func decodeEvent(evt stripe.Event) (*Event, error) {
	out := &Event{ID: evt.ID, Type: EventIgnored}
	switch string(evt.Type) {
	case "payment_intent.succeeded":
		out.Type, out.Method = EventPaymentSucceeded, models.MethodIntent
	case "payment_intent.canceled":
		out.Type, out.Method = EventPaymentFailed, models.MethodIntent
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		out.Type, out.Method = EventPaymentSucceeded, models.MethodCheckout
	case "checkout.session.async_payment_failed", "checkout.session.expired":
		out.Type, out.Method = EventPaymentFailed, models.MethodCheckout
	default:
		return out, nil
	}

	if evt.Data == nil {
		return nil, fmt.Errorf("event %s has no data", evt.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(evt.Data.Raw, &obj); err != nil {
		return nil, fmt.Errorf("decode event %s object: %w", evt.ID, err)
	}
	out.Ref = obj.ID
	return out, nil
}

func intentStatus(s stripe.PaymentIntentStatus) Status {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	default:
		return StatusPending
	}
}

func sessionStatus(s stripe.CheckoutSessionStatus, ps stripe.CheckoutSessionPaymentStatus) Status {
	switch {
	case ps == stripe.CheckoutSessionPaymentStatusPaid:
		return StatusSucceeded
	case s == stripe.CheckoutSessionStatusExpired:
		return StatusFailed
	default:
		return StatusPending
	}
}
