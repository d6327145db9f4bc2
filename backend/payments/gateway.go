// Package payments wraps the external payment provider. The rest of the
// backend only sees the Gateway interface and never trusts client-supplied
// payment state: every settlement re-queries the provider through it.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursemarket/backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// PurchaseKind is attached to provider metadata so webhook consumers can tell
// course purchases apart from anything else sharing the account.
const PurchaseKind = "course_purchase"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Order is what the provider is asked to charge for.
type Order struct {
	UserID      uuid.UUID
	CourseID    uuid.UUID
	CourseTitle string
	Amount      decimal.Decimal
	Currency    string
}

// Currencies the provider does not charge in hundredths.
var currencyExponents = map[string]int32{
	"bif": 0, "clp": 0, "djf": 0, "gnf": 0, "jpy": 0, "kmf": 0, "krw": 0, "mga": 0,
	"pyg": 0, "rwf": 0, "ugx": 0, "vnd": 0, "vuv": 0, "xaf": 0, "xof": 0, "xpf": 0,
	"bhd": 3, "jod": 3, "kwd": 3, "omr": 3, "tnd": 3,
}

// Exponent is the number of minor-unit digits of a currency.
func Exponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToLower(currency)]; ok {
		return exp
	}
	return 2
}

// MinorUnits converts the amount to the currency's smallest unit.
func (o Order) MinorUnits() int64 {
	exp := Exponent(o.Currency)
	return o.Amount.Round(exp).Shift(exp).IntPart()
}

func (o Order) Metadata() map[string]string {
	return map[string]string{
		"user_id":       o.UserID.String(),
		"course_id":     o.CourseID.String(),
		"purchase_kind": PurchaseKind,
	}
}

type Payment struct {
	Ref          string
	ClientSecret string
	CheckoutURL  string
	Status       Status
}

type EventType string

const (
	EventPaymentSucceeded EventType = "payment.succeeded"
	EventPaymentFailed    EventType = "payment.failed"
	EventIgnored          EventType = "ignored"
)

type Event struct {
	ID     string
	Type   EventType
	Ref    string
	Method models.PaymentMethod
}

type Gateway interface {
	CreateIntent(ctx context.Context, order Order) (*Payment, error)
	RetrieveIntent(ctx context.Context, ref string) (*Payment, error)
	CreateCheckoutSession(ctx context.Context, order Order) (*Payment, error)
	RetrieveSession(ctx context.Context, ref string) (*Payment, error)
	CancelIntent(ctx context.Context, ref string) error
	ExpireSession(ctx context.Context, ref string) error
	// ParseEvent verifies the signature and decodes a webhook payload.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// Create starts a payment with the object type that matches method.
func Create(ctx context.Context, gw Gateway, method models.PaymentMethod, order Order) (*Payment, error) {
	switch method {
	case models.MethodIntent:
		return gw.CreateIntent(ctx, order)
	case models.MethodCheckout:
		return gw.CreateCheckoutSession(ctx, order)
	default:
		return nil, fmt.Errorf("unknown payment method %q", method)
	}
}

// Retrieve re-queries the provider for the object behind ref.
func Retrieve(ctx context.Context, gw Gateway, method models.PaymentMethod, ref string) (*Payment, error) {
	switch method {
	case models.MethodIntent:
		return gw.RetrieveIntent(ctx, ref)
	case models.MethodCheckout:
		return gw.RetrieveSession(ctx, ref)
	default:
		return nil, fmt.Errorf("unknown payment method %q", method)
	}
}

// Cancel voids the provider object behind ref so it can no longer be paid.
func Cancel(ctx context.Context, gw Gateway, method models.PaymentMethod, ref string) error {
	switch method {
	case models.MethodIntent:
		return gw.CancelIntent(ctx, ref)
	case models.MethodCheckout:
		return gw.ExpireSession(ctx, ref)
	default:
		return fmt.Errorf("unknown payment method %q", method)
	}
}
