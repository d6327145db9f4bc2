package payments

import (
	"errors"
	"testing"
	"time"

	"coursemarket/backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

const testWebhookSecret = "whsec_test"

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

func TestIntentStatusMapping(t *testing.T) {
	assert.Equal(t, StatusSucceeded, intentStatus(stripe.PaymentIntentStatusSucceeded))
	assert.Equal(t, StatusFailed, intentStatus(stripe.PaymentIntentStatusCanceled))
	assert.Equal(t, StatusPending, intentStatus(stripe.PaymentIntentStatusProcessing))
	assert.Equal(t, StatusPending, intentStatus(stripe.PaymentIntentStatusRequiresPaymentMethod))
}

func TestSessionStatusMapping(t *testing.T) {
	assert.Equal(t, StatusSucceeded, sessionStatus(stripe.CheckoutSessionStatusComplete, stripe.CheckoutSessionPaymentStatusPaid))
	assert.Equal(t, StatusPending, sessionStatus(stripe.CheckoutSessionStatusComplete, stripe.CheckoutSessionPaymentStatusUnpaid))
	assert.Equal(t, StatusPending, sessionStatus(stripe.CheckoutSessionStatusOpen, stripe.CheckoutSessionPaymentStatusUnpaid))
	assert.Equal(t, StatusFailed, sessionStatus(stripe.CheckoutSessionStatusExpired, stripe.CheckoutSessionPaymentStatusUnpaid))
}

func TestOrderMinorUnitsAndMetadata(t *testing.T) {
	order := Order{
		UserID:   uuid.New(),
		CourseID: uuid.New(),
		Amount:   decimal.RequireFromString("45.00"),
		Currency: "usd",
	}
	assert.Equal(t, int64(4500), order.MinorUnits())

	order.Amount = decimal.RequireFromString("19.995")
	assert.Equal(t, int64(2000), order.MinorUnits())

	order.Currency = "JPY"
	order.Amount = decimal.RequireFromString("1234.50")
	assert.Equal(t, int64(1235), order.MinorUnits())

	order.Currency = "kwd"
	order.Amount = decimal.RequireFromString("12.5")
	assert.Equal(t, int64(12500), order.MinorUnits())

	md := order.Metadata()
	assert.Equal(t, order.UserID.String(), md["user_id"])
	assert.Equal(t, order.CourseID.String(), md["course_id"])
	assert.Equal(t, PurchaseKind, md["purchase_kind"])
}

func TestParseEvent(t *testing.T) {
	gw := NewStripeGateway(StripeConfig{SecretKey: "sk_test_x", WebhookSecret: testWebhookSecret})

	header, body := signed(t, `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","object":"payment_intent"}}}`)
	evt, err := gw.ParseEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, evt.Type)
	assert.Equal(t, "pi_123", evt.Ref)
	assert.Equal(t, models.MethodIntent, evt.Method)

	header, body = signed(t, `{"id":"evt_2","object":"event","type":"checkout.session.expired","data":{"object":{"id":"cs_456","object":"checkout.session"}}}`)
	evt, err = gw.ParseEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, evt.Type)
	assert.Equal(t, "cs_456", evt.Ref)
	assert.Equal(t, models.MethodCheckout, evt.Method)

	header, body = signed(t, `{"id":"evt_4","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_789","object":"payment_intent"}}}`)
	evt, err = gw.ParseEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, EventIgnored, evt.Type, "a declined attempt leaves the intent open")

	header, body = signed(t, `{"id":"evt_3","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)
	evt, err = gw.ParseEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, EventIgnored, evt.Type)
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	gw := NewStripeGateway(StripeConfig{SecretKey: "sk_test_x", WebhookSecret: testWebhookSecret})

	_, body := signed(t, `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	_, err := gw.ParseEvent(body, "t=1,v1=deadbeef")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}
