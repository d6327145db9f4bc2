package payments_test

import (
	"context"
	"testing"

	"coursemarket/backend/models"
	"coursemarket/backend/payments"
	"coursemarket/backend/payments/paymentstest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndRetrieveDispatchByMethod(t *testing.T) {
	ctx := context.Background()
	gw := paymentstest.New()
	order := payments.Order{UserID: uuid.New(), CourseID: uuid.New(), Amount: decimal.NewFromInt(10), Currency: "usd"}

	intent, err := payments.Create(ctx, gw, models.MethodIntent, order)
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ClientSecret)
	assert.Empty(t, intent.CheckoutURL)

	session, err := payments.Create(ctx, gw, models.MethodCheckout, order)
	require.NoError(t, err)
	assert.NotEmpty(t, session.CheckoutURL)

	gw.SetStatus(session.Ref, payments.StatusSucceeded)
	got, err := payments.Retrieve(ctx, gw, models.MethodCheckout, session.Ref)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusSucceeded, got.Status)

	_, err = payments.Create(ctx, gw, models.PaymentMethod("wire"), order)
	assert.Error(t, err)
	_, err = payments.Retrieve(ctx, gw, models.PaymentMethod("wire"), intent.Ref)
	assert.Error(t, err)
}
