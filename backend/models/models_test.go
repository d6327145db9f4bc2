package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountedPrice(t *testing.T) {
	cases := []struct{ price, discount, want string }{
		{"50", "10", "45.00"},
		{"100", "20", "80.00"},
		{"19.99", "0", "19.99"},
		{"19.99", "100", "0.00"},
		{"10", "33.333", "6.67"},
		{"0.05", "50", "0.03"},
	}
	for _, tc := range cases {
		c := Course{Price: decimal.RequireFromString(tc.price), Discount: decimal.RequireFromString(tc.discount)}
		assert.Equal(t, tc.want, c.DiscountedPrice().StringFixed(2), "%s @ %s%%", tc.price, tc.discount)
	}
}

func TestCourseBeforeSaveRejectsBadPricing(t *testing.T) {
	c := Course{Price: decimal.NewFromInt(-1)}
	assert.Error(t, c.BeforeSave(nil))

	c = Course{Price: decimal.NewFromInt(10), Discount: decimal.NewFromInt(101)}
	assert.Error(t, c.BeforeSave(nil))

	c = Course{Price: decimal.NewFromInt(10), Discount: decimal.NewFromInt(100)}
	assert.NoError(t, c.BeforeSave(nil))
}

func TestPurchaseTransitions(t *testing.T) {
	now := time.Now()

	p := Purchase{Status: PurchasePending}
	changed, err := p.Transition(PurchaseCompleted, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, &now, p.CompletedAt)

	changed, err = p.Transition(PurchaseCompleted, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, now, *p.CompletedAt)

	_, err = p.Transition(PurchaseFailed, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	p = Purchase{Status: PurchasePending}
	changed, err = p.Transition(PurchaseFailed, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, p.CompletedAt)

	_, err = p.Transition(PurchaseCompleted, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = p.Transition(PurchasePending, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPurchaseBeforeSave(t *testing.T) {
	p := Purchase{Status: PurchasePending, Method: MethodIntent}
	assert.Error(t, p.BeforeSave(nil))

	p.PaymentRef = "pi_1"
	assert.NoError(t, p.BeforeSave(nil))

	p.Method = "wire"
	assert.Error(t, p.BeforeSave(nil))

	p = Purchase{Status: "refunded", Method: MethodIntent, PaymentRef: "pi_1"}
	assert.Error(t, p.BeforeSave(nil))
}

func TestProgressSetAndCompletion(t *testing.T) {
	var p CourseProgress
	assert.True(t, p.AddLecture("a"))
	assert.False(t, p.AddLecture("a"))
	assert.True(t, p.AddLecture("b"))
	assert.Len(t, p.CompletedLectures, 2)

	p.Recompute(2)
	assert.True(t, p.Completed)
	p.Recompute(3)
	assert.False(t, p.Completed)
	p.Recompute(0)
	assert.False(t, p.Completed)
}

func TestChangeRole(t *testing.T) {
	u := User{Role: RoleStudent}
	changed, err := u.ChangeRole(RoleStudent)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = u.ChangeRole(RoleEducator)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, u.IsEducator())

	_, err = u.ChangeRole(RoleStudent)
	assert.ErrorIs(t, err, ErrRoleDowngrade)

	_, err = u.ChangeRole("admin")
	assert.Error(t, err)
}

func TestValidRating(t *testing.T) {
	for r := MinRating; r <= MaxRating; r++ {
		assert.True(t, ValidRating(r))
	}
	assert.False(t, ValidRating(0))
	assert.False(t, ValidRating(6))
}
