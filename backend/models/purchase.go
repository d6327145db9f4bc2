package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// PaymentMethod records which gateway object backs a purchase.
type PaymentMethod string

const (
	MethodIntent   PaymentMethod = "intent"
	MethodCheckout PaymentMethod = "checkout"
)

var ErrInvalidTransition = errors.New("invalid purchase status transition")

type Purchase struct {
	Base
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"course_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status      PurchaseStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	Method      PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentRef  string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"payment_ref"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func (s PurchaseStatus) Terminal() bool {
	return s == PurchaseCompleted || s == PurchaseFailed
}

// Transition moves the purchase to the target status. Only pending -> completed
// and pending -> failed change anything; repeating the current status is a
// no-op and any other edge is ErrInvalidTransition.
func (p *Purchase) Transition(to PurchaseStatus, at time.Time) (bool, error) {
	if p.Status == to {
		return false, nil
	}
	if p.Status != PurchasePending || !to.Terminal() {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}
	p.Status = to
	if to == PurchaseCompleted {
		p.CompletedAt = &at
	}
	return true, nil
}

func (p *Purchase) BeforeSave(tx *gorm.DB) error {
	switch p.Status {
	case PurchasePending, PurchaseCompleted, PurchaseFailed:
	default:
		return fmt.Errorf("unknown purchase status %q", p.Status)
	}
	switch p.Method {
	case MethodIntent, MethodCheckout:
	default:
		return fmt.Errorf("unknown payment method %q", p.Method)
	}
	if p.Status == PurchasePending && p.PaymentRef == "" {
		return errors.New("pending purchase requires a payment reference")
	}
	if p.Amount.IsNegative() {
		return errors.New("purchase amount must not be negative")
	}
	return nil
}
