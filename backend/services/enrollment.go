package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursemarket/backend/config"
	"coursemarket/backend/models"
	"coursemarket/backend/payments"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Checkout is what the client needs to finish paying for a purchase.
type Checkout struct {
	PurchaseID   uuid.UUID            `json:"purchase_id"`
	PaymentRef   string               `json:"payment_ref"`
	Method       models.PaymentMethod `json:"payment_method"`
	ClientSecret string               `json:"client_secret,omitempty"`
	CheckoutURL  string               `json:"checkout_url,omitempty"`
	Amount       string               `json:"amount"`
	Currency     string               `json:"currency"`
}

type EnrollmentService struct {
	db       *gorm.DB
	gateway  payments.Gateway
	currency string
	timeout  time.Duration

	// staleAfter is how old a pending purchase must be before Reconcile
	// looks at it.
	staleAfter time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewEnrollmentService(db *gorm.DB, gateway payments.Gateway, cfg *config.Config, log *zap.Logger) *EnrollmentService {
	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EnrollmentService{
		db:         db,
		gateway:    gateway,
		currency:   cfg.Currency,
		timeout:    timeout,
		staleAfter: cfg.ReconcileStaleAfter,
		log:        log.Named("enrollment"),
		now:        time.Now,
	}
}

// BeginPurchase asks the gateway for a payment object and records a pending
// purchase for it. Nothing is written when the gateway call fails.
func (s *EnrollmentService) BeginPurchase(ctx context.Context, userID, courseID uuid.UUID, method models.PaymentMethod) (*Checkout, error) {
	if method == "" {
		method = models.MethodIntent
	}
	if method != models.MethodIntent && method != models.MethodCheckout {
		return nil, ErrInvalidMethod
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Select("id").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	course, err := findPublishedCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	enrolled, err := isEnrolled(db, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	exp := payments.Exponent(s.currency)
	amount := course.DiscountedPrice().Round(exp)
	if !amount.IsPositive() {
		return nil, ErrFreeCourse
	}

	order := payments.Order{
		UserID:      userID,
		CourseID:    courseID,
		CourseTitle: course.Title,
		Amount:      amount,
		Currency:    s.currency,
	}
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	payment, err := payments.Create(gctx, s.gateway, method, order)
	cancel()
	if err != nil {
		s.log.Error("gateway create failed",
			zap.String("user_id", userID.String()),
			zap.String("course_id", courseID.String()),
			zap.String("method", string(method)),
			zap.Error(err))
		return nil, ErrGateway.Wrap(err)
	}

	purchase := models.Purchase{
		UserID:     userID,
		CourseID:   courseID,
		Amount:     amount,
		Currency:   s.currency,
		Status:     models.PurchasePending,
		Method:     method,
		PaymentRef: payment.Ref,
	}
	if err := db.Create(&purchase).Error; err != nil {
		s.log.Error("persist purchase failed", zap.String("payment_ref", payment.Ref), zap.Error(err))
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	s.log.Info("purchase started",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("payment_ref", payment.Ref),
		zap.String("amount", amount.StringFixed(exp)))

	return &Checkout{
		PurchaseID:   purchase.ID,
		PaymentRef:   payment.Ref,
		Method:       method,
		ClientSecret: payment.ClientSecret,
		CheckoutURL:  payment.CheckoutURL,
		Amount:       amount.StringFixed(exp),
		Currency:     s.currency,
	}, nil
}

// CompletePurchase settles a payment-intent purchase after the client reports
// success. The gateway is re-queried; the client's word is never enough.
func (s *EnrollmentService) CompletePurchase(ctx context.Context, userID, courseID uuid.UUID, paymentRef string) error {
	return s.settle(ctx, userID, courseID, paymentRef)
}

// VerifySession is the checkout-session flavour of CompletePurchase used by
// the redirect flow.
func (s *EnrollmentService) VerifySession(ctx context.Context, userID, courseID uuid.UUID, sessionID string) error {
	return s.settle(ctx, userID, courseID, sessionID)
}

func (s *EnrollmentService) settle(ctx context.Context, userID, courseID uuid.UUID, ref string) error {
	if ref == "" {
		return ErrMissingReference
	}

	purchase, err := s.findOwnedPurchase(s.db.WithContext(ctx), "payment_ref = ?", ref, userID, courseID)
	if err != nil {
		return err
	}
	switch purchase.Status {
	case models.PurchaseCompleted:
		return nil
	case models.PurchaseFailed:
		return ErrPurchaseClosed
	}

	status, err := s.gatewayStatus(ctx, purchase)
	if err != nil {
		return err
	}
	switch status {
	case payments.StatusSucceeded:
		return s.complete(ctx, ref, &userID, &courseID)
	case payments.StatusFailed:
		if err := s.fail(ctx, ref); err != nil && !errors.Is(err, ErrPurchaseClosed) {
			return err
		}
		return ErrPaymentNotCompleted
	default:
		return ErrPaymentNotCompleted
	}
}

// CancelPurchase voids the gateway object of a pending purchase and marks it
// failed. Cancelling an already failed purchase is a no-op.
func (s *EnrollmentService) CancelPurchase(ctx context.Context, userID, purchaseID uuid.UUID) error {
	var purchase models.Purchase
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", purchaseID, userID).First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPurchaseNotFound
	}
	if err != nil {
		return fmt.Errorf("load purchase: %w", err)
	}
	switch purchase.Status {
	case models.PurchaseFailed:
		return nil
	case models.PurchaseCompleted:
		return ErrPurchaseClosed
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	err = payments.Cancel(gctx, s.gateway, purchase.Method, purchase.PaymentRef)
	cancel()
	if err != nil {
		s.log.Error("gateway cancel failed", zap.String("payment_ref", purchase.PaymentRef), zap.Error(err))
		return ErrGateway.Wrap(err)
	}
	return s.fail(ctx, purchase.PaymentRef)
}

// EnrollFree grants a published course whose discounted price is zero.
// Repeating the call is harmless.
func (s *EnrollmentService) EnrollFree(ctx context.Context, userID, courseID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	course, err := findPublishedCourse(db, courseID)
	if err != nil {
		return err
	}
	if course.DiscountedPrice().IsPositive() {
		return ErrPaidCourse
	}
	row := models.UserCourse{UserID: userID, CourseID: courseID, EnrolledAt: s.now()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

// HandleWebhook applies a signed gateway event. Both success and failure
// events are re-verified with the gateway before the purchase changes state.
func (s *EnrollmentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			return ErrInvalidSignature.Wrap(err)
		}
		return ErrInvalidEvent.Wrap(err)
	}
	if evt.Type == payments.EventIgnored {
		return nil
	}

	log := s.log.With(zap.String("event_id", evt.ID), zap.String("payment_ref", evt.Ref))
	var purchase models.Purchase
	err = s.db.WithContext(ctx).Where("payment_ref = ?", evt.Ref).First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info("webhook for unknown payment ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load purchase: %w", err)
	}

	switch evt.Type {
	case payments.EventPaymentSucceeded:
		if purchase.Status == models.PurchaseCompleted {
			return nil
		}
		status, err := s.gatewayStatus(ctx, &purchase)
		if err != nil {
			return err
		}
		if status != payments.StatusSucceeded {
			log.Warn("webhook success not confirmed by gateway", zap.String("status", string(status)))
			return nil
		}
		err = s.complete(ctx, purchase.PaymentRef, nil, nil)
		if errors.Is(err, ErrPurchaseClosed) {
			log.Error("payment succeeded for a closed purchase")
			return nil
		}
		return err
	case payments.EventPaymentFailed:
		if purchase.Status != models.PurchasePending {
			return nil
		}
		status, err := s.gatewayStatus(ctx, &purchase)
		if err != nil {
			return err
		}
		if status != payments.StatusFailed {
			// A declined attempt leaves the payment open for a retry.
			log.Info("webhook failure not terminal at gateway", zap.String("status", string(status)))
			return nil
		}
		if err := s.fail(ctx, purchase.PaymentRef); err != nil && !errors.Is(err, ErrPurchaseClosed) {
			return err
		}
		return nil
	}
	return nil
}

func (s *EnrollmentService) findOwnedPurchase(db *gorm.DB, cond string, arg interface{}, userID, courseID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := db.Where(cond, arg).First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load purchase: %w", err)
	}
	if purchase.UserID != userID || purchase.CourseID != courseID {
		return nil, ErrPurchaseNotFound
	}
	return &purchase, nil
}

func (s *EnrollmentService) gatewayStatus(ctx context.Context, purchase *models.Purchase) (payments.Status, error) {
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	payment, err := payments.Retrieve(gctx, s.gateway, purchase.Method, purchase.PaymentRef)
	if err != nil {
		s.log.Error("gateway retrieve failed", zap.String("payment_ref", purchase.PaymentRef), zap.Error(err))
		return "", ErrGateway.Wrap(err)
	}
	return payment.Status, nil
}

// complete marks the purchase completed and inserts the enrollment in one
// transaction. When userID/courseID are given the purchase must belong to
// them.
func (s *EnrollmentService) complete(ctx context.Context, ref string, userID, courseID *uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var purchase models.Purchase
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_ref = ?", ref).
			First(&purchase).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPurchaseNotFound
		}
		if err != nil {
			return fmt.Errorf("lock purchase: %w", err)
		}
		if (userID != nil && purchase.UserID != *userID) || (courseID != nil && purchase.CourseID != *courseID) {
			return ErrPurchaseNotFound
		}

		now := s.now()
		changed, err := purchase.Transition(models.PurchaseCompleted, now)
		if err != nil {
			return ErrPurchaseClosed.Wrap(err)
		}
		if changed {
			if err := tx.Save(&purchase).Error; err != nil {
				return fmt.Errorf("save purchase: %w", err)
			}
		}

		row := models.UserCourse{UserID: purchase.UserID, CourseID: purchase.CourseID, EnrolledAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("enroll: %w", err)
		}
		if changed {
			s.log.Info("purchase completed",
				zap.String("purchase_id", purchase.ID.String()),
				zap.String("payment_ref", ref))
		}
		return nil
	})
}

func (s *EnrollmentService) fail(ctx context.Context, ref string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var purchase models.Purchase
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_ref = ?", ref).
			First(&purchase).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPurchaseNotFound
		}
		if err != nil {
			return fmt.Errorf("lock purchase: %w", err)
		}
		changed, err := purchase.Transition(models.PurchaseFailed, s.now())
		if err != nil {
			return ErrPurchaseClosed.Wrap(err)
		}
		if !changed {
			return nil
		}
		s.log.Info("purchase failed", zap.String("purchase_id", purchase.ID.String()), zap.String("payment_ref", ref))
		return tx.Save(&purchase).Error
	})
}
