package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/payments"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type ReconcileResult struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
	Errors    int `json:"errors"`
}

// Reconcile re-verifies pending purchases older than the stale threshold and settles
// them the same way an explicit completion would. Rows whose gateway lookup
// fails stay pending for the next pass.
func (s *EnrollmentService) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	var stale []models.Purchase
	cutoff := s.now().Add(-s.staleAfter)
	if err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PurchasePending, cutoff).
		Order("created_at ASC").
		Find(&stale).Error; err != nil {
		return result, fmt.Errorf("list pending purchases: %w", err)
	}

	for i := range stale {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		p := &stale[i]
		result.Checked++
		log := s.log.With(zap.String("payment_ref", p.PaymentRef))

		status, err := s.gatewayStatus(ctx, p)
		if err != nil {
			result.Errors++
			continue
		}

		switch status {
		case payments.StatusSucceeded:
			err = s.complete(ctx, p.PaymentRef, nil, nil)
			if err == nil {
				result.Completed++
			}
		case payments.StatusFailed:
			err = s.fail(ctx, p.PaymentRef)
			if err == nil {
				result.Failed++
			}
		default:
			result.Pending++
		}
		if err != nil && !errors.Is(err, ErrPurchaseClosed) {
			log.Error("reconcile purchase failed", zap.Error(err))
			result.Errors++
		}
	}

	s.log.Info("reconcile pass finished",
		zap.Int("checked", result.Checked),
		zap.Int("completed", result.Completed),
		zap.Int("failed", result.Failed),
		zap.Int("pending", result.Pending),
		zap.Int("errors", result.Errors))
	return result, nil
}

// StartReconciler runs Reconcile on a cron schedule until the returned cron
// is stopped.
func StartReconciler(svc *EnrollmentService, schedule string, timeout time.Duration, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := svc.Reconcile(ctx); err != nil {
			log.Error("scheduled reconcile failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reconciler %q: %w", schedule, err)
	}
	c.Start()
	log.Info("reconciler scheduled", zap.String("schedule", schedule))
	return c, nil
}
