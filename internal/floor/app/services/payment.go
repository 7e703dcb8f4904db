package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

// PaymentService records settlement attempts. A payment insert and the
// order's payment-status update commit in one store transaction, guarded by
// the order version, so coverage bookkeeping never drifts from the ledger.
type PaymentService struct {
	orders   core.OrderStore
	payments core.PaymentStore
	mylog    logger.Logger

	now   func() time.Time
	newID func() string
}

func NewPaymentService(orders core.OrderStore, payments core.PaymentStore, mylog logger.Logger) *PaymentService {
	return &PaymentService{
		orders:   orders,
		payments: payments,
		mylog:    mylog,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Record stores a settlement against an order and recomputes the order's
// payment status from the sum of paid settlements versus the frozen total.
func (s *PaymentService) Record(ctx context.Context, req dto.RecordPaymentRequest) (models.Payment, models.PaymentStatus, error) {
	mylog := s.mylog.Action("record_payment").With("order_id", req.OrderID)

	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		return models.Payment{}, "", fmt.Errorf("%w: %s", core.ErrInvalidPayment, err)
	}
	if req.Amount <= 0 {
		return models.Payment{}, "", fmt.Errorf("%w: amount must be positive, got %.2f", core.ErrInvalidPayment, req.Amount)
	}

	for attempt := 0; attempt < core.MaxTransitionAttempts; attempt++ {
		order, err := s.orders.GetOrder(ctx, req.OrderID)
		if err != nil {
			return models.Payment{}, "", err
		}
		if order.Status == models.StatusCancelled {
			return models.Payment{}, "", fmt.Errorf("%w: order %s is cancelled", core.ErrInvalidPayment, order.ID)
		}

		payment := models.Payment{
			ID:        s.newID(),
			OrderID:   order.ID,
			Amount:    req.Amount,
			Method:    method,
			Status:    models.PaymentStatePaid,
			Tip:       req.Tip,
			CreatedAt: s.now().UTC(),
		}

		recorded, err := s.payments.ListPaymentsForOrder(ctx, order.ID)
		if err != nil {
			return models.Payment{}, "", err
		}
		covered := payment.Amount
		for _, p := range recorded {
			if p.Status == models.PaymentStatePaid {
				covered += p.Amount
			}
		}

		expectedVersion := order.Version
		order.PaymentStatus = coverageStatus(covered, order.Total)
		order.UpdatedAt = payment.CreatedAt

		err = s.payments.RecordPayment(ctx, payment, order, expectedVersion)
		if errors.Is(err, core.ErrVersionConflict) {
			mylog.Debug("version conflict, retrying", "attempt", attempt+1)
			continue
		}
		if err != nil {
			mylog.Error("failed to record payment", err)
			return models.Payment{}, "", err
		}

		mylog.Info("payment recorded", "payment_id", payment.ID, "amount", payment.Amount, "payment_status", string(order.PaymentStatus))
		return payment, order.PaymentStatus, nil
	}

	return models.Payment{}, "", core.ErrConflict
}

func coverageStatus(covered, total float64) models.PaymentStatus {
	switch {
	case covered >= total:
		return models.PaymentPaid
	case covered > 0:
		return models.PaymentPartially
	default:
		return models.PaymentUnpaid
	}
}
