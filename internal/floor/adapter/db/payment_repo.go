package db

import (
	"context"
	"fmt"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

type PaymentRepo struct {
	db    *DB
	mylog logger.Logger
}

func NewPaymentRepo(db *DB, mylog logger.Logger) *PaymentRepo {
	return &PaymentRepo{db: db, mylog: mylog}
}

// RecordPayment inserts the settlement and applies the order's recomputed
// payment status in one transaction. The order update is version-guarded:
// if the order moved since it was read, nothing commits and the caller
// retries with fresh state.
func (r *PaymentRepo) RecordPayment(ctx context.Context, payment models.Payment, order models.Order, expectedVersion int64) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		cmdTag, err := tx.Exec(ctx, `
			UPDATE orders SET payment_status = $1, updated_at = $2, version = version + 1
			WHERE id = $3 AND version = $4`,
			order.PaymentStatus, order.UpdatedAt, order.ID, expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update order payment status: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return core.ErrVersionConflict
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO payments (id, order_id, amount, method, status, tip, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			payment.ID, payment.OrderID, payment.Amount, payment.Method,
			payment.Status, payment.Tip, payment.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		return tx.Commit(ctx)
	})
}

func (r *PaymentRepo) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return r.list(ctx, `SELECT id, order_id, amount, method, status, tip, created_at
		FROM payments ORDER BY created_at, id`)
}

func (r *PaymentRepo) ListPaymentsForOrder(ctx context.Context, orderID string) ([]models.Payment, error) {
	return r.list(ctx, `SELECT id, order_id, amount, method, status, tip, created_at
		FROM payments WHERE order_id = $1 ORDER BY created_at, id`, orderID)
}

func (r *PaymentRepo) list(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	var payments []models.Payment
	err := withRetry(ctx, func() error {
		rows, err := r.db.Pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		payments = payments[:0]
		for rows.Next() {
			var p models.Payment
			if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.Tip, &p.CreatedAt); err != nil {
				return err
			}
			payments = append(payments, p)
		}
		return rows.Err()
	})
	return payments, err
}

var _ core.PaymentStore = (*PaymentRepo)(nil)
