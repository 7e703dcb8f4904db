package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

type OrderRepo struct {
	db    *DB
	mylog logger.Logger
}

func NewOrderRepo(db *DB, mylog logger.Logger) *OrderRepo {
	return &OrderRepo{db: db, mylog: mylog}
}

const orderColumns = `id, table_id, kitchen_staff_id, waiter_staff_id, cashier_staff_id,
	status, payment_status, total, has_complaints, version, created_at, updated_at, completed_at`

func (r *OrderRepo) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := withRetry(ctx, func() error {
		row := r.db.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
		o, err := scanOrder(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return err
		}
		o.Items, err = r.loadItems(ctx, o.ID)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	return order, err
}

func (r *OrderRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := withRetry(ctx, func() error {
		rows, err := r.db.Pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at, id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		orders = orders[:0]
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			orders = append(orders, o)
		}
		return rows.Err()
	})
	return orders, err
}

// CreateOrder inserts the order and its items in one transaction.
func (r *OrderRepo) CreateOrder(ctx context.Context, order models.Order) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx, `
			INSERT INTO orders (id, table_id, status, payment_status, total, has_complaints, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			order.ID, order.TableID, order.Status, order.PaymentStatus,
			order.Total, order.HasComplaints, order.Version, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, item := range order.Items {
			_, err = tx.Exec(ctx, `
				INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price, notes)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				order.ID, item.MenuItemID, item.Name, item.Quantity, item.UnitPrice, item.Notes,
			)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
			VALUES ($1, $2, $3, $4)`,
			order.ID, order.Status, "ordering-flow", order.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert status log: %w", err)
		}

		return tx.Commit(ctx)
	})
}

// CompareAndSwapOrder persists the order only if the stored version still
// equals expectedVersion, bumping the version and appending to the status
// log in the same transaction. A stale version returns ErrVersionConflict so
// the caller re-reads and retries; nothing is ever silently overwritten.
func (r *OrderRepo) CompareAndSwapOrder(ctx context.Context, order models.Order, expectedVersion int64) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		cmdTag, err := tx.Exec(ctx, `
			UPDATE orders SET
				kitchen_staff_id = $1,
				waiter_staff_id = $2,
				cashier_staff_id = $3,
				status = $4,
				payment_status = $5,
				has_complaints = $6,
				updated_at = $7,
				completed_at = $8,
				version = version + 1
			WHERE id = $9 AND version = $10`,
			order.KitchenStaffID, order.WaiterStaffID, order.CashierStaffID,
			order.Status, order.PaymentStatus, order.HasComplaints,
			order.UpdatedAt, order.CompletedAt,
			order.ID, expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			// either the order vanished or someone moved it first
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("order %s: %w", order.ID, core.ErrNotFound)
			}
			return core.ErrVersionConflict
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
			VALUES ($1, $2, $3, $4)`,
			order.ID, order.Status, changedBy(order), order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert status log: %w", err)
		}

		return tx.Commit(ctx)
	})
}

func (r *OrderRepo) loadItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT menu_item_id, name, quantity, unit_price, notes
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.MenuItemID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Notes); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.TableID, &o.KitchenStaffID, &o.WaiterStaffID, &o.CashierStaffID,
		&o.Status, &o.PaymentStatus, &o.Total, &o.HasComplaints, &o.Version,
		&o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
	)
	return o, err
}

// changedBy picks the staff id responsible for the status now on the order,
// for the audit log row.
func changedBy(order models.Order) string {
	var assigned *string
	switch order.Status {
	case models.StatusPreparing, models.StatusReady:
		assigned = order.KitchenStaffID
	case models.StatusDelivered:
		assigned = order.WaiterStaffID
	case models.StatusPaid:
		assigned = order.CashierStaffID
	}
	if assigned != nil {
		return *assigned
	}
	return "admin"
}

var _ core.OrderStore = (*OrderRepo)(nil)
