package core

import (
	"context"

	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/internal/floor/domain/models"
)

// OrderStore is the entity-store surface for orders. CompareAndSwapOrder is
// the only write path for existing orders: it persists the given order only
// if the stored version still equals expectedVersion, otherwise it returns
// ErrVersionConflict and writes nothing.
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	CreateOrder(ctx context.Context, order models.Order) error
	CompareAndSwapOrder(ctx context.Context, order models.Order, expectedVersion int64) error
}

// PaymentStore persists settlement records. RecordPayment writes the payment
// and the order's updated payment status in one transaction, guarded by the
// order's version (both commit or neither does).
type PaymentStore interface {
	RecordPayment(ctx context.Context, payment models.Payment, order models.Order, expectedVersion int64) error
	ListPayments(ctx context.Context) ([]models.Payment, error)
	ListPaymentsForOrder(ctx context.Context, orderID string) ([]models.Payment, error)
}

type TableStore interface {
	GetTable(ctx context.Context, id string) (models.Table, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	UpdateTableStatus(ctx context.Context, id string, status models.TableStatus) error
}

type StaffStore interface {
	GetStaff(ctx context.Context, id string) (models.Staff, error)
	GetStaffByEmail(ctx context.Context, email string) (models.Staff, error)
	PutStaffMetrics(ctx context.Context, staffID string, m models.StaffMetrics) error
}

type MenuStore interface {
	GetMenuItem(ctx context.Context, id string) (models.MenuItem, error)
}

// EventPublisher pushes status-change events to the notification surface.
// Publish failures are logged by callers, never returned to the actor.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event dto.StatusChangedEvent) error
	Close() error
}

// MetricsCache is a best-effort read cache for staff metrics snapshots. A nil
// or unreachable cache degrades to store reads.
type MetricsCache interface {
	GetMetrics(ctx context.Context, staffID string) (*models.StaffMetrics, error)
	SetMetrics(ctx context.Context, staffID string, m models.StaffMetrics) error
}

// MetricsRefresher recomputes a staff member's snapshot from full history.
type MetricsRefresher interface {
	Refresh(ctx context.Context, staffID string) (models.StaffMetrics, error)
}
