package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"whos-got-my-order/internal/floor/app/authority"
	"whos-got-my-order/internal/floor/app/claim"
	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

// LifecycleService orchestrates every order mutation: creation, status
// transitions, cancellation, admin reassignment. All writes to existing
// orders go through the store's compare-and-swap, so concurrent actors on
// separate devices serialize per order without an in-process lock.
type LifecycleService struct {
	orders   core.OrderStore
	payments core.PaymentStore
	tables   core.TableStore
	menu     core.MenuStore
	events   core.EventPublisher
	metrics  core.MetricsRefresher
	mylog    logger.Logger

	now   func() time.Time
	newID func() string

	// refreshAsync triggers the post-transition metrics refresh. Swapped out
	// in tests to run synchronously.
	refreshAsync func(staffID string)
}

func NewLifecycleService(
	orders core.OrderStore,
	payments core.PaymentStore,
	tables core.TableStore,
	menu core.MenuStore,
	events core.EventPublisher,
	metrics core.MetricsRefresher,
	mylog logger.Logger,
) *LifecycleService {
	s := &LifecycleService{
		orders:   orders,
		payments: payments,
		tables:   tables,
		menu:     menu,
		events:   events,
		metrics:  metrics,
		mylog:    mylog,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	s.refreshAsync = s.fireAndForgetRefresh
	return s
}

// Create opens a new order for an occupied table. Item prices are read from
// the menu once, here; the resulting total is a frozen snapshot that later
// menu edits never touch.
func (s *LifecycleService) Create(ctx context.Context, req dto.CreateOrderRequest) (models.Order, error) {
	mylog := s.mylog.Action("create_order")

	table, err := s.tables.GetTable(ctx, req.TableID)
	if err != nil {
		return models.Order{}, fmt.Errorf("load table %s: %w", req.TableID, err)
	}
	if table.Status != models.TableOccupied {
		mylog.Warn("rejected order for unoccupied table", "table_id", table.ID, "table_status", string(table.Status))
		return models.Order{}, core.ErrTableNotOccupied
	}

	if len(req.Items) == 0 {
		return models.Order{}, core.ErrEmptyOrder
	}
	if len(req.Items) > core.MaxOrderItems {
		return models.Order{}, fmt.Errorf("order has %d items, limit is %d", len(req.Items), core.MaxOrderItems)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	total := 0.0
	for i, reqItem := range req.Items {
		if reqItem.Quantity < core.MinItemQuantity {
			return models.Order{}, fmt.Errorf("item %d: quantity must be at least %d", i+1, core.MinItemQuantity)
		}
		menuItem, err := s.menu.GetMenuItem(ctx, reqItem.MenuItemID)
		if err != nil {
			return models.Order{}, fmt.Errorf("load menu item %s: %w", reqItem.MenuItemID, err)
		}
		if !menuItem.Available {
			return models.Order{}, fmt.Errorf("%w: %s", core.ErrItemUnavailable, menuItem.Name)
		}
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   reqItem.Quantity,
			UnitPrice:  menuItem.Price,
			Notes:      reqItem.Notes,
		})
		total += menuItem.Price * float64(reqItem.Quantity)
	}

	now := s.now().UTC()
	order := models.Order{
		ID:            s.newID(),
		TableID:       table.ID,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
		Items:         items,
		Total:         total,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		mylog.Error("failed to persist order", err, "order_id", order.ID)
		return models.Order{}, err
	}

	mylog.Info("order created", "order_id", order.ID, "table_id", table.ID, "total", total)
	return order, nil
}

// Transition moves an order to the requested status on behalf of an actor.
// Authority and claim rejections are returned as typed errors with enough
// context to explain the refusal; version races retry a bounded number of
// times before surfacing ErrConflict.
func (s *LifecycleService) Transition(ctx context.Context, orderID string, to models.OrderStatus, actorID string, actorRole models.Role) (models.Order, error) {
	mylog := s.mylog.Action("transition").With("order_id", orderID, "to", string(to), "actor_id", actorID, "role", string(actorRole))

	if !authority.HasAuthority(actorRole) {
		mylog.Warn("actor role has no transition authority")
		return models.Order{}, core.ErrForbidden
	}

	for attempt := 0; attempt < core.MaxTransitionAttempts; attempt++ {
		order, err := s.orders.GetOrder(ctx, orderID)
		if err != nil {
			return models.Order{}, err
		}

		if !authority.CanTransition(order.Status, to, actorRole) {
			mylog.Warn("transition rejected by permission table", "from", string(order.Status))
			invalid := &core.InvalidTransitionError{From: order.Status, To: to, Role: actorRole}
			if targets := authority.AllowedTargets(order.Status, actorRole); len(targets) > 0 {
				invalid.Reason = fmt.Sprintf("role %s may move this order to %v", actorRole, targets)
			}
			return models.Order{}, invalid
		}

		if to == models.StatusPaid {
			if err := s.settleForPaid(ctx, &order, actorRole); err != nil {
				return models.Order{}, err
			}
		}

		// The role implied by the target status claims the order; admins
		// skip stages without taking an assignment field.
		if claimRole, ok := claim.RoleForTarget(to); ok && actorRole != models.RoleAdmin {
			if err := claim.Claim(&order, claimRole, actorID); err != nil {
				mylog.Warn("claim rejected", "claim_role", string(claimRole))
				return models.Order{}, err
			}
		}

		from := order.Status
		expectedVersion := order.Version
		now := s.now().UTC()
		order.Status = to
		order.UpdatedAt = now
		if to == models.StatusReady {
			order.CompletedAt = &now
		}

		err = s.orders.CompareAndSwapOrder(ctx, order, expectedVersion)
		if errors.Is(err, core.ErrVersionConflict) {
			mylog.Debug("version conflict, retrying", "attempt", attempt+1)
			continue
		}
		if err != nil {
			mylog.Error("failed to persist transition", err)
			return models.Order{}, err
		}
		order.Version = expectedVersion + 1

		s.afterTransition(order, from, to, actorID)
		mylog.Info("transition applied", "from", string(from))
		return order, nil
	}

	mylog.Warn("transition retries exhausted")
	return models.Order{}, core.ErrConflict
}

// Cancel marks the order cancelled. Cancellation is a terminal status, not a
// deletion: the record stays for audit and is excluded from metrics.
func (s *LifecycleService) Cancel(ctx context.Context, orderID, actorID string, actorRole models.Role) (models.Order, error) {
	return s.Transition(ctx, orderID, models.StatusCancelled, actorID, actorRole)
}

// Reassign is the admin override for the write-once assignment fields.
func (s *LifecycleService) Reassign(ctx context.Context, orderID string, role models.Role, staffID string, actorRole models.Role) (models.Order, error) {
	mylog := s.mylog.Action("reassign").With("order_id", orderID, "claim_role", string(role), "staff_id", staffID)

	if actorRole != models.RoleAdmin {
		return models.Order{}, core.ErrForbidden
	}
	switch role {
	case models.RoleKitchen, models.RoleWaiter, models.RoleCashier:
	default:
		return models.Order{}, fmt.Errorf("role %s has no assignment field", role)
	}

	for attempt := 0; attempt < core.MaxTransitionAttempts; attempt++ {
		order, err := s.orders.GetOrder(ctx, orderID)
		if err != nil {
			return models.Order{}, err
		}

		expectedVersion := order.Version
		claim.Override(&order, role, staffID)
		order.UpdatedAt = s.now().UTC()

		err = s.orders.CompareAndSwapOrder(ctx, order, expectedVersion)
		if errors.Is(err, core.ErrVersionConflict) {
			continue
		}
		if err != nil {
			mylog.Error("failed to persist reassignment", err)
			return models.Order{}, err
		}
		order.Version = expectedVersion + 1

		mylog.Info("assignment overridden")
		s.refreshAsync(staffID)
		return order, nil
	}
	return models.Order{}, core.ErrConflict
}

// FlagComplaint marks the order as complained-about, which feeds the quality
// sub-score. Waiters and admins may flag.
func (s *LifecycleService) FlagComplaint(ctx context.Context, orderID string, actorRole models.Role) (models.Order, error) {
	if actorRole != models.RoleAdmin && actorRole != models.RoleWaiter {
		return models.Order{}, core.ErrForbidden
	}

	for attempt := 0; attempt < core.MaxTransitionAttempts; attempt++ {
		order, err := s.orders.GetOrder(ctx, orderID)
		if err != nil {
			return models.Order{}, err
		}

		expectedVersion := order.Version
		order.HasComplaints = true
		order.UpdatedAt = s.now().UTC()

		err = s.orders.CompareAndSwapOrder(ctx, order, expectedVersion)
		if errors.Is(err, core.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return models.Order{}, err
		}
		order.Version = expectedVersion + 1
		return order, nil
	}
	return models.Order{}, core.ErrConflict
}

// settleForPaid verifies that recorded paid settlements cover the order total
// before the order may enter the paid status, and stamps the payment status.
func (s *LifecycleService) settleForPaid(ctx context.Context, order *models.Order, actorRole models.Role) error {
	recorded, err := s.payments.ListPaymentsForOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	covered := 0.0
	for _, p := range recorded {
		if p.Status == models.PaymentStatePaid {
			covered += p.Amount
		}
	}
	if covered < order.Total {
		return &core.InvalidTransitionError{
			From:   order.Status,
			To:     models.StatusPaid,
			Role:   actorRole,
			Reason: fmt.Sprintf("recorded payments %.2f do not cover total %.2f", covered, order.Total),
		}
	}
	order.PaymentStatus = models.PaymentPaid
	return nil
}

// afterTransition runs the best-effort side effects of a successful status
// change. Neither a publish failure nor a metrics failure may fail the
// transition itself.
func (s *LifecycleService) afterTransition(order models.Order, from, to models.OrderStatus, actorID string) {
	event := dto.StatusChangedEvent{
		OrderID:    order.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	}
	pubCtx, cancel := context.WithTimeout(context.Background(), core.PublishTimeout)
	defer cancel()
	if err := s.events.PublishStatusChanged(pubCtx, event); err != nil {
		s.mylog.Action("publish_status_changed_failed").Error("failed to publish status change", err, "order_id", order.ID)
	}

	if to.Terminal() {
		if err := s.tables.UpdateTableStatus(pubCtx, order.TableID, models.TableAvailable); err != nil {
			s.mylog.Action("release_table_failed").Error("failed to release table", err, "table_id", order.TableID)
		}
	}

	s.refreshAsync(actorID)
}

func (s *LifecycleService) fireAndForgetRefresh(staffID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), core.MetricsRefreshTimeout)
		defer cancel()
		if _, err := s.metrics.Refresh(ctx, staffID); err != nil {
			s.mylog.Action("metrics_refresh_failed").Error("failed to refresh staff metrics", err, "staff_id", staffID)
		}
	}()
}
