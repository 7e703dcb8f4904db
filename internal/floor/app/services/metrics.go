package services

import (
	"context"
	"sort"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

// Rating weights and per-role targets. The three sub-scores weigh 4+3+3 and
// the sum is normalized to [0,1].
const (
	speedWeight   = 4.0
	volumeWeight  = 3.0
	qualityWeight = 3.0
)

func targetServiceTime(role models.Role) float64 {
	switch role {
	case models.RoleKitchen:
		return 30
	case models.RoleCashier:
		return 5
	default:
		return 15
	}
}

func targetVolume(role models.Role) float64 {
	switch role {
	case models.RoleKitchen:
		return 30
	case models.RoleCashier:
		return 40
	default:
		return 20
	}
}

// MetricsService recomputes staff performance snapshots from the full
// order/payment history. Snapshots are derived data: safe to recompute at any
// time, idempotent, never hand-edited. Cancelled orders are excluded from
// every numerator and denominator.
type MetricsService struct {
	orders   core.OrderStore
	payments core.PaymentStore
	staff    core.StaffStore
	cache    core.MetricsCache
	mylog    logger.Logger
}

func NewMetricsService(
	orders core.OrderStore,
	payments core.PaymentStore,
	staff core.StaffStore,
	cache core.MetricsCache,
	mylog logger.Logger,
) *MetricsService {
	return &MetricsService{
		orders:   orders,
		payments: payments,
		staff:    staff,
		cache:    cache,
		mylog:    mylog,
	}
}

// Refresh rebuilds the snapshot for one staff member, persists it on the
// staff record and refreshes the cache.
func (s *MetricsService) Refresh(ctx context.Context, staffID string) (models.StaffMetrics, error) {
	mylog := s.mylog.Action("refresh_metrics").With("staff_id", staffID)

	staff, err := s.staff.GetStaff(ctx, staffID)
	if err != nil {
		return models.StaffMetrics{}, err
	}

	var metrics models.StaffMetrics
	switch staff.Role {
	case models.RoleKitchen, models.RoleWaiter:
		metrics, err = s.serviceMetrics(ctx, staff)
	case models.RoleCashier:
		metrics, err = s.cashierMetrics(ctx, staff)
	default:
		// admins and customers have no performance snapshot
		metrics = models.StaffMetrics{}
	}
	if err != nil {
		return models.StaffMetrics{}, err
	}

	if err := s.staff.PutStaffMetrics(ctx, staffID, metrics); err != nil {
		mylog.Error("failed to persist metrics snapshot", err)
		return models.StaffMetrics{}, err
	}
	if s.cache != nil {
		if err := s.cache.SetMetrics(ctx, staffID, metrics); err != nil {
			mylog.Warn("failed to cache metrics snapshot", "error", err.Error())
		}
	}

	mylog.Debug("snapshot recomputed", "orders_handled", metrics.OrdersHandled, "rating", metrics.Rating)
	return metrics, nil
}

// Get returns the current snapshot, preferring the cache, falling back to
// the staff record, recomputing when neither has one.
func (s *MetricsService) Get(ctx context.Context, staffID string) (models.StaffMetrics, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetMetrics(ctx, staffID); err == nil && cached != nil {
			return *cached, nil
		}
	}
	staff, err := s.staff.GetStaff(ctx, staffID)
	if err != nil {
		return models.StaffMetrics{}, err
	}
	if staff.Metrics != nil {
		return *staff.Metrics, nil
	}
	return s.Refresh(ctx, staffID)
}

// serviceMetrics covers kitchen and waiter staff: orders where the role's
// assignment field names them and the status reached the role's completed
// set.
func (s *MetricsService) serviceMetrics(ctx context.Context, staff models.Staff) (models.StaffMetrics, error) {
	all, err := s.orders.ListOrders(ctx)
	if err != nil {
		return models.StaffMetrics{}, err
	}

	var completed []models.Order
	for _, o := range all {
		assigned := o.Assignment(staff.Role)
		if assigned == nil || *assigned != staff.ID {
			continue
		}
		if !statusCompletedFor(staff.Role, o.Status) {
			continue
		}
		completed = append(completed, o)
	}
	sortOrders(completed)

	totalMinutes := 0.0
	totalSales := 0.0
	withoutComplaints := 0
	for _, o := range completed {
		totalMinutes += o.UpdatedAt.Sub(o.CreatedAt).Minutes()
		totalSales += o.Total
		if !o.HasComplaints {
			withoutComplaints++
		}
	}

	handled := len(completed)
	avg := 0.0
	quality := 0.0
	if handled > 0 {
		avg = totalMinutes / float64(handled)
		quality = float64(withoutComplaints) / float64(handled)
	}

	return models.StaffMetrics{
		OrdersHandled:  handled,
		AvgServiceTime: avg,
		TotalSales:     totalSales,
		Rating:         rating(staff.Role, handled, avg, quality),
	}, nil
}

// cashierMetrics covers cashiers: paid settlements on orders whose cashier
// assignment names them. Duration runs from order creation to the payment.
func (s *MetricsService) cashierMetrics(ctx context.Context, staff models.Staff) (models.StaffMetrics, error) {
	allOrders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return models.StaffMetrics{}, err
	}
	allPayments, err := s.payments.ListPayments(ctx)
	if err != nil {
		return models.StaffMetrics{}, err
	}

	ordersByID := make(map[string]models.Order, len(allOrders))
	for _, o := range allOrders {
		ordersByID[o.ID] = o
	}

	var processed []models.Payment
	for _, p := range allPayments {
		if p.Status != models.PaymentStatePaid {
			continue
		}
		order, ok := ordersByID[p.OrderID]
		if !ok || order.Status == models.StatusCancelled {
			continue
		}
		if order.CashierStaffID == nil || *order.CashierStaffID != staff.ID {
			continue
		}
		processed = append(processed, p)
	}
	sort.Slice(processed, func(i, j int) bool {
		if !processed[i].CreatedAt.Equal(processed[j].CreatedAt) {
			return processed[i].CreatedAt.Before(processed[j].CreatedAt)
		}
		return processed[i].ID < processed[j].ID
	})

	totalSales := 0.0
	totalMinutes := 0.0
	timed := 0
	breakdown := models.PaymentMethodBreakdown{}
	seenOrders := make(map[string]bool)
	withoutComplaints := 0
	handledOrders := 0
	for _, p := range processed {
		totalSales += p.Amount
		if minutes := p.CreatedAt.Sub(ordersByID[p.OrderID].CreatedAt).Minutes(); minutes > 0 {
			totalMinutes += minutes
			timed++
		}
		switch p.Method {
		case models.MethodCash:
			breakdown.Cash++
		case models.MethodCard:
			breakdown.Card++
		case models.MethodWallet:
			breakdown.Wallet++
		case models.MethodCrypto:
			breakdown.Crypto++
		}
		if !seenOrders[p.OrderID] {
			seenOrders[p.OrderID] = true
			handledOrders++
			if !ordersByID[p.OrderID].HasComplaints {
				withoutComplaints++
			}
		}
	}

	handled := len(processed)
	avg := 0.0
	if timed > 0 {
		avg = totalMinutes / float64(timed)
	}
	quality := 0.0
	if handledOrders > 0 {
		quality = float64(withoutComplaints) / float64(handledOrders)
	}

	return models.StaffMetrics{
		OrdersHandled:  handled,
		AvgServiceTime: avg,
		TotalSales:     totalSales,
		PaymentMethods: &breakdown,
		Rating:         rating(staff.Role, handled, avg, quality),
	}, nil
}

// statusCompletedFor reports whether the status counts as completed work for
// the role.
func statusCompletedFor(role models.Role, status models.OrderStatus) bool {
	switch role {
	case models.RoleKitchen:
		return status == models.StatusReady || status == models.StatusDelivered || status == models.StatusPaid
	case models.RoleWaiter:
		return status == models.StatusDelivered || status == models.StatusPaid
	}
	return false
}

// rating combines the speed, volume and quality sub-scores into [0,1]. Every
// division short-circuits to 0 rather than producing Inf or NaN.
func rating(role models.Role, handled int, avgMinutes, qualityRate float64) float64 {
	speed := 0.0
	if avgMinutes > 0 {
		ratio := targetServiceTime(role) / avgMinutes
		if ratio > 1 {
			ratio = 1
		}
		speed = ratio * speedWeight
	}

	volumeRatio := float64(handled) / targetVolume(role)
	if volumeRatio > 1 {
		volumeRatio = 1
	}
	volume := volumeRatio * volumeWeight

	quality := qualityRate * qualityWeight

	return (speed + volume + quality) / (speedWeight + volumeWeight + qualityWeight)
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}

var _ core.MetricsRefresher = (*MetricsService)(nil)
