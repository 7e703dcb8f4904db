package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

type testEnv struct {
	store     *fakeStore
	publisher *fakePublisher
	lifecycle *LifecycleService
	payments  *PaymentService
	metrics   *MetricsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	publisher := &fakePublisher{}
	mylog := logger.Discard()

	metrics := NewMetricsService(store, store, store, nil, mylog)
	lifecycle := NewLifecycleService(store, store, store, store, publisher, metrics, mylog)
	payments := NewPaymentService(store, store, mylog)

	// deterministic side effects in tests: refresh inline
	lifecycle.refreshAsync = func(staffID string) {
		_, _ = metrics.Refresh(context.Background(), staffID)
	}

	store.tables["t1"] = models.Table{ID: "t1", Number: 1, Capacity: 4, Status: models.TableOccupied}
	store.tables["t2"] = models.Table{ID: "t2", Number: 2, Capacity: 2, Status: models.TableAvailable}
	store.menu["m1"] = models.MenuItem{ID: "m1", Name: "Margherita", Price: 12.5, Available: true}
	store.menu["m2"] = models.MenuItem{ID: "m2", Name: "Lemonade", Price: 4, Available: true}
	for _, st := range []models.Staff{
		{ID: "chef-a", Role: models.RoleKitchen, Name: "A", Email: "a@floor"},
		{ID: "chef-b", Role: models.RoleKitchen, Name: "B", Email: "b@floor"},
		{ID: "waiter-1", Role: models.RoleWaiter, Name: "W", Email: "w@floor"},
		{ID: "cashier-1", Role: models.RoleCashier, Name: "C", Email: "c@floor"},
		{ID: "admin-1", Role: models.RoleAdmin, Name: "Boss", Email: "boss@floor"},
	} {
		store.staff[st.ID] = st
	}

	return &testEnv{
		store:     store,
		publisher: publisher,
		lifecycle: lifecycle,
		payments:  payments,
		metrics:   metrics,
	}
}

func (e *testEnv) createOrder(t *testing.T) models.Order {
	t.Helper()
	order, err := e.lifecycle.Create(context.Background(), dto.CreateOrderRequest{
		TableID: "t1",
		Items: []dto.OrderItemRequest{
			{MenuItemID: "m1", Quantity: 2},
			{MenuItemID: "m2", Quantity: 1},
		},
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrderFreezesTotal(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, 29.0, order.Total) // 2*12.5 + 4

	// raising the menu price later must not touch the stored total
	env.store.menu["m1"] = models.MenuItem{ID: "m1", Name: "Margherita", Price: 99, Available: true}
	stored, err := env.store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 29.0, stored.Total)
}

func TestCreateOrderRejectsUnoccupiedTable(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.lifecycle.Create(context.Background(), dto.CreateOrderRequest{
		TableID: "t2",
		Items:   []dto.OrderItemRequest{{MenuItemID: "m1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, core.ErrTableNotOccupied)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.lifecycle.Create(context.Background(), dto.CreateOrderRequest{TableID: "t1"})
	assert.ErrorIs(t, err, core.ErrEmptyOrder)
}

// Kitchen staff A claims the order; B can neither repeat the transition nor
// take over the preparation.
func TestKitchenClaimExclusivity(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	moved, err := env.lifecycle.Transition(ctx, order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	require.NoError(t, err)
	require.NotNil(t, moved.KitchenStaffID)
	assert.Equal(t, "chef-a", *moved.KitchenStaffID)

	// the same request from B arrives after A won: the order already moved
	_, err = env.lifecycle.Transition(ctx, order.ID, models.StatusPreparing, "chef-b", models.RoleKitchen)
	var invalid *core.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.StatusPreparing, invalid.From)

	// B tries to finish A's preparation: rejected naming A
	_, err = env.lifecycle.Transition(ctx, order.ID, models.StatusReady, "chef-b", models.RoleKitchen)
	var claimed *core.AlreadyClaimedError
	require.ErrorAs(t, err, &claimed)
	assert.Equal(t, "chef-a", claimed.HolderID)
	assert.Equal(t, models.RoleKitchen, claimed.Role)

	// A finishes normally
	moved, err = env.lifecycle.Transition(ctx, order.ID, models.StatusReady, "chef-a", models.RoleKitchen)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, moved.Status)
	require.NotNil(t, moved.CompletedAt)
}

func TestWaiterCannotDeliverPreparingOrder(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	_, err := env.lifecycle.Transition(ctx, order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	require.NoError(t, err)

	_, err = env.lifecycle.Transition(ctx, order.ID, models.StatusDelivered, "waiter-1", models.RoleWaiter)
	var invalid *core.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.StatusPreparing, invalid.From)
	assert.Equal(t, models.RoleWaiter, invalid.Role)
}

func TestAdminSkipsStagesWithoutClaiming(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	moved, err := env.lifecycle.Transition(context.Background(), order.ID, models.StatusDelivered, "admin-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, moved.Status)
	assert.Nil(t, moved.KitchenStaffID)
	assert.Nil(t, moved.WaiterStaffID)
}

func TestCashierSettlement(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	_, err := env.lifecycle.Transition(ctx, order.ID, models.StatusDelivered, "admin-1", models.RoleAdmin)
	require.NoError(t, err)

	// settlement must cover the total before the order may be paid
	_, err = env.lifecycle.Transition(ctx, order.ID, models.StatusPaid, "cashier-1", models.RoleCashier)
	var invalid *core.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "do not cover")

	_, paymentStatus, err := env.payments.Record(ctx, dto.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  order.Total,
		Method:  "card",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paymentStatus)

	moved, err := env.lifecycle.Transition(ctx, order.ID, models.StatusPaid, "cashier-1", models.RoleCashier)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, moved.Status)
	assert.Equal(t, models.PaymentPaid, moved.PaymentStatus)
	require.NotNil(t, moved.CashierStaffID)
	assert.Equal(t, "cashier-1", *moved.CashierStaffID)
}

func TestPartialPaymentStatus(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	_, paymentStatus, err := env.payments.Record(ctx, dto.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  10,
		Method:  "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartially, paymentStatus)

	_, paymentStatus, err = env.payments.Record(ctx, dto.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  19,
		Method:  "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paymentStatus)
}

func TestRecordPaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	_, _, err := env.payments.Record(ctx, dto.RecordPaymentRequest{OrderID: order.ID, Amount: 0, Method: "cash"})
	assert.ErrorIs(t, err, core.ErrInvalidPayment)

	_, _, err = env.payments.Record(ctx, dto.RecordPaymentRequest{OrderID: order.ID, Amount: 5, Method: "barter"})
	assert.ErrorIs(t, err, core.ErrInvalidPayment)

	_, err = env.lifecycle.Cancel(ctx, order.ID, "waiter-1", models.RoleWaiter)
	require.NoError(t, err)
	_, _, err = env.payments.Record(ctx, dto.RecordPaymentRequest{OrderID: order.ID, Amount: 5, Method: "cash"})
	assert.ErrorIs(t, err, core.ErrInvalidPayment)
}

func TestTransitionNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.lifecycle.Transition(context.Background(), "missing", models.StatusPreparing, "chef-a", models.RoleKitchen)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCustomerCannotTransition(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	_, err := env.lifecycle.Transition(context.Background(), order.ID, models.StatusPreparing, "someone", models.RoleCustomer)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

// A concurrent writer bumps the version between read and CAS once; the
// bounded retry re-reads and wins on the second attempt.
func TestTransitionRetriesOnVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	raced := false
	env.store.afterGet = func(s *fakeStore, orderID string) {
		if !raced {
			raced = true
			s.bumpVersion(orderID)
		}
	}

	moved, err := env.lifecycle.Transition(context.Background(), order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, moved.Status)
	assert.True(t, raced)
}

// A writer that always wins the race exhausts the bounded retries.
func TestTransitionConflictExhaustion(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	env.store.afterGet = func(s *fakeStore, orderID string) {
		s.bumpVersion(orderID)
	}

	_, err := env.lifecycle.Transition(context.Background(), order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestCancelIsTerminalNotDeletion(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	cancelled, err := env.lifecycle.Cancel(ctx, order.ID, "waiter-1", models.RoleWaiter)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	// the record survives for audit
	stored, err := env.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)

	// and the table is released
	table, err := env.store.GetTable(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, table.Status)

	// terminal means terminal
	_, err = env.lifecycle.Transition(ctx, order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	var invalid *core.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestStatusChangedEventsPublished(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	_, err := env.lifecycle.Transition(ctx, order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	require.NoError(t, err)

	events := env.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, order.ID, events[0].OrderID)
	assert.Equal(t, models.StatusPending, events[0].FromStatus)
	assert.Equal(t, models.StatusPreparing, events[0].ToStatus)
	assert.Equal(t, "chef-a", events[0].ActorID)
}

// A broker outage must not fail the transition itself.
func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	env.publisher.fail = true

	moved, err := env.lifecycle.Transition(context.Background(), order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, moved.Status)
}

func TestMetricsRefreshedAfterTransition(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	_, err := env.lifecycle.Transition(ctx, order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	require.NoError(t, err)
	_, err = env.lifecycle.Transition(ctx, order.ID, models.StatusReady, "chef-a", models.RoleKitchen)
	require.NoError(t, err)

	staff, err := env.store.GetStaff(ctx, "chef-a")
	require.NoError(t, err)
	require.NotNil(t, staff.Metrics)
	assert.Equal(t, 1, staff.Metrics.OrdersHandled)
}

func TestReassignOverridesAssignment(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	_, err := env.lifecycle.Transition(ctx, order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	require.NoError(t, err)

	// only admins may override the write-once fields
	_, err = env.lifecycle.Reassign(ctx, order.ID, models.RoleKitchen, "chef-b", models.RoleKitchen)
	assert.ErrorIs(t, err, core.ErrForbidden)

	moved, err := env.lifecycle.Reassign(ctx, order.ID, models.RoleKitchen, "chef-b", models.RoleAdmin)
	require.NoError(t, err)
	require.NotNil(t, moved.KitchenStaffID)
	assert.Equal(t, "chef-b", *moved.KitchenStaffID)
}

func TestFlagComplaint(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)
	ctx := context.Background()

	_, err := env.lifecycle.FlagComplaint(ctx, order.ID, models.RoleKitchen)
	assert.ErrorIs(t, err, core.ErrForbidden)

	flagged, err := env.lifecycle.FlagComplaint(ctx, order.ID, models.RoleWaiter)
	require.NoError(t, err)
	assert.True(t, flagged.HasComplaints)
}

func TestUpdatedAtAdvancesOnTransition(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t)

	base := order.UpdatedAt
	env.lifecycle.now = func() time.Time { return base.Add(7 * time.Minute) }

	moved, err := env.lifecycle.Transition(context.Background(), order.ID, models.StatusPreparing, "chef-a", models.RoleKitchen)
	require.NoError(t, err)
	assert.Equal(t, base.Add(7*time.Minute), moved.UpdatedAt)
	assert.Equal(t, base, moved.CreatedAt)
}
