package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/internal/floor/domain/models"
)

// fakeStore is an in-memory entity store with real compare-and-swap
// semantics, so the lifecycle tests exercise the same conflict paths the
// Postgres adapter produces.
type fakeStore struct {
	mu       sync.Mutex
	orders   map[string]models.Order
	payments []models.Payment
	staff    map[string]models.Staff
	tables   map[string]models.Table
	menu     map[string]models.MenuItem

	// afterGet, when set, runs after every GetOrder. Tests use it to play
	// the concurrent writer that sneaks in between read and CAS.
	afterGet func(s *fakeStore, orderID string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: map[string]models.Order{},
		staff:  map[string]models.Staff{},
		tables: map[string]models.Table{},
		menu:   map[string]models.MenuItem{},
	}
}

func (s *fakeStore) GetOrder(_ context.Context, id string) (models.Order, error) {
	s.mu.Lock()
	order, ok := s.orders[id]
	s.mu.Unlock()
	if !ok {
		return models.Order{}, fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	if s.afterGet != nil {
		s.afterGet(s, id)
	}
	return order, nil
}

func (s *fakeStore) ListOrders(_ context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) CreateOrder(_ context.Context, order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *fakeStore) CompareAndSwapOrder(_ context.Context, order models.Order, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", order.ID, core.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return core.ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	s.orders[order.ID] = order
	return nil
}

// bumpVersion plays a concurrent writer winning a race.
func (s *fakeStore) bumpVersion(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[orderID]
	o.Version++
	s.orders[orderID] = o
}

func (s *fakeStore) RecordPayment(_ context.Context, payment models.Payment, order models.Order, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", order.ID, core.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return core.ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	s.orders[order.ID] = order
	s.payments = append(s.payments, payment)
	return nil
}

func (s *fakeStore) ListPayments(_ context.Context) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Payment, len(s.payments))
	copy(out, s.payments)
	return out, nil
}

func (s *fakeStore) ListPaymentsForOrder(_ context.Context, orderID string) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payment
	for _, p := range s.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) GetTable(_ context.Context, id string) (models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tables[id]
	if !ok {
		return models.Table{}, fmt.Errorf("table %s: %w", id, core.ErrNotFound)
	}
	return table, nil
}

func (s *fakeStore) ListTables(_ context.Context) ([]models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *fakeStore) UpdateTableStatus(_ context.Context, id string, status models.TableStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tables[id]
	if !ok {
		return fmt.Errorf("table %s: %w", id, core.ErrNotFound)
	}
	table.Status = status
	s.tables[id] = table
	return nil
}

func (s *fakeStore) GetStaff(_ context.Context, id string) (models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	staff, ok := s.staff[id]
	if !ok {
		return models.Staff{}, fmt.Errorf("staff %s: %w", id, core.ErrNotFound)
	}
	return staff, nil
}

func (s *fakeStore) GetStaffByEmail(_ context.Context, email string) (models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, staff := range s.staff {
		if staff.Email == email {
			return staff, nil
		}
	}
	return models.Staff{}, fmt.Errorf("staff %s: %w", email, core.ErrNotFound)
}

func (s *fakeStore) PutStaffMetrics(_ context.Context, staffID string, m models.StaffMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staff, ok := s.staff[staffID]
	if !ok {
		return fmt.Errorf("staff %s: %w", staffID, core.ErrNotFound)
	}
	snapshot := m
	staff.Metrics = &snapshot
	s.staff[staffID] = staff
	return nil
}

func (s *fakeStore) GetMenuItem(_ context.Context, id string) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.menu[id]
	if !ok {
		return models.MenuItem{}, fmt.Errorf("menu item %s: %w", id, core.ErrNotFound)
	}
	return item, nil
}

// fakePublisher records events instead of touching a broker.
type fakePublisher struct {
	mu     sync.Mutex
	events []dto.StatusChangedEvent
	fail   bool
}

func (p *fakePublisher) PublishStatusChanged(_ context.Context, event dto.StatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("broker down")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []dto.StatusChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]dto.StatusChangedEvent, len(p.events))
	copy(out, p.events)
	return out
}

var (
	_ core.OrderStore     = (*fakeStore)(nil)
	_ core.PaymentStore   = (*fakeStore)(nil)
	_ core.TableStore     = (*fakeStore)(nil)
	_ core.StaffStore     = (*fakeStore)(nil)
	_ core.MenuStore      = (*fakeStore)(nil)
	_ core.EventPublisher = (*fakePublisher)(nil)
)
