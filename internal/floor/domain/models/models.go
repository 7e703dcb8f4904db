package models

import (
	"fmt"
	"time"
)

// Role identifies who is acting on an order. It is a closed set: anything
// outside the constants below fails ParseRole.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleKitchen  Role = "kitchen"
	RoleWaiter   Role = "waiter"
	RoleCashier  Role = "cashier"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleKitchen, RoleWaiter, RoleCashier, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// OrderStatus is the order lifecycle stage. The default policy moves it
// strictly forward: pending -> preparing -> ready -> delivered -> paid.
// Cancelled is terminal; cancelled orders are kept for audit, never deleted.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusPaid, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status: %q", s)
}

// Terminal reports whether no further transition can leave the status.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// PaymentStatus tracks settlement coverage independently of the lifecycle
// status.
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPartially PaymentStatus = "partially"
	PaymentPaid      PaymentStatus = "paid"
)

// PaymentState is the state of a single settlement attempt.
type PaymentState string

const (
	PaymentStateUnpaid PaymentState = "unpaid"
	PaymentStatePaid   PaymentState = "paid"
	PaymentStateFailed PaymentState = "failed"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodCard   PaymentMethod = "card"
	MethodWallet PaymentMethod = "wallet"
	MethodCrypto PaymentMethod = "crypto"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodCash, MethodCard, MethodWallet, MethodCrypto:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("unknown payment method: %q", s)
}

type TableStatus string

const (
	TableAvailable    TableStatus = "available"
	TableOccupied     TableStatus = "occupied"
	TableReserved     TableStatus = "reserved"
	TableOutOfService TableStatus = "out_of_service"
)

func ParseTableStatus(s string) (TableStatus, error) {
	switch TableStatus(s) {
	case TableAvailable, TableOccupied, TableReserved, TableOutOfService:
		return TableStatus(s), nil
	}
	return "", fmt.Errorf("unknown table status: %q", s)
}

// Order is one table's food/drink request batch. The staff assignment fields
// are each written at most once (admin override excepted); Total is frozen at
// creation time and never re-derived from menu prices.
type Order struct {
	ID             string        `json:"id"`
	TableID        string        `json:"table_id"`
	KitchenStaffID *string       `json:"kitchen_staff_id,omitempty"`
	WaiterStaffID  *string       `json:"waiter_staff_id,omitempty"`
	CashierStaffID *string       `json:"cashier_staff_id,omitempty"`
	Status         OrderStatus   `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Items          []OrderItem   `json:"items"`
	Total          float64       `json:"total"`
	HasComplaints  bool          `json:"has_complaints"`
	Version        int64         `json:"version"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
}

// Assignment returns the staff id recorded for the given role, or nil.
func (o *Order) Assignment(role Role) *string {
	switch role {
	case RoleKitchen:
		return o.KitchenStaffID
	case RoleWaiter:
		return o.WaiterStaffID
	case RoleCashier:
		return o.CashierStaffID
	}
	return nil
}

// SetAssignment writes the staff id for the given role. Callers enforce the
// write-once rule; this is the raw field access.
func (o *Order) SetAssignment(role Role, staffID string) {
	switch role {
	case RoleKitchen:
		o.KitchenStaffID = &staffID
	case RoleWaiter:
		o.WaiterStaffID = &staffID
	case RoleCashier:
		o.CashierStaffID = &staffID
	}
}

type OrderItem struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Notes      *string `json:"notes,omitempty"`
}

// Payment is one settlement attempt against an order. Several payments may
// reference the same order (split bills).
type Payment struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"order_id"`
	Amount    float64       `json:"amount"`
	Method    PaymentMethod `json:"method"`
	Status    PaymentState  `json:"status"`
	Tip       *float64      `json:"tip,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type Table struct {
	ID       string      `json:"id"`
	Number   int         `json:"number"`
	Capacity int         `json:"capacity"`
	Status   TableStatus `json:"status"`
}

type MenuItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

// Staff is a user account for floor personnel. Metrics is the derived
// performance snapshot, recomputed by the aggregator and never hand-edited.
type Staff struct {
	ID           string        `json:"id"`
	Role         Role          `json:"role"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Metrics      *StaffMetrics `json:"metrics,omitempty"`
	JoinedAt     time.Time     `json:"joined_at"`
	LastActive   time.Time     `json:"last_active"`
}

// StaffMetrics is the cumulative performance snapshot for one staff member.
// AvgServiceTime is in minutes; Rating is in [0,1].
type StaffMetrics struct {
	OrdersHandled  int                     `json:"orders_handled"`
	AvgServiceTime float64                 `json:"avg_service_time"`
	TotalSales     float64                 `json:"total_sales"`
	PaymentMethods *PaymentMethodBreakdown `json:"payment_methods,omitempty"`
	Rating         float64                 `json:"rating"`
}

type PaymentMethodBreakdown struct {
	Cash   int `json:"cash"`
	Card   int `json:"card"`
	Wallet int `json:"wallet"`
	Crypto int `json:"crypto"`
}
