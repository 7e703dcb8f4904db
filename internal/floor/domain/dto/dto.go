package dto

import (
	"time"

	"whos-got-my-order/internal/floor/domain/models"
)

type CreateOrderRequest struct {
	TableID string             `json:"table_id"`
	Items   []OrderItemRequest `json:"items"`
}

type OrderItemRequest struct {
	MenuItemID string  `json:"menu_item_id"`
	Quantity   int     `json:"quantity"`
	Notes      *string `json:"notes,omitempty"`
}

type CreateOrderResponse struct {
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
	Total   float64            `json:"total"`
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type ReassignRequest struct {
	Role    string `json:"role"`
	StaffID string `json:"staff_id"`
}

type RecordPaymentRequest struct {
	OrderID string   `json:"order_id"`
	Amount  float64  `json:"amount"`
	Method  string   `json:"method"`
	Tip     *float64 `json:"tip,omitempty"`
}

type RecordPaymentResponse struct {
	PaymentID     string               `json:"payment_id"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

type UpdateTableRequest struct {
	Status string `json:"status"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
}

// StatusChangedEvent is published on every successful transition. The
// notification subscriber fans it out to role-targeted alerts.
type StatusChangedEvent struct {
	OrderID    string             `json:"order_id"`
	FromStatus models.OrderStatus `json:"from_status"`
	ToStatus   models.OrderStatus `json:"to_status"`
	ActorID    string             `json:"actor_id"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
