package core

import (
	"errors"
	"fmt"

	"whos-got-my-order/internal/floor/domain/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrVersionConflict  = errors.New("record changed since it was read")
	ErrConflict         = errors.New("too much contention, re-fetch and retry")
	ErrForbidden        = errors.New("role may not act on order status")
	ErrStoreUnavailable = errors.New("entity store unavailable")

	ErrTableNotOccupied = errors.New("table is not occupied")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrItemUnavailable  = errors.New("menu item unavailable")
	ErrInvalidPayment   = errors.New("invalid payment")
)

// InvalidTransitionError is a policy rejection. It carries enough context for
// the UI to explain why the action failed, not just that it failed.
type InvalidTransitionError struct {
	From   models.OrderStatus
	To     models.OrderStatus
	Role   models.Role
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s -> %s for role %s: %s", e.From, e.To, e.Role, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s -> %s for role %s", e.From, e.To, e.Role)
}

// AlreadyClaimedError names the staff member that currently holds the role on
// the order, so the caller can explain who got there first.
type AlreadyClaimedError struct {
	Role     models.Role
	HolderID string
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("order already claimed for role %s by %s", e.Role, e.HolderID)
}
