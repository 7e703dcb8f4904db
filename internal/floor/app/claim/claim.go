// Package claim enforces at-most-one staff member per role per order. The
// claim check is a pure mutation of the in-memory order; the lifecycle
// service makes it atomic by persisting the result with a compare-and-swap,
// so a lost race surfaces as a version conflict rather than a silent
// last-writer-wins.
package claim

import (
	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/models"
)

// RoleForTarget maps a target status to the role whose assignment field gets
// claimed on entry. Entering preparing or ready claims kitchen, delivered
// claims waiter, paid claims cashier. Pending and cancelled claim nobody.
func RoleForTarget(to models.OrderStatus) (models.Role, bool) {
	switch to {
	case models.StatusPreparing, models.StatusReady:
		return models.RoleKitchen, true
	case models.StatusDelivered:
		return models.RoleWaiter, true
	case models.StatusPaid:
		return models.RoleCashier, true
	}
	return "", false
}

// Claim records staffID on the order's assignment field for the role. The
// field must be empty or already hold staffID; otherwise the claim fails with
// AlreadyClaimedError naming the current holder.
func Claim(order *models.Order, role models.Role, staffID string) error {
	current := order.Assignment(role)
	if current != nil && *current != staffID {
		return &core.AlreadyClaimedError{Role: role, HolderID: *current}
	}
	order.SetAssignment(role, staffID)
	return nil
}

// Override rewrites the assignment field regardless of the current holder.
// Reserved for the admin reassign operation.
func Override(order *models.Order, role models.Role, staffID string) {
	order.SetAssignment(role, staffID)
}
