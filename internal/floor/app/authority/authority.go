// Package authority owns the order-status permission table. It is the single
// source of truth for which role may move an order between which statuses;
// no other code path decides transitions.
package authority

import (
	"whos-got-my-order/internal/floor/domain/models"
)

// permissions maps role -> current status -> allowed target statuses. The
// physical division of labor is encoded as data: kitchen cannot mark
// delivered, waiters cannot mark prepared. Admins may skip stages and cancel;
// waiters may cancel an order that nobody started on yet.
var permissions = map[models.Role]map[models.OrderStatus][]models.OrderStatus{
	models.RoleKitchen: {
		models.StatusPending:   {models.StatusPreparing},
		models.StatusPreparing: {models.StatusReady},
	},
	models.RoleWaiter: {
		models.StatusPending: {models.StatusCancelled},
		models.StatusReady:   {models.StatusDelivered},
	},
	models.RoleCashier: {
		models.StatusDelivered: {models.StatusPaid},
	},
	models.RoleAdmin: {
		models.StatusPending:   {models.StatusPreparing, models.StatusReady, models.StatusDelivered, models.StatusCancelled},
		models.StatusPreparing: {models.StatusReady, models.StatusDelivered, models.StatusCancelled},
		models.StatusReady:     {models.StatusDelivered, models.StatusCancelled},
		models.StatusDelivered: {models.StatusPaid},
	},
}

// CanTransition reports whether the role may move an order from one status to
// another. Any pair not present in the permission table is rejected.
func CanTransition(from, to models.OrderStatus, role models.Role) bool {
	for _, allowed := range permissions[role][from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// HasAuthority reports whether the role appears in the permission table at
// all. Roles with no entry (customers) can never transition anything.
func HasAuthority(role models.Role) bool {
	_, ok := permissions[role]
	return ok
}

// AllowedTargets lists the statuses the role may move the order to from its
// current status. Used to build user-facing rejection messages.
func AllowedTargets(from models.OrderStatus, role models.Role) []models.OrderStatus {
	targets := permissions[role][from]
	out := make([]models.OrderStatus, len(targets))
	copy(out, targets)
	return out
}
