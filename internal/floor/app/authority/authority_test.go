package authority

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"whos-got-my-order/internal/floor/domain/models"
)

var allStatuses = []models.OrderStatus{
	models.StatusPending,
	models.StatusPreparing,
	models.StatusReady,
	models.StatusDelivered,
	models.StatusPaid,
	models.StatusCancelled,
}

var allRoles = []models.Role{
	models.RoleCustomer,
	models.RoleKitchen,
	models.RoleWaiter,
	models.RoleCashier,
	models.RoleAdmin,
}

type pair struct {
	from, to models.OrderStatus
}

// allowedPairs mirrors the documented permission table, written out by hand
// so a table edit has to be made in two places on purpose.
var allowedPairs = map[models.Role][]pair{
	models.RoleKitchen: {
		{models.StatusPending, models.StatusPreparing},
		{models.StatusPreparing, models.StatusReady},
	},
	models.RoleWaiter: {
		{models.StatusReady, models.StatusDelivered},
		{models.StatusPending, models.StatusCancelled},
	},
	models.RoleCashier: {
		{models.StatusDelivered, models.StatusPaid},
	},
	models.RoleAdmin: {
		{models.StatusPending, models.StatusPreparing},
		{models.StatusPending, models.StatusReady},
		{models.StatusPending, models.StatusDelivered},
		{models.StatusPending, models.StatusCancelled},
		{models.StatusPreparing, models.StatusReady},
		{models.StatusPreparing, models.StatusDelivered},
		{models.StatusPreparing, models.StatusCancelled},
		{models.StatusReady, models.StatusDelivered},
		{models.StatusReady, models.StatusCancelled},
		{models.StatusDelivered, models.StatusPaid},
	},
}

func isAllowed(role models.Role, from, to models.OrderStatus) bool {
	for _, p := range allowedPairs[role] {
		if p.from == from && p.to == to {
			return true
		}
	}
	return false
}

// Every (role, from, to) triple outside the permission table must be
// rejected, including everything a customer might try.
func TestCanTransitionCompleteness(t *testing.T) {
	for _, role := range allRoles {
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				name := fmt.Sprintf("%s/%s->%s", role, from, to)
				t.Run(name, func(t *testing.T) {
					assert.Equal(t, isAllowed(role, from, to), CanTransition(from, to, role))
				})
			}
		}
	}
}

func TestWaiterCannotDeliverUnpreparedOrder(t *testing.T) {
	assert.False(t, CanTransition(models.StatusPreparing, models.StatusDelivered, models.RoleWaiter))
}

func TestAdminMaySkipStages(t *testing.T) {
	assert.True(t, CanTransition(models.StatusPending, models.StatusDelivered, models.RoleAdmin))
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, role := range allRoles {
		for _, to := range allStatuses {
			assert.False(t, CanTransition(models.StatusPaid, to, role), "paid must be terminal")
			assert.False(t, CanTransition(models.StatusCancelled, to, role), "cancelled must be terminal")
		}
	}
}

func TestHasAuthority(t *testing.T) {
	assert.False(t, HasAuthority(models.RoleCustomer))
	for _, role := range []models.Role{models.RoleKitchen, models.RoleWaiter, models.RoleCashier, models.RoleAdmin} {
		assert.True(t, HasAuthority(role))
	}
}

func TestAllowedTargets(t *testing.T) {
	targets := AllowedTargets(models.StatusPending, models.RoleAdmin)
	assert.ElementsMatch(t, []models.OrderStatus{
		models.StatusPreparing, models.StatusReady, models.StatusDelivered, models.StatusCancelled,
	}, targets)

	assert.Empty(t, AllowedTargets(models.StatusReady, models.RoleKitchen))
}
