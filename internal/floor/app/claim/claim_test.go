package claim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/models"
)

func TestClaimEmptyField(t *testing.T) {
	order := &models.Order{ID: "o1", Status: models.StatusPending}

	err := Claim(order, models.RoleKitchen, "chef-a")
	require.NoError(t, err)
	require.NotNil(t, order.KitchenStaffID)
	assert.Equal(t, "chef-a", *order.KitchenStaffID)
}

func TestSecondClaimFailsNamingHolder(t *testing.T) {
	order := &models.Order{ID: "o1", Status: models.StatusPending}
	require.NoError(t, Claim(order, models.RoleKitchen, "chef-a"))

	err := Claim(order, models.RoleKitchen, "chef-b")
	var claimed *core.AlreadyClaimedError
	require.ErrorAs(t, err, &claimed)
	assert.Equal(t, models.RoleKitchen, claimed.Role)
	assert.Equal(t, "chef-a", claimed.HolderID)

	// loser must not overwrite the field
	assert.Equal(t, "chef-a", *order.KitchenStaffID)
}

func TestClaimIsIdempotentForHolder(t *testing.T) {
	order := &models.Order{ID: "o1"}
	require.NoError(t, Claim(order, models.RoleWaiter, "w1"))
	require.NoError(t, Claim(order, models.RoleWaiter, "w1"))
	assert.Equal(t, "w1", *order.WaiterStaffID)
}

func TestClaimsAreIndependentPerRole(t *testing.T) {
	order := &models.Order{ID: "o1"}
	require.NoError(t, Claim(order, models.RoleKitchen, "chef-a"))
	require.NoError(t, Claim(order, models.RoleWaiter, "w1"))
	require.NoError(t, Claim(order, models.RoleCashier, "c1"))

	assert.Equal(t, "chef-a", *order.KitchenStaffID)
	assert.Equal(t, "w1", *order.WaiterStaffID)
	assert.Equal(t, "c1", *order.CashierStaffID)
}

func TestOverrideReplacesHolder(t *testing.T) {
	order := &models.Order{ID: "o1"}
	require.NoError(t, Claim(order, models.RoleKitchen, "chef-a"))

	Override(order, models.RoleKitchen, "chef-b")
	assert.Equal(t, "chef-b", *order.KitchenStaffID)
}

func TestRoleForTarget(t *testing.T) {
	cases := []struct {
		to   models.OrderStatus
		role models.Role
		ok   bool
	}{
		{models.StatusPreparing, models.RoleKitchen, true},
		{models.StatusReady, models.RoleKitchen, true},
		{models.StatusDelivered, models.RoleWaiter, true},
		{models.StatusPaid, models.RoleCashier, true},
		{models.StatusPending, "", false},
		{models.StatusCancelled, "", false},
	}
	for _, tc := range cases {
		role, ok := RoleForTarget(tc.to)
		assert.Equal(t, tc.ok, ok, "target %s", tc.to)
		assert.Equal(t, tc.role, role, "target %s", tc.to)
	}
}
