package trade

import (
	"testing"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHomeOrder(t *testing.T) *Order {
	t.Helper()
	delivery, err := NewHomeDelivery("5 Elm Road")
	require.NoError(t, err)
	o, err := NewOrder("ORD-000001", uuid.New(), decimal.NewFromInt(200), valueobject.USD, delivery)
	require.NoError(t, err)
	return o
}

func newPickupOrder(t *testing.T, pointID uuid.UUID) *Order {
	t.Helper()
	delivery, err := NewPickupDelivery(pointID)
	require.NoError(t, err)
	o, err := NewOrder("ORD-000002", uuid.New(), decimal.NewFromInt(200), valueobject.USD, delivery)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("creates home delivery order", func(t *testing.T) {
		o := newHomeOrder(t)

		assert.Equal(t, OrderStatusCreated, o.Status)
		assert.Equal(t, DeliveryHome, o.Delivery.Kind)
		assert.Nil(t, o.AssignedPickupPoint())
		assert.Len(t, o.GetDomainEvents(), 1)
	})

	t.Run("creates pickup order carrying the point", func(t *testing.T) {
		pointID := uuid.New()
		o := newPickupOrder(t, pointID)

		assert.Equal(t, DeliveryPickupPoint, o.Delivery.Kind)
		require.NotNil(t, o.AssignedPickupPoint())
		assert.Equal(t, pointID, *o.AssignedPickupPoint())
	})

	t.Run("rejects pickup delivery without a point", func(t *testing.T) {
		_, err := NewPickupDelivery(uuid.Nil)
		assert.Error(t, err)

		_, err = NewOrder("ORD-3", uuid.New(), decimal.NewFromInt(10), valueobject.USD,
			Delivery{Kind: DeliveryPickupPoint})
		assert.Error(t, err)
	})

	t.Run("rejects unknown delivery kind", func(t *testing.T) {
		_, err := NewOrder("ORD-4", uuid.New(), decimal.NewFromInt(10), valueobject.USD,
			Delivery{Kind: DeliveryKind("CARRIER_PIGEON")})
		assert.Error(t, err)
	})

	t.Run("rejects empty home address", func(t *testing.T) {
		_, err := NewHomeDelivery("")
		assert.Error(t, err)
	})
}

func TestOrderLifecycle(t *testing.T) {
	t.Run("created through delivered", func(t *testing.T) {
		o := newHomeOrder(t)

		require.NoError(t, o.MarkProcessing())
		require.NoError(t, o.MarkShipped())
		require.NoError(t, o.MarkDelivered())

		assert.Equal(t, OrderStatusDelivered, o.Status)
		assert.NotNil(t, o.DeliveredAt)
	})

	t.Run("delivering twice is rejected", func(t *testing.T) {
		o := newHomeOrder(t)
		require.NoError(t, o.MarkDelivered())

		err := o.MarkDelivered()
		require.Error(t, err)
		assert.Equal(t, "ALREADY_APPLIED", shared.CodeOf(err))
	})

	t.Run("delivered event carries the pickup point", func(t *testing.T) {
		pointID := uuid.New()
		o := newPickupOrder(t, pointID)
		o.ClearDomainEvents()

		require.NoError(t, o.MarkDelivered())

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		delivered, ok := events[0].(*OrderDeliveredEvent)
		require.True(t, ok)
		require.NotNil(t, delivered.PickupPointID)
		assert.Equal(t, pointID, *delivered.PickupPointID)
	})

	t.Run("cancelled orders cannot be delivered", func(t *testing.T) {
		o := newHomeOrder(t)
		require.NoError(t, o.Cancel())
		assert.Error(t, o.MarkDelivered())
	})

	t.Run("terminal orders cannot be cancelled", func(t *testing.T) {
		o := newHomeOrder(t)
		require.NoError(t, o.MarkDelivered())
		assert.Error(t, o.Cancel())
	})
}

func TestOrderLinkAgentOrder(t *testing.T) {
	o := newHomeOrder(t)
	agentOrderID := uuid.New()

	require.NoError(t, o.LinkAgentOrder(agentOrderID))
	require.NotNil(t, o.AgentOrderID)
	assert.Equal(t, agentOrderID, *o.AgentOrderID)

	assert.Error(t, o.LinkAgentOrder(uuid.Nil))
}
