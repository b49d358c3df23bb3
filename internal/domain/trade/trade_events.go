package trade

import (
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeOrder = "Order"

	EventTypeOrderCreated   = "trade.order.created"
	EventTypeOrderDelivered = "trade.order.delivered"
)

// OrderCreatedEvent is emitted when a downstream order is opened.
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

func NewOrderCreatedEvent(orderID, customerID uuid.UUID, totalCost decimal.Decimal) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, orderID),
		CustomerID:      customerID,
		TotalCost:       totalCost,
	}
}

// OrderDeliveredEvent is emitted when an order reaches the customer.
// Commission handlers consume it for pickup-point order commissions.
type OrderDeliveredEvent struct {
	shared.BaseDomainEvent
	CustomerID    uuid.UUID       `json:"customer_id"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	PickupPointID *uuid.UUID      `json:"pickup_point_id,omitempty"`
}

func NewOrderDeliveredEvent(orderID, customerID uuid.UUID, totalCost decimal.Decimal, pickupPointID *uuid.UUID) *OrderDeliveredEvent {
	return &OrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDelivered, AggregateTypeOrder, orderID),
		CustomerID:      customerID,
		TotalCost:       totalCost,
		PickupPointID:   pickupPointID,
	}
}
