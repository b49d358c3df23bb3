package trade

import (
	"fmt"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment lifecycle of a downstream order.
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "CREATED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// DeliveryKind discriminates how the order reaches the customer. The kind
// field decides which reference is meaningful; it is never inferred from
// which field happens to be set.
type DeliveryKind string

const (
	DeliveryHome        DeliveryKind = "HOME"
	DeliveryPickupPoint DeliveryKind = "PICKUP_POINT"
)

func (k DeliveryKind) IsValid() bool {
	return k == DeliveryHome || k == DeliveryPickupPoint
}

// Delivery is a tagged union: HOME carries an address, PICKUP_POINT carries
// the point of sale id.
type Delivery struct {
	Kind          DeliveryKind `gorm:"column:delivery_kind;type:varchar(20);not null" json:"kind"`
	Address       string       `gorm:"column:delivery_address;type:varchar(255)" json:"address,omitempty"`
	PickupPointID *uuid.UUID   `gorm:"column:pickup_point_id;type:uuid;index" json:"pickup_point_id,omitempty"`
}

// NewHomeDelivery builds a home delivery to the given address.
func NewHomeDelivery(address string) (Delivery, error) {
	if address == "" {
		return Delivery{}, shared.NewDomainError("VALIDATION_ERROR", "Delivery address cannot be empty")
	}
	return Delivery{Kind: DeliveryHome, Address: address}, nil
}

// NewPickupDelivery builds a delivery through a point of sale.
func NewPickupDelivery(pointID uuid.UUID) (Delivery, error) {
	if pointID == uuid.Nil {
		return Delivery{}, shared.NewDomainError("VALIDATION_ERROR", "Pickup point is required")
	}
	return Delivery{Kind: DeliveryPickupPoint, PickupPointID: &pointID}, nil
}

// Order is the downstream trade order the settlement layer creates when an
// agent order is submitted to the platform.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber  string               `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	CustomerID   uuid.UUID            `gorm:"type:uuid;index;not null" json:"customer_id"`
	AgentOrderID *uuid.UUID           `gorm:"type:uuid;index" json:"agent_order_id,omitempty"`
	TotalCost    decimal.Decimal      `gorm:"type:decimal(15,2);not null" json:"total_cost"`
	Currency     valueobject.Currency `gorm:"type:varchar(3);not null" json:"currency"`
	Status       OrderStatus          `gorm:"type:varchar(20);index;not null" json:"status"`
	Delivery     Delivery             `gorm:"embedded" json:"delivery"`
	DeliveredAt  *time.Time           `json:"delivered_at,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func NewOrder(orderNumber string, customerID uuid.UUID, totalCost decimal.Decimal, currency valueobject.Currency, delivery Delivery) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer is required")
	}
	if !totalCost.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Total cost must be positive")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unsupported currency: %s", currency))
	}
	if !delivery.Kind.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid delivery kind: %s", delivery.Kind))
	}
	if delivery.Kind == DeliveryPickupPoint && (delivery.PickupPointID == nil || *delivery.PickupPointID == uuid.Nil) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Pickup delivery requires a point of sale")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		TotalCost:         totalCost,
		Currency:          currency,
		Status:            OrderStatusCreated,
		Delivery:          delivery,
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o.ID, customerID, totalCost))
	return o, nil
}

// LinkAgentOrder records the agent order this order was created for.
func (o *Order) LinkAgentOrder(agentOrderID uuid.UUID) error {
	if agentOrderID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Agent order is required")
	}
	o.AgentOrderID = &agentOrderID
	o.touch()
	return nil
}

// AssignedPickupPoint returns the pickup point, if this is a pickup order.
func (o *Order) AssignedPickupPoint() *uuid.UUID {
	if o.Delivery.Kind != DeliveryPickupPoint {
		return nil
	}
	return o.Delivery.PickupPointID
}

func (o *Order) MarkProcessing() error {
	if o.Status != OrderStatusCreated {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot process order from status %s", o.Status))
	}
	o.Status = OrderStatusProcessing
	o.touch()
	return nil
}

func (o *Order) MarkShipped() error {
	if o.Status != OrderStatusCreated && o.Status != OrderStatusProcessing {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot ship order from status %s", o.Status))
	}
	o.Status = OrderStatusShipped
	o.touch()
	return nil
}

// MarkDelivered completes the order. Delivering twice is rejected so pickup
// confirmation cannot double-award commission.
func (o *Order) MarkDelivered() error {
	if o.Status == OrderStatusDelivered {
		return shared.NewDomainError("ALREADY_APPLIED", "Order has already been delivered")
	}
	if o.Status == OrderStatusCancelled {
		return shared.NewDomainError("VALIDATION_ERROR", "Cannot deliver a cancelled order")
	}

	now := time.Now()
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	o.touch()
	o.AddDomainEvent(NewOrderDeliveredEvent(o.ID, o.CustomerID, o.TotalCost, o.AssignedPickupPoint()))
	return nil
}

func (o *Order) Cancel() error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot cancel order from status %s", o.Status))
	}
	o.Status = OrderStatusCancelled
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}
