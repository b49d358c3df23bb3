package partner

import (
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeAgent      = "Agent"
	AggregateTypeAgentOrder = "AgentOrder"

	EventTypeAgentOrderCreated   = "partner.agent_order.created"
	EventTypeAgentOrderSubmitted = "partner.agent_order.submitted"
	EventTypeAgentOrderPaid      = "partner.agent_order.paid"
)

// AgentOrderCreatedEvent is emitted when an agent drafts a new order.
type AgentOrderCreatedEvent struct {
	shared.BaseDomainEvent
	AgentID   uuid.UUID       `json:"agent_id"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

func NewAgentOrderCreatedEvent(orderID, agentID uuid.UUID, totalCost decimal.Decimal) *AgentOrderCreatedEvent {
	return &AgentOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAgentOrderCreated, AggregateTypeAgentOrder, orderID),
		AgentID:         agentID,
		TotalCost:       totalCost,
	}
}

// SchemaVersionAgentOrderSubmitted is the current schema version of
// AgentOrderSubmittedEvent. Version 1 carried no commission_rate; version 2
// snapshots the agent's rate at submission time.
const SchemaVersionAgentOrderSubmitted = 2

// AgentOrderSubmittedEvent is emitted after an order is submitted to the
// platform. Commission handlers consume it once the submission commits.
// CommissionRate is the agent's rate at submission time; the commission row
// is created from this snapshot so later rate changes cannot alter it.
type AgentOrderSubmittedEvent struct {
	shared.BaseDomainEvent
	AgentID        uuid.UUID       `json:"agent_id"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

func NewAgentOrderSubmittedEvent(orderID, agentID uuid.UUID, totalCost, commissionRate decimal.Decimal) *AgentOrderSubmittedEvent {
	return &AgentOrderSubmittedEvent{
		BaseDomainEvent: shared.NewVersionedBaseDomainEvent(EventTypeAgentOrderSubmitted, AggregateTypeAgentOrder, orderID, SchemaVersionAgentOrderSubmitted),
		AgentID:         agentID,
		TotalCost:       totalCost,
		CommissionRate:  commissionRate,
	}
}

// AgentOrderPaidEvent is emitted when the agent settles with the platform.
type AgentOrderPaidEvent struct {
	shared.BaseDomainEvent
	AgentID    uuid.UUID       `json:"agent_id"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

func NewAgentOrderPaidEvent(orderID, agentID uuid.UUID, paidAmount decimal.Decimal) *AgentOrderPaidEvent {
	return &AgentOrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAgentOrderPaid, AggregateTypeAgentOrder, orderID),
		AgentID:         agentID,
		PaidAmount:      paidAmount,
	}
}
