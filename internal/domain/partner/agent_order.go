package partner

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgentOrderStatus is the lifecycle of an agent's order towards the platform.
type AgentOrderStatus string

const (
	AgentOrderStatusDraft      AgentOrderStatus = "DRAFT"
	AgentOrderStatusPending    AgentOrderStatus = "PENDING"
	AgentOrderStatusProcessing AgentOrderStatus = "PROCESSING"
	AgentOrderStatusPaid       AgentOrderStatus = "PAID"
	AgentOrderStatusCancelled  AgentOrderStatus = "CANCELLED"
)

func (s AgentOrderStatus) IsValid() bool {
	switch s {
	case AgentOrderStatusDraft, AgentOrderStatusPending, AgentOrderStatusProcessing,
		AgentOrderStatusPaid, AgentOrderStatusCancelled:
		return true
	}
	return false
}

func (s AgentOrderStatus) String() string {
	return string(s)
}

// StatusHistoryEntry records one status change on an agent order.
type StatusHistoryEntry struct {
	From      AgentOrderStatus `json:"from"`
	To        AgentOrderStatus `json:"to"`
	Note      string           `json:"note,omitempty"`
	ActorID   *uuid.UUID       `json:"actor_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// StatusHistory is stored as a JSON column.
type StatusHistory []StatusHistoryEntry

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (h *StatusHistory) Scan(value any) error {
	if value == nil {
		*h = StatusHistory{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StatusHistory", value)
	}
	return json.Unmarshal(data, h)
}

// AgentOrder is an order an agent submits to the platform on behalf of a
// customer. Submission creates a downstream trade order; the link back lives
// in DownstreamOrderID.
type AgentOrder struct {
	shared.BaseAggregateRoot
	AgentID           uuid.UUID            `gorm:"type:uuid;index;not null" json:"agent_id"`
	OrderNumber       string               `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	TotalCost         decimal.Decimal      `gorm:"type:decimal(15,2);not null" json:"total_cost"`
	Currency          valueobject.Currency `gorm:"type:varchar(3);not null" json:"currency"`
	Description       string               `gorm:"type:text" json:"description,omitempty"`
	Status            AgentOrderStatus     `gorm:"type:varchar(20);index;not null" json:"status"`
	StatusHistory     StatusHistory        `gorm:"type:jsonb" json:"status_history"`
	DownstreamOrderID *uuid.UUID           `gorm:"type:uuid;index" json:"downstream_order_id,omitempty"`
	PaymentMethod     string               `gorm:"type:varchar(30)" json:"payment_method,omitempty"`
	ProofOfPayment    string               `gorm:"type:varchar(512)" json:"proof_of_payment,omitempty"`
	PaidAmount        decimal.Decimal      `gorm:"type:decimal(15,2);not null;default:0" json:"paid_amount"`
	PaidAt            *time.Time           `json:"paid_at,omitempty"`
}

func (AgentOrder) TableName() string {
	return "agent_orders"
}

func NewAgentOrder(agentID uuid.UUID, orderNumber string, totalCost decimal.Decimal, currency valueobject.Currency, description string) (*AgentOrder, error) {
	if agentID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Agent is required")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order number cannot be empty")
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

	o := &AgentOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AgentID:           agentID,
		OrderNumber:       orderNumber,
		TotalCost:         totalCost,
		Currency:          currency,
		Description:       description,
		Status:            AgentOrderStatusDraft,
		StatusHistory:     StatusHistory{},
		PaidAmount:        decimal.Zero,
	}
	o.AddDomainEvent(NewAgentOrderCreatedEvent(o.ID, agentID, totalCost))
	return o, nil
}

// IsPaid reports whether the agent has settled this order with the platform.
func (o *AgentOrder) IsPaid() bool {
	return o.Status == AgentOrderStatusPaid
}

// CanSubmit reports whether the order may be (re)submitted to the platform.
func (o *AgentOrder) CanSubmit() bool {
	return o.Status == AgentOrderStatusDraft || o.Status == AgentOrderStatusPending
}

// LinkDownstreamOrder records the trade order created on submission.
func (o *AgentOrder) LinkDownstreamOrder(orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Downstream order is required")
	}
	o.DownstreamOrderID = &orderID
	o.touch()
	return nil
}

// ClearDownstreamOrder drops a dangling reference so the order can be
// resubmitted after the target was deleted.
func (o *AgentOrder) ClearDownstreamOrder() {
	o.DownstreamOrderID = nil
	o.touch()
}

// MarkSubmitted moves the order to pending and appends a history entry.
// commissionRate is the agent's rate at this moment; it rides on the
// submitted event so the commission is computed from the same snapshot.
func (o *AgentOrder) MarkSubmitted(actorID *uuid.UUID, commissionRate decimal.Decimal) error {
	if !o.CanSubmit() {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot submit order from status %s", o.Status))
	}
	from := o.Status
	o.Status = AgentOrderStatusPending
	o.appendHistory(from, AgentOrderStatusPending, "submitted to platform", actorID)
	o.touch()
	o.AddDomainEvent(NewAgentOrderSubmittedEvent(o.ID, o.AgentID, o.TotalCost, commissionRate))
	return nil
}

// MarkProcessing records the platform working the order.
func (o *AgentOrder) MarkProcessing(actorID *uuid.UUID) error {
	if o.Status != AgentOrderStatusPending {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot process order from status %s", o.Status))
	}
	o.Status = AgentOrderStatusProcessing
	o.appendHistory(AgentOrderStatusPending, AgentOrderStatusProcessing, "", actorID)
	o.touch()
	return nil
}

// MarkPaid records the agent's settlement towards the platform. Paying an
// already paid order is rejected.
func (o *AgentOrder) MarkPaid(paidAmount decimal.Decimal, method, proof string, actorID *uuid.UUID) error {
	if o.IsPaid() {
		return shared.NewDomainError("ALREADY_APPLIED", "Agent order has already been paid")
	}
	if o.Status != AgentOrderStatusPending && o.Status != AgentOrderStatusProcessing {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot pay order from status %s", o.Status))
	}
	if !paidAmount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Paid amount must be positive")
	}

	from := o.Status
	now := time.Now()
	o.Status = AgentOrderStatusPaid
	o.PaymentMethod = method
	o.ProofOfPayment = proof
	o.PaidAmount = paidAmount
	o.PaidAt = &now
	o.appendHistory(from, AgentOrderStatusPaid, "payment recorded", actorID)
	o.touch()
	o.AddDomainEvent(NewAgentOrderPaidEvent(o.ID, o.AgentID, paidAmount))
	return nil
}

// Cancel voids an unpaid order. Cancelled orders stay retryable through
// resubmission of a fresh draft, not by reviving this one.
func (o *AgentOrder) Cancel(reason string, actorID *uuid.UUID) error {
	if o.IsPaid() {
		return shared.NewDomainError("VALIDATION_ERROR", "Cannot cancel a paid order")
	}
	if o.Status == AgentOrderStatusCancelled {
		return nil
	}
	from := o.Status
	o.Status = AgentOrderStatusCancelled
	o.appendHistory(from, AgentOrderStatusCancelled, reason, actorID)
	o.touch()
	return nil
}

func (o *AgentOrder) appendHistory(from, to AgentOrderStatus, note string, actorID *uuid.UUID) {
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		From:      from,
		To:        to,
		Note:      note,
		ActorID:   actorID,
		Timestamp: time.Now(),
	})
}

func (o *AgentOrder) touch() {
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}
