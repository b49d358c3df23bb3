package payment

import (
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypePaymentRecord = "PaymentRecord"

	EventTypePaymentCreated  = "payment.created"
	EventTypePaymentPaid     = "payment.paid"
	EventTypePaymentFailed   = "payment.failed"
	EventTypePaymentRefunded = "payment.refunded"
)

// PaymentCreatedEvent is emitted when a pending payment is opened for an order.
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID       `json:"order_id"`
	PayerID uuid.UUID       `json:"payer_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  PaymentMethod   `json:"method"`
}

func NewPaymentCreatedEvent(paymentID, orderID, payerID uuid.UUID, amount decimal.Decimal, method PaymentMethod) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, AggregateTypePaymentRecord, paymentID),
		OrderID:         orderID,
		PayerID:         payerID,
		Amount:          amount,
		Method:          method,
	}
}

// PaymentPaidEvent is emitted on every entry into the paid status.
type PaymentPaidEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID       `json:"order_id"`
	PayerID uuid.UUID       `json:"payer_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  PaymentMethod   `json:"method"`
}

func NewPaymentPaidEvent(paymentID, orderID, payerID uuid.UUID, amount decimal.Decimal, method PaymentMethod) *PaymentPaidEvent {
	return &PaymentPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentPaid, AggregateTypePaymentRecord, paymentID),
		OrderID:         orderID,
		PayerID:         payerID,
		Amount:          amount,
		Method:          method,
	}
}

// PaymentFailedEvent is emitted when a payment fails or is reverted.
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

func NewPaymentFailedEvent(paymentID, orderID uuid.UUID, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypePaymentRecord, paymentID),
		OrderID:         orderID,
		Reason:          reason,
	}
}

// PaymentRefundedEvent is emitted when a paid payment is walked back.
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID       `json:"order_id"`
	PayerID uuid.UUID       `json:"payer_id"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
}

func NewPaymentRefundedEvent(paymentID, orderID, payerID uuid.UUID, amount decimal.Decimal, reason string) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRefunded, AggregateTypePaymentRecord, paymentID),
		OrderID:         orderID,
		PayerID:         payerID,
		Amount:          amount,
		Reason:          reason,
	}
}
