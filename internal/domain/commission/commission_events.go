package commission

import (
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeCommission = "Commission"

	EventTypeCommissionCreated = "commission.created"
	EventTypeCommissionPaid    = "commission.paid"
)

// CommissionCreatedEvent is emitted when a sale earns a commission.
type CommissionCreatedEvent struct {
	shared.BaseDomainEvent
	Kind          CommissionKind  `json:"kind"`
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	SourceID      uuid.UUID       `json:"source_id"`
	Amount        decimal.Decimal `json:"amount"`
}

func NewCommissionCreatedEvent(commissionID uuid.UUID, kind CommissionKind, beneficiaryID, sourceID uuid.UUID, amount decimal.Decimal) *CommissionCreatedEvent {
	return &CommissionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionCreated, AggregateTypeCommission, commissionID),
		Kind:            kind,
		BeneficiaryID:   beneficiaryID,
		SourceID:        sourceID,
		Amount:          amount,
	}
}

// CommissionPaidEvent is emitted when a commission is settled to its beneficiary.
type CommissionPaidEvent struct {
	shared.BaseDomainEvent
	Kind          CommissionKind  `json:"kind"`
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	Amount        decimal.Decimal `json:"amount"`
}

func NewCommissionPaidEvent(commissionID uuid.UUID, kind CommissionKind, beneficiaryID uuid.UUID, amount decimal.Decimal) *CommissionPaidEvent {
	return &CommissionPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionPaid, AggregateTypeCommission, commissionID),
		Kind:            kind,
		BeneficiaryID:   beneficiaryID,
		Amount:          amount,
	}
}
