package voucher

import (
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeRedemptionCode   = "RedemptionCode"
	AggregateTypeCodeDistribution = "CodeDistribution"

	EventTypeCodeCreated          = "voucher.code.created"
	EventTypeCodeRedeemed         = "voucher.code.redeemed"
	EventTypeCodeDisabled         = "voucher.code.disabled"
	EventTypeCodeDistributed      = "voucher.distribution.created"
	EventTypeCodeSold             = "voucher.distribution.sold"
	EventTypeDistributionReturned = "voucher.distribution.returned"
)

// CodeCreatedEvent is emitted when an administrator issues a new code.
type CodeCreatedEvent struct {
	shared.BaseDomainEvent
	Code     string               `json:"code"`
	Value    decimal.Decimal      `json:"value"`
	Currency valueobject.Currency `json:"currency"`
}

func NewCodeCreatedEvent(codeID uuid.UUID, code string, value decimal.Decimal, currency valueobject.Currency) *CodeCreatedEvent {
	return &CodeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCodeCreated, AggregateTypeRedemptionCode, codeID),
		Code:            code,
		Value:           value,
		Currency:        currency,
	}
}

// CodeRedeemedEvent is emitted when a code is converted into a wallet credit.
type CodeRedeemedEvent struct {
	shared.BaseDomainEvent
	Code    string          `json:"code"`
	Value   decimal.Decimal `json:"value"`
	OwnerID uuid.UUID       `json:"owner_id"`
}

func NewCodeRedeemedEvent(codeID uuid.UUID, code string, value decimal.Decimal, ownerID uuid.UUID) *CodeRedeemedEvent {
	return &CodeRedeemedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCodeRedeemed, AggregateTypeRedemptionCode, codeID),
		Code:            code,
		Value:           value,
		OwnerID:         ownerID,
	}
}

// CodeDisabledEvent is emitted when a code is permanently retired.
type CodeDisabledEvent struct {
	shared.BaseDomainEvent
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func NewCodeDisabledEvent(codeID uuid.UUID, code, reason string) *CodeDisabledEvent {
	return &CodeDisabledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCodeDisabled, AggregateTypeRedemptionCode, codeID),
		Code:            code,
		Reason:          reason,
	}
}

// CodeDistributedEvent is emitted when a code is handed to a point of sale.
type CodeDistributedEvent struct {
	shared.BaseDomainEvent
	CodeID        uuid.UUID       `json:"code_id"`
	PointID       uuid.UUID       `json:"point_id"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

func NewCodeDistributedEvent(distributionID, codeID, pointID uuid.UUID, purchasePrice decimal.Decimal) *CodeDistributedEvent {
	return &CodeDistributedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCodeDistributed, AggregateTypeCodeDistribution, distributionID),
		CodeID:          codeID,
		PointID:         pointID,
		PurchasePrice:   purchasePrice,
	}
}

// CodeSoldEvent is emitted when a point of sale sells a distributed code.
// Commission handlers consume it after the sale commits.
type CodeSoldEvent struct {
	shared.BaseDomainEvent
	CodeID    uuid.UUID       `json:"code_id"`
	PointID   uuid.UUID       `json:"point_id"`
	SalePrice decimal.Decimal `json:"sale_price"`
	SoldTo    *uuid.UUID      `json:"sold_to,omitempty"`
}

func NewCodeSoldEvent(distributionID, codeID, pointID uuid.UUID, salePrice decimal.Decimal, soldTo *uuid.UUID) *CodeSoldEvent {
	return &CodeSoldEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCodeSold, AggregateTypeCodeDistribution, distributionID),
		CodeID:          codeID,
		PointID:         pointID,
		SalePrice:       salePrice,
		SoldTo:          soldTo,
	}
}

// DistributionReturnedEvent is emitted when a point returns an unsold code.
type DistributionReturnedEvent struct {
	shared.BaseDomainEvent
	CodeID  uuid.UUID `json:"code_id"`
	PointID uuid.UUID `json:"point_id"`
}

func NewDistributionReturnedEvent(distributionID, codeID, pointID uuid.UUID) *DistributionReturnedEvent {
	return &DistributionReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDistributionReturned, AggregateTypeCodeDistribution, distributionID),
		CodeID:          codeID,
		PointID:         pointID,
	}
}
