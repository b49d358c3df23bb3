package voucher

import (
	"fmt"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DistributionStatus is the lifecycle of a code placed at a point of sale.
// SOLD, RETURNED and EXPIRED are terminal.
type DistributionStatus string

const (
	DistributionStatusDistributed DistributionStatus = "DISTRIBUTED"
	DistributionStatusSold        DistributionStatus = "SOLD"
	DistributionStatusReturned    DistributionStatus = "RETURNED"
	DistributionStatusExpired     DistributionStatus = "EXPIRED"
)

func (s DistributionStatus) IsValid() bool {
	switch s {
	case DistributionStatusDistributed, DistributionStatusSold, DistributionStatusReturned, DistributionStatusExpired:
		return true
	}
	return false
}

func (s DistributionStatus) IsTerminal() bool {
	return s != DistributionStatusDistributed
}

func (s DistributionStatus) String() string {
	return string(s)
}

// CodeDistribution records one redemption code handed to one point of sale
// at a discounted purchase price.
type CodeDistribution struct {
	shared.BaseAggregateRoot
	CodeID          uuid.UUID          `gorm:"type:uuid;uniqueIndex;not null" json:"code_id"`
	PointID         uuid.UUID          `gorm:"type:uuid;index;not null" json:"point_id"`
	OriginalAmount  decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"original_amount"`
	DiscountPercent decimal.Decimal    `gorm:"type:decimal(5,2);not null" json:"discount_percent"`
	PurchasePrice   decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"purchase_price"`
	Status          DistributionStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	SalePrice       *decimal.Decimal   `gorm:"type:decimal(15,2)" json:"sale_price,omitempty"`
	SoldAt          *time.Time         `json:"sold_at,omitempty"`
	SoldTo          *uuid.UUID         `gorm:"type:uuid" json:"sold_to,omitempty"`
	ReturnedAt      *time.Time         `json:"returned_at,omitempty"`
	DistributedBy   uuid.UUID          `gorm:"type:uuid;not null" json:"distributed_by"`
}

func (CodeDistribution) TableName() string {
	return "code_distributions"
}

// NewCodeDistribution prices the code for the point: purchase price is the
// original amount less the discount percentage.
func NewCodeDistribution(codeID, pointID uuid.UUID, originalAmount, discountPercent decimal.Decimal, distributedBy uuid.UUID) (*CodeDistribution, error) {
	if codeID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Code is required")
	}
	if pointID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Point of sale is required")
	}
	if !originalAmount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Original amount must be positive")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Discount must be between 0 and 100")
	}
	if distributedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Distributor is required")
	}

	hundred := decimal.NewFromInt(100)
	purchasePrice := originalAmount.Mul(hundred.Sub(discountPercent)).Div(hundred).Round(2)

	d := &CodeDistribution{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CodeID:            codeID,
		PointID:           pointID,
		OriginalAmount:    originalAmount,
		DiscountPercent:   discountPercent,
		PurchasePrice:     purchasePrice,
		Status:            DistributionStatusDistributed,
		DistributedBy:     distributedBy,
	}
	d.AddDomainEvent(NewCodeDistributedEvent(d.ID, codeID, pointID, purchasePrice))
	return d, nil
}

// MarkSold finalizes a sale at the given price, optionally to a known customer.
func (d *CodeDistribution) MarkSold(salePrice decimal.Decimal, soldTo *uuid.UUID) error {
	if err := d.ensureDistributed("sell"); err != nil {
		return err
	}
	if !salePrice.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Sale price must be positive")
	}

	now := time.Now()
	d.Status = DistributionStatusSold
	d.SalePrice = &salePrice
	d.SoldAt = &now
	d.SoldTo = soldTo
	d.UpdatedAt = now
	d.IncrementVersion()
	d.AddDomainEvent(NewCodeSoldEvent(d.ID, d.CodeID, d.PointID, salePrice, soldTo))
	return nil
}

// MarkReturned records the point returning an unsold code.
func (d *CodeDistribution) MarkReturned() error {
	if err := d.ensureDistributed("return"); err != nil {
		return err
	}

	now := time.Now()
	d.Status = DistributionStatusReturned
	d.ReturnedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	d.AddDomainEvent(NewDistributionReturnedEvent(d.ID, d.CodeID, d.PointID))
	return nil
}

// MarkExpired retires an unsold distribution whose code has expired.
// Used by reconciliation, not the sale path.
func (d *CodeDistribution) MarkExpired() error {
	if err := d.ensureDistributed("expire"); err != nil {
		return err
	}

	d.Status = DistributionStatusExpired
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

func (d *CodeDistribution) ensureDistributed(action string) error {
	if d.Status != DistributionStatusDistributed {
		return shared.NewDomainError("ALREADY_APPLIED",
			fmt.Sprintf("Cannot %s distribution: status is %s", action, d.Status))
	}
	return nil
}
