package commission

import (
	"fmt"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionKind identifies which sale event earned the commission.
type CommissionKind string

const (
	KindAgentOrder CommissionKind = "AGENT_ORDER"
	KindPointOrder CommissionKind = "POINT_ORDER"
	KindPointCode  CommissionKind = "POINT_CODE"
)

func (k CommissionKind) IsValid() bool {
	switch k {
	case KindAgentOrder, KindPointOrder, KindPointCode:
		return true
	}
	return false
}

func (k CommissionKind) String() string {
	return string(k)
}

// CommissionStatus is the payout lifecycle of a commission.
type CommissionStatus string

const (
	StatusPending    CommissionStatus = "PENDING"
	StatusCalculated CommissionStatus = "CALCULATED"
	StatusPaid       CommissionStatus = "PAID"
	StatusCancelled  CommissionStatus = "CANCELLED"
)

func (s CommissionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCalculated, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

func (s CommissionStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

func (s CommissionStatus) String() string {
	return string(s)
}

// Commission is a fee owed to an intermediary for one recognized sale.
// Rate and amount are snapshots taken at creation and never recomputed,
// so later rate changes cannot alter settled history.
type Commission struct {
	shared.BaseAggregateRoot
	Kind          CommissionKind   `gorm:"type:varchar(20);index;not null" json:"kind"`
	BeneficiaryID uuid.UUID        `gorm:"type:uuid;index;not null" json:"beneficiary_id"`
	SourceID      uuid.UUID        `gorm:"type:uuid;index;not null" json:"source_id"`
	BaseAmount    decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"base_amount"`
	Rate          decimal.Decimal  `gorm:"type:decimal(5,2);not null" json:"rate"`
	Amount        decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status        CommissionStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	PaidBy        *uuid.UUID       `gorm:"type:uuid" json:"paid_by,omitempty"`
	PaymentMethod string           `gorm:"type:varchar(30)" json:"payment_method,omitempty"`
	Notes         string           `gorm:"type:text" json:"notes,omitempty"`
}

func (Commission) TableName() string {
	return "commissions"
}

// NewCommission snapshots the rate and computes amount = base x rate / 100.
// Callers must skip creation entirely when the configured rate is zero or
// negative; that is not an error, just no commission.
func NewCommission(kind CommissionKind, beneficiaryID, sourceID uuid.UUID, baseAmount, rate decimal.Decimal, status CommissionStatus) (*Commission, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid commission kind: %s", kind))
	}
	if beneficiaryID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Beneficiary is required")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Source reference is required")
	}
	if !baseAmount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Base amount must be positive")
	}
	if !rate.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Commission rate must be positive")
	}
	if status == "" {
		status = StatusCalculated
	}
	if status != StatusPending && status != StatusCalculated {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Commission cannot be created as %s", status))
	}

	amount := baseAmount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	c := &Commission{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		BeneficiaryID:     beneficiaryID,
		SourceID:          sourceID,
		BaseAmount:        baseAmount,
		Rate:              rate,
		Amount:            amount,
		Status:            status,
	}
	c.AddDomainEvent(NewCommissionCreatedEvent(c.ID, kind, beneficiaryID, sourceID, amount))
	return c, nil
}

// MarkCalculated confirms a pending commission.
func (c *Commission) MarkCalculated() error {
	if c.Status == StatusCalculated {
		return nil
	}
	if c.Status != StatusPending {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot calculate commission from status %s", c.Status))
	}
	c.Status = StatusCalculated
	c.touch()
	return nil
}

// MarkPaid settles the commission. Paying twice is rejected.
func (c *Commission) MarkPaid(paidBy uuid.UUID, method string) error {
	if c.Status == StatusPaid {
		return shared.NewDomainError("ALREADY_APPLIED", "Commission has already been paid")
	}
	if c.Status == StatusCancelled {
		return shared.NewDomainError("VALIDATION_ERROR", "Cannot pay a cancelled commission")
	}
	if paidBy == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Payer is required")
	}

	now := time.Now()
	c.Status = StatusPaid
	c.PaidAt = &now
	c.PaidBy = &paidBy
	c.PaymentMethod = method
	c.touch()
	c.AddDomainEvent(NewCommissionPaidEvent(c.ID, c.Kind, c.BeneficiaryID, c.Amount))
	return nil
}

// Cancel voids an unpaid commission.
func (c *Commission) Cancel(reason string) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot cancel commission from status %s", c.Status))
	}
	c.Status = StatusCancelled
	if reason != "" {
		c.Notes = reason
	}
	c.touch()
	return nil
}

func (c *Commission) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
