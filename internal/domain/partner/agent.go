package partner

import (
	"strings"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Agent is an intermediary placing orders on behalf of customers for a
// commission. The Total*/Pending fields are materialized views over
// commission and payment records: updated incrementally on the hot path and
// rebuilt from source records by reconciliation, never trusted as the sole
// source of truth.
type Agent struct {
	shared.BaseAggregateRoot
	UserID              uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Name                string          `gorm:"type:varchar(100);not null" json:"name"`
	CommissionRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	TotalCommissions    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_commissions"`
	TotalEarnings       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_earnings"`
	TotalPaidToPlatform decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_paid_to_platform"`
	PendingAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"pending_amount"`
	Active              bool            `gorm:"not null;default:true" json:"active"`
}

func (Agent) TableName() string {
	return "agents"
}

func NewAgent(userID uuid.UUID, name string, commissionRate decimal.Decimal) (*Agent, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "User is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Agent name cannot be empty")
	}
	if commissionRate.IsNegative() || commissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Commission rate must be between 0 and 100")
	}

	return &Agent{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		UserID:              userID,
		Name:                name,
		CommissionRate:      commissionRate,
		TotalCommissions:    decimal.Zero,
		TotalEarnings:       decimal.Zero,
		TotalPaidToPlatform: decimal.Zero,
		PendingAmount:       decimal.Zero,
		Active:              true,
	}, nil
}

// HasCommissionRate reports whether submissions by this agent earn commission.
func (a *Agent) HasCommissionRate() bool {
	return a.CommissionRate.IsPositive()
}

// RecordSubmission tracks a submitted order: commission accrues and the
// remainder of the order total is owed to the platform.
func (a *Agent) RecordSubmission(commissionAmount, orderTotal decimal.Decimal) error {
	if commissionAmount.IsNegative() || orderTotal.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Amounts cannot be negative")
	}
	a.TotalCommissions = a.TotalCommissions.Add(commissionAmount)
	a.PendingAmount = a.PendingAmount.Add(orderTotal.Sub(commissionAmount))
	a.touch()
	return nil
}

// RecordPlatformPayment tracks money the agent settled with the platform.
// Pending never goes below zero.
func (a *Agent) RecordPlatformPayment(paidAmount decimal.Decimal) error {
	if !paidAmount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Paid amount must be positive")
	}
	a.TotalPaidToPlatform = a.TotalPaidToPlatform.Add(paidAmount)
	remaining := a.PendingAmount.Sub(paidAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	a.PendingAmount = remaining
	a.touch()
	return nil
}

// RecordEarnings tracks a commission payout to the agent.
func (a *Agent) RecordEarnings(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Earnings amount must be positive")
	}
	a.TotalEarnings = a.TotalEarnings.Add(amount)
	a.touch()
	return nil
}

// ApplyRecalculated replaces all counters with values rebuilt from source
// records. Used by reconciliation only.
func (a *Agent) ApplyRecalculated(totalCommissions, totalEarnings, totalPaid, pending decimal.Decimal) {
	a.TotalCommissions = totalCommissions
	a.TotalEarnings = totalEarnings
	a.TotalPaidToPlatform = totalPaid
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	a.PendingAmount = pending
	a.touch()
}

// UpdateCommissionRate changes the rate for future submissions. Existing
// commissions keep their snapshot.
func (a *Agent) UpdateCommissionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("VALIDATION_ERROR", "Commission rate must be between 0 and 100")
	}
	a.CommissionRate = rate
	a.touch()
	return nil
}

func (a *Agent) Deactivate() {
	a.Active = false
	a.touch()
}

func (a *Agent) touch() {
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}
