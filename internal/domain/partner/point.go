package partner

import (
	"strings"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PointOfSale is a physical location that distributes and sells redemption
// codes and can serve as an order pickup point. The code/sale counters are
// materialized views rebuilt by reconciliation.
type PointOfSale struct {
	shared.BaseAggregateRoot
	Name                  string          `gorm:"type:varchar(100);not null" json:"name"`
	Address               string          `gorm:"type:varchar(255)" json:"address,omitempty"`
	ContactUserID         *uuid.UUID      `gorm:"type:uuid" json:"contact_user_id,omitempty"`
	OrderCommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"order_commission_rate"`
	CodeCommissionRate    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"code_commission_rate"`
	AvailableCodes        int             `gorm:"not null;default:0" json:"available_codes"`
	TotalCodesDistributed int             `gorm:"not null;default:0" json:"total_codes_distributed"`
	TotalSales            int             `gorm:"not null;default:0" json:"total_sales"`
	Active                bool            `gorm:"not null;default:true" json:"active"`
}

func (PointOfSale) TableName() string {
	return "points_of_sale"
}

func NewPointOfSale(name, address string, orderRate, codeRate decimal.Decimal) (*PointOfSale, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Point name cannot be empty")
	}
	hundred := decimal.NewFromInt(100)
	if orderRate.IsNegative() || orderRate.GreaterThan(hundred) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order commission rate must be between 0 and 100")
	}
	if codeRate.IsNegative() || codeRate.GreaterThan(hundred) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Code commission rate must be between 0 and 100")
	}

	return &PointOfSale{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		Name:                name,
		Address:             address,
		OrderCommissionRate: orderRate,
		CodeCommissionRate:  codeRate,
		Active:              true,
	}, nil
}

// RecordDistribution tracks codes handed to the point.
func (p *PointOfSale) RecordDistribution(count int) error {
	if count <= 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Distribution count must be positive")
	}
	p.AvailableCodes += count
	p.TotalCodesDistributed += count
	p.touch()
	return nil
}

// RecordSale tracks one distributed code sold.
func (p *PointOfSale) RecordSale() error {
	if p.AvailableCodes <= 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Point has no available codes")
	}
	p.AvailableCodes--
	p.TotalSales++
	p.touch()
	return nil
}

// RecordCodeReturn tracks one unsold code handed back.
func (p *PointOfSale) RecordCodeReturn() error {
	if p.AvailableCodes <= 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Point has no available codes")
	}
	p.AvailableCodes--
	p.touch()
	return nil
}

// ApplyRecalculated replaces the counters with values rebuilt from
// distribution records. Used by reconciliation only.
func (p *PointOfSale) ApplyRecalculated(available, distributed, sales int) {
	if available < 0 {
		available = 0
	}
	p.AvailableCodes = available
	p.TotalCodesDistributed = distributed
	p.TotalSales = sales
	p.touch()
}

// UpdateCommissionRates changes rates for future sales; existing commissions
// keep their snapshots.
func (p *PointOfSale) UpdateCommissionRates(orderRate, codeRate decimal.Decimal) error {
	hundred := decimal.NewFromInt(100)
	if orderRate.IsNegative() || orderRate.GreaterThan(hundred) ||
		codeRate.IsNegative() || codeRate.GreaterThan(hundred) {
		return shared.NewDomainError("VALIDATION_ERROR", "Commission rates must be between 0 and 100")
	}
	p.OrderCommissionRate = orderRate
	p.CodeCommissionRate = codeRate
	p.touch()
	return nil
}

func (p *PointOfSale) Deactivate() {
	p.Active = false
	p.touch()
}

func (p *PointOfSale) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
