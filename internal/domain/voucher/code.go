package voucher

import (
	"fmt"
	"strings"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodeState is the lifecycle state of a redemption code, derived from the
// used/returned flags plus expiry. Returned codes always carry used=true so
// no later path can redeem them.
type CodeState string

const (
	CodeStateActive   CodeState = "ACTIVE"
	CodeStateRedeemed CodeState = "REDEEMED"
	CodeStateReturned CodeState = "RETURNED"
	CodeStateExpired  CodeState = "EXPIRED"
)

func (s CodeState) String() string {
	return string(s)
}

// RedemptionCode is a single-use voucher convertible into a wallet credit.
// Codes are created by administrators and never deleted.
type RedemptionCode struct {
	shared.BaseAggregateRoot
	Code         string               `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Value        decimal.Decimal      `gorm:"type:decimal(15,2);not null" json:"value"`
	Currency     valueobject.Currency `gorm:"type:varchar(3);not null" json:"currency"`
	ExpiresAt    *time.Time           `json:"expires_at,omitempty"`
	Used         bool                 `gorm:"not null;default:false" json:"used"`
	Returned     bool                 `gorm:"not null;default:false" json:"returned"`
	UsedAt       *time.Time           `json:"used_at,omitempty"`
	UsedBy       *uuid.UUID           `gorm:"type:uuid" json:"used_by,omitempty"`
	ReturnedAt   *time.Time           `json:"returned_at,omitempty"`
	ReturnReason string               `gorm:"type:varchar(255)" json:"return_reason,omitempty"`
	CreatedBy    uuid.UUID            `gorm:"type:uuid;not null" json:"created_by"`
	Notes        string               `gorm:"type:text" json:"notes,omitempty"`
}

func (RedemptionCode) TableName() string {
	return "redemption_codes"
}

// NewRedemptionCode creates a code with the given face value.
func NewRedemptionCode(code string, value decimal.Decimal, currency valueobject.Currency, createdBy uuid.UUID, opts ...CodeOption) (*RedemptionCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Code cannot be empty")
	}
	if !value.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Code value must be positive")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unsupported currency: %s", currency))
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Creator is required")
	}

	rc := &RedemptionCode{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Value:             value,
		Currency:          currency,
		CreatedBy:         createdBy,
	}
	for _, opt := range opts {
		opt(rc)
	}
	if rc.ExpiresAt != nil && !rc.ExpiresAt.After(time.Now()) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Expiry must be in the future")
	}

	rc.AddDomainEvent(NewCodeCreatedEvent(rc.ID, rc.Code, rc.Value, rc.Currency))
	return rc, nil
}

// CodeOption configures optional fields at creation time.
type CodeOption func(*RedemptionCode)

func WithExpiry(expiresAt time.Time) CodeOption {
	return func(rc *RedemptionCode) {
		rc.ExpiresAt = &expiresAt
	}
}

func WithNotes(notes string) CodeOption {
	return func(rc *RedemptionCode) {
		rc.Notes = notes
	}
}

// State derives the lifecycle state from the persisted flags.
func (rc *RedemptionCode) State() CodeState {
	if rc.Returned {
		return CodeStateReturned
	}
	if rc.Used {
		return CodeStateRedeemed
	}
	if rc.IsExpired() {
		return CodeStateExpired
	}
	return CodeStateActive
}

// IsExpired reports whether the expiry, if any, has passed.
func (rc *RedemptionCode) IsExpired() bool {
	return rc.ExpiresAt != nil && !rc.ExpiresAt.After(time.Now())
}

// IsActive reports whether the code can still be redeemed or disabled.
func (rc *RedemptionCode) IsActive() bool {
	return rc.State() == CodeStateActive
}

// Redeem marks the code used by the given owner. The wallet credit for the
// code's value must be applied in the same transactional unit; the caller
// owns that coupling.
func (rc *RedemptionCode) Redeem(ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Redeeming owner is required")
	}
	if err := rc.ensureActive("redeem"); err != nil {
		return err
	}

	now := time.Now()
	rc.Used = true
	rc.UsedAt = &now
	rc.UsedBy = &ownerID
	rc.UpdatedAt = now
	rc.IncrementVersion()
	rc.AddDomainEvent(NewCodeRedeemedEvent(rc.ID, rc.Code, rc.Value, ownerID))
	return nil
}

// Disable permanently retires an active code (return flow). It sets both
// returned and used so the code can never be redeemed afterwards.
func (rc *RedemptionCode) Disable(reason string) error {
	if err := rc.ensureActive("disable"); err != nil {
		return err
	}

	now := time.Now()
	rc.Returned = true
	rc.Used = true
	rc.ReturnedAt = &now
	rc.ReturnReason = reason
	rc.UpdatedAt = now
	rc.IncrementVersion()
	rc.AddDomainEvent(NewCodeDisabledEvent(rc.ID, rc.Code, reason))
	return nil
}

func (rc *RedemptionCode) ensureActive(action string) error {
	switch state := rc.State(); state {
	case CodeStateActive:
		return nil
	case CodeStateExpired:
		return shared.NewDomainError("ALREADY_APPLIED", fmt.Sprintf("Cannot %s code %s: code has expired", action, rc.Code))
	default:
		return shared.NewDomainError("ALREADY_APPLIED", fmt.Sprintf("Cannot %s code %s: code is %s", action, rc.Code, state))
	}
}
