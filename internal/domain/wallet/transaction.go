package wallet

import (
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the kind of wallet transaction
type TransactionKind string

const (
	// TransactionKindCredit represents value added to the wallet
	TransactionKindCredit TransactionKind = "CREDIT"
	// TransactionKindDebit represents value taken from the wallet
	TransactionKindDebit TransactionKind = "DEBIT"
	// TransactionKindAdjustCredit represents a manual upward correction
	TransactionKindAdjustCredit TransactionKind = "ADJUST_CREDIT"
	// TransactionKindAdjustDebit represents a manual downward correction
	TransactionKindAdjustDebit TransactionKind = "ADJUST_DEBIT"
)

// String returns the string representation of TransactionKind
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid returns true if the transaction kind is valid
func (k TransactionKind) IsValid() bool {
	switch k {
	case TransactionKindCredit, TransactionKindDebit,
		TransactionKindAdjustCredit, TransactionKindAdjustDebit:
		return true
	}
	return false
}

// IsCredit returns true for kinds that increase the balance
func (k TransactionKind) IsCredit() bool {
	return k == TransactionKindCredit || k == TransactionKindAdjustCredit
}

// IsDebit returns true for kinds that decrease the balance
func (k TransactionKind) IsDebit() bool {
	return k == TransactionKindDebit || k == TransactionKindAdjustDebit
}

// TransactionSourceType represents the source document type for a wallet transaction
type TransactionSourceType string

const (
	// SourceTypeRedemptionCode represents a credit from redeeming a value code
	SourceTypeRedemptionCode TransactionSourceType = "REDEMPTION_CODE"
	// SourceTypePayment represents a debit paying for an order
	SourceTypePayment TransactionSourceType = "PAYMENT"
	// SourceTypePaymentRefund represents a credit reversing a payment
	SourceTypePaymentRefund TransactionSourceType = "PAYMENT_REFUND"
	// SourceTypeAgentSettlement represents an agent paying the platform
	SourceTypeAgentSettlement TransactionSourceType = "AGENT_SETTLEMENT"
	// SourceTypeManual represents a manual adjustment by an administrator
	SourceTypeManual TransactionSourceType = "MANUAL"
	// SourceTypeSystem represents a system-initiated transaction
	SourceTypeSystem TransactionSourceType = "SYSTEM"
)

// String returns the string representation of TransactionSourceType
func (s TransactionSourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is valid
func (s TransactionSourceType) IsValid() bool {
	switch s {
	case SourceTypeRedemptionCode, SourceTypePayment, SourceTypePaymentRefund,
		SourceTypeAgentSettlement, SourceTypeManual, SourceTypeSystem:
		return true
	}
	return false
}

// Transaction represents an immutable record of a wallet balance change.
// Once created, transactions cannot be modified - corrections are made with
// new adjustment transactions, never edits.
type Transaction struct {
	shared.BaseEntity
	WalletID        uuid.UUID
	OwnerID         uuid.UUID
	Kind            TransactionKind
	Amount          decimal.Decimal // Always positive, direction determined by kind
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	SourceType      TransactionSourceType
	SourceID        *string // ID of the source document (optional)
	Description     string
	OperatorID      *uuid.UUID // User who performed the operation
	TransactionDate time.Time
}

// TransactionOption customizes optional transaction fields
type TransactionOption func(*Transaction)

// WithSourceID sets the source document ID
func WithSourceID(sourceID string) TransactionOption {
	return func(t *Transaction) {
		t.SourceID = &sourceID
	}
}

// WithDescription sets the human-readable description
func WithDescription(description string) TransactionOption {
	return func(t *Transaction) {
		t.Description = description
	}
}

// WithOperatorID sets the operator that triggered the transaction
func WithOperatorID(operatorID uuid.UUID) TransactionOption {
	return func(t *Transaction) {
		t.OperatorID = &operatorID
	}
}

// NewTransaction creates a new wallet transaction entry
func NewTransaction(
	walletID uuid.UUID,
	ownerID uuid.UUID,
	kind TransactionKind,
	amount decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	sourceType TransactionSourceType,
	opts ...TransactionOption,
) (*Transaction, error) {
	if walletID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WALLET", "Wallet ID cannot be empty")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_KIND", "Invalid wallet transaction kind")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if balanceBefore.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Balance before cannot be negative")
	}
	if balanceAfter.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Balance after cannot be negative")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}

	tx := &Transaction{
		BaseEntity:      shared.NewBaseEntity(),
		WalletID:        walletID,
		OwnerID:         ownerID,
		Kind:            kind,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		SourceType:      sourceType,
		TransactionDate: time.Now(),
	}

	for _, opt := range opts {
		opt(tx)
	}

	return tx, nil
}

// SignedAmount returns the amount with sign based on the transaction kind:
// positive for credits, negative for debits
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Kind.IsDebit() {
		return t.Amount.Neg()
	}
	return t.Amount
}

// BalanceChange returns the net balance change. For a clamped debit this can
// be smaller in magnitude than the signed amount.
func (t *Transaction) BalanceChange() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "wallet_transactions"
}
