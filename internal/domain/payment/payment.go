package payment

import (
	"fmt"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of one payment record.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentMethod is how the payer settles the amount.
type PaymentMethod string

const (
	MethodWallet       PaymentMethod = "WALLET"
	MethodGateway      PaymentMethod = "GATEWAY"
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodWallet, MethodGateway, MethodCash, MethodBankTransfer:
		return true
	}
	return false
}

// IsWalletBased reports whether marking the payment paid debits the payer's wallet.
func (m PaymentMethod) IsWalletBased() bool {
	return m == MethodWallet
}

func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentRecord tracks money owed and collected for one order. All wallet
// effects of its transitions are applied by the application layer in the
// same transactional unit as the status change.
type PaymentRecord struct {
	shared.BaseAggregateRoot
	OrderID              uuid.UUID            `gorm:"type:uuid;index;not null" json:"order_id"`
	PayerID              uuid.UUID            `gorm:"type:uuid;index;not null" json:"payer_id"`
	Amount               decimal.Decimal      `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency             valueobject.Currency `gorm:"type:varchar(3);not null" json:"currency"`
	Method               PaymentMethod        `gorm:"type:varchar(20);not null" json:"method"`
	Status               PaymentStatus        `gorm:"type:varchar(20);index;not null" json:"status"`
	PaidAt               *time.Time           `json:"paid_at,omitempty"`
	RefundedAt           *time.Time           `json:"refunded_at,omitempty"`
	RefundedAmount       decimal.Decimal      `gorm:"type:decimal(15,2);not null;default:0" json:"refunded_amount"`
	RefundReason         string               `gorm:"type:varchar(255)" json:"refund_reason,omitempty"`
	GatewayTransactionID string               `gorm:"type:varchar(128);index" json:"gateway_transaction_id,omitempty"`
	ProofOfPayment       string               `gorm:"type:varchar(512)" json:"proof_of_payment,omitempty"`
	Notes                string               `gorm:"type:text" json:"notes,omitempty"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

// NewPaymentRecord creates a pending payment for an order.
func NewPaymentRecord(orderID, payerID uuid.UUID, amount decimal.Decimal, currency valueobject.Currency, method PaymentMethod) (*PaymentRecord, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order is required")
	}
	if payerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payer is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unsupported currency: %s", currency))
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid payment method: %s", method))
	}

	p := &PaymentRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		PayerID:           payerID,
		Amount:            amount,
		Currency:          currency,
		Method:            method,
		Status:            PaymentStatusPending,
		RefundedAmount:    decimal.Zero,
	}
	p.AddDomainEvent(NewPaymentCreatedEvent(p.ID, orderID, payerID, amount, method))
	return p, nil
}

// MarkPaid transitions to PAID. From PENDING or FAILED this is a normal
// settlement; from REFUNDED it is a refund reversal that clears the refund
// fields so the payment reads as settled again. Re-marking an already paid
// record is a no-op so duplicated gateway webhooks stay harmless.
func (p *PaymentRecord) MarkPaid() (WalletEffect, error) {
	switch p.Status {
	case PaymentStatusPaid:
		return WalletEffect{}, nil
	case PaymentStatusPending, PaymentStatusFailed:
		now := time.Now()
		p.Status = PaymentStatusPaid
		if p.PaidAt == nil {
			p.PaidAt = &now
		}
		p.touch(now)
		p.AddDomainEvent(NewPaymentPaidEvent(p.ID, p.OrderID, p.PayerID, p.Amount, p.Method))
		return p.walletEffect(EffectDebit, p.Amount), nil
	case PaymentStatusRefunded:
		reversed := p.RefundedAmount
		now := time.Now()
		p.Status = PaymentStatusPaid
		p.RefundedAt = nil
		p.RefundedAmount = decimal.Zero
		p.RefundReason = ""
		p.touch(now)
		p.AddDomainEvent(NewPaymentPaidEvent(p.ID, p.OrderID, p.PayerID, reversed, p.Method))
		return p.walletEffect(EffectDebit, reversed), nil
	default:
		return WalletEffect{}, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot mark payment paid from status %s", p.Status))
	}
}

// MarkFailed records a failed or administratively reverted payment. No
// wallet effect.
func (p *PaymentRecord) MarkFailed(reason string) error {
	if p.Status == PaymentStatusRefunded {
		return shared.NewDomainError("VALIDATION_ERROR", "Cannot fail a refunded payment")
	}
	if p.Status == PaymentStatusFailed {
		return nil
	}
	p.Status = PaymentStatusFailed
	if reason != "" {
		p.Notes = reason
	}
	p.touch(time.Now())
	p.AddDomainEvent(NewPaymentFailedEvent(p.ID, p.OrderID, reason))
	return nil
}

// MarkPending moves a paid record back to pending as an administrative
// correction. PaidAt is kept; it records the first settlement only.
func (p *PaymentRecord) MarkPending() error {
	if p.Status == PaymentStatusPending {
		return nil
	}
	if p.Status != PaymentStatusPaid && p.Status != PaymentStatusFailed {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cannot move payment to pending from status %s", p.Status))
	}
	p.Status = PaymentStatusPending
	p.touch(time.Now())
	return nil
}

// Refund walks back a paid payment. Rejected when a refund was already
// applied, so the wallet is credited exactly once.
func (p *PaymentRecord) Refund(amount decimal.Decimal, reason string) (WalletEffect, error) {
	if p.RefundedAt != nil {
		return WalletEffect{}, shared.NewDomainError("ALREADY_APPLIED", "Payment has already been refunded")
	}
	if p.Status != PaymentStatusPaid {
		return WalletEffect{}, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Only paid payments can be refunded, status is %s", p.Status))
	}
	if !amount.IsPositive() {
		return WalletEffect{}, shared.NewDomainError("VALIDATION_ERROR", "Refund amount must be positive")
	}
	if amount.GreaterThan(p.Amount) {
		return WalletEffect{}, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Refund amount %s exceeds payment amount %s", amount, p.Amount))
	}

	now := time.Now()
	p.Status = PaymentStatusRefunded
	p.RefundedAt = &now
	p.RefundedAmount = amount
	p.RefundReason = reason
	p.touch(now)
	p.AddDomainEvent(NewPaymentRefundedEvent(p.ID, p.OrderID, p.PayerID, amount, reason))
	return p.walletEffect(EffectCredit, amount), nil
}

func (p *PaymentRecord) walletEffect(kind EffectKind, amount decimal.Decimal) WalletEffect {
	if !p.Method.IsWalletBased() {
		return WalletEffect{}
	}
	return WalletEffect{Kind: kind, Amount: amount}
}

// AttachGatewayTransaction links the external gateway reference.
func (p *PaymentRecord) AttachGatewayTransaction(transactionID string) error {
	if transactionID == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Gateway transaction id cannot be empty")
	}
	p.GatewayTransactionID = transactionID
	p.touch(time.Now())
	return nil
}

// UpdateProof attaches proof-of-payment and notes without a status change.
func (p *PaymentRecord) UpdateProof(proof, notes string) {
	if proof != "" {
		p.ProofOfPayment = proof
	}
	if notes != "" {
		p.Notes = notes
	}
	p.touch(time.Now())
}

func (p *PaymentRecord) touch(now time.Time) {
	p.UpdatedAt = now
	p.IncrementVersion()
}

// EffectKind describes the wallet side of a payment transition.
type EffectKind string

const (
	EffectNone   EffectKind = ""
	EffectDebit  EffectKind = "DEBIT"
	EffectCredit EffectKind = "CREDIT"
)

// WalletEffect is returned by transitions so the application layer can apply
// the matching wallet mutation in the same transactional unit. A zero value
// means no wallet movement.
type WalletEffect struct {
	Kind   EffectKind
	Amount decimal.Decimal
}

func (e WalletEffect) IsZero() bool {
	return e.Kind == EffectNone
}
