package wallet

import (
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeWallet = "Wallet"

// Event type constants
const (
	EventTypeWalletOpened             = "WalletOpened"
	EventTypeWalletTransactionApplied = "WalletTransactionApplied"
)

// WalletOpenedEvent is published when a wallet is created for an owner
type WalletOpenedEvent struct {
	shared.BaseDomainEvent
	WalletID     uuid.UUID `json:"wallet_id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	WalletNumber string    `json:"wallet_number"`
}

// NewWalletOpenedEvent creates a new WalletOpenedEvent
func NewWalletOpenedEvent(w *Wallet) *WalletOpenedEvent {
	return &WalletOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWalletOpened, AggregateTypeWallet, w.ID),
		WalletID:        w.ID,
		OwnerID:         w.OwnerID,
		WalletNumber:    w.WalletNumber,
	}
}

// WalletTransactionAppliedEvent is published for every balance mutation
type WalletTransactionAppliedEvent struct {
	shared.BaseDomainEvent
	WalletID      uuid.UUID             `json:"wallet_id"`
	OwnerID       uuid.UUID             `json:"owner_id"`
	TransactionID uuid.UUID             `json:"transaction_id"`
	Kind          TransactionKind       `json:"kind"`
	Amount        decimal.Decimal       `json:"amount"`
	BalanceBefore decimal.Decimal       `json:"balance_before"`
	BalanceAfter  decimal.Decimal       `json:"balance_after"`
	SourceType    TransactionSourceType `json:"source_type"`
}

// NewWalletTransactionAppliedEvent creates a new WalletTransactionAppliedEvent
func NewWalletTransactionAppliedEvent(w *Wallet, tx *Transaction) *WalletTransactionAppliedEvent {
	return &WalletTransactionAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWalletTransactionApplied, AggregateTypeWallet, w.ID),
		WalletID:        w.ID,
		OwnerID:         w.OwnerID,
		TransactionID:   tx.ID,
		Kind:            tx.Kind,
		Amount:          tx.Amount,
		BalanceBefore:   tx.BalanceBefore,
		BalanceAfter:    tx.BalanceAfter,
		SourceType:      tx.SourceType,
	}
}
