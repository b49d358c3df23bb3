package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFilter contains filter options for listing wallet transactions.
// The filters support the read-only reporting collaborators: ordered,
// filterable by kind, date range, amount range, and free text on the
// description.
type TransactionFilter struct {
	WalletID   *uuid.UUID
	OwnerID    *uuid.UUID
	Kind       *TransactionKind
	SourceType *TransactionSourceType
	DateFrom   *time.Time
	DateTo     *time.Time
	AmountMin  *decimal.Decimal
	AmountMax  *decimal.Decimal
	Search     string // free text match on description
	Page       int
	PageSize   int
}

// WalletRepository defines the interface for wallet persistence
type WalletRepository interface {
	// Save creates or updates a wallet
	Save(ctx context.Context, w *Wallet) error

	// SaveWithLock saves a wallet with optimistic locking (version check).
	// Returns CONCURRENCY_CONFLICT when the version has changed; callers
	// reload and retry so mutations to one wallet are serialized.
	SaveWithLock(ctx context.Context, w *Wallet) error

	// FindByID finds a wallet by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// FindByOwnerID finds the wallet owned by the given owner
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*Wallet, error)

	// FindByNumber finds a wallet by its display number
	FindByNumber(ctx context.Context, number string) (*Wallet, error)

	// NextWalletNumber generates the next unique wallet display number
	NextWalletNumber(ctx context.Context) (string, error)
}

// TransactionRepository defines the interface for wallet transaction persistence.
// Entries are immutable once appended; there is no update or delete.
type TransactionRepository interface {
	// Create appends a new transaction entry
	Create(ctx context.Context, tx *Transaction) error

	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByWalletID lists transactions for a wallet ordered by date descending
	FindByWalletID(ctx context.Context, walletID uuid.UUID, filter TransactionFilter) ([]*Transaction, int64, error)

	// List lists transactions with filtering
	List(ctx context.Context, filter TransactionFilter) ([]*Transaction, int64, error)

	// SumByWalletIDAndKind sums the amount by wallet and kind within a date range
	SumByWalletIDAndKind(ctx context.Context, walletID uuid.UUID, kind TransactionKind, from, to time.Time) (decimal.Decimal, error)
}
