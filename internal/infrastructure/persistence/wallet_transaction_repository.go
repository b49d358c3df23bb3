package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormWalletTransactionRepository implements wallet.TransactionRepository
// using GORM. Entries are append-only.
type GormWalletTransactionRepository struct {
	db *gorm.DB
}

// NewGormWalletTransactionRepository creates a new GormWalletTransactionRepository
func NewGormWalletTransactionRepository(db *gorm.DB) *GormWalletTransactionRepository {
	return &GormWalletTransactionRepository{db: db}
}

// Create appends a new transaction entry
func (r *GormWalletTransactionRepository) Create(ctx context.Context, tx *wallet.Transaction) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(tx).Error
}

// FindByID finds a transaction by ID
func (r *GormWalletTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Transaction, error) {
	var tx wallet.Transaction
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByWalletID lists transactions for a wallet ordered by date descending
func (r *GormWalletTransactionRepository) FindByWalletID(ctx context.Context, walletID uuid.UUID, filter wallet.TransactionFilter) ([]*wallet.Transaction, int64, error) {
	filter.WalletID = &walletID
	return r.List(ctx, filter)
}

// List lists transactions with filtering
func (r *GormWalletTransactionRepository) List(ctx context.Context, filter wallet.TransactionFilter) ([]*wallet.Transaction, int64, error) {
	query := r.applyFilter(dbFromContext(ctx, r.db).WithContext(ctx).Model(&wallet.Transaction{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var txs []*wallet.Transaction
	if err := query.Order("transaction_date DESC, created_at DESC").Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// SumByWalletIDAndKind sums the amount by wallet and kind within a date range
func (r *GormWalletTransactionRepository) SumByWalletIDAndKind(ctx context.Context, walletID uuid.UUID, kind wallet.TransactionKind, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&wallet.Transaction{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("wallet_id = ? AND kind = ? AND transaction_date >= ? AND transaction_date <= ?",
			walletID, kind, from, to).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// applyFilter applies filter options to the query, without pagination
func (r *GormWalletTransactionRepository) applyFilter(query *gorm.DB, filter wallet.TransactionFilter) *gorm.DB {
	if filter.WalletID != nil {
		query = query.Where("wallet_id = ?", *filter.WalletID)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}
	if filter.DateFrom != nil {
		query = query.Where("transaction_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("transaction_date <= ?", *filter.DateTo)
	}
	if filter.AmountMin != nil {
		query = query.Where("amount >= ?", *filter.AmountMin)
	}
	if filter.AmountMax != nil {
		query = query.Where("amount <= ?", *filter.AmountMax)
	}
	if filter.Search != "" {
		query = query.Where("description ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormWalletTransactionRepository implements TransactionRepository
var _ wallet.TransactionRepository = (*GormWalletTransactionRepository)(nil)
