package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/wallet"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWalletRepository implements wallet.WalletRepository using GORM
type GormWalletRepository struct {
	db *gorm.DB
}

// NewGormWalletRepository creates a new GormWalletRepository
func NewGormWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// Save creates or updates a wallet
func (r *GormWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(w).Error
}

// SaveWithLock saves a wallet with optimistic locking (version check).
// All balance mutations go through this path so concurrent writers to the
// same wallet are serialized.
func (r *GormWalletRepository) SaveWithLock(ctx context.Context, w *wallet.Wallet) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(w).
		Where("id = ? AND version = ?", w.ID, w.Version-1).
		Updates(w)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a wallet by its ID
func (r *GormWalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	var w wallet.Wallet
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// FindByOwnerID finds the wallet owned by the given owner
func (r *GormWalletRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*wallet.Wallet, error) {
	var w wallet.Wallet
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// FindByNumber finds a wallet by its display number
func (r *GormWalletRepository) FindByNumber(ctx context.Context, number string) (*wallet.Wallet, error) {
	var w wallet.Wallet
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("wallet_number = ?", strings.ToUpper(number)).
		First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// NextWalletNumber generates the next unique wallet display number.
// Format: W-NNNNNN (e.g., W-000042)
func (r *GormWalletRepository) NextWalletNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, dbFromContext(ctx, r.db), &wallet.Wallet{}, "wallet_number", "W-")
}

// nextDocumentNumber generates the next sequential document number with the
// given prefix by inspecting the highest existing number. Collisions with a
// concurrent writer surface as a unique-index violation, which callers retry.
func nextDocumentNumber(ctx context.Context, db *gorm.DB, model interface{}, column, prefix string) (string, error) {
	var last string
	err := db.WithContext(ctx).
		Model(model).
		Select(column).
		Where(column+" LIKE ?", prefix+"%").
		Order(column + " DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if last != "" {
		var num int64
		if _, parseErr := fmt.Sscanf(strings.TrimPrefix(last, prefix), "%d", &num); parseErr == nil {
			nextNum = num + 1
		}
	}
	return fmt.Sprintf("%s%06d", prefix, nextNum), nil
}

// Ensure GormWalletRepository implements WalletRepository
var _ wallet.WalletRepository = (*GormWalletRepository)(nil)
