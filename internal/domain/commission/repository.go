package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter narrows commission listings.
type Filter struct {
	Kind          *CommissionKind
	BeneficiaryID *uuid.UUID
	Status        *CommissionStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
}

// Repository persists commissions.
type Repository interface {
	Save(ctx context.Context, commission *Commission) error
	FindByID(ctx context.Context, id uuid.UUID) (*Commission, error)
	FindBySourceID(ctx context.Context, sourceID uuid.UUID) (*Commission, error)
	List(ctx context.Context, filter Filter) ([]*Commission, int64, error)
	SumByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, statuses []CommissionStatus) (decimal.Decimal, error)
	SumByKindAndStatus(ctx context.Context, kind CommissionKind, status CommissionStatus, from, to *time.Time) (decimal.Decimal, error)
}
