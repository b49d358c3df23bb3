package voucher

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CodeFilter narrows code listings for administration and reporting.
type CodeFilter struct {
	State     *CodeState
	CreatedBy *uuid.UUID
	UsedBy    *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string
	Page      int
	PageSize  int
}

// CodeRepository persists redemption codes.
type CodeRepository interface {
	Save(ctx context.Context, code *RedemptionCode) error
	SaveWithLock(ctx context.Context, code *RedemptionCode) error
	SaveBatch(ctx context.Context, codes []*RedemptionCode) error
	FindByID(ctx context.Context, id uuid.UUID) (*RedemptionCode, error)
	FindByCode(ctx context.Context, code string) (*RedemptionCode, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, filter CodeFilter) ([]*RedemptionCode, int64, error)
}

// DistributionFilter narrows distribution listings.
type DistributionFilter struct {
	PointID  *uuid.UUID
	Status   *DistributionStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// DistributionRepository persists code distributions.
type DistributionRepository interface {
	Save(ctx context.Context, distribution *CodeDistribution) error
	SaveBatch(ctx context.Context, distributions []*CodeDistribution) error
	FindByID(ctx context.Context, id uuid.UUID) (*CodeDistribution, error)
	FindByCodeID(ctx context.Context, codeID uuid.UUID) (*CodeDistribution, error)
	List(ctx context.Context, filter DistributionFilter) ([]*CodeDistribution, int64, error)
	CountByPointIDAndStatus(ctx context.Context, pointID uuid.UUID, status DistributionStatus) (int64, error)
}
