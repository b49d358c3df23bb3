package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentFilter narrows payment listings for reporting and administration.
type PaymentFilter struct {
	PayerID  *uuid.UUID
	OrderID  *uuid.UUID
	Status   *PaymentStatus
	Method   *PaymentMethod
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// Repository persists payment records.
type Repository interface {
	Save(ctx context.Context, record *PaymentRecord) error
	SaveWithLock(ctx context.Context, record *PaymentRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentRecord, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*PaymentRecord, error)
	FindByGatewayTransactionID(ctx context.Context, transactionID string) (*PaymentRecord, error)
	List(ctx context.Context, filter PaymentFilter) ([]*PaymentRecord, int64, error)
	SumByStatus(ctx context.Context, status PaymentStatus, from, to *time.Time) (decimal.Decimal, error)
	SumByMethod(ctx context.Context, method PaymentMethod, from, to *time.Time) (decimal.Decimal, error)
}
