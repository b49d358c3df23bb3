// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the platform.
// It tracks payment activity, wallet movements and voucher redemptions.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	paymentTotal           *Counter
	paymentAmountTotal     *Counter
	walletTransactionTotal *Counter
	codeIssuedTotal        *Counter
	codeRedeemedTotal      *Counter
	commissionAmountTotal  *Counter
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"bridgecart_payment_total",
		"Total number of payment transactions",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentAmountTotal, err = NewCounter(
		cfg.Meter,
		"bridgecart_payment_amount_total",
		"Total paid amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.walletTransactionTotal, err = NewCounter(
		cfg.Meter,
		"bridgecart_wallet_transaction_total",
		"Total number of wallet transactions applied",
		"{transactions}",
	)
	if err != nil {
		return nil, err
	}

	bm.codeIssuedTotal, err = NewCounter(
		cfg.Meter,
		"bridgecart_code_issued_total",
		"Total number of redemption codes issued",
		"{codes}",
	)
	if err != nil {
		return nil, err
	}

	bm.codeRedeemedTotal, err = NewCounter(
		cfg.Meter,
		"bridgecart_code_redeemed_total",
		"Total number of redemption codes redeemed",
		"{codes}",
	)
	if err != nil {
		return nil, err
	}

	bm.commissionAmountTotal, err = NewCounter(
		cfg.Meter,
		"bridgecart_commission_amount_total",
		"Total commission amount awarded in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// PaymentStatus represents the outcome of a payment for metrics labeling.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// RecordPayment records a finalized payment transaction.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, method string, status PaymentStatus, amount decimal.Decimal) {
	bm.paymentTotal.Inc(ctx,
		AttrPaymentMethod.String(method),
		AttrPaymentStatus.String(string(status)),
	)
	if status == PaymentStatusSuccess {
		bm.paymentAmountTotal.Add(ctx, toCents(amount),
			AttrPaymentMethod.String(method),
		)
	}
}

// RecordWalletTransaction records an applied wallet transaction.
func (bm *BusinessMetrics) RecordWalletTransaction(ctx context.Context, kind string) {
	bm.walletTransactionTotal.Inc(ctx,
		AttrTransactionKind.String(kind),
	)
}

// RecordCodesIssued records a batch of newly issued redemption codes.
func (bm *BusinessMetrics) RecordCodesIssued(ctx context.Context, batchID string, count int64) {
	bm.codeIssuedTotal.Add(ctx, count,
		AttrCodeBatchID.String(batchID),
	)
}

// RecordCodeRedeemed records a successful code redemption.
func (bm *BusinessMetrics) RecordCodeRedeemed(ctx context.Context) {
	bm.codeRedeemedTotal.Inc(ctx)
}

// RecordCommission records an awarded commission.
func (bm *BusinessMetrics) RecordCommission(ctx context.Context, kind string, amount decimal.Decimal) {
	bm.commissionAmountTotal.Add(ctx, toCents(amount),
		AttrCommissionKind.String(kind),
	)
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
