package payment

import (
	"context"

	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// GatewayPaymentStatus is the status vocabulary of the external gateway.
type GatewayPaymentStatus string

const (
	GatewayStatusPending   GatewayPaymentStatus = "PENDING"
	GatewayStatusSucceeded GatewayPaymentStatus = "SUCCEEDED"
	GatewayStatusFailed    GatewayPaymentStatus = "FAILED"
	GatewayStatusRefunded  GatewayPaymentStatus = "REFUNDED"
)

// CreatePaymentRequest asks the gateway to open a hosted payment.
type CreatePaymentRequest struct {
	Amount    decimal.Decimal
	Currency  valueobject.Currency
	OrderRef  string
	Subject   string
	ReturnURL string
	CancelURL string
}

// CreatePaymentResponse carries the gateway's payment handle.
type CreatePaymentResponse struct {
	PaymentURL    string
	TransactionID string
}

// QueryPaymentResponse is the gateway's view of a transaction.
type QueryPaymentResponse struct {
	TransactionID string
	Status        GatewayPaymentStatus
	Amount        decimal.Decimal
}

// RefundRequest asks the gateway to return funds. A zero amount means a
// full refund.
type RefundRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Reason        string
}

// RefundResponse carries the gateway's refund handle.
type RefundResponse struct {
	RefundID string
	Status   GatewayPaymentStatus
}

// WebhookNotification is a verified inbound gateway callback. Delivery may
// be duplicated; consumers must treat repeats as no-ops.
type WebhookNotification struct {
	TransactionID string
	Status        GatewayPaymentStatus
}

// Gateway is the outbound port to the external payment provider. Adapter
// failures surface as GATEWAY_ERROR; records stay pending until the gateway
// confirms, never optimistically paid.
type Gateway interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error)
	QueryPayment(ctx context.Context, transactionID string) (*QueryPaymentResponse, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error)
	VerifyWebhook(payload []byte, signature string) (*WebhookNotification, error)
}
