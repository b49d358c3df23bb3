package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bridgecart/backend/internal/domain/payment"
)

const (
	createPaymentPath = "/v1/payments"
	queryPaymentPath  = "/v1/payments/%s"
	refundPath        = "/v1/payments/%s/refunds"
)

// HTTPGateway implements the payment.Gateway port against a JSON-over-HTTP
// provider. Requests carry the merchant API key; inbound webhooks are
// verified with an HMAC-SHA256 signature over the raw payload.
type HTTPGateway struct {
	config     *Config
	httpClient *http.Client
}

// NewHTTPGateway creates a new gateway adapter
func NewHTTPGateway(config *Config) (*HTTPGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &HTTPGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

var _ payment.Gateway = (*HTTPGateway)(nil)

type createPaymentBody struct {
	MerchantID string `json:"merchant_id"`
	OrderRef   string `json:"order_ref"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Subject    string `json:"subject,omitempty"`
	ReturnURL  string `json:"return_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
	NotifyURL  string `json:"notify_url,omitempty"`
}

type paymentResponseBody struct {
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
}

type refundBody struct {
	MerchantID string `json:"merchant_id"`
	Amount     string `json:"amount,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type refundResponseBody struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
}

type errorResponseBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreatePayment opens a hosted payment at the gateway
func (g *HTTPGateway) CreatePayment(ctx context.Context, req payment.CreatePaymentRequest) (*payment.CreatePaymentResponse, error) {
	if req.OrderRef == "" {
		return nil, fmt.Errorf("gateway: order reference is required")
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("gateway: amount must be positive")
	}

	body := createPaymentBody{
		MerchantID: g.config.MerchantID,
		OrderRef:   req.OrderRef,
		Amount:     req.Amount.StringFixed(2),
		Currency:   string(req.Currency),
		Subject:    req.Subject,
		ReturnURL:  req.ReturnURL,
		CancelURL:  req.CancelURL,
		NotifyURL:  g.config.NotifyURL,
	}
	if body.ReturnURL == "" {
		body.ReturnURL = g.config.ReturnURL
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to marshal request: %w", err)
	}

	respBody, err := g.doRequest(ctx, http.MethodPost, createPaymentPath, bodyBytes)
	if err != nil {
		return nil, err
	}

	var respData paymentResponseBody
	if err := json.Unmarshal(respBody, &respData); err != nil {
		return nil, fmt.Errorf("gateway: failed to parse response: %w", err)
	}
	if respData.TransactionID == "" {
		return nil, fmt.Errorf("gateway: response missing transaction ID")
	}

	return &payment.CreatePaymentResponse{
		PaymentURL:    respData.PaymentURL,
		TransactionID: respData.TransactionID,
	}, nil
}

// QueryPayment fetches the gateway's view of a transaction
func (g *HTTPGateway) QueryPayment(ctx context.Context, transactionID string) (*payment.QueryPaymentResponse, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("gateway: transaction ID is required")
	}

	path := fmt.Sprintf(queryPaymentPath, transactionID)
	respBody, err := g.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var respData paymentResponseBody
	if err := json.Unmarshal(respBody, &respData); err != nil {
		return nil, fmt.Errorf("gateway: failed to parse response: %w", err)
	}

	amount := decimal.Zero
	if respData.Amount != "" {
		amount, err = decimal.NewFromString(respData.Amount)
		if err != nil {
			return nil, fmt.Errorf("gateway: invalid amount in response: %w", err)
		}
	}

	return &payment.QueryPaymentResponse{
		TransactionID: respData.TransactionID,
		Status:        mapGatewayStatus(respData.Status),
		Amount:        amount,
	}, nil
}

// Refund asks the gateway to return funds for a transaction
func (g *HTTPGateway) Refund(ctx context.Context, req payment.RefundRequest) (*payment.RefundResponse, error) {
	if req.TransactionID == "" {
		return nil, fmt.Errorf("gateway: transaction ID is required")
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("gateway: refund amount cannot be negative")
	}

	body := refundBody{
		MerchantID: g.config.MerchantID,
		Reason:     req.Reason,
	}
	// Zero amount requests a full refund; the gateway determines the total.
	if req.Amount.IsPositive() {
		body.Amount = req.Amount.StringFixed(2)
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to marshal request: %w", err)
	}

	path := fmt.Sprintf(refundPath, req.TransactionID)
	respBody, err := g.doRequest(ctx, http.MethodPost, path, bodyBytes)
	if err != nil {
		return nil, err
	}

	var respData refundResponseBody
	if err := json.Unmarshal(respBody, &respData); err != nil {
		return nil, fmt.Errorf("gateway: failed to parse response: %w", err)
	}
	if respData.RefundID == "" {
		return nil, fmt.Errorf("gateway: response missing refund ID")
	}

	return &payment.RefundResponse{
		RefundID: respData.RefundID,
		Status:   mapGatewayStatus(respData.Status),
	}, nil
}

type webhookPayload struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// VerifyWebhook checks the HMAC-SHA256 signature of an inbound callback
// and parses the notification. The signature is the hex digest of the raw
// payload keyed with the webhook secret.
func (g *HTTPGateway) VerifyWebhook(payload []byte, signature string) (*payment.WebhookNotification, error) {
	if signature == "" {
		return nil, fmt.Errorf("gateway: missing webhook signature")
	}

	mac := hmac.New(sha256.New, []byte(g.config.WebhookSecret))
	mac.Write(payload)

	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return nil, fmt.Errorf("gateway: malformed webhook signature")
	}
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return nil, fmt.Errorf("gateway: webhook signature mismatch")
	}

	var data webhookPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("gateway: failed to parse webhook payload: %w", err)
	}
	if data.TransactionID == "" {
		return nil, fmt.Errorf("gateway: webhook payload missing transaction ID")
	}

	return &payment.WebhookNotification{
		TransactionID: data.TransactionID,
		Status:        mapGatewayStatus(data.Status),
	}, nil
}

// doRequest performs an authenticated HTTP call and returns the response body
func (g *HTTPGateway) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(g.config.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errData errorResponseBody
		if json.Unmarshal(respBody, &errData) == nil && errData.Message != "" {
			return nil, fmt.Errorf("gateway: %s (%s)", errData.Message, errData.Code)
		}
		return nil, fmt.Errorf("gateway: unexpected status %d", resp.StatusCode)
	}

	return respBody, nil
}

// mapGatewayStatus normalizes the provider's status strings
func mapGatewayStatus(status string) payment.GatewayPaymentStatus {
	switch strings.ToUpper(status) {
	case "SUCCEEDED", "SUCCESS", "PAID":
		return payment.GatewayStatusSucceeded
	case "FAILED", "CLOSED", "EXPIRED":
		return payment.GatewayStatusFailed
	case "REFUNDED":
		return payment.GatewayStatusRefunded
	default:
		return payment.GatewayStatusPending
	}
}
