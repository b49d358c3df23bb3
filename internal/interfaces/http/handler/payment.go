package handler

import (
	"time"

	paymentapp "github.com/bridgecart/backend/internal/application/payment"
	"github.com/bridgecart/backend/internal/domain/payment"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment-related API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CreatePaymentRequest represents a request to open a payment for an order
// @Description Request body for creating a payment
type CreatePaymentRequest struct {
	OrderID   string  `json:"order_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440040"`
	PayerID   string  `json:"payer_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount    float64 `json:"amount" binding:"required,gt=0" example:"199.99"`
	Currency  string  `json:"currency" example:"USD"`
	Method    string  `json:"method" binding:"required" example:"GATEWAY"`
	Subject   string  `json:"subject" binding:"max=200" example:"Order ORD-2026-00001"`
	ReturnURL string  `json:"return_url" binding:"omitempty,url" example:"https://shop.example.com/return"`
	CancelURL string  `json:"cancel_url" binding:"omitempty,url" example:"https://shop.example.com/cancel"`
}

// RefundPaymentRequest represents a request to refund a paid payment
// @Description Request body for refunding a payment
type RefundPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0" example:"199.99"`
	Reason string  `json:"reason" binding:"required,min=1,max=255" example:"Order cancelled by customer"`
}

// UpdateProofRequest represents a request to attach proof of payment
// @Description Request body for updating proof of payment
type UpdateProofRequest struct {
	Proof string `json:"proof" binding:"required,max=512" example:"https://files.example.com/receipts/123.jpg"`
	Notes string `json:"notes" binding:"max=1000" example:"Bank transfer receipt"`
}

// PaymentResponse represents a payment record in API responses
// @Description Payment record response
type PaymentResponse struct {
	ID                   string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440050"`
	OrderID              string     `json:"order_id" example:"550e8400-e29b-41d4-a716-446655440040"`
	PayerID              string     `json:"payer_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount               float64    `json:"amount" example:"199.99"`
	Currency             string     `json:"currency" example:"USD"`
	Method               string     `json:"method" example:"GATEWAY"`
	Status               string     `json:"status" example:"PENDING"`
	PaidAt               *time.Time `json:"paid_at,omitempty"`
	RefundedAt           *time.Time `json:"refunded_at,omitempty"`
	RefundedAmount       float64    `json:"refunded_amount" example:"0"`
	RefundReason         string     `json:"refund_reason,omitempty"`
	GatewayTransactionID string     `json:"gateway_transaction_id,omitempty"`
	ProofOfPayment       string     `json:"proof_of_payment,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	Version              int        `json:"version" example:"1"`
}

// CreatePaymentResponse wraps the record with the hosted payment URL when
// the gateway is involved
// @Description Payment creation response
type CreatePaymentResponse struct {
	Record     PaymentResponse `json:"record"`
	PaymentURL string          `json:"payment_url,omitempty" example:"https://gateway.example.com/pay/tx-123"`
}

// Create godoc
// @Summary      Create a payment
// @Description  Open a pending payment for an order; gateway payments also return a hosted payment URL
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body CreatePaymentRequest true "Payment creation request"
// @Success      201 {object} APIResponse[CreatePaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		h.BadRequest(c, "Invalid payer ID format")
		return
	}
	method := payment.PaymentMethod(req.Method)
	if !method.IsValid() {
		h.BadRequest(c, "Invalid payment method")
		return
	}

	result, err := h.paymentService.Create(c.Request.Context(), paymentapp.CreateRequest{
		OrderID:   orderID,
		PayerID:   payerID,
		Amount:    toDecimal(req.Amount),
		Currency:  valueobject.Currency(req.Currency),
		Method:    method,
		Subject:   req.Subject,
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, CreatePaymentResponse{
		Record:     toPaymentResponse(result.Record),
		PaymentURL: result.PaymentURL,
	})
}

// MarkPaid godoc
// @Summary      Mark a payment as paid
// @Description  Confirm a pending payment, applying its wallet effect when wallet-based
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/paid [post]
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	record, err := h.paymentService.MarkPaid(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(record))
}

// Refund godoc
// @Summary      Refund a payment
// @Description  Refund part or all of a paid payment, reversing wallet effects
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body RefundPaymentRequest true "Refund request"
// @Success      200 {object} APIResponse[PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.paymentService.Refund(c.Request.Context(), paymentID, toDecimal(req.Amount), req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(record))
}

// VerifyStatus godoc
// @Summary      Verify gateway status
// @Description  Query the gateway for the payment's current status and reconcile the record
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/verify [post]
func (h *PaymentHandler) VerifyStatus(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	record, err := h.paymentService.VerifyGatewayStatus(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(record))
}

// UpdateProof godoc
// @Summary      Attach proof of payment
// @Description  Attach an out-of-band payment proof to a manual payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body UpdateProofRequest true "Proof update request"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/proof [put]
func (h *PaymentHandler) UpdateProof(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req UpdateProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.paymentService.UpdateProof(c.Request.Context(), paymentID, req.Proof, req.Notes); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// List godoc
// @Summary      List payments
// @Description  Retrieve a paginated list of payment records with optional filtering
// @Tags         payments
// @Produce      json
// @Param        payer_id query string false "Payer filter" format(uuid)
// @Param        order_id query string false "Order filter" format(uuid)
// @Param        status query string false "Status filter (PENDING, PAID, FAILED, REFUNDED)"
// @Param        method query string false "Method filter (WALLET, GATEWAY, CASH, BANK_TRANSFER)"
// @Param        date_from query string false "Start date (RFC3339)"
// @Param        date_to query string false "End date (RFC3339)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} APIResponse[[]PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter payment.PaymentFilter
	if payerStr := c.Query("payer_id"); payerStr != "" {
		payerID, err := uuid.Parse(payerStr)
		if err != nil {
			h.BadRequest(c, "Invalid payer_id format")
			return
		}
		filter.PayerID = &payerID
	}
	if orderStr := c.Query("order_id"); orderStr != "" {
		orderID, err := uuid.Parse(orderStr)
		if err != nil {
			h.BadRequest(c, "Invalid order_id format")
			return
		}
		filter.OrderID = &orderID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := payment.PaymentStatus(statusStr)
		filter.Status = &status
	}
	if methodStr := c.Query("method"); methodStr != "" {
		method := payment.PaymentMethod(methodStr)
		if !method.IsValid() {
			h.BadRequest(c, "Invalid payment method")
			return
		}
		filter.Method = &method
	}
	if from, ok := parseTimeQuery(c, "date_from"); ok {
		filter.DateFrom = from
	} else {
		h.BadRequest(c, "Invalid date_from format")
		return
	}
	if to, ok := parseTimeQuery(c, "date_to"); ok {
		filter.DateTo = to
	} else {
		h.BadRequest(c, "Invalid date_to format")
		return
	}
	filter.Page, filter.PageSize = parsePagination(c)

	records, total, err := h.paymentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]PaymentResponse, len(records))
	for i, record := range records {
		responses[i] = toPaymentResponse(record)
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

func toPaymentResponse(record *payment.PaymentRecord) PaymentResponse {
	return PaymentResponse{
		ID:                   record.ID.String(),
		OrderID:              record.OrderID.String(),
		PayerID:              record.PayerID.String(),
		Amount:               record.Amount.InexactFloat64(),
		Currency:             string(record.Currency),
		Method:               string(record.Method),
		Status:               string(record.Status),
		PaidAt:               record.PaidAt,
		RefundedAt:           record.RefundedAt,
		RefundedAmount:       record.RefundedAmount.InexactFloat64(),
		RefundReason:         record.RefundReason,
		GatewayTransactionID: record.GatewayTransactionID,
		ProofOfPayment:       record.ProofOfPayment,
		Notes:                record.Notes,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
		Version:              record.Version,
	}
}
