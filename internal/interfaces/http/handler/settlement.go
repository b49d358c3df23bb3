package handler

import (
	"time"

	settlementapp "github.com/bridgecart/backend/internal/application/settlement"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/bridgecart/backend/internal/domain/trade"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlementHandler handles agent order and code distribution API endpoints
type SettlementHandler struct {
	BaseHandler
	settlementService *settlementapp.Service
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *settlementapp.Service) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// CreateAgentOrderRequest represents a request to draft a new agent order
// @Description Request body for creating an agent order
type CreateAgentOrderRequest struct {
	AgentID     string  `json:"agent_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440060"`
	TotalCost   float64 `json:"total_cost" binding:"required,gt=0" example:"450.00"`
	Currency    string  `json:"currency" example:"USD"`
	Description string  `json:"description" binding:"max=1000" example:"Three handbags from the Milan store"`
}

// SubmitAgentOrderRequest represents a request to submit an agent order
// @Description Request body for submitting an agent order to the platform
type SubmitAgentOrderRequest struct {
	AgentOrderID    string  `json:"agent_order_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440070"`
	CustomerID      string  `json:"customer_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	PickupPointID   *string `json:"pickup_point_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440080"`
	DeliveryAddress string  `json:"delivery_address,omitempty" binding:"max=255" example:"12 Rue de Rivoli, Paris"`
}

// BatchSubmitRequest represents a batch of agent order submissions
// @Description Request body for submitting several agent orders at once
type BatchSubmitRequest struct {
	Orders []SubmitAgentOrderRequest `json:"orders" binding:"required,min=1,dive"`
}

// AgentPaymentRequest represents a request to settle an agent order
// @Description Request body for recording an agent's payment to the platform
type AgentPaymentRequest struct {
	Method           string `json:"method" binding:"required" example:"WALLET"`
	Proof            string `json:"proof" binding:"max=512" example:"https://files.example.com/proof/456.jpg"`
	SettleCommission bool   `json:"settle_commission" example:"true"`
}

// DistributeCodesRequest represents a request to hand codes to a point of sale
// @Description Request body for distributing codes to a pickup point
type DistributeCodesRequest struct {
	PointID         string   `json:"point_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440080"`
	CodeIDs         []string `json:"code_ids" binding:"required,min=1,dive,uuid"`
	DiscountPercent float64  `json:"discount_percent" binding:"gte=0,lt=100" example:"10"`
}

// SellCodeRequest represents a request to record a point-of-sale code sale
// @Description Request body for selling a distributed code
type SellCodeRequest struct {
	SalePrice  float64 `json:"sale_price" binding:"required,gt=0" example:"25.00"`
	CustomerID *string `json:"customer_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ReturnCodeRequest represents a request to return an unsold code
// @Description Request body for returning a distributed code
type ReturnCodeRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255" example:"Seasonal stock return"`
}

// AgentOrderResponse represents an agent order in API responses
// @Description Agent order response
type AgentOrderResponse struct {
	ID                string                `json:"id" example:"550e8400-e29b-41d4-a716-446655440070"`
	AgentID           string                `json:"agent_id" example:"550e8400-e29b-41d4-a716-446655440060"`
	OrderNumber       string                `json:"order_number" example:"AGO-2026-00001"`
	TotalCost         float64               `json:"total_cost" example:"450.00"`
	Currency          string                `json:"currency" example:"USD"`
	Description       string                `json:"description,omitempty"`
	Status            string                `json:"status" example:"DRAFT"`
	StatusHistory     partner.StatusHistory `json:"status_history"`
	DownstreamOrderID *string               `json:"downstream_order_id,omitempty"`
	PaymentMethod     string                `json:"payment_method,omitempty"`
	ProofOfPayment    string                `json:"proof_of_payment,omitempty"`
	PaidAmount        float64               `json:"paid_amount" example:"0"`
	PaidAt            *time.Time            `json:"paid_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Version           int                   `json:"version" example:"1"`
}

// OrderResponse represents a downstream trade order in API responses
// @Description Trade order response
type OrderResponse struct {
	ID            string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440040"`
	OrderNumber   string     `json:"order_number" example:"ORD-2026-00001"`
	CustomerID    string     `json:"customer_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	AgentOrderID  *string    `json:"agent_order_id,omitempty"`
	TotalCost     float64    `json:"total_cost" example:"450.00"`
	Currency      string     `json:"currency" example:"USD"`
	Status        string     `json:"status" example:"CREATED"`
	DeliveryKind  string     `json:"delivery_kind" example:"PICKUP_POINT"`
	Address       string     `json:"address,omitempty"`
	PickupPointID *string    `json:"pickup_point_id,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int        `json:"version" example:"1"`
}

// SubmitResultResponse represents the outcome of an agent order submission
// @Description Agent order submission result
type SubmitResultResponse struct {
	AgentOrder      AgentOrderResponse `json:"agent_order"`
	DownstreamOrder OrderResponse      `json:"downstream_order"`
	AlreadyLinked   bool               `json:"already_linked" example:"false"`
}

// BatchSubmitResultResponse isolates one submission outcome within a batch
// @Description Batch submission entry result
type BatchSubmitResultResponse struct {
	AgentOrderID string                `json:"agent_order_id"`
	Result       *SubmitResultResponse `json:"result,omitempty"`
	Error        string                `json:"error,omitempty"`
}

// CodeDistributionResponse represents a code distribution in API responses
// @Description Code distribution response
type CodeDistributionResponse struct {
	ID              string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440090"`
	CodeID          string     `json:"code_id" example:"550e8400-e29b-41d4-a716-446655440030"`
	PointID         string     `json:"point_id" example:"550e8400-e29b-41d4-a716-446655440080"`
	OriginalAmount  float64    `json:"original_amount" example:"25.00"`
	DiscountPercent float64    `json:"discount_percent" example:"10"`
	PurchasePrice   float64    `json:"purchase_price" example:"22.50"`
	Status          string     `json:"status" example:"DISTRIBUTED"`
	SalePrice       *float64   `json:"sale_price,omitempty"`
	SoldAt          *time.Time `json:"sold_at,omitempty"`
	SoldTo          *string    `json:"sold_to,omitempty"`
	ReturnedAt      *time.Time `json:"returned_at,omitempty"`
	DistributedBy   string     `json:"distributed_by"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CreateAgentOrder godoc
// @Summary      Create an agent order
// @Description  Draft a new agent order for an active agent
// @Tags         settlement
// @Accept       json
// @Produce      json
// @Param        request body CreateAgentOrderRequest true "Agent order creation request"
// @Success      201 {object} APIResponse[AgentOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlement/agent-orders [post]
func (h *SettlementHandler) CreateAgentOrder(c *gin.Context) {
	var req CreateAgentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	order, err := h.settlementService.CreateAgentOrder(c.Request.Context(), settlementapp.CreateAgentOrderRequest{
		AgentID:     agentID,
		TotalCost:   toDecimal(req.TotalCost),
		Currency:    valueobject.Currency(req.Currency),
		Description: req.Description,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toAgentOrderResponse(order))
}

// SubmitAgentOrder godoc
// @Summary      Submit an agent order
// @Description  Submit an agent order to the platform, creating the downstream customer order; idempotent on resubmission
// @Tags         settlement
// @Accept       json
// @Produce      json
// @Param        request body SubmitAgentOrderRequest true "Submission request"
// @Success      200 {object} APIResponse[SubmitResultResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlement/agent-orders/submit [post]
func (h *SettlementHandler) SubmitAgentOrder(c *gin.Context) {
	var req SubmitAgentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq, err := h.toSubmitRequest(c, req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.settlementService.SubmitAgentOrder(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toSubmitResultResponse(result))
}

// BatchSubmit godoc
// @Summary      Submit several agent orders
// @Description  Submit a batch of agent orders; one failure does not abort the rest
// @Tags         settlement
// @Accept       json
// @Produce      json
// @Param        request body BatchSubmitRequest true "Batch submission request"
// @Success      200 {object} APIResponse[[]BatchSubmitResultResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlement/agent-orders/batch-submit [post]
func (h *SettlementHandler) BatchSubmit(c *gin.Context) {
	var req BatchSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appRequests := make([]settlementapp.SubmitRequest, 0, len(req.Orders))
	for _, order := range req.Orders {
		appReq, err := h.toSubmitRequest(c, order)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		appRequests = append(appRequests, appReq)
	}

	results := h.settlementService.BatchSubmit(c.Request.Context(), appRequests)

	responses := make([]BatchSubmitResultResponse, len(results))
	for i, result := range results {
		entry := BatchSubmitResultResponse{
			AgentOrderID: result.AgentOrderID.String(),
			Error:        result.Error,
		}
		if result.Result != nil && result.Error == "" {
			r := toSubmitResultResponse(result.Result)
			entry.Result = &r
		}
		responses[i] = entry
	}
	h.Success(c, responses)
}

// MarkAgentPayment godoc
// @Summary      Record agent payment
// @Description  Settle an agent order towards the platform; wallet payments debit the agent's wallet atomically
// @Tags         settlement
// @Accept       json
// @Produce      json
// @Param        id path string true "Agent Order ID" format(uuid)
// @Param        request body AgentPaymentRequest true "Payment request"
// @Success      200 {object} APIResponse[AgentOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlement/agent-orders/{id}/payment [post]
func (h *SettlementHandler) MarkAgentPayment(c *gin.Context) {
	agentOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid agent order ID format")
		return
	}

	var req AgentPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := settlementapp.AgentPaymentRequest{
		AgentOrderID:     agentOrderID,
		Method:           req.Method,
		Proof:            req.Proof,
		SettleCommission: req.SettleCommission,
	}
	if actorID, err := getUserID(c); err == nil {
		appReq.ActorID = &actorID
	}

	order, err := h.settlementService.MarkAgentPayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toAgentOrderResponse(order))
}

// DistributeCodes godoc
// @Summary      Distribute codes to a point
// @Description  Hand a batch of codes to a point of sale; all or nothing
// @Tags         settlement
// @Accept       json
// @Produce      json
// @Param        request body DistributeCodesRequest true "Distribution request"
// @Success      201 {object} APIResponse[[]CodeDistributionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlement/distributions [post]
func (h *SettlementHandler) DistributeCodes(c *gin.Context) {
	var req DistributeCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	pointID, err := uuid.Parse(req.PointID)
	if err != nil {
		h.BadRequest(c, "Invalid point ID format")
		return
	}
	codeIDs := make([]uuid.UUID, 0, len(req.CodeIDs))
	for _, raw := range req.CodeIDs {
		codeID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid code ID format")
			return
		}
		codeIDs = append(codeIDs, codeID)
	}

	distributedBy, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authenticated user required")
		return
	}

	distributions, err := h.settlementService.DistributeCodes(c.Request.Context(), settlementapp.DistributeRequest{
		PointID:         pointID,
		CodeIDs:         codeIDs,
		DiscountPercent: toDecimal(req.DiscountPercent),
		DistributedBy:   distributedBy,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]CodeDistributionResponse, len(distributions))
	for i, distribution := range distributions {
		responses[i] = toCodeDistributionResponse(distribution)
	}
	h.Created(c, responses)
}

// SellCode godoc
// @Summary      Sell a distributed code
// @Description  Record a point-of-sale sale; a known customer gets the code redeemed into their wallet on the spot
// @Tags         settlement
// @Accept       json
// @Produce      json
// @Param        id path string true "Distribution ID" format(uuid)
// @Param        request body SellCodeRequest true "Sale request"
// @Success      200 {object} APIResponse[CodeDistributionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlement/distributions/{id}/sell [post]
func (h *SettlementHandler) SellCode(c *gin.Context) {
	distributionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid distribution ID format")
		return
	}

	var req SellCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := settlementapp.SellCodeRequest{
		DistributionID: distributionID,
		SalePrice:      toDecimal(req.SalePrice),
	}
	if req.CustomerID != nil && *req.CustomerID != "" {
		customerID, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		appReq.CustomerID = &customerID
	}

	distribution, err := h.settlementService.SellCode(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCodeDistributionResponse(distribution))
}

// ReturnCode godoc
// @Summary      Return a distributed code
// @Description  Take back an unsold code from a point of sale
// @Tags         settlement
// @Accept       json
// @Produce      json
// @Param        id path string true "Distribution ID" format(uuid)
// @Param        request body ReturnCodeRequest true "Return request"
// @Success      200 {object} APIResponse[CodeDistributionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlement/distributions/{id}/return [post]
func (h *SettlementHandler) ReturnCode(c *gin.Context) {
	distributionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid distribution ID format")
		return
	}

	var req ReturnCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	distribution, err := h.settlementService.ReturnCode(c.Request.Context(), distributionID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCodeDistributionResponse(distribution))
}

// ConfirmPickup godoc
// @Summary      Confirm order pickup
// @Description  Mark a shipped order as delivered after pickup at the point
// @Tags         settlement
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlement/orders/{id}/pickup [post]
func (h *SettlementHandler) ConfirmPickup(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.settlementService.ConfirmPickup(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toOrderResponse(order))
}

func (h *SettlementHandler) toSubmitRequest(c *gin.Context, req SubmitAgentOrderRequest) (settlementapp.SubmitRequest, error) {
	agentOrderID, err := uuid.Parse(req.AgentOrderID)
	if err != nil {
		return settlementapp.SubmitRequest{}, err
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return settlementapp.SubmitRequest{}, err
	}

	appReq := settlementapp.SubmitRequest{
		AgentOrderID:    agentOrderID,
		CustomerID:      customerID,
		DeliveryAddress: req.DeliveryAddress,
	}
	if req.PickupPointID != nil && *req.PickupPointID != "" {
		pointID, err := uuid.Parse(*req.PickupPointID)
		if err != nil {
			return settlementapp.SubmitRequest{}, err
		}
		appReq.PickupPointID = &pointID
	}
	if actorID, err := getUserID(c); err == nil {
		appReq.ActorID = &actorID
	}
	return appReq, nil
}

func toAgentOrderResponse(order *partner.AgentOrder) AgentOrderResponse {
	resp := AgentOrderResponse{
		ID:             order.ID.String(),
		AgentID:        order.AgentID.String(),
		OrderNumber:    order.OrderNumber,
		TotalCost:      order.TotalCost.InexactFloat64(),
		Currency:       string(order.Currency),
		Description:    order.Description,
		Status:         string(order.Status),
		StatusHistory:  order.StatusHistory,
		PaymentMethod:  order.PaymentMethod,
		ProofOfPayment: order.ProofOfPayment,
		PaidAmount:     order.PaidAmount.InexactFloat64(),
		PaidAt:         order.PaidAt,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
		Version:        order.Version,
	}
	if order.DownstreamOrderID != nil {
		s := order.DownstreamOrderID.String()
		resp.DownstreamOrderID = &s
	}
	return resp
}

func toOrderResponse(order *trade.Order) OrderResponse {
	resp := OrderResponse{
		ID:           order.ID.String(),
		OrderNumber:  order.OrderNumber,
		CustomerID:   order.CustomerID.String(),
		TotalCost:    order.TotalCost.InexactFloat64(),
		Currency:     string(order.Currency),
		Status:       string(order.Status),
		DeliveryKind: string(order.Delivery.Kind),
		Address:      order.Delivery.Address,
		DeliveredAt:  order.DeliveredAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
		Version:      order.Version,
	}
	if order.AgentOrderID != nil {
		s := order.AgentOrderID.String()
		resp.AgentOrderID = &s
	}
	if order.Delivery.PickupPointID != nil {
		s := order.Delivery.PickupPointID.String()
		resp.PickupPointID = &s
	}
	return resp
}

func toSubmitResultResponse(result *settlementapp.SubmitResult) SubmitResultResponse {
	return SubmitResultResponse{
		AgentOrder:      toAgentOrderResponse(result.AgentOrder),
		DownstreamOrder: toOrderResponse(result.DownstreamOrder),
		AlreadyLinked:   result.AlreadyLinked,
	}
}

func toCodeDistributionResponse(distribution *voucher.CodeDistribution) CodeDistributionResponse {
	resp := CodeDistributionResponse{
		ID:              distribution.ID.String(),
		CodeID:          distribution.CodeID.String(),
		PointID:         distribution.PointID.String(),
		OriginalAmount:  distribution.OriginalAmount.InexactFloat64(),
		DiscountPercent: distribution.DiscountPercent.InexactFloat64(),
		PurchasePrice:   distribution.PurchasePrice.InexactFloat64(),
		Status:          string(distribution.Status),
		SoldAt:          distribution.SoldAt,
		ReturnedAt:      distribution.ReturnedAt,
		DistributedBy:   distribution.DistributedBy.String(),
		CreatedAt:       distribution.CreatedAt,
	}
	if distribution.SalePrice != nil {
		f := distribution.SalePrice.InexactFloat64()
		resp.SalePrice = &f
	}
	if distribution.SoldTo != nil {
		s := distribution.SoldTo.String()
		resp.SoldTo = &s
	}
	return resp
}
