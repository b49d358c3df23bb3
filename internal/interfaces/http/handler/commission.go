package handler

import (
	"time"

	commissionapp "github.com/bridgecart/backend/internal/application/commission"
	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CommissionHandler handles commission-related API endpoints
type CommissionHandler struct {
	BaseHandler
	commissionService *commissionapp.Service
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(commissionService *commissionapp.Service) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
	}
}

// PayCommissionRequest represents a request to pay out a commission
// @Description Request body for marking a commission as paid
type PayCommissionRequest struct {
	Method string `json:"method" binding:"required,min=1,max=30" example:"BANK_TRANSFER"`
}

// CancelCommissionRequest represents a request to cancel a commission
// @Description Request body for cancelling a commission
type CancelCommissionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255" example:"Source order was cancelled"`
}

// CommissionResponse represents a commission in API responses
// @Description Commission response
type CommissionResponse struct {
	ID            string     `json:"id" example:"550e8400-e29b-41d4-a716-4466554400a0"`
	Kind          string     `json:"kind" example:"AGENT_ORDER"`
	BeneficiaryID string     `json:"beneficiary_id" example:"550e8400-e29b-41d4-a716-446655440060"`
	SourceID      string     `json:"source_id" example:"550e8400-e29b-41d4-a716-446655440070"`
	BaseAmount    float64    `json:"base_amount" example:"450.00"`
	Rate          float64    `json:"rate" example:"5"`
	Amount        float64    `json:"amount" example:"22.50"`
	Status        string     `json:"status" example:"CALCULATED"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	PaidBy        *string    `json:"paid_by,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int        `json:"version" example:"1"`
}

// Confirm godoc
// @Summary      Confirm a commission
// @Description  Move a pending commission to calculated, making it payable
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Commission ID" format(uuid)
// @Success      200 {object} APIResponse[CommissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /commissions/{id}/confirm [post]
func (h *CommissionHandler) Confirm(c *gin.Context) {
	commissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	result, err := h.commissionService.Confirm(c.Request.Context(), commissionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCommissionResponse(result))
}

// MarkPaid godoc
// @Summary      Pay out a commission
// @Description  Mark a calculated commission as paid to its beneficiary
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Commission ID" format(uuid)
// @Param        request body PayCommissionRequest true "Payout request"
// @Success      200 {object} APIResponse[CommissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /commissions/{id}/pay [post]
func (h *CommissionHandler) MarkPaid(c *gin.Context) {
	commissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	var req PayCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	paidBy, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authenticated user required")
		return
	}

	result, err := h.commissionService.MarkPaid(c.Request.Context(), commissionID, paidBy, req.Method)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCommissionResponse(result))
}

// Cancel godoc
// @Summary      Cancel a commission
// @Description  Cancel an unpaid commission, usually because its source was reversed
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Commission ID" format(uuid)
// @Param        request body CancelCommissionRequest true "Cancellation request"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /commissions/{id}/cancel [post]
func (h *CommissionHandler) Cancel(c *gin.Context) {
	commissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	var req CancelCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.commissionService.Cancel(c.Request.Context(), commissionID, req.Reason); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Get godoc
// @Summary      Get a commission
// @Description  Retrieve a commission by its ID
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Commission ID" format(uuid)
// @Success      200 {object} APIResponse[CommissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /commissions/{id} [get]
func (h *CommissionHandler) Get(c *gin.Context) {
	commissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	result, err := h.commissionService.Get(c.Request.Context(), commissionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCommissionResponse(result))
}

// List godoc
// @Summary      List commissions
// @Description  Retrieve a paginated list of commissions with optional filtering
// @Tags         commissions
// @Produce      json
// @Param        kind query string false "Kind filter (AGENT_ORDER, POINT_ORDER, POINT_CODE)"
// @Param        beneficiary_id query string false "Beneficiary filter" format(uuid)
// @Param        status query string false "Status filter (PENDING, CALCULATED, PAID, CANCELLED)"
// @Param        date_from query string false "Start date (RFC3339)"
// @Param        date_to query string false "End date (RFC3339)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} APIResponse[[]CommissionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /commissions [get]
func (h *CommissionHandler) List(c *gin.Context) {
	var filter commission.Filter
	if kindStr := c.Query("kind"); kindStr != "" {
		kind := commission.CommissionKind(kindStr)
		if !kind.IsValid() {
			h.BadRequest(c, "Invalid commission kind")
			return
		}
		filter.Kind = &kind
	}
	if beneficiaryStr := c.Query("beneficiary_id"); beneficiaryStr != "" {
		beneficiaryID, err := uuid.Parse(beneficiaryStr)
		if err != nil {
			h.BadRequest(c, "Invalid beneficiary_id format")
			return
		}
		filter.BeneficiaryID = &beneficiaryID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := commission.CommissionStatus(statusStr)
		filter.Status = &status
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

	commissions, total, err := h.commissionService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]CommissionResponse, len(commissions))
	for i, result := range commissions {
		responses[i] = toCommissionResponse(result)
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// SummarizeBeneficiary godoc
// @Summary      Summarize a beneficiary
// @Description  Report outstanding and paid commission totals for one beneficiary
// @Tags         commissions
// @Produce      json
// @Param        beneficiary_id path string true "Beneficiary ID" format(uuid)
// @Success      200 {object} APIResponse[commissionapp.BeneficiarySummary]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /commissions/beneficiaries/{beneficiary_id}/summary [get]
func (h *CommissionHandler) SummarizeBeneficiary(c *gin.Context) {
	beneficiaryID, err := uuid.Parse(c.Param("beneficiary_id"))
	if err != nil {
		h.BadRequest(c, "Invalid beneficiary ID format")
		return
	}

	summary, err := h.commissionService.SummarizeBeneficiary(c.Request.Context(), beneficiaryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

func toCommissionResponse(result *commission.Commission) CommissionResponse {
	resp := CommissionResponse{
		ID:            result.ID.String(),
		Kind:          string(result.Kind),
		BeneficiaryID: result.BeneficiaryID.String(),
		SourceID:      result.SourceID.String(),
		BaseAmount:    result.BaseAmount.InexactFloat64(),
		Rate:          result.Rate.InexactFloat64(),
		Amount:        result.Amount.InexactFloat64(),
		Status:        string(result.Status),
		PaidAt:        result.PaidAt,
		PaymentMethod: result.PaymentMethod,
		Notes:         result.Notes,
		CreatedAt:     result.CreatedAt,
		UpdatedAt:     result.UpdatedAt,
		Version:       result.Version,
	}
	if result.PaidBy != nil {
		s := result.PaidBy.String()
		resp.PaidBy = &s
	}
	return resp
}
