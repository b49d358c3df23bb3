package handler

import (
	"time"

	voucherapp "github.com/bridgecart/backend/internal/application/voucher"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VoucherHandler handles redemption code API endpoints
type VoucherHandler struct {
	BaseHandler
	voucherService *voucherapp.Service
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(voucherService *voucherapp.Service) *VoucherHandler {
	return &VoucherHandler{
		voucherService: voucherService,
	}
}

// GenerateCodesRequest represents a request to generate redemption codes
// @Description Request body for generating a batch of redemption codes
type GenerateCodesRequest struct {
	Count      int     `json:"count" binding:"omitempty,min=1,max=1000" example:"10"`
	CodeLength int     `json:"code_length" binding:"omitempty,min=8,max=32" example:"16"`
	Value      float64 `json:"value" binding:"required,gt=0" example:"25.00"`
	Currency   string  `json:"currency" example:"USD"`
	ExpiresAt  *string `json:"expires_at,omitempty" example:"2027-01-01T00:00:00Z"`
	Notes      string  `json:"notes" binding:"max=500" example:"Spring promotion batch"`
}

// RedeemCodeRequest represents a request to redeem a code into a wallet
// @Description Request body for redeeming a code
type RedeemCodeRequest struct {
	Code    string `json:"code" binding:"required,min=8,max=32" example:"BC7K2M9PQ4XW8RTZ"`
	OwnerID string `json:"owner_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// DisableCodeRequest represents a request to disable a code
// @Description Request body for disabling a code
type DisableCodeRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255" example:"Batch issued in error"`
}

// RedemptionCodeResponse represents a redemption code in API responses
// @Description Redemption code response
type RedemptionCodeResponse struct {
	ID           string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440030"`
	Code         string     `json:"code" example:"BC7K2M9PQ4XW8RTZ"`
	Value        float64    `json:"value" example:"25.00"`
	Currency     string     `json:"currency" example:"USD"`
	State        string     `json:"state" example:"ACTIVE"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	UsedBy       *string    `json:"used_by,omitempty"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	ReturnReason string     `json:"return_reason,omitempty"`
	CreatedBy    string     `json:"created_by"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Generate godoc
// @Summary      Generate redemption codes
// @Description  Issue a batch of codes with the same face value
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        request body GenerateCodesRequest true "Code generation request"
// @Success      201 {object} APIResponse[[]RedemptionCodeResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/generate [post]
func (h *VoucherHandler) Generate(c *gin.Context) {
	var req GenerateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	createdBy, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authenticated user required")
		return
	}

	appReq := voucherapp.GenerateRequest{
		Count:      req.Count,
		CodeLength: req.CodeLength,
		Value:      toDecimal(req.Value),
		Currency:   valueobject.Currency(req.Currency),
		Notes:      req.Notes,
		CreatedBy:  createdBy,
	}
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			h.BadRequest(c, "Invalid expires_at format")
			return
		}
		appReq.ExpiresAt = &expiresAt
	}

	codes, err := h.voucherService.Generate(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]RedemptionCodeResponse, len(codes))
	for i, code := range codes {
		responses[i] = toRedemptionCodeResponse(code)
	}
	h.Created(c, responses)
}

// Redeem godoc
// @Summary      Redeem a code
// @Description  Convert an active code into a wallet credit for its face value
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        request body RedeemCodeRequest true "Redemption request"
// @Success      200 {object} APIResponse[voucherapp.RedeemResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/redeem [post]
func (h *VoucherHandler) Redeem(c *gin.Context) {
	var req RedeemCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID format")
		return
	}

	result, err := h.voucherService.Redeem(c.Request.Context(), req.Code, ownerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Disable godoc
// @Summary      Disable a code
// @Description  Take an unused code out of circulation
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        code path string true "Code ID" format(uuid)
// @Param        request body DisableCodeRequest true "Disable request"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/{code}/disable [post]
func (h *VoucherHandler) Disable(c *gin.Context) {
	codeID, err := uuid.Parse(c.Param("code"))
	if err != nil {
		h.BadRequest(c, "Invalid code ID format")
		return
	}

	var req DisableCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.voucherService.Disable(c.Request.Context(), codeID, req.Reason); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Get godoc
// @Summary      Look up a code
// @Description  Retrieve a redemption code by its raw code string
// @Tags         vouchers
// @Produce      json
// @Param        code path string true "Raw code string"
// @Success      200 {object} APIResponse[RedemptionCodeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/{code} [get]
func (h *VoucherHandler) Get(c *gin.Context) {
	rawCode := c.Param("code")
	if rawCode == "" {
		h.BadRequest(c, "Code is required")
		return
	}

	code, err := h.voucherService.Get(c.Request.Context(), rawCode)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRedemptionCodeResponse(code))
}

// List godoc
// @Summary      List redemption codes
// @Description  Retrieve a paginated list of codes with optional filtering
// @Tags         vouchers
// @Produce      json
// @Param        state query string false "Code state filter (ACTIVE, REDEEMED, RETURNED, EXPIRED)"
// @Param        created_by query string false "Creator filter" format(uuid)
// @Param        used_by query string false "Redeemer filter" format(uuid)
// @Param        date_from query string false "Start date (RFC3339)"
// @Param        date_to query string false "End date (RFC3339)"
// @Param        search query string false "Free text match on code or notes"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} APIResponse[[]RedemptionCodeResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers [get]
func (h *VoucherHandler) List(c *gin.Context) {
	filter := voucher.CodeFilter{
		Search: c.Query("search"),
	}
	if stateStr := c.Query("state"); stateStr != "" {
		state := voucher.CodeState(stateStr)
		filter.State = &state
	}
	if createdByStr := c.Query("created_by"); createdByStr != "" {
		createdBy, err := uuid.Parse(createdByStr)
		if err != nil {
			h.BadRequest(c, "Invalid created_by format")
			return
		}
		filter.CreatedBy = &createdBy
	}
	if usedByStr := c.Query("used_by"); usedByStr != "" {
		usedBy, err := uuid.Parse(usedByStr)
		if err != nil {
			h.BadRequest(c, "Invalid used_by format")
			return
		}
		filter.UsedBy = &usedBy
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

	codes, total, err := h.voucherService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]RedemptionCodeResponse, len(codes))
	for i, code := range codes {
		responses[i] = toRedemptionCodeResponse(code)
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

func toRedemptionCodeResponse(code *voucher.RedemptionCode) RedemptionCodeResponse {
	resp := RedemptionCodeResponse{
		ID:           code.ID.String(),
		Code:         code.Code,
		Value:        code.Value.InexactFloat64(),
		Currency:     string(code.Currency),
		State:        string(code.State()),
		ExpiresAt:    code.ExpiresAt,
		UsedAt:       code.UsedAt,
		ReturnedAt:   code.ReturnedAt,
		ReturnReason: code.ReturnReason,
		CreatedBy:    code.CreatedBy.String(),
		Notes:        code.Notes,
		CreatedAt:    code.CreatedAt,
	}
	if code.UsedBy != nil {
		s := code.UsedBy.String()
		resp.UsedBy = &s
	}
	return resp
}
