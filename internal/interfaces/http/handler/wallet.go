package handler

import (
	"context"
	"time"

	walletapp "github.com/bridgecart/backend/internal/application/wallet"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/bridgecart/backend/internal/domain/wallet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet-related API endpoints
type WalletHandler struct {
	BaseHandler
	walletService *walletapp.Service
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *walletapp.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// OpenWalletRequest represents a request to open a wallet for a user
// @Description Request body for opening a wallet
type OpenWalletRequest struct {
	OwnerID  string `json:"owner_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Currency string `json:"currency" example:"USD"`
}

// WalletMutationRequest represents a credit or debit request
// @Description Request body for crediting or debiting a wallet
type WalletMutationRequest struct {
	OwnerID     string  `json:"owner_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount      float64 `json:"amount" binding:"required,gt=0" example:"50.00"`
	SourceType  string  `json:"source_type" binding:"required" example:"MANUAL"`
	SourceID    string  `json:"source_id" example:"ORD-2026-00001"`
	Description string  `json:"description" binding:"max=500" example:"Manual balance adjustment"`
}

// WalletResponse represents a wallet in API responses
// @Description Wallet response
type WalletResponse struct {
	ID           string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440010"`
	OwnerID      string    `json:"owner_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	WalletNumber string    `json:"wallet_number" example:"WLT-2026-00001"`
	Balance      float64   `json:"balance" example:"120.50"`
	Currency     string    `json:"currency" example:"USD"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version" example:"1"`
}

// WalletTransactionResponse represents a wallet transaction in API responses
// @Description Wallet transaction response
type WalletTransactionResponse struct {
	ID              string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440020"`
	WalletID        string    `json:"wallet_id" example:"550e8400-e29b-41d4-a716-446655440010"`
	OwnerID         string    `json:"owner_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Kind            string    `json:"kind" example:"CREDIT"`
	Amount          float64   `json:"amount" example:"50.00"`
	BalanceBefore   float64   `json:"balance_before" example:"70.50"`
	BalanceAfter    float64   `json:"balance_after" example:"120.50"`
	SourceType      string    `json:"source_type" example:"REDEMPTION_CODE"`
	SourceID        *string   `json:"source_id,omitempty"`
	Description     string    `json:"description,omitempty"`
	OperatorID      *string   `json:"operator_id,omitempty"`
	TransactionDate time.Time `json:"transaction_date"`
}

// Open godoc
// @Summary      Open a wallet
// @Description  Open a zero-balance wallet for a user
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request body OpenWalletRequest true "Wallet open request"
// @Success      201 {object} APIResponse[WalletResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets [post]
func (h *WalletHandler) Open(c *gin.Context) {
	var req OpenWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID format")
		return
	}

	w, err := h.walletService.Open(c.Request.Context(), ownerID, valueobject.Currency(req.Currency))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toWalletResponse(w))
}

// Credit godoc
// @Summary      Credit a wallet
// @Description  Add funds to the owner's wallet
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request body WalletMutationRequest true "Credit request"
// @Success      200 {object} APIResponse[walletapp.MutationResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets/credit [post]
func (h *WalletHandler) Credit(c *gin.Context) {
	h.mutate(c, h.walletService.Credit)
}

// Debit godoc
// @Summary      Debit a wallet
// @Description  Remove funds from the owner's wallet, rejecting on insufficient balance
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request body WalletMutationRequest true "Debit request"
// @Success      200 {object} APIResponse[walletapp.MutationResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets/debit [post]
func (h *WalletHandler) Debit(c *gin.Context) {
	h.mutate(c, h.walletService.Debit)
}

func (h *WalletHandler) mutate(c *gin.Context, op func(ctx context.Context, req walletapp.MutationRequest) (*walletapp.MutationResult, error)) {
	var req WalletMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq, err := h.toMutationRequest(c, req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := op(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetBalance godoc
// @Summary      Get wallet balance
// @Description  Retrieve the current balance of a user's wallet
// @Tags         wallets
// @Produce      json
// @Param        owner_id path string true "Owner ID" format(uuid)
// @Success      200 {object} APIResponse[BalanceData]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets/{owner_id}/balance [get]
func (h *WalletHandler) GetBalance(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("owner_id"))
	if err != nil {
		h.BadRequest(c, "Invalid owner ID format")
		return
	}

	balance, err := h.walletService.GetBalance(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, BalanceData{Balance: balance.InexactFloat64()})
}

// GetStatement godoc
// @Summary      Get wallet statement
// @Description  Retrieve a paginated, filtered transaction history for a wallet
// @Tags         wallets
// @Produce      json
// @Param        owner_id path string true "Owner ID" format(uuid)
// @Param        kind query string false "Transaction kind filter"
// @Param        source_type query string false "Source type filter"
// @Param        date_from query string false "Start date (RFC3339)"
// @Param        date_to query string false "End date (RFC3339)"
// @Param        search query string false "Free text match on description"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} APIResponse[[]WalletTransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets/{owner_id}/statement [get]
func (h *WalletHandler) GetStatement(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("owner_id"))
	if err != nil {
		h.BadRequest(c, "Invalid owner ID format")
		return
	}

	filter := wallet.TransactionFilter{
		OwnerID: &ownerID,
		Search:  c.Query("search"),
	}
	if kindStr := c.Query("kind"); kindStr != "" {
		kind := wallet.TransactionKind(kindStr)
		if !kind.IsValid() {
			h.BadRequest(c, "Invalid transaction kind")
			return
		}
		filter.Kind = &kind
	}
	if sourceStr := c.Query("source_type"); sourceStr != "" {
		source := wallet.TransactionSourceType(sourceStr)
		if !source.IsValid() {
			h.BadRequest(c, "Invalid source type")
			return
		}
		filter.SourceType = &source
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

	transactions, total, err := h.walletService.GetStatement(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]WalletTransactionResponse, len(transactions))
	for i, tx := range transactions {
		responses[i] = toWalletTransactionResponse(tx)
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

func (h *WalletHandler) toMutationRequest(c *gin.Context, req WalletMutationRequest) (walletapp.MutationRequest, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return walletapp.MutationRequest{}, err
	}

	appReq := walletapp.MutationRequest{
		OwnerID:     ownerID,
		Amount:      toDecimal(req.Amount),
		SourceType:  wallet.TransactionSourceType(req.SourceType),
		SourceID:    req.SourceID,
		Description: req.Description,
	}
	if operatorID, err := getUserID(c); err == nil {
		appReq.OperatorID = &operatorID
	}
	return appReq, nil
}

func toWalletResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		ID:           w.ID.String(),
		OwnerID:      w.OwnerID.String(),
		WalletNumber: w.WalletNumber,
		Balance:      w.Balance.InexactFloat64(),
		Currency:     string(w.Currency),
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
		Version:      w.Version,
	}
}

func toWalletTransactionResponse(tx *wallet.Transaction) WalletTransactionResponse {
	resp := WalletTransactionResponse{
		ID:              tx.ID.String(),
		WalletID:        tx.WalletID.String(),
		OwnerID:         tx.OwnerID.String(),
		Kind:            string(tx.Kind),
		Amount:          tx.Amount.InexactFloat64(),
		BalanceBefore:   tx.BalanceBefore.InexactFloat64(),
		BalanceAfter:    tx.BalanceAfter.InexactFloat64(),
		SourceType:      string(tx.SourceType),
		SourceID:        tx.SourceID,
		Description:     tx.Description,
		TransactionDate: tx.TransactionDate,
	}
	if tx.OperatorID != nil {
		s := tx.OperatorID.String()
		resp.OperatorID = &s
	}
	return resp
}
