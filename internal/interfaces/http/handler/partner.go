package handler

import (
	"time"

	settlementapp "github.com/bridgecart/backend/internal/application/settlement"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PartnerHandler exposes maintenance endpoints for agent and point-of-sale
// aggregates. Counter rebuilds run out-of-band, triggered by operators.
type PartnerHandler struct {
	BaseHandler
	recalcService *settlementapp.RecalculationService
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(recalcService *settlementapp.RecalculationService) *PartnerHandler {
	return &PartnerHandler{
		recalcService: recalcService,
	}
}

// AgentResponse represents an agent in API responses
// @Description Agent response
type AgentResponse struct {
	ID                  string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440060"`
	UserID              string    `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440061"`
	Name                string    `json:"name" example:"Min-ji Kim"`
	CommissionRate      float64   `json:"commission_rate" example:"5"`
	TotalCommissions    float64   `json:"total_commissions" example:"120.50"`
	TotalEarnings       float64   `json:"total_earnings" example:"98.00"`
	TotalPaidToPlatform float64   `json:"total_paid_to_platform" example:"2150.00"`
	PendingAmount       float64   `json:"pending_amount" example:"22.50"`
	Active              bool      `json:"active" example:"true"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	Version             int       `json:"version" example:"4"`
}

// PointOfSaleResponse represents a point of sale in API responses
// @Description Point of sale response
type PointOfSaleResponse struct {
	ID                    string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440080"`
	Name                  string    `json:"name" example:"Downtown Pickup"`
	Address               string    `json:"address,omitempty" example:"12 Market St"`
	ContactUserID         *string   `json:"contact_user_id,omitempty"`
	OrderCommissionRate   float64   `json:"order_commission_rate" example:"3"`
	CodeCommissionRate    float64   `json:"code_commission_rate" example:"10"`
	AvailableCodes        int       `json:"available_codes" example:"14"`
	TotalCodesDistributed int       `json:"total_codes_distributed" example:"50"`
	TotalSales            int       `json:"total_sales" example:"36"`
	Active                bool      `json:"active" example:"true"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	Version               int       `json:"version" example:"7"`
}

// RecalculateAgent godoc
// @Summary      Rebuild agent counters
// @Description  Recompute an agent's commission and payment counters from source records
// @Tags         partners
// @Produce      json
// @Param        id path string true "Agent ID" format(uuid)
// @Success      200 {object} APIResponse[AgentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /agents/{id}/recalculate [post]
func (h *PartnerHandler) RecalculateAgent(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	agent, err := h.recalcService.RecalculateAgent(c.Request.Context(), agentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toAgentResponse(agent))
}

// RecalculatePoint godoc
// @Summary      Rebuild point-of-sale counters
// @Description  Recompute a point's code and sale counters from distribution records
// @Tags         partners
// @Produce      json
// @Param        id path string true "Point of sale ID" format(uuid)
// @Success      200 {object} APIResponse[PointOfSaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /points/{id}/recalculate [post]
func (h *PartnerHandler) RecalculatePoint(c *gin.Context) {
	pointID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid point ID format")
		return
	}

	point, err := h.recalcService.RecalculatePoint(c.Request.Context(), pointID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPointOfSaleResponse(point))
}

func toAgentResponse(agent *partner.Agent) AgentResponse {
	return AgentResponse{
		ID:                  agent.ID.String(),
		UserID:              agent.UserID.String(),
		Name:                agent.Name,
		CommissionRate:      agent.CommissionRate.InexactFloat64(),
		TotalCommissions:    agent.TotalCommissions.InexactFloat64(),
		TotalEarnings:       agent.TotalEarnings.InexactFloat64(),
		TotalPaidToPlatform: agent.TotalPaidToPlatform.InexactFloat64(),
		PendingAmount:       agent.PendingAmount.InexactFloat64(),
		Active:              agent.Active,
		CreatedAt:           agent.CreatedAt,
		UpdatedAt:           agent.UpdatedAt,
		Version:             agent.Version,
	}
}

func toPointOfSaleResponse(point *partner.PointOfSale) PointOfSaleResponse {
	resp := PointOfSaleResponse{
		ID:                    point.ID.String(),
		Name:                  point.Name,
		Address:               point.Address,
		OrderCommissionRate:   point.OrderCommissionRate.InexactFloat64(),
		CodeCommissionRate:    point.CodeCommissionRate.InexactFloat64(),
		AvailableCodes:        point.AvailableCodes,
		TotalCodesDistributed: point.TotalCodesDistributed,
		TotalSales:            point.TotalSales,
		Active:                point.Active,
		CreatedAt:             point.CreatedAt,
		UpdatedAt:             point.UpdatedAt,
		Version:               point.Version,
	}
	if point.ContactUserID != nil {
		s := point.ContactUserID.String()
		resp.ContactUserID = &s
	}
	return resp
}
