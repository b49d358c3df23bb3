package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	settlementapp "github.com/bridgecart/backend/internal/application/settlement"
	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/shared/valueobject"
	"github.com/bridgecart/backend/internal/domain/trade"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"github.com/bridgecart/backend/internal/domain/wallet"
	"github.com/bridgecart/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock implementations for partner, trade, distribution and commission repositories

type mockAgentRepository struct {
	agents    map[uuid.UUID]*partner.Agent
	returnErr error
}

func newMockAgentRepository() *mockAgentRepository {
	return &mockAgentRepository{agents: make(map[uuid.UUID]*partner.Agent)}
}

func (m *mockAgentRepository) Save(ctx context.Context, agent *partner.Agent) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.agents[agent.ID] = agent
	return nil
}

func (m *mockAgentRepository) SaveWithLock(ctx context.Context, agent *partner.Agent) error {
	return m.Save(ctx, agent)
}

func (m *mockAgentRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Agent, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if agent, ok := m.agents[id]; ok {
		return agent, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockAgentRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*partner.Agent, error) {
	for _, agent := range m.agents {
		if agent.UserID == userID {
			return agent, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockAgentRepository) List(ctx context.Context, page, pageSize int) ([]*partner.Agent, int64, error) {
	result := make([]*partner.Agent, 0, len(m.agents))
	for _, agent := range m.agents {
		result = append(result, agent)
	}
	return result, int64(len(result)), nil
}

type mockPointRepository struct {
	points    map[uuid.UUID]*partner.PointOfSale
	returnErr error
}

func newMockPointRepository() *mockPointRepository {
	return &mockPointRepository{points: make(map[uuid.UUID]*partner.PointOfSale)}
}

func (m *mockPointRepository) Save(ctx context.Context, point *partner.PointOfSale) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.points[point.ID] = point
	return nil
}

func (m *mockPointRepository) SaveWithLock(ctx context.Context, point *partner.PointOfSale) error {
	return m.Save(ctx, point)
}

func (m *mockPointRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.PointOfSale, error) {
	if point, ok := m.points[id]; ok {
		return point, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockPointRepository) List(ctx context.Context, page, pageSize int) ([]*partner.PointOfSale, int64, error) {
	result := make([]*partner.PointOfSale, 0, len(m.points))
	for _, point := range m.points {
		result = append(result, point)
	}
	return result, int64(len(result)), nil
}

type mockAgentOrderRepository struct {
	orders    map[uuid.UUID]*partner.AgentOrder
	returnErr error
	nextNum   int
}

func newMockAgentOrderRepository() *mockAgentOrderRepository {
	return &mockAgentOrderRepository{orders: make(map[uuid.UUID]*partner.AgentOrder)}
}

func (m *mockAgentOrderRepository) Save(ctx context.Context, order *partner.AgentOrder) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockAgentOrderRepository) SaveWithLock(ctx context.Context, order *partner.AgentOrder) error {
	return m.Save(ctx, order)
}

func (m *mockAgentOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.AgentOrder, error) {
	if order, ok := m.orders[id]; ok {
		return order, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockAgentOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*partner.AgentOrder, error) {
	for _, order := range m.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockAgentOrderRepository) List(ctx context.Context, filter partner.AgentOrderFilter) ([]*partner.AgentOrder, int64, error) {
	var result []*partner.AgentOrder
	for _, order := range m.orders {
		if filter.AgentID != nil && order.AgentID != *filter.AgentID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, order)
	}
	if filter.Page > 1 {
		return nil, int64(len(result)), nil
	}
	return result, int64(len(result)), nil
}

func (m *mockAgentOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	m.nextNum++
	return fmt.Sprintf("AGO-2026-%05d", m.nextNum), nil
}

type mockOrderRepository struct {
	orders    map[uuid.UUID]*trade.Order
	returnErr error
	nextNum   int
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*trade.Order)}
}

func (m *mockOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	return m.Save(ctx, order)
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	if order, ok := m.orders[id]; ok {
		return order, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockOrderRepository) FindByAgentOrderID(ctx context.Context, agentOrderID uuid.UUID) (*trade.Order, error) {
	for _, order := range m.orders {
		if order.AgentOrderID != nil && *order.AgentOrderID == agentOrderID {
			return order, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	m.nextNum++
	return fmt.Sprintf("ORD-2026-%05d", m.nextNum), nil
}

type mockDistributionRepository struct {
	distributions map[uuid.UUID]*voucher.CodeDistribution
	returnErr     error
}

func newMockDistributionRepository() *mockDistributionRepository {
	return &mockDistributionRepository{distributions: make(map[uuid.UUID]*voucher.CodeDistribution)}
}

func (m *mockDistributionRepository) Save(ctx context.Context, distribution *voucher.CodeDistribution) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.distributions[distribution.ID] = distribution
	return nil
}

func (m *mockDistributionRepository) SaveBatch(ctx context.Context, distributions []*voucher.CodeDistribution) error {
	for _, distribution := range distributions {
		if err := m.Save(ctx, distribution); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockDistributionRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.CodeDistribution, error) {
	if distribution, ok := m.distributions[id]; ok {
		return distribution, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockDistributionRepository) FindByCodeID(ctx context.Context, codeID uuid.UUID) (*voucher.CodeDistribution, error) {
	for _, distribution := range m.distributions {
		if distribution.CodeID == codeID {
			return distribution, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockDistributionRepository) List(ctx context.Context, filter voucher.DistributionFilter) ([]*voucher.CodeDistribution, int64, error) {
	var result []*voucher.CodeDistribution
	for _, distribution := range m.distributions {
		if filter.PointID != nil && distribution.PointID != *filter.PointID {
			continue
		}
		if filter.Status != nil && distribution.Status != *filter.Status {
			continue
		}
		result = append(result, distribution)
	}
	return result, int64(len(result)), nil
}

func (m *mockDistributionRepository) CountByPointIDAndStatus(ctx context.Context, pointID uuid.UUID, status voucher.DistributionStatus) (int64, error) {
	var count int64
	for _, distribution := range m.distributions {
		if distribution.PointID == pointID && distribution.Status == status {
			count++
		}
	}
	return count, nil
}

type mockCommissionRepository struct {
	commissions map[uuid.UUID]*commission.Commission
	returnErr   error
}

func newMockCommissionRepository() *mockCommissionRepository {
	return &mockCommissionRepository{commissions: make(map[uuid.UUID]*commission.Commission)}
}

func (m *mockCommissionRepository) Save(ctx context.Context, c *commission.Commission) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.commissions[c.ID] = c
	return nil
}

func (m *mockCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	if c, ok := m.commissions[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockCommissionRepository) FindBySourceID(ctx context.Context, sourceID uuid.UUID) (*commission.Commission, error) {
	for _, c := range m.commissions {
		if c.SourceID == sourceID {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockCommissionRepository) List(ctx context.Context, filter commission.Filter) ([]*commission.Commission, int64, error) {
	if m.returnErr != nil {
		return nil, 0, m.returnErr
	}
	var result []*commission.Commission
	for _, c := range m.commissions {
		if filter.Kind != nil && c.Kind != *filter.Kind {
			continue
		}
		if filter.BeneficiaryID != nil && c.BeneficiaryID != *filter.BeneficiaryID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		result = append(result, c)
	}
	return result, int64(len(result)), nil
}

func (m *mockCommissionRepository) SumByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, statuses []commission.CommissionStatus) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, c := range m.commissions {
		if c.BeneficiaryID != beneficiaryID {
			continue
		}
		for _, status := range statuses {
			if c.Status == status {
				sum = sum.Add(c.Amount)
				break
			}
		}
	}
	return sum, nil
}

func (m *mockCommissionRepository) SumByKindAndStatus(ctx context.Context, kind commission.CommissionKind, status commission.CommissionStatus, from, to *time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, c := range m.commissions {
		if c.Kind == kind && c.Status == status {
			sum = sum.Add(c.Amount)
		}
	}
	return sum, nil
}

type settlementTestEnv struct {
	agentRepo        *mockAgentRepository
	pointRepo        *mockPointRepository
	agentOrderRepo   *mockAgentOrderRepository
	orderRepo        *mockOrderRepository
	codeRepo         *mockCodeRepository
	distributionRepo *mockDistributionRepository
	commissionRepo   *mockCommissionRepository
	walletRepo       *mockWalletRepository
	txRepo           *mockTransactionRepository
	router           *gin.Engine
}

func newSettlementTestEnv(t *testing.T) *settlementTestEnv {
	t.Helper()

	env := &settlementTestEnv{
		agentRepo:        newMockAgentRepository(),
		pointRepo:        newMockPointRepository(),
		agentOrderRepo:   newMockAgentOrderRepository(),
		orderRepo:        newMockOrderRepository(),
		codeRepo:         newMockCodeRepository(),
		distributionRepo: newMockDistributionRepository(),
		commissionRepo:   newMockCommissionRepository(),
		walletRepo:       newMockWalletRepository(),
		txRepo:           newMockTransactionRepository(),
	}
	service := settlementapp.NewService(
		env.agentOrderRepo, env.agentRepo, env.pointRepo, env.orderRepo,
		env.codeRepo, env.distributionRepo, env.commissionRepo,
		env.walletRepo, env.txRepo,
		&mockTxManager{}, &mockEventPublisher{}, zap.NewNop(),
	)
	h := NewSettlementHandler(service)

	router := gin.New()
	router.POST("/settlement/agent-orders", h.CreateAgentOrder)
	router.POST("/settlement/agent-orders/submit", h.SubmitAgentOrder)
	router.POST("/settlement/agent-orders/batch-submit", h.BatchSubmit)
	router.POST("/settlement/agent-orders/:id/payment", h.MarkAgentPayment)
	router.POST("/settlement/distributions", h.DistributeCodes)
	router.POST("/settlement/distributions/:id/sell", h.SellCode)
	router.POST("/settlement/distributions/:id/return", h.ReturnCode)
	router.POST("/settlement/orders/:id/pickup", h.ConfirmPickup)
	env.router = router
	return env
}

func (e *settlementTestEnv) seedAgent(t *testing.T, rate decimal.Decimal) *partner.Agent {
	t.Helper()
	agent, err := partner.NewAgent(uuid.New(), "Marta Kovacs", rate)
	require.NoError(t, err)
	e.agentRepo.agents[agent.ID] = agent
	return agent
}

func (e *settlementTestEnv) seedPoint(t *testing.T) *partner.PointOfSale {
	t.Helper()
	point, err := partner.NewPointOfSale("Central Pickup", "1 Market Square", decimal.NewFromInt(5), decimal.NewFromInt(5))
	require.NoError(t, err)
	e.pointRepo.points[point.ID] = point
	return point
}

func (e *settlementTestEnv) seedAgentOrder(t *testing.T, agent *partner.Agent, total decimal.Decimal) *partner.AgentOrder {
	t.Helper()
	number, err := e.agentOrderRepo.NextOrderNumber(context.Background())
	require.NoError(t, err)
	order, err := partner.NewAgentOrder(agent.ID, number, total, valueobject.USD, "handbags from Milan")
	require.NoError(t, err)
	e.agentOrderRepo.orders[order.ID] = order
	return order
}

func (e *settlementTestEnv) seedActiveCode(t *testing.T, raw string, value decimal.Decimal) *voucher.RedemptionCode {
	t.Helper()
	code, err := voucher.NewRedemptionCode(raw, value, valueobject.USD, uuid.New())
	require.NoError(t, err)
	e.codeRepo.codes[code.ID] = code
	return code
}

func (e *settlementTestEnv) seedDistribution(t *testing.T, point *partner.PointOfSale, code *voucher.RedemptionCode) *voucher.CodeDistribution {
	t.Helper()
	distribution, err := voucher.NewCodeDistribution(code.ID, point.ID, code.Value, decimal.NewFromInt(10), uuid.New())
	require.NoError(t, err)
	e.distributionRepo.distributions[distribution.ID] = distribution
	return distribution
}

func (e *settlementTestEnv) seedWalletFor(t *testing.T, ownerID uuid.UUID, balance decimal.Decimal) *wallet.Wallet {
	t.Helper()
	w, err := wallet.NewWallet(ownerID, "WLT-2026-99997", valueobject.USD)
	require.NoError(t, err)
	if balance.IsPositive() {
		_, err = w.Credit(balance, wallet.SourceTypeManual)
		require.NoError(t, err)
	}
	e.walletRepo.wallets[w.ID] = w
	return w
}

func TestSettlementHandlerCreateAgentOrder(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))

	w := postJSON(t, env.router, "/settlement/agent-orders", CreateAgentOrderRequest{
		AgentID:     agent.ID.String(),
		TotalCost:   450,
		Currency:    "USD",
		Description: "Three handbags",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, agent.ID.String(), data["agent_id"])
	assert.Equal(t, "AGO-2026-00001", data["order_number"])
	assert.Equal(t, "DRAFT", data["status"])
	assert.Equal(t, float64(450), data["total_cost"])
}

func TestSettlementHandlerCreateAgentOrderInactiveAgent(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))
	agent.Deactivate()

	w := postJSON(t, env.router, "/settlement/agent-orders", CreateAgentOrderRequest{
		AgentID:   agent.ID.String(),
		TotalCost: 450,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.agentOrderRepo.orders)
}

func TestSettlementHandlerSubmitAgentOrder(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))
	order := env.seedAgentOrder(t, agent, decimal.NewFromInt(200))
	customerID := uuid.New()

	w := postJSON(t, env.router, "/settlement/agent-orders/submit", SubmitAgentOrderRequest{
		AgentOrderID:    order.ID.String(),
		CustomerID:      customerID.String(),
		DeliveryAddress: "12 Rue de Rivoli, Paris",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["already_linked"])

	agentOrder := data["agent_order"].(map[string]interface{})
	assert.Equal(t, "PENDING", agentOrder["status"])
	require.NotNil(t, agentOrder["downstream_order_id"])

	downstream := data["downstream_order"].(map[string]interface{})
	assert.Equal(t, "ORD-2026-00001", downstream["order_number"])
	assert.Equal(t, customerID.String(), downstream["customer_id"])
	assert.Equal(t, "CREATED", downstream["status"])
	assert.Equal(t, "HOME", downstream["delivery_kind"])
	assert.Equal(t, float64(200), downstream["total_cost"])

	// commission accrues, remainder is owed to the platform
	assert.True(t, agent.TotalCommissions.Equal(decimal.NewFromInt(20)))
	assert.True(t, agent.PendingAmount.Equal(decimal.NewFromInt(180)))
}

func TestSettlementHandlerSubmitAgentOrderPickupPoint(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))
	order := env.seedAgentOrder(t, agent, decimal.NewFromInt(120))
	point := env.seedPoint(t)
	pointID := point.ID.String()

	w := postJSON(t, env.router, "/settlement/agent-orders/submit", SubmitAgentOrderRequest{
		AgentOrderID:  order.ID.String(),
		CustomerID:    uuid.New().String(),
		PickupPointID: &pointID,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	downstream := data["downstream_order"].(map[string]interface{})
	assert.Equal(t, "PICKUP_POINT", downstream["delivery_kind"])
	assert.Equal(t, pointID, downstream["pickup_point_id"])
}

func TestSettlementHandlerSubmitIdempotent(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))
	order := env.seedAgentOrder(t, agent, decimal.NewFromInt(200))
	customerID := uuid.New()

	req := SubmitAgentOrderRequest{
		AgentOrderID:    order.ID.String(),
		CustomerID:      customerID.String(),
		DeliveryAddress: "12 Rue de Rivoli, Paris",
	}

	first := postJSON(t, env.router, "/settlement/agent-orders/submit", req)
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, env.router, "/settlement/agent-orders/submit", req)
	assert.Equal(t, http.StatusOK, second.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["already_linked"])
	assert.Len(t, env.orderRepo.orders, 1)
	// counters moved once, not twice
	assert.True(t, agent.TotalCommissions.Equal(decimal.NewFromInt(20)))
}

func TestSettlementHandlerBatchSubmitIsolatesFailures(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))
	order := env.seedAgentOrder(t, agent, decimal.NewFromInt(200))
	missingID := uuid.New()

	w := postJSON(t, env.router, "/settlement/agent-orders/batch-submit", BatchSubmitRequest{
		Orders: []SubmitAgentOrderRequest{
			{AgentOrderID: order.ID.String(), CustomerID: uuid.New().String(), DeliveryAddress: "1 High St"},
			{AgentOrderID: missingID.String(), CustomerID: uuid.New().String(), DeliveryAddress: "2 High St"},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	entries := resp.Data.([]interface{})
	require.Len(t, entries, 2)

	first := entries[0].(map[string]interface{})
	assert.Equal(t, order.ID.String(), first["agent_order_id"])
	assert.NotNil(t, first["result"])
	assert.Nil(t, first["error"])

	second := entries[1].(map[string]interface{})
	assert.Equal(t, missingID.String(), second["agent_order_id"])
	assert.Nil(t, second["result"])
	assert.NotEmpty(t, second["error"])

	assert.Len(t, env.orderRepo.orders, 1)
}

func TestSettlementHandlerMarkAgentPaymentWallet(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))
	order := env.seedAgentOrder(t, agent, decimal.NewFromInt(200))
	require.NoError(t, order.MarkSubmitted(nil, agent.CommissionRate))
	env.seedWalletFor(t, agent.UserID, decimal.NewFromInt(300))

	w := postJSON(t, env.router, "/settlement/agent-orders/"+order.ID.String()+"/payment", AgentPaymentRequest{
		Method: "WALLET",
		Proof:  "https://files.example.com/proof/456.jpg",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "PAID", data["status"])
	assert.Equal(t, float64(180), data["paid_amount"])
	assert.Equal(t, "WALLET", data["payment_method"])

	// due amount (total less commission) debited from the agent's wallet
	agentWallet, err := env.walletRepo.FindByOwnerID(context.Background(), agent.UserID)
	require.NoError(t, err)
	assert.True(t, agentWallet.Balance.Equal(decimal.NewFromInt(120)))
	require.Len(t, env.txRepo.transactions, 1)
	assert.Equal(t, wallet.SourceTypeAgentSettlement, env.txRepo.transactions[0].SourceType)
}

func TestSettlementHandlerMarkAgentPaymentInsufficientFunds(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))
	order := env.seedAgentOrder(t, agent, decimal.NewFromInt(200))
	require.NoError(t, order.MarkSubmitted(nil, agent.CommissionRate))
	env.seedWalletFor(t, agent.UserID, decimal.NewFromInt(50))

	w := postJSON(t, env.router, "/settlement/agent-orders/"+order.ID.String()+"/payment", AgentPaymentRequest{
		Method: "WALLET",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeInsufficientFunds, resp.Error.Code)
	assert.Equal(t, partner.AgentOrderStatusPending, order.Status)
	assert.Empty(t, env.txRepo.transactions)
}

func TestSettlementHandlerMarkAgentPaymentTwice(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))
	order := env.seedAgentOrder(t, agent, decimal.NewFromInt(200))
	require.NoError(t, order.MarkSubmitted(nil, agent.CommissionRate))

	first := postJSON(t, env.router, "/settlement/agent-orders/"+order.ID.String()+"/payment", AgentPaymentRequest{
		Method: "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, env.router, "/settlement/agent-orders/"+order.ID.String()+"/payment", AgentPaymentRequest{
		Method: "BANK_TRANSFER",
	})
	assert.Equal(t, http.StatusConflict, second.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeAlreadyApplied, resp.Error.Code)
}

func TestSettlementHandlerMarkAgentPaymentSettlesCommission(t *testing.T) {
	env := newSettlementTestEnv(t)
	agent := env.seedAgent(t, decimal.NewFromInt(10))
	order := env.seedAgentOrder(t, agent, decimal.NewFromInt(200))
	require.NoError(t, order.MarkSubmitted(nil, agent.CommissionRate))

	c, err := commission.NewCommission(commission.KindAgentOrder, agent.ID, order.ID,
		decimal.NewFromInt(200), decimal.NewFromInt(10), commission.StatusCalculated)
	require.NoError(t, err)
	env.commissionRepo.commissions[c.ID] = c

	actorID := uuid.New()
	w := postJSONAs(t, env.router, "/settlement/agent-orders/"+order.ID.String()+"/payment", actorID, AgentPaymentRequest{
		Method:           "BANK_TRANSFER",
		SettleCommission: true,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, commission.StatusPaid, c.Status)
	require.NotNil(t, c.PaidBy)
	assert.Equal(t, actorID, *c.PaidBy)
	assert.True(t, agent.TotalEarnings.Equal(decimal.NewFromInt(20)))
}

func TestSettlementHandlerDistributeCodes(t *testing.T) {
	env := newSettlementTestEnv(t)
	point := env.seedPoint(t)
	first := env.seedActiveCode(t, "BC-AAAA-BBBB", decimal.NewFromFloat(25))
	second := env.seedActiveCode(t, "BC-CCCC-DDDD", decimal.NewFromFloat(25))
	distributor := uuid.New()

	w := postJSONAs(t, env.router, "/settlement/distributions", distributor, DistributeCodesRequest{
		PointID:         point.ID.String(),
		CodeIDs:         []string{first.ID.String(), second.ID.String()},
		DiscountPercent: 10,
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	entries := resp.Data.([]interface{})
	require.Len(t, entries, 2)

	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "DISTRIBUTED", entry["status"])
	assert.Equal(t, 22.50, entry["purchase_price"])
	assert.Equal(t, distributor.String(), entry["distributed_by"])

	assert.Len(t, env.distributionRepo.distributions, 2)
}

func TestSettlementHandlerDistributeCodesAllOrNothing(t *testing.T) {
	env := newSettlementTestEnv(t)
	point := env.seedPoint(t)
	active := env.seedActiveCode(t, "BC-AAAA-BBBB", decimal.NewFromFloat(25))
	redeemed := env.seedActiveCode(t, "BC-CCCC-DDDD", decimal.NewFromFloat(25))
	require.NoError(t, redeemed.Redeem(uuid.New()))

	w := postJSONAs(t, env.router, "/settlement/distributions", uuid.New(), DistributeCodesRequest{
		PointID: point.ID.String(),
		CodeIDs: []string{active.ID.String(), redeemed.ID.String()},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.distributionRepo.distributions)
}

func TestSettlementHandlerSellCodeAnonymous(t *testing.T) {
	env := newSettlementTestEnv(t)
	point := env.seedPoint(t)
	code := env.seedActiveCode(t, "BC-AAAA-BBBB", decimal.NewFromFloat(25))
	distribution := env.seedDistribution(t, point, code)

	w := postJSON(t, env.router, "/settlement/distributions/"+distribution.ID.String()+"/sell", SellCodeRequest{
		SalePrice: 24,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "SOLD", data["status"])
	assert.Equal(t, float64(24), data["sale_price"])
	assert.Nil(t, data["sold_to"])

	// no buyer wallet involved: the code stays unredeemed
	assert.True(t, code.IsActive())
	assert.Empty(t, env.txRepo.transactions)
}

func TestSettlementHandlerSellCodeToCustomer(t *testing.T) {
	env := newSettlementTestEnv(t)
	point := env.seedPoint(t)
	code := env.seedActiveCode(t, "BC-AAAA-BBBB", decimal.NewFromFloat(25))
	distribution := env.seedDistribution(t, point, code)
	customerID := uuid.New()
	env.seedWalletFor(t, customerID, decimal.Zero)
	customer := customerID.String()

	w := postJSON(t, env.router, "/settlement/distributions/"+distribution.ID.String()+"/sell", SellCodeRequest{
		SalePrice:  24,
		CustomerID: &customer,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "SOLD", data["status"])
	assert.Equal(t, customer, data["sold_to"])

	// the wallet is credited the code's original value, not the sale price
	customerWallet, err := env.walletRepo.FindByOwnerID(context.Background(), customerID)
	require.NoError(t, err)
	assert.True(t, customerWallet.Balance.Equal(decimal.NewFromFloat(25)))
	require.Len(t, env.txRepo.transactions, 1)
	assert.Equal(t, wallet.SourceTypeRedemptionCode, env.txRepo.transactions[0].SourceType)
	assert.False(t, code.IsActive())
}

func TestSettlementHandlerSellCodeTwice(t *testing.T) {
	env := newSettlementTestEnv(t)
	point := env.seedPoint(t)
	code := env.seedActiveCode(t, "BC-AAAA-BBBB", decimal.NewFromFloat(25))
	distribution := env.seedDistribution(t, point, code)

	first := postJSON(t, env.router, "/settlement/distributions/"+distribution.ID.String()+"/sell", SellCodeRequest{SalePrice: 24})
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, env.router, "/settlement/distributions/"+distribution.ID.String()+"/sell", SellCodeRequest{SalePrice: 24})
	assert.Equal(t, http.StatusConflict, second.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeAlreadyApplied, resp.Error.Code)
}

func TestSettlementHandlerReturnCode(t *testing.T) {
	env := newSettlementTestEnv(t)
	point := env.seedPoint(t)
	code := env.seedActiveCode(t, "BC-AAAA-BBBB", decimal.NewFromFloat(25))
	distribution := env.seedDistribution(t, point, code)

	w := postJSON(t, env.router, "/settlement/distributions/"+distribution.ID.String()+"/return", ReturnCodeRequest{
		Reason: "Seasonal stock return",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "RETURNED", data["status"])
	assert.NotNil(t, data["returned_at"])

	// the returned code is retired for good
	assert.False(t, code.IsActive())
}

func TestSettlementHandlerConfirmPickup(t *testing.T) {
	env := newSettlementTestEnv(t)
	point := env.seedPoint(t)
	delivery, err := trade.NewPickupDelivery(point.ID)
	require.NoError(t, err)
	order, err := trade.NewOrder("ORD-2026-00042", uuid.New(), decimal.NewFromInt(80), valueobject.USD, delivery)
	require.NoError(t, err)
	require.NoError(t, order.MarkShipped())
	env.orderRepo.orders[order.ID] = order

	w := postJSON(t, env.router, "/settlement/orders/"+order.ID.String()+"/pickup", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "DELIVERED", data["status"])
	assert.NotNil(t, data["delivered_at"])
}

func TestSettlementHandlerConfirmPickupTwice(t *testing.T) {
	env := newSettlementTestEnv(t)
	delivery, err := trade.NewHomeDelivery("1 High St")
	require.NoError(t, err)
	order, err := trade.NewOrder("ORD-2026-00043", uuid.New(), decimal.NewFromInt(80), valueobject.USD, delivery)
	require.NoError(t, err)
	env.orderRepo.orders[order.ID] = order

	first := postJSON(t, env.router, "/settlement/orders/"+order.ID.String()+"/pickup", nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, env.router, "/settlement/orders/"+order.ID.String()+"/pickup", nil)
	assert.Equal(t, http.StatusConflict, second.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeAlreadyApplied, resp.Error.Code)
}

func TestSettlementHandlerConfirmPickupUnknownOrder(t *testing.T) {
	env := newSettlementTestEnv(t)

	w := postJSON(t, env.router, "/settlement/orders/"+uuid.New().String()+"/pickup", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
