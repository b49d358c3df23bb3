package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	commissionapp "github.com/bridgecart/backend/internal/application/commission"
	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type commissionTestEnv struct {
	commissionRepo *mockCommissionRepository
	agentRepo      *mockAgentRepository
	router         *gin.Engine
}

func newCommissionTestEnv(t *testing.T) *commissionTestEnv {
	t.Helper()

	commissionRepo := newMockCommissionRepository()
	agentRepo := newMockAgentRepository()
	service := commissionapp.NewService(commissionRepo, agentRepo, &mockTxManager{}, &mockEventPublisher{}, zap.NewNop())
	h := NewCommissionHandler(service)

	router := gin.New()
	router.POST("/commissions/:id/confirm", h.Confirm)
	router.POST("/commissions/:id/pay", h.MarkPaid)
	router.POST("/commissions/:id/cancel", h.Cancel)
	router.GET("/commissions/:id", h.Get)
	router.GET("/commissions", h.List)
	router.GET("/commissions/beneficiaries/:beneficiary_id/summary", h.SummarizeBeneficiary)

	return &commissionTestEnv{commissionRepo: commissionRepo, agentRepo: agentRepo, router: router}
}

func (e *commissionTestEnv) seedCommission(t *testing.T, kind commission.CommissionKind, beneficiaryID uuid.UUID, status commission.CommissionStatus) *commission.Commission {
	t.Helper()
	c, err := commission.NewCommission(kind, beneficiaryID, uuid.New(),
		decimal.NewFromInt(200), decimal.NewFromInt(10), status)
	require.NoError(t, err)
	e.commissionRepo.commissions[c.ID] = c
	return c
}

func (e *commissionTestEnv) seedAgent(t *testing.T) *partner.Agent {
	t.Helper()
	agent, err := partner.NewAgent(uuid.New(), "Marta Kovacs", decimal.NewFromInt(10))
	require.NoError(t, err)
	e.agentRepo.agents[agent.ID] = agent
	return agent
}

func getPath(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestCommissionHandlerConfirm(t *testing.T) {
	env := newCommissionTestEnv(t)
	c := env.seedCommission(t, commission.KindPointCode, uuid.New(), commission.StatusPending)

	w := postJSON(t, env.router, "/commissions/"+c.ID.String()+"/confirm", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "CALCULATED", data["status"])
	assert.Equal(t, float64(20), data["amount"])
}

func TestCommissionHandlerConfirmUnknownID(t *testing.T) {
	env := newCommissionTestEnv(t)

	w := postJSON(t, env.router, "/commissions/"+uuid.New().String()+"/confirm", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommissionHandlerMarkPaid(t *testing.T) {
	env := newCommissionTestEnv(t)
	agent := env.seedAgent(t)
	c := env.seedCommission(t, commission.KindAgentOrder, agent.ID, commission.StatusCalculated)
	paidBy := uuid.New()

	w := postJSONAs(t, env.router, "/commissions/"+c.ID.String()+"/pay", paidBy, PayCommissionRequest{
		Method: "BANK_TRANSFER",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "PAID", data["status"])
	assert.Equal(t, paidBy.String(), data["paid_by"])
	assert.Equal(t, "BANK_TRANSFER", data["payment_method"])
	assert.NotNil(t, data["paid_at"])

	// paying an agent commission moves the agent's earnings counter
	assert.True(t, agent.TotalEarnings.Equal(decimal.NewFromInt(20)))
}

func TestCommissionHandlerMarkPaidRequiresUser(t *testing.T) {
	env := newCommissionTestEnv(t)
	c := env.seedCommission(t, commission.KindPointOrder, uuid.New(), commission.StatusCalculated)

	w := postJSON(t, env.router, "/commissions/"+c.ID.String()+"/pay", PayCommissionRequest{
		Method: "BANK_TRANSFER",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, commission.StatusCalculated, c.Status)
}

func TestCommissionHandlerMarkPaidTwice(t *testing.T) {
	env := newCommissionTestEnv(t)
	agent := env.seedAgent(t)
	c := env.seedCommission(t, commission.KindAgentOrder, agent.ID, commission.StatusCalculated)
	paidBy := uuid.New()

	first := postJSONAs(t, env.router, "/commissions/"+c.ID.String()+"/pay", paidBy, PayCommissionRequest{Method: "CASH"})
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSONAs(t, env.router, "/commissions/"+c.ID.String()+"/pay", paidBy, PayCommissionRequest{Method: "CASH"})
	assert.Equal(t, http.StatusConflict, second.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeAlreadyApplied, resp.Error.Code)
	// earnings moved once
	assert.True(t, agent.TotalEarnings.Equal(decimal.NewFromInt(20)))
}

func TestCommissionHandlerCancel(t *testing.T) {
	env := newCommissionTestEnv(t)
	c := env.seedCommission(t, commission.KindPointOrder, uuid.New(), commission.StatusCalculated)

	w := postJSON(t, env.router, "/commissions/"+c.ID.String()+"/cancel", CancelCommissionRequest{
		Reason: "Source order was cancelled",
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, commission.StatusCancelled, c.Status)
	assert.Equal(t, "Source order was cancelled", c.Notes)
}

func TestCommissionHandlerCancelPaidCommission(t *testing.T) {
	env := newCommissionTestEnv(t)
	c := env.seedCommission(t, commission.KindPointOrder, uuid.New(), commission.StatusCalculated)
	require.NoError(t, c.MarkPaid(uuid.New(), "CASH"))

	w := postJSON(t, env.router, "/commissions/"+c.ID.String()+"/cancel", CancelCommissionRequest{
		Reason: "Source order was cancelled",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, commission.StatusPaid, c.Status)
}

func TestCommissionHandlerGet(t *testing.T) {
	env := newCommissionTestEnv(t)
	beneficiaryID := uuid.New()
	c := env.seedCommission(t, commission.KindPointCode, beneficiaryID, commission.StatusCalculated)

	w := getPath(t, env.router, "/commissions/"+c.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, c.ID.String(), data["id"])
	assert.Equal(t, "POINT_CODE", data["kind"])
	assert.Equal(t, beneficiaryID.String(), data["beneficiary_id"])
	assert.Equal(t, float64(200), data["base_amount"])
	assert.Equal(t, float64(10), data["rate"])
}

func TestCommissionHandlerList(t *testing.T) {
	env := newCommissionTestEnv(t)
	beneficiaryID := uuid.New()
	env.seedCommission(t, commission.KindAgentOrder, beneficiaryID, commission.StatusCalculated)
	env.seedCommission(t, commission.KindPointCode, uuid.New(), commission.StatusCalculated)

	w := getPath(t, env.router, "/commissions?kind=AGENT_ORDER&beneficiary_id="+beneficiaryID.String())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)

	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	entry := items[0].(map[string]interface{})
	assert.Equal(t, "AGENT_ORDER", entry["kind"])
}

func TestCommissionHandlerListInvalidFilters(t *testing.T) {
	env := newCommissionTestEnv(t)

	tests := []struct {
		name  string
		query string
	}{
		{"invalid kind", "?kind=BOGUS"},
		{"invalid beneficiary", "?beneficiary_id=not-a-uuid"},
		{"invalid date_from", "?date_from=yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getPath(t, env.router, "/commissions"+tt.query)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCommissionHandlerSummarizeBeneficiary(t *testing.T) {
	env := newCommissionTestEnv(t)
	beneficiaryID := uuid.New()
	env.seedCommission(t, commission.KindPointOrder, beneficiaryID, commission.StatusCalculated)
	paid := env.seedCommission(t, commission.KindPointCode, beneficiaryID, commission.StatusCalculated)
	require.NoError(t, paid.MarkPaid(uuid.New(), "CASH"))

	w := getPath(t, env.router, "/commissions/beneficiaries/"+beneficiaryID.String()+"/summary")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, beneficiaryID.String(), data["beneficiary_id"])
	assert.Equal(t, "20", data["outstanding"])
	assert.Equal(t, "20", data["paid"])
}
