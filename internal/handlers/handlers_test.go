package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shriya-upadhyay/meridian/internal/config"
	"github.com/shriya-upadhyay/meridian/internal/middleware"
	"github.com/shriya-upadhyay/meridian/internal/models"
	"github.com/shriya-upadhyay/meridian/internal/sensitive"
	"github.com/shriya-upadhyay/meridian/internal/services"
	"github.com/shriya-upadhyay/meridian/pkg/ledger"
	"github.com/shriya-upadhyay/meridian/pkg/ledger/ledgertest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	srv    *ledgertest.Server
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	srv := ledgertest.NewServer()
	t.Cleanup(srv.Close)
	for _, p := range config.Default().Parties {
		srv.AllocateParty(p.Handle)
	}

	gw := ledger.NewGateway(config.LedgerConfig{BaseURL: srv.URL, ModuleName: "CrossBorderTransaction"})
	_, err := gw.LoadParties(context.Background())
	require.NoError(t, err)

	svc := services.NewProposalService(gw, sensitive.NewStore(), config.Default().Parties)
	router := gin.New()
	router.Use(middleware.RequestID())
	NewHandler(svc).RegisterRoutes(router)
	return &testAPI{srv: srv, router: router}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func createBody(txID, amount, source string) map[string]interface{} {
	return map[string]interface{}{
		"recipient": "BobLtd_London",
		"regulator": "MAS_Regulator",
		"txId":      txID,
		"senderInfo": map[string]string{
			"senderName":      "AliceCorp",
			"senderAccount":   "SG-0001",
			"senderBankSwift": "DBSSSGSG",
			"senderCountry":   "SG",
		},
		"recipientInfo": map[string]string{
			"recipientName":      "BobLtd",
			"recipientAccount":   "GB29NWBK",
			"recipientBankSwift": "NWBKGB2L",
		},
		"declaration":  map[string]string{"purposeOfPayment": "invoice", "sourceOfFunds": source},
		"amount":       amount,
		"sendCurrency": "SGD",
	}
}

func (a *testAPI) createProposal(t *testing.T, txID, amount, source string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/proposals?party=AliceCorp_Singapore", createBody(txID, amount, source))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.CommandResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ContractID)
	return resp.ContractID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPartyIsRequired(t *testing.T) {
	api := newTestAPI(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/proposals"},
		{http.MethodPost, "/api/proposals"},
		{http.MethodPost, "/api/proposals/cid/accept"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodPost, "/api/transactions/cid/settle"},
		{http.MethodGet, "/api/regulator-views"},
	} {
		w := api.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
		resp := decodeError(t, w)
		assert.Equal(t, "party query param required", resp.Error)
		assert.NotEmpty(t, resp.RequestID)
	}
}

func TestHealthAndParties(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = api.do(t, http.MethodGet, "/api/parties", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var parties []models.Party
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parties))
	require.Len(t, parties, 3)
	assert.Contains(t, parties[0].FullID, "::")
}

func TestCreateProposalValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/proposals?party=AliceCorp_Singapore", map[string]string{"txId": "TX-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, w).Code)

	w = api.do(t, http.MethodPost, "/api/proposals?party=AliceCorp_Singapore", createBody("TX-1", "abc", "salary"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, api.srv.Commands())
}

func TestAcceptFlow(t *testing.T) {
	api := newTestAPI(t)
	cid := api.createProposal(t, "TX-1", "1500000", "cash reserves")

	w := api.do(t, http.MethodGet, "/api/proposals?party=BobLtd_London", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var proposals []models.ContractRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proposals))
	require.Len(t, proposals, 1)
	assert.Equal(t, cid, proposals[0].ContractID)

	w = api.do(t, http.MethodPost, "/api/proposals/"+cid+"/accept?party=BobLtd_London", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var accepted models.AcceptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.Equal(t, "accepted", accepted.Status)
	assert.Equal(t, 65, accepted.Screening.RiskScore)
	assert.NotEmpty(t, accepted.CurrentContractID)
	require.NotNil(t, accepted.RegulatorViewContractID)

	w = api.do(t, http.MethodGet, "/api/regulator-views?party=MAS_Regulator", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []models.ContractRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)

	w = api.do(t, http.MethodPost, "/api/regulator-views/"+views[0].ContractID+"/flag?party=MAS_Regulator", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "notes is required", decodeError(t, w).Error)

	w = api.do(t, http.MethodPost, "/api/regulator-views/"+views[0].ContractID+"/flag?party=MAS_Regulator",
		map[string]string{"notes": "large cash source"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"flagged"`)

	w = api.do(t, http.MethodPost, "/api/transactions/"+accepted.CurrentContractID+"/freeze?party=MAS_Regulator", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"frozen"`)
}

func TestAcceptPartialReturns207(t *testing.T) {
	api := newTestAPI(t)
	cid := api.createProposal(t, "TX-1", "500", "salary")
	api.srv.Fail(services.ChoiceCreateSenderView, http.StatusInternalServerError, `{"code":"INTERNAL"}`)

	w := api.do(t, http.MethodPost, "/api/proposals/"+cid+"/accept?party=BobLtd_London", nil)
	require.Equal(t, http.StatusMultiStatus, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp["status"])
	assert.Equal(t, "PARTIAL_SAGA_COMPLETION", resp["code"])
	assert.Nil(t, resp["senderViewCid"])
	assert.NotNil(t, resp["recipientViewCid"])
	assert.NotNil(t, resp["regulatorViewCid"])
	assert.Len(t, resp["warnings"], 1)
}

func TestAcceptUnknownProposalIs404(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/proposals/00missing/accept?party=BobLtd_London", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
}

func TestLedgerRejectionHidesPayload(t *testing.T) {
	api := newTestAPI(t)
	api.srv.Fail("Create:"+services.TemplateProposal, http.StatusBadRequest,
		`{"code":"INVALID_ARGUMENT","cause":"bad senderAccount SG-0001-7788"}`)

	body := createBody("TX-1", "500", "salary")
	w := api.do(t, http.MethodPost, "/api/proposals?party=AliceCorp_Singapore", body)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "SG-0001-7788")
	assert.NotContains(t, w.Body.String(), "INVALID_ARGUMENT")

	resp := decodeError(t, w)
	assert.Equal(t, "LEDGER_CALL_FAILED", resp.Code)
	assert.NotContains(t, resp.Context, "payload")
	assert.Equal(t, "LEDGER_CALL_FAILED", resp.Context["class"])
	assert.NotEmpty(t, resp.Context["commandId"])
}

func TestWithdrawAndSettle(t *testing.T) {
	api := newTestAPI(t)
	first := api.createProposal(t, "TX-1", "500", "salary")
	second := api.createProposal(t, "TX-2", "800", "salary")

	w := api.do(t, http.MethodPost, "/api/proposals/"+first+"/withdraw?party=AliceCorp_Singapore", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"withdrawn"`)

	w = api.do(t, http.MethodPost, "/api/proposals/"+second+"/accept?party=BobLtd_London", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var accepted models.AcceptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))

	w = api.do(t, http.MethodGet, "/api/transactions?party=AliceCorp_Singapore", nil)
	var txs []models.ContractRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, accepted.CurrentContractID, txs[0].ContractID)

	w = api.do(t, http.MethodPost, "/api/transactions/"+accepted.CurrentContractID+"/settle?party=AliceCorp_Singapore", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"settled"`)
}

func TestMutatingRoutesAreRateLimited(t *testing.T) {
	srv := ledgertest.NewServer()
	defer srv.Close()
	alice := srv.AllocateParty("Alice")
	gw := ledger.NewGateway(config.LedgerConfig{BaseURL: srv.URL, ModuleName: "CrossBorderTransaction"})
	_, err := gw.LoadParties(context.Background())
	require.NoError(t, err)
	svc := services.NewProposalService(gw, sensitive.NewStore(), nil)

	router := gin.New()
	limiter := middleware.NewPartyLimiter(0.001, 1, 0)
	NewHandler(svc).RegisterRoutes(router, middleware.PartyRateLimit(limiter, gw.ResolveParty))

	post := func(party string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/transactions/cid/settle?party="+url.QueryEscape(party), nil))
		return w.Code
	}
	assert.Equal(t, http.StatusNotFound, post("Alice"))
	assert.Equal(t, http.StatusTooManyRequests, post(alice))
	assert.Equal(t, http.StatusTooManyRequests, post("Alice"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/transactions?party=Alice", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
