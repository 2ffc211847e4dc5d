package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shriya-upadhyay/meridian/internal/config"
	apperrors "github.com/shriya-upadhyay/meridian/internal/errors"
	"github.com/shriya-upadhyay/meridian/pkg/ledger/ledgertest"
)

func newTestGateway(t *testing.T, srv *ledgertest.Server) *Gateway {
	t.Helper()
	return NewGateway(config.LedgerConfig{
		BaseURL:    srv.URL,
		PackageRef: "#cross-border-tx",
		ModuleName: "CrossBorderTransaction",
		UserID:     "orchestrator",
	})
}

func TestResolveParty(t *testing.T) {
	g := NewGateway(config.LedgerConfig{BaseURL: "http://unused"})
	require.True(t, g.RegisterParty("Alice", "Alice::1220aa"))

	assert.Equal(t, "Alice::1220aa", g.ResolveParty("Alice"))
	assert.Equal(t, "Bob::1220bb", g.ResolveParty("Bob::1220bb"))
	assert.Equal(t, "Unknown", g.ResolveParty("Unknown"))
}

func TestRegisterPartyIsAppendOnly(t *testing.T) {
	g := NewGateway(config.LedgerConfig{BaseURL: "http://unused"})
	require.True(t, g.RegisterParty("Alice", "Alice::1220aa"))
	assert.False(t, g.RegisterParty("Alice", "Alice::1220ff"))
	assert.Equal(t, "Alice::1220aa", g.ResolveParty("Alice"))
}

func TestLoadParties(t *testing.T) {
	srv := ledgertest.NewServer()
	defer srv.Close()
	alice := srv.AllocateParty("AliceCorp_Singapore")
	bob := srv.AllocateParty("BobLtd_London")

	g := newTestGateway(t, srv)
	require.True(t, g.RegisterParty("BobLtd_London", "BobLtd_London::configured"))

	added, err := g.LoadParties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, alice, g.ResolveParty("AliceCorp_Singapore"))
	assert.NotEqual(t, bob, g.ResolveParty("BobLtd_London"))
}

func TestQueryActiveContractsFiltersByPartyAndTemplate(t *testing.T) {
	srv := ledgertest.NewServer()
	defer srv.Close()
	alice := srv.AllocateParty("Alice")
	bob := srv.AllocateParty("Bob")

	srv.Seed("CrossBorderTxProposal", map[string]interface{}{"sender": alice, "txId": "TX-1"})
	srv.Seed("CrossBorderTxProposal", map[string]interface{}{"sender": bob, "txId": "TX-2"})
	srv.Seed("CrossBorderTx", map[string]interface{}{"sender": alice, "txId": "TX-3"})

	g := newTestGateway(t, srv)
	records := g.QueryActiveContracts(context.Background(), alice, "CrossBorderTxProposal")
	require.Len(t, records, 1)
	assert.Equal(t, "TX-1", records[0].StringField("txId"))
	assert.Equal(t, "9f1c2e:CrossBorderTransaction:CrossBorderTxProposal", records[0].TemplateID)

	// The package id seen in the result is used from now on.
	assert.Equal(t, "9f1c2e:CrossBorderTransaction:CrossBorderTx", g.TemplateID("CrossBorderTx"))
}

func TestQueryActiveContractsDegradesToEmpty(t *testing.T) {
	srv := ledgertest.NewServer()
	defer srv.Close()
	alice := srv.AllocateParty("Alice")
	srv.Seed("CrossBorderTx", map[string]interface{}{"sender": alice})
	srv.FailQueries(true)

	g := newTestGateway(t, srv)
	records := g.QueryActiveContracts(context.Background(), alice, "CrossBorderTx")
	assert.NotNil(t, records)
	assert.Empty(t, records)

	down := NewGateway(config.LedgerConfig{BaseURL: "http://127.0.0.1:1", ModuleName: "M"})
	assert.Empty(t, down.QueryActiveContracts(context.Background(), alice, "CrossBorderTx"))
}

func TestSubmitCreateSendsAllActingParties(t *testing.T) {
	srv := ledgertest.NewServer()
	defer srv.Close()
	alice := srv.AllocateParty("Alice")
	reg := srv.AllocateParty("Reg")

	g := newTestGateway(t, srv)
	raw, err := g.SubmitCreate(context.Background(), []string{alice, reg}, "CrossBorderTxProposal",
		map[string]interface{}{"sender": alice, "txId": "TX-1"})
	require.NoError(t, err)

	id, ok := ExtractCreatedContractID(raw)
	require.True(t, ok)

	cmds := srv.CommandsFor("Create:CrossBorderTxProposal")
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{alice, reg}, cmds[0].ActAs)
	assert.True(t, strings.HasPrefix(cmds[0].CommandID, "cmd-"))

	c, found := srv.Contract(id)
	require.True(t, found)
	assert.Equal(t, "TX-1", c.Fields["txId"])
}

func TestSubmitUsesFreshCommandIDs(t *testing.T) {
	srv := ledgertest.NewServer()
	defer srv.Close()
	alice := srv.AllocateParty("Alice")

	g := newTestGateway(t, srv)
	for i := 0; i < 3; i++ {
		_, err := g.SubmitCreate(context.Background(), []string{alice}, "CrossBorderTxProposal", map[string]interface{}{"sender": alice})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for _, c := range srv.Commands() {
		assert.False(t, seen[c.CommandID], "duplicate command id %s", c.CommandID)
		seen[c.CommandID] = true
	}
	assert.Len(t, seen, 3)
}

func TestSubmitExerciseRejectedCarriesPayload(t *testing.T) {
	srv := ledgertest.NewServer()
	defer srv.Close()
	bob := srv.AllocateParty("Bob")

	g := newTestGateway(t, srv)
	_, err := g.SubmitExercise(context.Background(), bob, "CrossBorderTxProposal", "missing-cid", "AcceptProposal", nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
	assert.Contains(t, appErr.Payload, "CONTRACT_NOT_FOUND")
	assert.NotEmpty(t, appErr.Context["commandId"])
}

func TestSubmitTransportFailureIsLedgerCallFailed(t *testing.T) {
	g := NewGateway(config.LedgerConfig{BaseURL: "http://127.0.0.1:1", ModuleName: "M"})
	_, err := g.SubmitExercise(context.Background(), "Alice::1", "CrossBorderTx", "cid", "Settle", nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeLedgerCallFailed))
}

func TestSubmitServerErrorIsLedgerCallFailed(t *testing.T) {
	srv := ledgertest.NewServer()
	defer srv.Close()
	srv.Fail("Settle", http.StatusServiceUnavailable, `{"code":"UNAVAILABLE"}`)

	g := newTestGateway(t, srv)
	_, err := g.SubmitExercise(context.Background(), "Alice::1", "CrossBorderTx", "cid", "Settle", nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeLedgerCallFailed))
}

func TestSubmitRequestBody(t *testing.T) {
	var mu sync.Mutex
	var body map[string]interface{}
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		_ = json.Unmarshal(raw, &body)
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		_, _ = w.Write([]byte(`"00cid"`))
	}))
	defer ts.Close()

	g := NewGateway(config.LedgerConfig{BaseURL: ts.URL + "/", PackageRef: "#pkg", ModuleName: "Mod", UserID: "svc"},
		WithCommandIDFunc(func() string { return "cmd-fixed" }))
	raw, err := g.SubmitExercise(context.Background(), "Bob::1", "CrossBorderTx", "cid-1", "RegulatorCoSign", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.JSONEq(t, `"00cid"`, string(raw))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer Bob::1", auth)
	assert.JSONEq(t, `{"commands":{
		"commands":[{"ExerciseCommand":{"templateId":"#pkg:Mod:CrossBorderTx","contractId":"cid-1","choice":"RegulatorCoSign","choiceArgument":{"k":"v"}}}],
		"commandId":"cmd-fixed","actAs":["Bob::1"],"userId":"svc"}}`, mustJSON(t, body))
}

func TestNewCommandIDFormat(t *testing.T) {
	id := NewCommandID()
	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "cmd", parts[0])
	assert.Len(t, parts[2], 8)
	assert.NotEqual(t, id, NewCommandID())
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
