package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shriya-upadhyay/meridian/internal/config"
	apperrors "github.com/shriya-upadhyay/meridian/internal/errors"
	"github.com/shriya-upadhyay/meridian/internal/metrics"
	"github.com/shriya-upadhyay/meridian/internal/models"
)

// PartySeparator splits a party handle from its ledger fingerprint.
const PartySeparator = "::"

const (
	pathParties           = "/v2/parties"
	pathLedgerEnd         = "/v2/state/ledger-end"
	pathActiveContracts   = "/v2/state/active-contracts"
	pathSubmitTransaction = "/v2/commands/submit-and-wait-for-transaction"
)

// Gateway is the only component that speaks the ledger JSON API.
type Gateway struct {
	cfg        config.LedgerConfig
	httpClient *http.Client

	mu        sync.RWMutex
	parties   map[string]string
	packageID string

	newCommandID func() string
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

func WithCommandIDFunc(fn func() string) Option {
	return func(g *Gateway) { g.newCommandID = fn }
}

func NewGateway(cfg config.LedgerConfig, opts ...Option) *Gateway {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	g := &Gateway{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: timeout},
		parties:      make(map[string]string),
		newCommandID: NewCommandID,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// =============================================================================
// Parties
// =============================================================================

// RegisterParty records handle -> fullID. The map is append-only: an
// existing allocation is never replaced.
func (g *Gateway) RegisterParty(handle, fullID string) bool {
	if handle == "" || fullID == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.parties[handle]; exists {
		return false
	}
	g.parties[handle] = fullID
	return true
}

// LoadParties fills the allocation map from the ledger's party list and
// returns how many new handles were registered.
func (g *Gateway) LoadParties(ctx context.Context) (int, error) {
	status, body, err := g.do(ctx, http.MethodGet, pathParties, "", nil)
	if err != nil {
		return 0, apperrors.NewLedgerCallError("list parties", err)
	}
	if status >= 300 {
		return 0, apperrors.ParseLedgerError(status, body, "list parties")
	}

	var out struct {
		PartyDetails []struct {
			Party   string `json:"party"`
			IsLocal bool   `json:"isLocal"`
		} `json:"partyDetails"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to decode party list: %w", err)
	}

	added := 0
	for _, p := range out.PartyDetails {
		handle, _, found := strings.Cut(p.Party, PartySeparator)
		if !found {
			continue
		}
		if g.RegisterParty(handle, p.Party) {
			added++
		}
	}
	log.Info().Int("added", added).Int("listed", len(out.PartyDetails)).Msg("Ledger parties loaded")
	return added, nil
}

// ResolveParty maps a display handle to its full ledger identifier. Unknown
// handles are passed through; the ledger rejects an invalid actor itself.
func (g *Gateway) ResolveParty(handle string) string {
	if strings.Contains(handle, PartySeparator) {
		return handle
	}
	g.mu.RLock()
	fullID, ok := g.parties[handle]
	g.mu.RUnlock()
	if !ok {
		log.Warn().Str("party", handle).Msg("Party handle not allocated, passing through unresolved")
		return handle
	}
	return fullID
}

// =============================================================================
// Templates
// =============================================================================

func (g *Gateway) TemplateID(templateName string) string {
	g.mu.RLock()
	pkg := g.packageID
	g.mu.RUnlock()
	if pkg == "" {
		pkg = g.cfg.PackageRef
	}
	if pkg == "" {
		return g.cfg.ModuleName + ":" + templateName
	}
	return pkg + ":" + g.cfg.ModuleName + ":" + templateName
}

func (g *Gateway) discoverPackageID(templateID string) {
	parts := strings.Split(templateID, ":")
	if len(parts) != 3 || parts[0] == "" || strings.HasPrefix(parts[0], "#") {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.packageID == "" {
		g.packageID = parts[0]
		log.Info().Str("packageId", g.packageID).Msg("Discovered package ID")
	}
}

// =============================================================================
// Queries
// =============================================================================

// QueryActiveContracts lists the party's active contracts of one template.
// Listing is best-effort: any failure is logged and yields an empty slice.
func (g *Gateway) QueryActiveContracts(ctx context.Context, party, templateName string) []models.ContractRecord {
	operation := "query " + templateName
	start := time.Now()
	records, err := g.queryActiveContracts(ctx, party, templateName)
	metrics.LedgerLatency.WithLabelValues("query").Observe(time.Since(start).Seconds())
	metrics.LedgerRequests.WithLabelValues("query", metrics.Outcome(err)).Inc()
	if err != nil {
		log.Error().Err(err).Str("party", party).Str("template", templateName).Msg("Query failed: " + operation)
		return []models.ContractRecord{}
	}
	return records
}

func (g *Gateway) queryActiveContracts(ctx context.Context, party, templateName string) ([]models.ContractRecord, error) {
	offset, err := g.ledgerEnd(ctx, party)
	if err != nil {
		return nil, err
	}

	templateID := g.TemplateID(templateName)
	req := map[string]interface{}{
		"filter": map[string]interface{}{
			"filtersByParty": map[string]interface{}{
				party: map[string]interface{}{
					"cumulative": []interface{}{
						map[string]interface{}{
							"identifierFilter": map[string]interface{}{
								"TemplateFilter": map[string]interface{}{
									"value": map[string]interface{}{
										"templateId":              templateID,
										"includeCreatedEventBlob": false,
									},
								},
							},
						},
					},
				},
			},
		},
		"verbose":        true,
		"activeAtOffset": offset,
	}

	status, body, err := g.do(ctx, http.MethodPost, pathActiveContracts, party, req)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, apperrors.ParseLedgerError(status, body, "query "+templateName)
	}

	records, err := NormalizeActiveContracts(body)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		g.discoverPackageID(records[0].TemplateID)
	}
	return records, nil
}

func (g *Gateway) ledgerEnd(ctx context.Context, party string) (int64, error) {
	status, body, err := g.do(ctx, http.MethodGet, pathLedgerEnd, party, nil)
	if err != nil {
		return 0, err
	}
	if status >= 300 {
		return 0, apperrors.ParseLedgerError(status, body, "ledger end")
	}
	var out struct {
		Offset int64 `json:"offset"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to decode ledger end: %w", err)
	}
	return out.Offset, nil
}

// =============================================================================
// Commands
// =============================================================================

// SubmitCreate creates one contract signed by every acting party.
func (g *Gateway) SubmitCreate(ctx context.Context, actingParties []string, templateName string, fields interface{}) (json.RawMessage, error) {
	if len(actingParties) == 0 {
		return nil, apperrors.NewValidationError("create requires at least one acting party")
	}
	command := map[string]interface{}{
		"CreateCommand": map[string]interface{}{
			"templateId":      g.TemplateID(templateName),
			"createArguments": fields,
		},
	}
	return g.submit(ctx, actingParties, command, "create "+templateName)
}

// SubmitExercise exercises a choice on an existing contract as one party.
func (g *Gateway) SubmitExercise(ctx context.Context, actingParty, templateName, contractID, choice string, args interface{}) (json.RawMessage, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	command := map[string]interface{}{
		"ExerciseCommand": map[string]interface{}{
			"templateId":     g.TemplateID(templateName),
			"contractId":     contractID,
			"choice":         choice,
			"choiceArgument": args,
		},
	}
	return g.submit(ctx, []string{actingParty}, command, "exercise "+choice)
}

func (g *Gateway) submit(ctx context.Context, actAs []string, command map[string]interface{}, operation string) (json.RawMessage, error) {
	commandID := g.newCommandID()
	commands := map[string]interface{}{
		"commands":  []interface{}{command},
		"commandId": commandID,
		"actAs":     actAs,
	}
	if g.cfg.UserID != "" {
		commands["userId"] = g.cfg.UserID
	}
	req := map[string]interface{}{"commands": commands}

	logger := log.With().
		Str("operation", operation).
		Str("commandId", commandID).
		Strs("actAs", actAs).
		Logger()

	start := time.Now()
	status, body, err := g.do(ctx, http.MethodPost, pathSubmitTransaction, actAs[0], req)
	metrics.LedgerLatency.WithLabelValues("submit").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LedgerRequests.WithLabelValues("submit", "error").Inc()
		logger.Error().Err(err).Msg("Ledger command transport failure")
		return nil, apperrors.NewLedgerCallError(operation, err).WithContext("commandId", commandID)
	}
	if status >= 300 {
		metrics.LedgerRequests.WithLabelValues("submit", "rejected").Inc()
		logger.Error().Int("status", status).RawJSON("payload", asJSON(body)).Msg("Ledger rejected command")
		return nil, apperrors.ParseLedgerError(status, body, operation).WithContext("commandId", commandID)
	}

	metrics.LedgerRequests.WithLabelValues("submit", "ok").Inc()
	logger.Info().Dur("latency", time.Since(start)).Msg("Ledger command completed")
	return json.RawMessage(body), nil
}

// =============================================================================
// Helper Functions
// =============================================================================

func (g *Gateway) do(ctx context.Context, method, path, party string, payload interface{}) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := g.bearer(party); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// bearer returns the configured token, or the acting party as the sandbox expects.
func (g *Gateway) bearer(party string) string {
	if g.cfg.AuthToken != "" {
		return g.cfg.AuthToken
	}
	return party
}

// NewCommandID returns a fresh idempotency key: millisecond time plus a
// random suffix.
func NewCommandID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("cmd-%d-%s", time.Now().UnixMilli(), suffix)
}

func asJSON(body []byte) []byte {
	if json.Valid(body) {
		return body
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
