// Package ledgertest provides an in-memory ledger JSON API for tests.
package ledgertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Shape selects how a command response is rendered.
type Shape int

const (
	ShapeTransaction Shape = iota
	ShapeExerciseResult
	ShapeBareIdentifier
	ShapeNoIdentifier
)

type Contract struct {
	ID           string
	TemplateID   string
	Fields       map[string]interface{}
	Stakeholders []string
	Active       bool
}

type Command struct {
	Kind       string
	Template   string
	Choice     string
	ContractID string
	CommandID  string
	ActAs      []string
	Arguments  map[string]interface{}
}

type failure struct {
	status int
	body   string
}

type choiceRule struct {
	consuming bool
	creates   string
	status    string
	fromArgs  bool
}

var choiceRules = map[string]choiceRule{
	"AcceptProposal":      {consuming: true, creates: "CrossBorderTx", status: "PendingRegulator"},
	"WithdrawProposal":    {consuming: true},
	"RegulatorCoSign":     {consuming: true, creates: "CrossBorderTx", status: "Approved"},
	"Freeze":              {consuming: true, creates: "CrossBorderTx", status: "Frozen"},
	"Settle":              {consuming: true, creates: "CrossBorderTx", status: "Settled"},
	"CreateSenderView":    {creates: "SenderView", fromArgs: true},
	"CreateRecipientView": {creates: "RecipientView", fromArgs: true},
	"CreateRegulatorView": {creates: "RegulatorView", fromArgs: true},
	"FlagSuspicious":      {consuming: true, creates: "RegulatorView"},
}

// Server fakes the subset of the ledger JSON API the gateway uses.
type Server struct {
	*httptest.Server

	PackageID string
	Module    string

	mu          sync.Mutex
	contracts   map[string]*Contract
	order       []string
	parties     []string
	offset      int64
	seq         int
	commands    []Command
	failures    map[string]failure
	shapes      map[string]Shape
	failQueries bool
}

func NewServer() *Server {
	s := &Server{
		PackageID: "9f1c2e",
		Module:    "CrossBorderTransaction",
		contracts: make(map[string]*Contract),
		failures:  make(map[string]failure),
		shapes:    make(map[string]Shape),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/parties", s.handleParties)
	mux.HandleFunc("/v2/state/ledger-end", s.handleLedgerEnd)
	mux.HandleFunc("/v2/state/active-contracts", s.handleActiveContracts)
	mux.HandleFunc("/v2/commands/submit-and-wait-for-transaction", s.handleSubmit)
	s.Server = httptest.NewServer(mux)
	return s
}

// AllocateParty registers a party and returns its full identifier.
func (s *Server) AllocateParty(handle string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	full := fmt.Sprintf("%s::1220%06x", handle, len(s.parties)+1)
	s.parties = append(s.parties, full)
	return full
}

// Fail makes every command keyed by choice name, or "Create:<Template>",
// return status with body.
func (s *Server) Fail(key string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key] = failure{status: status, body: body}
}

// SetShape changes the response rendering for a choice or "Create:<Template>".
func (s *Server) SetShape(key string, shape Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shapes[key] = shape
}

func (s *Server) FailQueries(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failQueries = fail
}

// Seed inserts an active contract directly.
func (s *Server) Seed(template string, fields map[string]interface{}, stakeholders ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(template, fields, stakeholders).ID
}

func (s *Server) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// CommandsFor returns recorded commands with the given choice, or
// "Create:<Template>".
func (s *Server) CommandsFor(key string) []Command {
	var out []Command
	for _, c := range s.Commands() {
		if commandKey(c) == key {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) Contract(id string) (Contract, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok {
		return Contract{}, false
	}
	return *c, true
}

// Active lists active contracts of a template, oldest first.
func (s *Server) Active(template string) []Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Contract
	for _, id := range s.order {
		c := s.contracts[id]
		if c.Active && templateName(c.TemplateID) == template {
			out = append(out, *c)
		}
	}
	return out
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleParties(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	details := make([]map[string]interface{}, 0, len(s.parties))
	for _, p := range s.parties {
		details = append(details, map[string]interface{}{"party": p, "isLocal": true})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"partyDetails": details})
}

func (s *Server) handleLedgerEnd(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	offset := s.offset
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"offset": offset})
}

func (s *Server) handleActiveContracts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filter struct {
			FiltersByParty map[string]struct {
				Cumulative []struct {
					IdentifierFilter struct {
						TemplateFilter struct {
							Value struct {
								TemplateID string `json:"templateId"`
							} `json:"value"`
						} `json:"TemplateFilter"`
					} `json:"identifierFilter"`
				} `json:"cumulative"`
			} `json:"filtersByParty"`
		} `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "INVALID_ARGUMENT", "cause": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failQueries {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "UNAVAILABLE"})
		return
	}

	out := []interface{}{}
	for party, filter := range req.Filter.FiltersByParty {
		for _, cf := range filter.Cumulative {
			want := templateName(cf.IdentifierFilter.TemplateFilter.Value.TemplateID)
			for _, id := range s.order {
				c := s.contracts[id]
				if !c.Active || templateName(c.TemplateID) != want || !contains(c.Stakeholders, party) {
					continue
				}
				out = append(out, map[string]interface{}{
					"workflowId": "",
					"contractEntry": map[string]interface{}{
						"JsActiveContract": map[string]interface{}{
							"createdEvent":   createdEvent(c),
							"synchronizerId": "sync::1",
						},
					},
				})
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Commands struct {
			Commands  []map[string]json.RawMessage `json:"commands"`
			CommandID string                       `json:"commandId"`
			ActAs     []string                     `json:"actAs"`
		} `json:"commands"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Commands.Commands) != 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "INVALID_ARGUMENT"})
		return
	}

	raw := req.Commands.Commands[0]
	cmd := Command{CommandID: req.Commands.CommandID, ActAs: req.Commands.ActAs}

	if body, ok := raw["CreateCommand"]; ok {
		var create struct {
			TemplateID      string                 `json:"templateId"`
			CreateArguments map[string]interface{} `json:"createArguments"`
		}
		_ = json.Unmarshal(body, &create)
		cmd.Kind = "create"
		cmd.Template = templateName(create.TemplateID)
		cmd.Arguments = create.CreateArguments
	} else if body, ok := raw["ExerciseCommand"]; ok {
		var exercise struct {
			TemplateID     string                 `json:"templateId"`
			ContractID     string                 `json:"contractId"`
			Choice         string                 `json:"choice"`
			ChoiceArgument map[string]interface{} `json:"choiceArgument"`
		}
		_ = json.Unmarshal(body, &exercise)
		cmd.Kind = "exercise"
		cmd.Template = templateName(exercise.TemplateID)
		cmd.ContractID = exercise.ContractID
		cmd.Choice = exercise.Choice
		cmd.Arguments = exercise.ChoiceArgument
	} else {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "INVALID_ARGUMENT"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)

	key := commandKey(cmd)
	if f, ok := s.failures[key]; ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}

	var events []interface{}
	var created *Contract
	if cmd.Kind == "create" {
		created = s.create(cmd.Template, cmd.Arguments, cmd.ActAs)
	} else {
		rule, known := choiceRules[cmd.Choice]
		target, exists := s.contracts[cmd.ContractID]
		if !exists || !target.Active || templateName(target.TemplateID) != cmd.Template {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"code":  "CONTRACT_NOT_FOUND",
				"cause": "Contract could not be found with id " + cmd.ContractID,
			})
			return
		}
		if !known {
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": "INVALID_ARGUMENT", "cause": "unknown choice " + cmd.Choice})
			return
		}
		if rule.consuming {
			target.Active = false
			events = append(events, map[string]interface{}{
				"ArchivedEvent": map[string]interface{}{"contractId": target.ID, "templateId": target.TemplateID},
			})
		}
		if rule.creates != "" {
			fields := map[string]interface{}{}
			stakeholders := target.Stakeholders
			if rule.fromArgs {
				stakeholders = cmd.ActAs
			} else {
				for k, v := range target.Fields {
					fields[k] = v
				}
			}
			for k, v := range cmd.Arguments {
				fields[k] = v
			}
			if rule.status != "" {
				fields["status"] = rule.status
			}
			if cmd.Choice == "FlagSuspicious" {
				fields["flagged"] = true
			}
			created = s.create(rule.creates, fields, stakeholders)
		}
	}
	if created != nil {
		events = append(events, map[string]interface{}{"CreatedEvent": createdEvent(created)})
	}

	s.seq++
	updateID := fmt.Sprintf("upd-%d", s.seq)
	switch s.shapes[key] {
	case ShapeExerciseResult:
		var res interface{}
		if created != nil {
			res = created.ID
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"updateId": updateID,
			"result":   map[string]interface{}{"exerciseResult": res},
		})
	case ShapeBareIdentifier:
		id := ""
		if created != nil {
			id = created.ID
		}
		writeJSON(w, http.StatusOK, id)
	case ShapeNoIdentifier:
		writeJSON(w, http.StatusOK, map[string]interface{}{"updateId": updateID, "completionOffset": s.offset})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"transaction": map[string]interface{}{
				"updateId":  updateID,
				"commandId": cmd.CommandID,
				"offset":    s.offset,
				"events":    events,
			},
		})
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) create(template string, fields map[string]interface{}, actAs []string) *Contract {
	s.offset++
	stakeholders := append([]string{}, actAs...)
	for _, key := range []string{"sender", "recipient", "regulator"} {
		if p, ok := fields[key].(string); ok && p != "" && !contains(stakeholders, p) {
			stakeholders = append(stakeholders, p)
		}
	}
	c := &Contract{
		ID:           fmt.Sprintf("00%08x%s", s.offset, strings.ToLower(template)),
		TemplateID:   s.PackageID + ":" + s.Module + ":" + template,
		Fields:       fields,
		Stakeholders: stakeholders,
		Active:       true,
	}
	s.contracts[c.ID] = c
	s.order = append(s.order, c.ID)
	return c
}

func createdEvent(c *Contract) map[string]interface{} {
	signatories := []string{}
	if len(c.Stakeholders) > 0 {
		signatories = c.Stakeholders[:1]
	}
	return map[string]interface{}{
		"contractId":     c.ID,
		"templateId":     c.TemplateID,
		"createArgument": c.Fields,
		"signatories":    signatories,
	}
}

func commandKey(c Command) string {
	if c.Kind == "create" {
		return "Create:" + c.Template
	}
	return c.Choice
}

func templateName(templateID string) string {
	if i := strings.LastIndex(templateID, ":"); i >= 0 {
		return templateID[i+1:]
	}
	return templateID
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
