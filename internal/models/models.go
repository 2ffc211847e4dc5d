package models

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Parties
// =============================================================================

type PartyRole string

const (
	RoleSender    PartyRole = "sender"
	RoleRecipient PartyRole = "recipient"
	RoleRegulator PartyRole = "regulator"
)

// Party is a logical participant. Handle is stable across restarts; FullID is
// assigned by the ledger and carries a fingerprint suffix.
type Party struct {
	Handle      string    `json:"id"`
	DisplayName string    `json:"name"`
	Role        PartyRole `json:"role"`
	FullID      string    `json:"fullId,omitempty"`
}

// =============================================================================
// Ledger Records
// =============================================================================

// ContractRecord is an immutable snapshot of an active contract.
type ContractRecord struct {
	ContractID string                 `json:"contractId"`
	TemplateID string                 `json:"templateId"`
	Fields     map[string]interface{} `json:"payload"`
}

// Decode copies the record's fields into dst through their JSON form.
func (r ContractRecord) Decode(dst interface{}) error {
	raw, err := json.Marshal(r.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields of %s: %w", r.ContractID, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode fields of %s: %w", r.ContractID, err)
	}
	return nil
}

// StringField returns the named field when it is a string, or "".
func (r ContractRecord) StringField(name string) string {
	if v, ok := r.Fields[name].(string); ok {
		return v
	}
	return ""
}

type SenderInfo struct {
	SenderName      string `json:"senderName" binding:"required"`
	SenderAccount   string `json:"senderAccount" binding:"required"`
	SenderBankSwift string `json:"senderBankSwift" binding:"required"`
	SenderCountry   string `json:"senderCountry" binding:"required"`
	SenderTaxID     string `json:"senderTaxId"`
}

type RecipientInfo struct {
	RecipientName        string `json:"recipientName" binding:"required"`
	RecipientAccount     string `json:"recipientAccount" binding:"required"`
	RecipientBankSwift   string `json:"recipientBankSwift" binding:"required"`
	RecipientCountry     string `json:"recipientCountry"`
	RecipientTaxID       string `json:"recipientTaxId"`
	RecipientAccountHash string `json:"recipientAccountHash"`
}

type Declaration struct {
	PurposeOfPayment string `json:"purposeOfPayment"`
	SourceOfFunds    string `json:"sourceOfFunds"`
}

// SensitiveBundle holds the fields kept off the shared ledger record until
// they are projected into per-role views.
type SensitiveBundle struct {
	SenderInfo    SenderInfo    `json:"senderInfo"`
	RecipientInfo RecipientInfo `json:"recipientInfo"`
	Declaration   Declaration   `json:"declaration"`
}

type CreateProposalRequest struct {
	Recipient       string        `json:"recipient" binding:"required"`
	Regulator       string        `json:"regulator" binding:"required"`
	TxID            string        `json:"txId" binding:"required"`
	SenderInfo      SenderInfo    `json:"senderInfo" binding:"required"`
	RecipientInfo   RecipientInfo `json:"recipientInfo" binding:"required"`
	Declaration     Declaration   `json:"declaration"`
	Amount          string        `json:"amount" binding:"required"`
	SendCurrency    string        `json:"sendCurrency" binding:"required"`
	ReceiveCurrency string        `json:"receiveCurrency"`
}

// ProposalFields is the non-sensitive part of a proposal placed on the
// shared ledger record.
type ProposalFields struct {
	Sender               string `json:"sender"`
	Recipient            string `json:"recipient"`
	Regulator            string `json:"regulator"`
	TxID                 string `json:"txId"`
	SenderName           string `json:"senderName"`
	SenderCountry        string `json:"senderCountry"`
	RecipientName        string `json:"recipientName"`
	RecipientBic         string `json:"recipientBic"`
	RecipientCountry     string `json:"recipientCountry"`
	RecipientAccountHash string `json:"recipientAccountHash"`
	Amount               string `json:"amount"`
	SendCurrency         string `json:"sendCurrency"`
	ReceiveCurrency      string `json:"receiveCurrency"`
	CreatedAt            string `json:"createdAt"`
}

// ComplianceScreening is produced by the screening engine, never by the sender.
type ComplianceScreening struct {
	RiskScore        int    `json:"riskScore"`
	SanctionsChecked bool   `json:"sanctionsChecked"`
	PEPChecked       bool   `json:"pep_check"`
	Notes            string `json:"amlNotes"`
}

// =============================================================================
// Role Views
// =============================================================================

type ViewKind string

const (
	SenderView    ViewKind = "SenderView"
	RecipientView ViewKind = "RecipientView"
	RegulatorView ViewKind = "RegulatorView"
)

type SenderViewFields struct {
	TxID            string     `json:"txId"`
	Amount          string     `json:"amount"`
	SendCurrency    string     `json:"sendCurrency"`
	ReceiveCurrency string     `json:"receiveCurrency"`
	RecipientName   string     `json:"recipientName"`
	RecipientBic    string     `json:"recipientBic"`
	SenderInfo      SenderInfo `json:"senderInfo"`
}

type RecipientViewFields struct {
	TxID            string        `json:"txId"`
	Amount          string        `json:"amount"`
	SendCurrency    string        `json:"sendCurrency"`
	ReceiveCurrency string        `json:"receiveCurrency"`
	SenderName      string        `json:"senderName"`
	SenderCountry   string        `json:"senderCountry"`
	SenderBankSwift string        `json:"senderBankSwift"`
	RecipientInfo   RecipientInfo `json:"recipientInfo"`
}

type RegulatorViewFields struct {
	TxID            string              `json:"txId"`
	Amount          string              `json:"amount"`
	SendCurrency    string              `json:"sendCurrency"`
	ReceiveCurrency string              `json:"receiveCurrency"`
	SenderInfo      SenderInfo          `json:"senderInfo"`
	RecipientInfo   RecipientInfo       `json:"recipientInfo"`
	Declaration     Declaration         `json:"declaration"`
	Screening       ComplianceScreening `json:"screening"`
}

type FlagRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// =============================================================================
// Saga Results
// =============================================================================

// StepWarning records a non-fatal saga step failure.
type StepWarning struct {
	Step    string    `json:"step"`
	Role    PartyRole `json:"role,omitempty"`
	Message string    `json:"message"`
}

// AcceptResult is the outcome of the acceptance saga. A nil view identifier
// means that projection must be retried or investigated.
type AcceptResult struct {
	TxID                    string              `json:"txId"`
	Screening               ComplianceScreening `json:"screening"`
	CurrentContractID       string              `json:"txCid"`
	SenderViewContractID    *string             `json:"senderViewCid"`
	RecipientViewContractID *string             `json:"recipientViewCid"`
	RegulatorViewContractID *string             `json:"regulatorViewCid"`
	Warnings                []StepWarning       `json:"warnings,omitempty"`
}

// Partial reports whether any non-fatal step failed.
func (r *AcceptResult) Partial() bool {
	return len(r.Warnings) > 0
}

// =============================================================================
// API Responses
// =============================================================================

type ErrorResponse struct {
	Success   bool                   `json:"success"`
	Error     string                 `json:"error"`
	Details   string                 `json:"details,omitempty"`
	Code      string                 `json:"code,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// CommandResponse wraps a single-step transition.
type CommandResponse struct {
	Status     string          `json:"status"`
	ContractID string          `json:"contractId,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

type AcceptResponse struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	*AcceptResult
}
