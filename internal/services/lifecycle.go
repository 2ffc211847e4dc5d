package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	apperrors "github.com/shriya-upadhyay/meridian/internal/errors"
	"github.com/shriya-upadhyay/meridian/internal/models"
	"github.com/shriya-upadhyay/meridian/internal/utils"
	"github.com/shriya-upadhyay/meridian/pkg/ledger"
)

// =============================================================================
// Parties
// =============================================================================

func (s *ProposalService) ListParties() []models.Party {
	parties := make([]models.Party, 0, len(s.parties))
	for _, p := range s.parties {
		parties = append(parties, models.Party{
			Handle:      p.Handle,
			DisplayName: p.DisplayName,
			Role:        p.Role,
			FullID:      s.ledger.ResolveParty(p.Handle),
		})
	}
	return parties
}

// =============================================================================
// Proposal Operations
// =============================================================================

// CreateProposal stages the sensitive fields off-ledger and creates the
// proposal signed by the sender alone. Recipient and regulator are observers.
// If the ledger call fails the staged bundle stays until the TTL sweep.
func (s *ProposalService) CreateProposal(ctx context.Context, party string, req *models.CreateProposalRequest) (*models.CommandResponse, error) {
	if err := validateProposal(req); err != nil {
		return nil, err
	}

	sender := s.ledger.ResolveParty(party)
	recipient := s.ledger.ResolveParty(req.Recipient)
	regulator := s.ledger.ResolveParty(req.Regulator)

	recipientInfo := req.RecipientInfo
	if recipientInfo.RecipientAccountHash == "" {
		recipientInfo.RecipientAccountHash = utils.HashAccount(recipientInfo.RecipientAccount)
	}
	receiveCurrency := req.ReceiveCurrency
	if receiveCurrency == "" {
		receiveCurrency = req.SendCurrency
	}

	s.store.Put(req.TxID, models.SensitiveBundle{
		SenderInfo:    req.SenderInfo,
		RecipientInfo: recipientInfo,
		Declaration:   req.Declaration,
	})

	fields := models.ProposalFields{
		Sender:               sender,
		Recipient:            recipient,
		Regulator:            regulator,
		TxID:                 req.TxID,
		SenderName:           req.SenderInfo.SenderName,
		SenderCountry:        req.SenderInfo.SenderCountry,
		RecipientName:        recipientInfo.RecipientName,
		RecipientBic:         recipientInfo.RecipientBankSwift,
		RecipientCountry:     recipientInfo.RecipientCountry,
		RecipientAccountHash: recipientInfo.RecipientAccountHash,
		Amount:               req.Amount,
		SendCurrency:         req.SendCurrency,
		ReceiveCurrency:      receiveCurrency,
		CreatedAt:            s.now().UTC().Format(time.RFC3339),
	}

	raw, err := s.ledger.SubmitCreate(ctx, []string{sender}, TemplateProposal, fields)
	if err != nil {
		log.Error().Err(err).Str("txId", req.TxID).Msg("Failed to create proposal")
		return nil, err
	}

	contractID, _ := ledger.ExtractCreatedContractID(raw)
	log.Info().Str("txId", req.TxID).Str("contractId", contractID).Str("sender", sender).Msg("Proposal created")
	return &models.CommandResponse{Status: "created", ContractID: contractID, Result: raw}, nil
}

func validateProposal(req *models.CreateProposalRequest) error {
	if req == nil {
		return apperrors.NewValidationError("request body is required")
	}
	if strings.TrimSpace(req.TxID) == "" {
		return apperrors.NewValidationError("txId is required")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return apperrors.NewValidationError("amount must be a decimal number").WithContext("amount", req.Amount)
	}
	if !amount.IsPositive() {
		return apperrors.NewValidationError("amount must be positive").WithContext("amount", req.Amount)
	}
	return nil
}

// WithdrawProposal withdraws as the sender and releases the staged bundle.
func (s *ProposalService) WithdrawProposal(ctx context.Context, party, contractID string) (*models.CommandResponse, error) {
	sender := s.ledger.ResolveParty(party)

	txID := ""
	if record, ok := s.findContract(ctx, sender, TemplateProposal, contractID); ok {
		txID = record.StringField("txId")
	}

	raw, err := s.ledger.SubmitExercise(ctx, sender, TemplateProposal, contractID, ChoiceWithdraw, nil)
	if err != nil {
		log.Error().Err(err).Str("contractId", contractID).Msg("Failed to withdraw proposal")
		return nil, err
	}

	if txID != "" && s.store.Delete(txID) {
		log.Debug().Str("txId", txID).Msg("Released sensitive bundle of withdrawn proposal")
	}
	log.Info().Str("contractId", contractID).Str("txId", txID).Msg("Proposal withdrawn")
	return &models.CommandResponse{Status: "withdrawn", Result: raw}, nil
}

func (s *ProposalService) ListProposals(ctx context.Context, party string) []models.ContractRecord {
	return s.ledger.QueryActiveContracts(ctx, s.ledger.ResolveParty(party), TemplateProposal)
}

// =============================================================================
// Transaction Operations
// =============================================================================

func (s *ProposalService) ListTransactions(ctx context.Context, party string) []models.ContractRecord {
	return s.ledger.QueryActiveContracts(ctx, s.ledger.ResolveParty(party), TemplateTransaction)
}

// FreezeTransaction is exercised by the regulator. Whether the regulator has
// co-signed is not checked here; the ledger template decides.
func (s *ProposalService) FreezeTransaction(ctx context.Context, party, contractID string) (*models.CommandResponse, error) {
	return s.transition(ctx, party, TemplateTransaction, contractID, ChoiceFreeze, nil, "frozen")
}

// SettleTransaction is exercised by the sender.
func (s *ProposalService) SettleTransaction(ctx context.Context, party, contractID string) (*models.CommandResponse, error) {
	return s.transition(ctx, party, TemplateTransaction, contractID, ChoiceSettle, nil, "settled")
}

// =============================================================================
// Role Views
// =============================================================================

func (s *ProposalService) ListViews(ctx context.Context, party string, kind models.ViewKind) ([]models.ContractRecord, error) {
	templateName, ok := viewTemplates[kind]
	if !ok {
		return nil, apperrors.NewValidationError("unknown view kind").WithContext("kind", string(kind))
	}
	return s.ledger.QueryActiveContracts(ctx, s.ledger.ResolveParty(party), templateName), nil
}

func (s *ProposalService) FlagSuspicious(ctx context.Context, party, contractID, notes string) (*models.CommandResponse, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, apperrors.NewValidationError("notes is required")
	}
	return s.transition(ctx, party, TemplateRegulatorView, contractID, ChoiceFlagSuspicious,
		map[string]string{"notes": notes}, "flagged")
}

// transition is one exercise with no saga structure around it.
func (s *ProposalService) transition(
	ctx context.Context,
	party, templateName, contractID, choice string,
	args interface{},
	status string,
) (*models.CommandResponse, error) {
	actor := s.ledger.ResolveParty(party)

	raw, err := s.ledger.SubmitExercise(ctx, actor, templateName, contractID, choice, args)
	if err != nil {
		log.Error().Err(err).Str("choice", choice).Str("contractId", contractID).Msg("Transition failed")
		return nil, err
	}

	successor, _ := ledger.ExtractCreatedContractID(raw)
	log.Info().
		Str("choice", choice).
		Str("contractId", contractID).
		Str("successor", successor).
		Str("party", actor).
		Msg("Transition completed")
	return &models.CommandResponse{Status: status, ContractID: successor, Result: raw}, nil
}
