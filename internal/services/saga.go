package services

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/shriya-upadhyay/meridian/internal/compliance"
	apperrors "github.com/shriya-upadhyay/meridian/internal/errors"
	"github.com/shriya-upadhyay/meridian/internal/metrics"
	"github.com/shriya-upadhyay/meridian/internal/models"
	"github.com/shriya-upadhyay/meridian/pkg/ledger"
)

const (
	stepLocate  = "locate_proposal"
	stepScreen  = "screen"
	stepAccept  = "accept"
	stepCoSign  = "regulator_cosign"
	stepViews   = "create_views"
	stepCleanup = "cache_cleanup"
)

// AcceptProposal drives a proposal from Proposed to Approved as the accepting
// party. The saga is forward-only: committed steps are never rolled back.
//
// A nil result means a fatal step failed (locate, accept, identifier
// extraction) and the error names it. A result together with a
// PARTIAL_SAGA_COMPLETION error means the co-sign or some view failed; the
// result still carries the best known contract id and every view id that
// was created.
func (s *ProposalService) AcceptProposal(ctx context.Context, party, contractID string) (*models.AcceptResult, error) {
	accepter := s.ledger.ResolveParty(party)
	logger := log.With().Str("contractId", contractID).Str("party", accepter).Logger()

	if err := checkCancelled(ctx, stepLocate); err != nil {
		return nil, err
	}
	proposal, found := s.findContract(ctx, accepter, TemplateProposal, contractID)
	if !found {
		recordStep(stepLocate, "error")
		logger.Warn().Msg("Proposal not visible to accepting party")
		return nil, apperrors.NewNotFoundError("proposal", contractID)
	}
	var fields models.ProposalFields
	if err := proposal.Decode(&fields); err != nil {
		recordStep(stepLocate, "error")
		return nil, apperrors.NewAppError(apperrors.ErrCodeInternalError, "Failed to read proposal fields", err)
	}
	recordStep(stepLocate, "ok")

	txID := fields.TxID
	logger = logger.With().Str("txId", txID).Logger()
	logger.Info().Msg("Acceptance saga started")

	// Once the proposal is located its bundle is consumed by this saga, so it
	// is deleted on every exit path from here on.
	defer func() {
		outcome := "ok"
		if !s.store.Delete(txID) {
			outcome = "miss"
		}
		recordStep(stepCleanup, outcome)
		logger.Debug().Str("outcome", outcome).Msg("Sensitive bundle released")
	}()

	bundle, cached := s.store.Get(txID)
	if !cached {
		logger.Warn().Msg("No sensitive bundle staged, screening with ledger fields only")
	}
	screening := compliance.Screen(compliance.Input{
		SenderName:       fields.SenderName,
		SenderCountry:    fields.SenderCountry,
		RecipientName:    fields.RecipientName,
		RecipientBIC:     fields.RecipientBic,
		Amount:           fields.Amount,
		Currency:         fields.SendCurrency,
		PurposeOfPayment: bundle.Declaration.PurposeOfPayment,
		SourceOfFunds:    bundle.Declaration.SourceOfFunds,
	})
	recordStep(stepScreen, "ok")
	logger.Info().Int("riskScore", screening.RiskScore).Msg("Compliance screening complete")

	if err := checkCancelled(ctx, stepAccept); err != nil {
		return nil, err
	}
	raw, err := s.ledger.SubmitExercise(ctx, accepter, TemplateProposal, contractID, ChoiceAccept, nil)
	if err != nil {
		recordStep(stepAccept, "error")
		logger.Error().Err(err).Msg("Accept choice failed, aborting saga")
		return nil, err
	}
	currentID, ok := ledger.ExtractCreatedContractID(raw)
	if !ok {
		recordStep(stepAccept, "error")
		logger.Error().Msg("Accept response carried no contract id, aborting saga")
		return nil, apperrors.NewExtractionError(ChoiceAccept, raw)
	}
	recordStep(stepAccept, "ok")

	result := &models.AcceptResult{
		TxID:              txID,
		Screening:         screening,
		CurrentContractID: currentID,
	}

	if err := checkCancelled(ctx, stepCoSign); err != nil {
		return result, err
	}
	if cosigned, warning := s.coSign(ctx, logger, fields.Regulator, txID, currentID); warning != nil {
		result.Warnings = append(result.Warnings, *warning)
	} else {
		result.CurrentContractID = cosigned
	}

	if err := checkCancelled(ctx, stepViews); err != nil {
		return result, err
	}
	s.createViews(ctx, logger, result, fields, bundle, accepter)

	if result.Partial() {
		logger.Warn().Int("warnings", len(result.Warnings)).Msg("Acceptance saga completed partially")
		return result, apperrors.NewAppError(
			apperrors.ErrCodePartialSagaCompletion,
			"Proposal accepted with failed follow-up steps",
			nil,
		).WithContext("txId", txID).WithContext("warnings", len(result.Warnings))
	}

	logger.Info().Str("currentContractId", result.CurrentContractID).Msg("Acceptance saga completed")
	return result, nil
}

// coSign returns the co-signed successor id, or a warning when the step fails.
// When the choice committed but its response names no contract, the live
// transaction is looked up by txId so a superseded id is never handed on.
func (s *ProposalService) coSign(ctx context.Context, logger zerolog.Logger, regulator, txID, currentID string) (string, *models.StepWarning) {
	raw, err := s.ledger.SubmitExercise(ctx, regulator, TemplateTransaction, currentID, ChoiceRegulatorCoSign, nil)
	if err == nil {
		if id, ok := ledger.ExtractCreatedContractID(raw); ok {
			recordStep(stepCoSign, "ok")
			return id, nil
		}
		if id, ok := s.relocateTransaction(ctx, regulator, txID, currentID); ok {
			recordStep(stepCoSign, "relocated")
			logger.Warn().Str("step", stepCoSign).Str("contractId", id).
				Msg("Co-sign response carried no contract id, relocated live transaction")
			return id, nil
		}
		err = apperrors.NewExtractionError(ChoiceRegulatorCoSign, raw)
	}

	recordStep(stepCoSign, "error")
	logger.Warn().Err(err).Str("step", stepCoSign).Str("regulator", regulator).
		Msg("Regulator co-sign failed, continuing with accepted contract id")
	return "", &models.StepWarning{
		Step:    stepCoSign,
		Role:    models.RoleRegulator,
		Message: apperrors.SanitizeError(err),
	}
}

// relocateTransaction finds the active transaction for txID that replaced
// supersededID.
func (s *ProposalService) relocateTransaction(ctx context.Context, party, txID, supersededID string) (string, bool) {
	for _, record := range s.ledger.QueryActiveContracts(ctx, party, TemplateTransaction) {
		if record.StringField("txId") == txID && record.ContractID != supersededID {
			return record.ContractID, true
		}
	}
	return "", false
}

type viewJob struct {
	role   models.PartyRole
	actor  string
	choice string
	args   interface{}
	slot   **string
}

// createViews fans the three projections out concurrently. Each is isolated:
// a failure leaves its slot nil and adds a warning without touching the
// others.
func (s *ProposalService) createViews(
	ctx context.Context,
	logger zerolog.Logger,
	result *models.AcceptResult,
	fields models.ProposalFields,
	bundle models.SensitiveBundle,
	accepter string,
) {
	recipient := fields.Recipient
	if recipient == "" {
		recipient = accepter
	}

	jobs := []viewJob{
		{models.RoleSender, fields.Sender, ChoiceCreateSenderView, ProjectSenderView(fields, bundle), &result.SenderViewContractID},
		{models.RoleRecipient, recipient, ChoiceCreateRecipientView, ProjectRecipientView(fields, bundle), &result.RecipientViewContractID},
		{models.RoleRegulator, fields.Regulator, ChoiceCreateRegulatorView, ProjectRegulatorView(fields, bundle, result.Screening), &result.RegulatorViewContractID},
	}

	currentID := result.CurrentContractID
	var (
		mu       sync.Mutex
		warnings []models.StepWarning
		g        errgroup.Group
	)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			id, err := s.createView(ctx, currentID, job)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				recordStep(stepViews, "error")
				logger.Warn().Err(err).Str("step", stepViews).Str("role", string(job.role)).
					Msg("View creation failed")
				warnings = append(warnings, models.StepWarning{
					Step:    stepViews,
					Role:    job.role,
					Message: apperrors.SanitizeError(err),
				})
				return nil
			}
			recordStep(stepViews, "ok")
			*job.slot = &id
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(warnings, func(i, j int) bool { return roleOrder[warnings[i].Role] < roleOrder[warnings[j].Role] })
	result.Warnings = append(result.Warnings, warnings...)
}

func (s *ProposalService) createView(ctx context.Context, currentID string, job viewJob) (string, error) {
	raw, err := s.ledger.SubmitExercise(ctx, job.actor, TemplateTransaction, currentID, job.choice, job.args)
	if err != nil {
		return "", err
	}
	id, ok := ledger.ExtractCreatedContractID(raw)
	if !ok {
		return "", apperrors.NewExtractionError(job.choice, raw)
	}
	return id, nil
}

var roleOrder = map[models.PartyRole]int{
	models.RoleSender:    0,
	models.RoleRecipient: 1,
	models.RoleRegulator: 2,
}

func (s *ProposalService) findContract(ctx context.Context, party, templateName, contractID string) (models.ContractRecord, bool) {
	for _, record := range s.ledger.QueryActiveContracts(ctx, party, templateName) {
		if record.ContractID == contractID {
			return record, true
		}
	}
	return models.ContractRecord{}, false
}

func checkCancelled(ctx context.Context, step string) error {
	if err := ctx.Err(); err != nil {
		recordStep(step, "cancelled")
		return apperrors.NewCancelledError(step, err)
	}
	return nil
}

func recordStep(step, outcome string) {
	metrics.SagaSteps.WithLabelValues(step, outcome).Inc()
}
