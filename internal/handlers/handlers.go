package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/shriya-upadhyay/meridian/internal/errors"
	"github.com/shriya-upadhyay/meridian/internal/models"
	"github.com/shriya-upadhyay/meridian/internal/services"
)

type Handler struct {
	proposals *services.ProposalService
}

func NewHandler(proposals *services.ProposalService) *Handler {
	return &Handler{proposals: proposals}
}

func (h *Handler) requireParty(c *gin.Context) (string, bool) {
	party := c.Query("party")
	if party == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success:   false,
			Error:     "party query param required",
			Code:      string(apperrors.ErrCodeInvalidInput),
			RequestID: c.GetString("request_id"),
		})
		return "", false
	}
	return party, true
}

func respondError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if apperrors.IsLedgerCallFailure(err) || appErr.Payload != "" {
			log.Warn().Str("request_id", requestID).Str("code", string(appErr.Code)).
				Interface("context", appErr.Context).Str("payload", appErr.Payload).
				Msg("Ledger call failed")
		}
		c.JSON(appErr.HTTPStatus, models.ErrorResponse{
			Success:   false,
			Error:     appErr.Message,
			Details:   appErr.Details,
			Code:      string(appErr.Code),
			RequestID: requestID,
			Context:   appErr.Context,
		})
		return
	}

	log.Error().Err(err).Str("request_id", requestID).Msg("Unclassified error")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success:   false,
		Error:     apperrors.SanitizeError(err),
		Code:      string(apperrors.ErrCodeInternalError),
		RequestID: requestID,
	})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success:   false,
		Error:     err.Error(),
		Code:      string(apperrors.ErrCodeValidationFailed),
		RequestID: c.GetString("request_id"),
	})
}

// HealthCheck godoc
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]string  "status: ok"
// @Router       /api/health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "cross-border-orchestrator",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListParties godoc
// @Summary      List parties
// @Description  Configured parties with their role and resolved ledger identifier
// @Tags         Parties
// @Produce      json
// @Success      200  {array}  models.Party
// @Router       /api/parties [get]
func (h *Handler) ListParties(c *gin.Context) {
	c.JSON(http.StatusOK, h.proposals.ListParties())
}

// =============================================================================
// Proposals
// =============================================================================

// ListProposals godoc
// @Summary      List proposals
// @Description  Active proposals visible to the party
// @Tags         Proposals
// @Produce      json
// @Param        party  query     string  true  "Party handle or full identifier"
// @Success      200    {array}   models.ContractRecord
// @Failure      400    {object}  models.ErrorResponse
// @Router       /api/proposals [get]
func (h *Handler) ListProposals(c *gin.Context) {
	party, ok := h.requireParty(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.proposals.ListProposals(c.Request.Context(), party))
}

// CreateProposal godoc
// @Summary      Create proposal
// @Description  Stage sensitive fields off-ledger and create a proposal signed by the sender
// @Tags         Proposals
// @Accept       json
// @Produce      json
// @Param        party    query     string                        true  "Sender party"
// @Param        request  body      models.CreateProposalRequest  true  "Proposal"
// @Success      201      {object}  models.CommandResponse
// @Failure      400      {object}  models.ErrorResponse
// @Failure      502      {object}  models.ErrorResponse
// @Router       /api/proposals [post]
func (h *Handler) CreateProposal(c *gin.Context) {
	party, ok := h.requireParty(c)
	if !ok {
		return
	}

	var req models.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.proposals.CreateProposal(c.Request.Context(), party, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// AcceptProposal godoc
// @Summary      Accept proposal
// @Description  Run the acceptance saga: screening, accept, regulator co-sign and role views
// @Description  A 207 response carries the result of a saga whose co-sign or views partly failed
// @Tags         Proposals
// @Produce      json
// @Param        contractId  path      string  true  "Proposal contract ID"
// @Param        party       query     string  true  "Recipient party"
// @Success      200         {object}  models.AcceptResponse
// @Success      207         {object}  models.AcceptResponse
// @Failure      404         {object}  models.ErrorResponse
// @Failure      502         {object}  models.ErrorResponse
// @Router       /api/proposals/{contractId}/accept [post]
func (h *Handler) AcceptProposal(c *gin.Context) {
	party, ok := h.requireParty(c)
	if !ok {
		return
	}

	result, err := h.proposals.AcceptProposal(c.Request.Context(), party, c.Param("contractId"))
	if err != nil && result != nil && apperrors.Is(err, apperrors.ErrCodePartialSagaCompletion) {
		c.JSON(http.StatusMultiStatus, models.AcceptResponse{
			Status:       "partial",
			Code:         string(apperrors.ErrCodePartialSagaCompletion),
			AcceptResult: result,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AcceptResponse{Status: "accepted", AcceptResult: result})
}

// WithdrawProposal godoc
// @Summary      Withdraw proposal
// @Tags         Proposals
// @Produce      json
// @Param        contractId  path      string  true  "Proposal contract ID"
// @Param        party       query     string  true  "Sender party"
// @Success      200         {object}  models.CommandResponse
// @Failure      404         {object}  models.ErrorResponse
// @Router       /api/proposals/{contractId}/withdraw [post]
func (h *Handler) WithdrawProposal(c *gin.Context) {
	party, ok := h.requireParty(c)
	if !ok {
		return
	}

	result, err := h.proposals.WithdrawProposal(c.Request.Context(), party, c.Param("contractId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// =============================================================================
// Transactions
// =============================================================================

// ListTransactions godoc
// @Summary      List transactions
// @Tags         Transactions
// @Produce      json
// @Param        party  query     string  true  "Party"
// @Success      200    {array}   models.ContractRecord
// @Router       /api/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	party, ok := h.requireParty(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.proposals.ListTransactions(c.Request.Context(), party))
}

// FreezeTransaction godoc
// @Summary      Freeze transaction
// @Description  Regulator freezes a transaction; a frozen transaction cannot be settled
// @Tags         Transactions
// @Produce      json
// @Param        contractId  path      string  true  "Transaction contract ID"
// @Param        party       query     string  true  "Regulator party"
// @Success      200         {object}  models.CommandResponse
// @Failure      404         {object}  models.ErrorResponse
// @Router       /api/transactions/{contractId}/freeze [post]
func (h *Handler) FreezeTransaction(c *gin.Context) {
	party, ok := h.requireParty(c)
	if !ok {
		return
	}

	result, err := h.proposals.FreezeTransaction(c.Request.Context(), party, c.Param("contractId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SettleTransaction godoc
// @Summary      Settle transaction
// @Tags         Transactions
// @Produce      json
// @Param        contractId  path      string  true  "Transaction contract ID"
// @Param        party       query     string  true  "Sender party"
// @Success      200         {object}  models.CommandResponse
// @Failure      404         {object}  models.ErrorResponse
// @Router       /api/transactions/{contractId}/settle [post]
func (h *Handler) SettleTransaction(c *gin.Context) {
	party, ok := h.requireParty(c)
	if !ok {
		return
	}

	result, err := h.proposals.SettleTransaction(c.Request.Context(), party, c.Param("contractId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// =============================================================================
// Role Views
// =============================================================================

// ListSenderViews godoc
// @Summary      List sender views
// @Tags         Views
// @Produce      json
// @Param        party  query     string  true  "Party"
// @Success      200    {array}   models.ContractRecord
// @Router       /api/sender-views [get]
func (h *Handler) ListSenderViews(c *gin.Context) {
	h.listViews(c, models.SenderView)
}

// ListRecipientViews godoc
// @Summary      List recipient views
// @Tags         Views
// @Produce      json
// @Param        party  query     string  true  "Party"
// @Success      200    {array}   models.ContractRecord
// @Router       /api/recipient-views [get]
func (h *Handler) ListRecipientViews(c *gin.Context) {
	h.listViews(c, models.RecipientView)
}

// ListRegulatorViews godoc
// @Summary      List regulator views
// @Tags         Views
// @Produce      json
// @Param        party  query     string  true  "Regulator party"
// @Success      200    {array}   models.ContractRecord
// @Router       /api/regulator-views [get]
func (h *Handler) ListRegulatorViews(c *gin.Context) {
	h.listViews(c, models.RegulatorView)
}

func (h *Handler) listViews(c *gin.Context, kind models.ViewKind) {
	party, ok := h.requireParty(c)
	if !ok {
		return
	}

	records, err := h.proposals.ListViews(c.Request.Context(), party, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// FlagSuspicious godoc
// @Summary      Flag suspicious transaction
// @Tags         Views
// @Accept       json
// @Produce      json
// @Param        contractId  path      string              true  "Regulator view contract ID"
// @Param        party       query     string              true  "Regulator party"
// @Param        request     body      models.FlagRequest  true  "Notes"
// @Success      200         {object}  models.CommandResponse
// @Failure      400         {object}  models.ErrorResponse
// @Failure      404         {object}  models.ErrorResponse
// @Router       /api/regulator-views/{contractId}/flag [post]
func (h *Handler) FlagSuspicious(c *gin.Context) {
	party, ok := h.requireParty(c)
	if !ok {
		return
	}

	var req models.FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success:   false,
			Error:     "notes is required",
			Code:      string(apperrors.ErrCodeValidationFailed),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	result, err := h.proposals.FlagSuspicious(c.Request.Context(), party, c.Param("contractId"), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
