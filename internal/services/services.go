package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shriya-upadhyay/meridian/internal/config"
	"github.com/shriya-upadhyay/meridian/internal/models"
)

// Template names on the ledger.
const (
	TemplateProposal      = "CrossBorderTxProposal"
	TemplateTransaction   = "CrossBorderTx"
	TemplateSenderView    = "SenderView"
	TemplateRecipientView = "RecipientView"
	TemplateRegulatorView = "RegulatorView"
)

// Choice names on the ledger.
const (
	ChoiceAccept              = "AcceptProposal"
	ChoiceWithdraw            = "WithdrawProposal"
	ChoiceRegulatorCoSign     = "RegulatorCoSign"
	ChoiceCreateSenderView    = "CreateSenderView"
	ChoiceCreateRecipientView = "CreateRecipientView"
	ChoiceCreateRegulatorView = "CreateRegulatorView"
	ChoiceFreeze              = "Freeze"
	ChoiceSettle              = "Settle"
	ChoiceFlagSuspicious      = "FlagSuspicious"
)

// Ledger is the subset of the gateway the services call.
type Ledger interface {
	ResolveParty(handle string) string
	QueryActiveContracts(ctx context.Context, party, templateName string) []models.ContractRecord
	SubmitCreate(ctx context.Context, actingParties []string, templateName string, fields interface{}) (json.RawMessage, error)
	SubmitExercise(ctx context.Context, actingParty, templateName, contractID, choice string, args interface{}) (json.RawMessage, error)
}

// SensitiveStore holds bundles between proposal creation and acceptance.
type SensitiveStore interface {
	Put(txID string, bundle models.SensitiveBundle)
	Get(txID string) (models.SensitiveBundle, bool)
	Delete(txID string) bool
}

// ProposalService runs the proposal lifecycle and the acceptance saga.
type ProposalService struct {
	ledger  Ledger
	store   SensitiveStore
	parties []config.PartyConfig
	now     func() time.Time
}

func NewProposalService(ledger Ledger, store SensitiveStore, parties []config.PartyConfig) *ProposalService {
	return &ProposalService{
		ledger:  ledger,
		store:   store,
		parties: parties,
		now:     time.Now,
	}
}

// viewTemplates maps a role view kind to its template.
var viewTemplates = map[models.ViewKind]string{
	models.SenderView:    TemplateSenderView,
	models.RecipientView: TemplateRecipientView,
	models.RegulatorView: TemplateRegulatorView,
}
