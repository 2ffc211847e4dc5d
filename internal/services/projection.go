package services

import "github.com/shriya-upadhyay/meridian/internal/models"

// Each projection lists exactly the fields its role may see. Nothing is
// filtered after the fact.

// ProjectSenderView omits recipient bank detail beyond the name and BIC the
// sender already supplied.
func ProjectSenderView(p models.ProposalFields, b models.SensitiveBundle) models.SenderViewFields {
	return models.SenderViewFields{
		TxID:            p.TxID,
		Amount:          p.Amount,
		SendCurrency:    p.SendCurrency,
		ReceiveCurrency: p.ReceiveCurrency,
		RecipientName:   p.RecipientName,
		RecipientBic:    p.RecipientBic,
		SenderInfo:      b.SenderInfo,
	}
}

// ProjectRecipientView withholds the sender's account and tax id.
func ProjectRecipientView(p models.ProposalFields, b models.SensitiveBundle) models.RecipientViewFields {
	return models.RecipientViewFields{
		TxID:            p.TxID,
		Amount:          p.Amount,
		SendCurrency:    p.SendCurrency,
		ReceiveCurrency: p.ReceiveCurrency,
		SenderName:      p.SenderName,
		SenderCountry:   p.SenderCountry,
		SenderBankSwift: b.SenderInfo.SenderBankSwift,
		RecipientInfo:   b.RecipientInfo,
	}
}

func ProjectRegulatorView(p models.ProposalFields, b models.SensitiveBundle, s models.ComplianceScreening) models.RegulatorViewFields {
	return models.RegulatorViewFields{
		TxID:            p.TxID,
		Amount:          p.Amount,
		SendCurrency:    p.SendCurrency,
		ReceiveCurrency: p.ReceiveCurrency,
		SenderInfo:      b.SenderInfo,
		RecipientInfo:   b.RecipientInfo,
		Declaration:     b.Declaration,
		Screening:       s,
	}
}
