// Package compliance scores a transaction for AML review when a proposal is
// accepted. Sanctions and PEP checks are fixed stubs for an external provider;
// a real deployment replaces the body of Screen only.
package compliance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shriya-upadhyay/meridian/internal/models"
)

const (
	baseScore         = 10
	highValueAddend   = 30
	elevatedAddend    = 15
	riskySourceAddend = 25

	highRiskAbove   = 70
	mediumRiskAbove = 40
)

var (
	highValueThreshold = decimal.NewFromInt(1_000_000)
	elevatedThreshold  = decimal.NewFromInt(100_000)

	riskySourceKeywords = []string{"cash", "crypto", "anonymous", "unknown"}
)

const (
	SummaryHigh   = "HIGH RISK — manual review required"
	SummaryMedium = "MEDIUM RISK — standard due diligence"
	SummaryLow    = "LOW RISK — automated approval eligible"
)

// Input holds the transaction details the screening reads.
type Input struct {
	SenderName       string
	SenderCountry    string
	RecipientName    string
	RecipientBIC     string
	Amount           string
	Currency         string
	PurposeOfPayment string
	SourceOfFunds    string
}

// Screen is a pure function of its input. An amount that does not parse
// counts as zero.
func Screen(in Input) models.ComplianceScreening {
	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		amount = decimal.Zero
	}

	score := baseScore
	var items []string

	switch {
	case amount.GreaterThan(highValueThreshold):
		score += highValueAddend
		items = append(items, "High-value transaction (>1M) — enhanced due diligence required")
	case amount.GreaterThan(elevatedThreshold):
		score += elevatedAddend
		items = append(items, "Elevated value transaction (>100K)")
	}

	sanctionsChecked := true
	items = append(items, "Sanctions screening: CLEAR")

	pepChecked := true
	items = append(items, "PEP screening: CLEAR")

	if riskySource(in.SourceOfFunds) {
		score += riskySourceAddend
		items = append(items, fmt.Sprintf("Elevated risk source of funds: %q", in.SourceOfFunds))
	}

	score = clamp(score, 0, 100)

	return models.ComplianceScreening{
		RiskScore:        score,
		SanctionsChecked: sanctionsChecked,
		PEPChecked:       pepChecked,
		Notes:            Summary(score) + ". " + strings.Join(items, ". "),
	}
}

// Summary returns the review bucket for a clamped score.
func Summary(score int) string {
	switch {
	case score > highRiskAbove:
		return SummaryHigh
	case score > mediumRiskAbove:
		return SummaryMedium
	default:
		return SummaryLow
	}
}

func riskySource(sourceOfFunds string) bool {
	lower := strings.ToLower(sourceOfFunds)
	for _, kw := range riskySourceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
