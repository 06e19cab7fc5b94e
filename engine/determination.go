/*
determination.go - The determination record and its assembler

PURPOSE:
  A Determination is the complete, append-only outcome of one
  evaluation: eligibility, computed incomes, itemized deductions, test
  results, benefit amount, ineligibility reasons, and the rules
  snapshot - the ordered list of every rule-record identifier actually
  consulted. Re-running the same household snapshot against the same
  rule records (with the same clock) reproduces the record byte for
  byte, which is what makes past determinations defensible on appeal.

RULES SNAPSHOT:
  Identifiers are captured even for bypassed tests, so an auditor sees
  both that a test was skipped deliberately and which bypass rule
  caused it. Records are referenced by identifier, not foreign key, so
  history survives later deactivation of a rule version.

INVARIANT:
  IsEligible == (len(Reasons) == 0). The assembler enforces this; no
  other code sets IsEligible.

SEE ALSO:
  - engine.go: Produces the inputs the assembler combines
*/
package engine

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// IneligibilityReason is a specific, human-readable failure cause.
// Multiple reasons may co-occur on one determination.
type IneligibilityReason string

const (
	ReasonGrossIncomeExceedsLimit IneligibilityReason = "gross income exceeds limit"
	ReasonNetIncomeExceedsLimit   IneligibilityReason = "net income exceeds limit"
	ReasonAssetLimitExceeded      IneligibilityReason = "asset limit exceeded"
	ReasonNoDependentChildren     IneligibilityReason = "household has no dependent children"
)

// Determination is the append-only audit record of one evaluation.
// Never mutated after creation; a re-evaluation produces a new record.
type Determination struct {
	ID string `json:"id"`

	Household HouseholdSnapshot `json:"household"`

	IsEligible  bool  `json:"is_eligible"`
	GrossIncome Money `json:"gross_income"`
	NetIncome   Money `json:"net_income"`

	Deductions []DeductionItem `json:"deductions"`

	// CategoricalCode is the bypass category applied, empty when none.
	CategoricalCode string `json:"categorical_code,omitempty"`

	GrossTest TestResult `json:"gross_test"`
	NetTest   TestResult `json:"net_test"`
	AssetTest TestResult `json:"asset_test"`

	// BenefitAmount is zero for ineligible households.
	BenefitAmount Money `json:"benefit_amount"`

	Reasons []IneligibilityReason `json:"ineligibility_reasons"`

	// RulesSnapshot lists every rule record consulted, in consultation
	// order, deduplicated.
	RulesSnapshot []RuleID `json:"rules_snapshot"`

	// Diagnostics carries non-fatal resolver observations (overlap
	// tie-breaks) for administrative follow-up.
	Diagnostics []OverlapDiagnostic `json:"diagnostics,omitempty"`

	EvaluatedAt time.Time `json:"evaluated_at"`
	EvaluatedBy string    `json:"evaluated_by"`
}

// =============================================================================
// RULE TRAIL - Ordered, deduplicated record of consulted rule IDs
// =============================================================================

type ruleTrail struct {
	ids  []RuleID
	seen map[RuleID]bool
}

func newRuleTrail() *ruleTrail {
	return &ruleTrail{seen: make(map[RuleID]bool)}
}

func (t *ruleTrail) add(id RuleID) {
	if id == "" || t.seen[id] {
		return
	}
	t.seen[id] = true
	t.ids = append(t.ids, id)
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// assemble combines the pipeline outputs into a sealed Determination.
func assemble(
	h HouseholdSnapshot,
	cat CategoricalResult,
	grossTest, netTest, assetTest TestResult,
	deductions *DeductionResult,
	benefit Money,
	reasons []IneligibilityReason,
	trail *ruleTrail,
	diags []OverlapDiagnostic,
	at time.Time,
	by string,
) *Determination {
	if reasons == nil {
		reasons = []IneligibilityReason{}
	}
	d := &Determination{
		Household:       h,
		IsEligible:      len(reasons) == 0,
		GrossIncome:     h.GrossIncome(),
		NetIncome:       deductions.NetIncome,
		Deductions:      deductions.Items,
		CategoricalCode: cat.Code(),
		GrossTest:       grossTest,
		NetTest:         netTest,
		AssetTest:       assetTest,
		BenefitAmount:   benefit,
		Reasons:         reasons,
		RulesSnapshot:   trail.ids,
		Diagnostics:     diags,
		EvaluatedAt:     at.UTC(),
		EvaluatedBy:     by,
	}
	if d.RulesSnapshot == nil {
		d.RulesSnapshot = []RuleID{}
	}
	d.ID = d.contentID()
	return d
}

// contentID derives the determination identifier from the record's
// content, so identical inputs always yield the identical record.
func (d *Determination) contentID() string {
	clone := *d
	clone.ID = ""
	b, err := json.Marshal(clone)
	if err != nil {
		// Determination contains only marshal-safe types.
		panic(fmt.Sprintf("marshal determination: %v", err))
	}
	sum := sha256.Sum256(b)
	return fmt.Sprintf("det-%x", sum[:12])
}
