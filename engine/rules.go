/*
rules.go - Versioned, effective-dated rule records

PURPOSE:
  Defines the five rule-record kinds the engine consults: income limits,
  deduction definitions, allotment tables, categorical-eligibility
  definitions, and asset-test definitions. Records are versioned and
  effective-dated rather than mutated: a correction creates a new
  version and close-ends the old one. Records referenced by a past
  determination are never deleted, so any historical determination can
  be reproduced exactly.

KEY CONCEPTS:
  - RuleMeta: identity, scope, and effective window shared by all kinds
  - Effective window: [EffectiveFrom, EffectiveTo], inclusive on both
    ends; nil EffectiveTo means open-ended
  - HouseholdSize on a record: 0 applies to any size; a positive value
    applies to exactly that size (allotment brackets, sized limits)
  - RuleSet: every record for one (jurisdiction, program) pair, loaded
    once per evaluation or batch as an immutable snapshot

SEE ALSO:
  - resolver.go: Selects the single effective record per lookup
  - store/memory.go, store/sqlite: RuleStore implementations
*/
package engine

import "context"

// =============================================================================
// IDENTIFIERS AND KINDS
// =============================================================================

// RuleID uniquely identifies one version of one rule record.
type RuleID string

// RuleKind discriminates the five record kinds.
type RuleKind string

const (
	KindIncomeLimit RuleKind = "income_limit"
	KindDeduction   RuleKind = "deduction"
	KindAllotment   RuleKind = "allotment"
	KindCategorical RuleKind = "categorical_eligibility"
	KindAssetTest   RuleKind = "asset_test"
)

// DeductionType identifies one of the deduction definitions a
// jurisdiction may apply.
type DeductionType string

const (
	DeductionStandard      DeductionType = "standard"
	DeductionEarnedIncome  DeductionType = "earned_income"
	DeductionDependentCare DeductionType = "dependent_care"
	DeductionMedical       DeductionType = "medical"
	DeductionShelter       DeductionType = "shelter"
)

// =============================================================================
// RULE META - Identity, scope, effective window
// =============================================================================

// RuleMeta is embedded in every rule-record kind.
type RuleMeta struct {
	ID           RuleID `json:"id"`
	Jurisdiction string `json:"jurisdiction"`
	Program      string `json:"program"`
	Kind         RuleKind `json:"kind"`

	// HouseholdSize scopes the record to one size. 0 = any size.
	HouseholdSize int `json:"household_size"`

	EffectiveFrom Date  `json:"effective_from"`
	EffectiveTo   *Date `json:"effective_to,omitempty"` // nil = open-ended
	Active        bool  `json:"active"`
	Version       int   `json:"version"`

	// Approval metadata. Carried for the audit trail; the engine never
	// interprets it.
	ApprovedBy string `json:"approved_by,omitempty"`
	ApprovedAt Date   `json:"approved_at,omitempty"`
}

// CoversDate reports whether the effective window contains d.
// Both window ends are inclusive.
func (m RuleMeta) CoversDate(d Date) bool {
	if d.Before(m.EffectiveFrom) {
		return false
	}
	if m.EffectiveTo != nil && d.After(*m.EffectiveTo) {
		return false
	}
	return true
}

// CoversSize reports whether the record applies to a household of the
// given size. Size-0 records apply to every size.
func (m RuleMeta) CoversSize(size int) bool {
	return m.HouseholdSize == 0 || m.HouseholdSize == size
}

// Meta lets resolver helpers treat all kinds uniformly.
func (m RuleMeta) Meta() RuleMeta { return m }

// =============================================================================
// RULE RECORD KINDS
// =============================================================================

// IncomeLimitRule holds the gross and net monthly income ceilings for
// one household size. Ceilings are inclusive: income exactly at the
// ceiling passes.
type IncomeLimitRule struct {
	RuleMeta
	GrossCeiling Money `json:"gross_ceiling"`
	NetCeiling   Money `json:"net_ceiling"`
}

// DeductionRule parameterizes one deduction type. Which fields are
// meaningful depends on DeductionType:
//
//	standard:        Amount (fixed, possibly per size)
//	earned_income:   Percentage of earned income only
//	dependent_care:  actual cost up to Cap (nil Cap = uncapped)
//	medical:         actual cost minus Threshold, elderly/disabled only
//	shelter:         cost minus half of adjusted income, up to Cap
//	                 unless CapExemptElderlyDisabled
type DeductionRule struct {
	RuleMeta
	DeductionType            DeductionType `json:"deduction_type"`
	Amount                   Money         `json:"amount"`
	Percentage               Rate          `json:"percentage"`
	Cap                      *Money        `json:"cap,omitempty"`
	Threshold                Money         `json:"threshold"`
	CapExemptElderlyDisabled bool          `json:"cap_exempt_elderly_disabled"`
}

// AllotmentRule holds the maximum and minimum monthly benefit for one
// household-size bracket plus the reduction formula parameters. When a
// household exceeds the largest defined bracket, PerAdditionalMember
// extends the table incrementally.
type AllotmentRule struct {
	RuleMeta
	MaxBenefit          Money `json:"max_benefit"`
	MinBenefit          Money `json:"min_benefit"`
	ReductionRate       Rate  `json:"reduction_rate"`
	PerAdditionalMember Money `json:"per_additional_member"`
	RoundToDollar       bool  `json:"round_to_dollar"`
}

// ConditionType selects how a categorical rule matches households.
type ConditionType string

const (
	// ConditionReceivesAid matches households already receiving one of
	// the listed aid programs (empty list = any reported aid).
	ConditionReceivesAid ConditionType = "receives_aid"

	// ConditionBroadBased matches every household, but only when the
	// jurisdiction's program config enables broad-based categorical
	// eligibility.
	ConditionBroadBased ConditionType = "broad_based"
)

// CategoricalCondition is the matching predicate of a categorical rule.
type CategoricalCondition struct {
	Type        ConditionType `json:"type"`
	AidPrograms []string      `json:"aid_programs,omitempty"`
}

// TestBypass names which standard tests a categorical rule waives.
type TestBypass struct {
	GrossIncome bool `json:"gross_income"`
	NetIncome   bool `json:"net_income"`
	Assets      bool `json:"assets"`
}

// CategoricalRule grants a categorical-eligibility status that bypasses
// one or more standard tests. Rules are evaluated in ascending Priority
// order; the first match wins, so a more specific category (SSI) can
// take precedence over a broader one (broad-based eligibility).
type CategoricalRule struct {
	RuleMeta
	Code      string               `json:"code"` // e.g. "SSI", "TANF", "BBCE"
	Priority  int                  `json:"priority"`
	Condition CategoricalCondition `json:"condition"`
	Bypasses  TestBypass           `json:"bypasses"`
}

// AssetTestRule holds the countable-asset ceiling. Households with an
// elderly or disabled member use ElderlyDisabledLimit when it is set.
type AssetTestRule struct {
	RuleMeta
	Limit                Money `json:"limit"`
	ElderlyDisabledLimit Money `json:"elderly_disabled_limit"` // zero = same as Limit
}

// =============================================================================
// RULE SET - Immutable per-(jurisdiction, program) snapshot
// =============================================================================

// RuleSet is every rule record for one (jurisdiction, program) pair.
// It is loaded once at the start of an evaluation or batch and treated
// as read-only from then on, so every household in a batch is evaluated
// against identical rule data.
type RuleSet struct {
	Jurisdiction string
	Program      string

	IncomeLimits []IncomeLimitRule
	Deductions   []DeductionRule
	Allotments   []AllotmentRule
	Categorical  []CategoricalRule
	AssetTests   []AssetTestRule
}

// Empty reports whether the set contains no records at all.
func (rs *RuleSet) Empty() bool {
	return len(rs.IncomeLimits) == 0 && len(rs.Deductions) == 0 &&
		len(rs.Allotments) == 0 && len(rs.Categorical) == 0 && len(rs.AssetTests) == 0
}

// =============================================================================
// RULE STORE - Read-only access to rule records
// =============================================================================

// RuleStore loads rule records. The engine only reads; versioning and
// close-ending are the administration layer's concern.
type RuleStore interface {
	// LoadRuleSet returns all rule records for (jurisdiction, program),
	// including inactive and expired versions. Date selection happens in
	// the resolver, not the store, so one fetch serves a whole batch.
	LoadRuleSet(ctx context.Context, jurisdiction, program string) (*RuleSet, error)
}
