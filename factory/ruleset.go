/*
Package factory provides JSON to Go rule-set conversion.

PURPOSE:
  Converts JSON rule-set documents into engine.RuleSet and
  engine.ProgramConfig values. Policy administrators define a
  jurisdiction's rules as JSON - income limits, deductions, allotment
  tables, categorical-eligibility definitions, asset tests - and the
  factory produces the typed records the engine consumes. No code
  change is needed to onboard a jurisdiction.

JSON SCHEMA (abridged):
  {
    "jurisdiction": "EX",
    "program": "food_assistance",
    "config": {
      "asset_test_required": true,
      "deduction_types": ["standard", "earned_income", "shelter"]
    },
    "income_limits": [
      {"id": "ex-il-1", "household_size": 1, "effective_from": "2024-10-01",
       "gross_ceiling": 1632.00, "net_ceiling": 1255.00}
    ],
    "deductions": [
      {"id": "ex-ded-std-1", "type": "standard", "household_size": 1,
       "effective_from": "2024-10-01", "amount": 198.00}
    ],
    "allotments": [
      {"id": "ex-al-1", "household_size": 1, "effective_from": "2024-10-01",
       "max_benefit": 292.00, "min_benefit": 23.00, "reduction_rate": 0.3,
       "per_additional_member": 220.00, "round_to_dollar": true}
    ],
    ...
  }

  Monetary figures are dollars (converted to exact cents on parse).
  Omitted "active" defaults to true; omitted "effective_to" means the
  record is open-ended.

SEE ALSO:
  - engine/rules.go: Target record types
  - snap/, cash/: Preset document builders
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/benefit-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleSetJSON is the JSON representation of one jurisdiction/program's
// complete rule set plus its program configuration.
type RuleSetJSON struct {
	Jurisdiction string            `json:"jurisdiction"`
	Program      string            `json:"program"`
	Config       *ConfigJSON       `json:"config,omitempty"`
	IncomeLimits []IncomeLimitJSON `json:"income_limits,omitempty"`
	Deductions   []DeductionJSON   `json:"deductions,omitempty"`
	Allotments   []AllotmentJSON   `json:"allotments,omitempty"`
	Categorical  []CategoricalJSON `json:"categorical,omitempty"`
	AssetTests   []AssetTestJSON   `json:"asset_tests,omitempty"`
}

// ConfigJSON mirrors engine.ProgramConfig.
type ConfigJSON struct {
	Name                      string   `json:"name,omitempty"`
	AssetTestRequired         bool     `json:"asset_test_required"`
	BroadBasedCategorical     bool     `json:"broad_based_categorical"`
	DeductionTypes            []string `json:"deduction_types"`
	RequiresDependentChildren bool     `json:"requires_dependent_children"`
}

// MetaJSON carries the fields every record kind shares.
type MetaJSON struct {
	ID            string `json:"id"`
	HouseholdSize int    `json:"household_size,omitempty"`
	EffectiveFrom string `json:"effective_from"`
	EffectiveTo   string `json:"effective_to,omitempty"`
	Active        *bool  `json:"active,omitempty"` // default true
	Version       int    `json:"version,omitempty"`
	ApprovedBy    string `json:"approved_by,omitempty"`
	ApprovedAt    string `json:"approved_at,omitempty"`
}

type IncomeLimitJSON struct {
	MetaJSON
	GrossCeiling float64 `json:"gross_ceiling"`
	NetCeiling   float64 `json:"net_ceiling"`
}

type DeductionJSON struct {
	MetaJSON
	Type                     string   `json:"type"`
	Amount                   float64  `json:"amount,omitempty"`
	Percentage               float64  `json:"percentage,omitempty"`
	Cap                      *float64 `json:"cap,omitempty"`
	Threshold                float64  `json:"threshold,omitempty"`
	CapExemptElderlyDisabled bool     `json:"cap_exempt_elderly_disabled,omitempty"`
}

type AllotmentJSON struct {
	MetaJSON
	MaxBenefit          float64 `json:"max_benefit"`
	MinBenefit          float64 `json:"min_benefit,omitempty"`
	ReductionRate       float64 `json:"reduction_rate"`
	PerAdditionalMember float64 `json:"per_additional_member,omitempty"`
	RoundToDollar       bool    `json:"round_to_dollar,omitempty"`
}

type CategoricalJSON struct {
	MetaJSON
	Code      string        `json:"code"`
	Priority  int           `json:"priority"`
	Condition ConditionJSON `json:"condition"`
	Bypasses  BypassJSON    `json:"bypasses"`
}

type ConditionJSON struct {
	Type        string   `json:"type"`
	AidPrograms []string `json:"aid_programs,omitempty"`
}

type BypassJSON struct {
	GrossIncome bool `json:"gross_income"`
	NetIncome   bool `json:"net_income"`
	Assets      bool `json:"assets"`
}

type AssetTestJSON struct {
	MetaJSON
	Limit                float64 `json:"limit"`
	ElderlyDisabledLimit float64 `json:"elderly_disabled_limit,omitempty"`
}

// =============================================================================
// RULE SET FACTORY
// =============================================================================

// RuleSetFactory converts JSON rule-set documents to engine types.
type RuleSetFactory struct{}

func NewRuleSetFactory() *RuleSetFactory {
	return &RuleSetFactory{}
}

// ParseRuleSet parses a JSON document into a RuleSet and, when the
// document carries a config block, the ProgramConfig.
func (f *RuleSetFactory) ParseRuleSet(jsonStr string) (*engine.RuleSet, *engine.ProgramConfig, error) {
	var doc RuleSetJSON
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse rule set JSON: %w", err)
	}
	return f.FromJSON(doc)
}

// FromJSON converts a RuleSetJSON document to engine types.
func (f *RuleSetFactory) FromJSON(doc RuleSetJSON) (*engine.RuleSet, *engine.ProgramConfig, error) {
	if doc.Jurisdiction == "" {
		return nil, nil, fmt.Errorf("rule set document missing jurisdiction")
	}
	if doc.Program == "" {
		return nil, nil, fmt.Errorf("rule set document missing program")
	}

	rs := &engine.RuleSet{Jurisdiction: doc.Jurisdiction, Program: doc.Program}

	for _, j := range doc.IncomeLimits {
		meta, err := parseMeta(j.MetaJSON, doc, engine.KindIncomeLimit)
		if err != nil {
			return nil, nil, err
		}
		rs.IncomeLimits = append(rs.IncomeLimits, engine.IncomeLimitRule{
			RuleMeta:     meta,
			GrossCeiling: engine.DollarsFromFloat(j.GrossCeiling),
			NetCeiling:   engine.DollarsFromFloat(j.NetCeiling),
		})
	}

	for _, j := range doc.Deductions {
		meta, err := parseMeta(j.MetaJSON, doc, engine.KindDeduction)
		if err != nil {
			return nil, nil, err
		}
		dt, err := parseDeductionType(j.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("deduction %s: %w", j.ID, err)
		}
		rule := engine.DeductionRule{
			RuleMeta:                 meta,
			DeductionType:            dt,
			Amount:                   engine.DollarsFromFloat(j.Amount),
			Percentage:               engine.RateFromFloat(j.Percentage),
			Threshold:                engine.DollarsFromFloat(j.Threshold),
			CapExemptElderlyDisabled: j.CapExemptElderlyDisabled,
		}
		if j.Cap != nil {
			capAmount := engine.DollarsFromFloat(*j.Cap)
			rule.Cap = &capAmount
		}
		rs.Deductions = append(rs.Deductions, rule)
	}

	for _, j := range doc.Allotments {
		meta, err := parseMeta(j.MetaJSON, doc, engine.KindAllotment)
		if err != nil {
			return nil, nil, err
		}
		rs.Allotments = append(rs.Allotments, engine.AllotmentRule{
			RuleMeta:            meta,
			MaxBenefit:          engine.DollarsFromFloat(j.MaxBenefit),
			MinBenefit:          engine.DollarsFromFloat(j.MinBenefit),
			ReductionRate:       engine.RateFromFloat(j.ReductionRate),
			PerAdditionalMember: engine.DollarsFromFloat(j.PerAdditionalMember),
			RoundToDollar:       j.RoundToDollar,
		})
	}

	for _, j := range doc.Categorical {
		meta, err := parseMeta(j.MetaJSON, doc, engine.KindCategorical)
		if err != nil {
			return nil, nil, err
		}
		cond, err := parseCondition(j.Condition)
		if err != nil {
			return nil, nil, fmt.Errorf("categorical rule %s: %w", j.ID, err)
		}
		rs.Categorical = append(rs.Categorical, engine.CategoricalRule{
			RuleMeta:  meta,
			Code:      j.Code,
			Priority:  j.Priority,
			Condition: cond,
			Bypasses: engine.TestBypass{
				GrossIncome: j.Bypasses.GrossIncome,
				NetIncome:   j.Bypasses.NetIncome,
				Assets:      j.Bypasses.Assets,
			},
		})
	}

	for _, j := range doc.AssetTests {
		meta, err := parseMeta(j.MetaJSON, doc, engine.KindAssetTest)
		if err != nil {
			return nil, nil, err
		}
		rs.AssetTests = append(rs.AssetTests, engine.AssetTestRule{
			RuleMeta:             meta,
			Limit:                engine.DollarsFromFloat(j.Limit),
			ElderlyDisabledLimit: engine.DollarsFromFloat(j.ElderlyDisabledLimit),
		})
	}

	var cfg *engine.ProgramConfig
	if doc.Config != nil {
		parsed, err := parseConfig(doc)
		if err != nil {
			return nil, nil, err
		}
		cfg = parsed
	}
	return rs, cfg, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseMeta(j MetaJSON, doc RuleSetJSON, kind engine.RuleKind) (engine.RuleMeta, error) {
	if j.ID == "" {
		return engine.RuleMeta{}, fmt.Errorf("%s record missing id", kind)
	}
	from, err := engine.ParseDate(j.EffectiveFrom)
	if err != nil {
		return engine.RuleMeta{}, fmt.Errorf("record %s: effective_from: %w", j.ID, err)
	}
	meta := engine.RuleMeta{
		ID:            engine.RuleID(j.ID),
		Jurisdiction:  doc.Jurisdiction,
		Program:       doc.Program,
		Kind:          kind,
		HouseholdSize: j.HouseholdSize,
		EffectiveFrom: from,
		Active:        true,
		Version:       j.Version,
		ApprovedBy:    j.ApprovedBy,
	}
	if j.EffectiveTo != "" {
		to, err := engine.ParseDate(j.EffectiveTo)
		if err != nil {
			return engine.RuleMeta{}, fmt.Errorf("record %s: effective_to: %w", j.ID, err)
		}
		if to.Before(from) {
			return engine.RuleMeta{}, fmt.Errorf("record %s: effective_to precedes effective_from", j.ID)
		}
		meta.EffectiveTo = &to
	}
	if j.Active != nil {
		meta.Active = *j.Active
	}
	if j.ApprovedAt != "" {
		at, err := engine.ParseDate(j.ApprovedAt)
		if err != nil {
			return engine.RuleMeta{}, fmt.Errorf("record %s: approved_at: %w", j.ID, err)
		}
		meta.ApprovedAt = at
	}
	return meta, nil
}

func parseDeductionType(s string) (engine.DeductionType, error) {
	switch engine.DeductionType(s) {
	case engine.DeductionStandard, engine.DeductionEarnedIncome,
		engine.DeductionDependentCare, engine.DeductionMedical, engine.DeductionShelter:
		return engine.DeductionType(s), nil
	default:
		return "", fmt.Errorf("unknown deduction type %q", s)
	}
}

func parseCondition(j ConditionJSON) (engine.CategoricalCondition, error) {
	switch engine.ConditionType(j.Type) {
	case engine.ConditionReceivesAid, engine.ConditionBroadBased:
		return engine.CategoricalCondition{
			Type:        engine.ConditionType(j.Type),
			AidPrograms: j.AidPrograms,
		}, nil
	default:
		return engine.CategoricalCondition{}, fmt.Errorf("unknown condition type %q", j.Type)
	}
}

func parseConfig(doc RuleSetJSON) (*engine.ProgramConfig, error) {
	cj := doc.Config
	cfg := &engine.ProgramConfig{
		Jurisdiction:              doc.Jurisdiction,
		Program:                   doc.Program,
		Name:                      cj.Name,
		AssetTestRequired:         cj.AssetTestRequired,
		BroadBasedCategorical:     cj.BroadBasedCategorical,
		RequiresDependentChildren: cj.RequiresDependentChildren,
	}
	for _, s := range cj.DeductionTypes {
		dt, err := parseDeductionType(s)
		if err != nil {
			return nil, fmt.Errorf("config deduction_types: %w", err)
		}
		cfg.DeductionTypes = append(cfg.DeductionTypes, dt)
	}
	return cfg, nil
}
