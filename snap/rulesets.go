/*
Package snap provides pre-built rule-set documents for food-assistance
programs.

PURPOSE:
  Ready-to-load rule-set documents in the shape real food-assistance
  policy takes: bracketed income limits and allotment tables, the five
  standard deductions, SSI/cash-aid categorical eligibility, and an
  asset test with an elderly/disabled variant. The figures are
  illustrative defaults for demos and tests - production deployments
  load their jurisdiction's adopted figures from the governing program
  manual, never from this package.

VARIANTS:
  StandardRuleSet:   All three tests apply; categorical eligibility
                     limited to households already on SSI or cash aid.
  BroadBasedRuleSet: Broad-based categorical eligibility enabled; the
                     asset test is waived universally through a
                     broad_based rule.

SEE ALSO:
  - factory/ruleset.go: Document schema and parsing
  - cash/: Cash-assistance counterpart
*/
package snap

import (
	"fmt"

	"github.com/warp/benefit-engine/factory"
)

// Program is the program code food-assistance rule sets use.
const Program = "food_assistance"

// sizedRow is one household-size bracket of the limit/allotment tables.
type sizedRow struct {
	size       int
	gross, net float64 // monthly income ceilings
	maxBenefit float64
}

// Illustrative bracket table for sizes 1-8. Gross ceilings track 130%
// of the poverty guideline, net ceilings 100%, in the usual pattern.
var brackets = []sizedRow{
	{1, 1632.00, 1255.00, 292.00},
	{2, 2215.00, 1704.00, 536.00},
	{3, 2798.00, 2152.00, 768.00},
	{4, 3380.00, 2600.00, 975.00},
	{5, 3963.00, 3049.00, 1158.00},
	{6, 4546.00, 3497.00, 1390.00},
	{7, 5129.00, 3945.00, 1536.00},
	{8, 5712.00, 4394.00, 1756.00},
}

const (
	perAdditionalMember = 220.00
	minBenefit          = 23.00
	reductionRate       = 0.30
	standardDeduction   = 198.00
	earnedIncomeRate    = 0.20
	shelterCap          = 712.00
	medicalThreshold    = 35.00
	assetLimit          = 2750.00
	assetLimitElderly   = 4250.00
)

// StandardRuleSet returns a complete food-assistance rule-set document
// for a jurisdiction that applies all three tests.
func StandardRuleSet(jurisdiction, effectiveFrom string) factory.RuleSetJSON {
	doc := baseRuleSet(jurisdiction, effectiveFrom)
	doc.Config = &factory.ConfigJSON{
		Name:              "Food Assistance (standard)",
		AssetTestRequired: true,
		DeductionTypes: []string{
			"standard", "earned_income", "dependent_care", "medical", "shelter",
		},
	}
	return doc
}

// BroadBasedRuleSet returns the broad-based categorical-eligibility
// variant: every household qualifies categorically and the asset test
// is waived through the BBCE rule.
func BroadBasedRuleSet(jurisdiction, effectiveFrom string) factory.RuleSetJSON {
	doc := baseRuleSet(jurisdiction, effectiveFrom)
	doc.Config = &factory.ConfigJSON{
		Name:                  "Food Assistance (broad-based categorical eligibility)",
		AssetTestRequired:     true, // waived per household by the BBCE rule below
		BroadBasedCategorical: true,
		DeductionTypes: []string{
			"standard", "earned_income", "dependent_care", "medical", "shelter",
		},
	}
	doc.Categorical = append(doc.Categorical, factory.CategoricalJSON{
		MetaJSON: factory.MetaJSON{
			ID:            fmt.Sprintf("%s-snap-cat-bbce", jurisdiction),
			EffectiveFrom: effectiveFrom,
		},
		Code:      "BBCE",
		Priority:  100, // broad rule loses to the specific SSI rule
		Condition: factory.ConditionJSON{Type: "broad_based"},
		Bypasses:  factory.BypassJSON{Assets: true},
	})
	return doc
}

func baseRuleSet(jurisdiction, effectiveFrom string) factory.RuleSetJSON {
	doc := factory.RuleSetJSON{
		Jurisdiction: jurisdiction,
		Program:      Program,
	}

	for _, b := range brackets {
		doc.IncomeLimits = append(doc.IncomeLimits, factory.IncomeLimitJSON{
			MetaJSON: factory.MetaJSON{
				ID:            fmt.Sprintf("%s-snap-il-%d", jurisdiction, b.size),
				HouseholdSize: b.size,
				EffectiveFrom: effectiveFrom,
			},
			GrossCeiling: b.gross,
			NetCeiling:   b.net,
		})
		doc.Allotments = append(doc.Allotments, factory.AllotmentJSON{
			MetaJSON: factory.MetaJSON{
				ID:            fmt.Sprintf("%s-snap-al-%d", jurisdiction, b.size),
				HouseholdSize: b.size,
				EffectiveFrom: effectiveFrom,
			},
			MaxBenefit:          b.maxBenefit,
			MinBenefit:          minBenefit,
			ReductionRate:       reductionRate,
			PerAdditionalMember: perAdditionalMember,
			RoundToDollar:       true,
		})
	}

	capAmount := shelterCap
	doc.Deductions = []factory.DeductionJSON{
		{
			MetaJSON: factory.MetaJSON{ID: fmt.Sprintf("%s-snap-ded-std", jurisdiction), EffectiveFrom: effectiveFrom},
			Type:     "standard",
			Amount:   standardDeduction,
		},
		{
			MetaJSON:   factory.MetaJSON{ID: fmt.Sprintf("%s-snap-ded-earned", jurisdiction), EffectiveFrom: effectiveFrom},
			Type:       "earned_income",
			Percentage: earnedIncomeRate,
		},
		{
			MetaJSON: factory.MetaJSON{ID: fmt.Sprintf("%s-snap-ded-depcare", jurisdiction), EffectiveFrom: effectiveFrom},
			Type:     "dependent_care",
		},
		{
			MetaJSON:  factory.MetaJSON{ID: fmt.Sprintf("%s-snap-ded-medical", jurisdiction), EffectiveFrom: effectiveFrom},
			Type:      "medical",
			Threshold: medicalThreshold,
		},
		{
			MetaJSON:                 factory.MetaJSON{ID: fmt.Sprintf("%s-snap-ded-shelter", jurisdiction), EffectiveFrom: effectiveFrom},
			Type:                     "shelter",
			Cap:                      &capAmount,
			CapExemptElderlyDisabled: true,
		},
	}

	doc.Categorical = []factory.CategoricalJSON{
		{
			MetaJSON: factory.MetaJSON{
				ID:            fmt.Sprintf("%s-snap-cat-ssi", jurisdiction),
				EffectiveFrom: effectiveFrom,
			},
			Code:      "SSI",
			Priority:  10,
			Condition: factory.ConditionJSON{Type: "receives_aid", AidPrograms: []string{"ssi"}},
			Bypasses:  factory.BypassJSON{GrossIncome: true, NetIncome: true, Assets: true},
		},
		{
			MetaJSON: factory.MetaJSON{
				ID:            fmt.Sprintf("%s-snap-cat-cash", jurisdiction),
				EffectiveFrom: effectiveFrom,
			},
			Code:      "CASH_AID",
			Priority:  20,
			Condition: factory.ConditionJSON{Type: "receives_aid", AidPrograms: []string{"tanf", "ga"}},
			Bypasses:  factory.BypassJSON{GrossIncome: true, Assets: true},
		},
	}

	doc.AssetTests = []factory.AssetTestJSON{
		{
			MetaJSON:             factory.MetaJSON{ID: fmt.Sprintf("%s-snap-assets", jurisdiction), EffectiveFrom: effectiveFrom},
			Limit:                assetLimit,
			ElderlyDisabledLimit: assetLimitElderly,
		},
	}

	return doc
}
