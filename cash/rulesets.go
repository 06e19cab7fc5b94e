/*
Package cash provides pre-built rule-set documents for cash-assistance
programs.

PURPOSE:
  Cash assistance differs from food assistance in shape, not in engine
  code: the program requires dependent children (or a pregnant member's
  jurisdictional equivalent is handled by policy, not here), applies a
  flat payment standard per household size with no per-additional-
  member extrapolation, uses fewer deductions, and keeps its own asset
  limit. Figures are illustrative defaults for demos and tests.

SEE ALSO:
  - snap/: Food-assistance counterpart
  - factory/ruleset.go: Document schema
*/
package cash

import (
	"fmt"

	"github.com/warp/benefit-engine/factory"
)

// Program is the program code cash-assistance rule sets use.
const Program = "cash_assistance"

type sizedRow struct {
	size       int
	gross, net float64
	payment    float64
}

// Illustrative payment-standard table for sizes 1-6.
var brackets = []sizedRow{
	{1, 932.00, 466.00, 388.00},
	{2, 1261.00, 631.00, 516.00},
	{3, 1590.00, 795.00, 644.00},
	{4, 1919.00, 960.00, 772.00},
	{5, 2248.00, 1124.00, 900.00},
	{6, 2577.00, 1289.00, 1028.00},
}

const (
	earnedIncomeRate = 0.50 // work-incentive disregard
	assetLimit       = 1000.00
	reductionRate    = 1.00 // payment standard minus countable net income
)

// StandardRuleSet returns a complete cash-assistance rule-set document.
// Households without dependent children are ineligible by prerequisite.
func StandardRuleSet(jurisdiction, effectiveFrom string) factory.RuleSetJSON {
	doc := factory.RuleSetJSON{
		Jurisdiction: jurisdiction,
		Program:      Program,
		Config: &factory.ConfigJSON{
			Name:                      "Cash Assistance",
			AssetTestRequired:         true,
			RequiresDependentChildren: true,
			DeductionTypes:            []string{"earned_income", "dependent_care"},
		},
	}

	for _, b := range brackets {
		doc.IncomeLimits = append(doc.IncomeLimits, factory.IncomeLimitJSON{
			MetaJSON: factory.MetaJSON{
				ID:            fmt.Sprintf("%s-cash-il-%d", jurisdiction, b.size),
				HouseholdSize: b.size,
				EffectiveFrom: effectiveFrom,
			},
			GrossCeiling: b.gross,
			NetCeiling:   b.net,
		})
		doc.Allotments = append(doc.Allotments, factory.AllotmentJSON{
			MetaJSON: factory.MetaJSON{
				ID:            fmt.Sprintf("%s-cash-al-%d", jurisdiction, b.size),
				HouseholdSize: b.size,
				EffectiveFrom: effectiveFrom,
			},
			MaxBenefit:    b.payment,
			ReductionRate: reductionRate,
			RoundToDollar: true,
		})
	}

	depCareCap := 200.00
	doc.Deductions = []factory.DeductionJSON{
		{
			MetaJSON:   factory.MetaJSON{ID: fmt.Sprintf("%s-cash-ded-earned", jurisdiction), EffectiveFrom: effectiveFrom},
			Type:       "earned_income",
			Percentage: earnedIncomeRate,
		},
		{
			MetaJSON: factory.MetaJSON{ID: fmt.Sprintf("%s-cash-ded-depcare", jurisdiction), EffectiveFrom: effectiveFrom},
			Type:     "dependent_care",
			Cap:      &depCareCap,
		},
	}

	doc.AssetTests = []factory.AssetTestJSON{
		{
			MetaJSON: factory.MetaJSON{ID: fmt.Sprintf("%s-cash-assets", jurisdiction), EffectiveFrom: effectiveFrom},
			Limit:    assetLimit,
		},
	}

	return doc
}
