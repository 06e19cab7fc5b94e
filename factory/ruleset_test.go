package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefit-engine/engine"
	"github.com/warp/benefit-engine/factory"
)

const sampleDocument = `{
	"jurisdiction": "EX",
	"program": "food_assistance",
	"config": {
		"name": "Example Food Assistance",
		"asset_test_required": true,
		"deduction_types": ["standard", "earned_income", "shelter"]
	},
	"income_limits": [
		{"id": "ex-il-3", "household_size": 3, "effective_from": "2025-10-01",
		 "gross_ceiling": 2798.00, "net_ceiling": 2152.00}
	],
	"deductions": [
		{"id": "ex-ded-std", "effective_from": "2025-10-01",
		 "type": "standard", "amount": 198.00},
		{"id": "ex-ded-earn", "effective_from": "2025-10-01",
		 "type": "earned_income", "percentage": 0.20},
		{"id": "ex-ded-shelter", "effective_from": "2025-10-01",
		 "type": "shelter", "cap": 712.00, "cap_exempt_elderly_disabled": true}
	],
	"allotments": [
		{"id": "ex-al-3", "household_size": 3, "effective_from": "2025-10-01",
		 "max_benefit": 768.00, "min_benefit": 23.00, "reduction_rate": 0.3,
		 "per_additional_member": 220.00, "round_to_dollar": true}
	],
	"categorical": [
		{"id": "ex-cat-ssi", "effective_from": "2025-10-01", "code": "SSI",
		 "priority": 10,
		 "condition": {"type": "receives_aid", "aid_programs": ["ssi"]},
		 "bypasses": {"gross_income": true, "net_income": true, "assets": true}}
	],
	"asset_tests": [
		{"id": "ex-assets", "effective_from": "2025-10-01",
		 "limit": 2750.00, "elderly_disabled_limit": 4250.00}
	]
}`

func TestParseRuleSet_CompleteDocument(t *testing.T) {
	f := factory.NewRuleSetFactory()

	rs, cfg, err := f.ParseRuleSet(sampleDocument)
	require.NoError(t, err)

	require.NotNil(t, cfg)
	assert.Equal(t, "EX", cfg.Jurisdiction)
	assert.Equal(t, "food_assistance", cfg.Program)
	assert.True(t, cfg.AssetTestRequired)
	assert.Equal(t, []engine.DeductionType{
		engine.DeductionStandard, engine.DeductionEarnedIncome, engine.DeductionShelter,
	}, cfg.DeductionTypes)

	require.Len(t, rs.IncomeLimits, 1)
	il := rs.IncomeLimits[0]
	assert.Equal(t, engine.RuleID("ex-il-3"), il.ID)
	assert.Equal(t, engine.KindIncomeLimit, il.Kind)
	assert.Equal(t, 3, il.HouseholdSize)
	assert.Equal(t, int64(279800), il.GrossCeiling.Cents())
	assert.True(t, il.Active) // omitted active defaults to true
	assert.Nil(t, il.EffectiveTo)

	require.Len(t, rs.Deductions, 3)
	shelter := rs.Deductions[2]
	assert.Equal(t, engine.DeductionShelter, shelter.DeductionType)
	require.NotNil(t, shelter.Cap)
	assert.Equal(t, int64(71200), shelter.Cap.Cents())
	assert.True(t, shelter.CapExemptElderlyDisabled)

	require.Len(t, rs.Allotments, 1)
	al := rs.Allotments[0]
	assert.Equal(t, int64(76800), al.MaxBenefit.Cents())
	assert.True(t, al.RoundToDollar)

	require.Len(t, rs.Categorical, 1)
	cat := rs.Categorical[0]
	assert.Equal(t, "SSI", cat.Code)
	assert.Equal(t, engine.ConditionReceivesAid, cat.Condition.Type)
	assert.True(t, cat.Bypasses.Assets)

	require.Len(t, rs.AssetTests, 1)
	assert.Equal(t, int64(425000), rs.AssetTests[0].ElderlyDisabledLimit.Cents())
}

func TestParseRuleSet_EffectiveWindow(t *testing.T) {
	f := factory.NewRuleSetFactory()
	inactive := false

	rs, _, err := f.FromJSON(factory.RuleSetJSON{
		Jurisdiction: "EX",
		Program:      "food_assistance",
		IncomeLimits: []factory.IncomeLimitJSON{{
			MetaJSON: factory.MetaJSON{
				ID:            "ex-il-closed",
				EffectiveFrom: "2025-01-01",
				EffectiveTo:   "2025-09-30",
				Active:        &inactive,
			},
			GrossCeiling: 1900,
			NetCeiling:   1050,
		}},
	})
	require.NoError(t, err)

	il := rs.IncomeLimits[0]
	require.NotNil(t, il.EffectiveTo)
	assert.Equal(t, "2025-09-30", il.EffectiveTo.String())
	assert.False(t, il.Active)
}

func TestParseRuleSet_Rejections(t *testing.T) {
	f := factory.NewRuleSetFactory()

	tests := []struct {
		name string
		doc  factory.RuleSetJSON
	}{
		{
			name: "missing jurisdiction",
			doc:  factory.RuleSetJSON{Program: "food_assistance"},
		},
		{
			name: "missing record id",
			doc: factory.RuleSetJSON{
				Jurisdiction: "EX", Program: "food_assistance",
				IncomeLimits: []factory.IncomeLimitJSON{{
					MetaJSON: factory.MetaJSON{EffectiveFrom: "2025-10-01"},
				}},
			},
		},
		{
			name: "malformed effective date",
			doc: factory.RuleSetJSON{
				Jurisdiction: "EX", Program: "food_assistance",
				IncomeLimits: []factory.IncomeLimitJSON{{
					MetaJSON: factory.MetaJSON{ID: "x", EffectiveFrom: "10/01/2025"},
				}},
			},
		},
		{
			name: "window ends before it starts",
			doc: factory.RuleSetJSON{
				Jurisdiction: "EX", Program: "food_assistance",
				IncomeLimits: []factory.IncomeLimitJSON{{
					MetaJSON: factory.MetaJSON{ID: "x", EffectiveFrom: "2025-10-01", EffectiveTo: "2025-01-01"},
				}},
			},
		},
		{
			name: "unknown deduction type",
			doc: factory.RuleSetJSON{
				Jurisdiction: "EX", Program: "food_assistance",
				Deductions: []factory.DeductionJSON{{
					MetaJSON: factory.MetaJSON{ID: "x", EffectiveFrom: "2025-10-01"},
					Type:     "mystery",
				}},
			},
		},
		{
			name: "unknown condition type",
			doc: factory.RuleSetJSON{
				Jurisdiction: "EX", Program: "food_assistance",
				Categorical: []factory.CategoricalJSON{{
					MetaJSON:  factory.MetaJSON{ID: "x", EffectiveFrom: "2025-10-01"},
					Code:      "X",
					Condition: factory.ConditionJSON{Type: "astrology"},
				}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.FromJSON(tt.doc)
			assert.Error(t, err)
		})
	}
}

func TestParseRuleSet_InvalidJSON(t *testing.T) {
	_, _, err := factory.NewRuleSetFactory().ParseRuleSet("{not json")
	assert.Error(t, err)
}
