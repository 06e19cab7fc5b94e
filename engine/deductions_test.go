package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefit-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func deduction(id string, dt engine.DeductionType) engine.DeductionRule {
	return engine.DeductionRule{
		RuleMeta:      testMeta(id, engine.KindDeduction, 0, "2025-10-01"),
		DeductionType: dt,
	}
}

func deductionRules(rules ...engine.DeductionRule) *engine.Resolver {
	return engine.NewResolver(&engine.RuleSet{
		Jurisdiction: "EX", Program: "food_assistance",
		Deductions: rules,
	})
}

func configWith(types ...engine.DeductionType) engine.ProgramConfig {
	return engine.ProgramConfig{
		Jurisdiction:   "EX",
		Program:        "food_assistance",
		DeductionTypes: types,
	}
}

func baseHousehold() engine.HouseholdSnapshot {
	return engine.HouseholdSnapshot{
		Size:           3,
		ChildrenCount:  1,
		Jurisdiction:   "EX",
		Program:        "food_assistance",
		EvaluationDate: engine.MustDate("2025-11-01"),
	}
}

func itemAmount(t *testing.T, result *engine.DeductionResult, dt engine.DeductionType) engine.Money {
	t.Helper()
	for _, item := range result.Items {
		if item.Type == dt {
			return item.Amount
		}
	}
	t.Fatalf("no %s item in %+v", dt, result.Items)
	return engine.Money{}
}

// =============================================================================
// PER-TYPE SEMANTICS
// =============================================================================

func TestDeductions_StandardIsFixedAmount(t *testing.T) {
	std := deduction("ded-std", engine.DeductionStandard)
	std.Amount = engine.Dollars(193)

	h := baseHousehold()
	h.EarnedIncome = engine.Dollars(1500)

	calc := engine.NewDeductionCalculator(deductionRules(std), configWith(engine.DeductionStandard))
	result, _, err := calc.Compute(h)
	require.NoError(t, err)

	assert.Equal(t, engine.Dollars(193), itemAmount(t, result, engine.DeductionStandard))
	assert.Equal(t, engine.Dollars(1307), result.NetIncome)
}

func TestDeductions_EarnedIncome_AppliesToEarnedOnly(t *testing.T) {
	// GIVEN: 20% earned-income deduction, income split earned/unearned
	// WHEN: Computing deductions
	// THEN: The percentage applies to the earned portion only

	earn := deduction("ded-earn", engine.DeductionEarnedIncome)
	earn.Percentage = engine.MustRate("0.20")

	h := baseHousehold()
	h.EarnedIncome = engine.Dollars(1000)
	h.UnearnedIncome = engine.Dollars(500)

	calc := engine.NewDeductionCalculator(deductionRules(earn), configWith(engine.DeductionEarnedIncome))
	result, _, err := calc.Compute(h)
	require.NoError(t, err)

	assert.Equal(t, engine.Dollars(200), itemAmount(t, result, engine.DeductionEarnedIncome))
	assert.Equal(t, engine.Dollars(1300), result.NetIncome)
}

func TestDeductions_DependentCare_CappedAtRuleCap(t *testing.T) {
	capAmount := engine.Dollars(200)
	dep := deduction("ded-dep", engine.DeductionDependentCare)
	dep.Cap = &capAmount

	h := baseHousehold()
	h.UnearnedIncome = engine.Dollars(1000)
	h.DependentCareCost = engine.Dollars(300)

	calc := engine.NewDeductionCalculator(deductionRules(dep), configWith(engine.DeductionDependentCare))
	result, _, err := calc.Compute(h)
	require.NoError(t, err)
	assert.Equal(t, capAmount, itemAmount(t, result, engine.DeductionDependentCare))

	// Below the cap: actual cost.
	h.DependentCareCost = engine.Dollars(150)
	result, _, err = calc.Compute(h)
	require.NoError(t, err)
	assert.Equal(t, engine.Dollars(150), itemAmount(t, result, engine.DeductionDependentCare))
}

func TestDeductions_Medical_ElderlyDisabledOnly_AboveThreshold(t *testing.T) {
	med := deduction("ded-med", engine.DeductionMedical)
	med.Threshold = engine.Dollars(35)

	h := baseHousehold()
	h.UnearnedIncome = engine.Dollars(1000)
	h.MedicalCost = engine.Dollars(135)

	calc := engine.NewDeductionCalculator(deductionRules(med), configWith(engine.DeductionMedical))

	// No elderly or disabled member: nothing deducted.
	result, _, err := calc.Compute(h)
	require.NoError(t, err)
	assert.True(t, itemAmount(t, result, engine.DeductionMedical).IsZero())

	// Elderly member: cost above the threshold.
	h.HasElderly = true
	result, _, err = calc.Compute(h)
	require.NoError(t, err)
	assert.Equal(t, engine.Dollars(100), itemAmount(t, result, engine.DeductionMedical))

	// Cost under the threshold floors at zero, never negative.
	h.MedicalCost = engine.Dollars(20)
	result, _, err = calc.Compute(h)
	require.NoError(t, err)
	assert.True(t, itemAmount(t, result, engine.DeductionMedical).IsZero())
}

// =============================================================================
// SHELTER - Excess-shelter formula against post-deduction income
// =============================================================================

func TestDeductions_Shelter_ExcessOverHalfAdjustedIncome(t *testing.T) {
	// GIVEN: $1,000 gross, $100 standard, $800 shelter + $100 utilities,
	//        cap $400
	// WHEN: Computing deductions
	// THEN: adjusted = 900, excess = 900 - 450 = 450, capped at 400,
	//       net = 900 - 400 = 500

	std := deduction("ded-std", engine.DeductionStandard)
	std.Amount = engine.Dollars(100)
	shelterCap := engine.Dollars(400)
	shelter := deduction("ded-shelter", engine.DeductionShelter)
	shelter.Cap = &shelterCap
	shelter.CapExemptElderlyDisabled = true

	h := baseHousehold()
	h.UnearnedIncome = engine.Dollars(1000)
	h.ShelterCost = engine.Dollars(800)
	h.UtilityCost = engine.Dollars(100)

	calc := engine.NewDeductionCalculator(
		deductionRules(std, shelter),
		configWith(engine.DeductionStandard, engine.DeductionShelter))

	result, _, err := calc.Compute(h)
	require.NoError(t, err)
	assert.Equal(t, engine.Dollars(400), itemAmount(t, result, engine.DeductionShelter))
	assert.Equal(t, engine.Dollars(500), result.NetIncome)

	// Elderly household is exempt from the cap: full 450 applies.
	h.HasElderly = true
	result, _, err = calc.Compute(h)
	require.NoError(t, err)
	assert.Equal(t, engine.Dollars(450), itemAmount(t, result, engine.DeductionShelter))
	assert.Equal(t, engine.Dollars(450), result.NetIncome)
}

func TestDeductions_Shelter_FloorsAtZero(t *testing.T) {
	shelter := deduction("ded-shelter", engine.DeductionShelter)

	h := baseHousehold()
	h.UnearnedIncome = engine.Dollars(2000)
	h.ShelterCost = engine.Dollars(300) // well under half of income

	calc := engine.NewDeductionCalculator(deductionRules(shelter), configWith(engine.DeductionShelter))
	result, _, err := calc.Compute(h)
	require.NoError(t, err)
	assert.True(t, itemAmount(t, result, engine.DeductionShelter).IsZero())
	assert.Equal(t, engine.Dollars(2000), result.NetIncome)
}

// =============================================================================
// RESOLUTION REQUIREMENTS
// =============================================================================

func TestDeductions_ConfiguredTypeMustResolve_EvenWhenFigureIsZero(t *testing.T) {
	// The program applies dependent care but no rule record exists. The
	// household claims no dependent-care cost; the lookup still fails,
	// because the consulted record belongs in the audit snapshot.
	calc := engine.NewDeductionCalculator(
		deductionRules(),
		configWith(engine.DeductionDependentCare))

	_, _, err := calc.Compute(baseHousehold())
	require.Error(t, err)
	assert.True(t, engine.IsMissingRuleData(err))
}

func TestDeductions_UnconfiguredTypesAreNotConsulted(t *testing.T) {
	// Only standard is configured; the absence of every other rule
	// record is irrelevant.
	std := deduction("ded-std", engine.DeductionStandard)
	std.Amount = engine.Dollars(193)

	calc := engine.NewDeductionCalculator(deductionRules(std), configWith(engine.DeductionStandard))
	result, _, err := calc.Compute(baseHousehold())
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}

func TestDeductions_NetIncomeNeverNegative(t *testing.T) {
	std := deduction("ded-std", engine.DeductionStandard)
	std.Amount = engine.Dollars(193)

	h := baseHousehold()
	h.UnearnedIncome = engine.Dollars(50) // less than the deduction

	calc := engine.NewDeductionCalculator(deductionRules(std), configWith(engine.DeductionStandard))
	result, _, err := calc.Compute(h)
	require.NoError(t, err)
	assert.True(t, result.NetIncome.IsZero())
}
