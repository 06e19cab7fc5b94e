package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/benefit-engine/engine"
)

func allotment(id string, size int, maxBenefit, minBenefit float64) *engine.AllotmentRule {
	return &engine.AllotmentRule{
		RuleMeta:            testMeta(id, engine.KindAllotment, size, "2025-10-01"),
		MaxBenefit:          engine.DollarsFromFloat(maxBenefit),
		MinBenefit:          engine.DollarsFromFloat(minBenefit),
		ReductionRate:       engine.MustRate("0.30"),
		PerAdditionalMember: engine.Dollars(220),
	}
}

func TestBenefitAmount_ReductionFormula(t *testing.T) {
	rule := allotment("al-3", 3, 768, 0)

	// max - 30% of net income: 768 - 302.10 = 465.90
	got := engine.BenefitAmount(rule, 3, engine.Dollars(1007))
	assert.Equal(t, engine.DollarsFromFloat(465.90), got)

	// Zero net income gets the full maximum.
	assert.Equal(t, engine.Dollars(768), engine.BenefitAmount(rule, 3, engine.Money{}))
}

func TestBenefitAmount_MinimumBenefitFloor(t *testing.T) {
	rule := allotment("al-1", 1, 292, 23)

	// 292 - 285 = 7, floored at the 23 minimum.
	got := engine.BenefitAmount(rule, 1, engine.Dollars(950))
	assert.Equal(t, engine.Dollars(23), got)
}

func TestBenefitAmount_NeverNegative(t *testing.T) {
	rule := allotment("al-1", 1, 292, 0)

	// 292 - 600 would be negative; with no minimum it floors at zero.
	got := engine.BenefitAmount(rule, 1, engine.Dollars(2000))
	assert.True(t, got.IsZero())
}

func TestBenefitAmount_ExtrapolatesBeyondBracket(t *testing.T) {
	// GIVEN: The largest defined bracket is size 4
	// WHEN: A size-7 household resolves to it
	// THEN: Max benefit extends by per-additional-member for each extra member

	rule := allotment("al-4", 4, 975, 0)

	// 975 + 3*220 = 1635, minus 30% of 500 = 1485.00
	got := engine.BenefitAmount(rule, 7, engine.Dollars(500))
	assert.Equal(t, engine.Dollars(1485), got)
}

func TestBenefitAmount_RoundToDollar_AfterFloor(t *testing.T) {
	rule := allotment("al-1", 1, 292, 0)
	rule.RoundToDollar = true

	// 292 - 30.17 = 261.83, rounds half-up to 262.
	got := engine.BenefitAmount(rule, 1, engine.DollarsFromFloat(100.55))
	assert.Equal(t, engine.Dollars(262), got)
}
