/*
allotment.go - Benefit amount calculation

PURPOSE:
  Converts a passed determination's net income into a monthly benefit:
  the allotment bracket's maximum benefit, reduced by the program's
  reduction rate applied to net income, floored at the bracket's
  minimum benefit and never below zero. Only invoked when every
  required test passed.

EXTRAPOLATION:
  When the household is larger than the resolved bracket (the resolver
  returned the largest defined bracket), the maximum benefit is
  extended by the per-additional-member amount for each member beyond
  the bracket size. This is a documented boundary behavior, not a
  failure mode.

ROUNDING:
  Reduction arithmetic is exact to the cent. When the rule mandates
  whole-dollar benefits, the final amount rounds to the nearest dollar,
  half-up, after the minimum-benefit floor is applied.
*/
package engine

// BenefitAmount computes the monthly benefit for a household of the
// given size with the given net income, under one allotment rule.
func BenefitAmount(rule *AllotmentRule, size int, netIncome Money) Money {
	maxBenefit := rule.MaxBenefit
	if rule.HouseholdSize > 0 && size > rule.HouseholdSize {
		extra := size - rule.HouseholdSize
		maxBenefit = maxBenefit.Add(rule.PerAdditionalMember.MulInt(extra))
	}

	benefit := maxBenefit.Sub(netIncome.MulRate(rule.ReductionRate))
	benefit = benefit.Max(rule.MinBenefit).FloorZero()
	if rule.RoundToDollar {
		benefit = benefit.RoundToDollar()
	}
	return benefit
}
