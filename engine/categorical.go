/*
categorical.go - Categorical-eligibility resolution

PURPOSE:
  A household that already qualifies under a related program (SSI, cash
  assistance) or under a jurisdiction's broad-based policy may skip one
  or more standard tests. Rules are evaluated in a fixed priority order
  so a specific category takes precedence over a broad one; the first
  matching rule wins and its bypass set applies. No match means no
  bypass - never an error.
*/
package engine

// CategoricalResult is the outcome of categorical resolution: the
// matched rule (nil when none matched) and the tests it bypasses.
type CategoricalResult struct {
	Rule   *CategoricalRule
	Bypass TestBypass
}

// Code returns the matched category code, or "" when no rule matched.
func (r CategoricalResult) Code() string {
	if r.Rule == nil {
		return ""
	}
	return r.Rule.Code
}

// Matches reports whether the condition applies to the household under
// the jurisdiction's configuration.
func (c CategoricalCondition) Matches(h HouseholdSnapshot, cfg ProgramConfig) bool {
	switch c.Type {
	case ConditionReceivesAid:
		return h.ReceivesAid(c.AidPrograms)
	case ConditionBroadBased:
		return cfg.BroadBasedCategorical
	default:
		return false
	}
}

// ResolveCategorical returns the first matching rule in priority order.
// The rules argument must already be priority-sorted (Resolver.
// CategoricalRules does this).
func ResolveCategorical(h HouseholdSnapshot, cfg ProgramConfig, rules []CategoricalRule) CategoricalResult {
	for i := range rules {
		if rules[i].Condition.Matches(h, cfg) {
			return CategoricalResult{Rule: &rules[i], Bypass: rules[i].Bypasses}
		}
	}
	return CategoricalResult{}
}
