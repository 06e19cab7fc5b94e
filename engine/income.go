/*
income.go - Gross and net income tests, asset test

PURPOSE:
  The standard tests compare a household figure against a resolved
  ceiling. Ceilings are inclusive: a figure exactly at the ceiling
  passes, one cent over fails. A test can be bypassed by categorical
  eligibility or (for assets) waived by the jurisdiction's config; the
  outcome records which, so an auditor can see a test was skipped
  deliberately rather than absent.
*/
package engine

// TestOutcome is the result of one standard test.
type TestOutcome string

const (
	TestPassed  TestOutcome = "passed"
	TestFailed  TestOutcome = "failed"
	TestSkipped TestOutcome = "skipped"
)

// TestResult captures one test's outcome for the audit trail.
type TestResult struct {
	Outcome  TestOutcome `json:"outcome"`
	Compared Money       `json:"compared"`
	Limit    Money       `json:"limit"`
	RuleID   RuleID      `json:"rule_id,omitempty"`

	// BypassedBy is the categorical code that waived the test. Empty on
	// an applied test, and on a test the jurisdiction does not require.
	BypassedBy string `json:"bypassed_by,omitempty"`
}

// evaluateCeiling applies an inclusive-ceiling comparison.
func evaluateCeiling(compared, limit Money, ruleID RuleID) TestResult {
	outcome := TestPassed
	if compared.GreaterThan(limit) {
		outcome = TestFailed
	}
	return TestResult{Outcome: outcome, Compared: compared, Limit: limit, RuleID: ruleID}
}

// skippedTest records a deliberately skipped test. bypassedBy is empty
// when the jurisdiction simply does not apply the test.
func skippedTest(compared Money, ruleID RuleID, bypassedBy string) TestResult {
	return TestResult{Outcome: TestSkipped, Compared: compared, RuleID: ruleID, BypassedBy: bypassedBy}
}

// assetLimitFor picks the ceiling variant for the household: the
// elderly/disabled limit applies when set and the household qualifies.
func assetLimitFor(rule *AssetTestRule, h HouseholdSnapshot) Money {
	if h.HasElderlyOrDisabled() && !rule.ElderlyDisabledLimit.IsZero() {
		return rule.ElderlyDisabledLimit
	}
	return rule.Limit
}
