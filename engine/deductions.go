/*
deductions.go - Deduction calculation and net-income derivation

PURPOSE:
  Computes each deduction the jurisdiction's program applies and nets
  them against gross income. Returns the itemized breakdown alongside
  the total so the audit trail shows exactly how net income was derived.

ORDER OF OPERATIONS:
  The shelter deduction depends on income after all other deductions,
  so calculation is two-phase:
    1. standard, earned-income, dependent-care, medical (fixed order)
    2. adjusted income = gross - phase-1 total, floored at zero
    3. shelter = shelter+utility costs - half of adjusted income,
       capped unless the household is exempt, floored at zero
    4. net income = adjusted income - shelter, floored at zero

DEDUCTION SEMANTICS:
  standard:       fixed amount (per household size when sized records
                  exist, flat otherwise)
  earned_income:  percentage of EARNED income only; never applied to
                  unearned income; rounds half-up to the cent
  dependent_care: actual cost, up to the rule's cap when one is set
  medical:        actual cost minus the rule threshold, only for
                  households with an elderly or disabled member;
                  floored at zero
  shelter:        excess-shelter formula above; the cap does not apply
                  when the rule exempts elderly/disabled households

  Every deduction type the program config lists must resolve to an
  effective rule record (missing -> MissingRuleData), even when the
  household's figure for it is zero: the consulted record still enters
  the audit snapshot.

SEE ALSO:
  - resolver.go: Rule lookups
  - engine.go: Feeds NetIncome into the net income test
*/
package engine

// DeductionItem is one line of the itemized breakdown.
type DeductionItem struct {
	Type   DeductionType `json:"type"`
	Amount Money         `json:"amount"`
	RuleID RuleID        `json:"rule_id"`
}

// DeductionResult is the full outcome of deduction calculation.
type DeductionResult struct {
	Items     []DeductionItem `json:"items"`
	Total     Money           `json:"total"`
	NetIncome Money           `json:"net_income"`
}

// deductionOrder fixes the calculation sequence. Shelter is always
// last because it depends on income after the others.
var deductionOrder = []DeductionType{
	DeductionStandard,
	DeductionEarnedIncome,
	DeductionDependentCare,
	DeductionMedical,
	DeductionShelter,
}

// DeductionCalculator computes deductions for one household against
// one resolved rule set.
type DeductionCalculator struct {
	resolver *Resolver
	cfg      ProgramConfig
}

func NewDeductionCalculator(resolver *Resolver, cfg ProgramConfig) *DeductionCalculator {
	return &DeductionCalculator{resolver: resolver, cfg: cfg}
}

// Compute returns the itemized deductions, their total, and the
// resulting net income. Diagnostics carry any overlap tie-breaks the
// resolver performed.
func (dc *DeductionCalculator) Compute(h HouseholdSnapshot) (*DeductionResult, []OverlapDiagnostic, error) {
	gross := h.GrossIncome()
	result := &DeductionResult{}
	var diags []OverlapDiagnostic

	// Phase 1: everything except shelter.
	preShelter := Money{}
	var shelterRule *DeductionRule
	for _, dt := range deductionOrder {
		if !dc.cfg.AppliesDeduction(dt) {
			continue
		}
		rule, diag, err := dc.resolver.Deduction(dt, h.Size, h.EvaluationDate)
		if err != nil {
			return nil, diags, err
		}
		if diag != nil {
			diags = append(diags, *diag)
		}
		if dt == DeductionShelter {
			// Needs adjusted income; computed after this loop.
			shelterRule = rule
			continue
		}
		amount := dc.amountFor(dt, rule, h)
		result.Items = append(result.Items, DeductionItem{Type: dt, Amount: amount, RuleID: rule.ID})
		preShelter = preShelter.Add(amount)
	}

	// Phase 2: shelter against income after other deductions.
	adjusted := gross.Sub(preShelter).FloorZero()
	total := preShelter
	if shelterRule != nil {
		amount := shelterAmount(shelterRule, h, adjusted)
		result.Items = append(result.Items, DeductionItem{Type: DeductionShelter, Amount: amount, RuleID: shelterRule.ID})
		total = total.Add(amount)
		adjusted = adjusted.Sub(amount).FloorZero()
	}

	result.Total = total
	result.NetIncome = adjusted
	return result, diags, nil
}

func (dc *DeductionCalculator) amountFor(dt DeductionType, rule *DeductionRule, h HouseholdSnapshot) Money {
	switch dt {
	case DeductionStandard:
		return rule.Amount

	case DeductionEarnedIncome:
		return h.EarnedIncome.MulRate(rule.Percentage)

	case DeductionDependentCare:
		amount := h.DependentCareCost
		if rule.Cap != nil {
			amount = amount.Min(*rule.Cap)
		}
		return amount

	case DeductionMedical:
		if !h.HasElderlyOrDisabled() {
			return Money{}
		}
		return h.MedicalCost.Sub(rule.Threshold).FloorZero()

	default:
		return Money{}
	}
}

// shelterAmount computes the excess-shelter deduction: shelter plus
// utility costs minus half of income after other deductions, capped at
// the rule maximum unless the household is exempt, floored at zero.
func shelterAmount(rule *DeductionRule, h HouseholdSnapshot, adjustedIncome Money) Money {
	excess := h.ShelterCost.Add(h.UtilityCost).Sub(adjustedIncome.Half()).FloorZero()
	capExempt := rule.CapExemptElderlyDisabled && h.HasElderlyOrDisabled()
	if rule.Cap != nil && !capExempt {
		excess = excess.Min(*rule.Cap)
	}
	return excess
}
