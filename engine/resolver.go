/*
resolver.go - Rule version resolution by effective date

PURPOSE:
  Given a loaded RuleSet, selects the single rule record whose effective
  window contains the evaluation date for each lookup the pipeline
  performs. The resolver never extrapolates: an evaluation date outside
  every record's window is MissingRuleData, not a fallback to the
  nearest record.

SELECTION:
  1. Filter to active records covering the date and household size.
  2. Exact-size records take precedence over any-size (size 0) records.
     That layering is intentional configuration, not an overlap.
  3. Within the winning precedence tier, if more than one record claims
     the date (a data-entry race), the tie-break is deterministic:
     latest EffectiveFrom wins, ties broken by ascending RuleID. The
     event is reported as an OverlapDiagnostic for administrative
     cleanup; it does not block the determination.

ALLOTMENT EXTRAPOLATION:
  Allotment tables are bracketed by household size. A household larger
  than the largest defined bracket resolves to that largest bracket;
  the benefit calculator extends it with the per-additional-member
  amount. Any other unmatched size, including a gap between defined
  brackets, is MissingRuleData.

SEE ALSO:
  - rules.go: Record kinds and effective windows
  - errors.go: MissingRuleDataError, OverlapDiagnostic
*/
package engine

import "sort"

// Resolver selects effective rule records from one immutable RuleSet.
type Resolver struct {
	rules *RuleSet
}

func NewResolver(rules *RuleSet) *Resolver {
	return &Resolver{rules: rules}
}

// =============================================================================
// GENERIC SELECTION
// =============================================================================

type ruleRecord interface {
	Meta() RuleMeta
}

// selectEffective picks the single effective record for (size, asOf).
// Returns nil when no record covers the date. The diagnostic is non-nil
// when the tie-break had to choose between ambiguous records.
func selectEffective[T ruleRecord](records []T, size int, asOf Date) (*T, *OverlapDiagnostic) {
	var exact, anySize []T
	for _, r := range records {
		m := r.Meta()
		if !m.Active || !m.CoversDate(asOf) || !m.CoversSize(size) {
			continue
		}
		if m.HouseholdSize == size {
			exact = append(exact, r)
		} else {
			anySize = append(anySize, r)
		}
	}

	tier := exact
	if len(tier) == 0 {
		tier = anySize
	}
	if len(tier) == 0 {
		return nil, nil
	}

	sort.Slice(tier, func(i, j int) bool {
		mi, mj := tier[i].Meta(), tier[j].Meta()
		if !mi.EffectiveFrom.Equal(mj.EffectiveFrom) {
			return mi.EffectiveFrom.After(mj.EffectiveFrom)
		}
		return mi.ID < mj.ID
	})

	chosen := tier[0]
	if len(tier) > 1 {
		return &chosen, &OverlapDiagnostic{
			Kind:     chosen.Meta().Kind,
			ChosenID: chosen.Meta().ID,
			OtherID:  tier[1].Meta().ID,
			Date:     asOf,
		}
	}
	return &chosen, nil
}

// =============================================================================
// PER-KIND LOOKUPS
// =============================================================================

func (r *Resolver) missing(kind RuleKind, dt DeductionType, size int, asOf Date) error {
	return &MissingRuleDataError{
		Jurisdiction:  r.rules.Jurisdiction,
		Program:       r.rules.Program,
		Kind:          kind,
		DeductionType: dt,
		HouseholdSize: size,
		Date:          asOf,
	}
}

// IncomeLimit resolves the income-limit record for a household size.
func (r *Resolver) IncomeLimit(size int, asOf Date) (*IncomeLimitRule, *OverlapDiagnostic, error) {
	rec, diag := selectEffective(r.rules.IncomeLimits, size, asOf)
	if rec == nil {
		return nil, nil, r.missing(KindIncomeLimit, "", size, asOf)
	}
	return rec, diag, nil
}

// Deduction resolves the rule for one deduction type.
func (r *Resolver) Deduction(dt DeductionType, size int, asOf Date) (*DeductionRule, *OverlapDiagnostic, error) {
	var ofType []DeductionRule
	for _, d := range r.rules.Deductions {
		if d.DeductionType == dt {
			ofType = append(ofType, d)
		}
	}
	rec, diag := selectEffective(ofType, size, asOf)
	if rec == nil {
		return nil, nil, r.missing(KindDeduction, dt, size, asOf)
	}
	return rec, diag, nil
}

// AssetTest resolves the asset-test record.
func (r *Resolver) AssetTest(size int, asOf Date) (*AssetTestRule, *OverlapDiagnostic, error) {
	rec, diag := selectEffective(r.rules.AssetTests, size, asOf)
	if rec == nil {
		return nil, nil, r.missing(KindAssetTest, "", size, asOf)
	}
	return rec, diag, nil
}

// Allotment resolves the allotment bracket for a household size. When
// the size exceeds the largest defined bracket, the largest bracket is
// returned and the caller extrapolates with PerAdditionalMember.
func (r *Resolver) Allotment(size int, asOf Date) (*AllotmentRule, *OverlapDiagnostic, error) {
	if rec, diag := selectEffective(r.rules.Allotments, size, asOf); rec != nil {
		return rec, diag, nil
	}

	// No exact bracket. The fallback only extends the table upward: a
	// size beyond the largest defined bracket resolves to that bracket,
	// while an unmatched size inside the table's range is a gap in the
	// data and stays MissingRuleData.
	maxBracket := 0
	for _, a := range r.rules.Allotments {
		if a.Active && a.CoversDate(asOf) && a.HouseholdSize > maxBracket {
			maxBracket = a.HouseholdSize
		}
	}
	if maxBracket == 0 || size < maxBracket {
		return nil, nil, r.missing(KindAllotment, "", size, asOf)
	}
	rec, diag := selectEffective(r.rules.Allotments, maxBracket, asOf)
	if rec == nil {
		return nil, nil, r.missing(KindAllotment, "", size, asOf)
	}
	return rec, diag, nil
}

// CategoricalRules returns every effective categorical rule in priority
// order (ascending Priority, ties by RuleID). Categorical rules are not
// sized; matching happens against the household in categorical.go.
func (r *Resolver) CategoricalRules(asOf Date) []CategoricalRule {
	var out []CategoricalRule
	for _, c := range r.rules.Categorical {
		if c.Active && c.CoversDate(asOf) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}
