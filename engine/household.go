/*
household.go - Household snapshot (the immutable input to a determination)

PURPOSE:
  A HouseholdSnapshot is the point-in-time facts about an applicant
  household: composition, monthly income split earned/unearned, assets,
  itemized expenses, and special statuses. The engine never mutates or
  persists a snapshot; the caller owns it. Validation happens before any
  rule lookup so malformed input never reaches the rule store.

SEE ALSO:
  - engine.go: Evaluate() validates then runs the pipeline
  - errors.go: InvalidInputError
*/
package engine

// HouseholdSnapshot is the immutable input to one determination.
type HouseholdSnapshot struct {
	// Composition
	Size          int  `json:"size"`
	ChildrenCount int  `json:"children_count"`
	HasElderly    bool `json:"has_elderly"`
	HasDisabled   bool `json:"has_disabled"`
	IsPregnant    bool `json:"is_pregnant"`

	// Monthly income, split so the earned-income deduction applies only
	// to the earned portion.
	EarnedIncome   Money `json:"earned_income"`
	UnearnedIncome Money `json:"unearned_income"`

	// Total countable assets.
	Assets Money `json:"assets"`

	// Itemized monthly expenses.
	ShelterCost       Money `json:"shelter_cost"`
	UtilityCost       Money `json:"utility_cost"`
	DependentCareCost Money `json:"dependent_care_cost"`
	MedicalCost       Money `json:"medical_cost"`

	// Aid programs the household already receives (e.g. "ssi", "tanf"),
	// consulted by categorical-eligibility rules.
	AidPrograms []string `json:"aid_programs,omitempty"`

	// Scope
	Jurisdiction   string `json:"jurisdiction"`
	Program        string `json:"program"`
	EvaluationDate Date   `json:"evaluation_date"`
}

// GrossIncome is earned plus unearned monthly income.
func (h HouseholdSnapshot) GrossIncome() Money {
	return h.EarnedIncome.Add(h.UnearnedIncome)
}

// HasElderlyOrDisabled gates the medical deduction and the shelter-cap
// exemption.
func (h HouseholdSnapshot) HasElderlyOrDisabled() bool {
	return h.HasElderly || h.HasDisabled
}

// ReceivesAid reports whether the household receives one of the listed
// aid programs. An empty list matches any reported aid.
func (h HouseholdSnapshot) ReceivesAid(programs []string) bool {
	if len(h.AidPrograms) == 0 {
		return false
	}
	if len(programs) == 0 {
		return true
	}
	for _, want := range programs {
		for _, have := range h.AidPrograms {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Validate checks the snapshot before any rule lookup. Violations are
// InvalidInput: caller errors, never retried.
func (h HouseholdSnapshot) Validate() error {
	if h.Size < 1 {
		return &InvalidInputError{Field: "size", Reason: "household size must be at least 1"}
	}
	if h.ChildrenCount < 0 {
		return &InvalidInputError{Field: "children_count", Reason: "must not be negative"}
	}
	if h.ChildrenCount > h.Size {
		return &InvalidInputError{Field: "children_count", Reason: "cannot exceed household size"}
	}
	for _, v := range []struct {
		field  string
		amount Money
	}{
		{"earned_income", h.EarnedIncome},
		{"unearned_income", h.UnearnedIncome},
		{"assets", h.Assets},
		{"shelter_cost", h.ShelterCost},
		{"utility_cost", h.UtilityCost},
		{"dependent_care_cost", h.DependentCareCost},
		{"medical_cost", h.MedicalCost},
	} {
		if v.amount.IsNegative() {
			return &InvalidInputError{Field: v.field, Reason: "must not be negative"}
		}
	}
	if h.Jurisdiction == "" {
		return &InvalidInputError{Field: "jurisdiction", Reason: "must not be empty"}
	}
	if h.Program == "" {
		return &InvalidInputError{Field: "program", Reason: "must not be empty"}
	}
	if h.EvaluationDate.IsZero() {
		return &InvalidInputError{Field: "evaluation_date", Reason: "must be a valid calendar date"}
	}
	return nil
}
