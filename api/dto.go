/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Defines the JSON shapes the API accepts and returns. Monetary fields
  arrive as float dollars (the standard shape for admin tooling) and
  are converted to exact cents at the boundary; responses reuse the
  engine's own JSON encoding, which renders money as fixed two-decimal
  strings so audit payloads are byte-stable.

SEE ALSO:
  - handlers.go: Conversions and validation
  - factory/ruleset.go: Rule-set document schema (shared with POST /api/rules)
*/
package api

import (
	"github.com/warp/benefit-engine/engine"
	"github.com/warp/benefit-engine/factory"
)

// HouseholdDTO is the request shape for one household snapshot.
type HouseholdDTO struct {
	Size          int  `json:"size"`
	ChildrenCount int  `json:"children_count"`
	HasElderly    bool `json:"has_elderly"`
	HasDisabled   bool `json:"has_disabled"`
	IsPregnant    bool `json:"is_pregnant"`

	EarnedIncome   float64 `json:"earned_income"`
	UnearnedIncome float64 `json:"unearned_income"`
	Assets         float64 `json:"assets"`

	ShelterCost       float64 `json:"shelter_cost"`
	UtilityCost       float64 `json:"utility_cost"`
	DependentCareCost float64 `json:"dependent_care_cost"`
	MedicalCost       float64 `json:"medical_cost"`

	AidPrograms []string `json:"aid_programs,omitempty"`

	Jurisdiction   string `json:"jurisdiction"`
	Program        string `json:"program"`
	EvaluationDate string `json:"evaluation_date"`
}

// ToSnapshot converts the DTO to the engine's input type. A malformed
// evaluation date becomes a zero Date, which snapshot validation
// rejects as InvalidInput.
func (d HouseholdDTO) ToSnapshot() engine.HouseholdSnapshot {
	evalDate, _ := engine.ParseDate(d.EvaluationDate)
	return engine.HouseholdSnapshot{
		Size:              d.Size,
		ChildrenCount:     d.ChildrenCount,
		HasElderly:        d.HasElderly,
		HasDisabled:       d.HasDisabled,
		IsPregnant:        d.IsPregnant,
		EarnedIncome:      engine.DollarsFromFloat(d.EarnedIncome),
		UnearnedIncome:    engine.DollarsFromFloat(d.UnearnedIncome),
		Assets:            engine.DollarsFromFloat(d.Assets),
		ShelterCost:       engine.DollarsFromFloat(d.ShelterCost),
		UtilityCost:       engine.DollarsFromFloat(d.UtilityCost),
		DependentCareCost: engine.DollarsFromFloat(d.DependentCareCost),
		MedicalCost:       engine.DollarsFromFloat(d.MedicalCost),
		AidPrograms:       d.AidPrograms,
		Jurisdiction:      d.Jurisdiction,
		Program:           d.Program,
		EvaluationDate:    evalDate,
	}
}

// EvaluateRequest is the body of POST /api/determinations.
type EvaluateRequest struct {
	Household HouseholdDTO `json:"household"`
}

// BatchEvaluateRequest is the body of POST /api/determinations/batch.
type BatchEvaluateRequest struct {
	Households []HouseholdDTO `json:"households"`
}

// BatchItemDTO is the positional result for one batch household:
// exactly one of Determination or Error is set.
type BatchItemDTO struct {
	Index         int                   `json:"index"`
	Determination *engine.Determination `json:"determination,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// BatchResponse is the body of a successful batch evaluation.
type BatchResponse struct {
	Results []BatchItemDTO `json:"results"`
}

// CreateRuleSetRequest is the body of POST /api/rules: a complete
// rule-set document in the factory schema.
type CreateRuleSetRequest struct {
	Document factory.RuleSetJSON `json:"document"`
}

// CloseRuleRequest is the body of POST /api/rules/{kind}/{id}/close.
type CloseRuleRequest struct {
	EffectiveTo string `json:"effective_to"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
