/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	rule sets for testing and demos. Each scenario loads jurisdictions with
	specific policy features so a demonstration can exercise them.

AVAILABLE SCENARIOS:

	single-state:    One jurisdiction, standard food assistance rules
	broad-based:     Jurisdiction with broad-based categorical eligibility
	multi-state:     Two jurisdictions with different parameters
	multi-program:   Food assistance plus cash assistance in one state

HOW SCENARIOS WORK:
 1. Reset database (clear all rules, configs, and determinations)
 2. Build rule-set documents from program presets
 3. Parse through the factory and persist
 4. Register program configs so evaluation can find them

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "broad-based"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Rule administration handlers
  - snap/rulesets.go, cash/rulesets.go: Program presets
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/benefit-engine/cash"
	"github.com/warp/benefit-engine/engine"
	"github.com/warp/benefit-engine/factory"
	"github.com/warp/benefit-engine/snap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "single-state",
		Name:        "Single State",
		Description: "One jurisdiction with standard food assistance rules",
	},
	{
		ID:          "broad-based",
		Name:        "Broad-Based Categorical",
		Description: "Jurisdiction where a non-cash benefit waives the asset test",
	},
	{
		ID:          "multi-state",
		Name:        "Multi-State",
		Description: "Two jurisdictions with different deduction and limit parameters",
	},
	{
		ID:          "multi-program",
		Name:        "Multi-Program",
		Description: "Food assistance plus cash assistance in one jurisdiction",
	},
}

// scenarioRuleSetStart is the effective date all demo rule versions
// open on. Fixed so demo determinations are reproducible.
const scenarioRuleSetStart = "2025-10-01"

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Registry = engine.NewConfigRegistry()
	h.Engine = engine.New(h.Store, h.Registry, engine.WithActor("api"))
	h.currentScenario = "" // Clear current scenario on reset

	var err error
	switch req.ScenarioID {
	case "single-state":
		err = h.loadSingleStateScenario(ctx)
	case "broad-based":
		err = h.loadBroadBasedScenario(ctx)
	case "multi-state":
		err = h.loadMultiStateScenario(ctx)
	case "multi-program":
		err = h.loadMultiProgramScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	// Track the loaded scenario
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSingleStateScenario(ctx context.Context) error {
	return h.loadDocument(ctx, snap.StandardRuleSet("CA", scenarioRuleSetStart))
}

func (h *Handler) loadBroadBasedScenario(ctx context.Context) error {
	return h.loadDocument(ctx, snap.BroadBasedRuleSet("OR", scenarioRuleSetStart))
}

func (h *Handler) loadMultiStateScenario(ctx context.Context) error {
	if err := h.loadDocument(ctx, snap.StandardRuleSet("CA", scenarioRuleSetStart)); err != nil {
		return err
	}
	return h.loadDocument(ctx, snap.BroadBasedRuleSet("OR", scenarioRuleSetStart))
}

func (h *Handler) loadMultiProgramScenario(ctx context.Context) error {
	if err := h.loadDocument(ctx, snap.StandardRuleSet("CA", scenarioRuleSetStart)); err != nil {
		return err
	}
	return h.loadDocument(ctx, cash.StandardRuleSet("CA", scenarioRuleSetStart))
}

// loadDocument parses one rule-set document, persists its records, and
// registers its program configuration.
func (h *Handler) loadDocument(ctx context.Context, doc factory.RuleSetJSON) error {
	rs, cfg, err := h.Factory.FromJSON(doc)
	if err != nil {
		return fmt.Errorf("parsing %s/%s rules: %w", doc.Jurisdiction, doc.Program, err)
	}
	if err := h.Store.SaveRuleSet(ctx, rs); err != nil {
		return fmt.Errorf("saving %s/%s rules: %w", doc.Jurisdiction, doc.Program, err)
	}
	if cfg != nil {
		if err := h.Store.SaveConfig(ctx, *cfg); err != nil {
			return fmt.Errorf("saving %s/%s config: %w", doc.Jurisdiction, doc.Program, err)
		}
		h.Registry.Register(*cfg)
	}
	return nil
}
