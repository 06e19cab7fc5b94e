/*
handlers.go - HTTP API handlers for the benefit determination engine

PURPOSE:
  Exposes the determination engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine
  and store. The API layer is also the engine's case-management
  collaborator: it persists every determination to the append-only
  audit log and logs overlap diagnostics for administrative cleanup.

ENDPOINTS:
  Determinations:
    POST   /api/determinations          Evaluate one household
    POST   /api/determinations/batch    Evaluate up to 50 households
    GET    /api/determinations          Recent determinations (audit view)
    GET    /api/determinations/{id}     One determination

  Rules:
    GET    /api/rules?jurisdiction=&program=   Full rule set
    POST   /api/rules                          Load a rule-set document
    POST   /api/rules/{kind}/{id}/close        Close-end a rule version

  Jurisdictions:
    GET    /api/jurisdictions           Registered program configs

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    GET    /api/scenarios/current       Currently loaded scenario
    POST   /api/scenarios/load          Load a demo scenario

ERROR HANDLING:
  - 400: InvalidInput, BatchTooLarge, malformed JSON
  - 404: Unknown determination or rule
  - 422: MissingRuleData (a policy-administration gap; the request was
         well-formed but no effective rule version covers it)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. Determinations are
  recorded with the fixed actor "api".

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/benefit-engine/engine"
	"github.com/warp/benefit-engine/factory"
	"github.com/warp/benefit-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Registry *engine.ConfigRegistry
	Engine   *engine.Engine
	Factory  *factory.RuleSetFactory

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	registry := engine.NewConfigRegistry()
	return &Handler{
		Store:    store,
		Registry: registry,
		Engine:   engine.New(store, registry, engine.WithActor("api")),
		Factory:  factory.NewRuleSetFactory(),
	}
}

// LoadConfigs loads persisted program configurations into the registry.
func (h *Handler) LoadConfigs(ctx context.Context) error {
	configs, err := h.Store.ListConfigs(ctx)
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		h.Registry.Register(cfg)
	}
	return nil
}

// =============================================================================
// DETERMINATION HANDLERS
// =============================================================================

// EvaluateHousehold runs one household through the pipeline and
// persists the resulting determination.
func (h *Handler) EvaluateHousehold(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	det, err := h.Engine.Evaluate(r.Context(), req.Household.ToSnapshot())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.logDiagnostics(det)
	if err := h.Store.AppendDetermination(r.Context(), det); err != nil {
		log.Printf("failed to persist determination %s: %v", det.ID, err)
	}

	writeJSON(w, http.StatusOK, det)
}

// EvaluateBatch runs a bounded batch with per-household isolation.
func (h *Handler) EvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snapshots := make([]engine.HouseholdSnapshot, len(req.Households))
	for i, hh := range req.Households {
		snapshots[i] = hh.ToSnapshot()
	}

	results, err := h.Engine.EvaluateBatch(r.Context(), snapshots)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := BatchResponse{Results: make([]BatchItemDTO, len(results))}
	for i, res := range results {
		item := BatchItemDTO{Index: res.Index}
		if res.Err != nil {
			item.Error = res.Err.Error()
		} else {
			item.Determination = res.Determination
			h.logDiagnostics(res.Determination)
			if err := h.Store.AppendDetermination(r.Context(), res.Determination); err != nil {
				log.Printf("failed to persist determination %s: %v", res.Determination.ID, err)
			}
		}
		resp.Results[i] = item
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListDeterminations returns recent determinations, newest first.
func (h *Handler) ListDeterminations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	dets, err := h.Store.ListDeterminations(r.Context(),
		r.URL.Query().Get("jurisdiction"), r.URL.Query().Get("program"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list determinations", err)
		return
	}
	if dets == nil {
		dets = []*engine.Determination{}
	}
	writeJSON(w, http.StatusOK, dets)
}

// GetDetermination returns one determination by identifier.
func (h *Handler) GetDetermination(w http.ResponseWriter, r *http.Request) {
	det, err := h.Store.GetDetermination(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if engine.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Determination not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load determination", err)
		return
	}
	writeJSON(w, http.StatusOK, det)
}

// logDiagnostics surfaces overlap tie-breaks for administrative review.
func (h *Handler) logDiagnostics(det *engine.Determination) {
	for _, d := range det.Diagnostics {
		log.Printf("determination %s: %s", det.ID, d)
	}
}

// =============================================================================
// RULE ADMINISTRATION HANDLERS
// =============================================================================

// GetRules returns the full rule set for a (jurisdiction, program).
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	jurisdiction := r.URL.Query().Get("jurisdiction")
	program := r.URL.Query().Get("program")
	if jurisdiction == "" || program == "" {
		writeError(w, http.StatusBadRequest, "jurisdiction and program query parameters are required", nil)
		return
	}
	rs, err := h.Store.LoadRuleSet(r.Context(), jurisdiction, program)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rules", err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// CreateRuleSet loads a complete rule-set document: records are
// inserted as new versions and the config (when present) is registered.
func (h *Handler) CreateRuleSet(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rs, cfg, err := h.Factory.FromJSON(req.Document)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule set document", err)
		return
	}
	if err := h.Store.SaveRuleSet(r.Context(), rs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rules", err)
		return
	}
	if cfg != nil {
		if err := h.Store.SaveConfig(r.Context(), *cfg); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save config", err)
			return
		}
		h.Registry.Register(*cfg)
	}

	writeJSON(w, http.StatusCreated, rs)
}

// CloseRule close-ends one rule version. The correction that replaces
// it arrives as a fresh record through CreateRuleSet.
func (h *Handler) CloseRule(w http.ResponseWriter, r *http.Request) {
	kind := engine.RuleKind(chi.URLParam(r, "kind"))
	id := engine.RuleID(chi.URLParam(r, "id"))

	var req CloseRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	endDate, err := engine.ParseDate(req.EffectiveTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_to date", err)
		return
	}

	if err := h.Store.CloseRule(r.Context(), kind, id, endDate); err != nil {
		if engine.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Rule not found", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to close rule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// ListJurisdictions returns the registered program configurations.
func (h *Handler) ListJurisdictions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.List())
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine error taxonomy to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, "Batch too large", err)
	case errors.Is(err, engine.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case errors.Is(err, engine.ErrMissingRuleData):
		writeError(w, http.StatusUnprocessableEntity, "Missing rule data", err)
	default:
		writeError(w, http.StatusInternalServerError, "Evaluation failed", err)
	}
}
