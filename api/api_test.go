package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefit-engine/api"
	"github.com/warp/benefit-engine/engine"
	"github.com/warp/benefit-engine/store/sqlite"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func loadScenario(t *testing.T, server *httptest.Server, id string) {
	t.Helper()
	resp := postJSON(t, server.URL+"/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: id})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func sampleHousehold() api.HouseholdDTO {
	return api.HouseholdDTO{
		Size:           3,
		ChildrenCount:  1,
		EarnedIncome:   1500,
		Jurisdiction:   "CA",
		Program:        "food_assistance",
		EvaluationDate: "2025-11-01",
	}
}

// =============================================================================
// DETERMINATIONS
// =============================================================================

func TestAPI_EvaluateHousehold(t *testing.T) {
	server := newTestServer(t)
	loadScenario(t, server, "single-state")

	resp := postJSON(t, server.URL+"/api/determinations", api.EvaluateRequest{Household: sampleHousehold()})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var det engine.Determination
	decode(t, resp, &det)
	assert.True(t, det.IsEligible)
	assert.NotEmpty(t, det.ID)
	assert.NotEmpty(t, det.RulesSnapshot)
	assert.Equal(t, "api", det.EvaluatedBy)

	// The determination was persisted to the audit log.
	getResp, err := http.Get(server.URL + "/api/determinations/" + det.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var stored engine.Determination
	decode(t, getResp, &stored)
	assert.Equal(t, det.ID, stored.ID)
}

func TestAPI_EvaluateHousehold_ErrorMapping(t *testing.T) {
	server := newTestServer(t)
	loadScenario(t, server, "single-state")

	// Invalid input: 400.
	bad := sampleHousehold()
	bad.Size = 0
	resp := postJSON(t, server.URL+"/api/determinations", api.EvaluateRequest{Household: bad})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// No effective rules on this date: 422, a policy gap rather than a
	// caller error.
	early := sampleHousehold()
	early.EvaluationDate = "2024-01-01"
	resp = postJSON(t, server.URL+"/api/determinations", api.EvaluateRequest{Household: early})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Unknown determination: 404.
	getResp, err := http.Get(server.URL + "/api/determinations/det-missing")
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestAPI_EvaluateBatch(t *testing.T) {
	server := newTestServer(t)
	loadScenario(t, server, "single-state")

	bad := sampleHousehold()
	bad.Size = 0

	resp := postJSON(t, server.URL+"/api/determinations/batch", api.BatchEvaluateRequest{
		Households: []api.HouseholdDTO{sampleHousehold(), bad},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batch api.BatchResponse
	decode(t, resp, &batch)
	require.Len(t, batch.Results, 2)
	assert.NotNil(t, batch.Results[0].Determination)
	assert.Empty(t, batch.Results[0].Error)
	assert.Nil(t, batch.Results[1].Determination)
	assert.NotEmpty(t, batch.Results[1].Error)
}

func TestAPI_EvaluateBatch_TooLargeIs400(t *testing.T) {
	server := newTestServer(t)
	loadScenario(t, server, "single-state")

	households := make([]api.HouseholdDTO, engine.DefaultMaxBatchSize+1)
	for i := range households {
		households[i] = sampleHousehold()
	}
	resp := postJSON(t, server.URL+"/api/determinations/batch", api.BatchEvaluateRequest{Households: households})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// RULE ADMINISTRATION
// =============================================================================

func TestAPI_GetRules(t *testing.T) {
	server := newTestServer(t)
	loadScenario(t, server, "single-state")

	resp, err := http.Get(server.URL + "/api/rules?jurisdiction=CA&program=food_assistance")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rs engine.RuleSet
	decode(t, resp, &rs)
	assert.NotEmpty(t, rs.IncomeLimits)
	assert.NotEmpty(t, rs.Deductions)

	// Missing query parameters: 400.
	resp, err = http.Get(server.URL + "/api/rules")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CloseRuleAndSupersede(t *testing.T) {
	server := newTestServer(t)
	loadScenario(t, server, "single-state")

	resp := postJSON(t, server.URL+"/api/rules/income_limit/CA-snap-il-3/close",
		api.CloseRuleRequest{EffectiveTo: "2026-09-30"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Closing an unknown rule: 404.
	resp = postJSON(t, server.URL+"/api/rules/income_limit/nope/close",
		api.CloseRuleRequest{EffectiveTo: "2026-09-30"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CreateRuleSetRegistersJurisdiction(t *testing.T) {
	server := newTestServer(t)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"jurisdiction": "NV",
		"program": "food_assistance",
		"config": {
			"asset_test_required": true,
			"deduction_types": ["standard"]
		},
		"income_limits": [
			{"id": "nv-il", "effective_from": "2025-10-01",
			 "gross_ceiling": 2000, "net_ceiling": 1100}
		],
		"deductions": [
			{"id": "nv-ded-std", "effective_from": "2025-10-01",
			 "type": "standard", "amount": 193}
		],
		"allotments": [
			{"id": "nv-al", "effective_from": "2025-10-01",
			 "max_benefit": 768, "reduction_rate": 0.3}
		],
		"asset_tests": [
			{"id": "nv-assets", "effective_from": "2025-10-01", "limit": 2750}
		]
	}`), &doc))

	resp := postJSON(t, server.URL+"/api/rules", map[string]any{"document": doc})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The new jurisdiction is immediately evaluable.
	h := sampleHousehold()
	h.Jurisdiction = "NV"
	evalResp := postJSON(t, server.URL+"/api/determinations", api.EvaluateRequest{Household: h})
	defer evalResp.Body.Close()
	assert.Equal(t, http.StatusOK, evalResp.StatusCode)

	// And listed among configured programs.
	listResp, err := http.Get(server.URL + "/api/jurisdictions")
	require.NoError(t, err)
	var configs []engine.ProgramConfig
	decode(t, listResp, &configs)
	require.Len(t, configs, 1)
	assert.Equal(t, "NV", configs[0].Jurisdiction)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestAPI_Scenarios(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/scenarios")
	require.NoError(t, err)
	var scenarios []api.ScenarioDTO
	decode(t, resp, &scenarios)
	assert.NotEmpty(t, scenarios)

	// Nothing loaded yet: current is null.
	currentResp, err := http.Get(server.URL + "/api/scenarios/current")
	require.NoError(t, err)
	var current *api.ScenarioDTO
	decode(t, currentResp, &current)
	assert.Nil(t, current)

	loadScenario(t, server, "multi-program")

	currentResp, err = http.Get(server.URL + "/api/scenarios/current")
	require.NoError(t, err)
	decode(t, currentResp, &current)
	require.NotNil(t, current)
	assert.Equal(t, "multi-program", current.ID)

	listResp, err := http.Get(server.URL + "/api/jurisdictions")
	require.NoError(t, err)
	var configs []engine.ProgramConfig
	decode(t, listResp, &configs)
	assert.Len(t, configs, 2) // food and cash assistance for CA

	// Unknown scenario: 400.
	badResp := postJSON(t, server.URL+"/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"})
	badResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}
