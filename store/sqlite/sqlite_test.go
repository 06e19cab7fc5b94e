package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefit-engine/engine"
	"github.com/warp/benefit-engine/factory"
	"github.com/warp/benefit-engine/snap"
	"github.com/warp/benefit-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func loadSnapPreset(t *testing.T, s *sqlite.Store) engine.ProgramConfig {
	t.Helper()
	rs, cfg, err := factory.NewRuleSetFactory().FromJSON(snap.StandardRuleSet("CA", "2025-10-01"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.NoError(t, s.SaveRuleSet(context.Background(), rs))
	require.NoError(t, s.SaveConfig(context.Background(), *cfg))
	return *cfg
}

// =============================================================================
// RULE ROUND-TRIP
// =============================================================================

func TestStore_RuleSetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	loadSnapPreset(t, s)

	rs, err := s.LoadRuleSet(context.Background(), "CA", snap.Program)
	require.NoError(t, err)

	assert.Len(t, rs.IncomeLimits, 8)
	assert.Len(t, rs.Deductions, 5)
	assert.Len(t, rs.Allotments, 8)
	assert.Len(t, rs.Categorical, 2)
	assert.Len(t, rs.AssetTests, 1)

	// Spot-check a bracket survives with exact cents and typed fields.
	var il *engine.IncomeLimitRule
	for i := range rs.IncomeLimits {
		if rs.IncomeLimits[i].HouseholdSize == 1 {
			il = &rs.IncomeLimits[i]
		}
	}
	require.NotNil(t, il)
	assert.Equal(t, int64(163200), il.GrossCeiling.Cents())
	assert.Equal(t, "2025-10-01", il.EffectiveFrom.String())
	assert.True(t, il.Active)
	assert.Nil(t, il.EffectiveTo)

	var shelter *engine.DeductionRule
	for i := range rs.Deductions {
		if rs.Deductions[i].DeductionType == engine.DeductionShelter {
			shelter = &rs.Deductions[i]
		}
	}
	require.NotNil(t, shelter)
	require.NotNil(t, shelter.Cap)
	assert.Equal(t, int64(71200), shelter.Cap.Cents())
	assert.True(t, shelter.CapExemptElderlyDisabled)

	// Categorical condition and bypasses survive the JSON columns.
	var ssi *engine.CategoricalRule
	for i := range rs.Categorical {
		if rs.Categorical[i].Code == "SSI" {
			ssi = &rs.Categorical[i]
		}
	}
	require.NotNil(t, ssi)
	assert.Equal(t, engine.ConditionReceivesAid, ssi.Condition.Type)
	assert.Equal(t, []string{"ssi"}, ssi.Condition.AidPrograms)
	assert.True(t, ssi.Bypasses.NetIncome)
}

func TestStore_UnknownPairLoadsEmptySet(t *testing.T) {
	s := newTestStore(t)

	rs, err := s.LoadRuleSet(context.Background(), "ZZ", "nothing")
	require.NoError(t, err)
	assert.True(t, rs.Empty())
}

func TestStore_DuplicateRuleIDRejected(t *testing.T) {
	s := newTestStore(t)
	rule := engine.IncomeLimitRule{
		RuleMeta: engine.RuleMeta{
			ID: "dup", Jurisdiction: "CA", Program: snap.Program,
			Kind: engine.KindIncomeLimit, EffectiveFrom: engine.MustDate("2025-10-01"),
			Active: true, Version: 1,
		},
		GrossCeiling: engine.Dollars(2000),
		NetCeiling:   engine.Dollars(1100),
	}
	require.NoError(t, s.InsertIncomeLimit(context.Background(), rule))
	assert.Error(t, s.InsertIncomeLimit(context.Background(), rule))
}

// =============================================================================
// CLOSE-ENDING
// =============================================================================

func TestStore_CloseRule(t *testing.T) {
	s := newTestStore(t)
	loadSnapPreset(t, s)
	ctx := context.Background()

	err := s.CloseRule(ctx, engine.KindIncomeLimit, "CA-snap-il-1", engine.MustDate("2026-09-30"))
	require.NoError(t, err)

	rs, err := s.LoadRuleSet(ctx, "CA", snap.Program)
	require.NoError(t, err)
	for _, il := range rs.IncomeLimits {
		if il.ID == "CA-snap-il-1" {
			require.NotNil(t, il.EffectiveTo)
			assert.Equal(t, "2026-09-30", il.EffectiveTo.String())
		}
	}
}

func TestStore_CloseRule_UnknownID(t *testing.T) {
	s := newTestStore(t)
	err := s.CloseRule(context.Background(), engine.KindIncomeLimit, "nope", engine.MustDate("2026-09-30"))
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

// =============================================================================
// CONFIGS
// =============================================================================

func TestStore_ConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	cfg := loadSnapPreset(t, s)

	configs, err := s.ListConfigs(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, cfg, configs[0])

	// Saving again replaces instead of duplicating.
	cfg.AssetTestRequired = false
	require.NoError(t, s.SaveConfig(context.Background(), cfg))
	configs, err = s.ListConfigs(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.False(t, configs[0].AssetTestRequired)
}

// =============================================================================
// DETERMINATION AUDIT LOG
// =============================================================================

func evaluateOne(t *testing.T, s *sqlite.Store, cfg engine.ProgramConfig, at time.Time) *engine.Determination {
	t.Helper()
	registry := engine.NewConfigRegistry()
	registry.Register(cfg)
	eng := engine.New(s, registry, engine.WithClock(func() time.Time { return at }))

	det, err := eng.Evaluate(context.Background(), engine.HouseholdSnapshot{
		Size:           1,
		EarnedIncome:   engine.Dollars(800),
		Jurisdiction:   "CA",
		Program:        snap.Program,
		EvaluationDate: engine.MustDate("2025-11-01"),
	})
	require.NoError(t, err)
	return det
}

func TestStore_DeterminationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	cfg := loadSnapPreset(t, s)
	ctx := context.Background()

	det := evaluateOne(t, s, cfg, time.Date(2025, time.November, 15, 9, 0, 0, 0, time.UTC))
	require.NoError(t, s.AppendDetermination(ctx, det))

	got, err := s.GetDetermination(ctx, det.ID)
	require.NoError(t, err)
	assert.Equal(t, det.ID, got.ID)
	assert.Equal(t, det.IsEligible, got.IsEligible)
	assert.Equal(t, det.BenefitAmount, got.BenefitAmount)
	assert.Equal(t, det.RulesSnapshot, got.RulesSnapshot)
	assert.Equal(t, det.NetIncome, got.NetIncome)
}

func TestStore_GetDetermination_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetDetermination(context.Background(), "det-missing")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestStore_ListDeterminations_FiltersAndLimit(t *testing.T) {
	s := newTestStore(t)
	cfg := loadSnapPreset(t, s)
	ctx := context.Background()

	base := time.Date(2025, time.November, 15, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		det := evaluateOne(t, s, cfg, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.AppendDetermination(ctx, det))
	}

	all, err := s.ListDeterminations(ctx, "", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Newest first.
	assert.True(t, !all[0].EvaluatedAt.Before(all[1].EvaluatedAt))

	filtered, err := s.ListDeterminations(ctx, "CA", snap.Program, 2)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	none, err := s.ListDeterminations(ctx, "ZZ", "", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ListDeterminations_FractionalSecondOrdering(t *testing.T) {
	// Timestamps stored as text must sort chronologically even when the
	// fractional parts differ in length: .1s renders after .12s under a
	// trailing-zero-trimming format, so a fixed-width column is required.
	s := newTestStore(t)
	cfg := loadSnapPreset(t, s)
	ctx := context.Background()

	base := time.Date(2025, time.November, 15, 9, 0, 0, 0, time.UTC)
	older := evaluateOne(t, s, cfg, base.Add(100*time.Millisecond))
	newer := evaluateOne(t, s, cfg, base.Add(120*time.Millisecond))
	require.NoError(t, s.AppendDetermination(ctx, newer))
	require.NoError(t, s.AppendDetermination(ctx, older))

	all, err := s.ListDeterminations(ctx, "", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.EvaluatedAt, all[0].EvaluatedAt)
	assert.Equal(t, older.EvaluatedAt, all[1].EvaluatedAt)
}
