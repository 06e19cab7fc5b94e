/*
admin.go - Write path: rule administration, configs, determination log

PURPOSE:
  Implements the administration side of persistence. Rule records are
  INSERTed as new versions and close-ended, never edited; the
  determinations table is append-only.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warp/benefit-engine/engine"
)

// ruleTables maps each record kind to its table.
var ruleTables = map[engine.RuleKind]string{
	engine.KindIncomeLimit: "income_limits",
	engine.KindDeduction:   "deduction_rules",
	engine.KindAllotment:   "allotment_rules",
	engine.KindCategorical: "categorical_rules",
	engine.KindAssetTest:   "asset_test_rules",
}

const metaPlaceholders = "?, ?, ?, ?, ?, ?, ?, ?, ?, ?"

// =============================================================================
// RULE INSERTS - New versions only; existing rows are never rewritten
// =============================================================================

// InsertIncomeLimit persists one income-limit record.
func (s *Store) InsertIncomeLimit(ctx context.Context, r engine.IncomeLimitRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	args := append(metaArgs(r.RuleMeta), r.GrossCeiling.Cents(), r.NetCeiling.Cents())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO income_limits (`+metaColumns+`, gross_ceiling_cents, net_ceiling_cents)
		VALUES (`+metaPlaceholders+`, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("insert income limit %s: %w", r.ID, err)
	}
	return nil
}

// InsertDeduction persists one deduction record.
func (s *Store) InsertDeduction(ctx context.Context, r engine.DeductionRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var capCents any
	if r.Cap != nil {
		capCents = r.Cap.Cents()
	}
	args := append(metaArgs(r.RuleMeta),
		string(r.DeductionType), r.Amount.Cents(), r.Percentage.String(),
		capCents, r.Threshold.Cents(), boolInt(r.CapExemptElderlyDisabled))
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deduction_rules (`+metaColumns+`, deduction_type, amount_cents,
			percentage, cap_cents, threshold_cents, cap_exempt_elderly_disabled)
		VALUES (`+metaPlaceholders+`, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("insert deduction rule %s: %w", r.ID, err)
	}
	return nil
}

// InsertAllotment persists one allotment record.
func (s *Store) InsertAllotment(ctx context.Context, r engine.AllotmentRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	args := append(metaArgs(r.RuleMeta),
		r.MaxBenefit.Cents(), r.MinBenefit.Cents(), r.ReductionRate.String(),
		r.PerAdditionalMember.Cents(), boolInt(r.RoundToDollar))
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allotment_rules (`+metaColumns+`, max_benefit_cents,
			min_benefit_cents, reduction_rate, per_additional_member_cents, round_to_dollar)
		VALUES (`+metaPlaceholders+`, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("insert allotment rule %s: %w", r.ID, err)
	}
	return nil
}

// InsertCategorical persists one categorical-eligibility record.
func (s *Store) InsertCategorical(ctx context.Context, r engine.CategoricalRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	condJSON, err := json.Marshal(r.Condition)
	if err != nil {
		return fmt.Errorf("marshal condition for %s: %w", r.ID, err)
	}
	bypassJSON, err := json.Marshal(r.Bypasses)
	if err != nil {
		return fmt.Errorf("marshal bypasses for %s: %w", r.ID, err)
	}
	args := append(metaArgs(r.RuleMeta), r.Code, r.Priority, string(condJSON), string(bypassJSON))
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO categorical_rules (`+metaColumns+`, code, priority, condition_json, bypasses_json)
		VALUES (`+metaPlaceholders+`, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("insert categorical rule %s: %w", r.ID, err)
	}
	return nil
}

// InsertAssetTest persists one asset-test record.
func (s *Store) InsertAssetTest(ctx context.Context, r engine.AssetTestRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	args := append(metaArgs(r.RuleMeta), r.Limit.Cents(), r.ElderlyDisabledLimit.Cents())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO asset_test_rules (`+metaColumns+`, limit_cents, elderly_disabled_limit_cents)
		VALUES (`+metaPlaceholders+`, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("insert asset test rule %s: %w", r.ID, err)
	}
	return nil
}

// SaveRuleSet persists every record of a rule set. Used by scenario
// loading and initial jurisdiction onboarding.
func (s *Store) SaveRuleSet(ctx context.Context, rs *engine.RuleSet) error {
	for _, r := range rs.IncomeLimits {
		if err := s.InsertIncomeLimit(ctx, r); err != nil {
			return err
		}
	}
	for _, r := range rs.Deductions {
		if err := s.InsertDeduction(ctx, r); err != nil {
			return err
		}
	}
	for _, r := range rs.Allotments {
		if err := s.InsertAllotment(ctx, r); err != nil {
			return err
		}
	}
	for _, r := range rs.Categorical {
		if err := s.InsertCategorical(ctx, r); err != nil {
			return err
		}
	}
	for _, r := range rs.AssetTests {
		if err := s.InsertAssetTest(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// CloseRule close-ends a record: sets effective_to so the version stops
// applying after endDate. This is the only write ever made to an
// existing rule row; the correction itself is a fresh INSERT.
func (s *Store) CloseRule(ctx context.Context, kind engine.RuleKind, id engine.RuleID, endDate engine.Date) error {
	table, ok := ruleTables[kind]
	if !ok {
		return fmt.Errorf("unknown rule kind %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET effective_to = ? WHERE id = ?`,
		endDate.String(), string(id))
	if err != nil {
		return fmt.Errorf("close rule %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("close rule %s: %w", id, engine.ErrRuleNotFound)
	}
	return nil
}

// =============================================================================
// PROGRAM CONFIGS
// =============================================================================

// SaveConfig persists a program configuration (replacing any previous
// one for the same pair - configs are toggles, not versioned records).
func (s *Store) SaveConfig(ctx context.Context, cfg engine.ProgramConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO program_configs (jurisdiction, program, config_json)
		VALUES (?, ?, ?)
		ON CONFLICT(jurisdiction, program) DO UPDATE SET config_json = excluded.config_json`,
		cfg.Jurisdiction, cfg.Program, string(b))
	if err != nil {
		return fmt.Errorf("save config %s/%s: %w", cfg.Jurisdiction, cfg.Program, err)
	}
	return nil
}

// ListConfigs returns every stored program configuration.
func (s *Store) ListConfigs(ctx context.Context) ([]engine.ProgramConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT config_json FROM program_configs ORDER BY jurisdiction, program`)
	if err != nil {
		return nil, fmt.Errorf("query configs: %w", err)
	}
	defer rows.Close()

	var out []engine.ProgramConfig
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var cfg engine.ProgramConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// =============================================================================
// DETERMINATION AUDIT LOG - Append-only
// =============================================================================

// determinationTimeFormat is fixed-width UTC so that the text column
// sorts chronologically. RFC3339Nano trims trailing fractional zeros,
// which breaks lexicographic ordering.
const determinationTimeFormat = "2006-01-02T15:04:05.000000000Z"

// AppendDetermination records a determination. Determinations are never
// updated or deleted; a re-evaluation appends a new record.
func (s *Store) AppendDetermination(ctx context.Context, d *engine.Determination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal determination: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO determinations (id, jurisdiction, program, is_eligible,
			benefit_cents, record_json, evaluated_at, evaluated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Household.Jurisdiction, d.Household.Program, boolInt(d.IsEligible),
		d.BenefitAmount.Cents(), string(b), d.EvaluatedAt.UTC().Format(determinationTimeFormat), d.EvaluatedBy)
	if err != nil {
		return fmt.Errorf("append determination %s: %w", d.ID, err)
	}
	return nil
}

// Reset clears all data. Demo and development use only; production
// rule history is append-only and never reset.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"determinations", "program_configs",
		"income_limits", "deduction_rules", "allotment_rules",
		"categorical_rules", "asset_test_rules"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// GetDetermination loads one determination by identifier.
func (s *Store) GetDetermination(ctx context.Context, id string) (*engine.Determination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT record_json FROM determinations WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrDeterminationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get determination %s: %w", id, err)
	}
	var d engine.Determination
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode determination %s: %w", id, err)
	}
	return &d, nil
}

// ListDeterminations returns recent determinations, newest first.
// Empty jurisdiction/program match everything.
func (s *Store) ListDeterminations(ctx context.Context, jurisdiction, program string, limit int) ([]*engine.Determination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_json FROM determinations
		WHERE (? = '' OR jurisdiction = ?) AND (? = '' OR program = ?)
		ORDER BY evaluated_at DESC LIMIT ?`,
		jurisdiction, jurisdiction, program, program, limit)
	if err != nil {
		return nil, fmt.Errorf("query determinations: %w", err)
	}
	defer rows.Close()

	var out []*engine.Determination
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var d engine.Determination
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("decode determination: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
