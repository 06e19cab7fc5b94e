/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Persists versioned rule records (one table per kind), program
  configurations, and the append-only determination audit log. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  engine.RuleStore: LoadRuleSet for the evaluation pipeline

VERSIONING CONTRACT:
  Rule records are never updated in place or deleted:
  - Corrections INSERT a new version and close-end the old one
    (CloseRule sets effective_to; nothing else is ever written to an
    existing row)
  - No DELETE statements exist for rule tables or determinations

KEY TABLES:
  income_limits, deduction_rules, allotment_rules,
  categorical_rules, asset_test_rules:  effective-dated rule records
  program_configs:                      jurisdiction policy toggles
  determinations:                       append-only audit log

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/benefit.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := engine.New(store, registry)

SEE ALSO:
  - engine/rules.go: Record types and the RuleStore interface
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/benefit-engine/engine"
)

// Store implements rule and determination persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: an in-memory database exists per connection, and
	// file databases get writer serialization for free.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// metaColumns are shared by every rule table, in this order.
const metaColumns = `id, jurisdiction, program, household_size,
	effective_from, effective_to, active, version, approved_by, approved_at`

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS income_limits (
		id TEXT PRIMARY KEY,
		jurisdiction TEXT NOT NULL,
		program TEXT NOT NULL,
		household_size INTEGER NOT NULL DEFAULT 0,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		approved_by TEXT,
		approved_at TEXT,
		gross_ceiling_cents INTEGER NOT NULL,
		net_ceiling_cents INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_income_limits_scope
		ON income_limits(jurisdiction, program);

	CREATE TABLE IF NOT EXISTS deduction_rules (
		id TEXT PRIMARY KEY,
		jurisdiction TEXT NOT NULL,
		program TEXT NOT NULL,
		household_size INTEGER NOT NULL DEFAULT 0,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		approved_by TEXT,
		approved_at TEXT,
		deduction_type TEXT NOT NULL,
		amount_cents INTEGER NOT NULL DEFAULT 0,
		percentage TEXT NOT NULL DEFAULT '0',
		cap_cents INTEGER,
		threshold_cents INTEGER NOT NULL DEFAULT 0,
		cap_exempt_elderly_disabled INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_deduction_rules_scope
		ON deduction_rules(jurisdiction, program, deduction_type);

	CREATE TABLE IF NOT EXISTS allotment_rules (
		id TEXT PRIMARY KEY,
		jurisdiction TEXT NOT NULL,
		program TEXT NOT NULL,
		household_size INTEGER NOT NULL DEFAULT 0,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		approved_by TEXT,
		approved_at TEXT,
		max_benefit_cents INTEGER NOT NULL,
		min_benefit_cents INTEGER NOT NULL DEFAULT 0,
		reduction_rate TEXT NOT NULL DEFAULT '0',
		per_additional_member_cents INTEGER NOT NULL DEFAULT 0,
		round_to_dollar INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_allotment_rules_scope
		ON allotment_rules(jurisdiction, program);

	CREATE TABLE IF NOT EXISTS categorical_rules (
		id TEXT PRIMARY KEY,
		jurisdiction TEXT NOT NULL,
		program TEXT NOT NULL,
		household_size INTEGER NOT NULL DEFAULT 0,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		approved_by TEXT,
		approved_at TEXT,
		code TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		condition_json TEXT NOT NULL,
		bypasses_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_categorical_rules_scope
		ON categorical_rules(jurisdiction, program);

	CREATE TABLE IF NOT EXISTS asset_test_rules (
		id TEXT PRIMARY KEY,
		jurisdiction TEXT NOT NULL,
		program TEXT NOT NULL,
		household_size INTEGER NOT NULL DEFAULT 0,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		approved_by TEXT,
		approved_at TEXT,
		limit_cents INTEGER NOT NULL,
		elderly_disabled_limit_cents INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_asset_test_rules_scope
		ON asset_test_rules(jurisdiction, program);

	CREATE TABLE IF NOT EXISTS program_configs (
		jurisdiction TEXT NOT NULL,
		program TEXT NOT NULL,
		config_json TEXT NOT NULL,
		PRIMARY KEY (jurisdiction, program)
	);

	-- Determinations (append-only audit log)
	CREATE TABLE IF NOT EXISTS determinations (
		id TEXT PRIMARY KEY,
		jurisdiction TEXT NOT NULL,
		program TEXT NOT NULL,
		is_eligible INTEGER NOT NULL,
		benefit_cents INTEGER NOT NULL,
		record_json TEXT NOT NULL,
		evaluated_at TEXT NOT NULL,
		evaluated_by TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_determinations_scope
		ON determinations(jurisdiction, program, evaluated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// META HELPERS
// =============================================================================

func metaArgs(m engine.RuleMeta) []any {
	var to any
	if m.EffectiveTo != nil {
		to = m.EffectiveTo.String()
	}
	var approvedAt any
	if !m.ApprovedAt.IsZero() {
		approvedAt = m.ApprovedAt.String()
	}
	return []any{
		string(m.ID), m.Jurisdiction, m.Program, m.HouseholdSize,
		m.EffectiveFrom.String(), to, boolInt(m.Active), m.Version,
		nullStr(m.ApprovedBy), approvedAt,
	}
}

func scanMeta(kind engine.RuleKind, id, jurisdiction, program string, size int,
	from string, to sql.NullString, active, version int,
	approvedBy, approvedAt sql.NullString) (engine.RuleMeta, error) {

	m := engine.RuleMeta{
		ID:            engine.RuleID(id),
		Jurisdiction:  jurisdiction,
		Program:       program,
		Kind:          kind,
		HouseholdSize: size,
		Active:        active != 0,
		Version:       version,
		ApprovedBy:    approvedBy.String,
	}
	var err error
	if m.EffectiveFrom, err = engine.ParseDate(from); err != nil {
		return m, fmt.Errorf("rule %s: %w", id, err)
	}
	if to.Valid {
		d, err := engine.ParseDate(to.String)
		if err != nil {
			return m, fmt.Errorf("rule %s: %w", id, err)
		}
		m.EffectiveTo = &d
	}
	if approvedAt.Valid {
		if m.ApprovedAt, err = engine.ParseDate(approvedAt.String); err != nil {
			return m, fmt.Errorf("rule %s: %w", id, err)
		}
	}
	return m, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// =============================================================================
// RULE STORE - LoadRuleSet (the engine's read path)
// =============================================================================

// LoadRuleSet returns every rule record for (jurisdiction, program),
// including inactive and expired versions; effective-date selection is
// the resolver's job.
func (s *Store) LoadRuleSet(ctx context.Context, jurisdiction, program string) (*engine.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs := &engine.RuleSet{Jurisdiction: jurisdiction, Program: program}

	if err := s.loadIncomeLimits(ctx, rs); err != nil {
		return nil, err
	}
	if err := s.loadDeductions(ctx, rs); err != nil {
		return nil, err
	}
	if err := s.loadAllotments(ctx, rs); err != nil {
		return nil, err
	}
	if err := s.loadCategorical(ctx, rs); err != nil {
		return nil, err
	}
	if err := s.loadAssetTests(ctx, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func (s *Store) loadIncomeLimits(ctx context.Context, rs *engine.RuleSet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+metaColumns+`, gross_ceiling_cents, net_ceiling_cents
		FROM income_limits WHERE jurisdiction = ? AND program = ?
		ORDER BY id`, rs.Jurisdiction, rs.Program)
	if err != nil {
		return fmt.Errorf("query income limits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, jur, prog, from        string
			size, active, version      int
			to, approvedBy, approvedAt sql.NullString
			grossCents, netCents       int64
		)
		if err := rows.Scan(&id, &jur, &prog, &size, &from, &to, &active, &version,
			&approvedBy, &approvedAt, &grossCents, &netCents); err != nil {
			return err
		}
		meta, err := scanMeta(engine.KindIncomeLimit, id, jur, prog, size, from, to, active, version, approvedBy, approvedAt)
		if err != nil {
			return err
		}
		rs.IncomeLimits = append(rs.IncomeLimits, engine.IncomeLimitRule{
			RuleMeta:     meta,
			GrossCeiling: engine.Cents(grossCents),
			NetCeiling:   engine.Cents(netCents),
		})
	}
	return rows.Err()
}

func (s *Store) loadDeductions(ctx context.Context, rs *engine.RuleSet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+metaColumns+`, deduction_type, amount_cents, percentage,
		       cap_cents, threshold_cents, cap_exempt_elderly_disabled
		FROM deduction_rules WHERE jurisdiction = ? AND program = ?
		ORDER BY id`, rs.Jurisdiction, rs.Program)
	if err != nil {
		return fmt.Errorf("query deduction rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, jur, prog, from        string
			size, active, version      int
			to, approvedBy, approvedAt sql.NullString
			dedType, percentage        string
			amountCents, threshCents   int64
			capCents                   sql.NullInt64
			capExempt                  int
		)
		if err := rows.Scan(&id, &jur, &prog, &size, &from, &to, &active, &version,
			&approvedBy, &approvedAt, &dedType, &amountCents, &percentage,
			&capCents, &threshCents, &capExempt); err != nil {
			return err
		}
		meta, err := scanMeta(engine.KindDeduction, id, jur, prog, size, from, to, active, version, approvedBy, approvedAt)
		if err != nil {
			return err
		}
		rate, err := engine.ParseRate(percentage)
		if err != nil {
			return fmt.Errorf("rule %s: %w", id, err)
		}
		rule := engine.DeductionRule{
			RuleMeta:                 meta,
			DeductionType:            engine.DeductionType(dedType),
			Amount:                   engine.Cents(amountCents),
			Percentage:               rate,
			Threshold:                engine.Cents(threshCents),
			CapExemptElderlyDisabled: capExempt != 0,
		}
		if capCents.Valid {
			capAmount := engine.Cents(capCents.Int64)
			rule.Cap = &capAmount
		}
		rs.Deductions = append(rs.Deductions, rule)
	}
	return rows.Err()
}

func (s *Store) loadAllotments(ctx context.Context, rs *engine.RuleSet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+metaColumns+`, max_benefit_cents, min_benefit_cents,
		       reduction_rate, per_additional_member_cents, round_to_dollar
		FROM allotment_rules WHERE jurisdiction = ? AND program = ?
		ORDER BY id`, rs.Jurisdiction, rs.Program)
	if err != nil {
		return fmt.Errorf("query allotment rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, jur, prog, from              string
			size, active, version            int
			to, approvedBy, approvedAt       sql.NullString
			maxCents, minCents, perAddlCents int64
			reductionRate                    string
			roundToDollar                    int
		)
		if err := rows.Scan(&id, &jur, &prog, &size, &from, &to, &active, &version,
			&approvedBy, &approvedAt, &maxCents, &minCents, &reductionRate,
			&perAddlCents, &roundToDollar); err != nil {
			return err
		}
		meta, err := scanMeta(engine.KindAllotment, id, jur, prog, size, from, to, active, version, approvedBy, approvedAt)
		if err != nil {
			return err
		}
		rate, err := engine.ParseRate(reductionRate)
		if err != nil {
			return fmt.Errorf("rule %s: %w", id, err)
		}
		rs.Allotments = append(rs.Allotments, engine.AllotmentRule{
			RuleMeta:            meta,
			MaxBenefit:          engine.Cents(maxCents),
			MinBenefit:          engine.Cents(minCents),
			ReductionRate:       rate,
			PerAdditionalMember: engine.Cents(perAddlCents),
			RoundToDollar:       roundToDollar != 0,
		})
	}
	return rows.Err()
}

func (s *Store) loadCategorical(ctx context.Context, rs *engine.RuleSet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+metaColumns+`, code, priority, condition_json, bypasses_json
		FROM categorical_rules WHERE jurisdiction = ? AND program = ?
		ORDER BY id`, rs.Jurisdiction, rs.Program)
	if err != nil {
		return fmt.Errorf("query categorical rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, jur, prog, from        string
			size, active, version      int
			to, approvedBy, approvedAt sql.NullString
			code, condJSON, bypassJSON string
			priority                   int
		)
		if err := rows.Scan(&id, &jur, &prog, &size, &from, &to, &active, &version,
			&approvedBy, &approvedAt, &code, &priority, &condJSON, &bypassJSON); err != nil {
			return err
		}
		meta, err := scanMeta(engine.KindCategorical, id, jur, prog, size, from, to, active, version, approvedBy, approvedAt)
		if err != nil {
			return err
		}
		rule := engine.CategoricalRule{RuleMeta: meta, Code: code, Priority: priority}
		if err := json.Unmarshal([]byte(condJSON), &rule.Condition); err != nil {
			return fmt.Errorf("rule %s: condition: %w", id, err)
		}
		if err := json.Unmarshal([]byte(bypassJSON), &rule.Bypasses); err != nil {
			return fmt.Errorf("rule %s: bypasses: %w", id, err)
		}
		rs.Categorical = append(rs.Categorical, rule)
	}
	return rows.Err()
}

func (s *Store) loadAssetTests(ctx context.Context, rs *engine.RuleSet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+metaColumns+`, limit_cents, elderly_disabled_limit_cents
		FROM asset_test_rules WHERE jurisdiction = ? AND program = ?
		ORDER BY id`, rs.Jurisdiction, rs.Program)
	if err != nil {
		return fmt.Errorf("query asset test rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, jur, prog, from        string
			size, active, version      int
			to, approvedBy, approvedAt sql.NullString
			limitCents, edLimitCents   int64
		)
		if err := rows.Scan(&id, &jur, &prog, &size, &from, &to, &active, &version,
			&approvedBy, &approvedAt, &limitCents, &edLimitCents); err != nil {
			return err
		}
		meta, err := scanMeta(engine.KindAssetTest, id, jur, prog, size, from, to, active, version, approvedBy, approvedAt)
		if err != nil {
			return err
		}
		rs.AssetTests = append(rs.AssetTests, engine.AssetTestRule{
			RuleMeta:             meta,
			Limit:                engine.Cents(limitCents),
			ElderlyDisabledLimit: engine.Cents(edLimitCents),
		})
	}
	return rows.Err()
}

// Compile-time check that Store implements engine.RuleStore.
var _ engine.RuleStore = (*Store)(nil)
