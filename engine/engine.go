/*
engine.go - The single-household determination pipeline

PURPOSE:
  Orchestrates one evaluation: validate input, look up the program
  config, load the rule snapshot, then run the pure pipeline -
  categorical resolution, gross income test, deductions, net income
  test, asset test, benefit amount - and assemble the determination.

PIPELINE CONTRACT:
  - Validation happens before any rule lookup (InvalidInput).
  - The rule snapshot is loaded once; every stage reads the same
    immutable data. Loading is the only I/O; everything after is pure.
  - A failed test does not abort evaluation: remaining stages still run
    far enough to populate the audit trail, but no benefit amount is
    computed for an ineligible household (it stays zero).
  - A test bypassed by categorical eligibility still resolves its rule
    record when one exists (for the audit trail), but a missing record
    behind a fully bypassed test is not fatal - the test was never
    applied. A missing record behind an applied test is MissingRuleData.

SEE ALSO:
  - batch.go: Fans households through this pipeline concurrently
  - determination.go: Assembly and the eligibility invariant
*/
package engine

import (
	"context"
	"fmt"
	"time"
)

// Engine evaluates household snapshots against versioned rule records.
// Safe for concurrent use: evaluation reads immutable data only.
type Engine struct {
	store        RuleStore
	configs      *ConfigRegistry
	actor        string
	now          func() time.Time
	maxBatchSize int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the evaluation timestamp source. Tests fix the
// clock to get byte-identical determinations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithActor sets the calculating-actor reference recorded on every
// determination.
func WithActor(actor string) Option {
	return func(e *Engine) { e.actor = actor }
}

// WithMaxBatchSize overrides the batch hard cap.
func WithMaxBatchSize(n int) Option {
	return func(e *Engine) { e.maxBatchSize = n }
}

// New creates an Engine over a rule store and a config registry.
func New(store RuleStore, configs *ConfigRegistry, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		configs:      configs,
		actor:        "system",
		now:          time.Now,
		maxBatchSize: DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs one household through the full pipeline.
func (e *Engine) Evaluate(ctx context.Context, h HouseholdSnapshot) (*Determination, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	cfg, ok := e.configs.Lookup(h.Jurisdiction, h.Program)
	if !ok {
		return nil, &InvalidInputError{
			Field:  "jurisdiction",
			Reason: fmt.Sprintf("program %q is not configured for jurisdiction %q", h.Program, h.Jurisdiction),
		}
	}
	rules, err := e.store.LoadRuleSet(ctx, h.Jurisdiction, h.Program)
	if err != nil {
		return nil, fmt.Errorf("loading rules for %s/%s: %w", h.Jurisdiction, h.Program, err)
	}
	return e.evaluate(h, cfg, rules)
}

// evaluate is the pure stage: no I/O, no side effects, deterministic
// for identical inputs (given a fixed clock).
func (e *Engine) evaluate(h HouseholdSnapshot, cfg ProgramConfig, rules *RuleSet) (*Determination, error) {
	resolver := NewResolver(rules)
	trail := newRuleTrail()
	var diags []OverlapDiagnostic
	var reasons []IneligibilityReason

	// Program prerequisite (e.g. cash assistance requires children).
	if cfg.RequiresDependentChildren && h.ChildrenCount == 0 {
		reasons = append(reasons, ReasonNoDependentChildren)
	}

	// Categorical eligibility: first matching rule in priority order.
	cat := ResolveCategorical(h, cfg, resolver.CategoricalRules(h.EvaluationDate))
	if cat.Rule != nil {
		trail.add(cat.Rule.ID)
	}

	// Income limits serve both income tests. Missing is fatal unless
	// both tests are bypassed.
	gross := h.GrossIncome()
	limit, diag, err := resolver.IncomeLimit(h.Size, h.EvaluationDate)
	if err != nil {
		if !(cat.Bypass.GrossIncome && cat.Bypass.NetIncome) {
			return nil, err
		}
		limit = nil
	}
	if limit != nil {
		trail.add(limit.ID)
		if diag != nil {
			diags = append(diags, *diag)
		}
	}

	// Gross income test.
	var grossTest TestResult
	switch {
	case cat.Bypass.GrossIncome:
		grossTest = skippedTest(gross, limitID(limit), cat.Code())
	default:
		grossTest = evaluateCeiling(gross, limit.GrossCeiling, limit.ID)
		if grossTest.Outcome == TestFailed {
			reasons = append(reasons, ReasonGrossIncomeExceedsLimit)
		}
	}

	// Deductions and net income. Always computed: net income feeds the
	// benefit reduction even when the net test is bypassed.
	calc := NewDeductionCalculator(resolver, cfg)
	deductions, dedDiags, err := calc.Compute(h)
	if err != nil {
		return nil, err
	}
	diags = append(diags, dedDiags...)
	for _, item := range deductions.Items {
		trail.add(item.RuleID)
	}

	// Net income test.
	var netTest TestResult
	switch {
	case cat.Bypass.NetIncome:
		netTest = skippedTest(deductions.NetIncome, limitID(limit), cat.Code())
	default:
		netTest = evaluateCeiling(deductions.NetIncome, limit.NetCeiling, limit.ID)
		if netTest.Outcome == TestFailed {
			reasons = append(reasons, ReasonNetIncomeExceedsLimit)
		}
	}

	// Asset test: applied only when the jurisdiction requires it and no
	// bypass waives it. Failure co-occurs with income failures.
	var assetTest TestResult
	switch {
	case cat.Bypass.Assets:
		rule, diag, err := resolver.AssetTest(h.Size, h.EvaluationDate)
		if err == nil {
			trail.add(rule.ID)
			if diag != nil {
				diags = append(diags, *diag)
			}
			assetTest = skippedTest(h.Assets, rule.ID, cat.Code())
		} else {
			// Bypassed and no record exists: nothing was consulted.
			assetTest = skippedTest(h.Assets, "", cat.Code())
		}
	case !cfg.AssetTestRequired:
		assetTest = skippedTest(h.Assets, "", "")
	default:
		rule, diag, err := resolver.AssetTest(h.Size, h.EvaluationDate)
		if err != nil {
			return nil, err
		}
		trail.add(rule.ID)
		if diag != nil {
			diags = append(diags, *diag)
		}
		assetTest = evaluateCeiling(h.Assets, assetLimitFor(rule, h), rule.ID)
		if assetTest.Outcome == TestFailed {
			reasons = append(reasons, ReasonAssetLimitExceeded)
		}
	}

	// Benefit amount: only for households that passed everything.
	var benefit Money
	if len(reasons) == 0 {
		allotment, diag, err := resolver.Allotment(h.Size, h.EvaluationDate)
		if err != nil {
			return nil, err
		}
		trail.add(allotment.ID)
		if diag != nil {
			diags = append(diags, *diag)
		}
		benefit = BenefitAmount(allotment, h.Size, deductions.NetIncome)
	}

	return assemble(h, cat, grossTest, netTest, assetTest, deductions, benefit,
		reasons, trail, diags, e.now(), e.actor), nil
}

func limitID(limit *IncomeLimitRule) RuleID {
	if limit == nil {
		return ""
	}
	return limit.ID
}
