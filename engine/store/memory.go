// Package store provides RuleStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/benefit-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	sets map[key]*engine.RuleSet
}

type key struct {
	Jurisdiction string
	Program      string
}

func NewMemory() *Memory {
	return &Memory{sets: make(map[key]*engine.RuleSet)}
}

// Put replaces the entire rule set for its (jurisdiction, program).
func (m *Memory) Put(rs *engine.RuleSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[key{rs.Jurisdiction, rs.Program}] = rs
}

// Add appends records to the set for (jurisdiction, program), creating
// it if needed. Typed variadic arguments keep test setup compact.
func (m *Memory) Add(jurisdiction, program string, records ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{jurisdiction, program}
	rs, ok := m.sets[k]
	if !ok {
		rs = &engine.RuleSet{Jurisdiction: jurisdiction, Program: program}
		m.sets[k] = rs
	}
	for _, r := range records {
		switch rec := r.(type) {
		case engine.IncomeLimitRule:
			rs.IncomeLimits = append(rs.IncomeLimits, rec)
		case engine.DeductionRule:
			rs.Deductions = append(rs.Deductions, rec)
		case engine.AllotmentRule:
			rs.Allotments = append(rs.Allotments, rec)
		case engine.CategoricalRule:
			rs.Categorical = append(rs.Categorical, rec)
		case engine.AssetTestRule:
			rs.AssetTests = append(rs.AssetTests, rec)
		default:
			panic("store.Memory.Add: not a rule record type")
		}
	}
}

// LoadRuleSet returns a copy of the stored set so callers can treat it
// as an immutable snapshot. An unknown pair yields an empty set, not an
// error: the resolver turns absent records into MissingRuleData with
// full lookup context.
func (m *Memory) LoadRuleSet(_ context.Context, jurisdiction, program string) (*engine.RuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs, ok := m.sets[key{jurisdiction, program}]
	if !ok {
		return &engine.RuleSet{Jurisdiction: jurisdiction, Program: program}, nil
	}
	out := &engine.RuleSet{
		Jurisdiction: rs.Jurisdiction,
		Program:      rs.Program,
		IncomeLimits: append([]engine.IncomeLimitRule(nil), rs.IncomeLimits...),
		Deductions:   append([]engine.DeductionRule(nil), rs.Deductions...),
		Allotments:   append([]engine.AllotmentRule(nil), rs.Allotments...),
		Categorical:  append([]engine.CategoricalRule(nil), rs.Categorical...),
		AssetTests:   append([]engine.AssetTestRule(nil), rs.AssetTests...),
	}
	return out, nil
}

// Compile-time check that Memory implements engine.RuleStore.
var _ engine.RuleStore = (*Memory)(nil)
