/*
jurisdiction.go - Per-(jurisdiction, program) policy toggles

PURPOSE:
  Jurisdictions differ in which tests and deductions apply, but the
  evaluators never branch on jurisdiction codes. All variation is
  carried as data in a ProgramConfig plus the jurisdiction's own rule
  records, so adding a jurisdiction means registering one config and
  loading its records - no evaluator changes.

KEY TOGGLES:
  - AssetTestRequired: some jurisdictions waive the asset test
    universally under broad-based categorical eligibility
  - BroadBasedCategorical: enables categorical rules with the
    broad_based condition type
  - DeductionTypes: which deduction definitions this program applies;
    each listed type must have an effective DeductionRule
  - RequiresDependentChildren: program prerequisite (e.g. cash
    assistance limited to households with children)

SEE ALSO:
  - engine.go: Looks up the config before any rule fetch
  - categorical.go: Consults BroadBasedCategorical
*/
package engine

import (
	"sort"
	"sync"
)

// ProgramConfig is the read-only policy configuration for one
// (jurisdiction, program) pair.
type ProgramConfig struct {
	Jurisdiction string `json:"jurisdiction"`
	Program      string `json:"program"`
	Name         string `json:"name,omitempty"`

	AssetTestRequired         bool            `json:"asset_test_required"`
	BroadBasedCategorical     bool            `json:"broad_based_categorical"`
	DeductionTypes            []DeductionType `json:"deduction_types"`
	RequiresDependentChildren bool            `json:"requires_dependent_children"`
}

// AppliesDeduction reports whether this program uses the given
// deduction type.
func (c ProgramConfig) AppliesDeduction(dt DeductionType) bool {
	for _, d := range c.DeductionTypes {
		if d == dt {
			return true
		}
	}
	return false
}

// =============================================================================
// CONFIG REGISTRY
// =============================================================================

type configKey struct {
	jurisdiction string
	program      string
}

// ConfigRegistry holds the known program configurations. A jurisdiction
// or program code the registry does not recognize is InvalidInput.
// Safe for concurrent use: evaluations look up configs while the
// administration API registers new ones.
type ConfigRegistry struct {
	mu      sync.RWMutex
	configs map[configKey]ProgramConfig
}

func NewConfigRegistry() *ConfigRegistry {
	return &ConfigRegistry{configs: make(map[configKey]ProgramConfig)}
}

// Register adds or replaces the config for its (jurisdiction, program).
func (r *ConfigRegistry) Register(cfg ProgramConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[configKey{cfg.Jurisdiction, cfg.Program}] = cfg
}

// Lookup returns the config for (jurisdiction, program).
func (r *ConfigRegistry) Lookup(jurisdiction, program string) (ProgramConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[configKey{jurisdiction, program}]
	return cfg, ok
}

// List returns all registered configs in stable order.
func (r *ConfigRegistry) List() []ProgramConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProgramConfig, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Jurisdiction != out[j].Jurisdiction {
			return out[i].Jurisdiction < out[j].Jurisdiction
		}
		return out[i].Program < out[j].Program
	})
	return out
}
