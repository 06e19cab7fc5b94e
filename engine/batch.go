/*
batch.go - Batch coordination with per-household failure isolation

PURPOSE:
  Fans a bounded list of household snapshots through the single-
  household pipeline. The batch cap is checked before any computation;
  exceeding it rejects the whole request. Each household's rule
  snapshot is fetched once per (jurisdiction, program) pair and reused,
  so every household in the batch is evaluated against identical rule
  data and store round-trips stay bounded.

ISOLATION:
  One household's failure (MissingRuleData, InvalidInput) never aborts
  the others; results are reported positionally, one per input. Nothing
  is silently omitted or substituted.

CONCURRENCY:
  Households run concurrently - the pipeline is pure over immutable
  inputs, so there is no shared mutable state to guard. Cancelling the
  context abandons not-yet-started households; in-flight computations
  are cheap and simply finish.
*/
package engine

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMaxBatchSize is the hard cap on households per batch.
const DefaultMaxBatchSize = 50

// BatchResult is the positional outcome for one household: exactly one
// of Determination or Err is set.
type BatchResult struct {
	Index         int
	Determination *Determination
	Err           error
}

type pairKey struct {
	jurisdiction string
	program      string
}

// pairData is one (jurisdiction, program) pair's shared rule snapshot,
// or the fetch/config error every household of that pair reports.
type pairData struct {
	cfg   ProgramConfig
	rules *RuleSet
	err   error
}

// EvaluateBatch runs every household through the pipeline and returns
// one result per input, in input order.
func (e *Engine) EvaluateBatch(ctx context.Context, households []HouseholdSnapshot) ([]BatchResult, error) {
	if len(households) > e.maxBatchSize {
		return nil, &BatchTooLargeError{Size: len(households), Limit: e.maxBatchSize}
	}

	pairs := e.fetchRuleSnapshots(ctx, households)

	results := make([]BatchResult, len(households))
	var wg sync.WaitGroup
	for i := range households {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			h := households[idx]
			results[idx] = BatchResult{Index: idx}

			if err := ctx.Err(); err != nil {
				results[idx].Err = err
				return
			}
			if err := h.Validate(); err != nil {
				results[idx].Err = err
				return
			}
			pair := pairs[pairKey{h.Jurisdiction, h.Program}]
			if pair.err != nil {
				results[idx].Err = pair.err
				return
			}
			det, err := e.evaluate(h, pair.cfg, pair.rules)
			if err != nil {
				results[idx].Err = err
				return
			}
			results[idx].Determination = det
		}(i)
	}
	wg.Wait()
	return results, nil
}

// fetchRuleSnapshots loads each distinct (jurisdiction, program) rule
// set once, before any evaluation starts. Failures are recorded per
// pair so every affected household reports the same error.
func (e *Engine) fetchRuleSnapshots(ctx context.Context, households []HouseholdSnapshot) map[pairKey]pairData {
	pairs := make(map[pairKey]pairData)
	for _, h := range households {
		if h.Validate() != nil {
			continue // the worker reports the validation error
		}
		key := pairKey{h.Jurisdiction, h.Program}
		if _, done := pairs[key]; done {
			continue
		}
		cfg, ok := e.configs.Lookup(h.Jurisdiction, h.Program)
		if !ok {
			pairs[key] = pairData{err: &InvalidInputError{
				Field:  "jurisdiction",
				Reason: fmt.Sprintf("program %q is not configured for jurisdiction %q", h.Program, h.Jurisdiction),
			}}
			continue
		}
		rules, err := e.store.LoadRuleSet(ctx, h.Jurisdiction, h.Program)
		if err != nil {
			pairs[key] = pairData{err: fmt.Errorf("loading rules for %s/%s: %w", h.Jurisdiction, h.Program, err)}
			continue
		}
		pairs[key] = pairData{cfg: cfg, rules: rules}
	}
	return pairs
}
