/*
errors.go - Centralized error types for the determination engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; structured types carry the
  detail an administrator needs to fix the underlying data.

ERROR CATEGORIES:
  1. InvalidInput      - malformed household data; caller error
  2. MissingRuleData   - no effective rule record for a required lookup;
                         a policy-administration gap, not a caller error
  3. BatchTooLarge     - batch cap exceeded; rejected before any work
  4. OverlapDiagnostic - NOT an error: a non-fatal diagnostic emitted
                         when the resolver had to tie-break ambiguous
                         records (see resolver.go)

USAGE:
  det, err := eng.Evaluate(ctx, snapshot)
  if errors.Is(err, engine.ErrMissingRuleData) {
      var mrd *engine.MissingRuleDataError
      errors.As(err, &mrd)  // mrd.Kind, mrd.HouseholdSize, mrd.Date
  }

SEE ALSO:
  - resolver.go: Emits MissingRuleDataError and OverlapDiagnostic
  - batch.go: Emits BatchTooLargeError
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed or out-of-range household
	// data. Never retried automatically; surfaced verbatim to the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingRuleData is returned when no effective rule record exists
	// for a required (jurisdiction, program, kind, date) lookup. Retrying
	// will not help until an administrator adds the missing version.
	ErrMissingRuleData = errors.New("missing rule data")

	// ErrBatchTooLarge is returned when a batch exceeds the coordinator's
	// hard cap. No household in the batch is evaluated.
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrDeterminationNotFound is returned by stores when a requested
	// determination does not exist.
	ErrDeterminationNotFound = errors.New("determination not found")

	// ErrRuleNotFound is returned by stores when a referenced rule record
	// does not exist.
	ErrRuleNotFound = errors.New("rule record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError reports which household field failed validation.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// MissingRuleDataError identifies the exact lookup that found no
// effective record, so an administrator can add the missing version.
type MissingRuleDataError struct {
	Jurisdiction  string
	Program       string
	Kind          RuleKind
	DeductionType DeductionType // set only for Kind == KindDeduction
	HouseholdSize int
	Date          Date
}

func (e *MissingRuleDataError) Error() string {
	if e.Kind == KindDeduction && e.DeductionType != "" {
		return fmt.Sprintf("missing rule data: no effective %s/%s rule for %s/%s size %d on %s",
			e.Kind, e.DeductionType, e.Jurisdiction, e.Program, e.HouseholdSize, e.Date)
	}
	return fmt.Sprintf("missing rule data: no effective %s rule for %s/%s size %d on %s",
		e.Kind, e.Jurisdiction, e.Program, e.HouseholdSize, e.Date)
}

func (e *MissingRuleDataError) Unwrap() error { return ErrMissingRuleData }

// BatchTooLargeError reports the offending batch size and the cap.
type BatchTooLargeError struct {
	Size  int
	Limit int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch too large: %d households exceeds limit of %d", e.Size, e.Limit)
}

func (e *BatchTooLargeError) Unwrap() error { return ErrBatchTooLarge }

// =============================================================================
// DIAGNOSTICS - Non-fatal observations carried on the determination
// =============================================================================

// OverlapDiagnostic records that two active rule records both claimed
// the evaluation date and the resolver had to tie-break. The chosen
// record was used; the event is flagged for administrative cleanup.
// This is a diagnostic, not an error: the determination proceeds.
type OverlapDiagnostic struct {
	Kind     RuleKind `json:"kind"`
	ChosenID RuleID   `json:"chosen_id"`
	OtherID  RuleID   `json:"other_id"`
	Date     Date     `json:"date"`
}

func (d OverlapDiagnostic) String() string {
	return fmt.Sprintf("overlap detected: %s rules %s and %s both effective on %s (chose %s)",
		d.Kind, d.ChosenID, d.OtherID, d.Date, d.ChosenID)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrBatchTooLarge)
}

// IsMissingRuleData returns true for policy-administration gaps.
func IsMissingRuleData(err error) bool {
	return errors.Is(err, ErrMissingRuleData)
}

// IsNotFound returns true if the error indicates a missing stored entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDeterminationNotFound) || errors.Is(err, ErrRuleNotFound)
}
