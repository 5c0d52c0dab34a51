package engine

import (
	"fmt"
	"strings"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/validation"
)

// UserAbortError reports an explicit decline to proceed past a blocking
// finding. It is fatal and non-retryable: the run halts before any
// generation step.
type UserAbortError struct {
	// Reason names the blocking condition the user declined.
	Reason string
}

func (e *UserAbortError) Error() string {
	return fmt.Sprintf("aborted by user: %s", e.Reason)
}

// CompatibilityError reports an instance/accelerator mismatch in a
// non-interactive run, where no one can confirm an override.
type CompatibilityError struct {
	// InstanceType is the rejected instance type.
	InstanceType string

	// Reason is the blocking verdict.
	Reason string

	// Recommendations lists instance types the framework entry recommends.
	Recommendations []string
}

func (e *CompatibilityError) Error() string {
	msg := fmt.Sprintf("instance type %s is not compatible: %s", e.InstanceType, e.Reason)
	if len(e.Recommendations) > 0 {
		msg += fmt.Sprintf(" (recommended: %s)", strings.Join(e.Recommendations, ", "))
	}
	return msg
}

// ValidationBlockedError reports blocking validation findings in a
// non-interactive run.
type ValidationBlockedError struct {
	// Result carries the full validation outcome, errors included.
	Result validation.Result
}

func (e *ValidationBlockedError) Error() string {
	return fmt.Sprintf("%d blocking validation finding(s)", len(e.Result.Errors))
}
