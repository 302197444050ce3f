package admin

import (
	"github.com/genesoft/portal-backend/pkg/metrics"
	"github.com/genesoft/portal-backend/pkg/types"
)

// StepResult reports one step of an elevated action.
type StepResult struct {
	Attempted bool
	Err       error
}

// OK reports whether the step ran and succeeded.
func (s StepResult) OK() bool {
	return s.Attempted && s.Err == nil
}

func (s StepResult) outcome() string {
	switch {
	case !s.Attempted:
		return metrics.OutcomeSkipped
	case s.Err != nil:
		return metrics.OutcomeFailure
	default:
		return metrics.OutcomeSuccess
	}
}

// Outcome is the result of an elevated action. The primary step decides
// success; a secondary failure is reported here and nowhere else.
type Outcome struct {
	Primary   StepResult
	Secondary StepResult
}

// Err returns the primary step's error.
func (o Outcome) Err() error {
	return o.Primary.Err
}

// CreateUserOutcome adds the created user to the outcome.
type CreateUserOutcome struct {
	Outcome
	User *types.UserHandle
}

func rejected(err error) Outcome {
	return Outcome{Primary: StepResult{Err: err}}
}
