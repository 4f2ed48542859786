package action

import (
	"context"

	"github.com/jido/runtime/pkg/signal"
)

// OutcomeKind tags which variant of Outcome is populated.
type OutcomeKind int

const (
	OutcomeOk OutcomeKind = iota
	OutcomeOkWithDirective
	OutcomeErr
	OutcomeErrWithDirective
)

// Outcome is the exhaustive sum type an Action's Run returns. The
// source sometimes returns {ok, result} and sometimes {ok, result,
// directive}; modeling it as a single sum forces exhaustive handling
// at every call site instead of branching on a nil-checked field.
type Outcome struct {
	Kind      OutcomeKind
	Result    map[string]interface{}
	Err       error
	Directive *signal.Directive
}

// Ok constructs the plain-success variant.
func Ok(result map[string]interface{}) Outcome {
	return Outcome{Kind: OutcomeOk, Result: result}
}

// OkDirective constructs the success-with-directive variant.
func OkDirective(result map[string]interface{}, directive signal.Directive) Outcome {
	return Outcome{Kind: OutcomeOkWithDirective, Result: result, Directive: &directive}
}

// Err constructs the plain-failure variant.
func Err(err error) Outcome {
	return Outcome{Kind: OutcomeErr, Err: err}
}

// ErrDirective constructs the failure-with-directive variant.
func ErrDirective(err error, directive signal.Directive) Outcome {
	return Outcome{Kind: OutcomeErrWithDirective, Err: err, Directive: &directive}
}

// IsError reports whether this outcome represents a failure.
func (o Outcome) IsError() bool {
	return o.Kind == OutcomeErr || o.Kind == OutcomeErrWithDirective
}

// HasDirective reports whether this outcome carries a directive.
func (o Outcome) HasDirective() bool {
	return o.Kind == OutcomeOkWithDirective || o.Kind == OutcomeErrWithDirective
}

// Compensation describes an action's opt-in compensation behavior.
type Compensation struct {
	Enabled bool
	Timeout int // ms; 0 means "use the outer timeout or 5000ms default"
}

// Metadata carries action-level configuration the Workflow Executor
// consults, such as compensation policy.
type Metadata struct {
	Compensation Compensation
}

// Action is the opaque pluggable unit of work. Run is mandatory;
// ValidateParams and OnError are optional and detected via the
// ParamValidator / Compensator interfaces below.
type Action interface {
	Run(ctx context.Context, params, runContext map[string]interface{}) Outcome
}

// ParamValidator is optionally implemented by an Action to reject
// malformed params before Run is called.
type ParamValidator interface {
	ValidateParams(params map[string]interface{}) error
}

// StrictAwareValidator is an optional refinement of ParamValidator for
// actions whose validation strictness is controlled per-signal via the
// opts key `strict_validation` (§6) rather than fixed once at
// construction. The Workflow Executor prefers this over ParamValidator
// whenever an action implements both and the signal opts carry the key.
type StrictAwareValidator interface {
	ValidateParamsStrict(params map[string]interface{}, strict bool) error
}

// Compensator is optionally implemented by an Action to run cleanup
// logic when Run's result is a terminal error.
type Compensator interface {
	Run(ctx context.Context, params, runContext map[string]interface{}) Outcome
	OnError(ctx context.Context, params map[string]interface{}, cause error, runContext map[string]interface{}) (map[string]interface{}, error)
	Metadata() Metadata
}

// Func adapts a plain function to the Action interface.
type Func func(ctx context.Context, params, runContext map[string]interface{}) Outcome

func (f Func) Run(ctx context.Context, params, runContext map[string]interface{}) Outcome {
	return f(ctx, params, runContext)
}
